package models

import (
	"gorm.io/gorm"
)

type User struct {
	gorm.Model
	FullName      string `gorm:"not null"`
	Email         string `gorm:"uniqueIndex;not null"` // Unique index on Email
	Phone         string `gorm:"uniqueIndex;not null"` // Unique index on Phone
	AccountNumber string `gorm:"uniqueIndex;not null"` // AmstaPay account number, used to address transfers
	Status        string `gorm:"default:'active'"`
}
