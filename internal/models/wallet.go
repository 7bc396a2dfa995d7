package models

import (
	"time"

	"gorm.io/gorm"
)

// Wallet holds a user's balance in integer minor units (kobo).
// Balances are never stored as floating point.
type Wallet struct {
	ID        uint   `gorm:"primarykey"`
	UserID    uint   `gorm:"uniqueIndex;not null"`
	Balance   int64  `gorm:"not null;default:0"`
	Currency  string `gorm:"size:3;default:'NGN'"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (w *Wallet) BeforeCreate(tx *gorm.DB) error {
	// Ensure balance starts at 0
	w.Balance = 0
	return nil
}
