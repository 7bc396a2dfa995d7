package models

import (
	"time"
)

// Transaction types
const (
	TransactionTypeTransfer     = "transfer"
	TransactionTypeQRPayment    = "qr_payment"
	TransactionTypeBankTransfer = "bank_transfer"
	TransactionTypeAirtime      = "airtime"
	TransactionTypeData         = "data"
	TransactionTypeCable        = "cable"
	TransactionTypeElectricity  = "electricity"
	TransactionTypeFund         = "fund"
	TransactionTypeWithdraw     = "withdraw"
)

// Transaction statuses
const (
	StatusPending    = "pending"
	StatusProcessing = "processing"
	StatusSuccess    = "success"
	StatusFailed     = "failed"
)

// Transaction represents one attempted money movement. The Reference is
// generated once at creation and is the single correlation key for
// webhook reconciliation; records are never deleted.
type Transaction struct {
	ID                    uint   `gorm:"primarykey"`
	Reference             string `gorm:"uniqueIndex;not null"`
	Type                  string `gorm:"not null"`
	SenderID              uint   `gorm:"index;not null"`
	ReceiverID            *uint  `gorm:"index"` // set for wallet-internal movements
	ReceiverName          string
	ReceiverAccountNumber string
	ReceiverBank          string // e.g. "AmstaPay" or an external bank code
	Amount                int64  `gorm:"not null"` // minor units
	Currency              string `gorm:"size:3;default:'NGN'"`
	Description           string
	QRData                string // scanned QR payload for qr_payment
	Status                string `gorm:"not null;default:'pending'"`
	Metadata              JSON   `gorm:"type:jsonb"` // provider responses, failure causes
	CreatedAt             time.Time
	UpdatedAt             time.Time
}
