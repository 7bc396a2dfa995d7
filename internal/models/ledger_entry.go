package models

import "time"

// Ledger entry directions
const (
	EntryDebit  = "debit"
	EntryCredit = "credit"
	EntryRefund = "refund"
)

// LedgerEntry is an immutable record of a single movement against one
// wallet. Entries are only ever appended; a wallet's balance must equal
// the signed sum of its entries at all times.
type LedgerEntry struct {
	ID        uint   `gorm:"primarykey"`
	WalletID  uint   `gorm:"index;not null"`
	Direction string `gorm:"size:10;not null"`
	Amount    int64  `gorm:"not null"` // positive minor units
	Reference string `gorm:"index;not null"`
	CreatedAt time.Time
}

// Signed returns the entry amount with its direction applied.
func (e *LedgerEntry) Signed() int64 {
	if e.Direction == EntryDebit {
		return -e.Amount
	}
	return e.Amount
}
