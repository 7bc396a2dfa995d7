package wallet

import (
	"context"

	"amstapay/internal/models"
)

// Service defines the main wallet service interface. All amounts are
// integer minor units and every mutation is tagged with the transaction
// reference it belongs to.
type Service interface {
	// Core wallet operations
	GetWallet(ctx context.Context, userID uint) (*models.Wallet, error)
	Credit(ctx context.Context, userID uint, amount int64, reference string) error
	Debit(ctx context.Context, userID uint, amount int64, reference string) error
	Refund(ctx context.Context, userID uint, amount int64, reference string) error

	// Balance operations
	GetBalance(ctx context.Context, userID uint) (int64, error)
	ValidateBalance(ctx context.Context, userID uint, amount int64) error

	// Transfer moves funds between two users' wallets as one atomic unit
	Transfer(ctx context.Context, fromUserID, toUserID uint, amount int64, reference string) error

	// Ledger queries
	LedgerEntries(ctx context.Context, userID uint, limit, offset int) ([]models.LedgerEntry, error)
}
