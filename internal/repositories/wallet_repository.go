package repositories

import (
	"errors"

	"amstapay/internal/models"
)

var (
	ErrWalletNotFound    = errors.New("wallet not found")
	ErrInvalidAmount     = errors.New("invalid amount")
	ErrInsufficientFunds = errors.New("insufficient funds")
)

// WalletRepository defines the interface for wallet-related database
// operations. Debit, Credit and Refund each decrement/increment the
// balance and append the matching ledger entry inside one database
// transaction; callers never observe a balance change without its entry.
type WalletRepository interface {
	// Core wallet operations
	GetOrCreate(userID uint) (*models.Wallet, error)
	GetByID(id uint) (*models.Wallet, error)
	GetByUserID(userID uint) (*models.Wallet, error)

	// Atomic balance mutations, keyed by transaction reference
	Debit(walletID uint, amount int64, reference string) error
	Credit(walletID uint, amount int64, reference string) error
	Refund(walletID uint, amount int64, reference string) error

	// Ledger queries
	LedgerEntries(walletID uint, limit, offset int) ([]models.LedgerEntry, error)
	LedgerBalance(walletID uint) (int64, error)

	// ExecuteInTransaction runs fn against a repository bound to one
	// database transaction, so a debit-then-credit pair commits or
	// rolls back as a unit.
	ExecuteInTransaction(fn func(WalletRepository) error) error

	// Analytics
	GetTotalBalance() (int64, error)
}
