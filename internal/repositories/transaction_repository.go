package repositories

import (
	"context"
	"errors"

	"amstapay/internal/models"
)

var (
	ErrTransactionNotFound = errors.New("transaction not found")
	ErrDuplicateReference  = errors.New("duplicate transaction reference")
	ErrStatusConflict      = errors.New("transaction status conflict")
)

// TransactionRepository defines the interface for transaction record
// persistence. UpdateStatus is a compare-and-swap on the status column:
// it applies only when the stored status is one of the expected values,
// which is what makes duplicate webhook delivery and concurrent retries
// safe to receive. When evt is non-nil it is inserted in the same
// database transaction as the status change, so a committed transition
// can never lose its outbox event.
type TransactionRepository interface {
	Create(txn *models.Transaction) error
	GetByReference(reference string) (*models.Transaction, error)
	UpdateStatus(reference string, expected []string, newStatus string, patch models.JSON, evt *models.OutboxEvent) error
	ListBySender(ctx context.Context, senderID uint, limit, offset int) ([]models.Transaction, error)
}
