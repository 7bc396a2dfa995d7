package transaction

import (
	"context"

	"amstapay/internal/models"
)

// Service is the transaction orchestrator: it creates the transaction
// record, performs the local ledger mutation and/or the gateway call for
// the requested kind, and sets the resulting status.
type Service interface {
	Process(ctx context.Context, req Request) (*models.Transaction, error)
	GetByReference(ctx context.Context, userID uint, reference string) (*models.Transaction, error)
	List(ctx context.Context, userID uint, limit, offset int) ([]models.Transaction, error)
}

// Notifier delivers user-facing notifications after status changes.
// Calls are fire-and-forget; failures never block or roll back the
// transaction outcome.
type Notifier interface {
	TransactionUpdated(ctx context.Context, txn *models.Transaction)
}
