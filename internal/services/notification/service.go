// Package notification is the boundary to the email/SMS delivery
// collaborator. Delivery failures are logged and never block or roll
// back a transaction outcome.
package notification

import (
	"context"

	"amstapay/internal/models"

	"go.uber.org/zap"
)

// Service is a minimal notification dispatcher.
type Service struct {
	log *zap.SugaredLogger
}

// NewService creates a new notification service.
func NewService(log *zap.SugaredLogger) *Service {
	return &Service{log: log}
}

// TransactionUpdated notifies the initiating user of a status change.
func (s *Service) TransactionUpdated(ctx context.Context, txn *models.Transaction) {
	s.log.Infow("notify transaction update",
		"user_id", txn.SenderID,
		"reference", txn.Reference,
		"type", txn.Type,
		"status", txn.Status,
	)
}
