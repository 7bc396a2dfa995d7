package repositories

import (
	"context"
	"fmt"
	"time"

	"amstapay/internal/models"

	"gorm.io/gorm"
)

// OutboxRepository drains transaction events for the Kafka poller.
// Events are written by TransactionRepository.UpdateStatus inside the
// status-change transaction; this side only reads and marks them.
type OutboxRepository interface {
	PollUnprocessed(ctx context.Context, limit int) ([]models.OutboxEvent, error)
	MarkProcessed(id uint) error
}

type outboxRepository struct {
	db *gorm.DB
}

func NewOutboxRepository(db *gorm.DB) OutboxRepository {
	return &outboxRepository{
		db: db,
	}
}

func (r *outboxRepository) PollUnprocessed(ctx context.Context, limit int) ([]models.OutboxEvent, error) {
	var evts []models.OutboxEvent
	err := r.db.WithContext(ctx).
		Where("processed = ?", false).
		Order("created_at").
		Limit(limit).
		Find(&evts).Error
	if err != nil {
		return nil, fmt.Errorf("failed to poll outbox: %w", err)
	}
	return evts, nil
}

func (r *outboxRepository) MarkProcessed(id uint) error {
	now := time.Now()
	err := r.db.Model(&models.OutboxEvent{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{"processed": true, "processed_at": &now}).Error
	if err != nil {
		return fmt.Errorf("failed to mark outbox event processed: %w", err)
	}
	return nil
}
