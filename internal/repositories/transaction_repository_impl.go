package repositories

import (
	"context"
	"errors"
	"fmt"

	"amstapay/internal/models"

	"gorm.io/gorm"
)

type transactionRepository struct {
	db *gorm.DB
}

func NewTransactionRepository(db *gorm.DB) TransactionRepository {
	return &transactionRepository{
		db: db,
	}
}

func (r *transactionRepository) Create(txn *models.Transaction) error {
	if err := r.db.Create(txn).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return ErrDuplicateReference
		}
		return fmt.Errorf("failed to create transaction: %w", err)
	}
	return nil
}

func (r *transactionRepository) GetByReference(reference string) (*models.Transaction, error) {
	var txn models.Transaction
	if err := r.db.Where("reference = ?", reference).First(&txn).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTransactionNotFound
		}
		return nil, fmt.Errorf("failed to get transaction: %w", err)
	}
	return &txn, nil
}

// UpdateStatus moves status to newStatus, but only while the stored
// status is one of expected; a zero row count means another update got
// there first and the caller sees ErrStatusConflict. The conditional
// UPDATE runs first so the row is locked before the metadata merge
// reads it, and the outbox event rides in the same transaction as both.
func (r *transactionRepository) UpdateStatus(reference string, expected []string, newStatus string, patch models.JSON, evt *models.OutboxEvent) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.Transaction{}).
			Where("reference = ? AND status IN ?", reference, expected).
			Update("status", newStatus)
		if res.Error != nil {
			return fmt.Errorf("failed to update transaction status: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			var count int64
			if err := tx.Model(&models.Transaction{}).
				Where("reference = ?", reference).Count(&count).Error; err != nil {
				return fmt.Errorf("failed to load transaction: %w", err)
			}
			if count == 0 {
				return ErrTransactionNotFound
			}
			return ErrStatusConflict
		}

		if len(patch) > 0 {
			var txn models.Transaction
			if err := tx.Where("reference = ?", reference).First(&txn).Error; err != nil {
				return fmt.Errorf("failed to load transaction: %w", err)
			}
			merged := txn.Metadata
			if merged == nil {
				merged = models.JSON{}
			}
			for k, v := range patch {
				merged[k] = v
			}
			if err := tx.Model(&models.Transaction{}).
				Where("reference = ?", reference).
				Update("metadata", merged).Error; err != nil {
				return fmt.Errorf("failed to update transaction metadata: %w", err)
			}
		}

		if evt != nil {
			if err := tx.Create(evt).Error; err != nil {
				return fmt.Errorf("failed to enqueue outbox event: %w", err)
			}
		}
		return nil
	})
}

func (r *transactionRepository) ListBySender(ctx context.Context, senderID uint, limit, offset int) ([]models.Transaction, error) {
	var txns []models.Transaction
	err := r.db.WithContext(ctx).
		Where("sender_id = ?", senderID).
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&txns).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}
	return txns, nil
}
