package models

import (
	"encoding/json"
	"time"
)

// OutboxEvent is a queued domain event produced on transaction status
// changes and published to Kafka by cmd/poller. Rows are written in the
// same database transaction as the status change they announce.
type OutboxEvent struct {
	ID          uint   `gorm:"primarykey"`
	Aggregate   string `gorm:"size:64;not null"`
	Reference   string `gorm:"size:64;index;not null"`
	EventType   string `gorm:"size:64;not null"`
	Payload     string `gorm:"type:jsonb;not null"`
	Processed   bool   `gorm:"not null;default:false"`
	ProcessedAt *time.Time
	CreatedAt   time.Time
}

// NewTransactionEvent builds the outbox event announcing that txn is
// moving to status.
func NewTransactionEvent(txn *Transaction, status string) *OutboxEvent {
	payload, _ := json.Marshal(map[string]interface{}{
		"reference": txn.Reference,
		"type":      txn.Type,
		"status":    status,
		"amount":    txn.Amount,
		"sender_id": txn.SenderID,
	})
	return &OutboxEvent{
		Aggregate: "transaction",
		Reference: txn.Reference,
		EventType: "transaction." + status,
		Payload:   string(payload),
	}
}
