// Package webhook reconciles asynchronous processor events with
// previously recorded transactions. Every state change goes through the
// transaction store's CAS, which makes duplicate delivery of the same
// event a no-op after the first application.
package webhook

import (
	"context"
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
	"encoding/json"
	"errors"

	"amstapay/internal/models"
	"amstapay/internal/repositories"
	"amstapay/internal/services/transaction"
	"amstapay/internal/services/wallet"

	"go.uber.org/zap"
)

// Processor event types carried on the signed payload.
const (
	EventTransferSuccess  = "transfer.success"
	EventTransferFailed   = "transfer.failed"
	EventTransferReversed = "transfer.reversed"
)

// Event is the processor's webhook envelope.
type Event struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

type eventData struct {
	Reference string `json:"reference"`
}

// Service verifies and applies processor webhook events.
type Service interface {
	VerifySignature(payload []byte, signature string) error
	HandleEvent(ctx context.Context, payload []byte) error
}

type service struct {
	secret   []byte
	txns     repositories.TransactionRepository
	wallets  wallet.Service
	notifier transaction.Notifier
	log      *zap.SugaredLogger
}

// NewService creates the webhook reconciler. The notifier is an
// optional side channel.
func NewService(
	secret string,
	txns repositories.TransactionRepository,
	wallets wallet.Service,
	notifier transaction.Notifier,
	log *zap.SugaredLogger,
) Service {
	if secret == "" {
		panic("webhook secret is required")
	}
	if txns == nil {
		panic("transaction repository is required")
	}
	if wallets == nil {
		panic("wallet service is required")
	}
	if log == nil {
		panic("logger is required")
	}
	return &service{
		secret:   []byte(secret),
		txns:     txns,
		wallets:  wallets,
		notifier: notifier,
		log:      log,
	}
}

// VerifySignature computes an HMAC-SHA512 over the raw payload bytes and
// compares it with the processor's signature header in constant time.
// The payload must be the unparsed request body. A mismatch returns
// ErrInvalidSignature.
func (s *service) VerifySignature(payload []byte, signature string) error {
	mac := hmac.New(sha512.New, s.secret)
	mac.Write(payload)
	expected := hex.EncodeToString(mac.Sum(nil))
	if !hmac.Equal([]byte(expected), []byte(signature)) {
		return ErrInvalidSignature
	}
	return nil
}

// HandleEvent parses a verified payload and applies the terminal state
// transition for its reference. Unknown references and already-applied
// transitions are acknowledged without error so the processor stops
// retrying.
func (s *service) HandleEvent(ctx context.Context, payload []byte) error {
	var evt Event
	if err := json.Unmarshal(payload, &evt); err != nil {
		return ErrMalformedPayload
	}

	var data eventData
	if err := json.Unmarshal(evt.Data, &data); err != nil || data.Reference == "" {
		s.log.Warnw("webhook event without reference", "event", evt.Event)
		return nil
	}

	txn, err := s.txns.GetByReference(data.Reference)
	if err != nil {
		if errors.Is(err, repositories.ErrTransactionNotFound) {
			// Not one of ours, or long since archived. Ack and move on.
			s.log.Infow("webhook for unknown reference",
				"event", evt.Event, "reference", data.Reference)
			return nil
		}
		return err
	}

	patch := s.providerPatch(evt)

	switch evt.Event {
	case EventTransferSuccess:
		return s.applySuccess(txn, patch)
	case EventTransferFailed, EventTransferReversed:
		return s.applyFailure(ctx, txn, patch)
	default:
		s.log.Infow("unhandled webhook event", "event", evt.Event, "reference", data.Reference)
		return nil
	}
}

func (s *service) applySuccess(txn *models.Transaction, patch models.JSON) error {
	err := s.txns.UpdateStatus(txn.Reference,
		[]string{models.StatusPending, models.StatusProcessing},
		models.StatusSuccess, patch,
		models.NewTransactionEvent(txn, models.StatusSuccess))
	if err != nil {
		if errors.Is(err, repositories.ErrStatusConflict) {
			// Already terminal: idempotent redelivery.
			return nil
		}
		return err
	}

	txn.Status = models.StatusSuccess
	s.notify(txn)
	return nil
}

// applyFailure moves the record to failed and refunds the sender's
// debit. The refund only runs when this call won the CAS, so it happens
// at most once per transaction no matter how often the processor
// redelivers the event.
func (s *service) applyFailure(ctx context.Context, txn *models.Transaction, patch models.JSON) error {
	err := s.txns.UpdateStatus(txn.Reference,
		[]string{models.StatusPending, models.StatusProcessing, models.StatusSuccess},
		models.StatusFailed, patch,
		models.NewTransactionEvent(txn, models.StatusFailed))
	if err != nil {
		if errors.Is(err, repositories.ErrStatusConflict) {
			return nil
		}
		return err
	}

	txn.Status = models.StatusFailed
	s.notify(txn)

	if err := s.wallets.Refund(ctx, txn.SenderID, txn.Amount, txn.Reference); err != nil {
		// The failed status is durable; the refund needs operator
		// follow-up rather than a retry from the processor.
		s.log.Errorw("webhook refund failed",
			"reference", txn.Reference, "user_id", txn.SenderID, "error", err)
		return err
	}
	return nil
}

func (s *service) providerPatch(evt Event) models.JSON {
	patch := models.JSON{"provider_event": evt.Event}
	var raw map[string]interface{}
	if err := json.Unmarshal(evt.Data, &raw); err == nil {
		patch["provider_payload"] = raw
	}
	return patch
}

func (s *service) notify(txn *models.Transaction) {
	if s.notifier == nil {
		return
	}
	snapshot := *txn
	go s.notifier.TransactionUpdated(context.Background(), &snapshot)
}
