package transaction

import (
	"context"
	"errors"
	"fmt"

	"amstapay/internal/gateway"
	"amstapay/internal/models"
	"amstapay/internal/repositories"
	"amstapay/internal/services/wallet"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type service struct {
	txns     repositories.TransactionRepository
	users    repositories.UserRepository
	wallets  wallet.Service
	gateway  gateway.PaymentGateway
	notifier Notifier
	config   Config
	log      *zap.SugaredLogger
}

// NewService creates a new transaction orchestrator. The notifier is an
// optional side channel; everything else is required.
func NewService(
	txns repositories.TransactionRepository,
	users repositories.UserRepository,
	wallets wallet.Service,
	gw gateway.PaymentGateway,
	notifier Notifier,
	config Config,
	log *zap.SugaredLogger,
) Service {
	if txns == nil {
		panic("transaction repository is required")
	}
	if users == nil {
		panic("user repository is required")
	}
	if wallets == nil {
		panic("wallet service is required")
	}
	if gw == nil {
		panic("payment gateway is required")
	}
	if log == nil {
		panic("logger is required")
	}
	if config.GatewayTimeout == 0 {
		config.GatewayTimeout = DefaultGatewayTimeout
	}

	return &service{
		txns:     txns,
		users:    users,
		wallets:  wallets,
		gateway:  gw,
		notifier: notifier,
		config:   config,
		log:      log,
	}
}

// Process runs the state machine for one transaction request. Every
// kind starts in pending; no path may leave a record stuck there.
func (s *service) Process(ctx context.Context, req Request) (*models.Transaction, error) {
	if req.Amount <= 0 {
		return nil, ErrInvalidAmount
	}

	switch req.Kind {
	case KindTransfer, KindQRPayment:
		return s.processWalletTransfer(ctx, req)
	case KindBankTransfer:
		return s.processBankTransfer(ctx, req)
	case KindAirtime, KindData, KindCable, KindElectricity:
		return s.processBillPurchase(ctx, req)
	case KindFund:
		return s.processFund(ctx, req)
	case KindWithdraw:
		return s.processWithdraw(ctx, req)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedKind, req.Kind)
	}
}

func (s *service) processWalletTransfer(ctx context.Context, req Request) (*models.Transaction, error) {
	if req.Transfer == nil || req.Transfer.ReceiverAccountNumber == "" {
		return nil, fmt.Errorf("%w: receiver account number", ErrMissingDetails)
	}

	sender, err := s.users.GetByID(req.SenderID)
	if err != nil {
		return nil, ErrSenderNotFound
	}
	receiver, err := s.users.GetByAccountNumber(req.Transfer.ReceiverAccountNumber)
	if err != nil {
		return nil, ErrReceiverNotFound
	}
	if receiver.ID == sender.ID {
		return nil, ErrSelfTransfer
	}

	txn := &models.Transaction{
		Type:                  string(req.Kind),
		SenderID:              sender.ID,
		ReceiverID:            &receiver.ID,
		ReceiverName:          receiver.FullName,
		ReceiverAccountNumber: receiver.AccountNumber,
		ReceiverBank:          "AmstaPay",
		Amount:                req.Amount,
		Description:           req.Description,
		QRData:                req.Transfer.QRData,
		Status:                models.StatusPending,
	}
	if err := s.createRecord(txn); err != nil {
		return nil, err
	}

	if err := s.wallets.Transfer(ctx, sender.ID, receiver.ID, req.Amount, txn.Reference); err != nil {
		s.failPending(txn, models.JSON{"failure_reason": err.Error()})
		if errors.Is(err, wallet.ErrInsufficientBalance) {
			return txn, ErrInsufficientBalance
		}
		return txn, fmt.Errorf("transfer failed: %w", err)
	}

	if err := s.transition(txn, []string{models.StatusPending}, models.StatusSuccess, nil); err != nil &&
		!errors.Is(err, repositories.ErrStatusConflict) {
		return txn, err
	}
	return txn, nil
}

// processBankTransfer debits the sender first to earmark the funds,
// then walks the gateway flow: resolve account, create recipient,
// initiate the payout under the transaction reference. The terminal
// state arrives later via webhook, so a successful initiation only
// moves the record to processing.
func (s *service) processBankTransfer(ctx context.Context, req Request) (*models.Transaction, error) {
	if req.Bank == nil || req.Bank.AccountNumber == "" || req.Bank.BankCode == "" {
		return nil, fmt.Errorf("%w: bank account details", ErrMissingDetails)
	}

	sender, err := s.users.GetByID(req.SenderID)
	if err != nil {
		return nil, ErrSenderNotFound
	}

	txn := &models.Transaction{
		Type:                  string(KindBankTransfer),
		SenderID:              sender.ID,
		ReceiverName:          req.Bank.AccountName,
		ReceiverAccountNumber: req.Bank.AccountNumber,
		ReceiverBank:          req.Bank.BankCode,
		Amount:                req.Amount,
		Description:           req.Description,
		Status:                models.StatusPending,
	}
	if err := s.createRecord(txn); err != nil {
		return nil, err
	}

	if err := s.wallets.Debit(ctx, sender.ID, req.Amount, txn.Reference); err != nil {
		s.failPending(txn, models.JSON{"failure_reason": err.Error()})
		if errors.Is(err, wallet.ErrInsufficientBalance) {
			return txn, ErrInsufficientBalance
		}
		return txn, fmt.Errorf("debit failed: %w", err)
	}

	gctx, cancel := context.WithTimeout(ctx, s.config.GatewayTimeout)
	defer cancel()

	accountName := req.Bank.AccountName
	if accountName == "" {
		info, err := s.gateway.ResolveAccount(gctx, req.Bank.AccountNumber, req.Bank.BankCode)
		if err != nil {
			return s.failDebited(ctx, txn, sender.ID, err)
		}
		accountName = info.AccountName
	}

	recipientCode, err := s.gateway.CreateRecipient(gctx, accountName, req.Bank.AccountNumber, req.Bank.BankCode)
	if err != nil {
		return s.failDebited(ctx, txn, sender.ID, err)
	}

	reason := req.Description
	if reason == "" {
		reason = fmt.Sprintf("Transfer to %s", accountName)
	}
	result, err := s.gateway.InitiateTransfer(gctx, req.Amount, recipientCode, reason, txn.Reference)
	if err != nil {
		return s.failDebited(ctx, txn, sender.ID, err)
	}

	patch := models.JSON{
		"account_name":    accountName,
		"recipient_code":  recipientCode,
		"transfer_code":   result.TransferCode,
		"provider_status": result.Status,
	}
	err = s.transition(txn, []string{models.StatusPending}, models.StatusProcessing, patch)
	if errors.Is(err, repositories.ErrStatusConflict) {
		// The processor's webhook landed before we could record
		// processing; its terminal state stands. Re-read so the
		// caller sees that state, not the stale pending copy.
		if fresh, rerr := s.txns.GetByReference(txn.Reference); rerr == nil {
			return fresh, nil
		}
		return txn, nil
	}
	return txn, err
}

func (s *service) processBillPurchase(ctx context.Context, req Request) (*models.Transaction, error) {
	if req.Bill == nil || req.Bill.Customer == "" {
		return nil, fmt.Errorf("%w: bill customer", ErrMissingDetails)
	}
	switch req.Kind {
	case KindData:
		if req.Bill.Plan == "" {
			return nil, fmt.Errorf("%w: data plan", ErrMissingDetails)
		}
	case KindCable:
		if req.Bill.Provider == "" || req.Bill.Plan == "" {
			return nil, fmt.Errorf("%w: cable provider and plan", ErrMissingDetails)
		}
	case KindElectricity:
		if req.Bill.Provider == "" {
			return nil, fmt.Errorf("%w: electricity disco", ErrMissingDetails)
		}
	}

	sender, err := s.users.GetByID(req.SenderID)
	if err != nil {
		return nil, ErrSenderNotFound
	}

	meta := models.JSON{"customer": req.Bill.Customer}
	if req.Bill.Plan != "" {
		meta["plan"] = req.Bill.Plan
	}
	if req.Bill.Provider != "" {
		meta["provider"] = req.Bill.Provider
	}

	txn := &models.Transaction{
		Type:        string(req.Kind),
		SenderID:    sender.ID,
		Amount:      req.Amount,
		Description: req.Description,
		Status:      models.StatusPending,
		Metadata:    meta,
	}
	if err := s.createRecord(txn); err != nil {
		return nil, err
	}

	gctx, cancel := context.WithTimeout(ctx, s.config.GatewayTimeout)
	defer cancel()

	var result *gateway.PurchaseResult
	switch req.Kind {
	case KindAirtime:
		result, err = s.gateway.PurchaseAirtime(gctx, req.Bill.Customer, req.Amount, txn.Reference)
	case KindData:
		result, err = s.gateway.PurchaseData(gctx, req.Bill.Customer, req.Bill.Plan, txn.Reference)
	case KindCable:
		result, err = s.gateway.PurchaseCable(gctx, req.Bill.Customer, req.Bill.Provider, req.Bill.Plan, txn.Reference)
	case KindElectricity:
		result, err = s.gateway.PurchaseElectricity(gctx, req.Bill.Customer, req.Bill.Provider, req.Amount, txn.Reference)
	}
	if err != nil {
		s.failPending(txn, models.JSON{"gateway_error": err.Error()})
		return txn, fmt.Errorf("%w: %v", ErrGatewayFailure, err)
	}

	if err := s.transition(txn, []string{models.StatusPending}, models.StatusSuccess,
		models.JSON{"provider_status": result.Status}); err != nil &&
		!errors.Is(err, repositories.ErrStatusConflict) {
		return txn, err
	}
	return txn, nil
}

func (s *service) processFund(ctx context.Context, req Request) (*models.Transaction, error) {
	sender, err := s.users.GetByID(req.SenderID)
	if err != nil {
		return nil, ErrSenderNotFound
	}

	txn := &models.Transaction{
		Type:        string(KindFund),
		SenderID:    sender.ID,
		Amount:      req.Amount,
		Description: orDefault(req.Description, "Wallet funded"),
		Status:      models.StatusPending,
	}
	if err := s.createRecord(txn); err != nil {
		return nil, err
	}

	if err := s.wallets.Credit(ctx, sender.ID, req.Amount, txn.Reference); err != nil {
		s.failPending(txn, models.JSON{"failure_reason": err.Error()})
		return txn, fmt.Errorf("credit failed: %w", err)
	}

	if err := s.transition(txn, []string{models.StatusPending}, models.StatusSuccess, nil); err != nil &&
		!errors.Is(err, repositories.ErrStatusConflict) {
		return txn, err
	}
	return txn, nil
}

func (s *service) processWithdraw(ctx context.Context, req Request) (*models.Transaction, error) {
	sender, err := s.users.GetByID(req.SenderID)
	if err != nil {
		return nil, ErrSenderNotFound
	}

	txn := &models.Transaction{
		Type:        string(KindWithdraw),
		SenderID:    sender.ID,
		Amount:      req.Amount,
		Description: orDefault(req.Description, "Wallet withdrawal"),
		Status:      models.StatusPending,
	}
	if err := s.createRecord(txn); err != nil {
		return nil, err
	}

	if err := s.wallets.Debit(ctx, sender.ID, req.Amount, txn.Reference); err != nil {
		s.failPending(txn, models.JSON{"failure_reason": err.Error()})
		if errors.Is(err, wallet.ErrInsufficientBalance) {
			return txn, ErrInsufficientBalance
		}
		return txn, fmt.Errorf("debit failed: %w", err)
	}

	if err := s.transition(txn, []string{models.StatusPending}, models.StatusSuccess, nil); err != nil &&
		!errors.Is(err, repositories.ErrStatusConflict) {
		return txn, err
	}
	return txn, nil
}

func (s *service) GetByReference(ctx context.Context, userID uint, reference string) (*models.Transaction, error) {
	txn, err := s.txns.GetByReference(reference)
	if err != nil {
		if errors.Is(err, repositories.ErrTransactionNotFound) {
			return nil, ErrTransactionNotFound
		}
		return nil, err
	}
	if txn.SenderID != userID {
		return nil, ErrAccessDenied
	}
	return txn, nil
}

func (s *service) List(ctx context.Context, userID uint, limit, offset int) ([]models.Transaction, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	return s.txns.ListBySender(ctx, userID, limit, offset)
}

// createRecord persists the transaction with a freshly generated
// reference, retrying on the (theoretical) uuid collision.
func (s *service) createRecord(txn *models.Transaction) error {
	for attempt := 0; attempt < 3; attempt++ {
		txn.Reference = newReference()
		err := s.txns.Create(txn)
		if err == nil {
			return nil
		}
		if !errors.Is(err, repositories.ErrDuplicateReference) {
			return err
		}
	}
	return repositories.ErrDuplicateReference
}

func newReference() string {
	return "AMS-" + uuid.NewString()
}

// transition applies a CAS status update and mirrors the change on the
// in-memory record, then fans out to the notifier. The outbox event
// rides in the same database transaction as the status change.
func (s *service) transition(txn *models.Transaction, expected []string, status string, patch models.JSON) error {
	evt := models.NewTransactionEvent(txn, status)
	if err := s.txns.UpdateStatus(txn.Reference, expected, status, patch, evt); err != nil {
		return err
	}
	txn.Status = status
	if patch != nil {
		if txn.Metadata == nil {
			txn.Metadata = models.JSON{}
		}
		for k, v := range patch {
			txn.Metadata[k] = v
		}
	}
	s.notify(txn)
	return nil
}

// failPending moves a still-pending record to failed, keeping the cause
// in metadata for audit. A CAS conflict means an async reconciliation
// already owns the record; that outcome stands.
func (s *service) failPending(txn *models.Transaction, patch models.JSON) {
	err := s.transition(txn, []string{models.StatusPending}, models.StatusFailed, patch)
	if err != nil && !errors.Is(err, repositories.ErrStatusConflict) {
		s.log.Errorw("failed to mark transaction failed",
			"reference", txn.Reference, "error", err)
	}
}

// failDebited handles a synchronous gateway failure after the sender
// was debited: the record moves to failed and the debit is refunded.
// The CAS gates the refund, so a webhook that reconciled the reference
// first keeps ownership and no double refund can occur.
func (s *service) failDebited(ctx context.Context, txn *models.Transaction, senderID uint, cause error) (*models.Transaction, error) {
	err := s.transition(txn, []string{models.StatusPending}, models.StatusFailed,
		models.JSON{"gateway_error": cause.Error()})
	if err != nil {
		if !errors.Is(err, repositories.ErrStatusConflict) {
			s.log.Errorw("failed to mark transaction failed after debit",
				"reference", txn.Reference, "error", err)
		}
		return txn, fmt.Errorf("%w: %v", ErrGatewayFailure, cause)
	}

	if rerr := s.wallets.Refund(ctx, senderID, txn.Amount, txn.Reference); rerr != nil {
		s.log.Errorw("refund after gateway failure failed",
			"reference", txn.Reference, "error", rerr)
	}
	return txn, fmt.Errorf("%w: %v", ErrGatewayFailure, cause)
}

func (s *service) notify(txn *models.Transaction) {
	if s.notifier == nil {
		return
	}
	snapshot := *txn
	go s.notifier.TransactionUpdated(context.Background(), &snapshot)
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
