package transaction

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"amstapay/internal/gateway"
	"amstapay/internal/models"
	"amstapay/internal/repositories"
	"amstapay/internal/services/wallet"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// fakeGateway answers every call successfully unless a function field
// overrides it.
type fakeGateway struct {
	resolveFn  func(ctx context.Context, accountNumber, bankCode string) (*gateway.AccountInfo, error)
	transferFn func(ctx context.Context, amount int64, recipientCode, reason, reference string) (*gateway.TransferResult, error)
	purchaseFn func(reference string) (*gateway.PurchaseResult, error)
}

func (f *fakeGateway) ResolveAccount(ctx context.Context, accountNumber, bankCode string) (*gateway.AccountInfo, error) {
	if f.resolveFn != nil {
		return f.resolveFn(ctx, accountNumber, bankCode)
	}
	return &gateway.AccountInfo{AccountName: "ADA OBI", AccountNumber: accountNumber}, nil
}

func (f *fakeGateway) CreateRecipient(ctx context.Context, name, accountNumber, bankCode string) (string, error) {
	return "RCP_test", nil
}

func (f *fakeGateway) InitiateTransfer(ctx context.Context, amount int64, recipientCode, reason, reference string) (*gateway.TransferResult, error) {
	if f.transferFn != nil {
		return f.transferFn(ctx, amount, recipientCode, reason, reference)
	}
	return &gateway.TransferResult{TransferCode: "TRF_test", Status: "pending", Reference: reference}, nil
}

func (f *fakeGateway) PurchaseAirtime(ctx context.Context, phone string, amount int64, reference string) (*gateway.PurchaseResult, error) {
	if f.purchaseFn != nil {
		return f.purchaseFn(reference)
	}
	return &gateway.PurchaseResult{Status: "delivered", Reference: reference}, nil
}

func (f *fakeGateway) PurchaseData(ctx context.Context, phone, plan, reference string) (*gateway.PurchaseResult, error) {
	if f.purchaseFn != nil {
		return f.purchaseFn(reference)
	}
	return &gateway.PurchaseResult{Status: "delivered", Reference: reference}, nil
}

func (f *fakeGateway) PurchaseCable(ctx context.Context, smartCardNumber, provider, plan, reference string) (*gateway.PurchaseResult, error) {
	if f.purchaseFn != nil {
		return f.purchaseFn(reference)
	}
	return &gateway.PurchaseResult{Status: "delivered", Reference: reference}, nil
}

func (f *fakeGateway) PurchaseElectricity(ctx context.Context, meterNumber, disco string, amount int64, reference string) (*gateway.PurchaseResult, error) {
	if f.purchaseFn != nil {
		return f.purchaseFn(reference)
	}
	return &gateway.PurchaseResult{Status: "delivered", Reference: reference}, nil
}

type passthroughCache struct{}

func (passthroughCache) GetWallet(context.Context, uint) (*models.Wallet, error) {
	return nil, errors.New("cache miss")
}
func (passthroughCache) CacheWallet(context.Context, *models.Wallet) error { return nil }
func (passthroughCache) InvalidateWallet(context.Context, uint) error      { return nil }

type fixture struct {
	svc     Service
	wallets wallet.Service
	txns    repositories.TransactionRepository
	gw      *fakeGateway
	db      *gorm.DB
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, repositories.Migrate(db))

	log := zap.NewNop().Sugar()
	walletSvc := wallet.NewService(
		repositories.NewWalletRepository(db), passthroughCache{},
		wallet.WalletConfig{}, nil, log)

	gw := &fakeGateway{}
	txns := repositories.NewTransactionRepository(db)
	svc := NewService(
		txns,
		repositories.NewUserRepository(db),
		walletSvc,
		gw,
		nil,
		Config{},
		log,
	)
	return &fixture{svc: svc, wallets: walletSvc, txns: txns, gw: gw, db: db}
}

func (f *fixture) seedUser(t *testing.T, name, accountNumber string) *models.User {
	t.Helper()
	u := &models.User{
		FullName:      name,
		Email:         accountNumber + "@example.com",
		Phone:         "080" + accountNumber,
		AccountNumber: accountNumber,
	}
	require.NoError(t, f.db.Create(u).Error)
	return u
}

func (f *fixture) fund(t *testing.T, userID uint, amount int64) {
	t.Helper()
	require.NoError(t, f.wallets.Credit(context.Background(), userID, amount, "AMS-seed"))
}

func (f *fixture) outboxCount(t *testing.T, reference string) int64 {
	t.Helper()
	var n int64
	require.NoError(t, f.db.Model(&models.OutboxEvent{}).
		Where("reference = ?", reference).Count(&n).Error)
	return n
}

func TestProcess_WalletTransfer(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	sender := f.seedUser(t, "Ada Obi", "1000000001")
	receiver := f.seedUser(t, "Bayo Musa", "1000000002")
	f.fund(t, sender.ID, 1000)

	txn, err := f.svc.Process(ctx, Request{
		Kind:     KindTransfer,
		SenderID: sender.ID,
		Amount:   400,
		Transfer: &TransferDetails{ReceiverAccountNumber: receiver.AccountNumber},
	})
	require.NoError(t, err)
	assert.Equal(t, models.StatusSuccess, txn.Status)
	assert.NotEmpty(t, txn.Reference)
	assert.Equal(t, receiver.FullName, txn.ReceiverName)

	senderBal, _ := f.wallets.GetBalance(ctx, sender.ID)
	receiverBal, _ := f.wallets.GetBalance(ctx, receiver.ID)
	assert.Equal(t, int64(600), senderBal)
	assert.Equal(t, int64(400), receiverBal)

	// The status change produced exactly one outbox event.
	assert.Equal(t, int64(1), f.outboxCount(t, txn.Reference))
}

func TestProcess_WalletTransferInsufficient(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	sender := f.seedUser(t, "Ada Obi", "1000000001")
	receiver := f.seedUser(t, "Bayo Musa", "1000000002")
	f.fund(t, sender.ID, 300)

	txn, err := f.svc.Process(ctx, Request{
		Kind:     KindTransfer,
		SenderID: sender.ID,
		Amount:   400,
		Transfer: &TransferDetails{ReceiverAccountNumber: receiver.AccountNumber},
	})
	assert.ErrorIs(t, err, ErrInsufficientBalance)
	require.NotNil(t, txn)
	assert.Equal(t, models.StatusFailed, txn.Status)

	senderBal, _ := f.wallets.GetBalance(ctx, sender.ID)
	receiverBal, _ := f.wallets.GetBalance(ctx, receiver.ID)
	assert.Equal(t, int64(300), senderBal)
	assert.Equal(t, int64(0), receiverBal)
}

func TestProcess_WalletTransferValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	sender := f.seedUser(t, "Ada Obi", "1000000001")

	_, err := f.svc.Process(ctx, Request{Kind: KindTransfer, SenderID: sender.ID, Amount: 100})
	assert.ErrorIs(t, err, ErrMissingDetails)

	_, err = f.svc.Process(ctx, Request{
		Kind: KindTransfer, SenderID: sender.ID, Amount: 100,
		Transfer: &TransferDetails{ReceiverAccountNumber: "9999999999"},
	})
	assert.ErrorIs(t, err, ErrReceiverNotFound)

	_, err = f.svc.Process(ctx, Request{
		Kind: KindTransfer, SenderID: sender.ID, Amount: 100,
		Transfer: &TransferDetails{ReceiverAccountNumber: sender.AccountNumber},
	})
	assert.ErrorIs(t, err, ErrSelfTransfer)

	_, err = f.svc.Process(ctx, Request{
		Kind: KindTransfer, SenderID: sender.ID, Amount: 0,
		Transfer: &TransferDetails{ReceiverAccountNumber: "1000000002"},
	})
	assert.ErrorIs(t, err, ErrInvalidAmount)

	_, err = f.svc.Process(ctx, Request{Kind: Kind("crypto"), SenderID: sender.ID, Amount: 100})
	assert.ErrorIs(t, err, ErrUnsupportedKind)
}

func TestProcess_BankTransferMovesToProcessing(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	sender := f.seedUser(t, "Ada Obi", "1000000001")
	f.fund(t, sender.ID, 10_000)

	txn, err := f.svc.Process(ctx, Request{
		Kind:     KindBankTransfer,
		SenderID: sender.ID,
		Amount:   6_000,
		Bank:     &BankDetails{AccountNumber: "0123456789", BankCode: "058"},
	})
	require.NoError(t, err)
	assert.Equal(t, models.StatusProcessing, txn.Status)
	assert.Equal(t, "TRF_test", txn.Metadata["transfer_code"])
	assert.Equal(t, "RCP_test", txn.Metadata["recipient_code"])
	assert.Equal(t, "ADA OBI", txn.Metadata["account_name"])

	// Funds are earmarked as soon as the payout is initiated.
	balance, _ := f.wallets.GetBalance(ctx, sender.ID)
	assert.Equal(t, int64(4_000), balance)
}

// A payout webhook can land while InitiateTransfer is still on the
// wire. The processing CAS then loses, and Process must hand back the
// reconciled record rather than its stale pending copy.
func TestProcess_BankTransferWebhookWinsRace(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	sender := f.seedUser(t, "Ada Obi", "1000000001")
	f.fund(t, sender.ID, 10_000)

	f.gw.transferFn = func(_ context.Context, _ int64, _, _ string, reference string) (*gateway.TransferResult, error) {
		require.NoError(t, f.txns.UpdateStatus(reference,
			[]string{models.StatusPending, models.StatusProcessing},
			models.StatusSuccess,
			models.JSON{"provider_event": "transfer.success"}, nil))
		return &gateway.TransferResult{TransferCode: "TRF_race", Status: "success", Reference: reference}, nil
	}

	txn, err := f.svc.Process(ctx, Request{
		Kind:     KindBankTransfer,
		SenderID: sender.ID,
		Amount:   6_000,
		Bank:     &BankDetails{AccountNumber: "0123456789", BankCode: "058"},
	})
	require.NoError(t, err)
	assert.Equal(t, models.StatusSuccess, txn.Status)
	assert.Equal(t, "transfer.success", txn.Metadata["provider_event"])
}

func TestProcess_BankTransferGatewayFailureRefunds(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	sender := f.seedUser(t, "Ada Obi", "1000000001")
	f.fund(t, sender.ID, 10_000)

	f.gw.transferFn = func(context.Context, int64, string, string, string) (*gateway.TransferResult, error) {
		return nil, errors.New("provider unavailable")
	}

	txn, err := f.svc.Process(ctx, Request{
		Kind:     KindBankTransfer,
		SenderID: sender.ID,
		Amount:   6_000,
		Bank:     &BankDetails{AccountNumber: "0123456789", BankCode: "058"},
	})
	assert.ErrorIs(t, err, ErrGatewayFailure)
	require.NotNil(t, txn)
	assert.Equal(t, models.StatusFailed, txn.Status)

	// The debit was returned to the sender, tagged as a refund.
	balance, _ := f.wallets.GetBalance(ctx, sender.ID)
	assert.Equal(t, int64(10_000), balance)

	var refunds int64
	require.NoError(t, f.db.Model(&models.LedgerEntry{}).
		Where("reference = ? AND direction = ?", txn.Reference, models.EntryRefund).
		Count(&refunds).Error)
	assert.Equal(t, int64(1), refunds)
}

func TestProcess_BankTransferInsufficientNeverCallsGateway(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	sender := f.seedUser(t, "Ada Obi", "1000000001")
	f.fund(t, sender.ID, 100)

	called := false
	f.gw.resolveFn = func(context.Context, string, string) (*gateway.AccountInfo, error) {
		called = true
		return nil, errors.New("should not be reached")
	}

	txn, err := f.svc.Process(ctx, Request{
		Kind:     KindBankTransfer,
		SenderID: sender.ID,
		Amount:   6_000,
		Bank:     &BankDetails{AccountNumber: "0123456789", BankCode: "058"},
	})
	assert.ErrorIs(t, err, ErrInsufficientBalance)
	assert.Equal(t, models.StatusFailed, txn.Status)
	assert.False(t, called)
}

func TestProcess_AirtimePurchase(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	sender := f.seedUser(t, "Ada Obi", "1000000001")
	f.fund(t, sender.ID, 5_000)

	txn, err := f.svc.Process(ctx, Request{
		Kind:     KindAirtime,
		SenderID: sender.ID,
		Amount:   1_000,
		Bill:     &BillDetails{Customer: "08030000000"},
	})
	require.NoError(t, err)
	assert.Equal(t, models.StatusSuccess, txn.Status)
	assert.Equal(t, "08030000000", txn.Metadata["customer"])
	assert.Equal(t, "delivered", txn.Metadata["provider_status"])

	// Bill purchases settle at the provider; the wallet is untouched.
	balance, _ := f.wallets.GetBalance(ctx, sender.ID)
	assert.Equal(t, int64(5_000), balance)
}

func TestProcess_BillPurchaseGatewayFailure(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	sender := f.seedUser(t, "Ada Obi", "1000000001")

	f.gw.purchaseFn = func(string) (*gateway.PurchaseResult, error) {
		return nil, errors.New("vendor timeout")
	}

	txn, err := f.svc.Process(ctx, Request{
		Kind:     KindData,
		SenderID: sender.ID,
		Amount:   1_500,
		Bill:     &BillDetails{Customer: "08030000000", Plan: "SME-1GB"},
	})
	assert.ErrorIs(t, err, ErrGatewayFailure)
	assert.Equal(t, models.StatusFailed, txn.Status)

	// The cause stays in metadata for audit.
	stored, err := f.txns.GetByReference(txn.Reference)
	require.NoError(t, err)
	assert.Equal(t, "vendor timeout", stored.Metadata["gateway_error"])
}

func TestProcess_BillValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	sender := f.seedUser(t, "Ada Obi", "1000000001")

	_, err := f.svc.Process(ctx, Request{Kind: KindAirtime, SenderID: sender.ID, Amount: 100})
	assert.ErrorIs(t, err, ErrMissingDetails)

	_, err = f.svc.Process(ctx, Request{
		Kind: KindData, SenderID: sender.ID, Amount: 100,
		Bill: &BillDetails{Customer: "08030000000"},
	})
	assert.ErrorIs(t, err, ErrMissingDetails)

	_, err = f.svc.Process(ctx, Request{
		Kind: KindCable, SenderID: sender.ID, Amount: 100,
		Bill: &BillDetails{Customer: "1234567890", Plan: "compact"},
	})
	assert.ErrorIs(t, err, ErrMissingDetails)

	_, err = f.svc.Process(ctx, Request{
		Kind: KindElectricity, SenderID: sender.ID, Amount: 100,
		Bill: &BillDetails{Customer: "45022222222"},
	})
	assert.ErrorIs(t, err, ErrMissingDetails)
}

func TestProcess_FundAndWithdraw(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	sender := f.seedUser(t, "Ada Obi", "1000000001")

	fundTxn, err := f.svc.Process(ctx, Request{
		Kind: KindFund, SenderID: sender.ID, Amount: 2_000,
	})
	require.NoError(t, err)
	assert.Equal(t, models.StatusSuccess, fundTxn.Status)

	withdrawTxn, err := f.svc.Process(ctx, Request{
		Kind: KindWithdraw, SenderID: sender.ID, Amount: 500,
	})
	require.NoError(t, err)
	assert.Equal(t, models.StatusSuccess, withdrawTxn.Status)

	balance, _ := f.wallets.GetBalance(ctx, sender.ID)
	assert.Equal(t, int64(1_500), balance)
}

func TestProcess_WithdrawInsufficient(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	sender := f.seedUser(t, "Ada Obi", "1000000001")

	txn, err := f.svc.Process(ctx, Request{
		Kind: KindWithdraw, SenderID: sender.ID, Amount: 500,
	})
	assert.ErrorIs(t, err, ErrInsufficientBalance)
	assert.Equal(t, models.StatusFailed, txn.Status)
}

func TestProcess_UnknownSender(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Process(context.Background(), Request{
		Kind: KindFund, SenderID: 42, Amount: 100,
	})
	assert.ErrorIs(t, err, ErrSenderNotFound)
}

func TestGetByReference_OwnershipEnforced(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	sender := f.seedUser(t, "Ada Obi", "1000000001")
	other := f.seedUser(t, "Bayo Musa", "1000000002")

	txn, err := f.svc.Process(ctx, Request{Kind: KindFund, SenderID: sender.ID, Amount: 100})
	require.NoError(t, err)

	got, err := f.svc.GetByReference(ctx, sender.ID, txn.Reference)
	require.NoError(t, err)
	assert.Equal(t, txn.Reference, got.Reference)

	_, err = f.svc.GetByReference(ctx, other.ID, txn.Reference)
	assert.ErrorIs(t, err, ErrAccessDenied)

	_, err = f.svc.GetByReference(ctx, sender.ID, "AMS-missing")
	assert.ErrorIs(t, err, ErrTransactionNotFound)
}

func TestList_ScopedToSender(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	sender := f.seedUser(t, "Ada Obi", "1000000001")
	other := f.seedUser(t, "Bayo Musa", "1000000002")

	for i := 0; i < 3; i++ {
		_, err := f.svc.Process(ctx, Request{Kind: KindFund, SenderID: sender.ID, Amount: 100})
		require.NoError(t, err)
	}
	_, err := f.svc.Process(ctx, Request{Kind: KindFund, SenderID: other.ID, Amount: 100})
	require.NoError(t, err)

	txns, err := f.svc.List(ctx, sender.ID, 10, 0)
	require.NoError(t, err)
	assert.Len(t, txns, 3)
}
