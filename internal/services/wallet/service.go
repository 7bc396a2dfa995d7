package wallet

import (
	"context"
	"errors"
	"fmt"

	"amstapay/internal/models"
	"amstapay/internal/repositories"

	"go.uber.org/zap"
)

type service struct {
	repo    repositories.WalletRepository
	cache   CacheOperator
	config  WalletConfig
	metrics MetricsCollector
	log     *zap.SugaredLogger
}

// NewService creates a new wallet service
func NewService(
	repo repositories.WalletRepository,
	cache CacheOperator,
	config WalletConfig,
	metrics MetricsCollector,
	log *zap.SugaredLogger,
) Service {
	if repo == nil {
		panic("repo is required")
	}
	if cache == nil {
		panic("cache is required")
	}
	if log == nil {
		panic("logger is required")
	}

	if config.DefaultCurrency == "" {
		config.DefaultCurrency = DefaultCurrency
	}
	if config.ProcessingTimeout == 0 {
		config.ProcessingTimeout = DefaultTimeout
	}

	// Metrics is optional, create no-op collector if nil
	if metrics == nil {
		metrics = &NoopMetricsCollector{}
	}

	return &service{
		repo:    repo,
		cache:   cache,
		config:  config,
		metrics: metrics,
		log:     log,
	}
}

// GetWallet returns the user's wallet, creating it lazily on first
// access. At most one wallet per user ever exists.
func (s *service) GetWallet(ctx context.Context, userID uint) (*models.Wallet, error) {
	// Try cache first
	if wallet, err := s.cache.GetWallet(ctx, userID); err == nil {
		return wallet, nil
	}

	wallet, err := s.repo.GetOrCreate(userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get wallet: %w", err)
	}

	if err := s.cache.CacheWallet(ctx, wallet); err != nil {
		s.log.Warnw("failed to cache wallet", "user_id", userID, "error", err)
	}
	return wallet, nil
}

func (s *service) Credit(ctx context.Context, userID uint, amount int64, reference string) error {
	if amount <= 0 {
		s.metrics.RecordError("credit", "invalid_amount")
		return ErrInvalidAmount
	}

	wallet, err := s.GetWallet(ctx, userID)
	if err != nil {
		return err
	}

	if err := s.repo.Credit(wallet.ID, amount, reference); err != nil {
		s.metrics.RecordError("credit", err.Error())
		return fmt.Errorf("failed to credit wallet: %w", err)
	}

	s.invalidate(ctx, userID)
	s.metrics.RecordTransaction("credit", amount)
	return nil
}

func (s *service) Debit(ctx context.Context, userID uint, amount int64, reference string) error {
	if amount <= 0 {
		s.metrics.RecordError("debit", "invalid_amount")
		return ErrInvalidAmount
	}

	wallet, err := s.GetWallet(ctx, userID)
	if err != nil {
		return err
	}

	if err := s.repo.Debit(wallet.ID, amount, reference); err != nil {
		if errors.Is(err, repositories.ErrInsufficientFunds) {
			return ErrInsufficientBalance
		}
		s.metrics.RecordError("debit", err.Error())
		return fmt.Errorf("failed to debit wallet: %w", err)
	}

	s.invalidate(ctx, userID)
	s.metrics.RecordTransaction("debit", amount)
	return nil
}

// Refund credits the wallet with a refund-tagged ledger entry. Only the
// webhook reconciler's reversal path calls this.
func (s *service) Refund(ctx context.Context, userID uint, amount int64, reference string) error {
	if amount <= 0 {
		s.metrics.RecordError("refund", "invalid_amount")
		return ErrInvalidAmount
	}

	wallet, err := s.GetWallet(ctx, userID)
	if err != nil {
		return err
	}

	if err := s.repo.Refund(wallet.ID, amount, reference); err != nil {
		s.metrics.RecordError("refund", err.Error())
		return fmt.Errorf("failed to refund wallet: %w", err)
	}

	s.invalidate(ctx, userID)
	s.metrics.RecordTransaction("refund", amount)
	return nil
}

func (s *service) GetBalance(ctx context.Context, userID uint) (int64, error) {
	wallet, err := s.GetWallet(ctx, userID)
	if err != nil {
		return 0, err
	}
	return wallet.Balance, nil
}

func (s *service) ValidateBalance(ctx context.Context, userID uint, amount int64) error {
	if amount <= 0 {
		return ErrInvalidAmount
	}

	// Read through to the repository; a cached balance may be stale.
	wallet, err := s.repo.GetByUserID(userID)
	if err != nil {
		if errors.Is(err, repositories.ErrWalletNotFound) {
			return ErrInsufficientBalance
		}
		return err
	}

	if wallet.Balance < amount {
		return ErrInsufficientBalance
	}
	return nil
}

// Transfer debits the sender and credits the receiver in one database
// transaction keyed by the same reference. If the debit fails nothing is
// written; if the credit fails the debit rolls back with it.
func (s *service) Transfer(ctx context.Context, fromUserID, toUserID uint, amount int64, reference string) error {
	if amount <= 0 {
		return ErrInvalidAmount
	}
	if fromUserID == toUserID {
		return ErrSelfTransfer
	}

	sourceWallet, err := s.repo.GetOrCreate(fromUserID)
	if err != nil {
		return fmt.Errorf("source wallet: %w", err)
	}
	destWallet, err := s.repo.GetOrCreate(toUserID)
	if err != nil {
		return fmt.Errorf("destination wallet: %w", err)
	}

	err = s.repo.ExecuteInTransaction(func(tx repositories.WalletRepository) error {
		if err := tx.Debit(sourceWallet.ID, amount, reference); err != nil {
			return err
		}
		return tx.Credit(destWallet.ID, amount, reference)
	})
	if err != nil {
		if errors.Is(err, repositories.ErrInsufficientFunds) {
			return ErrInsufficientBalance
		}
		s.metrics.RecordError("transfer", err.Error())
		return fmt.Errorf("%w: %v", ErrTransactionFailed, err)
	}

	s.invalidate(ctx, fromUserID)
	s.invalidate(ctx, toUserID)
	s.metrics.RecordTransaction("transfer", amount)
	return nil
}

func (s *service) LedgerEntries(ctx context.Context, userID uint, limit, offset int) ([]models.LedgerEntry, error) {
	wallet, err := s.GetWallet(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.repo.LedgerEntries(wallet.ID, limit, offset)
}

func (s *service) invalidate(ctx context.Context, userID uint) {
	if err := s.cache.InvalidateWallet(ctx, userID); err != nil {
		s.log.Warnw("failed to invalidate wallet cache", "user_id", userID, "error", err)
	}
}
