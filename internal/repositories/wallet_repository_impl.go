package repositories

import (
	"errors"
	"fmt"

	"amstapay/internal/models"

	"gorm.io/gorm"
)

type walletRepository struct {
	db *gorm.DB
}

func NewWalletRepository(db *gorm.DB) WalletRepository {
	return &walletRepository{
		db: db,
	}
}

func (r *walletRepository) GetOrCreate(userID uint) (*models.Wallet, error) {
	var wallet models.Wallet
	err := r.db.Where("user_id = ?", userID).
		Attrs(models.Wallet{UserID: userID, Currency: "NGN"}).
		FirstOrCreate(&wallet).Error
	if err != nil {
		// A concurrent create may win the unique index race; re-read.
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return r.GetByUserID(userID)
		}
		return nil, fmt.Errorf("failed to get or create wallet: %w", err)
	}
	return &wallet, nil
}

func (r *walletRepository) GetByID(id uint) (*models.Wallet, error) {
	var wallet models.Wallet
	if err := r.db.First(&wallet, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrWalletNotFound
		}
		return nil, fmt.Errorf("failed to get wallet: %w", err)
	}
	return &wallet, nil
}

func (r *walletRepository) GetByUserID(userID uint) (*models.Wallet, error) {
	var wallet models.Wallet
	if err := r.db.Where("user_id = ?", userID).First(&wallet).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrWalletNotFound
		}
		return nil, fmt.Errorf("failed to get wallet: %w", err)
	}
	return &wallet, nil
}

// Debit decrements the balance and appends a debit ledger entry. The
// balance check and decrement are a single conditional UPDATE, so two
// concurrent debits can never both succeed on funds that cover only one.
func (r *walletRepository) Debit(walletID uint, amount int64, reference string) error {
	if amount <= 0 {
		return ErrInvalidAmount
	}
	return r.db.Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.Wallet{}).
			Where("id = ? AND balance >= ?", walletID, amount).
			Update("balance", gorm.Expr("balance - ?", amount))
		if res.Error != nil {
			return fmt.Errorf("failed to debit wallet: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			var wallet models.Wallet
			if err := tx.First(&wallet, walletID).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return ErrWalletNotFound
				}
				return fmt.Errorf("failed to debit wallet: %w", err)
			}
			return ErrInsufficientFunds
		}
		return tx.Create(&models.LedgerEntry{
			WalletID:  walletID,
			Direction: models.EntryDebit,
			Amount:    amount,
			Reference: reference,
		}).Error
	})
}

func (r *walletRepository) Credit(walletID uint, amount int64, reference string) error {
	return r.increase(walletID, amount, models.EntryCredit, reference)
}

// Refund is a credit tagged as a refund entry so reversals stay
// distinguishable in the audit trail.
func (r *walletRepository) Refund(walletID uint, amount int64, reference string) error {
	return r.increase(walletID, amount, models.EntryRefund, reference)
}

func (r *walletRepository) increase(walletID uint, amount int64, direction, reference string) error {
	if amount <= 0 {
		return ErrInvalidAmount
	}
	return r.db.Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.Wallet{}).
			Where("id = ?", walletID).
			Update("balance", gorm.Expr("balance + ?", amount))
		if res.Error != nil {
			return fmt.Errorf("failed to credit wallet: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return ErrWalletNotFound
		}
		return tx.Create(&models.LedgerEntry{
			WalletID:  walletID,
			Direction: direction,
			Amount:    amount,
			Reference: reference,
		}).Error
	})
}

func (r *walletRepository) LedgerEntries(walletID uint, limit, offset int) ([]models.LedgerEntry, error) {
	var entries []models.LedgerEntry
	err := r.db.Where("wallet_id = ?", walletID).
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&entries).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get ledger entries: %w", err)
	}
	return entries, nil
}

// LedgerBalance reconstructs the balance from the ledger alone. Used by
// audit queries and tests to assert ledger/balance consistency.
func (r *walletRepository) LedgerBalance(walletID uint) (int64, error) {
	var total int64
	err := r.db.Model(&models.LedgerEntry{}).
		Where("wallet_id = ?", walletID).
		Select("COALESCE(SUM(CASE WHEN direction = 'debit' THEN -amount ELSE amount END), 0)").
		Scan(&total).Error
	if err != nil {
		return 0, fmt.Errorf("failed to sum ledger entries: %w", err)
	}
	return total, nil
}

func (r *walletRepository) ExecuteInTransaction(fn func(WalletRepository) error) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		txRepo := &walletRepository{db: tx}
		return fn(txRepo)
	})
}

func (r *walletRepository) GetTotalBalance() (int64, error) {
	var total int64
	err := r.db.Model(&models.Wallet{}).Select("COALESCE(SUM(balance), 0)").Scan(&total).Error
	if err != nil {
		return 0, fmt.Errorf("failed to get total balance: %w", err)
	}
	return total, nil
}
