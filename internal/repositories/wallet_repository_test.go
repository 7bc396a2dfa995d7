package repositories

import (
	"fmt"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"

	"amstapay/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, Migrate(db))
	return db
}

func seedWallet(t *testing.T, db *gorm.DB, userID uint, balance int64) *models.Wallet {
	t.Helper()
	w := &models.Wallet{UserID: userID, Currency: "NGN"}
	require.NoError(t, db.Create(w).Error)
	if balance != 0 {
		require.NoError(t, db.Model(w).Update("balance", balance).Error)
		w.Balance = balance
	}
	return w
}

func TestWalletRepository_GetOrCreate(t *testing.T) {
	db := newTestDB(t)
	repo := NewWalletRepository(db)

	w, err := repo.GetOrCreate(1)
	require.NoError(t, err)
	assert.Equal(t, uint(1), w.UserID)
	assert.Equal(t, int64(0), w.Balance)
	assert.Equal(t, "NGN", w.Currency)

	// Second call returns the same wallet, never a second row.
	again, err := repo.GetOrCreate(1)
	require.NoError(t, err)
	assert.Equal(t, w.ID, again.ID)

	var count int64
	db.Model(&models.Wallet{}).Where("user_id = ?", 1).Count(&count)
	assert.Equal(t, int64(1), count)
}

func TestWalletRepository_DebitAppendsLedgerEntry(t *testing.T) {
	db := newTestDB(t)
	repo := NewWalletRepository(db)
	w := seedWallet(t, db, 1, 1000)

	require.NoError(t, repo.Debit(w.ID, 400, "AMS-ref-1"))

	fresh, err := repo.GetByID(w.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(600), fresh.Balance)

	entries, err := repo.LedgerEntries(w.ID, 10, 0)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, models.EntryDebit, entries[0].Direction)
	assert.Equal(t, int64(400), entries[0].Amount)
	assert.Equal(t, "AMS-ref-1", entries[0].Reference)
}

func TestWalletRepository_DebitInsufficientFunds(t *testing.T) {
	db := newTestDB(t)
	repo := NewWalletRepository(db)
	w := seedWallet(t, db, 1, 100)

	err := repo.Debit(w.ID, 101, "AMS-ref-2")
	assert.ErrorIs(t, err, ErrInsufficientFunds)

	// Balance untouched and no ledger entry written.
	fresh, err := repo.GetByID(w.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(100), fresh.Balance)

	entries, err := repo.LedgerEntries(w.ID, 10, 0)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestWalletRepository_DebitExactBalance(t *testing.T) {
	db := newTestDB(t)
	repo := NewWalletRepository(db)
	w := seedWallet(t, db, 1, 250)

	require.NoError(t, repo.Debit(w.ID, 250, "AMS-ref-3"))

	fresh, err := repo.GetByID(w.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(0), fresh.Balance)
}

func TestWalletRepository_DebitUnknownWallet(t *testing.T) {
	db := newTestDB(t)
	repo := NewWalletRepository(db)

	err := repo.Debit(999, 100, "AMS-ref-4")
	assert.ErrorIs(t, err, ErrWalletNotFound)
}

func TestWalletRepository_InvalidAmounts(t *testing.T) {
	db := newTestDB(t)
	repo := NewWalletRepository(db)
	w := seedWallet(t, db, 1, 100)

	assert.ErrorIs(t, repo.Debit(w.ID, 0, "r"), ErrInvalidAmount)
	assert.ErrorIs(t, repo.Debit(w.ID, -5, "r"), ErrInvalidAmount)
	assert.ErrorIs(t, repo.Credit(w.ID, 0, "r"), ErrInvalidAmount)
	assert.ErrorIs(t, repo.Refund(w.ID, -1, "r"), ErrInvalidAmount)
}

func TestWalletRepository_RefundTaggedInLedger(t *testing.T) {
	db := newTestDB(t)
	repo := NewWalletRepository(db)
	w := seedWallet(t, db, 1, 0)

	require.NoError(t, repo.Credit(w.ID, 500, "AMS-fund"))
	require.NoError(t, repo.Debit(w.ID, 300, "AMS-payout"))
	require.NoError(t, repo.Refund(w.ID, 300, "AMS-payout"))

	fresh, err := repo.GetByID(w.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(500), fresh.Balance)

	var refunds []models.LedgerEntry
	require.NoError(t, db.Where("wallet_id = ? AND direction = ?", w.ID, models.EntryRefund).Find(&refunds).Error)
	require.Len(t, refunds, 1)
	assert.Equal(t, "AMS-payout", refunds[0].Reference)
}

func TestWalletRepository_LedgerBalanceMatchesWallet(t *testing.T) {
	db := newTestDB(t)
	repo := NewWalletRepository(db)
	w := seedWallet(t, db, 1, 0)

	require.NoError(t, repo.Credit(w.ID, 1000, "AMS-a"))
	require.NoError(t, repo.Debit(w.ID, 400, "AMS-b"))
	require.NoError(t, repo.Refund(w.ID, 150, "AMS-b"))

	fresh, err := repo.GetByID(w.ID)
	require.NoError(t, err)

	ledger, err := repo.LedgerBalance(w.ID)
	require.NoError(t, err)
	assert.Equal(t, fresh.Balance, ledger)
	assert.Equal(t, int64(750), ledger)
}

func TestWalletRepository_ExecuteInTransactionRollsBack(t *testing.T) {
	db := newTestDB(t)
	repo := NewWalletRepository(db)
	src := seedWallet(t, db, 1, 1000)
	dst := seedWallet(t, db, 2, 0)

	// The credit targets a wallet that does not exist, so the debit
	// that already ran inside the transaction must roll back.
	err := repo.ExecuteInTransaction(func(tx WalletRepository) error {
		if err := tx.Debit(src.ID, 400, "AMS-x"); err != nil {
			return err
		}
		return tx.Credit(999, 400, "AMS-x")
	})
	assert.ErrorIs(t, err, ErrWalletNotFound)

	freshSrc, err := repo.GetByID(src.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1000), freshSrc.Balance)

	freshDst, err := repo.GetByID(dst.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(0), freshDst.Balance)

	entries, err := repo.LedgerEntries(src.ID, 10, 0)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

// Concurrent debits against one wallet must never overspend it. With a
// balance of 1000 and debits of 400 each, at most two can win no matter
// how the writers interleave, and the ledger must account for exactly
// the winners.
func TestWalletRepository_ConcurrentDebitsNeverOverspend(t *testing.T) {
	// A file-backed database so concurrent writers queue on the busy
	// handler instead of failing on shared-cache table locks.
	dsn := fmt.Sprintf("file:%s?_busy_timeout=5000", filepath.Join(t.TempDir(), "wallet.db"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, Migrate(db))

	repo := NewWalletRepository(db)
	w := seedWallet(t, db, 1, 1000)

	const workers = 8
	const amount = 400

	var wg sync.WaitGroup
	var successes int64
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			ref := fmt.Sprintf("AMS-par-%d", n)
			if err := repo.Debit(w.ID, amount, ref); err == nil {
				atomic.AddInt64(&successes, 1)
			} else {
				assert.ErrorIs(t, err, ErrInsufficientFunds)
			}
		}(i)
	}
	wg.Wait()

	won := atomic.LoadInt64(&successes)
	assert.LessOrEqual(t, won, int64(2))

	fresh, err := repo.GetByID(w.ID)
	require.NoError(t, err)
	assert.Equal(t, 1000-amount*won, fresh.Balance)
	assert.GreaterOrEqual(t, fresh.Balance, int64(0))

	// One ledger entry per winning debit, summing to what left the
	// wallet.
	entries, err := repo.LedgerEntries(w.ID, 100, 0)
	require.NoError(t, err)
	assert.Len(t, entries, int(won))
	var debited int64
	for _, e := range entries {
		assert.Equal(t, models.EntryDebit, e.Direction)
		debited += e.Amount
	}
	assert.Equal(t, amount*won, debited)
}

func TestWalletRepository_GetTotalBalance(t *testing.T) {
	db := newTestDB(t)
	repo := NewWalletRepository(db)
	seedWallet(t, db, 1, 700)
	seedWallet(t, db, 2, 300)

	total, err := repo.GetTotalBalance()
	require.NoError(t, err)
	assert.Equal(t, int64(1000), total)
}
