package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/finvault/transferflow/internal/domain"
)

func seedStore(t *testing.T) *Store {
	t.Helper()
	store := NewStore()
	ctx := context.Background()
	require.NoError(t, store.Create(ctx, &domain.Account{AccountNumber: "100000", Balance: decimal.RequireFromString("500.00")}))
	require.NoError(t, store.Create(ctx, &domain.Account{AccountNumber: "200000", Balance: decimal.RequireFromString("100.00")}))
	return store
}

func TestStore_Accounts(t *testing.T) {
	store := seedStore(t)
	ctx := context.Background()

	balance, err := store.GetBalance(ctx, "100000")
	require.NoError(t, err)
	assert.True(t, balance.Equal(decimal.RequireFromString("500.00")))

	_, err = store.GetBalance(ctx, "999999")
	assert.ErrorIs(t, err, domain.ErrAccountNotFound)

	err = store.Create(ctx, &domain.Account{AccountNumber: "100000", Balance: decimal.Zero})
	assert.Error(t, err)
}

func TestStore_WithinTx_CommitAppliesStagedWrites(t *testing.T) {
	store := seedStore(t)
	ctx := context.Background()

	job, err := domain.NewTransferJob("100000", "200000", decimal.RequireFromString("200.00"))
	require.NoError(t, err)
	require.NoError(t, store.InsertProcessing(ctx, job))

	err = store.WithinTx(ctx, func(ledger domain.Ledger, jobs domain.TransferJobRepository) error {
		if _, err := ledger.LockBalance(ctx, "100000"); err != nil {
			return err
		}
		if _, err := ledger.LockBalance(ctx, "200000"); err != nil {
			return err
		}
		if err := ledger.ApplyDelta(ctx, "100000", job.Amount.Neg()); err != nil {
			return err
		}
		if err := ledger.ApplyDelta(ctx, "200000", job.Amount); err != nil {
			return err
		}
		if err := ledger.AppendEntry(ctx, &domain.LedgerEntry{
			TransferID: job.TransferID, AccountNumber: "100000", Amount: job.Amount, Type: domain.EntryTransferOut,
		}); err != nil {
			return err
		}
		applied, err := jobs.Finalize(ctx, job.TransferID, domain.StatusCompleted, domain.ResultTransferSuccessful)
		require.NoError(t, err)
		require.True(t, applied)
		return nil
	})
	require.NoError(t, err)

	from, _ := store.GetBalance(ctx, "100000")
	to, _ := store.GetBalance(ctx, "200000")
	assert.True(t, from.Equal(decimal.RequireFromString("300.00")))
	assert.True(t, to.Equal(decimal.RequireFromString("300.00")))

	stored, err := store.Get(ctx, job.TransferID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusCompleted, stored.Status)
	assert.Len(t, store.Entries(), 1)
}

func TestStore_WithinTx_ErrorDiscardsStagedWrites(t *testing.T) {
	store := seedStore(t)
	ctx := context.Background()
	boom := errors.New("boom")

	err := store.WithinTx(ctx, func(ledger domain.Ledger, _ domain.TransferJobRepository) error {
		if _, err := ledger.LockBalance(ctx, "100000"); err != nil {
			return err
		}
		if err := ledger.ApplyDelta(ctx, "100000", decimal.NewFromInt(-50)); err != nil {
			return err
		}
		return boom
	})
	assert.ErrorIs(t, err, boom)

	balance, _ := store.GetBalance(ctx, "100000")
	assert.True(t, balance.Equal(decimal.RequireFromString("500.00")))

	// The row lock must have been released.
	err = store.WithinTx(ctx, func(ledger domain.Ledger, _ domain.TransferJobRepository) error {
		_, err := ledger.LockBalance(ctx, "100000")
		return err
	})
	assert.NoError(t, err)
}

func TestStore_Finalize_IsConditional(t *testing.T) {
	store := seedStore(t)
	ctx := context.Background()

	job, err := domain.NewTransferJob("100000", "200000", decimal.NewFromInt(10))
	require.NoError(t, err)
	require.NoError(t, store.InsertProcessing(ctx, job))

	applied, err := store.Finalize(ctx, job.TransferID, domain.StatusFailed, domain.ReasonInsufficientFunds)
	require.NoError(t, err)
	assert.True(t, applied)

	applied, err = store.Finalize(ctx, job.TransferID, domain.StatusCompleted, domain.ResultTransferSuccessful)
	require.NoError(t, err)
	assert.False(t, applied)

	stored, err := store.Get(ctx, job.TransferID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusFailed, stored.Status)
	assert.Equal(t, domain.ReasonInsufficientFunds, stored.Result)
}

func TestStore_ListStaleProcessing(t *testing.T) {
	store := seedStore(t)
	ctx := context.Background()

	oldJob, err := domain.NewTransferJob("100000", "200000", decimal.NewFromInt(10))
	require.NoError(t, err)
	oldJob.CreatedAt = time.Now().Add(-time.Hour)
	require.NoError(t, store.InsertProcessing(ctx, oldJob))

	freshJob, err := domain.NewTransferJob("200000", "100000", decimal.NewFromInt(10))
	require.NoError(t, err)
	require.NoError(t, store.InsertProcessing(ctx, freshJob))

	stale, err := store.ListStaleProcessing(ctx, time.Now().Add(-time.Minute), 10)
	require.NoError(t, err)
	require.Len(t, stale, 1)
	assert.Equal(t, oldJob.TransferID, stale[0].TransferID)
}
