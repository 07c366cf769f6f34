package reconciler

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/finvault/transferflow/internal/adapter/repository/memory"
	"github.com/finvault/transferflow/internal/domain"
)

func newTestSweeper(store *memory.Store) *Sweeper {
	s := NewSweeper(store, store, time.Minute, time.Minute, slog.New(slog.NewTextHandler(io.Discard, nil)))
	return s
}

func staleJob(t *testing.T, store *memory.Store, from, to string) *domain.TransferJob {
	t.Helper()
	job, err := domain.NewTransferJob(from, to, decimal.NewFromInt(50))
	require.NoError(t, err)
	job.CreatedAt = time.Now().UTC().Add(-time.Hour)
	require.NoError(t, store.InsertProcessing(context.Background(), job))
	return job
}

func TestSweep_FailsStaleJobWithoutLedgerEntries(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	sweeper := newTestSweeper(store)

	job := staleJob(t, store, "100000", "200000")
	require.NoError(t, sweeper.Sweep(ctx))

	got, err := store.Get(ctx, job.TransferID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusFailed, got.Status)
	assert.Equal(t, domain.ReasonProcessingTimeout, got.Result)
}

func TestSweep_CompletesStaleJobWhoseFundsMoved(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	require.NoError(t, store.Create(ctx, &domain.Account{AccountNumber: "100000", Balance: decimal.NewFromInt(500)}))
	require.NoError(t, store.Create(ctx, &domain.Account{AccountNumber: "200000", Balance: decimal.NewFromInt(100)}))
	sweeper := newTestSweeper(store)

	job := staleJob(t, store, "100000", "200000")

	// Simulate a worker that moved the funds but died before anything else
	// could observe it: the ledger entries exist, the job is still processing.
	err := store.WithinTx(ctx, func(ledger domain.Ledger, _ domain.TransferJobRepository) error {
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
		return ledger.AppendEntry(ctx, &domain.LedgerEntry{
			TransferID: job.TransferID, AccountNumber: "200000", Amount: job.Amount, Type: domain.EntryTransferIn,
		})
	})
	require.NoError(t, err)

	require.NoError(t, sweeper.Sweep(ctx))

	got, err := store.Get(ctx, job.TransferID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusCompleted, got.Status)
	assert.Equal(t, domain.ResultTransferSuccessful, got.Result)
}

func TestSweep_LeavesFreshJobsAlone(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	sweeper := newTestSweeper(store)

	job, err := domain.NewTransferJob("100000", "200000", decimal.NewFromInt(50))
	require.NoError(t, err)
	require.NoError(t, store.InsertProcessing(ctx, job))

	require.NoError(t, sweeper.Sweep(ctx))

	got, err := store.Get(ctx, job.TransferID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusProcessing, got.Status)
}

func TestSweep_LeavesTerminalJobsAlone(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	sweeper := newTestSweeper(store)

	job := staleJob(t, store, "100000", "200000")
	applied, err := store.Finalize(ctx, job.TransferID, domain.StatusCompleted, domain.ResultTransferSuccessful)
	require.NoError(t, err)
	require.True(t, applied)

	require.NoError(t, sweeper.Sweep(ctx))

	got, err := store.Get(ctx, job.TransferID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusCompleted, got.Status)
	assert.Equal(t, domain.ResultTransferSuccessful, got.Result)
}

func TestRun_StopsOnContextCancel(t *testing.T) {
	store := memory.NewStore()
	sweeper := newTestSweeper(store)
	sweeper.Interval = time.Millisecond

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	err := sweeper.Run(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
