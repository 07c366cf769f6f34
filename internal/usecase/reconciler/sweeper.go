package reconciler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/finvault/transferflow/internal/domain"
)

const defaultBatchSize = 100

// Sweeper settles jobs stuck in processing. A job can be orphaned when a
// worker dies between committing the ledger writes and nothing, or between
// consuming the message and committing anything; the ledger entries linked to
// the transfer ID tell the two cases apart. Entries present means the funds
// moved and the job is completed; no entries means nothing happened and the
// job is failed so the client can retry.
type Sweeper struct {
	UoW       domain.UnitOfWork
	Jobs      domain.TransferJobRepository
	OlderThan time.Duration
	Interval  time.Duration
	BatchSize int
	Logger    *slog.Logger
}

// NewSweeper creates a new Sweeper instance
func NewSweeper(uow domain.UnitOfWork, jobs domain.TransferJobRepository, olderThan, interval time.Duration, logger *slog.Logger) *Sweeper {
	return &Sweeper{
		UoW:       uow,
		Jobs:      jobs,
		OlderThan: olderThan,
		Interval:  interval,
		BatchSize: defaultBatchSize,
		Logger:    logger,
	}
}

// Run sweeps on a fixed interval until the context is cancelled
func (s *Sweeper) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := s.Sweep(ctx); err != nil {
				s.Logger.Error("reconciliation sweep failed", "error", err)
			}
		}
	}
}

// Sweep settles one batch of stale processing jobs
func (s *Sweeper) Sweep(ctx context.Context) error {
	cutoff := time.Now().UTC().Add(-s.OlderThan)
	stale, err := s.Jobs.ListStaleProcessing(ctx, cutoff, s.BatchSize)
	if err != nil {
		return fmt.Errorf("failed to list stale transfer jobs: %w", err)
	}

	for _, job := range stale {
		if err := s.settle(ctx, job); err != nil {
			s.Logger.Error("failed to settle stale transfer job",
				"transfer_id", job.TransferID, "error", err)
		}
	}
	return nil
}

// settle decides a single stale job's outcome from the ledger. The check and
// the finalize run in one unit of work, and the finalize stays conditional on
// the job still being in processing, so a worker racing the sweeper on the
// same job cannot double-settle it.
func (s *Sweeper) settle(ctx context.Context, job *domain.TransferJob) error {
	err := s.UoW.WithinTx(ctx, func(ledger domain.Ledger, jobs domain.TransferJobRepository) error {
		moved, err := ledger.HasEntries(ctx, job.TransferID)
		if err != nil {
			return fmt.Errorf("failed to check ledger entries: %w", err)
		}

		status := domain.StatusFailed
		result := domain.ReasonProcessingTimeout
		if moved {
			status = domain.StatusCompleted
			result = domain.ResultTransferSuccessful
			if job.IsDeposit() {
				result = domain.ResultDepositSuccessful
			}
		}

		applied, err := jobs.Finalize(ctx, job.TransferID, status, result)
		if err != nil {
			return fmt.Errorf("failed to finalize stale transfer job: %w", err)
		}
		if !applied {
			return domain.ErrAlreadyFinalized
		}

		s.Logger.Info("settled stale transfer job",
			"transfer_id", job.TransferID, "status", status, "result", result)
		return nil
	})
	if errors.Is(err, domain.ErrAlreadyFinalized) {
		// A worker got there first; that is the preferred outcome.
		return nil
	}
	return err
}
