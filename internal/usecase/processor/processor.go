package processor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/shopspring/decimal"

	"github.com/finvault/transferflow/internal/domain"
)

// Processor consumes dispatched transfer jobs and applies them to the ledger.
// Each job executes as one atomic unit of work: lock the involved account rows
// in the fixed global order, validate, move funds, write the ledger entries and
// finalize the job record, then commit. Delivery is at-least-once, so a job
// already in a terminal state is treated as a duplicate and skipped.
type Processor struct {
	UoW    domain.UnitOfWork
	Jobs   domain.TransferJobRepository
	Queue  domain.Queue
	Gate   domain.FraudGate
	Logger *slog.Logger
}

// NewProcessor creates a new Processor instance
func NewProcessor(uow domain.UnitOfWork, jobs domain.TransferJobRepository, queue domain.Queue, gate domain.FraudGate, logger *slog.Logger) *Processor {
	return &Processor{
		UoW:    uow,
		Jobs:   jobs,
		Queue:  queue,
		Gate:   gate,
		Logger: logger,
	}
}

// Run consumes jobs until the context is cancelled. Failures on individual
// jobs are logged and never stop the loop.
func (p *Processor) Run(ctx context.Context) error {
	for {
		msg, err := p.Queue.Consume(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			p.Logger.Error("failed to consume from dispatch queue", "error", err)
			continue
		}
		if err := p.Process(ctx, msg); err != nil {
			p.Logger.Error("transfer processing failed",
				"transfer_id", msg.TransferID, "error", err)
		}
	}
}

// Process executes a single dispatched job. It is safe to call more than once
// for the same transfer: duplicates are detected against the job record and
// become no-ops without touching the ledger.
func (p *Processor) Process(ctx context.Context, msg domain.JobMessage) error {
	job, err := p.Jobs.Get(ctx, msg.TransferID)
	if err != nil {
		return fmt.Errorf("failed to load transfer job %s: %w", msg.TransferID, err)
	}
	if job.Status.IsTerminal() {
		p.Logger.Info("skipping already finalized transfer",
			"transfer_id", job.TransferID, "status", job.Status)
		return nil
	}

	err = p.UoW.WithinTx(ctx, func(ledger domain.Ledger, jobs domain.TransferJobRepository) error {
		return p.execute(ctx, ledger, jobs, job)
	})
	if err == nil {
		return nil
	}
	if errors.Is(err, domain.ErrAlreadyFinalized) {
		// Another delivery finalized the job between our pre-check and the
		// commit; everything was rolled back, nothing left to do.
		p.Logger.Info("lost finalization race, duplicate delivery discarded",
			"transfer_id", job.TransferID)
		return nil
	}

	// Infrastructure failure mid-unit: the ledger writes rolled back, but the
	// job row is still in processing. Try to mark it failed so the client
	// stops polling; if even that fails the reconciler will settle it.
	if applied, finErr := p.Jobs.Finalize(ctx, job.TransferID, domain.StatusFailed, domain.ReasonInternalError); finErr != nil {
		p.Logger.Error("failed to mark broken transfer as failed, leaving for reconciler",
			"transfer_id", job.TransferID, "error", finErr)
	} else if applied {
		p.Logger.Warn("transfer marked failed after processing error",
			"transfer_id", job.TransferID)
	}
	return err
}

// execute runs inside the unit of work. Business-rule failures finalize the
// job as failed and return nil so the (ledger-untouched) unit commits;
// infrastructure errors propagate and roll the unit back.
func (p *Processor) execute(ctx context.Context, ledger domain.Ledger, jobs domain.TransferJobRepository, job *domain.TransferJob) error {
	available := make(map[string]decimal.Decimal, 2)
	for _, accountNumber := range job.LockOrder() {
		balance, err := ledger.LockBalance(ctx, accountNumber)
		if err != nil {
			if errors.Is(err, domain.ErrAccountNotFound) {
				return p.finalize(ctx, jobs, job, domain.StatusFailed, domain.ReasonAccountNotFound)
			}
			return fmt.Errorf("failed to lock account %s: %w", accountNumber, err)
		}
		available[accountNumber] = balance
	}

	if !job.IsDeposit() {
		if available[job.FromAccount].LessThan(job.Amount) {
			return p.finalize(ctx, jobs, job, domain.StatusFailed, domain.ReasonInsufficientFunds)
		}

		approved, err := p.Gate.Decide(ctx, job.FromAccount, job.Amount)
		if err != nil {
			// The gate did not answer; fail closed rather than move funds
			// past an unavailable fraud check.
			p.Logger.Warn("fraud gate unavailable, rejecting transfer",
				"transfer_id", job.TransferID, "error", err)
			approved = false
		}
		if !approved {
			return p.finalize(ctx, jobs, job, domain.StatusFailed, domain.ReasonFraudRejected)
		}

		if err := ledger.ApplyDelta(ctx, job.FromAccount, job.Amount.Neg()); err != nil {
			return fmt.Errorf("failed to debit account %s: %w", job.FromAccount, err)
		}
		if err := ledger.AppendEntry(ctx, &domain.LedgerEntry{
			TransferID:    job.TransferID,
			AccountNumber: job.FromAccount,
			Amount:        job.Amount,
			Type:          domain.EntryTransferOut,
		}); err != nil {
			return fmt.Errorf("failed to record debit entry: %w", err)
		}
	}

	if err := ledger.ApplyDelta(ctx, job.ToAccount, job.Amount); err != nil {
		return fmt.Errorf("failed to credit account %s: %w", job.ToAccount, err)
	}
	creditType := domain.EntryTransferIn
	result := domain.ResultTransferSuccessful
	if job.IsDeposit() {
		creditType = domain.EntryDeposit
		result = domain.ResultDepositSuccessful
	}
	if err := ledger.AppendEntry(ctx, &domain.LedgerEntry{
		TransferID:    job.TransferID,
		AccountNumber: job.ToAccount,
		Amount:        job.Amount,
		Type:          creditType,
	}); err != nil {
		return fmt.Errorf("failed to record credit entry: %w", err)
	}

	return p.finalize(ctx, jobs, job, domain.StatusCompleted, result)
}

// finalize conditionally moves the job to a terminal state inside the unit.
// A conflict (someone else already finalized it) aborts the whole unit so
// none of the staged ledger writes land.
func (p *Processor) finalize(ctx context.Context, jobs domain.TransferJobRepository, job *domain.TransferJob, status domain.Status, result string) error {
	applied, err := jobs.Finalize(ctx, job.TransferID, status, result)
	if err != nil {
		return fmt.Errorf("failed to finalize transfer job: %w", err)
	}
	if !applied {
		return domain.ErrAlreadyFinalized
	}
	if status == domain.StatusFailed {
		p.Logger.Info("transfer failed",
			"transfer_id", job.TransferID, "reason", result)
	} else {
		p.Logger.Info("transfer completed",
			"transfer_id", job.TransferID,
			"from_account", job.FromAccount,
			"to_account", job.ToAccount,
			"amount", job.Amount.String(),
		)
	}
	return nil
}
