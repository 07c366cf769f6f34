package intake

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/finvault/transferflow/internal/domain"
)

// SubmitTransferInput represents the input for submitting a transfer
type SubmitTransferInput struct {
	FromAccount string
	ToAccount   string
	Amount      decimal.Decimal
}

// IntakeService validates transfer requests, records the job and hands it to
// the dispatch queue. It returns the transfer ID immediately and never waits
// for processing.
type IntakeService struct {
	Jobs   domain.TransferJobRepository
	Queue  domain.Queue
	Logger *slog.Logger
}

// NewIntakeService creates a new IntakeService instance
func NewIntakeService(jobs domain.TransferJobRepository, queue domain.Queue, logger *slog.Logger) *IntakeService {
	return &IntakeService{
		Jobs:   jobs,
		Queue:  queue,
		Logger: logger,
	}
}

// SubmitTransfer records a transfer job and publishes it for processing.
// Validation failures never create a job. If the job row was written but the
// publish failed, the row is rolled back so no job is recorded without ever
// being dispatched.
func (s *IntakeService) SubmitTransfer(ctx context.Context, input SubmitTransferInput) (uuid.UUID, error) {
	job, err := domain.NewTransferJob(input.FromAccount, input.ToAccount, input.Amount)
	if err != nil {
		return uuid.Nil, err
	}
	return s.submit(ctx, job)
}

// SubmitDeposit records a deposit-style credit from the external sentinel
// source and publishes it through the same pipeline.
func (s *IntakeService) SubmitDeposit(ctx context.Context, accountNumber string, amount decimal.Decimal) (uuid.UUID, error) {
	job, err := domain.NewDepositJob(accountNumber, amount)
	if err != nil {
		return uuid.Nil, err
	}
	return s.submit(ctx, job)
}

func (s *IntakeService) submit(ctx context.Context, job *domain.TransferJob) (uuid.UUID, error) {
	if err := s.Jobs.InsertProcessing(ctx, job); err != nil {
		return uuid.Nil, fmt.Errorf("failed to record transfer job: %w", err)
	}

	msg := domain.JobMessage{
		TransferID:  job.TransferID,
		FromAccount: job.FromAccount,
		ToAccount:   job.ToAccount,
		Amount:      job.Amount,
	}
	if err := s.Queue.Publish(ctx, msg); err != nil {
		// A recorded job that was never dispatched would sit in processing
		// forever; roll the row back before surfacing the error.
		if delErr := s.Jobs.Delete(ctx, job.TransferID); delErr != nil {
			s.Logger.Error("failed to roll back undispatched transfer job",
				"transfer_id", job.TransferID, "error", delErr)
		}
		return uuid.Nil, fmt.Errorf("%w: %v", domain.ErrDispatchFailed, err)
	}

	s.Logger.Info("transfer accepted",
		"transfer_id", job.TransferID,
		"from_account", job.FromAccount,
		"to_account", job.ToAccount,
		"amount", job.Amount.String(),
	)
	return job.TransferID, nil
}
