package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Status represents the lifecycle state of a transfer job
type Status string

const (
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
)

// IsTerminal reports whether the status will never change again
func (s Status) IsTerminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// Failure reasons and success results recorded on finalized jobs.
// Business-rule failures always carry one of these specific reasons;
// infrastructure failures carry the generic ReasonInternalError.
const (
	ReasonAccountNotFound   = "account not found"
	ReasonInsufficientFunds = "insufficient funds"
	ReasonFraudRejected     = "rejected by fraud check"
	ReasonProcessingTimeout = "processing timed out"
	ReasonInternalError     = "internal error"

	ResultTransferSuccessful = "transfer successful"
	ResultDepositSuccessful  = "deposit successful"
)

// TransferJob is one transfer request's full lifecycle record.
// It is created in StatusProcessing by intake and finalized exactly once
// by a worker; a terminal job is never mutated again.
type TransferJob struct {
	TransferID  uuid.UUID
	FromAccount string
	ToAccount   string
	Amount      decimal.Decimal
	Status      Status
	Result      string
	CreatedAt   time.Time
}

// NewTransferJob validates the request and builds a job in StatusProcessing.
// The source may be ExternalDepositSource for deposit-style credits; every
// other identifier must be a well-formed account number.
func NewTransferJob(from, to string, amount decimal.Decimal) (*TransferJob, error) {
	if from != ExternalDepositSource && !ValidAccountNumber(from) {
		return nil, ErrInvalidAccountNumber
	}
	if !ValidAccountNumber(to) {
		return nil, ErrInvalidAccountNumber
	}
	if from == to {
		return nil, ErrSameAccount
	}
	if amount.LessThanOrEqual(decimal.Zero) || amount.Exponent() < -2 {
		return nil, ErrInvalidAmount
	}

	return &TransferJob{
		TransferID:  uuid.New(),
		FromAccount: from,
		ToAccount:   to,
		Amount:      amount,
		Status:      StatusProcessing,
		CreatedAt:   time.Now().UTC(),
	}, nil
}

// NewDepositJob builds a deposit-style job credited from the external sentinel
func NewDepositJob(account string, amount decimal.Decimal) (*TransferJob, error) {
	return NewTransferJob(ExternalDepositSource, account, amount)
}

// IsDeposit reports whether the job credits from the external sentinel source
func (j *TransferJob) IsDeposit() bool {
	return j.FromAccount == ExternalDepositSource
}

// LockOrder returns the ledger accounts involved in this job in the fixed
// global lock-acquisition order (ascending account number). Acquiring row
// locks in this order regardless of transfer direction prevents lock-order
// deadlocks between opposite-direction transfers.
func (j *TransferJob) LockOrder() []string {
	if j.IsDeposit() {
		return []string{j.ToAccount}
	}
	if j.FromAccount < j.ToAccount {
		return []string{j.FromAccount, j.ToAccount}
	}
	return []string{j.ToAccount, j.FromAccount}
}

// Complete transitions the job to StatusCompleted.
// Only processing jobs can be completed.
func (j *TransferJob) Complete(result string) error {
	if j.Status.IsTerminal() {
		return ErrAlreadyFinalized
	}
	j.Status = StatusCompleted
	j.Result = result
	return nil
}

// Fail transitions the job to StatusFailed with a failure reason.
// Only processing jobs can be failed.
func (j *TransferJob) Fail(reason string) error {
	if j.Status.IsTerminal() {
		return ErrAlreadyFinalized
	}
	j.Status = StatusFailed
	j.Result = reason
	return nil
}
