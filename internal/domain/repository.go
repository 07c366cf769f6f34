package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// AccountRepository defines account persistence operations consumed by
// seeding and bootstrap code. Balance mutations never go through it.
type AccountRepository interface {
	// Create inserts a new account row
	Create(ctx context.Context, account *Account) error

	// GetBalance reads an account balance without locking
	GetBalance(ctx context.Context, accountNumber string) (decimal.Decimal, error)
}

// Ledger exposes the locked read and balance-delta operations of the
// account ledger. Implementations bound to a unit of work hold row locks
// until the unit commits or rolls back.
type Ledger interface {
	// LockBalance acquires the exclusive row lock for an account and returns
	// its balance, or ErrAccountNotFound.
	LockBalance(ctx context.Context, accountNumber string) (decimal.Decimal, error)

	// ApplyDelta adds a signed amount to a locked account's balance
	ApplyDelta(ctx context.Context, accountNumber string, delta decimal.Decimal) error

	// AppendEntry records one leg of an applied transfer
	AppendEntry(ctx context.Context, entry *LedgerEntry) error

	// HasEntries reports whether any ledger entries exist for a transfer.
	// Used by the reconciler to re-verify actual ledger state.
	HasEntries(ctx context.Context, transferID uuid.UUID) (bool, error)
}

// TransferJobRepository defines the durable job record store
type TransferJobRepository interface {
	// InsertProcessing persists a new job in StatusProcessing
	InsertProcessing(ctx context.Context, job *TransferJob) error

	// Get reads a job by transfer ID, or ErrJobNotFound
	Get(ctx context.Context, transferID uuid.UUID) (*TransferJob, error)

	// Finalize conditionally moves a job to a terminal status. It reports
	// whether the update was applied; a job that is already terminal is left
	// untouched and Finalize returns false with no error.
	Finalize(ctx context.Context, transferID uuid.UUID, status Status, result string) (bool, error)

	// Delete removes a job row. Used by intake to roll back a recorded job
	// whose dispatch failed.
	Delete(ctx context.Context, transferID uuid.UUID) error

	// ListStaleProcessing returns processing jobs created before the cutoff,
	// oldest first, up to limit.
	ListStaleProcessing(ctx context.Context, olderThan time.Time, limit int) ([]*TransferJob, error)
}

// UnitOfWork runs a function whose ledger and job store writes commit or
// roll back together as one atomic unit.
type UnitOfWork interface {
	WithinTx(ctx context.Context, fn func(ledger Ledger, jobs TransferJobRepository) error) error
}

// FraudGate is the pluggable policy check invoked before money moves.
// It must be swappable without touching the worker's transaction logic.
type FraudGate interface {
	// Decide reports whether the transfer is approved. An error means the
	// gate was unavailable; callers fail closed.
	Decide(ctx context.Context, accountNumber string, amount decimal.Decimal) (bool, error)
}
