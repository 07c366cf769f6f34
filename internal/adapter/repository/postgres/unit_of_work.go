package postgres

import (
	"context"
	"fmt"

	"github.com/finvault/transferflow/internal/domain"
)

// UnitOfWork implements domain.UnitOfWork over a database transaction.
// The ledger and job store handed to fn share the transaction, so their
// writes commit or roll back together and FOR UPDATE locks are held until
// the unit ends.
type UnitOfWork struct {
	db *DB
}

// NewUnitOfWork creates a unit-of-work factory over the shared pool
func NewUnitOfWork(db *DB) *UnitOfWork {
	return &UnitOfWork{db: db}
}

// WithinTx runs fn inside one database transaction
func (u *UnitOfWork) WithinTx(ctx context.Context, fn func(ledger domain.Ledger, jobs domain.TransferJobRepository) error) error {
	tx, err := u.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin unit of work: %w", err)
	}
	defer tx.Rollback()

	if err := fn(&ledgerRepository{q: tx}, &transferJobRepository{q: tx}); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit unit of work: %w", err)
	}
	return nil
}
