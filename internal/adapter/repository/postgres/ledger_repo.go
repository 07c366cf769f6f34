package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/finvault/transferflow/internal/domain"
)

// ledgerRepository implements domain.Ledger. Row locks taken by LockBalance
// are held for the lifetime of the surrounding transaction, so it is only
// meaningful inside a unit of work.
type ledgerRepository struct {
	q querier
}

// LockBalance acquires the exclusive row lock and returns the balance
func (r *ledgerRepository) LockBalance(ctx context.Context, accountNumber string) (decimal.Decimal, error) {
	query := `
		SELECT balance
		FROM accounts
		WHERE account_number = $1
		FOR UPDATE
	`

	var balanceStr string
	err := r.q.QueryRowContext(ctx, query, accountNumber).Scan(&balanceStr)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return decimal.Decimal{}, domain.ErrAccountNotFound
		}
		return decimal.Decimal{}, fmt.Errorf("failed to lock account row: %w", err)
	}

	balance, err := decimal.NewFromString(balanceStr)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("failed to parse balance: %w", err)
	}
	return balance, nil
}

// ApplyDelta adds a signed amount to a locked account's balance
func (r *ledgerRepository) ApplyDelta(ctx context.Context, accountNumber string, delta decimal.Decimal) error {
	query := `
		UPDATE accounts
		SET balance = balance + $1
		WHERE account_number = $2
	`

	res, err := r.q.ExecContext(ctx, query, delta.String(), accountNumber)
	if err != nil {
		return fmt.Errorf("failed to apply balance delta: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if affected == 0 {
		return domain.ErrAccountNotFound
	}
	return nil
}

// AppendEntry records one leg of an applied transfer
func (r *ledgerRepository) AppendEntry(ctx context.Context, entry *domain.LedgerEntry) error {
	query := `
		INSERT INTO ledger_entries (transfer_id, account_number, amount, entry_type)
		VALUES ($1, $2, $3, $4)
	`

	_, err := r.q.ExecContext(ctx, query,
		entry.TransferID,
		entry.AccountNumber,
		entry.Amount.String(),
		string(entry.Type),
	)
	if err != nil {
		return fmt.Errorf("failed to append ledger entry: %w", err)
	}
	return nil
}

// HasEntries reports whether any ledger entries exist for a transfer
func (r *ledgerRepository) HasEntries(ctx context.Context, transferID uuid.UUID) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM ledger_entries WHERE transfer_id = $1
		)
	`

	var exists bool
	if err := r.q.QueryRowContext(ctx, query, transferID).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check ledger entries: %w", err)
	}
	return exists, nil
}
