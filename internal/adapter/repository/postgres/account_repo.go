package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/finvault/transferflow/internal/domain"
)

// accountRepository implements domain.AccountRepository
type accountRepository struct {
	q querier
}

// NewAccountRepository creates a new account repository
func NewAccountRepository(db *DB) domain.AccountRepository {
	return &accountRepository{q: db}
}

// Create inserts a new account row
func (r *accountRepository) Create(ctx context.Context, account *domain.Account) error {
	query := `
		INSERT INTO accounts (account_number, balance)
		VALUES ($1, $2)
	`

	_, err := r.q.ExecContext(ctx, query, account.AccountNumber, account.Balance.String())
	if err != nil {
		return fmt.Errorf("failed to create account: %w", err)
	}
	return nil
}

// GetBalance reads an account balance without locking
func (r *accountRepository) GetBalance(ctx context.Context, accountNumber string) (decimal.Decimal, error) {
	query := `
		SELECT balance
		FROM accounts
		WHERE account_number = $1
	`

	var balanceStr string
	err := r.q.QueryRowContext(ctx, query, accountNumber).Scan(&balanceStr)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return decimal.Decimal{}, domain.ErrAccountNotFound
		}
		return decimal.Decimal{}, fmt.Errorf("failed to get account balance: %w", err)
	}

	balance, err := decimal.NewFromString(balanceStr)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("failed to parse balance: %w", err)
	}
	return balance, nil
}
