package postgres

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/lib/pq" // PostgreSQL driver
)

// DB wraps the database connection
type DB struct {
	*sql.DB
}

// NewDB creates a new database connection
// connectionString should be in the format: "host=localhost port=5432 user=postgres password=postgres dbname=transferflow sslmode=disable"
// or a postgres:// URL.
func NewDB(connectionString string) (*DB, error) {
	db, err := sql.Open("postgres", connectionString)
	if err != nil {
		return nil, fmt.Errorf("failed to open database connection: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &DB{DB: db}, nil
}

// Close closes the database connection
func (db *DB) Close() error {
	return db.DB.Close()
}

const schema = `
CREATE TABLE IF NOT EXISTS accounts (
	account_number CHAR(6) PRIMARY KEY,
	balance        NUMERIC(14,2) NOT NULL CHECK (balance >= 0)
);

CREATE TABLE IF NOT EXISTS transfer_jobs (
	transfer_id  UUID PRIMARY KEY,
	from_account VARCHAR(50) NOT NULL,
	to_account   CHAR(6) NOT NULL,
	amount       NUMERIC(14,2) NOT NULL,
	status       VARCHAR(16) NOT NULL,
	result       TEXT NOT NULL DEFAULT '',
	created_at   TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_transfer_jobs_status_created
	ON transfer_jobs (status, created_at);

CREATE TABLE IF NOT EXISTS ledger_entries (
	id             BIGSERIAL PRIMARY KEY,
	transfer_id    UUID NOT NULL,
	account_number CHAR(6) NOT NULL,
	amount         NUMERIC(14,2) NOT NULL,
	entry_type     VARCHAR(16) NOT NULL,
	created_at     TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_ledger_entries_transfer
	ON ledger_entries (transfer_id);
`

// Migrate creates the schema if it does not exist yet
func (db *DB) Migrate(ctx context.Context) error {
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	return nil
}

// querier is satisfied by both *sql.DB and *sql.Tx, so the repositories can
// run standalone or bound to a unit of work.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}
