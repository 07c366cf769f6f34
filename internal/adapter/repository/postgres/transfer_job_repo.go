package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/finvault/transferflow/internal/domain"
)

// transferJobRepository implements domain.TransferJobRepository
type transferJobRepository struct {
	q querier
}

// NewTransferJobRepository creates a job record store over the shared pool.
// Workers get a transaction-bound copy through the unit of work instead.
func NewTransferJobRepository(db *DB) domain.TransferJobRepository {
	return &transferJobRepository{q: db}
}

// InsertProcessing persists a new job in StatusProcessing
func (r *transferJobRepository) InsertProcessing(ctx context.Context, job *domain.TransferJob) error {
	query := `
		INSERT INTO transfer_jobs (transfer_id, from_account, to_account, amount, status, result, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err := r.q.ExecContext(ctx, query,
		job.TransferID,
		job.FromAccount,
		job.ToAccount,
		job.Amount.String(),
		string(job.Status),
		job.Result,
		job.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert transfer job: %w", err)
	}
	return nil
}

// Get reads a job by transfer ID
func (r *transferJobRepository) Get(ctx context.Context, transferID uuid.UUID) (*domain.TransferJob, error) {
	query := `
		SELECT transfer_id, from_account, to_account, amount, status, result, created_at
		FROM transfer_jobs
		WHERE transfer_id = $1
	`

	row := r.q.QueryRowContext(ctx, query, transferID)
	return scanJob(row)
}

// Finalize conditionally moves a job to a terminal status. The guard on the
// current status makes duplicate deliveries a no-op.
func (r *transferJobRepository) Finalize(ctx context.Context, transferID uuid.UUID, status domain.Status, result string) (bool, error) {
	query := `
		UPDATE transfer_jobs
		SET status = $2, result = $3
		WHERE transfer_id = $1 AND status = $4
	`

	res, err := r.q.ExecContext(ctx, query, transferID, string(status), result, string(domain.StatusProcessing))
	if err != nil {
		return false, fmt.Errorf("failed to finalize transfer job: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read affected rows: %w", err)
	}
	return affected > 0, nil
}

// Delete removes a job row
func (r *transferJobRepository) Delete(ctx context.Context, transferID uuid.UUID) error {
	query := `DELETE FROM transfer_jobs WHERE transfer_id = $1`

	if _, err := r.q.ExecContext(ctx, query, transferID); err != nil {
		return fmt.Errorf("failed to delete transfer job: %w", err)
	}
	return nil
}

// ListStaleProcessing returns processing jobs created before the cutoff
func (r *transferJobRepository) ListStaleProcessing(ctx context.Context, olderThan time.Time, limit int) ([]*domain.TransferJob, error) {
	query := `
		SELECT transfer_id, from_account, to_account, amount, status, result, created_at
		FROM transfer_jobs
		WHERE status = $1 AND created_at < $2
		ORDER BY created_at ASC
		LIMIT $3
	`

	rows, err := r.q.QueryContext(ctx, query, string(domain.StatusProcessing), olderThan, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list stale transfer jobs: %w", err)
	}
	defer rows.Close()

	var jobs []*domain.TransferJob
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, job)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate stale transfer jobs: %w", err)
	}
	return jobs, nil
}

// rowScanner is satisfied by *sql.Row and *sql.Rows
type rowScanner interface {
	Scan(dest ...any) error
}

func scanJob(row rowScanner) (*domain.TransferJob, error) {
	var (
		job       domain.TransferJob
		amountStr string
		status    string
	)

	err := row.Scan(
		&job.TransferID,
		&job.FromAccount,
		&job.ToAccount,
		&amountStr,
		&status,
		&job.Result,
		&job.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrJobNotFound
		}
		return nil, fmt.Errorf("failed to scan transfer job: %w", err)
	}

	amount, err := decimal.NewFromString(amountStr)
	if err != nil {
		return nil, fmt.Errorf("failed to parse job amount: %w", err)
	}
	job.Amount = amount
	job.Status = domain.Status(status)
	return &job, nil
}
