package memory

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/finvault/transferflow/internal/domain"
)

// Store is an in-memory implementation of the account ledger and the job
// record store, with real per-account row locks. A unit of work stages its
// writes and applies them on commit while holding the locks it acquired, so
// the lock-ordering and idempotency behavior of the worker can be exercised
// without a database.
type Store struct {
	mu       sync.Mutex
	accounts map[string]*accountRow
	jobs     map[uuid.UUID]*domain.TransferJob
	entries  []domain.LedgerEntry
}

// accountRow holds a committed balance plus the simulated row lock.
// The balance is guarded by Store.mu; the lock is held for the duration of a
// unit of work that touched the row.
type accountRow struct {
	lock    sync.Mutex
	balance decimal.Decimal
}

// NewStore creates an empty in-memory store
func NewStore() *Store {
	return &Store{
		accounts: make(map[string]*accountRow),
		jobs:     make(map[uuid.UUID]*domain.TransferJob),
	}
}

// Create inserts a new account row
func (s *Store) Create(_ context.Context, account *domain.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.accounts[account.AccountNumber]; ok {
		return errors.New("memory: account already exists")
	}
	s.accounts[account.AccountNumber] = &accountRow{balance: account.Balance}
	return nil
}

// GetBalance reads a committed account balance without locking the row
func (s *Store) GetBalance(_ context.Context, accountNumber string) (decimal.Decimal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	row, ok := s.accounts[accountNumber]
	if !ok {
		return decimal.Decimal{}, domain.ErrAccountNotFound
	}
	return row.balance, nil
}

// Entries returns a copy of all committed ledger entries
func (s *Store) Entries() []domain.LedgerEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.LedgerEntry, len(s.entries))
	copy(out, s.entries)
	return out
}

// InsertProcessing persists a new job in StatusProcessing
func (s *Store) InsertProcessing(_ context.Context, job *domain.TransferJob) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.jobs[job.TransferID]; ok {
		return errors.New("memory: transfer job already exists")
	}
	copied := *job
	s.jobs[job.TransferID] = &copied
	return nil
}

// Get reads a job by transfer ID
func (s *Store) Get(_ context.Context, transferID uuid.UUID) (*domain.TransferJob, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	job, ok := s.jobs[transferID]
	if !ok {
		return nil, domain.ErrJobNotFound
	}
	copied := *job
	return &copied, nil
}

// Finalize conditionally moves a job to a terminal status
func (s *Store) Finalize(_ context.Context, transferID uuid.UUID, status domain.Status, result string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.finalizeLocked(transferID, status, result)
}

func (s *Store) finalizeLocked(transferID uuid.UUID, status domain.Status, result string) (bool, error) {
	job, ok := s.jobs[transferID]
	if !ok {
		return false, domain.ErrJobNotFound
	}
	if job.Status.IsTerminal() {
		return false, nil
	}
	job.Status = status
	job.Result = result
	return true, nil
}

// Delete removes a job row
func (s *Store) Delete(_ context.Context, transferID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.jobs, transferID)
	return nil
}

// ListStaleProcessing returns processing jobs created before the cutoff
func (s *Store) ListStaleProcessing(_ context.Context, olderThan time.Time, limit int) ([]*domain.TransferJob, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var stale []*domain.TransferJob
	for _, job := range s.jobs {
		if job.Status == domain.StatusProcessing && job.CreatedAt.Before(olderThan) {
			copied := *job
			stale = append(stale, &copied)
		}
	}
	sort.Slice(stale, func(i, j int) bool { return stale[i].CreatedAt.Before(stale[j].CreatedAt) })
	if limit > 0 && len(stale) > limit {
		stale = stale[:limit]
	}
	return stale, nil
}

// WithinTx runs fn with a transaction-bound ledger and job store. Row locks
// acquired through LockBalance are held until the unit commits or rolls back;
// staged writes are applied only on commit.
func (s *Store) WithinTx(_ context.Context, fn func(ledger domain.Ledger, jobs domain.TransferJobRepository) error) error {
	tx := &storeTx{
		store:  s,
		locked: make(map[string]*accountRow),
		deltas: make(map[string]decimal.Decimal),
	}
	defer tx.release()

	if err := fn(tx, tx); err != nil {
		return err
	}
	return tx.commit()
}

// storeTx is one atomic unit of work against the store. It implements both
// domain.Ledger and domain.TransferJobRepository.
type storeTx struct {
	store    *Store
	locked   map[string]*accountRow
	deltas   map[string]decimal.Decimal
	staged   []domain.LedgerEntry
	finalize *stagedFinalize
	done     bool
}

type stagedFinalize struct {
	transferID uuid.UUID
	status     domain.Status
	result     string
}

func (tx *storeTx) LockBalance(_ context.Context, accountNumber string) (decimal.Decimal, error) {
	if row, ok := tx.locked[accountNumber]; ok {
		return tx.viewBalance(accountNumber, row), nil
	}

	tx.store.mu.Lock()
	row, ok := tx.store.accounts[accountNumber]
	tx.store.mu.Unlock()
	if !ok {
		return decimal.Decimal{}, domain.ErrAccountNotFound
	}

	// Blocks until any other unit of work holding this row commits or rolls
	// back, matching SELECT ... FOR UPDATE semantics.
	row.lock.Lock()
	tx.locked[accountNumber] = row

	return tx.viewBalance(accountNumber, row), nil
}

func (tx *storeTx) viewBalance(accountNumber string, row *accountRow) decimal.Decimal {
	tx.store.mu.Lock()
	balance := row.balance
	tx.store.mu.Unlock()
	if delta, ok := tx.deltas[accountNumber]; ok {
		balance = balance.Add(delta)
	}
	return balance
}

func (tx *storeTx) ApplyDelta(_ context.Context, accountNumber string, delta decimal.Decimal) error {
	if _, ok := tx.locked[accountNumber]; !ok {
		return errors.New("memory: account row not locked by this unit of work")
	}
	tx.deltas[accountNumber] = tx.deltas[accountNumber].Add(delta)
	return nil
}

func (tx *storeTx) AppendEntry(_ context.Context, entry *domain.LedgerEntry) error {
	copied := *entry
	if copied.CreatedAt.IsZero() {
		copied.CreatedAt = time.Now().UTC()
	}
	tx.staged = append(tx.staged, copied)
	return nil
}

func (tx *storeTx) HasEntries(_ context.Context, transferID uuid.UUID) (bool, error) {
	tx.store.mu.Lock()
	defer tx.store.mu.Unlock()
	for _, entry := range tx.store.entries {
		if entry.TransferID == transferID {
			return true, nil
		}
	}
	return false, nil
}

func (tx *storeTx) InsertProcessing(ctx context.Context, job *domain.TransferJob) error {
	return tx.store.InsertProcessing(ctx, job)
}

func (tx *storeTx) Get(ctx context.Context, transferID uuid.UUID) (*domain.TransferJob, error) {
	return tx.store.Get(ctx, transferID)
}

// Finalize stages the terminal status update. The conditional check reads the
// committed job state; it is safe because duplicate executions of one transfer
// contend on the same account row locks and are therefore serialized.
func (tx *storeTx) Finalize(_ context.Context, transferID uuid.UUID, status domain.Status, result string) (bool, error) {
	tx.store.mu.Lock()
	job, ok := tx.store.jobs[transferID]
	tx.store.mu.Unlock()
	if !ok {
		return false, domain.ErrJobNotFound
	}
	if job.Status.IsTerminal() {
		return false, nil
	}
	tx.finalize = &stagedFinalize{transferID: transferID, status: status, result: result}
	return true, nil
}

func (tx *storeTx) Delete(ctx context.Context, transferID uuid.UUID) error {
	return tx.store.Delete(ctx, transferID)
}

func (tx *storeTx) ListStaleProcessing(ctx context.Context, olderThan time.Time, limit int) ([]*domain.TransferJob, error) {
	return tx.store.ListStaleProcessing(ctx, olderThan, limit)
}

func (tx *storeTx) commit() error {
	tx.store.mu.Lock()
	defer tx.store.mu.Unlock()

	if tx.finalize != nil {
		applied, err := tx.store.finalizeLocked(tx.finalize.transferID, tx.finalize.status, tx.finalize.result)
		if err != nil {
			return err
		}
		if !applied {
			// Lost a finalization race after staging; discard the whole unit.
			return domain.ErrAlreadyFinalized
		}
	}
	for accountNumber, delta := range tx.deltas {
		row := tx.store.accounts[accountNumber]
		row.balance = row.balance.Add(delta)
	}
	tx.store.entries = append(tx.store.entries, tx.staged...)
	return nil
}

func (tx *storeTx) release() {
	if tx.done {
		return
	}
	tx.done = true
	for _, row := range tx.locked {
		row.lock.Unlock()
	}
}
