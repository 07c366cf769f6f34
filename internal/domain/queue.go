package domain

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// JobMessage is the descriptor published onto the dispatch queue.
// The job record store, not the queue, is the source of truth for outcome.
type JobMessage struct {
	TransferID  uuid.UUID       `json:"transfer_id"`
	FromAccount string          `json:"from_account"`
	ToAccount   string          `json:"to_account"`
	Amount      decimal.Decimal `json:"amount"`
}

// Queue is a FIFO channel of job descriptors between intake and workers.
// Delivery is at-least-once; consumers must tolerate duplicates.
type Queue interface {
	// Publish enqueues a job descriptor. It fails with ErrQueueFull when the
	// queue's capacity bound is exceeded.
	Publish(ctx context.Context, msg JobMessage) error

	// Consume blocks until a job descriptor is available or the context is
	// cancelled.
	Consume(ctx context.Context) (JobMessage, error)
}
