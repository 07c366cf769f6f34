package queue

import (
	"context"

	"github.com/finvault/transferflow/internal/domain"
)

// Memory is a bounded in-process FIFO dispatch queue. Publish sheds load with
// ErrQueueFull once the capacity bound is hit instead of blocking intake.
type Memory struct {
	ch chan domain.JobMessage
}

// NewMemory creates a memory queue with the given capacity bound
func NewMemory(capacity int) *Memory {
	return &Memory{ch: make(chan domain.JobMessage, capacity)}
}

// Publish enqueues a job descriptor without blocking
func (q *Memory) Publish(ctx context.Context, msg domain.JobMessage) error {
	select {
	case q.ch <- msg:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	default:
		return domain.ErrQueueFull
	}
}

// Consume blocks until a job descriptor is available or ctx is cancelled
func (q *Memory) Consume(ctx context.Context) (domain.JobMessage, error) {
	select {
	case msg := <-q.ch:
		return msg, nil
	case <-ctx.Done():
		return domain.JobMessage{}, ctx.Err()
	}
}
