package queue

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/finvault/transferflow/internal/domain"
)

// DefaultKey is the Redis list the dispatch queue lives on
const DefaultKey = "transfers"

// Redis is a dispatch queue backed by a Redis list. RPUSH/BLPOP gives
// per-producer FIFO order with at-least-once delivery; workers tolerate
// duplicates via the job store's conditional finalize.
type Redis struct {
	client *redis.Client
	key    string
}

// NewRedis creates a Redis-backed queue on the given list key.
// An empty key falls back to DefaultKey.
func NewRedis(client *redis.Client, key string) *Redis {
	if key == "" {
		key = DefaultKey
	}
	return &Redis{client: client, key: key}
}

// Publish appends the job descriptor to the tail of the list
func (q *Redis) Publish(ctx context.Context, msg domain.JobMessage) error {
	payload, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("encode job descriptor: %w", err)
	}
	if err := q.client.RPush(ctx, q.key, payload).Err(); err != nil {
		return fmt.Errorf("publish job descriptor: %w", err)
	}
	return nil
}

// Consume blocks on the head of the list until a descriptor arrives or ctx
// is cancelled
func (q *Redis) Consume(ctx context.Context) (domain.JobMessage, error) {
	res, err := q.client.BLPop(ctx, 0, q.key).Result()
	if err != nil {
		return domain.JobMessage{}, fmt.Errorf("consume job descriptor: %w", err)
	}
	// BLPOP returns [key, value]
	var msg domain.JobMessage
	if err := json.Unmarshal([]byte(res[1]), &msg); err != nil {
		return domain.JobMessage{}, fmt.Errorf("decode job descriptor: %w", err)
	}
	return msg, nil
}
