package config

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestLoad_Defaults(t *testing.T) {
	for _, key := range []string{"PORT", "QUEUE_DRIVER", "QUEUE_KEY", "QUEUE_CAPACITY", "WORKER_COUNT", "FRAUD_THRESHOLD", "FRAUD_TIMEOUT_MS", "RECONCILE_AFTER_S"} {
		t.Setenv(key, "")
	}

	cfg := Load()

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "memory", cfg.QueueDriver)
	assert.Equal(t, "transfers", cfg.QueueKey)
	assert.Equal(t, 1024, cfg.QueueCapacity)
	assert.Equal(t, 4, cfg.WorkerCount)
	assert.True(t, cfg.FraudThreshold.Equal(decimal.NewFromInt(1000)))
	assert.Equal(t, 500*time.Millisecond, cfg.FraudTimeout)
	assert.Equal(t, 5*time.Minute, cfg.ReconcileAfter)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("QUEUE_DRIVER", "redis")
	t.Setenv("WORKER_COUNT", "8")
	t.Setenv("FRAUD_THRESHOLD", "2500.50")
	t.Setenv("FRAUD_TIMEOUT_MS", "100")

	cfg := Load()

	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, "redis", cfg.QueueDriver)
	assert.Equal(t, 8, cfg.WorkerCount)
	assert.True(t, cfg.FraudThreshold.Equal(decimal.RequireFromString("2500.50")))
	assert.Equal(t, 100*time.Millisecond, cfg.FraudTimeout)
}

func TestLoad_MalformedNumbersFallBack(t *testing.T) {
	t.Setenv("WORKER_COUNT", "many")
	t.Setenv("FRAUD_THRESHOLD", "lots")

	cfg := Load()

	assert.Equal(t, 4, cfg.WorkerCount)
	assert.True(t, cfg.FraudThreshold.Equal(decimal.NewFromInt(1000)))
}
