package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
)

// Config holds everything the binaries read from the environment.
// A .env file in the working directory is loaded first if present.
type Config struct {
	Port        string
	APIToken    string
	DatabaseURL string

	RedisAddr   string
	QueueDriver string
	QueueKey    string

	QueueCapacity  int
	WorkerCount    int
	FraudThreshold decimal.Decimal
	FraudTimeout   time.Duration
	ReconcileAfter time.Duration
	SweepInterval  time.Duration
}

// Load reads configuration from the environment with sensible defaults
func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		Port:           getEnv("PORT", "8080"),
		APIToken:       getEnv("API_TOKEN", ""),
		DatabaseURL:    getEnv("DATABASE_URL", ""),
		RedisAddr:      getEnv("REDIS_ADDR", "localhost:6379"),
		QueueDriver:    getEnv("QUEUE_DRIVER", "memory"),
		QueueKey:       getEnv("QUEUE_KEY", "transfers"),
		QueueCapacity:  getEnvInt("QUEUE_CAPACITY", 1024),
		WorkerCount:    getEnvInt("WORKER_COUNT", 4),
		FraudThreshold: getEnvDecimal("FRAUD_THRESHOLD", decimal.NewFromInt(1000)),
		FraudTimeout:   time.Duration(getEnvInt("FRAUD_TIMEOUT_MS", 500)) * time.Millisecond,
		ReconcileAfter: time.Duration(getEnvInt("RECONCILE_AFTER_S", 300)) * time.Second,
		SweepInterval:  time.Duration(getEnvInt("SWEEP_INTERVAL_S", 60)) * time.Second,
	}
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvDecimal(key string, fallback decimal.Decimal) decimal.Decimal {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := decimal.NewFromString(value)
	if err != nil {
		return fallback
	}
	return parsed
}
