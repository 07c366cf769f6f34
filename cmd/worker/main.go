package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	queueadapter "github.com/finvault/transferflow/internal/adapter/queue"
	"github.com/finvault/transferflow/internal/adapter/repository/postgres"
	"github.com/finvault/transferflow/internal/config"
	"github.com/finvault/transferflow/internal/usecase/fraud"
	"github.com/finvault/transferflow/internal/usecase/processor"
	"github.com/finvault/transferflow/internal/usecase/reconciler"
)

// The worker binary drains the Redis dispatch queue against Postgres. It is
// the deployment shape where intake and processing scale independently; the
// single-binary shape with in-process workers lives in cmd/server.
func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	cfg := config.Load()

	if cfg.DatabaseURL == "" {
		logger.Error("DATABASE_URL is required")
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	db, err := postgres.NewDB(cfg.DatabaseURL)
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()
	if err := db.Migrate(ctx); err != nil {
		logger.Error("failed to run migrations", "error", err)
		os.Exit(1)
	}

	client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	if err := client.Ping(ctx).Err(); err != nil {
		logger.Error("failed to connect to redis", "addr", cfg.RedisAddr, "error", err)
		os.Exit(1)
	}
	q := queueadapter.NewRedis(client, cfg.QueueKey)

	uow := postgres.NewUnitOfWork(db)
	jobs := postgres.NewTransferJobRepository(db)
	gate := fraud.NewTimeboxedGate(fraud.NewThresholdGate(cfg.FraudThreshold), cfg.FraudTimeout)

	proc := processor.NewProcessor(uow, jobs, q, gate, logger)
	sweeper := reconciler.NewSweeper(uow, jobs, cfg.ReconcileAfter, cfg.SweepInterval, logger)

	g, ctx := errgroup.WithContext(ctx)
	for i := 0; i < cfg.WorkerCount; i++ {
		g.Go(func() error {
			if err := proc.Run(ctx); !errors.Is(err, context.Canceled) {
				return err
			}
			return nil
		})
	}
	g.Go(func() error {
		if err := sweeper.Run(ctx); !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	})

	logger.Info("workers started", "count", cfg.WorkerCount, "queue_key", cfg.QueueKey)
	if err := g.Wait(); err != nil {
		logger.Error("worker exited with error", "error", err)
		os.Exit(1)
	}
	logger.Info("worker stopped")
}
