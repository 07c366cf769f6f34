package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/finvault/transferflow/internal/adapter/httpapi"
	queueadapter "github.com/finvault/transferflow/internal/adapter/queue"
	"github.com/finvault/transferflow/internal/adapter/repository/memory"
	"github.com/finvault/transferflow/internal/adapter/repository/postgres"
	"github.com/finvault/transferflow/internal/config"
	"github.com/finvault/transferflow/internal/domain"
	"github.com/finvault/transferflow/internal/usecase/fraud"
	"github.com/finvault/transferflow/internal/usecase/intake"
	"github.com/finvault/transferflow/internal/usecase/processor"
	"github.com/finvault/transferflow/internal/usecase/reconciler"
	"github.com/finvault/transferflow/internal/usecase/status"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	cfg := config.Load()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	// Storage: Postgres when a DSN is configured, otherwise the in-memory
	// store seeded with a pair of demo accounts.
	var (
		uow  domain.UnitOfWork
		jobs domain.TransferJobRepository
	)
	if cfg.DatabaseURL != "" {
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
		uow = postgres.NewUnitOfWork(db)
		jobs = postgres.NewTransferJobRepository(db)
		logger.Info("using postgres storage")
	} else {
		store := memory.NewStore()
		seedDemoAccounts(ctx, store, logger)
		uow = store
		jobs = store
		logger.Info("using in-memory storage")
	}

	// Dispatch queue: Redis when configured, otherwise a bounded in-process
	// channel drained by workers in this same binary.
	var q domain.Queue
	runWorkersHere := false
	switch cfg.QueueDriver {
	case "redis":
		client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		if err := client.Ping(ctx).Err(); err != nil {
			logger.Error("failed to connect to redis", "addr", cfg.RedisAddr, "error", err)
			os.Exit(1)
		}
		q = queueadapter.NewRedis(client, cfg.QueueKey)
		logger.Info("using redis dispatch queue", "addr", cfg.RedisAddr, "key", cfg.QueueKey)
	default:
		q = queueadapter.NewMemory(cfg.QueueCapacity)
		runWorkersHere = true
		logger.Info("using in-memory dispatch queue", "capacity", cfg.QueueCapacity)
	}

	gate := fraud.NewTimeboxedGate(fraud.NewThresholdGate(cfg.FraudThreshold), cfg.FraudTimeout)

	server := httpapi.NewServer(
		intake.NewIntakeService(jobs, q, logger),
		status.NewStatusService(jobs),
		logger,
	)
	server.APIToken = cfg.APIToken
	httpServer := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: server.Router(),
	}

	g, ctx := errgroup.WithContext(ctx)

	if runWorkersHere {
		proc := processor.NewProcessor(uow, jobs, q, gate, logger)
		for i := 0; i < cfg.WorkerCount; i++ {
			g.Go(func() error {
				if err := proc.Run(ctx); !errors.Is(err, context.Canceled) {
					return err
				}
				return nil
			})
		}
		sweeper := reconciler.NewSweeper(uow, jobs, cfg.ReconcileAfter, cfg.SweepInterval, logger)
		g.Go(func() error {
			if err := sweeper.Run(ctx); !errors.Is(err, context.Canceled) {
				return err
			}
			return nil
		})
		logger.Info("in-process workers started", "count", cfg.WorkerCount)
	}

	g.Go(func() error {
		logger.Info("http server listening", "port", cfg.Port)
		if err := httpServer.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Error("server exited with error", "error", err)
		os.Exit(1)
	}
	logger.Info("server stopped")
}

// seedDemoAccounts provisions two accounts so the pipeline is usable out of
// the box without a database.
func seedDemoAccounts(ctx context.Context, store *memory.Store, logger *slog.Logger) {
	seeds := []domain.Account{
		{AccountNumber: "100000", Balance: decimal.RequireFromString("500.00")},
		{AccountNumber: "200000", Balance: decimal.RequireFromString("100.00")},
	}
	for _, account := range seeds {
		if err := store.Create(ctx, &account); err != nil {
			logger.Warn("failed to seed demo account", "account", account.AccountNumber, "error", err)
			continue
		}
		logger.Info("seeded demo account", "account", account.AccountNumber, "balance", account.Balance.String())
	}
}
