package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"math/rand"
	"os"

	"github.com/shopspring/decimal"

	"github.com/finvault/transferflow/internal/adapter/repository/postgres"
	"github.com/finvault/transferflow/internal/config"
	"github.com/finvault/transferflow/internal/domain"
)

// Seeds the accounts table with randomly numbered accounts for local testing.
func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	count := flag.Int("count", 10, "number of accounts to create")
	balance := flag.String("balance", "", "opening balance per account (random 100.00-10000.00 when empty)")
	flag.Parse()

	cfg := config.Load()
	if cfg.DatabaseURL == "" {
		logger.Error("DATABASE_URL is required")
		os.Exit(1)
	}

	var fixed decimal.Decimal
	if *balance != "" {
		parsed, err := decimal.NewFromString(*balance)
		if err != nil {
			logger.Error("invalid opening balance", "balance", *balance, "error", err)
			os.Exit(1)
		}
		fixed = parsed
	}

	ctx := context.Background()
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

	accounts := postgres.NewAccountRepository(db)
	created := 0
	for created < *count {
		accountNumber := fmt.Sprintf("%06d", rand.Intn(900000)+100000)
		opening := fixed
		if *balance == "" {
			// 100.00 to 10000.00 in whole cents
			opening = decimal.New(int64(rand.Intn(990001)+10000), -2)
		}
		err := accounts.Create(ctx, &domain.Account{AccountNumber: accountNumber, Balance: opening})
		if err != nil {
			// Collisions on the random number just mean another draw.
			logger.Warn("failed to create account, retrying", "account", accountNumber, "error", err)
			continue
		}
		logger.Info("created account", "account", accountNumber, "balance", opening.String())
		created++
	}
}
