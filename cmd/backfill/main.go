// Package main runs the shift opening-stock backfill as a one-shot
// job. It chains every shift to its predecessor in memory, so one run
// covers the whole history.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"fueldepot/internal/domain/shifts"
	"fueldepot/internal/infrastructure/storage/postgres"
	"fueldepot/internal/infrastructure/storage/postgres/catalog_repo"
	"fueldepot/internal/infrastructure/storage/postgres/ledger_repo"
	"fueldepot/internal/infrastructure/storage/postgres/shift_repo"
	"fueldepot/pkg/logger"
)

func main() {
	_ = godotenv.Load()

	log, err := logger.New(logger.Config{
		Level:       getEnv("LOG_LEVEL", "info"),
		Development: getEnv("APP_ENV", "development") == "development",
	})
	if err != nil {
		fmt.Printf("failed to initialize logger: %v\n", err)
		os.Exit(1)
	}

	ctx := context.Background()
	log.Info("starting opening-stock backfill")

	pool, err := postgres.NewPool(ctx, postgres.DefaultPoolConfig(mustEnv("DATABASE_URL")))
	if err != nil {
		log.Fatalw("failed to connect to database", "error", err)
	}
	defer pool.Close()

	txManager := postgres.NewTxManager(pool)

	backfiller := shifts.NewBackfiller(
		shift_repo.NewShiftRepo(txManager),
		catalog_repo.NewWarehouseRepo(txManager),
		catalog_repo.NewProductRepo(txManager),
		catalog_repo.NewTankRepo(txManager),
		ledger_repo.NewLedgerRepo(txManager),
	)

	stats, err := backfiller.Run(ctx)
	if err != nil {
		log.Fatalw("backfill failed", "error", err)
	}

	log.Infow("backfill complete",
		"shifts_total", stats.ShiftsTotal,
		"shifts_updated", stats.ShiftsUpdated,
		"shifts_skipped", stats.ShiftsSkipped,
	)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func mustEnv(key string) string {
	value := os.Getenv(key)
	if value == "" {
		fmt.Printf("required environment variable %s not set\n", key)
		os.Exit(1)
	}
	return value
}
