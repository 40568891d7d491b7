package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"ecommerce-price-tracker/internal/config"
	"ecommerce-price-tracker/internal/domain"
	"ecommerce-price-tracker/internal/export"
	chstore "ecommerce-price-tracker/internal/storage/clickhouse"
	"ecommerce-price-tracker/internal/storage/migrations"
	pgstore "ecommerce-price-tracker/internal/storage/postgres"
)

func main() {
	configPath := flag.String("config", "", "Path to YAML config file (environment only when empty)")
	fromFlag := flag.String("from", "", "First date to export YYYY-MM-DD (default: --to)")
	toFlag := flag.String("to", "", "Last date to export YYYY-MM-DD (default: today, UTC)")
	batchSize := flag.Int("batch-size", export.DefaultBatchSize, "Snapshots per ClickHouse batch")
	flag.Parse()

	logger := log.New(os.Stdout, "[export] ", log.LstdFlags|log.Lshortfile)

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Fatalf("Config error: %v", err)
	}
	if cfg.Postgres.DSN == "" || cfg.ClickHouse.DSN == "" {
		logger.Fatal("postgres and clickhouse dsn are required (POSTGRES_DSN, CLICKHOUSE_DSN)")
	}

	end := domain.NormalizeDate(time.Now().UTC())
	if *toFlag != "" {
		if end, err = domain.ParseDate(*toFlag); err != nil {
			logger.Fatalf("Invalid --to: %v", err)
		}
	}
	start := end
	if *fromFlag != "" {
		if start, err = domain.ParseDate(*fromFlag); err != nil {
			logger.Fatalf("Invalid --from: %v", err)
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, logger, cfg, start, end, *batchSize); err != nil {
		stop()
		logger.Fatalf("Error: %v", err)
	}
}

func run(ctx context.Context, logger *log.Logger, cfg *config.Config, start, end time.Time, batchSize int) error {
	pool, err := pgstore.NewPool(ctx, cfg.Postgres.DSN)
	if err != nil {
		return err
	}
	defer pool.Close()

	conn, err := migrations.RunClickhouseMigrations(ctx, cfg.ClickHouse.DSN)
	if err != nil {
		return fmt.Errorf("migrate clickhouse: %w", err)
	}
	defer conn.Close()

	syncer := export.NewSyncer(export.SyncerOptions{
		Source:    pgstore.NewSnapshotStore(pool),
		Dest:      chstore.NewPriceHistoryStore(conn),
		BatchSize: batchSize,
		Logger:    logger,
	})

	res, err := syncer.Sync(ctx, start, end)
	if err != nil {
		return err
	}
	fmt.Printf("scanned=%d exported=%d skipped=%d\n", res.Scanned, res.Exported, res.Skipped)
	return nil
}
