package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"ecommerce-price-tracker/internal/config"
	"ecommerce-price-tracker/internal/seed"
	"ecommerce-price-tracker/internal/storage/migrations"
	pgstore "ecommerce-price-tracker/internal/storage/postgres"
)

func main() {
	configPath := flag.String("config", "", "Path to YAML config file (environment only when empty)")
	flag.Parse()

	logger := log.New(os.Stdout, "[seed] ", log.LstdFlags|log.Lshortfile)

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Fatalf("Config error: %v", err)
	}
	if cfg.Postgres.DSN == "" {
		logger.Fatal("postgres dsn is required (POSTGRES_DSN or postgres.dsn)")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := pgstore.NewPool(ctx, cfg.Postgres.DSN)
	if err != nil {
		logger.Fatalf("Error: %v", err)
	}
	defer pool.Close()

	if _, err := migrations.RunPostgresMigrations(ctx, pool); err != nil {
		pool.Close()
		logger.Fatalf("Migrate postgres: %v", err)
	}

	events := seed.DefaultEvents()
	res, err := seed.SeedEvents(ctx, pgstore.NewDB(pool), events)
	if err != nil {
		pool.Close()
		logger.Fatalf("Seed events: %v", err)
	}

	logger.Printf("Seeded %d events (%d created, %d already present)", len(events), res.Created, res.Skipped)
	fmt.Printf("created=%d skipped=%d\n", res.Created, res.Skipped)
}
