package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"ecommerce-price-tracker/internal/catalog"
	"ecommerce-price-tracker/internal/catalog/stub"
	"ecommerce-price-tracker/internal/config"
	"ecommerce-price-tracker/internal/domain"
	"ecommerce-price-tracker/internal/ingestion"
	"ecommerce-price-tracker/internal/observability"
	"ecommerce-price-tracker/internal/pricing"
	"ecommerce-price-tracker/internal/seed"
	"ecommerce-price-tracker/internal/storage"
	"ecommerce-price-tracker/internal/storage/memory"
	"ecommerce-price-tracker/internal/storage/migrations"
	pgstore "ecommerce-price-tracker/internal/storage/postgres"
)

func main() {
	// Parse flags
	configPath := flag.String("config", "", "Path to YAML config file (environment only when empty)")
	dateFlag := flag.String("date", "", "Snapshot date YYYY-MM-DD (default: today, UTC)")
	useMemory := flag.Bool("use-memory", false, "Use in-memory storage and the sample catalog instead of PostgreSQL and the live feed")
	metricsAddr := flag.String("metrics-addr", "", "Prometheus metrics HTTP address (overrides config; empty to disable)")
	flag.Parse()

	// Setup logger
	logger := log.New(os.Stdout, "[ingest] ", log.LstdFlags|log.Lshortfile)

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Fatalf("Config error: %v", err)
	}
	if *metricsAddr != "" {
		cfg.Metrics.Addr = *metricsAddr
	}

	var snapshotDate time.Time
	if *dateFlag != "" {
		snapshotDate, err = domain.ParseDate(*dateFlag)
		if err != nil {
			logger.Fatalf("Invalid --date: %v", err)
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, logger, cfg, snapshotDate, *useMemory); err != nil {
		stop()
		logger.Fatalf("Error: %v", err)
	}
}

func run(ctx context.Context, logger *log.Logger, cfg *config.Config, snapshotDate time.Time, useMemory bool) error {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics := observability.NewMetrics(reg, cfg.Metrics.Namespace)

	// Start metrics server if enabled
	if cfg.Metrics.Addr != "" {
		srv := &http.Server{Addr: cfg.Metrics.Addr, Handler: observability.NewMux(reg), ReadHeaderTimeout: 5 * time.Second}
		go func() {
			logger.Printf("Starting metrics server on %s", cfg.Metrics.Addr)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Printf("Metrics server error: %v", err)
			}
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()
	}

	var (
		uow     storage.UnitOfWork
		fetcher catalog.Fetcher
	)
	if useMemory {
		db := memory.NewDB()
		res, err := seed.SeedEvents(ctx, db, seed.DefaultEvents())
		if err != nil {
			return fmt.Errorf("seed events: %w", err)
		}
		metrics.RecordSeed(res.Created, res.Skipped)
		logger.Printf("Using in-memory storage with %d seeded events and the sample catalog", res.Created)
		uow = db
		fetcher = stub.NewFetcher(stub.SampleCatalog()...)
	} else {
		if cfg.Postgres.DSN == "" {
			return errors.New("postgres dsn is required (POSTGRES_DSN or postgres.dsn) unless --use-memory is set")
		}
		pool, err := pgstore.NewPool(ctx, cfg.Postgres.DSN)
		if err != nil {
			return err
		}
		defer pool.Close()

		applied, err := migrations.RunPostgresMigrations(ctx, pool)
		if err != nil {
			return fmt.Errorf("migrate postgres: %w", err)
		}
		if len(applied) > 0 {
			logger.Printf("Applied migrations: %v", applied)
		}

		uow = pgstore.NewDB(pool)
		fetcher = catalog.NewClient(cfg.Catalog.URL,
			catalog.WithTimeout(cfg.Catalog.Timeout),
			catalog.WithMaxRetries(cfg.Catalog.MaxRetries),
			catalog.WithUserAgent(cfg.Catalog.UserAgent),
		)
	}

	samplerSeed := cfg.Pricing.Seed
	if samplerSeed == 0 {
		samplerSeed = uint64(time.Now().UnixNano())
	}
	engine := pricing.NewEngine(pricing.NewRandSampler(samplerSeed), pricing.WithNoiseRange(cfg.Pricing.NoiseRange()))

	runner := ingestion.NewRunner(ingestion.RunnerOptions{
		Catalog:     fetcher,
		UnitOfWork:  uow,
		Engine:      engine,
		PricingMode: cfg.Pricing.PricingMode(),
		Logger:      logger,
		Metrics:     metrics,
	})

	summary, err := runner.Run(ctx, snapshotDate)
	if err != nil {
		return err
	}

	fmt.Printf("Run %s for %s: %d fetched, %d new products, %d inserted, %d skipped\n",
		summary.RunID, summary.SnapshotDate.Format(domain.DateLayout),
		summary.Fetched, summary.ProductsCreated, summary.Inserted, summary.Skipped)
	return nil
}
