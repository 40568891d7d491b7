package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"time"

	"ecommerce-price-tracker/internal/catalog/stub"
	"ecommerce-price-tracker/internal/config"
	"ecommerce-price-tracker/internal/domain"
	"ecommerce-price-tracker/internal/ingestion"
	"ecommerce-price-tracker/internal/pricing"
	"ecommerce-price-tracker/internal/reporting"
	"ecommerce-price-tracker/internal/seed"
	"ecommerce-price-tracker/internal/storage"
	chstore "ecommerce-price-tracker/internal/storage/clickhouse"
	"ecommerce-price-tracker/internal/storage/memory"
	"ecommerce-price-tracker/internal/storage/migrations"
	pgstore "ecommerce-price-tracker/internal/storage/postgres"
)

// Default report window when --from is not given.
const defaultWindowDays = 30

func main() {
	// Parse flags
	configPath := flag.String("config", "", "Path to YAML config file (environment only when empty)")
	outputDir := flag.String("output-dir", "reports", "Output directory for generated files")
	fromFlag := flag.String("from", "", "First report date YYYY-MM-DD (default: 30 days before --to)")
	toFlag := flag.String("to", "", "Last report date YYYY-MM-DD (default: today, UTC)")
	source := flag.String("source", "postgres", "Price history source: postgres or clickhouse")
	useMemory := flag.Bool("use-memory", false, "Simulate the period in memory with the sample catalog instead of reading databases")
	flag.Parse()

	logger := log.New(os.Stdout, "[report] ", log.LstdFlags|log.Lshortfile)

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Fatalf("Config error: %v", err)
	}

	start, end, err := parsePeriod(*fromFlag, *toFlag, time.Now().UTC())
	if err != nil {
		logger.Fatalf("Invalid period: %v", err)
	}

	ctx := context.Background()

	var (
		events   storage.EventStore
		products storage.ProductStore
		history  storage.PriceHistoryReader
		closers  []io.Closer
	)
	if *useMemory {
		db, err := simulate(ctx, logger, cfg, start, end)
		if err != nil {
			logger.Fatalf("Simulation error: %v", err)
		}
		events, products, history = db.Events(), db.Products(), db.Snapshots()
	} else {
		events, products, history, closers, err = openStores(ctx, cfg, *source)
		if err != nil {
			logger.Fatalf("Error connecting to databases: %v", err)
		}
	}
	defer func() {
		for _, c := range closers {
			_ = c.Close()
		}
	}()

	report, err := reporting.NewGenerator(events, products, history).Generate(ctx, start, end)
	if err != nil {
		logger.Fatalf("Error generating report: %v", err)
	}

	if err := os.MkdirAll(*outputDir, 0o755); err != nil {
		logger.Fatalf("Error creating output dir: %v", err)
	}
	files := map[string]string{
		"PRICE_REPORT.md":   reporting.RenderMarkdown(report),
		"EVENT_IMPACT.csv":  reporting.RenderCSV(report.EventImpacts),
		"PRICE_SUMMARY.csv": reporting.RenderSummaryCSV(report.PriceSummaries),
	}
	for _, name := range []string{"PRICE_REPORT.md", "EVENT_IMPACT.csv", "PRICE_SUMMARY.csv"} {
		if err := os.WriteFile(filepath.Join(*outputDir, name), []byte(files[name]), 0o644); err != nil {
			logger.Fatalf("Error writing %s: %v", name, err)
		}
	}

	fmt.Println("Price report generated successfully:")
	fmt.Printf("  - %s/PRICE_REPORT.md\n", *outputDir)
	fmt.Printf("  - %s/EVENT_IMPACT.csv\n", *outputDir)
	fmt.Printf("  - %s/PRICE_SUMMARY.csv\n", *outputDir)
}

func parsePeriod(from, to string, now time.Time) (time.Time, time.Time, error) {
	end := domain.NormalizeDate(now)
	if to != "" {
		t, err := domain.ParseDate(to)
		if err != nil {
			return time.Time{}, time.Time{}, err
		}
		end = t
	}
	start := domain.AddDays(end, -defaultWindowDays)
	if from != "" {
		t, err := domain.ParseDate(from)
		if err != nil {
			return time.Time{}, time.Time{}, err
		}
		start = t
	}
	if start.After(end) {
		return time.Time{}, time.Time{}, fmt.Errorf("--from %s is after --to %s",
			start.Format(domain.DateLayout), end.Format(domain.DateLayout))
	}
	return start, end, nil
}

// simulate seeds the default events and runs one ingestion per day of the
// period against the sample catalog.
func simulate(ctx context.Context, logger *log.Logger, cfg *config.Config, start, end time.Time) (*memory.DB, error) {
	db := memory.NewDB()
	if _, err := seed.SeedEvents(ctx, db, seed.DefaultEvents()); err != nil {
		return nil, err
	}

	samplerSeed := cfg.Pricing.Seed
	if samplerSeed == 0 {
		samplerSeed = 1
	}
	runner := ingestion.NewRunner(ingestion.RunnerOptions{
		Catalog:     stub.NewFetcher(stub.SampleCatalog()...),
		UnitOfWork:  db,
		Engine:      pricing.NewEngine(pricing.NewRandSampler(samplerSeed), pricing.WithNoiseRange(cfg.Pricing.NoiseRange())),
		PricingMode: cfg.Pricing.PricingMode(),
		Logger:      log.New(io.Discard, "", 0),
	})

	days := 0
	for d := start; !d.After(end); d = domain.AddDays(d, 1) {
		if _, err := runner.Run(ctx, d); err != nil {
			return nil, fmt.Errorf("ingest %s: %w", d.Format(domain.DateLayout), err)
		}
		days++
	}
	logger.Printf("Simulated %d days of ingestion", days)
	return db, nil
}

// openStores connects to PostgreSQL and, for the clickhouse source, to the
// history mirror.
func openStores(ctx context.Context, cfg *config.Config, source string) (
	storage.EventStore,
	storage.ProductStore,
	storage.PriceHistoryReader,
	[]io.Closer,
	error,
) {
	if cfg.Postgres.DSN == "" {
		return nil, nil, nil, nil, fmt.Errorf("postgres dsn is required (POSTGRES_DSN or postgres.dsn)")
	}
	pool, err := pgstore.NewPool(ctx, cfg.Postgres.DSN)
	if err != nil {
		return nil, nil, nil, nil, err
	}
	closers := []io.Closer{closerFunc(pool.Close)}

	var history storage.PriceHistoryReader
	switch source {
	case "postgres":
		history = pgstore.NewSnapshotStore(pool)
	case "clickhouse":
		if cfg.ClickHouse.DSN == "" {
			pool.Close()
			return nil, nil, nil, nil, fmt.Errorf("clickhouse dsn is required for --source clickhouse")
		}
		conn, err := migrations.RunClickhouseMigrations(ctx, cfg.ClickHouse.DSN)
		if err != nil {
			pool.Close()
			return nil, nil, nil, nil, fmt.Errorf("connect to clickhouse: %w", err)
		}
		closers = append(closers, conn)
		history = chstore.NewPriceHistoryStore(conn)
	default:
		pool.Close()
		return nil, nil, nil, nil, fmt.Errorf("unknown --source %q", source)
	}

	return pgstore.NewEventStore(pool), pgstore.NewProductStore(pool), history, closers, nil
}

type closerFunc func()

func (f closerFunc) Close() error {
	f()
	return nil
}
