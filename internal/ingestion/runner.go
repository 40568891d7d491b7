package ingestion

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"ecommerce-price-tracker/internal/calendar"
	"ecommerce-price-tracker/internal/catalog"
	"ecommerce-price-tracker/internal/domain"
	"ecommerce-price-tracker/internal/observability"
	"ecommerce-price-tracker/internal/pricing"
	"ecommerce-price-tracker/internal/storage"
)

// Summary describes a committed ingestion run.
type Summary struct {
	RunID           uuid.UUID
	SnapshotDate    time.Time
	Fetched         int // catalog items received
	ProductsCreated int // items seen for the first time
	Inserted        int // snapshots written
	Skipped         int // items that already had a snapshot for the date
	Duration        time.Duration
}

// Runner performs one daily ingestion: fetch the catalog, then write one
// price snapshot per product for the snapshot date in a single unit of work.
type Runner struct {
	catalog catalog.Fetcher
	uow     storage.UnitOfWork
	engine  *pricing.Engine
	mode    domain.PricingMode
	clock   func() time.Time
	logger  *log.Logger
	metrics *observability.Metrics
}

// RunnerOptions contains configuration for creating a Runner.
type RunnerOptions struct {
	Catalog     catalog.Fetcher
	UnitOfWork  storage.UnitOfWork
	Engine      *pricing.Engine
	PricingMode domain.PricingMode     // Default: synthetic
	Clock       func() time.Time       // Default: time.Now in UTC
	Logger      *log.Logger            // Default: log.Default()
	Metrics     *observability.Metrics // nil disables metrics
}

// NewRunner creates a new ingestion runner.
func NewRunner(opts RunnerOptions) *Runner {
	mode := opts.PricingMode
	if mode == "" {
		mode = domain.PricingModeSynthetic
	}

	clock := opts.Clock
	if clock == nil {
		clock = func() time.Time { return time.Now().UTC() }
	}

	engine := opts.Engine
	if engine == nil {
		engine = pricing.NewEngine(pricing.NewRandSampler(uint64(clock().UnixNano())))
	}

	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}

	return &Runner{
		catalog: opts.Catalog,
		uow:     opts.UnitOfWork,
		engine:  engine,
		mode:    mode,
		clock:   clock,
		logger:  logger,
		metrics: opts.Metrics,
	}
}

// runState accumulates counters that are published only after commit.
type runState struct {
	summary  *Summary
	calendar *calendar.Calendar
	reasons  map[string]int
}

// Run ingests the catalog for snapshotDate; a zero date means today.
// Either every snapshot of the run is committed or none is.
// Errors are *catalog.UpstreamFetchError, *domain.ConfigurationError
// (wrapped) or *PersistenceError.
func (r *Runner) Run(ctx context.Context, snapshotDate time.Time) (*Summary, error) {
	started := r.clock()
	if snapshotDate.IsZero() {
		snapshotDate = started
	}
	snapshotDate = domain.NormalizeDate(snapshotDate)

	summary, err := r.run(ctx, snapshotDate)
	elapsed := r.clock().Sub(started)
	if err != nil {
		r.metrics.RecordRun(observability.StatusFailure, elapsed)
		r.logger.Printf("ingestion for %s failed after %v: %v", snapshotDate.Format(domain.DateLayout), elapsed, err)
		return nil, err
	}

	summary.Duration = elapsed
	r.metrics.RecordRun(observability.StatusSuccess, elapsed)
	r.metrics.MarkIngestionSuccess(r.clock())
	r.logger.Printf("ingestion %s for %s: fetched=%d products_created=%d inserted=%d skipped=%d in %v",
		summary.RunID, snapshotDate.Format(domain.DateLayout),
		summary.Fetched, summary.ProductsCreated, summary.Inserted, summary.Skipped, elapsed)
	return summary, nil
}

func (r *Runner) run(ctx context.Context, snapshotDate time.Time) (*Summary, error) {
	if !r.mode.IsValid() {
		return nil, fmt.Errorf("%w: %q", pricing.ErrInvalidPricingMode, r.mode)
	}

	descriptors, err := r.fetch(ctx)
	if err != nil {
		return nil, err
	}

	state := &runState{
		summary: &Summary{
			RunID:        uuid.New(),
			SnapshotDate: snapshotDate,
			Fetched:      len(descriptors),
		},
		reasons: make(map[string]int),
	}

	err = storage.WithinTx(ctx, r.uow, func(tx storage.Tx) error {
		if err := tx.LockSnapshotDate(ctx, snapshotDate); err != nil {
			return persistErr("lock snapshot date", err)
		}

		events, err := tx.Events().List(ctx)
		if err != nil {
			return persistErr("list events", err)
		}
		cal, err := calendar.New(events)
		if err != nil {
			return err
		}
		state.calendar = cal

		for _, d := range descriptors {
			if err := ctx.Err(); err != nil {
				return err
			}
			if err := r.ingestProduct(ctx, tx, d, state); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, classify(err)
	}

	r.metrics.RecordProductsCreated(state.summary.ProductsCreated)
	for reason, n := range state.reasons {
		r.metrics.RecordSnapshotsInserted(reason, n)
	}
	r.metrics.RecordDuplicateSkips(state.summary.Skipped)
	return state.summary, nil
}

func (r *Runner) fetch(ctx context.Context) ([]domain.ProductDescriptor, error) {
	started := time.Now()
	descriptors, err := r.catalog.FetchAll(ctx)
	if err != nil {
		r.metrics.RecordCatalogFetch(observability.StatusFailure, time.Since(started))
		var upstream *catalog.UpstreamFetchError
		if !errors.As(err, &upstream) {
			err = &catalog.UpstreamFetchError{Err: err}
		}
		return nil, err
	}
	r.metrics.RecordCatalogFetch(observability.StatusSuccess, time.Since(started))
	return descriptors, nil
}

// ingestProduct writes the snapshot for one catalog item unless one exists.
func (r *Runner) ingestProduct(ctx context.Context, tx storage.Tx, d domain.ProductDescriptor, state *runState) error {
	date := state.summary.SnapshotDate

	product, err := r.getOrCreateProduct(ctx, tx, d, state)
	if err != nil {
		return err
	}

	exists, err := tx.Snapshots().Exists(ctx, product.ID, date)
	if err != nil {
		return persistErr("check snapshot", err)
	}
	if exists {
		r.skip(product, date, state)
		return nil
	}

	price, adj, err := r.engine.GenerateDailyPrice(product.BasePrice, date, state.calendar, r.mode)
	if err != nil {
		return err
	}

	snap := domain.NewSnapshot(product, price, adj)
	if err := tx.Snapshots().Insert(ctx, snap); err != nil {
		if errors.Is(err, storage.ErrDuplicateKey) {
			r.skip(product, date, state)
			return nil
		}
		return persistErr("insert snapshot", err)
	}

	state.summary.Inserted++
	state.reasons[adj.Reason]++
	return nil
}

func (r *Runner) getOrCreateProduct(ctx context.Context, tx storage.Tx, d domain.ProductDescriptor, state *runState) (*domain.Product, error) {
	product, err := tx.Products().GetByExternalID(ctx, d.ExternalID)
	if err == nil {
		return product, nil
	}
	if !errors.Is(err, storage.ErrNotFound) {
		return nil, persistErr("get product", err)
	}

	if err := d.Validate(); err != nil {
		return nil, err
	}
	product = domain.NewProduct(d)
	if err := tx.Products().Insert(ctx, product); err != nil {
		if !errors.Is(err, storage.ErrDuplicateKey) {
			return nil, persistErr("insert product", err)
		}
		// Created concurrently outside the date lock.
		product, err = tx.Products().GetByExternalID(ctx, d.ExternalID)
		if err != nil {
			return nil, persistErr("get product", err)
		}
		return product, nil
	}

	state.summary.ProductsCreated++
	return product, nil
}

func (r *Runner) skip(product *domain.Product, date time.Time, state *runState) {
	state.summary.Skipped++
	r.logger.Printf("duplicate snapshot skip: product_id=%d external_id=%d date=%s",
		product.ID, product.ExternalID, date.Format(domain.DateLayout))
}

// classify wraps storage failures from the unit of work as *PersistenceError
// and leaves domain errors untouched.
func classify(err error) error {
	var persist *PersistenceError
	var cfg *domain.ConfigurationError
	switch {
	case errors.As(err, &persist),
		errors.As(err, &cfg),
		errors.Is(err, pricing.ErrInvalidPricingMode),
		errors.Is(err, context.Canceled),
		errors.Is(err, context.DeadlineExceeded):
		return err
	default:
		return persistErr("transaction", err)
	}
}
