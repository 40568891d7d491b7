package ingestion

import (
	"context"
	"errors"
	"io"
	"log"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ecommerce-price-tracker/internal/catalog"
	"ecommerce-price-tracker/internal/catalog/stub"
	"ecommerce-price-tracker/internal/domain"
	"ecommerce-price-tracker/internal/observability"
	"ecommerce-price-tracker/internal/pricing"
	"ecommerce-price-tracker/internal/storage"
	"ecommerce-price-tracker/internal/storage/memory"
)

// midSampler always returns the midpoint of the range.
type midSampler struct{}

func (midSampler) Uniform(min, max float64) float64 { return (min + max) / 2 }

var testLogger = log.New(io.Discard, "", 0)

func blackFriday() *domain.Event {
	return &domain.Event{
		Name:              "Black Friday",
		StartDate:         domain.Date(2026, 11, 27),
		EndDate:           domain.Date(2026, 11, 27),
		PreEventDays:      14,
		PreEventUpliftMin: 0.05,
		PreEventUpliftMax: 0.10,
		DiscountMin:       0.30,
		DiscountMax:       0.50,
	}
}

func newTestRunner(t *testing.T, db storage.UnitOfWork, fetcher catalog.Fetcher, mode domain.PricingMode, metrics *observability.Metrics) *Runner {
	t.Helper()
	return NewRunner(RunnerOptions{
		Catalog:     fetcher,
		UnitOfWork:  db,
		Engine:      pricing.NewEngine(midSampler{}, pricing.WithNoiseRange(pricing.Range{Min: 0, Max: 0})),
		PricingMode: mode,
		Clock:       func() time.Time { return time.Date(2026, 11, 27, 8, 30, 0, 0, time.UTC) },
		Logger:      testLogger,
		Metrics:     metrics,
	})
}

func twoProducts() *stub.Fetcher {
	return stub.NewFetcher(
		domain.ProductDescriptor{ExternalID: 1, Title: "Backpack", BasePrice: 100, Rating: 3.9},
		domain.ProductDescriptor{ExternalID: 2, Title: "T-Shirt", BasePrice: 50, Rating: 4.1},
	)
}

func TestRunner_ActiveEventDiscount(t *testing.T) {
	ctx := context.Background()
	db := memory.NewDB()
	event := blackFriday()
	require.NoError(t, db.Events().Insert(ctx, event))

	runner := newTestRunner(t, db, twoProducts(), domain.PricingModeSynthetic, nil)
	summary, err := runner.Run(ctx, domain.Date(2026, 11, 27))
	require.NoError(t, err)

	assert.NotEqual(t, uuid.Nil, summary.RunID)
	assert.Equal(t, 2, summary.Fetched)
	assert.Equal(t, 2, summary.ProductsCreated)
	assert.Equal(t, 2, summary.Inserted)
	assert.Equal(t, 0, summary.Skipped)

	product, err := db.Products().GetByExternalID(ctx, 1)
	require.NoError(t, err)
	snap, err := db.Snapshots().Get(ctx, product.ID, domain.Date(2026, 11, 27))
	require.NoError(t, err)

	// 100 * (1 - 0.40)
	assert.Equal(t, 60.0, snap.Price)
	assert.Equal(t, domain.ReasonEventDiscount, snap.PriceChangeReason)
	assert.Equal(t, domain.PriceSourceSynthetic, snap.PriceSource)
	require.NotNil(t, snap.EventID)
	assert.Equal(t, event.ID, *snap.EventID)
}

func TestRunner_PreEventAndBaseline(t *testing.T) {
	ctx := context.Background()
	db := memory.NewDB()
	require.NoError(t, db.Events().Insert(ctx, blackFriday()))

	runner := newTestRunner(t, db, twoProducts(), domain.PricingModeSynthetic, nil)

	_, err := runner.Run(ctx, domain.Date(2026, 11, 13))
	require.NoError(t, err)
	_, err = runner.Run(ctx, domain.Date(2026, 11, 12))
	require.NoError(t, err)

	product, err := db.Products().GetByExternalID(ctx, 2)
	require.NoError(t, err)

	pre, err := db.Snapshots().Get(ctx, product.ID, domain.Date(2026, 11, 13))
	require.NoError(t, err)
	// 50 * (1 + 0.075)
	assert.Equal(t, 53.75, pre.Price)
	assert.Equal(t, domain.ReasonPreEventUplift, pre.PriceChangeReason)
	assert.NotNil(t, pre.EventID)

	base, err := db.Snapshots().Get(ctx, product.ID, domain.Date(2026, 11, 12))
	require.NoError(t, err)
	assert.Equal(t, 50.0, base.Price)
	assert.Equal(t, domain.ReasonBasePrice+domain.NoiseSuffix, base.PriceChangeReason)
	assert.Nil(t, base.EventID)
}

func TestRunner_IdempotentRerun(t *testing.T) {
	ctx := context.Background()
	db := memory.NewDB()
	reg := prometheus.NewRegistry()
	metrics := observability.NewMetrics(reg, "test")

	runner := newTestRunner(t, db, twoProducts(), domain.PricingModeSynthetic, metrics)
	day := domain.Date(2026, 3, 1)

	first, err := runner.Run(ctx, day)
	require.NoError(t, err)
	assert.Equal(t, 2, first.Inserted)

	second, err := runner.Run(ctx, day)
	require.NoError(t, err)
	assert.Equal(t, 0, second.Inserted)
	assert.Equal(t, 2, second.Skipped)
	assert.Equal(t, 0, second.ProductsCreated)
	assert.NotEqual(t, first.RunID, second.RunID)

	count, err := db.Snapshots().Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	assert.Equal(t, 2.0, testutil.ToFloat64(metrics.DuplicateSkips))
	assert.Equal(t, 2.0, testutil.ToFloat64(metrics.ProductsCreated))
	assert.Equal(t, 2.0, testutil.ToFloat64(metrics.IngestionRuns.WithLabelValues(observability.StatusSuccess)))
	assert.Equal(t, 2.0, testutil.ToFloat64(metrics.SnapshotsInserted.WithLabelValues(domain.ReasonBasePrice+domain.NoiseSuffix)))
}

func TestRunner_RealModePassthrough(t *testing.T) {
	ctx := context.Background()
	db := memory.NewDB()
	require.NoError(t, db.Events().Insert(ctx, blackFriday()))

	fetcher := stub.NewFetcher(domain.ProductDescriptor{ExternalID: 9, BasePrice: 22.3})
	runner := newTestRunner(t, db, fetcher, domain.PricingModeReal, nil)

	_, err := runner.Run(ctx, domain.Date(2026, 11, 27))
	require.NoError(t, err)

	product, err := db.Products().GetByExternalID(ctx, 9)
	require.NoError(t, err)
	snap, err := db.Snapshots().Get(ctx, product.ID, domain.Date(2026, 11, 27))
	require.NoError(t, err)

	assert.Equal(t, 22.3, snap.Price)
	assert.Equal(t, domain.ReasonBasePrice, snap.PriceChangeReason)
	assert.Equal(t, domain.PriceSourceReal, snap.PriceSource)
	assert.Nil(t, snap.EventID)
}

func TestRunner_BasePriceFrozenAtCreation(t *testing.T) {
	ctx := context.Background()
	db := memory.NewDB()
	fetcher := stub.NewFetcher(domain.ProductDescriptor{ExternalID: 1, BasePrice: 100})
	runner := newTestRunner(t, db, fetcher, domain.PricingModeReal, nil)

	_, err := runner.Run(ctx, domain.Date(2026, 3, 1))
	require.NoError(t, err)

	fetcher.Products[0].BasePrice = 120
	_, err = runner.Run(ctx, domain.Date(2026, 3, 2))
	require.NoError(t, err)

	product, err := db.Products().GetByExternalID(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 100.0, product.BasePrice)

	snap, err := db.Snapshots().Get(ctx, product.ID, domain.Date(2026, 3, 2))
	require.NoError(t, err)
	assert.Equal(t, 100.0, snap.Price)
}

func TestRunner_UpstreamFailureWritesNothing(t *testing.T) {
	ctx := context.Background()
	db := memory.NewDB()
	fetcher := stub.NewFetcher()
	fetcher.Err = errors.New("connection refused")

	reg := prometheus.NewRegistry()
	metrics := observability.NewMetrics(reg, "test")
	runner := newTestRunner(t, db, fetcher, domain.PricingModeSynthetic, metrics)

	summary, err := runner.Run(ctx, domain.Date(2026, 3, 1))
	assert.Nil(t, summary)

	var upstream *catalog.UpstreamFetchError
	require.ErrorAs(t, err, &upstream)

	products, _ := db.Products().Count(ctx)
	snapshots, _ := db.Snapshots().Count(ctx)
	assert.Equal(t, 0, products)
	assert.Equal(t, 0, snapshots)
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.IngestionRuns.WithLabelValues(observability.StatusFailure)))
}

func TestRunner_InvalidEventAbortsRun(t *testing.T) {
	ctx := context.Background()
	db := memory.NewDB()
	bad := blackFriday()
	bad.DiscountMin, bad.DiscountMax = 0.6, 0.4
	require.NoError(t, db.Events().Insert(ctx, bad))

	runner := newTestRunner(t, db, twoProducts(), domain.PricingModeSynthetic, nil)
	_, err := runner.Run(ctx, domain.Date(2026, 3, 1))

	var cfg *domain.ConfigurationError
	require.ErrorAs(t, err, &cfg)
	assert.Equal(t, "Black Friday", cfg.EventName)

	products, _ := db.Products().Count(ctx)
	assert.Equal(t, 0, products)
}

func TestRunner_InvalidCatalogItemAbortsRun(t *testing.T) {
	tests := []struct {
		name  string
		item  domain.ProductDescriptor
		field string
	}{
		{name: "zero base price", item: domain.ProductDescriptor{ExternalID: 7, Title: "Mug"}, field: "base_price"},
		{name: "negative base price", item: domain.ProductDescriptor{ExternalID: 8, Title: "Lamp", BasePrice: -12.5}, field: "base_price"},
		{name: "missing external id", item: domain.ProductDescriptor{Title: "Ghost", BasePrice: 10}, field: "external_id"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			db := memory.NewDB()
			fetcher := stub.NewFetcher(
				domain.ProductDescriptor{ExternalID: 1, Title: "Backpack", BasePrice: 100, Rating: 3.9},
				tt.item,
			)

			runner := newTestRunner(t, db, fetcher, domain.PricingModeSynthetic, nil)
			_, err := runner.Run(ctx, domain.Date(2026, 3, 1))

			var cfg *domain.ConfigurationError
			require.ErrorAs(t, err, &cfg)
			assert.Equal(t, tt.field, cfg.Field)

			products, _ := db.Products().Count(ctx)
			assert.Equal(t, 0, products)
			snapshots, _ := db.Snapshots().Count(ctx)
			assert.Equal(t, 0, snapshots)
		})
	}
}

// failingUoW wraps a unit of work whose snapshot inserts fail after n successes.
type failingUoW struct {
	storage.UnitOfWork
	n int
}

func (u *failingUoW) Begin(ctx context.Context) (storage.Tx, error) {
	tx, err := u.UnitOfWork.Begin(ctx)
	if err != nil {
		return nil, err
	}
	return &failingTx{Tx: tx, n: u.n}, nil
}

type failingTx struct {
	storage.Tx
	n int
}

func (t *failingTx) Snapshots() storage.SnapshotStore {
	return &failingSnapshots{SnapshotStore: t.Tx.Snapshots(), tx: t}
}

type failingSnapshots struct {
	storage.SnapshotStore
	tx *failingTx
}

var errDiskFull = errors.New("disk full")

func (s *failingSnapshots) Insert(ctx context.Context, snap *domain.PriceSnapshot) error {
	if s.tx.n == 0 {
		return errDiskFull
	}
	s.tx.n--
	return s.SnapshotStore.Insert(ctx, snap)
}

func TestRunner_PersistenceFailureRollsBack(t *testing.T) {
	ctx := context.Background()
	db := memory.NewDB()

	runner := newTestRunner(t, &failingUoW{UnitOfWork: db, n: 1}, twoProducts(), domain.PricingModeSynthetic, nil)
	summary, err := runner.Run(ctx, domain.Date(2026, 3, 1))
	assert.Nil(t, summary)

	var persist *PersistenceError
	require.ErrorAs(t, err, &persist)
	assert.Equal(t, "insert snapshot", persist.Op)
	assert.ErrorIs(t, err, errDiskFull)

	products, _ := db.Products().Count(ctx)
	snapshots, _ := db.Snapshots().Count(ctx)
	assert.Equal(t, 0, products)
	assert.Equal(t, 0, snapshots)

	// A later healthy run succeeds from a clean state.
	summary, err = newTestRunner(t, db, twoProducts(), domain.PricingModeSynthetic, nil).Run(ctx, domain.Date(2026, 3, 1))
	require.NoError(t, err)
	assert.Equal(t, 2, summary.Inserted)
}

func TestRunner_ZeroDateUsesClock(t *testing.T) {
	ctx := context.Background()
	db := memory.NewDB()

	summary, err := newTestRunner(t, db, twoProducts(), domain.PricingModeSynthetic, nil).Run(ctx, time.Time{})
	require.NoError(t, err)
	assert.True(t, summary.SnapshotDate.Equal(domain.Date(2026, 11, 27)))
}

func TestRunner_InvalidPricingMode(t *testing.T) {
	ctx := context.Background()
	db := memory.NewDB()
	fetcher := twoProducts()

	_, err := newTestRunner(t, db, fetcher, domain.PricingMode("auction"), nil).Run(ctx, domain.Date(2026, 3, 1))
	assert.ErrorIs(t, err, pricing.ErrInvalidPricingMode)
	assert.Equal(t, 0, fetcher.Calls())
}

func TestPersistenceError(t *testing.T) {
	err := persistErr("commit", storage.ErrTxDone)
	assert.EqualError(t, err, "persistence: commit: transaction already committed or rolled back")
	assert.ErrorIs(t, err, storage.ErrTxDone)
}
