package reporting

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"ecommerce-price-tracker/internal/analytics"
	"ecommerce-price-tracker/internal/domain"
	"ecommerce-price-tracker/internal/storage"
)

// Generator produces reports from stored data.
type Generator struct {
	eventStore   storage.EventStore
	productStore storage.ProductStore
	history      storage.PriceHistoryReader
	analytics    *analytics.Service
	now          func() time.Time // Injectable clock for deterministic output
}

// NewGenerator creates a new report generator. history may be the primary
// snapshot store or the ClickHouse mirror.
func NewGenerator(
	eventStore storage.EventStore,
	productStore storage.ProductStore,
	history storage.PriceHistoryReader,
) *Generator {
	return &Generator{
		eventStore:   eventStore,
		productStore: productStore,
		history:      history,
		analytics:    analytics.NewService(history),
		now:          func() time.Time { return time.Now().UTC() },
	}
}

// WithClock sets a custom clock function for deterministic output.
func (g *Generator) WithClock(now func() time.Time) *Generator {
	g.now = now
	return g
}

// Generate produces a report covering [start, end].
func (g *Generator) Generate(ctx context.Context, start, end time.Time) (*Report, error) {
	start, end = domain.NormalizeDate(start), domain.NormalizeDate(end)
	if start.After(end) {
		return nil, fmt.Errorf("report period: start %s after end %s",
			start.Format(domain.DateLayout), end.Format(domain.DateLayout))
	}

	products, err := g.productStore.List(ctx, 0, 0)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	events, err := g.eventStore.ListOverlapping(ctx, start, end)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	snaps, err := g.history.GetByDateRange(ctx, start, end)
	if err != nil {
		return nil, fmt.Errorf("load snapshots: %w", err)
	}

	summaries, err := g.generatePriceSummaries(ctx, products, start, end)
	if err != nil {
		return nil, err
	}
	impacts, skipped, err := g.generateEventImpacts(ctx, events, products)
	if err != nil {
		return nil, err
	}

	return &Report{
		GeneratedAt:         g.now(),
		PeriodStart:         start,
		PeriodEnd:           end,
		DataSummary:         summarize(products, events, snaps),
		PriceSummaries:      summaries,
		EventImpacts:        impacts,
		InsufficientImpacts: skipped,
	}, nil
}

func summarize(products []*domain.Product, events []*domain.Event, snaps []*domain.PriceSnapshot) DataSummary {
	ds := DataSummary{
		ProductCount:  len(products),
		EventCount:    len(events),
		SnapshotCount: len(snaps),
	}
	for _, s := range snaps {
		switch s.PriceSource {
		case domain.PriceSourceSynthetic:
			ds.SyntheticSnapshots++
		case domain.PriceSourceReal:
			ds.RealSnapshots++
		}
	}
	// Snapshots come back ordered by recorded_date.
	if len(snaps) > 0 {
		ds.FirstRecordedDate = snaps[0].RecordedDate
		ds.LastRecordedDate = snaps[len(snaps)-1].RecordedDate
	}
	return ds
}

// generatePriceSummaries builds one row per product with data in the period.
func (g *Generator) generatePriceSummaries(ctx context.Context, products []*domain.Product, start, end time.Time) ([]PriceSummaryRow, error) {
	var rows []PriceSummaryRow
	for _, p := range products {
		summary, err := g.analytics.PriceSummary(ctx, p.ID, start, end)
		if errors.Is(err, analytics.ErrNoData) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("price summary for product %d: %w", p.ID, err)
		}
		rows = append(rows, PriceSummaryRow{
			ProductID:  p.ID,
			ExternalID: p.ExternalID,
			Title:      p.Title,
			BasePrice:  p.BasePrice,
			MinPrice:   summary.MinPrice,
			MaxPrice:   summary.MaxPrice,
			AvgPrice:   summary.AvgPrice,
			Snapshots:  summary.Count,
		})
	}

	sort.Slice(rows, func(i, j int) bool {
		return rows[i].ProductID < rows[j].ProductID
	})
	return rows, nil
}

// generateEventImpacts evaluates every (event, product) pair and returns the
// rows with enough data plus the number of pairs skipped.
func (g *Generator) generateEventImpacts(ctx context.Context, events []*domain.Event, products []*domain.Product) ([]EventImpactRow, int, error) {
	starts := make(map[int64]time.Time, len(events))

	var rows []EventImpactRow
	skipped := 0
	for _, e := range events {
		starts[e.ID] = e.StartDate
		for _, p := range products {
			impact, err := g.analytics.EventImpact(ctx, e, p.ID)
			if errors.Is(err, analytics.ErrNoData) {
				skipped++
				continue
			}
			if err != nil {
				return nil, 0, fmt.Errorf("event impact for %q, product %d: %w", e.Name, p.ID, err)
			}
			rows = append(rows, EventImpactRow{
				EventID:        impact.EventID,
				EventName:      impact.EventName,
				ProductID:      p.ID,
				Title:          p.Title,
				PreEventAvg:    impact.PreEventAvg,
				EventAvg:       impact.EventAvg,
				PriceChangeAbs: impact.PriceChangeAbs,
				PriceChangePct: impact.PriceChangePct,
			})
		}
	}

	// Sort by (event start_date, event_id, product_id)
	sort.Slice(rows, func(i, j int) bool {
		si, sj := starts[rows[i].EventID], starts[rows[j].EventID]
		if !si.Equal(sj) {
			return si.Before(sj)
		}
		if rows[i].EventID != rows[j].EventID {
			return rows[i].EventID < rows[j].EventID
		}
		return rows[i].ProductID < rows[j].ProductID
	})

	return rows, skipped, nil
}
