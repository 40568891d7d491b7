package reporting

import (
	"context"
	"strings"
	"testing"
	"time"

	"ecommerce-price-tracker/internal/domain"
	"ecommerce-price-tracker/internal/storage/memory"
)

func ptr[T any](v T) *T { return &v }

func setupTestData(t *testing.T) (*memory.EventStore, *memory.ProductStore, *memory.SnapshotStore) {
	t.Helper()
	ctx := context.Background()

	eventStore := memory.NewEventStore()
	productStore := memory.NewProductStore()
	snapshotStore := memory.NewSnapshotStore()

	sale := &domain.Event{
		Name:         "Spring Sale",
		StartDate:    domain.Date(2026, time.March, 10),
		EndDate:      domain.Date(2026, time.March, 10),
		PreEventDays: 2,
		DiscountMin:  0.1,
		DiscountMax:  0.2,
	}
	noWindow := &domain.Event{
		Name:        "Flash Deal",
		StartDate:   domain.Date(2026, time.March, 5),
		EndDate:     domain.Date(2026, time.March, 5),
		DiscountMin: 0.1,
		DiscountMax: 0.2,
	}
	for _, e := range []*domain.Event{sale, noWindow} {
		if err := eventStore.Insert(ctx, e); err != nil {
			t.Fatalf("insert event: %v", err)
		}
	}

	mug := &domain.Product{ExternalID: 11, Title: "Mug, ceramic", BasePrice: 10, Rating: 4.5}
	lamp := &domain.Product{ExternalID: 12, Title: "Lamp", BasePrice: 40, Rating: 3.9}
	for _, p := range []*domain.Product{mug, lamp} {
		if err := productStore.Insert(ctx, p); err != nil {
			t.Fatalf("insert product: %v", err)
		}
	}

	snaps := []*domain.PriceSnapshot{
		{ProductID: mug.ID, Price: 10.00, RecordedDate: domain.Date(2026, time.March, 7), PriceChangeReason: domain.ReasonBasePrice},
		{ProductID: mug.ID, EventID: ptr(sale.ID), Price: 10.40, RecordedDate: domain.Date(2026, time.March, 8), PriceChangeReason: domain.ReasonPreEventUplift},
		{ProductID: mug.ID, EventID: ptr(sale.ID), Price: 10.60, RecordedDate: domain.Date(2026, time.March, 9), PriceChangeReason: domain.ReasonPreEventUplift},
		{ProductID: mug.ID, EventID: ptr(sale.ID), Price: 8.40, RecordedDate: domain.Date(2026, time.March, 10), PriceChangeReason: domain.ReasonEventDiscount},
		// Lamp has no pre-event prices, so its impact is skipped.
		{ProductID: lamp.ID, EventID: ptr(sale.ID), Price: 34.00, RecordedDate: domain.Date(2026, time.March, 10), PriceChangeReason: domain.ReasonEventDiscount},
	}
	for _, s := range snaps {
		s.PriceSource = domain.PriceSourceSynthetic
		if err := snapshotStore.Insert(ctx, s); err != nil {
			t.Fatalf("insert snapshot: %v", err)
		}
	}

	return eventStore, productStore, snapshotStore
}

func fixedClock() time.Time {
	return time.Date(2026, time.March, 31, 12, 0, 0, 0, time.UTC)
}

func generate(t *testing.T) *Report {
	t.Helper()
	events, products, snaps := setupTestData(t)
	gen := NewGenerator(events, products, snaps).WithClock(fixedClock)

	report, err := gen.Generate(context.Background(), domain.Date(2026, time.March, 1), domain.Date(2026, time.March, 31))
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	return report
}

func TestGenerator_Generate(t *testing.T) {
	report := generate(t)

	if !report.GeneratedAt.Equal(fixedClock()) {
		t.Errorf("expected GeneratedAt %v, got %v", fixedClock(), report.GeneratedAt)
	}

	ds := report.DataSummary
	if ds.ProductCount != 2 || ds.EventCount != 2 || ds.SnapshotCount != 5 {
		t.Errorf("unexpected data summary %+v", ds)
	}
	if ds.SyntheticSnapshots != 5 || ds.RealSnapshots != 0 {
		t.Errorf("unexpected source counts %+v", ds)
	}
	if !ds.FirstRecordedDate.Equal(domain.Date(2026, time.March, 7)) || !ds.LastRecordedDate.Equal(domain.Date(2026, time.March, 10)) {
		t.Errorf("unexpected recorded range %v..%v", ds.FirstRecordedDate, ds.LastRecordedDate)
	}

	if len(report.PriceSummaries) != 2 {
		t.Fatalf("expected 2 price summaries, got %d", len(report.PriceSummaries))
	}
	mug := report.PriceSummaries[0]
	if mug.ExternalID != 11 || mug.MinPrice != 8.40 || mug.MaxPrice != 10.60 || mug.AvgPrice != 9.85 || mug.Snapshots != 4 {
		t.Errorf("unexpected mug summary %+v", mug)
	}

	if len(report.EventImpacts) != 1 {
		t.Fatalf("expected 1 event impact row, got %d", len(report.EventImpacts))
	}
	impact := report.EventImpacts[0]
	if impact.EventName != "Spring Sale" || impact.PreEventAvg != 10.50 || impact.EventAvg != 8.40 {
		t.Errorf("unexpected impact %+v", impact)
	}
	if impact.PriceChangeAbs != -2.10 || impact.PriceChangePct != -20.00 {
		t.Errorf("unexpected change %v / %v", impact.PriceChangeAbs, impact.PriceChangePct)
	}

	// lamp for Spring Sale, plus both products for the event without a pre-event window
	if report.InsufficientImpacts != 3 {
		t.Errorf("expected 3 skipped pairs, got %d", report.InsufficientImpacts)
	}
}

func TestGenerator_InvalidPeriod(t *testing.T) {
	events, products, snaps := setupTestData(t)
	_, err := NewGenerator(events, products, snaps).Generate(context.Background(),
		domain.Date(2026, time.April, 1), domain.Date(2026, time.March, 1))
	if err == nil {
		t.Fatal("expected error for inverted period")
	}
}

func TestGenerator_EmptyStores(t *testing.T) {
	gen := NewGenerator(memory.NewEventStore(), memory.NewProductStore(), memory.NewSnapshotStore()).WithClock(fixedClock)
	report, err := gen.Generate(context.Background(), domain.Date(2026, time.March, 1), domain.Date(2026, time.March, 31))
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}

	md := RenderMarkdown(report)
	if !strings.Contains(md, "No price data available.") || !strings.Contains(md, "No event impact data available.") {
		t.Errorf("expected empty-section placeholders, got:\n%s", md)
	}
	if !strings.Contains(md, "| First Recorded | - |") {
		t.Errorf("expected dash for missing date, got:\n%s", md)
	}
}

func TestRenderMarkdown(t *testing.T) {
	md := RenderMarkdown(generate(t))

	for _, want := range []string{
		"# Price Tracking Report",
		"Generated: 2026-03-31T12:00:00Z",
		"Period: 2026-03-01 to 2026-03-31",
		"## Data Summary",
		"| Snapshots | 5 |",
		"## Price Summary",
		"| 1 | 11 | Mug, ceramic | 10.00 | 8.40 | 10.60 | 9.85 | 4 |",
		"## Event Impact",
		"| Spring Sale | 1 | Mug, ceramic | 10.50 | 8.40 | -2.10 | -20.00 |",
		"3 event/product pairs skipped for insufficient data.",
	} {
		if !strings.Contains(md, want) {
			t.Errorf("markdown missing %q", want)
		}
	}
}

func TestRenderCSV(t *testing.T) {
	report := generate(t)

	csv := RenderCSV(report.EventImpacts)
	lines := strings.Split(strings.TrimSpace(csv), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected header + 1 row, got %d lines", len(lines))
	}
	if lines[0] != "event_id,event_name,product_id,title,pre_event_avg,event_avg,price_change_abs,price_change_pct" {
		t.Errorf("unexpected header %q", lines[0])
	}
	if lines[1] != `1,Spring Sale,1,"Mug, ceramic",10.50,8.40,-2.10,-20.00` {
		t.Errorf("unexpected row %q", lines[1])
	}

	summary := RenderSummaryCSV(report.PriceSummaries)
	if !strings.Contains(summary, `2,12,Lamp,40.00,34.00,34.00,34.00,1`) {
		t.Errorf("summary CSV missing lamp row:\n%s", summary)
	}
}
