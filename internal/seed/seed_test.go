package seed

import (
	"context"
	"errors"
	"testing"
	"time"

	"ecommerce-price-tracker/internal/domain"
	"ecommerce-price-tracker/internal/storage/memory"
)

func TestDefaultEvents_Valid(t *testing.T) {
	events := DefaultEvents()
	if len(events) != 5 {
		t.Fatalf("expected 5 events, got %d", len(events))
	}

	seen := make(map[string]bool)
	for _, e := range events {
		if err := e.Validate(); err != nil {
			t.Errorf("event %q invalid: %v", e.Name, err)
		}
		if seen[e.Name] {
			t.Errorf("duplicate event name %q", e.Name)
		}
		seen[e.Name] = true
	}
}

func TestSeedEvents_Idempotent(t *testing.T) {
	ctx := context.Background()
	db := memory.NewDB()

	res, err := SeedEvents(ctx, db, DefaultEvents())
	if err != nil {
		t.Fatalf("first seed: %v", err)
	}
	if res.Created != 5 || res.Skipped != 0 {
		t.Errorf("first seed: expected 5 created, 0 skipped, got %+v", res)
	}

	res, err = SeedEvents(ctx, db, DefaultEvents())
	if err != nil {
		t.Fatalf("second seed: %v", err)
	}
	if res.Created != 0 || res.Skipped != 5 {
		t.Errorf("second seed: expected 0 created, 5 skipped, got %+v", res)
	}

	count, err := db.Events().Count(ctx)
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 5 {
		t.Errorf("expected 5 stored events, got %d", count)
	}
}

func TestSeedEvents_DoesNotMutateInput(t *testing.T) {
	ctx := context.Background()
	db := memory.NewDB()
	events := DefaultEvents()

	if _, err := SeedEvents(ctx, db, events); err != nil {
		t.Fatalf("seed: %v", err)
	}
	for _, e := range events {
		if e.ID != 0 {
			t.Errorf("event %q: input ID mutated to %d", e.Name, e.ID)
		}
	}
}

func TestSeedEvents_InvalidEventWritesNothing(t *testing.T) {
	ctx := context.Background()
	db := memory.NewDB()

	events := DefaultEvents()
	events = append(events, &domain.Event{
		Name:        "Broken",
		StartDate:   domain.Date(2026, time.March, 10),
		EndDate:     domain.Date(2026, time.March, 1),
		DiscountMin: 0.1,
		DiscountMax: 0.2,
	})

	_, err := SeedEvents(ctx, db, events)
	var cfgErr *domain.ConfigurationError
	if !errors.As(err, &cfgErr) {
		t.Fatalf("expected ConfigurationError, got %v", err)
	}
	if cfgErr.EventName != "Broken" {
		t.Errorf("expected error for Broken, got %q", cfgErr.EventName)
	}

	count, _ := db.Events().Count(ctx)
	if count != 0 {
		t.Errorf("expected no events stored, got %d", count)
	}
}

func TestSeedEvents_PartialExisting(t *testing.T) {
	ctx := context.Background()
	db := memory.NewDB()

	first := DefaultEvents()[:2]
	if _, err := SeedEvents(ctx, db, first); err != nil {
		t.Fatalf("seed subset: %v", err)
	}

	res, err := SeedEvents(ctx, db, DefaultEvents())
	if err != nil {
		t.Fatalf("seed all: %v", err)
	}
	if res.Created != 3 || res.Skipped != 2 {
		t.Errorf("expected 3 created, 2 skipped, got %+v", res)
	}
}
