package export

import (
	"context"
	"errors"
	"io"
	"log"
	"testing"
	"time"

	"ecommerce-price-tracker/internal/domain"
	"ecommerce-price-tracker/internal/storage"
	"ecommerce-price-tracker/internal/storage/memory"
)

func seed(t *testing.T, store *memory.SnapshotStore, productID int64, days ...int) {
	t.Helper()
	for _, d := range days {
		snap := &domain.PriceSnapshot{
			ProductID:         productID,
			Price:             float64(10 + d),
			RecordedDate:      domain.Date(2026, time.May, d),
			PriceChangeReason: domain.ReasonBasePrice + domain.NoiseSuffix,
			PriceSource:       domain.PriceSourceSynthetic,
		}
		if err := store.Insert(context.Background(), snap); err != nil {
			t.Fatalf("seed snapshot: %v", err)
		}
	}
}

func newSyncer(src, dst *memory.SnapshotStore, batch int) *Syncer {
	return NewSyncer(SyncerOptions{
		Source:    src,
		Dest:      dst,
		BatchSize: batch,
		Logger:    log.New(io.Discard, "", 0),
	})
}

func TestSync_CopiesRange(t *testing.T) {
	ctx := context.Background()
	src, dst := memory.NewSnapshotStore(), memory.NewSnapshotStore()
	seed(t, src, 1, 1, 2, 3, 10)
	seed(t, src, 2, 2, 3)

	res, err := newSyncer(src, dst, 2).Sync(ctx, domain.Date(2026, time.May, 1), domain.Date(2026, time.May, 5))
	if err != nil {
		t.Fatalf("Sync: %v", err)
	}
	if res.Scanned != 5 || res.Exported != 5 || res.Skipped != 0 {
		t.Errorf("unexpected result %+v", res)
	}

	count, _ := dst.Count(ctx)
	if count != 5 {
		t.Errorf("expected 5 mirrored snapshots, got %d", count)
	}
	if ok, _ := dst.Exists(ctx, 1, domain.Date(2026, time.May, 10)); ok {
		t.Error("snapshot outside range should not be mirrored")
	}

	got, err := dst.Get(ctx, 2, domain.Date(2026, time.May, 3))
	if err != nil {
		t.Fatalf("Get mirrored: %v", err)
	}
	if got.Price != 13 || got.PriceSource != domain.PriceSourceSynthetic {
		t.Errorf("mirrored snapshot mismatch: %+v", got)
	}
}

func TestSync_Rerun(t *testing.T) {
	ctx := context.Background()
	src, dst := memory.NewSnapshotStore(), memory.NewSnapshotStore()
	seed(t, src, 1, 1, 2)
	syncer := newSyncer(src, dst, 0)
	start, end := domain.Date(2026, time.May, 1), domain.Date(2026, time.May, 31)

	if _, err := syncer.Sync(ctx, start, end); err != nil {
		t.Fatalf("first Sync: %v", err)
	}
	seed(t, src, 1, 3)

	res, err := syncer.Sync(ctx, start, end)
	if err != nil {
		t.Fatalf("second Sync: %v", err)
	}
	if res.Exported != 1 || res.Skipped != 2 {
		t.Errorf("expected 1 exported, 2 skipped, got %+v", res)
	}
}

func TestSync_InvalidRange(t *testing.T) {
	_, err := newSyncer(memory.NewSnapshotStore(), memory.NewSnapshotStore(), 0).
		Sync(context.Background(), domain.Date(2026, time.May, 2), domain.Date(2026, time.May, 1))
	if !errors.Is(err, storage.ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput, got %v", err)
	}
}

func TestSync_Cancelled(t *testing.T) {
	src := memory.NewSnapshotStore()
	seed(t, src, 1, 1)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := newSyncer(src, memory.NewSnapshotStore(), 0).Sync(ctx, domain.Date(2026, time.May, 1), domain.Date(2026, time.May, 1))
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}
