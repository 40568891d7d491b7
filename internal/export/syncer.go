// Package export copies price snapshots into the analytics history mirror.
package export

import (
	"context"
	"fmt"
	"log"
	"time"

	"ecommerce-price-tracker/internal/domain"
	"ecommerce-price-tracker/internal/observability"
	"ecommerce-price-tracker/internal/storage"
)

// DefaultBatchSize is the number of snapshots sent per InsertBulk call.
const DefaultBatchSize = 1000

// SyncerOptions configures a Syncer.
type SyncerOptions struct {
	Source    storage.PriceHistoryReader // primary snapshot store
	Dest      storage.PriceHistoryStore  // history mirror
	BatchSize int                        // default DefaultBatchSize
	Logger    *log.Logger
	Metrics   *observability.Metrics // optional
}

// Syncer copies snapshots that are missing from the mirror.
type Syncer struct {
	source    storage.PriceHistoryReader
	dest      storage.PriceHistoryStore
	batchSize int
	logger    *log.Logger
	metrics   *observability.Metrics
}

// NewSyncer creates a new syncer.
func NewSyncer(opts SyncerOptions) *Syncer {
	if opts.BatchSize <= 0 {
		opts.BatchSize = DefaultBatchSize
	}
	if opts.Logger == nil {
		opts.Logger = log.Default()
	}
	return &Syncer{
		source:    opts.Source,
		dest:      opts.Dest,
		batchSize: opts.BatchSize,
		logger:    opts.Logger,
		metrics:   opts.Metrics,
	}
}

// Result reports what a sync pass did.
type Result struct {
	Scanned  int
	Exported int
	Skipped  int // already mirrored
}

// Sync mirrors every snapshot recorded in [start, end] that the destination
// does not already hold. Rerunning over the same range exports nothing.
func (s *Syncer) Sync(ctx context.Context, start, end time.Time) (Result, error) {
	start, end = domain.NormalizeDate(start), domain.NormalizeDate(end)
	if start.After(end) {
		return Result{}, fmt.Errorf("%w: start after end", storage.ErrInvalidInput)
	}

	snaps, err := s.source.GetByDateRange(ctx, start, end)
	if err != nil {
		return Result{}, fmt.Errorf("read snapshots: %w", err)
	}

	res := Result{Scanned: len(snaps)}
	pending := make([]*domain.PriceSnapshot, 0, min(len(snaps), s.batchSize))
	for _, snap := range snaps {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		exists, err := s.dest.Exists(ctx, snap.ProductID, snap.RecordedDate)
		if err != nil {
			return res, fmt.Errorf("check mirror for product %d on %s: %w",
				snap.ProductID, snap.RecordedDate.Format(domain.DateLayout), err)
		}
		if exists {
			res.Skipped++
			continue
		}

		pending = append(pending, snap)
		if len(pending) == s.batchSize {
			if err := s.flush(ctx, pending, &res); err != nil {
				return res, err
			}
			pending = pending[:0]
		}
	}
	if err := s.flush(ctx, pending, &res); err != nil {
		return res, err
	}

	s.logger.Printf("export %s..%s: scanned=%d exported=%d skipped=%d",
		start.Format(domain.DateLayout), end.Format(domain.DateLayout),
		res.Scanned, res.Exported, res.Skipped)
	return res, nil
}

func (s *Syncer) flush(ctx context.Context, batch []*domain.PriceSnapshot, res *Result) error {
	if len(batch) == 0 {
		return nil
	}
	if err := s.dest.InsertBulk(ctx, batch); err != nil {
		return fmt.Errorf("insert batch of %d: %w", len(batch), err)
	}
	res.Exported += len(batch)
	s.metrics.RecordExported(len(batch))
	return nil
}
