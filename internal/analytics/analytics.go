// Package analytics summarizes recorded price history.
package analytics

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"ecommerce-price-tracker/internal/domain"
	"ecommerce-price-tracker/internal/storage"
)

// ErrNoData is returned when there are not enough snapshots to answer a query.
var ErrNoData = errors.New("not enough price data")

// PriceSummary aggregates a product's prices over an inclusive date range.
type PriceSummary struct {
	ProductID int64
	StartDate time.Time
	EndDate   time.Time
	MinPrice  float64
	MaxPrice  float64
	AvgPrice  float64 // rounded to 2 decimals
	Count     int
}

// EventImpact compares a product's prices during an event against its pre-event window.
type EventImpact struct {
	EventID        int64
	EventName      string
	ProductID      int64
	PreEventAvg    float64
	EventAvg       float64
	PriceChangeAbs float64
	PriceChangePct float64
	PreEventCount  int
	EventCount     int
}

// Service answers analytics queries from any price history reader:
// the primary snapshot store or the ClickHouse mirror.
type Service struct {
	reader storage.PriceHistoryReader
}

// NewService creates a new analytics service.
func NewService(reader storage.PriceHistoryReader) *Service {
	return &Service{reader: reader}
}

// History returns a product's snapshots in [start, end], oldest first.
func (s *Service) History(ctx context.Context, productID int64, start, end time.Time) ([]*domain.PriceSnapshot, error) {
	snaps, err := s.reader.GetByProductRange(ctx, productID, domain.NormalizeDate(start), domain.NormalizeDate(end))
	if err != nil {
		return nil, fmt.Errorf("load price history: %w", err)
	}
	return snaps, nil
}

// PriceSummary returns min, max and average price for a product in [start, end].
// Returns ErrNoData if no snapshots fall in the range.
func (s *Service) PriceSummary(ctx context.Context, productID int64, start, end time.Time) (*PriceSummary, error) {
	start, end = domain.NormalizeDate(start), domain.NormalizeDate(end)
	snaps, err := s.History(ctx, productID, start, end)
	if err != nil {
		return nil, err
	}
	if len(snaps) == 0 {
		return nil, ErrNoData
	}

	summary := &PriceSummary{
		ProductID: productID,
		StartDate: start,
		EndDate:   end,
		MinPrice:  snaps[0].Price,
		MaxPrice:  snaps[0].Price,
		Count:     len(snaps),
	}
	for _, snap := range snaps[1:] {
		summary.MinPrice = min(summary.MinPrice, snap.Price)
		summary.MaxPrice = max(summary.MaxPrice, snap.Price)
	}
	summary.AvgPrice = average(snaps).Round(2).InexactFloat64()
	return summary, nil
}

// EventImpact compares the average uplifted price in the event's pre-event
// window with the average discounted price in its active window. Only
// snapshots the event governed count; rows priced under an overlapping event
// are left out of both sides.
// Returns ErrNoData if the event has no pre-event window or either side is empty.
func (s *Service) EventImpact(ctx context.Context, event *domain.Event, productID int64) (*EventImpact, error) {
	if event == nil || event.PreEventDays <= 0 {
		return nil, ErrNoData
	}

	pre, err := s.reader.GetByProductRange(ctx, productID, event.PreEventStart(), event.PreEventEnd())
	if err != nil {
		return nil, fmt.Errorf("load pre-event prices: %w", err)
	}
	active, err := s.reader.GetByProductRange(ctx, productID, domain.NormalizeDate(event.StartDate), domain.NormalizeDate(event.EndDate))
	if err != nil {
		return nil, fmt.Errorf("load event prices: %w", err)
	}
	pre = governedBy(pre, event.ID, domain.ReasonPreEventUplift)
	active = governedBy(active, event.ID, domain.ReasonEventDiscount)

	if len(pre) == 0 || len(active) == 0 {
		return nil, ErrNoData
	}

	preAvg := average(pre)
	if preAvg.IsZero() {
		return nil, ErrNoData
	}
	eventAvg := average(active)
	change := eventAvg.Sub(preAvg)

	return &EventImpact{
		EventID:        event.ID,
		EventName:      event.Name,
		ProductID:      productID,
		PreEventAvg:    preAvg.Round(2).InexactFloat64(),
		EventAvg:       eventAvg.Round(2).InexactFloat64(),
		PriceChangeAbs: change.Round(2).InexactFloat64(),
		PriceChangePct: change.Div(preAvg).Mul(decimal.NewFromInt(100)).Round(2).InexactFloat64(),
		PreEventCount:  len(pre),
		EventCount:     len(active),
	}, nil
}

// governedBy keeps snapshots tagged with eventID whose reason starts with reason.
func governedBy(snaps []*domain.PriceSnapshot, eventID int64, reason string) []*domain.PriceSnapshot {
	out := snaps[:0:0]
	for _, snap := range snaps {
		if snap.EventID != nil && *snap.EventID == eventID && strings.HasPrefix(snap.PriceChangeReason, reason) {
			out = append(out, snap)
		}
	}
	return out
}

func average(snaps []*domain.PriceSnapshot) decimal.Decimal {
	sum := decimal.Zero
	for _, snap := range snaps {
		sum = sum.Add(decimal.NewFromFloat(snap.Price))
	}
	return sum.Div(decimal.NewFromInt(int64(len(snaps))))
}
