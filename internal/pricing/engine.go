package pricing

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"ecommerce-price-tracker/internal/domain"
)

// ErrInvalidPricingMode is returned for a mode outside {real, synthetic}.
var ErrInvalidPricingMode = errors.New("invalid pricing mode")

// EventLookup resolves the event governing a date.
// Implemented by *calendar.Calendar.
type EventLookup interface {
	ActiveEvent(date time.Time) *domain.Event
	PreEvent(date time.Time) *domain.Event
}

// Engine turns (base price, date) into a final price and its audit metadata.
type Engine struct {
	sampler Sampler
	noise   Range
}

// EngineOption configures Engine.
type EngineOption func(*Engine)

// WithNoiseRange overrides the ambient noise band.
func WithNoiseRange(r Range) EngineOption {
	return func(e *Engine) {
		e.noise = r
	}
}

// NewEngine creates a price engine drawing randomness from sampler.
func NewEngine(sampler Sampler, opts ...EngineOption) *Engine {
	e := &Engine{
		sampler: sampler,
		noise:   DefaultNoiseRange,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// NoiseRange returns the configured ambient noise band.
func (e *Engine) NoiseRange() Range {
	return e.noise
}

// GenerateDailyPrice computes the price for date.
//
// Regimes are evaluated in priority order: real passthrough, active event
// discount, pre-event uplift, ambient noise. The result is rounded to two
// decimals once, at the end.
func (e *Engine) GenerateDailyPrice(basePrice float64, date time.Time, lookup EventLookup, mode domain.PricingMode) (float64, domain.Adjustment, error) {
	adj := domain.Adjustment{
		PriceSource:  mode.Source(),
		Reason:       domain.ReasonBasePrice,
		RecordedDate: domain.NormalizeDate(date),
	}

	switch mode {
	case domain.PricingModeReal:
		return round2(basePrice), adj, nil
	case domain.PricingModeSynthetic:
	default:
		return 0, domain.Adjustment{}, fmt.Errorf("%w: %q", ErrInvalidPricingMode, mode)
	}

	price := basePrice

	if event := lookup.ActiveEvent(date); event != nil {
		price = ApplyDiscount(price, Range{Min: event.DiscountMin, Max: event.DiscountMax}, e.sampler)
		adj.Reason = domain.ReasonEventDiscount
		price = e.eventNoise(price, event, &adj)
		attachEvent(&adj, event)
	} else if event := lookup.PreEvent(date); event != nil {
		price = ApplyUplift(price, Range{Min: event.PreEventUpliftMin, Max: event.PreEventUpliftMax}, e.sampler)
		adj.Reason = domain.ReasonPreEventUplift
		price = e.eventNoise(price, event, &adj)
		attachEvent(&adj, event)
	} else {
		price = ApplyNoise(price, e.noise, e.sampler)
		adj.Reason = domain.ReasonBasePrice + domain.NoiseSuffix
	}

	return round2(price), adj, nil
}

func (e *Engine) eventNoise(price float64, event *domain.Event, adj *domain.Adjustment) float64 {
	if !event.NoiseEnabled {
		return price
	}
	adj.Reason += domain.NoiseSuffix
	return ApplyNoise(price, e.noise, e.sampler)
}

func attachEvent(adj *domain.Adjustment, event *domain.Event) {
	id := event.ID
	name := event.Name
	adj.EventID = &id
	adj.EventName = &name
}

// round2 rounds half away from zero on the shortest decimal representation.
func round2(v float64) float64 {
	return decimal.NewFromFloat(v).Round(2).InexactFloat64()
}
