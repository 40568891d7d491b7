// Package calendar answers which promotional event governs a given date.
package calendar

import (
	"fmt"
	"sort"
	"time"

	"ecommerce-price-tracker/internal/domain"
)

// Regime is the pricing regime an event imposes on a date.
type Regime string

const (
	RegimeNone     Regime = "none"
	RegimePreEvent Regime = "pre_event"
	RegimeActive   Regime = "active"
)

// Calendar holds a validated, immutable set of events.
// Overlapping windows are resolved by earliest StartDate, then lowest ID.
type Calendar struct {
	events []*domain.Event // sorted by (StartDate, ID)
}

// New validates events and builds a calendar over copies of them.
// Returns the first *domain.ConfigurationError encountered.
func New(events []*domain.Event) (*Calendar, error) {
	sorted := make([]*domain.Event, 0, len(events))
	for _, e := range events {
		if e == nil {
			continue
		}
		if err := e.Validate(); err != nil {
			return nil, fmt.Errorf("build calendar: %w", err)
		}
		eventCopy := *e
		eventCopy.StartDate = domain.NormalizeDate(e.StartDate)
		eventCopy.EndDate = domain.NormalizeDate(e.EndDate)
		sorted = append(sorted, &eventCopy)
	}

	sort.SliceStable(sorted, func(i, j int) bool {
		if !sorted[i].StartDate.Equal(sorted[j].StartDate) {
			return sorted[i].StartDate.Before(sorted[j].StartDate)
		}
		return sorted[i].ID < sorted[j].ID
	})

	return &Calendar{events: sorted}, nil
}

// ActiveEvent returns the event whose inclusive [StartDate, EndDate] window
// contains date, or nil.
func (c *Calendar) ActiveEvent(date time.Time) *domain.Event {
	for _, e := range c.events {
		if e.InActiveWindow(date) {
			return e
		}
	}
	return nil
}

// PreEvent returns the event whose uplift window
// [StartDate - PreEventDays, StartDate - 1] contains date, or nil.
func (c *Calendar) PreEvent(date time.Time) *domain.Event {
	for _, e := range c.events {
		if e.InPreEventWindow(date) {
			return e
		}
	}
	return nil
}

// Lookup resolves the governing event for date. An active event always wins
// over a pre-event window.
func (c *Calendar) Lookup(date time.Time) (Regime, *domain.Event) {
	if e := c.ActiveEvent(date); e != nil {
		return RegimeActive, e
	}
	if e := c.PreEvent(date); e != nil {
		return RegimePreEvent, e
	}
	return RegimeNone, nil
}

// Events returns copies of the calendar events in tie-break order.
func (c *Calendar) Events() []*domain.Event {
	out := make([]*domain.Event, len(c.events))
	for i, e := range c.events {
		eventCopy := *e
		out[i] = &eventCopy
	}
	return out
}

// Len returns the number of events.
func (c *Calendar) Len() int {
	return len(c.events)
}
