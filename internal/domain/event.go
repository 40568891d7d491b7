package domain

import (
	"math"
	"time"
)

// Event is a time-bounded promotional campaign.
// Corresponds to the events table in PostgreSQL.
type Event struct {
	ID                int64
	Name              string    // unique
	StartDate         time.Time // inclusive, UTC midnight
	EndDate           time.Time // inclusive, UTC midnight
	PreEventDays      int       // length of the uplift window before StartDate
	PreEventUpliftMin float64
	PreEventUpliftMax float64
	DiscountMin       float64
	DiscountMax       float64
	NoiseEnabled      bool
	CreatedAt         time.Time
}

// Validate checks the event invariants. Returns *ConfigurationError on the
// first violation.
func (e *Event) Validate() error {
	invalid := func(field, reason string) error {
		return &ConfigurationError{EventName: e.Name, Field: field, Reason: reason}
	}

	if e.Name == "" {
		return invalid("name", "must not be empty")
	}
	if e.StartDate.IsZero() || e.EndDate.IsZero() {
		return invalid("start_date/end_date", "must be set")
	}
	if NormalizeDate(e.StartDate).After(NormalizeDate(e.EndDate)) {
		return invalid("start_date", "must not be after end_date")
	}
	if e.PreEventDays < 0 {
		return invalid("pre_event_days", "must be >= 0")
	}
	for _, b := range []struct {
		field string
		value float64
	}{
		{"pre_event_uplift_min", e.PreEventUpliftMin},
		{"pre_event_uplift_max", e.PreEventUpliftMax},
		{"discount_min", e.DiscountMin},
		{"discount_max", e.DiscountMax},
	} {
		if math.IsNaN(b.value) {
			return invalid(b.field, "must be a number")
		}
	}
	if e.PreEventUpliftMin < 0 {
		return invalid("pre_event_uplift_min", "must be >= 0")
	}
	if e.PreEventUpliftMin > e.PreEventUpliftMax {
		return invalid("pre_event_uplift_min", "must not exceed pre_event_uplift_max")
	}
	if e.DiscountMin < 0 {
		return invalid("discount_min", "must be >= 0")
	}
	if e.DiscountMin > e.DiscountMax {
		return invalid("discount_min", "must not exceed discount_max")
	}
	if e.DiscountMax > 1 {
		return invalid("discount_max", "must be <= 1")
	}
	return nil
}

// InActiveWindow reports whether date lies in [StartDate, EndDate].
func (e *Event) InActiveWindow(date time.Time) bool {
	d := NormalizeDate(date)
	return !d.Before(NormalizeDate(e.StartDate)) && !d.After(NormalizeDate(e.EndDate))
}

// PreEventStart returns the first day of the uplift window.
func (e *Event) PreEventStart() time.Time {
	return AddDays(e.StartDate, -e.PreEventDays)
}

// PreEventEnd returns the last day of the uplift window (the day before StartDate).
func (e *Event) PreEventEnd() time.Time {
	return AddDays(e.StartDate, -1)
}

// InPreEventWindow reports whether date lies in [StartDate - PreEventDays, StartDate - 1].
// Always false when PreEventDays is zero.
func (e *Event) InPreEventWindow(date time.Time) bool {
	if e.PreEventDays <= 0 {
		return false
	}
	d := NormalizeDate(date)
	return !d.Before(e.PreEventStart()) && d.Before(NormalizeDate(e.StartDate))
}
