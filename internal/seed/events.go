// Package seed loads the promotional calendar into storage.
package seed

import (
	"time"

	"ecommerce-price-tracker/internal/domain"
)

// DefaultEvents returns the 2026 campaign calendar.
func DefaultEvents() []*domain.Event {
	return []*domain.Event{
		{
			Name:              "Valentines Day",
			StartDate:         domain.Date(2026, time.February, 14),
			EndDate:           domain.Date(2026, time.February, 14),
			PreEventDays:      7,
			PreEventUpliftMin: 0.02,
			PreEventUpliftMax: 0.05,
			DiscountMin:       0.15,
			DiscountMax:       0.25,
		},
		{
			Name:              "Easter Sale",
			StartDate:         domain.Date(2026, time.April, 3),
			EndDate:           domain.Date(2026, time.April, 6),
			PreEventDays:      5,
			PreEventUpliftMin: 0.01,
			PreEventUpliftMax: 0.03,
			DiscountMin:       0.10,
			DiscountMax:       0.20,
		},
		{
			Name:              "Back to School",
			StartDate:         domain.Date(2026, time.August, 15),
			EndDate:           domain.Date(2026, time.August, 31),
			PreEventDays:      10,
			PreEventUpliftMin: 0.03,
			PreEventUpliftMax: 0.06,
			DiscountMin:       0.15,
			DiscountMax:       0.30,
			NoiseEnabled:      true,
		},
		{
			Name:              "Black Friday",
			StartDate:         domain.Date(2026, time.November, 27),
			EndDate:           domain.Date(2026, time.November, 27),
			PreEventDays:      14,
			PreEventUpliftMin: 0.05,
			PreEventUpliftMax: 0.10,
			DiscountMin:       0.30,
			DiscountMax:       0.50,
		},
		{
			Name:              "Christmas Sale",
			StartDate:         domain.Date(2026, time.December, 20),
			EndDate:           domain.Date(2026, time.December, 26),
			PreEventDays:      10,
			PreEventUpliftMin: 0.02,
			PreEventUpliftMax: 0.05,
			DiscountMin:       0.20,
			DiscountMax:       0.35,
		},
	}
}
