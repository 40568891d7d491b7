package domain

import "time"

// PriceSnapshot is one persisted price observation for a product on a date.
// Corresponds to the price_snapshots table; (ProductID, RecordedDate) is unique.
type PriceSnapshot struct {
	ID                int64
	ProductID         int64
	EventID           *int64 // governing event, nil when none
	Price             float64
	RecordedDate      time.Time // UTC midnight
	PriceChangeReason string
	PriceSource       PriceSource
	CreatedAt         time.Time
}

// Adjustment is the audit metadata produced alongside a generated price.
// It is not persisted on its own; ingestion turns it into a PriceSnapshot.
type Adjustment struct {
	PriceSource  PriceSource
	EventID      *int64
	EventName    *string
	Reason       string
	RecordedDate time.Time
}

// NewSnapshot builds a snapshot for product from a generated price.
func NewSnapshot(product *Product, price float64, adj Adjustment) *PriceSnapshot {
	return &PriceSnapshot{
		ProductID:         product.ID,
		EventID:           adj.EventID,
		Price:             price,
		RecordedDate:      NormalizeDate(adj.RecordedDate),
		PriceChangeReason: adj.Reason,
		PriceSource:       adj.PriceSource,
	}
}
