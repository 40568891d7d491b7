package reporting

import "time"

// Report is the price tracking report for a date range.
type Report struct {
	// Metadata
	GeneratedAt time.Time
	PeriodStart time.Time
	PeriodEnd   time.Time

	DataSummary DataSummary

	// Per-product price summaries (sorted by product_id)
	PriceSummaries []PriceSummaryRow

	// Event impact per (event, product) with enough data
	// (sorted by event start_date, event_id, product_id)
	EventImpacts []EventImpactRow

	// (event, product) pairs skipped for lack of data
	InsufficientImpacts int
}

// DataSummary counts the stored data behind the report.
type DataSummary struct {
	ProductCount       int
	EventCount         int
	SnapshotCount      int // snapshots in the period
	SyntheticSnapshots int
	RealSnapshots      int
	FirstRecordedDate  time.Time // zero when no snapshots
	LastRecordedDate   time.Time
}

// PriceSummaryRow is one product's price range over the period.
type PriceSummaryRow struct {
	ProductID  int64
	ExternalID int64
	Title      string
	BasePrice  float64
	MinPrice   float64
	MaxPrice   float64
	AvgPrice   float64
	Snapshots  int
}

// EventImpactRow compares a product's pre-event and event prices.
type EventImpactRow struct {
	EventID        int64
	EventName      string
	ProductID      int64
	Title          string
	PreEventAvg    float64
	EventAvg       float64
	PriceChangeAbs float64
	PriceChangePct float64
}
