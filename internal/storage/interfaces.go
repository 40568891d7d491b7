package storage

import (
	"context"
	"time"

	"ecommerce-price-tracker/internal/domain"
)

// EventStore provides access to events storage.
type EventStore interface {
	// Insert adds a new event and assigns its ID. Returns ErrDuplicateKey if the name exists.
	Insert(ctx context.Context, e *domain.Event) error

	// GetByID retrieves an event by ID. Returns ErrNotFound if not exists.
	GetByID(ctx context.Context, id int64) (*domain.Event, error)

	// GetByName retrieves an event by its unique name. Returns ErrNotFound if not exists.
	GetByName(ctx context.Context, name string) (*domain.Event, error)

	// List retrieves all events ordered by start_date ASC, id ASC.
	List(ctx context.Context) ([]*domain.Event, error)

	// ListOverlapping retrieves events whose active window intersects [start, end].
	ListOverlapping(ctx context.Context, start, end time.Time) ([]*domain.Event, error)

	// Count returns the number of events.
	Count(ctx context.Context) (int, error)
}

// ProductStore provides access to products storage.
type ProductStore interface {
	// Insert adds a new product and assigns its ID. Returns ErrDuplicateKey if external_id exists.
	Insert(ctx context.Context, p *domain.Product) error

	// GetByID retrieves a product by ID. Returns ErrNotFound if not exists.
	GetByID(ctx context.Context, id int64) (*domain.Product, error)

	// GetByExternalID retrieves a product by its catalog ID. Returns ErrNotFound if not exists.
	GetByExternalID(ctx context.Context, externalID int64) (*domain.Product, error)

	// List retrieves products ordered by rating DESC, id ASC.
	List(ctx context.Context, offset, limit int) ([]*domain.Product, error)

	// Count returns the number of products.
	Count(ctx context.Context) (int, error)
}

// PriceHistoryReader is the read side of price snapshot storage.
type PriceHistoryReader interface {
	// GetByProductRange retrieves snapshots for a product recorded within [start, end]
	// (inclusive), ordered by recorded_date ASC.
	GetByProductRange(ctx context.Context, productID int64, start, end time.Time) ([]*domain.PriceSnapshot, error)

	// GetByDateRange retrieves all snapshots recorded within [start, end] (inclusive),
	// ordered by recorded_date ASC, product_id ASC.
	GetByDateRange(ctx context.Context, start, end time.Time) ([]*domain.PriceSnapshot, error)
}

// SnapshotStore provides access to price_snapshots storage.
type SnapshotStore interface {
	PriceHistoryReader

	// Insert adds a new snapshot and assigns its ID.
	// Returns ErrDuplicateKey if (product_id, recorded_date) exists.
	Insert(ctx context.Context, s *domain.PriceSnapshot) error

	// Get retrieves the snapshot for (productID, date). Returns ErrNotFound if not exists.
	Get(ctx context.Context, productID int64, date time.Time) (*domain.PriceSnapshot, error)

	// Exists reports whether a snapshot for (productID, date) exists.
	Exists(ctx context.Context, productID int64, date time.Time) (bool, error)

	// Count returns the number of snapshots.
	Count(ctx context.Context) (int, error)
}

// PriceHistoryStore is an append-only analytics mirror of price snapshots.
type PriceHistoryStore interface {
	PriceHistoryReader

	// InsertBulk adds multiple snapshots. Fails entire batch on duplicate (product_id, recorded_date).
	InsertBulk(ctx context.Context, snapshots []*domain.PriceSnapshot) error

	// Exists reports whether a snapshot for (productID, date) is mirrored.
	Exists(ctx context.Context, productID int64, date time.Time) (bool, error)
}
