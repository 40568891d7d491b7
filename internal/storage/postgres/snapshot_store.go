package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"ecommerce-price-tracker/internal/domain"
	"ecommerce-price-tracker/internal/storage"
)

// SnapshotStore implements storage.SnapshotStore using PostgreSQL.
type SnapshotStore struct {
	q querier
}

// NewSnapshotStore creates a new SnapshotStore.
func NewSnapshotStore(pool *Pool) *SnapshotStore {
	return &SnapshotStore{q: pool}
}

// Compile-time interface check.
var _ storage.SnapshotStore = (*SnapshotStore)(nil)

const snapshotColumns = `id, product_id, event_id, price, recorded_date,
	price_change_reason, price_source, created_at`

// Insert adds a new snapshot and assigns its ID.
// Returns ErrDuplicateKey if (product_id, recorded_date) exists. The conflict
// does not abort an enclosing transaction.
func (s *SnapshotStore) Insert(ctx context.Context, snap *domain.PriceSnapshot) error {
	if snap == nil || snap.ProductID == 0 || snap.RecordedDate.IsZero() || !snap.PriceSource.IsValid() {
		return storage.ErrInvalidInput
	}

	query := `
		INSERT INTO price_snapshots (
			product_id, event_id, price, recorded_date, price_change_reason, price_source
		) VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (product_id, recorded_date) DO NOTHING
		RETURNING id, created_at
	`

	snap.RecordedDate = domain.NormalizeDate(snap.RecordedDate)
	err := s.q.QueryRow(ctx, query,
		snap.ProductID,
		snap.EventID,
		snap.Price,
		snap.RecordedDate,
		snap.PriceChangeReason,
		string(snap.PriceSource),
	).Scan(&snap.ID, &snap.CreatedAt)
	if err != nil {
		if isNotFoundError(err) || isDuplicateKeyError(err) {
			return storage.ErrDuplicateKey
		}
		return fmt.Errorf("insert price snapshot: %w", err)
	}
	return nil
}

// Get retrieves the snapshot for (productID, date). Returns ErrNotFound if not exists.
func (s *SnapshotStore) Get(ctx context.Context, productID int64, date time.Time) (*domain.PriceSnapshot, error) {
	query := `
		SELECT ` + snapshotColumns + `
		FROM price_snapshots
		WHERE product_id = $1 AND recorded_date = $2
	`

	snap, err := scanSnapshot(s.q.QueryRow(ctx, query, productID, domain.NormalizeDate(date)))
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get price snapshot: %w", err)
	}
	return snap, nil
}

// Exists reports whether a snapshot for (productID, date) exists.
func (s *SnapshotStore) Exists(ctx context.Context, productID int64, date time.Time) (bool, error) {
	query := `SELECT EXISTS (SELECT 1 FROM price_snapshots WHERE product_id = $1 AND recorded_date = $2)`

	var exists bool
	if err := s.q.QueryRow(ctx, query, productID, domain.NormalizeDate(date)).Scan(&exists); err != nil {
		return false, fmt.Errorf("check price snapshot exists: %w", err)
	}
	return exists, nil
}

// GetByProductRange retrieves snapshots for a product within [start, end] (inclusive).
func (s *SnapshotStore) GetByProductRange(ctx context.Context, productID int64, start, end time.Time) ([]*domain.PriceSnapshot, error) {
	query := `
		SELECT ` + snapshotColumns + `
		FROM price_snapshots
		WHERE product_id = $1 AND recorded_date >= $2 AND recorded_date <= $3
		ORDER BY recorded_date ASC
	`

	rows, err := s.q.Query(ctx, query, productID, domain.NormalizeDate(start), domain.NormalizeDate(end))
	if err != nil {
		return nil, fmt.Errorf("get price snapshots by product range: %w", err)
	}
	defer rows.Close()

	return scanSnapshots(rows)
}

// GetByDateRange retrieves all snapshots within [start, end] (inclusive).
func (s *SnapshotStore) GetByDateRange(ctx context.Context, start, end time.Time) ([]*domain.PriceSnapshot, error) {
	query := `
		SELECT ` + snapshotColumns + `
		FROM price_snapshots
		WHERE recorded_date >= $1 AND recorded_date <= $2
		ORDER BY recorded_date ASC, product_id ASC
	`

	rows, err := s.q.Query(ctx, query, domain.NormalizeDate(start), domain.NormalizeDate(end))
	if err != nil {
		return nil, fmt.Errorf("get price snapshots by date range: %w", err)
	}
	defer rows.Close()

	return scanSnapshots(rows)
}

// Count returns the number of snapshots.
func (s *SnapshotStore) Count(ctx context.Context) (int, error) {
	var count int
	if err := s.q.QueryRow(ctx, `SELECT COUNT(*) FROM price_snapshots`).Scan(&count); err != nil {
		return 0, fmt.Errorf("count price snapshots: %w", err)
	}
	return count, nil
}

// scanSnapshot scans a single row into a PriceSnapshot.
func scanSnapshot(row pgx.Row) (*domain.PriceSnapshot, error) {
	var snap domain.PriceSnapshot
	var sourceStr string

	err := row.Scan(
		&snap.ID,
		&snap.ProductID,
		&snap.EventID,
		&snap.Price,
		&snap.RecordedDate,
		&snap.PriceChangeReason,
		&sourceStr,
		&snap.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	snap.RecordedDate = domain.NormalizeDate(snap.RecordedDate)
	if snap.PriceSource, err = domain.ParsePriceSource(sourceStr); err != nil {
		return nil, err
	}
	return &snap, nil
}

// scanSnapshots scans multiple rows into a slice of PriceSnapshot.
func scanSnapshots(rows pgx.Rows) ([]*domain.PriceSnapshot, error) {
	var snaps []*domain.PriceSnapshot
	for rows.Next() {
		snap, err := scanSnapshot(rows)
		if err != nil {
			return nil, fmt.Errorf("scan price snapshot row: %w", err)
		}
		snaps = append(snaps, snap)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate price snapshot rows: %w", err)
	}
	return snaps, nil
}
