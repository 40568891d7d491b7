package clickhouse

import (
	"context"
	"fmt"
	"time"

	"ecommerce-price-tracker/internal/domain"
	"ecommerce-price-tracker/internal/storage"
)

// PriceHistoryStore implements storage.PriceHistoryStore using ClickHouse.
type PriceHistoryStore struct {
	conn *Conn
}

// NewPriceHistoryStore creates a new PriceHistoryStore.
func NewPriceHistoryStore(conn *Conn) *PriceHistoryStore {
	return &PriceHistoryStore{conn: conn}
}

// Compile-time interface check.
var _ storage.PriceHistoryStore = (*PriceHistoryStore)(nil)

type historyKey struct {
	productID int64
	day       time.Time
}

// InsertBulk adds multiple snapshots. Fails entire batch on duplicate (product_id, recorded_date).
// MergeTree does not enforce uniqueness, so duplicates are checked before the batch is sent.
func (s *PriceHistoryStore) InsertBulk(ctx context.Context, snaps []*domain.PriceSnapshot) error {
	if len(snaps) == 0 {
		return nil
	}

	seen := make(map[historyKey]struct{}, len(snaps))
	productIDs := make([]int64, 0, len(snaps))
	var minDay, maxDay time.Time
	for _, snap := range snaps {
		if snap == nil || snap.ProductID == 0 || snap.RecordedDate.IsZero() {
			return storage.ErrInvalidInput
		}
		k := historyKey{snap.ProductID, domain.NormalizeDate(snap.RecordedDate)}
		if _, exists := seen[k]; exists {
			return storage.ErrDuplicateKey
		}
		seen[k] = struct{}{}
		productIDs = append(productIDs, k.productID)
		if minDay.IsZero() || k.day.Before(minDay) {
			minDay = k.day
		}
		if k.day.After(maxDay) {
			maxDay = k.day
		}
	}

	existing, err := s.existingKeys(ctx, productIDs, minDay, maxDay)
	if err != nil {
		return fmt.Errorf("check existing: %w", err)
	}
	for k := range seen {
		if _, exists := existing[k]; exists {
			return storage.ErrDuplicateKey
		}
	}

	batch, err := s.conn.PrepareBatch(ctx, `
		INSERT INTO price_history (
			snapshot_id, product_id, event_id, price, recorded_date,
			price_change_reason, price_source, created_at
		)
	`)
	if err != nil {
		return fmt.Errorf("prepare batch: %w", err)
	}

	for _, snap := range snaps {
		createdAt := snap.CreatedAt
		if createdAt.IsZero() {
			createdAt = time.Now().UTC()
		}
		err = batch.Append(
			snap.ID, snap.ProductID, snap.EventID, snap.Price,
			domain.NormalizeDate(snap.RecordedDate),
			snap.PriceChangeReason, string(snap.PriceSource), createdAt.UTC(),
		)
		if err != nil {
			return fmt.Errorf("append to batch: %w", err)
		}
	}

	if err := batch.Send(); err != nil {
		return fmt.Errorf("send batch: %w", err)
	}

	return nil
}

// Exists reports whether a snapshot for (productID, date) is mirrored.
func (s *PriceHistoryStore) Exists(ctx context.Context, productID int64, date time.Time) (bool, error) {
	query := `
		SELECT count(*) FROM price_history
		WHERE product_id = ? AND recorded_date = ?
	`

	var count uint64
	if err := s.conn.QueryRow(ctx, query, productID, domain.NormalizeDate(date)).Scan(&count); err != nil {
		return false, fmt.Errorf("query exists: %w", err)
	}
	return count > 0, nil
}

// GetByProductRange retrieves snapshots for a product within [start, end] (inclusive).
func (s *PriceHistoryStore) GetByProductRange(ctx context.Context, productID int64, start, end time.Time) ([]*domain.PriceSnapshot, error) {
	query := `
		SELECT snapshot_id, product_id, event_id, price, recorded_date,
			price_change_reason, price_source, created_at
		FROM price_history
		WHERE product_id = ? AND recorded_date >= ? AND recorded_date <= ?
		ORDER BY recorded_date ASC
	`

	rows, err := s.conn.Query(ctx, query, productID, domain.NormalizeDate(start), domain.NormalizeDate(end))
	if err != nil {
		return nil, fmt.Errorf("query by product range: %w", err)
	}
	defer rows.Close()

	return scanPriceHistory(rows)
}

// GetByDateRange retrieves all snapshots within [start, end] (inclusive).
func (s *PriceHistoryStore) GetByDateRange(ctx context.Context, start, end time.Time) ([]*domain.PriceSnapshot, error) {
	query := `
		SELECT snapshot_id, product_id, event_id, price, recorded_date,
			price_change_reason, price_source, created_at
		FROM price_history
		WHERE recorded_date >= ? AND recorded_date <= ?
		ORDER BY recorded_date ASC, product_id ASC
	`

	rows, err := s.conn.Query(ctx, query, domain.NormalizeDate(start), domain.NormalizeDate(end))
	if err != nil {
		return nil, fmt.Errorf("query by date range: %w", err)
	}
	defer rows.Close()

	return scanPriceHistory(rows)
}

// existingKeys returns the mirrored (product_id, recorded_date) pairs for
// productIDs within [start, end].
func (s *PriceHistoryStore) existingKeys(ctx context.Context, productIDs []int64, start, end time.Time) (map[historyKey]struct{}, error) {
	query := `
		SELECT product_id, recorded_date FROM price_history
		WHERE recorded_date >= ? AND recorded_date <= ? AND product_id IN (?)
	`

	rows, err := s.conn.Query(ctx, query, start, end, productIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	keys := make(map[historyKey]struct{})
	for rows.Next() {
		var k historyKey
		if err := rows.Scan(&k.productID, &k.day); err != nil {
			return nil, fmt.Errorf("scan key row: %w", err)
		}
		k.day = domain.NormalizeDate(k.day)
		keys[k] = struct{}{}
	}
	return keys, rows.Err()
}

// scanPriceHistory scans multiple rows.
func scanPriceHistory(rows chRows) ([]*domain.PriceSnapshot, error) {
	var snaps []*domain.PriceSnapshot

	for rows.Next() {
		var snap domain.PriceSnapshot
		var source string

		err := rows.Scan(
			&snap.ID, &snap.ProductID, &snap.EventID, &snap.Price, &snap.RecordedDate,
			&snap.PriceChangeReason, &source, &snap.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan price history row: %w", err)
		}

		snap.RecordedDate = domain.NormalizeDate(snap.RecordedDate)
		if snap.PriceSource, err = domain.ParsePriceSource(source); err != nil {
			return nil, fmt.Errorf("scan price history row: %w", err)
		}
		snaps = append(snaps, &snap)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate price history rows: %w", err)
	}

	return snaps, nil
}
