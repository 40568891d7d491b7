package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"ecommerce-price-tracker/internal/domain"
	"ecommerce-price-tracker/internal/storage"
)

// EventStore implements storage.EventStore using PostgreSQL.
type EventStore struct {
	q querier
}

// NewEventStore creates a new EventStore.
func NewEventStore(pool *Pool) *EventStore {
	return &EventStore{q: pool}
}

// Compile-time interface check.
var _ storage.EventStore = (*EventStore)(nil)

const eventColumns = `id, name, start_date, end_date, pre_event_days,
	pre_event_uplift_min, pre_event_uplift_max, discount_min, discount_max,
	noise_enabled, created_at`

// Insert adds a new event and assigns its ID. Returns ErrDuplicateKey if the name exists.
func (s *EventStore) Insert(ctx context.Context, e *domain.Event) error {
	if e == nil || e.Name == "" {
		return storage.ErrInvalidInput
	}

	query := `
		INSERT INTO events (
			name, start_date, end_date, pre_event_days,
			pre_event_uplift_min, pre_event_uplift_max, discount_min, discount_max, noise_enabled
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (name) DO NOTHING
		RETURNING id, created_at
	`

	err := s.q.QueryRow(ctx, query,
		e.Name,
		domain.NormalizeDate(e.StartDate),
		domain.NormalizeDate(e.EndDate),
		e.PreEventDays,
		e.PreEventUpliftMin,
		e.PreEventUpliftMax,
		e.DiscountMin,
		e.DiscountMax,
		e.NoiseEnabled,
	).Scan(&e.ID, &e.CreatedAt)
	if err != nil {
		if isNotFoundError(err) || isDuplicateKeyError(err) {
			return storage.ErrDuplicateKey
		}
		return fmt.Errorf("insert event: %w", err)
	}
	return nil
}

// GetByID retrieves an event by ID. Returns ErrNotFound if not exists.
func (s *EventStore) GetByID(ctx context.Context, id int64) (*domain.Event, error) {
	query := `SELECT ` + eventColumns + ` FROM events WHERE id = $1`

	e, err := scanEvent(s.q.QueryRow(ctx, query, id))
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get event by id: %w", err)
	}
	return e, nil
}

// GetByName retrieves an event by its unique name. Returns ErrNotFound if not exists.
func (s *EventStore) GetByName(ctx context.Context, name string) (*domain.Event, error) {
	query := `SELECT ` + eventColumns + ` FROM events WHERE name = $1`

	e, err := scanEvent(s.q.QueryRow(ctx, query, name))
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get event by name: %w", err)
	}
	return e, nil
}

// List retrieves all events ordered by start_date ASC, id ASC.
func (s *EventStore) List(ctx context.Context) ([]*domain.Event, error) {
	query := `SELECT ` + eventColumns + ` FROM events ORDER BY start_date ASC, id ASC`

	rows, err := s.q.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	defer rows.Close()

	return scanEvents(rows)
}

// ListOverlapping retrieves events whose active window intersects [start, end].
func (s *EventStore) ListOverlapping(ctx context.Context, start, end time.Time) ([]*domain.Event, error) {
	query := `
		SELECT ` + eventColumns + `
		FROM events
		WHERE start_date <= $2 AND end_date >= $1
		ORDER BY start_date ASC, id ASC
	`

	rows, err := s.q.Query(ctx, query, domain.NormalizeDate(start), domain.NormalizeDate(end))
	if err != nil {
		return nil, fmt.Errorf("list overlapping events: %w", err)
	}
	defer rows.Close()

	return scanEvents(rows)
}

// Count returns the number of events.
func (s *EventStore) Count(ctx context.Context) (int, error) {
	var count int
	if err := s.q.QueryRow(ctx, `SELECT COUNT(*) FROM events`).Scan(&count); err != nil {
		return 0, fmt.Errorf("count events: %w", err)
	}
	return count, nil
}

// scanEvent scans a single row into an Event.
func scanEvent(row pgx.Row) (*domain.Event, error) {
	var e domain.Event
	err := row.Scan(
		&e.ID,
		&e.Name,
		&e.StartDate,
		&e.EndDate,
		&e.PreEventDays,
		&e.PreEventUpliftMin,
		&e.PreEventUpliftMax,
		&e.DiscountMin,
		&e.DiscountMax,
		&e.NoiseEnabled,
		&e.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	e.StartDate = domain.NormalizeDate(e.StartDate)
	e.EndDate = domain.NormalizeDate(e.EndDate)
	return &e, nil
}

// scanEvents scans multiple rows into a slice of Event.
func scanEvents(rows pgx.Rows) ([]*domain.Event, error) {
	var events []*domain.Event
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("scan event row: %w", err)
		}
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate event rows: %w", err)
	}
	return events, nil
}
