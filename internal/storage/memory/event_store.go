package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"ecommerce-price-tracker/internal/domain"
	"ecommerce-price-tracker/internal/storage"
)

// EventStore is an in-memory implementation of storage.EventStore.
type EventStore struct {
	mu     sync.RWMutex
	data   map[int64]*domain.Event // keyed by id
	nextID int64
	now    func() time.Time
}

// NewEventStore creates a new in-memory event store.
func NewEventStore() *EventStore {
	return &EventStore{
		data:   make(map[int64]*domain.Event),
		nextID: 1,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// Insert adds a new event and assigns its ID. Returns ErrDuplicateKey if the name exists.
func (s *EventStore) Insert(_ context.Context, e *domain.Event) error {
	if e == nil || e.Name == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.data {
		if existing.Name == e.Name {
			return storage.ErrDuplicateKey
		}
	}

	e.ID = s.nextID
	s.nextID++
	if e.CreatedAt.IsZero() {
		e.CreatedAt = s.now()
	}

	eventCopy := *e
	eventCopy.StartDate = domain.NormalizeDate(e.StartDate)
	eventCopy.EndDate = domain.NormalizeDate(e.EndDate)
	s.data[e.ID] = &eventCopy
	return nil
}

// GetByID retrieves an event by ID. Returns ErrNotFound if not exists.
func (s *EventStore) GetByID(_ context.Context, id int64) (*domain.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, exists := s.data[id]
	if !exists {
		return nil, storage.ErrNotFound
	}
	eventCopy := *e
	return &eventCopy, nil
}

// GetByName retrieves an event by its unique name. Returns ErrNotFound if not exists.
func (s *EventStore) GetByName(_ context.Context, name string) (*domain.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, e := range s.data {
		if e.Name == name {
			eventCopy := *e
			return &eventCopy, nil
		}
	}
	return nil, storage.ErrNotFound
}

// List retrieves all events ordered by start_date ASC, id ASC.
func (s *EventStore) List(_ context.Context) ([]*domain.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*domain.Event, 0, len(s.data))
	for _, e := range s.data {
		eventCopy := *e
		result = append(result, &eventCopy)
	}
	sortEvents(result)
	return result, nil
}

// ListOverlapping retrieves events whose active window intersects [start, end].
func (s *EventStore) ListOverlapping(_ context.Context, start, end time.Time) ([]*domain.Event, error) {
	start, end = domain.NormalizeDate(start), domain.NormalizeDate(end)

	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.Event
	for _, e := range s.data {
		if !e.StartDate.After(end) && !e.EndDate.Before(start) {
			eventCopy := *e
			result = append(result, &eventCopy)
		}
	}
	sortEvents(result)
	return result, nil
}

// Count returns the number of events.
func (s *EventStore) Count(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.data), nil
}

func (s *EventStore) clone() *EventStore {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c := &EventStore{data: make(map[int64]*domain.Event, len(s.data)), nextID: s.nextID, now: s.now}
	for id, e := range s.data {
		eventCopy := *e
		c.data[id] = &eventCopy
	}
	return c
}

func (s *EventStore) replace(from *EventStore) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data = from.data
	s.nextID = from.nextID
}

func sortEvents(events []*domain.Event) {
	sort.Slice(events, func(i, j int) bool {
		if !events[i].StartDate.Equal(events[j].StartDate) {
			return events[i].StartDate.Before(events[j].StartDate)
		}
		return events[i].ID < events[j].ID
	})
}

// Verify interface compliance at compile time.
var _ storage.EventStore = (*EventStore)(nil)
