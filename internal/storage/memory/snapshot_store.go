package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"ecommerce-price-tracker/internal/domain"
	"ecommerce-price-tracker/internal/storage"
)

type snapshotKey struct {
	productID int64
	day       int64 // unix seconds of the normalized date
}

func keyOf(productID int64, date time.Time) snapshotKey {
	return snapshotKey{productID: productID, day: domain.NormalizeDate(date).Unix()}
}

// SnapshotStore is an in-memory implementation of storage.SnapshotStore and
// storage.PriceHistoryStore.
type SnapshotStore struct {
	mu     sync.RWMutex
	data   map[snapshotKey]*domain.PriceSnapshot // keyed by (product_id, recorded_date)
	nextID int64
	now    func() time.Time
}

// NewSnapshotStore creates a new in-memory snapshot store.
func NewSnapshotStore() *SnapshotStore {
	return &SnapshotStore{
		data:   make(map[snapshotKey]*domain.PriceSnapshot),
		nextID: 1,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// Insert adds a new snapshot and assigns its ID.
// Returns ErrDuplicateKey if (product_id, recorded_date) exists.
func (s *SnapshotStore) Insert(_ context.Context, snap *domain.PriceSnapshot) error {
	if snap == nil || snap.ProductID == 0 || snap.RecordedDate.IsZero() {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	key := keyOf(snap.ProductID, snap.RecordedDate)
	if _, exists := s.data[key]; exists {
		return storage.ErrDuplicateKey
	}

	s.put(key, snap)
	return nil
}

// InsertBulk adds multiple snapshots. Fails entire batch on any duplicate.
func (s *SnapshotStore) InsertBulk(_ context.Context, snaps []*domain.PriceSnapshot) error {
	if len(snaps) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	batchKeys := make(map[snapshotKey]struct{}, len(snaps))
	for _, snap := range snaps {
		if snap == nil || snap.ProductID == 0 || snap.RecordedDate.IsZero() {
			return storage.ErrInvalidInput
		}
		key := keyOf(snap.ProductID, snap.RecordedDate)
		if _, exists := s.data[key]; exists {
			return storage.ErrDuplicateKey
		}
		if _, exists := batchKeys[key]; exists {
			return storage.ErrDuplicateKey
		}
		batchKeys[key] = struct{}{}
	}

	for _, snap := range snaps {
		s.put(keyOf(snap.ProductID, snap.RecordedDate), snap)
	}
	return nil
}

// put stores a copy of snap. Caller holds the write lock.
func (s *SnapshotStore) put(key snapshotKey, snap *domain.PriceSnapshot) {
	if snap.ID == 0 {
		snap.ID = s.nextID
	}
	if snap.ID >= s.nextID {
		s.nextID = snap.ID + 1
	}
	if snap.CreatedAt.IsZero() {
		snap.CreatedAt = s.now()
	}
	snap.RecordedDate = domain.NormalizeDate(snap.RecordedDate)

	s.data[key] = copySnapshot(snap)
}

// Get retrieves the snapshot for (productID, date). Returns ErrNotFound if not exists.
func (s *SnapshotStore) Get(_ context.Context, productID int64, date time.Time) (*domain.PriceSnapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap, exists := s.data[keyOf(productID, date)]
	if !exists {
		return nil, storage.ErrNotFound
	}
	return copySnapshot(snap), nil
}

// Exists reports whether a snapshot for (productID, date) exists.
func (s *SnapshotStore) Exists(_ context.Context, productID int64, date time.Time) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, exists := s.data[keyOf(productID, date)]
	return exists, nil
}

// GetByProductRange retrieves snapshots for a product within [start, end] (inclusive).
func (s *SnapshotStore) GetByProductRange(_ context.Context, productID int64, start, end time.Time) ([]*domain.PriceSnapshot, error) {
	start, end = domain.NormalizeDate(start), domain.NormalizeDate(end)

	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.PriceSnapshot
	for _, snap := range s.data {
		if snap.ProductID == productID && inRange(snap.RecordedDate, start, end) {
			result = append(result, copySnapshot(snap))
		}
	}
	sortSnapshots(result)
	return result, nil
}

// GetByDateRange retrieves all snapshots within [start, end] (inclusive).
func (s *SnapshotStore) GetByDateRange(_ context.Context, start, end time.Time) ([]*domain.PriceSnapshot, error) {
	start, end = domain.NormalizeDate(start), domain.NormalizeDate(end)

	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.PriceSnapshot
	for _, snap := range s.data {
		if inRange(snap.RecordedDate, start, end) {
			result = append(result, copySnapshot(snap))
		}
	}
	sortSnapshots(result)
	return result, nil
}

// Count returns the number of snapshots.
func (s *SnapshotStore) Count(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.data), nil
}

func (s *SnapshotStore) clone() *SnapshotStore {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c := &SnapshotStore{data: make(map[snapshotKey]*domain.PriceSnapshot, len(s.data)), nextID: s.nextID, now: s.now}
	for k, snap := range s.data {
		c.data[k] = copySnapshot(snap)
	}
	return c
}

func (s *SnapshotStore) replace(from *SnapshotStore) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data = from.data
	s.nextID = from.nextID
}

func inRange(d, start, end time.Time) bool {
	return !d.Before(start) && !d.After(end)
}

func copySnapshot(snap *domain.PriceSnapshot) *domain.PriceSnapshot {
	snapCopy := *snap
	if snap.EventID != nil {
		id := *snap.EventID
		snapCopy.EventID = &id
	}
	return &snapCopy
}

func sortSnapshots(snaps []*domain.PriceSnapshot) {
	sort.Slice(snaps, func(i, j int) bool {
		if !snaps[i].RecordedDate.Equal(snaps[j].RecordedDate) {
			return snaps[i].RecordedDate.Before(snaps[j].RecordedDate)
		}
		return snaps[i].ProductID < snaps[j].ProductID
	})
}

// Verify interface compliance at compile time.
var (
	_ storage.SnapshotStore     = (*SnapshotStore)(nil)
	_ storage.PriceHistoryStore = (*SnapshotStore)(nil)
)
