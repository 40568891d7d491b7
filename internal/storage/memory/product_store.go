package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"ecommerce-price-tracker/internal/domain"
	"ecommerce-price-tracker/internal/storage"
)

// ProductStore is an in-memory implementation of storage.ProductStore.
type ProductStore struct {
	mu         sync.RWMutex
	data       map[int64]*domain.Product // keyed by id
	byExternal map[int64]int64           // external_id -> id
	nextID     int64
	now        func() time.Time
}

// NewProductStore creates a new in-memory product store.
func NewProductStore() *ProductStore {
	return &ProductStore{
		data:       make(map[int64]*domain.Product),
		byExternal: make(map[int64]int64),
		nextID:     1,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// Insert adds a new product and assigns its ID. Returns ErrDuplicateKey if external_id exists.
func (s *ProductStore) Insert(_ context.Context, p *domain.Product) error {
	if p == nil {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.byExternal[p.ExternalID]; exists {
		return storage.ErrDuplicateKey
	}

	p.ID = s.nextID
	s.nextID++
	if p.CreatedAt.IsZero() {
		p.CreatedAt = s.now()
	}

	productCopy := *p
	s.data[p.ID] = &productCopy
	s.byExternal[p.ExternalID] = p.ID
	return nil
}

// GetByID retrieves a product by ID. Returns ErrNotFound if not exists.
func (s *ProductStore) GetByID(_ context.Context, id int64) (*domain.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, exists := s.data[id]
	if !exists {
		return nil, storage.ErrNotFound
	}
	productCopy := *p
	return &productCopy, nil
}

// GetByExternalID retrieves a product by its catalog ID. Returns ErrNotFound if not exists.
func (s *ProductStore) GetByExternalID(_ context.Context, externalID int64) (*domain.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, exists := s.byExternal[externalID]
	if !exists {
		return nil, storage.ErrNotFound
	}
	productCopy := *s.data[id]
	return &productCopy, nil
}

// List retrieves products ordered by rating DESC, id ASC.
func (s *ProductStore) List(_ context.Context, offset, limit int) ([]*domain.Product, error) {
	if offset < 0 || limit < 0 {
		return nil, storage.ErrInvalidInput
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	all := make([]*domain.Product, 0, len(s.data))
	for _, p := range s.data {
		productCopy := *p
		all = append(all, &productCopy)
	}
	sort.Slice(all, func(i, j int) bool {
		if all[i].Rating != all[j].Rating {
			return all[i].Rating > all[j].Rating
		}
		return all[i].ID < all[j].ID
	})

	if offset >= len(all) {
		return nil, nil
	}
	all = all[offset:]
	if limit > 0 && limit < len(all) {
		all = all[:limit]
	}
	return all, nil
}

// Count returns the number of products.
func (s *ProductStore) Count(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.data), nil
}

func (s *ProductStore) clone() *ProductStore {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c := &ProductStore{
		data:       make(map[int64]*domain.Product, len(s.data)),
		byExternal: make(map[int64]int64, len(s.byExternal)),
		nextID:     s.nextID,
		now:        s.now,
	}
	for id, p := range s.data {
		productCopy := *p
		c.data[id] = &productCopy
	}
	for ext, id := range s.byExternal {
		c.byExternal[ext] = id
	}
	return c
}

func (s *ProductStore) replace(from *ProductStore) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data = from.data
	s.byExternal = from.byExternal
	s.nextID = from.nextID
}

// Verify interface compliance at compile time.
var _ storage.ProductStore = (*ProductStore)(nil)
