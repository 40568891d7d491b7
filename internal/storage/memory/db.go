package memory

import (
	"context"
	"sync"
	"time"

	"ecommerce-price-tracker/internal/storage"
)

// DB groups the in-memory stores behind a storage.UnitOfWork.
//
// Only one transaction is open at a time: Begin blocks until the previous
// transaction commits or rolls back. A transaction works on private copies of
// the stores, so Rollback simply drops them.
type DB struct {
	sem       chan struct{}
	events    *EventStore
	products  *ProductStore
	snapshots *SnapshotStore
}

// NewDB creates an empty in-memory database.
func NewDB() *DB {
	return &DB{
		sem:       make(chan struct{}, 1),
		events:    NewEventStore(),
		products:  NewProductStore(),
		snapshots: NewSnapshotStore(),
	}
}

// Events returns the committed event store.
func (db *DB) Events() *EventStore { return db.events }

// Products returns the committed product store.
func (db *DB) Products() *ProductStore { return db.products }

// Snapshots returns the committed snapshot store.
func (db *DB) Snapshots() *SnapshotStore { return db.snapshots }

// Begin starts a transaction, waiting for any open one to finish.
func (db *DB) Begin(ctx context.Context) (storage.Tx, error) {
	select {
	case db.sem <- struct{}{}:
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	return &tx{
		db:        db,
		events:    db.events.clone(),
		products:  db.products.clone(),
		snapshots: db.snapshots.clone(),
	}, nil
}

type tx struct {
	db        *DB
	mu        sync.Mutex
	done      bool
	events    *EventStore
	products  *ProductStore
	snapshots *SnapshotStore
}

func (t *tx) Events() storage.EventStore       { return t.events }
func (t *tx) Products() storage.ProductStore   { return t.products }
func (t *tx) Snapshots() storage.SnapshotStore { return t.snapshots }

// LockSnapshotDate is satisfied by Begin already holding the database exclusively.
func (t *tx) LockSnapshotDate(ctx context.Context, _ time.Time) error {
	return ctx.Err()
}

func (t *tx) Commit(_ context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.done {
		return storage.ErrTxDone
	}

	t.db.events.replace(t.events)
	t.db.products.replace(t.products)
	t.db.snapshots.replace(t.snapshots)
	t.finish()
	return nil
}

func (t *tx) Rollback(_ context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.done {
		return storage.ErrTxDone
	}
	t.finish()
	return nil
}

// finish releases the database. Caller holds t.mu.
func (t *tx) finish() {
	t.done = true
	<-t.db.sem
}

// Verify interface compliance at compile time.
var _ storage.UnitOfWork = (*DB)(nil)
