package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"ecommerce-price-tracker/internal/domain"
	"ecommerce-price-tracker/internal/storage"
)

// snapshotLockClass namespaces the advisory locks taken by LockSnapshotDate.
const snapshotLockClass int32 = 0x70726963

// DB implements storage.UnitOfWork on top of a connection pool.
type DB struct {
	pool *Pool
}

// NewDB creates a unit of work over pool.
func NewDB(pool *Pool) *DB {
	return &DB{pool: pool}
}

// Compile-time interface check.
var _ storage.UnitOfWork = (*DB)(nil)

// Begin starts a read-committed transaction.
func (db *DB) Begin(ctx context.Context) (storage.Tx, error) {
	pgTx, err := db.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted})
	if err != nil {
		return nil, fmt.Errorf("begin postgres transaction: %w", err)
	}
	return &Tx{
		tx:        pgTx,
		events:    &EventStore{q: pgTx},
		products:  &ProductStore{q: pgTx},
		snapshots: &SnapshotStore{q: pgTx},
	}, nil
}

// Tx is a storage.Tx backed by pgx.Tx.
type Tx struct {
	tx        pgx.Tx
	events    *EventStore
	products  *ProductStore
	snapshots *SnapshotStore
}

func (t *Tx) Events() storage.EventStore       { return t.events }
func (t *Tx) Products() storage.ProductStore   { return t.products }
func (t *Tx) Snapshots() storage.SnapshotStore { return t.snapshots }

// LockSnapshotDate takes a transaction-scoped advisory lock keyed by the
// day number of date. It is released on commit or rollback.
func (t *Tx) LockSnapshotDate(ctx context.Context, date time.Time) error {
	day := int32(domain.NormalizeDate(date).Unix() / 86400)
	if _, err := t.tx.Exec(ctx, `SELECT pg_advisory_xact_lock($1, $2)`, snapshotLockClass, day); err != nil {
		return fmt.Errorf("lock snapshot date %s: %w", date.Format(domain.DateLayout), err)
	}
	return nil
}

func (t *Tx) Commit(ctx context.Context) error {
	if err := t.tx.Commit(ctx); err != nil {
		if isTxClosedError(err) {
			return storage.ErrTxDone
		}
		return err
	}
	return nil
}

func (t *Tx) Rollback(ctx context.Context) error {
	if err := t.tx.Rollback(ctx); err != nil {
		if isTxClosedError(err) {
			return storage.ErrTxDone
		}
		return err
	}
	return nil
}
