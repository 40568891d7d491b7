package storage

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Tx is a unit of work spanning every store. Writes become visible to other
// units only after Commit.
type Tx interface {
	Events() EventStore
	Products() ProductStore
	Snapshots() SnapshotStore

	// LockSnapshotDate makes the caller the single owner of date for the rest
	// of the transaction. Concurrent owners block until it ends.
	LockSnapshotDate(ctx context.Context, date time.Time) error

	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// UnitOfWork starts transactions.
type UnitOfWork interface {
	Begin(ctx context.Context) (Tx, error)
}

// WithinTx runs fn inside a transaction. It commits when fn returns nil and
// rolls back on error or panic.
func WithinTx(ctx context.Context, uow UnitOfWork, fn func(tx Tx) error) (err error) {
	tx, err := uow.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}

	committed := false
	defer func() {
		if committed {
			return
		}
		if rbErr := tx.Rollback(context.WithoutCancel(ctx)); rbErr != nil && !errors.Is(rbErr, ErrTxDone) {
			err = errors.Join(err, fmt.Errorf("rollback: %w", rbErr))
		}
	}()

	if err := fn(tx); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	committed = true
	return nil
}
