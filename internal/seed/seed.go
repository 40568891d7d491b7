package seed

import (
	"context"
	"errors"
	"fmt"

	"ecommerce-price-tracker/internal/domain"
	"ecommerce-price-tracker/internal/storage"
)

// Result counts the outcome of a seeding pass.
type Result struct {
	Created int
	Skipped int
}

// SeedEvents inserts events that are not yet stored, matching by name.
// Every event is validated before anything is written; an invalid event
// aborts the whole pass with *domain.ConfigurationError.
func SeedEvents(ctx context.Context, uow storage.UnitOfWork, events []*domain.Event) (Result, error) {
	for _, e := range events {
		if err := e.Validate(); err != nil {
			return Result{}, err
		}
	}

	var res Result
	err := storage.WithinTx(ctx, uow, func(tx storage.Tx) error {
		res = Result{}
		for _, e := range events {
			created, err := seedOne(ctx, tx.Events(), e)
			if err != nil {
				return err
			}
			if created {
				res.Created++
			} else {
				res.Skipped++
			}
		}
		return nil
	})
	if err != nil {
		return Result{}, err
	}
	return res, nil
}

func seedOne(ctx context.Context, store storage.EventStore, e *domain.Event) (bool, error) {
	_, err := store.GetByName(ctx, e.Name)
	if err == nil {
		return false, nil
	}
	if !errors.Is(err, storage.ErrNotFound) {
		return false, fmt.Errorf("lookup event %q: %w", e.Name, err)
	}

	ev := *e
	if err := store.Insert(ctx, &ev); err != nil {
		if errors.Is(err, storage.ErrDuplicateKey) {
			return false, nil
		}
		return false, fmt.Errorf("insert event %q: %w", e.Name, err)
	}
	return true, nil
}
