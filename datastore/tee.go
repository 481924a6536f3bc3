package datastore

import (
	"context"
	"errors"
	"fmt"

	"github.com/gurbos/tcc/encode"
)

type tee struct {
	primary Store
	mirrors []Store
}

// Tee returns a Store that writes to primary and every mirror. Reads are
// served by primary alone.
func Tee(primary Store, mirrors ...Store) Store {
	if len(mirrors) == 0 {
		return primary
	}
	return &tee{primary: primary, mirrors: mirrors}
}

func (t *tee) Upsert(ctx context.Context, recs ...encode.Record) error {
	if err := t.primary.Upsert(ctx, recs...); err != nil {
		return err
	}
	for i, m := range t.mirrors {
		if err := m.Upsert(ctx, recs...); err != nil {
			return fmt.Errorf("Error writing to mirror %d: %w", i, err)
		}
	}
	return nil
}

func (t *tee) DeleteExcept(ctx context.Context, keep []int64) (int64, error) {
	removed, err := t.primary.DeleteExcept(ctx, keep)
	if err != nil {
		return 0, err
	}
	for i, m := range t.mirrors {
		if _, err := m.DeleteExcept(ctx, keep); err != nil {
			return removed, fmt.Errorf("Error pruning mirror %d: %w", i, err)
		}
	}
	return removed, nil
}

func (t *tee) IDs(ctx context.Context) ([]int64, error) {
	return t.primary.IDs(ctx)
}

func (t *tee) Get(ctx context.Context, id int64) (encode.Record, error) {
	return t.primary.Get(ctx, id)
}

func (t *tee) Close() error {
	errs := []error{t.primary.Close()}
	for _, m := range t.mirrors {
		errs = append(errs, m.Close())
	}
	return errors.Join(errs...)
}

// SaveSetCodes forwards to primary when it keeps a setcodes table.
func (t *tee) SaveSetCodes(ctx context.Context, codes encode.SetCodes) error {
	if s, ok := t.primary.(SetCodeSaver); ok {
		return s.SaveSetCodes(ctx, codes)
	}
	return nil
}
