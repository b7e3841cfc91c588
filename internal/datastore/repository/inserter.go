package repository

import (
	"context"

	"gorm.io/gorm"
)

// CreateMissing inserts the rows whose natural key is not yet stored and
// returns exactly those rows with their assigned IDs.
//
// Candidates sharing a key are collapsed to the first occurrence. Stored keys
// are detected with one chunked lookup, so calling CreateMissing repeatedly
// with overlapping batches never violates a unique index within a
// transaction. Inserts are batched by the handle's CreateBatchSize.
func CreateMissing[R Row[K], K Key](ctx context.Context, tx *gorm.DB, rows []R) ([]R, error) {
	_, created, err := reconcile[R](ctx, tx, rows)
	return created, err
}

// Reconcile ensures every natural key in rows is stored. It returns the ID of
// each key, whether found or inserted, and the number of rows inserted.
func Reconcile[R Row[K], K Key](ctx context.Context, tx *gorm.DB, rows []R) (map[K]uint, int, error) {
	existing, created, err := reconcile[R](ctx, tx, rows)
	if err != nil {
		return nil, 0, err
	}

	ids := make(map[K]uint, len(existing)+len(created))
	for k, r := range existing {
		ids[k] = r.GetID()
	}
	for i := range created {
		ids[created[i].NaturalKey()] = created[i].GetID()
	}
	return ids, len(created), nil
}

func reconcile[R Row[K], K Key](ctx context.Context, tx *gorm.DB, rows []R) (map[K]R, []R, error) {
	if len(rows) == 0 {
		return map[K]R{}, nil, nil
	}

	candidates := make([]R, 0, len(rows))
	keys := make([]K, 0, len(rows))
	seen := make(map[K]struct{}, len(rows))
	for i := range rows {
		k := rows[i].NaturalKey()
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		keys = append(keys, k)
		candidates = append(candidates, rows[i])
	}

	existing, err := ResolveKeys[R](ctx, tx, keys)
	if err != nil {
		return nil, nil, err
	}

	missing := make([]R, 0, len(candidates))
	for i := range candidates {
		if _, ok := existing[keys[i]]; ok {
			continue
		}
		missing = append(missing, candidates[i])
	}

	if len(missing) == 0 {
		return existing, nil, nil
	}

	if err := tx.WithContext(ctx).Create(&missing).Error; err != nil {
		var zero R
		return nil, nil, dbError(err, "create", zero.TableName())
	}

	return existing, missing, nil
}

// IDs indexes rows by natural key. Callers merge the result of ResolveKeys
// with the rows returned by CreateMissing through it.
func IDs[R Row[K], K Key](rows ...[]R) map[K]uint {
	n := 0
	for _, rs := range rows {
		n += len(rs)
	}
	out := make(map[K]uint, n)
	for _, rs := range rows {
		for i := range rs {
			out[rs[i].NaturalKey()] = rs[i].GetID()
		}
	}
	return out
}
