package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tphakala/birdnet-annotations/internal/datastore/entities"
)

// maxParams bounds the bound parameters of one lookup statement. SQLite
// builds before 3.32 reject more than 999.
const maxParams = 500

// Key is a natural key: comparable so it can index a map, with Values in
// KeyColumns order.
type Key interface {
	comparable
	Values() []any
}

// Row is a storable entity with a natural key.
type Row[K Key] interface {
	TableName() string
	KeyColumns() []string
	NaturalKey() K
	GetID() uint
}

// ResolveUUIDs returns the surrogate key of every UUID already stored in the
// table of R. UUIDs without a row are absent from the result. Empty input
// returns an empty map without querying.
func ResolveUUIDs[R entities.Identified](ctx context.Context, tx *gorm.DB, uuids []uuid.UUID) (map[uuid.UUID]uint, error) {
	var zero R
	return ResolveColumn(ctx, tx, zero.TableName(), "uuid", uuids)
}

// ResolveColumn maps values of a unique column to row IDs.
func ResolveColumn[V comparable](ctx context.Context, tx *gorm.DB, table, column string, values []V) (map[V]uint, error) {
	result := make(map[V]uint, len(values))
	if len(values) == 0 {
		return result, nil
	}

	values = uniqueValues(values)

	type idValue struct {
		ID       uint
		KeyValue V
	}

	for chunk := range chunks(values, maxParams) {
		var found []idValue
		err := tx.WithContext(ctx).
			Table(table).
			Select(fmt.Sprintf("id, %s AS key_value", tx.Statement.Quote(column))).
			Where(fmt.Sprintf("%s IN ?", tx.Statement.Quote(column)), chunk).
			Scan(&found).Error
		if err != nil {
			return nil, dbError(err, "resolve "+column, table)
		}
		for _, f := range found {
			result[f.KeyValue] = f.ID
		}
	}

	return result, nil
}

// LookupBy loads the rows of R whose columns match any of keys and indexes
// them by keyOf. It backs secondary natural keys such as a clip's span.
func LookupBy[R any, K Key](ctx context.Context, tx *gorm.DB, columns []string, keys []K, keyOf func(R) K) (map[K]R, error) {
	result := make(map[K]R, len(keys))
	if len(keys) == 0 {
		return result, nil
	}
	if len(columns) == 0 {
		return nil, ErrInvalidKey
	}

	keys = uniqueValues(keys)

	quoted := make([]string, len(columns))
	for i, c := range columns {
		quoted[i] = tx.Statement.Quote(c)
	}

	chunkSize := max(1, maxParams/len(columns))
	for chunk := range chunks(keys, chunkSize) {
		cond, args, err := keyCondition(quoted, chunk)
		if err != nil {
			return nil, err
		}

		var found []R
		if err := tx.WithContext(ctx).Where(cond, args...).Find(&found).Error; err != nil {
			var zero R
			return nil, dbError(err, "lookup "+strings.Join(columns, ","), tableOf(zero))
		}
		for _, r := range found {
			result[keyOf(r)] = r
		}
	}

	return result, nil
}

// ResolveKeys loads the stored rows of R matching the given natural keys.
func ResolveKeys[R Row[K], K Key](ctx context.Context, tx *gorm.DB, keys []K) (map[K]R, error) {
	var zero R
	return LookupBy(ctx, tx, zero.KeyColumns(), keys, func(r R) K { return r.NaturalKey() })
}

// keyCondition builds the predicate matching any of keys. Single-column keys
// use IN; composite keys use a disjunction of column equalities, since SQLite
// only accepts a subquery on the right of a row-value IN.
func keyCondition[K Key](quoted []string, keys []K) (string, []any, error) {
	if len(quoted) == 1 {
		values := make([]any, len(keys))
		for i, k := range keys {
			v := k.Values()
			if len(v) != 1 {
				return "", nil, ErrInvalidKey
			}
			values[i] = v[0]
		}
		return quoted[0] + " IN ?", []any{values}, nil
	}

	parts := make([]string, len(quoted))
	for i, q := range quoted {
		parts[i] = q + " = ?"
	}
	term := "(" + strings.Join(parts, " AND ") + ")"

	var sb strings.Builder
	args := make([]any, 0, len(keys)*len(quoted))
	for i, k := range keys {
		v := k.Values()
		if len(v) != len(quoted) {
			return "", nil, ErrInvalidKey
		}
		if i > 0 {
			sb.WriteString(" OR ")
		}
		sb.WriteString(term)
		args = append(args, v...)
	}
	return sb.String(), args, nil
}

func tableOf(v any) string {
	if t, ok := v.(interface{ TableName() string }); ok {
		return t.TableName()
	}
	return fmt.Sprintf("%T", v)
}

// uniqueValues returns values without duplicates, preserving first occurrence order.
func uniqueValues[V comparable](values []V) []V {
	seen := make(map[V]struct{}, len(values))
	out := make([]V, 0, len(values))
	for _, v := range values {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}

// chunks yields consecutive sub-slices of at most size elements.
func chunks[V any](values []V, size int) func(yield func([]V) bool) {
	return func(yield func([]V) bool) {
		for start := 0; start < len(values); start += size {
			end := min(start+size, len(values))
			if !yield(values[start:end]) {
				return
			}
		}
	}
}
