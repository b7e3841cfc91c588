package importer

import (
	"context"
	"maps"
	"slices"

	"github.com/tphakala/birdnet-annotations/internal/datastore/entities"
	"github.com/tphakala/birdnet-annotations/internal/datastore/repository"
)

// importFeatureNames stores the feature names used by resolved owners and
// adds them to reg.features. Names already mapped are skipped.
func importFeatureNames(ctx context.Context, u *unitOfWork, reg *registries, features ...map[string]float64) error {
	names := make(map[string]struct{})
	for _, f := range features {
		for name := range f {
			if _, ok := reg.features[name]; !ok {
				names[name] = struct{}{}
			}
		}
	}
	if len(names) == 0 {
		return nil
	}

	rows := make([]entities.FeatureName, 0, len(names))
	for _, name := range slices.Sorted(maps.Keys(names)) {
		rows = append(rows, entities.FeatureName{Name: name, CreatedOn: u.now})
	}

	ids, created, err := repository.Reconcile[entities.FeatureName, entities.StringKey](ctx, u.tx, rows)
	if err != nil {
		return err
	}
	for name, id := range ids {
		reg.features[string(name)] = id
	}

	u.record(KindFeatureName, len(ids), created)
	return nil
}
