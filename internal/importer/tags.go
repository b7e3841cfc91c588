package importer

import (
	"context"

	"github.com/tphakala/birdnet-annotations/internal/aoef"
	"github.com/tphakala/birdnet-annotations/internal/datastore/entities"
	"github.com/tphakala/birdnet-annotations/internal/datastore/repository"
)

// importTags maps document tag ids to stored tag IDs. Tags are matched by
// (key, value); when a document reuses an id the first tag wins.
func importTags(ctx context.Context, u *unitOfWork, tags []aoef.Tag) (map[int]uint, error) {
	rows := make([]entities.Tag, 0, len(tags))
	for _, t := range tags {
		rows = append(rows, entities.Tag{Key: t.Key, Value: t.Value, CreatedOn: u.now})
	}

	ids, created, err := repository.Reconcile[entities.Tag, entities.TagKey](ctx, u.tx, rows)
	if err != nil {
		return nil, err
	}

	mapping := make(map[int]uint, len(tags))
	for _, t := range tags {
		if _, ok := mapping[t.ID]; ok {
			continue
		}
		mapping[t.ID] = ids[entities.TagKey{Key: t.Key, Value: t.Value}]
	}

	u.record(KindTag, len(mapping), created)
	return mapping, nil
}
