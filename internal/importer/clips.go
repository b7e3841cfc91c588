package importer

import (
	"context"

	"github.com/google/uuid"

	"github.com/tphakala/birdnet-annotations/internal/aoef"
	"github.com/tphakala/birdnet-annotations/internal/datastore/entities"
	"github.com/tphakala/birdnet-annotations/internal/datastore/repository"
)

// importClips maps clip UUIDs to stored clip IDs. A clip unknown by UUID is
// matched by its (recording, start, end) span; clips of an unresolved
// recording are dropped.
func importClips(ctx context.Context, u *unitOfWork, clips []aoef.Clip, recordings map[uuid.UUID]uint, reg *registries) (map[uuid.UUID]uint, error) {
	rows := make([]entities.Clip, 0, len(clips))
	uuids := make([]uuid.UUID, 0, len(clips))
	for i := range clips {
		c := &clips[i]
		recID, ok := recordings[c.Recording]
		if !ok {
			u.drop(KindClip, c.UUID, ReasonMissingRecording, c.Recording)
			continue
		}
		rows = append(rows, entities.Clip{
			UUID:        c.UUID,
			RecordingID: recID,
			StartTime:   c.StartTime,
			EndTime:     c.EndTime,
			CreatedOn:   u.now,
		})
		uuids = append(uuids, c.UUID)
	}

	mapping, err := repository.ResolveUUIDs[entities.Clip](ctx, u.tx, uuids)
	if err != nil {
		return nil, err
	}

	spans := make([]entities.SpanKey, 0, len(rows))
	for i := range rows {
		if _, ok := mapping[rows[i].UUID]; !ok {
			spans = append(spans, rows[i].SpanKey())
		}
	}
	bySpan, err := repository.LookupBy(ctx, u.tx, entities.SpanColumns(), spans, entities.Clip.SpanKey)
	if err != nil {
		return nil, err
	}

	aliases := make(map[uuid.UUID]uuid.UUID)
	firstBySpan := make(map[entities.SpanKey]uuid.UUID)
	pending := make([]entities.Clip, 0, len(spans))
	for i := range rows {
		row := rows[i]
		if _, ok := mapping[row.UUID]; ok {
			continue
		}
		span := row.SpanKey()
		if stored, ok := bySpan[span]; ok {
			mapping[row.UUID] = stored.ID
			continue
		}
		if first, ok := firstBySpan[span]; ok {
			if first != row.UUID {
				aliases[row.UUID] = first
			}
			continue
		}
		firstBySpan[span] = row.UUID
		pending = append(pending, row)
	}

	created, err := repository.CreateMissing[entities.Clip, entities.UUIDKey](ctx, u.tx, pending)
	if err != nil {
		return nil, err
	}
	for i := range created {
		mapping[created[i].UUID] = created[i].ID
	}
	for alias, first := range aliases {
		if stored, ok := mapping[first]; ok {
			mapping[alias] = stored
		}
	}

	u.record(KindClip, len(mapping), len(created))

	var featureSets []map[string]float64
	for i := range clips {
		if _, ok := mapping[clips[i].UUID]; ok {
			featureSets = append(featureSets, clips[i].Features)
		}
	}
	if err := importFeatureNames(ctx, u, reg, featureSets...); err != nil {
		return nil, err
	}

	var links []entities.ClipFeature
	for i := range clips {
		c := &clips[i]
		clipID, ok := mapping[c.UUID]
		if !ok {
			continue
		}
		for name, value := range c.Features {
			id, ok := reg.features[name]
			if !ok {
				u.drop(KindClipFeature, c.UUID, ReasonMissingFeature, name)
				continue
			}
			links = append(links, entities.ClipFeature{ClipID: clipID, FeatureNameID: id, Value: value})
		}
	}
	if err := createLinks[entities.ClipFeature, entities.PairKey](ctx, u, KindClipFeature, links); err != nil {
		return nil, err
	}

	return mapping, nil
}
