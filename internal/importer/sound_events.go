package importer

import (
	"context"

	"github.com/google/uuid"

	"github.com/tphakala/birdnet-annotations/internal/aoef"
	"github.com/tphakala/birdnet-annotations/internal/datastore/entities"
	"github.com/tphakala/birdnet-annotations/internal/datastore/repository"
)

// importSoundEvents maps sound event UUIDs to stored sound event IDs.
// Geometry is stored as its type and raw JSON coordinates.
func importSoundEvents(ctx context.Context, u *unitOfWork, events []aoef.SoundEvent, recordings map[uuid.UUID]uint, reg *registries) (map[uuid.UUID]uint, error) {
	rows := make([]entities.SoundEvent, 0, len(events))
	for i := range events {
		e := &events[i]
		recID, ok := recordings[e.Recording]
		if !ok {
			u.drop(KindSoundEvent, e.UUID, ReasonMissingRecording, e.Recording)
			continue
		}
		rows = append(rows, entities.SoundEvent{
			UUID:         e.UUID,
			RecordingID:  recID,
			GeometryType: e.Geometry.Type,
			Geometry:     string(e.Geometry.Coordinates),
			CreatedOn:    u.now,
		})
	}

	ids, created, err := repository.Reconcile[entities.SoundEvent, entities.UUIDKey](ctx, u.tx, rows)
	if err != nil {
		return nil, err
	}
	mapping := byUUID(ids)
	u.record(KindSoundEvent, len(mapping), created)

	var featureSets []map[string]float64
	for i := range events {
		if _, ok := mapping[events[i].UUID]; ok {
			featureSets = append(featureSets, events[i].Features)
		}
	}
	if err := importFeatureNames(ctx, u, reg, featureSets...); err != nil {
		return nil, err
	}

	var links []entities.SoundEventFeature
	for i := range events {
		e := &events[i]
		eventID, ok := mapping[e.UUID]
		if !ok {
			continue
		}
		for name, value := range e.Features {
			id, ok := reg.features[name]
			if !ok {
				u.drop(KindSoundEventFeature, e.UUID, ReasonMissingFeature, name)
				continue
			}
			links = append(links, entities.SoundEventFeature{SoundEventID: eventID, FeatureNameID: id, Value: value})
		}
	}
	if err := createLinks[entities.SoundEventFeature, entities.PairKey](ctx, u, KindSoundEventFeature, links); err != nil {
		return nil, err
	}

	return mapping, nil
}
