package importer

import (
	"context"

	"github.com/google/uuid"

	"github.com/tphakala/birdnet-annotations/internal/aoef"
	"github.com/tphakala/birdnet-annotations/internal/datastore/entities"
	"github.com/tphakala/birdnet-annotations/internal/datastore/repository"
)

// importSoundEventAnnotations maps sound event annotation UUIDs to stored
// IDs. The owning clip annotation is the one whose sound_events lists the
// annotation; annotations no clip annotation lists are dropped. An
// annotation unknown by UUID is matched by its (clip annotation, sound
// event) pair. Tag links are attributed to the annotation's creator.
func importSoundEventAnnotations(
	ctx context.Context,
	u *unitOfWork,
	annotations []aoef.SoundEventAnnotation,
	owners map[uuid.UUID]uuid.UUID,
	events, clipAnnotations map[uuid.UUID]uint,
	reg *registries,
) (map[uuid.UUID]uint, error) {
	rows := make([]entities.SoundEventAnnotation, 0, len(annotations))
	uuids := make([]uuid.UUID, 0, len(annotations))
	creators := make(map[uuid.UUID]uint, len(annotations))
	for i := range annotations {
		a := &annotations[i]
		eventID, ok := events[a.SoundEvent]
		if !ok {
			u.drop(KindSoundEventAnnotation, a.UUID, ReasonMissingSoundEvent, a.SoundEvent)
			continue
		}
		owner, ok := owners[a.UUID]
		if !ok {
			u.drop(KindSoundEventAnnotation, a.UUID, ReasonMissingClipAnnotation, "not listed by any clip annotation")
			continue
		}
		annotationID, ok := clipAnnotations[owner]
		if !ok {
			u.drop(KindSoundEventAnnotation, a.UUID, ReasonMissingClipAnnotation, owner)
			continue
		}

		createdBy := u.creator(a.CreatedBy, reg.users)
		if _, seen := creators[a.UUID]; !seen {
			creators[a.UUID] = createdBy
		}
		rows = append(rows, entities.SoundEventAnnotation{
			UUID:             a.UUID,
			ClipAnnotationID: annotationID,
			SoundEventID:     eventID,
			CreatedByID:      &createdBy,
			CreatedOn:        a.CreatedOn.OrNow(u.now),
		})
		uuids = append(uuids, a.UUID)
	}

	mapping, err := repository.ResolveUUIDs[entities.SoundEventAnnotation](ctx, u.tx, uuids)
	if err != nil {
		return nil, err
	}

	pairs := make([]entities.PairKey, 0, len(rows))
	for i := range rows {
		if _, ok := mapping[rows[i].UUID]; !ok {
			pairs = append(pairs, rows[i].PairKey())
		}
	}
	byPair, err := repository.LookupBy(ctx, u.tx, entities.SoundEventAnnotationPairColumns(), pairs, entities.SoundEventAnnotation.PairKey)
	if err != nil {
		return nil, err
	}

	aliases := make(map[uuid.UUID]uuid.UUID)
	firstByPair := make(map[entities.PairKey]uuid.UUID)
	pending := make([]entities.SoundEventAnnotation, 0, len(pairs))
	for i := range rows {
		row := rows[i]
		if _, ok := mapping[row.UUID]; ok {
			continue
		}
		pair := row.PairKey()
		if stored, ok := byPair[pair]; ok {
			mapping[row.UUID] = stored.ID
			continue
		}
		if first, ok := firstByPair[pair]; ok {
			if first != row.UUID {
				aliases[row.UUID] = first
			}
			continue
		}
		firstByPair[pair] = row.UUID
		pending = append(pending, row)
	}

	created, err := repository.CreateMissing[entities.SoundEventAnnotation, entities.UUIDKey](ctx, u.tx, pending)
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

	u.record(KindSoundEventAnnotation, len(mapping), len(created))

	var docNotes []aoef.Note
	for i := range annotations {
		if _, ok := mapping[annotations[i].UUID]; ok {
			docNotes = append(docNotes, annotations[i].Notes...)
		}
	}
	if err := importNotes(ctx, u, reg, docNotes); err != nil {
		return nil, err
	}

	var (
		tags  []entities.SoundEventAnnotationTag
		notes []entities.SoundEventAnnotationNote
	)
	for i := range annotations {
		a := &annotations[i]
		annotationID, ok := mapping[a.UUID]
		if !ok {
			continue
		}
		for _, tagID := range a.Tags {
			id, ok := reg.tags[tagID]
			if !ok {
				u.drop(KindSoundEventAnnotationTag, a.UUID, ReasonMissingTag, tagID)
				continue
			}
			tags = append(tags, entities.SoundEventAnnotationTag{
				SoundEventAnnotationID: annotationID,
				TagID:                  id,
				CreatedByID:            creators[a.UUID],
				CreatedOn:              u.now,
			})
		}
		for j := range a.Notes {
			id, ok := reg.notes[a.Notes[j].UUID]
			if !ok {
				u.drop(KindSoundEventAnnotationNote, a.UUID, ReasonMissingNote, a.Notes[j].UUID)
				continue
			}
			notes = append(notes, entities.SoundEventAnnotationNote{SoundEventAnnotationID: annotationID, NoteID: id})
		}
	}

	if err := createLinks[entities.SoundEventAnnotationTag, entities.TripleKey](ctx, u, KindSoundEventAnnotationTag, tags); err != nil {
		return nil, err
	}
	if err := createLinks[entities.SoundEventAnnotationNote, entities.PairKey](ctx, u, KindSoundEventAnnotationNote, notes); err != nil {
		return nil, err
	}

	return mapping, nil
}
