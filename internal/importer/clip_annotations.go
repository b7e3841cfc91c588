package importer

import (
	"context"

	"github.com/google/uuid"

	"github.com/tphakala/birdnet-annotations/internal/aoef"
	"github.com/tphakala/birdnet-annotations/internal/datastore/entities"
	"github.com/tphakala/birdnet-annotations/internal/datastore/repository"
)

// importClipAnnotations maps clip annotation UUIDs to stored IDs. Tag links
// are attributed to the importing user.
func importClipAnnotations(ctx context.Context, u *unitOfWork, annotations []aoef.ClipAnnotation, clips map[uuid.UUID]uint, reg *registries) (map[uuid.UUID]uint, error) {
	rows := make([]entities.ClipAnnotation, 0, len(annotations))
	for i := range annotations {
		a := &annotations[i]
		clipID, ok := clips[a.Clip]
		if !ok {
			u.drop(KindClipAnnotation, a.UUID, ReasonMissingClip, a.Clip)
			continue
		}
		rows = append(rows, entities.ClipAnnotation{
			UUID:      a.UUID,
			ClipID:    clipID,
			CreatedOn: a.CreatedOn.OrNow(u.now),
		})
	}

	ids, created, err := repository.Reconcile[entities.ClipAnnotation, entities.UUIDKey](ctx, u.tx, rows)
	if err != nil {
		return nil, err
	}
	mapping := byUUID(ids)
	u.record(KindClipAnnotation, len(mapping), created)

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
		tags  []entities.ClipAnnotationTag
		notes []entities.ClipAnnotationNote
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
				u.drop(KindClipAnnotationTag, a.UUID, ReasonMissingTag, tagID)
				continue
			}
			tags = append(tags, entities.ClipAnnotationTag{
				ClipAnnotationID: annotationID,
				TagID:            id,
				CreatedByID:      u.importedBy,
				CreatedOn:        u.now,
			})
		}
		for j := range a.Notes {
			id, ok := reg.notes[a.Notes[j].UUID]
			if !ok {
				u.drop(KindClipAnnotationNote, a.UUID, ReasonMissingNote, a.Notes[j].UUID)
				continue
			}
			notes = append(notes, entities.ClipAnnotationNote{ClipAnnotationID: annotationID, NoteID: id})
		}
	}

	if err := createLinks[entities.ClipAnnotationTag, entities.TripleKey](ctx, u, KindClipAnnotationTag, tags); err != nil {
		return nil, err
	}
	if err := createLinks[entities.ClipAnnotationNote, entities.PairKey](ctx, u, KindClipAnnotationNote, notes); err != nil {
		return nil, err
	}

	return mapping, nil
}

// soundEventOwners maps each sound event annotation UUID to the clip
// annotation that lists it. The first listing wins.
func soundEventOwners(annotations []aoef.ClipAnnotation) map[uuid.UUID]uuid.UUID {
	owners := make(map[uuid.UUID]uuid.UUID)
	for i := range annotations {
		for _, sea := range annotations[i].SoundEvents {
			if _, ok := owners[sea]; !ok {
				owners[sea] = annotations[i].UUID
			}
		}
	}
	return owners
}

// clipAnnotationsByClip maps each clip UUID to its first clip annotation UUID.
func clipAnnotationsByClip(annotations []aoef.ClipAnnotation) map[uuid.UUID]uuid.UUID {
	byClip := make(map[uuid.UUID]uuid.UUID)
	for i := range annotations {
		if _, ok := byClip[annotations[i].Clip]; !ok {
			byClip[annotations[i].Clip] = annotations[i].UUID
		}
	}
	return byClip
}
