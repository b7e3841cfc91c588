package importer

import (
	"context"

	"github.com/google/uuid"

	"github.com/tphakala/birdnet-annotations/internal/aoef"
	"github.com/tphakala/birdnet-annotations/internal/datastore/entities"
	"github.com/tphakala/birdnet-annotations/internal/datastore/repository"
)

// taskRefs are the resolved references annotation tasks depend on.
type taskRefs struct {
	projectID       uint
	clips           map[uuid.UUID]uint
	clipAnnotations map[uuid.UUID]uint
	// annotationByClip maps a clip UUID to the document's clip annotation of it.
	annotationByClip map[uuid.UUID]uuid.UUID
	users            map[uuid.UUID]uint
}

// importAnnotationTasks maps task UUIDs to stored task IDs. A project holds
// one task per clip, so a task unknown by UUID is matched by its clip. A new
// task whose clip has no clip annotation in the document gets an empty one.
// Status badges without a resolvable owner are attributed to the importing
// user.
func importAnnotationTasks(ctx context.Context, u *unitOfWork, tasks []aoef.AnnotationTask, refs taskRefs) (map[uuid.UUID]uint, error) {
	type candidate struct {
		obj    *aoef.AnnotationTask
		clipID uint
	}

	candidates := make([]candidate, 0, len(tasks))
	uuids := make([]uuid.UUID, 0, len(tasks))
	for i := range tasks {
		t := &tasks[i]
		clipID, ok := refs.clips[t.Clip]
		if !ok {
			u.drop(KindAnnotationTask, t.UUID, ReasonMissingClip, t.Clip)
			continue
		}
		candidates = append(candidates, candidate{obj: t, clipID: clipID})
		uuids = append(uuids, t.UUID)
	}

	mapping, err := repository.ResolveUUIDs[entities.AnnotationTask](ctx, u.tx, uuids)
	if err != nil {
		return nil, err
	}

	keys := make([]entities.PairKey, 0, len(candidates))
	for _, c := range candidates {
		if _, ok := mapping[c.obj.UUID]; !ok {
			keys = append(keys, entities.PairKey{A: refs.projectID, B: c.clipID})
		}
	}
	byClip, err := repository.LookupBy(ctx, u.tx, entities.TaskClipColumns(), keys, entities.AnnotationTask.ClipKey)
	if err != nil {
		return nil, err
	}

	aliases := make(map[uuid.UUID]uuid.UUID)
	firstByClip := make(map[uint]uuid.UUID)
	pending := make([]candidate, 0, len(keys))
	for _, c := range candidates {
		id := c.obj.UUID
		if _, ok := mapping[id]; ok {
			continue
		}
		if stored, ok := byClip[entities.PairKey{A: refs.projectID, B: c.clipID}]; ok {
			mapping[id] = stored.ID
			continue
		}
		if first, ok := firstByClip[c.clipID]; ok {
			if first != id {
				aliases[id] = first
			}
			continue
		}
		firstByClip[c.clipID] = id
		pending = append(pending, c)
	}

	// Clip annotations for pending tasks, creating empty ones where needed.
	annotationFor := make(map[uuid.UUID]uint, len(pending))
	var empty []entities.ClipAnnotation
	emptyFor := make(map[uuid.UUID]uuid.UUID)
	for _, c := range pending {
		if caUUID, ok := refs.annotationByClip[c.obj.Clip]; ok {
			if caID, ok := refs.clipAnnotations[caUUID]; ok {
				annotationFor[c.obj.UUID] = caID
				continue
			}
		}
		ca := entities.ClipAnnotation{UUID: uuid.New(), ClipID: c.clipID, CreatedOn: u.now}
		empty = append(empty, ca)
		emptyFor[c.obj.UUID] = ca.UUID
	}
	if len(empty) > 0 {
		created, err := repository.CreateMissing[entities.ClipAnnotation, entities.UUIDKey](ctx, u.tx, empty)
		if err != nil {
			return nil, err
		}
		ids := repository.IDs[entities.ClipAnnotation, entities.UUIDKey](created)
		for taskUUID, caUUID := range emptyFor {
			annotationFor[taskUUID] = ids[entities.UUIDKey(caUUID)]
		}
		u.record(KindClipAnnotation, len(created), len(created))
	}

	rows := make([]entities.AnnotationTask, 0, len(pending))
	for _, c := range pending {
		rows = append(rows, entities.AnnotationTask{
			UUID:                c.obj.UUID,
			AnnotationProjectID: refs.projectID,
			ClipID:              c.clipID,
			ClipAnnotationID:    annotationFor[c.obj.UUID],
			CreatedOn:           c.obj.CreatedOn.OrNow(u.now),
		})
	}

	created, err := repository.CreateMissing[entities.AnnotationTask, entities.UUIDKey](ctx, u.tx, rows)
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

	u.record(KindAnnotationTask, len(mapping), len(created))

	if err := importStatusBadges(ctx, u, tasks, mapping, refs.users); err != nil {
		return nil, err
	}
	return mapping, nil
}

func importStatusBadges(ctx context.Context, u *unitOfWork, tasks []aoef.AnnotationTask, mapping, users map[uuid.UUID]uint) error {
	var badges []entities.AnnotationStatusBadge
	for i := range tasks {
		t := &tasks[i]
		taskID, ok := mapping[t.UUID]
		if !ok {
			continue
		}
		for _, b := range t.StatusBadges {
			badges = append(badges, entities.AnnotationStatusBadge{
				AnnotationTaskID: taskID,
				UserID:           u.creator(b.Owner, users),
				State:            b.State,
				CreatedOn:        b.CreatedOn.OrNow(u.now),
			})
		}
	}
	return createLinks[entities.AnnotationStatusBadge, entities.BadgeKey](ctx, u, KindStatusBadge, badges)
}
