package importer

import (
	"context"

	"github.com/google/uuid"

	"github.com/tphakala/birdnet-annotations/internal/aoef"
	"github.com/tphakala/birdnet-annotations/internal/datastore/entities"
	"github.com/tphakala/birdnet-annotations/internal/datastore/repository"
)

// anchorProject returns the project with the document's UUID, creating it
// when absent. An existing project is never modified.
func anchorProject(ctx context.Context, u *unitOfWork, p *aoef.AnnotationProject) (*entities.AnnotationProject, bool, error) {
	key := entities.UUIDKey(p.UUID)
	found, err := repository.ResolveKeys[entities.AnnotationProject](ctx, u.tx, []entities.UUIDKey{key})
	if err != nil {
		return nil, false, err
	}
	if project, ok := found[key]; ok {
		return &project, false, nil
	}

	created, err := repository.CreateMissing[entities.AnnotationProject, entities.UUIDKey](ctx, u.tx, []entities.AnnotationProject{{
		UUID:         p.UUID,
		Name:         deref(p.Name),
		Description:  deref(p.Description),
		Instructions: deref(p.Instructions),
		CreatedOn:    p.CreatedOn.OrNow(u.now),
	}})
	if err != nil {
		return nil, false, err
	}
	return &created[0], true, nil
}

// importProjectTags links the document's project tags to the project.
func importProjectTags(ctx context.Context, u *unitOfWork, projectID uint, projectUUID uuid.UUID, projectTags []int, tags map[int]uint) error {
	rows := make([]entities.AnnotationProjectTag, 0, len(projectTags))
	for _, tagID := range projectTags {
		id, ok := tags[tagID]
		if !ok {
			u.drop(KindProjectTag, projectUUID, ReasonMissingTag, tagID)
			continue
		}
		rows = append(rows, entities.AnnotationProjectTag{
			AnnotationProjectID: projectID,
			TagID:               id,
			CreatedOn:           u.now,
		})
	}
	return createLinks[entities.AnnotationProjectTag, entities.PairKey](ctx, u, KindProjectTag, rows)
}

// importProject runs every step of an annotation project import in
// dependency order. The anchor is stored in result as soon as it is known.
func importProject(ctx context.Context, u *unitOfWork, p *aoef.AnnotationProject, result *Result) error {
	project, created, err := anchorProject(ctx, u, p)
	if err != nil {
		return err
	}
	result.ID = project.ID
	result.Name = project.Name
	result.Created = created

	reg := newRegistries()
	var recordings, clips, events, clipAnnotations map[uuid.UUID]uint

	steps := registrySteps(u, reg, p.Tags, p.Users)
	steps = append(steps,
		importStep{"recordings", func(ctx context.Context) (err error) {
			recordings, err = importRecordings(ctx, u, p.Recordings, reg)
			return err
		}},
		importStep{"clips", func(ctx context.Context) (err error) {
			clips, err = importClips(ctx, u, p.Clips, recordings, reg)
			return err
		}},
		importStep{"sound events", func(ctx context.Context) (err error) {
			events, err = importSoundEvents(ctx, u, p.SoundEvents, recordings, reg)
			return err
		}},
		importStep{"clip annotations", func(ctx context.Context) (err error) {
			clipAnnotations, err = importClipAnnotations(ctx, u, p.ClipAnnotations, clips, reg)
			return err
		}},
		importStep{"sound event annotations", func(ctx context.Context) error {
			_, err := importSoundEventAnnotations(ctx, u, p.SoundEventAnnotations,
				soundEventOwners(p.ClipAnnotations), events, clipAnnotations, reg)
			return err
		}},
		importStep{"annotation tasks", func(ctx context.Context) error {
			_, err := importAnnotationTasks(ctx, u, p.Tasks, taskRefs{
				projectID:        project.ID,
				clips:            clips,
				clipAnnotations:  clipAnnotations,
				annotationByClip: clipAnnotationsByClip(p.ClipAnnotations),
				users:            reg.users,
			})
			return err
		}},
		importStep{"project tags", func(ctx context.Context) error {
			return importProjectTags(ctx, u, project.ID, p.UUID, p.ProjectTags, reg.tags)
		}},
	)

	return runSteps(ctx, u, steps)
}
