package importer

import (
	"context"

	"github.com/google/uuid"

	"github.com/tphakala/birdnet-annotations/internal/aoef"
	"github.com/tphakala/birdnet-annotations/internal/datastore/entities"
	"github.com/tphakala/birdnet-annotations/internal/datastore/repository"
)

// anchorDataset returns the dataset with the document's UUID, creating it
// when absent. Unnamed datasets are named after their UUID, since dataset
// names are unique.
func anchorDataset(ctx context.Context, u *unitOfWork, d *aoef.Dataset, audioDir string) (*entities.Dataset, bool, error) {
	key := entities.UUIDKey(d.UUID)
	found, err := repository.ResolveKeys[entities.Dataset](ctx, u.tx, []entities.UUIDKey{key})
	if err != nil {
		return nil, false, err
	}
	if dataset, ok := found[key]; ok {
		return &dataset, false, nil
	}

	name := deref(d.Name)
	if name == "" {
		name = d.UUID.String()
	}

	created, err := repository.CreateMissing[entities.Dataset, entities.UUIDKey](ctx, u.tx, []entities.Dataset{{
		UUID:        d.UUID,
		Name:        name,
		Description: deref(d.Description),
		AudioDir:    audioDir,
		CreatedOn:   d.CreatedOn.OrNow(u.now),
	}})
	if err != nil {
		return nil, false, err
	}
	return &created[0], true, nil
}

// importDataset runs every step of a dataset import in dependency order.
func importDataset(ctx context.Context, u *unitOfWork, d *aoef.Dataset, audioDir string, result *Result) error {
	dataset, created, err := anchorDataset(ctx, u, d, audioDir)
	if err != nil {
		return err
	}
	result.ID = dataset.ID
	result.Name = dataset.Name
	result.Created = created

	reg := newRegistries()
	var recordings map[uuid.UUID]uint

	steps := registrySteps(u, reg, d.Tags, d.Users)
	steps = append(steps,
		importStep{"recordings", func(ctx context.Context) (err error) {
			recordings, err = importRecordings(ctx, u, d.Recordings, reg)
			return err
		}},
		importStep{"dataset recordings", func(ctx context.Context) error {
			return linkDatasetRecordings(ctx, u, dataset.ID, d.Recordings, recordings)
		}},
	)

	return runSteps(ctx, u, steps)
}

func linkDatasetRecordings(ctx context.Context, u *unitOfWork, datasetID uint, docRecordings []aoef.Recording, recordings map[uuid.UUID]uint) error {
	rows := make([]entities.DatasetRecording, 0, len(docRecordings))
	for i := range docRecordings {
		id, ok := recordings[docRecordings[i].UUID]
		if !ok {
			continue
		}
		rows = append(rows, entities.DatasetRecording{DatasetID: datasetID, RecordingID: id, CreatedOn: u.now})
	}
	return createLinks[entities.DatasetRecording, entities.PairKey](ctx, u, KindDatasetRecording, rows)
}
