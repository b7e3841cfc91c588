package importer_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tphakala/birdnet-annotations/internal/aoef"
	"github.com/tphakala/birdnet-annotations/internal/datastore/entities"
	"github.com/tphakala/birdnet-annotations/internal/datastore/repository"
	"github.com/tphakala/birdnet-annotations/internal/errors"
	"github.com/tphakala/birdnet-annotations/internal/importer"
)

func datasetFixture() *aoef.Dataset {
	return &aoef.Dataset{
		UUID: uuid.New(),
		Name: ptr("Site 1"),
		Tags: []aoef.Tag{{ID: 3, Key: "habitat", Value: "forest"}},
		Recordings: []aoef.Recording{
			{UUID: uuid.New(), Path: `night1\a.wav`, Duration: 10, Channels: 1, SampleRate: 48000, Tags: []int{3}},
			{UUID: uuid.New(), Path: "night1/b.wav", Duration: 10, Channels: 2, SampleRate: 48000},
			{UUID: uuid.New(), Path: "../../elsewhere/c.wav", Duration: 10, Channels: 1, SampleRate: 48000},
		},
	}
}

func TestImportDatasetNormalisesPaths(t *testing.T) {
	store := newStore(t)
	imp := newImporter(store)

	opts := options(store)
	opts.AudioDir = "site1"
	doc := datasetFixture()

	result, err := imp.ImportDataset(context.Background(), encodeDocument(t, aoef.CollectionDataset, doc), opts)
	require.NoError(t, err)
	assert.True(t, result.Created)

	var dataset entities.Dataset
	require.NoError(t, store.DB.First(&dataset).Error)
	assert.Equal(t, "Site 1", dataset.Name)
	assert.Equal(t, "site1", dataset.AudioDir, "audio directory is stored relative to the base")

	var paths []string
	require.NoError(t, store.DB.Model(&entities.Recording{}).Order("path").Pluck("path", &paths).Error)
	assert.Equal(t, []string{"site1/night1/a.wav", "site1/night1/b.wav"}, paths)

	assert.Equal(t, int64(2), store.Count(t, &entities.DatasetRecording{}))
	assert.Equal(t, int64(1), store.Count(t, &entities.RecordingTag{}))

	require.Len(t, result.Report.Dropped, 1)
	assert.Equal(t, importer.KindRecording, result.Report.Dropped[0].Kind)
	assert.Equal(t, importer.ReasonPathOutsideAudioDir, result.Report.Dropped[0].Reason)
	assert.Equal(t, doc.Recordings[2].UUID, result.Report.Dropped[0].ID)
}

func TestImportDatasetIsIdempotent(t *testing.T) {
	store := newStore(t)
	imp := newImporter(store)
	doc := datasetFixture()

	first, err := imp.ImportDataset(context.Background(), encodeDocument(t, aoef.CollectionDataset, doc), options(store))
	require.NoError(t, err)
	before := countAll(t, store)

	second, err := imp.ImportDataset(context.Background(), encodeDocument(t, aoef.CollectionDataset, doc), options(store))
	require.NoError(t, err)

	assert.Equal(t, before, countAll(t, store))
	assert.Equal(t, first.ID, second.ID)
	assert.False(t, second.Created)
}

func TestImportDatasetNamesUnnamedDatasetAfterUUID(t *testing.T) {
	store := newStore(t)
	imp := newImporter(store)

	doc := datasetFixture()
	doc.Name = nil

	result, err := imp.ImportDataset(context.Background(), encodeDocument(t, aoef.CollectionDataset, doc), options(store))
	require.NoError(t, err)
	assert.Equal(t, doc.UUID.String(), result.Name)
}

func TestImportDatasetRejectsAudioDirOutsideBase(t *testing.T) {
	store := newStore(t)
	imp := newImporter(store)

	opts := options(store)
	opts.AudioDir = filepath.Dir(store.TempDir)

	_, err := imp.ImportDataset(context.Background(), encodeDocument(t, aoef.CollectionDataset, datasetFixture()), opts)
	require.Error(t, err)
	assert.True(t, errors.IsCategory(err, errors.CategoryValidation))
	assert.Zero(t, store.Count(t, &entities.Dataset{}))
}

func TestImportDatasetNameConflictRollsBack(t *testing.T) {
	store := newStore(t)
	imp := newImporter(store)

	require.NoError(t, store.DB.Create(&entities.Dataset{
		UUID: uuid.New(), Name: "Site 1", AudioDir: "other", CreatedOn: time.Now(),
	}).Error)
	before := countAll(t, store)

	_, err := imp.ImportDataset(context.Background(), encodeDocument(t, aoef.CollectionDataset, datasetFixture()), options(store))

	require.Error(t, err)
	assert.ErrorIs(t, err, repository.ErrDuplicateKey)
	assert.True(t, errors.IsCategory(err, errors.CategoryConflict))
	assert.Equal(t, before, countAll(t, store))
}

func TestImportDatasetExistingRecordingsOnly(t *testing.T) {
	store := newStore(t)
	imp := newImporter(store)

	doc := datasetFixture()
	existing := entities.Recording{
		UUID: uuid.New(), Path: "night1/b.wav", Duration: 10, Channels: 2,
		SampleRate: 48000, TimeExpansion: 1, CreatedOn: time.Now(),
	}
	require.NoError(t, store.DB.Create(&existing).Error)

	opts := options(store)
	opts.ExistingRecordingsOnly = true
	result, err := imp.ImportDataset(context.Background(), encodeDocument(t, aoef.CollectionDataset, doc), opts)
	require.NoError(t, err)

	assert.Equal(t, int64(1), store.Count(t, &entities.Recording{}))
	var link entities.DatasetRecording
	require.NoError(t, store.DB.First(&link).Error)
	assert.Equal(t, existing.ID, link.RecordingID)

	reasons := make(map[string]int)
	for _, d := range result.Report.Dropped {
		reasons[d.Reason]++
	}
	assert.Equal(t, map[string]int{
		importer.ReasonRecordingNotInStore: 1,
		importer.ReasonPathOutsideAudioDir: 1,
	}, reasons)
}

func TestImportDatasetRejectsProjectDocument(t *testing.T) {
	store := newStore(t)
	imp := newImporter(store)

	_, err := imp.ImportDataset(context.Background(),
		encodeDocument(t, aoef.CollectionAnnotationProject, scenarioProject()), options(store))

	var fe *aoef.FormatError
	require.True(t, errors.As(err, &fe))
	assert.Equal(t, aoef.FormatDataset, fe.Format)
	assert.Equal(t, "annotation_project", fe.Detected)
	assert.Zero(t, store.Count(t, &entities.Recording{}))
}
