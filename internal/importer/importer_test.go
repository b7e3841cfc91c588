package importer_test

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"github.com/tphakala/birdnet-annotations/internal/aoef"
	"github.com/tphakala/birdnet-annotations/internal/datastore/entities"
	"github.com/tphakala/birdnet-annotations/internal/datastore/repository"
	"github.com/tphakala/birdnet-annotations/internal/errors"
	"github.com/tphakala/birdnet-annotations/internal/importer"
	"github.com/tphakala/birdnet-annotations/internal/observability/metrics"
)

func TestImportAnnotationProjectCreatesOneRowPerEntity(t *testing.T) {
	store := newStore(t)
	imp := newImporter(store)
	doc := scenarioProject()

	result := importProject(t, imp, store, doc)

	assert.Equal(t, doc.UUID, result.UUID)
	assert.True(t, result.Created)
	assert.Equal(t, "Bat calls", result.Name)
	assert.Empty(t, result.Report.Dropped)

	counts := countAll(t, store)
	for _, table := range []string{
		"annotation_projects", "tags", "recordings", "clips", "sound_events",
		"clip_annotations", "sound_event_annotations", "annotation_tasks",
		"annotation_project_tags", "notes", "feature_names",
	} {
		assert.Equal(t, int64(1), counts[table], table)
	}
	assert.Equal(t, int64(2), counts["users"], "importing user plus alice")

	var tag entities.Tag
	require.NoError(t, store.DB.First(&tag).Error)

	var seaTags []entities.SoundEventAnnotationTag
	require.NoError(t, store.DB.Find(&seaTags).Error)
	require.Len(t, seaTags, 1)
	assert.Equal(t, tag.ID, seaTags[0].TagID)

	var alice entities.User
	require.NoError(t, store.DB.Where("username = ?", "alice").First(&alice).Error)
	assert.Equal(t, alice.ID, seaTags[0].CreatedByID, "sound event annotation tags belong to the annotation's creator")

	var project entities.AnnotationProject
	require.NoError(t, store.DB.First(&project).Error)
	assert.Equal(t, "Tag every pass", project.Instructions)

	require.Len(t, result.ProjectTags, 1)
	assert.Equal(t, tag.ID, result.ProjectTags[0].ID)
	cached, ok := imp.TagCache().Get(result.ID)
	require.True(t, ok)
	assert.Equal(t, result.ProjectTags, cached)

	assert.Equal(t, 1, result.Stats[importer.KindRecording].Created)
	assert.Equal(t, 1, result.Stats[importer.KindUser].Mapped)
}

func TestImportAnnotationProjectIsIdempotent(t *testing.T) {
	store := newStore(t)
	imp := newImporter(store)
	doc := scenarioProject()

	first := importProject(t, imp, store, doc)
	after := countAll(t, store)

	second := importProject(t, imp, store, doc)

	assert.Equal(t, after, countAll(t, store))
	assert.Equal(t, doc.UUID, second.UUID)
	assert.Equal(t, first.ID, second.ID)
	assert.False(t, second.Created)
	for kind, s := range second.Stats {
		assert.Zero(t, s.Created, kind)
		assert.Equal(t, first.Stats[kind].Mapped, s.Mapped, kind)
	}
}

func TestImportDropsClipAnnotationWithUnknownClip(t *testing.T) {
	store := newStore(t)
	imp := newImporter(store)

	doc := scenarioProject()
	orphan := aoef.ClipAnnotation{
		UUID:        uuid.New(),
		Clip:        uuid.New(),
		Tags:        []int{1},
		SoundEvents: []uuid.UUID{uuid.New()},
	}
	doc.ClipAnnotations = append(doc.ClipAnnotations, orphan)

	result := importProject(t, imp, store, doc)

	assert.True(t, result.Created)
	assert.Equal(t, int64(1), store.Count(t, &entities.AnnotationProject{}))
	assert.Equal(t, int64(1), store.Count(t, &entities.ClipAnnotation{}), "valid sibling still imported")
	assert.Equal(t, int64(1), store.Count(t, &entities.ClipAnnotationTag{}))

	require.Len(t, result.Report.Dropped, 1)
	dropped := result.Report.Dropped[0]
	assert.Equal(t, importer.KindClipAnnotation, dropped.Kind)
	assert.Equal(t, orphan.UUID, dropped.ID)
	assert.Equal(t, importer.ReasonMissingClip, dropped.Reason)
	assert.Equal(t, orphan.Clip.String(), dropped.Detail)
}

func TestImportDropsOrphansAcrossKinds(t *testing.T) {
	store := newStore(t)
	imp := newImporter(store)

	doc := scenarioProject()
	missingRecording := uuid.New()
	doc.Clips = append(doc.Clips, aoef.Clip{UUID: uuid.New(), Recording: missingRecording, EndTime: 1})
	doc.SoundEvents = append(doc.SoundEvents, aoef.SoundEvent{
		UUID:      uuid.New(),
		Recording: missingRecording,
		Geometry:  aoef.Geometry{Type: "TimeInterval", Coordinates: json.RawMessage(`[0,1]`)},
	})
	unlisted := aoef.SoundEventAnnotation{UUID: uuid.New(), SoundEvent: doc.SoundEvents[0].UUID}
	doc.SoundEventAnnotations = append(doc.SoundEventAnnotations, unlisted)
	doc.Recordings[0].Tags = append(doc.Recordings[0].Tags, 42)
	doc.ProjectTags = append(doc.ProjectTags, 42)

	result := importProject(t, imp, store, doc)

	assert.Equal(t, int64(1), store.Count(t, &entities.Clip{}))
	assert.Equal(t, int64(1), store.Count(t, &entities.SoundEvent{}))
	assert.Equal(t, int64(1), store.Count(t, &entities.SoundEventAnnotation{}))
	assert.Equal(t, int64(1), store.Count(t, &entities.RecordingTag{}))
	assert.Equal(t, int64(1), store.Count(t, &entities.AnnotationProjectTag{}))

	assert.Equal(t, map[string]int{
		importer.KindClip:                 1,
		importer.KindSoundEvent:           1,
		importer.KindSoundEventAnnotation: 1,
		importer.KindRecordingTag:         1,
		importer.KindProjectTag:           1,
	}, result.Report.DroppedByKind())
}

func TestImportStoresNothingForDroppedOwners(t *testing.T) {
	store := newStore(t)
	imp := newImporter(store)

	doc := scenarioProject()
	escaping := aoef.Recording{
		UUID: uuid.New(), Path: "../outside.wav", Duration: 1, Channels: 1, SampleRate: 8000,
		Features: map[string]float64{"peak_frequency": 40000},
		Notes:    []aoef.Note{{UUID: uuid.New(), Message: "recording outside the audio directory"}},
	}
	doc.Recordings = append(doc.Recordings, escaping)
	doc.Clips = append(doc.Clips, aoef.Clip{
		UUID: uuid.New(), Recording: uuid.New(), EndTime: 1,
		Features: map[string]float64{"bandwidth": 12},
	})
	doc.ClipAnnotations = append(doc.ClipAnnotations, aoef.ClipAnnotation{
		UUID:  uuid.New(),
		Clip:  uuid.New(),
		Notes: []aoef.Note{{UUID: uuid.New(), Message: "annotation of an unknown clip"}},
	})

	result := importProject(t, imp, store, doc)

	assert.Equal(t, map[string]int{
		importer.KindRecording:      1,
		importer.KindClip:           1,
		importer.KindClipAnnotation: 1,
	}, result.Report.DroppedByKind())

	var messages []string
	require.NoError(t, store.DB.Model(&entities.Note{}).Pluck("message", &messages).Error)
	assert.Equal(t, []string{"wind noise"}, messages)

	var names []string
	require.NoError(t, store.DB.Model(&entities.FeatureName{}).Pluck("name", &names).Error)
	assert.Equal(t, []string{"snr"}, names)

	assert.Equal(t, 1, result.Stats[importer.KindNote].Mapped)
	assert.Equal(t, 1, result.Stats[importer.KindFeatureName].Mapped)
}

func TestImportRejectsDatasetDocumentWithoutWriting(t *testing.T) {
	store := newStore(t)
	rec := newRecorder()
	imp := newImporter(store, importer.WithMetrics(rec))
	before := countAll(t, store)

	dataset := &aoef.Dataset{UUID: uuid.New(), Name: ptr("Site 1")}
	_, err := imp.ImportAnnotationProject(context.Background(),
		encodeDocument(t, aoef.CollectionDataset, dataset), options(store))

	var fe *aoef.FormatError
	require.True(t, errors.As(err, &fe), "expected *aoef.FormatError, got %v", err)
	assert.Equal(t, "dataset", fe.Detected)
	assert.Contains(t, fe.Message, "Detected object type: 'dataset'")

	assert.Equal(t, before, countAll(t, store))
	assert.Equal(t, 1, rec.imports[aoef.CollectionAnnotationProject+"/"+metrics.StatusRejected])
}

func TestImportCollapsesEqualNaturalKeys(t *testing.T) {
	store := newStore(t)
	imp := newImporter(store)

	doc := scenarioProject()
	// A second document id for the same (key, value).
	doc.Tags = append(doc.Tags, aoef.Tag{ID: 2, Key: "species", Value: "Myotis myotis"})
	doc.ClipAnnotations[0].Tags = []int{1, 2}
	doc.ProjectTags = []int{1, 2}

	hash := "3f786850e387550fdab836ed7e6dc881de23001b"
	doc.Recordings[0].Hash = &hash
	duplicate := doc.Recordings[0]
	duplicate.UUID = uuid.New()
	duplicate.Path = "site1/copy-of-night1.wav"
	duplicate.Notes = nil
	doc.Recordings = append(doc.Recordings, duplicate)
	doc.Clips = append(doc.Clips, aoef.Clip{UUID: uuid.New(), Recording: duplicate.UUID, StartTime: 0, EndTime: 5})

	result := importProject(t, imp, store, doc)

	assert.Equal(t, int64(1), store.Count(t, &entities.Tag{}))
	assert.Equal(t, int64(1), store.Count(t, &entities.ClipAnnotationTag{}))
	assert.Equal(t, int64(1), store.Count(t, &entities.AnnotationProjectTag{}))
	assert.Equal(t, int64(1), store.Count(t, &entities.Recording{}))
	assert.Equal(t, int64(1), store.Count(t, &entities.Clip{}), "same span on the same recording")
	assert.Equal(t, 2, result.Stats[importer.KindRecording].Mapped)
	assert.Equal(t, 1, result.Stats[importer.KindRecording].Created)
}

func TestImportReusesRecordingByPath(t *testing.T) {
	store := newStore(t)
	imp := newImporter(store)

	existing := entities.Recording{
		UUID: uuid.New(), Path: "site1/night1.wav", Duration: 60, Channels: 1,
		SampleRate: 192000, TimeExpansion: 1, CreatedOn: time.Now(),
	}
	require.NoError(t, store.DB.Create(&existing).Error)

	result := importProject(t, imp, store, scenarioProject())

	assert.Equal(t, int64(1), store.Count(t, &entities.Recording{}))
	assert.Zero(t, result.Stats[importer.KindRecording].Created)

	var clip entities.Clip
	require.NoError(t, store.DB.First(&clip).Error)
	assert.Equal(t, existing.ID, clip.RecordingID)
}

func TestImportRenamesCollidingUsername(t *testing.T) {
	store := newStore(t)
	imp := newImporter(store)

	require.NoError(t, store.DB.Create(&entities.User{UUID: uuid.New(), Username: "alice", CreatedOn: time.Now()}).Error)

	doc := scenarioProject()
	importProject(t, imp, store, doc)

	var imported entities.User
	require.NoError(t, store.DB.Where("uuid = ?", doc.Users[0].UUID).First(&imported).Error)
	assert.Equal(t, "alice-"+doc.Users[0].UUID.String()[:8], imported.Username)
	assert.Equal(t, "Alice", imported.Name)
}

func TestImportCreatesClipAnnotationForBareTask(t *testing.T) {
	store := newStore(t)
	imp := newImporter(store)

	doc := scenarioProject()
	bareClip := aoef.Clip{UUID: uuid.New(), Recording: doc.Recordings[0].UUID, StartTime: 5, EndTime: 10}
	doc.Clips = append(doc.Clips, bareClip)
	ghost := uuid.New()
	doc.Tasks = append(doc.Tasks, aoef.AnnotationTask{
		UUID:         uuid.New(),
		Clip:         bareClip.UUID,
		StatusBadges: []aoef.StatusBadge{{State: entities.StateAssigned, Owner: &ghost}},
	})

	importProject(t, imp, store, doc)

	assert.Equal(t, int64(2), store.Count(t, &entities.AnnotationTask{}))
	assert.Equal(t, int64(2), store.Count(t, &entities.ClipAnnotation{}))

	var clip entities.Clip
	require.NoError(t, store.DB.Where("uuid = ?", bareClip.UUID).First(&clip).Error)
	var task entities.AnnotationTask
	require.NoError(t, store.DB.Preload("ClipAnnotation").Where("clip_id = ?", clip.ID).First(&task).Error)
	require.NotNil(t, task.ClipAnnotation)
	assert.Equal(t, clip.ID, task.ClipAnnotation.ClipID)

	var importing entities.User
	require.NoError(t, store.DB.Where("username = ?", importingUser).First(&importing).Error)
	var badge entities.AnnotationStatusBadge
	require.NoError(t, store.DB.Where("annotation_task_id = ?", task.ID).First(&badge).Error)
	assert.Equal(t, importing.ID, badge.UserID, "unresolved badge owner falls back to the importing user")

	// A second run must not add another empty clip annotation.
	importProject(t, imp, store, doc)
	assert.Equal(t, int64(2), store.Count(t, &entities.ClipAnnotation{}))
}

func TestImportRequiresExistingImportingUser(t *testing.T) {
	store := newStore(t)
	imp := newImporter(store)

	opts := options(store)
	opts.ImportedBy = "nobody"
	_, err := imp.ImportAnnotationProject(context.Background(),
		encodeDocument(t, aoef.CollectionAnnotationProject, scenarioProject()), opts)

	require.Error(t, err)
	assert.ErrorIs(t, err, importer.ErrImportingUserNotFound)
	assert.True(t, errors.IsCategory(err, errors.CategoryValidation))
	assert.Zero(t, store.Count(t, &entities.AnnotationProject{}))
}

func TestImportHonoursCancelledContext(t *testing.T) {
	store := newStore(t)
	imp := newImporter(store)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := imp.ImportAnnotationProject(ctx,
		encodeDocument(t, aoef.CollectionAnnotationProject, scenarioProject()), options(store))

	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, store.Count(t, &entities.AnnotationProject{}))
	assert.Zero(t, store.Count(t, &entities.Tag{}))
}

func TestImportRecordsMetrics(t *testing.T) {
	store := newStore(t)
	rec := newRecorder()
	imp := newImporter(store, importer.WithMetrics(rec))

	doc := scenarioProject()
	doc.ProjectTags = append(doc.ProjectTags, 7)
	importProject(t, imp, store, doc)

	assert.Equal(t, 1, rec.imports[aoef.CollectionAnnotationProject+"/"+metrics.StatusSuccess])
	assert.Equal(t, 1, rec.created[importer.KindTag])
	assert.Equal(t, 1, rec.created[importer.KindRecording])
	assert.Equal(t, 1, rec.dropped[importer.KindProjectTag+"/"+importer.ReasonMissingTag])
	assert.Equal(t, 1, rec.cache[metrics.OpCacheRefresh])
}

func TestImportRefreshesSharedTagCache(t *testing.T) {
	store := newStore(t)
	cache := repository.NewProjectTagCache(time.Minute)
	imp := newImporter(store, importer.WithTagCache(cache))

	doc := scenarioProject()
	first := importProject(t, imp, store, doc)
	require.Len(t, first.ProjectTags, 1)

	doc.Tags = append(doc.Tags, aoef.Tag{ID: 2, Key: "call", Value: "feeding buzz"})
	doc.ProjectTags = append(doc.ProjectTags, 2)
	importProject(t, imp, store, doc)

	tags, ok := cache.Get(first.ID)
	require.True(t, ok)
	assert.Len(t, tags, 2)
}

func TestImportDisjointProjectsConcurrently(t *testing.T) {
	store := newStore(t)
	imp := newImporter(store)

	const n = 6
	docs := make([]io.Reader, n)
	for i := range docs {
		doc := scenarioProject()
		doc.Name = ptr(fmt.Sprintf("Night %d", i))
		doc.Users[0].Username = ptr(fmt.Sprintf("annotator-%d", i))
		doc.Tags[0].Value = fmt.Sprintf("Species %d", i)
		doc.Recordings[0].Path = fmt.Sprintf("site%d/night.wav", i)
		docs[i] = encodeDocument(t, aoef.CollectionAnnotationProject, doc)
	}

	var g errgroup.Group
	for _, doc := range docs {
		g.Go(func() error {
			_, err := imp.ImportAnnotationProject(context.Background(), doc, options(store))
			return err
		})
	}
	require.NoError(t, g.Wait())

	assert.Equal(t, int64(n), store.Count(t, &entities.AnnotationProject{}))
	assert.Equal(t, int64(n), store.Count(t, &entities.Tag{}))
	assert.Equal(t, int64(n), store.Count(t, &entities.Recording{}))
	assert.Equal(t, int64(n+1), store.Count(t, &entities.User{}))
}
