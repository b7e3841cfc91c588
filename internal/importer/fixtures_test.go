package importer_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/tphakala/birdnet-annotations/internal/aoef"
	"github.com/tphakala/birdnet-annotations/internal/datastore/entities"
	"github.com/tphakala/birdnet-annotations/internal/datastore/testutil"
	"github.com/tphakala/birdnet-annotations/internal/importer"
)

const importingUser = "importer"

func ptr[T any](v T) *T { return &v }

// encodeDocument wraps data in an AOEF envelope of the given collection type.
func encodeDocument(t *testing.T, collectionType string, data any) io.Reader {
	t.Helper()

	raw, err := json.Marshal(data)
	require.NoError(t, err)

	var fields map[string]any
	require.NoError(t, json.Unmarshal(raw, &fields))
	fields["collection_type"] = collectionType

	doc, err := json.Marshal(map[string]any{
		"version":    "1.1.0",
		"created_on": "2024-03-01T10:00:00Z",
		"data":       fields,
	})
	require.NoError(t, err)
	return bytes.NewReader(doc)
}

// newStore returns a migrated store holding the importing user.
func newStore(t *testing.T) *testutil.TestStore {
	t.Helper()
	store := testutil.NewSQLiteStore(t)
	require.NoError(t, store.DB.Create(&entities.User{
		UUID:      uuid.New(),
		Username:  importingUser,
		CreatedOn: time.Now(),
	}).Error)
	return store
}

func newImporter(store *testutil.TestStore, opts ...importer.Option) *importer.Importer {
	opts = append([]importer.Option{importer.WithLogger(store.Logger)}, opts...)
	return importer.New(store.DB, opts...)
}

func options(store *testutil.TestStore) importer.Options {
	return importer.Options{
		AudioDir:     store.TempDir,
		BaseAudioDir: store.TempDir,
		ImportedBy:   importingUser,
	}
}

func importProject(t *testing.T, imp *importer.Importer, store *testutil.TestStore, p *aoef.AnnotationProject) *importer.Result {
	t.Helper()
	result, err := imp.ImportAnnotationProject(context.Background(),
		encodeDocument(t, aoef.CollectionAnnotationProject, p), options(store))
	require.NoError(t, err)
	return result
}

// scenarioProject is a project with one of everything, all sharing the tag
// ("species", "Myotis myotis").
func scenarioProject() *aoef.AnnotationProject {
	annotator := uuid.New()
	recording := uuid.New()
	clip := uuid.New()
	event := uuid.New()
	clipAnnotation := uuid.New()
	eventAnnotation := uuid.New()

	return &aoef.AnnotationProject{
		UUID:         uuid.New(),
		Name:         ptr("Bat calls"),
		Instructions: ptr("Tag every pass"),
		Users:        []aoef.User{{UUID: annotator, Username: ptr("alice"), Name: ptr("Alice")}},
		Tags:         []aoef.Tag{{ID: 1, Key: "species", Value: "Myotis myotis"}},
		Recordings: []aoef.Recording{{
			UUID:       recording,
			Path:       "site1/night1.wav",
			Duration:   60,
			Channels:   1,
			SampleRate: 192000,
			Tags:       []int{1},
			Features:   map[string]float64{"snr": 14.2},
			Owners:     []uuid.UUID{annotator},
			Notes:      []aoef.Note{{UUID: uuid.New(), Message: "wind noise", CreatedBy: &annotator}},
		}},
		Clips: []aoef.Clip{{
			UUID:      clip,
			Recording: recording,
			StartTime: 0,
			EndTime:   5,
			Features:  map[string]float64{"snr": 10},
		}},
		SoundEvents: []aoef.SoundEvent{{
			UUID:      event,
			Recording: recording,
			Geometry: aoef.Geometry{
				Type:        "BoundingBox",
				Coordinates: json.RawMessage(`[1.2,20000,1.3,45000]`),
			},
		}},
		ClipAnnotations: []aoef.ClipAnnotation{{
			UUID:        clipAnnotation,
			Clip:        clip,
			Tags:        []int{1},
			SoundEvents: []uuid.UUID{eventAnnotation},
		}},
		SoundEventAnnotations: []aoef.SoundEventAnnotation{{
			UUID:       eventAnnotation,
			SoundEvent: event,
			Tags:       []int{1},
			CreatedBy:  &annotator,
		}},
		Tasks: []aoef.AnnotationTask{{
			UUID: uuid.New(),
			Clip: clip,
			StatusBadges: []aoef.StatusBadge{
				{State: entities.StateCompleted, Owner: &annotator},
			},
		}},
		ProjectTags: []int{1},
	}
}

// countAll returns the row count of every table.
func countAll(t *testing.T, store *testutil.TestStore) map[string]int64 {
	t.Helper()
	counts := make(map[string]int64)
	for _, model := range entities.Models() {
		table := model.(interface{ TableName() string }).TableName()
		counts[table] = store.Count(t, model)
	}
	return counts
}

// recorder captures metrics in memory.
type recorder struct {
	mu      sync.Mutex
	imports map[string]int
	created map[string]int
	dropped map[string]int
	cache   map[string]int
}

func newRecorder() *recorder {
	return &recorder{
		imports: make(map[string]int),
		created: make(map[string]int),
		dropped: make(map[string]int),
		cache:   make(map[string]int),
	}
}

func (r *recorder) RecordImport(collection, status string, _ time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.imports[collection+"/"+status]++
}

func (r *recorder) RecordEntities(kind string, created, _ int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.created[kind] += created
}

func (r *recorder) RecordDropped(kind, reason string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.dropped[kind+"/"+reason]++
}

func (r *recorder) RecordCacheOperation(operation string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cache[operation]++
}
