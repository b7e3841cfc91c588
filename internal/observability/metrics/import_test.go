package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tphakala/birdnet-annotations/internal/errors"
)

func newTestMetrics(t *testing.T) (*ImportMetrics, *prometheus.Registry) {
	t.Helper()
	registry := prometheus.NewRegistry()
	m, err := NewImportMetrics(registry)
	require.NoError(t, err)
	return m, registry
}

func TestNewImportMetricsRejectsDoubleRegistration(t *testing.T) {
	registry := prometheus.NewRegistry()
	_, err := NewImportMetrics(registry)
	require.NoError(t, err)

	_, err = NewImportMetrics(registry)
	assert.Error(t, err)
}

func TestRecordImport(t *testing.T) {
	m, registry := newTestMetrics(t)

	m.RecordImport("annotation_project", StatusSuccess, 150*time.Millisecond)
	m.RecordImport("annotation_project", StatusSuccess, 300*time.Millisecond)
	m.RecordImport("dataset", StatusRejected, time.Millisecond)

	assert.InDelta(t, 2, testutil.ToFloat64(m.importsTotal.WithLabelValues("annotation_project", StatusSuccess)), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.importsTotal.WithLabelValues("dataset", StatusRejected)), 0)

	families, err := registry.Gather()
	require.NoError(t, err)

	var histogram *dto.Histogram
	for _, mf := range families {
		if mf.GetName() != "annotations_import_duration_seconds" {
			continue
		}
		for _, metric := range mf.GetMetric() {
			for _, label := range metric.GetLabel() {
				if label.GetName() == "collection" && label.GetValue() == "annotation_project" {
					histogram = metric.GetHistogram()
				}
			}
		}
	}
	require.NotNil(t, histogram)
	assert.Equal(t, uint64(2), histogram.GetSampleCount())
	assert.InDelta(t, 0.45, histogram.GetSampleSum(), 1e-9)
}

func TestRecordEntities(t *testing.T) {
	m, _ := newTestMetrics(t)

	m.RecordEntities("tag", 3, 2)
	m.RecordEntities("tag", 0, 5)
	m.RecordEntities("clip", 0, 0)

	assert.InDelta(t, 3, testutil.ToFloat64(m.rowsCreatedTotal.WithLabelValues("tag")), 0)
	assert.InDelta(t, 7, testutil.ToFloat64(m.rowsReusedTotal.WithLabelValues("tag")), 0)
	assert.Equal(t, 1, testutil.CollectAndCount(m.rowsCreatedTotal))
}

func TestRecordDroppedAndCache(t *testing.T) {
	m, _ := newTestMetrics(t)

	m.RecordDropped("clip", "unresolved recording")
	m.RecordDropped("clip", "unresolved recording")
	m.RecordCacheOperation(OpCacheRefresh)

	assert.InDelta(t, 2, testutil.ToFloat64(m.droppedTotal.WithLabelValues("clip", "unresolved recording")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.cacheOperationsTotal.WithLabelValues(OpCacheRefresh)), 0)
}

func TestObserveQuery(t *testing.T) {
	m, _ := newTestMetrics(t)

	m.ObserveQuery(2*time.Millisecond, 10, nil)
	m.ObserveQuery(time.Millisecond, 0, errors.NewStd("boom"))

	assert.InDelta(t, 1, testutil.ToFloat64(m.dbQueriesTotal.WithLabelValues(StatusSuccess)), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.dbQueriesTotal.WithLabelValues(StatusError)), 0)
	assert.InDelta(t, 10, testutil.ToFloat64(m.dbRowsAffectedTotal), 0)
}

func TestErrorHookCountsEnhancedErrors(t *testing.T) {
	m, _ := newTestMetrics(t)

	errors.AddErrorHook(m.ErrorHook())
	t.Cleanup(errors.ClearErrorHooks)

	_ = errors.Newf("row missing").Component("importer").Category(errors.CategoryNotFound).Build()
	_ = errors.Newf("row missing again").Component("importer").Category(errors.CategoryNotFound).Build()
	_ = errors.Newf("bad config").Component("configuration").Category(errors.CategoryConfiguration).Build()

	assert.InDelta(t, 2, testutil.ToFloat64(m.errorsTotal.WithLabelValues("importer", string(errors.CategoryNotFound))), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.errorsTotal.WithLabelValues("configuration", string(errors.CategoryConfiguration))), 0)
}

func TestNoopRecorder(t *testing.T) {
	var r Recorder = NoopRecorder{}
	assert.NotPanics(t, func() {
		r.RecordImport("dataset", StatusSuccess, time.Second)
		r.RecordEntities("tag", 1, 1)
		r.RecordDropped("tag", "x")
		r.RecordCacheOperation(OpCacheInvalidate)
	})
}
