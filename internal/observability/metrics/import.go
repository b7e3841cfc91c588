// Package metrics provides import metrics for observability
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/tphakala/birdnet-annotations/internal/errors"
)

// ImportMetrics contains Prometheus metrics for document imports
type ImportMetrics struct {
	registry *prometheus.Registry

	// Import run metrics
	importsTotal   *prometheus.CounterVec
	importDuration *prometheus.HistogramVec

	// Entity reconciliation metrics
	rowsCreatedTotal *prometheus.CounterVec
	rowsReusedTotal  *prometheus.CounterVec
	droppedTotal     *prometheus.CounterVec

	// Store metrics
	dbQueriesTotal      *prometheus.CounterVec
	dbQueryDuration     prometheus.Histogram
	dbRowsAffectedTotal prometheus.Counter

	// Error metrics, fed by the enhanced error hook
	errorsTotal *prometheus.CounterVec

	// Cache metrics
	cacheOperationsTotal *prometheus.CounterVec

	collectors []prometheus.Collector
}

// NewImportMetrics creates and registers new import metrics
func NewImportMetrics(registry *prometheus.Registry) (*ImportMetrics, error) {
	m := &ImportMetrics{registry: registry}
	m.initMetrics()
	if err := registry.Register(m); err != nil {
		return nil, err
	}
	return m, nil
}

func (m *ImportMetrics) initMetrics() {
	m.importsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "annotations_imports_total",
			Help: "Total number of document imports",
		},
		[]string{"collection", "status"}, // status: success, error, rejected
	)

	m.importDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "annotations_import_duration_seconds",
			Help:    "Time taken to import one document",
			Buckets: prometheus.ExponentialBuckets(BucketStart10ms, BucketFactor2, BucketCount15), // 10ms to ~5min
		},
		[]string{"collection"},
	)

	m.rowsCreatedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "annotations_import_rows_created_total",
			Help: "Rows inserted by imports, by entity kind",
		},
		[]string{"kind"},
	)

	m.rowsReusedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "annotations_import_rows_reused_total",
			Help: "Document entities matched to existing rows, by entity kind",
		},
		[]string{"kind"},
	)

	m.droppedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "annotations_import_dropped_total",
			Help: "Document entities skipped because a reference could not be resolved",
		},
		[]string{"kind", "reason"},
	)

	m.dbQueriesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "annotations_db_queries_total",
			Help: "Total number of SQL statements executed",
		},
		[]string{"status"}, // status: success, error
	)

	m.dbQueryDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "annotations_db_query_duration_seconds",
			Help:    "Time taken by SQL statements",
			Buckets: prometheus.ExponentialBuckets(BucketStart100us, BucketFactor2, BucketCount15), // 0.1ms to ~3s
		},
	)

	m.dbRowsAffectedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "annotations_db_rows_affected_total",
			Help: "Rows returned or affected by SQL statements",
		},
	)

	m.errorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "annotations_errors_total",
			Help: "Enhanced errors built, by component and category",
		},
		[]string{"component", "category"},
	)

	m.cacheOperationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "annotations_cache_operations_total",
			Help: "Project tag cache operations",
		},
		[]string{"operation"}, // operation: refresh, invalidate
	)

	m.collectors = []prometheus.Collector{
		m.importsTotal,
		m.importDuration,
		m.rowsCreatedTotal,
		m.rowsReusedTotal,
		m.droppedTotal,
		m.dbQueriesTotal,
		m.dbQueryDuration,
		m.dbRowsAffectedTotal,
		m.errorsTotal,
		m.cacheOperationsTotal,
	}
}

// Describe implements the prometheus.Collector interface
func (m *ImportMetrics) Describe(ch chan<- *prometheus.Desc) {
	for _, collector := range m.collectors {
		collector.Describe(ch)
	}
}

// Collect implements the prometheus.Collector interface
func (m *ImportMetrics) Collect(ch chan<- prometheus.Metric) {
	for _, collector := range m.collectors {
		collector.Collect(ch)
	}
}

// RecordImport records a finished import and its duration
func (m *ImportMetrics) RecordImport(collection, status string, duration time.Duration) {
	m.importsTotal.WithLabelValues(collection, status).Inc()
	m.importDuration.WithLabelValues(collection).Observe(duration.Seconds())
}

// RecordEntities records how many entities of a kind were created and reused
func (m *ImportMetrics) RecordEntities(kind string, created, reused int) {
	if created > 0 {
		m.rowsCreatedTotal.WithLabelValues(kind).Add(float64(created))
	}
	if reused > 0 {
		m.rowsReusedTotal.WithLabelValues(kind).Add(float64(reused))
	}
}

// RecordDropped records an entity skipped during import
func (m *ImportMetrics) RecordDropped(kind, reason string) {
	m.droppedTotal.WithLabelValues(kind, reason).Inc()
}

// RecordCacheOperation records a project tag cache operation
func (m *ImportMetrics) RecordCacheOperation(operation string) {
	m.cacheOperationsTotal.WithLabelValues(operation).Inc()
}

// ObserveQuery records one SQL statement. Its signature matches
// logger.QueryObserver so it can be passed to the datastore config.
func (m *ImportMetrics) ObserveQuery(elapsed time.Duration, rows int64, err error) {
	status := StatusSuccess
	if err != nil {
		status = StatusError
	}
	m.dbQueriesTotal.WithLabelValues(status).Inc()
	m.dbQueryDuration.Observe(elapsed.Seconds())
	if rows > 0 {
		m.dbRowsAffectedTotal.Add(float64(rows))
	}
}

// ErrorHook returns a hook counting enhanced errors, for errors.AddErrorHook
func (m *ImportMetrics) ErrorHook() errors.ErrorHook {
	return func(ee *errors.EnhancedError) {
		m.errorsTotal.WithLabelValues(ee.GetComponent(), ee.GetCategory()).Inc()
	}
}
