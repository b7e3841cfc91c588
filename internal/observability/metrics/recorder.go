// Package metrics provides custom Prometheus metrics for annotation imports.
package metrics

import "time"

// Recorder defines the metrics an importer reports.
// Components depend on this interface rather than on ImportMetrics so tests
// can run without a registry.
type Recorder interface {
	// RecordImport records a finished import of the given collection type.
	// The status parameter is one of StatusSuccess, StatusError or StatusRejected.
	RecordImport(collection, status string, duration time.Duration)

	// RecordEntities records how many document entities of a kind were
	// inserted and how many matched existing rows.
	RecordEntities(kind string, created, reused int)

	// RecordDropped records an entity skipped because a reference was unresolved.
	RecordDropped(kind, reason string)

	// RecordCacheOperation records a project tag cache refresh or invalidation.
	RecordCacheOperation(operation string)
}

// NoopRecorder discards all metrics.
type NoopRecorder struct{}

func (NoopRecorder) RecordImport(string, string, time.Duration) {}
func (NoopRecorder) RecordEntities(string, int, int)            {}
func (NoopRecorder) RecordDropped(string, string)               {}
func (NoopRecorder) RecordCacheOperation(string)                {}

var (
	_ Recorder = (*ImportMetrics)(nil)
	_ Recorder = NoopRecorder{}
)
