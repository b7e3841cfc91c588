// Package metrics provides constants used across metric definitions.
package metrics

// Status label values.
const (
	// StatusSuccess marks a successful operation.
	StatusSuccess = "success"
	// StatusError marks a failed operation.
	StatusError = "error"
	// StatusRejected marks input refused before any write.
	StatusRejected = "rejected"
)

// Cache operation label values.
const (
	OpCacheRefresh    = "refresh"
	OpCacheInvalidate = "invalidate"
)

// Histogram bucket constants
const (
	// BucketStart100us is the starting bucket for 0.1ms histograms (0.1ms to ~3s range).
	BucketStart100us = 0.0001
	// BucketStart10ms is the starting bucket for 10ms histograms (10ms to ~5min range).
	BucketStart10ms = 0.01

	// BucketFactor2 is the common exponential growth factor of 2 for histogram buckets.
	BucketFactor2 = 2

	// BucketCount15 defines 15 exponential buckets.
	BucketCount15 = 15
)
