package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// API Metrics
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vidtube_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "vidtube_http_request_duration_seconds",
			Help:    "HTTP request latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "endpoint"},
	)

	// Upload Metrics
	MediaUploadsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vidtube_media_uploads_total",
			Help: "Total number of media uploads by folder",
		},
		[]string{"folder", "status"},
	)

	MediaUploadSizeBytes = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "vidtube_media_upload_size_bytes",
			Help:    "Size of uploaded media in bytes",
			Buckets: prometheus.ExponentialBuckets(64*1024, 2, 15), // 64KB to 1GB
		},
		[]string{"folder"},
	)

	// Engagement Metrics
	TogglesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vidtube_toggles_total",
			Help: "Total number of like and subscription toggles",
		},
		[]string{"relation", "state"},
	)

	LoginAttemptsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vidtube_login_attempts_total",
			Help: "Total number of login attempts",
		},
		[]string{"principal", "result"},
	)

	// Cleanup Metrics
	CleanupTasksTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vidtube_cleanup_tasks_total",
			Help: "Total number of deletion cleanup tasks by outcome",
		},
		[]string{"outcome"},
	)

	// Storage Metrics
	StorageOperationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vidtube_storage_operations_total",
			Help: "Total number of storage operations",
		},
		[]string{"operation", "status"},
	)

	StorageOperationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "vidtube_storage_operation_duration_seconds",
			Help:    "Storage operation duration in seconds",
			Buckets: prometheus.ExponentialBuckets(0.01, 2, 12), // 10ms to ~40s
		},
		[]string{"operation"},
	)

	StorageBytesTransferred = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vidtube_storage_bytes_transferred_total",
			Help: "Total bytes transferred to/from storage",
		},
		[]string{"operation"},
	)

	// Cache Metrics
	CacheHitsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vidtube_cache_hits_total",
			Help: "Total number of cache hits",
		},
		[]string{"cache_type"},
	)

	CacheMissesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vidtube_cache_misses_total",
			Help: "Total number of cache misses",
		},
		[]string{"cache_type"},
	)

	// Queue Metrics
	QueueDepth = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "vidtube_queue_depth",
			Help: "Number of messages waiting in a queue",
		},
		[]string{"queue"},
	)

	// Error Metrics
	ErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vidtube_errors_total",
			Help: "Total number of errors",
		},
		[]string{"component", "error_type"},
	)
)

// RecordHTTPRequest records an HTTP request
func RecordHTTPRequest(method, endpoint, status string, duration float64) {
	HTTPRequestsTotal.WithLabelValues(method, endpoint, status).Inc()
	HTTPRequestDuration.WithLabelValues(method, endpoint).Observe(duration)
}

// RecordMediaUpload records a media upload to the given folder
func RecordMediaUpload(folder, status string, size int64) {
	MediaUploadsTotal.WithLabelValues(folder, status).Inc()
	if size > 0 {
		MediaUploadSizeBytes.WithLabelValues(folder).Observe(float64(size))
	}
}

// RecordToggle records the resulting state of a like or subscription toggle
func RecordToggle(relation string, on bool) {
	state := "off"
	if on {
		state = "on"
	}
	TogglesTotal.WithLabelValues(relation, state).Inc()
}

// RecordLoginAttempt records a login outcome
func RecordLoginAttempt(principal, result string) {
	LoginAttemptsTotal.WithLabelValues(principal, result).Inc()
}

// RecordCleanupTask records the outcome of a cleanup task
func RecordCleanupTask(outcome string) {
	CleanupTasksTotal.WithLabelValues(outcome).Inc()
}

// SetQueueDepth records the current depth of a queue
func SetQueueDepth(queue string, depth int) {
	QueueDepth.WithLabelValues(queue).Set(float64(depth))
}

// RecordStorageOperation records a storage operation
func RecordStorageOperation(operation, status string, duration float64, bytesTransferred int64) {
	StorageOperationsTotal.WithLabelValues(operation, status).Inc()
	StorageOperationDuration.WithLabelValues(operation).Observe(duration)
	StorageBytesTransferred.WithLabelValues(operation).Add(float64(bytesTransferred))
}

// RecordCacheAccess records cache hit or miss
func RecordCacheAccess(cacheType string, hit bool) {
	if hit {
		CacheHitsTotal.WithLabelValues(cacheType).Inc()
	} else {
		CacheMissesTotal.WithLabelValues(cacheType).Inc()
	}
}

// RecordError records an error
func RecordError(component, errorType string) {
	ErrorsTotal.WithLabelValues(component, errorType).Inc()
}

// Status returns the label used for an operation outcome
func Status(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}
