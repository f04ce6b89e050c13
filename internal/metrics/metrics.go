package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// HTTP metrics
var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "media_browser_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "media_browser_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	HTTPRequestsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "media_browser_http_requests_in_flight",
			Help: "Number of HTTP requests currently being processed",
		},
	)
)

// Database metrics
var (
	DBQueryTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "media_browser_db_queries_total",
			Help: "Total number of database queries",
		},
		[]string{"operation", "status"},
	)

	DBQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "media_browser_db_query_duration_seconds",
			Help:    "Database query duration in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
		[]string{"operation"},
	)

	DBConnectionsOpen = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "media_browser_db_connections_open",
			Help: "Number of open database connections",
		},
	)
)

// Scanner metrics
var (
	ScannerOperationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "media_browser_scanner_operations_total",
			Help: "Total number of directory scanner operations",
		},
		[]string{"operation", "status"},
	)

	ScannerOperationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "media_browser_scanner_operation_duration_seconds",
			Help:    "Directory scanner operation duration in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
		},
		[]string{"operation"},
	)

	ScannerItemsReturned = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "media_browser_scanner_items_returned",
			Help:    "Number of items returned by scanner operations",
			Buckets: []float64{0, 10, 50, 100, 500, 1000, 5000},
		},
		[]string{"operation"},
	)
)

// Thumbnail queue metrics
var (
	QueueSubmissionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "media_browser_queue_submissions_total",
			Help: "Total number of thumbnail job submissions by result",
		},
		[]string{"result"}, // "accepted", "duplicate"
	)

	QueueClaimsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "media_browser_queue_claims_total",
			Help: "Total number of thumbnail jobs claimed by workers",
		},
	)

	QueueDepth = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "media_browser_queue_depth",
			Help: "Number of pending thumbnail jobs",
		},
	)

	QueuePurgedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "media_browser_queue_purged_total",
			Help: "Total number of thumbnail jobs purged by outcome",
		},
		[]string{"outcome"}, // "done", "failed"
	)
)

// Worker metrics
var (
	WorkerJobsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "media_browser_worker_jobs_total",
			Help: "Total number of thumbnail jobs processed by workers",
		},
		[]string{"kind", "status"},
	)

	WorkerJobDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "media_browser_worker_job_duration_seconds",
			Help:    "Thumbnail job processing duration in seconds",
			Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 10, 30},
		},
		[]string{"kind"},
	)

	ThumbnailsGeneratedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "media_browser_thumbnails_generated_total",
			Help: "Total number of thumbnail artifacts generated",
		},
	)
)

// Event bus metrics
var (
	EventsPublishedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "media_browser_events_published_total",
			Help: "Total number of completion events published",
		},
	)

	EventsDroppedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "media_browser_events_dropped_total",
			Help: "Total number of events dropped for slow subscribers",
		},
	)

	EventSubscribers = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "media_browser_event_subscribers",
			Help: "Number of active event stream subscribers",
		},
	)
)

// Reconciler metrics
var (
	ReconcilerUpsertsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "media_browser_reconciler_upserts_total",
			Help: "Total number of metadata upserts performed by the reconciler",
		},
		[]string{"status"},
	)

	ReconcilerSyncDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "media_browser_reconciler_sync_duration_seconds",
			Help:    "Duration of a reconciler sync pass in seconds",
			Buckets: []float64{0.001, 0.01, 0.05, 0.1, 0.5, 1, 5},
		},
	)
)

// Filesystem retry metrics
var (
	FilesystemStaleErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "media_browser_filesystem_stale_errors_total",
			Help: "Total number of NFS stale file handle errors",
		},
		[]string{"operation"},
	)

	FilesystemRetrySuccess = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "media_browser_filesystem_retry_success_total",
			Help: "Total number of filesystem operations that succeeded after retry",
		},
		[]string{"operation"},
	)

	FilesystemRetryFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "media_browser_filesystem_retry_failures_total",
			Help: "Total number of filesystem operations that failed after all retries",
		},
		[]string{"operation"},
	)
)

// Watcher metrics
var (
	WatcherEventsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "media_browser_watcher_events_total",
			Help: "Total number of filesystem watcher events by type",
		},
		[]string{"type"},
	)

	WatcherErrors = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "media_browser_watcher_errors_total",
			Help: "Total number of filesystem watcher errors",
		},
	)
)
