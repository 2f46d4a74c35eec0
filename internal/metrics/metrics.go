package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// HTTP metrics
var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "media_pipeline_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "media_pipeline_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
		[]string{"method", "path"},
	)

	HTTPRequestsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "media_pipeline_http_requests_in_flight",
			Help: "Number of HTTP requests currently being processed",
		},
	)
)

// Database metrics
var (
	DBQueryTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "media_pipeline_db_queries_total",
			Help: "Total number of database queries",
		},
		[]string{"operation", "status"},
	)

	DBQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "media_pipeline_db_query_duration_seconds",
			Help:    "Database query duration in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
		[]string{"operation"},
	)

	DBTransactionDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "media_pipeline_db_transaction_duration_seconds",
			Help:    "Database transaction duration in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
		},
		[]string{"outcome"},
	)

	DBConnectionsOpen = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "media_pipeline_db_connections_open",
			Help: "Number of open database connections",
		},
	)
)

// Derivative generation metrics
var (
	DerivativeGenerationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "media_pipeline_derivative_generations_total",
			Help: "Total number of derivative generation runs by mode and status",
		},
		[]string{"mode", "status"},
	)

	DerivativeGenerationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "media_pipeline_derivative_generation_duration_seconds",
			Help:    "Derivative generation duration by phase",
			Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
		[]string{"phase"}, // "decode", "resize", "write", "total"
	)

	DerivativesWrittenTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "media_pipeline_derivatives_written_total",
			Help: "Total number of derivative files written by kind",
		},
		[]string{"kind"},
	)

	DerivativeEncodeTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "media_pipeline_derivative_encodes_total",
			Help: "JPEG encodes by encoder (vips progressive or stdlib baseline)",
		},
		[]string{"encoder"},
	)

	UploadsRejectedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "media_pipeline_uploads_rejected_total",
			Help: "Uploads rejected before generation, by media type and reason",
		},
		[]string{"media", "reason"}, // reason: "invalid_media", "unknown_owner", "too_large"
	)

	ImageDecodeByFormat = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "media_pipeline_image_decode_total",
			Help: "Decoded upload images by detected format",
		},
		[]string{"format"},
	)
)

// Video pipeline metrics
var (
	VideoIngestTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "media_pipeline_video_ingest_total",
			Help: "Total number of video ingests by status",
		},
		[]string{"status"},
	)

	VideoDedupHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "media_pipeline_video_dedup_hits_total",
			Help: "Video uploads whose raw bytes were already stored",
		},
	)

	VideoFrameExtractDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "media_pipeline_video_frame_extract_duration_seconds",
			Help:    "Time spent extracting the first video frame with ffmpeg",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
	)
)

// Reconciler metrics
var (
	ReconcilerPassesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "media_pipeline_reconciler_passes_total",
			Help: "Total number of reconciliation passes by status",
		},
		[]string{"status"},
	)

	ReconcilerPassDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "media_pipeline_reconciler_pass_duration_seconds",
			Help:    "Duration of a reconciliation pass",
			Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
		},
	)

	ReconcilerPostsPromoted = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "media_pipeline_reconciler_posts_promoted_total",
			Help: "Posts flipped from pending to processed",
		},
	)

	ReconcilerStaleVersions = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "media_pipeline_reconciler_stale_versions_total",
			Help: "Promotions skipped because an attachment arrived during the pass",
		},
	)

	ReconcilerIsRunning = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "media_pipeline_reconciler_running",
			Help: "Whether a reconciliation pass is in progress (1 = running, 0 = idle)",
		},
	)
)

// Maintenance sweep metrics
var (
	SweepImagesDeleted = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "media_pipeline_sweep_images_deleted_total",
			Help: "Unprocessed images discarded by the startup sweep",
		},
	)

	SweepPostsDeleted = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "media_pipeline_sweep_posts_deleted_total",
			Help: "Posts discarded by the startup sweep because they referenced unprocessed images",
		},
	)

	SweepLastRunTimestamp = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "media_pipeline_sweep_last_run_timestamp",
			Help: "Timestamp of the last startup sweep",
		},
	)
)

// Pending state gauges, refreshed by the Collector
var (
	PendingPosts = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "media_pipeline_pending_posts",
			Help: "Posts waiting for their media to finish processing",
		},
	)

	UnprocessedImages = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "media_pipeline_unprocessed_images",
			Help: "Images whose derivatives are still being generated",
		},
	)

	StoredVideos = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "media_pipeline_stored_videos",
			Help: "Video records currently stored",
		},
	)
)

// Worker pool metrics
var (
	WorkerQueueDepth = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "media_pipeline_worker_queue_depth",
			Help: "Background generation jobs waiting for a worker",
		},
	)

	WorkerJobsInProgress = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "media_pipeline_worker_jobs_in_progress",
			Help: "Background generation jobs currently running",
		},
	)
)

// Filesystem metrics
var (
	FilesystemOperationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "media_pipeline_filesystem_operation_duration_seconds",
			Help:    "Filesystem operation duration by volume and operation",
			Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
		},
		[]string{"volume", "operation"},
	)

	FilesystemOperationErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "media_pipeline_filesystem_operation_errors_total",
			Help: "Filesystem operation errors by volume and operation",
		},
		[]string{"volume", "operation"},
	)

	FilesystemRetryAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "media_pipeline_filesystem_retry_attempts_total",
			Help: "Retries after stale file handle errors",
		},
		[]string{"operation", "volume"},
	)

	FilesystemRetrySuccess = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "media_pipeline_filesystem_retry_success_total",
			Help: "Operations that succeeded after at least one retry",
		},
		[]string{"operation", "volume"},
	)

	FilesystemRetryFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "media_pipeline_filesystem_retry_failures_total",
			Help: "Operations that failed after exhausting retries",
		},
		[]string{"operation", "volume"},
	)

	FilesystemStaleErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "media_pipeline_filesystem_stale_errors_total",
			Help: "ESTALE errors observed",
		},
		[]string{"operation", "volume"},
	)
)

// Memory metrics
var (
	MemoryUsageRatio = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "media_pipeline_memory_usage_ratio",
			Help: "Heap allocation as a fraction of the configured memory limit",
		},
	)

	MemoryPaused = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "media_pipeline_memory_paused",
			Help: "Whether derivative generation is paused for memory pressure (1 = paused)",
		},
	)

	MemoryGCPauses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "media_pipeline_memory_gc_pauses_total",
			Help: "Times generation was paused and a GC forced due to memory pressure",
		},
	)
)

// AppInfo exposes build information as labels.
var AppInfo = promauto.NewGaugeVec(
	prometheus.GaugeOpts{
		Name: "media_pipeline_app_info",
		Help: "Application build information",
	},
	[]string{"version", "commit", "go_version"},
)
