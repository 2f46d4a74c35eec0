// Package metrics provides Prometheus instrumentation for the media pipeline.
//
// All metrics are registered with promauto at package init and prefixed with
// "media_pipeline_". InitializeMetrics pre-creates label combinations so
// dashboards see zero-valued series before the first event.
//
// # Metric Categories
//
//   - HTTP: request counts, durations and in-flight gauge for the upload API
//   - Database: per-operation query counts and latencies, transaction outcomes
//   - Derivatives: generation runs by mode, per-phase latency, files per kind
//   - Video: ingest outcomes, content-hash dedup hits, frame extraction time
//   - Reconciler: passes, promotions, stale-version skips
//   - Sweep: images and posts discarded at startup
//   - Backlog: pending posts and unprocessed images, refreshed by Collector
//   - Filesystem: per-volume latency, errors and ESTALE retries
//   - Memory: usage ratio and backpressure pauses
//
// The filesystem package reports through the Observer returned by
// NewFilesystemObserver, which avoids an import cycle.
package metrics
