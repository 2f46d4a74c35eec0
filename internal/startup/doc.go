// Package startup handles configuration loading and startup/shutdown logging.
//
// # Configuration
//
// [LoadConfig] reads the environment, logs the effective values and makes
// sure the storage directories exist and are writable:
//
//   - IMAGE_DIR: image derivative root (default: /data/images)
//   - VIDEO_DIR: raw video root (default: /data/videos)
//   - DATABASE_DIR: SQLite directory (default: /database)
//   - PORT: HTTP server port (default: 8080)
//   - METRICS_PORT: Prometheus metrics server port (default: 9090)
//   - METRICS_ENABLED: serve /metrics (default: true)
//   - RECONCILE_INTERVAL: pause between reconciliation passes (default: 10s)
//   - JPEG_QUALITY: derivative JPEG quality, 1-100 (default: 85)
//   - MAX_PIXEL_RATIO: number of pixel-ratio variants per kind (default: 3)
//   - MAX_IMAGE_PIXELS: largest accepted width*height of an upload (default: 50000000)
//   - MAX_UPLOAD_SIZE: request body limit in bytes (default: 64 MiB)
//   - FFMPEG_PATH: ffmpeg executable used for video frames (default: ffmpeg)
//   - FFMPEG_TIMEOUT: bound on one frame extraction (default: 30s)
//   - LOG_HEALTH_CHECKS: include probe requests in access logs (default: false)
//   - LOG_LEVEL / DEBUG: see package logging
//
// DERIVATIVE_WORKERS and the memory variables are read by the workers and
// memory packages.
//
// # Build Information
//
// Version, Commit and BuildTime are injected via -ldflags and exposed via
// [GetBuildInfo].
//
// # Lifecycle Logging
//
// Each startup phase logs a banner section: [LogDatabaseInit], [LogSweep],
// [LogGeneratorInit], [LogFFmpegCheck], [LogReconcilerInit],
// [LogHTTPRoutes] and [LogServerStarted]; shutdown uses
// [LogShutdownInitiated], [LogShutdownStep], [LogShutdownStepComplete] and
// [LogShutdownComplete].
package startup
