// Package main provides the entry point for the media pipeline service.
//
// The service accepts image and video uploads for a social network backend,
// writes resized JPEG derivatives to disk, and promotes posts to processed
// once every attached asset has finished generating.
//
// # Application Lifecycle
//
//  1. Memory Configuration: Sets GOMEMLIMIT from environment or container limits
//  2. Configuration Loading: Reads environment variables and validates directories
//  3. Database Initialization: Opens SQLite and applies migrations
//  4. Maintenance Sweep: Removes images whose generation never completed,
//     together with posts that reference them
//  5. Component Initialization:
//     - libvips for progressive JPEG encoding and HEIF/AVIF decoding
//     - Memory Monitor and the derivative worker pool
//     - Derivative Generator and the Video Pipeline (FFmpeg frame extraction)
//     - Reconciler and the metrics collector
//  6. HTTP Server Setup: Routes, W3C access logging, request metrics
//  7. Graceful Shutdown on SIGINT/SIGTERM
//
// # HTTP Servers
//
//  1. Main Server (default port 8080):
//     - POST /api/media, POST /api/videos, GET /api/media/{identifier}
//     - /health, /healthz, /livez, /readyz, /api/version
//
//  2. Metrics Server (default port 9090, optional):
//     - Prometheus metrics endpoint (/metrics)
//
// # Environment Variables
//
//   - IMAGE_DIR: Root of the image derivative store (default: /data/images)
//   - VIDEO_DIR: Root of the raw video store (default: /data/videos)
//   - DATABASE_DIR: Directory for the SQLite database (default: /database)
//   - PORT, METRICS_PORT, METRICS_ENABLED
//   - RECONCILE_INTERVAL: Reconciler pass interval (default: 10s)
//   - JPEG_QUALITY: Derivative JPEG quality (default: 85)
//   - MAX_PIXEL_RATIO: Number of ratio variants per kind (default: 3)
//   - MAX_IMAGE_PIXELS: Largest accepted width*height of an upload (default: 50000000)
//   - MAX_UPLOAD_SIZE: Upload body limit in bytes (default: 64 MiB)
//   - FFMPEG_PATH, FFMPEG_TIMEOUT: frame extraction binary and per-attempt bound
//   - DERIVATIVE_WORKERS: Override the background worker count
//   - LOG_LEVEL, LOG_HEALTH_CHECKS
//   - GOMEMLIMIT, MEMORY_LIMIT, MEMORY_RATIO
//
// # Graceful Shutdown
//
//  1. Stop accepting HTTP requests (30s timeout)
//  2. Stop the reconciler; an in-flight pass completes
//  3. Drain the derivative worker pool
//  4. Stop the memory monitor and metrics collector, shut down libvips
//  5. Close the database and storage roots
//
// # Build Requirements
//
// CGO is required for SQLite and libvips. FFmpeg must be on PATH for video
// uploads; without it they are rejected and image uploads are unaffected.
package main
