// Package handlers is the HTTP adapter for the media pipeline.
//
// It exposes:
//   - Image uploads (POST /api/media) and record status lookups
//   - Video uploads (POST /api/videos)
//   - Health, liveness and readiness probes
//   - Version and Prometheus metrics endpoints
//
// The caller's user ID is read from the X-User-ID header, which the upstream
// authentication layer sets after verifying the session.
package handlers
