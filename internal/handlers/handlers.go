package handlers

import (
	"context"
	"sync/atomic"
	"time"

	"media-pipeline/internal/database"
	"media-pipeline/internal/media"
	"media-pipeline/internal/metrics"
)

// ImageGenerator records an uploaded image and produces its derivatives.
type ImageGenerator interface {
	Generate(ctx context.Context, upload media.Upload, owner int64, background bool) (media.Handle, error)
}

// VideoIngester stores an uploaded video and generates its thumbnail.
type VideoIngester interface {
	Ingest(ctx context.Context, data []byte, owner int64) (media.Handle, error)
}

// Store is the read side of the database used by the handlers.
type Store interface {
	GetImageByIdentifier(ctx context.Context, identifier string) (*database.Image, error)
	PipelineStats(ctx context.Context) (metrics.Stats, error)
}

type Handlers struct {
	images  ImageGenerator
	videos  VideoIngester
	store   Store
	started time.Time
	ready   atomic.Bool
}

func New(images ImageGenerator, videos VideoIngester, store Store) *Handlers {
	return &Handlers{
		images:  images,
		videos:  videos,
		store:   store,
		started: time.Now(),
	}
}

// SetReady marks the service as ready (or not) to accept uploads.
func (h *Handlers) SetReady(ready bool) {
	h.ready.Store(ready)
}

// IsReady reports the value last passed to SetReady.
func (h *Handlers) IsReady() bool {
	return h.ready.Load()
}
