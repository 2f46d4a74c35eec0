package video

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"image"
	"path"

	"media-pipeline/internal/logging"
	"media-pipeline/internal/media"
	"media-pipeline/internal/mediatypes"
	"media-pipeline/internal/metrics"
	"media-pipeline/internal/storage"
)

// Repository is the persistence the pipeline needs.
type Repository interface {
	UserExists(ctx context.Context, id int64) (bool, error)
	CreateVideo(ctx context.Context, identifier string, ownerID int64, contentHash string, thumbnailID int64) (int64, error)
	CountVideosByHash(ctx context.Context, contentHash string) (int, error)
}

// ThumbnailGenerator records a decoded frame as an image owned by the uploader
// and deletes it again when the video cannot be recorded.
// media.Generator implements it.
type ThumbnailGenerator interface {
	GenerateFromImage(ctx context.Context, original, cropped image.Image, owner int64, background bool) (media.Handle, error)
	Discard(ctx context.Context, h media.Handle) error
}

// Pipeline ingests video uploads.
type Pipeline struct {
	store  *storage.Store
	repo   Repository
	thumbs ThumbnailGenerator
	frames FrameExtractor
	log    logging.Logger
}

// NewPipeline creates a Pipeline storing raw bytes in store.
func NewPipeline(store *storage.Store, repo Repository, thumbs ThumbnailGenerator, frames FrameExtractor) *Pipeline {
	return &Pipeline{
		store:  store,
		repo:   repo,
		thumbs: thumbs,
		frames: frames,
		log:    logging.For("video"),
	}
}

// Ingest validates and stores a video for owner, generates its thumbnail
// and records it. The returned handle names the video record.
func (p *Pipeline) Ingest(ctx context.Context, data []byte, owner int64) (h media.Handle, err error) {
	defer func() {
		status := "success"
		switch {
		case err == nil:
		case isRejection(err):
			status = "invalid"
		default:
			status = "error"
		}
		metrics.VideoIngestTotal.WithLabelValues(status).Inc()
	}()

	ok, err := p.repo.UserExists(ctx, owner)
	if err != nil {
		return media.Handle{}, fmt.Errorf("resolve owner %d: %w", owner, err)
	}
	if !ok {
		metrics.UploadsRejectedTotal.WithLabelValues("video", "unknown_owner").Inc()
		return media.Handle{}, fmt.Errorf("%w: %d", media.ErrUnknownOwner, owner)
	}

	d := mediatypes.Detect(data)
	if d.Type != mediatypes.FileTypeVideo {
		metrics.UploadsRejectedTotal.WithLabelValues("video", "invalid_media").Inc()
		return media.Handle{}, fmt.Errorf("%w: unsupported video type %s", media.ErrInvalidMedia, d.MimeType)
	}

	sum := sha256.Sum256(data)
	hash := hex.EncodeToString(sum[:])
	rel := path.Join(hash, "video"+d.Extension)

	created, err := p.storeBytes(hash, rel, data)
	if err != nil {
		return media.Handle{}, err
	}
	if created {
		defer func() {
			if err != nil {
				p.discard(context.WithoutCancel(ctx), hash)
			}
		}()
	}

	abs, err := p.store.Path(rel)
	if err != nil {
		return media.Handle{}, err
	}

	frame, err := p.frames.FirstFrame(ctx, abs)
	if err != nil {
		metrics.UploadsRejectedTotal.WithLabelValues("video", "invalid_media").Inc()
		return media.Handle{}, fmt.Errorf("%w: extract frame: %v", media.ErrInvalidMedia, err)
	}

	identifier, err := media.NewIdentifier()
	if err != nil {
		return media.Handle{}, fmt.Errorf("generate identifier: %w", err)
	}

	thumb, err := p.thumbs.GenerateFromImage(ctx, frame, nil, owner, false)
	if err != nil {
		return media.Handle{}, fmt.Errorf("generate thumbnail: %w", err)
	}

	id, err := p.repo.CreateVideo(ctx, identifier, owner, hash, thumb.RecordID)
	if err != nil {
		if dErr := p.thumbs.Discard(context.WithoutCancel(ctx), thumb); dErr != nil {
			p.log.Warn("Failed to discard thumbnail %s: %v", thumb.Identifier, dErr)
		}
		return media.Handle{}, fmt.Errorf("record video: %w", err)
	}

	p.log.Info("Ingested video %d for user %d (hash %s, thumbnail %s)", id, owner, hash[:12], thumb.Identifier)
	return media.Handle{RecordID: id, Identifier: identifier}, nil
}

// storeBytes writes data under rel unless an identical upload already did.
func (p *Pipeline) storeBytes(hash, rel string, data []byte) (created bool, err error) {
	exists, err := p.store.Exists(rel)
	if err != nil {
		return false, fmt.Errorf("check stored video: %w", err)
	}
	if exists {
		metrics.VideoDedupHits.Inc()
		p.log.Debug("Reusing stored bytes for %s", hash)
		return false, nil
	}

	if err := p.store.MakeDir(hash); err != nil {
		return false, fmt.Errorf("create video directory: %w", err)
	}
	if err := p.store.Write(rel, data); err != nil {
		return false, fmt.Errorf("write video: %w", err)
	}
	return true, nil
}

// discard removes bytes this call stored when no record ended up using them.
// A concurrent upload of the same bytes that already recorded its video
// keeps them.
func (p *Pipeline) discard(ctx context.Context, hash string) {
	n, err := p.repo.CountVideosByHash(ctx, hash)
	if err != nil || n > 0 {
		return
	}
	if err := p.store.RemoveAll(hash); err != nil {
		p.log.Warn("Failed to remove rejected video %s: %v", hash, err)
	}
}

func isRejection(err error) bool {
	return errors.Is(err, media.ErrInvalidMedia) || errors.Is(err, media.ErrUnknownOwner)
}
