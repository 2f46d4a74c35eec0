package media

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	"time"

	"github.com/disintegration/imaging"

	"media-pipeline/internal/logging"
	"media-pipeline/internal/metrics"
)

// identifierBytes is the amount of randomness in an image identifier.
const identifierBytes = 32

// DefaultMaxPixelRatio is the number of ratio variants produced per kind
// when none is configured.
const DefaultMaxPixelRatio = 3

var errPaused = errors.New("media: generation stopped while paused for memory")

// Repository is the persistence the generator needs.
type Repository interface {
	UserExists(ctx context.Context, id int64) (bool, error)
	CreateImage(ctx context.Context, identifier string, ownerID int64) (int64, error)
	MarkImageProcessed(ctx context.Context, id int64) error
	DeleteImage(ctx context.Context, id int64) error
}

// Submitter runs background jobs. workers.Pool implements it.
type Submitter interface {
	Submit(job func(ctx context.Context)) error
}

// Gate blocks new work while memory is critical. memory.Monitor implements it.
type Gate interface {
	WaitIfPaused() bool
}

// Upload is the raw input to Generate. Cropped is optional; when present it
// is the source for every kind except Original.
type Upload struct {
	Original []byte
	Cropped  []byte
}

// Handle identifies a recorded image. In background mode it is returned
// before the derivatives exist.
type Handle struct {
	RecordID   int64  `json:"id"`
	Identifier string `json:"identifier"`
}

// GeneratorConfig configures a Generator.
type GeneratorConfig struct {
	// MaxPixelRatio is N, the number of ratio variants per kind.
	MaxPixelRatio int
	// MaxImagePixels bounds width*height of decoded uploads. Zero selects
	// DefaultMaxImagePixels; a negative value disables the limit.
	MaxImagePixels int
	// Pool runs background generation. Without it background requests run inline.
	Pool Submitter
	// Memory, when set, is consulted before each derivation.
	Memory Gate
}

// Generator records uploaded images and produces their derivatives.
type Generator struct {
	repo     Repository
	writer   *Writer
	maxRatio int
	maxPixel int
	pool     Submitter
	memory   Gate
	log      logging.Logger

	newIdentifier func() (string, error)
}

// NewGenerator creates a Generator.
func NewGenerator(repo Repository, writer *Writer, cfg GeneratorConfig) *Generator {
	ratio := cfg.MaxPixelRatio
	if ratio < 1 {
		ratio = DefaultMaxPixelRatio
	}
	pixels := cfg.MaxImagePixels
	if pixels == 0 {
		pixels = DefaultMaxImagePixels
	}
	return &Generator{
		repo:          repo,
		writer:        writer,
		maxRatio:      ratio,
		maxPixel:      pixels,
		pool:          cfg.Pool,
		memory:        cfg.Memory,
		log:           logging.For("generator"),
		newIdentifier: NewIdentifier,
	}
}

// Generate decodes an upload and records it for owner. In background mode
// it returns as soon as the image is recorded; the processed flag flips
// once derivatives are written.
func (g *Generator) Generate(ctx context.Context, upload Upload, owner int64, background bool) (Handle, error) {
	if err := g.checkOwner(ctx, owner); err != nil {
		return Handle{}, err
	}

	start := time.Now()
	original, err := Decode(upload.Original, g.maxPixel)
	if err != nil {
		metrics.UploadsRejectedTotal.WithLabelValues("image", "invalid_media").Inc()
		return Handle{}, fmt.Errorf("original: %w", err)
	}

	var cropped image.Image
	if len(upload.Cropped) > 0 {
		cropped, err = Decode(upload.Cropped, g.maxPixel)
		if err != nil {
			metrics.UploadsRejectedTotal.WithLabelValues("image", "invalid_media").Inc()
			return Handle{}, fmt.Errorf("cropped: %w", err)
		}
	}
	metrics.DerivativeGenerationDuration.WithLabelValues("decode").Observe(time.Since(start).Seconds())

	return g.record(ctx, original, cropped, owner, background)
}

// GenerateFromImage records an already decoded image for owner.
func (g *Generator) GenerateFromImage(ctx context.Context, original, cropped image.Image, owner int64, background bool) (Handle, error) {
	if err := g.checkOwner(ctx, owner); err != nil {
		return Handle{}, err
	}
	return g.record(ctx, original, cropped, owner, background)
}

func (g *Generator) checkOwner(ctx context.Context, owner int64) error {
	ok, err := g.repo.UserExists(ctx, owner)
	if err != nil {
		return fmt.Errorf("resolve owner %d: %w", owner, err)
	}
	if !ok {
		g.log.Warn("Rejected upload for unknown owner %d", owner)
		metrics.UploadsRejectedTotal.WithLabelValues("image", "unknown_owner").Inc()
		return fmt.Errorf("%w: %d", ErrUnknownOwner, owner)
	}
	return nil
}

func (g *Generator) record(ctx context.Context, original, cropped image.Image, owner int64, background bool) (Handle, error) {
	identifier, err := g.newIdentifier()
	if err != nil {
		return Handle{}, fmt.Errorf("generate identifier: %w", err)
	}

	id, err := g.repo.CreateImage(ctx, identifier, owner)
	if err != nil {
		return Handle{}, fmt.Errorf("record image: %w", err)
	}
	h := Handle{RecordID: id, Identifier: identifier}

	if background && g.pool != nil {
		err := g.pool.Submit(func(jobCtx context.Context) {
			if err := g.process(jobCtx, h, original, cropped, "background"); err != nil {
				g.log.Error("Background generation for %s failed: %v", h.Identifier, err)
			}
		})
		if err != nil {
			if dErr := g.Discard(context.WithoutCancel(ctx), h); dErr != nil {
				g.log.Warn("Failed to discard unqueued image %d: %v", h.RecordID, dErr)
			}
			return Handle{}, fmt.Errorf("queue generation: %w", err)
		}
		g.log.Debug("Queued derivatives for image %d (%s)", h.RecordID, h.Identifier)
		return h, nil
	}

	if err := g.process(ctx, h, original, cropped, "sync"); err != nil {
		return Handle{}, err
	}
	return h, nil
}

// Discard deletes a recorded image and any derivatives written for it.
func (g *Generator) Discard(ctx context.Context, h Handle) error {
	if err := g.repo.DeleteImage(ctx, h.RecordID); err != nil {
		return fmt.Errorf("delete image %d: %w", h.RecordID, err)
	}
	if err := g.writer.Remove(h.Identifier); err != nil {
		return fmt.Errorf("remove derivatives for %s: %w", h.Identifier, err)
	}
	return nil
}

// process derives, writes and marks one image. On failure the record stays
// unprocessed and is removed by the next maintenance sweep.
func (g *Generator) process(ctx context.Context, h Handle, original, cropped image.Image, mode string) (err error) {
	start := time.Now()
	defer func() {
		status := "success"
		if err != nil {
			status = "error"
		}
		metrics.DerivativeGenerationsTotal.WithLabelValues(mode, status).Inc()
		metrics.DerivativeGenerationDuration.WithLabelValues("total").Observe(time.Since(start).Seconds())
	}()

	if g.memory != nil && !g.memory.WaitIfPaused() {
		return errPaused
	}

	resizeStart := time.Now()
	set := Derive(original, cropped, g.maxRatio)
	metrics.DerivativeGenerationDuration.WithLabelValues("resize").Observe(time.Since(resizeStart).Seconds())

	writeStart := time.Now()
	if err := g.writer.Write(h.Identifier, set); err != nil {
		return fmt.Errorf("write derivatives: %w", err)
	}
	metrics.DerivativeGenerationDuration.WithLabelValues("write").Observe(time.Since(writeStart).Seconds())

	if err := g.repo.MarkImageProcessed(ctx, h.RecordID); err != nil {
		return fmt.Errorf("mark image %d processed: %w", h.RecordID, err)
	}

	g.log.Debug("Generated derivatives for image %d in %v", h.RecordID, time.Since(start))
	return nil
}

// Derive computes every derivative kind. cropped, when non-nil, replaces
// original as the source for all kinds but Original.
func Derive(original, cropped image.Image, maxRatio int) Set {
	src := original
	if cropped != nil {
		src = cropped
	}

	set := make(Set, len(kindSpecs))
	for _, kind := range Kinds() {
		w, h := kind.Box()
		switch kind.Policy() {
		case PolicySingle:
			set[kind] = []image.Image{original}
		case PolicyFit:
			set[kind] = []image.Image{fitWithin(src, w, h)}
		case PolicyVariants:
			set[kind] = ResizeVariants(src, w, h, maxRatio)
		}
	}
	return set
}

func fitWithin(src image.Image, w, h int) image.Image {
	b := src.Bounds()
	if b.Dx() <= w && b.Dy() <= h {
		return src
	}
	return imaging.Fit(src, w, h, imaging.CatmullRom)
}

// NewIdentifier returns 32 random bytes in unpadded URL-safe base64.
func NewIdentifier() (string, error) {
	buf := make([]byte, identifierBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
