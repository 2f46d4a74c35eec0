package media

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"

	"media-pipeline/internal/logging"
	"media-pipeline/internal/metrics"
	"media-pipeline/internal/storage"
)

// DefaultQuality is the JPEG quality used when none is configured.
const DefaultQuality = 85

// Set maps each derivative kind to its renditions. Variant kinds hold one
// image per pixel ratio, starting at ratio 1.
type Set map[Kind][]image.Image

// Writer stores derivative sets in an image store.
type Writer struct {
	store   *storage.Store
	quality int
}

// NewWriter returns a Writer encoding at quality (1-100).
func NewWriter(store *storage.Store, quality int) *Writer {
	if quality < 1 || quality > 100 {
		quality = DefaultQuality
	}
	return &Writer{store: store, quality: quality}
}

// Write creates the identifier directory and writes every rendition in set.
// A failure leaves whatever was already written in place.
func (w *Writer) Write(identifier string, set Set) error {
	scope := w.store.Scope(identifier)
	if err := scope.Create(); err != nil {
		return fmt.Errorf("create derivative directory: %w", err)
	}

	for _, kind := range Kinds() {
		for i, img := range set[kind] {
			name := FileName(kind, i+1)

			data, err := w.encode(img)
			if err != nil {
				return fmt.Errorf("encode %s: %w", name, err)
			}
			if err := scope.Write(name, data); err != nil {
				return fmt.Errorf("write %s: %w", name, err)
			}
			metrics.DerivativesWrittenTotal.WithLabelValues(kind.String()).Inc()
		}
	}

	logging.Debug("Wrote derivatives for %s", identifier)
	return nil
}

// Remove deletes every rendition stored for identifier.
func (w *Writer) Remove(identifier string) error {
	return w.store.Scope(identifier).Remove()
}

// encode produces a progressive JPEG when libvips is running and a
// baseline one otherwise.
func (w *Writer) encode(img image.Image) ([]byte, error) {
	if IsVipsAvailable() {
		data, err := encodeProgressive(img, w.quality)
		if err == nil {
			metrics.DerivativeEncodeTotal.WithLabelValues("vips").Inc()
			return data, nil
		}
		logging.Warn("Progressive encode failed, using baseline JPEG: %v", err)
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: w.quality}); err != nil {
		return nil, err
	}
	metrics.DerivativeEncodeTotal.WithLabelValues("stdlib").Inc()
	return buf.Bytes(), nil
}
