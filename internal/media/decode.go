package media

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"strings"

	// Registered for image.DecodeConfig format detection and imaging.Decode.
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"github.com/disintegration/imaging"
	"github.com/gabriel-vasile/mimetype"
	_ "golang.org/x/image/webp"

	"media-pipeline/internal/metrics"
)

var (
	// ErrInvalidMedia is returned for uploads that cannot be decoded as an
	// image or recognized as a supported video.
	ErrInvalidMedia = errors.New("media: invalid media")
	// ErrUnknownOwner is returned when the uploading user does not exist.
	ErrUnknownOwner = errors.New("media: unknown owner")
)

// DefaultMaxImagePixels bounds width*height of an upload when no limit is
// configured. A 50MP image decodes to roughly 200MB of RGBA.
const DefaultMaxImagePixels = 50_000_000

// vipsOnlyFormats lists MIME subtypes only libvips can decode.
var vipsOnlyFormats = map[string]bool{
	"heic": true,
	"heif": true,
	"avif": true,
}

// Decode decodes an uploaded image, applying EXIF orientation. Images
// whose header declares more than maxPixels pixels are rejected before any
// pixel data is allocated; maxPixels <= 0 disables the check.
// Failures wrap ErrInvalidMedia.
func Decode(data []byte, maxPixels int) (image.Image, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: empty upload", ErrInvalidMedia)
	}

	format := detectFormat(data)

	if cfg, _, err := image.DecodeConfig(bytes.NewReader(data)); err == nil {
		if err := checkPixels(cfg.Width, cfg.Height, maxPixels); err != nil {
			return nil, err
		}
	}

	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err == nil {
		metrics.ImageDecodeByFormat.WithLabelValues(format).Inc()
		return img, nil
	}

	if !vipsOnlyFormats[format] {
		return nil, fmt.Errorf("%w: %v", ErrInvalidMedia, err)
	}

	img, vErr := decodeWithVips(data, maxPixels)
	if vErr != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrInvalidMedia, format, vErr)
	}
	metrics.ImageDecodeByFormat.WithLabelValues(format).Inc()
	return img, nil
}

// checkPixels rejects dimensions above maxPixels.
func checkPixels(width, height, maxPixels int) error {
	if maxPixels <= 0 {
		return nil
	}
	if int64(width)*int64(height) > int64(maxPixels) {
		return fmt.Errorf("%w: %dx%d exceeds %d pixels", ErrInvalidMedia, width, height, maxPixels)
	}
	return nil
}

// detectFormat returns a short format label from the leading bytes.
func detectFormat(data []byte) string {
	mt := mimetype.Detect(data)
	if !strings.HasPrefix(mt.String(), "image/") {
		return "unknown"
	}
	sub := strings.TrimPrefix(mt.String(), "image/")
	switch sub {
	case "x-ms-bmp":
		return "bmp"
	case "heic-sequence":
		return "heic"
	case "heif-sequence":
		return "heif"
	}
	return sub
}
