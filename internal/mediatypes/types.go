package mediatypes

import (
	"github.com/gabriel-vasile/mimetype"
)

// FileType represents the type of an uploaded file.
type FileType string

const (
	// FileTypeImage represents an image file.
	FileTypeImage FileType = "image"
	// FileTypeVideo represents a video file.
	FileTypeVideo FileType = "video"
	// FileTypeOther represents an unknown or unsupported file type.
	FileTypeOther FileType = "other"
)

// ImageMimeTypes maps accepted image MIME types to their file extension.
// HEIC, HEIF and AVIF decode only when libvips is available.
var ImageMimeTypes = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/gif":  ".gif",
	"image/bmp":  ".bmp",
	"image/webp": ".webp",
	"image/tiff": ".tiff",
	"image/heic": ".heic",
	"image/heif": ".heif",
	"image/avif": ".avif",
}

// VideoMimeTypes maps accepted video MIME types to their file extension.
var VideoMimeTypes = map[string]string{
	"video/mp4":        ".mp4",
	"video/webm":       ".webm",
	"video/quicktime":  ".mov",
	"video/x-matroska": ".mkv",
	"video/x-msvideo":  ".avi",
	"video/x-m4v":      ".m4v",
	"video/mpeg":       ".mpeg",
	"video/3gpp":       ".3gp",
	"video/x-flv":      ".flv",
}

// Detection is the result of sniffing an upload.
type Detection struct {
	Type      FileType
	MimeType  string
	Extension string
}

// Detect sniffs data and classifies it against the allow-lists.
// Unlisted content is FileTypeOther with an empty Extension.
func Detect(data []byte) Detection {
	mt := mimetype.Detect(data)
	for m := mt; m != nil; m = m.Parent() {
		if d, ok := classify(m.String()); ok {
			return d
		}
	}
	return Detection{Type: FileTypeOther, MimeType: mt.String()}
}

// classify looks a bare MIME type (no parameters) up in the allow-lists.
func classify(mime string) (Detection, bool) {
	if ext, ok := ImageMimeTypes[mime]; ok {
		return Detection{Type: FileTypeImage, MimeType: mime, Extension: ext}, true
	}
	if ext, ok := VideoMimeTypes[mime]; ok {
		return Detection{Type: FileTypeVideo, MimeType: mime, Extension: ext}, true
	}
	return Detection{}, false
}
