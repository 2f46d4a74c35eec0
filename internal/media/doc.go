// Package media turns uploaded images into the fixed family of derivative
// renditions served to clients.
//
// The pieces are:
//   - Kind: the enumeration of derivative kinds, each carrying its target
//     box and ratio policy
//   - ResizeVariants: the aspect-aware resizer producing 1..N pixel-ratio
//     variants without ever upscaling past the source
//   - Writer: encodes a derivative set as progressive JPEG and stores it
//     under <root>/<identifier>/<kind>_<ratio>x.jpg
//   - Generator: validates the owner, decodes the upload, records the image
//     and derives/writes it either inline or on the worker pool
//
// Decoding uses imaging with EXIF auto-orientation and falls back to
// libvips for formats the Go decoders do not understand (HEIC, AVIF).
package media
