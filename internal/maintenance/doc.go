// Package maintenance recovers from uploads interrupted by a crash.
//
// An image still unprocessed when the process starts was being generated
// when the previous process died. Sweep discards each such image, every
// post depending on it and its partially written derivative directory.
// It runs once, before the server accepts requests.
package maintenance
