// Package storage is the filesystem port of the media pipeline.
//
// A Store is a rooted directory for one media kind. Images live under
// <root>/<identifier>/, videos under <root>/<sha256>/. Callers work on one
// identifier at a time through a Scope:
//
//	images, err := storage.Open(cfg.ImageDir, "images")
//	if err != nil { ... }
//	defer images.Close()
//
//	sc := images.Scope(identifier)
//	if err := sc.Create(); err != nil { ... }
//	err = sc.Write("post_preview_2x.jpg", data)
//
// Paths are validated with filepath.IsLocal so nothing can escape the root.
// Writes are neither atomic nor journaled; recovery from a crash mid-write
// belongs to the startup sweep.
package storage
