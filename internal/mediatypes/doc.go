// Package mediatypes classifies uploads by content.
//
// Uploads are sniffed from their leading bytes with mimetype, never trusted
// from a client-supplied Content-Type or file name:
//
//	d := mediatypes.Detect(data)
//	if d.Type != mediatypes.FileTypeVideo {
//	    // reject
//	}
//	name := "video" + d.Extension
//
// The allow-lists (ImageMimeTypes, VideoMimeTypes) also fix the extension a
// stored video is written with.
package mediatypes
