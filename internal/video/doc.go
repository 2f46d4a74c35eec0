// Package video ingests uploaded videos.
//
// Raw bytes are stored once per content hash under
// <videos_root>/<sha256>/video<ext>; every upload still gets its own video
// record and its own thumbnail image, generated synchronously from the first
// frame so the record is complete (processed) when Ingest returns.
package video
