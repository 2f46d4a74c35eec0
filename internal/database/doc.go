// Package database provides SQLite persistence for the media pipeline.
//
// It stores:
//   - images: one row per uploaded image, keyed by a random identifier,
//     with the processed flag set once derivatives are on disk
//   - videos: owner-specific records pointing at shared raw bytes by
//     content hash and at an owned thumbnail image
//   - posts and post_images: attachment lists and the derived processed flag
//   - users: the profile-picture and header slots
//
// Foreign keys are enabled so deleting an image removes its attachments,
// any video using it as a thumbnail, and clears user slots. Posts carry a
// version counter; MarkPostProcessed only succeeds for the version the
// caller observed.
//
// The database uses WAL mode and a busy timeout for concurrent access from
// the upload path, the worker pool and the reconciler.
package database
