// Package reconciler promotes posts to processed once all of their media is.
//
// Each pass re-derives every pending post's state from the database, so the
// loop keeps nothing between passes and needs no cleanup when stopped. A
// post is promoted when it has no attachments, when all of its images are
// processed, or when its video is. The promotion is conditional on the
// post's version so an attachment added during the pass keeps it pending
// until the next one.
package reconciler
