package maintenance

import (
	"context"
	"errors"
	"fmt"
	"time"

	"media-pipeline/internal/database"
	"media-pipeline/internal/logging"
	"media-pipeline/internal/metrics"
)

// Store is the persistence the sweep reads and deletes from.
type Store interface {
	UnprocessedImages(ctx context.Context) ([]database.Image, error)
	PostsReferencingImage(ctx context.Context, imageID int64) ([]int64, error)
	DeletePost(ctx context.Context, id int64) error
	DeleteImage(ctx context.Context, id int64) error
}

// Files removes derivative directories. storage.Store implements it.
type Files interface {
	RemoveAll(rel string) error
}

// Report lists what a sweep removed.
type Report struct {
	Images []string
	Posts  []int64
}

var log = logging.For("sweep")

// Sweep deletes every unprocessed image together with the posts that
// reference it, directly or as a video thumbnail. An image whose posts
// could not all be deleted is kept for the next sweep.
func Sweep(ctx context.Context, store Store, files Files) (Report, error) {
	start := time.Now()
	var report Report

	images, err := store.UnprocessedImages(ctx)
	if err != nil {
		return report, fmt.Errorf("list unprocessed images: %w", err)
	}
	if len(images) == 0 {
		log.Info("No interrupted uploads found")
		metrics.SweepLastRunTimestamp.SetToCurrentTime()
		return report, nil
	}

	log.Warn("Found %d interrupted uploads", len(images))

	var errs []error
	for _, img := range images {
		posts, err := sweepImage(ctx, store, files, img)
		report.Posts = append(report.Posts, posts...)
		if err != nil {
			errs = append(errs, fmt.Errorf("image %s: %w", img.Identifier, err))
			continue
		}
		report.Images = append(report.Images, img.Identifier)
		metrics.SweepImagesDeleted.Inc()
	}

	metrics.SweepLastRunTimestamp.SetToCurrentTime()
	log.Info("Removed %d images and %d posts in %v", len(report.Images), len(report.Posts), time.Since(start))
	return report, errors.Join(errs...)
}

func sweepImage(ctx context.Context, store Store, files Files, img database.Image) ([]int64, error) {
	postIDs, err := store.PostsReferencingImage(ctx, img.ID)
	if err != nil {
		return nil, fmt.Errorf("find referencing posts: %w", err)
	}

	var deleted []int64
	for _, id := range postIDs {
		if err := store.DeletePost(ctx, id); err != nil {
			return deleted, fmt.Errorf("delete post %d: %w", id, err)
		}
		log.Warn("Deleted post %d referencing interrupted upload %s", id, img.Identifier)
		metrics.SweepPostsDeleted.Inc()
		deleted = append(deleted, id)
	}

	if err := store.DeleteImage(ctx, img.ID); err != nil {
		return deleted, fmt.Errorf("delete image record: %w", err)
	}

	// The record is gone; a leftover directory is unreachable and only logged.
	if err := files.RemoveAll(img.Identifier); err != nil {
		log.Warn("Failed to remove derivatives for %s: %v", img.Identifier, err)
	}
	log.Info("Deleted interrupted upload %s (image %d)", img.Identifier, img.ID)
	return deleted, nil
}
