package metrics

// InitializeMetrics pre-populates the expected label combinations so that
// every series is exported from the first Prometheus scrape.
// Call this once at startup.
func InitializeMetrics() {
	for _, mode := range []string{"sync", "background"} {
		for _, status := range []string{"success", "error"} {
			DerivativeGenerationsTotal.WithLabelValues(mode, status)
		}
	}

	for _, phase := range []string{"decode", "resize", "write", "total"} {
		DerivativeGenerationDuration.WithLabelValues(phase)
	}

	for _, kind := range []string{"original", "post", "post_preview", "header",
		"gallery_preview", "profile_picture", "profile_picture_large"} {
		DerivativesWrittenTotal.WithLabelValues(kind)
	}

	for _, enc := range []string{"vips", "stdlib"} {
		DerivativeEncodeTotal.WithLabelValues(enc)
	}

	for _, m := range []string{"image", "video"} {
		for _, reason := range []string{"invalid_media", "unknown_owner", "too_large"} {
			UploadsRejectedTotal.WithLabelValues(m, reason)
		}
	}

	for _, format := range []string{"jpeg", "png", "gif", "webp", "bmp", "tiff", "heif", "avif", "unknown"} {
		ImageDecodeByFormat.WithLabelValues(format)
	}

	for _, status := range []string{"success", "invalid", "error"} {
		VideoIngestTotal.WithLabelValues(status)
	}

	for _, status := range []string{"success", "error"} {
		ReconcilerPassesTotal.WithLabelValues(status)
	}

	volumes := []string{"images", "videos", "unknown"}
	for _, vol := range volumes {
		for _, op := range []string{"stat", "read", "write", "mkdir", "remove"} {
			FilesystemOperationDuration.WithLabelValues(vol, op)
			FilesystemOperationErrors.WithLabelValues(vol, op)
			FilesystemRetryAttempts.WithLabelValues(op, vol)
			FilesystemRetrySuccess.WithLabelValues(op, vol)
			FilesystemRetryFailures.WithLabelValues(op, vol)
			FilesystemStaleErrors.WithLabelValues(op, vol)
		}
	}

	for _, op := range []string{"create_image", "mark_image_processed", "get_image", "delete_image",
		"unprocessed_images", "create_post", "pending_posts", "mark_post_processed", "delete_post",
		"posts_referencing_image", "create_video", "get_video", "user_exists"} {
		DBQueryTotal.WithLabelValues(op, "success")
		DBQueryTotal.WithLabelValues(op, "error")
		DBQueryDuration.WithLabelValues(op)
	}

	for _, outcome := range []string{"commit", "rollback"} {
		DBTransactionDuration.WithLabelValues(outcome)
	}
}
