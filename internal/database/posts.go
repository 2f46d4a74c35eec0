package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"media-pipeline/internal/metrics"
)

// CreatePost inserts an unprocessed post together with its attachments in
// one transaction, so a reconciliation pass never sees it half built. A post
// carries either images (in the given order) or a single video, not both.
// Unknown image identifiers fail with ErrNotFound and nothing is inserted.
func (d *Database) CreatePost(ctx context.Context, authorID int64, imageIdentifiers []string, videoID *int64) (id int64, err error) {
	start := time.Now()
	defer func() { recordQuery("create_post", start, err) }()

	if videoID != nil && len(imageIdentifiers) > 0 {
		return 0, ErrAttachmentConflict
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	err = d.withTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx,
			`INSERT INTO posts (author_id, video_id, processed) VALUES (?, ?, 0)`, authorID, videoID)
		if err != nil {
			return fmt.Errorf("insert post: %w", err)
		}
		if id, err = res.LastInsertId(); err != nil {
			return err
		}
		for i, ident := range imageIdentifiers {
			if err := insertPostImage(ctx, tx, id, ident, i); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return id, nil
}

// insertPostImage attaches the image stored under identifier at position.
func insertPostImage(ctx context.Context, tx *sql.Tx, postID int64, identifier string, position int) error {
	var imageID int64
	err := tx.QueryRowContext(ctx, `SELECT id FROM images WHERE identifier = ?`, identifier).Scan(&imageID)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return err
	}

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO post_images (post_id, image_id, position) VALUES (?, ?, ?)`,
		postID, imageID, position); err != nil {
		return fmt.Errorf("attach image %s to post %d: %w", identifier, postID, err)
	}
	return nil
}

// lockPendingPost loads a post inside tx and rejects processed posts.
func lockPendingPost(ctx context.Context, tx *sql.Tx, postID int64) (videoID sql.NullInt64, images int, err error) {
	var processed bool
	err = tx.QueryRowContext(ctx,
		`SELECT processed, video_id, (SELECT COUNT(*) FROM post_images WHERE post_id = posts.id)
		 FROM posts WHERE id = ?`, postID,
	).Scan(&processed, &videoID, &images)
	if errors.Is(err, sql.ErrNoRows) {
		return videoID, 0, ErrNotFound
	}
	if err != nil {
		return videoID, 0, err
	}
	if processed {
		return videoID, 0, ErrPostProcessed
	}
	return videoID, images, nil
}

// AttachImage appends the image stored under identifier to a pending post
// and bumps the post version.
func (d *Database) AttachImage(ctx context.Context, postID int64, identifier string) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	return d.withTx(ctx, func(tx *sql.Tx) error {
		videoID, count, err := lockPendingPost(ctx, tx, postID)
		if err != nil {
			return err
		}
		if videoID.Valid {
			return ErrAttachmentConflict
		}
		if err := insertPostImage(ctx, tx, postID, identifier, count); err != nil {
			return err
		}

		_, err = tx.ExecContext(ctx, `UPDATE posts SET version = version + 1 WHERE id = ?`, postID)
		return err
	})
}

// AttachVideo sets the single video of a pending post that has no images.
func (d *Database) AttachVideo(ctx context.Context, postID, videoID int64) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	return d.withTx(ctx, func(tx *sql.Tx) error {
		existing, count, err := lockPendingPost(ctx, tx, postID)
		if err != nil {
			return err
		}
		if existing.Valid || count > 0 {
			return ErrAttachmentConflict
		}

		_, err = tx.ExecContext(ctx,
			`UPDATE posts SET video_id = ?, version = version + 1 WHERE id = ?`, videoID, postID)
		return err
	})
}

// GetPost returns a post with its image identifiers.
func (d *Database) GetPost(ctx context.Context, id int64) (*Post, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var (
		p         Post
		videoID   sql.NullInt64
		createdAt int64
	)
	err := d.db.QueryRowContext(ctx,
		`SELECT id, author_id, video_id, processed, version, created_at FROM posts WHERE id = ?`, id,
	).Scan(&p.ID, &p.AuthorID, &videoID, &p.Processed, &p.Version, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	p.VideoID = nullableID(videoID)
	p.CreatedAt = time.Unix(createdAt, 0)

	rows, err := d.db.QueryContext(ctx,
		`SELECT i.identifier FROM post_images pi JOIN images i ON i.id = pi.image_id
		 WHERE pi.post_id = ? ORDER BY pi.position`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var ident string
		if err := rows.Scan(&ident); err != nil {
			return nil, err
		}
		p.ImageIdentifiers = append(p.ImageIdentifiers, ident)
	}
	return &p, rows.Err()
}

// PendingPosts returns every post with processed = false, each carrying
// the identifiers of its attached images and the version read alongside.
func (d *Database) PendingPosts(ctx context.Context) ([]Post, error) {
	start := time.Now()
	var err error
	defer func() { recordQuery("pending_posts", start, err) }()

	d.mu.RLock()
	defer d.mu.RUnlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var rows *sql.Rows
	rows, err = d.db.QueryContext(ctx,
		`SELECT p.id, p.author_id, p.video_id, p.version, p.created_at, i.identifier
		 FROM posts p
		 LEFT JOIN post_images pi ON pi.post_id = p.id
		 LEFT JOIN images i ON i.id = pi.image_id
		 WHERE p.processed = 0
		 ORDER BY p.id, pi.position`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var posts []Post
	for rows.Next() {
		var (
			id, authorID, version, createdAt int64
			videoID                          sql.NullInt64
			ident                            sql.NullString
		)
		if err = rows.Scan(&id, &authorID, &videoID, &version, &createdAt, &ident); err != nil {
			return nil, err
		}

		if len(posts) == 0 || posts[len(posts)-1].ID != id {
			posts = append(posts, Post{
				ID:        id,
				AuthorID:  authorID,
				VideoID:   nullableID(videoID),
				Version:   version,
				CreatedAt: time.Unix(createdAt, 0),
			})
		}
		if ident.Valid {
			last := &posts[len(posts)-1]
			last.ImageIdentifiers = append(last.ImageIdentifiers, ident.String)
		}
	}
	err = rows.Err()
	return posts, err
}

// MarkPostProcessed flips a post to processed if its version still equals
// version. It reports false when the post changed (or vanished) since it
// was read, leaving it pending for the next pass.
func (d *Database) MarkPostProcessed(ctx context.Context, id, version int64) (bool, error) {
	start := time.Now()
	var err error
	defer func() { recordQuery("mark_post_processed", start, err) }()

	d.mu.Lock()
	defer d.mu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var res sql.Result
	res, err = d.db.ExecContext(ctx,
		`UPDATE posts SET processed = 1 WHERE id = ? AND version = ? AND processed = 0`, id, version)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

// PostsReferencingImage returns the ids of posts that attach the image
// directly or through a video using it as thumbnail.
func (d *Database) PostsReferencingImage(ctx context.Context, imageID int64) ([]int64, error) {
	start := time.Now()
	var err error
	defer func() { recordQuery("posts_referencing_image", start, err) }()

	d.mu.RLock()
	defer d.mu.RUnlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var rows *sql.Rows
	rows, err = d.db.QueryContext(ctx,
		`SELECT post_id FROM post_images WHERE image_id = ?
		 UNION
		 SELECT p.id FROM posts p JOIN videos v ON v.id = p.video_id WHERE v.thumbnail_id = ?
		 ORDER BY 1`, imageID, imageID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err = rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	err = rows.Err()
	return ids, err
}

// DeletePost removes a post and its attachment rows.
func (d *Database) DeletePost(ctx context.Context, id int64) error {
	start := time.Now()
	var err error
	defer func() { recordQuery("delete_post", start, err) }()

	d.mu.Lock()
	defer d.mu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	_, err = d.db.ExecContext(ctx, `DELETE FROM posts WHERE id = ?`, id)
	return err
}

// PipelineStats reports backlog counts for the metrics collector.
func (d *Database) PipelineStats(ctx context.Context) (metrics.Stats, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	var s metrics.Stats
	err := d.db.QueryRowContext(ctx,
		`SELECT
			(SELECT COUNT(*) FROM posts WHERE processed = 0),
			(SELECT COUNT(*) FROM images WHERE processed = 0),
			(SELECT COUNT(*) FROM videos)`,
	).Scan(&s.PendingPosts, &s.UnprocessedImages, &s.Videos)
	return s, err
}
