package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// CreateVideo inserts a video record. Videos are processed on creation
// since no transcoding stage follows the upload.
func (d *Database) CreateVideo(ctx context.Context, identifier string, ownerID int64, contentHash string, thumbnailID int64) (int64, error) {
	start := time.Now()
	var err error
	defer func() { recordQuery("create_video", start, err) }()

	d.mu.Lock()
	defer d.mu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var res sql.Result
	res, err = d.db.ExecContext(ctx,
		`INSERT INTO videos (identifier, owner_id, content_hash, thumbnail_id, processed)
		 VALUES (?, ?, ?, ?, 1)`,
		identifier, ownerID, contentHash, thumbnailID)
	if err != nil {
		return 0, fmt.Errorf("insert video %s: %w", identifier, err)
	}
	return res.LastInsertId()
}

// GetVideo returns the video with the given id.
func (d *Database) GetVideo(ctx context.Context, id int64) (*Video, error) {
	start := time.Now()
	var err error
	defer func() { recordQuery("get_video", start, err) }()

	d.mu.RLock()
	defer d.mu.RUnlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var (
		v         Video
		createdAt int64
	)
	err = d.db.QueryRowContext(ctx,
		`SELECT id, identifier, owner_id, content_hash, thumbnail_id, processed, created_at
		 FROM videos WHERE id = ?`, id,
	).Scan(&v.ID, &v.Identifier, &v.OwnerID, &v.ContentHash, &v.ThumbnailID, &v.Processed, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		err = ErrNotFound
		return nil, err
	}
	if err != nil {
		return nil, err
	}
	v.CreatedAt = time.Unix(createdAt, 0)
	return &v, nil
}

// CountVideosByHash returns how many video records share contentHash.
func (d *Database) CountVideosByHash(ctx context.Context, contentHash string) (int, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var n int
	err := d.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM videos WHERE content_hash = ?`, contentHash).Scan(&n)
	return n, err
}
