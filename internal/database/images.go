package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// CreateImage inserts an unprocessed image record and returns its id.
func (d *Database) CreateImage(ctx context.Context, identifier string, ownerID int64) (int64, error) {
	start := time.Now()
	var err error
	defer func() { recordQuery("create_image", start, err) }()

	d.mu.Lock()
	defer d.mu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var res sql.Result
	res, err = d.db.ExecContext(ctx,
		`INSERT INTO images (identifier, owner_id, processed) VALUES (?, ?, 0)`,
		identifier, ownerID)
	if err != nil {
		return 0, fmt.Errorf("insert image %s: %w", identifier, err)
	}
	return res.LastInsertId()
}

// MarkImageProcessed flips an image to processed. It never reverts.
func (d *Database) MarkImageProcessed(ctx context.Context, id int64) error {
	start := time.Now()
	var err error
	defer func() { recordQuery("mark_image_processed", start, err) }()

	d.mu.Lock()
	defer d.mu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var res sql.Result
	res, err = d.db.ExecContext(ctx, `UPDATE images SET processed = 1 WHERE id = ?`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		err = ErrNotFound
	}
	return err
}

const imageColumns = `id, identifier, owner_id, processed, created_at`

func scanImage(row interface{ Scan(...any) error }) (*Image, error) {
	var (
		img       Image
		createdAt int64
	)
	if err := row.Scan(&img.ID, &img.Identifier, &img.OwnerID, &img.Processed, &createdAt); err != nil {
		return nil, err
	}
	img.CreatedAt = time.Unix(createdAt, 0)
	return &img, nil
}

// GetImageByIdentifier returns the image stored under identifier.
func (d *Database) GetImageByIdentifier(ctx context.Context, identifier string) (*Image, error) {
	start := time.Now()
	var err error
	defer func() { recordQuery("get_image", start, err) }()

	d.mu.RLock()
	defer d.mu.RUnlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var img *Image
	img, err = scanImage(d.db.QueryRowContext(ctx,
		`SELECT `+imageColumns+` FROM images WHERE identifier = ?`, identifier))
	if errors.Is(err, sql.ErrNoRows) {
		err = ErrNotFound
	}
	return img, err
}

// GetImage returns the image with the given id.
func (d *Database) GetImage(ctx context.Context, id int64) (*Image, error) {
	start := time.Now()
	var err error
	defer func() { recordQuery("get_image", start, err) }()

	d.mu.RLock()
	defer d.mu.RUnlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var img *Image
	img, err = scanImage(d.db.QueryRowContext(ctx,
		`SELECT `+imageColumns+` FROM images WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		err = ErrNotFound
	}
	return img, err
}

// UnprocessedImages returns every image still marked processed = false.
func (d *Database) UnprocessedImages(ctx context.Context) ([]Image, error) {
	start := time.Now()
	var err error
	defer func() { recordQuery("unprocessed_images", start, err) }()

	d.mu.RLock()
	defer d.mu.RUnlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var rows *sql.Rows
	rows, err = d.db.QueryContext(ctx,
		`SELECT `+imageColumns+` FROM images WHERE processed = 0 ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var images []Image
	for rows.Next() {
		var img *Image
		img, err = scanImage(rows)
		if err != nil {
			return nil, err
		}
		images = append(images, *img)
	}
	err = rows.Err()
	return images, err
}

// DeleteImage removes an image record. Post attachments, video records that
// use it as a thumbnail, and user slots pointing at it are cleaned up by
// the schema's foreign keys.
func (d *Database) DeleteImage(ctx context.Context, id int64) error {
	start := time.Now()
	var err error
	defer func() { recordQuery("delete_image", start, err) }()

	d.mu.Lock()
	defer d.mu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	_, err = d.db.ExecContext(ctx, `DELETE FROM images WHERE id = ?`, id)
	return err
}
