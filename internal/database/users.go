package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// CreateUser inserts a user and returns its id.
func (d *Database) CreateUser(ctx context.Context, username string) (int64, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := d.db.ExecContext(ctx, `INSERT INTO users (username) VALUES (?)`, username)
	if err != nil {
		return 0, fmt.Errorf("insert user %q: %w", username, err)
	}
	return res.LastInsertId()
}

// UserExists reports whether a user with the given id exists.
func (d *Database) UserExists(ctx context.Context, id int64) (bool, error) {
	start := time.Now()
	var err error
	defer func() { recordQuery("user_exists", start, err) }()

	d.mu.RLock()
	defer d.mu.RUnlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var exists bool
	err = d.db.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM users WHERE id = ?)`, id).Scan(&exists)
	return exists, err
}

// GetUser returns the user with the given id.
func (d *Database) GetUser(ctx context.Context, id int64) (*User, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var (
		u         User
		avatar    sql.NullInt64
		header    sql.NullInt64
		createdAt int64
	)
	err := d.db.QueryRowContext(ctx,
		`SELECT id, username, avatar_id, header_id, created_at FROM users WHERE id = ?`, id,
	).Scan(&u.ID, &u.Username, &avatar, &header, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	u.AvatarID = nullableID(avatar)
	u.HeaderID = nullableID(header)
	u.CreatedAt = time.Unix(createdAt, 0)
	return &u, nil
}

// SetAvatar points the user's profile-picture slot at imageID.
func (d *Database) SetAvatar(ctx context.Context, userID, imageID int64) error {
	return d.setSlot(ctx, "avatar_id", userID, imageID)
}

// SetHeader points the user's header slot at imageID.
func (d *Database) SetHeader(ctx context.Context, userID, imageID int64) error {
	return d.setSlot(ctx, "header_id", userID, imageID)
}

func (d *Database) setSlot(ctx context.Context, column string, userID, imageID int64) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	// column is one of two constants above, never user input.
	res, err := d.db.ExecContext(ctx,
		`UPDATE users SET `+column+` = ? WHERE id = ?
		 AND EXISTS(SELECT 1 FROM images WHERE id = ? AND owner_id = ?)`,
		imageID, userID, imageID, userID)
	if err != nil {
		return fmt.Errorf("set %s for user %d: %w", column, userID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func nullableID(v sql.NullInt64) *int64 {
	if !v.Valid {
		return nil
	}
	id := v.Int64
	return &id
}
