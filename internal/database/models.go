package database

import (
	"errors"
	"time"
)

var (
	// ErrNotFound is returned when a lookup matches no row.
	ErrNotFound = errors.New("database: not found")
	// ErrPostProcessed is returned when attaching media to a post that has
	// already been marked processed.
	ErrPostProcessed = errors.New("database: post already processed")
	// ErrAttachmentConflict is returned when a post would end up with both
	// images and a video, or with more than one video.
	ErrAttachmentConflict = errors.New("database: post cannot mix images and video")
)

// User is the subset of the user record the media pipeline touches.
type User struct {
	ID        int64     `json:"id"`
	Username  string    `json:"username"`
	AvatarID  *int64    `json:"avatarId,omitempty"`
	HeaderID  *int64    `json:"headerId,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// Image is an uploaded image (MediaAsset). Its derivatives are stored on
// disk under Identifier.
type Image struct {
	ID         int64     `json:"id"`
	Identifier string    `json:"identifier"`
	OwnerID    int64     `json:"ownerId"`
	Processed  bool      `json:"processed"`
	CreatedAt  time.Time `json:"createdAt"`
}

// Video is an uploaded video (VideoAsset). ContentHash locates the raw
// bytes; the thumbnail image is always owned by the same user.
type Video struct {
	ID          int64     `json:"id"`
	Identifier  string    `json:"identifier"`
	OwnerID     int64     `json:"ownerId"`
	ContentHash string    `json:"contentHash"`
	ThumbnailID int64     `json:"thumbnailId"`
	Processed   bool      `json:"processed"`
	CreatedAt   time.Time `json:"createdAt"`
}

// Post references either zero-or-more images or a single video.
type Post struct {
	ID        int64     `json:"id"`
	AuthorID  int64     `json:"authorId"`
	VideoID   *int64    `json:"videoId,omitempty"`
	Processed bool      `json:"processed"`
	Version   int64     `json:"version"`
	CreatedAt time.Time `json:"createdAt"`

	// ImageIdentifiers lists attached images in attachment order.
	ImageIdentifiers []string `json:"images,omitempty"`
}
