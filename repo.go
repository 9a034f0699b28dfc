package relapse

import (
	"context"
	"io"
	"time"
)

type EventRepo interface {
	// CreateEvent inserts a new event, assigning its id, uuid and created_at.
	CreateEvent(ctx context.Context, e NewEvent) (Event, error)

	// GetEventByUUID returns ErrNotFound when no event has the given uuid.
	GetEventByUUID(ctx context.Context, uuid string) (Event, error)
}

type PhotoRepo interface {
	// CreatePhoto inserts a photo row. EventUUID of the result is populated
	// when EventID is set.
	CreatePhoto(ctx context.Context, p NewPhoto) (Photo, error)

	// ListPhotosByEvent returns the event's photos, oldest first.
	ListPhotosByEvent(ctx context.Context, eventID int64) ([]Photo, error)

	// ListPhotosByUser returns the user's photos, newest first, with the
	// linked event uuid joined in.
	ListPhotosByUser(ctx context.Context, userID string) ([]Photo, error)
}

// MetaDataRepo is the relational store for events and photos.
// Implementations must be safe for concurrent use.
type MetaDataRepo interface {
	EventRepo
	PhotoRepo
	Ping(ctx context.Context) error
}

// BlobStore uploads photo bytes and mints time-limited read URLs.
// Implementations must be safe for concurrent use and must return
// ErrNotConfigured when their bucket is unset.
type BlobStore interface {
	Upload(ctx context.Context, key string, content io.Reader, contentType string, policy AccessPolicy) error
	SignURL(ctx context.Context, key string, expires time.Duration) (string, error)
}
