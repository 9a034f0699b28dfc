package relapse

import (
	"errors"
	"fmt"
	"regexp"
	"time"
)

// Event is a time-gated grouping of photos. Its photos become viewable once
// ReleaseAt has passed.
type Event struct {
	ID        int64     `json:"id"`
	UUID      string    `json:"uuid"`
	Name      *string   `json:"name"`
	ReleaseAt time.Time `json:"process_datetime"`
	CreatedAt time.Time `json:"created_at"`
}

// IsReleased reports whether the event's photos may be listed at now.
func (e Event) IsReleased(now time.Time) bool {
	return !now.UTC().Before(e.ReleaseAt.UTC())
}

type Photo struct {
	ID          int64     `json:"id"`
	UserID      string    `json:"user_id"`
	EventID     *int64    `json:"event_id"`
	EventUUID   *string   `json:"event_uuid"`
	StorageKey  string    `json:"s3_key"`
	ContentType *string   `json:"content_type"`
	CreatedAt   time.Time `json:"created_at"`
}

type NewEvent struct {
	Name      *string
	ReleaseAt time.Time
}

type NewPhoto struct {
	UserID      string
	EventID     *int64
	StorageKey  string
	ContentType *string
}

// CreateEventRequest is the caller supplied input for CreateEvent.
type CreateEventRequest struct {
	Name            *string `json:"name"`
	ProcessDatetime string  `json:"process_datetime"`
}

// SavePhotoRequest is the caller supplied input for SavePhoto. EventUUID is
// empty when the photo is not linked to an event.
type SavePhotoRequest struct {
	UserID      string
	EventUUID   string
	Filename    string
	ContentType string
}

type SavedPhoto struct {
	PhotoID int64
	URL     *string
}

// PhotoView is a listed photo with a freshly minted download URL. URL is nil
// when signing failed.
type PhotoView struct {
	Photo
	URL *string
}

type EventView struct {
	Event  Event
	Ready  bool
	Photos []PhotoView
}

// AccessPolicy is the object ACL requested on upload. Its value is the
// canned ACL name shared by S3, GCS and MinIO.
type AccessPolicy string

const AccessPrivate AccessPolicy = "private"

// Tables holds configurable table names for metadata storage.
type Tables struct {
	Events string `mapstructure:"events"`
	Photos string `mapstructure:"photos"`
}

// DefaultTables returns the table names used when none are configured.
func DefaultTables() Tables {
	return Tables{Events: "events", Photos: "photos"}
}

var validTableNameRegex = regexp.MustCompile(`^[a-z_][a-z0-9_]*$`)

// IsValidTableName checks if a table name is valid (lowercase, alphanumeric with underscores, max 63 chars).
func IsValidTableName(name string) bool {
	return validTableNameRegex.MatchString(name) && len(name) <= 63
}

// Validate checks that all required table names are set, valid and distinct.
func (t Tables) Validate() error {
	if t.Events == "" {
		return errors.New("validate tables: events table name cannot be empty")
	}

	if t.Photos == "" {
		return errors.New("validate tables: photos table name cannot be empty")
	}

	if !IsValidTableName(t.Events) {
		return fmt.Errorf("validate tables: invalid events table name: %s (must match ^[a-z_][a-z0-9_]*$ and be <= 63 chars)", t.Events)
	}

	if !IsValidTableName(t.Photos) {
		return fmt.Errorf("validate tables: invalid photos table name: %s (must match ^[a-z_][a-z0-9_]*$ and be <= 63 chars)", t.Photos)
	}

	if t.Events == t.Photos {
		return fmt.Errorf("validate tables: events and photos tables must differ: %s", t.Events)
	}

	return nil
}
