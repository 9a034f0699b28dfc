package relapse

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"
)

const DefaultURLExpiry = time.Hour

type RelapseService struct {
	repo      MetaDataRepo
	blobs     BlobStore
	urlExpiry time.Duration
	now       func() time.Time
}

// ServiceConfig holds configuration options for RelapseService.
type ServiceConfig struct {
	URLExpiry time.Duration    // Lifetime of minted download URLs (default: 1h)
	Now       func() time.Time // Clock used for the release gate (default: time.Now)
}

func NewRelapseService(repo MetaDataRepo, blobs BlobStore, cfg ServiceConfig) (*RelapseService, error) {
	if repo == nil {
		return nil, errors.New("new relapse service: metadata repo is required")
	}
	if blobs == nil {
		return nil, errors.New("new relapse service: blob store is required")
	}
	expiry := cfg.URLExpiry
	if expiry <= 0 {
		expiry = DefaultURLExpiry
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	return &RelapseService{
		repo:      repo,
		blobs:     blobs,
		urlExpiry: expiry,
		now:       now,
	}, nil
}

// CreateEvent parses the requested release time and stores a new event.
// A release time without an explicit offset is taken to be UTC.
func (s *RelapseService) CreateEvent(ctx context.Context, req CreateEventRequest) (Event, error) {
	if err := ctx.Err(); err != nil {
		return Event{}, fmt.Errorf("create event: %w", err)
	}

	if req.ProcessDatetime == "" {
		return Event{}, newError(ErrInvalidInput, "process_datetime is required in ISO format", nil)
	}

	releaseAt, err := ParseReleaseTime(req.ProcessDatetime)
	if err != nil {
		return Event{}, newError(ErrInvalidInput, "Invalid process_datetime", err)
	}

	event, err := s.repo.CreateEvent(ctx, NewEvent{Name: req.Name, ReleaseAt: releaseAt})
	if err != nil {
		return Event{}, fmt.Errorf("create event: %w", err)
	}

	return event, nil
}

// SavePhoto uploads content to the blob store and records the photo.
//
// The referenced event is resolved before any upload so that an unknown
// event_uuid leaves no blob behind. The upload and the insert are not
// atomic: if the insert fails the uploaded blob stays orphaned.
func (s *RelapseService) SavePhoto(ctx context.Context, req SavePhotoRequest, content io.Reader) (SavedPhoto, error) {
	if err := ctx.Err(); err != nil {
		return SavedPhoto{}, fmt.Errorf("save photo: %w", err)
	}

	if req.UserID == "" {
		return SavedPhoto{}, newError(ErrInvalidInput, "user_id is required", nil)
	}

	if content == nil {
		return SavedPhoto{}, newError(ErrInvalidInput, "file is required", nil)
	}

	var eventID *int64
	if req.EventUUID != "" {
		event, err := s.repo.GetEventByUUID(ctx, req.EventUUID)
		if errors.Is(err, ErrNotFound) {
			return SavedPhoto{}, newError(ErrInvalidInput, "event_uuid not found", nil)
		}
		if err != nil {
			return SavedPhoto{}, fmt.Errorf("save photo: lookup event: %w", err)
		}
		eventID = &event.ID
	}

	key := BuildStorageKey(req.UserID, req.Filename)

	var contentType *string
	uploadType := "application/octet-stream"
	if req.ContentType != "" {
		ct := req.ContentType
		contentType = &ct
		uploadType = ct
	}

	if err := s.blobs.Upload(ctx, key, content, uploadType, AccessPrivate); err != nil {
		if errors.Is(err, ErrNotConfigured) {
			return SavedPhoto{}, newError(ErrNotConfigured, "storage bucket not configured", err)
		}
		return SavedPhoto{}, newError(ErrStorage, "Failed to upload to storage", err)
	}

	photo, err := s.repo.CreatePhoto(ctx, NewPhoto{
		UserID:      req.UserID,
		EventID:     eventID,
		StorageKey:  key,
		ContentType: contentType,
	})
	if err != nil {
		slog.Warn("photo uploaded but not recorded", "key", key, "error", err)
		return SavedPhoto{}, fmt.Errorf("save photo %s: %w", key, err)
	}

	return SavedPhoto{PhotoID: photo.ID, URL: s.signURL(ctx, key)}, nil
}

// ViewEvent returns the event's photos once its release time has passed.
// Before that, the returned view has Ready set to false and no photos.
func (s *RelapseService) ViewEvent(ctx context.Context, eventUUID string) (EventView, error) {
	if err := ctx.Err(); err != nil {
		return EventView{}, fmt.Errorf("view event: %w", err)
	}

	event, err := s.repo.GetEventByUUID(ctx, eventUUID)
	if errors.Is(err, ErrNotFound) {
		return EventView{}, newError(ErrNotFound, "Event not found", nil)
	}
	if err != nil {
		return EventView{}, fmt.Errorf("view event: %w", err)
	}

	if !event.IsReleased(s.now()) {
		return EventView{Event: event, Ready: false}, nil
	}

	photos, err := s.repo.ListPhotosByEvent(ctx, event.ID)
	if err != nil {
		return EventView{}, fmt.Errorf("view event %s: %w", eventUUID, err)
	}

	return EventView{Event: event, Ready: true, Photos: s.withURLs(ctx, photos)}, nil
}

// ListUserPhotos returns every photo the user uploaded, newest first.
func (s *RelapseService) ListUserPhotos(ctx context.Context, userID string) ([]PhotoView, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("list user photos: %w", err)
	}

	if userID == "" {
		return nil, newError(ErrInvalidInput, "user_id is required", nil)
	}

	photos, err := s.repo.ListPhotosByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list user photos: %w", err)
	}

	return s.withURLs(ctx, photos), nil
}

// Ping reports whether the metadata store is reachable.
func (s *RelapseService) Ping(ctx context.Context) error {
	if err := s.repo.Ping(ctx); err != nil {
		return fmt.Errorf("ping: %w", err)
	}
	return nil
}

func (s *RelapseService) withURLs(ctx context.Context, photos []Photo) []PhotoView {
	views := make([]PhotoView, 0, len(photos))
	for _, p := range photos {
		views = append(views, PhotoView{Photo: p, URL: s.signURL(ctx, p.StorageKey)})
	}
	return views
}

// signURL never fails the request; a signing error yields a nil URL.
func (s *RelapseService) signURL(ctx context.Context, key string) *string {
	url, err := s.blobs.SignURL(ctx, key, s.urlExpiry)
	if err != nil {
		slog.Warn("sign url failed", "key", key, "error", err)
		return nil
	}
	return &url
}
