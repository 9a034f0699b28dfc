// Package postgres implements the repo interface using PostgreSQL
package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sagarc03/relapse"
)

// Timestamps are stored without a zone. Values are always written as UTC
// and pgx reads them back as UTC.

type repo struct {
	pool   *pgxpool.Pool
	events string
	photos string
}

func (r *repo) Ping(ctx context.Context) error {
	return r.pool.Ping(ctx)
}

func (r *repo) CreateEvent(ctx context.Context, e relapse.NewEvent) (relapse.Event, error) {
	query := fmt.Sprintf(`
		INSERT INTO %s (uuid, name, process_datetime)
		VALUES ($1, $2, $3)
		RETURNING id, uuid, name, process_datetime, created_at
	`, pgx.Identifier{r.events}.Sanitize())

	var ev relapse.Event
	err := r.pool.QueryRow(ctx, query, uuid.NewString(), e.Name, e.ReleaseAt.UTC()).Scan(
		&ev.ID, &ev.UUID, &ev.Name, &ev.ReleaseAt, &ev.CreatedAt,
	)
	if err != nil {
		return relapse.Event{}, fmt.Errorf("create event: %w", err)
	}

	return ev, nil
}

func (r *repo) GetEventByUUID(ctx context.Context, eventUUID string) (relapse.Event, error) {
	query := fmt.Sprintf(`
		SELECT id, uuid, name, process_datetime, created_at
		FROM %s
		WHERE uuid = $1
	`, pgx.Identifier{r.events}.Sanitize())

	var ev relapse.Event
	err := r.pool.QueryRow(ctx, query, eventUUID).Scan(
		&ev.ID, &ev.UUID, &ev.Name, &ev.ReleaseAt, &ev.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return relapse.Event{}, relapse.ErrNotFound
		}
		return relapse.Event{}, fmt.Errorf("get event: %w", err)
	}

	return ev, nil
}

func (r *repo) CreatePhoto(ctx context.Context, p relapse.NewPhoto) (relapse.Photo, error) {
	query := fmt.Sprintf(`
		WITH inserted AS (
			INSERT INTO %s (user_id, event_id, s3_key, content_type)
			VALUES ($1, $2, $3, $4)
			RETURNING id, user_id, event_id, s3_key, content_type, created_at
		)
		SELECT i.id, i.user_id, i.event_id, e.uuid, i.s3_key, i.content_type, i.created_at
		FROM inserted i
		LEFT JOIN %s e ON e.id = i.event_id
	`, pgx.Identifier{r.photos}.Sanitize(), pgx.Identifier{r.events}.Sanitize())

	var photo relapse.Photo
	err := r.pool.QueryRow(ctx, query, p.UserID, p.EventID, p.StorageKey, p.ContentType).Scan(
		&photo.ID, &photo.UserID, &photo.EventID, &photo.EventUUID,
		&photo.StorageKey, &photo.ContentType, &photo.CreatedAt,
	)
	if err != nil {
		return relapse.Photo{}, fmt.Errorf("create photo: %w", err)
	}

	return photo, nil
}

func (r *repo) ListPhotosByEvent(ctx context.Context, eventID int64) ([]relapse.Photo, error) {
	photos, err := r.queryPhotos(ctx, "p.event_id = $1", "p.created_at ASC, p.id ASC", eventID)
	if err != nil {
		return nil, fmt.Errorf("list photos by event: %w", err)
	}
	return photos, nil
}

func (r *repo) ListPhotosByUser(ctx context.Context, userID string) ([]relapse.Photo, error) {
	photos, err := r.queryPhotos(ctx, "p.user_id = $1", "p.created_at DESC, p.id DESC", userID)
	if err != nil {
		return nil, fmt.Errorf("list photos by user: %w", err)
	}
	return photos, nil
}

// queryPhotos selects photos joined with their event uuid.
// where and orderBy are fixed fragments, never caller input.
func (r *repo) queryPhotos(ctx context.Context, where, orderBy string, args ...any) ([]relapse.Photo, error) {
	query := fmt.Sprintf(`
		SELECT p.id, p.user_id, p.event_id, e.uuid, p.s3_key, p.content_type, p.created_at
		FROM %s p
		LEFT JOIN %s e ON e.id = p.event_id
		WHERE %s
		ORDER BY %s
	`, pgx.Identifier{r.photos}.Sanitize(), pgx.Identifier{r.events}.Sanitize(), where, orderBy)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query: %w", err)
	}
	defer rows.Close()

	photos := []relapse.Photo{}
	for rows.Next() {
		var p relapse.Photo
		if err := rows.Scan(
			&p.ID, &p.UserID, &p.EventID, &p.EventUUID, &p.StorageKey, &p.ContentType, &p.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		photos = append(photos, p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}

	return photos, nil
}
