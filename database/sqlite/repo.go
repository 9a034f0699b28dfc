// Package sqlite implements the repo interface using SQLite
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sagarc03/relapse"
)

// timeLayout is fixed width so that text ordering matches time ordering.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		// rows written by other tools may use a shorter layout
		t, err = time.Parse(time.RFC3339Nano, s)
	}
	if err != nil {
		return time.Time{}, err
	}
	return t.UTC(), nil
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

func nullInt64(i *int64) sql.NullInt64 {
	if i == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: *i, Valid: true}
}

type repo struct {
	db     *sql.DB
	events string
	photos string
}

func (r *repo) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

func (r *repo) CreateEvent(ctx context.Context, e relapse.NewEvent) (relapse.Event, error) {
	id := uuid.NewString()
	now := time.Now().UTC()

	query := fmt.Sprintf( //nolint:gosec // G201: table name is validated
		`INSERT INTO %s (uuid, name, process_datetime, created_at)
		VALUES (?, ?, ?, ?)`, quoteIdentifier(r.events))

	result, err := r.db.ExecContext(ctx, query, id, nullString(e.Name), formatTime(e.ReleaseAt), formatTime(now))
	if err != nil {
		return relapse.Event{}, fmt.Errorf("create event: %w", err)
	}

	rowID, err := result.LastInsertId()
	if err != nil {
		return relapse.Event{}, fmt.Errorf("create event: last insert id: %w", err)
	}

	return relapse.Event{
		ID:        rowID,
		UUID:      id,
		Name:      e.Name,
		ReleaseAt: e.ReleaseAt.UTC(),
		CreatedAt: now,
	}, nil
}

func (r *repo) GetEventByUUID(ctx context.Context, eventUUID string) (relapse.Event, error) {
	query := fmt.Sprintf( //nolint:gosec // G201: table name is validated
		`SELECT id, uuid, name, process_datetime, created_at
		FROM %s
		WHERE uuid = ?`, quoteIdentifier(r.events))

	var e relapse.Event
	var name sql.NullString
	var releaseAt, createdAt string

	err := r.db.QueryRowContext(ctx, query, eventUUID).Scan(&e.ID, &e.UUID, &name, &releaseAt, &createdAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return relapse.Event{}, relapse.ErrNotFound
		}
		return relapse.Event{}, fmt.Errorf("get event: %w", err)
	}

	if name.Valid {
		e.Name = &name.String
	}

	e.ReleaseAt, err = parseTime(releaseAt)
	if err != nil {
		return relapse.Event{}, fmt.Errorf("get event: parse process_datetime: %w", err)
	}

	e.CreatedAt, err = parseTime(createdAt)
	if err != nil {
		return relapse.Event{}, fmt.Errorf("get event: parse created_at: %w", err)
	}

	return e, nil
}

func (r *repo) CreatePhoto(ctx context.Context, p relapse.NewPhoto) (relapse.Photo, error) {
	query := fmt.Sprintf( //nolint:gosec // G201: table name is validated
		`INSERT INTO %s (user_id, event_id, s3_key, content_type, created_at)
		VALUES (?, ?, ?, ?, ?)`, quoteIdentifier(r.photos))

	result, err := r.db.ExecContext(ctx, query,
		p.UserID, nullInt64(p.EventID), p.StorageKey, nullString(p.ContentType), formatTime(time.Now()),
	)
	if err != nil {
		return relapse.Photo{}, fmt.Errorf("create photo: %w", err)
	}

	rowID, err := result.LastInsertId()
	if err != nil {
		return relapse.Photo{}, fmt.Errorf("create photo: last insert id: %w", err)
	}

	photos, err := r.queryPhotos(ctx, "p.id = ?", "p.id", rowID)
	if err != nil {
		return relapse.Photo{}, fmt.Errorf("create photo: %w", err)
	}

	if len(photos) != 1 {
		return relapse.Photo{}, fmt.Errorf("create photo: %w: inserted row %d not found", relapse.ErrInternal, rowID)
	}

	return photos[0], nil
}

func (r *repo) ListPhotosByEvent(ctx context.Context, eventID int64) ([]relapse.Photo, error) {
	photos, err := r.queryPhotos(ctx, "p.event_id = ?", "p.created_at ASC, p.id ASC", eventID)
	if err != nil {
		return nil, fmt.Errorf("list photos by event: %w", err)
	}
	return photos, nil
}

func (r *repo) ListPhotosByUser(ctx context.Context, userID string) ([]relapse.Photo, error) {
	photos, err := r.queryPhotos(ctx, "p.user_id = ?", "p.created_at DESC, p.id DESC", userID)
	if err != nil {
		return nil, fmt.Errorf("list photos by user: %w", err)
	}
	return photos, nil
}

// queryPhotos selects photos joined with their event uuid.
// where and orderBy are fixed fragments, never caller input.
func (r *repo) queryPhotos(ctx context.Context, where, orderBy string, args ...any) ([]relapse.Photo, error) {
	query := fmt.Sprintf( //nolint:gosec // G201: table names are validated
		`SELECT p.id, p.user_id, p.event_id, e.uuid, p.s3_key, p.content_type, p.created_at
		FROM %s p
		LEFT JOIN %s e ON e.id = p.event_id
		WHERE %s
		ORDER BY %s`, quoteIdentifier(r.photos), quoteIdentifier(r.events), where, orderBy)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query: %w", err)
	}
	defer func() { _ = rows.Close() }()

	photos := []relapse.Photo{}
	for rows.Next() {
		var p relapse.Photo
		var eventID sql.NullInt64
		var eventUUID, contentType sql.NullString
		var createdAt string

		if err := rows.Scan(&p.ID, &p.UserID, &eventID, &eventUUID, &p.StorageKey, &contentType, &createdAt); err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}

		if eventID.Valid {
			p.EventID = &eventID.Int64
		}
		if eventUUID.Valid {
			p.EventUUID = &eventUUID.String
		}
		if contentType.Valid {
			p.ContentType = &contentType.String
		}

		p.CreatedAt, err = parseTime(createdAt)
		if err != nil {
			return nil, fmt.Errorf("parse created_at: %w", err)
		}

		photos = append(photos, p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}

	return photos, nil
}
