package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/sagarc03/relapse"

	_ "modernc.org/sqlite" // SQLite driver
)

// database provides SQLite database operations.
type database struct {
	db     *sql.DB
	tables relapse.Tables
}

// Connect establishes a connection to SQLite.
// Tables should be validated before calling Connect.
//
// The pool is limited to a single connection so that ":memory:" databases
// are shared by every query and writers never contend for the file lock.
func Connect(ctx context.Context, dsn string, tables relapse.Tables) (*database, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("connect sqlite: %w", err)
	}

	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, `PRAGMA foreign_keys = ON`); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("connect sqlite: enable foreign keys: %w", err)
	}

	if _, err := db.ExecContext(ctx, `PRAGMA busy_timeout = 5000`); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("connect sqlite: set busy timeout: %w", err)
	}

	return &database{
		db:     db,
		tables: tables,
	}, nil
}

// Ping verifies the database connection is alive.
func (d *database) Ping(ctx context.Context) error {
	return d.db.PingContext(ctx)
}

// Migrate creates any missing tables and indexes.
func (d *database) Migrate(ctx context.Context) error {
	if err := Migrate(ctx, d.db, d.tables); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}

// Validate checks that the database schema matches expected structure.
func (d *database) Validate(ctx context.Context) error {
	return ValidateSchema(ctx, d.db, d.tables)
}

// GetRepo returns the MetaDataRepo for database operations.
func (d *database) GetRepo() relapse.MetaDataRepo {
	return &repo{db: d.db, events: d.tables.Events, photos: d.tables.Photos}
}

// Close closes the database connection.
func (d *database) Close() error {
	return d.db.Close()
}
