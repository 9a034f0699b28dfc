package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/sagarc03/relapse"
)

// quoteIdentifier safely quotes a SQLite identifier
func quoteIdentifier(name string) string {
	return `"` + name + `"`
}

type TableMigration struct {
	TableName string
	Up        func(ctx context.Context, db *sql.DB) error
	Down      func(ctx context.Context, db *sql.DB) error
}

// getTableMigrations returns all table migrations in dependency order.
func getTableMigrations(tables relapse.Tables) []TableMigration {
	return []TableMigration{
		{
			TableName: tables.Events,
			Up:        createEventsTable(tables.Events),
			Down:      dropTable(tables.Events),
		},
		{
			TableName: tables.Photos,
			Up:        createPhotosTable(tables.Photos, tables.Events),
			Down:      dropTable(tables.Photos),
		},
	}
}

func Migrate(ctx context.Context, db *sql.DB, tables relapse.Tables) error {
	migrations := getTableMigrations(tables)

	for _, migration := range migrations {
		if err := migration.Up(ctx, db); err != nil {
			return fmt.Errorf("migrate up %s: %w", migration.TableName, err)
		}
	}

	return nil
}

func DropTables(ctx context.Context, db *sql.DB, tables relapse.Tables) error {
	migrations := getTableMigrations(tables)

	for i := len(migrations) - 1; i >= 0; i-- {
		migration := migrations[i]
		if err := migration.Down(ctx, db); err != nil {
			return fmt.Errorf("migrate down %s: %w", migration.TableName, err)
		}
	}

	return nil
}

func createEventsTable(tableName string) func(context.Context, *sql.DB) error {
	return func(ctx context.Context, db *sql.DB) error {
		quotedTable := quoteIdentifier(tableName)

		createTableSQL := fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				id INTEGER NOT NULL PRIMARY KEY AUTOINCREMENT,
				uuid TEXT NOT NULL UNIQUE,
				name TEXT,
				process_datetime TEXT NOT NULL,
				created_at TEXT NOT NULL
			)
		`, quotedTable)

		if _, err := db.ExecContext(ctx, createTableSQL); err != nil {
			return fmt.Errorf("create table: %w", err)
		}

		return nil
	}
}

func createPhotosTable(tableName, eventsTable string) func(context.Context, *sql.DB) error {
	return func(ctx context.Context, db *sql.DB) error {
		quotedTable := quoteIdentifier(tableName)
		quotedEvents := quoteIdentifier(eventsTable)
		indexUser := quoteIdentifier(fmt.Sprintf("idx_%s_user_created", tableName))
		indexEvent := quoteIdentifier(fmt.Sprintf("idx_%s_event_created", tableName))

		createTableSQL := fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				id INTEGER NOT NULL PRIMARY KEY AUTOINCREMENT,
				user_id TEXT NOT NULL,
				event_id INTEGER REFERENCES %s (id),
				s3_key TEXT NOT NULL,
				content_type TEXT,
				created_at TEXT NOT NULL
			)
		`, quotedTable, quotedEvents)

		if _, err := db.ExecContext(ctx, createTableSQL); err != nil {
			return fmt.Errorf("create table: %w", err)
		}

		indexSQL := fmt.Sprintf(`
			CREATE INDEX IF NOT EXISTS %s ON %s (user_id, created_at)
		`, indexUser, quotedTable)

		if _, err := db.ExecContext(ctx, indexSQL); err != nil {
			return fmt.Errorf("create index user_created: %w", err)
		}

		indexSQL = fmt.Sprintf(`
			CREATE INDEX IF NOT EXISTS %s ON %s (event_id, created_at)
		`, indexEvent, quotedTable)

		if _, err := db.ExecContext(ctx, indexSQL); err != nil {
			return fmt.Errorf("create index event_created: %w", err)
		}

		return nil
	}
}

func dropTable(tableName string) func(context.Context, *sql.DB) error {
	return func(ctx context.Context, db *sql.DB) error {
		quotedTable := quoteIdentifier(tableName)
		dropSQL := fmt.Sprintf("DROP TABLE IF EXISTS %s", quotedTable)

		_, err := db.ExecContext(ctx, dropSQL)
		return err
	}
}
