package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sagarc03/relapse"
)

type TableMigration struct {
	TableName string
	Up        func(ctx context.Context, pool *pgxpool.Pool) error
	Down      func(ctx context.Context, pool *pgxpool.Pool) error
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

func Migrate(ctx context.Context, pool *pgxpool.Pool, tables relapse.Tables) error {
	for _, migration := range getTableMigrations(tables) {
		if err := migration.Up(ctx, pool); err != nil {
			return fmt.Errorf("migrate up %s: %w", migration.TableName, err)
		}
	}
	return nil
}

func DropTables(ctx context.Context, pool *pgxpool.Pool, tables relapse.Tables) error {
	migrations := getTableMigrations(tables)

	for i := len(migrations) - 1; i >= 0; i-- {
		migration := migrations[i]
		if err := migration.Down(ctx, pool); err != nil {
			return fmt.Errorf("migrate down %s: %w", migration.TableName, err)
		}
	}

	return nil
}

func createEventsTable(tableName string) func(context.Context, *pgxpool.Pool) error {
	return func(ctx context.Context, pool *pgxpool.Pool) error {
		quotedTable := pgx.Identifier{tableName}.Sanitize()

		sql := fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				id BIGSERIAL PRIMARY KEY,
				uuid VARCHAR(36) NOT NULL UNIQUE,
				name TEXT,
				process_datetime TIMESTAMP NOT NULL,
				created_at TIMESTAMP NOT NULL DEFAULT (NOW() AT TIME ZONE 'utc')
			);
		`, quotedTable)

		if _, err := pool.Exec(ctx, sql); err != nil {
			return fmt.Errorf("create events table: %w", err)
		}
		return nil
	}
}

func createPhotosTable(tableName, eventsTable string) func(context.Context, *pgxpool.Pool) error {
	return func(ctx context.Context, pool *pgxpool.Pool) error {
		quotedTable := pgx.Identifier{tableName}.Sanitize()
		quotedEvents := pgx.Identifier{eventsTable}.Sanitize()
		indexUser := pgx.Identifier{fmt.Sprintf("idx_%s_user_created", tableName)}.Sanitize()
		indexEvent := pgx.Identifier{fmt.Sprintf("idx_%s_event_created", tableName)}.Sanitize()

		sql := fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				id BIGSERIAL PRIMARY KEY,
				user_id VARCHAR(128) NOT NULL,
				event_id BIGINT REFERENCES %s (id),
				s3_key TEXT NOT NULL,
				content_type TEXT,
				created_at TIMESTAMP NOT NULL DEFAULT (NOW() AT TIME ZONE 'utc')
			);

			CREATE INDEX IF NOT EXISTS %s
			ON %s (user_id, created_at);

			CREATE INDEX IF NOT EXISTS %s
			ON %s (event_id, created_at)
			WHERE (event_id IS NOT NULL);
		`,
			quotedTable, quotedEvents,
			indexUser, quotedTable,
			indexEvent, quotedTable,
		)

		if _, err := pool.Exec(ctx, sql); err != nil {
			return fmt.Errorf("create photos table: %w", err)
		}
		return nil
	}
}

func dropTable(tableName string) func(context.Context, *pgxpool.Pool) error {
	return func(ctx context.Context, pool *pgxpool.Pool) error {
		sql := fmt.Sprintf("DROP TABLE IF EXISTS %s", pgx.Identifier{tableName}.Sanitize())
		_, err := pool.Exec(ctx, sql)
		return err
	}
}
