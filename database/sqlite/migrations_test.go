package sqlite_test

import (
	"context"
	"database/sql"
	"testing"

	"github.com/sagarc03/relapse/database/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	_ "modernc.org/sqlite"
)

func openMemory(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func tableNames(t *testing.T, db *sql.DB) []string {
	t.Helper()
	rows, err := db.QueryContext(context.Background(),
		`SELECT name FROM sqlite_master WHERE type='table' AND name NOT LIKE 'sqlite_%' ORDER BY name`)
	require.NoError(t, err)
	defer func() { _ = rows.Close() }()

	var names []string
	for rows.Next() {
		var name string
		require.NoError(t, rows.Scan(&name))
		names = append(names, name)
	}
	require.NoError(t, rows.Err())
	return names
}

func TestMigrate(t *testing.T) {
	ctx := context.Background()
	db := openMemory(t)
	tables := getRandomTables(t)

	err := sqlite.Migrate(ctx, db, tables)
	require.NoError(t, err)

	assert.ElementsMatch(t, []string{tables.Events, tables.Photos}, tableNames(t, db))

	t.Run("idempotent", func(t *testing.T) {
		assert.NoError(t, sqlite.Migrate(ctx, db, tables))
	})

	t.Run("schema validates", func(t *testing.T) {
		assert.NoError(t, sqlite.ValidateSchema(ctx, db, tables))
	})
}

func TestDropTables(t *testing.T) {
	ctx := context.Background()
	db := openMemory(t)
	tables := getRandomTables(t)

	require.NoError(t, sqlite.Migrate(ctx, db, tables))
	require.NoError(t, sqlite.DropTables(ctx, db, tables))

	assert.Empty(t, tableNames(t, db))

	t.Run("validate fails after drop", func(t *testing.T) {
		err := sqlite.ValidateSchema(ctx, db, tables)
		assert.ErrorContains(t, err, "does not exist")
	})
}

func TestValidateSchema_Mismatch(t *testing.T) {
	ctx := context.Background()
	db := openMemory(t)
	tables := getRandomTables(t)

	_, err := db.ExecContext(ctx, `CREATE TABLE "`+tables.Events+`" (id INTEGER NOT NULL PRIMARY KEY, uuid INTEGER NOT NULL)`)
	require.NoError(t, err)

	err = sqlite.ValidateSchema(ctx, db, tables)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing columns: created_at, name, process_datetime")
	assert.Contains(t, err.Error(), "uuid: expected text, got integer")
}
