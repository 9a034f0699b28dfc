package postgres_test

import (
	"context"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sagarc03/relapse/database/postgres"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func tableExists(t *testing.T, pool *pgxpool.Pool, name string) bool {
	t.Helper()
	var exists bool
	err := pool.QueryRow(context.Background(), `
		SELECT EXISTS (
			SELECT 1 FROM information_schema.tables
			WHERE table_schema = current_schema() AND table_name = $1
		)`, name).Scan(&exists)
	require.NoError(t, err)
	return exists
}

func TestMigrate(t *testing.T) {
	ctx := context.Background()
	pool := getSharedTestDatabase(t)
	tables := getRandomTables(t)
	t.Cleanup(func() { _ = postgres.DropTables(ctx, pool, tables) })

	require.NoError(t, postgres.Migrate(ctx, pool, tables))

	assert.True(t, tableExists(t, pool, tables.Events))
	assert.True(t, tableExists(t, pool, tables.Photos))

	t.Run("idempotent", func(t *testing.T) {
		assert.NoError(t, postgres.Migrate(ctx, pool, tables))
	})

	t.Run("schema validates", func(t *testing.T) {
		assert.NoError(t, postgres.ValidateSchema(ctx, pool, tables))
	})
}

func TestDropTables(t *testing.T) {
	ctx := context.Background()
	pool := getSharedTestDatabase(t)
	tables := getRandomTables(t)

	require.NoError(t, postgres.Migrate(ctx, pool, tables))
	require.NoError(t, postgres.DropTables(ctx, pool, tables))

	assert.False(t, tableExists(t, pool, tables.Events))
	assert.False(t, tableExists(t, pool, tables.Photos))

	err := postgres.ValidateSchema(ctx, pool, tables)
	assert.ErrorContains(t, err, "does not exist")
}

func TestValidateSchema_Mismatch(t *testing.T) {
	ctx := context.Background()
	pool := getSharedTestDatabase(t)
	tables := getRandomTables(t)
	t.Cleanup(func() { _ = postgres.DropTables(ctx, pool, tables) })

	_, err := pool.Exec(ctx, `CREATE TABLE `+pgx.Identifier{tables.Events}.Sanitize()+` (id BIGSERIAL PRIMARY KEY, uuid TEXT NOT NULL)`)
	require.NoError(t, err)

	err = postgres.ValidateSchema(ctx, pool, tables)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing columns: created_at, name, process_datetime")
	assert.Contains(t, err.Error(), "uuid: expected character varying, got text")
}

func TestConnect_Database(t *testing.T) {
	ctx := context.Background()
	pool := getSharedTestDatabase(t)
	tables := getRandomTables(t)

	db, err := postgres.Connect(ctx, getDSN(pool), tables)
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = db.Close()
		_ = postgres.DropTables(ctx, pool, tables)
	})

	require.NoError(t, db.Ping(ctx))
	assert.Error(t, db.Validate(ctx), "validate should fail before migrate")
	require.NoError(t, db.Migrate(ctx))
	assert.NoError(t, db.Validate(ctx))
	assert.NoError(t, db.GetRepo().Ping(ctx))
}
