package sqlite_test

import (
	"context"
	"crypto/rand"
	"fmt"
	"math"
	"math/big"
	"testing"

	"github.com/sagarc03/relapse"
	"github.com/sagarc03/relapse/database/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func getRandomString(t *testing.T) string {
	t.Helper()
	n, err := rand.Int(rand.Reader, big.NewInt(math.MaxInt64))
	assert.NoError(t, err, "random string")
	return fmt.Sprintf("test%x", n.Int64())
}

func getRandomTables(t *testing.T) relapse.Tables {
	t.Helper()
	suffix := getRandomString(t)
	return relapse.Tables{
		Events: "events_" + suffix,
		Photos: "photos_" + suffix,
	}
}

// setupTestRepo creates a repo on a private in-memory database with
// unique table names.
func setupTestRepo(t *testing.T) relapse.MetaDataRepo {
	t.Helper()

	ctx := context.Background()
	tables := getRandomTables(t)

	db, err := sqlite.Connect(ctx, ":memory:", tables)
	require.NoError(t, err, "failed to connect")
	t.Cleanup(func() { _ = db.Close() })

	err = db.Migrate(ctx)
	require.NoError(t, err, "failed to migrate")

	return db.GetRepo()
}
