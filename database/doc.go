// Package database provides a unified interface for connecting to metadata backends.
//
// The package supports PostgreSQL and SQLite. Both create their tables on
// demand (CREATE TABLE IF NOT EXISTS) and validate the resulting columns.
//
// # Supported Backends
//
//   - PostgreSQL: Production-ready backend using pgx connection pool
//   - SQLite: Lightweight backend suitable for development and single-node deployments
//
// # Usage
//
//	typ, dsn, err := database.ParseURL(os.Getenv("DATABASE_URL"))
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	db, err := database.Open(ctx, database.Config{
//	    Type:   typ,
//	    DSN:    dsn,
//	    Tables: relapse.DefaultTables(),
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer db.Close()
//
//	repo := db.GetRepo()
//
// # Subpackages
//
//   - database/postgres: PostgreSQL implementation using pgx
//   - database/sqlite: SQLite implementation using modernc.org/sqlite
package database
