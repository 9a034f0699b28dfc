package main

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/sagarc03/relapse"
	"github.com/sagarc03/relapse/blob"
	"github.com/sagarc03/relapse/config"
	"github.com/sagarc03/relapse/database"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create missing tables and validate the schema",
	Long: `Create the events and photos tables and their indexes when they do
not exist, then check that existing tables have the expected columns.
Existing tables are never altered.

With the minio storage backend the configured bucket is created as well.`,
	RunE: runMigrate,
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}

func runMigrate(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	cfg, err := config.FromContext(ctx)
	if err != nil {
		return err
	}

	dbCfg, err := cfg.Database.Connection()
	if err != nil {
		return fmt.Errorf("invalid database config: %w", err)
	}

	db, err := database.Open(ctx, dbCfg)
	if err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	defer func() { _ = db.Close() }()

	slog.Info("database schema ready",
		"type", dbCfg.Type,
		"events_table", dbCfg.Tables.Events,
		"photos_table", dbCfg.Tables.Photos,
	)

	blobCfg := cfg.Storage.Blob()
	managed, err := blob.EnsureBucket(ctx, blobCfg)
	switch {
	case errors.Is(err, relapse.ErrNotConfigured):
		slog.Warn("no storage bucket configured, skipping bucket creation", "backend", blobCfg.ResolveBackend())
	case err != nil:
		return fmt.Errorf("migrate: %w", err)
	case managed:
		slog.Info("storage bucket ready", "backend", blobCfg.ResolveBackend(), "bucket", blobCfg.Bucket)
	}
	return nil
}
