package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/sagarc03/relapse/config"
)

var version = "dev"

var rootCmd = &cobra.Command{
	Version: version,
	Use:     "relapse",
	Short:   "Time-gated event photo backend",
	Long: `Relapse stores photos uploaded for an event and keeps them hidden
until the event's release time has passed. Photo bytes live in object
storage, metadata in SQLite or PostgreSQL.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// init writes the config file and must work without a valid one.
		if cmd.Name() == "init" {
			setupLogging("info", "text", "development")
			return nil
		}

		var files []string
		if path, _ := cmd.Flags().GetString("config"); path != "" {
			files = append(files, path)
		}

		cfg, err := config.Load(files, cmd.Flags())
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}

		setupLogging(cfg.Log.Level, cfg.Log.Format, cfg.Env)
		cmd.SetContext(config.WithContext(cmd.Context(), cfg))
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "config file path (default: ./config.yaml)")
	rootCmd.PersistentFlags().String("db-url", "", "database url, e.g. sqlite:///relapse.db or postgres://... (env: DATABASE_URL)")
	rootCmd.PersistentFlags().String("storage-backend", "", "blob backend: auto, s3, gcs, minio, stowry (env: RELAPSE_STORAGE_BACKEND)")
	rootCmd.PersistentFlags().String("storage-bucket", "", "bucket for photo bytes (env: AWS_S3_BUCKET)")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
