package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/sagarc03/relapse"
	"github.com/sagarc03/relapse/blob"
	"github.com/sagarc03/relapse/config"
	"github.com/sagarc03/relapse/database"
	relapsehttp "github.com/sagarc03/relapse/http"
)

const shutdownTimeout = 30 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	Long: `Start the relapse HTTP server.

Missing tables are created and the schema is validated before the server
accepts requests. The server starts even when no bucket is configured;
uploads then fail with "storage bucket not configured".`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().Int("port", 5000, "HTTP server port (env: PORT)")

	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

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
		return fmt.Errorf("open database: %w", err)
	}
	defer func() { _ = db.Close() }()
	slog.Info("connected to database", "type", dbCfg.Type)

	blobCfg := cfg.Storage.Blob()
	store, err := blob.Connect(ctx, blobCfg)
	if err != nil {
		return fmt.Errorf("connect blob store: %w", err)
	}
	defer func() { _ = store.Close() }()

	if _, ok := store.(blob.Unconfigured); ok {
		slog.Warn("no storage bucket configured, uploads will fail", "backend", blobCfg.ResolveBackend())
	} else {
		slog.Info("connected to blob store", "backend", blobCfg.ResolveBackend())
	}

	service, err := relapse.NewRelapseService(db.GetRepo(), store, relapse.ServiceConfig{
		URLExpiry: cfg.Storage.URLExpiryDuration(),
	})
	if err != nil {
		return fmt.Errorf("create service: %w", err)
	}

	handler := relapsehttp.NewHandler(&relapsehttp.HandlerConfig{
		CORS:          cfg.CORS,
		MaxUploadSize: cfg.Server.MaxUploadSize,
		Logger:        slog.Default(),
	}, service)

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	server := &http.Server{
		Addr:              addr,
		Handler:           handler.Router(),
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		select {
		case <-sigCh:
		case <-ctx.Done():
			return
		}

		slog.Info("shutting down server...")
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer shutdownCancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("server shutdown error", "err", err)
		}
		cancel()
	}()

	slog.Info("starting server", "addr", addr, "env", cfg.Env)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server error: %w", err)
	}

	return nil
}
