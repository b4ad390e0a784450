package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/sagarc03/imgtransfer"
	"github.com/sagarc03/imgtransfer/config"
	imghttp "github.com/sagarc03/imgtransfer/http"
	"github.com/sagarc03/imgtransfer/metrics"
	"github.com/sagarc03/imgtransfer/staging"
)

// staleStagingAge is how old a staged file must be before startup removes it.
const staleStagingAge = time.Hour

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	Long:  `Start the imgtransfer HTTP server.`,
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().Int("port", 3030, "HTTP server port (env: IMGTRANSFER_SERVER_PORT or PORT)")
	serveCmd.Flags().Int64("max-upload-size", 0, "maximum upload request size in bytes, 0 for no limit")
	serveCmd.Flags().Bool("metrics", false, "serve Prometheus metrics")

	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.FromContext(cmd.Context())
	if err != nil {
		return err
	}

	store, closeStore, err := openStore(ctx, cfg.Storage)
	if err != nil {
		return err
	}
	defer closeStore()

	stager, err := staging.New(cfg.Staging.Dir)
	if err != nil {
		return fmt.Errorf("create stager: %w", err)
	}
	defer func() { _ = stager.Close() }()

	if removed, err := stager.Sweep(ctx, staleStagingAge); err != nil {
		slog.Warn("failed to sweep staging directory", "dir", cfg.Staging.Dir, "err", err)
	} else if removed > 0 {
		slog.Info("removed stale staged uploads", "dir", cfg.Staging.Dir, "count", removed)
	}

	service, err := imgtransfer.NewGatewayService(store, stager)
	if err != nil {
		return fmt.Errorf("create service: %w", err)
	}

	handlerConfig := imghttp.HandlerConfig{
		MaxUploadSize:  cfg.Server.MaxUploadSize,
		RequestTimeout: cfg.Server.RequestTimeoutDuration(),
		CORS:           cfg.CORS,
		MetricsPath:    cfg.Metrics.Path,
	}
	if cfg.Metrics.Enabled {
		handlerConfig.Metrics = metrics.New()
	}

	handler := imghttp.NewHandler(&handlerConfig, service)

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	server := &http.Server{
		Addr:              addr,
		Handler:           handler.Router(),
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("starting server",
			"addr", addr,
			"backend", cfg.Storage.Backend,
			"bucket", bucketName(cfg.Storage),
			"staging", cfg.Staging.Dir,
		)
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	slog.Info("shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeoutDuration())
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}
	return nil
}
