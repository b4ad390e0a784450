package main

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/sagarc03/imgtransfer/config"
	"github.com/sagarc03/imgtransfer/staging"
)

var cleanupCmd = &cobra.Command{
	Use:   "cleanup",
	Short: "Remove abandoned staged uploads",
	Long: `Remove staged upload files left behind in the staging directory.

Uploads are staged to a temporary file and removed once forwarded to the
backend. Files only remain when the server is killed mid-upload. The server
sweeps files older than an hour on startup; run this to sweep by hand.`,
	RunE: runCleanup,
}

var cleanupOlderThan time.Duration

func init() {
	cleanupCmd.Flags().DurationVar(&cleanupOlderThan, "older-than", time.Hour, "only remove files last modified before this long ago")
	rootCmd.AddCommand(cleanupCmd)
}

func runCleanup(cmd *cobra.Command, args []string) error {
	cfg, err := config.FromContext(cmd.Context())
	if err != nil {
		return err
	}

	stager, err := staging.New(cfg.Staging.Dir)
	if err != nil {
		return fmt.Errorf("open staging directory: %w", err)
	}
	defer func() { _ = stager.Close() }()

	slog.Info("starting cleanup", "dir", cfg.Staging.Dir, "older_than", cleanupOlderThan)

	removed, err := stager.Sweep(cmd.Context(), cleanupOlderThan)
	if err != nil {
		return fmt.Errorf("sweep: %w", err)
	}

	slog.Info("cleanup complete", "files_removed", removed)
	return nil
}
