package main

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/sagarc03/imgtransfer/config"
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Verify the storage backend is reachable",
	Long: `Load the configuration, connect to the storage backend and list the
bucket once. This is useful when:
  - Verifying credentials before a deploy
  - Checking that the bucket exists and is readable
  - Debugging a custom S3 endpoint`,
	RunE: runCheck,
}

var checkTimeout time.Duration

func init() {
	checkCmd.Flags().DurationVar(&checkTimeout, "timeout", 15*time.Second, "how long to wait for the backend")
	rootCmd.AddCommand(checkCmd)
}

func runCheck(cmd *cobra.Command, args []string) error {
	cfg, err := config.FromContext(cmd.Context())
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), checkTimeout)
	defer cancel()

	store, closeStore, err := openStore(ctx, cfg.Storage)
	if err != nil {
		return err
	}
	defer closeStore()

	result, err := store.List(ctx)
	if err != nil {
		return fmt.Errorf("list %s: %w", bucketName(cfg.Storage), err)
	}

	slog.Info("backend reachable",
		"backend", cfg.Storage.Backend,
		"bucket", bucketName(cfg.Storage),
		"objects", len(result.Contents),
		"truncated", result.IsTruncated,
	)
	return nil
}
