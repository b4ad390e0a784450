package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/sagarc03/imgtransfer/config"
)

var version = "dev"

var rootCmd = &cobra.Command{
	Version: version,
	Use:     "imgtransfer",
	Short:   "HTTP gateway for an image bucket",
	Long: `imgtransfer serves a small REST API that lists, uploads, downloads
and deletes images in a single S3 bucket (or a local directory).`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		configFiles, _ := cmd.Flags().GetStringSlice("config")

		cfg, err := config.Load(configFiles, cmd.Flags())
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}

		setupLogging(cfg.Log)
		cmd.SetContext(config.WithContext(cmd.Context(), cfg))
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringSlice("config", nil, "config file path, repeatable; later files override earlier ones (default: ./config.yaml)")
	rootCmd.PersistentFlags().String("backend", "", "storage backend: s3, filesystem (default: s3, env: IMGTRANSFER_STORAGE_BACKEND)")
	rootCmd.PersistentFlags().String("bucket", "", "S3 bucket name (env: IMGTRANSFER_STORAGE_S3_BUCKET or BUCKET_NAME)")
	rootCmd.PersistentFlags().String("region", "", "S3 region (default: us-east-1)")
	rootCmd.PersistentFlags().String("endpoint", "", "S3 endpoint URL (default: https://s3.amazonaws.com)")
	rootCmd.PersistentFlags().String("storage-path", "", "directory for the filesystem backend (default: ./data)")
	rootCmd.PersistentFlags().String("staging-dir", "", "directory uploads are staged in (default: <tmp>/imgtransfer)")
	rootCmd.PersistentFlags().String("log-level", "", "log level: debug, info, warn, error (default: info)")
	rootCmd.PersistentFlags().String("log-format", "", "log format: text, json (default: text)")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
