package main

import (
	"io"
	"os"

	"github.com/sagarc03/imgtransfer/clientcli"
	"github.com/spf13/cobra"
)

var (
	downloadOutput string
	downloadStdout bool
)

var downloadCmd = &cobra.Command{
	Use:   "download <image-name> [local-path]",
	Short: "Download an image from the bucket",
	Long: `Download an image from the bucket.

Without a local path the image is saved under its own name in the current
directory.

Examples:
  imgtransfer-cli download cat.png
  imgtransfer-cli download cat.png ./pets/cat.png
  imgtransfer-cli download --stdout cat.png | display -
  imgtransfer-cli download -o ./out.png cat.png`,
	Args: cobra.RangeArgs(1, 2),
	RunE: runDownload,
}

func init() {
	downloadCmd.Flags().StringVarP(&downloadOutput, "output", "o", "", "output file path")
	downloadCmd.Flags().BoolVar(&downloadStdout, "stdout", false, "write to stdout")
}

func runDownload(cmd *cobra.Command, args []string) error {
	name := args[0]

	localPath := ""
	if len(args) > 1 {
		localPath = args[1]
	}
	if downloadOutput != "" {
		localPath = downloadOutput
	}
	if downloadStdout {
		localPath = "-"
	}

	client, err := getClient()
	if err != nil {
		return err
	}

	ctx := cmd.Context()

	result, reader, err := client.Download(ctx, clientcli.DownloadOptions{
		Name:      name,
		LocalPath: localPath,
	})
	if err != nil {
		return err
	}

	if reader != nil {
		defer func() { _ = reader.Close() }()
		written, copyErr := io.Copy(os.Stdout, reader)
		if copyErr != nil {
			return copyErr
		}
		result.Size = written
		// stdout carries the image, so metadata only goes to stderr in JSON mode
		if jsonOutput {
			return getFormatter().FormatDownload(os.Stderr, result)
		}
		return nil
	}

	return getFormatter().FormatDownload(os.Stdout, result)
}
