package main

import (
	"errors"
	"os"

	"github.com/sagarc03/imgtransfer/clientcli"
	"github.com/spf13/cobra"
)

var errNameWithManyFiles = errors.New("--name can only be used with a single file")

var (
	uploadName        string
	uploadContentType string
)

var uploadCmd = &cobra.Command{
	Use:   "upload <local-path> [local-path...]",
	Short: "Upload images to the bucket",
	Long: `Upload one or more images to the bucket.

Each file is sent as the multipart field "image". The stored name is the
file's base name unless --name is given. Uploading an existing name
replaces it.

Examples:
  imgtransfer-cli upload ./cat.png
  imgtransfer-cli upload ./a.png ./b.jpg
  imgtransfer-cli upload --name avatar.png ./me-2024.png`,
	Args: cobra.MinimumNArgs(1),
	RunE: runUpload,
}

func init() {
	uploadCmd.Flags().StringVarP(&uploadName, "name", "n", "", "stored image name (single file only)")
	uploadCmd.Flags().StringVarP(&uploadContentType, "content-type", "t", "", "override content-type")
}

func runUpload(cmd *cobra.Command, args []string) error {
	if uploadName != "" && len(args) > 1 {
		return errNameWithManyFiles
	}

	client, err := getClient()
	if err != nil {
		return err
	}

	ctx := cmd.Context()

	results := make([]clientcli.UploadResult, 0, len(args))
	failed := false
	for _, localPath := range args {
		result, uploadErr := client.Upload(ctx, clientcli.UploadOptions{
			LocalPath:   localPath,
			Name:        uploadName,
			ContentType: uploadContentType,
		})
		if uploadErr != nil {
			result = clientcli.UploadResult{LocalPath: localPath, Err: uploadErr}
			failed = true
		}
		results = append(results, result)
	}

	if err := getFormatter().FormatUpload(os.Stdout, results); err != nil {
		return err
	}

	if failed {
		return &exitError{code: 1}
	}
	return nil
}
