package main

import (
	"os"

	"github.com/sagarc03/imgtransfer/clientcli"
	"github.com/spf13/cobra"
)

var deleteCmd = &cobra.Command{
	Use:     "delete <image-name> [image-name...]",
	Aliases: []string{"rm"},
	Short:   "Delete images from the bucket",
	Long: `Delete one or more images from the bucket.

Every name is attempted; the command exits non-zero if any delete failed.

Examples:
  imgtransfer-cli delete cat.png
  imgtransfer-cli delete a.png b.png c.png
  imgtransfer-cli delete -q old.png`,
	Args: cobra.MinimumNArgs(1),
	RunE: runDelete,
}

func runDelete(cmd *cobra.Command, args []string) error {
	client, err := getClient()
	if err != nil {
		return err
	}

	ctx := cmd.Context()

	results, err := client.Delete(ctx, clientcli.DeleteOptions{Names: args})
	if err != nil {
		return err
	}

	if err := getFormatter().FormatDelete(os.Stdout, results); err != nil {
		return err
	}

	if clientcli.HasDeleteErrors(results) {
		return &exitError{code: 1}
	}

	return nil
}
