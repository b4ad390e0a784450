package main

import (
	"os"

	"github.com/spf13/cobra"
)

var listCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List images in the bucket",
	Long: `List the images in the bucket.

Only the first page the backend returns is shown; a truncated listing is
flagged in the output.

Examples:
  imgtransfer-cli list
  imgtransfer-cli list --json | jq '.Contents[].Key'`,
	Args: cobra.NoArgs,
	RunE: runList,
}

func runList(cmd *cobra.Command, _ []string) error {
	client, err := getClient()
	if err != nil {
		return err
	}

	ctx := cmd.Context()

	result, err := client.List(ctx)
	if err != nil {
		return err
	}

	return getFormatter().FormatList(os.Stdout, result)
}
