package main

import (
	"github.com/spf13/cobra"
)

var listCmd = &cobra.Command{
	Use:     "list [prefix]",
	Aliases: []string{"ls"},
	Short:   "List objects in the bucket",
	Long: `List objects, optionally restricted to keys starting with prefix.

The server returns a single page of at most 1000 objects.

Examples:
  spaces-cli list
  spaces-cli list reports/
  spaces-cli list -q reports/ | xargs spaces-cli delete`,
	Args: cobra.MaximumNArgs(1),
	RunE: runList,
}

func runList(cmd *cobra.Command, args []string) error {
	prefix := ""
	if len(args) > 0 {
		prefix = args[0]
	}

	client, err := getClient()
	if err != nil {
		return err
	}

	result, err := client.List(cmd.Context(), prefix)
	if err != nil {
		return err
	}

	return getFormatter().FormatList(cmd.OutOrStdout(), result)
}
