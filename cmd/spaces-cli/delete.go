package main

import (
	"github.com/spf13/cobra"

	"github.com/shidubei/DigitalOcean-ObjectSpaces/clientcli"
)

var deleteCmd = &cobra.Command{
	Use:     "delete <key> [key...]",
	Aliases: []string{"rm"},
	Short:   "Delete objects from the bucket",
	Long: `Delete one or more objects.

Deleting a key that does not exist succeeds. Every key is attempted even if
an earlier one fails; the command exits 1 if any failed.

Examples:
  spaces-cli delete reports/0b3f8a5e-..._report.pdf
  spaces-cli delete old/a.txt old/b.txt old/c.txt
  spaces-cli delete -q temp/file.txt`,
	Args: cobra.MinimumNArgs(1),
	RunE: runDelete,
}

func runDelete(cmd *cobra.Command, args []string) error {
	client, err := getClient()
	if err != nil {
		return err
	}

	results, err := client.Delete(cmd.Context(), clientcli.DeleteOptions{Keys: args})
	if err != nil {
		return err
	}

	if err := getFormatter().FormatDelete(cmd.OutOrStdout(), results); err != nil {
		return err
	}

	if clientcli.HasDeleteErrors(results) {
		return &exitError{code: 1}
	}

	return nil
}
