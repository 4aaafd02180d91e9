package main

import (
	"github.com/spf13/cobra"

	"github.com/shidubei/DigitalOcean-ObjectSpaces/clientcli"
)

var existsCmd = &cobra.Command{
	Use:   "exists <key>",
	Short: "Check whether an object exists",
	Long: `Check whether an object exists.

Exits 0 when it does, 1 when it does not and 1 with an error message when the
server could not tell.

Examples:
  spaces-cli exists reports/0b3f8a5e-..._report.pdf
  spaces-cli exists -q reports/0b3f8a5e-..._report.pdf && echo present`,
	Args: cobra.ExactArgs(1),
	RunE: runExists,
}

func runExists(cmd *cobra.Command, args []string) error {
	client, err := getClient()
	if err != nil {
		return err
	}

	exists, err := client.Exists(cmd.Context(), args[0])
	if err != nil {
		return err
	}

	result := clientcli.ExistsResult{Key: args[0], Exists: exists}
	if err := getFormatter().FormatExists(cmd.OutOrStdout(), result); err != nil {
		return err
	}

	if !exists {
		return &exitError{code: 1}
	}
	return nil
}
