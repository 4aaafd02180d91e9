package main

import (
	"github.com/spf13/cobra"
)

var statCmd = &cobra.Command{
	Use:     "stat <key>",
	Aliases: []string{"metadata"},
	Short:   "Show object metadata",
	Long: `Show the size, content type, ETag, modification time and public URL of
an object.`,
	Args: cobra.ExactArgs(1),
	RunE: runStat,
}

func runStat(cmd *cobra.Command, args []string) error {
	client, err := getClient()
	if err != nil {
		return err
	}

	meta, err := client.Stat(cmd.Context(), args[0])
	if err != nil {
		return err
	}

	return getFormatter().FormatStat(cmd.OutOrStdout(), meta)
}
