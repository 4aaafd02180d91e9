package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Check the server and its bucket",
	Args:  cobra.NoArgs,
	RunE:  runHealth,
}

func runHealth(cmd *cobra.Command, _ []string) error {
	client, err := getClient()
	if err != nil {
		return err
	}

	if err := client.Health(cmd.Context()); err != nil {
		return fmt.Errorf("%s: %w", client.Endpoint(), err)
	}

	if !quiet {
		_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s is healthy\n", client.Endpoint())
	}
	return nil
}
