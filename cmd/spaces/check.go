package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/shidubei/DigitalOcean-ObjectSpaces/config"
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Verify the bucket is reachable",
	Long: `Load the configuration, connect to the configured endpoint and issue a
HeadBucket request. Exits non-zero when the bucket cannot be reached with the
configured credentials.`,
	RunE: runCheck,
}

func init() {
	rootCmd.AddCommand(checkCmd)
}

func runCheck(cmd *cobra.Command, args []string) error {
	cfg, err := config.FromContext(cmd.Context())
	if err != nil {
		return err
	}

	service, err := newService(cfg)
	if err != nil {
		return err
	}

	if err := service.Ping(cmd.Context()); err != nil {
		return fmt.Errorf("bucket %s at %s: %w", cfg.Spaces.BucketName, cfg.Spaces.EndpointURL(), err)
	}

	_, _ = fmt.Fprintf(cmd.OutOrStdout(), "bucket %s is reachable at %s\n", cfg.Spaces.BucketName, cfg.Spaces.EndpointURL())
	return nil
}
