package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/shidubei/DigitalOcean-ObjectSpaces/config"
)

var version = "dev"

var rootCmd = &cobra.Command{
	Version: version,
	Use:     "spaces",
	Short:   "REST facade over DigitalOcean Spaces",
	Long: `spaces exposes upload, download, metadata, listing, existence
and delete operations on a DigitalOcean Spaces (or any S3-compatible) bucket
through a small JSON REST API.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		configFiles, _ := cmd.Flags().GetStringSlice("config")

		cfg, err := config.Load(configFiles, cmd.Flags())
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}

		setupLogging(cfg)
		cmd.SetContext(config.WithContext(cmd.Context(), cfg))
		return nil
	},
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringSlice("config", nil, "config file path, repeat to merge (default: ./config.yaml)")
	pf.StringSlice("env-file", nil, "dotenv file to load, repeat for several (default: ./.env if present)")
	pf.String("log-level", "", "log level: debug, info, warn, error (env: SPACES_LOG_LEVEL)")
	pf.String("access-key", "", "Spaces access key (env: SPACES_ACCESS_KEY)")
	pf.String("secret-key", "", "Spaces secret key (env: SPACES_SECRET_KEY)")
	pf.String("region", "", "Spaces region, e.g. nyc3 (env: SPACES_REGION)")
	pf.String("bucket", "", "bucket name (env: SPACES_BUCKET_NAME)")
	pf.String("endpoint", "", "endpoint URL template, %s is replaced with the region (env: SPACES_ENDPOINT_URL_TEMPLATE)")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
