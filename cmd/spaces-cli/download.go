package main

import (
	"io"

	"github.com/spf13/cobra"

	"github.com/shidubei/DigitalOcean-ObjectSpaces/clientcli"
)

var (
	downloadOutput string
	downloadStdout bool
)

var downloadCmd = &cobra.Command{
	Use:   "download <key> [local-path]",
	Short: "Download a file from the bucket",
	Long: `Download an object by key.

Without a local path the file is saved under the last segment of the key in
the current directory.

Examples:
  spaces-cli download reports/0b3f8a5e-..._report.pdf
  spaces-cli download reports/0b3f8a5e-..._report.pdf ./report.pdf
  spaces-cli download --stdout config/0b3f8a5e-..._app.json | jq .`,
	Args: cobra.RangeArgs(1, 2),
	RunE: runDownload,
}

func init() {
	downloadCmd.Flags().StringVarP(&downloadOutput, "output", "o", "", "output file path")
	downloadCmd.Flags().BoolVar(&downloadStdout, "stdout", false, "write to stdout")
}

func runDownload(cmd *cobra.Command, args []string) error {
	localPath := ""
	if len(args) > 1 {
		localPath = args[1]
	}
	if downloadOutput != "" {
		localPath = downloadOutput
	}
	if downloadStdout {
		localPath = "-"
	}

	client, err := getClient()
	if err != nil {
		return err
	}

	result, reader, err := client.Download(cmd.Context(), clientcli.DownloadOptions{
		Key:       args[0],
		LocalPath: localPath,
	})
	if err != nil {
		return err
	}

	if reader != nil {
		defer func() { _ = reader.Close() }()
		written, err := io.Copy(cmd.OutOrStdout(), reader)
		if err != nil {
			return err
		}
		result.Size = written

		// stdout carries the file, metadata goes to stderr in JSON mode only
		if jsonOutput {
			return getFormatter().FormatDownload(cmd.ErrOrStderr(), result)
		}
		return nil
	}

	return getFormatter().FormatDownload(cmd.OutOrStdout(), result)
}
