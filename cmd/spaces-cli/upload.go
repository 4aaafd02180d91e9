package main

import (
	"github.com/spf13/cobra"

	"github.com/shidubei/DigitalOcean-ObjectSpaces/clientcli"
)

var (
	uploadFolder      string
	uploadRecursive   bool
	uploadContentType string
)

var uploadCmd = &cobra.Command{
	Use:   "upload <local-path>",
	Short: "Upload files to the bucket",
	Long: `Upload a file, or a directory with --recursive.

The server prefixes every filename with a UUID, so uploading the same file
twice creates two objects. The generated keys are printed; with --quiet only
the keys are printed, one per line.

Examples:
  spaces-cli upload ./report.pdf
  spaces-cli upload --folder reports ./report.pdf
  spaces-cli upload -r --folder backup ./photos/
  spaces-cli upload -t application/json ./data`,
	Args: cobra.ExactArgs(1),
	RunE: runUpload,
}

func init() {
	uploadCmd.Flags().StringVarP(&uploadFolder, "folder", "f", "", "key prefix for the uploaded file(s)")
	uploadCmd.Flags().BoolVarP(&uploadRecursive, "recursive", "r", false, "upload directory recursively")
	uploadCmd.Flags().StringVarP(&uploadContentType, "content-type", "t", "", "override content-type")
}

func runUpload(cmd *cobra.Command, args []string) error {
	client, err := getClient()
	if err != nil {
		return err
	}

	results, err := client.Upload(cmd.Context(), clientcli.UploadOptions{
		LocalPath:   args[0],
		Folder:      uploadFolder,
		ContentType: uploadContentType,
		Recursive:   uploadRecursive,
	})
	if err != nil {
		return err
	}

	if err := getFormatter().FormatUpload(cmd.OutOrStdout(), results); err != nil {
		return err
	}

	if clientcli.HasUploadErrors(results) {
		return &exitError{code: 1}
	}

	return nil
}
