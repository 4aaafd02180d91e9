// Package clientcli provides a client library for the spaces REST API.
//
// It supports upload, download, stat, list, exists and delete operations and
// decodes the server's {success, message, data, timestamp} envelope. Failures
// come back as *APIError and can be matched with errors.Is against
// ErrNotFound, ErrBadRequest, ErrServerError and ErrUnavailable.
//
// # Basic Usage
//
// Create a client and upload a file:
//
//	client, err := clientcli.New(&clientcli.Config{
//		Endpoint: "http://localhost:8080/api/v1/spaces",
//	})
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	results, err := client.Upload(ctx, clientcli.UploadOptions{
//		LocalPath: "./report.pdf",
//		Folder:    "reports",
//	})
//
// Uploaded files get a server generated key of the form
// [folder/]<uuid>_<filename>, returned in results[0].File.Key.
//
// # Profile Configuration
//
// Use profiles to manage multiple servers:
//
//	configFile, err := clientcli.LoadConfigFile(clientcli.DefaultConfigPath())
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	profile, err := configFile.GetProfile("production")
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	client, err := clientcli.New(clientcli.ConfigFromProfile(profile))
//
// # Output Formatting
//
// Use formatters for human-readable or JSON output:
//
//	formatter := clientcli.NewFormatter(jsonOutput, quiet)
//	formatter.FormatUpload(os.Stdout, results)
package clientcli
