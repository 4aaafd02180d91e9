// Package spaces provides a small file service on top of an S3-compatible
// object store such as DigitalOcean Spaces.
//
// The service uploads, downloads, inspects, lists, checks and deletes objects
// through the ObjectStore interface and translates every store failure into a
// closed set of sentinel errors.
//
// # Key Components
//
//   - SpacesService: file operations and error mapping
//   - ObjectStore: interface over the store protocol (see package s3store)
//   - StorageSettings: immutable connection settings loaded at startup
//   - FileMetadata: snapshot of an object returned by every read operation
//
// # Object Keys
//
// Uploaded objects never overwrite each other. Each key is built from a fresh
// random UUID and the sanitized original filename, optionally under a folder:
//
//	invoices/2f1c8a4e-3c1d-4b0e-9d55-7b8f0f6f2a11_report.pdf
//
// # Errors
//
//   - ErrInvalidInput: empty upload, bad key or folder
//   - ErrNotFound: key absent in the bucket
//   - ErrStorageFailed: any other store or network error
//   - ErrSizeLimitExceeded: request body larger than allowed
//
// # Example Usage
//
//	store, err := s3store.New(settings)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	service := spaces.NewSpacesService(store, settings)
//
//	meta, err := service.Upload(ctx, spaces.UploadObject{
//	    Filename:    "report.pdf",
//	    ContentType: "application/pdf",
//	    Size:        size,
//	}, file)
//
// See the http package for the REST API built on top of the service.
package spaces
