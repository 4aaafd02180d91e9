package spaces

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"strings"
	"time"
)

// ObjectStore defines the protocol level operations against a bucket.
// Implementations translate transport and protocol failures into ErrNotFound
// (the key does not exist) or ErrStorageFailed (anything else).
//
// All methods accept a context for cancellation and timeout control.
type ObjectStore interface {
	// Put stores content under key with the declared length and content type.
	//
	// Returns:
	//   - PutResult: the integrity tag the store assigned to the object
	//   - error: ErrStorageFailed on any store or I/O error
	Put(ctx context.Context, key string, content io.Reader, size int64, contentType string) (PutResult, error)

	// Get opens the object body for reading.
	//
	// The caller is responsible for closing the returned ReadCloser on every
	// path, including partial reads.
	Get(ctx context.Context, key string) (io.ReadCloser, error)

	// Head returns object attributes without reading the body.
	//
	// Returns:
	//   - ObjectInfo: size, last modified, ETag and content type
	//   - error: ErrNotFound if the key doesn't exist, ErrStorageFailed otherwise
	Head(ctx context.Context, key string) (ObjectInfo, error)

	// List returns the objects whose key starts with prefix, in the store's
	// native (lexicographic) order. Only a single listing page is fetched,
	// ListResult.Truncated reports whether more objects exist.
	List(ctx context.Context, prefix string) (ListResult, error)

	// Delete removes the object. Deleting a key that does not exist is not an error.
	Delete(ctx context.Context, key string) error

	// Ping checks that the bucket is reachable with the configured credentials.
	Ping(ctx context.Context) error
}

// SpacesService implements the file operations exposed by the REST API.
type SpacesService struct {
	store         ObjectStore
	publicBaseURL string
}

func NewSpacesService(store ObjectStore, settings StorageSettings) (*SpacesService, error) {
	if store == nil {
		return nil, errors.New("new spaces service: store cannot be nil")
	}
	if err := settings.Validate(); err != nil {
		return nil, fmt.Errorf("new spaces service: %w", err)
	}
	return &SpacesService{
		store:         store,
		publicBaseURL: settings.PublicBaseURL(),
	}, nil
}

// Upload stores a new object under a freshly generated key and returns its metadata.
//
// The method performs the following steps:
//  1. Rejects empty content with ErrInvalidInput before touching the store
//  2. Validates the optional folder prefix
//  3. Sanitizes the filename and builds [folder/]<uuid>_<filename>
//  4. Puts the object with the declared content type and length
//
// Error types returned:
//   - ErrInvalidInput: empty file or invalid folder
//   - ErrStorageFailed: the put failed, the upstream message is embedded
func (s *SpacesService) Upload(ctx context.Context, obj UploadObject, content io.Reader) (FileMetadata, error) {
	if err := ctx.Err(); err != nil {
		return FileMetadata{}, fmt.Errorf("upload file: %w", err)
	}

	if obj.Size <= 0 || content == nil {
		return FileMetadata{}, fmt.Errorf("upload file: %w: file cannot be empty", ErrInvalidInput)
	}

	folder := NormalizeFolder(obj.Folder)
	if folder != "" && !IsValidKey(folder) {
		return FileMetadata{}, fmt.Errorf("upload file: %w: invalid folder %q", ErrInvalidInput, obj.Folder)
	}

	filename := SanitizeFilename(obj.Filename)
	key := NewObjectKey(folder, filename)
	contentType := DetectContentType(obj.ContentType, filename)

	slog.Info("uploading file", "filename", obj.Filename, "key", key, "size", obj.Size)

	res, err := s.store.Put(ctx, key, content, obj.Size, contentType)
	if err != nil {
		return FileMetadata{}, fmt.Errorf("upload file %s: %w", key, storageError(err))
	}

	slog.Info("file uploaded", "key", key, "etag", res.ETag)

	return FileMetadata{
		Key:          key,
		Size:         obj.Size,
		LastModified: time.Now().UTC(),
		ETag:         res.ETag,
		ContentType:  contentType,
		PublicURL:    s.PublicURL(key),
	}, nil
}

// Download opens the object body. The caller must close the returned reader.
func (s *SpacesService) Download(ctx context.Context, key string) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("download file: %w", err)
	}

	if err := validateKey(key); err != nil {
		return nil, fmt.Errorf("download file: %w", err)
	}

	body, err := s.store.Get(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("download file %s: %w", key, storageError(err))
	}

	return body, nil
}

// Metadata fetches the attributes of a single object.
func (s *SpacesService) Metadata(ctx context.Context, key string) (FileMetadata, error) {
	if err := ctx.Err(); err != nil {
		return FileMetadata{}, fmt.Errorf("get metadata: %w", err)
	}

	if err := validateKey(key); err != nil {
		return FileMetadata{}, fmt.Errorf("get metadata: %w", err)
	}

	info, err := s.store.Head(ctx, key)
	if err != nil {
		return FileMetadata{}, fmt.Errorf("get metadata %s: %w", key, storageError(err))
	}

	// Head is addressed by key, some stores leave it out of the response.
	info.Key = key

	return s.toMetadata(info), nil
}

// List returns the objects whose key starts with prefix. An empty prefix lists
// the bucket. Only the first page of the store listing is returned.
func (s *SpacesService) List(ctx context.Context, prefix string) ([]FileMetadata, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("list files: %w", err)
	}

	result, err := s.store.List(ctx, prefix)
	if err != nil {
		return nil, fmt.Errorf("list files: %w", storageError(err))
	}

	if result.Truncated {
		slog.Warn("listing truncated to a single page", "prefix", prefix, "returned", len(result.Objects))
	}

	files := make([]FileMetadata, 0, len(result.Objects))
	for _, obj := range result.Objects {
		files = append(files, s.toMetadata(obj))
	}

	return files, nil
}

// Delete removes the object and reports whether the store accepted the request.
// Failures are logged and reported as false. Because object deletion is
// idempotent, removing a key that is already absent reports true.
func (s *SpacesService) Delete(ctx context.Context, key string) bool {
	if err := ctx.Err(); err != nil {
		slog.Warn("delete file aborted", "key", key, "err", err)
		return false
	}

	if err := validateKey(key); err != nil {
		slog.Warn("delete file rejected", "key", key, "err", err)
		return false
	}

	if err := s.store.Delete(ctx, key); err != nil {
		slog.Error("delete file failed", "key", key, "err", err)
		return false
	}

	slog.Info("file deleted", "key", key)
	return true
}

// Exists reports whether key is present. Only a definite not-found answer
// yields false; every other store failure is returned as ErrStorageFailed.
func (s *SpacesService) Exists(ctx context.Context, key string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, fmt.Errorf("check file exists: %w", err)
	}

	if err := validateKey(key); err != nil {
		return false, fmt.Errorf("check file exists: %w", err)
	}

	_, err := s.store.Head(ctx, key)
	if err == nil {
		return true, nil
	}

	if errors.Is(err, ErrNotFound) {
		return false, nil
	}

	return false, fmt.Errorf("check file exists %s: %w", key, storageError(err))
}

// PublicURL derives the path-style public URL of key. It does not check that
// the object exists.
func (s *SpacesService) PublicURL(key string) string {
	segments := strings.Split(key, "/")
	for i, seg := range segments {
		segments[i] = url.PathEscape(seg)
	}
	return s.publicBaseURL + "/" + strings.Join(segments, "/")
}

// Ping checks that the bucket answers.
func (s *SpacesService) Ping(ctx context.Context) error {
	if err := s.store.Ping(ctx); err != nil {
		return fmt.Errorf("ping bucket: %w", storageError(err))
	}
	return nil
}

func (s *SpacesService) toMetadata(info ObjectInfo) FileMetadata {
	return FileMetadata{
		Key:          info.Key,
		Size:         info.Size,
		LastModified: info.LastModified,
		ETag:         info.ETag,
		ContentType:  info.ContentType,
		PublicURL:    s.PublicURL(info.Key),
	}
}

func validateKey(key string) error {
	if key == "" {
		return fmt.Errorf("%w: key cannot be empty", ErrInvalidInput)
	}
	if !IsValidKey(key) {
		return fmt.Errorf("%w: invalid key %q", ErrInvalidInput, key)
	}
	return nil
}

// storageError keeps ErrNotFound and ErrStorageFailed as they are and folds
// any other failure into ErrStorageFailed with its message embedded.
func storageError(err error) error {
	if errors.Is(err, ErrNotFound) || errors.Is(err, ErrStorageFailed) {
		return err
	}
	return fmt.Errorf("%w: %v", ErrStorageFailed, err)
}
