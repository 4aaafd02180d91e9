package clientcli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"io/fs"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	spaces "github.com/shidubei/DigitalOcean-ObjectSpaces"
	spaceshttp "github.com/shidubei/DigitalOcean-ObjectSpaces/http"
)

const (
	// DefaultTimeout is the default HTTP client timeout.
	DefaultTimeout = 5 * time.Minute

	// maxEnvelopeSize caps how much of a JSON response is read.
	maxEnvelopeSize = 16 << 20

	// deleteConcurrency bounds in-flight DELETE requests.
	deleteConcurrency = 4
)

// Client performs operations against a spaces REST server.
type Client struct {
	endpoint   string
	httpClient *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		c.httpClient = client
	}
}

// WithTimeout sets the HTTP client timeout.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		c.httpClient.Timeout = timeout
	}
}

// New creates a new Client with the given config and options.
func New(cfg *Config, opts ...Option) (*Client, error) {
	if cfg == nil {
		return nil, ErrConfigRequired
	}

	cfg = cfg.WithDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	c := &Client{
		endpoint:   strings.TrimSuffix(cfg.Endpoint, "/"),
		httpClient: &http.Client{Timeout: DefaultTimeout},
	}

	for _, opt := range opts {
		opt(c)
	}

	return c, nil
}

// Endpoint returns the API base URL the client talks to.
func (c *Client) Endpoint() string {
	return c.endpoint
}

// Health checks that the server is up and can reach its bucket.
func (c *Client) Health(ctx context.Context) error {
	resp, err := c.get(ctx, c.endpoint+"/health")
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	_, err = readEnvelope[bool](resp)
	return err
}

// Upload uploads file(s) to the server.
// For recursive uploads, walks the directory and uses each file's relative
// directory as its folder under opts.Folder.
func (c *Client) Upload(ctx context.Context, opts UploadOptions) ([]UploadResult, error) {
	if opts.LocalPath == "" {
		return nil, fmt.Errorf("upload: %w", ErrNoPaths)
	}

	info, err := os.Stat(opts.LocalPath)
	if err != nil {
		return nil, fmt.Errorf("stat local path: %w", err)
	}

	if !info.IsDir() {
		meta, uploadErr := c.uploadSingle(ctx, opts.LocalPath, opts.Folder, opts.ContentType)
		if uploadErr != nil {
			return nil, uploadErr
		}
		return []UploadResult{{LocalPath: opts.LocalPath, File: meta}}, nil
	}

	if !opts.Recursive {
		return nil, fmt.Errorf("upload %s: is a directory, use --recursive", opts.LocalPath)
	}

	return c.uploadRecursive(ctx, opts)
}

// uploadRecursive walks a directory and uploads all files.
func (c *Client) uploadRecursive(ctx context.Context, opts UploadOptions) ([]UploadResult, error) {
	var results []UploadResult
	baseDir := opts.LocalPath
	folder := spaces.NormalizeFolder(opts.Folder)

	walkErr := filepath.WalkDir(baseDir, func(p string, d fs.DirEntry, fileErr error) error {
		if fileErr != nil {
			return fileErr
		}

		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}

		if d.IsDir() {
			return nil
		}

		relPath, relErr := filepath.Rel(baseDir, p)
		if relErr != nil {
			results = append(results, UploadResult{
				LocalPath: p,
				Err:       fmt.Errorf("calculate relative path: %w", relErr),
			})
			return nil
		}

		fileFolder := folder
		if relDir := path.Dir(filepath.ToSlash(relPath)); relDir != "." {
			fileFolder = strings.TrimPrefix(folder+"/"+relDir, "/")
		}

		meta, uploadErr := c.uploadSingle(ctx, p, fileFolder, "")
		results = append(results, UploadResult{LocalPath: p, File: meta, Err: uploadErr})
		return nil
	})

	if walkErr != nil {
		return results, fmt.Errorf("walk directory: %w", walkErr)
	}

	return results, nil
}

// uploadSingle streams one file to the server as multipart/form-data.
func (c *Client) uploadSingle(ctx context.Context, localPath, folder, contentType string) (*spaces.FileMetadata, error) {
	file, err := os.Open(localPath) //#nosec G304 -- localPath is user-provided input
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}

	if contentType == "" {
		contentType = spaces.DetectContentType("", localPath)
	}

	pr, pw := io.Pipe()
	form := multipart.NewWriter(pw)

	go func() {
		defer func() { _ = file.Close() }()
		_ = pw.CloseWithError(writeUploadForm(form, file, filepath.Base(localPath), contentType, folder))
	}()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint+"/upload", pr)
	if err != nil {
		_ = pr.Close()
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", form.FormDataContentType())

	resp, err := c.httpClient.Do(req)
	// Unblocks the writer if the server answered before reading everything.
	_ = pr.Close()
	if err != nil {
		return nil, fmt.Errorf("do request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	return readEnvelope[spaces.FileMetadata](resp)
}

var quoteEscaper = strings.NewReplacer(`\`, `\\`, `"`, `\"`)

func writeUploadForm(form *multipart.Writer, content io.Reader, filename, contentType, folder string) error {
	if folder != "" {
		if err := form.WriteField("folder", folder); err != nil {
			return fmt.Errorf("write folder field: %w", err)
		}
	}

	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename="%s"`, quoteEscaper.Replace(filename)))
	h.Set("Content-Type", contentType)

	part, err := form.CreatePart(h)
	if err != nil {
		return fmt.Errorf("create file part: %w", err)
	}

	if _, err := io.Copy(part, content); err != nil {
		return fmt.Errorf("write file part: %w", err)
	}

	return form.Close()
}

// Download downloads a file from the server.
// If opts.LocalPath is "-", the content is returned via the io.ReadCloser and must be closed by the caller.
// Otherwise, the content is written to the file and the io.ReadCloser is nil.
func (c *Client) Download(ctx context.Context, opts DownloadOptions) (*DownloadResult, io.ReadCloser, error) {
	if opts.Key == "" {
		return nil, nil, fmt.Errorf("download: %w", ErrEmptyKey)
	}

	resp, err := c.get(ctx, c.keyURL("download", opts.Key))
	if err != nil {
		return nil, nil, err
	}

	if resp.StatusCode != http.StatusOK {
		defer func() { _ = resp.Body.Close() }()
		_, envErr := readEnvelope[struct{}](resp)
		return nil, nil, envErr
	}

	result := &DownloadResult{
		Key:         opts.Key,
		ETag:        strings.Trim(resp.Header.Get("ETag"), `"`),
		ContentType: resp.Header.Get("Content-Type"),
		Size:        resp.ContentLength,
	}

	if opts.LocalPath == "-" {
		result.LocalPath = "-"
		return result, resp.Body, nil
	}
	defer func() { _ = resp.Body.Close() }()

	localPath := opts.LocalPath
	if localPath == "" {
		localPath = spaces.FilenameFromKey(opts.Key)
	}
	result.LocalPath = localPath

	if dir := filepath.Dir(localPath); dir != "" && dir != "." {
		if mkdirErr := os.MkdirAll(dir, 0o750); mkdirErr != nil {
			return nil, nil, fmt.Errorf("create directory: %w", mkdirErr)
		}
	}

	file, err := os.Create(localPath) //#nosec G304 -- localPath is user-provided input
	if err != nil {
		return nil, nil, fmt.Errorf("create file: %w", err)
	}

	written, copyErr := io.Copy(file, resp.Body)
	if copyErr != nil {
		_ = file.Close()
		return nil, nil, fmt.Errorf("write file: %w", copyErr)
	}

	if closeErr := file.Close(); closeErr != nil {
		return nil, nil, fmt.Errorf("close file: %w", closeErr)
	}

	result.Size = written
	return result, nil, nil
}

// Stat returns the metadata of a single object.
func (c *Client) Stat(ctx context.Context, key string) (*spaces.FileMetadata, error) {
	if key == "" {
		return nil, fmt.Errorf("stat: %w", ErrEmptyKey)
	}

	resp, err := c.get(ctx, c.keyURL("metadata", key))
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	return readEnvelope[spaces.FileMetadata](resp)
}

// List lists the objects whose key starts with prefix.
func (c *Client) List(ctx context.Context, prefix string) (*ListResult, error) {
	u := c.endpoint + "/list"
	if prefix != "" {
		u += "?" + url.Values{"prefix": {prefix}}.Encode()
	}

	resp, err := c.get(ctx, u)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	items, err := readEnvelope[[]spaces.FileMetadata](resp)
	if err != nil {
		return nil, err
	}

	result := &ListResult{Prefix: prefix, Items: *items}
	if result.Items == nil {
		result.Items = []spaces.FileMetadata{}
	}
	return result, nil
}

// Exists reports whether an object exists.
func (c *Client) Exists(ctx context.Context, key string) (bool, error) {
	if key == "" {
		return false, fmt.Errorf("exists: %w", ErrEmptyKey)
	}

	resp, err := c.get(ctx, c.keyURL("exists", key))
	if err != nil {
		return false, err
	}
	defer func() { _ = resp.Body.Close() }()

	exists, err := readEnvelope[bool](resp)
	if err != nil {
		return false, err
	}
	return *exists, nil
}

// Delete deletes one or more files from the server, a few at a time.
// Results keep the order of opts.Keys and carry per-key errors.
func (c *Client) Delete(ctx context.Context, opts DeleteOptions) ([]DeleteResult, error) {
	if len(opts.Keys) == 0 {
		return nil, ErrNoPaths
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	results := make([]DeleteResult, len(opts.Keys))

	var g errgroup.Group
	g.SetLimit(deleteConcurrency)
	for i, key := range opts.Keys {
		g.Go(func() error {
			results[i] = c.deleteSingle(ctx, key)
			return nil
		})
	}
	_ = g.Wait()

	return results, ctx.Err()
}

func (c *Client) deleteSingle(ctx context.Context, key string) DeleteResult {
	if key == "" {
		return DeleteResult{Key: key, Err: ErrEmptyKey}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, c.keyURL("", key), http.NoBody)
	if err != nil {
		return DeleteResult{Key: key, Err: fmt.Errorf("create request: %w", err)}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return DeleteResult{Key: key, Err: fmt.Errorf("do request: %w", err)}
	}
	defer func() { _ = resp.Body.Close() }()

	// A successful delete carries no data.
	if _, err := readEnvelope[struct{}](resp); err != nil {
		return DeleteResult{Key: key, Err: err}
	}

	return DeleteResult{Key: key, Deleted: true}
}

// HasDeleteErrors returns true if any delete operation failed.
func HasDeleteErrors(results []DeleteResult) bool {
	for _, r := range results {
		if r.Err != nil {
			return true
		}
	}
	return false
}

// HasUploadErrors returns true if any upload failed.
func HasUploadErrors(results []UploadResult) bool {
	for _, r := range results {
		if r.Err != nil {
			return true
		}
	}
	return false
}

func (c *Client) get(ctx context.Context, u string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("do request: %w", err)
	}
	return resp, nil
}

// keyURL joins the endpoint, an optional route and the key, escaping each
// key segment so slashes keep separating folders.
func (c *Client) keyURL(route, key string) string {
	segments := strings.Split(key, "/")
	for i, s := range segments {
		segments[i] = url.PathEscape(s)
	}

	u := c.endpoint
	if route != "" {
		u += "/" + route
	}
	return u + "/" + strings.Join(segments, "/")
}

// readEnvelope decodes a response envelope and returns its data.
// Non-200 statuses and envelopes with success=false become *APIError.
func readEnvelope[T any](resp *http.Response) (*T, error) {
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxEnvelopeSize))
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	var env spaceshttp.APIResponse[T]
	if err := json.Unmarshal(body, &env); err != nil {
		if resp.StatusCode != http.StatusOK {
			return nil, &APIError{StatusCode: resp.StatusCode, Message: strings.TrimSpace(string(body))}
		}
		return nil, fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}

	if resp.StatusCode != http.StatusOK || !env.Success {
		return nil, &APIError{StatusCode: resp.StatusCode, Message: env.Message}
	}

	if env.Data == nil {
		return new(T), nil
	}
	return env.Data, nil
}
