package http

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	spaces "github.com/shidubei/DigitalOcean-ObjectSpaces"
)

// DefaultMaxUploadSize caps multipart upload bodies when no limit is configured.
const DefaultMaxUploadSize int64 = 10 << 20

// multipartMemory is the part of a multipart form kept in memory, the rest is
// spooled to temporary files.
const multipartMemory = 8 << 20

// Service is the file operations surface the handlers call into.
type Service interface {
	Upload(ctx context.Context, obj spaces.UploadObject, content io.Reader) (spaces.FileMetadata, error)
	Download(ctx context.Context, key string) (io.ReadCloser, error)
	Metadata(ctx context.Context, key string) (spaces.FileMetadata, error)
	List(ctx context.Context, prefix string) ([]spaces.FileMetadata, error)
	Delete(ctx context.Context, key string) bool
	Exists(ctx context.Context, key string) (bool, error)
	Ping(ctx context.Context) error
}

// CORSConfig configures the optional CORS middleware.
type CORSConfig struct {
	Enabled          bool     `mapstructure:"enabled"`
	AllowedOrigins   []string `mapstructure:"allowed_origins"`
	AllowedMethods   []string `mapstructure:"allowed_methods"`
	AllowedHeaders   []string `mapstructure:"allowed_headers"`
	ExposedHeaders   []string `mapstructure:"exposed_headers"`
	AllowCredentials bool     `mapstructure:"allow_credentials"`
	MaxAge           int      `mapstructure:"max_age" validate:"min=0"`
}

// HandlerConfig holds routing and request limits for a Handler.
type HandlerConfig struct {
	// BasePath prefixes every route, e.g. "/api/v1/spaces". Empty mounts at "/".
	BasePath      string
	MaxUploadSize int64
	CORS          CORSConfig
}

// Handler exposes the file operations of a Service over HTTP.
type Handler struct {
	config  HandlerConfig
	service Service
}

// NewHandler creates a new Handler with the given configuration and service.
func NewHandler(config *HandlerConfig, service Service) *Handler {
	cfg := *config
	if cfg.MaxUploadSize <= 0 {
		cfg.MaxUploadSize = DefaultMaxUploadSize
	}
	cfg.BasePath = "/" + strings.Trim(cfg.BasePath, "/")

	return &Handler{
		config:  cfg,
		service: service,
	}
}

// Router returns an http.Handler with every route mounted under BasePath.
func (h *Handler) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(RequestLogger)
	r.Use(Recoverer)

	if h.config.CORS.Enabled {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   h.config.CORS.AllowedOrigins,
			AllowedMethods:   h.config.CORS.AllowedMethods,
			AllowedHeaders:   h.config.CORS.AllowedHeaders,
			ExposedHeaders:   h.config.CORS.ExposedHeaders,
			AllowCredentials: h.config.CORS.AllowCredentials,
			MaxAge:           h.config.CORS.MaxAge,
		}))
	}

	r.NotFound(notFound)
	r.MethodNotAllowed(methodNotAllowed)

	routes := func(r chi.Router) {
		r.Get("/health", h.handleHealth)
		r.Post("/upload", h.handleUpload)
		r.Get("/download/*", h.handleDownload)
		r.Get("/metadata/*", h.handleMetadata)
		r.Get("/list", h.handleList)
		r.Get("/exists/*", h.handleExists)
		r.Delete("/*", h.handleDelete)
	}

	if h.config.BasePath == "/" {
		routes(r)
	} else {
		r.Route(h.config.BasePath, routes)
	}

	return r
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Ping(r.Context()); err != nil {
		slog.Error("health check failed", "error", err)
		WriteError(w, http.StatusServiceUnavailable, "storage unavailable")
		return
	}

	_ = WriteJSON(w, http.StatusOK, Success("ok", true))
}

func (h *Handler) handleUpload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.config.MaxUploadSize)

	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		HandleError(w, uploadError(err))
		return
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	file, header, err := r.FormFile("file")
	if err != nil {
		HandleError(w, uploadError(err))
		return
	}
	defer func() { _ = file.Close() }()

	// Browsers and most clients send octet-stream when they don't know the
	// type, let the extension decide instead.
	contentType := header.Header.Get("Content-Type")
	if contentType == "application/octet-stream" {
		contentType = ""
	}

	obj := spaces.UploadObject{
		Filename:    header.Filename,
		ContentType: contentType,
		Size:        header.Size,
		Folder:      r.FormValue("folder"),
	}

	slog.Info("upload request", "filename", obj.Filename, "size", obj.Size, "folder", obj.Folder)

	meta, err := h.service.Upload(r.Context(), obj, file)
	if err != nil {
		HandleError(w, err)
		return
	}

	_ = WriteJSON(w, http.StatusOK, Success("file uploaded", meta))
}

func (h *Handler) handleDownload(w http.ResponseWriter, r *http.Request) {
	key, err := keyParam(r)
	if err != nil {
		HandleError(w, err)
		return
	}

	meta, err := h.service.Metadata(r.Context(), key)
	if err != nil {
		HandleError(w, err)
		return
	}

	body, err := h.service.Download(r.Context(), key)
	if err != nil {
		HandleError(w, err)
		return
	}
	defer func() { _ = body.Close() }()

	contentType := meta.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Length", strconv.FormatInt(meta.Size, 10))
	w.Header().Set("Content-Disposition", contentDisposition(spaces.FilenameFromKey(key)))
	if meta.ETag != "" {
		w.Header().Set("ETag", `"`+meta.ETag+`"`)
	}
	if !meta.LastModified.IsZero() {
		w.Header().Set("Last-Modified", meta.LastModified.UTC().Format(http.TimeFormat))
	}
	w.WriteHeader(http.StatusOK)

	// Headers are gone, a failure here can only be logged.
	if _, err := io.Copy(w, body); err != nil {
		slog.Error("download stream interrupted", "key", key, "error", err)
		return
	}

	if f, ok := w.(http.Flusher); ok {
		f.Flush()
	}
}

func (h *Handler) handleMetadata(w http.ResponseWriter, r *http.Request) {
	key, err := keyParam(r)
	if err != nil {
		HandleError(w, err)
		return
	}

	meta, err := h.service.Metadata(r.Context(), key)
	if err != nil {
		HandleError(w, err)
		return
	}

	_ = WriteJSON(w, http.StatusOK, Success("file metadata retrieved", meta))
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	prefix := r.URL.Query().Get("prefix")

	files, err := h.service.List(r.Context(), prefix)
	if err != nil {
		HandleError(w, err)
		return
	}

	_ = WriteJSON(w, http.StatusOK, Success(fmt.Sprintf("found %d files", len(files)), files))
}

func (h *Handler) handleExists(w http.ResponseWriter, r *http.Request) {
	key, err := keyParam(r)
	if err != nil {
		HandleError(w, err)
		return
	}

	exists, err := h.service.Exists(r.Context(), key)
	if err != nil {
		HandleError(w, err)
		return
	}

	message := "file does not exist"
	if exists {
		message = "file exists"
	}

	_ = WriteJSON(w, http.StatusOK, Success(message, exists))
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	key, err := keyParam(r)
	if err != nil {
		HandleError(w, err)
		return
	}

	if !h.service.Delete(r.Context(), key) {
		_ = WriteJSON(w, http.StatusOK, Failure("file delete failed"))
		return
	}

	_ = WriteJSON(w, http.StatusOK, Result(true, "file deleted"))
}

// keyParam extracts the object key captured by a trailing wildcard.
// chi routes on the escaped path when one exists, so the capture is unescaped
// here.
func keyParam(r *http.Request) (string, error) {
	key := chi.URLParam(r, "*")
	if r.URL.RawPath != "" {
		unescaped, err := url.PathUnescape(key)
		if err != nil {
			return "", fmt.Errorf("%w: malformed key %q", spaces.ErrInvalidInput, key)
		}
		key = unescaped
	}

	if key == "" {
		return "", fmt.Errorf("%w: key cannot be empty", spaces.ErrInvalidInput)
	}

	return key, nil
}

// uploadError maps multipart parsing failures onto domain errors.
func uploadError(err error) error {
	var maxErr *http.MaxBytesError
	switch {
	case errors.As(err, &maxErr):
		return fmt.Errorf("upload file: %w: limit is %d bytes", spaces.ErrSizeLimitExceeded, maxErr.Limit)
	case errors.Is(err, http.ErrMissingFile):
		return fmt.Errorf("upload file: %w: missing form field \"file\"", spaces.ErrInvalidInput)
	case errors.Is(err, http.ErrNotMultipart), errors.Is(err, http.ErrMissingBoundary):
		return fmt.Errorf("upload file: %w: request is not multipart/form-data", spaces.ErrInvalidInput)
	default:
		return fmt.Errorf("upload file: %w", err)
	}
}

// contentDisposition builds an attachment header with an RFC 5987 encoded
// filename.
func contentDisposition(filename string) string {
	encoded := strings.ReplaceAll(url.QueryEscape(filename), "+", "%20")
	return "attachment; filename*=UTF-8''" + encoded
}
