package clientcli_test

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	spaces "github.com/shidubei/DigitalOcean-ObjectSpaces"
	"github.com/shidubei/DigitalOcean-ObjectSpaces/clientcli"
	spaceshttp "github.com/shidubei/DigitalOcean-ObjectSpaces/http"
	"github.com/shidubei/DigitalOcean-ObjectSpaces/internal/s3fake"
	"github.com/shidubei/DigitalOcean-ObjectSpaces/s3store"
)

// newTestServer runs the REST API over an in-memory bucket and returns a
// client pointed at it.
func newTestServer(t *testing.T, maxUploadSize int64) (*clientcli.Client, *s3fake.Server) {
	t.Helper()

	fake := s3fake.New("cli-bucket")
	t.Cleanup(fake.Close)

	settings := spaces.StorageSettings{
		AccessKey:           "test-access-key",
		SecretKey:           "test-secret-key",
		Region:              "nyc3",
		BucketName:          "cli-bucket",
		EndpointURLTemplate: fake.URL(),
	}

	store, err := s3store.New(settings, s3store.WithRetryer(aws.NopRetryer{}))
	require.NoError(t, err)

	service, err := spaces.NewSpacesService(store, settings)
	require.NoError(t, err)

	handler := spaceshttp.NewHandler(&spaceshttp.HandlerConfig{
		BasePath:      "/api/v1/spaces",
		MaxUploadSize: maxUploadSize,
	}, service)

	server := httptest.NewServer(handler.Router())
	t.Cleanup(server.Close)

	client, err := clientcli.New(&clientcli.Config{Endpoint: server.URL + "/api/v1/spaces/"})
	require.NoError(t, err)

	return client, fake
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o750))
	require.NoError(t, os.WriteFile(p, []byte(content), 0o600))
	return p
}

func TestNew(t *testing.T) {
	t.Run("valid config", func(t *testing.T) {
		client, err := clientcli.New(&clientcli.Config{Endpoint: "http://localhost:8080/api/v1/spaces"})
		require.NoError(t, err)
		assert.Equal(t, "http://localhost:8080/api/v1/spaces", client.Endpoint())
	})

	t.Run("empty endpoint uses default", func(t *testing.T) {
		client, err := clientcli.New(&clientcli.Config{})
		require.NoError(t, err)
		assert.Equal(t, clientcli.DefaultEndpoint, client.Endpoint())
	})

	t.Run("trailing slash removed", func(t *testing.T) {
		client, err := clientcli.New(&clientcli.Config{Endpoint: "http://localhost:8080/api/v1/spaces/"})
		require.NoError(t, err)
		assert.Equal(t, "http://localhost:8080/api/v1/spaces", client.Endpoint())
	})

	t.Run("nil config", func(t *testing.T) {
		_, err := clientcli.New(nil)
		assert.ErrorIs(t, err, clientcli.ErrConfigRequired)
	})

	t.Run("invalid endpoint", func(t *testing.T) {
		_, err := clientcli.New(&clientcli.Config{Endpoint: "localhost:8080"})
		assert.ErrorIs(t, err, clientcli.ErrInvalidEndpoint)
	})
}

func TestClient_Health(t *testing.T) {
	client, fake := newTestServer(t, 0)

	assert.NoError(t, client.Health(context.Background()))

	fake.Fail(http.StatusForbidden, "AccessDenied")
	err := client.Health(context.Background())
	assert.ErrorIs(t, err, clientcli.ErrUnavailable)
	assert.Contains(t, err.Error(), "storage unavailable")
}

func TestClient_Upload(t *testing.T) {
	t.Run("single file with folder", func(t *testing.T) {
		client, fake := newTestServer(t, 0)
		local := writeFile(t, t.TempDir(), "notes.txt", "meeting notes")

		results, err := client.Upload(context.Background(), clientcli.UploadOptions{
			LocalPath: local,
			Folder:    "docs",
		})
		require.NoError(t, err)
		require.Len(t, results, 1)
		require.NoError(t, results[0].Err)

		meta := results[0].File
		require.NotNil(t, meta)
		assert.Regexp(t, `^docs/[0-9a-f-]{36}_notes\.txt$`, meta.Key)
		assert.Equal(t, int64(len("meeting notes")), meta.Size)
		assert.NotEmpty(t, meta.ETag)

		obj, ok := fake.Object(meta.Key)
		require.True(t, ok)
		assert.Equal(t, "meeting notes", string(obj.Data))
		assert.Equal(t, "text/plain; charset=utf-8", obj.ContentType)
	})

	t.Run("explicit content type", func(t *testing.T) {
		client, fake := newTestServer(t, 0)
		local := writeFile(t, t.TempDir(), "data.bin", "{}")

		results, err := client.Upload(context.Background(), clientcli.UploadOptions{
			LocalPath:   local,
			ContentType: "application/json",
		})
		require.NoError(t, err)

		obj, ok := fake.Object(results[0].File.Key)
		require.True(t, ok)
		assert.Equal(t, "application/json", obj.ContentType)
	})

	t.Run("filename with quotes", func(t *testing.T) {
		client, _ := newTestServer(t, 0)
		local := writeFile(t, t.TempDir(), `say "hi".txt`, "hi")

		results, err := client.Upload(context.Background(), clientcli.UploadOptions{LocalPath: local})
		require.NoError(t, err)
		assert.True(t, strings.HasSuffix(results[0].File.Key, `_say "hi".txt`), results[0].File.Key)
	})

	t.Run("recursive keeps directories as folders", func(t *testing.T) {
		client, fake := newTestServer(t, 0)
		dir := t.TempDir()
		writeFile(t, dir, "a.txt", "a")
		writeFile(t, dir, filepath.Join("sub", "b.txt"), "b")

		results, err := client.Upload(context.Background(), clientcli.UploadOptions{
			LocalPath: dir,
			Folder:    "backup",
			Recursive: true,
		})
		require.NoError(t, err)
		require.Len(t, results, 2)
		assert.False(t, clientcli.HasUploadErrors(results))

		assert.Regexp(t, `^backup/[0-9a-f-]{36}_a\.txt$`, results[0].File.Key)
		assert.Regexp(t, `^backup/sub/[0-9a-f-]{36}_b\.txt$`, results[1].File.Key)
		assert.Equal(t, 2, fake.Calls("PutObject"))
	})

	t.Run("directory without recursive", func(t *testing.T) {
		client, _ := newTestServer(t, 0)

		_, err := client.Upload(context.Background(), clientcli.UploadOptions{LocalPath: t.TempDir()})
		assert.ErrorContains(t, err, "use --recursive")
	})

	t.Run("empty file rejected", func(t *testing.T) {
		client, fake := newTestServer(t, 0)
		local := writeFile(t, t.TempDir(), "empty.txt", "")

		_, err := client.Upload(context.Background(), clientcli.UploadOptions{LocalPath: local})
		assert.ErrorIs(t, err, clientcli.ErrServerError)
		assert.ErrorContains(t, err, "invalid input")
		assert.Equal(t, 0, fake.Calls("PutObject"))
	})

	t.Run("size limit", func(t *testing.T) {
		client, fake := newTestServer(t, 512)
		local := writeFile(t, t.TempDir(), "big.txt", strings.Repeat("x", 4096))

		_, err := client.Upload(context.Background(), clientcli.UploadOptions{LocalPath: local})
		require.Error(t, err)
		assert.ErrorIs(t, err, clientcli.ErrBadRequest)
		assert.Contains(t, err.Error(), "file exceeds size limit.")
		assert.Equal(t, 0, fake.Calls("PutObject"))
	})

	t.Run("storage failure", func(t *testing.T) {
		client, fake := newTestServer(t, 0)
		local := writeFile(t, t.TempDir(), "notes.txt", "notes")
		fake.Fail(http.StatusForbidden, "AccessDenied")

		_, err := client.Upload(context.Background(), clientcli.UploadOptions{LocalPath: local})
		assert.ErrorIs(t, err, clientcli.ErrServerError)
	})

	t.Run("missing local file", func(t *testing.T) {
		client, _ := newTestServer(t, 0)

		_, err := client.Upload(context.Background(), clientcli.UploadOptions{LocalPath: "/nonexistent/file.txt"})
		assert.ErrorIs(t, err, os.ErrNotExist)
	})

	t.Run("empty local path", func(t *testing.T) {
		client, _ := newTestServer(t, 0)

		_, err := client.Upload(context.Background(), clientcli.UploadOptions{})
		assert.ErrorIs(t, err, clientcli.ErrNoPaths)
	})
}

func TestClient_Download(t *testing.T) {
	key := "reports/0b3f8a5e-0000-4000-8000-000000000000_q1 report.pdf"

	t.Run("to file", func(t *testing.T) {
		client, fake := newTestServer(t, 0)
		fake.Put(key, []byte("%PDF-1.7"), "application/pdf")
		dest := filepath.Join(t.TempDir(), "out", "q1.pdf")

		result, body, err := client.Download(context.Background(), clientcli.DownloadOptions{Key: key, LocalPath: dest})
		require.NoError(t, err)
		assert.Nil(t, body)

		obj, _ := fake.Object(key)
		assert.Equal(t, dest, result.LocalPath)
		assert.Equal(t, int64(8), result.Size)
		assert.Equal(t, "application/pdf", result.ContentType)
		assert.Equal(t, obj.ETag, result.ETag)

		got, err := os.ReadFile(dest)
		require.NoError(t, err)
		assert.Equal(t, "%PDF-1.7", string(got))
	})

	t.Run("default local path is the key filename", func(t *testing.T) {
		client, fake := newTestServer(t, 0)
		fake.Put(key, []byte("%PDF-1.7"), "application/pdf")
		t.Chdir(t.TempDir())

		result, _, err := client.Download(context.Background(), clientcli.DownloadOptions{Key: key})
		require.NoError(t, err)
		assert.Equal(t, "0b3f8a5e-0000-4000-8000-000000000000_q1 report.pdf", result.LocalPath)

		_, err = os.Stat(result.LocalPath)
		assert.NoError(t, err)
	})

	t.Run("to stdout", func(t *testing.T) {
		client, fake := newTestServer(t, 0)
		fake.Put(key, []byte("%PDF-1.7"), "application/pdf")

		result, body, err := client.Download(context.Background(), clientcli.DownloadOptions{Key: key, LocalPath: "-"})
		require.NoError(t, err)
		require.NotNil(t, body)
		defer func() { _ = body.Close() }()

		got, err := io.ReadAll(body)
		require.NoError(t, err)
		assert.Equal(t, "%PDF-1.7", string(got))
		assert.Equal(t, "-", result.LocalPath)
	})

	t.Run("not found", func(t *testing.T) {
		client, _ := newTestServer(t, 0)

		_, _, err := client.Download(context.Background(), clientcli.DownloadOptions{Key: "missing.txt", LocalPath: "-"})
		assert.ErrorIs(t, err, clientcli.ErrServerError)
		assert.ErrorContains(t, err, "not found")

		// missing objects surface as storage failures, not route misses
		var apiErr *clientcli.APIError
		require.ErrorAs(t, err, &apiErr)
		assert.False(t, apiErr.IsNotFound())
	})

	t.Run("empty key", func(t *testing.T) {
		client, _ := newTestServer(t, 0)

		_, _, err := client.Download(context.Background(), clientcli.DownloadOptions{})
		assert.ErrorIs(t, err, clientcli.ErrEmptyKey)
	})
}

func TestClient_Stat(t *testing.T) {
	client, fake := newTestServer(t, 0)
	fake.Put("img/100% cat.png", []byte("png"), "image/png")

	meta, err := client.Stat(context.Background(), "img/100% cat.png")
	require.NoError(t, err)
	assert.Equal(t, "img/100% cat.png", meta.Key)
	assert.Equal(t, int64(3), meta.Size)
	assert.Equal(t, "image/png", meta.ContentType)
	assert.False(t, meta.LastModified.IsZero())
	assert.True(t, strings.HasSuffix(meta.PublicURL, "/cli-bucket/img/100%25%20cat.png"), meta.PublicURL)

	_, err = client.Stat(context.Background(), "img/missing.png")
	assert.ErrorIs(t, err, clientcli.ErrServerError)
	assert.ErrorContains(t, err, "not found")
}

func TestClient_List(t *testing.T) {
	client, fake := newTestServer(t, 0)
	fake.Put("docs/a.txt", []byte("aa"), "text/plain")
	fake.Put("docs/b.txt", []byte("bbb"), "text/plain")
	fake.Put("img/c.png", []byte("c"), "image/png")

	t.Run("all", func(t *testing.T) {
		result, err := client.List(context.Background(), "")
		require.NoError(t, err)
		require.Len(t, result.Items, 3)
		assert.Equal(t, int64(6), result.TotalSize())
	})

	t.Run("prefix", func(t *testing.T) {
		result, err := client.List(context.Background(), "docs/")
		require.NoError(t, err)
		require.Len(t, result.Items, 2)
		assert.Equal(t, "docs/a.txt", result.Items[0].Key)
		assert.Equal(t, "docs/b.txt", result.Items[1].Key)
		assert.Equal(t, "docs/", result.Prefix)
	})

	t.Run("empty", func(t *testing.T) {
		result, err := client.List(context.Background(), "nothing/")
		require.NoError(t, err)
		assert.NotNil(t, result.Items)
		assert.Empty(t, result.Items)
	})
}

func TestClient_Exists(t *testing.T) {
	client, fake := newTestServer(t, 0)
	fake.Put("here.txt", []byte("x"), "text/plain")

	exists, err := client.Exists(context.Background(), "here.txt")
	require.NoError(t, err)
	assert.True(t, exists)

	exists, err = client.Exists(context.Background(), "gone.txt")
	require.NoError(t, err)
	assert.False(t, exists)

	fake.Fail(http.StatusInternalServerError, "InternalError")
	_, err = client.Exists(context.Background(), "here.txt")
	assert.ErrorIs(t, err, clientcli.ErrServerError)
}

func TestClient_Delete(t *testing.T) {
	t.Run("multiple keys", func(t *testing.T) {
		client, fake := newTestServer(t, 0)
		fake.Put("a.txt", []byte("a"), "text/plain")
		fake.Put("nested/b.txt", []byte("b"), "text/plain")

		results, err := client.Delete(context.Background(), clientcli.DeleteOptions{
			Keys: []string{"a.txt", "nested/b.txt", "never-existed.txt"},
		})
		require.NoError(t, err)
		require.Len(t, results, 3)
		assert.False(t, clientcli.HasDeleteErrors(results))
		for i, key := range []string{"a.txt", "nested/b.txt", "never-existed.txt"} {
			assert.Equal(t, key, results[i].Key, "results keep input order")
			assert.True(t, results[i].Deleted, key)
		}

		_, ok := fake.Object("nested/b.txt")
		assert.False(t, ok)
	})

	t.Run("storage failure reported per key", func(t *testing.T) {
		client, fake := newTestServer(t, 0)
		fake.Fail(http.StatusForbidden, "AccessDenied")

		results, err := client.Delete(context.Background(), clientcli.DeleteOptions{Keys: []string{"a.txt"}})
		require.NoError(t, err)
		require.Len(t, results, 1)
		assert.False(t, results[0].Deleted)
		assert.True(t, clientcli.HasDeleteErrors(results))

		// the server answers 200 with success=false
		var apiErr *clientcli.APIError
		require.ErrorAs(t, results[0].Err, &apiErr)
		assert.Equal(t, http.StatusOK, apiErr.StatusCode)
		assert.Equal(t, "file delete failed", apiErr.Message)
	})

	t.Run("no keys", func(t *testing.T) {
		client, _ := newTestServer(t, 0)

		_, err := client.Delete(context.Background(), clientcli.DeleteOptions{})
		assert.ErrorIs(t, err, clientcli.ErrNoPaths)
	})

	t.Run("cancelled context", func(t *testing.T) {
		client, _ := newTestServer(t, 0)
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		results, err := client.Delete(ctx, clientcli.DeleteOptions{Keys: []string{"a.txt"}})
		assert.ErrorIs(t, err, context.Canceled)
		assert.Empty(t, results)
	})
}

func TestClient_UnexpectedResponses(t *testing.T) {
	t.Run("non json error page", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			http.Error(w, "bad gateway", http.StatusBadGateway)
		}))
		defer server.Close()

		client, err := clientcli.New(&clientcli.Config{Endpoint: server.URL})
		require.NoError(t, err)

		_, err = client.Stat(context.Background(), "a.txt")
		var apiErr *clientcli.APIError
		require.ErrorAs(t, err, &apiErr)
		assert.Equal(t, http.StatusBadGateway, apiErr.StatusCode)
		assert.Equal(t, "bad gateway", apiErr.Message)
	})

	t.Run("malformed success body", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			_, _ = io.WriteString(w, "not json")
		}))
		defer server.Close()

		client, err := clientcli.New(&clientcli.Config{Endpoint: server.URL})
		require.NoError(t, err)

		_, err = client.Exists(context.Background(), "a.txt")
		assert.ErrorIs(t, err, clientcli.ErrMalformedPayload)
	})

	t.Run("key segments are escaped", func(t *testing.T) {
		var gotPath string
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gotPath = r.URL.EscapedPath()
			_, _ = io.WriteString(w, `{"success":true,"message":"file exists","data":true,"timestamp":"2026-01-02T03:04:05Z"}`)
		}))
		defer server.Close()

		client, err := clientcli.New(&clientcli.Config{Endpoint: server.URL + "/api"})
		require.NoError(t, err)

		exists, err := client.Exists(context.Background(), "my docs/a?b#c.txt")
		require.NoError(t, err)
		assert.True(t, exists)
		assert.Equal(t, "/api/exists/my%20docs/a%3Fb%23c.txt", gotPath)
	})
}

func TestAPIError(t *testing.T) {
	err := &clientcli.APIError{StatusCode: http.StatusNotFound, Message: "route not found"}
	assert.Equal(t, "server error: 404 - route not found", err.Error())
	assert.ErrorIs(t, err, clientcli.ErrNotFound)
	assert.NotErrorIs(t, err, clientcli.ErrServerError)
	assert.True(t, err.IsNotFound())

	assert.Equal(t, "server error: 500", (&clientcli.APIError{StatusCode: 500}).Error())
}

func TestHasUploadErrors(t *testing.T) {
	assert.False(t, clientcli.HasUploadErrors(nil))
	assert.True(t, clientcli.HasUploadErrors([]clientcli.UploadResult{
		{LocalPath: "a.txt", File: &spaces.FileMetadata{Key: "a"}},
		{LocalPath: "b.txt", Err: assert.AnError},
	}))
}
