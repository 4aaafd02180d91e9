// Package s3fake runs a minimal in-memory S3 endpoint for tests.
//
// It understands path-style PutObject, GetObject, HeadObject, DeleteObject,
// ListObjectsV2 and HeadBucket for a single bucket, which is enough to drive
// the aws-sdk-go-v2 client end to end without network access.
package s3fake

import (
	"crypto/md5"
	"encoding/hex"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"
)

// Object is a stored object.
type Object struct {
	Data         []byte
	ContentType  string
	ETag         string
	LastModified time.Time
}

type failure struct {
	status int
	code   string
}

// Server is an in-memory S3 bucket served over HTTP.
type Server struct {
	Bucket string

	srv *httptest.Server

	mu      sync.Mutex
	maxKeys int
	objects map[string]Object
	fail    *failure
	calls   map[string]int
}

// New starts a server hosting bucket. Call Close when done.
func New(bucket string) *Server {
	s := &Server{
		Bucket:  bucket,
		objects: make(map[string]Object),
		calls:   make(map[string]int),
	}
	s.srv = httptest.NewServer(http.HandlerFunc(s.serve))
	return s
}

// URL returns the endpoint of the server.
func (s *Server) URL() string {
	return s.srv.URL
}

// Close shuts the server down.
func (s *Server) Close() {
	s.srv.Close()
}

// Fail makes every following request answer with the given status and S3
// error code until Recover is called.
func (s *Server) Fail(status int, code string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fail = &failure{status: status, code: code}
}

// Recover clears a failure set with Fail.
func (s *Server) Recover() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fail = nil
}

// SetMaxKeys caps a listing page. Zero restores the S3 default of 1000.
func (s *Server) SetMaxKeys(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.maxKeys = n
}

// Put stores an object directly, bypassing HTTP.
func (s *Server) Put(key string, data []byte, contentType string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects[key] = newObject(data, contentType)
}

// Object returns a stored object.
func (s *Server) Object(key string) (Object, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	obj, ok := s.objects[key]
	return obj, ok
}

// Calls returns how many requests of the given S3 operation were served,
// e.g. "PutObject" or "ListObjectsV2".
func (s *Server) Calls(op string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[op]
}

func newObject(data []byte, contentType string) Object {
	sum := md5.Sum(data)
	if contentType == "" {
		contentType = "binary/octet-stream"
	}
	return Object{
		Data:         data,
		ContentType:  contentType,
		ETag:         hex.EncodeToString(sum[:]),
		LastModified: time.Now().UTC().Truncate(time.Second),
	}
}

func (s *Server) serve(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/")
	bucket, key, _ := strings.Cut(path, "/")

	op := operation(r.Method, key, r.URL.Query())

	s.mu.Lock()
	s.calls[op]++
	fail := s.fail
	s.mu.Unlock()

	if fail != nil {
		writeError(w, r, fail.status, fail.code)
		return
	}

	if bucket != s.Bucket {
		writeError(w, r, http.StatusNotFound, "NoSuchBucket")
		return
	}

	switch op {
	case "HeadBucket":
		w.WriteHeader(http.StatusOK)
	case "ListObjectsV2":
		s.list(w, r)
	case "PutObject":
		s.put(w, r, key)
	case "GetObject", "HeadObject":
		s.get(w, r, key)
	case "DeleteObject":
		s.mu.Lock()
		delete(s.objects, key)
		s.mu.Unlock()
		w.WriteHeader(http.StatusNoContent)
	default:
		writeError(w, r, http.StatusNotImplemented, "NotImplemented")
	}
}

func operation(method, key string, q map[string][]string) string {
	if key == "" {
		switch method {
		case http.MethodHead:
			return "HeadBucket"
		case http.MethodGet:
			if _, ok := q["list-type"]; ok {
				return "ListObjectsV2"
			}
		}
		return "Unknown"
	}

	switch method {
	case http.MethodPut:
		return "PutObject"
	case http.MethodGet:
		return "GetObject"
	case http.MethodHead:
		return "HeadObject"
	case http.MethodDelete:
		return "DeleteObject"
	}
	return "Unknown"
}

func (s *Server) put(w http.ResponseWriter, r *http.Request, key string) {
	data, err := io.ReadAll(r.Body)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "IncompleteBody")
		return
	}

	obj := newObject(data, r.Header.Get("Content-Type"))

	s.mu.Lock()
	s.objects[key] = obj
	s.mu.Unlock()

	w.Header().Set("ETag", `"`+obj.ETag+`"`)
	w.WriteHeader(http.StatusOK)
}

func (s *Server) get(w http.ResponseWriter, r *http.Request, key string) {
	s.mu.Lock()
	obj, ok := s.objects[key]
	s.mu.Unlock()

	if !ok {
		writeError(w, r, http.StatusNotFound, "NoSuchKey")
		return
	}

	w.Header().Set("Content-Type", obj.ContentType)
	w.Header().Set("Content-Length", strconv.Itoa(len(obj.Data)))
	w.Header().Set("ETag", `"`+obj.ETag+`"`)
	w.Header().Set("Last-Modified", obj.LastModified.Format(http.TimeFormat))
	w.WriteHeader(http.StatusOK)

	if r.Method == http.MethodGet {
		_, _ = w.Write(obj.Data)
	}
}

type listContent struct {
	Key          string `xml:"Key"`
	LastModified string `xml:"LastModified"`
	ETag         string `xml:"ETag"`
	Size         int    `xml:"Size"`
	StorageClass string `xml:"StorageClass"`
}

type listBucketResult struct {
	XMLName     xml.Name      `xml:"ListBucketResult"`
	Xmlns       string        `xml:"xmlns,attr"`
	Name        string        `xml:"Name"`
	Prefix      string        `xml:"Prefix"`
	KeyCount    int           `xml:"KeyCount"`
	MaxKeys     int           `xml:"MaxKeys"`
	IsTruncated bool          `xml:"IsTruncated"`
	Contents    []listContent `xml:"Contents"`
}

func (s *Server) list(w http.ResponseWriter, r *http.Request) {
	prefix := r.URL.Query().Get("prefix")

	s.mu.Lock()
	maxKeys := s.maxKeys
	if maxKeys <= 0 {
		maxKeys = 1000
	}

	keys := make([]string, 0, len(s.objects))
	for k := range s.objects {
		if strings.HasPrefix(k, prefix) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)

	truncated := len(keys) > maxKeys
	if truncated {
		keys = keys[:maxKeys]
	}

	contents := make([]listContent, 0, len(keys))
	for _, k := range keys {
		obj := s.objects[k]
		contents = append(contents, listContent{
			Key:          k,
			LastModified: obj.LastModified.Format("2006-01-02T15:04:05.000Z"),
			ETag:         `"` + obj.ETag + `"`,
			Size:         len(obj.Data),
			StorageClass: "STANDARD",
		})
	}
	s.mu.Unlock()

	writeXML(w, http.StatusOK, listBucketResult{
		Xmlns:       "http://s3.amazonaws.com/doc/2006-03-01/",
		Name:        s.Bucket,
		Prefix:      prefix,
		KeyCount:    len(contents),
		MaxKeys:     maxKeys,
		IsTruncated: truncated,
		Contents:    contents,
	})
}

type errorResponse struct {
	XMLName   xml.Name `xml:"Error"`
	Code      string   `xml:"Code"`
	Message   string   `xml:"Message"`
	RequestID string   `xml:"RequestId"`
}

func writeError(w http.ResponseWriter, r *http.Request, status int, code string) {
	if r.Method == http.MethodHead {
		w.WriteHeader(status)
		return
	}
	writeXML(w, status, errorResponse{
		Code:      code,
		Message:   fmt.Sprintf("fake s3: %s", code),
		RequestID: "s3fake",
	})
}

func writeXML(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/xml")
	w.WriteHeader(status)
	_, _ = io.WriteString(w, xml.Header)
	_ = xml.NewEncoder(w).Encode(v)
}
