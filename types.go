package spaces

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"
)

// FileMetadata is a snapshot of an object as reported by the store.
type FileMetadata struct {
	Key          string    `json:"key"`
	Size         int64     `json:"size"`
	LastModified time.Time `json:"lastModified"`
	ETag         string    `json:"eTag"`
	ContentType  string    `json:"contentType,omitempty"`
	PublicURL    string    `json:"publicUrl"`
}

// ObjectInfo is the object description returned by an ObjectStore.
type ObjectInfo struct {
	Key          string
	Size         int64
	LastModified time.Time
	ETag         string
	ContentType  string
}

// ListResult holds a single page of a store listing.
type ListResult struct {
	Objects   []ObjectInfo
	Truncated bool
}

// PutResult is what the store reports after writing an object.
type PutResult struct {
	ETag string
}

// UploadObject describes an incoming file before its key is generated.
type UploadObject struct {
	Filename    string
	ContentType string
	Size        int64
	Folder      string
}

// StorageSettings holds the connection settings of the object store.
// It is built once at startup and never mutated.
type StorageSettings struct {
	AccessKey           string `mapstructure:"access_key" yaml:"access_key" validate:"required"`
	SecretKey           string `mapstructure:"secret_key" yaml:"secret_key" validate:"required"`
	Region              string `mapstructure:"region" yaml:"region" validate:"required"`
	BucketName          string `mapstructure:"bucket_name" yaml:"bucket_name" validate:"required"`
	EndpointURLTemplate string `mapstructure:"endpoint_url_template" yaml:"endpoint_url_template" validate:"required"`
}

// Validate checks that every setting is present and that the endpoint
// resolves to an absolute http(s) URL.
func (s StorageSettings) Validate() error {
	fields := []struct {
		name  string
		value string
	}{
		{"access key", s.AccessKey},
		{"secret key", s.SecretKey},
		{"region", s.Region},
		{"bucket name", s.BucketName},
		{"endpoint url template", s.EndpointURLTemplate},
	}
	for _, f := range fields {
		if strings.TrimSpace(f.value) == "" {
			return fmt.Errorf("validate storage settings: %s cannot be blank", f.name)
		}
	}

	u, err := url.Parse(s.EndpointURL())
	if err != nil {
		return fmt.Errorf("validate storage settings: invalid endpoint: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return errors.New("validate storage settings: endpoint must start with http:// or https://")
	}
	if u.Host == "" {
		return errors.New("validate storage settings: endpoint has no host")
	}

	return nil
}

// EndpointURL resolves the endpoint template with the configured region.
// Both "%s" and "{region}" placeholders are recognised.
func (s StorageSettings) EndpointURL() string {
	endpoint := strings.Replace(s.EndpointURLTemplate, "%s", s.Region, 1)
	endpoint = strings.ReplaceAll(endpoint, "{region}", s.Region)
	return strings.TrimSuffix(endpoint, "/")
}

// PublicBaseURL is the path-style base under which objects are publicly addressed.
func (s StorageSettings) PublicBaseURL() string {
	return s.EndpointURL() + "/" + strings.Trim(s.BucketName, "/")
}
