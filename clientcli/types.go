package clientcli

import (
	spaces "github.com/shidubei/DigitalOcean-ObjectSpaces"
)

// UploadOptions configures an upload operation.
type UploadOptions struct {
	LocalPath   string
	Folder      string // optional key prefix
	ContentType string // optional, auto-detect if empty
	Recursive   bool
}

// UploadResult represents the result of uploading a single file.
type UploadResult struct {
	LocalPath string               `json:"local_path"`
	File      *spaces.FileMetadata `json:"file,omitempty"`
	Err       error                `json:"-"` // nil on success
}

// DownloadOptions configures a download operation.
type DownloadOptions struct {
	Key       string
	LocalPath string // empty = derive from key, "-" = stdout
}

// DownloadResult represents the result of downloading a file.
type DownloadResult struct {
	Key         string `json:"key"`
	LocalPath   string `json:"local_path"`
	ETag        string `json:"etag"`
	ContentType string `json:"content_type"`
	Size        int64  `json:"size_bytes"`
}

// DeleteOptions configures a delete operation.
type DeleteOptions struct {
	Keys []string
}

// DeleteResult represents the result of deleting a single file.
type DeleteResult struct {
	Key     string `json:"key"`
	Deleted bool   `json:"deleted"`
	Err     error  `json:"-"` // nil on success
}

// ExistsResult is the answer for a single key.
type ExistsResult struct {
	Key    string `json:"key"`
	Exists bool   `json:"exists"`
}

// ListResult contains the files under a prefix.
type ListResult struct {
	Prefix string                `json:"prefix,omitempty"`
	Items  []spaces.FileMetadata `json:"items"`
}

// TotalSize calculates the total size of all items in bytes.
func (r *ListResult) TotalSize() int64 {
	var total int64
	for i := range r.Items {
		total += r.Items[i].Size
	}
	return total
}
