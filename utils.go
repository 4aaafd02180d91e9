package spaces

import (
	"mime"
	"path"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
)

const (
	defaultFilename    = "file"
	defaultContentType = "application/octet-stream"
)

// IsValidKey validates that a string is usable as an object key or key prefix.
// It checks that the key:
//   - is not empty, ".", or "/"
//   - is relative (does not start with "/")
//   - does not end with "/"
//   - has no empty, "." or ".." segments
//   - does not contain invalid characters: \ ? #
//   - is valid UTF-8
//   - does not contain null bytes, control characters (< 0x20) or DEL (0x7f)
func IsValidKey(k string) bool {
	if k == "" || k == "/" || k == "." {
		return false
	}

	if k[0] == '/' || strings.HasSuffix(k, "/") {
		return false
	}

	if strings.ContainsAny(k, `\?#`) {
		return false
	}

	if !utf8.ValidString(k) {
		return false
	}

	for seg := range strings.SplitSeq(k, "/") {
		if seg == "" || seg == "." || seg == ".." {
			return false
		}
	}

	for _, r := range k {
		if r < 0x20 || r == 0x7f {
			return false
		}
	}

	return true
}

// SanitizeFilename normalises a client supplied filename so it cannot climb
// out of the key namespace. Backslashes become slashes, "." and ".." segments
// are collapsed and whatever traversal survives at the front is dropped.
func SanitizeFilename(name string) string {
	name = strings.Map(func(r rune) rune {
		switch {
		case r < 0x20 || r == 0x7f:
			return -1
		case r == '\\':
			return '/'
		case r == '?' || r == '#':
			return '_'
		}
		return r
	}, name)

	cleaned := strings.TrimPrefix(path.Clean("/"+name), "/")
	if cleaned == "" {
		return defaultFilename
	}
	return cleaned
}

// NormalizeFolder trims surrounding slashes and whitespace from a folder prefix.
func NormalizeFolder(folder string) string {
	return strings.Trim(strings.TrimSpace(folder), "/")
}

// NewObjectKey builds a collision resistant key: [folder/]<uuid>_<filename>.
// The filename is expected to be sanitized already.
func NewObjectKey(folder, filename string) string {
	name := uuid.New().String() + "_" + filename
	if folder == "" {
		return name
	}
	return folder + "/" + name
}

// FilenameFromKey returns the last path segment of a key.
func FilenameFromKey(key string) string {
	return key[strings.LastIndex(key, "/")+1:]
}

// DetectContentType picks the declared content type, falling back to the
// file extension and finally to application/octet-stream.
func DetectContentType(declared, filename string) string {
	if declared = strings.TrimSpace(declared); declared != "" {
		return declared
	}

	if ct := mime.TypeByExtension(path.Ext(filename)); ct != "" {
		return ct
	}

	return defaultContentType
}
