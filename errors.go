package spaces

import "errors"

var (
	// ErrNotFound is returned when the requested key does not exist in the bucket
	ErrNotFound = errors.New("not found")
	// ErrInvalidInput is returned when input validation fails
	ErrInvalidInput = errors.New("invalid input")
	// ErrStorageFailed is returned when the object store rejects or fails a request
	ErrStorageFailed = errors.New("storage operation failed")
	// ErrSizeLimitExceeded is returned when a request body is larger than allowed
	ErrSizeLimitExceeded = errors.New("size limit exceeded")
)

// IsDomainError reports whether err belongs to the package's error taxonomy.
// Errors outside the taxonomy are treated as unknown failures.
func IsDomainError(err error) bool {
	return errors.Is(err, ErrNotFound) ||
		errors.Is(err, ErrInvalidInput) ||
		errors.Is(err, ErrStorageFailed) ||
		errors.Is(err, ErrSizeLimitExceeded)
}
