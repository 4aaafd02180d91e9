package http

import (
	"errors"
	"net/http"

	spaces "github.com/shidubei/DigitalOcean-ObjectSpaces"
)

const (
	msgSizeLimitExceeded = "file exceeds size limit."
	msgInternalError     = "internal server error"
	msgRouteNotFound     = "route not found"
	msgMethodNotAllowed  = "method not allowed"
)

// translateError maps an error onto the status code and message sent to the
// client. Domain errors expose their message, anything else is hidden behind
// a generic message.
func translateError(err error) (int, string) {
	switch {
	case errors.Is(err, spaces.ErrSizeLimitExceeded):
		return http.StatusBadRequest, msgSizeLimitExceeded
	case spaces.IsDomainError(err):
		return http.StatusInternalServerError, err.Error()
	default:
		return http.StatusInternalServerError, msgInternalError
	}
}
