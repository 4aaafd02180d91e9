package s3store

import (
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"

	spaces "github.com/shidubei/DigitalOcean-ObjectSpaces"
)

// wrapS3Error maps SDK errors onto the spaces sentinels.
// The original error is formatted with %v, not %w, so callers match on the
// sentinels and never on SDK types.
func wrapS3Error(err error) error {
	var noSuchKey *types.NoSuchKey
	if errors.As(err, &noSuchKey) {
		return fmt.Errorf("%w: %v", spaces.ErrNotFound, err)
	}

	var notFound *types.NotFound
	if errors.As(err, &notFound) {
		return fmt.Errorf("%w: %v", spaces.ErrNotFound, err)
	}

	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "NoSuchKey", "NotFound":
			return fmt.Errorf("%w: %v", spaces.ErrNotFound, err)
		}
	}

	return fmt.Errorf("%w: %v", spaces.ErrStorageFailed, err)
}
