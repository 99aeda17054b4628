package remote

import (
	"fmt"
	"strings"

	"github.com/aws/smithy-go"

	"github.com/input-output-hk/catalyst-forge-libs/objsync/errors"
)

// convertAWSError maps S3 error codes onto the module's sentinels, keeping the
// original error text. notFound is the sentinel a missing key maps to, since
// HEAD responses carry no body to tell a missing key from a missing bucket.
func convertAWSError(err error, notFound error) error {
	if err == nil {
		return nil
	}

	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "NoSuchKey", "NotFound":
			return fmt.Errorf("%w: %v", notFound, err)
		case "NoSuchBucket":
			return fmt.Errorf("%w: %v", errors.ErrBucketNotFound, err)
		case "AccessDenied", "Forbidden", "AllAccessDisabled":
			return fmt.Errorf("%w: %v", errors.ErrAccessDenied, err)
		case "InvalidRange":
			return fmt.Errorf("%w: %v", errors.ErrInvalidRangeFormat, err)
		}
	}

	// Some S3-compatible services only surface the code in the message.
	msg := err.Error()
	switch {
	case strings.Contains(msg, "NoSuchBucket"):
		return fmt.Errorf("%w: %v", errors.ErrBucketNotFound, err)
	case strings.Contains(msg, "NoSuchKey"):
		return fmt.Errorf("%w: %v", notFound, err)
	}

	return err
}
