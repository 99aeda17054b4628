// Package errors provides the error types shared by every objsync operation.
//
// Failures fall into three families: validation errors raised before any I/O,
// not-found errors that abort a batch, and transport errors surfaced from a
// storage backend unchanged. Use CodeOf to classify an arbitrary error.
package errors

import (
	"errors"
	"fmt"
)

// Error represents an operation error with context about the location involved.
type Error struct {
	// Op is the operation that failed (e.g., "copy", "list", "uploadPart")
	Op string

	// Bucket is the remote container name (if applicable)
	Bucket string

	// Key is the object key or local path (if applicable)
	Key string

	// Code optionally overrides the classification derived from Err
	Code ErrorCode

	// Err is the underlying error from the AWS SDK, the filesystem or a sentinel
	Err error
}

// Error implements the error interface by providing a formatted error message.
func (e *Error) Error() string {
	if e.Bucket != "" && e.Key != "" {
		return fmt.Sprintf("objsync.%s s3://%s/%s: %v", e.Op, e.Bucket, e.Key, e.Err)
	}
	if e.Bucket != "" {
		return fmt.Sprintf("objsync.%s bucket %s: %v", e.Op, e.Bucket, e.Err)
	}
	if e.Key != "" {
		return fmt.Sprintf("objsync.%s %s: %v", e.Op, e.Key, e.Err)
	}
	return fmt.Sprintf("objsync.%s: %v", e.Op, e.Err)
}

// Unwrap returns the underlying error for error chaining support.
func (e *Error) Unwrap() error {
	return e.Err
}

// WithBucket adds bucket context to an existing error.
func (e *Error) WithBucket(bucket string) *Error {
	e.Bucket = bucket
	return e
}

// WithKey adds object key or path context to an existing error.
func (e *Error) WithKey(key string) *Error {
	e.Key = key
	return e
}

// WithCode pins the classification of the error.
func (e *Error) WithCode(code ErrorCode) *Error {
	e.Code = code
	return e
}

// WithMessage wraps the underlying error with a custom message.
func (e *Error) WithMessage(message string) *Error {
	e.Err = fmt.Errorf("%s: %w", message, e.Err)
	return e
}

// NewError creates a new Error with the given operation and underlying error.
func NewError(op string, err error) *Error {
	return &Error{
		Op:  op,
		Err: err,
	}
}

// NewBucketError creates a new Error with bucket context.
func NewBucketError(op, bucket string, err error) *Error {
	return &Error{
		Op:     op,
		Bucket: bucket,
		Err:    err,
	}
}

// NewObjectError creates a new Error with bucket and key context.
func NewObjectError(op, bucket, key string, err error) *Error {
	return &Error{
		Op:     op,
		Bucket: bucket,
		Key:    key,
		Err:    err,
	}
}

// Sentinel errors. These can be used with errors.Is() for error checking.
var (
	// ErrInvalidInput indicates that the provided input is invalid
	ErrInvalidInput = errors.New("objsync: invalid input")

	// ErrInvalidLocation indicates a malformed s3:// location (e.g. empty bucket)
	ErrInvalidLocation = errors.New("objsync: invalid location")

	// ErrInvalidPattern indicates a malformed include or exclude glob
	ErrInvalidPattern = errors.New("objsync: invalid pattern")

	// ErrInvalidRangeFormat indicates a byte range that cannot be parsed
	ErrInvalidRangeFormat = errors.New("objsync: invalid range format")

	// ErrConflictingRangeOptions indicates a range string combined with offset or length
	ErrConflictingRangeOptions = errors.New("objsync: range cannot be combined with offset or length")

	// ErrInvalidChecksumOption indicates an unsupported checksum mode or algorithm
	ErrInvalidChecksumOption = errors.New("objsync: invalid checksum option")

	// ErrObjectNotFound indicates that the requested object or file does not exist
	ErrObjectNotFound = errors.New("objsync: object not found")

	// ErrBucketNotFound indicates that the requested bucket does not exist
	ErrBucketNotFound = errors.New("objsync: bucket not found")

	// ErrAccessDenied indicates that access to the resource is denied
	ErrAccessDenied = errors.New("objsync: access denied")

	// ErrNotImplemented indicates that the requested source/destination combination is not supported
	ErrNotImplemented = errors.New("objsync: not implemented")
)

var validationErrors = []error{
	ErrInvalidInput,
	ErrInvalidLocation,
	ErrInvalidPattern,
	ErrInvalidRangeFormat,
	ErrConflictingRangeOptions,
	ErrInvalidChecksumOption,
}

// IsValidation reports whether err is one of the validation failures.
func IsValidation(err error) bool {
	for _, target := range validationErrors {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// IsNotFound reports whether err indicates a missing object, file or bucket.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrObjectNotFound) || errors.Is(err, ErrBucketNotFound)
}

// IsObjectNotFound checks if an error indicates that an object was not found.
func IsObjectNotFound(err error) bool {
	return errors.Is(err, ErrObjectNotFound)
}

// IsBucketNotFound checks if an error indicates that a bucket was not found.
func IsBucketNotFound(err error) bool {
	return errors.Is(err, ErrBucketNotFound)
}

// Is mirrors the standard library so callers need a single errors import.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As mirrors the standard library so callers need a single errors import.
func As(err error, target any) bool {
	return errors.As(err, target)
}

// New mirrors the standard library so callers need a single errors import.
func New(text string) error {
	return errors.New(text)
}
