package errors

// ErrorCode classifies a failure so callers can decide how to react to it.
// Error codes are string-based for debuggability and natural JSON serialization.
type ErrorCode string

const (
	// CodeInvalidInput indicates the provided input is invalid or malformed.
	// Errors with this code are always raised before any I/O is performed.
	CodeInvalidInput ErrorCode = "INVALID_INPUT"

	// CodeNotFound indicates a requested object, file or bucket does not exist.
	CodeNotFound ErrorCode = "NOT_FOUND"

	// CodeForbidden indicates the caller lacks permission for the operation.
	CodeForbidden ErrorCode = "FORBIDDEN"

	// CodeNetwork indicates a transport or storage backend failure.
	// The core never retries these.
	CodeNetwork ErrorCode = "NETWORK_ERROR"

	// CodeNotImplemented indicates the requested combination is not supported.
	CodeNotImplemented ErrorCode = "NOT_IMPLEMENTED"

	// CodeUnknown indicates an unclassified error.
	CodeUnknown ErrorCode = "UNKNOWN"
)

// String returns the code as a plain string.
func (c ErrorCode) String() string {
	return string(c)
}

// CodeOf classifies err. Explicit codes set on an *Error win; otherwise the
// wrapped sentinel decides. Any other non-nil error is treated as a transport
// failure since it can only have come from a storage backend.
func CodeOf(err error) ErrorCode {
	if err == nil {
		return ""
	}

	var e *Error
	if As(err, &e) && e.Code != "" {
		return e.Code
	}

	switch {
	case IsValidation(err):
		return CodeInvalidInput
	case IsNotFound(err):
		return CodeNotFound
	case Is(err, ErrAccessDenied):
		return CodeForbidden
	case Is(err, ErrNotImplemented):
		return CodeNotImplemented
	default:
		return CodeNetwork
	}
}
