package abuselimiter

import (
	"errors"
	"time"
)

var (
	// ErrStoreUnavailable wraps transport failures reaching the store.
	ErrStoreUnavailable = errors.New("abuse limiter: store unavailable")
	// ErrProtocol marks a malformed script reply. This is an internal
	// error and must never surface to end users as-is.
	ErrProtocol = errors.New("abuse limiter: unexpected script reply")
)

// ErrorKind classifies a RateLimitError for callers mapping it to a
// transport-level response.
type ErrorKind string

const (
	KindTooManyAttempts    ErrorKind = "TooManyAttempts"
	KindServiceUnavailable ErrorKind = "ServiceUnavailable"
)

// RateLimitError is the user-facing outcome of Limit when the attempt cannot
// proceed. Context carries the machine-readable payload for API consumers.
type RateLimitError struct {
	Kind       ErrorKind
	Message    string
	RetryAfter time.Duration
	Context    map[string]interface{}

	cause error
}

func (e *RateLimitError) Error() string {
	return e.Message
}

func (e *RateLimitError) Unwrap() error {
	return e.cause
}

// IsTooManyAttempts reports whether err is a rate-limit rejection, as opposed
// to a store failure.
func IsTooManyAttempts(err error) bool {
	var rle *RateLimitError
	return errors.As(err, &rle) && rle.Kind == KindTooManyAttempts
}
