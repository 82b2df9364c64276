package service

import (
	"errors"
	"fmt"
	"time"
)

// Sentinel errors mapped to HTTP statuses at the handler layer.
var (
	// ErrNotFound indicates the referenced job, image, user, or comment
	// does not exist.
	ErrNotFound = errors.New("not found")

	// ErrForbidden indicates the acting user does not own the resource.
	ErrForbidden = errors.New("forbidden")
)

// ValidationError describes malformed or out-of-range input. Surfaced
// synchronously as 400; the job is never created.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

func validationErrorf(format string, args ...interface{}) *ValidationError {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}

// IsValidationError reports whether err is a ValidationError.
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// RateLimitError indicates the caller exhausted the current window's
// request budget. Surfaced synchronously as 429 with the reset time;
// the job is never created.
type RateLimitError struct {
	ResetTime time.Time
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("rate limit exceeded, resets at %s", e.ResetTime.UTC().Format(time.RFC3339))
}

// AsRateLimitError extracts a RateLimitError from err, if any.
func AsRateLimitError(err error) (*RateLimitError, bool) {
	var rle *RateLimitError
	ok := errors.As(err, &rle)
	return rle, ok
}
