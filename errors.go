package schnell

import (
	"errors"
	"fmt"
	"net/http"
	"time"
)

// ErrGenerationFailed is wrapped by every error that means the provider did not
// hand back a usable image: transport failures, non-2xx responses and bodies
// that are not images.
var ErrGenerationFailed = errors.New("failed to fetch the image")

// ErrStorageNotConfigured is returned when storage operations are attempted
// without a configured storage backend.
var ErrStorageNotConfigured = errors.New("storage not configured")

// StatusError is returned when the inference endpoint answers with a non-2xx status.
// The response body is not parsed.
type StatusError struct {
	StatusCode int
	Model      string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s: %s returned %d %s",
		ErrGenerationFailed, e.Model, e.StatusCode, http.StatusText(e.StatusCode))
}

func (e *StatusError) Unwrap() error {
	return ErrGenerationFailed
}

// RateLimitError is returned when a rate limit is hit, either locally or by
// the provider (HTTP 429).
type RateLimitError struct {
	RetryAfter time.Duration
	LimitType  string
	Model      string
	Err        error // Underlying error from the provider
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("rate limit exceeded for %s: %s limit, retry after %v",
		e.Model, e.LimitType, e.RetryAfter)
}

func (e *RateLimitError) Unwrap() error {
	return e.Err
}

// IsRateLimitError checks if an error is a RateLimitError.
func IsRateLimitError(err error) bool {
	var rlErr *RateLimitError
	return errors.As(err, &rlErr)
}

// IsGenerationError reports whether err means a generation attempt failed.
func IsGenerationError(err error) bool {
	return errors.Is(err, ErrGenerationFailed) || IsRateLimitError(err)
}

// StatusCode extracts the HTTP status from err, or 0 when err carries none.
func StatusCode(err error) int {
	var stErr *StatusError
	if errors.As(err, &stErr) {
		return stErr.StatusCode
	}
	return 0
}
