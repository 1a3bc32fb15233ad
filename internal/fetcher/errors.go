package fetcher

import (
	"errors"
	"fmt"
)

// ErrUnexpectedStatus is matched by every *StatusError.
var ErrUnexpectedStatus = errors.New("unexpected HTTP status")

// ErrBodyTooLarge is returned when a response body exceeds the configured
// maximum size. A truncated page would parse into an incomplete post list.
var ErrBodyTooLarge = errors.New("response body too large")

// StatusError is returned when a page answers with a non-2xx status.
type StatusError struct {
	// URL is the requested page.
	URL string

	// StatusCode is the HTTP status code received.
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s: %d for %s", ErrUnexpectedStatus, e.StatusCode, e.URL)
}

// Is makes errors.Is(err, ErrUnexpectedStatus) succeed.
func (e *StatusError) Is(target error) bool {
	return target == ErrUnexpectedStatus
}
