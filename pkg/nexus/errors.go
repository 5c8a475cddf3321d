package nexus

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when the repository manager answers 404.
	ErrNotFound = errors.New("not found")
	// ErrConflict is returned when a deletion is refused with 409.
	ErrConflict = errors.New("conflict")
	// ErrUpstreamDown is returned while the circuit breaker is open.
	ErrUpstreamDown = errors.New("repository manager unavailable")
)

// HTTPError carries an unexpected response status.
type HTTPError struct {
	Method     string
	URL        string
	StatusCode int
	Body       string
}

func (e *HTTPError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("%s %s: unexpected status %d", e.Method, e.URL, e.StatusCode)
	}
	return fmt.Sprintf("%s %s: unexpected status %d: %s", e.Method, e.URL, e.StatusCode, e.Body)
}

// Retryable reports whether the status is worth retrying.
func (e *HTTPError) Retryable() bool {
	return e.StatusCode == 429 || e.StatusCode >= 500
}
