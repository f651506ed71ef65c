package collection

import (
	"errors"
	"fmt"
)

// Common errors returned by the iterator.
var (
	// ErrNotCollection is returned by New when the initial response is
	// not a recognizable paginated collection.
	ErrNotCollection = errors.New("response is not a paginated collection")

	// ErrDone signals that the collection is exhausted. Next keeps
	// returning it indefinitely without any network activity.
	ErrDone = errors.New("no more entries")

	// ErrClosed is returned by Next after Close has been called.
	ErrClosed = errors.New("iterator is closed")
)

// StatusError reports a continuation fetch that returned a non-200
// status. The iterator's state is untouched, so the pull may be retried.
type StatusError struct {
	StatusCode int
	Method     string
	URL        string
}

// Error implements the error interface.
func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status %d fetching next page (%s %s)",
		e.StatusCode, e.Method, e.URL)
}
