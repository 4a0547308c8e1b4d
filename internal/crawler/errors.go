package crawler

import (
	"errors"
	"fmt"
)

var (
	// ErrNoSeeds is returned when Run is called without any usable seed URL.
	ErrNoSeeds = errors.New("no seed URLs")

	// ErrInvalidThreads is returned when the worker count is below one.
	ErrInvalidThreads = errors.New("threads must be at least 1")

	// ErrInvalidSeed is returned when a seed URL cannot be normalized.
	ErrInvalidSeed = errors.New("invalid seed URL")
)

// FetchStatusError reports a page that was fetched with a non-200 status.
// The page counts as fetched but yields no findings and no links.
type FetchStatusError struct {
	// URL is the requested URL.
	URL string

	// StatusCode is the HTTP status returned by the server.
	StatusCode int
}

// Error implements the error interface.
func (e *FetchStatusError) Error() string {
	return fmt.Sprintf("unexpected status %d for %s", e.StatusCode, e.URL)
}
