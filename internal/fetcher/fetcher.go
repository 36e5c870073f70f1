// Package fetcher downloads provider payloads over HTTP with rate-limiter
// admission, bounded retry, and provider error classification.
package fetcher

import (
	"context"
	"errors"
)

// ErrNotFound reports that the provider has no data for the requested
// resource (HTTP 404). Missing company data is a valid, non-fatal
// outcome, not a failure.
var ErrNotFound = errors.New("fetcher: not found")

// Client fetches a URL and returns the response body.
type Client interface {
	Get(ctx context.Context, url string) ([]byte, error)
}

// IsNotFound reports whether err means the resource does not exist.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
