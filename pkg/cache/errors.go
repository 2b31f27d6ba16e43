package cache

import (
	"errors"
	"fmt"
)

// ErrProviderClosed is returned by Get and Put after the provider has been
// closed. Callers should fall back to producing responses without caching.
var ErrProviderClosed = errors.New("cache provider closed")

// BodyReadError reports a failure to collect a response body during Put.
// The table is left untouched when this is returned.
type BodyReadError struct {
	Err error
}

// Error implements the error interface.
func (e *BodyReadError) Error() string {
	return fmt.Sprintf("read response body: %v", e.Err)
}

// Unwrap implements error unwrapping for errors.Is/As.
func (e *BodyReadError) Unwrap() error {
	return e.Err
}
