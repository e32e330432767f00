package client

import (
	"errors"
	"fmt"
)

// ErrNoToken indicates a call was attempted without an auth token. Guarded
// call sites should check for it before issuing any network request.
var ErrNoToken = errors.New("auth token not set")

// APIError is a non-2xx response from the budget API.
type APIError struct {
	Endpoint   string
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s: http %d: %s", e.Endpoint, e.StatusCode, e.Body)
}

// Retryable reports whether a retry could plausibly succeed. Client errors
// other than timeout and rate limiting are final.
func (e *APIError) Retryable() bool {
	if e.StatusCode >= 500 {
		return true
	}
	return e.StatusCode == 408 || e.StatusCode == 429
}
