package client

import (
	"context"
	"errors"
	"time"
)

// RetryPolicy bounds automatic retries of failed API calls. The zero value
// and MaxAttempts of 1 both mean a single attempt with no retry, which is
// the default: resilience beyond that is opt-in configuration.
type RetryPolicy struct {
	MaxAttempts int
	BaseBackoff time.Duration
	MaxBackoff  time.Duration
}

// attempts normalizes MaxAttempts so the zero value behaves like 1.
func (p RetryPolicy) attempts() int {
	if p.MaxAttempts < 1 {
		return 1
	}
	return p.MaxAttempts
}

// backoff returns the delay before the given retry (1-based), doubling from
// BaseBackoff and capped at MaxBackoff.
func (p RetryPolicy) backoff(retry int) time.Duration {
	d := p.BaseBackoff
	if d <= 0 {
		d = 100 * time.Millisecond
	}
	for i := 1; i < retry; i++ {
		d *= 2
		if p.MaxBackoff > 0 && d >= p.MaxBackoff {
			return p.MaxBackoff
		}
	}
	if p.MaxBackoff > 0 && d > p.MaxBackoff {
		d = p.MaxBackoff
	}
	return d
}

// retryable reports whether err is worth retrying. Guard failures and
// non-retryable API errors are final.
func retryable(err error) bool {
	if errors.Is(err, ErrNoToken) || errors.Is(err, context.Canceled) {
		return false
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Retryable()
	}
	// Transport-level failures (connection refused, timeouts) are retryable.
	return true
}

// sleep waits for d or until ctx is done, whichever comes first.
func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
