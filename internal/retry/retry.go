// Package retry holds the shared transient-failure policy used by the
// feed fetcher and the delivery providers: classify an outcome as
// retryable or permanent, then retry the retryable ones a bounded number
// of times with exponential backoff.
package retry

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"
)

// Policy bounds how often and how fast an operation is retried.
type Policy struct {
	MaxAttempts    int
	InitialBackoff time.Duration
}

// DefaultPolicy mirrors the backoff used for outbound mail: 3 attempts,
// 2s, 4s waits between them.
func DefaultPolicy() Policy {
	return Policy{MaxAttempts: 3, InitialBackoff: 2 * time.Second}
}

// RetryableStatus classifies an HTTP status code. Server errors and rate
// limits are transient; any other 4xx is a permanent misconfiguration.
func RetryableStatus(code int) bool {
	if code >= http.StatusInternalServerError {
		return true
	}
	return code == http.StatusTooManyRequests
}

// RetryableError classifies a transport error. Timeouts and temporary
// network failures are transient; everything else is permanent.
func RetryableError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return netErr.Timeout()
	}
	return false
}

// Do invokes fn until it succeeds, fails permanently, or the attempt
// budget runs out. fn reports whether its error is worth retrying.
func (p Policy) Do(ctx context.Context, fn func(ctx context.Context) (retryable bool, err error)) error {
	attempts := p.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}

	backoff := p.InitialBackoff
	var lastErr error

	for attempt := 1; attempt <= attempts; attempt++ {
		retryable, err := fn(ctx)
		if err == nil {
			return nil
		}
		lastErr = err

		if !retryable || attempt == attempts {
			return lastErr
		}

		timer := time.NewTimer(backoff)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
		backoff *= 2
	}

	return lastErr
}
