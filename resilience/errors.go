package resilience

import (
	"errors"
	"fmt"
	"time"
)

// ErrUnavailable wraps failures where the upstream could not be reached in a
// healthy state: circuit open, or transient retries exhausted.
var ErrUnavailable = errors.New("upstream service unavailable")

// RateLimitError is returned when the caller's token bucket is empty.
type RateLimitError struct {
	// RetryAfter hints when a token will next be available. Zero means the
	// bucket never refills under the current configuration.
	RetryAfter time.Duration
}

func (e *RateLimitError) Error() string {
	if e.RetryAfter > 0 {
		return fmt.Sprintf("rate limit exceeded, retry after %s", e.RetryAfter)
	}
	return "rate limit exceeded"
}

// AsRateLimit extracts a RateLimitError from err.
func AsRateLimit(err error) (*RateLimitError, bool) {
	var rl *RateLimitError
	if errors.As(err, &rl) {
		return rl, true
	}
	return nil, false
}
