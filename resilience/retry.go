package resilience

import (
	"context"
	"math/rand/v2"
	"time"
)

// RetryConfig controls the bounded backoff applied to transient upstream
// failures.
type RetryConfig struct {
	// MaxAttempts is the total number of attempts including the first.
	MaxAttempts int
	// BaseDelay seeds the backoff: attempt n (1-indexed) waits
	// BaseDelay * 2^(n-1) before running, capped at MaxDelay.
	BaseDelay time.Duration
	// MaxDelay bounds any single wait.
	MaxDelay time.Duration
	// JitterFraction spreads each wait by ±fraction to avoid thundering-herd
	// retries across concurrently failing callers.
	JitterFraction float64
}

// DefaultRetryConfig matches the documented defaults: 3 attempts, 250ms base,
// 5s cap, ±20% jitter.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts:    3,
		BaseDelay:      250 * time.Millisecond,
		MaxDelay:       5 * time.Second,
		JitterFraction: 0.2,
	}
}

// Delay computes the wait before retry attempt n (1-indexed: the wait that
// precedes the (n+1)th execution).
func (c RetryConfig) Delay(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	d := c.BaseDelay << (attempt - 1)
	if c.MaxDelay > 0 && (d > c.MaxDelay || d < 0) {
		d = c.MaxDelay
	}
	if c.JitterFraction > 0 && d > 0 {
		span := float64(d) * c.JitterFraction
		d += time.Duration(rand.Float64()*2*span - span)
		if d < 0 {
			d = 0
		}
	}
	return d
}

// sleepFunc waits for d or until ctx is done; injectable for tests.
type sleepFunc func(ctx context.Context, d time.Duration) error

func realSleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
