// Package ratelimit provides a keyed token-bucket limiter for outbound calls,
// one bucket per credential scope. Refill is computed lazily from elapsed time
// inside golang.org/x/time/rate; no background timers run for idle keys.
package ratelimit

import (
	"math"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Keyed maintains one token bucket per key. Buckets are created on first use
// and never destroyed; cardinality is bounded by distinct credentials.
type Keyed struct {
	limit rate.Limit
	burst int

	limiters sync.Map // key -> *rate.Limiter
}

// NewKeyed builds a limiter allowing perMinute requests per minute with the
// given burst capacity per key. perMinute == 0 means no refill: only the
// initial burst is ever available. burst <= 0 defaults to perMinute/10,
// minimum 1.
func NewKeyed(perMinute, burst int) *Keyed {
	if burst <= 0 {
		burst = perMinute / 10
		if burst < 1 {
			burst = 1
		}
	}
	limit := rate.Limit(0)
	if perMinute > 0 {
		limit = rate.Limit(float64(perMinute) / 60.0)
	}
	return &Keyed{limit: limit, burst: burst}
}

// Allow consumes one token from the key's bucket if available. On refusal it
// returns the wait until a token would be available; a zero retryAfter with
// ok == false means the bucket never refills.
func (k *Keyed) Allow(key string) (ok bool, retryAfter time.Duration) {
	return k.allowAt(time.Now(), key)
}

func (k *Keyed) allowAt(now time.Time, key string) (bool, time.Duration) {
	lim := k.limiterFor(key)
	if lim.AllowN(now, 1) {
		return true, 0
	}
	if k.limit == 0 {
		return false, 0
	}
	// One token refills in 1/limit seconds; the hint need not account for
	// competing callers, it only bounds the earliest useful retry.
	return false, time.Duration(math.Ceil(1.0/float64(k.limit))) * time.Second
}

func (k *Keyed) limiterFor(key string) *rate.Limiter {
	if v, ok := k.limiters.Load(key); ok {
		return v.(*rate.Limiter)
	}
	v, _ := k.limiters.LoadOrStore(key, rate.NewLimiter(k.limit, k.burst))
	return v.(*rate.Limiter)
}

// Keys reports the number of live buckets.
func (k *Keyed) Keys() int {
	n := 0
	k.limiters.Range(func(_, _ any) bool {
		n++
		return true
	})
	return n
}
