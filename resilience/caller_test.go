package resilience

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/digitalsamba/mcp-server-go/breaker"
	"github.com/digitalsamba/mcp-server-go/cache"
	"github.com/digitalsamba/mcp-server-go/dsapi"
	"github.com/digitalsamba/mcp-server-go/ratelimit"
)

func noSleep() Option {
	return withSleep(func(ctx context.Context, d time.Duration) error { return nil })
}

type callerFixture struct {
	caller   *Caller
	store    *cache.Store
	breakers *breaker.Set
	advance  func(time.Duration)
}

func newFixture(t *testing.T, burst int, opts ...Option) *callerFixture {
	t.Helper()
	now := time.Unix(1000, 0)
	clock := func() time.Time { return now }
	advance := func(d time.Duration) { now = now.Add(d) }

	store := cache.New(30*time.Second, 0, cache.WithClock(clock))
	breakers := breaker.NewSet(5, 30*time.Second, breaker.WithClock(clock))
	limiter := ratelimit.NewKeyed(0, burst)

	opts = append([]Option{noSleep()}, opts...)
	return &callerFixture{
		caller:   New(limiter, store, breakers, time.Second, opts...),
		store:    store,
		breakers: breakers,
		advance:  advance,
	}
}

func upstreamErr(status int) error {
	return &dsapi.APIError{Status: status, Method: "GET", Path: "/rooms"}
}

func TestCaller_CacheHitSkipsUpstream(t *testing.T) {
	f := newFixture(t, 100)
	ctx := context.Background()
	call := Call{LimitKey: "k", Fingerprint: "fp", Namespace: "ns"}

	calls := 0
	fn := func(ctx context.Context) (any, error) {
		calls++
		return "fresh", nil
	}

	res, err := f.caller.Do(ctx, call, fn)
	require.NoError(t, err)
	require.Equal(t, "fresh", res.Value)

	res, err = f.caller.Do(ctx, call, fn)
	require.NoError(t, err)
	assert.Equal(t, "fresh", res.Value)
	assert.Equal(t, 1, calls, "second call must be served from cache")
	assert.False(t, res.Stale, "live cache hit must not be marked stale")
}

func TestCaller_MutationInvalidatesNamespace(t *testing.T) {
	f := newFixture(t, 100)
	ctx := context.Background()

	reads := 0
	readCall := Call{LimitKey: "k", Fingerprint: "fp", Namespace: "ns"}
	readFn := func(ctx context.Context) (any, error) {
		reads++
		return reads, nil
	}

	_, err := f.caller.Do(ctx, readCall, readFn)
	require.NoError(t, err)

	// Mutation in the same namespace drops the cached read before returning.
	_, err = f.caller.Do(ctx, Call{LimitKey: "k", Namespace: "ns", Mutation: true}, func(ctx context.Context) (any, error) {
		return "written", nil
	})
	require.NoError(t, err)

	res, err := f.caller.Do(ctx, readCall, readFn)
	require.NoError(t, err)
	assert.Equal(t, 2, reads, "read after mutation must hit upstream")
	assert.Equal(t, 2, res.Value)
}

func TestCaller_MutationOtherNamespaceUntouched(t *testing.T) {
	f := newFixture(t, 100)
	ctx := context.Background()

	reads := 0
	readCall := Call{LimitKey: "k", Fingerprint: "fp", Namespace: "ns-a"}
	readFn := func(ctx context.Context) (any, error) { reads++; return reads, nil }

	_, _ = f.caller.Do(ctx, readCall, readFn)
	_, _ = f.caller.Do(ctx, Call{LimitKey: "k", Namespace: "ns-b", Mutation: true}, func(ctx context.Context) (any, error) { return nil, nil })
	_, _ = f.caller.Do(ctx, readCall, readFn)

	assert.Equal(t, 1, reads, "mutation in another namespace must not invalidate")
}

func TestCaller_RateLimitShortCircuits(t *testing.T) {
	f := newFixture(t, 1)
	ctx := context.Background()

	calls := 0
	fn := func(ctx context.Context) (any, error) { calls++; return nil, nil }

	_, err := f.caller.Do(ctx, Call{LimitKey: "k"}, fn)
	require.NoError(t, err, "first call is within burst")

	_, err = f.caller.Do(ctx, Call{LimitKey: "k"}, fn)
	_, ok := AsRateLimit(err)
	require.True(t, ok, "expected RateLimitError, got %v", err)
	assert.Equal(t, 1, calls, "refused call must not reach upstream")
}

func TestCaller_PermanentErrorNotRetried(t *testing.T) {
	f := newFixture(t, 100)
	ctx := context.Background()

	calls := 0
	_, err := f.caller.Do(ctx, Call{LimitKey: "k"}, func(ctx context.Context) (any, error) {
		calls++
		return nil, upstreamErr(404)
	})
	assert.Equal(t, 1, calls, "permanent 4xx must not be retried")
	assert.Equal(t, 404, dsapi.StatusOf(err), "permanent error must surface unchanged")
}

func TestCaller_TransientErrorRetried(t *testing.T) {
	f := newFixture(t, 100)
	ctx := context.Background()

	calls := 0
	res, err := f.caller.Do(ctx, Call{LimitKey: "k"}, func(ctx context.Context) (any, error) {
		calls++
		if calls < 3 {
			return nil, upstreamErr(503)
		}
		return "recovered", nil
	})
	require.NoError(t, err, "expected recovery within retry budget")
	assert.Equal(t, 3, calls)
	assert.Equal(t, "recovered", res.Value)
}

func TestCaller_RetriesExhausted(t *testing.T) {
	f := newFixture(t, 100)
	ctx := context.Background()

	calls := 0
	_, err := f.caller.Do(ctx, Call{LimitKey: "k"}, func(ctx context.Context) (any, error) {
		calls++
		return nil, upstreamErr(503)
	})
	assert.Equal(t, 3, calls, "default budget is 3 attempts")
	assert.ErrorIs(t, err, ErrUnavailable, "exhausted retries must map to ErrUnavailable")
}

func TestCaller_BreakerOpensAndShortCircuits(t *testing.T) {
	// Threshold 5: five failed upstream calls open the circuit; the sixth
	// request is refused without reaching upstream.
	f := newFixture(t, 1000, WithRetry(RetryConfig{MaxAttempts: 1}))
	ctx := context.Background()

	calls := 0
	fn := func(ctx context.Context) (any, error) {
		calls++
		return nil, upstreamErr(500)
	}

	for i := 0; i < 5; i++ {
		_, err := f.caller.Do(ctx, Call{LimitKey: "k"}, fn)
		require.Error(t, err, "call %d should fail", i+1)
	}
	require.Equal(t, 5, calls)

	_, err := f.caller.Do(ctx, Call{LimitKey: "k"}, fn)
	assert.ErrorIs(t, err, ErrUnavailable, "open circuit must yield ErrUnavailable")
	assert.Equal(t, 5, calls, "open circuit must not reach upstream")
	assert.Equal(t, breaker.StateOpen, f.breakers.For(DefaultDependency).State())
}

func TestCaller_StaleFallbackWhileOpen(t *testing.T) {
	f := newFixture(t, 1000, WithRetry(RetryConfig{MaxAttempts: 1}))
	ctx := context.Background()
	call := Call{LimitKey: "k", Fingerprint: "fp", Namespace: "ns"}

	// Prime the cache with a good value.
	_, err := f.caller.Do(ctx, call, func(ctx context.Context) (any, error) {
		return "last-good", nil
	})
	require.NoError(t, err)

	// Let the entry expire, then trip the breaker.
	f.advance(time.Minute)
	failing := func(ctx context.Context) (any, error) { return nil, upstreamErr(500) }
	for i := 0; i < 5; i++ {
		_, _ = f.caller.Do(ctx, Call{LimitKey: "k"}, failing)
	}

	// With the circuit open, the expired entry is served explicitly stale.
	res, err := f.caller.Do(ctx, call, failing)
	require.NoError(t, err, "expected stale fallback")
	assert.True(t, res.Stale)
	assert.Equal(t, "last-good", res.Value)
	assert.GreaterOrEqual(t, res.Age, time.Minute, "stale age reflects time since store")

	// Without a cached value the open circuit is a hard failure.
	_, err = f.caller.Do(ctx, Call{LimitKey: "k", Fingerprint: "other", Namespace: "ns"}, failing)
	assert.ErrorIs(t, err, ErrUnavailable, "no cached value to degrade to")
}

func TestCaller_RetrySleepHonorsContext(t *testing.T) {
	limiter := ratelimit.NewKeyed(0, 100)
	store := cache.New(time.Second, 0)
	breakers := breaker.NewSet(50, time.Minute)
	caller := New(limiter, store, breakers, time.Second)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	calls := 0
	_, err := caller.Do(ctx, Call{LimitKey: "k"}, func(ctx context.Context) (any, error) {
		calls++
		return nil, upstreamErr(500)
	})
	assert.Equal(t, 1, calls, "canceled context must stop retries")
	assert.ErrorIs(t, err, context.Canceled)
}
