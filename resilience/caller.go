// Package resilience interposes rate limiting, response caching, and circuit
// breaking between every tool/resource handler and the upstream API. The
// pipeline order (limiter, cache, breaker, execute) is fixed here once so
// call sites cannot accidentally reorder it.
package resilience

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/digitalsamba/mcp-server-go/breaker"
	"github.com/digitalsamba/mcp-server-go/cache"
	"github.com/digitalsamba/mcp-server-go/dsapi"
	"github.com/digitalsamba/mcp-server-go/internal/metrics"
	"github.com/digitalsamba/mcp-server-go/ratelimit"
)

// DefaultDependency is the breaker key for the upstream API as a whole.
const DefaultDependency = "digitalsamba-api"

// UpstreamFunc performs one call against the upstream client.
type UpstreamFunc func(ctx context.Context) (any, error)

// Call identifies one outbound invocation to the pipeline.
type Call struct {
	// LimitKey selects the rate-limit bucket: the credential scope, or a
	// client-identifying dimension when no credential is present.
	LimitKey string
	// Fingerprint is the cache key for read-class calls; empty disables
	// caching for this call.
	Fingerprint string
	// Namespace groups cache entries for invalidation. Required whenever
	// Fingerprint is set or Mutation is true.
	Namespace string
	// Dependency selects the circuit breaker; empty uses DefaultDependency.
	Dependency string
	// Mutation marks write-class calls: never cached, and on success every
	// cache entry in Namespace is dropped before the response is returned.
	Mutation bool
}

// Result is the pipeline outcome. Stale marks a value served from the cache
// past its TTL because the circuit was open.
type Result struct {
	Value any
	Stale bool
	Age   time.Duration
}

// Caller is the resilience wrapper. Construct one per process and route every
// upstream call through Do.
type Caller struct {
	limiter  *ratelimit.Keyed
	cache    *cache.Store
	breakers *breaker.Set
	retry    RetryConfig
	timeout  time.Duration

	log     *slog.Logger
	metrics *metrics.Metrics
	sleep   sleepFunc
}

// Option configures the Caller.
type Option func(*Caller)

// WithLogger sets the slog logger. If not provided, logs are discarded.
func WithLogger(l *slog.Logger) Option {
	return func(c *Caller) {
		if l != nil {
			c.log = l
		}
	}
}

// WithMetrics attaches prometheus instrumentation.
func WithMetrics(m *metrics.Metrics) Option {
	return func(c *Caller) { c.metrics = m }
}

// WithRetry overrides the retry configuration.
func WithRetry(cfg RetryConfig) Option {
	return func(c *Caller) { c.retry = cfg }
}

// withSleep overrides the backoff sleeper, for tests.
func withSleep(fn sleepFunc) Option {
	return func(c *Caller) { c.sleep = fn }
}

// New builds a Caller over the injected stateful services. timeout bounds
// each individual upstream attempt.
func New(limiter *ratelimit.Keyed, store *cache.Store, breakers *breaker.Set, timeout time.Duration, opts ...Option) *Caller {
	c := &Caller{
		limiter:  limiter,
		cache:    store,
		breakers: breakers,
		retry:    DefaultRetryConfig(),
		timeout:  timeout,
		log:      slog.New(slog.DiscardHandler),
		sleep:    realSleep,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Do runs fn through the pipeline. Read-class calls may be satisfied from the
// cache without touching the breaker or upstream; mutation-class calls
// invalidate their namespace before returning. Transient failures are retried
// with exponential backoff and jitter; permanent upstream errors surface
// immediately; an open circuit yields a stale cached value when one exists,
// otherwise ErrUnavailable.
func (c *Caller) Do(ctx context.Context, call Call, fn UpstreamFunc) (Result, error) {
	if call.Dependency == "" {
		call.Dependency = DefaultDependency
	}

	// 1. Rate limiter: fail fast with a retry-after hint.
	if ok, retryAfter := c.limiter.Allow(call.LimitKey); !ok {
		c.metrics.RateLimited()
		c.log.InfoContext(ctx, "resilience.rate_limited", slog.Duration("retry_after", retryAfter))
		return Result{}, &RateLimitError{RetryAfter: retryAfter}
	}

	cacheable := !call.Mutation && call.Fingerprint != ""

	// 2. Cache lookup: the primary latency and backpressure relief valve.
	if cacheable {
		if v, ok := c.cache.Get(call.Fingerprint); ok {
			c.metrics.CacheOp("hit")
			return Result{Value: v}, nil
		}
		c.metrics.CacheOp("miss")
	}

	// 3+4. Breaker gate and execution, with bounded retry for transient
	// failures. Retries stop the moment the breaker opens.
	br := c.breakers.For(call.Dependency)
	attempts := c.retry.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if err := br.Allow(); err != nil {
			return c.degrade(ctx, call, cacheable, err)
		}

		v, err := c.execute(ctx, fn)
		if err == nil {
			br.RecordSuccess()
			c.metrics.UpstreamCall("success")
			if cacheable {
				c.cache.Put(call.Fingerprint, call.Namespace, v)
			}
			if call.Mutation && call.Namespace != "" {
				// Invalidation is applied before the mutation's own response
				// is returned: a read issued after this call completes never
				// sees the pre-mutation value.
				n := c.cache.Invalidate(call.Namespace)
				c.metrics.CacheOp("invalidate")
				c.log.DebugContext(ctx, "resilience.cache.invalidate", slog.String("namespace", call.Namespace), slog.Int("entries", n))
			}
			return Result{Value: v}, nil
		}

		br.RecordFailure()
		c.metrics.UpstreamCall("failure")
		lastErr = err

		if !dsapi.IsTransient(err) {
			return Result{}, err
		}
		if attempt == attempts {
			break
		}

		delay := c.retry.Delay(attempt)
		c.metrics.Retry()
		c.log.InfoContext(ctx, "resilience.retry",
			slog.Int("attempt", attempt),
			slog.Duration("delay", delay),
			slog.String("err", err.Error()))
		// The backoff wait honors the inbound context: once the client is
		// gone there is no point in further attempts on its behalf.
		if err := c.sleep(ctx, delay); err != nil {
			return Result{}, err
		}
	}

	return Result{}, fmt.Errorf("%w: %w", ErrUnavailable, lastErr)
}

// execute runs one attempt under the per-call timeout. The timeout context is
// detached from the inbound request's cancellation: a client disconnect must
// not abort a call already issued on its behalf, so the shared cache and
// breaker state stay consistent for other sessions.
func (c *Caller) execute(ctx context.Context, fn UpstreamFunc) (any, error) {
	execCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.timeout)
	defer cancel()
	return fn(execCtx)
}

// degrade handles an open circuit: serve the last known good value beyond its
// TTL when one exists, explicitly marked stale, otherwise fail unavailable.
func (c *Caller) degrade(ctx context.Context, call Call, cacheable bool, cause error) (Result, error) {
	if cacheable {
		if v, age, ok := c.cache.GetStale(call.Fingerprint); ok {
			c.metrics.CacheOp("stale")
			c.log.InfoContext(ctx, "resilience.degraded.stale_hit", slog.Duration("age", age))
			return Result{Value: v, Stale: true, Age: age}, nil
		}
	}
	return Result{}, fmt.Errorf("%w: %w", ErrUnavailable, cause)
}
