// Package metrics exposes prometheus instrumentation for the resilience layer
// and the session registry. A custom registry is used so the process never
// pollutes the default one.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics bundles the collectors. A nil *Metrics is a valid no-op receiver so
// instrumentation call sites need no guards.
type Metrics struct {
	registry *prometheus.Registry

	cacheOps           *prometheus.CounterVec
	rateLimited        prometheus.Counter
	retries            prometheus.Counter
	breakerTransitions *prometheus.CounterVec
	upstreamCalls      *prometheus.CounterVec
}

// New builds the collector set on a fresh registry.
func New() *Metrics {
	m := &Metrics{registry: prometheus.NewRegistry()}

	m.cacheOps = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "mcp_cache_operations_total",
		Help: "Response cache operations by outcome (hit, miss, stale, evict, invalidate).",
	}, []string{"op"})
	m.rateLimited = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "mcp_rate_limited_total",
		Help: "Requests rejected by the outbound rate limiter.",
	})
	m.retries = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "mcp_upstream_retries_total",
		Help: "Retry attempts against the upstream API.",
	})
	m.breakerTransitions = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "mcp_breaker_transitions_total",
		Help: "Circuit breaker state transitions.",
	}, []string{"from", "to"})
	m.upstreamCalls = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "mcp_upstream_calls_total",
		Help: "Upstream API calls by outcome (success, failure).",
	}, []string{"outcome"})

	m.registry.MustRegister(m.cacheOps, m.rateLimited, m.retries, m.breakerTransitions, m.upstreamCalls)
	return m
}

// ObserveSessions registers a gauge backed by the registry's live count.
func (m *Metrics) ObserveSessions(count func() int) {
	if m == nil {
		return
	}
	m.registry.MustRegister(prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "mcp_active_sessions",
		Help: "Number of live MCP sessions.",
	}, func() float64 { return float64(count()) }))
}

// Handler serves the scrape endpoint.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// CacheOp records one cache event.
func (m *Metrics) CacheOp(op string) {
	if m == nil {
		return
	}
	m.cacheOps.WithLabelValues(op).Inc()
}

// RateLimited records one rate-limiter rejection.
func (m *Metrics) RateLimited() {
	if m == nil {
		return
	}
	m.rateLimited.Inc()
}

// Retry records one retry attempt.
func (m *Metrics) Retry() {
	if m == nil {
		return
	}
	m.retries.Inc()
}

// BreakerTransition records one state transition.
func (m *Metrics) BreakerTransition(from, to string) {
	if m == nil {
		return
	}
	m.breakerTransitions.WithLabelValues(from, to).Inc()
}

// UpstreamCall records one call outcome.
func (m *Metrics) UpstreamCall(outcome string) {
	if m == nil {
		return
	}
	m.upstreamCalls.WithLabelValues(outcome).Inc()
}
