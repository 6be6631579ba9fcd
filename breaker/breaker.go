// Package breaker implements the circuit-breaker state machine that isolates
// the upstream API when it is unhealthy: CLOSED counts consecutive failures,
// OPEN rejects immediately until the reset timeout elapses, HALF_OPEN lets a
// single probe through to test recovery.
package breaker

import (
	"errors"
	"sync"
	"time"
)

// ErrOpen is returned by Allow while the circuit is rejecting calls.
var ErrOpen = errors.New("circuit open")

// State is the breaker position.
type State int32

const (
	StateClosed State = iota
	StateOpen
	StateHalfOpen
)

func (s State) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateOpen:
		return "open"
	case StateHalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

// Breaker is one circuit for one dependency key. Created at process start and
// never destroyed, only reset by recovery.
type Breaker struct {
	mu sync.Mutex

	failureThreshold int
	resetTimeout     time.Duration

	state    State
	failures int
	openedAt time.Time
	probing  bool

	now          func() time.Time
	onTransition func(from, to State)
}

// Option configures a Breaker.
type Option func(*Breaker)

// WithClock overrides the time source, for tests.
func WithClock(now func() time.Time) Option {
	return func(b *Breaker) { b.now = now }
}

// WithTransitionHook registers an observer for state transitions.
func WithTransitionHook(fn func(from, to State)) Option {
	return func(b *Breaker) { b.onTransition = fn }
}

// New builds a closed Breaker that opens after failureThreshold consecutive
// failures and probes again resetTimeout after opening.
func New(failureThreshold int, resetTimeout time.Duration, opts ...Option) *Breaker {
	b := &Breaker{
		failureThreshold: failureThreshold,
		resetTimeout:     resetTimeout,
		now:              time.Now,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

func (b *Breaker) transition(to State) {
	from := b.state
	if from == to {
		return
	}
	b.state = to
	if b.onTransition != nil {
		b.onTransition(from, to)
	}
}

// Allow reports whether a call may proceed. While HALF_OPEN, exactly one
// concurrent probe is admitted; additional callers see ErrOpen until the
// probe's outcome is recorded.
func (b *Breaker) Allow() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case StateClosed:
		return nil
	case StateOpen:
		if b.now().Sub(b.openedAt) < b.resetTimeout {
			return ErrOpen
		}
		b.transition(StateHalfOpen)
		b.probing = true
		return nil
	case StateHalfOpen:
		if b.probing {
			return ErrOpen
		}
		b.probing = true
		return nil
	}
	return ErrOpen
}

// RecordSuccess resets the failure count in CLOSED and closes the circuit
// after a successful HALF_OPEN probe.
func (b *Breaker) RecordSuccess() {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case StateClosed:
		b.failures = 0
	case StateHalfOpen:
		b.probing = false
		b.failures = 0
		b.transition(StateClosed)
	}
}

// RecordFailure counts a failure, opening the circuit at the threshold or on
// a failed HALF_OPEN probe.
func (b *Breaker) RecordFailure() {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case StateClosed:
		b.failures++
		if b.failures >= b.failureThreshold {
			b.openedAt = b.now()
			b.transition(StateOpen)
		}
	case StateHalfOpen:
		b.probing = false
		b.openedAt = b.now()
		b.transition(StateOpen)
	}
}

// State returns the current position.
func (b *Breaker) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

// Set maintains one Breaker per dependency key, created lazily with shared
// settings and kept for the process lifetime.
type Set struct {
	failureThreshold int
	resetTimeout     time.Duration
	opts             []Option

	breakers sync.Map // key -> *Breaker
}

// NewSet builds a Set whose breakers share the given settings.
func NewSet(failureThreshold int, resetTimeout time.Duration, opts ...Option) *Set {
	return &Set{failureThreshold: failureThreshold, resetTimeout: resetTimeout, opts: opts}
}

// For returns the breaker for key, creating it on first use.
func (s *Set) For(key string) *Breaker {
	if v, ok := s.breakers.Load(key); ok {
		return v.(*Breaker)
	}
	v, _ := s.breakers.LoadOrStore(key, New(s.failureThreshold, s.resetTimeout, s.opts...))
	return v.(*Breaker)
}
