// Package sessions owns session identity for both transport channels: a
// multi-session registry for the HTTP channel and a degenerate single-session
// registry for stdio. Registries are constructor-injected stateful services so
// tests can instantiate fresh instances without cross-test leakage.
package sessions

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

// ErrSessionNotFound is returned when a session identifier does not resolve to
// a live session. Reuse of an identifier after closure yields the same error.
var ErrSessionNotFound = errors.New("session not found")

// ErrSessionLimit is returned by a single-session registry when a second
// session creation is attempted.
var ErrSessionLimit = errors.New("transport supports exactly one session")

// Transport names the channel that owns a session.
type Transport string

const (
	TransportHTTP  Transport = "http"
	TransportStdio Transport = "stdio"
)

// ClientInfo identifies the connected client implementation.
type ClientInfo struct {
	Name    string
	Version string
}

// Session represents one logical client connection. All fields are fixed at
// creation except the liveness flag; concurrent use is safe.
type Session struct {
	id              string
	createdAt       time.Time
	transport       Transport
	protocolVersion string
	clientInfo      ClientInfo

	closed atomic.Bool
	done   chan struct{}

	// outbound carries server-initiated notifications to the GET /mcp stream.
	// Best-effort: messages published with no consumer are dropped.
	outbound chan []byte
}

func newSession(transport Transport, info ClientInfo, protocolVersion string) *Session {
	return &Session{
		id:              uuid.NewString(),
		createdAt:       time.Now(),
		transport:       transport,
		protocolVersion: protocolVersion,
		clientInfo:      info,
		done:            make(chan struct{}),
		outbound:        make(chan []byte, 16),
	}
}

func (s *Session) ID() string               { return s.id }
func (s *Session) CreatedAt() time.Time     { return s.createdAt }
func (s *Session) Transport() Transport     { return s.transport }
func (s *Session) ProtocolVersion() string  { return s.protocolVersion }
func (s *Session) ClientInfo() ClientInfo   { return s.clientInfo }
func (s *Session) Alive() bool              { return !s.closed.Load() }
func (s *Session) Done() <-chan struct{}    { return s.done }
func (s *Session) Messages() <-chan []byte  { return s.outbound }

// Publish queues a server-initiated message for the session's notification
// stream. It never blocks; with no consumer and a full buffer the message is
// dropped and false is returned.
func (s *Session) Publish(msg []byte) bool {
	if !s.Alive() {
		return false
	}
	select {
	case s.outbound <- msg:
		return true
	default:
		return false
	}
}

// close marks the session dead. Idempotent; returns false if already closed.
func (s *Session) close() bool {
	if !s.closed.CompareAndSwap(false, true) {
		return false
	}
	close(s.done)
	return true
}

// CloseHook is invoked with the session ID during teardown, after the session
// is marked dead and before its registry entry disappears. The credential
// binding is removed here so no request observes a half-torn-down session.
type CloseHook func(sessionID string)

// Registry maps session identifiers to live sessions.
type Registry interface {
	// Create registers a new session for a well-formed handshake.
	Create(ctx context.Context, transport Transport, info ClientInfo, protocolVersion string) (*Session, error)
	// Get resolves a live session; closed or unknown IDs yield ErrSessionNotFound.
	Get(ctx context.Context, id string) (*Session, error)
	// Delete tears a session down. Idempotent in the sense that repeated or
	// unknown deletes yield ErrSessionNotFound, never a crash.
	Delete(ctx context.Context, id string) error
	// Count reports the number of live sessions.
	Count() int
	// SupportsMultipleSessions distinguishes the HTTP registry from the
	// single-session stdio registry.
	SupportsMultipleSessions() bool
}

// MemoryRegistry is the in-process Registry implementation. Session state is
// isolated per key; unrelated sessions never contend on a shared lock.
type MemoryRegistry struct {
	sessions sync.Map // session ID -> *Session
	count    atomic.Int64
	multi    bool

	mu    sync.Mutex // guards single-session admission only
	hooks []CloseHook
}

var _ Registry = (*MemoryRegistry)(nil)

// NewMemory returns a multi-session registry for the HTTP channel.
func NewMemory(hooks ...CloseHook) *MemoryRegistry {
	return &MemoryRegistry{multi: true, hooks: hooks}
}

// NewSingle returns a registry that admits exactly one session, backing the
// stdio channel. Everything else behaves like the multi-session registry: the
// stdio transport is a registry-of-size-one, not separate logic.
func NewSingle(hooks ...CloseHook) *MemoryRegistry {
	return &MemoryRegistry{multi: false, hooks: hooks}
}

func (m *MemoryRegistry) SupportsMultipleSessions() bool { return m.multi }

func (m *MemoryRegistry) Create(ctx context.Context, transport Transport, info ClientInfo, protocolVersion string) (*Session, error) {
	if !m.multi {
		m.mu.Lock()
		defer m.mu.Unlock()
		if m.count.Load() > 0 {
			return nil, ErrSessionLimit
		}
	}
	sess := newSession(transport, info, protocolVersion)
	m.sessions.Store(sess.ID(), sess)
	m.count.Add(1)
	return sess, nil
}

func (m *MemoryRegistry) Get(ctx context.Context, id string) (*Session, error) {
	v, ok := m.sessions.Load(id)
	if !ok {
		return nil, ErrSessionNotFound
	}
	sess := v.(*Session)
	if !sess.Alive() {
		return nil, ErrSessionNotFound
	}
	return sess, nil
}

func (m *MemoryRegistry) Delete(ctx context.Context, id string) error {
	v, ok := m.sessions.Load(id)
	if !ok {
		return ErrSessionNotFound
	}
	sess := v.(*Session)
	// Marking dead first means concurrent Gets fail before the credential
	// binding goes away: no request sees a session without its binding state.
	if !sess.close() {
		return ErrSessionNotFound
	}
	for _, h := range m.hooks {
		h(id)
	}
	m.sessions.Delete(id)
	m.count.Add(-1)
	return nil
}

func (m *MemoryRegistry) Count() int {
	return int(m.count.Load())
}

// Shutdown tears down every live session, used at process exit.
func (m *MemoryRegistry) Shutdown(ctx context.Context) {
	m.sessions.Range(func(key, _ any) bool {
		_ = m.Delete(ctx, key.(string))
		return true
	})
}
