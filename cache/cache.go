// Package cache is an in-memory response cache for upstream reads: TTL-bound,
// LRU-evicted, with namespace invalidation so a mutation drops every cached
// read touching the same resource class. Entries past their TTL are only
// reachable through GetStale, the degraded-service fallback used while the
// upstream circuit is open.
package cache

import (
	"container/list"
	"crypto/sha256"
	"encoding/hex"
	"sort"
	"strings"
	"sync"
	"time"
)

// Store is the cache. One mutex guards the LRU list and index together;
// operations are O(1) except Invalidate, which walks entries of one namespace.
type Store struct {
	mu         sync.Mutex
	ttl        time.Duration
	maxEntries int
	ll         *list.List               // front = most recently used
	items      map[string]*list.Element // fingerprint -> element

	now func() time.Time

	onEvent func(event string) // metrics hook: hit|miss|stale|evict|invalidate
}

type entry struct {
	key       string
	namespace string
	value     any
	storedAt  time.Time
}

// Option configures the Store.
type Option func(*Store)

// WithClock overrides the time source, for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// WithEventHook registers an observer for cache events.
func WithEventHook(fn func(event string)) Option {
	return func(s *Store) { s.onEvent = fn }
}

// New builds a Store. maxEntries <= 0 means unbounded.
func New(ttl time.Duration, maxEntries int, opts ...Option) *Store {
	s := &Store{
		ttl:        ttl,
		maxEntries: maxEntries,
		ll:         list.New(),
		items:      make(map[string]*list.Element),
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Store) event(name string) {
	if s.onEvent != nil {
		s.onEvent(name)
	}
}

// Get returns the live value for key. Entries at or past their TTL are
// reported as misses: a value inserted at T with TTL d is never returned by
// Get at T+d or later. Expired entries stay resident (until evicted or
// invalidated) so GetStale can still serve them while the upstream circuit is
// open.
func (s *Store) Get(key string) (any, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	el, ok := s.items[key]
	if !ok {
		s.event("miss")
		return nil, false
	}
	ent := el.Value.(*entry)
	if !s.now().Before(ent.storedAt.Add(s.ttl)) {
		s.event("miss")
		return nil, false
	}
	s.ll.MoveToFront(el)
	s.event("hit")
	return ent.value, true
}

// GetStale returns the value for key regardless of TTL, with its age. Used
// only as the explicit degraded fallback; callers must mark the result stale.
func (s *Store) GetStale(key string) (any, time.Duration, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	el, ok := s.items[key]
	if !ok {
		return nil, 0, false
	}
	ent := el.Value.(*entry)
	s.event("stale")
	return ent.value, s.now().Sub(ent.storedAt), true
}

// Put inserts or replaces the value for key under the given namespace,
// evicting the least-recently-used entry when over capacity.
func (s *Store) Put(key, namespace string, value any) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if el, ok := s.items[key]; ok {
		ent := el.Value.(*entry)
		ent.value = value
		ent.namespace = namespace
		ent.storedAt = s.now()
		s.ll.MoveToFront(el)
		return
	}

	el := s.ll.PushFront(&entry{key: key, namespace: namespace, value: value, storedAt: s.now()})
	s.items[key] = el

	if s.maxEntries > 0 && s.ll.Len() > s.maxEntries {
		if oldest := s.ll.Back(); oldest != nil {
			s.removeLocked(oldest)
			s.event("evict")
		}
	}
}

// Invalidate drops every entry in the namespace, returning the count removed.
func (s *Store) Invalidate(namespace string) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for el := s.ll.Front(); el != nil; {
		next := el.Next()
		if el.Value.(*entry).namespace == namespace {
			s.removeLocked(el)
			removed++
		}
		el = next
	}
	if removed > 0 {
		s.event("invalidate")
	}
	return removed
}

// Len reports the number of entries, including ones past TTL that have not
// been touched since expiring.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ll.Len()
}

func (s *Store) removeLocked(el *list.Element) {
	s.ll.Remove(el)
	delete(s.items, el.Value.(*entry).key)
}

// Fingerprint derives the deterministic cache key for an outbound call from
// the credential scope, HTTP method, endpoint path, and normalized parameters.
func Fingerprint(scope, method, path string, params map[string]string) string {
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	b.WriteString(scope)
	b.WriteByte('\n')
	b.WriteString(method)
	b.WriteByte('\n')
	b.WriteString(path)
	for _, k := range keys {
		b.WriteByte('\n')
		b.WriteString(k)
		b.WriteByte('=')
		b.WriteString(params[k])
	}
	sum := sha256.Sum256([]byte(b.String()))
	return hex.EncodeToString(sum[:])
}

// Namespace scopes a resource class to a credential so invalidation from one
// caller's mutation never touches another credential's entries.
func Namespace(scope, resource string) string {
	return scope + ":" + resource
}
