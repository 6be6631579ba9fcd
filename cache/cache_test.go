package cache

import (
	"fmt"
	"testing"
	"time"
)

func testClock(start time.Time) (func() time.Time, func(time.Duration)) {
	now := start
	return func() time.Time { return now }, func(d time.Duration) { now = now.Add(d) }
}

func TestStore_TTLBoundary(t *testing.T) {
	clock, advance := testClock(time.Unix(1000, 0))
	s := New(30*time.Second, 0, WithClock(clock))

	s.Put("k", "ns", "v")
	if v, ok := s.Get("k"); !ok || v != "v" {
		t.Fatalf("fresh entry: got (%v, %v)", v, ok)
	}

	// One instant before the TTL elapses the value is still served.
	advance(30*time.Second - time.Nanosecond)
	if _, ok := s.Get("k"); !ok {
		t.Fatal("entry should be live just before TTL")
	}

	// At exactly storedAt+TTL the entry is expired, never returned.
	advance(time.Nanosecond)
	if _, ok := s.Get("k"); ok {
		t.Fatal("entry must not be served at exactly storedAt+TTL")
	}
}

func TestStore_LRUEviction(t *testing.T) {
	s := New(time.Hour, 2)

	s.Put("a", "ns", 1)
	s.Put("b", "ns", 2)
	// Touch a so b becomes least recently used.
	if _, ok := s.Get("a"); !ok {
		t.Fatal("a should be present")
	}
	s.Put("c", "ns", 3)

	if _, ok := s.Get("b"); ok {
		t.Fatal("b should have been evicted as least recently used")
	}
	if _, ok := s.Get("a"); !ok {
		t.Fatal("a should survive eviction")
	}
	if _, ok := s.Get("c"); !ok {
		t.Fatal("c should be present")
	}
	if s.Len() != 2 {
		t.Fatalf("expected 2 entries, got %d", s.Len())
	}
}

func TestStore_NamespaceInvalidation(t *testing.T) {
	s := New(time.Hour, 0)

	s.Put("rooms-1", "scope:rooms", "a")
	s.Put("rooms-2", "scope:rooms", "b")
	s.Put("recs-1", "scope:recordings", "c")

	if n := s.Invalidate("scope:rooms"); n != 2 {
		t.Fatalf("expected 2 invalidated entries, got %d", n)
	}
	if _, ok := s.Get("rooms-1"); ok {
		t.Fatal("rooms-1 should be gone")
	}
	if _, ok := s.Get("recs-1"); !ok {
		t.Fatal("other namespaces must be untouched")
	}
	if n := s.Invalidate("scope:rooms"); n != 0 {
		t.Fatalf("re-invalidation should remove nothing, got %d", n)
	}
}

func TestStore_GetStale(t *testing.T) {
	clock, advance := testClock(time.Unix(1000, 0))
	s := New(10*time.Second, 0, WithClock(clock))

	s.Put("k", "ns", "v")
	advance(25 * time.Second)

	if _, ok := s.Get("k"); ok {
		t.Fatal("entry is past TTL, Get must miss")
	}
	v, age, ok := s.GetStale("k")
	if !ok || v != "v" {
		t.Fatalf("GetStale = (%v, %v)", v, ok)
	}
	if age != 25*time.Second {
		t.Fatalf("expected age 25s, got %s", age)
	}
}

func TestStore_EventHook(t *testing.T) {
	events := map[string]int{}
	s := New(time.Hour, 1, WithEventHook(func(e string) { events[e]++ }))

	s.Put("a", "ns", 1)
	s.Get("a")
	s.Get("missing")
	s.Put("b", "ns", 2) // evicts a
	s.Invalidate("ns")

	for _, want := range []string{"hit", "miss", "evict", "invalidate"} {
		if events[want] == 0 {
			t.Errorf("expected %q event, got %v", want, events)
		}
	}
}

func TestFingerprint(t *testing.T) {
	base := Fingerprint("scope", "GET", "/rooms", map[string]string{"limit": "10", "offset": "0"})

	// Parameter order must not matter.
	same := Fingerprint("scope", "GET", "/rooms", map[string]string{"offset": "0", "limit": "10"})
	if base != same {
		t.Fatal("fingerprint must be order-independent over params")
	}

	for i, other := range []string{
		Fingerprint("other", "GET", "/rooms", map[string]string{"limit": "10", "offset": "0"}),
		Fingerprint("scope", "POST", "/rooms", map[string]string{"limit": "10", "offset": "0"}),
		Fingerprint("scope", "GET", "/recordings", map[string]string{"limit": "10", "offset": "0"}),
		Fingerprint("scope", "GET", "/rooms", map[string]string{"limit": "20", "offset": "0"}),
	} {
		if other == base {
			t.Errorf("variant %d should produce a distinct fingerprint", i)
		}
	}
}

func TestNamespace(t *testing.T) {
	if Namespace("s1", "rooms") == Namespace("s2", "rooms") {
		t.Fatal("namespaces must be credential-scoped")
	}
	if fmt.Sprint(Namespace("s1", "rooms")) == fmt.Sprint(Namespace("s1", "recordings")) {
		t.Fatal("namespaces must be resource-scoped")
	}
}
