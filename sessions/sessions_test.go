package sessions

import (
	"context"
	"errors"
	"testing"
)

func TestRegistry_CreateAndGet(t *testing.T) {
	ctx := context.Background()
	reg := NewMemory()

	sess, err := reg.Create(ctx, TransportHTTP, ClientInfo{Name: "client", Version: "1.0"}, "2025-06-18")
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if sess.ID() == "" {
		t.Fatal("expected non-empty session ID")
	}
	if !sess.Alive() {
		t.Fatal("new session should be alive")
	}

	got, err := reg.Get(ctx, sess.ID())
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got != sess {
		t.Fatal("Get returned a different session")
	}
	if reg.Count() != 1 {
		t.Fatalf("expected count 1, got %d", reg.Count())
	}
}

func TestRegistry_GetUnknown(t *testing.T) {
	reg := NewMemory()
	if _, err := reg.Get(context.Background(), "nope"); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("expected ErrSessionNotFound, got %v", err)
	}
}

func TestRegistry_SessionIsolation(t *testing.T) {
	ctx := context.Background()
	reg := NewMemory()

	a, _ := reg.Create(ctx, TransportHTTP, ClientInfo{Name: "a"}, "2025-06-18")
	b, _ := reg.Create(ctx, TransportHTTP, ClientInfo{Name: "b"}, "2025-06-18")
	if a.ID() == b.ID() {
		t.Fatal("sessions must have distinct IDs")
	}

	if err := reg.Delete(ctx, a.ID()); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if _, err := reg.Get(ctx, b.ID()); err != nil {
		t.Fatalf("deleting one session must not affect another: %v", err)
	}
	if reg.Count() != 1 {
		t.Fatalf("expected count 1 after delete, got %d", reg.Count())
	}
}

func TestRegistry_DeleteIsTerminal(t *testing.T) {
	ctx := context.Background()
	reg := NewMemory()
	sess, _ := reg.Create(ctx, TransportHTTP, ClientInfo{}, "2025-06-18")
	id := sess.ID()

	if err := reg.Delete(ctx, id); err != nil {
		t.Fatalf("first delete: %v", err)
	}
	// Repeated termination and reuse of the ID both resolve to not-found.
	if err := reg.Delete(ctx, id); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("second delete: expected ErrSessionNotFound, got %v", err)
	}
	if _, err := reg.Get(ctx, id); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("get after delete: expected ErrSessionNotFound, got %v", err)
	}

	select {
	case <-sess.Done():
	default:
		t.Fatal("Done channel should be closed after delete")
	}
}

func TestRegistry_CloseHookOrdering(t *testing.T) {
	ctx := context.Background()

	var reg *MemoryRegistry
	var hookSawLiveSession bool
	reg = NewMemory(func(sessionID string) {
		// By the time hooks run the session must already be unresolvable.
		_, err := reg.Get(ctx, sessionID)
		hookSawLiveSession = err == nil
	})

	sess, _ := reg.Create(ctx, TransportHTTP, ClientInfo{}, "2025-06-18")
	if err := reg.Delete(ctx, sess.ID()); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if hookSawLiveSession {
		t.Fatal("close hook observed a still-live session")
	}
}

func TestRegistry_SingleSessionLimit(t *testing.T) {
	ctx := context.Background()
	reg := NewSingle()
	if reg.SupportsMultipleSessions() {
		t.Fatal("single registry must not report multi-session support")
	}

	first, err := reg.Create(ctx, TransportStdio, ClientInfo{}, "2025-06-18")
	if err != nil {
		t.Fatalf("first Create failed: %v", err)
	}
	if _, err := reg.Create(ctx, TransportStdio, ClientInfo{}, "2025-06-18"); !errors.Is(err, ErrSessionLimit) {
		t.Fatalf("expected ErrSessionLimit, got %v", err)
	}

	// After teardown a new session is admitted again.
	if err := reg.Delete(ctx, first.ID()); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if _, err := reg.Create(ctx, TransportStdio, ClientInfo{}, "2025-06-18"); err != nil {
		t.Fatalf("Create after delete failed: %v", err)
	}
}

func TestSession_PublishBestEffort(t *testing.T) {
	ctx := context.Background()
	reg := NewMemory()
	sess, _ := reg.Create(ctx, TransportHTTP, ClientInfo{}, "2025-06-18")

	for i := 0; i < cap(sess.outbound); i++ {
		if !sess.Publish([]byte("x")) {
			t.Fatalf("publish %d should fit in the buffer", i)
		}
	}
	if sess.Publish([]byte("overflow")) {
		t.Fatal("publish past the buffer should drop, not block")
	}

	_ = reg.Delete(ctx, sess.ID())
	if sess.Publish([]byte("closed")) {
		t.Fatal("publish to a closed session should report false")
	}
}
