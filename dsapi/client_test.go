package dsapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestNew_ValidatesBaseURL(t *testing.T) {
	if _, err := New("ftp://example.com"); err == nil {
		t.Fatal("non-HTTP scheme must be rejected")
	}
	if _, err := New("://bad"); err == nil {
		t.Fatal("unparseable URL must be rejected")
	}
	c, err := New("")
	if err != nil {
		t.Fatal(err)
	}
	if c.baseURL != DefaultBaseURL {
		t.Fatalf("baseURL = %q", c.baseURL)
	}
}

func TestClient_ListRooms(t *testing.T) {
	var gotAuth, gotPath, gotQuery string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotPath = r.URL.Path
		gotQuery = r.URL.RawQuery
		json.NewEncoder(w).Encode(map[string]any{
			"total_count": 2,
			"data": []map[string]any{
				{"id": "r1", "privacy": "public"},
				{"id": "r2", "privacy": "private"},
			},
		})
	}))
	defer ts.Close()

	c, err := New(ts.URL)
	if err != nil {
		t.Fatal(err)
	}
	rooms, err := c.ListRooms(context.Background(), "tok", ListOptions{Limit: 10, Offset: 5, Order: "asc"})
	if err != nil {
		t.Fatal(err)
	}
	if len(rooms) != 2 || rooms[0].ID != "r1" || rooms[1].Privacy != "private" {
		t.Fatalf("rooms = %+v", rooms)
	}
	if gotAuth != "Bearer tok" {
		t.Fatalf("Authorization = %q", gotAuth)
	}
	if gotPath != "/rooms" {
		t.Fatalf("path = %q", gotPath)
	}
	if gotQuery != "limit=10&offset=5&order=asc" {
		t.Fatalf("query = %q", gotQuery)
	}
}

func TestClient_CreateRoomSendsJSON(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s", r.Method)
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("content-type = %q", ct)
		}
		var body map[string]any
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("decode body: %v", err)
		}
		if body["privacy"] != "private" {
			t.Errorf("body = %v", body)
		}
		// Pointer fields left unset must not appear on the wire.
		if _, ok := body["max_participants"]; ok {
			t.Errorf("unset pointer field sent: %v", body)
		}
		json.NewEncoder(w).Encode(map[string]any{"id": "r-new", "privacy": "private"})
	}))
	defer ts.Close()

	c, _ := New(ts.URL)
	room, err := c.CreateRoom(context.Background(), "tok", RoomSettings{Privacy: "private"})
	if err != nil {
		t.Fatal(err)
	}
	if room.ID != "r-new" {
		t.Fatalf("room = %+v", room)
	}
}

func TestClient_ErrorMapping(t *testing.T) {
	status := http.StatusNotFound
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(status)
		json.NewEncoder(w).Encode(map[string]any{"message": "room not found"})
	}))
	defer ts.Close()

	c, _ := New(ts.URL)

	_, err := c.GetRoom(context.Background(), "tok", "missing")
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected APIError, got %v", err)
	}
	if apiErr.Status != 404 || apiErr.Message != "room not found" {
		t.Fatalf("apiErr = %+v", apiErr)
	}
	if IsTransient(err) {
		t.Fatal("404 is permanent")
	}
	if StatusOf(err) != 404 {
		t.Fatalf("StatusOf = %d", StatusOf(err))
	}

	for _, transient := range []int{500, 502, 503, 429} {
		status = transient
		_, err := c.GetRoom(context.Background(), "tok", "x")
		if !IsTransient(err) {
			t.Errorf("status %d should be transient", transient)
		}
	}
}

func TestClient_DeleteNoContent(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodDelete {
			t.Errorf("method = %s", r.Method)
		}
		w.WriteHeader(http.StatusNoContent)
	}))
	defer ts.Close()

	c, _ := New(ts.URL)
	if err := c.DeleteRoom(context.Background(), "tok", "r1"); err != nil {
		t.Fatal(err)
	}
}

func TestIsTransient_NonAPIErrors(t *testing.T) {
	if IsTransient(nil) {
		t.Fatal("nil is not transient")
	}
	if !IsTransient(context.DeadlineExceeded) {
		t.Fatal("deadline exceeded is transient")
	}
	if IsTransient(errors.New("something else")) {
		t.Fatal("arbitrary errors are not transient")
	}
}
