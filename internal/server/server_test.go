package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/cuetrack/cuetrack/internal/script"
	"github.com/cuetrack/cuetrack/internal/track"
)

func newTestServer(t *testing.T) (*Server, *script.MemStore) {
	t.Helper()
	store := script.NewMemStore()
	sessions := track.NewSessionManager(track.Config{}, nil)
	return New(":0", store, sessions, nil), store
}

func doJSON(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestCreateScript(t *testing.T) {
	t.Parallel()

	srv, _ := newTestServer(t)
	h := srv.Handler()

	rec := doJSON(t, h, http.MethodPost, "/v1/scripts", `{"title":"Opening","text":"good evening everyone"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("want 201, got %d: %s", rec.Code, rec.Body)
	}

	var doc script.Document
	if err := json.Unmarshal(rec.Body.Bytes(), &doc); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if doc.ID == "" {
		t.Fatal("want a generated id")
	}
	if doc.Title != "Opening" || doc.Text != "good evening everyone" {
		t.Fatalf("unexpected document %+v", doc)
	}
}

func TestCreateScriptRejectsBadInput(t *testing.T) {
	t.Parallel()

	srv, _ := newTestServer(t)
	h := srv.Handler()

	tests := []struct {
		name string
		body string
	}{
		{"missing text", `{"title":"empty"}`},
		{"malformed json", `{"title":`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			rec := doJSON(t, h, http.MethodPost, "/v1/scripts", tt.body)
			if rec.Code != http.StatusBadRequest {
				t.Fatalf("want 400, got %d: %s", rec.Code, rec.Body)
			}
		})
	}
}

func TestGetScript(t *testing.T) {
	t.Parallel()

	srv, store := newTestServer(t)
	h := srv.Handler()

	created, err := store.Create(context.Background(), script.Document{Title: "one", Text: "hello there"})
	if err != nil {
		t.Fatalf("seed store: %v", err)
	}

	rec := doJSON(t, h, http.MethodGet, "/v1/scripts/"+created.ID, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("want 200, got %d: %s", rec.Code, rec.Body)
	}
	var doc script.Document
	if err := json.Unmarshal(rec.Body.Bytes(), &doc); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if doc.ID != created.ID {
		t.Fatalf("want id %q, got %q", created.ID, doc.ID)
	}

	rec = doJSON(t, h, http.MethodGet, "/v1/scripts/no-such-id", "")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("want 404, got %d: %s", rec.Code, rec.Body)
	}
}

func TestListScripts(t *testing.T) {
	t.Parallel()

	srv, store := newTestServer(t)
	h := srv.Handler()

	rec := doJSON(t, h, http.MethodGet, "/v1/scripts", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("want 200, got %d: %s", rec.Code, rec.Body)
	}
	if got := strings.TrimSpace(rec.Body.String()); got != "[]" {
		t.Fatalf("want empty array for an empty store, got %q", got)
	}

	for _, title := range []string{"one", "two"} {
		if _, err := store.Create(context.Background(), script.Document{Title: title, Text: "x"}); err != nil {
			t.Fatalf("seed store: %v", err)
		}
	}
	rec = doJSON(t, h, http.MethodGet, "/v1/scripts", "")
	var docs []script.Document
	if err := json.Unmarshal(rec.Body.Bytes(), &docs); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(docs) != 2 {
		t.Fatalf("want 2 documents, got %d", len(docs))
	}
}

func TestUpdateScript(t *testing.T) {
	t.Parallel()

	srv, store := newTestServer(t)
	h := srv.Handler()

	created, err := store.Create(context.Background(), script.Document{Title: "v1", Text: "one"})
	if err != nil {
		t.Fatalf("seed store: %v", err)
	}

	rec := doJSON(t, h, http.MethodPut, "/v1/scripts/"+created.ID, `{"title":"v2","text":"two"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("want 200, got %d: %s", rec.Code, rec.Body)
	}
	got, err := store.Get(context.Background(), created.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Title != "v2" || got.Text != "two" {
		t.Fatalf("want updated document, got %+v", got)
	}

	rec = doJSON(t, h, http.MethodPut, "/v1/scripts/no-such-id", `{"title":"x","text":"y"}`)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("want 404, got %d: %s", rec.Code, rec.Body)
	}
}

func TestDeleteScript(t *testing.T) {
	t.Parallel()

	srv, store := newTestServer(t)
	h := srv.Handler()

	created, err := store.Create(context.Background(), script.Document{Title: "gone", Text: "x"})
	if err != nil {
		t.Fatalf("seed store: %v", err)
	}

	rec := doJSON(t, h, http.MethodDelete, "/v1/scripts/"+created.ID, "")
	if rec.Code != http.StatusNoContent {
		t.Fatalf("want 204, got %d: %s", rec.Code, rec.Body)
	}
	rec = doJSON(t, h, http.MethodDelete, "/v1/scripts/"+created.ID, "")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("want 404 for a second delete, got %d: %s", rec.Code, rec.Body)
	}
}

func TestHealthEndpoints(t *testing.T) {
	t.Parallel()

	srv, _ := newTestServer(t)
	h := srv.Handler()

	for _, path := range []string{"/healthz", "/readyz"} {
		rec := doJSON(t, h, http.MethodGet, path, "")
		if rec.Code != http.StatusOK {
			t.Fatalf("%s: want 200, got %d: %s", path, rec.Code, rec.Body)
		}
	}
}

func TestTrackRejectsBeforeUpgrade(t *testing.T) {
	t.Parallel()

	srv, store := newTestServer(t)
	h := srv.Handler()

	// Unknown script: rejected before the WebSocket handshake.
	rec := doJSON(t, h, http.MethodGet, "/v1/scripts/no-such-id/track", "")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("want 404, got %d: %s", rec.Code, rec.Body)
	}

	// A script with no words cannot be tracked.
	created, err := store.Create(context.Background(), script.Document{Title: "blank", Text: "   "})
	if err != nil {
		t.Fatalf("seed store: %v", err)
	}
	rec = doJSON(t, h, http.MethodGet, "/v1/scripts/"+created.ID+"/track", "")
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("want 422, got %d: %s", rec.Code, rec.Body)
	}
}
