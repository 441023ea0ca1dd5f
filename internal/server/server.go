// Package server exposes the cuetrack HTTP surface: script CRUD, the
// tracking WebSocket, Prometheus metrics, and health probes.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"github.com/cuetrack/cuetrack/internal/health"
	"github.com/cuetrack/cuetrack/internal/observe"
	"github.com/cuetrack/cuetrack/internal/script"
	"github.com/cuetrack/cuetrack/internal/track"
)

// shutdownGrace is how long Run waits for in-flight requests on shutdown.
const shutdownGrace = 10 * time.Second

// Server serves the cuetrack API. Construct with [New] and start with
// [Server.Run].
type Server struct {
	addr     string
	store    script.Store
	sessions *track.SessionManager
	metrics  *observe.Metrics
	mux      *http.ServeMux
}

// New assembles a Server. metrics may be nil, in which case the package
// default instruments are used.
func New(addr string, store script.Store, sessions *track.SessionManager, metrics *observe.Metrics) *Server {
	if metrics == nil {
		metrics = observe.DefaultMetrics()
	}
	s := &Server{
		addr:     addr,
		store:    store,
		sessions: sessions,
		metrics:  metrics,
		mux:      http.NewServeMux(),
	}
	s.routes()
	return s
}

// routes registers all HTTP handlers on the server mux.
func (s *Server) routes() {
	s.mux.HandleFunc("POST /v1/scripts", s.handleCreateScript)
	s.mux.HandleFunc("GET /v1/scripts", s.handleListScripts)
	s.mux.HandleFunc("GET /v1/scripts/{id}", s.handleGetScript)
	s.mux.HandleFunc("PUT /v1/scripts/{id}", s.handleUpdateScript)
	s.mux.HandleFunc("DELETE /v1/scripts/{id}", s.handleDeleteScript)
	s.mux.HandleFunc("GET /v1/scripts/{id}/track", s.handleTrack)

	s.mux.Handle("GET /metrics", promhttp.Handler())

	h := health.New(health.Checker{
		Name: "store",
		Check: func(ctx context.Context) error {
			_, err := s.store.List(ctx)
			return err
		},
	})
	h.Register(s.mux)
}

// Handler returns the full middleware-wrapped handler. Exposed for tests.
func (s *Server) Handler() http.Handler {
	return observe.Middleware(s.metrics)(s.mux)
}

// Run serves until ctx is cancelled, then drains in-flight requests within
// [shutdownGrace].
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:        s.addr,
		Handler:     s.Handler(),
		BaseContext: func(net.Listener) context.Context { return ctx },
	}

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		slog.Info("http server listening", "addr", s.addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server: listen: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server: shutdown: %w", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return err
	}
	return ctx.Err()
}

// ── Script CRUD ──────────────────────────────────────────────────────────────

// scriptRequest is the JSON body for create and update operations.
type scriptRequest struct {
	Title string `json:"title"`
	Text  string `json:"text"`
}

func (s *Server) handleCreateScript(w http.ResponseWriter, r *http.Request) {
	var req scriptRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("decode body: %w", err))
		return
	}
	if req.Text == "" {
		writeError(w, http.StatusBadRequest, errors.New("text is required"))
		return
	}

	doc, err := s.store.Create(r.Context(), script.Document{
		Title: req.Title,
		Text:  req.Text,
	})
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, doc)
}

func (s *Server) handleListScripts(w http.ResponseWriter, r *http.Request) {
	docs, err := s.store.List(r.Context())
	if err != nil {
		writeStoreError(w, err)
		return
	}
	if docs == nil {
		docs = []script.Document{}
	}
	writeJSON(w, http.StatusOK, docs)
}

func (s *Server) handleGetScript(w http.ResponseWriter, r *http.Request) {
	doc, err := s.store.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

func (s *Server) handleUpdateScript(w http.ResponseWriter, r *http.Request) {
	var req scriptRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("decode body: %w", err))
		return
	}

	doc := script.Document{
		ID:    r.PathValue("id"),
		Title: req.Title,
		Text:  req.Text,
	}
	if err := s.store.Update(r.Context(), doc); err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

func (s *Server) handleDeleteScript(w http.ResponseWriter, r *http.Request) {
	if err := s.store.Delete(r.Context(), r.PathValue("id")); err != nil {
		writeStoreError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ── Response helpers ─────────────────────────────────────────────────────────

// errorBody is the JSON error envelope.
type errorBody struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Warn("encode response failed", "err", err)
	}
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, errorBody{Error: err.Error()})
}

// writeStoreError maps store sentinel errors onto HTTP status codes.
func writeStoreError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, script.ErrNotFound):
		writeError(w, http.StatusNotFound, err)
	case errors.Is(err, script.ErrDuplicateID):
		writeError(w, http.StatusConflict, err)
	default:
		slog.Error("store error", "err", err)
		writeError(w, http.StatusInternalServerError, errors.New("internal error"))
	}
}
