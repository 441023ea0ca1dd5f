package track

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/cuetrack/cuetrack/internal/observe"
	"github.com/cuetrack/cuetrack/internal/script"
)

// SessionInfo holds metadata about an active tracking session.
type SessionInfo struct {
	// SessionID is the unique identifier for this session.
	SessionID string

	// ScriptID is the stored script document being read, when one is used.
	ScriptID string

	// StartedAt is when the session was opened.
	StartedAt time.Time
}

// SessionManager keys live [Tracker] instances by session ID. Each
// WebSocket connection owns exactly one session; the manager tracks the
// active count for observability.
//
// All exported methods are safe for concurrent use.
type SessionManager struct {
	mu       sync.Mutex
	sessions map[string]*Session

	cfg     Config
	metrics *observe.Metrics
	now     func() time.Time
}

// Session pairs a tracker with its metadata.
type Session struct {
	Info    SessionInfo
	Tracker *Tracker
}

// NewSessionManager creates a manager that opens trackers with the given
// alignment config. metrics may be nil, in which case the package default
// is used.
func NewSessionManager(cfg Config, metrics *observe.Metrics) *SessionManager {
	if metrics == nil {
		metrics = observe.DefaultMetrics()
	}
	return &SessionManager{
		sessions: make(map[string]*Session),
		cfg:      cfg,
		metrics:  metrics,
		now:      time.Now,
	}
}

// Open creates a tracker for scr and registers it under a fresh session ID.
func (sm *SessionManager) Open(ctx context.Context, scriptID string, scr script.Script, opts ...Option) (*Session, error) {
	id, err := generateSessionID()
	if err != nil {
		return nil, fmt.Errorf("track: generate session id: %w", err)
	}

	opts = append([]Option{WithMetrics(sm.metrics)}, opts...)
	sess := &Session{
		Info: SessionInfo{
			SessionID: id,
			ScriptID:  scriptID,
			StartedAt: sm.now(),
		},
		Tracker: NewTracker(scr, sm.cfg, opts...),
	}

	sm.mu.Lock()
	sm.sessions[id] = sess
	sm.mu.Unlock()

	sm.metrics.ActiveSessions.Add(ctx, 1)
	slog.Info("tracking session opened",
		"session_id", id,
		"script_id", scriptID,
		"words", scr.Len(),
	)
	return sess, nil
}

// Get returns the session with the given ID, or nil when absent.
func (sm *SessionManager) Get(id string) *Session {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	return sm.sessions[id]
}

// Close removes the session with the given ID and stops its tracker.
// Closing an unknown ID is a no-op.
func (sm *SessionManager) Close(ctx context.Context, id string) {
	sm.mu.Lock()
	sess, ok := sm.sessions[id]
	if ok {
		delete(sm.sessions, id)
	}
	sm.mu.Unlock()

	if !ok {
		return
	}
	sess.Tracker.Stop()
	sm.metrics.ActiveSessions.Add(ctx, -1)
	slog.Info("tracking session closed", "session_id", id)
}

// Count returns the number of live sessions.
func (sm *SessionManager) Count() int {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	return len(sm.sessions)
}

// generateSessionID produces a random 8-byte hex string.
func generateSessionID() (string, error) {
	buf := make([]byte, 8)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
