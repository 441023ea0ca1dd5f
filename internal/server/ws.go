package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/coder/websocket"

	"github.com/cuetrack/cuetrack/internal/track"
	"github.com/cuetrack/cuetrack/pkg/recognition"
)

// notifyBuffer bounds the outbound notification queue per connection. A
// renderer that stops reading cannot stall event processing; overflowing
// notifications are dropped with a warning.
const notifyBuffer = 64

// clientMessage is the JSON envelope for messages from the renderer client.
type clientMessage struct {
	// Type selects the operation: "event", "set", "restart", "stop",
	// "resume".
	Type string `json:"type"`

	// Event carries the recognition event for type "event".
	Event *recognition.Event `json:"event,omitempty"`

	// Position carries the target cursor index for type "set".
	Position int `json:"position,omitempty"`
}

// serverMessage is the JSON envelope for notifications to the client.
type serverMessage struct {
	// Type is "session", "cursor", or "match".
	Type string `json:"type"`

	// SessionID is set on the initial "session" message.
	SessionID string `json:"session_id,omitempty"`

	// Position is the new cursor index for "cursor".
	Position int `json:"position,omitempty"`

	// Word is the normalized matched word for "match".
	Word string `json:"word,omitempty"`

	// Advance is the cursor delta for "match".
	Advance int `json:"advance,omitempty"`
}

// handleTrack upgrades the connection to a WebSocket and runs one tracking
// session over it: inbound recognition events and control messages, outbound
// cursor and match notifications.
func (s *Server) handleTrack(w http.ResponseWriter, r *http.Request) {
	scriptID := r.PathValue("id")
	doc, err := s.store.Get(r.Context(), scriptID)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	scr := doc.Script()
	if scr.Len() == 0 {
		writeError(w, http.StatusUnprocessableEntity, errors.New("script has no words"))
		return
	}

	conn, err := websocket.Accept(w, r, nil)
	if err != nil {
		slog.Warn("websocket accept failed", "script_id", scriptID, "err", err)
		return
	}

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	notify := make(chan serverMessage, notifyBuffer)
	send := func(msg serverMessage) {
		select {
		case notify <- msg:
		default:
			slog.Warn("notification dropped, client not reading", "type", msg.Type)
		}
	}

	sess, err := s.sessions.Open(ctx, scriptID, scr,
		track.WithCursorListener(func(pos int) {
			send(serverMessage{Type: "cursor", Position: pos})
		}),
		track.WithMatchListener(func(word string, advance int) {
			send(serverMessage{Type: "match", Word: word, Advance: advance})
		}),
	)
	if err != nil {
		conn.Close(websocket.StatusInternalError, "session open failed")
		return
	}
	defer s.sessions.Close(context.WithoutCancel(ctx), sess.Info.SessionID)

	send(serverMessage{Type: "session", SessionID: sess.Info.SessionID})

	// Writer goroutine: drains notifications onto the socket.
	writeDone := make(chan struct{})
	go func() {
		defer close(writeDone)
		for {
			select {
			case <-ctx.Done():
				return
			case msg := <-notify:
				if err := writeMessage(ctx, conn, msg); err != nil {
					return
				}
			}
		}
	}()

	// Read loop: each message is processed to completion before the next is
	// read, which gives the tracker its one-event-at-a-time model for free.
	err = s.readLoop(ctx, conn, sess.Tracker)

	conn.Close(websocket.StatusNormalClosure, "session closed")
	cancel()
	<-writeDone

	if err != nil && !errors.Is(err, context.Canceled) {
		slog.Debug("tracking connection ended", "session_id", sess.Info.SessionID, "err", err)
	}
}

// readLoop consumes client messages until the connection drops or ctx ends.
func (s *Server) readLoop(ctx context.Context, conn *websocket.Conn, tracker *track.Tracker) error {
	for {
		_, data, err := conn.Read(ctx)
		if err != nil {
			// Normal close or context cancellation ends the session.
			return err
		}

		var msg clientMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			slog.Warn("malformed client message", "err", err)
			continue
		}

		if err := s.dispatch(ctx, tracker, msg); err != nil {
			slog.Warn("client message rejected", "type", msg.Type, "err", err)
		}
	}
}

// dispatch applies one client message to the tracker.
func (s *Server) dispatch(ctx context.Context, tracker *track.Tracker, msg clientMessage) error {
	switch msg.Type {
	case "event":
		if msg.Event == nil {
			return errors.New("event message without event payload")
		}
		if err := tracker.Process(ctx, *msg.Event); err != nil {
			if errors.Is(err, track.ErrStopped) {
				// Stopped sessions silently discard events until resumed.
				return nil
			}
			return err
		}
		return nil
	case "set":
		tracker.SetCursor(msg.Position)
		return nil
	case "restart":
		tracker.Restart()
		return nil
	case "stop":
		tracker.Stop()
		return nil
	case "resume":
		tracker.Resume()
		return nil
	default:
		return fmt.Errorf("unknown message type %q", msg.Type)
	}
}

// writeMessage marshals and sends one notification.
func writeMessage(ctx context.Context, conn *websocket.Conn, msg serverMessage) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	return conn.Write(ctx, websocket.MessageText, data)
}
