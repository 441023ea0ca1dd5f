package server

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"

	"github.com/cuetrack/cuetrack/internal/script"
	"github.com/cuetrack/cuetrack/internal/track"
	"github.com/cuetrack/cuetrack/pkg/recognition/mock"
)

func readServerMessage(ctx context.Context, t *testing.T, conn *websocket.Conn) serverMessage {
	t.Helper()
	_, data, err := conn.Read(ctx)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	var msg serverMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		t.Fatalf("decode %q: %v", data, err)
	}
	return msg
}

func writeClientMessage(ctx context.Context, t *testing.T, conn *websocket.Conn, msg clientMessage) {
	t.Helper()
	data, err := json.Marshal(msg)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if err := conn.Write(ctx, websocket.MessageText, data); err != nil {
		t.Fatalf("write: %v", err)
	}
}

func TestTrackWebSocketSession(t *testing.T) {
	t.Parallel()

	store := script.NewMemStore()
	sessions := track.NewSessionManager(track.Config{}, nil)
	srv := New(":0", store, sessions, nil)

	doc, err := store.Create(context.Background(), script.Document{
		Title: "demo",
		Text:  "the quick brown fox jumps",
	})
	if err != nil {
		t.Fatalf("seed store: %v", err)
	}

	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/v1/scripts/" + doc.ID + "/track"
	conn, _, err := websocket.Dial(ctx, wsURL, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close(websocket.StatusNormalClosure, "done")

	// Session handshake.
	msg := readServerMessage(ctx, t, conn)
	if msg.Type != "session" || msg.SessionID == "" {
		t.Fatalf("want a session message with an id, got %+v", msg)
	}
	if got := sessions.Count(); got != 1 {
		t.Fatalf("want 1 live session, got %d", got)
	}

	// A recognition event advances the cursor; the client sees the cursor
	// update followed by the match detail.
	ev := mock.FinalEvent("the quick brown", 0.95)
	writeClientMessage(ctx, t, conn, clientMessage{Type: "event", Event: &ev})

	msg = readServerMessage(ctx, t, conn)
	if msg.Type != "cursor" || msg.Position != 3 {
		t.Fatalf("want cursor at 3, got %+v", msg)
	}
	msg = readServerMessage(ctx, t, conn)
	if msg.Type != "match" || msg.Word != "brown" || msg.Advance != 3 {
		t.Fatalf("want match brown/3, got %+v", msg)
	}

	// An explicit jump also notifies.
	writeClientMessage(ctx, t, conn, clientMessage{Type: "set", Position: 1})
	msg = readServerMessage(ctx, t, conn)
	if msg.Type != "cursor" || msg.Position != 1 {
		t.Fatalf("want cursor at 1, got %+v", msg)
	}

	// Restart returns to the top of the script.
	writeClientMessage(ctx, t, conn, clientMessage{Type: "restart"})
	msg = readServerMessage(ctx, t, conn)
	if msg.Type != "cursor" || msg.Position != 0 {
		t.Fatalf("want cursor at 0 after restart, got %+v", msg)
	}

	conn.Close(websocket.StatusNormalClosure, "done")

	// The session is torn down once the connection drops.
	deadline := time.Now().Add(5 * time.Second)
	for sessions.Count() != 0 {
		if time.Now().After(deadline) {
			t.Fatalf("want 0 live sessions after close, got %d", sessions.Count())
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestDispatch(t *testing.T) {
	t.Parallel()

	srv, _ := newTestServer(t)
	tracker := track.NewTracker(script.Parse("the quick brown fox jumps"), track.Config{})

	ev := mock.FinalEvent("the quick", 0.95)
	if err := srv.dispatch(context.Background(), tracker, clientMessage{Type: "event", Event: &ev}); err != nil {
		t.Fatalf("dispatch event: %v", err)
	}
	if got := tracker.Pos(); got != 2 {
		t.Fatalf("want cursor 2, got %d", got)
	}

	if err := srv.dispatch(context.Background(), tracker, clientMessage{Type: "set", Position: 4}); err != nil {
		t.Fatalf("dispatch set: %v", err)
	}
	if got := tracker.Pos(); got != 4 {
		t.Fatalf("want cursor 4, got %d", got)
	}

	if err := srv.dispatch(context.Background(), tracker, clientMessage{Type: "stop"}); err != nil {
		t.Fatalf("dispatch stop: %v", err)
	}
	// Events against a stopped tracker are discarded without error.
	next := mock.FinalEvent("brown fox", 0.95)
	if err := srv.dispatch(context.Background(), tracker, clientMessage{Type: "event", Event: &next}); err != nil {
		t.Fatalf("dispatch event while stopped: %v", err)
	}
	if got := tracker.Pos(); got != 4 {
		t.Fatalf("want cursor unchanged at 4, got %d", got)
	}

	if err := srv.dispatch(context.Background(), tracker, clientMessage{Type: "resume"}); err != nil {
		t.Fatalf("dispatch resume: %v", err)
	}
	if err := srv.dispatch(context.Background(), tracker, clientMessage{Type: "restart"}); err != nil {
		t.Fatalf("dispatch restart: %v", err)
	}
	if got := tracker.Pos(); got != 0 {
		t.Fatalf("want cursor 0 after restart, got %d", got)
	}
}

func TestDispatchRejectsBadMessages(t *testing.T) {
	t.Parallel()

	srv, _ := newTestServer(t)
	tracker := track.NewTracker(script.Parse("one two"), track.Config{})

	if err := srv.dispatch(context.Background(), tracker, clientMessage{Type: "event"}); err == nil {
		t.Fatal("want an error for an event message without a payload")
	}
	err := srv.dispatch(context.Background(), tracker, clientMessage{Type: "mystery"})
	if err == nil {
		t.Fatal("want an error for an unknown message type")
	}
	if !strings.Contains(err.Error(), "mystery") {
		t.Fatalf("want error naming the unknown type, got %v", err)
	}
}
