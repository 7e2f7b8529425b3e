package ws

import (
	"encoding/json"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"run-and-gun/server/internal/proto"
	"run-and-gun/server/internal/sim"
	"run-and-gun/server/internal/telemetry"
)

type receivedInput struct {
	id    sim.EntityID
	frame proto.InputFrame
}

type fakeHub struct {
	mu       sync.Mutex
	nextID   sim.EntityID
	sessions []*Session
	full     bool
	inputs   chan receivedInput
}

func newFakeHub() *fakeHub {
	return &fakeHub{inputs: make(chan receivedInput, 16)}
}

func (h *fakeHub) Join(s *Session) (proto.Welcome, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.full {
		return proto.Welcome{}, false
	}
	h.nextID++
	s.ID = h.nextID
	h.sessions = append(h.sessions, s)
	return proto.Welcome{
		Type:            proto.WelcomeType,
		ID:              uint32(s.ID),
		Token:           s.Token,
		TickRate:        60,
		WorldHalfExtent: 24,
		Walls:           []proto.WallRect{{MinX: -1, MaxX: 1, MinZ: -1, MaxZ: 1}},
	}, true
}

func (h *fakeHub) Leave(s *Session) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for i, existing := range h.sessions {
		if existing == s {
			h.sessions = append(h.sessions[:i], h.sessions[i+1:]...)
			return
		}
	}
}

func (h *fakeHub) PushInput(id sim.EntityID, frame proto.InputFrame) bool {
	h.inputs <- receivedInput{id: id, frame: frame}
	return true
}

func (h *fakeHub) session(t *testing.T) *Session {
	t.Helper()
	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		h.mu.Lock()
		if len(h.sessions) > 0 {
			s := h.sessions[0]
			h.mu.Unlock()
			return s
		}
		h.mu.Unlock()
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("no session joined within deadline")
	return nil
}

func dialTestServer(t *testing.T, handler *Handler) *websocket.Conn {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	url := "ws" + strings.TrimPrefix(server.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial failed: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func TestHandshakeDeliversWelcome(t *testing.T) {
	hub := newFakeHub()
	conn := dialTestServer(t, NewHandler(hub, HandlerConfig{}))

	conn.SetReadDeadline(time.Now().Add(time.Second))
	kind, payload, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("reading welcome: %v", err)
	}
	if kind != websocket.TextMessage {
		t.Fatalf("expected text welcome, got message type %d", kind)
	}
	var welcome proto.Welcome
	if err := json.Unmarshal(payload, &welcome); err != nil {
		t.Fatalf("welcome is not valid JSON: %v", err)
	}
	if welcome.Type != proto.WelcomeType || welcome.ID != 1 {
		t.Fatalf("unexpected welcome: %+v", welcome)
	}
	if welcome.Token == "" {
		t.Fatalf("expected a session token")
	}
	if len(welcome.Walls) != 1 {
		t.Fatalf("expected arena geometry in welcome, got %+v", welcome.Walls)
	}
}

func TestInputFramesReachTheHub(t *testing.T) {
	hub := newFakeHub()
	counters := telemetry.NewCounters()
	conn := dialTestServer(t, NewHandler(hub, HandlerConfig{Metrics: counters}))

	conn.SetReadDeadline(time.Now().Add(time.Second))
	if _, _, err := conn.ReadMessage(); err != nil {
		t.Fatalf("reading welcome: %v", err)
	}

	// A short payload must be discarded without killing the session.
	if err := conn.WriteMessage(websocket.BinaryMessage, []byte{1, 2, 3}); err != nil {
		t.Fatalf("writing malformed frame: %v", err)
	}

	want := proto.InputFrame{Seq: 9, MoveX: 0.5, MoveZ: -1, Yaw: 1.25, Fire: true, Jump: true}
	if err := conn.WriteMessage(websocket.BinaryMessage, proto.AppendInput(nil, want)); err != nil {
		t.Fatalf("writing input frame: %v", err)
	}

	select {
	case got := <-hub.inputs:
		if got.id != 1 {
			t.Fatalf("expected input attributed to session 1, got %d", got.id)
		}
		if got.frame != want {
			t.Fatalf("frame mangled in transit:\n got %+v\nwant %+v", got.frame, want)
		}
	case <-time.After(time.Second):
		t.Fatalf("input frame never reached the hub")
	}

	// The read loop is sequential, so by the time the valid frame
	// arrived the malformed one has been counted.
	if got := counters.Load("ws_malformed_frames_total"); got != 1 {
		t.Fatalf("expected 1 malformed frame counted, got %d", got)
	}
}

func TestSnapshotBroadcastReachesClient(t *testing.T) {
	hub := newFakeHub()
	conn := dialTestServer(t, NewHandler(hub, HandlerConfig{}))

	conn.SetReadDeadline(time.Now().Add(time.Second))
	if _, _, err := conn.ReadMessage(); err != nil {
		t.Fatalf("reading welcome: %v", err)
	}

	snapshot := proto.AppendSnapshot(nil, 77, []proto.PlayerRecord{{ID: 1, Health: 100, Active: true}})
	if !hub.session(t).Send(snapshot) {
		t.Fatalf("send queue unexpectedly full")
	}

	kind, payload, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("reading snapshot: %v", err)
	}
	if kind != websocket.BinaryMessage {
		t.Fatalf("expected binary snapshot, got message type %d", kind)
	}
	decoded, err := proto.DecodeSnapshot(payload)
	if err != nil {
		t.Fatalf("snapshot failed to decode: %v", err)
	}
	if decoded.Tick != 77 || len(decoded.Players) != 1 {
		t.Fatalf("unexpected snapshot: %+v", decoded)
	}
}

func TestJoinRejectionClosesConnection(t *testing.T) {
	hub := newFakeHub()
	hub.full = true
	conn := dialTestServer(t, NewHandler(hub, HandlerConfig{}))

	conn.SetReadDeadline(time.Now().Add(time.Second))
	_, _, err := conn.ReadMessage()
	if err == nil {
		t.Fatalf("expected the connection to be closed")
	}
	if !websocket.IsCloseError(err, websocket.ClosePolicyViolation) {
		t.Fatalf("expected policy violation close, got %v", err)
	}
}
