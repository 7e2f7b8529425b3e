// Package ws is the websocket transport: one goroutine pair per client,
// a JSON handshake, then binary input frames inbound and binary
// snapshots outbound.
package ws

import (
	"encoding/json"
	nethttp "net/http"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"run-and-gun/server/internal/proto"
	"run-and-gun/server/internal/sim"
	"run-and-gun/server/internal/telemetry"
)

const (
	connectMetricKey    = "ws_connections_total"
	disconnectMetricKey = "ws_disconnects_total"
	malformedMetricKey  = "ws_malformed_frames_total"

	// maxFrameSize generously bounds inbound reads; a legal input frame
	// is a fixed 23 bytes.
	maxFrameSize = 256
)

// Hub is what the transport needs from the game server. Implemented by
// the top-level hub; declared here so the transport does not import it.
type Hub interface {
	// Join admits the session, assigns its entity id and token fields,
	// and returns the handshake payload. ok is false when the server is
	// at capacity.
	Join(s *Session) (welcome proto.Welcome, ok bool)
	// Leave removes a session admitted by Join.
	Leave(s *Session)
	// PushInput stages one decoded input frame for the session's entity.
	PushInput(id sim.EntityID, frame proto.InputFrame) bool
}

// HandlerConfig carries the optional collaborators for a Handler.
type HandlerConfig struct {
	Logger  telemetry.Logger
	Metrics telemetry.Metrics
}

// Handler upgrades HTTP requests and runs the per-session read loop.
type Handler struct {
	hub      Hub
	logger   telemetry.Logger
	metrics  telemetry.Metrics
	upgrader websocket.Upgrader
}

// NewHandler constructs the websocket endpoint for the given hub.
func NewHandler(hub Hub, cfg HandlerConfig) *Handler {
	return &Handler{
		hub:     hub,
		logger:  cfg.Logger,
		metrics: cfg.Metrics,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *nethttp.Request) bool {
				return true
			},
		},
	}
}

func (h *Handler) ServeHTTP(w nethttp.ResponseWriter, r *nethttp.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logf("upgrade failed for %s: %v", r.RemoteAddr, err)
		return
	}
	conn.SetReadLimit(maxFrameSize)

	session := newSession(conn, uuid.NewString(), h.metrics)
	welcome, ok := h.hub.Join(session)
	if !ok {
		message := websocket.FormatCloseMessage(websocket.ClosePolicyViolation, "server full")
		conn.WriteMessage(websocket.CloseMessage, message)
		conn.Close()
		return
	}
	if h.metrics != nil {
		h.metrics.Add(connectMetricKey, 1)
	}

	go session.writePump()

	payload, err := json.Marshal(welcome)
	if err != nil {
		h.logf("failed to marshal welcome for %d: %v", session.ID, err)
		h.drop(session)
		return
	}
	if !session.SendText(payload) {
		h.drop(session)
		return
	}
	h.logf("session %d connected from %s", session.ID, r.RemoteAddr)

	for {
		kind, data, err := conn.ReadMessage()
		if err != nil {
			h.drop(session)
			return
		}
		if kind != websocket.BinaryMessage {
			h.discard(session, "non-binary message")
			continue
		}
		frame, ok := proto.DecodeInput(data)
		if !ok {
			h.discard(session, "short input frame")
			continue
		}
		h.hub.PushInput(session.ID, frame)
	}
}

func (h *Handler) drop(session *Session) {
	h.hub.Leave(session)
	session.Close()
	if h.metrics != nil {
		h.metrics.Add(disconnectMetricKey, 1)
	}
	h.logf("session %d disconnected", session.ID)
}

func (h *Handler) discard(session *Session, reason string) {
	if h.metrics != nil {
		h.metrics.Add(malformedMetricKey, 1)
	}
	h.logf("discarding %s from session %d", reason, session.ID)
}

func (h *Handler) logf(format string, args ...any) {
	if h.logger != nil {
		h.logger.Printf(format, args...)
	}
}
