package ws

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"run-and-gun/server/internal/sim"
	"run-and-gun/server/internal/telemetry"
)

const (
	// sendQueueSize bounds per-session outbound backlog. A client that
	// cannot keep up with the snapshot cadence loses frames, not the
	// whole connection.
	sendQueueSize = 8

	writeTimeout = 5 * time.Second
)

const sendDropMetricKey = "ws_send_drop_total"

type outMessage struct {
	kind int
	data []byte
}

// Session is one connected client. The read side runs on the handler
// goroutine; all writes funnel through the pump so the tick broadcast
// never blocks on a slow socket.
type Session struct {
	ID    sim.EntityID
	Token string

	conn    *websocket.Conn
	send    chan outMessage
	metrics telemetry.Metrics

	closeOnce sync.Once
	done      chan struct{}
}

func newSession(conn *websocket.Conn, token string, metrics telemetry.Metrics) *Session {
	return &Session{
		Token:   token,
		conn:    conn,
		send:    make(chan outMessage, sendQueueSize),
		metrics: metrics,
		done:    make(chan struct{}),
	}
}

// Send queues a binary snapshot frame. Returns false when the session's
// queue is full; the frame is dropped because a newer one is always on
// the way.
func (s *Session) Send(data []byte) bool {
	return s.enqueue(outMessage{kind: websocket.BinaryMessage, data: data})
}

// SendText queues a JSON control message.
func (s *Session) SendText(data []byte) bool {
	return s.enqueue(outMessage{kind: websocket.TextMessage, data: data})
}

func (s *Session) enqueue(msg outMessage) bool {
	if s == nil {
		return false
	}
	select {
	case <-s.done:
		return false
	default:
	}
	select {
	case s.send <- msg:
		return true
	default:
		if s.metrics != nil {
			s.metrics.Add(sendDropMetricKey, 1)
		}
		return false
	}
}

// Close tears the connection down; safe to call from any goroutine and
// more than once.
func (s *Session) Close() {
	if s == nil {
		return
	}
	s.closeOnce.Do(func() {
		close(s.done)
		s.conn.Close()
	})
}

// writePump drains the send queue onto the socket until the session
// closes or a write fails.
func (s *Session) writePump() {
	for {
		select {
		case <-s.done:
			return
		case msg := <-s.send:
			s.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := s.conn.WriteMessage(msg.kind, msg.data); err != nil {
				s.Close()
				return
			}
		}
	}
}
