package realtime

import (
	"crypto/rand"
	"encoding/base64"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second

	// Send pings to peer with this period (must be less than pongWait)
	pingPeriod = (pongWait * 9) / 10

	// Maximum inbound message size in bytes
	maxMessageSize = 4096

	// Buffer size of the per-session outbound queue
	sendBufferSize = 64
)

// sendResult reports the outcome of a non-blocking delivery attempt
type sendResult int

const (
	sendOK sendResult = iota
	sendClosed
	sendFull
)

// Session is a live connection handle. Its outbound path is a bounded
// queue drained by a dedicated writer goroutine, so a slow recipient
// never blocks a sender. A session holds at most one room membership,
// tracked by the registry.
type Session struct {
	id      string
	subject string // external subject when the client authenticated, else empty
	conn    *websocket.Conn

	send chan []byte
	done chan struct{}
	once sync.Once

	// room is owned by the Registry and guarded by its lock
	room string
}

// NewSession wraps a websocket connection. conn may be nil in tests that
// only exercise queueing.
func NewSession(conn *websocket.Conn, subject string) *Session {
	return &Session{
		id:      generateSessionID(),
		subject: subject,
		conn:    conn,
		send:    make(chan []byte, sendBufferSize),
		done:    make(chan struct{}),
	}
}

// ID returns the session's identifier (for logs)
func (s *Session) ID() string {
	return s.id
}

// Close terminates the session's outbound path. Idempotent.
func (s *Session) Close() {
	s.once.Do(func() {
		close(s.done)
	})
}

// trySend queues a message without blocking. A closed session reports
// sendClosed; a full outbound queue reports sendFull.
func (s *Session) trySend(message []byte) sendResult {
	select {
	case <-s.done:
		return sendClosed
	default:
	}

	select {
	case s.send <- message:
		return sendOK
	case <-s.done:
		return sendClosed
	default:
		return sendFull
	}
}

// writePump drains the outbound queue to the websocket connection and
// keeps the connection alive with pings. One goroutine per session.
func (s *Session) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = s.conn.Close()
	}()

	for {
		select {
		case message := <-s.send:
			_ = s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := s.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			_ = s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := s.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}

		case <-s.done:
			_ = s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			_ = s.conn.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return
		}
	}
}

// generateSessionID generates a short random session id
func generateSessionID() string {
	b := make([]byte, 8)
	_, _ = rand.Read(b)
	return "s_" + base64.RawURLEncoding.EncodeToString(b)
}
