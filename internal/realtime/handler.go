package realtime

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"github.com/petrhn/arena-server/internal/services/identity"
)

// DefaultRoom is the room joined when a join message names none
const DefaultRoom = "global"

// envelope is the minimal frame shape the wire contract recognizes.
// Anything else in the frame is opaque and relayed untouched.
type envelope struct {
	Type string `json:"type"`
	Room string `json:"room"`
}

// Handler upgrades HTTP requests to websocket sessions and runs the
// per-session message loop. A bearer token (header or ?token= query
// parameter) is verified when present; the channel itself is open to
// unauthenticated clients since rooms carry no progression state.
type Handler struct {
	registry    *Registry
	relay       *Relay
	verifier    identity.Verifier
	logger      *slog.Logger
	defaultRoom string
	upgrader    websocket.Upgrader
}

// HandlerConfig holds configuration for the websocket handler
type HandlerConfig struct {
	Registry *Registry
	Relay    *Relay
	Verifier identity.Verifier
	Logger   *slog.Logger
	// DefaultRoom overrides DefaultRoom when non-empty
	DefaultRoom string
	// CheckOrigin overrides the upgrader's origin policy (nil allows all,
	// matching the CORS posture of the HTTP API)
	CheckOrigin func(r *http.Request) bool
}

// NewHandler creates a websocket handler
func NewHandler(cfg HandlerConfig) *Handler {
	defaultRoom := cfg.DefaultRoom
	if defaultRoom == "" {
		defaultRoom = DefaultRoom
	}

	checkOrigin := cfg.CheckOrigin
	if checkOrigin == nil {
		checkOrigin = func(*http.Request) bool { return true }
	}

	return &Handler{
		registry:    cfg.Registry,
		relay:       cfg.Relay,
		verifier:    cfg.Verifier,
		logger:      cfg.Logger.With(slog.String("component", "ws")),
		defaultRoom: defaultRoom,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     checkOrigin,
		},
	}
}

// ServeHTTP upgrades the connection and runs the session until disconnect
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	subject := h.authenticate(r)

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already wrote an HTTP error response
		h.logger.Warn("websocket upgrade failed", slog.String("error", err.Error()))
		return
	}

	session := NewSession(conn, subject)
	h.logger.Info("session connected",
		slog.String("session_id", session.ID()),
		slog.String("subject", subject))

	go session.writePump()
	h.readPump(session)
}

// authenticate extracts and verifies an optional bearer token, returning
// the verified subject or "" for an anonymous session
func (h *Handler) authenticate(r *http.Request) string {
	token := r.URL.Query().Get("token")
	if token == "" {
		if auth := r.Header.Get("Authorization"); strings.HasPrefix(auth, "Bearer ") {
			token = strings.TrimPrefix(auth, "Bearer ")
		}
	}
	if token == "" || h.verifier == nil {
		return ""
	}

	ident, err := h.verifier.Verify(r.Context(), token)
	if err != nil {
		return ""
	}
	return ident.Subject
}

// readPump reads frames until the connection drops. Disconnect always
// leaves the session's room, regardless of message history.
func (h *Handler) readPump(session *Session) {
	defer func() {
		h.registry.Leave(session)
		session.Close()
		h.logger.Info("session disconnected", slog.String("session_id", session.ID()))
	}()

	session.conn.SetReadLimit(maxMessageSize)
	_ = session.conn.SetReadDeadline(time.Now().Add(pongWait))
	session.conn.SetPongHandler(func(string) error {
		return session.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, raw, err := session.conn.ReadMessage()
		if err != nil {
			return
		}
		h.handleMessage(session, raw)
	}
}

// handleMessage dispatches one inbound frame. Unparseable frames and
// unrecognized message types are dropped silently per the wire contract.
func (h *Handler) handleMessage(session *Session, raw []byte) {
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		h.logger.Debug("dropped unparseable frame", slog.String("session_id", session.ID()))
		return
	}

	switch env.Type {
	case "join":
		room := env.Room
		if room == "" {
			room = h.defaultRoom
		}
		h.registry.Join(session, room)

	case "action":
		h.relay.Relay(session, raw)

	default:
		h.logger.Debug("dropped unrecognized message",
			slog.String("session_id", session.ID()),
			slog.String("type", env.Type))
	}
}
