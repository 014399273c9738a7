package realtime

import "log/slog"

// Relay fans a sender's action payload out to the other members of its
// room. Delivery is fire-and-forget: payloads are forwarded verbatim,
// unreachable recipients are skipped, and nothing is ever reported back
// to any client.
type Relay struct {
	registry *Registry
	logger   *slog.Logger
}

// NewRelay creates a relay over the given registry
func NewRelay(registry *Registry, logger *slog.Logger) *Relay {
	return &Relay{
		registry: registry,
		logger:   logger.With(slog.String("component", "relay")),
	}
}

// Relay forwards payload to every member of the sender's room except the
// sender itself. A sender in no room is a silent no-op. A recipient whose
// outbound queue is full is closed rather than allowed to stall the
// broadcast; a closed recipient is skipped silently.
func (r *Relay) Relay(sender *Session, payload []byte) {
	room := r.registry.RoomOf(sender)
	if room == "" {
		return
	}

	for _, member := range r.registry.MembersOf(room) {
		if member == sender {
			continue
		}
		switch member.trySend(payload) {
		case sendOK, sendClosed:
		case sendFull:
			r.logger.Warn("recipient queue overflow, closing session",
				slog.String("session_id", member.id),
				slog.String("room", room))
			member.Close()
		}
	}
}
