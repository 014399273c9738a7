package realtime

import (
	"log/slog"
	"sync"
)

// Registry is the in-memory room membership map. Rooms exist only as
// live sets of sessions: a room appears on first join and disappears
// when its last member leaves. All operations are atomic with respect
// to each other, so broadcast iteration never observes a torn set.
type Registry struct {
	logger *slog.Logger

	mu    sync.RWMutex
	rooms map[string]map[*Session]struct{}
}

// NewRegistry creates an empty room registry
func NewRegistry(logger *slog.Logger) *Registry {
	return &Registry{
		logger: logger.With(slog.String("component", "registry")),
		rooms:  make(map[string]map[*Session]struct{}),
	}
}

// Join adds a session to a room, creating the room if needed. A session
// already in another room is removed from it first, so it can never
// linger as a ghost member of a room it no longer listens to.
func (r *Registry) Join(session *Session, roomID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if session.room == roomID {
		return
	}
	if session.room != "" {
		r.removeLocked(session)
	}

	members, ok := r.rooms[roomID]
	if !ok {
		members = make(map[*Session]struct{})
		r.rooms[roomID] = members
	}
	members[session] = struct{}{}
	session.room = roomID

	r.logger.Info("session joined room",
		slog.String("session_id", session.id),
		slog.String("room", roomID),
		slog.Int("members", len(members)))
}

// Leave removes a session from its current room, dropping the room
// entirely once empty. Idempotent; a no-op for sessions in no room.
// Always invoked on disconnect.
func (r *Registry) Leave(session *Session) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if session.room == "" {
		return
	}
	room := session.room
	r.removeLocked(session)

	r.logger.Info("session left room",
		slog.String("session_id", session.id),
		slog.String("room", room))
}

// removeLocked detaches a session from its room. Caller holds the lock.
func (r *Registry) removeLocked(session *Session) {
	members, ok := r.rooms[session.room]
	if ok {
		delete(members, session)
		if len(members) == 0 {
			delete(r.rooms, session.room)
		}
	}
	session.room = ""
}

// MembersOf returns a snapshot of a room's members for iteration
func (r *Registry) MembersOf(roomID string) []*Session {
	r.mu.RLock()
	defer r.mu.RUnlock()

	members := r.rooms[roomID]
	snapshot := make([]*Session, 0, len(members))
	for session := range members {
		snapshot = append(snapshot, session)
	}
	return snapshot
}

// RoomOf returns the room a session is currently in, or "" for none
func (r *Registry) RoomOf(session *Session) string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return session.room
}

// RoomCount returns the number of live rooms
func (r *Registry) RoomCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.rooms)
}

// Close tears the registry down, closing every live session. Called at
// process shutdown.
func (r *Registry) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()

	count := 0
	for _, members := range r.rooms {
		for session := range members {
			session.room = ""
			session.Close()
			count++
		}
	}
	r.rooms = make(map[string]map[*Session]struct{})

	r.logger.Info("registry closed", slog.Int("disconnected_sessions", count))
}
