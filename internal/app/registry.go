package app

import (
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/sketchify/relay/internal/core"
	"github.com/sketchify/relay/internal/domain"
)

// Member pairs a session with its transport endpoint for fan-out.
type Member struct {
	SID  core.SessionID
	Conn core.Conn
}

// Registry owns session-to-transport bindings and room membership.
// All mutations are pure in-memory; the mutex is held only for map access,
// never across a send or a store call.
//
// Invariant: a room is present in rooms iff its member set is non-empty.
type Registry struct {
	mu       sync.RWMutex
	sessions map[core.SessionID]core.Conn
	rooms    map[domain.RoomID]map[core.SessionID]struct{}
}

func NewRegistry() *Registry {
	return &Registry{
		sessions: make(map[core.SessionID]core.Conn),
		rooms:    make(map[domain.RoomID]map[core.SessionID]struct{}),
	}
}

// Bind registers a session's transport. Called once per connection before
// any join is accepted.
func (r *Registry) Bind(sid core.SessionID, conn core.Conn) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[sid] = conn
	log.Info().Str("module", "app.registry").Str("sid", string(sid)).Msg("bound session")
}

// Unbind drops the session's transport binding. Membership cleanup is
// RemoveFromAllRooms; the two are separate so a disconnect race stays a no-op.
func (r *Registry) Unbind(sid core.SessionID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, sid)
	log.Info().Str("module", "app.registry").Str("sid", string(sid)).Msg("unbound session")
}

// Join adds the session to the room, creating the room lazily. Idempotent:
// re-joining is a no-op for the set. Returns the member count for logging.
func (r *Registry) Join(sid core.SessionID, room domain.RoomID) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	members, ok := r.rooms[room]
	if !ok {
		members = make(map[core.SessionID]struct{})
		r.rooms[room] = members
	}
	members[sid] = struct{}{}
	count := len(members)
	log.Info().Str("module", "app.registry").Str("sid", string(sid)).Str("room", string(room)).Int("members", count).Msg("joined room")
	return count
}

// Leave removes the session from the room and deletes the room once empty.
// Absent session or room is a no-op; disconnect races are expected.
func (r *Registry) Leave(sid core.SessionID, room domain.RoomID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	members, ok := r.rooms[room]
	if !ok {
		return
	}
	delete(members, sid)
	if len(members) == 0 {
		delete(r.rooms, room)
		log.Info().Str("module", "app.registry").Str("room", string(room)).Msg("room removed")
	}
	log.Info().Str("module", "app.registry").Str("sid", string(sid)).Str("room", string(room)).Msg("left room")
}

// RemoveFromAllRooms runs the disconnect-side cleanup: the session is dropped
// from every room, and rooms left empty are deleted. Safe when the session
// never joined anything.
func (r *Registry) RemoveFromAllRooms(sid core.SessionID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for room, members := range r.rooms {
		if _, ok := members[sid]; !ok {
			continue
		}
		delete(members, sid)
		if len(members) == 0 {
			delete(r.rooms, room)
			log.Info().Str("module", "app.registry").Str("room", string(room)).Msg("room removed")
		}
	}
	log.Info().Str("module", "app.registry").Str("sid", string(sid)).Msg("removed from all rooms")
}

// IsActive reports whether the room currently has at least one member.
func (r *Registry) IsActive(room domain.RoomID) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.rooms[room]) > 0
}

// MembersOf returns a snapshot of the room's members and their transports.
// Sessions joined but already unbound are skipped.
func (r *Registry) MembersOf(room domain.RoomID) []Member {
	r.mu.RLock()
	defer r.mu.RUnlock()
	members := r.rooms[room]
	out := make([]Member, 0, len(members))
	for sid := range members {
		if conn, ok := r.sessions[sid]; ok {
			out = append(out, Member{SID: sid, Conn: conn})
		}
	}
	return out
}

// Rooms lists active rooms with their member counts.
func (r *Registry) Rooms() []core.RoomInfo {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]core.RoomInfo, 0, len(r.rooms))
	for room, members := range r.rooms {
		out = append(out, core.RoomInfo{Room: room, Members: len(members)})
	}
	return out
}

// CloseAll closes every bound transport so blocked read loops unwind and
// their disconnect cleanup runs. Called on shutdown; closes outside the
// lock since Close may block briefly.
func (r *Registry) CloseAll() {
	r.mu.RLock()
	conns := make([]core.Conn, 0, len(r.sessions))
	for _, conn := range r.sessions {
		conns = append(conns, conn)
	}
	r.mu.RUnlock()
	for _, conn := range conns {
		conn.Close()
	}
	log.Info().Str("module", "app.registry").Int("sessions", len(conns)).Msg("closed all sessions")
}

// Stats returns totals for diagnostics.
func (r *Registry) Stats() (rooms, sessions int) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.rooms), len(r.sessions)
}
