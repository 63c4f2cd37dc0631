package server

import (
	"errors"
	"sync"
)

// ErrRoomNotFound is returned for operations naming a room outside the fixed
// set. Rooms are never created implicitly.
var ErrRoomNotFound = errors.New("unknown room")

// RoomRegistry is the single source of truth for room membership. The room
// set is fixed at construction; per room it keeps the member list in join
// order. One RWMutex covers the whole table: mutations (join/leave/move)
// serialize, snapshots see either the pre- or post-state of a move, never
// the torn middle. No lock is ever held across a socket write — callers
// snapshot, release, then send.
type RoomRegistry struct {
	mu      sync.RWMutex
	names   []string
	members map[string][]*Session
}

// NewRoomRegistry creates a registry with the given fixed room set.
func NewRoomRegistry(names []string) *RoomRegistry {
	members := make(map[string][]*Session, len(names))
	for _, name := range names {
		members[name] = nil
	}
	return &RoomRegistry{
		names:   append([]string(nil), names...),
		members: members,
	}
}

// RoomNames returns the fixed room identifiers in registration order.
func (r *RoomRegistry) RoomNames() []string {
	return append([]string(nil), r.names...)
}

// Has reports whether room is part of the fixed set.
func (r *RoomRegistry) Has(room string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.members[room]
	return ok
}

// Join appends the session to the room's member list. The membership entry
// is visible to broadcasts and userlist snapshots as soon as Join returns.
func (r *RoomRegistry) Join(room string, sess *Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.members[room]; !ok {
		return ErrRoomNotFound
	}
	r.members[room] = append(r.members[room], sess)
	sess.setRoom(room)
	return nil
}

// Leave removes the session from the room's member list. Removing a session
// that is not a member is a no-op, not an error.
func (r *RoomRegistry) Leave(room string, sess *Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.members[room]; !ok {
		return ErrRoomNotFound
	}
	r.removeLocked(room, sess)
	return nil
}

// Move transfers the session between rooms atomically: a concurrent snapshot
// of either room observes the session in exactly one of the two.
func (r *RoomRegistry) Move(sess *Session, from, to string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.members[from]; !ok {
		return ErrRoomNotFound
	}
	if _, ok := r.members[to]; !ok {
		return ErrRoomNotFound
	}

	r.removeLocked(from, sess)
	r.members[to] = append(r.members[to], sess)
	sess.setRoom(to)
	return nil
}

// SnapshotMembers returns a copy of the room's member list at call time, in
// join order, safe to iterate while other handlers mutate membership.
func (r *RoomRegistry) SnapshotMembers(room string) ([]*Session, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	members, ok := r.members[room]
	if !ok {
		return nil, ErrRoomNotFound
	}
	return append([]*Session(nil), members...), nil
}

// Remove takes the session out of whichever room currently holds it and
// reports that room. Used by the disconnect path, which cannot trust the
// session's own room field once the handler is tearing down.
func (r *RoomRegistry) Remove(sess *Session) (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, room := range r.names {
		for _, member := range r.members[room] {
			if member == sess {
				r.removeLocked(room, sess)
				return room, true
			}
		}
	}
	return "", false
}

// Sessions returns every connected session across all rooms.
func (r *RoomRegistry) Sessions() []*Session {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var sessions []*Session
	for _, room := range r.names {
		sessions = append(sessions, r.members[room]...)
	}
	return sessions
}

// SessionCount returns the number of connected sessions.
func (r *RoomRegistry) SessionCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	count := 0
	for _, members := range r.members {
		count += len(members)
	}
	return count
}

// removeLocked removes the first member entry matching the session identity.
// Caller holds r.mu.
func (r *RoomRegistry) removeLocked(room string, sess *Session) {
	members := r.members[room]
	for i, member := range members {
		if member == sess {
			r.members[room] = append(members[:i], members[i+1:]...)
			return
		}
	}
}
