package server

import (
	"sync"
)

// DefaultUsername is the placeholder name a session carries until the client
// sends a USERNAME frame.
const DefaultUsername = "Unnamed"

// Session represents an active client connection. The connection handler is
// the only writer of username and room; the registry and broadcast paths
// read them under the session mutex.
type Session struct {
	ID         uint64
	Conn       *SafeConn // connection with write synchronization
	Color      string    // assigned display color, fixed for the session
	RemoteAddr string

	mu       sync.RWMutex // protects username and room
	username string
	room     string
}

// Username returns the current display name.
func (s *Session) Username() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.username
}

// SetUsername replaces the display name in place. Re-sets are allowed.
func (s *Session) SetUsername(name string) {
	s.mu.Lock()
	s.username = name
	s.mu.Unlock()
}

// Room returns the room the session currently belongs to.
func (s *Session) Room() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.room
}

// setRoom is called by the registry while holding the registry lock, so the
// membership table and the session's own room field change together.
func (s *Session) setRoom(room string) {
	s.mu.Lock()
	s.room = room
	s.mu.Unlock()
}
