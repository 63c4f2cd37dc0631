// Package roomlog persists per-room chat transcripts as append-only UTF-8
// text files, one logical message per line, keyed by room name. Files are
// created lazily on first append and are never rotated or truncated.
package roomlog

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// Store owns the log directory. Appends to the same room are serialized so
// concurrent broadcasts never interleave partial lines; reads take the same
// lock so history snapshots see whole lines only.
type Store struct {
	dir string

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewStore creates a store rooted at dir, creating the directory if needed.
func NewStore(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}
	return &Store{
		dir:   dir,
		locks: make(map[string]*sync.Mutex),
	}, nil
}

// roomLock returns the append lock for a room, creating it on first use.
func (s *Store) roomLock(room string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()

	lock, ok := s.locks[room]
	if !ok {
		lock = &sync.Mutex{}
		s.locks[room] = lock
	}
	return lock
}

func (s *Store) path(room string) string {
	return filepath.Join(s.dir, room+".log")
}

// Append writes one newline-terminated message to the room's log. The file
// handle is opened and closed per write; the per-room lock keeps concurrent
// appends whole-line atomic.
func (s *Store) Append(room, message string) error {
	lock := s.roomLock(room)
	lock.Lock()
	defer lock.Unlock()

	f, err := os.OpenFile(s.path(room), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("failed to open log for %s: %w", room, err)
	}
	defer f.Close()

	if _, err := f.WriteString(message + "\n"); err != nil {
		return fmt.Errorf("failed to append to log for %s: %w", room, err)
	}
	return nil
}

// History returns the full transcript for a room. A room that has never been
// written to yields the empty string; reading never mutates the log.
func (s *Store) History(room string) (string, error) {
	lock := s.roomLock(room)
	lock.Lock()
	defer lock.Unlock()

	data, err := os.ReadFile(s.path(room))
	if err != nil {
		if os.IsNotExist(err) {
			return "", nil
		}
		return "", fmt.Errorf("failed to read log for %s: %w", room, err)
	}
	return string(data), nil
}
