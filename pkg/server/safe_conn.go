package server

import (
	"net"
	"sync"
	"time"

	"github.com/refteen/chatrelay/pkg/protocol"
)

// SafeConn wraps a net.Conn with automatic write synchronization to prevent
// concurrent writes from corrupting the wire protocol.
//
// Under load, multiple goroutines (the session's own handler and broadcast
// senders from other handlers) may try to write to the same connection
// simultaneously. Without synchronization their frames interleave on the
// wire; with file transfers that also splits a header from its payload.
//
// Every write carries a deadline, so a stuck peer turns into a write error
// for that recipient instead of stalling the broadcaster.
type SafeConn struct {
	conn         net.Conn
	mu           sync.Mutex // protects writes to conn
	writeTimeout time.Duration
}

// NewSafeConn wraps a net.Conn. A writeTimeout of 0 disables write deadlines.
func NewSafeConn(conn net.Conn, writeTimeout time.Duration) *SafeConn {
	return &SafeConn{
		conn:         conn,
		writeTimeout: writeTimeout,
	}
}

// Read reads from the underlying connection. Reads don't need write
// synchronization: the session's handler is the only reader.
func (sc *SafeConn) Read(p []byte) (int, error) {
	return sc.conn.Read(p)
}

// WriteString sends a pre-formatted frame (already newline-terminated where
// the protocol requires it) with write synchronization.
func (sc *SafeConn) WriteString(frame string) error {
	sc.mu.Lock()
	defer sc.mu.Unlock()

	sc.armDeadline()
	_, err := sc.conn.Write([]byte(frame))
	return err
}

// WriteFile sends a complete file transfer. Header lines and payload go out
// under one lock acquisition so no other frame can split them.
func (sc *SafeConn) WriteFile(name string, data []byte) error {
	sc.mu.Lock()
	defer sc.mu.Unlock()

	sc.armDeadline()
	return protocol.EncodeFile(sc.conn, name, data)
}

func (sc *SafeConn) armDeadline() {
	if sc.writeTimeout > 0 {
		sc.conn.SetWriteDeadline(time.Now().Add(sc.writeTimeout))
	}
}

// Close closes the underlying connection.
func (sc *SafeConn) Close() error {
	return sc.conn.Close()
}

// RemoteAddr returns the remote network address.
func (sc *SafeConn) RemoteAddr() net.Addr {
	return sc.conn.RemoteAddr()
}
