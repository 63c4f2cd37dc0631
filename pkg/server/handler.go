package server

import (
	"errors"
	"io"
	"net"
	"sync/atomic"

	"github.com/refteen/chatrelay/pkg/protocol"
)

// handleConnection runs the full lifecycle of one client connection. It is
// the only goroutine that reads from the socket and the only writer of the
// session's username and room.
func (s *Server) handleConnection(conn net.Conn) {
	// Disable Nagle's algorithm for immediate sends
	if tcpConn, ok := conn.(*net.TCPConn); ok {
		tcpConn.SetNoDelay(true)
	}

	sess := &Session{
		ID:         atomic.AddUint64(&s.nextSessionID, 1),
		Conn:       NewSafeConn(conn, s.config.WriteTimeout),
		Color:      pickColor(s.config.Palette),
		RemoteAddr: conn.RemoteAddr().String(),
		username:   DefaultUsername,
	}

	s.connectionsSinceReport.Add(1)
	if s.metrics != nil {
		s.metrics.RecordSessionConnected()
	}
	debugLog.Printf("New connection from %s (session %d)", sess.RemoteAddr, sess.ID)

	if err := s.greet(sess); err != nil {
		debugLog.Printf("Session %d: greeting failed: %v", sess.ID, err)
		s.disconnect(sess, err)
		return
	}

	s.messageLoop(sess)
}

// greet places the session in the default room and sends the connect
// sequence: COLOR, ROOMS, then the default room's userlist and history.
func (s *Server) greet(sess *Session) error {
	if err := s.registry.Join(s.config.DefaultRoom, sess); err != nil {
		return err
	}
	if s.metrics != nil {
		s.metrics.RecordActiveSessions(s.registry.SessionCount())
	}

	if err := sess.Conn.WriteString(protocol.FormatColor(sess.Color)); err != nil {
		return err
	}
	if err := sess.Conn.WriteString(protocol.FormatRooms(s.registry.RoomNames())); err != nil {
		return err
	}

	s.sendUserlist(s.config.DefaultRoom)
	s.sendHistory(sess, s.config.DefaultRoom)
	return nil
}

// messageLoop decodes and dispatches commands until the read path fails.
func (s *Server) messageLoop(sess *Session) {
	reader := protocol.NewReader(sess.Conn, s.config.MaxFileSize)

	for {
		cmd, err := reader.Next()
		if err != nil {
			s.disconnect(sess, err)
			return
		}

		switch c := cmd.(type) {
		case *protocol.SetUsername:
			if s.metrics != nil {
				s.metrics.RecordCommand("username")
			}
			s.handleSetUsername(sess, c)
		case *protocol.SwitchRoom:
			if s.metrics != nil {
				s.metrics.RecordCommand("switchroom")
			}
			s.handleSwitchRoom(sess, c)
		case *protocol.FileTransfer:
			if s.metrics != nil {
				s.metrics.RecordCommand("file")
			}
			s.handleFileTransfer(sess, c)
		case *protocol.Chat:
			if s.metrics != nil {
				s.metrics.RecordCommand("chat")
			}
			s.handleChat(sess, c)
		}
	}
}

// handleSetUsername replaces the display name in place, announces it to the
// current room and resends the room's userlist.
func (s *Server) handleSetUsername(sess *Session, cmd *protocol.SetUsername) {
	sess.SetUsername(cmd.Name)
	room := sess.Room()

	s.broadcast(room, protocol.JoinChatNotice(sess.Color, cmd.Name, room), sess)
	s.sendUserlist(room)
}

// handleSwitchRoom moves the session between rooms. Unknown targets and
// no-op switches are silently ignored.
func (s *Server) handleSwitchRoom(sess *Session, cmd *protocol.SwitchRoom) {
	current := sess.Room()
	target := cmd.Room
	if target == current || !s.registry.Has(target) {
		debugLog.Printf("Session %d: switch to %q ignored", sess.ID, target)
		return
	}

	username := sess.Username()
	s.broadcast(current, protocol.LeaveRoomNotice(sess.Color, username, current), sess)

	if err := s.registry.Move(sess, current, target); err != nil {
		debugLog.Printf("Session %d: move %s → %s failed: %v", sess.ID, current, target, err)
		return
	}

	s.broadcast(target, protocol.JoinRoomNotice(sess.Color, username, target), sess)
	s.sendUserlist(target)
	s.sendUserlist(current)
	s.sendHistory(sess, target)
}

// handleFileTransfer relays the payload to the other room members and
// broadcasts the text notice. Only the notice reaches the room log.
func (s *Server) handleFileTransfer(sess *Session, ft *protocol.FileTransfer) {
	room := sess.Room()
	s.relayFile(room, ft, sess)
	s.broadcast(room, protocol.FileNotice(sess.Color, sess.Username(), ft.Name), sess)
}

func (s *Server) handleChat(sess *Session, cmd *protocol.Chat) {
	s.broadcast(sess.Room(), protocol.FormatChat(sess.Color, cmd.Text), sess)
}

// disconnect is the single teardown path: remove the session from whichever
// room holds it, close the socket, and tell the remaining members.
func (s *Server) disconnect(sess *Session, cause error) {
	room, wasMember := s.registry.Remove(sess)
	sess.Conn.Close()

	s.disconnectionsSinceReport.Add(1)
	if s.metrics != nil {
		s.metrics.RecordSessionDisconnected()
		s.metrics.RecordActiveSessions(s.registry.SessionCount())
	}

	if errors.Is(cause, io.EOF) {
		debugLog.Printf("Session %d: client disconnected", sess.ID)
	} else {
		debugLog.Printf("Session %d: read error: %v", sess.ID, cause)
	}

	if wasMember {
		// The session is already out of the member list, so no exclusion is
		// needed and the notice is only logged if anyone remains.
		s.broadcast(room, protocol.LeaveChatNotice(sess.Color, sess.Username()), nil)
		s.sendUserlist(room)
	}
}
