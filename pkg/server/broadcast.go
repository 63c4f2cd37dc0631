package server

import (
	"github.com/refteen/chatrelay/pkg/protocol"
)

// broadcast delivers text (newline-appended on the wire) to every member of
// room except exclude, then appends the bare text to the room's log exactly
// once. Per-recipient write failures are counted and swallowed; delivery to
// the remaining members continues and the failed session stays in the room —
// only its own read path may evict it.
func (s *Server) broadcast(room, text string, exclude *Session) {
	members, err := s.registry.SnapshotMembers(room)
	if err != nil {
		debugLog.Printf("Broadcast to %s dropped: %v", room, err)
		return
	}

	frame := text + "\n"
	for _, member := range members {
		if member == exclude {
			continue
		}
		if err := member.Conn.WriteString(frame); err != nil {
			s.recordDrop(member, err)
			continue
		}
		if s.metrics != nil {
			s.metrics.RecordFrameSent("chat")
		}
	}

	if len(members) > 0 {
		if err := s.logs.Append(room, text); err != nil {
			errorLog.Printf("Failed to append to %s log: %v", room, err)
		}
	}
}

// sendUserlist sends every member of room a full membership snapshot frame.
// This is a complete resend to all members, not a delta.
func (s *Server) sendUserlist(room string) {
	members, err := s.registry.SnapshotMembers(room)
	if err != nil {
		debugLog.Printf("Userlist for %s dropped: %v", room, err)
		return
	}

	users := make([]string, len(members))
	for i, member := range members {
		users[i] = member.Username()
	}
	frame := protocol.FormatUserlist(room, users)

	for _, member := range members {
		if err := member.Conn.WriteString(frame); err != nil {
			s.recordDrop(member, err)
			continue
		}
		if s.metrics != nil {
			s.metrics.RecordFrameSent("userlist")
		}
	}
}

// sendHistory sends the full persisted transcript of room to one session.
func (s *Server) sendHistory(sess *Session, room string) {
	history, err := s.logs.History(room)
	if err != nil {
		errorLog.Printf("Failed to read %s log: %v", room, err)
		history = ""
	}

	if err := sess.Conn.WriteString(protocol.FormatHistory(room, history)); err != nil {
		s.recordDrop(sess, err)
		return
	}
	if s.metrics != nil {
		s.metrics.RecordFrameSent("history")
	}
}

// relayFile forwards a complete file transfer (header lines plus raw
// payload) to every member of room except the sender. The binary payload is
// never logged; the caller broadcasts the text notice separately.
func (s *Server) relayFile(room string, ft *protocol.FileTransfer, sender *Session) {
	members, err := s.registry.SnapshotMembers(room)
	if err != nil {
		debugLog.Printf("File relay to %s dropped: %v", room, err)
		return
	}

	recipients := 0
	for _, member := range members {
		if member == sender {
			continue
		}
		if err := member.Conn.WriteFile(ft.Name, ft.Data); err != nil {
			s.recordDrop(member, err)
			continue
		}
		recipients++
		if s.metrics != nil {
			s.metrics.RecordFrameSent("file")
		}
	}

	if s.metrics != nil {
		s.metrics.RecordFileRelayed(len(ft.Data), recipients)
	}
}

func (s *Server) recordDrop(member *Session, err error) {
	if s.metrics != nil {
		s.metrics.RecordBroadcastDrop()
	}
	debugLog.Printf("Session %d: delivery dropped: %v", member.ID, err)
}
