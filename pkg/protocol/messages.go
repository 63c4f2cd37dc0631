package protocol

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// Wire prefixes for control lines. Any line that matches none of these is a
// plain chat message.
const (
	PrefixColor      = "COLOR:"
	PrefixRooms      = "ROOMS:"
	PrefixUserlist   = "USERLIST:"
	PrefixHistory    = "HISTORY:"
	PrefixUsername   = "USERNAME:"
	PrefixSwitchRoom = "SWITCHROOM:"
	PrefixFile       = "FILE:"
	PrefixFileSize   = "FILESIZE:"
)

// DefaultMaxFileSize is the maximum file payload accepted by a Reader unless
// configured otherwise (16 MiB).
const DefaultMaxFileSize = 16 << 20

var (
	ErrMissingFileSize = errors.New("FILE header not followed by FILESIZE line")
	ErrInvalidFileSize = errors.New("invalid FILESIZE value")
	ErrFileTooLarge    = errors.New("file payload exceeds maximum size")
)

// Command is a decoded client→server message.
type Command interface {
	isCommand()
}

// Chat is a plain chat line (any line without a recognized prefix).
type Chat struct {
	Text string
}

// SetUsername sets or replaces the sender's display name.
type SetUsername struct {
	Name string
}

// SwitchRoom requests a move to another room.
type SwitchRoom struct {
	Room string
}

// FileTransfer carries a complete file payload. It travels in both
// directions: decoded from a client upload and relayed verbatim to the other
// room members.
type FileTransfer struct {
	Name string
	Data []byte
}

func (*Chat) isCommand()         {}
func (*SetUsername) isCommand()  {}
func (*SwitchRoom) isCommand()   {}
func (*FileTransfer) isCommand() {}

// ServerFrame is a decoded server→client message.
type ServerFrame interface {
	isServerFrame()
}

// ColorFrame carries the display color assigned at connect.
type ColorFrame struct {
	Hex string
}

// RoomsFrame carries the full static room list.
type RoomsFrame struct {
	Rooms []string
}

// UserlistFrame carries a full membership snapshot for one room.
type UserlistFrame struct {
	Room  string
	Users []string
}

// HistoryFrame carries a room transcript. The transcript may contain embedded
// newlines; a FrameReader only sees the first physical line, continuation
// lines surface as ChatLine frames (they are themselves formatted chat lines,
// so rendering them as chat is correct).
type HistoryFrame struct {
	Room       string
	Transcript string
}

// ChatLine is a relayed chat or system line.
type ChatLine struct {
	Text string
}

func (*ColorFrame) isServerFrame()    {}
func (*RoomsFrame) isServerFrame()    {}
func (*UserlistFrame) isServerFrame() {}
func (*HistoryFrame) isServerFrame()  {}
func (*ChatLine) isServerFrame()      {}
func (*FileTransfer) isServerFrame()  {}

// FormatColor renders the COLOR frame sent once at connect.
func FormatColor(hex string) string {
	return PrefixColor + hex + "\n"
}

// FormatRooms renders the ROOMS frame sent once at connect.
func FormatRooms(rooms []string) string {
	return PrefixRooms + strings.Join(rooms, ",") + "\n"
}

// FormatUserlist renders a full membership snapshot frame.
func FormatUserlist(room string, users []string) string {
	return PrefixUserlist + room + ":" + strings.Join(users, ",") + "\n"
}

// FormatHistory renders a full transcript frame. The transcript is embedded
// raw, so the frame spans multiple physical lines when the log is non-empty.
func FormatHistory(room, transcript string) string {
	return PrefixHistory + room + ":" + transcript + "\n"
}

// FormatChat renders a chat broadcast payload (no trailing newline; the
// sender appends it on the wire and the bare text goes to the room log).
func FormatChat(color, text string) string {
	return color + ": " + text
}

// FormatUsername renders a client USERNAME frame.
func FormatUsername(name string) string {
	return PrefixUsername + name + "\n"
}

// FormatSwitchRoom renders a client SWITCHROOM frame.
func FormatSwitchRoom(room string) string {
	return PrefixSwitchRoom + room + "\n"
}

// EncodeFile writes a complete file transfer: the FILE and FILESIZE header
// lines followed by exactly len(data) raw bytes with no extra delimiter.
func EncodeFile(w io.Writer, name string, data []byte) error {
	header := PrefixFile + name + "\n" + PrefixFileSize + strconv.Itoa(len(data)) + "\n"
	if _, err := io.WriteString(w, header); err != nil {
		return err
	}
	if len(data) > 0 {
		if _, err := w.Write(data); err != nil {
			return err
		}
	}
	return nil
}

// System notices. All are regular broadcast payloads: delivered with a
// trailing newline and appended bare to the room log.

// JoinChatNotice announces a username being set in the current room.
func JoinChatNotice(color, username, room string) string {
	return fmt.Sprintf("%s: [SYSTEM] %s joined the chat in room %s!", color, username, room)
}

// JoinRoomNotice announces arrival in a room after a switch.
func JoinRoomNotice(color, username, room string) string {
	return fmt.Sprintf("%s: [SYSTEM] %s joined room %s.", color, username, room)
}

// LeaveRoomNotice announces departure from a room before a switch.
func LeaveRoomNotice(color, username, room string) string {
	return fmt.Sprintf("%s: [SYSTEM] %s left room %s.", color, username, room)
}

// LeaveChatNotice announces a disconnect.
func LeaveChatNotice(color, username string) string {
	return fmt.Sprintf("%s: [SYSTEM] %s left the chat.", color, username)
}

// FileNotice announces a completed file relay.
func FileNotice(color, username, filename string) string {
	return fmt.Sprintf("%s: [%s] sent a file: %s", color, username, filename)
}
