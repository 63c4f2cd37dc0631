package protocol

import (
	"bufio"
	"errors"
	"io"
	"strconv"
	"strings"
)

// lineReader is the shared decoding core: newline-delimited UTF-8 text lines,
// except immediately after a FILE header, where the stream switches to a
// FILESIZE line followed by exactly that many raw bytes. The mode switch is
// explicit — payload bytes are never scanned for newlines.
type lineReader struct {
	br          *bufio.Reader
	maxFileSize int64
}

// readLine returns the next line with the trailing newline (and any
// surrounding whitespace, including CR) trimmed. A trailing partial line at
// EOF is returned before the EOF surfaces on the following call.
func (lr *lineReader) readLine() (string, error) {
	line, err := lr.br.ReadString('\n')
	if err != nil {
		trimmed := strings.TrimSpace(line)
		if errors.Is(err, io.EOF) && trimmed != "" {
			return trimmed, nil
		}
		return "", err
	}
	return strings.TrimSpace(line), nil
}

// readFileTransfer consumes the FILESIZE line and the raw payload following a
// FILE header. Any failure here is fatal for the stream: a short read means
// the payload boundary is lost and no further decoding is possible.
func (lr *lineReader) readFileTransfer(name string) (*FileTransfer, error) {
	sizeLine, err := lr.readLine()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, io.ErrUnexpectedEOF
		}
		return nil, err
	}
	if !strings.HasPrefix(sizeLine, PrefixFileSize) {
		return nil, ErrMissingFileSize
	}

	size, err := strconv.ParseInt(strings.TrimPrefix(sizeLine, PrefixFileSize), 10, 64)
	if err != nil || size < 0 {
		return nil, ErrInvalidFileSize
	}
	if size > lr.maxFileSize {
		return nil, ErrFileTooLarge
	}

	data := make([]byte, size)
	if _, err := io.ReadFull(lr.br, data); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, io.ErrUnexpectedEOF
		}
		return nil, err
	}
	return &FileTransfer{Name: name, Data: data}, nil
}

// Reader decodes the client→server side of the stream.
type Reader struct {
	lineReader
}

// NewReader creates a Reader. maxFileSize of 0 selects DefaultMaxFileSize.
func NewReader(r io.Reader, maxFileSize int64) *Reader {
	if maxFileSize <= 0 {
		maxFileSize = DefaultMaxFileSize
	}
	return &Reader{lineReader{br: bufio.NewReader(r), maxFileSize: maxFileSize}}
}

// Next returns the next decoded command. Empty lines are skipped. Errors are
// fatal for the stream: after a non-nil error the decoder state is undefined
// and the caller must drop to disconnect handling.
func (r *Reader) Next() (Command, error) {
	for {
		line, err := r.readLine()
		if err != nil {
			return nil, err
		}
		if line == "" {
			continue
		}

		switch {
		case strings.HasPrefix(line, PrefixUsername):
			return &SetUsername{Name: strings.TrimPrefix(line, PrefixUsername)}, nil
		case strings.HasPrefix(line, PrefixSwitchRoom):
			return &SwitchRoom{Room: strings.TrimPrefix(line, PrefixSwitchRoom)}, nil
		case strings.HasPrefix(line, PrefixFile):
			return r.readFileTransfer(strings.TrimPrefix(line, PrefixFile))
		default:
			return &Chat{Text: line}, nil
		}
	}
}

// FrameReader decodes the server→client side of the stream.
type FrameReader struct {
	lineReader
}

// NewFrameReader creates a FrameReader. maxFileSize of 0 selects
// DefaultMaxFileSize.
func NewFrameReader(r io.Reader, maxFileSize int64) *FrameReader {
	if maxFileSize <= 0 {
		maxFileSize = DefaultMaxFileSize
	}
	return &FrameReader{lineReader{br: bufio.NewReader(r), maxFileSize: maxFileSize}}
}

// Next returns the next decoded server frame. Empty lines are skipped.
func (r *FrameReader) Next() (ServerFrame, error) {
	for {
		line, err := r.readLine()
		if err != nil {
			return nil, err
		}
		if line == "" {
			continue
		}

		switch {
		case strings.HasPrefix(line, PrefixColor):
			return &ColorFrame{Hex: strings.TrimPrefix(line, PrefixColor)}, nil
		case strings.HasPrefix(line, PrefixRooms):
			return &RoomsFrame{Rooms: splitList(strings.TrimPrefix(line, PrefixRooms))}, nil
		case strings.HasPrefix(line, PrefixUserlist):
			room, users := splitRoomPayload(strings.TrimPrefix(line, PrefixUserlist))
			return &UserlistFrame{Room: room, Users: splitList(users)}, nil
		case strings.HasPrefix(line, PrefixHistory):
			room, transcript := splitRoomPayload(strings.TrimPrefix(line, PrefixHistory))
			return &HistoryFrame{Room: room, Transcript: transcript}, nil
		case strings.HasPrefix(line, PrefixFile):
			return r.readFileTransfer(strings.TrimPrefix(line, PrefixFile))
		default:
			return &ChatLine{Text: line}, nil
		}
	}
}

// splitRoomPayload splits "<room>:<rest>" frames (USERLIST, HISTORY).
func splitRoomPayload(s string) (room, rest string) {
	parts := strings.SplitN(s, ":", 2)
	if len(parts) < 2 {
		return parts[0], ""
	}
	return parts[0], parts[1]
}

func splitList(s string) []string {
	if s == "" {
		return nil
	}
	return strings.Split(s, ",")
}
