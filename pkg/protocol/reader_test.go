package protocol

import (
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReaderDecodesCommands(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  Command
	}{
		{"chat line", "hello there\n", &Chat{Text: "hello there"}},
		{"chat with colon", "note: this is still chat\n", &Chat{Text: "note: this is still chat"}},
		{"username", "USERNAME:Bob\n", &SetUsername{Name: "Bob"}},
		{"switchroom", "SWITCHROOM:python\n", &SwitchRoom{Room: "python"}},
		{"crlf trimmed", "USERNAME:Bob\r\n", &SetUsername{Name: "Bob"}},
		{"trailing line without newline", "last words", &Chat{Text: "last words"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewReader(strings.NewReader(tt.input), 0)
			cmd, err := r.Next()
			require.NoError(t, err)
			assert.Equal(t, tt.want, cmd)
		})
	}
}

func TestReaderSkipsEmptyLines(t *testing.T) {
	r := NewReader(strings.NewReader("\n\n  \nhello\n"), 0)

	cmd, err := r.Next()
	require.NoError(t, err)
	assert.Equal(t, &Chat{Text: "hello"}, cmd)

	_, err = r.Next()
	assert.Equal(t, io.EOF, err)
}

func TestReaderFileTransfer(t *testing.T) {
	t.Run("payload with embedded newlines", func(t *testing.T) {
		payload := "line one\nline two\n\x00\xffraw"
		input := "FILE:dump.bin\nFILESIZE:" +
			"23" + "\n" + payload + "after\n"
		require.Len(t, payload, 23)

		r := NewReader(strings.NewReader(input), 0)

		cmd, err := r.Next()
		require.NoError(t, err)
		ft, ok := cmd.(*FileTransfer)
		require.True(t, ok)
		assert.Equal(t, "dump.bin", ft.Name)
		assert.Equal(t, []byte(payload), ft.Data)

		// Decoder mode must be back to text for the next message.
		cmd, err = r.Next()
		require.NoError(t, err)
		assert.Equal(t, &Chat{Text: "after"}, cmd)
	})

	t.Run("zero-byte file", func(t *testing.T) {
		r := NewReader(strings.NewReader("FILE:empty\nFILESIZE:0\nnext\n"), 0)

		cmd, err := r.Next()
		require.NoError(t, err)
		assert.Equal(t, &FileTransfer{Name: "empty", Data: []byte{}}, cmd)

		cmd, err = r.Next()
		require.NoError(t, err)
		assert.Equal(t, &Chat{Text: "next"}, cmd)
	})

	t.Run("truncated payload", func(t *testing.T) {
		r := NewReader(strings.NewReader("FILE:big\nFILESIZE:100\nonly a few bytes"), 0)
		_, err := r.Next()
		assert.Equal(t, io.ErrUnexpectedEOF, err)
	})

	t.Run("stream ends after FILE header", func(t *testing.T) {
		r := NewReader(strings.NewReader("FILE:orphan\n"), 0)
		_, err := r.Next()
		assert.Equal(t, io.ErrUnexpectedEOF, err)
	})

	t.Run("missing FILESIZE line", func(t *testing.T) {
		r := NewReader(strings.NewReader("FILE:x\nnot a size line\n"), 0)
		_, err := r.Next()
		assert.Equal(t, ErrMissingFileSize, err)
	})

	t.Run("malformed size", func(t *testing.T) {
		r := NewReader(strings.NewReader("FILE:x\nFILESIZE:banana\n"), 0)
		_, err := r.Next()
		assert.Equal(t, ErrInvalidFileSize, err)
	})

	t.Run("negative size", func(t *testing.T) {
		r := NewReader(strings.NewReader("FILE:x\nFILESIZE:-5\n"), 0)
		_, err := r.Next()
		assert.Equal(t, ErrInvalidFileSize, err)
	})

	t.Run("size above limit", func(t *testing.T) {
		r := NewReader(strings.NewReader("FILE:x\nFILESIZE:1025\n"), 1024)
		_, err := r.Next()
		assert.Equal(t, ErrFileTooLarge, err)
	})
}

func TestFrameReaderDecodesFrames(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  ServerFrame
	}{
		{"color", "COLOR:#2ecc71\n", &ColorFrame{Hex: "#2ecc71"}},
		{"rooms", "ROOMS:general,python\n", &RoomsFrame{Rooms: []string{"general", "python"}}},
		{"userlist", "USERLIST:general:Unnamed,Bob\n", &UserlistFrame{Room: "general", Users: []string{"Unnamed", "Bob"}}},
		{"userlist empty", "USERLIST:general:\n", &UserlistFrame{Room: "general"}},
		{"history empty", "HISTORY:python:\n", &HistoryFrame{Room: "python"}},
		{"history single line", "HISTORY:python:#fff: hi\n", &HistoryFrame{Room: "python", Transcript: "#fff: hi"}},
		{"chat", "#3498db: hello\n", &ChatLine{Text: "#3498db: hello"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewFrameReader(strings.NewReader(tt.input), 0)
			frame, err := r.Next()
			require.NoError(t, err)
			assert.Equal(t, tt.want, frame)
		})
	}
}

func TestFrameReaderFileRelay(t *testing.T) {
	input := "FILE:cat.png\nFILESIZE:4\n\x89PNG#aaa: [Bob] sent a file: cat.png\n"
	r := NewFrameReader(strings.NewReader(input), 0)

	frame, err := r.Next()
	require.NoError(t, err)
	assert.Equal(t, &FileTransfer{Name: "cat.png", Data: []byte("\x89PNG")}, frame)

	frame, err = r.Next()
	require.NoError(t, err)
	assert.Equal(t, &ChatLine{Text: "#aaa: [Bob] sent a file: cat.png"}, frame)
}
