package client

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/refteen/chatrelay/pkg/protocol"
)

func TestSplitColoredLine(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		wantHex  string
		wantRest string
		wantOK   bool
	}{
		{"chat line", "#e74c3c: hello there", "#e74c3c", "hello there", true},
		{"system notice", "#3498db: [SYSTEM] Bob left the chat.", "#3498db", "[SYSTEM] Bob left the chat.", true},
		{"no separator", "just some text", "", "", false},
		{"not a color", "note: remember this", "", "", false},
		{"short hex", "#fff: hello", "", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hex, rest, ok := splitColoredLine(tt.input)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.wantHex, hex)
			assert.Equal(t, tt.wantRest, rest)
		})
	}
}

func TestRenderFrame(t *testing.T) {
	// Styling depends on the terminal profile, so assert on content only.
	out := RenderFrame(&protocol.RoomsFrame{Rooms: []string{"general", "python"}})
	assert.Contains(t, out, "general, python")

	out = RenderFrame(&protocol.UserlistFrame{Room: "general", Users: []string{"alice", "bob"}})
	assert.Contains(t, out, "general")
	assert.Contains(t, out, "alice, bob")

	out = RenderFrame(&protocol.ChatLine{Text: "#e74c3c: hello"})
	assert.Contains(t, out, "hello")
	assert.NotContains(t, out, "#e74c3c:", "the color prefix is rendering metadata, not content")

	out = RenderFrame(&protocol.HistoryFrame{Room: "python", Transcript: ""})
	assert.Contains(t, out, "python")
}

func TestSaveFile(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "downloads")

	path, err := SaveFile(dir, "cat.png", []byte("payload"))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "cat.png"), path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "payload", string(data))
}

func TestSaveFileNeverOverwrites(t *testing.T) {
	dir := t.TempDir()

	first, err := SaveFile(dir, "cat.png", []byte("one"))
	require.NoError(t, err)
	second, err := SaveFile(dir, "cat.png", []byte("two"))
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(dir, "cat.png"), first)
	assert.Equal(t, filepath.Join(dir, "cat (1).png"), second)

	data, err := os.ReadFile(first)
	require.NoError(t, err)
	assert.Equal(t, "one", string(data), "existing file kept intact")
}

func TestSaveFileStripsDirectoryComponents(t *testing.T) {
	dir := t.TempDir()

	path, err := SaveFile(dir, "../../etc/passwd", []byte("nope"))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "passwd"), path)
}
