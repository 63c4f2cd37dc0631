package client

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/refteen/chatrelay/pkg/protocol"
)

var (
	systemStyle = lipgloss.NewStyle().Faint(true)
	panelStyle  = lipgloss.NewStyle().Bold(true)
	fileStyle   = lipgloss.NewStyle().Italic(true)
)

// RenderFrame returns the display form of an inbound server frame. File
// transfers are not rendered here; the caller saves them and reports the
// path.
func RenderFrame(frame protocol.ServerFrame) string {
	switch f := frame.(type) {
	case *protocol.ColorFrame:
		swatch := lipgloss.NewStyle().Foreground(lipgloss.Color(f.Hex)).Render("■")
		return fmt.Sprintf("Connected. Your color is %s %s", swatch, f.Hex)
	case *protocol.RoomsFrame:
		return panelStyle.Render("Rooms: ") + strings.Join(f.Rooms, ", ")
	case *protocol.UserlistFrame:
		return panelStyle.Render(fmt.Sprintf("Users in %s: ", f.Room)) + strings.Join(f.Users, ", ")
	case *protocol.HistoryFrame:
		// Continuation lines of a multi-line transcript arrive as ChatLine
		// frames and render on their own.
		if f.Transcript == "" {
			return systemStyle.Render(fmt.Sprintf("(no history in %s yet)", f.Room))
		}
		return RenderChatLine(f.Transcript)
	case *protocol.ChatLine:
		return RenderChatLine(f.Text)
	default:
		return ""
	}
}

// RenderChatLine renders one relayed line in the sender's color. System
// notices render dimmed; lines without a color prefix pass through as-is.
func RenderChatLine(text string) string {
	hex, rest, ok := splitColoredLine(text)
	if !ok {
		return text
	}
	if strings.HasPrefix(rest, "[SYSTEM] ") {
		return systemStyle.Render(rest)
	}
	return lipgloss.NewStyle().Foreground(lipgloss.Color(hex)).Render(rest)
}

// RenderFileNotice reports a saved inbound file.
func RenderFileNotice(name, path string) string {
	return fileStyle.Render(fmt.Sprintf("Received %s, saved to %s", name, path))
}

// splitColoredLine splits "<#rrggbb>: rest" lines as produced by the server.
func splitColoredLine(text string) (hex, rest string, ok bool) {
	hex, rest, found := strings.Cut(text, ": ")
	if !found || len(hex) != 7 || !strings.HasPrefix(hex, "#") {
		return "", "", false
	}
	return hex, rest, true
}

// SaveFile writes an inbound file payload into dir, creating it if needed.
// Only the base name of the advertised filename is used and an existing file
// is never overwritten; a numeric suffix is added instead. Returns the path
// written.
func SaveFile(dir, name string, data []byte) (string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create download directory: %w", err)
	}

	base := filepath.Base(name)
	if base == "." || base == string(filepath.Separator) {
		base = "download"
	}

	path := filepath.Join(dir, base)
	ext := filepath.Ext(base)
	stem := strings.TrimSuffix(base, ext)
	for n := 1; ; n++ {
		if _, err := os.Stat(path); os.IsNotExist(err) {
			break
		}
		path = filepath.Join(dir, fmt.Sprintf("%s (%d)%s", stem, n, ext))
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to save %s: %w", base, err)
	}
	return path, nil
}
