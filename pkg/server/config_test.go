package server

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, 5555, cfg.TCPPort)
	assert.Equal(t, 0, cfg.HTTPPort)
	assert.Equal(t, 9090, cfg.MetricsPort)
	assert.Equal(t, "logs", cfg.LogDir)
	assert.Equal(t, []string{"general", "python", "random", "gaming", "music"}, cfg.Rooms)
	assert.Equal(t, "general", cfg.DefaultRoom)
	assert.Equal(t, DefaultPalette, cfg.Palette)
	assert.Equal(t, int64(16<<20), cfg.MaxFileSize)
	assert.Equal(t, 5*time.Second, cfg.WriteTimeout)
}

func TestToServerConfigFillsGaps(t *testing.T) {
	// A zero TOMLConfig resolves to the defaults.
	var empty TOMLConfig
	assert.Equal(t, DefaultConfig(), empty.ToServerConfig())

	partial := TOMLConfig{
		Server: ServerSection{TCPPort: 6000, LogDir: "/var/log/chatrelay"},
		Limits: LimitsSection{MaxFileSizeBytes: 1024},
		Rooms:  RoomsSection{Names: []string{"lobby"}, DefaultRoom: "lobby"},
	}
	cfg := partial.ToServerConfig()

	assert.Equal(t, 6000, cfg.TCPPort)
	assert.Equal(t, "/var/log/chatrelay", cfg.LogDir)
	assert.Equal(t, int64(1024), cfg.MaxFileSize)
	assert.Equal(t, []string{"lobby"}, cfg.Rooms)
	assert.Equal(t, "lobby", cfg.DefaultRoom)

	// Untouched fields keep their defaults.
	assert.Equal(t, 9090, cfg.MetricsPort)
	assert.Equal(t, 5*time.Second, cfg.WriteTimeout)
	assert.Equal(t, DefaultPalette, cfg.Palette)
}

func TestLoadConfigFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	content := `
[server]
tcp_port = 7000
http_port = 8080
log_dir = "chatlogs"

[limits]
max_file_size_bytes = 2048
write_timeout_seconds = 10

[rooms]
names = ["general", "ops"]
default_room = "ops"
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	config, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, 7000, config.Server.TCPPort)
	assert.Equal(t, 8080, config.Server.HTTPPort)
	assert.Equal(t, "chatlogs", config.Server.LogDir)
	assert.Equal(t, int64(2048), config.Limits.MaxFileSizeBytes)
	assert.Equal(t, 10, config.Limits.WriteTimeoutSeconds)
	assert.Equal(t, []string{"general", "ops"}, config.Rooms.Names)
	assert.Equal(t, "ops", config.Rooms.DefaultRoom)

	cfg := config.ToServerConfig()
	assert.Equal(t, 10*time.Second, cfg.WriteTimeout)
	assert.Equal(t, "ops", cfg.DefaultRoom)
}

func TestLoadConfigCreatesDefaultFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.toml")

	config, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, DefaultTOMLConfig(), config)

	// The documented default file is written out for the next run.
	written, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(written), "tcp_port = 5555")
	assert.Contains(t, string(written), `default_room = "general"`)

	// Loading the generated file round-trips to the same config.
	reloaded, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, config, reloaded)
}

func TestLoadConfigRejectsMalformedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte("[server\ntcp_port ="), 0644))

	_, err := LoadConfig(path)
	assert.Error(t, err)
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("CHATRELAY_SERVER_TCP_PORT", "6001")
	t.Setenv("CHATRELAY_SERVER_LOG_DIR", "/tmp/chatrelay")
	t.Setenv("CHATRELAY_LIMITS_MAX_FILE_SIZE_BYTES", "4096")
	t.Setenv("CHATRELAY_ROOMS_NAMES", "general, ops ,dev")
	t.Setenv("CHATRELAY_ROOMS_DEFAULT_ROOM", "ops")

	config := applyEnvOverrides(DefaultTOMLConfig())

	assert.Equal(t, 6001, config.Server.TCPPort)
	assert.Equal(t, "/tmp/chatrelay", config.Server.LogDir)
	assert.Equal(t, int64(4096), config.Limits.MaxFileSizeBytes)
	assert.Equal(t, []string{"general", "ops", "dev"}, config.Rooms.Names)
	assert.Equal(t, "ops", config.Rooms.DefaultRoom)
}

func TestEnvOverridesIgnoreInvalidValues(t *testing.T) {
	t.Setenv("CHATRELAY_SERVER_TCP_PORT", "not-a-port")

	config := applyEnvOverrides(DefaultTOMLConfig())
	assert.Equal(t, 5555, config.Server.TCPPort)
}
