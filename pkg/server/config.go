package server

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

// ServerConfig holds the resolved server configuration.
type ServerConfig struct {
	TCPPort     int
	HTTPPort    int // public HTTP port for /ws (0 = disabled)
	MetricsPort int // internal HTTP port for /metrics and /health (0 = disabled)
	LogDir      string

	Rooms       []string
	DefaultRoom string
	Palette     []string

	MaxFileSize  int64
	WriteTimeout time.Duration
}

// DefaultConfig returns the default server configuration.
func DefaultConfig() ServerConfig {
	return ServerConfig{
		TCPPort:      5555,
		HTTPPort:     0, // WebSocket transport off unless configured
		MetricsPort:  9090,
		LogDir:       "logs",
		Rooms:        []string{"general", "python", "random", "gaming", "music"},
		DefaultRoom:  "general",
		Palette:      DefaultPalette,
		MaxFileSize:  16 << 20,
		WriteTimeout: 5 * time.Second,
	}
}

// TOMLConfig represents the structure of the server config file.
type TOMLConfig struct {
	Server ServerSection `toml:"server"`
	Limits LimitsSection `toml:"limits"`
	Rooms  RoomsSection  `toml:"rooms"`
}

type ServerSection struct {
	TCPPort     int    `toml:"tcp_port"`
	HTTPPort    int    `toml:"http_port"`
	MetricsPort int    `toml:"metrics_port"`
	LogDir      string `toml:"log_dir"`
}

type LimitsSection struct {
	MaxFileSizeBytes    int64 `toml:"max_file_size_bytes"`
	WriteTimeoutSeconds int   `toml:"write_timeout_seconds"`
}

type RoomsSection struct {
	Names       []string `toml:"names"`
	DefaultRoom string   `toml:"default_room"`
	Palette     []string `toml:"palette"`
}

// DefaultTOMLConfig returns the default TOML configuration.
func DefaultTOMLConfig() TOMLConfig {
	return TOMLConfig{
		Server: ServerSection{
			TCPPort:     5555,
			HTTPPort:    0,
			MetricsPort: 9090,
			LogDir:      "logs",
		},
		Limits: LimitsSection{
			MaxFileSizeBytes:    16 << 20,
			WriteTimeoutSeconds: 5,
		},
		Rooms: RoomsSection{
			Names:       []string{"general", "python", "random", "gaming", "music"},
			DefaultRoom: "general",
			Palette:     DefaultPalette,
		},
	}
}

// LoadConfig loads configuration from a TOML file, creating a documented
// default file if none exists, then applies environment variable overrides.
func LoadConfig(path string) (TOMLConfig, error) {
	if strings.HasPrefix(path, "~/") {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return TOMLConfig{}, fmt.Errorf("failed to get home directory: %w", err)
		}
		path = filepath.Join(homeDir, path[2:])
	}

	if _, err := os.Stat(path); os.IsNotExist(err) {
		config := DefaultTOMLConfig()
		// Best effort: a read-only location still leaves us with defaults.
		_ = writeDefaultConfig(path)
		return applyEnvOverrides(config), nil
	}

	var config TOMLConfig
	if _, err := toml.DecodeFile(path, &config); err != nil {
		return TOMLConfig{}, fmt.Errorf("failed to parse config file: %w", err)
	}

	return applyEnvOverrides(config), nil
}

// applyEnvOverrides applies environment variable overrides to the config.
// Variables follow the pattern CHATRELAY_SECTION_KEY, e.g.
// CHATRELAY_SERVER_TCP_PORT=6000.
func applyEnvOverrides(config TOMLConfig) TOMLConfig {
	if val := os.Getenv("CHATRELAY_SERVER_TCP_PORT"); val != "" {
		if port, err := strconv.Atoi(val); err == nil {
			config.Server.TCPPort = port
		}
	}
	if val := os.Getenv("CHATRELAY_SERVER_HTTP_PORT"); val != "" {
		if port, err := strconv.Atoi(val); err == nil {
			config.Server.HTTPPort = port
		}
	}
	if val := os.Getenv("CHATRELAY_SERVER_METRICS_PORT"); val != "" {
		if port, err := strconv.Atoi(val); err == nil {
			config.Server.MetricsPort = port
		}
	}
	if val := os.Getenv("CHATRELAY_SERVER_LOG_DIR"); val != "" {
		config.Server.LogDir = val
	}

	if val := os.Getenv("CHATRELAY_LIMITS_MAX_FILE_SIZE_BYTES"); val != "" {
		if limit, err := strconv.ParseInt(val, 10, 64); err == nil {
			config.Limits.MaxFileSizeBytes = limit
		}
	}
	if val := os.Getenv("CHATRELAY_LIMITS_WRITE_TIMEOUT_SECONDS"); val != "" {
		if timeout, err := strconv.Atoi(val); err == nil {
			config.Limits.WriteTimeoutSeconds = timeout
		}
	}

	if val := os.Getenv("CHATRELAY_ROOMS_NAMES"); val != "" {
		names := strings.Split(val, ",")
		for i, name := range names {
			names[i] = strings.TrimSpace(name)
		}
		config.Rooms.Names = names
	}
	if val := os.Getenv("CHATRELAY_ROOMS_DEFAULT_ROOM"); val != "" {
		config.Rooms.DefaultRoom = val
	}

	return config
}

// writeDefaultConfig writes a documented default config file.
func writeDefaultConfig(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}
	defer f.Close()

	content := `# chatrelay server configuration
# This file was auto-generated with default values.
# Restart the server for changes to take effect.
#
# Environment variables can override these settings:
# CHATRELAY_SECTION_KEY (e.g. CHATRELAY_SERVER_TCP_PORT=6000)

[server]
# Port for client TCP connections
tcp_port = 5555

# Public HTTP port serving the /ws WebSocket endpoint
# Set to 0 to disable the WebSocket transport
http_port = 0

# Internal HTTP port serving /metrics and /health - never expose publicly
metrics_port = 9090

# Directory for per-room chat logs (created on demand)
log_dir = "logs"

[limits]
# Maximum accepted file transfer payload in bytes
max_file_size_bytes = 16777216

# Per-recipient write deadline in seconds; a peer that stays stuck longer
# than this misses the delivery instead of stalling the broadcaster
write_timeout_seconds = 5

[rooms]
# Fixed room set; rooms are never created at runtime
names = ["general", "python", "random", "gaming", "music"]

# Room every connection starts in
default_room = "general"

# Display colors assigned to sessions at connect
palette = ["#e74c3c", "#3498db", "#2ecc71", "#6d59b6", "#f39c12"]
`

	if _, err := f.WriteString(content); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// ToServerConfig converts TOMLConfig to ServerConfig, filling gaps with
// defaults.
func (c *TOMLConfig) ToServerConfig() ServerConfig {
	cfg := DefaultConfig()

	if c.Server.TCPPort != 0 {
		cfg.TCPPort = c.Server.TCPPort
	}
	cfg.HTTPPort = c.Server.HTTPPort
	if c.Server.MetricsPort != 0 {
		cfg.MetricsPort = c.Server.MetricsPort
	}
	if strings.TrimSpace(c.Server.LogDir) != "" {
		cfg.LogDir = c.Server.LogDir
	}

	if c.Limits.MaxFileSizeBytes != 0 {
		cfg.MaxFileSize = c.Limits.MaxFileSizeBytes
	}
	if c.Limits.WriteTimeoutSeconds != 0 {
		cfg.WriteTimeout = time.Duration(c.Limits.WriteTimeoutSeconds) * time.Second
	}

	if len(c.Rooms.Names) > 0 {
		cfg.Rooms = c.Rooms.Names
	}
	if strings.TrimSpace(c.Rooms.DefaultRoom) != "" {
		cfg.DefaultRoom = c.Rooms.DefaultRoom
	}
	if len(c.Rooms.Palette) > 0 {
		cfg.Palette = c.Rooms.Palette
	}

	return cfg
}
