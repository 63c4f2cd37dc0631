package server

import (
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/refteen/chatrelay/pkg/roomlog"
)

var (
	errorLog *log.Logger
	debugLog *log.Logger
)

// Server is the chat relay process: one TCP listener, one goroutine per
// connection, a room registry shared by all handlers, and per-room logs on
// disk.
type Server struct {
	config   ServerConfig
	registry *RoomRegistry
	logs     *roomlog.Store
	listener net.Listener
	shutdown chan struct{}
	wg       sync.WaitGroup
	metrics  *Metrics

	startTime     time.Time
	nextSessionID uint64

	// Connection deltas for periodic reporting
	connectionsSinceReport    atomic.Int64
	disconnectionsSinceReport atomic.Int64
}

// NewServer creates a server instance. Zero-valued config fields fall back
// to DefaultConfig values.
func NewServer(config ServerConfig) (*Server, error) {
	defaults := DefaultConfig()
	if len(config.Rooms) == 0 {
		config.Rooms = defaults.Rooms
	}
	if config.DefaultRoom == "" {
		config.DefaultRoom = defaults.DefaultRoom
	}
	if len(config.Palette) == 0 {
		config.Palette = defaults.Palette
	}
	if config.MaxFileSize == 0 {
		config.MaxFileSize = defaults.MaxFileSize
	}
	if config.WriteTimeout == 0 {
		config.WriteTimeout = defaults.WriteTimeout
	}
	if config.LogDir == "" {
		config.LogDir = defaults.LogDir
	}

	registry := NewRoomRegistry(config.Rooms)
	if !registry.Has(config.DefaultRoom) {
		return nil, fmt.Errorf("default room %q not in room set", config.DefaultRoom)
	}

	logs, err := roomlog.NewStore(config.LogDir)
	if err != nil {
		return nil, fmt.Errorf("failed to open log store: %w", err)
	}

	initLoggers()

	return &Server{
		config:    config,
		registry:  registry,
		logs:      logs,
		shutdown:  make(chan struct{}),
		metrics:   NewMetrics(),
		startTime: time.Now(),
	}, nil
}

// initLoggers sets up the package loggers. Errors go to stderr; debug output
// is discarded until EnableDebugLogging is called.
func initLoggers() {
	if errorLog == nil {
		errorLog = log.New(os.Stderr, "ERROR: ", log.LstdFlags)
	}
	if debugLog == nil {
		debugLog = log.New(io.Discard, "DEBUG: ", log.LstdFlags)
	}
}

// EnableDebugLogging directs debug output to debug.log in the log directory.
func (s *Server) EnableDebugLogging() {
	debugLogPath := filepath.Join(s.config.LogDir, "debug.log")
	debugLogFile, err := os.OpenFile(debugLogPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0666)
	if err != nil {
		log.Printf("Failed to open debug.log: %v", err)
		return
	}

	debugLog = log.New(debugLogFile, "DEBUG: ", log.LstdFlags)
	debugLog.Println("Debug logging enabled")
}

// Start starts the TCP listener, the optional HTTP endpoints and the
// background loops. It returns once everything is listening.
func (s *Server) Start() error {
	addr := fmt.Sprintf(":%d", s.config.TCPPort)
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}
	s.listener = listener

	// Internal metrics server - never expose publicly!
	if s.config.MetricsPort > 0 {
		go func() {
			metricsMux := http.NewServeMux()
			metricsMux.Handle("/metrics", s.metrics.Handler())
			metricsMux.HandleFunc("/health", s.HealthHandler)
			metricsAddr := fmt.Sprintf(":%d", s.config.MetricsPort)
			log.Printf("Metrics server listening on %s (/metrics, /health) - INTERNAL ONLY", metricsAddr)
			if err := http.ListenAndServe(metricsAddr, metricsMux); err != nil {
				log.Printf("Metrics server error: %v", err)
			}
		}()
	}

	// Public WebSocket transport carrying the same line protocol
	if s.config.HTTPPort > 0 {
		go func() {
			publicMux := http.NewServeMux()
			publicMux.HandleFunc("/ws", s.HandleWebSocket)
			publicAddr := fmt.Sprintf(":%d", s.config.HTTPPort)
			log.Printf("Public HTTP server listening on %s (/ws)", publicAddr)
			if err := http.ListenAndServe(publicAddr, publicMux); err != nil {
				log.Printf("Public HTTP server error: %v", err)
			}
		}()
	}

	s.wg.Add(1)
	go s.metricsLoggingLoop()

	s.wg.Add(1)
	go s.acceptLoop()

	return nil
}

// Addr returns the address the TCP listener is bound to.
func (s *Server) Addr() string {
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// Stop gracefully stops the server: no new connections, all sessions closed,
// background loops drained.
func (s *Server) Stop() error {
	log.Println("Graceful shutdown initiated...")

	close(s.shutdown)

	if s.listener != nil {
		s.listener.Close()
		s.listener = nil
		log.Println("TCP listener closed")
	}

	log.Println("Closing all client sessions...")
	for _, sess := range s.registry.Sessions() {
		sess.Conn.Close()
	}

	log.Println("Waiting for background goroutines to finish...")
	s.wg.Wait()

	log.Println("Graceful shutdown complete")
	return nil
}

// acceptLoop accepts incoming connections until shutdown.
func (s *Server) acceptLoop() {
	defer s.wg.Done()

	listener := s.listener
	for {
		conn, err := listener.Accept()
		if err != nil {
			select {
			case <-s.shutdown:
				return
			default:
				log.Printf("Accept error: %v", err)
				continue
			}
		}

		go s.handleConnection(conn)
	}
}

// metricsLoggingLoop periodically logs key counters.
func (s *Server) metricsLoggingLoop() {
	defer s.wg.Done()

	ticker := time.NewTicker(5 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-s.shutdown:
			return
		case <-ticker.C:
			connected := s.connectionsSinceReport.Swap(0)
			disconnected := s.disconnectionsSinceReport.Swap(0)
			log.Printf("[METRICS] Active sessions: %d, connected since last: %d, disconnected since last: %d, goroutines: %d",
				s.registry.SessionCount(), connected, disconnected, runtime.NumGoroutine())
		}
	}
}

// HealthHandler reports process liveness and basic counters as JSON.
func (s *Server) HealthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"status":          "ok",
		"uptime_seconds":  int64(time.Since(s.startTime).Seconds()),
		"active_sessions": s.registry.SessionCount(),
		"rooms":           s.registry.RoomNames(),
	})
}
