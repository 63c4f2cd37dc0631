// Command server runs the chat relay: a TCP listener speaking the line
// protocol, an optional WebSocket transport, and internal metrics endpoints.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/refteen/chatrelay/pkg/server"
)

func main() {
	configPath := flag.String("config", "~/.config/chatrelay/config.toml", "Path to config file")
	port := flag.Int("port", 0, "TCP port to listen on (overrides config)")
	logDir := flag.String("log-dir", "", "Directory for room logs (overrides config)")
	debug := flag.Bool("debug", false, "Enable debug logging to debug.log")
	flag.Parse()

	fileConfig, err := server.LoadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	config := fileConfig.ToServerConfig()
	if *port != 0 {
		config.TCPPort = *port
	}
	if *logDir != "" {
		config.LogDir = *logDir
	}

	srv, err := server.NewServer(config)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create server: %v\n", err)
		os.Exit(1)
	}

	if *debug {
		srv.EnableDebugLogging()
	}

	if err := srv.Start(); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to start server: %v\n", err)
		os.Exit(1)
	}
	log.Printf("Chat relay listening on %s (rooms: %v)", srv.Addr(), config.Rooms)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh
	log.Printf("Received %v, shutting down", sig)

	if err := srv.Stop(); err != nil {
		fmt.Fprintf(os.Stderr, "Shutdown error: %v\n", err)
		os.Exit(1)
	}
}
