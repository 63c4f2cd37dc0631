// Command client is a line-oriented terminal client for the chat relay.
//
// Inbound chat renders in each sender's color. Input lines starting with a
// slash are commands:
//
//	/nick <name>    set the display name
//	/join <room>    switch rooms
//	/send <path>    upload a file to the current room
//	/quit           disconnect
//
// Anything else is sent as chat. Received files are saved under the
// downloads directory.
package main

import (
	"bufio"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/refteen/chatrelay/pkg/client"
	"github.com/refteen/chatrelay/pkg/protocol"
)

func main() {
	addr := flag.String("addr", "localhost:5555", "Server address (host:port, or ws:// URL)")
	nick := flag.String("nick", "", "Display name to set on connect")
	downloads := flag.String("downloads", "downloads", "Directory for received files")
	flag.Parse()

	conn, err := client.Dial(*addr)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
	defer conn.Close()

	if *nick != "" {
		if err := conn.SendUsername(*nick); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to set nick: %v\n", err)
			os.Exit(1)
		}
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		for frame := range conn.Frames() {
			if ft, ok := frame.(*protocol.FileTransfer); ok {
				path, err := client.SaveFile(*downloads, ft.Name, ft.Data)
				if err != nil {
					fmt.Fprintf(os.Stderr, "%v\n", err)
					continue
				}
				fmt.Println(client.RenderFileNotice(ft.Name, path))
				continue
			}
			if out := client.RenderFrame(frame); out != "" {
				fmt.Println(out)
			}
		}
	}()

	stdin := bufio.NewScanner(os.Stdin)
	for stdin.Scan() {
		line := strings.TrimSpace(stdin.Text())
		if line == "" {
			continue
		}
		if !strings.HasPrefix(line, "/") {
			if err := conn.SendChat(line); err != nil {
				fmt.Fprintf(os.Stderr, "Send failed: %v\n", err)
				return
			}
			continue
		}

		cmd, arg, _ := strings.Cut(line, " ")
		arg = strings.TrimSpace(arg)
		switch cmd {
		case "/nick":
			if arg == "" {
				fmt.Println("Usage: /nick <name>")
				continue
			}
			err = conn.SendUsername(arg)
		case "/join":
			if arg == "" {
				fmt.Println("Usage: /join <room>")
				continue
			}
			err = conn.SendSwitchRoom(arg)
		case "/send":
			if arg == "" {
				fmt.Println("Usage: /send <path>")
				continue
			}
			err = sendFile(conn, arg)
		case "/quit":
			return
		default:
			fmt.Printf("Unknown command %s\n", cmd)
			continue
		}
		if err != nil {
			fmt.Fprintf(os.Stderr, "Send failed: %v\n", err)
			return
		}
	}

	// Stdin closed or the server went away; wait for the reader to drain.
	conn.Close()
	<-done
}

func sendFile(conn *client.Connection, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if int64(len(data)) > protocol.DefaultMaxFileSize {
		return fmt.Errorf("%s exceeds the %d byte file limit", path, protocol.DefaultMaxFileSize)
	}
	return conn.SendFile(filepath.Base(path), data)
}
