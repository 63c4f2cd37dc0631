// Package client implements the terminal client side of the chat relay:
// dialing either transport, decoding inbound server frames and sending
// commands.
package client

import (
	"bytes"
	"fmt"
	"net"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/refteen/chatrelay/pkg/protocol"
)

// Connection is a live connection to a relay server. Inbound frames are
// decoded by a background goroutine and delivered on Frames; the first read
// failure is delivered on Errors and ends the stream.
type Connection struct {
	addr string
	conn net.Conn

	writeMu sync.Mutex

	frames chan protocol.ServerFrame
	errs   chan error

	closeOnce sync.Once
	wg        sync.WaitGroup
}

// Dial connects to a relay server. Addresses with a ws:// or wss:// scheme
// use the WebSocket transport; anything else is dialed as host:port TCP.
func Dial(addr string) (*Connection, error) {
	conn, err := dialTransport(addr)
	if err != nil {
		return nil, err
	}

	c := &Connection{
		addr:   addr,
		conn:   conn,
		frames: make(chan protocol.ServerFrame, 64),
		errs:   make(chan error, 1),
	}

	c.wg.Add(1)
	go c.readLoop()
	return c, nil
}

func dialTransport(addr string) (net.Conn, error) {
	if strings.HasPrefix(addr, "ws://") || strings.HasPrefix(addr, "wss://") {
		ws, _, err := websocket.DefaultDialer.Dial(addr, nil)
		if err != nil {
			return nil, fmt.Errorf("failed to dial %s: %w", addr, err)
		}
		return newWSStream(ws), nil
	}

	conn, err := net.DialTimeout("tcp", addr, 10*time.Second)
	if err != nil {
		return nil, fmt.Errorf("failed to dial %s: %w", addr, err)
	}
	return conn, nil
}

// Addr returns the address the connection was dialed with.
func (c *Connection) Addr() string {
	return c.addr
}

// Frames returns the inbound frame stream. The channel is closed after the
// read loop stops.
func (c *Connection) Frames() <-chan protocol.ServerFrame {
	return c.frames
}

// Errors delivers the error that ended the read loop, if any.
func (c *Connection) Errors() <-chan error {
	return c.errs
}

func (c *Connection) readLoop() {
	defer c.wg.Done()
	defer close(c.frames)

	reader := protocol.NewFrameReader(c.conn, 0)
	for {
		frame, err := reader.Next()
		if err != nil {
			select {
			case c.errs <- err:
			default:
			}
			return
		}
		c.frames <- frame
	}
}

// SendChat sends a plain chat line.
func (c *Connection) SendChat(text string) error {
	return c.writeString(text + "\n")
}

// SendUsername sets the display name on the server.
func (c *Connection) SendUsername(name string) error {
	return c.writeString(protocol.FormatUsername(name))
}

// SendSwitchRoom requests a move to another room.
func (c *Connection) SendSwitchRoom(room string) error {
	return c.writeString(protocol.FormatSwitchRoom(room))
}

// SendFile uploads a complete file payload. The header lines and the raw
// bytes go out as one write so nothing can interleave with them.
func (c *Connection) SendFile(name string, data []byte) error {
	var frame bytes.Buffer
	if err := protocol.EncodeFile(&frame, name, data); err != nil {
		return err
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	_, err := c.conn.Write(frame.Bytes())
	return err
}

func (c *Connection) writeString(frame string) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	_, err := c.conn.Write([]byte(frame))
	return err
}

// Close tears the connection down and waits for the read loop to finish.
func (c *Connection) Close() error {
	var err error
	c.closeOnce.Do(func() {
		err = c.conn.Close()
		c.wg.Wait()
	})
	return err
}
