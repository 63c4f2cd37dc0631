package client

import (
	"errors"
	"io"
	"net"
	"time"

	"github.com/gorilla/websocket"
)

// wsStream adapts a *websocket.Conn to net.Conn so the frame decoder reads
// one continuous byte stream. Reads concatenate successive binary messages;
// writes send one binary message per call.
type wsStream struct {
	ws     *websocket.Conn
	reader io.Reader
}

func newWSStream(ws *websocket.Conn) *wsStream {
	return &wsStream{ws: ws}
}

func (s *wsStream) Read(p []byte) (int, error) {
	for {
		if s.reader == nil {
			_, r, err := s.ws.NextReader()
			if err != nil {
				return 0, translateClose(err)
			}
			s.reader = r
		}

		n, err := s.reader.Read(p)
		if errors.Is(err, io.EOF) {
			s.reader = nil
			if n > 0 {
				return n, nil
			}
			continue
		}
		return n, err
	}
}

func (s *wsStream) Write(p []byte) (int, error) {
	if err := s.ws.WriteMessage(websocket.BinaryMessage, p); err != nil {
		return 0, translateClose(err)
	}
	return len(p), nil
}

func translateClose(err error) error {
	var closeErr *websocket.CloseError
	if errors.As(err, &closeErr) {
		return io.EOF
	}
	return err
}

func (s *wsStream) Close() error {
	return s.ws.Close()
}

func (s *wsStream) LocalAddr() net.Addr {
	return s.ws.LocalAddr()
}

func (s *wsStream) RemoteAddr() net.Addr {
	return s.ws.RemoteAddr()
}

func (s *wsStream) SetDeadline(t time.Time) error {
	if err := s.ws.SetReadDeadline(t); err != nil {
		return err
	}
	return s.ws.SetWriteDeadline(t)
}

func (s *wsStream) SetReadDeadline(t time.Time) error {
	return s.ws.SetReadDeadline(t)
}

func (s *wsStream) SetWriteDeadline(t time.Time) error {
	return s.ws.SetWriteDeadline(t)
}
