package stomp

import (
	"io"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
)

// wsStream presents a WebSocket as the byte stream STOMP expects.
// Incoming messages are read back to back, each Write is one text message.
type wsStream struct {
	ws           *websocket.Conn
	writeTimeout time.Duration
	reader       io.Reader
	writeMu      sync.Mutex
	dead         atomic.Bool
}

func newWSStream(ws *websocket.Conn, writeTimeout time.Duration) *wsStream {
	return &wsStream{ws: ws, writeTimeout: writeTimeout}
}

func (s *wsStream) Read(p []byte) (int, error) {
	for {
		if s.reader == nil {
			_, r, err := s.ws.NextReader()
			if err != nil {
				s.dead.Store(true)
				return 0, err
			}
			s.reader = r
		}
		n, err := s.reader.Read(p)
		if err == io.EOF {
			s.reader = nil
			if n > 0 {
				return n, nil
			}
			continue
		}
		if err != nil {
			s.dead.Store(true)
		}
		return n, err
	}
}

func (s *wsStream) Write(p []byte) (int, error) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	_ = s.ws.SetWriteDeadline(time.Now().Add(s.writeTimeout))
	if err := s.ws.WriteMessage(websocket.TextMessage, p); err != nil {
		s.dead.Store(true)
		return 0, err
	}
	return len(p), nil
}

// Close is idempotent, gorilla ignores a second close.
func (s *wsStream) Close() error {
	s.dead.Store(true)
	return s.ws.Close()
}

func (s *wsStream) alive() bool {
	return !s.dead.Load()
}
