package stomp

import (
	"chat-channel/contract"
	"chat-channel/errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-stomp/stomp/v3"
)

const contentTypeJSON = "application/json"

// Connection adapts a go-stomp session to contract.Connection.
// Calls that wait for a broker RECEIPT are bounded by the write timeout.
type Connection struct {
	log       *slog.Logger
	conn      *stomp.Conn
	stream    *wsStream
	timeout   time.Duration
	closed    atomic.Bool
	closeOnce sync.Once
}

func newConnection(log *slog.Logger, conn *stomp.Conn, stream *wsStream, timeout time.Duration) *Connection {
	return &Connection{log: log, conn: conn, stream: stream, timeout: timeout}
}

func (c *Connection) IsLive() bool {
	return !c.closed.Load() && c.stream.alive()
}

func (c *Connection) Publish(topic string, payload []byte) error {
	if !c.IsLive() {
		return fmt.Errorf("%w: publish on a closed connection", errors.ErrNotConnected)
	}
	if err := c.conn.Send(topic, contentTypeJSON, payload); err != nil {
		return fmt.Errorf("%w: sending to %s: %v", errors.ErrConnectionFailure, topic, err)
	}
	return nil
}

// Subscribe binds onFrame to topic. Frames are handed over on a dedicated
// goroutine, in delivery order.
func (c *Connection) Subscribe(topic string, onFrame contract.FrameHandler) (contract.Subscription, error) {
	if !c.IsLive() {
		return nil, fmt.Errorf("%w: subscribe on a closed connection", errors.ErrNotConnected)
	}
	sub, err := c.conn.Subscribe(topic, stomp.AckAuto)
	if err != nil {
		return nil, fmt.Errorf("%w: subscribing to %s: %v", errors.ErrConnectionFailure, topic, err)
	}
	s := &subscription{conn: c, sub: sub, topic: topic, onFrame: onFrame}
	s.active.Store(true)
	go s.deliver()
	return s, nil
}

// Close sends DISCONNECT when the connection is still up, then drops the socket.
// Safe to call several times.
func (c *Connection) Close() error {
	var err error
	c.closeOnce.Do(func() {
		wasLive := c.IsLive()
		c.closed.Store(true)
		if wasLive {
			err = c.await("DISCONNECT", c.conn.Disconnect)
		}
		_ = c.stream.Close()
	})
	return err
}

// await runs a call that waits for a broker RECEIPT. On timeout the call is
// left to end with the socket.
func (c *Connection) await(command string, call func() error) error {
	done := make(chan error, 1)
	go func() { done <- call() }()

	select {
	case err := <-done:
		if err != nil {
			return fmt.Errorf("%w: %s: %v", errors.ErrConnectionFailure, command, err)
		}
		return nil
	case <-time.After(c.timeout):
		return fmt.Errorf("%w: no receipt for %s after %s", errors.ErrConnectionFailure, command, c.timeout)
	}
}

type subscription struct {
	conn    *Connection
	sub     *stomp.Subscription
	topic   string
	onFrame contract.FrameHandler
	active  atomic.Bool
	once    sync.Once
}

func (s *subscription) deliver() {
	for msg := range s.sub.C {
		if msg.Err != nil {
			if s.active.Load() {
				s.conn.log.Warn("STOMP subscription ended", "topic", s.topic, "error", msg.Err)
			}
			continue
		}
		if s.active.Load() {
			s.onFrame(msg.Body)
		}
	}
}

// Cancel stops local delivery at once, then tells the broker.
func (s *subscription) Cancel() error {
	var err error
	s.once.Do(func() {
		s.active.Store(false)
		if !s.conn.IsLive() {
			return
		}
		err = s.conn.await("UNSUBSCRIBE", func() error { return s.sub.Unsubscribe() })
	})
	return err
}
