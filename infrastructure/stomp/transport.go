// Package stomp binds go-stomp to a WebSocket endpoint.
package stomp

import (
	"chat-channel/contract"
	"chat-channel/errors"
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/go-stomp/stomp/v3"
	"github.com/gorilla/websocket"
)

// Options tunes the WebSocket and the STOMP session.
type Options struct {
	HandshakeTimeout time.Duration
	WriteTimeout     time.Duration
	// HeartBeat is offered both ways, zero disables heart-beating.
	HeartBeat time.Duration
	// Token is sent as a bearer Authorization header on the upgrade request.
	Token string
}

func DefaultOptions() Options {
	return Options{
		HandshakeTimeout: 10 * time.Second,
		WriteTimeout:     10 * time.Second,
		HeartBeat:        10 * time.Second,
	}
}

// Transport opens STOMP connections. It never reconnects on its own.
type Transport struct {
	log     *slog.Logger
	options Options
	dialer  *websocket.Dialer
}

func NewTransport(log *slog.Logger, options Options) *Transport {
	return &Transport{
		log:     log,
		options: options,
		dialer: &websocket.Dialer{
			HandshakeTimeout: options.HandshakeTimeout,
			Subprotocols:     []string{"v12.stomp", "v11.stomp", "v10.stomp"},
		},
	}
}

// Open dials the endpoint and waits for CONNECTED. Every failure is reported
// as ErrConnectionFailure.
func (t *Transport) Open(ctx context.Context, endpoint string) (contract.Connection, error) {
	u, err := url.Parse(endpoint)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid endpoint %q: %v", errors.ErrConnectionFailure, endpoint, err)
	}

	header := http.Header{}
	if t.options.Token != "" {
		header.Set("Authorization", "Bearer "+t.options.Token)
	}

	ws, _, err := t.dialer.DialContext(ctx, endpoint, header)
	if err != nil {
		return nil, fmt.Errorf("%w: websocket dial failed: %v", errors.ErrConnectionFailure, err)
	}

	conn, err := t.handshake(ctx, newWSStream(ws, t.options.WriteTimeout), u.Hostname())
	if err != nil {
		_ = ws.Close()
		return nil, fmt.Errorf("%w: %v", errors.ErrConnectionFailure, err)
	}
	return conn, nil
}

func (t *Transport) handshake(ctx context.Context, stream *wsStream, host string) (*Connection, error) {
	// Unblocks the CONNECTED read when ctx ends first.
	stop := context.AfterFunc(ctx, func() { _ = stream.Close() })

	conn, err := stomp.Connect(stream,
		stomp.ConnOpt.Host(host),
		stomp.ConnOpt.HeartBeat(t.options.HeartBeat, t.options.HeartBeat),
	)
	if !stop() {
		if err == nil {
			_ = stream.Close()
		}
		return nil, ctx.Err()
	}
	if err != nil {
		return nil, fmt.Errorf("STOMP handshake: %v", err)
	}

	t.log.Debug("STOMP session established", "version", conn.Version(), "server", conn.Server())
	return newConnection(t.log, conn, stream, t.options.WriteTimeout), nil
}
