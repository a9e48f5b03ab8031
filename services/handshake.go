package services

import (
	"context"
	"sync"
)

// Handshake completes once the connect attempt it stands for is settled:
// installed, failed, or superseded by a newer attempt.
type Handshake struct {
	attempt uint64
	done    chan struct{}
	once    sync.Once
	err     error
}

func newHandshake(attempt uint64) *Handshake {
	return &Handshake{attempt: attempt, done: make(chan struct{})}
}

func failedHandshake(attempt uint64, err error) *Handshake {
	h := newHandshake(attempt)
	h.finish(err)
	return h
}

func (h *Handshake) finish(err error) {
	h.once.Do(func() {
		h.err = err
		close(h.done)
	})
}

func (h *Handshake) Attempt() uint64 { return h.attempt }

func (h *Handshake) Done() <-chan struct{} { return h.done }

// Err is nil until Done is closed.
func (h *Handshake) Err() error {
	select {
	case <-h.done:
		return h.err
	default:
		return nil
	}
}

// Wait blocks until the handshake settled or ctx ended.
func (h *Handshake) Wait(ctx context.Context) error {
	select {
	case <-h.done:
		return h.err
	case <-ctx.Done():
		return ctx.Err()
	}
}
