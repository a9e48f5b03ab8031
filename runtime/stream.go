package runtime

import (
	"chat-channel/domain"
	"log/slog"
	"sync"
)

// Stream broadcasts chat messages to every listener of the current generation.
//
// It is hot: a listener only sees what is pushed after it attached. Reset
// closes all listeners and opens the next generation, so consumers holding
// an older listener stop receiving and must attach again.
//
// Push never blocks. A listener whose buffer is full misses the message.
type Stream struct {
	mu         sync.RWMutex
	log        *slog.Logger
	bufferSize int
	generation uint64
	nextID     uint64
	listeners  map[uint64]*Listener
}

func NewStream(log *slog.Logger, bufferSize int) *Stream {
	if bufferSize <= 0 {
		bufferSize = 1
	}
	return &Stream{
		log:        log,
		bufferSize: bufferSize,
		listeners:  make(map[uint64]*Listener),
	}
}

// Listener is a handle on one generation of the stream.
type Listener struct {
	id         uint64
	generation uint64
	ch         chan domain.ChatMessage
	stream     *Stream
	closeOnce  sync.Once
}

// C is closed when the generation ends or the listener detaches.
func (l *Listener) C() <-chan domain.ChatMessage { return l.ch }

func (l *Listener) Generation() uint64 { return l.generation }

// Detach stops delivery to this listener. Safe to call several times.
func (l *Listener) Detach() {
	l.stream.mu.Lock()
	defer l.stream.mu.Unlock()
	if current, ok := l.stream.listeners[l.id]; ok && current == l {
		delete(l.stream.listeners, l.id)
	}
	l.close()
}

func (l *Listener) close() {
	l.closeOnce.Do(func() { close(l.ch) })
}

// Attach registers a listener on the current generation.
func (s *Stream) Attach() *Listener {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextID++
	l := &Listener{
		id:         s.nextID,
		generation: s.generation,
		ch:         make(chan domain.ChatMessage, s.bufferSize),
		stream:     s,
	}
	s.listeners[l.id] = l
	return l
}

// Push delivers msg to all listeners of the current generation, in call order.
func (s *Stream) Push(msg domain.ChatMessage) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, l := range s.listeners {
		select {
		case l.ch <- msg:
		default:
			s.log.Warn("Listener buffer full, message dropped",
				"listener", l.id, "generation", l.generation)
		}
	}
}

// Reset ends the current generation and returns the new one.
func (s *Stream) Reset() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	for id, l := range s.listeners {
		l.close()
		delete(s.listeners, id)
	}
	s.generation++
	s.log.Debug("Message stream reset", "generation", s.generation)
	return s.generation
}

func (s *Stream) Generation() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.generation
}

func (s *Stream) ListenerCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.listeners)
}
