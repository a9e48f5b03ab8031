package services

import (
	"chat-channel/contract"
	"chat-channel/domain"
	"chat-channel/errors"
	"chat-channel/runtime"
	"context"
	stderrors "errors"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

type IChatService interface {
	Connect(ctx context.Context, partner domain.Partner) *Handshake
	Disconnect()
	Receive() *runtime.Listener
	SendMessage(ctx context.Context, text string) error
	Status() Status
}

const defaultChatTimeout = 10 * time.Second

type ChatConfig struct {
	Endpoint         string
	HandshakeTimeout time.Duration
	ResolveTimeout   time.Duration
}

// Status is a snapshot of the session.
type Status struct {
	State           domain.State
	Partner         domain.Partner
	Topic           string
	EverConnected   bool
	Attempt         uint64
	Generation      uint64
	LocalResolved   bool
	PartnerResolved bool
}

// ChatService owns the single chat session: connection lifecycle, topic
// binding and translation between wire frames and the message stream.
//
// Every connect is numbered. Handshakes and directory lookups run in their
// own goroutines and only act on the session if their attempt is still the
// latest one, so a slow handshake can never overwrite a newer session.
// Stream pushes happen under the lock, the stream order is the order in
// which sends and inbound frames were handled.
type ChatService struct {
	log       *slog.Logger
	config    ChatConfig
	transport contract.Transport
	directory contract.Directory
	identity  contract.IdentityProvider
	persister contract.Persister
	stream    *runtime.Stream
	now       func() time.Time

	mu            sync.Mutex
	state         domain.State
	attempt       uint64
	cancelAttempt context.CancelFunc
	session       *domain.Session
	// bound is the attempt whose connection and subscription are installed.
	bound uint64
	conn  contract.Connection
	sub   contract.Subscription
}

func NewChatService(
	log *slog.Logger,
	config ChatConfig,
	transport contract.Transport,
	directory contract.Directory,
	identity contract.IdentityProvider,
	persister contract.Persister,
	stream *runtime.Stream,
) *ChatService {
	if config.HandshakeTimeout <= 0 {
		config.HandshakeTimeout = defaultChatTimeout
	}
	if config.ResolveTimeout <= 0 {
		config.ResolveTimeout = defaultChatTimeout
	}
	return &ChatService{
		log:       log,
		config:    config,
		transport: transport,
		directory: directory,
		identity:  identity,
		persister: persister,
		stream:    stream,
		now:       time.Now,
		state:     domain.StateIdle,
	}
}

// Connect starts a new attempt for partner and returns at once.
// The established connection, if any, is kept until the new handshake
// succeeds.
func (s *ChatService) Connect(ctx context.Context, partner domain.Partner) *Handshake {
	if err := domain.ValidatePartner(partner); err != nil {
		s.log.Warn("Connect refused", "error", err)
		return failedHandshake(0, err)
	}

	s.mu.Lock()
	s.attempt++
	attempt := s.attempt
	if s.cancelAttempt != nil {
		s.cancelAttempt()
	}
	// Only Disconnect or a newer attempt ends the resolutions of this one.
	attemptCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	s.cancelAttempt = cancel
	s.state = domain.StateConnecting

	pending := domain.NewSession(partner)
	if s.session != nil && s.session.LocalUser != nil {
		local := *s.session.LocalUser
		pending.LocalUser = &local
	}
	s.mu.Unlock()

	s.log.Info("Connecting", "attempt", attempt, "partner", partner.ID, "topic", pending.Topic)

	h := newHandshake(attempt)
	go s.open(attemptCtx, attempt, pending, h)
	go s.resolveLocal(attemptCtx, attempt, pending)
	go s.resolvePartner(attemptCtx, attempt, pending)
	return h
}

func (s *ChatService) open(ctx context.Context, attempt uint64, pending *domain.Session, h *Handshake) {
	openCtx, cancel := context.WithTimeout(ctx, s.config.HandshakeTimeout)
	defer cancel()

	conn, err := s.transport.Open(openCtx, s.config.Endpoint)
	h.finish(s.install(attempt, pending, conn, err))
}

// install binds the outcome of a handshake if its attempt is still current.
func (s *ChatService) install(attempt uint64, pending *domain.Session, conn contract.Connection, openErr error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if attempt != s.attempt {
		if conn != nil {
			_ = conn.Close()
		}
		s.log.Debug("Stale handshake discarded", "attempt", attempt, "current", s.attempt)
		return fmt.Errorf("%w: attempt %d, current %d", errors.ErrStaleHandshake, attempt, s.attempt)
	}

	if openErr != nil {
		return s.failLocked(attempt, connectionFailure(openErr))
	}

	s.releaseLocked()
	generation := s.stream.Reset()

	sub, err := conn.Subscribe(pending.Topic, func(payload []byte) {
		s.onFrame(attempt, payload)
	})
	if err != nil {
		_ = conn.Close()
		return s.failLocked(attempt, connectionFailure(err))
	}

	s.conn, s.sub, s.bound = conn, sub, attempt
	pending.EverConnected = true
	s.session = pending
	s.state = domain.StateConnected
	s.log.Info("Connected", "attempt", attempt, "topic", pending.Topic, "generation", generation)
	return nil
}

func (s *ChatService) failLocked(attempt uint64, err error) error {
	if s.cancelAttempt != nil {
		s.cancelAttempt()
		s.cancelAttempt = nil
	}
	if s.releaseLocked() {
		s.stream.Reset()
	}
	s.state = domain.StateDisconnected
	s.log.Error("Connection failed", "attempt", attempt, "error", err)
	return err
}

// releaseLocked cancels the subscription then closes the connection.
// It reports whether a subscription was cancelled.
func (s *ChatService) releaseLocked() bool {
	hadSubscription := s.sub != nil
	if s.sub != nil {
		if err := s.sub.Cancel(); err != nil {
			s.log.Warn("Unsubscribe failed", "attempt", s.bound, "error", err)
		}
		s.sub = nil
	}
	if s.conn != nil {
		if err := s.conn.Close(); err != nil {
			s.log.Warn("Close failed", "attempt", s.bound, "error", err)
		}
		s.conn = nil
	}
	s.bound = 0
	return hadSubscription
}

func (s *ChatService) resolveLocal(ctx context.Context, attempt uint64, pending *domain.Session) {
	ctx, cancel := context.WithTimeout(ctx, s.config.ResolveTimeout)
	defer cancel()

	login, err := s.identity.CurrentLogin(ctx)
	if err != nil {
		s.log.Error("Local user not resolved", "attempt", attempt,
			"error", fmt.Errorf("%w: %v", errors.ErrIdentityUnresolved, err))
		return
	}
	user, err := s.directory.Find(ctx, login)
	if err != nil {
		s.log.Error("Local user not resolved", "attempt", attempt, "login", login,
			"error", fmt.Errorf("%w: %v", errors.ErrIdentityUnresolved, err))
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if attempt != s.attempt {
		return
	}
	pending.LocalUser = &user
	s.log.Debug("Local user resolved", "attempt", attempt, "id", user.ID)
}

func (s *ChatService) resolvePartner(ctx context.Context, attempt uint64, pending *domain.Session) {
	ctx, cancel := context.WithTimeout(ctx, s.config.ResolveTimeout)
	defer cancel()

	user, err := s.directory.Find(ctx, pending.Partner.Login)
	if err != nil {
		s.log.Error("Partner not resolved", "attempt", attempt, "login", pending.Partner.Login, "error", err)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if attempt != s.attempt {
		return
	}
	pending.PartnerUser = &user
	s.log.Debug("Partner resolved", "attempt", attempt, "id", user.ID)
}

// Disconnect drops the session and invalidates any attempt in flight.
// Calling it again, or before any connect, does nothing.
func (s *ChatService) Disconnect() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == domain.StateIdle || s.state == domain.StateDisconnected {
		return
	}

	s.attempt++
	if s.cancelAttempt != nil {
		s.cancelAttempt()
		s.cancelAttempt = nil
	}
	if s.releaseLocked() {
		s.stream.Reset()
	}
	if s.session != nil {
		s.session.EverConnected = false
	}
	s.state = domain.StateDisconnected
	s.log.Info("Disconnected")
}

// Receive attaches to the current generation of the message stream.
// Listeners end on the next reconnect or disconnect and must attach again.
func (s *ChatService) Receive() *runtime.Listener {
	return s.stream.Attach()
}

// SendMessage publishes text to the bound topic. The message is pushed to the
// stream before it returns, persistence happens later and never reports back.
func (s *ChatService) SendMessage(ctx context.Context, text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.conn == nil || !s.conn.IsLive() {
		s.log.WarnContext(ctx, "Message dropped", "error", errors.ErrNotConnected)
		return errors.ErrNotConnected
	}
	session := s.session
	if session.LocalUser == nil {
		s.log.WarnContext(ctx, "Message dropped", "error", errors.ErrIdentityUnresolved)
		return errors.ErrIdentityUnresolved
	}

	at := s.now()
	message, err := domain.NewChatMessage(*session.LocalUser, session.Peer(), text, at)
	if err != nil {
		return err
	}
	payload, err := domain.NewWireFrame(*session.LocalUser, text, at).Encode()
	if err != nil {
		return fmt.Errorf("encoding frame: %w", err)
	}

	if err := s.conn.Publish(session.Topic, payload); err != nil {
		if !stderrors.Is(err, errors.ErrNotConnected) {
			err = connectionFailure(err)
		}
		s.log.WarnContext(ctx, "Message not published", "topic", session.Topic, "error", err)
		return err
	}

	s.stream.Push(message)
	if err := s.persister.Enqueue(message.ToPersisted()); err != nil {
		s.log.WarnContext(ctx, "Message not persisted", "error", err)
	}
	return nil
}

// onFrame handles a frame delivered on the subscription of attempt.
func (s *ChatService) onFrame(attempt uint64, payload []byte) {
	frame, err := domain.DecodeFrame(payload)
	if err != nil {
		s.log.Debug("Frame dropped", "error", err)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if attempt != s.bound || s.session == nil {
		return
	}
	local := s.session.LocalUser
	if local == nil {
		s.log.Warn("Frame dropped, local user not resolved yet", "author", frame.User.ID)
		return
	}
	if frame.User.ID == local.ID {
		return
	}

	at := frame.CreatedAt.Time()
	if at.IsZero() {
		at = s.now()
	}
	message, err := domain.NewChatMessage(s.session.Peer(), *local, frame.Text, at)
	if err != nil {
		s.log.Debug("Frame dropped", "error", err)
		return
	}
	s.stream.Push(message)
}

func (s *ChatService) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()

	status := Status{
		State:      s.state,
		Attempt:    s.attempt,
		Generation: s.stream.Generation(),
	}
	if s.session != nil {
		status.Partner = s.session.Partner
		status.Topic = s.session.Topic
		status.EverConnected = s.session.EverConnected
		status.LocalResolved = s.session.LocalUser != nil
		status.PartnerResolved = s.session.PartnerUser != nil
	}
	return status
}

func connectionFailure(err error) error {
	if stderrors.Is(err, errors.ErrConnectionFailure) {
		return err
	}
	return fmt.Errorf("%w: %v", errors.ErrConnectionFailure, err)
}
