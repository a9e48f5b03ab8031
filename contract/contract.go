//go:generate go run go.uber.org/mock/mockgen -source=contract.go -destination=../mocks/mock_contract.go -package=mocks
package contract

import (
	"chat-channel/domain"
	"context"
	"reflect"
)

type ISupervisor interface {
	Add(worker ...Worker) ISupervisor
	Run(ctx context.Context)
	Start(ctx context.Context, worker Worker)
	Stop()
}

// Worker doesn't protect itself
// Can be silly, focused
type Worker interface {
	Run(ctx context.Context) error
}

// GetWorkerName uses reflection to retrieve the type name of the worker.
// This is used for logging and supervision purposes during worker initialization
// or lifecycle events, avoiding the need for manual naming in the Worker interface.
func GetWorkerName(w Worker) string {
	if w == nil {
		return "NilWorker"
	}
	t := reflect.TypeOf(w)
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	return t.Name()
}

// Transport opens pub/sub connections. It never reconnects by itself.
type Transport interface {
	// Open returns once the protocol handshake completed.
	Open(ctx context.Context, endpoint string) (Connection, error)
}

// FrameHandler receives raw frame bodies in delivery order.
// It runs on the subscription's delivery goroutine, never from inside Subscribe.
type FrameHandler func(payload []byte)

type Connection interface {
	IsLive() bool
	Publish(topic string, payload []byte) error
	Subscribe(topic string, onFrame FrameHandler) (Subscription, error)
	Close() error
}

type Subscription interface {
	Cancel() error
}

// Directory resolves a user reference (login) into a user record.
type Directory interface {
	Find(ctx context.Context, login string) (domain.User, error)
}

// IdentityProvider tells who the local user is.
type IdentityProvider interface {
	CurrentLogin(ctx context.Context) (string, error)
}

// MessageStore persists a message. Failures are reported, never retried here.
type MessageStore interface {
	Create(ctx context.Context, message domain.PersistedMessage) error
}

// Persister accepts messages for asynchronous persistence without blocking.
type Persister interface {
	Enqueue(message domain.PersistedMessage) error
}
