package workers

import (
	"chat-channel/contract"
	"chat-channel/domain"
	"chat-channel/errors"
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"
)

// PersistenceWorker hands sent messages to every configured store.
//
// It is best effort: a failing store is logged and skipped, nothing is
// retried and the sender never hears about it. Stores are called one after
// the other so each of them sees messages in send order.
type PersistenceWorker struct {
	log     *slog.Logger
	queue   chan domain.PersistedMessage
	stores  []contract.MessageStore
	timeout time.Duration

	persisted atomic.Uint64
	failed    atomic.Uint64
	dropped   atomic.Uint64
}

func NewPersistenceWorker(log *slog.Logger, queueSize int, timeout time.Duration, stores ...contract.MessageStore) *PersistenceWorker {
	return &PersistenceWorker{
		log:     log,
		queue:   make(chan domain.PersistedMessage, queueSize),
		stores:  stores,
		timeout: timeout,
	}
}

// Enqueue never blocks. A full queue drops the message.
func (w *PersistenceWorker) Enqueue(message domain.PersistedMessage) error {
	select {
	case w.queue <- message:
		return nil
	default:
		w.dropped.Add(1)
		w.log.Warn("Persistence queue full, message not saved", "id", message.ID)
		return errors.ErrQueueFull
	}
}

func (w *PersistenceWorker) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			w.log.Debug("Context done, stopping persistence")
			return nil
		case message := <-w.queue:
			w.persist(ctx, message)
		}
	}
}

func (w *PersistenceWorker) persist(ctx context.Context, message domain.PersistedMessage) {
	for _, store := range w.stores {
		storeCtx, cancel := context.WithTimeout(ctx, w.timeout)
		err := store.Create(storeCtx, message)
		cancel()
		if err != nil {
			w.failed.Add(1)
			w.log.Error("Error on saving sent message",
				"store", fmt.Sprintf("%T", store),
				"id", message.ID,
				"error", fmt.Errorf("%w: %v", errors.ErrPersistenceFailure, err))
			continue
		}
		w.persisted.Add(1)
	}
}

type PersistenceStats struct {
	Persisted uint64
	Failed    uint64
	Dropped   uint64
}

// Stats counts store calls, not messages.
func (w *PersistenceWorker) Stats() PersistenceStats {
	return PersistenceStats{
		Persisted: w.persisted.Load(),
		Failed:    w.failed.Load(),
		Dropped:   w.dropped.Load(),
	}
}
