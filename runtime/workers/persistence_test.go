package workers

import (
	"chat-channel/domain"
	"chat-channel/errors"
	"chat-channel/mocks"
	"context"
	"fmt"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func persisted(text string) domain.PersistedMessage {
	return domain.PersistedMessage{
		ID:        uuid.New(),
		Sender:    domain.User{ID: 7},
		Recipient: domain.User{ID: 42},
		Text:      text,
		CreatedAt: time.Now().UTC(),
	}
}

func TestPersistenceWorker_Fans_Out_To_Every_Store(t *testing.T) {
	req := require.New(t)
	log := logs.GetLoggerFromLevel(slog.LevelDebug)
	ctrl := gomock.NewController(t)
	remote := mocks.NewMockMessageStore(ctrl)
	local := mocks.NewMockMessageStore(ctrl)
	worker := NewPersistenceWorker(log, 10, time.Second, remote, local)

	msg := persisted("hi")
	done := make(chan struct{})

	// Given a failing remote store and a healthy local one
	remote.EXPECT().Create(gomock.Any(), msg).Return(fmt.Errorf("503")).Times(1)
	local.EXPECT().Create(gomock.Any(), msg).
		DoAndReturn(func(ctx context.Context, m domain.PersistedMessage) error {
			close(done)
			return nil
		}).Times(1)

	ctx, cancel := context.WithCancel(context.Background())
	stopped := make(chan struct{})
	go func() {
		_ = worker.Run(ctx)
		close(stopped)
	}()

	// When a message is enqueued
	req.NoError(worker.Enqueue(msg))

	// Then the failure of one store does not prevent the other
	select {
	case <-done:
	case <-time.After(time.Second):
		req.Fail("local store never called")
	}
	cancel()
	<-stopped

	stats := worker.Stats()
	req.Equal(uint64(1), stats.Persisted)
	req.Equal(uint64(1), stats.Failed)
}

func TestPersistenceWorker_Store_Timeout(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	slow := mocks.NewMockMessageStore(ctrl)
	worker := NewPersistenceWorker(slog.Default(), 1, 20*time.Millisecond, slow)

	result := make(chan error, 1)
	slow.EXPECT().Create(gomock.Any(), gomock.Any()).
		DoAndReturn(func(ctx context.Context, m domain.PersistedMessage) error {
			<-ctx.Done()
			result <- ctx.Err()
			return ctx.Err()
		}).Times(1)

	// When the store hangs longer than the timeout
	worker.persist(context.Background(), persisted("slow"))

	// Then its context was canceled by the deadline
	req.ErrorIs(<-result, context.DeadlineExceeded)
	req.Equal(uint64(1), worker.Stats().Failed)
}

func TestPersistenceWorker_Enqueue_Never_Blocks(t *testing.T) {
	req := require.New(t)
	worker := NewPersistenceWorker(slog.Default(), 1, time.Second)

	// Given nobody consumes the queue
	req.NoError(worker.Enqueue(persisted("one")))

	// When the queue is full
	err := worker.Enqueue(persisted("two"))

	// Then the message is dropped
	req.ErrorIs(err, errors.ErrQueueFull)
	req.Equal(uint64(1), worker.Stats().Dropped)
}
