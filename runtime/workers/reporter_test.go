package workers

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/require"
)

func TestReporterWorker_Reports_Only_Changes(t *testing.T) {
	req := require.New(t)
	log := logs.GetLoggerFromLevel(slog.LevelDebug)
	current := PersistenceStats{}
	reporter := NewReporterWorker(log, time.Second, func() PersistenceStats { return current })

	// Given nothing happened yet
	req.False(reporter.report())

	// When a store call succeeds
	current.Persisted = 2
	// Then it is reported once
	req.True(reporter.report())
	req.False(reporter.report())

	// When a message is dropped
	current.Dropped = 1
	req.True(reporter.report())
	req.Equal(current, reporter.last)
}

func TestReporterWorker_Stops_With_Context(t *testing.T) {
	req := require.New(t)
	log := logs.GetLoggerFromLevel(slog.LevelDebug)
	calls := make(chan struct{}, 16)
	reporter := NewReporterWorker(log, 10*time.Millisecond, func() PersistenceStats {
		calls <- struct{}{}
		return PersistenceStats{}
	})

	ctx, cancel := context.WithCancel(context.Background())
	stopped := make(chan error, 1)
	go func() { stopped <- reporter.Run(ctx) }()

	// Given a running reporter polling its provider
	select {
	case <-calls:
	case <-time.After(time.Second):
		req.FailNow("reporter never polled")
	}

	// When the context ends
	cancel()

	// Then Run returns without error
	select {
	case err := <-stopped:
		req.NoError(err)
	case <-time.After(time.Second):
		req.FailNow("reporter did not stop")
	}
}
