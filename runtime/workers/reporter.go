package workers

import (
	"context"
	"log/slog"
	"time"
)

type StatsProvider func() PersistenceStats

// ReporterWorker logs persistence counters at a fixed interval, only when
// they moved since the last report.
type ReporterWorker struct {
	log      *slog.Logger
	interval time.Duration
	stats    StatsProvider
	last     PersistenceStats
}

func NewReporterWorker(log *slog.Logger, interval time.Duration, stats StatsProvider) *ReporterWorker {
	return &ReporterWorker{log: log, interval: interval, stats: stats}
}

func (w *ReporterWorker) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			w.report()
		}
	}
}

func (w *ReporterWorker) report() bool {
	stats := w.stats()
	if stats == w.last {
		return false
	}
	w.log.Info("Persistence",
		"persisted", stats.Persisted-w.last.Persisted,
		"failed", stats.Failed-w.last.Failed,
		"dropped", stats.Dropped-w.last.Dropped)
	w.last = stats
	return true
}
