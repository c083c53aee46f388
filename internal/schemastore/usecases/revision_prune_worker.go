package usecases

import (
	"context"
	"log/slog"
	"time"

	"fieldregistry-server/internal/infra/async"

	"github.com/robfig/cron/v3"
)

func NewRevisionPruneWorker(
	ticker *time.Ticker,
	repository ConfigRepository,
	schedule string,
	retention time.Duration,
) (*RevisionPruneWorker, error) {
	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)
	spec, err := parser.Parse(schedule)
	if err != nil {
		return nil, err
	}

	return &RevisionPruneWorker{
		ticker:     ticker,
		repository: repository,
		schedule:   spec,
		retention:  retention,
		nextRun:    spec.Next(time.Now()),
	}, nil
}

var _ async.Worker = (*RevisionPruneWorker)(nil)

// RevisionPruneWorker trims old config revision history on a cron schedule.
// Revisions exist for audit and rollback; unbounded growth is the only thing
// being prevented here, so losing a prune run is harmless.
type RevisionPruneWorker struct {
	ticker     *time.Ticker
	repository ConfigRepository
	schedule   cron.Schedule
	retention  time.Duration
	nextRun    time.Time
}

func (w *RevisionPruneWorker) Run(ctx context.Context, done func()) {
	slog.Debug("revision prune worker started")
	defer done()

	for {
		select {
		case <-ctx.Done():
			slog.Info("revision prune worker cancelled")
			return
		case now := <-w.ticker.C:
			if now.Before(w.nextRun) {
				continue
			}
			w.nextRun = w.schedule.Next(now)
			w.prune(ctx, now)
		}
	}
}

func (w *RevisionPruneWorker) Shutdown() {
	w.ticker.Stop()
}

func (w *RevisionPruneWorker) prune(ctx context.Context, now time.Time) {
	cutoff := now.Add(-w.retention)

	count, err := w.repository.CountRevisionsBefore(ctx, cutoff)
	if err != nil {
		slog.Error("counting stale revisions", slog.String("error", err.Error()))
		return
	}
	if count == 0 {
		return
	}

	if err := w.repository.DeleteRevisionsBefore(ctx, cutoff); err != nil {
		slog.Error("pruning stale revisions", slog.String("error", err.Error()))
		return
	}

	slog.Info("pruned registry config revisions",
		slog.Int64("count", count),
		slog.Time("cutoff", cutoff))
}
