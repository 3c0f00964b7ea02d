package scheduler

import (
	"context"
	"log/slog"
	"time"

	"alumni-engine/internal/logging"
)

type Task func(ctx context.Context) error

// Every runs task immediately and then on each tick until ctx is done.
// Runs never overlap; a slow run delays the next tick.
func Every(ctx context.Context, interval time.Duration, name string, task Task, log *slog.Logger) {
	log = logging.OrDefault(log).With("task", name)
	if interval <= 0 {
		log.Warn("scheduler disabled", "interval", interval)
		return
	}

	run := func() {
		start := time.Now()
		if err := task(ctx); err != nil && ctx.Err() == nil {
			log.Warn("scheduled task failed", "error", err)
			return
		}
		log.Debug("scheduled task done", "took", time.Since(start))
	}

	t := time.NewTicker(interval)
	defer t.Stop()

	run()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			run()
		}
	}
}
