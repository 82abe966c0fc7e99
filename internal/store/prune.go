// ABOUTME: Scheduled eviction of idle sessions
// ABOUTME: Runs Store.Prune on a cron schedule using robfig/cron

package store

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

// StartPruner schedules Prune on the given cron spec (for example
// "@every 10m"), removing sessions idle for longer than ttl. The returned
// cron must be stopped by the caller.
func StartPruner(s Store, schedule string, ttl time.Duration, logger *slog.Logger) (*cron.Cron, error) {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "pruner")

	c := cron.New()
	_, err := c.AddFunc(schedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()

		n, err := s.Prune(ctx, time.Now().Add(-ttl))
		if err != nil {
			logger.Error("pruning sessions failed", "error", err)
			return
		}
		logger.Debug("session prune complete", "removed", n)
	})
	if err != nil {
		return nil, fmt.Errorf("scheduling pruner %q: %w", schedule, err)
	}

	c.Start()
	return c, nil
}
