// Package retention empties the trash of entries deleted longer ago than the
// retention window.
package retention

import (
	"context"
	"errors"
	"time"

	"github.com/unowned-ai/daybook/pkg/journal"
	"github.com/unowned-ai/daybook/pkg/logging"
)

// DefaultInterval is how often the janitor runs.
const DefaultInterval = 24 * time.Hour

// Purger permanently removes trash older than days.
// *journal.EntryRepository and *stores.EntryStore implement it.
type Purger interface {
	PurgeOldDeleted(ctx context.Context, days int) (int64, error)
}

// Recorder receives janitor runs. *metrics.Metrics implements it.
type Recorder interface {
	ObservePurge(purged int64, err error)
}

// Janitor runs Purger on a fixed interval.
type Janitor struct {
	purger   Purger
	days     int
	interval time.Duration
	log      logging.Logger
	recorder Recorder
}

// NewJanitor returns a janitor keeping days of trash. Non-positive values
// fall back to journal.DefaultRetentionDays and DefaultInterval.
func NewJanitor(purger Purger, days int, interval time.Duration, log logging.Logger, recorder Recorder) *Janitor {
	if days <= 0 {
		days = journal.DefaultRetentionDays
	}
	if interval <= 0 {
		interval = DefaultInterval
	}
	if log == nil {
		log = logging.Nop()
	}
	return &Janitor{
		purger:   purger,
		days:     days,
		interval: interval,
		log:      log.With("component", "retention"),
		recorder: recorder,
	}
}

// RunOnce purges once and returns the number of removed entries.
func (j *Janitor) RunOnce(ctx context.Context) (int64, error) {
	n, err := j.purger.PurgeOldDeleted(ctx, j.days)
	if j.recorder != nil {
		j.recorder.ObservePurge(n, err)
	}
	if err != nil {
		return 0, err
	}
	j.log.Debug(ctx, "trash purge finished", "purged", n, "retention_days", j.days)
	return n, nil
}

// Run purges immediately and then on every tick until ctx is done. Failed
// runs are logged and retried on the next tick. It returns nil on cancellation.
func (j *Janitor) Run(ctx context.Context) error {
	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	j.log.Info(ctx, "trash janitor started", "retention_days", j.days, "interval", j.interval)
	for {
		if _, err := j.RunOnce(ctx); err != nil && !errors.Is(err, context.Canceled) {
			j.log.Error(ctx, "trash purge failed", "error", err)
		}

		select {
		case <-ctx.Done():
			j.log.Info(context.WithoutCancel(ctx), "trash janitor stopped")
			return nil
		case <-ticker.C:
		}
	}
}
