package pipeline

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/robfig/cron/v3"
)

// Schedule runs the pipeline immediately and then every everyHours
// hours until the context is cancelled. Overlapping runs are skipped,
// not queued.
func (r *Runner) Schedule(ctx context.Context, everyHours int) error {
	if everyHours <= 0 {
		return fmt.Errorf("schedule interval must be positive, got %d hours", everyHours)
	}

	var busy atomic.Bool
	runOnce := func() {
		if !busy.CompareAndSwap(false, true) {
			r.log.Warnw("previous run still in progress, skipping this slot")
			return
		}
		defer busy.Store(false)

		if _, err := r.Run(ctx); err != nil {
			r.log.Errorw("scheduled run failed", "error", err)
		}
	}

	r.log.Infow("schedule started", "every_hours", everyHours)
	runOnce()

	c := cron.New()
	if _, err := c.AddFunc(fmt.Sprintf("@every %dh", everyHours), runOnce); err != nil {
		return fmt.Errorf("failed to register schedule: %w", err)
	}
	c.Start()

	<-ctx.Done()

	stopped := c.Stop()
	<-stopped.Done()
	r.log.Infow("schedule stopped")

	return ctx.Err()
}
