package build

import (
	"context"
	"time"
)

// Default pause between transitions.
const DefaultInterval = time.Second

// Controls the pacing loop.
type RunOptions struct {
	Interval time.Duration // Pause between transitions. Defaults to [DefaultInterval].
}

// Drives b until it finishes or ctx is cancelled.
//
// Progress is called repeatedly with a pause of opts.Interval between
// transitions. Cancellation is observed between transitions, in which case
// ctx.Err() is returned and the build is left in its current state. A
// build that finishes as failed returns its error.
func Run(ctx context.Context, gw Gateway, b *Build, opts RunOptions) error {
	interval := opts.Interval
	if interval <= 0 {
		interval = DefaultInterval
	}

	timer := time.NewTimer(0)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		if err := b.Progress(ctx, gw); err != nil {
			return err
		}
		if b.Done() {
			return nil
		}

		timer.Reset(interval)
	}
}
