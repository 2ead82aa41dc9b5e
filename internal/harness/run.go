package harness

import (
	"context"
	"fmt"
	"time"
)

// DefaultTickInterval is the real-time tick period, about one display
// frame.
const DefaultTickInterval = 16 * time.Millisecond

// Run ticks the tester in real time until ctx is done. Tick times are
// measured from the moment Run is called.
func (h *Harness) Run(ctx context.Context, interval time.Duration) error {
	if interval <= 0 {
		interval = DefaultTickInterval
	}
	origin := time.Now()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	h.Tick(ctx, 0)
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			h.Tick(ctx, time.Since(origin))
		}
	}
}

// RunFor ticks the tester on a virtual clock from start through
// start+duration in steps of tick. before, when set, runs ahead of every
// tick with the same time so a backend can apply scripted input.
func (h *Harness) RunFor(ctx context.Context, start, duration, tick time.Duration, before func(now time.Duration)) error {
	if tick <= 0 {
		return fmt.Errorf("harness: tick must be positive, got %s", tick)
	}
	for now := start; now <= start+duration; now += tick {
		if err := ctx.Err(); err != nil {
			return err
		}
		if before != nil {
			before(now)
		}
		h.Tick(ctx, now)
	}
	return nil
}
