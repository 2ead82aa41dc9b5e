// Package gesture detects the repeated-key activation gesture that toggles
// the harness surface.
package gesture

import "time"

const (
	DefaultPresses = 3
	DefaultWindow  = 750 * time.Millisecond
)

// Detector counts activation key presses that arrive within Window of the
// previous one. A longer gap restarts the streak at one.
type Detector struct {
	Presses int
	Window  time.Duration

	count int
	last  time.Duration
	seen  bool
}

// New returns a detector; non-positive arguments fall back to the defaults.
func New(presses int, window time.Duration) *Detector {
	if presses <= 0 {
		presses = DefaultPresses
	}
	if window <= 0 {
		window = DefaultWindow
	}
	return &Detector{Presses: presses, Window: window}
}

// Observe records a key press at now and reports whether it completed the
// gesture. Completing the gesture resets the streak to zero.
func (d *Detector) Observe(now time.Duration) bool {
	if d.seen && now-d.last < d.Window {
		d.count++
	} else {
		d.count = 1
	}
	d.last = now
	d.seen = true
	if d.count >= d.Presses {
		d.count = 0
		return true
	}
	return false
}

// Streak returns the number of presses in the current streak.
func (d *Detector) Streak() int { return d.count }
