// Package harness owns the tester's session state and drives discovery, the
// press loop, the activation gesture and the status readout from a single
// tick.
package harness

import (
	"context"
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/mj1618/press-monkey/internal/arena"
	"github.com/mj1618/press-monkey/internal/config"
	"github.com/mj1618/press-monkey/internal/discovery"
	"github.com/mj1618/press-monkey/internal/gesture"
	"github.com/mj1618/press-monkey/internal/jitter"
	"github.com/mj1618/press-monkey/internal/model"
	"github.com/mj1618/press-monkey/internal/platform"
	"github.com/mj1618/press-monkey/internal/scheduler"
	"github.com/mj1618/press-monkey/internal/stats"
)

// DefaultStatusInterval is the minimum gap between status readout updates.
const DefaultStatusInterval = 5 * time.Second

// State is the session state.
type State int

const (
	Idle State = iota
	Testing
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Testing:
		return "testing"
	default:
		return "unknown"
	}
}

// Harness is the tester. It is not safe for concurrent use; every call must
// come from the goroutine that ticks it.
type Harness struct {
	provider *platform.Provider
	logger   *zap.Logger
	session  string
	rng      scheduler.Rand

	table   *stats.Table
	filter  *discovery.Filter
	loop    *scheduler.Loop
	gesture *gesture.Detector

	state          State
	statusInterval time.Duration
	nextStatusAt   time.Duration
	purge          bool
	status         string

	ticked    bool
	firstTick time.Duration
	lastTick  time.Duration
	launched  bool
}

// Option configures a Harness.
type Option func(*Harness)

// WithRand replaces the random source. Tests use it for reproducible
// draws.
func WithRand(r scheduler.Rand) Option {
	return func(h *Harness) { h.rng = r }
}

// WithSessionID overrides the generated session id.
func WithSessionID(id string) Option {
	return func(h *Harness) { h.session = id }
}

// New builds a tester over p. The surface starts hidden with its stop
// affordance hidden.
func New(p *platform.Provider, cfg config.Interface, logger *zap.Logger, opts ...Option) (*Harness, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	pressing := cfg.Pressing()
	if err := jitter.Validate(pressing.Randomness); err != nil {
		return nil, fmt.Errorf("harness: %w", err)
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	h := &Harness{
		provider:       p,
		session:        uuid.NewString(),
		table:          stats.NewTable(),
		statusInterval: pressing.StatusInterval,
		purge:          pressing.PurgeDestroyed,
	}
	for _, opt := range opts {
		opt(h)
	}
	if h.rng == nil {
		seed := pressing.Seed
		if seed == 0 {
			seed = time.Now().UnixNano()
		}
		h.rng = rand.New(rand.NewSource(seed))
	}
	if h.statusInterval <= 0 {
		h.statusInterval = DefaultStatusInterval
	}
	h.logger = logger.With(zap.String("session", h.session))

	activation := cfg.Activation()
	h.gesture = gesture.New(activation.Presses, activation.Window)
	h.filter = discovery.New(p, h.table,
		discovery.WithRoles(model.ParseRoles(strings.Join(cfg.Discovery().Roles, ","))),
		discovery.WithLogger(h.logger.Named("discovery")))
	h.loop = scheduler.New(scheduler.Deps{
		Scene:      p.Scene,
		Dispatcher: p.Dispatcher,
		Filter:     h.filter,
		Table:      h.table,
		Rand:       h.rng,
		Active:     func() bool { return h.state == Testing },
	}, scheduler.Config{
		Hold:       pressing.Hold,
		Delay:      pressing.Delay,
		Randomness: pressing.Randomness,
	},
		scheduler.WithLogger(h.logger.Named("scheduler")),
		scheduler.WithOnPress(h.flushStatus))

	ctx := context.Background()
	h.surfaceCall("hide stop affordance", p.Surface.SetStopVisible(ctx, false))
	h.surfaceCall("hide surface", p.Surface.SetVisible(ctx, false))

	lo, hi := jitter.Bounds(pressing.Hold, pressing.Randomness)
	h.logger.Debug("Tester ready.",
		zap.Float64("rate", pressing.Rate),
		zap.String("rate_note", "informational, cadence follows the delay"),
		zap.Duration("hold_min", lo),
		zap.Duration("hold_max", hi),
		zap.Duration("delay", pressing.Delay),
		zap.Float64("randomness", pressing.Randomness))
	return h, nil
}

// Tick advances the tester to now. now is measured on a monotonic clock
// chosen by the caller and must not go backwards.
func (h *Harness) Tick(ctx context.Context, now time.Duration) {
	if !h.ticked {
		h.ticked, h.firstTick = true, now
	}
	h.lastTick = now
	h.launched = false

	if in := h.provider.Input; in != nil && in.ActivationKeyDown(ctx) {
		if h.gesture.Observe(now) {
			h.ToggleSurface(ctx)
		}
	}

	triggers, err := h.provider.Surface.PollTriggers(ctx)
	if err != nil {
		h.logger.Debug("Trigger poll failed.", zap.Error(err))
	}
	for _, t := range triggers {
		switch t {
		case platform.TriggerStart:
			h.Start(ctx, now)
		case platform.TriggerStop:
			h.Stop(ctx)
		}
	}

	if h.state == Idle {
		h.loop.Refresh(ctx)
	}
	if !h.launched {
		h.loop.Step(ctx, now)
	}
}

// Start switches to Testing, swaps the affordances, refreshes the eligible
// set and launches the press loop. It is a no-op while testing.
func (h *Harness) Start(ctx context.Context, now time.Duration) {
	if h.state == Testing {
		return
	}
	h.state = Testing
	h.surfaceCall("hide start affordance", h.provider.Surface.SetStartVisible(ctx, false))
	h.surfaceCall("show stop affordance", h.provider.Surface.SetStopVisible(ctx, true))
	h.loop.Refresh(ctx)
	if h.loop.Launch(ctx, now) {
		h.launched = true
	}
	h.logger.Info("Testing started.", zap.Int("eligible", len(h.loop.Eligible())))
}

// Stop switches to Idle and swaps the affordances back. A press in flight
// still completes; the loop ends at its next iteration.
func (h *Harness) Stop(ctx context.Context) {
	if h.state != Testing {
		return
	}
	h.state = Idle
	h.surfaceCall("show start affordance", h.provider.Surface.SetStartVisible(ctx, true))
	h.surfaceCall("hide stop affordance", h.provider.Surface.SetStopVisible(ctx, false))
	h.logger.Info("Testing stopped.", zap.Int("presses", h.loop.Presses()))
}

// ToggleSurface flips the surface visibility.
func (h *Harness) ToggleSurface(ctx context.Context) {
	visible := !h.provider.Surface.Visible()
	h.surfaceCall("toggle surface", h.provider.Surface.SetVisible(ctx, visible))
	h.logger.Info("Surface toggled.", zap.Bool("visible", visible))
}

// flushStatus rewrites the readout when the status interval has elapsed.
func (h *Harness) flushStatus(ctx context.Context, now time.Duration) {
	if now < h.nextStatusAt {
		return
	}
	h.nextStatusAt = now + h.statusInterval
	if h.purge {
		if n := h.table.Purge(func(c arena.Handle) bool {
			_, ok := h.provider.Scene.Control(ctx, c)
			return ok
		}); n > 0 {
			h.logger.Debug("Purged destroyed controls.", zap.Int("rows", n))
		}
	}
	h.status = h.table.Render()
	h.surfaceCall("set status", h.provider.Surface.SetStatus(ctx, h.status))
	h.logger.Debug("Status updated.", zap.Int("controls", h.table.Len()), zap.Int("total", h.table.Total()))
}

func (h *Harness) surfaceCall(what string, err error) {
	if err != nil {
		h.logger.Debug("Surface call failed.", zap.String("call", what), zap.Error(err))
	}
}

// State returns the session state.
func (h *Harness) State() State { return h.state }

// SessionID returns the session id stamped on logs and reports.
func (h *Harness) SessionID() string { return h.session }

// Counts returns the press tally in first-seen order.
func (h *Harness) Counts() []stats.Entry { return h.table.Entries() }

// Table exposes the press tally for renderers.
func (h *Harness) Table() *stats.Table { return h.table }

// StatusText returns the last readout written to the surface.
func (h *Harness) StatusText() string { return h.status }

// Presses returns the number of completed presses.
func (h *Harness) Presses() int { return h.loop.Presses() }

// Cycles returns the number of press iterations that ran to completion.
func (h *Harness) Cycles() int { return h.loop.Cycles() }

// Elapsed returns the time between the first and the latest tick.
func (h *Harness) Elapsed() time.Duration { return h.lastTick - h.firstTick }
