// Package scheduler runs the randomized press loop as a tick-driven state
// machine. A suspension is a "resume not before" deadline that the owner
// checks on every Step, so the loop never blocks and never spawns
// goroutines.
package scheduler

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/mj1618/press-monkey/internal/arena"
	"github.com/mj1618/press-monkey/internal/jitter"
	"github.com/mj1618/press-monkey/internal/platform"
	"github.com/mj1618/press-monkey/internal/stats"
)

// Eligibility is the part of the discovery filter the loop consumes.
type Eligibility interface {
	Refresh(ctx context.Context) []arena.Handle
	Eligible(ctx context.Context, h arena.Handle) bool
}

// Rand is the random source for target draws and jitter.
type Rand interface {
	Intn(n int) int
	Float64() float64
}

// Config holds the base timings. Each wait is the base scaled by a factor
// drawn from [1-Randomness, 1+Randomness].
type Config struct {
	Hold       time.Duration
	Delay      time.Duration
	Randomness float64
}

// Deps are the collaborators a Loop drives.
type Deps struct {
	Scene      platform.Scene
	Dispatcher platform.EventDispatcher
	Filter     Eligibility
	Table      *stats.Table
	Rand       Rand
	// Active is consulted at the top of every iteration; the loop ends
	// once it reports false.
	Active func() bool
}

type phase int

const (
	phaseDone phase = iota
	phaseTop
	phaseHold
	phaseDelay
)

func (p phase) String() string {
	switch p {
	case phaseDone:
		return "done"
	case phaseTop:
		return "top"
	case phaseHold:
		return "hold"
	case phaseDelay:
		return "delay"
	default:
		return "unknown"
	}
}

// Loop is the press loop. All methods must be called from the owning tick.
type Loop struct {
	deps    Deps
	cfg     Config
	logger  *zap.Logger
	onPress func(ctx context.Context, now time.Duration)

	phase    phase
	resumeAt time.Duration
	target   arena.Handle
	targetNm string
	eligible []arena.Handle

	presses int
	cycles  int
}

// Option configures a Loop.
type Option func(*Loop)

// WithLogger sets the loop logger.
func WithLogger(l *zap.Logger) Option {
	return func(lp *Loop) {
		if l != nil {
			lp.logger = l
		}
	}
}

// WithOnPress registers a hook that runs after every completed press,
// once the click has been dispatched.
func WithOnPress(fn func(ctx context.Context, now time.Duration)) Option {
	return func(lp *Loop) { lp.onPress = fn }
}

// New returns an idle loop.
func New(deps Deps, cfg Config, opts ...Option) *Loop {
	l := &Loop{
		deps:   deps,
		cfg:    cfg,
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(l)
	}
	if l.deps.Active == nil {
		l.deps.Active = func() bool { return true }
	}
	return l
}

// Refresh rebuilds the eligible set.
func (l *Loop) Refresh(ctx context.Context) {
	l.eligible = l.deps.Filter.Refresh(ctx)
}

// Eligible returns a copy of the current eligible set.
func (l *Loop) Eligible() []arena.Handle {
	out := make([]arena.Handle, len(l.eligible))
	copy(out, l.eligible)
	return out
}

// Running reports whether an iteration is in flight.
func (l *Loop) Running() bool { return l.phase != phaseDone }

// Holding reports whether a press is currently held down.
func (l *Loop) Holding() bool { return l.phase == phaseHold }

// Presses returns the number of presses whose hold completed, including
// those whose release was skipped because the target went away.
func (l *Loop) Presses() int { return l.presses }

// Cycles returns the number of iterations that ran to the end of their
// delay.
func (l *Loop) Cycles() int { return l.cycles }

// Phase names the current step of the loop.
func (l *Loop) Phase() string { return l.phase.String() }

// ResumeAt returns the deadline of the current suspension.
func (l *Loop) ResumeAt() time.Duration { return l.resumeAt }

// Launch starts a loop at now and runs its first iteration immediately. It
// is a no-op while a previous loop is still in flight, which keeps a quick
// stop and start from running two loops at once.
func (l *Loop) Launch(ctx context.Context, now time.Duration) bool {
	if l.phase != phaseDone {
		return false
	}
	l.phase = phaseTop
	l.resumeAt = now
	l.Step(ctx, now)
	return true
}

// Step advances the loop if its deadline has passed. At most one
// suspension is resumed per call, so a zero wait still yields a tick.
func (l *Loop) Step(ctx context.Context, now time.Duration) {
	if l.phase == phaseDone || now < l.resumeAt {
		return
	}
	switch l.phase {
	case phaseTop:
		l.top(ctx, now)
	case phaseHold:
		l.release(ctx)
		l.presses++
		if l.onPress != nil {
			l.onPress(ctx, now)
		}
		l.wait(now, phaseDelay, l.cfg.Delay)
	case phaseDelay:
		l.cycles++
		l.top(ctx, now)
	}
}

func (l *Loop) top(ctx context.Context, now time.Duration) {
	if !l.deps.Active() {
		l.phase = phaseDone
		l.logger.Debug("Press loop finished.", zap.Int("presses", l.presses), zap.Int("cycles", l.cycles))
		return
	}
	if len(l.eligible) == 0 {
		l.Refresh(ctx)
	}
	if h, ok := l.pick(ctx); ok && l.press(ctx, now, h) {
		return
	}
	l.wait(now, phaseDelay, l.cfg.Delay)
}

// pick draws up to len(eligible) random indices. Stale draws are evicted
// from the set; the first draw that is still eligible wins.
func (l *Loop) pick(ctx context.Context) (arena.Handle, bool) {
	for attempts := len(l.eligible); attempts > 0 && len(l.eligible) > 0; attempts-- {
		i := l.deps.Rand.Intn(len(l.eligible))
		h := l.eligible[i]
		if _, ok := l.deps.Scene.Control(ctx, h); !ok {
			l.eligible = append(l.eligible[:i], l.eligible[i+1:]...)
			l.logger.Debug("Evicted stale control.", zap.Stringer("handle", h))
			continue
		}
		if l.deps.Filter.Eligible(ctx, h) {
			return h, true
		}
	}
	return arena.Nil, false
}

// press records the press and sends press-down. It returns false when the
// target went stale since it was drawn.
func (l *Loop) press(ctx context.Context, now time.Duration, h arena.Handle) bool {
	c, ok := l.deps.Scene.Control(ctx, h)
	if !ok {
		l.logger.Debug("Press aborted, control is gone.", zap.Stringer("handle", h))
		return false
	}
	count := l.deps.Table.Increment(h, c.Name)
	hold := jitter.Duration(l.deps.Rand, l.cfg.Hold, l.cfg.Randomness)
	l.target, l.targetNm = h, c.Name
	l.logger.Debug("Pressing.",
		zap.String("control", c.Name),
		zap.Int("count", count),
		zap.Duration("hold", hold))
	if err := l.deps.Dispatcher.OnPressStart(ctx, h); err != nil {
		l.logger.Debug("Press start dispatch failed.", zap.String("control", c.Name), zap.Error(err))
	}
	l.suspend(now, phaseHold, hold)
	return true
}

func (l *Loop) release(ctx context.Context) {
	h, name := l.target, l.targetNm
	l.target, l.targetNm = arena.Nil, ""
	if _, ok := l.deps.Scene.Control(ctx, h); !ok {
		l.logger.Debug("Control gone during hold, release skipped.", zap.String("control", name))
		return
	}
	if err := l.deps.Dispatcher.OnPressEnd(ctx, h); err != nil {
		l.logger.Debug("Press end dispatch failed.", zap.String("control", name), zap.Error(err))
	}
	if err := l.deps.Dispatcher.OnClick(ctx, h); err != nil {
		l.logger.Debug("Click dispatch failed.", zap.String("control", name), zap.Error(err))
	}
}

// wait suspends for a jittered base duration.
func (l *Loop) wait(now time.Duration, next phase, base time.Duration) {
	l.suspend(now, next, jitter.Duration(l.deps.Rand, base, l.cfg.Randomness))
}

func (l *Loop) suspend(now time.Duration, next phase, d time.Duration) {
	l.phase = next
	l.resumeAt = now + d
}
