package scheduler

import (
	"context"
	"fmt"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/mj1618/press-monkey/internal/arena"
	"github.com/mj1618/press-monkey/internal/model"
	"github.com/mj1618/press-monkey/internal/stats"
)

// -- Test Fakes --

type fakeScene struct {
	controls *arena.Arena[model.Control]
	order    []arena.Handle
}

func newFakeScene(names ...string) *fakeScene {
	s := &fakeScene{controls: arena.New[model.Control]()}
	for _, n := range names {
		s.order = append(s.order, s.controls.Insert(model.Control{Name: n, Active: true}))
	}
	return s
}

func (s *fakeScene) FindControls(context.Context) ([]arena.Handle, error) {
	var out []arena.Handle
	for _, h := range s.order {
		if s.controls.Valid(h) {
			out = append(out, h)
		}
	}
	return out, nil
}

func (s *fakeScene) Control(_ context.Context, h arena.Handle) (model.Control, bool) {
	c, ok := s.controls.Get(h)
	c.Handle = h
	return c, ok
}

type fakeFilter struct {
	scene     *fakeScene
	blocked   map[arena.Handle]bool
	refreshes int
}

func (f *fakeFilter) Refresh(ctx context.Context) []arena.Handle {
	f.refreshes++
	all, _ := f.scene.FindControls(ctx)
	var out []arena.Handle
	for _, h := range all {
		if f.Eligible(ctx, h) {
			out = append(out, h)
		}
	}
	return out
}

func (f *fakeFilter) Eligible(_ context.Context, h arena.Handle) bool {
	return f.scene.controls.Valid(h) && !f.blocked[h]
}

type fakeDispatcher struct {
	scene  *fakeScene
	events []string
}

func (d *fakeDispatcher) record(kind string, h arena.Handle) error {
	c, _ := d.scene.controls.Get(h)
	d.events = append(d.events, kind+":"+c.Name)
	return nil
}

func (d *fakeDispatcher) OnPressStart(_ context.Context, h arena.Handle) error {
	return d.record("down", h)
}
func (d *fakeDispatcher) OnPressEnd(_ context.Context, h arena.Handle) error {
	return d.record("up", h)
}
func (d *fakeDispatcher) OnClick(_ context.Context, h arena.Handle) error {
	return d.record("click", h)
}

// scriptedRand returns the queued indices in order, then zero.
type scriptedRand struct{ ints []int }

func (r *scriptedRand) Intn(n int) int {
	if len(r.ints) == 0 {
		return 0
	}
	i := r.ints[0]
	r.ints = r.ints[1:]
	return i % n
}

func (r *scriptedRand) Float64() float64 { return 0.5 }

type fixture struct {
	scene      *fakeScene
	filter     *fakeFilter
	dispatcher *fakeDispatcher
	table      *stats.Table
	active     bool
	loop       *Loop
}

func newFixture(t *testing.T, cfg Config, rng Rand, names ...string) *fixture {
	t.Helper()
	f := &fixture{scene: newFakeScene(names...), table: stats.NewTable(), active: true}
	f.filter = &fakeFilter{scene: f.scene, blocked: map[arena.Handle]bool{}}
	f.dispatcher = &fakeDispatcher{scene: f.scene}
	if rng == nil {
		rng = rand.New(rand.NewSource(1))
	}
	f.loop = New(Deps{
		Scene:      f.scene,
		Dispatcher: f.dispatcher,
		Filter:     f.filter,
		Table:      f.table,
		Rand:       rng,
		Active:     func() bool { return f.active },
	}, cfg, WithLogger(zaptest.NewLogger(t)))
	return f
}

// runUntil steps the loop on a fixed tick from `from` through `to`.
func (f *fixture) runUntil(ctx context.Context, from, to, tick time.Duration) {
	for now := from; now <= to; now += tick {
		f.loop.Step(ctx, now)
	}
}

var exact = Config{Hold: 100 * time.Millisecond, Delay: 500 * time.Millisecond}

// -- Test Cases --

func TestLoop_PressCycleTiming(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, exact, nil, "PlayButton", "OptionsButton", "QuitButton")

	f.loop.Refresh(ctx)
	require.True(t, f.loop.Launch(ctx, 0))
	f.runUntil(ctx, 10*time.Millisecond, 2050*time.Millisecond, 10*time.Millisecond)

	// Presses start at 0, 0.6, 1.2 and 1.8s. Three full cycles have run to
	// the end of their delay by 2.05s and the fourth is in its delay.
	assert.Equal(t, 3, f.loop.Cycles())
	assert.Equal(t, 4, f.loop.Presses())
	assert.Equal(t, 4, f.table.Total())
	assert.Equal(t, "delay", f.loop.Phase())
	assert.Equal(t, 2400*time.Millisecond, f.loop.ResumeAt())

	require.Len(t, f.dispatcher.events, 12)
	for i := 0; i < len(f.dispatcher.events); i += 3 {
		down, up, click := f.dispatcher.events[i], f.dispatcher.events[i+1], f.dispatcher.events[i+2]
		name := down[len("down:"):]
		assert.Equal(t, "up:"+name, up)
		assert.Equal(t, "click:"+name, click)
	}
}

func TestLoop_HoldAndDelayDeadlines(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, exact, nil, "Only")

	f.loop.Refresh(ctx)
	f.loop.Launch(ctx, 0)
	assert.True(t, f.loop.Holding())
	assert.Equal(t, []string{"down:Only"}, f.dispatcher.events)

	f.loop.Step(ctx, 99*time.Millisecond)
	assert.True(t, f.loop.Holding(), "hold not over before its deadline")

	f.loop.Step(ctx, 100*time.Millisecond)
	assert.False(t, f.loop.Holding())
	assert.Equal(t, []string{"down:Only", "up:Only", "click:Only"}, f.dispatcher.events)
	assert.Equal(t, 600*time.Millisecond, f.loop.ResumeAt())
}

func TestLoop_StopDuringHoldReleasesThenEnds(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, exact, nil, "PlayButton")

	f.loop.Refresh(ctx)
	f.loop.Launch(ctx, 0)
	f.loop.Step(ctx, 50*time.Millisecond)
	require.True(t, f.loop.Holding())

	f.active = false
	f.runUntil(ctx, 60*time.Millisecond, 3*time.Second, 10*time.Millisecond)

	assert.Equal(t, []string{"down:PlayButton", "up:PlayButton", "click:PlayButton"}, f.dispatcher.events)
	assert.Equal(t, 1, f.loop.Presses())
	assert.False(t, f.loop.Running())
}

func TestLoop_NoEligibleControls(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, exact, nil)

	f.loop.Refresh(ctx)
	f.loop.Launch(ctx, 0)
	f.runUntil(ctx, 10*time.Millisecond, 2050*time.Millisecond, 10*time.Millisecond)

	assert.Empty(t, f.dispatcher.events)
	assert.Equal(t, 0, f.loop.Presses())
	assert.Equal(t, 0, f.table.Len())
	// Delays end at 0.5, 1.0, 1.5 and 2.0s.
	assert.Equal(t, 4, f.loop.Cycles())
	assert.Equal(t, 1+5, f.filter.refreshes, "an empty set is refreshed at the top of every iteration")
}

func TestLoop_EvictsStaleDraws(t *testing.T) {
	ctx := context.Background()
	rng := &scriptedRand{ints: []int{0, 0}}
	f := newFixture(t, exact, rng, "Doomed", "Survivor")

	f.loop.Refresh(ctx)
	require.Len(t, f.loop.Eligible(), 2)
	f.scene.controls.Remove(f.scene.order[0])

	f.loop.Launch(ctx, 0)
	assert.Equal(t, []arena.Handle{f.scene.order[1]}, f.loop.Eligible())
	assert.Equal(t, []string{"down:Survivor"}, f.dispatcher.events)
	assert.Equal(t, 1, f.table.Count(f.scene.order[1]))
}

func TestLoop_IneligibleDrawIsNotEvicted(t *testing.T) {
	ctx := context.Background()
	rng := &scriptedRand{ints: []int{0, 0}}
	f := newFixture(t, exact, rng, "Covered", "Open")

	f.loop.Refresh(ctx)
	f.filter.blocked[f.scene.order[0]] = true
	f.filter.blocked[f.scene.order[1]] = true

	f.loop.Launch(ctx, 0)
	assert.Empty(t, f.dispatcher.events, "every draw failed the live check")
	assert.Len(t, f.loop.Eligible(), 2, "live but ineligible controls stay in the set")
	assert.Equal(t, "delay", f.loop.Phase())
}

func TestLoop_StaleTargetDuringHoldSkipsRelease(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, exact, nil, "Vanishing")

	f.loop.Refresh(ctx)
	f.loop.Launch(ctx, 0)
	f.scene.controls.Remove(f.scene.order[0])
	f.loop.Step(ctx, 100*time.Millisecond)

	assert.Equal(t, []string{"down:Vanishing"}, f.dispatcher.events)
	assert.Equal(t, 1, f.table.Count(f.scene.order[0]), "count recorded at press-down is kept")
	assert.Equal(t, 1, f.loop.Presses(), "the hold completed even though release was skipped")
	assert.Equal(t, "delay", f.loop.Phase())
}

func TestLoop_LaunchWhileInFlightIsNoop(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, exact, nil, "PlayButton")

	f.loop.Refresh(ctx)
	require.True(t, f.loop.Launch(ctx, 0))
	f.active = false
	f.loop.Step(ctx, 100*time.Millisecond)
	f.active = true
	assert.False(t, f.loop.Launch(ctx, 200*time.Millisecond), "previous loop is still in its delay")

	f.runUntil(ctx, 210*time.Millisecond, 700*time.Millisecond, 10*time.Millisecond)
	// The surviving loop picks up again at 0.6s; only one press-down there.
	assert.Equal(t, []string{
		"down:PlayButton", "up:PlayButton", "click:PlayButton",
		"down:PlayButton", "up:PlayButton", "click:PlayButton",
	}, f.dispatcher.events)
}

func TestLoop_ZeroWaitYieldsOneTick(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, Config{}, nil, "Fast")

	f.loop.Refresh(ctx)
	f.loop.Launch(ctx, 0)
	assert.Len(t, f.dispatcher.events, 1)

	f.loop.Step(ctx, 0)
	assert.Len(t, f.dispatcher.events, 3, "release happens on the next step")
	assert.Equal(t, 0, f.loop.Cycles())

	f.loop.Step(ctx, 0)
	assert.Equal(t, 1, f.loop.Cycles())
	assert.Len(t, f.dispatcher.events, 4, "next press-down after the zero delay")
}

func TestLoop_OnPressHook(t *testing.T) {
	ctx := context.Background()
	var calls []time.Duration
	f := newFixture(t, exact, nil, "PlayButton")
	f.loop.onPress = func(_ context.Context, now time.Duration) { calls = append(calls, now) }

	f.loop.Refresh(ctx)
	f.loop.Launch(ctx, 0)
	f.runUntil(ctx, 10*time.Millisecond, 800*time.Millisecond, 10*time.Millisecond)
	assert.Equal(t, []time.Duration{100 * time.Millisecond, 700 * time.Millisecond}, calls)
}

func TestLoop_CountsAreMonotonic(t *testing.T) {
	ctx := context.Background()
	cfg := Config{Hold: 20 * time.Millisecond, Delay: 30 * time.Millisecond, Randomness: 0.5}
	names := make([]string, 5)
	for i := range names {
		names[i] = fmt.Sprintf("Button%d", i)
	}
	f := newFixture(t, cfg, rand.New(rand.NewSource(42)), names...)

	f.loop.Refresh(ctx)
	f.loop.Launch(ctx, 0)
	prev := map[arena.Handle]int{}
	for now := time.Duration(0); now < 5*time.Second; now += 5 * time.Millisecond {
		f.loop.Step(ctx, now)
		for _, e := range f.table.Entries() {
			assert.GreaterOrEqual(t, e.Count, prev[e.Handle])
			prev[e.Handle] = e.Count
		}
	}
	assert.Greater(t, f.table.Total(), 50)
}
