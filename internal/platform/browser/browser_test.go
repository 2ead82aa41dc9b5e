package browser

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/chromedp/cdproto/input"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/mj1618/press-monkey/internal/arena"
	"github.com/mj1618/press-monkey/internal/config"
	"github.com/mj1618/press-monkey/internal/discovery"
	"github.com/mj1618/press-monkey/internal/model"
	"github.com/mj1618/press-monkey/internal/platform"
	"github.com/mj1618/press-monkey/internal/stats"
)

// fakeExec answers each script kind from canned state.
type fakeExec struct {
	scan     []domControl
	probe    *string
	drain    drainResult
	gone     map[string]bool
	injected bool
	failScan bool

	scans    int
	probes   int
	surfaces int
	dispatch []string
	mouse    []*input.DispatchMouseEventParams
}

func (f *fakeExec) Eval(_ context.Context, script string, out any) error {
	var v any
	switch {
	case strings.Contains(script, "querySelectorAll"):
		f.scans++
		if f.failScan {
			return errors.New("target closed")
		}
		v = f.scan
	case strings.Contains(script, "splice(0)"):
		v = f.drain
		f.drain = drainResult{Present: true}
	case strings.Contains(script, "createElement('div')"):
		f.surfaces++
		v = !f.injected
		f.injected = true
	case strings.Contains(script, "dispatchEvent"):
		f.dispatch = append(f.dispatch, script)
		found := true
		for id := range f.gone {
			if strings.Contains(script, jsString(id)) {
				found = false
			}
		}
		v = found
	case strings.Contains(script, "elementFromPoint("):
		f.probes++
		v = probeResult{Hit: f.probe}
	default:
		return errors.New("unexpected script")
	}
	if out == nil {
		return nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return json.Unmarshal(b, out)
}

func (f *fakeExec) DispatchMouseEvent(_ context.Context, p *input.DispatchMouseEventParams) error {
	f.mouse = append(f.mouse, p)
	return nil
}

func str(s string) *string { return &s }

func button(id string, x float64) domControl {
	return domControl{
		ID: id, Name: "Button " + id, Tag: "button",
		Active: true, Enabled: true,
		X: x, Y: 10, W: 80, H: 30,
		Hit: str(id),
	}
}

func newTestPage(t *testing.T, exec *fakeExec, mutate ...func(*config.BrowserConfig)) *Page {
	t.Helper()
	cfg := config.NewDefaultConfig().Browser()
	cfg.ScanRate = 0
	for _, m := range mutate {
		m(&cfg)
	}
	p, err := newPage(exec, cfg, zaptest.NewLogger(t))
	require.NoError(t, err)
	return p
}

func TestRegistry_HandlesFollowElements(t *testing.T) {
	r := newRegistry()
	first := r.apply([]domControl{button("c1", 0), button("c2", 100)})
	require.Len(t, first, 2)
	assert.NotEqual(t, r.page, first[0])
	assert.NotEqual(t, r.surface, first[0])

	second := r.apply([]domControl{button("c2", 100), button("c3", 200), button("c3", 200)})
	require.Len(t, second, 2, "duplicate ids collapse")
	assert.Equal(t, first[1], second[0], "surviving element keeps its handle")

	_, ok := r.control(first[0])
	assert.False(t, ok, "element that left the page is stale")
	_, ok = r.id(first[0])
	assert.False(t, ok)

	// A returning id is a new element.
	third := r.apply([]domControl{button("c1", 0)})
	assert.NotEqual(t, first[0], third[0])
}

func TestRegistry_Control(t *testing.T) {
	r := newRegistry()
	overlay := button("c9", 500)
	overlay.Surface = true
	link := button("c2", 100)
	link.Tag, link.Role = "div", "link"
	link.Enabled = false
	hs := r.apply([]domControl{button("c1", 0), link, overlay})

	c, ok := r.control(hs[0])
	require.True(t, ok)
	assert.Equal(t, "Button c1", c.Name)
	assert.Equal(t, "btn", c.Role)
	assert.Equal(t, r.page, c.Canvas)
	assert.True(t, c.Interactable())
	x, y := c.Collider.Bounds.Center()
	assert.Equal(t, 40.0, x)
	assert.Equal(t, 25.0, y)

	c, _ = r.control(hs[1])
	assert.Equal(t, "lnk", c.Role, "aria role wins over the tag")
	assert.False(t, c.Interactable())

	c, _ = r.control(hs[2])
	assert.Equal(t, r.surface, c.Canvas)
}

func TestRegistry_Hits(t *testing.T) {
	r := newRegistry()
	covered := button("c2", 100)
	covered.Hit = str("")
	empty := button("c3", 200)
	empty.Hit = nil
	hs := r.apply([]domControl{button("c1", 0), covered, empty})

	h, ok, cached := r.hitAt(point{40, 25})
	assert.True(t, cached)
	assert.True(t, ok)
	assert.Equal(t, hs[0], h)

	h, ok, _ = r.hitAt(point{140, 25})
	assert.True(t, ok)
	assert.Equal(t, r.page, h, "untagged element answers the page handle")

	_, ok, cached = r.hitAt(point{240, 25})
	assert.True(t, cached)
	assert.False(t, ok)

	_, _, cached = r.hitAt(point{1, 1})
	assert.False(t, cached)
}

func TestPage_DiscoveryOverPage(t *testing.T) {
	ctx := context.Background()
	covered := button("c2", 100)
	covered.Hit = str("c9")
	hidden := button("c3", 200)
	hidden.Active, hidden.Hit = false, nil
	overlay := button("c9", 100)
	overlay.Surface = true
	exec := &fakeExec{scan: []domControl{button("c1", 0), covered, hidden, overlay}}
	p := newTestPage(t, exec)

	table := stats.NewTable()
	f := discovery.New(p.Provider(), table)
	got := f.Refresh(ctx)
	require.Len(t, got, 1)
	c, ok := p.Control(ctx, got[0])
	require.True(t, ok)
	assert.Equal(t, "Button c1", c.Name)
	assert.Equal(t, 1, table.Len())
}

func TestPage_ControlRescansWhenCacheExpires(t *testing.T) {
	ctx := context.Background()
	exec := &fakeExec{scan: []domControl{button("c1", 0)}}
	p := newTestPage(t, exec, func(c *config.BrowserConfig) { c.Tick = 50 * time.Millisecond })
	clock := time.Unix(0, 0)
	p.now = func() time.Time { return clock }

	hs, err := p.FindControls(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, exec.scans)

	_, ok := p.Control(ctx, hs[0])
	assert.True(t, ok)
	assert.Equal(t, 1, exec.scans, "fresh cache")

	clock = clock.Add(time.Second)
	exec.scan = nil
	_, ok = p.Control(ctx, hs[0])
	assert.False(t, ok, "element removed from the page")
	assert.Equal(t, 2, exec.scans)
}

func TestPage_ControlKeepsSnapshotWhenRescanFails(t *testing.T) {
	ctx := context.Background()
	exec := &fakeExec{scan: []domControl{button("c1", 0)}}
	p := newTestPage(t, exec)
	clock := time.Unix(0, 0)
	p.now = func() time.Time { return clock }
	hs, err := p.FindControls(ctx)
	require.NoError(t, err)

	exec.failScan = true
	clock = clock.Add(time.Minute)
	_, ok := p.Control(ctx, hs[0])
	assert.True(t, ok)

	_, err = p.FindControls(ctx)
	assert.Error(t, err)
}

func TestPage_ScanRateCapsFullScans(t *testing.T) {
	ctx := context.Background()
	exec := &fakeExec{scan: []domControl{button("c1", 0)}}
	p := newTestPage(t, exec, func(c *config.BrowserConfig) { c.ScanRate = 10 })
	clock := time.Unix(0, 0)
	p.now = func() time.Time { return clock }

	first, err := p.FindControls(ctx)
	require.NoError(t, err)
	exec.scan = append(exec.scan, button("c2", 100))

	clock = clock.Add(20 * time.Millisecond)
	again, err := p.FindControls(ctx)
	require.NoError(t, err)
	assert.Equal(t, first, again, "over the cap: last scan")
	assert.Equal(t, 1, exec.scans)

	clock = clock.Add(200 * time.Millisecond)
	later, err := p.FindControls(ctx)
	require.NoError(t, err)
	assert.Len(t, later, 2)
	assert.Equal(t, 2, exec.scans)
}

func TestCamera_ProbesUncachedPoints(t *testing.T) {
	ctx := context.Background()
	exec := &fakeExec{scan: []domControl{button("c1", 0)}}
	p := newTestPage(t, exec)
	hs, err := p.FindControls(ctx)
	require.NoError(t, err)

	cam := p.Provider().Camera
	screen := cam.WorldToScreen(ctx, centerOf(t, p, hs[0]))
	assert.Zero(t, screen.Z)
	h, ok := cam.RayIntersection(ctx, cam.ScreenPointToRay(ctx, screen))
	assert.True(t, ok)
	assert.Equal(t, hs[0], h)
	assert.Zero(t, exec.probes)

	exec.probe = str("c1")
	ray := cam.ScreenPointToRay(ctx, screen)
	ray.Origin.X += 3
	h, ok = cam.RayIntersection(ctx, ray)
	assert.True(t, ok)
	assert.Equal(t, hs[0], h)
	assert.Equal(t, 1, exec.probes)
}

func centerOf(t *testing.T, p *Page, h arena.Handle) model.Vec3 {
	t.Helper()
	c, ok := p.reg.control(h)
	require.True(t, ok)
	return c.Collider.Center()
}

func TestDispatcher_Synthetic(t *testing.T) {
	ctx := context.Background()
	exec := &fakeExec{scan: []domControl{button("c1", 0), button("c2", 100)}}
	p := newTestPage(t, exec, func(c *config.BrowserConfig) { c.Button = "right" })
	hs, err := p.FindControls(ctx)
	require.NoError(t, err)
	d := p.Provider().Dispatcher

	require.NoError(t, d.OnPressStart(ctx, hs[0]))
	require.NoError(t, d.OnPressEnd(ctx, hs[0]))
	require.NoError(t, d.OnClick(ctx, hs[0]))
	require.Len(t, exec.dispatch, 3)
	assert.Contains(t, exec.dispatch[0], `"down", 2)`)
	assert.Contains(t, exec.dispatch[1], `"up", 2)`)
	assert.Contains(t, exec.dispatch[2], `"click", 2)`)
	assert.Empty(t, exec.mouse)

	exec.gone = map[string]bool{"c2": true}
	assert.ErrorIs(t, d.OnPressStart(ctx, hs[1]), arena.ErrStale)

	exec.scan = exec.scan[:1]
	_, err = p.FindControls(ctx)
	require.NoError(t, err)
	assert.ErrorIs(t, d.OnClick(ctx, hs[1]), arena.ErrStale)
}

func TestDispatcher_NativeInput(t *testing.T) {
	ctx := context.Background()
	exec := &fakeExec{scan: []domControl{button("c1", 0)}}
	p := newTestPage(t, exec, func(c *config.BrowserConfig) { c.Dispatch = "cdp" })
	hs, err := p.FindControls(ctx)
	require.NoError(t, err)
	d := p.Provider().Dispatcher

	require.NoError(t, d.OnPressStart(ctx, hs[0]))
	require.NoError(t, d.OnPressEnd(ctx, hs[0]))
	require.NoError(t, d.OnClick(ctx, hs[0]))
	require.Len(t, exec.mouse, 2)
	assert.Equal(t, input.MousePressed, exec.mouse[0].Type)
	assert.Equal(t, input.MouseReleased, exec.mouse[1].Type)
	assert.Equal(t, input.Left, exec.mouse[0].Button)
	assert.Equal(t, 40.0, exec.mouse[0].X)
	assert.Equal(t, 25.0, exec.mouse[0].Y)
	assert.Empty(t, exec.dispatch)

	exec.scan = nil
	_, err = p.FindControls(ctx)
	require.NoError(t, err)
	assert.ErrorIs(t, d.OnPressStart(ctx, hs[0]), arena.ErrStale)
	assert.ErrorIs(t, d.OnClick(ctx, hs[0]), arena.ErrStale)
}

func TestButtonMapping(t *testing.T) {
	assert.Equal(t, 0, domButton(platform.MouseLeft))
	assert.Equal(t, 1, domButton(platform.MouseMiddle))
	assert.Equal(t, 2, domButton(platform.MouseRight))
	assert.Equal(t, input.Right, cdpButton(platform.MouseRight))
	assert.Equal(t, input.Middle, cdpButton(platform.MouseMiddle))
}

func TestSurface_StateAndPolling(t *testing.T) {
	ctx := context.Background()
	exec := &fakeExec{}
	p := newTestPage(t, exec)
	s := p.Surface()

	assert.False(t, s.Visible())
	assert.True(t, s.StartVisible())
	require.NoError(t, s.SetVisible(ctx, true))
	require.NoError(t, s.SetStopVisible(ctx, true))
	require.NoError(t, s.SetStatus(ctx, "Play: 2"))
	assert.True(t, s.Visible())
	assert.True(t, s.StopVisible())
	assert.Equal(t, "Play: 2", s.Status())
	assert.Equal(t, 3, exec.surfaces)

	exec.drain = drainResult{Present: true, Triggers: []string{"start", "bogus", "stop"}, Keys: 2}
	got, err := s.PollTriggers(ctx)
	require.NoError(t, err)
	assert.Equal(t, []platform.Trigger{platform.TriggerStart, platform.TriggerStop}, got)

	in := p.Provider().Input
	assert.True(t, in.ActivationKeyDown(ctx))
	assert.True(t, in.ActivationKeyDown(ctx))
	assert.False(t, in.ActivationKeyDown(ctx))

	// Overlay wiped by the page.
	exec.drain = drainResult{Present: false}
	_, err = s.PollTriggers(ctx)
	require.NoError(t, err)
	assert.Equal(t, 4, exec.surfaces)
}

func TestNewPage_RejectsBadFlags(t *testing.T) {
	cfg := config.NewDefaultConfig().Browser()
	cfg.Dispatch = "telepathy"
	_, err := newPage(&fakeExec{}, cfg, nil)
	assert.Error(t, err)

	cfg = config.NewDefaultConfig().Browser()
	cfg.Button = "fourth"
	_, err = newPage(&fakeExec{}, cfg, nil)
	assert.Error(t, err)
}

func TestScripts_QuoteInput(t *testing.T) {
	s := scanScript(`a[title="x"]`)
	assert.Contains(t, s, `"a[title=\"x\"]"`)
	assert.Contains(t, dispatchScript("c7", phaseDown, 0), `("c7", "down", 0)`)
	assert.Contains(t, surfaceScript(true, false, true, "A: 1\n"), `(true, false, true, "A: 1\n")`)
}
