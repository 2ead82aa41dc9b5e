// Package discovery decides which controls in the scene are safe and valid
// to press.
package discovery

import (
	"context"

	"go.uber.org/zap"

	"github.com/mj1618/press-monkey/internal/arena"
	"github.com/mj1618/press-monkey/internal/model"
	"github.com/mj1618/press-monkey/internal/platform"
	"github.com/mj1618/press-monkey/internal/stats"
)

// Reason explains the outcome of an eligibility check. Rules are checked in
// declaration order and the first failing one is reported.
type Reason int

const (
	ReasonEligible Reason = iota
	ReasonStale
	ReasonHarnessSurface
	ReasonRoleFiltered
	ReasonInactive
	ReasonNoCollider
	ReasonBehindCamera
	ReasonOccluded
)

var reasonNames = map[Reason]string{
	ReasonEligible:       "eligible",
	ReasonStale:          "stale",
	ReasonHarnessSurface: "harness surface",
	ReasonRoleFiltered:   "role filtered",
	ReasonInactive:       "inactive",
	ReasonNoCollider:     "no enabled collider",
	ReasonBehindCamera:   "behind camera",
	ReasonOccluded:       "occluded",
}

func (r Reason) String() string {
	if s, ok := reasonNames[r]; ok {
		return s
	}
	return "unknown"
}

// Filter builds the eligible set from the scene.
type Filter struct {
	scene   platform.Scene
	camera  platform.Camera
	surface platform.Surface
	table   *stats.Table
	roles   map[string]bool
	logger  *zap.Logger
}

// Option configures a Filter.
type Option func(*Filter)

// WithRoles restricts eligibility to controls whose role is in roles after
// meta-role expansion. An empty list keeps every role.
func WithRoles(roles []string) Option {
	return func(f *Filter) { f.roles = model.RoleSet(roles) }
}

// WithLogger sets the logger used for per-control debug output.
func WithLogger(l *zap.Logger) Option {
	return func(f *Filter) {
		if l != nil {
			f.logger = l
		}
	}
}

// New returns a Filter over the provider's scene and camera. Newly eligible
// controls get a zero row in table.
func New(p *platform.Provider, table *stats.Table, opts ...Option) *Filter {
	f := &Filter{
		scene:   p.Scene,
		camera:  p.Camera,
		surface: p.Surface,
		table:   table,
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Refresh rebuilds the eligible set from scratch.
func (f *Filter) Refresh(ctx context.Context) []arena.Handle {
	all, err := f.scene.FindControls(ctx)
	if err != nil {
		f.logger.Debug("Control enumeration failed.", zap.Error(err))
		return nil
	}
	eligible := make([]arena.Handle, 0, len(all))
	for _, h := range all {
		c, ok := f.scene.Control(ctx, h)
		if !ok {
			continue
		}
		if reason := f.check(ctx, h, c); reason != ReasonEligible {
			f.logger.Debug("Control skipped.", zap.String("control", c.Name), zap.Stringer("reason", reason))
			continue
		}
		eligible = append(eligible, h)
		if f.table != nil && f.table.Ensure(h, c.Name) {
			f.logger.Debug("Control discovered.", zap.String("control", c.Name), zap.Stringer("handle", h))
		}
	}
	return eligible
}

// Check re-reads the control behind h and runs every eligibility rule.
func (f *Filter) Check(ctx context.Context, h arena.Handle) Reason {
	c, ok := f.scene.Control(ctx, h)
	if !ok {
		return ReasonStale
	}
	return f.check(ctx, h, c)
}

// Eligible reports whether the control behind h may be pressed right now.
func (f *Filter) Eligible(ctx context.Context, h arena.Handle) bool {
	return f.Check(ctx, h) == ReasonEligible
}

// OnSurface reports whether c belongs to the harness's own surface.
func (f *Filter) OnSurface(c model.Control) bool {
	if f.surface == nil {
		return false
	}
	canvas := f.surface.Canvas()
	return !canvas.IsNil() && c.Canvas == canvas
}

func (f *Filter) check(ctx context.Context, h arena.Handle, c model.Control) Reason {
	if f.OnSurface(c) {
		return ReasonHarnessSurface
	}
	if !model.MatchesRoles(f.roles, c.Role) {
		return ReasonRoleFiltered
	}
	return f.pressable(ctx, h, c)
}

// pressable covers the activity and geometric visibility rules.
func (f *Filter) pressable(ctx context.Context, h arena.Handle, c model.Control) Reason {
	if !c.Active {
		return ReasonInactive
	}
	if !c.Interactable() {
		return ReasonNoCollider
	}
	screen := f.camera.WorldToScreen(ctx, c.Collider.Center())
	if screen.Z < 0 {
		return ReasonBehindCamera
	}
	ray := f.camera.ScreenPointToRay(ctx, screen)
	hit, ok := f.camera.RayIntersection(ctx, ray)
	if !ok || hit != h {
		return ReasonOccluded
	}
	return ReasonEligible
}
