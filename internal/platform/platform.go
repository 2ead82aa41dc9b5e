package platform

import (
	"context"

	"github.com/mj1618/press-monkey/internal/arena"
	"github.com/mj1618/press-monkey/internal/model"
)

// Scene enumerates pressable controls and answers queries about them.
type Scene interface {
	// FindControls returns every control of the pressable type, including
	// inactive ones.
	FindControls(ctx context.Context) ([]arena.Handle, error)

	// Control returns a fresh snapshot of the control behind h. It returns
	// false when h is stale.
	Control(ctx context.Context, h arena.Handle) (model.Control, bool)
}

// Camera projects world space to screen space and runs occlusion probes.
type Camera interface {
	// WorldToScreen projects p. The returned Z is the depth relative to the
	// camera; negative values lie behind the viewer.
	WorldToScreen(ctx context.Context, p model.Vec3) model.Vec3

	// ScreenPointToRay builds a ray from the viewer through a screen point.
	ScreenPointToRay(ctx context.Context, p model.Vec3) model.Ray

	// RayIntersection returns the control whose interaction region the ray
	// hits first. It returns false when nothing pressable is hit; a hit on
	// a region that belongs to no control reports a handle that matches no
	// control.
	RayIntersection(ctx context.Context, r model.Ray) (arena.Handle, bool)
}

// EventDispatcher delivers interaction events to a target control.
type EventDispatcher interface {
	OnPressStart(ctx context.Context, target arena.Handle) error
	OnPressEnd(ctx context.Context, target arena.Handle) error
	OnClick(ctx context.Context, target arena.Handle) error
}

// Trigger is a press on one of the harness surface affordances.
type Trigger int

const (
	TriggerStart Trigger = iota + 1
	TriggerStop
)

func (t Trigger) String() string {
	switch t {
	case TriggerStart:
		return "start"
	case TriggerStop:
		return "stop"
	default:
		return "unknown"
	}
}

// Surface is the harness's own configuration surface: a canvas holding a
// start affordance, a stop affordance and a status readout.
type Surface interface {
	// Canvas returns the handle controls report as their owning canvas when
	// they belong to the surface.
	Canvas() arena.Handle
	Visible() bool
	SetVisible(ctx context.Context, visible bool) error
	SetStartVisible(ctx context.Context, visible bool) error
	SetStopVisible(ctx context.Context, visible bool) error
	SetStatus(ctx context.Context, text string) error
	// PollTriggers drains the affordance presses since the previous poll.
	PollTriggers(ctx context.Context) ([]Trigger, error)
}

// Input is the global input poll for the activation gesture.
type Input interface {
	// ActivationKeyDown reports whether the activation key went down since
	// the previous poll.
	ActivationKeyDown(ctx context.Context) bool
}
