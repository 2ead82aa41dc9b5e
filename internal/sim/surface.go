package sim

import (
	"context"
	"fmt"

	"github.com/mj1618/press-monkey/internal/arena"
	"github.com/mj1618/press-monkey/internal/platform"
)

// Names of the nodes of a surface built at runtime.
const (
	SurfaceCanvasName = "AutoTesterCanvas"
	SurfacePanelName  = "Panel"
	StartButtonName   = "StartButton"
	StopButtonName    = "StopButton"
	StatusTextName    = "StatsText"
)

// SurfaceNodes names the nodes that make up a scene-declared surface.
type SurfaceNodes struct {
	Canvas string `yaml:"canvas"`
	Start  string `yaml:"start"`
	Stop   string `yaml:"stop"`
	Status string `yaml:"status"`
}

// Surface implements platform.Surface over world nodes.
type Surface struct {
	world    *World
	canvas   arena.Handle
	start    arena.Handle
	stop     arena.Handle
	status   arena.Handle
	text     string
	triggers []platform.Trigger
}

// buildSurface creates the harness canvas with a panel holding the start
// and stop controls and the status text. The controls have no colliders.
func (w *World) buildSurface() *Surface {
	s := &Surface{world: w}
	s.canvas = w.MustAdd(Node{Name: SurfaceCanvasName, ActiveSelf: true, Canvas: true})
	panel := w.MustAdd(Node{Name: SurfacePanelName, Parent: s.canvas, ActiveSelf: true})
	s.start = w.MustAdd(Node{Name: StartButtonName, Parent: panel, ActiveSelf: true, Control: true, Role: "btn"})
	s.stop = w.MustAdd(Node{Name: StopButtonName, Parent: panel, ActiveSelf: true, Control: true, Role: "btn"})
	s.status = w.MustAdd(Node{Name: StatusTextName, Parent: panel, ActiveSelf: true})
	return s
}

// DeclareSurface binds the surface to existing nodes.
func (w *World) DeclareSurface(names SurfaceNodes) (*Surface, error) {
	s := &Surface{world: w}
	for _, b := range []struct {
		name string
		dst  *arena.Handle
	}{
		{names.Canvas, &s.canvas},
		{names.Start, &s.start},
		{names.Stop, &s.stop},
		{names.Status, &s.status},
	} {
		if b.name == "" {
			return nil, fmt.Errorf("surface: every node name is required")
		}
		h, ok := w.Find(b.name)
		if !ok {
			return nil, fmt.Errorf("surface: no node named %q", b.name)
		}
		*b.dst = h
	}
	if n, _ := w.nodes.Get(s.canvas); !n.Canvas {
		return nil, fmt.Errorf("surface: %q is not a canvas", names.Canvas)
	}
	w.surface = s
	return s, nil
}

func (s *Surface) Canvas() arena.Handle { return s.canvas }

func (s *Surface) Visible() bool {
	n, ok := s.world.nodes.Get(s.canvas)
	return ok && n.ActiveSelf
}

func (s *Surface) SetVisible(_ context.Context, visible bool) error {
	return s.world.SetActive(s.canvas, visible)
}

func (s *Surface) SetStartVisible(_ context.Context, visible bool) error {
	return s.world.SetActive(s.start, visible)
}

func (s *Surface) SetStopVisible(_ context.Context, visible bool) error {
	return s.world.SetActive(s.stop, visible)
}

func (s *Surface) SetStatus(_ context.Context, text string) error {
	s.text = text
	return s.world.SetText(s.status, text)
}

func (s *Surface) PollTriggers(context.Context) ([]platform.Trigger, error) {
	out := s.triggers
	s.triggers = nil
	return out, nil
}

// Status returns the last readout written to the surface.
func (s *Surface) Status() string { return s.text }

// StartVisible reports whether the start affordance can be pressed.
func (s *Surface) StartVisible() bool { return s.world.ActiveInHierarchy(s.start) }

// StopVisible reports whether the stop affordance can be pressed.
func (s *Surface) StopVisible() bool { return s.world.ActiveInHierarchy(s.stop) }

// Click presses a surface affordance as an operator would. The press is
// only registered when the affordance is showing.
func (s *Surface) Click(t platform.Trigger) bool {
	var shown bool
	switch t {
	case platform.TriggerStart:
		shown = s.StartVisible()
	case platform.TriggerStop:
		shown = s.StopVisible()
	}
	if !shown {
		return false
	}
	s.triggers = append(s.triggers, t)
	return true
}

// Input queues activation key presses. Each poll consumes at most one, the
// way a key-down flag is reported once per frame.
type Input struct {
	pending int
}

// PressActivationKey queues one key press.
func (i *Input) PressActivationKey() { i.pending++ }

func (i *Input) ActivationKeyDown(context.Context) bool {
	if i.pending == 0 {
		return false
	}
	i.pending--
	return true
}
