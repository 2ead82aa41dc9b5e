// Package sim is an in-memory scene backend. It keeps a small 2D scene graph
// in a generation-checked arena, projects it through an orthographic camera
// and records every dispatched event, which makes harness behavior
// reproducible without a real UI.
package sim

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/mj1618/press-monkey/internal/arena"
	"github.com/mj1618/press-monkey/internal/model"
	"github.com/mj1618/press-monkey/internal/platform"
)

// Node is one object in the scene graph.
type Node struct {
	Name       string
	Parent     arena.Handle
	ActiveSelf bool
	Canvas     bool // Display surface root
	Control    bool // Pressable control component
	Role       string
	Collider   *model.Collider
	Layer      int // Probe tie-break, higher wins
	Text       string
	OnClick    []Behavior
}

// World is the scene graph plus the clock used to stamp events.
type World struct {
	nodes  *arena.Arena[Node]
	order  []arena.Handle
	now    time.Duration
	events []Event
	logger *zap.Logger

	camera  *Camera
	surface *Surface
	input   *Input
}

// Option configures a World.
type Option func(*World)

// WithLogger sets the world logger.
func WithLogger(l *zap.Logger) Option {
	return func(w *World) {
		if l != nil {
			w.logger = l
		}
	}
}

// WithCamera replaces the default camera.
func WithCamera(c CameraSpec) Option {
	return func(w *World) { w.camera = newCamera(w, c) }
}

// NewWorld returns an empty world with a default camera.
func NewWorld(opts ...Option) *World {
	w := &World{
		nodes:  arena.New[Node](),
		logger: zap.NewNop(),
		input:  &Input{},
	}
	w.camera = newCamera(w, DefaultCamera)
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Add inserts n and returns its handle. A non-nil parent must be live.
func (w *World) Add(n Node) (arena.Handle, error) {
	if !n.Parent.IsNil() && !w.nodes.Valid(n.Parent) {
		return arena.Nil, fmt.Errorf("add %q: parent %s: %w", n.Name, n.Parent, arena.ErrStale)
	}
	h := w.nodes.Insert(n)
	w.order = append(w.order, h)
	return h, nil
}

// MustAdd is Add for fixtures whose parents are known to be live.
func (w *World) MustAdd(n Node) arena.Handle {
	h, err := w.Add(n)
	if err != nil {
		panic(err)
	}
	return h
}

// Node returns a copy of the node behind h.
func (w *World) Node(h arena.Handle) (Node, bool) {
	return w.nodes.Get(h)
}

// Find returns the first live node named name, in insertion order.
func (w *World) Find(name string) (arena.Handle, bool) {
	for _, h := range w.order {
		if n, ok := w.nodes.Get(h); ok && n.Name == name {
			return h, true
		}
	}
	return arena.Nil, false
}

// Live returns every live node handle in insertion order.
func (w *World) Live() []arena.Handle {
	out := make([]arena.Handle, 0, w.nodes.Len())
	for _, h := range w.order {
		if w.nodes.Valid(h) {
			out = append(out, h)
		}
	}
	return out
}

// Children returns the live direct children of h.
func (w *World) Children(h arena.Handle) []arena.Handle {
	var out []arena.Handle
	for _, c := range w.order {
		if n, ok := w.nodes.Get(c); ok && n.Parent == h {
			out = append(out, c)
		}
	}
	return out
}

// Destroy removes h and all of its descendants. Their handles go stale.
func (w *World) Destroy(h arena.Handle) bool {
	if !w.nodes.Valid(h) {
		return false
	}
	for _, c := range w.Children(h) {
		w.Destroy(c)
	}
	n, _ := w.nodes.Get(h)
	w.nodes.Remove(h)
	w.compact()
	w.logger.Debug("Node destroyed.", zap.String("node", n.Name), zap.Stringer("handle", h))
	return true
}

// compact drops stale handles from the insertion order.
func (w *World) compact() {
	live := w.order[:0]
	for _, h := range w.order {
		if w.nodes.Valid(h) {
			live = append(live, h)
		}
	}
	w.order = live
}

// SetActive sets the node's own active flag.
func (w *World) SetActive(h arena.Handle, active bool) error {
	n, err := w.nodes.Ptr(h)
	if err != nil {
		return fmt.Errorf("set active: %w", err)
	}
	n.ActiveSelf = active
	return nil
}

// SetColliderEnabled toggles the node's interaction region.
func (w *World) SetColliderEnabled(h arena.Handle, enabled bool) error {
	n, err := w.nodes.Ptr(h)
	if err != nil {
		return fmt.Errorf("set collider: %w", err)
	}
	if n.Collider == nil {
		return fmt.Errorf("set collider: %q has no collider", n.Name)
	}
	n.Collider.Enabled = enabled
	return nil
}

// SetText replaces the node's text.
func (w *World) SetText(h arena.Handle, text string) error {
	n, err := w.nodes.Ptr(h)
	if err != nil {
		return fmt.Errorf("set text: %w", err)
	}
	n.Text = text
	return nil
}

// ActiveInHierarchy reports whether h and every ancestor are active.
func (w *World) ActiveInHierarchy(h arena.Handle) bool {
	for !h.IsNil() {
		n, ok := w.nodes.Get(h)
		if !ok || !n.ActiveSelf {
			return false
		}
		h = n.Parent
	}
	return true
}

// CanvasOf returns the nearest canvas enclosing h, h itself included.
func (w *World) CanvasOf(h arena.Handle) arena.Handle {
	for !h.IsNil() {
		n, ok := w.nodes.Get(h)
		if !ok {
			return arena.Nil
		}
		if n.Canvas {
			return h
		}
		h = n.Parent
	}
	return arena.Nil
}

// SetTime sets the clock used to stamp dispatched events.
func (w *World) SetTime(now time.Duration) { w.now = now }

// Now returns the world clock.
func (w *World) Now() time.Duration { return w.now }

// Events returns a copy of the dispatched event log.
func (w *World) Events() []Event {
	out := make([]Event, len(w.events))
	copy(out, w.events)
	return out
}

// Camera returns the world camera.
func (w *World) Camera() *Camera { return w.camera }

// Input returns the activation key queue.
func (w *World) Input() *Input { return w.input }

// Surface returns the harness surface, building one at runtime when the
// scene does not declare it.
func (w *World) Surface() *Surface {
	if w.surface == nil {
		w.surface = w.buildSurface()
	}
	return w.surface
}

// FindControls returns every control node, active or not.
func (w *World) FindControls(context.Context) ([]arena.Handle, error) {
	var out []arena.Handle
	for _, h := range w.order {
		if n, ok := w.nodes.Get(h); ok && n.Control {
			out = append(out, h)
		}
	}
	return out, nil
}

// Control snapshots the control behind h.
func (w *World) Control(_ context.Context, h arena.Handle) (model.Control, bool) {
	n, ok := w.nodes.Get(h)
	if !ok || !n.Control {
		return model.Control{}, false
	}
	c := model.Control{
		Handle: h,
		Name:   n.Name,
		Role:   n.Role,
		Active: w.ActiveInHierarchy(h),
		Canvas: w.CanvasOf(h),
	}
	if n.Collider != nil {
		col := *n.Collider
		c.Collider = &col
	}
	return c, true
}

// Provider bundles the world's capabilities for the harness.
func (w *World) Provider() *platform.Provider {
	return &platform.Provider{
		Scene:      w,
		Camera:     w.camera,
		Dispatcher: &Dispatcher{world: w},
		Surface:    w.Surface(),
		Input:      w.input,
	}
}
