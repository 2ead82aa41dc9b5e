package sim

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/mj1618/press-monkey/internal/arena"
)

// EventKind names a dispatched interaction event.
type EventKind string

const (
	EventPressStart EventKind = "press_start"
	EventPressEnd   EventKind = "press_end"
	EventClick      EventKind = "click"
)

// Event is one entry of the dispatch log.
type Event struct {
	At     time.Duration `yaml:"at"     json:"at"`
	Kind   EventKind     `yaml:"kind"   json:"kind"`
	Target string        `yaml:"target" json:"target"`
}

// Action is what a Behavior does to its target.
type Action string

const (
	ActionDestroy         Action = "destroy"
	ActionDeactivate      Action = "deactivate"
	ActionActivate        Action = "activate"
	ActionToggle          Action = "toggle"
	ActionDisableCollider Action = "disable_collider"
	ActionEnableCollider  Action = "enable_collider"
)

// Behavior reacts to a click on its owner. An empty Target means the owner.
type Behavior struct {
	Action Action `yaml:"action"`
	Target string `yaml:"target,omitempty"`
}

// Validate rejects unknown actions.
func (b Behavior) Validate() error {
	switch b.Action {
	case ActionDestroy, ActionDeactivate, ActionActivate, ActionToggle,
		ActionDisableCollider, ActionEnableCollider:
		return nil
	}
	return fmt.Errorf("unknown action %q", b.Action)
}

// Dispatcher delivers events to world nodes and runs their click behaviors.
type Dispatcher struct {
	world *World
}

func (d *Dispatcher) OnPressStart(_ context.Context, target arena.Handle) error {
	_, err := d.record(EventPressStart, target)
	return err
}

func (d *Dispatcher) OnPressEnd(_ context.Context, target arena.Handle) error {
	_, err := d.record(EventPressEnd, target)
	return err
}

func (d *Dispatcher) OnClick(_ context.Context, target arena.Handle) error {
	n, err := d.record(EventClick, target)
	if err != nil {
		return err
	}
	for _, b := range n.OnClick {
		if err := d.world.apply(target, b); err != nil {
			d.world.logger.Debug("Click behavior failed.",
				zap.String("node", n.Name),
				zap.String("action", string(b.Action)),
				zap.Error(err))
		}
	}
	return nil
}

func (d *Dispatcher) record(kind EventKind, target arena.Handle) (Node, error) {
	n, ok := d.world.nodes.Get(target)
	if !ok {
		return Node{}, fmt.Errorf("%s %s: %w", kind, target, arena.ErrStale)
	}
	d.world.events = append(d.world.events, Event{At: d.world.now, Kind: kind, Target: n.Name})
	return n, nil
}

// apply runs b on behalf of owner.
func (w *World) apply(owner arena.Handle, b Behavior) error {
	target := owner
	if b.Target != "" {
		h, ok := w.Find(b.Target)
		if !ok {
			return fmt.Errorf("%s: no node named %q", b.Action, b.Target)
		}
		target = h
	}
	switch b.Action {
	case ActionDestroy:
		w.Destroy(target)
		return nil
	case ActionDeactivate:
		return w.SetActive(target, false)
	case ActionActivate:
		return w.SetActive(target, true)
	case ActionToggle:
		n, ok := w.nodes.Get(target)
		if !ok {
			return fmt.Errorf("toggle: %w", arena.ErrStale)
		}
		return w.SetActive(target, !n.ActiveSelf)
	case ActionDisableCollider:
		return w.SetColliderEnabled(target, false)
	case ActionEnableCollider:
		return w.SetColliderEnabled(target, true)
	}
	return b.Validate()
}
