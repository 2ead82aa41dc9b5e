package sim

import (
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/mj1618/press-monkey/internal/arena"
	"github.com/mj1618/press-monkey/internal/platform"
)

// Step is one timed operator input or scene mutation. Exactly one of the
// action fields is set.
type Step struct {
	At         time.Duration `yaml:"at"`
	Key        string        `yaml:"key,omitempty"`     // "activation"
	Trigger    string        `yaml:"trigger,omitempty"` // "start" or "stop"
	Destroy    string        `yaml:"destroy,omitempty"`
	Deactivate string        `yaml:"deactivate,omitempty"`
	Activate   string        `yaml:"activate,omitempty"`
	Disable    string        `yaml:"disable,omitempty"` // Disables the collider
	Enable     string        `yaml:"enable,omitempty"`
}

func (s Step) validate() error {
	set := 0
	for _, v := range []string{s.Key, s.Trigger, s.Destroy, s.Deactivate, s.Activate, s.Disable, s.Enable} {
		if v != "" {
			set++
		}
	}
	if set != 1 {
		return fmt.Errorf("script step at %s: exactly one action is required", s.At)
	}
	if s.Key != "" && s.Key != "activation" {
		return fmt.Errorf("script step at %s: unknown key %q", s.At, s.Key)
	}
	if s.Trigger != "" {
		if _, err := parseTrigger(s.Trigger); err != nil {
			return fmt.Errorf("script step at %s: %w", s.At, err)
		}
	}
	if s.At < 0 {
		return fmt.Errorf("script step at %s: negative time", s.At)
	}
	return nil
}

func parseTrigger(s string) (platform.Trigger, error) {
	switch s {
	case "start":
		return platform.TriggerStart, nil
	case "stop":
		return platform.TriggerStop, nil
	}
	return 0, fmt.Errorf("unknown trigger %q", s)
}

// Script replays steps in time order.
type Script struct {
	steps []Step
	next  int
}

// NewScript validates steps and sorts them by time, keeping file order for
// equal times.
func NewScript(steps []Step) (*Script, error) {
	for _, s := range steps {
		if err := s.validate(); err != nil {
			return nil, err
		}
	}
	sorted := make([]Step, len(steps))
	copy(sorted, steps)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].At < sorted[j].At })
	return &Script{steps: sorted}, nil
}

// Pending returns the number of steps not yet applied.
func (s *Script) Pending() int { return len(s.steps) - s.next }

// Apply runs every step due at or before now against w and returns how
// many ran. Steps naming missing nodes are logged and skipped.
func (s *Script) Apply(w *World, now time.Duration) int {
	ran := 0
	for s.next < len(s.steps) && s.steps[s.next].At <= now {
		step := s.steps[s.next]
		s.next++
		ran++
		if err := w.runStep(step); err != nil {
			w.logger.Debug("Script step skipped.", zap.Duration("at", step.At), zap.Error(err))
		}
	}
	return ran
}

func (w *World) runStep(s Step) error {
	switch {
	case s.Key != "":
		w.input.PressActivationKey()
		return nil
	case s.Trigger != "":
		t, _ := parseTrigger(s.Trigger)
		if !w.Surface().Click(t) {
			return fmt.Errorf("%s affordance is not showing", t)
		}
		return nil
	case s.Destroy != "":
		return w.act(ActionDestroy, s.Destroy)
	case s.Deactivate != "":
		return w.act(ActionDeactivate, s.Deactivate)
	case s.Activate != "":
		return w.act(ActionActivate, s.Activate)
	case s.Disable != "":
		return w.act(ActionDisableCollider, s.Disable)
	case s.Enable != "":
		return w.act(ActionEnableCollider, s.Enable)
	}
	return nil
}

// act runs a behavior against the node named target.
func (w *World) act(a Action, target string) error {
	return w.apply(arena.Nil, Behavior{Action: a, Target: target})
}
