package browser

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/mj1618/press-monkey/internal/arena"
	"github.com/mj1618/press-monkey/internal/platform"
)

// Surface is the overlay injected into the page. The Go side holds the
// state and re-applies it whenever the page loses the overlay.
type Surface struct {
	page *Page

	visible      bool
	startVisible bool
	stopVisible  bool
	status       string

	keys int
}

func (s *Surface) Canvas() arena.Handle { return s.page.reg.surface }

func (s *Surface) Visible() bool { return s.visible }

// StartVisible reports whether the start affordance is showing.
func (s *Surface) StartVisible() bool { return s.startVisible }

// StopVisible reports whether the stop affordance is showing.
func (s *Surface) StopVisible() bool { return s.stopVisible }

// Status returns the readout text.
func (s *Surface) Status() string { return s.status }

func (s *Surface) SetVisible(ctx context.Context, visible bool) error {
	s.visible = visible
	return s.apply(ctx)
}

func (s *Surface) SetStartVisible(ctx context.Context, visible bool) error {
	s.startVisible = visible
	return s.apply(ctx)
}

func (s *Surface) SetStopVisible(ctx context.Context, visible bool) error {
	s.stopVisible = visible
	return s.apply(ctx)
}

func (s *Surface) SetStatus(ctx context.Context, text string) error {
	s.status = text
	return s.apply(ctx)
}

func (s *Surface) apply(ctx context.Context) error {
	var injected bool
	script := surfaceScript(s.visible, s.startVisible, s.stopVisible, s.status)
	if err := s.page.exec.Eval(ctx, script, &injected); err != nil {
		return fmt.Errorf("browser: surface: %w", err)
	}
	if injected {
		s.page.logger.Debug("Injected surface overlay.")
	}
	return nil
}

// PollTriggers drains the overlay's button presses. Activation key presses
// drained alongside are queued for Input.
func (s *Surface) PollTriggers(ctx context.Context) ([]platform.Trigger, error) {
	var res drainResult
	if err := s.page.exec.Eval(ctx, drainScript(), &res); err != nil {
		return nil, fmt.Errorf("browser: poll: %w", err)
	}
	s.keys += res.Keys
	if !res.Present {
		// Navigation or page script removed the overlay.
		if err := s.apply(ctx); err != nil {
			return nil, err
		}
	}
	var out []platform.Trigger
	for _, t := range res.Triggers {
		switch t {
		case "start":
			out = append(out, platform.TriggerStart)
		case "stop":
			out = append(out, platform.TriggerStop)
		default:
			s.page.logger.Debug("Ignoring unknown trigger.", zap.String("trigger", t))
		}
	}
	return out, nil
}

// Input reports Enter key presses captured by the overlay's listener.
type Input struct {
	surface *Surface
}

// ActivationKeyDown consumes one queued press per call.
func (in *Input) ActivationKeyDown(context.Context) bool {
	if in.surface.keys == 0 {
		return false
	}
	in.surface.keys--
	return true
}
