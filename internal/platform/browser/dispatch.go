package browser

import (
	"context"
	"fmt"

	"github.com/chromedp/cdproto/input"
	"go.uber.org/zap"

	"github.com/mj1618/press-monkey/internal/arena"
	"github.com/mj1618/press-monkey/internal/platform"
)

// Dispatcher delivers presses either as DOM events on the element or as
// native mouse input at its center.
type Dispatcher struct {
	page *Page
}

// domButton maps to MouseEvent.button.
func domButton(b platform.MouseButton) int {
	switch b {
	case platform.MouseMiddle:
		return 1
	case platform.MouseRight:
		return 2
	default:
		return 0
	}
}

func cdpButton(b platform.MouseButton) input.MouseButton {
	switch b {
	case platform.MouseMiddle:
		return input.Middle
	case platform.MouseRight:
		return input.Right
	default:
		return input.Left
	}
}

func (d *Dispatcher) OnPressStart(ctx context.Context, target arena.Handle) error {
	if d.page.mode == platform.DispatchInput {
		return d.mouse(ctx, target, input.MousePressed)
	}
	return d.synthetic(ctx, target, phaseDown)
}

func (d *Dispatcher) OnPressEnd(ctx context.Context, target arena.Handle) error {
	if d.page.mode == platform.DispatchInput {
		return d.mouse(ctx, target, input.MouseReleased)
	}
	return d.synthetic(ctx, target, phaseUp)
}

// OnClick fires the click handler. Native input needs nothing here: the
// browser synthesizes the click from the down/up pair.
func (d *Dispatcher) OnClick(ctx context.Context, target arena.Handle) error {
	if d.page.mode == platform.DispatchInput {
		if _, ok := d.page.reg.id(target); !ok {
			return fmt.Errorf("browser: click %s: %w", target, arena.ErrStale)
		}
		return nil
	}
	return d.synthetic(ctx, target, phaseClick)
}

func (d *Dispatcher) synthetic(ctx context.Context, target arena.Handle, p phase) error {
	id, ok := d.page.reg.id(target)
	if !ok {
		return fmt.Errorf("browser: %s %s: %w", p, target, arena.ErrStale)
	}
	var found bool
	if err := d.page.exec.Eval(ctx, dispatchScript(id, p, domButton(d.page.button)), &found); err != nil {
		return fmt.Errorf("browser: %s %s: %w", p, id, err)
	}
	if !found {
		// Detached since the last scan.
		return fmt.Errorf("browser: %s %s: %w", p, id, arena.ErrStale)
	}
	return nil
}

func (d *Dispatcher) mouse(ctx context.Context, target arena.Handle, kind input.MouseType) error {
	c, ok := d.page.reg.center(target)
	if !ok {
		return fmt.Errorf("browser: %s %s: %w", kind, target, arena.ErrStale)
	}
	ev := input.DispatchMouseEvent(kind, c.x, c.y).
		WithButton(cdpButton(d.page.button)).
		WithClickCount(1)
	if err := d.page.exec.DispatchMouseEvent(ctx, ev); err != nil {
		return fmt.Errorf("browser: %s at (%.0f, %.0f): %w", kind, c.x, c.y, err)
	}
	d.page.logger.Debug("Mouse event.", zap.String("type", string(kind)), zap.Float64("x", c.x), zap.Float64("y", c.y))
	return nil
}
