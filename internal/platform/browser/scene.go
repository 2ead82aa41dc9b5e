package browser

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/mj1618/press-monkey/internal/arena"
	"github.com/mj1618/press-monkey/internal/model"
)

// scan re-reads every matching element and refreshes the registry.
func (p *Page) scan(ctx context.Context) ([]arena.Handle, error) {
	var res []domControl
	if err := p.exec.Eval(ctx, scanScript(p.selector), &res); err != nil {
		return nil, fmt.Errorf("browser: scan: %w", err)
	}
	p.scannedAt, p.scanned = p.now(), true
	return p.reg.apply(res), nil
}

// FindControls rescans the page. Calls over the scan rate answer from the
// last scan.
func (p *Page) FindControls(ctx context.Context) ([]arena.Handle, error) {
	if p.limiter != nil && !p.limiter.AllowN(p.now(), 1) && p.scanned {
		return append([]arena.Handle(nil), p.reg.order...), nil
	}
	hs, err := p.scan(ctx)
	if err != nil {
		return nil, err
	}
	p.logger.Debug("Scanned page.", zap.Int("controls", len(hs)))
	return hs, nil
}

// Control answers from the last scan while it is younger than the tick
// interval. A failed rescan falls back to the old snapshot.
func (p *Page) Control(ctx context.Context, h arena.Handle) (model.Control, bool) {
	if !p.scanned || p.now().Sub(p.scannedAt) > p.ttl {
		if _, err := p.scan(ctx); err != nil {
			p.logger.Debug("Rescan failed.", zap.Error(err))
		}
	}
	return p.reg.control(h)
}

// Camera maps viewport pixels onto themselves.
type Camera struct {
	page *Page
}

// WorldToScreen is the identity; nothing on a page lies behind the viewer.
func (c *Camera) WorldToScreen(_ context.Context, p model.Vec3) model.Vec3 {
	return model.Vec3{X: p.X, Y: p.Y, Z: 0}
}

func (c *Camera) ScreenPointToRay(_ context.Context, p model.Vec3) model.Ray {
	return model.Ray{
		Origin:    model.Vec3{X: p.X, Y: p.Y, Z: -1},
		Direction: model.Vec3{Z: 1},
	}
}

// RayIntersection reports the topmost tagged element under the ray. Probes
// at a control center come from the last scan; anything else asks the page.
func (c *Camera) RayIntersection(ctx context.Context, r model.Ray) (arena.Handle, bool) {
	pt := point{r.Origin.X, r.Origin.Y}
	if h, ok, cached := c.page.reg.hitAt(pt); cached {
		return h, ok
	}
	var res probeResult
	if err := c.page.exec.Eval(ctx, probeScript(pt.x, pt.y), &res); err != nil {
		c.page.logger.Debug("Hit probe failed.", zap.Error(err))
		return arena.Nil, false
	}
	return c.page.reg.resolve(res.Hit)
}
