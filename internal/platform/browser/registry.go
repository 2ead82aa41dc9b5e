package browser

import (
	"github.com/mj1618/press-monkey/internal/arena"
	"github.com/mj1618/press-monkey/internal/model"
)

// domControl is one element reported by the scan script.
type domControl struct {
	ID      string  `json:"id"`
	Name    string  `json:"name"`
	Tag     string  `json:"tag"`
	Role    string  `json:"role"`
	Active  bool    `json:"active"`
	Enabled bool    `json:"enabled"`
	X       float64 `json:"x"`
	Y       float64 `json:"y"`
	W       float64 `json:"w"`
	H       float64 `json:"h"`
	Surface bool    `json:"surface"`
	// Hit is the id of the tagged element found at the center, "" when an
	// untagged element covers it, nil when nothing is there.
	Hit *string `json:"hit"`
}

func (d domControl) bounds() model.Rect {
	return model.Rect{X: d.X, Y: d.Y, W: d.W, H: d.H}
}

type point struct{ x, y float64 }

// registry maps element ids to generation-checked handles. Elements that
// drop out of a scan lose their handle for good.
type registry struct {
	handles *arena.Arena[string]
	byID    map[string]arena.Handle
	snap    map[arena.Handle]domControl
	order   []arena.Handle
	hits    map[point]*string

	// Canvas handles. page also stands in for probe hits on untagged
	// elements, so it never equals a control handle.
	page    arena.Handle
	surface arena.Handle
}

func newRegistry() *registry {
	r := &registry{
		handles: arena.New[string](),
		byID:    make(map[string]arena.Handle),
		snap:    make(map[arena.Handle]domControl),
		hits:    make(map[point]*string),
	}
	r.page = r.handles.Insert("#page")
	r.surface = r.handles.Insert("#surface")
	return r
}

// apply replaces the snapshot with scan and returns the handles in
// document order.
func (r *registry) apply(scan []domControl) []arena.Handle {
	seen := make(map[string]bool, len(scan))
	snap := make(map[arena.Handle]domControl, len(scan))
	hits := make(map[point]*string, len(scan))
	order := make([]arena.Handle, 0, len(scan))
	for _, d := range scan {
		if d.ID == "" || seen[d.ID] {
			continue
		}
		seen[d.ID] = true
		h, ok := r.byID[d.ID]
		if !ok {
			h = r.handles.Insert(d.ID)
			r.byID[d.ID] = h
		}
		snap[h] = d
		order = append(order, h)
		cx, cy := d.bounds().Center()
		hits[point{cx, cy}] = d.Hit
	}
	for id, h := range r.byID {
		if !seen[id] {
			r.handles.Remove(h)
			delete(r.byID, id)
		}
	}
	r.snap, r.hits, r.order = snap, hits, order
	return order
}

// control converts the snapshot of h.
func (r *registry) control(h arena.Handle) (model.Control, bool) {
	if !r.handles.Valid(h) {
		return model.Control{}, false
	}
	d, ok := r.snap[h]
	if !ok {
		return model.Control{}, false
	}
	canvas := r.page
	if d.Surface {
		canvas = r.surface
	}
	return model.Control{
		Handle:   h,
		Name:     d.Name,
		Role:     model.MapRole(d.Tag, d.Role),
		Active:   d.Active,
		Collider: &model.Collider{Bounds: d.bounds(), Enabled: d.Enabled},
		Canvas:   canvas,
	}, true
}

// center returns the screen center of h from the last scan.
func (r *registry) center(h arena.Handle) (point, bool) {
	d, ok := r.snap[h]
	if !ok || !r.handles.Valid(h) {
		return point{}, false
	}
	cx, cy := d.bounds().Center()
	return point{cx, cy}, true
}

// id returns the element id behind a live handle.
func (r *registry) id(h arena.Handle) (string, bool) {
	if _, ok := r.snap[h]; !ok {
		return "", false
	}
	return r.handles.Get(h)
}

// hitAt answers a probe from the scan cache. cached is false when the
// point was not probed by the last scan.
func (r *registry) hitAt(p point) (h arena.Handle, ok, cached bool) {
	hit, found := r.hits[p]
	if !found {
		return arena.Nil, false, false
	}
	h, ok = r.resolve(hit)
	return h, ok, true
}

// resolve maps a probe result to a handle.
func (r *registry) resolve(hit *string) (arena.Handle, bool) {
	if hit == nil {
		return arena.Nil, false
	}
	if h, ok := r.byID[*hit]; ok {
		return h, true
	}
	return r.page, true
}
