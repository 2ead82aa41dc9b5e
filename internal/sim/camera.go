package sim

import (
	"context"
	"math"

	"github.com/mj1618/press-monkey/internal/arena"
	"github.com/mj1618/press-monkey/internal/model"
)

// CameraSpec describes an orthographic camera looking down +Z.
type CameraSpec struct {
	Position      model.Vec3 `yaml:"position"`
	Width         int        `yaml:"width"`
	Height        int        `yaml:"height"`
	PixelsPerUnit float64    `yaml:"pixels_per_unit"`
}

// DefaultCamera sits ten units in front of the origin with a 1280x800
// screen at one pixel per unit.
var DefaultCamera = CameraSpec{
	Position:      model.Vec3{Z: -10},
	Width:         1280,
	Height:        800,
	PixelsPerUnit: 1,
}

// Camera implements platform.Camera for a World.
type Camera struct {
	world *World
	spec  CameraSpec
}

func newCamera(w *World, spec CameraSpec) *Camera {
	if spec.PixelsPerUnit <= 0 {
		spec.PixelsPerUnit = 1
	}
	if spec.Width <= 0 {
		spec.Width = DefaultCamera.Width
	}
	if spec.Height <= 0 {
		spec.Height = DefaultCamera.Height
	}
	return &Camera{world: w, spec: spec}
}

// Spec returns the camera parameters.
func (c *Camera) Spec() CameraSpec { return c.spec }

// WorldToScreen maps p to pixels with the camera position at the screen
// center. Z is the distance in front of the camera.
func (c *Camera) WorldToScreen(_ context.Context, p model.Vec3) model.Vec3 {
	s := c.spec
	return model.Vec3{
		X: (p.X-s.Position.X)*s.PixelsPerUnit + float64(s.Width)/2,
		Y: (p.Y-s.Position.Y)*s.PixelsPerUnit + float64(s.Height)/2,
		Z: p.Z - s.Position.Z,
	}
}

// ScreenPointToRay returns the ray through a screen pixel, starting on the
// camera plane.
func (c *Camera) ScreenPointToRay(_ context.Context, p model.Vec3) model.Ray {
	s := c.spec
	return model.Ray{
		Origin: model.Vec3{
			X: (p.X-float64(s.Width)/2)/s.PixelsPerUnit + s.Position.X,
			Y: (p.Y-float64(s.Height)/2)/s.PixelsPerUnit + s.Position.Y,
			Z: s.Position.Z,
		},
		Direction: model.Vec3{Z: 1},
	}
}

// RayIntersection returns the nearest active, enabled collider in front of
// the ray origin that contains the ray's XY. Equal depths go to the higher
// layer, then to the later node, which draws on top.
func (c *Camera) RayIntersection(_ context.Context, r model.Ray) (arena.Handle, bool) {
	w := c.world
	best := arena.Nil
	bestDist := math.Inf(1)
	bestLayer := math.MinInt
	for _, h := range w.order {
		n, ok := w.nodes.Get(h)
		if !ok || n.Collider == nil || !n.Collider.Enabled || !w.ActiveInHierarchy(h) {
			continue
		}
		dist := n.Collider.Z - r.Origin.Z
		if dist < 0 || !n.Collider.Bounds.Contains(r.Origin.X, r.Origin.Y) {
			continue
		}
		if dist < bestDist || (dist == bestDist && n.Layer >= bestLayer) {
			best, bestDist, bestLayer = h, dist, n.Layer
		}
	}
	return best, !best.IsNil()
}
