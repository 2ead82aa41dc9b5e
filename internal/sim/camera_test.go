package sim

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/mj1618/press-monkey/internal/arena"
	"github.com/mj1618/press-monkey/internal/model"
)

func TestCamera_ProjectionRoundTrip(t *testing.T) {
	ctx := context.Background()
	cam := NewWorld(WithCamera(CameraSpec{
		Position:      model.Vec3{X: 10, Y: 5, Z: -10},
		Width:         200,
		Height:        100,
		PixelsPerUnit: 2,
	})).Camera()

	screen := cam.WorldToScreen(ctx, model.Vec3{X: 10, Y: 5, Z: 0})
	assert.Equal(t, model.Vec3{X: 100, Y: 50, Z: 10}, screen)

	screen = cam.WorldToScreen(ctx, model.Vec3{X: 20, Y: 0, Z: 3})
	assert.Equal(t, model.Vec3{X: 120, Y: 40, Z: 13}, screen)

	ray := cam.ScreenPointToRay(ctx, screen)
	assert.Equal(t, model.Vec3{X: 20, Y: 0, Z: -10}, ray.Origin)
	assert.Equal(t, model.Vec3{Z: 1}, ray.Direction)
}

func TestCamera_BehindViewerHasNegativeDepth(t *testing.T) {
	cam := NewWorld().Camera()
	p := cam.WorldToScreen(context.Background(), model.Vec3{Z: -20})
	assert.Less(t, p.Z, 0.0)
}

func TestCamera_RayIntersection(t *testing.T) {
	ctx := context.Background()
	ray := func(x, y float64) model.Ray {
		return model.Ray{Origin: model.Vec3{X: x, Y: y, Z: -10}, Direction: model.Vec3{Z: 1}}
	}

	t.Run("nearest collider wins", func(t *testing.T) {
		w := NewWorld()
		far := w.MustAdd(button("Far", arena.Nil, 0, 0))
		nearNode := button("Near", arena.Nil, 0, 0)
		nearNode.Collider.Z = -1
		near := w.MustAdd(nearNode)

		hit, ok := w.Camera().RayIntersection(ctx, ray(50, 20))
		assert.True(t, ok)
		assert.Equal(t, near, hit)
		assert.NotEqual(t, far, hit)
	})

	t.Run("equal depth goes to the higher layer", func(t *testing.T) {
		w := NewWorld()
		top := button("Top", arena.Nil, 0, 0)
		top.Layer = 2
		topH := w.MustAdd(top)
		w.MustAdd(button("Bottom", arena.Nil, 0, 0))

		hit, _ := w.Camera().RayIntersection(ctx, ray(50, 20))
		assert.Equal(t, topH, hit)
	})

	t.Run("inactive and disabled colliders are transparent", func(t *testing.T) {
		w := NewWorld()
		under := w.MustAdd(button("Under", arena.Nil, 0, 0))
		inactive := button("Inactive", arena.Nil, 0, 0)
		inactive.Collider.Z = -2
		inactive.ActiveSelf = false
		w.MustAdd(inactive)
		disabled := button("Disabled", arena.Nil, 0, 0)
		disabled.Collider.Z = -1
		disabled.Collider.Enabled = false
		w.MustAdd(disabled)

		hit, _ := w.Camera().RayIntersection(ctx, ray(50, 20))
		assert.Equal(t, under, hit)
	})

	t.Run("blocker without a control is reported", func(t *testing.T) {
		w := NewWorld()
		w.MustAdd(button("Covered", arena.Nil, 0, 0))
		blocker := w.MustAdd(Node{
			Name:       "Overlay",
			ActiveSelf: true,
			Collider:   &model.Collider{Bounds: model.Rect{W: 500, H: 500}, Z: -1, Enabled: true},
		})

		hit, ok := w.Camera().RayIntersection(ctx, ray(50, 20))
		assert.True(t, ok)
		assert.Equal(t, blocker, hit)
	})

	t.Run("miss", func(t *testing.T) {
		w := NewWorld()
		w.MustAdd(button("Somewhere", arena.Nil, 0, 0))
		_, ok := w.Camera().RayIntersection(ctx, ray(-500, -500))
		assert.False(t, ok)
	})
}
