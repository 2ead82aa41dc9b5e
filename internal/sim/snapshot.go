package sim

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"io"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"github.com/mj1618/press-monkey/internal/arena"
	"github.com/mj1618/press-monkey/internal/model"
)

var (
	backgroundColor = color.RGBA{R: 24, G: 24, B: 28, A: 255}
	idleColor       = color.RGBA{R: 90, G: 90, B: 100, A: 255}
	hotColor        = color.RGBA{R: 230, G: 80, B: 40, A: 255}
	disabledColor   = color.RGBA{R: 60, G: 60, B: 160, A: 255}
	textColor       = color.RGBA{R: 255, G: 255, B: 255, A: 255}
	outlineColor    = color.RGBA{R: 0, G: 0, B: 0, A: 200}
)

// Counter reports the press count of a control.
type Counter interface {
	Count(h arena.Handle) int
}

// RenderSnapshot draws every active collider as seen by the camera. Fill
// color scales from grey to orange with the control's share of the
// highest count; disabled colliders are outlined in blue. Labels read
// "Name: count".
func RenderSnapshot(w *World, counts Counter) *image.RGBA {
	spec := w.camera.Spec()
	img := image.NewRGBA(image.Rect(0, 0, spec.Width, spec.Height))
	draw.Draw(img, img.Bounds(), image.NewUniform(backgroundColor), image.Point{}, draw.Src)

	live := w.Live()
	top := 0
	for _, h := range live {
		if c := counts.Count(h); c > top {
			top = c
		}
	}

	ctx := context.Background()
	for _, h := range live {
		n, _ := w.nodes.Get(h)
		if n.Collider == nil || !w.ActiveInHierarchy(h) {
			continue
		}
		b := n.Collider.Bounds
		lo := w.camera.WorldToScreen(ctx, model.Vec3{X: b.X, Y: b.Y, Z: n.Collider.Z})
		hi := w.camera.WorldToScreen(ctx, model.Vec3{X: b.X + b.W, Y: b.Y + b.H, Z: n.Collider.Z})
		// Screen Y grows downward in the image.
		r := image.Rect(int(lo.X), spec.Height-int(hi.Y), int(hi.X), spec.Height-int(lo.Y))

		if !n.Collider.Enabled {
			drawRectangle(img, r, disabledColor)
			continue
		}
		count := counts.Count(h)
		fill := idleColor
		if top > 0 && count > 0 {
			fill = blend(idleColor, hotColor, float64(count)/float64(top))
		}
		draw.Draw(img, r.Intersect(img.Bounds()), image.NewUniform(fill), image.Point{}, draw.Over)
		drawRectangle(img, r, outlineColor)
		if n.Control {
			c := r.Min.Add(r.Max).Div(2)
			drawTextWithOutline(img, fmt.Sprintf("%s: %d", n.Name, count), c.X, c.Y)
		}
	}
	return img
}

// WriteSnapshot renders the world and encodes it as PNG.
func WriteSnapshot(out io.Writer, w *World, counts Counter) error {
	if err := png.Encode(out, RenderSnapshot(w, counts)); err != nil {
		return fmt.Errorf("failed to encode snapshot: %w", err)
	}
	return nil
}

func blend(a, b color.RGBA, t float64) color.RGBA {
	mix := func(x, y uint8) uint8 { return uint8(float64(x) + (float64(y)-float64(x))*t) }
	return color.RGBA{R: mix(a.R, b.R), G: mix(a.G, b.G), B: mix(a.B, b.B), A: 255}
}

func drawRectangle(img *image.RGBA, r image.Rectangle, c color.Color) {
	r = r.Intersect(img.Bounds())
	if r.Empty() {
		return
	}
	for x := r.Min.X; x < r.Max.X; x++ {
		img.Set(x, r.Min.Y, c)
		img.Set(x, r.Max.Y-1, c)
	}
	for y := r.Min.Y; y < r.Max.Y; y++ {
		img.Set(r.Min.X, y, c)
		img.Set(r.Max.X-1, y, c)
	}
}

// drawTextWithOutline centers text on (x, y) using the 7x13 basic font.
func drawTextWithOutline(img *image.RGBA, text string, x, y int) {
	ox := x - len(text)*7/2
	oy := y + 13/2
	stamp := func(dx, dy int, c color.Color) {
		d := &font.Drawer{
			Dst:  img,
			Src:  image.NewUniform(c),
			Face: basicfont.Face7x13,
			Dot:  fixed.P(ox+dx, oy+dy),
		}
		d.DrawString(text)
	}
	for dx := -1; dx <= 1; dx++ {
		for dy := -1; dy <= 1; dy++ {
			if dx != 0 || dy != 0 {
				stamp(dx, dy, outlineColor)
			}
		}
	}
	stamp(0, 0, textColor)
}
