// Package render rasterises target ring layouts into preview images.
package render

import (
	"fmt"
	"image"
	"image/draw"
	"image/png"
	"io"
	"math"

	"github.com/okian/bullseye/internal/domain/scoring"
	"golang.org/x/image/vector"
)

// Defaults for ring previews.
const (
	DefaultSize        = 256
	DefaultSegments    = 128
	DefaultStrokeWidth = 4.0
)

// Renderer draws concentric ring strokes on a transparent square canvas.
// The outermost ring touches the canvas edge minus one stroke width.
type Renderer struct {
	size     int
	segments int
	stroke   float64
}

// Option configures a Renderer.
type Option func(*Renderer)

// WithSize sets the canvas edge length in pixels.
func WithSize(px int) Option {
	return func(r *Renderer) {
		if px > 0 {
			r.size = px
		}
	}
}

// WithSegments sets how many edges approximate each circle.
func WithSegments(n int) Option {
	return func(r *Renderer) {
		if n >= 3 {
			r.segments = n
		}
	}
}

// WithStrokeWidth sets the ring stroke width in pixels.
func WithStrokeWidth(px float64) Option {
	return func(r *Renderer) {
		if px > 0 {
			r.stroke = px
		}
	}
}

// New creates a Renderer.
func New(opts ...Option) *Renderer {
	r := &Renderer{size: DefaultSize, segments: DefaultSegments, stroke: DefaultStrokeWidth}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Size returns the canvas edge length.
func (r *Renderer) Size() int { return r.size }

// Image draws layout. An empty layout yields a blank canvas.
func (r *Renderer) Image(layout scoring.RingLayout) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, r.size, r.size))

	var maxRadius float64
	for _, ring := range layout {
		maxRadius = math.Max(maxRadius, ring.Radius)
	}
	if !(maxRadius > 0) {
		return img
	}

	half := float64(r.size) / 2
	scale := (half - r.stroke) / maxRadius
	if scale <= 0 {
		scale = half / maxRadius
	}

	z := vector.NewRasterizer(r.size, r.size)
	for _, ring := range layout {
		rad := ring.Radius * scale
		z.Reset(r.size, r.size)
		z.DrawOp = draw.Over
		// Outer and inner circles wound in opposite directions leave an annulus.
		r.circle(z, half, half, rad+r.stroke/2, 1)
		if inner := rad - r.stroke/2; inner > 0 {
			r.circle(z, half, half, inner, -1)
		}
		z.Draw(img, img.Bounds(), image.NewUniform(ring.Color.NRGBA()), image.Point{})
	}
	return img
}

func (r *Renderer) circle(z *vector.Rasterizer, cx, cy, radius float64, dir float64) {
	step := dir * 2 * math.Pi / float64(r.segments)
	z.MoveTo(float32(cx+radius), float32(cy))
	for i := 1; i < r.segments; i++ {
		a := step * float64(i)
		z.LineTo(float32(cx+radius*math.Cos(a)), float32(cy+radius*math.Sin(a)))
	}
	z.ClosePath()
}

// PNG encodes the preview of layout to w.
func (r *Renderer) PNG(w io.Writer, layout scoring.RingLayout) error {
	if err := png.Encode(w, r.Image(layout)); err != nil {
		return fmt.Errorf("%w: %w", ErrEncode, err)
	}
	return nil
}
