package scoring

import (
	"image/color"
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/okian/bullseye/internal/domain/geometry"
)

// DefaultRingSegments is the number of points used to outline a ring.
const DefaultRingSegments = 64

// Color is a linear RGBA colour with components in [0, 1].
type Color struct {
	R float64 `json:"r"`
	G float64 `json:"g"`
	B float64 `json:"b"`
	A float64 `json:"a"`
}

// Fixed ring colours. Ring i of n is ColorRed.Lerp(ColorGreen, i/n), so the
// outermost ring is pure green; a single continuous ring is cyan.
var (
	ColorRed   = Color{R: 1, A: 1}
	ColorGreen = Color{G: 1, A: 1}
	ColorCyan  = Color{G: 1, B: 1, A: 1}
)

// Lerp blends a towards b by t, clamped to [0, 1].
func (a Color) Lerp(b Color, t float64) Color {
	t = mgl64.Clamp(t, 0, 1)
	return Color{
		R: a.R + (b.R-a.R)*t,
		G: a.G + (b.G-a.G)*t,
		B: a.B + (b.B-a.B)*t,
		A: a.A + (b.A-a.A)*t,
	}
}

// NRGBA converts to an 8-bit colour.
func (a Color) NRGBA() color.NRGBA {
	to8 := func(v float64) uint8 { return uint8(math.Round(mgl64.Clamp(v, 0, 1) * 255)) }
	return color.NRGBA{R: to8(a.R), G: to8(a.G), B: to8(a.B), A: to8(a.A)}
}

// Ring is one visual ring of a target.
type Ring struct {
	Index  int     `json:"index"` // 1-based, innermost first
	Radius float64 `json:"radius"`
	Score  float64 `json:"score"` // value of the band this ring closes
	Color  Color   `json:"color"`
}

// RingLayout is display-only data derived from a Config. It is never read
// back for scoring.
type RingLayout []Ring

// ComputeRingLayout builds the rings of cfg. Ring mode yields one ring per
// ring score at radius (R/n)*i; otherwise a single cyan ring at R.
func ComputeRingLayout(cfg Config) RingLayout {
	if !cfg.RingMode() {
		return RingLayout{{Index: 1, Radius: cfg.ScoringRadius, Score: cfg.MaxScore, Color: ColorCyan}}
	}

	n := len(cfg.RingScores)
	width := cfg.ScoringRadius / float64(n)
	layout := make(RingLayout, n)
	for i := 1; i <= n; i++ {
		layout[i-1] = Ring{
			Index:  i,
			Radius: width * float64(i),
			Score:  cfg.RingScores[i-1],
			Color:  ColorRed.Lerp(ColorGreen, float64(i)/float64(n)),
		}
	}
	return layout
}

// Outline returns segments points of a circle of the given radius around
// center, lying in the plane spanned by the rotation's local X (right) and
// Y (up) axes.
func Outline(center geometry.Point3, rotation mgl64.Quat, radius float64, segments int) []geometry.Point3 {
	if segments < 3 {
		segments = 3
	}
	right := rotation.Rotate(mgl64.Vec3{1, 0, 0})
	up := rotation.Rotate(mgl64.Vec3{0, 1, 0})

	pts := make([]geometry.Point3, segments)
	step := 2 * math.Pi / float64(segments)
	for s := range pts {
		a := step * float64(s)
		offset := right.Mul(math.Cos(a)).Add(up.Mul(math.Sin(a))).Mul(radius)
		pts[s] = center.Add(offset)
	}
	return pts
}
