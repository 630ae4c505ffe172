// Package scoring turns target impacts into points.
//
// A target scores either on a continuous radial falloff curve or on discrete
// rings. The math here is pure; Target wraps it with configuration, hit
// dispatch and forwarding to listeners and the scoreboard.
package scoring

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/okian/bullseye/internal/domain/geometry"
)

// Default configuration values.
const (
	DefaultMaxScore        = 100
	DefaultScoringRadius   = 1.0
	DefaultFalloffExponent = 1.0
	MinFalloffExponent     = 0.1
	MaxFalloffExponent     = 10
)

// Config is the scoring configuration of a single target.
type Config struct {
	// MaxScore is awarded at dead centre in continuous mode.
	MaxScore float64
	// ScoringRadius is the distance beyond which a hit scores 0.
	ScoringRadius float64
	// FalloffExponent shapes 1 - t^k.
	FalloffExponent float64
	// UseRingScores selects ring scoring when RingScores is non-empty.
	UseRingScores bool
	// RingScores[i] is awarded for distances in [i*w, (i+1)*w), w = radius/len.
	RingScores []float64
	// CenterOrigin is the world-space scoring centre. Nil means the origin
	// for the pure functions; Target substitutes its own position.
	CenterOrigin *geometry.Point3
}

// DefaultConfig returns a continuous-falloff configuration.
func DefaultConfig() Config {
	return Config{
		MaxScore:        DefaultMaxScore,
		ScoringRadius:   DefaultScoringRadius,
		FalloffExponent: DefaultFalloffExponent,
	}
}

// RingMode reports whether ring scoring applies.
func (c Config) RingMode() bool {
	return c.UseRingScores && len(c.RingScores) > 0
}

// Origin returns the scoring centre.
func (c Config) Origin() geometry.Point3 {
	if c.CenterOrigin == nil {
		return geometry.Point3{}
	}
	return *c.CenterOrigin
}

// Clone returns a deep copy.
func (c Config) Clone() Config {
	out := c
	if c.RingScores != nil {
		out.RingScores = append([]float64(nil), c.RingScores...)
	}
	if c.CenterOrigin != nil {
		p := *c.CenterOrigin
		out.CenterOrigin = &p
	}
	return out
}

// CalculateScore returns the raw score of a hit at hitPoint.
//
// Hits farther than ScoringRadius score 0. In ring mode the result is always
// one of RingScores, and a hit exactly on the boundary falls in the last ring.
// Otherwise the result is clamp(1 - t^k, 0, 1) * MaxScore with t = dist/radius.
func CalculateScore(hitPoint geometry.Point3, cfg Config) float64 {
	dist := geometry.Distance(hitPoint, cfg.Origin())
	return scoreAtDistance(dist, cfg)
}

func scoreAtDistance(dist float64, cfg Config) float64 {
	if dist > cfg.ScoringRadius {
		return 0
	}

	if cfg.RingMode() {
		n := len(cfg.RingScores)
		ringWidth := cfg.ScoringRadius / float64(n)
		idx := int(math.Floor(dist / ringWidth))
		if idx < 0 {
			idx = 0
		}
		if idx > n-1 {
			idx = n - 1
		}
		return cfg.RingScores[idx]
	}

	t := dist / cfg.ScoringRadius
	value := 1 - math.Pow(t, cfg.FalloffExponent)
	return mgl64.Clamp(value, 0, 1) * cfg.MaxScore
}

// Round converts a raw score to the integer awarded to the shooter. Halves go
// to the nearest even integer.
func Round(raw float64) int {
	if math.IsNaN(raw) {
		return 0
	}
	return int(math.RoundToEven(raw))
}

// Score computes both raw and rounded score.
func Score(hitPoint geometry.Point3, cfg Config) (raw float64, final int) {
	raw = CalculateScore(hitPoint, cfg)
	return raw, Round(raw)
}
