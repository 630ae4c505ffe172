// Package config defines service configuration structures and loading hooks.
//
// Conventions:
//   - Defaults come from New(); Load layers a YAML file and env vars on top.
//   - Target definitions are only read from the file; env vars cover the
//     flat keys.
//   - Validation failures wrap ErrInvalidConfig.
package config

import (
	"fmt"
	"runtime"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/okian/bullseye/internal/domain/geometry"
	"github.com/okian/bullseye/internal/domain/motion"
	"github.com/okian/bullseye/internal/domain/scoring"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogJSON switches log output to JSON lines.
	LogJSON bool `koanf:"log_json"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// QueueSize bounds the in-memory hit queues, shared across workers.
	QueueSize int `koanf:"queue_size"`

	// WorkerCount sets the number of scoring workers.
	WorkerCount int `koanf:"worker_count"`

	// DedupeSize sets the number of remembered hit ids.
	DedupeSize int `koanf:"dedupe_size"`

	// MaxScoreboardLimit caps GET /scoreboard?limit.
	MaxScoreboardLimit int `koanf:"max_scoreboard_limit"`

	// RingSegments is the number of points per ring outline.
	RingSegments int `koanf:"ring_segments"`

	// RingPreviewSize is the edge length in pixels of ring previews.
	RingPreviewSize int `koanf:"ring_preview_size"`

	// TickIntervalMS is the period of the target motion ticker.
	TickIntervalMS int `koanf:"tick_interval_ms"`

	// AnonymousShooter is credited for hits without a source id.
	AnonymousShooter string `koanf:"anonymous_shooter"`

	// Targets lists the targets placed on the range.
	Targets []TargetConfig `koanf:"targets"`
}

// ColliderConfig describes a target collider.
type ColliderConfig struct {
	// Kind is sphere, box or generic.
	Kind string `koanf:"kind"`
	// Radius of a sphere.
	Radius float64 `koanf:"radius"`
	// Center of the shape in local space.
	Center []float64 `koanf:"center"`
	// Size holds the full edge lengths of a box, or of the generic bounds.
	Size []float64 `koanf:"size"`
}

// MotionConfig moves a target back and forth.
type MotionConfig struct {
	Axis  string  `koanf:"axis"`
	MinX  float64 `koanf:"min_x"`
	MaxX  float64 `koanf:"max_x"`
	MinY  float64 `koanf:"min_y"`
	MaxY  float64 `koanf:"max_y"`
	Speed float64 `koanf:"speed"`
}

// TargetConfig places and tunes one target.
type TargetConfig struct {
	ID       string         `koanf:"id"`
	Position []float64      `koanf:"position"`
	Rotation []float64      `koanf:"rotation"` // Euler degrees
	Scale    []float64      `koanf:"scale"`
	Collider ColliderConfig `koanf:"collider"`

	// MaxScore nil means the default; 0 is a valid decoy score.
	MaxScore        *float64  `koanf:"max_score"`
	ScoringRadius   float64   `koanf:"scoring_radius"`
	FalloffExponent float64   `koanf:"falloff_exponent"`
	UseRingScores   bool      `koanf:"use_ring_scores"`
	RingScores      []float64 `koanf:"ring_scores"`

	AutoRadius             *bool     `koanf:"auto_radius"`
	FallbackToClosestPoint *bool     `koanf:"fallback_to_closest_point"`
	ShowRings              *bool     `koanf:"show_rings"`
	Center                 []float64 `koanf:"center"`

	Motion *MotionConfig `koanf:"motion"`
}

// New creates a Config with defaults.
func New() *Config {
	return &Config{
		LogLevel:           "info",
		Addr:               ":9080",
		QueueSize:          10_000,
		WorkerCount:        runtime.NumCPU(),
		DedupeSize:         50_000,
		MaxScoreboardLimit: 100,
		RingSegments:       scoring.DefaultRingSegments,
		RingPreviewSize:    256,
		TickIntervalMS:     20,
		AnonymousShooter:   "anonymous",
		Targets:            DefaultTargets(),
	}
}

// DefaultTargets is the range used when no targets are configured: a static
// ring target and a moving continuous one.
func DefaultTargets() []TargetConfig {
	return []TargetConfig{
		{
			ID:              "bullseye",
			Position:        []float64{0, 1.5, 10},
			Scale:           []float64{2, 2, 0.1},
			Collider:        ColliderConfig{Kind: string(geometry.KindSphere), Radius: 0.5},
			MaxScore:        float(scoring.DefaultMaxScore),
			FalloffExponent: scoring.DefaultFalloffExponent,
			UseRingScores:   true,
			RingScores:      []float64{10, 9, 8, 7, 6, 5, 4, 3, 2, 1},
		},
		{
			ID:              "mover",
			Position:        []float64{0, 1.5, 15},
			Collider:        ColliderConfig{Kind: string(geometry.KindBox), Size: []float64{1, 1, 0.1}},
			MaxScore:        float(scoring.DefaultMaxScore),
			FalloffExponent: 2,
			Motion: &MotionConfig{
				Axis:  string(motion.Horizontal),
				MinX:  motion.DefaultMinX,
				MaxX:  motion.DefaultMaxX,
				MinY:  motion.DefaultMinY,
				MaxY:  motion.DefaultMaxY,
				Speed: motion.DefaultSpeed,
			},
		},
	}
}

// Validate checks the configuration. Errors wrap ErrInvalidConfig.
func (c *Config) Validate() error {
	if c.Addr == "" {
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	}
	seen := make(map[string]struct{}, len(c.Targets))
	for i := range c.Targets {
		t := &c.Targets[i]
		if t.ID == "" {
			return fmt.Errorf("%w: targets[%d]: id must not be empty", ErrInvalidConfig, i)
		}
		if _, dup := seen[t.ID]; dup {
			return fmt.Errorf("%w: duplicate target id %q", ErrInvalidConfig, t.ID)
		}
		seen[t.ID] = struct{}{}
		if err := t.Validate(); err != nil {
			return fmt.Errorf("%w: target %q: %w", ErrInvalidConfig, t.ID, err)
		}
	}
	return nil
}

// Validate checks a single target definition.
func (t *TargetConfig) Validate() error {
	if _, ok := geometry.ParseKind(t.Collider.Kind); !ok {
		return fmt.Errorf("unknown collider kind %q", t.Collider.Kind)
	}
	for name, v := range map[string][]float64{
		"position": t.Position, "rotation": t.Rotation, "scale": t.Scale,
		"center": t.Center, "collider.center": t.Collider.Center, "collider.size": t.Collider.Size,
	} {
		if len(v) != 0 && len(v) != 3 {
			return fmt.Errorf("%s must have 3 components, got %d", name, len(v))
		}
	}
	if t.FalloffExponent != 0 && (t.FalloffExponent <= scoring.MinFalloffExponent || t.FalloffExponent > scoring.MaxFalloffExponent) {
		return fmt.Errorf("falloff_exponent %v outside (%v, %v]", t.FalloffExponent, scoring.MinFalloffExponent, scoring.MaxFalloffExponent)
	}
	if t.MaxScore != nil && *t.MaxScore < 0 {
		return fmt.Errorf("max_score %v must not be negative", *t.MaxScore)
	}
	if t.UseRingScores && len(t.RingScores) == 0 {
		return fmt.Errorf("use_ring_scores requires ring_scores")
	}
	if t.Motion != nil {
		if err := t.MotionConfig().Validate(); err != nil {
			return fmt.Errorf("motion: %w", err)
		}
	}
	return nil
}

func vec(v []float64, def mgl64.Vec3) mgl64.Vec3 {
	if len(v) != 3 {
		return def
	}
	return mgl64.Vec3{v[0], v[1], v[2]}
}

// Transform returns the target's world transform.
func (t *TargetConfig) Transform() geometry.Transform {
	return geometry.EulerTransform(
		vec(t.Position, mgl64.Vec3{}),
		vec(t.Rotation, mgl64.Vec3{}),
		vec(t.Scale, mgl64.Vec3{1, 1, 1}),
	)
}

// Shape returns the target collider.
func (t *TargetConfig) Shape() geometry.Shape {
	return t.Collider.Shape()
}

// Shape converts the collider description. Unknown kinds yield nil.
func (c ColliderConfig) Shape() geometry.Shape {
	center := vec(c.Center, mgl64.Vec3{})
	size := vec(c.Size, mgl64.Vec3{1, 1, 1})
	switch geometry.Kind(c.Kind) {
	case geometry.KindSphere:
		return geometry.Sphere{Center: center, Radius: c.Radius}
	case geometry.KindBox:
		return geometry.Box{Center: center, Size: size}
	case geometry.KindGeneric:
		return geometry.Generic{Bounds: geometry.BoundsFromCenter(center, size.Mul(0.5))}
	}
	return nil
}

func float(v float64) *float64 { return &v }

// ScoringConfig returns the target's scoring configuration. Unset max score
// and zero radius or exponent fall back to scoring defaults.
func (t *TargetConfig) ScoringConfig() scoring.Config {
	cfg := scoring.DefaultConfig()
	if t.MaxScore != nil {
		cfg.MaxScore = *t.MaxScore
	}
	if t.ScoringRadius != 0 {
		cfg.ScoringRadius = t.ScoringRadius
	}
	if t.FalloffExponent != 0 {
		cfg.FalloffExponent = t.FalloffExponent
	}
	cfg.UseRingScores = t.UseRingScores
	cfg.RingScores = append([]float64(nil), t.RingScores...)
	if len(t.Center) == 3 {
		c := vec(t.Center, mgl64.Vec3{})
		cfg.CenterOrigin = &c
	}
	return cfg
}

// TargetOptions returns the behaviour toggles as scoring options.
func (t *TargetConfig) TargetOptions() []scoring.Option {
	opts := []scoring.Option{
		scoring.WithCollider(t.Shape()),
		scoring.WithTransform(t.Transform()),
	}
	if t.AutoRadius != nil {
		opts = append(opts, scoring.WithAutoRadius(*t.AutoRadius))
	}
	if t.FallbackToClosestPoint != nil {
		opts = append(opts, scoring.WithFallbackToClosestPoint(*t.FallbackToClosestPoint))
	}
	if t.ShowRings != nil {
		opts = append(opts, scoring.WithShowRings(*t.ShowRings))
	}
	return opts
}

// MotionConfig returns the motion path, filling unset bounds with defaults.
func (t *TargetConfig) MotionConfig() motion.Config {
	cfg := motion.DefaultConfig()
	if t.Motion == nil {
		return cfg
	}
	m := t.Motion
	if m.Axis != "" {
		cfg.Axis = motion.Axis(m.Axis)
	}
	if m.MinX != 0 || m.MaxX != 0 {
		cfg.MinX, cfg.MaxX = m.MinX, m.MaxX
	}
	if m.MinY != 0 || m.MaxY != 0 {
		cfg.MinY, cfg.MaxY = m.MinY, m.MaxY
	}
	if m.Speed != 0 {
		cfg.Speed = m.Speed
	}
	return cfg
}
