// Package motion moves targets back and forth along one axis.
package motion

import (
	"fmt"

	"github.com/okian/bullseye/internal/domain/geometry"
)

// Axis selects the direction of travel.
type Axis string

// Supported axes.
const (
	Horizontal Axis = "horizontal"
	Vertical   Axis = "vertical"
)

// Defaults for a moving target.
const (
	DefaultMinX  = -5.0
	DefaultMaxX  = 5.0
	DefaultMinY  = -3.0
	DefaultMaxY  = 3.0
	DefaultSpeed = 2.0
)

// Config describes a ping-pong path.
type Config struct {
	Axis  Axis
	MinX  float64
	MaxX  float64
	MinY  float64
	MaxY  float64
	Speed float64
}

// DefaultConfig returns horizontal travel within the default bounds.
func DefaultConfig() Config {
	return Config{
		Axis:  Horizontal,
		MinX:  DefaultMinX,
		MaxX:  DefaultMaxX,
		MinY:  DefaultMinY,
		MaxY:  DefaultMaxY,
		Speed: DefaultSpeed,
	}
}

// Validate checks bounds and speed.
func (c Config) Validate() error {
	switch c.Axis {
	case Horizontal, Vertical:
	default:
		return fmt.Errorf("unknown axis %q", c.Axis)
	}
	if c.MinX > c.MaxX || c.MinY > c.MaxY {
		return fmt.Errorf("min bound exceeds max bound")
	}
	if c.Speed < 0 {
		return fmt.Errorf("negative speed %v", c.Speed)
	}
	return nil
}

// Mover advances a position along its axis, reversing at either bound. A
// Mover is not safe for concurrent use.
type Mover struct {
	cfg      Config
	positive bool
}

// NewMover starts moving in the positive direction.
func NewMover(cfg Config) *Mover {
	return &Mover{cfg: cfg, positive: true}
}

// Axis returns the current axis.
func (m *Mover) Axis() Axis { return m.cfg.Axis }

// Toggle swaps the axis and restarts in the positive direction.
func (m *Mover) Toggle() {
	if m.cfg.Axis == Horizontal {
		m.cfg.Axis = Vertical
	} else {
		m.cfg.Axis = Horizontal
	}
	m.positive = true
}

// Step moves pos by speed*dt seconds. The bound is checked after the move,
// so a target may overshoot a bound by at most one step before turning.
func (m *Mover) Step(pos geometry.Point3, dt float64) geometry.Point3 {
	step := m.cfg.Speed * dt
	if !m.positive {
		step = -step
	}

	idx, lo, hi := 0, m.cfg.MinX, m.cfg.MaxX
	if m.cfg.Axis == Vertical {
		idx, lo, hi = 1, m.cfg.MinY, m.cfg.MaxY
	}

	pos[idx] += step
	if m.positive && pos[idx] >= hi {
		m.positive = false
	} else if !m.positive && pos[idx] <= lo {
		m.positive = true
	}
	return pos
}
