// Package geometry models collider shapes and world transforms for range
// targets, and answers the two spatial questions scoring needs: how large a
// collider is, and which point on it is closest to a query point.
package geometry

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// MinRadius is the floor applied to derived scoring radii.
const MinRadius = 0.001

// Point3 is a world-space position.
type Point3 = mgl64.Vec3

// Transform places a shape in the world: scale, then rotate, then translate.
type Transform struct {
	Position mgl64.Vec3
	Rotation mgl64.Quat
	Scale    mgl64.Vec3
}

// Identity returns the identity transform.
func Identity() Transform {
	return Transform{
		Rotation: mgl64.QuatIdent(),
		Scale:    mgl64.Vec3{1, 1, 1},
	}
}

// EulerTransform builds a transform from a position, Euler angles in degrees
// (applied Z, then X, then Y) and a scale.
func EulerTransform(position, eulerDeg, scale mgl64.Vec3) Transform {
	rot := mgl64.AnglesToQuat(
		mgl64.DegToRad(eulerDeg.Y()),
		mgl64.DegToRad(eulerDeg.X()),
		mgl64.DegToRad(eulerDeg.Z()),
		mgl64.YXZ,
	)
	return Transform{Position: position, Rotation: rot, Scale: scale}
}

// Orientation returns the normalized rotation; the zero value counts as
// identity.
func (t Transform) Orientation() mgl64.Quat {
	return t.rotation()
}

func (t Transform) rotation() mgl64.Quat {
	// The zero Quat is not a rotation; treat it as identity.
	if t.Rotation.W == 0 && t.Rotation.V.Len() == 0 {
		return mgl64.QuatIdent()
	}
	return t.Rotation.Normalize()
}

// Apply maps a local point to world space.
func (t Transform) Apply(local mgl64.Vec3) mgl64.Vec3 {
	scaled := mgl64.Vec3{local.X() * t.Scale.X(), local.Y() * t.Scale.Y(), local.Z() * t.Scale.Z()}
	return t.rotation().Rotate(scaled).Add(t.Position)
}

// ApplyDirection rotates a local direction into world space, ignoring scale
// and translation.
func (t Transform) ApplyDirection(dir mgl64.Vec3) mgl64.Vec3 {
	return t.rotation().Rotate(dir)
}

// InverseApply maps a world point into local space. Zero scale components
// collapse that axis to 0.
func (t Transform) InverseApply(world mgl64.Vec3) mgl64.Vec3 {
	v := t.rotation().Inverse().Rotate(world.Sub(t.Position))
	return mgl64.Vec3{safeDiv(v.X(), t.Scale.X()), safeDiv(v.Y(), t.Scale.Y()), safeDiv(v.Z(), t.Scale.Z())}
}

// MaxScaleAxis is the largest absolute scale component.
func (t Transform) MaxScaleAxis() float64 {
	return maxAbs(t.Scale)
}

func safeDiv(a, b float64) float64 {
	if b == 0 {
		return 0
	}
	return a / b
}

func maxAbs(v mgl64.Vec3) float64 {
	return math.Max(math.Abs(v.X()), math.Max(math.Abs(v.Y()), math.Abs(v.Z())))
}

// AABB is an axis-aligned bounding box.
type AABB struct {
	Min mgl64.Vec3
	Max mgl64.Vec3
}

// BoundsFromCenter builds a box from its centre and half extents.
func BoundsFromCenter(center, extents mgl64.Vec3) AABB {
	e := mgl64.Vec3{math.Abs(extents.X()), math.Abs(extents.Y()), math.Abs(extents.Z())}
	return AABB{Min: center.Sub(e), Max: center.Add(e)}
}

// Center returns the box centre.
func (b AABB) Center() mgl64.Vec3 {
	return b.Min.Add(b.Max).Mul(0.5)
}

// Extents returns the half sizes along each axis.
func (b AABB) Extents() mgl64.Vec3 {
	return b.Max.Sub(b.Min).Mul(0.5)
}

// Encapsulate grows the box to contain p.
func (b AABB) Encapsulate(p mgl64.Vec3) AABB {
	return AABB{
		Min: mgl64.Vec3{math.Min(b.Min.X(), p.X()), math.Min(b.Min.Y(), p.Y()), math.Min(b.Min.Z(), p.Z())},
		Max: mgl64.Vec3{math.Max(b.Max.X(), p.X()), math.Max(b.Max.Y(), p.Y()), math.Max(b.Max.Z(), p.Z())},
	}
}

// ClosestPoint clamps p into the box.
func (b AABB) ClosestPoint(p mgl64.Vec3) mgl64.Vec3 {
	return mgl64.Vec3{
		mgl64.Clamp(p.X(), b.Min.X(), b.Max.X()),
		mgl64.Clamp(p.Y(), b.Min.Y(), b.Max.Y()),
		mgl64.Clamp(p.Z(), b.Min.Z(), b.Max.Z()),
	}
}

// Distance is the Euclidean distance between two points.
func Distance(a, b mgl64.Vec3) float64 {
	return a.Sub(b).Len()
}
