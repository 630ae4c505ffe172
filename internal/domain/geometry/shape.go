package geometry

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Kind tags a collider shape.
type Kind string

// Supported collider kinds.
const (
	KindSphere  Kind = "sphere"
	KindBox     Kind = "box"
	KindGeneric Kind = "generic"
)

// ParseKind maps a config string to a Kind. Unknown names report false.
func ParseKind(s string) (Kind, bool) {
	switch Kind(s) {
	case KindSphere, KindBox, KindGeneric:
		return Kind(s), true
	}
	return "", false
}

// Shape is a closed set of collider descriptions in local space: Sphere,
// Box and Generic. Generic covers any collider that only exposes bounds.
type Shape interface {
	Kind() Kind
	// WorldBounds returns the axis-aligned world box enclosing the shape.
	WorldBounds(t Transform) AABB
	// ClosestPoint returns the point of the shape, placed by t, closest to query.
	ClosestPoint(t Transform, query mgl64.Vec3) mgl64.Vec3

	sealed()
}

// Sphere is a sphere collider.
type Sphere struct {
	Center mgl64.Vec3
	Radius float64
}

// Box is a box collider; Size holds full edge lengths.
type Box struct {
	Center mgl64.Vec3
	Size   mgl64.Vec3
}

// Generic is any other collider, known only by its local bounds.
type Generic struct {
	Bounds AABB
}

func (Sphere) Kind() Kind  { return KindSphere }
func (Box) Kind() Kind     { return KindBox }
func (Generic) Kind() Kind { return KindGeneric }

func (Sphere) sealed()  {}
func (Box) sealed()     {}
func (Generic) sealed() {}

// WorldBounds encloses the scaled sphere.
func (s Sphere) WorldBounds(t Transform) AABB {
	r := math.Abs(s.Radius) * t.MaxScaleAxis()
	return BoundsFromCenter(t.Apply(s.Center), mgl64.Vec3{r, r, r})
}

// ClosestPoint projects query onto the sphere surface, or returns query if it
// is already inside. Non-uniform scale is approximated by the largest axis.
func (s Sphere) ClosestPoint(t Transform, query mgl64.Vec3) mgl64.Vec3 {
	center := t.Apply(s.Center)
	r := math.Abs(s.Radius) * t.MaxScaleAxis()
	offset := query.Sub(center)
	d := offset.Len()
	if d <= r {
		return query
	}
	return center.Add(offset.Mul(r / d))
}

// WorldBounds encloses the eight transformed corners of the box.
func (b Box) WorldBounds(t Transform) AABB {
	return transformedBounds(t, b.localBounds())
}

// ClosestPoint clamps query in the box's local frame, so rotated boxes are
// exact.
func (b Box) ClosestPoint(t Transform, query mgl64.Vec3) mgl64.Vec3 {
	return obbClosestPoint(t, b.localBounds(), query)
}

func (b Box) localBounds() AABB {
	return BoundsFromCenter(b.Center, b.Size.Mul(0.5))
}

// WorldBounds encloses the transformed local bounds.
func (g Generic) WorldBounds(t Transform) AABB {
	return transformedBounds(t, g.Bounds)
}

// ClosestPoint treats the local bounds as an oriented box.
func (g Generic) ClosestPoint(t Transform, query mgl64.Vec3) mgl64.Vec3 {
	return obbClosestPoint(t, g.Bounds, query)
}

func corners(b AABB) [8]mgl64.Vec3 {
	var out [8]mgl64.Vec3
	for i := range out {
		x, y, z := b.Min.X(), b.Min.Y(), b.Min.Z()
		if i&1 != 0 {
			x = b.Max.X()
		}
		if i&2 != 0 {
			y = b.Max.Y()
		}
		if i&4 != 0 {
			z = b.Max.Z()
		}
		out[i] = mgl64.Vec3{x, y, z}
	}
	return out
}

func transformedBounds(t Transform, local AABB) AABB {
	cs := corners(local)
	first := t.Apply(cs[0])
	out := AABB{Min: first, Max: first}
	for _, c := range cs[1:] {
		out = out.Encapsulate(t.Apply(c))
	}
	return out
}

// obbClosestPoint clamps in the rotated (unscaled) frame with scaled extents,
// which stays correct when a scale component is zero.
func obbClosestPoint(t Transform, local AABB, query mgl64.Vec3) mgl64.Vec3 {
	scaleVec := func(v mgl64.Vec3) mgl64.Vec3 {
		return mgl64.Vec3{v.X() * t.Scale.X(), v.Y() * t.Scale.Y(), v.Z() * t.Scale.Z()}
	}
	center := scaleVec(local.Center())
	ext := scaleVec(local.Extents())
	box := BoundsFromCenter(center, ext)

	rot := t.rotation()
	rel := rot.Inverse().Rotate(query.Sub(t.Position))
	return rot.Rotate(box.ClosestPoint(rel)).Add(t.Position)
}

// DeriveRadius computes a scoring radius from a collider. Spheres use the
// radius times the largest scale axis, boxes half of the largest scaled edge,
// and anything else the largest world-space bounds half extent. The result is
// never below MinRadius.
func DeriveRadius(shape Shape, t Transform) float64 {
	var r float64
	switch s := shape.(type) {
	case Sphere:
		r = s.Radius * t.MaxScaleAxis()
	case Box:
		scaled := mgl64.Vec3{s.Size.X() * t.Scale.X(), s.Size.Y() * t.Scale.Y(), s.Size.Z() * t.Scale.Z()}
		r = maxAbs(scaled) * 0.5
	case nil:
		r = 0
	default:
		e := shape.WorldBounds(t).Extents()
		r = math.Max(e.X(), math.Max(e.Y(), e.Z()))
	}
	if !(r > 0) {
		return MinRadius
	}
	return r
}
