package geometry_test

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/okian/bullseye/internal/domain/geometry"
	. "github.com/smartystreets/goconvey/convey"
)

func scaled(sx, sy, sz float64) geometry.Transform {
	t := geometry.Identity()
	t.Scale = mgl64.Vec3{sx, sy, sz}
	return t
}

func TestDeriveRadius(t *testing.T) {
	Convey("Given collider shapes", t, func() {
		Convey("When the collider is a sphere of radius 0.5 scaled by 2", func() {
			r := geometry.DeriveRadius(geometry.Sphere{Radius: 0.5}, scaled(2, 2, 2))

			Convey("Then the radius is 1.0", func() {
				So(r, ShouldAlmostEqual, 1.0, 1e-12)
			})
		})

		Convey("When the sphere is scaled non-uniformly with a negative axis", func() {
			r := geometry.DeriveRadius(geometry.Sphere{Radius: 1}, scaled(1, -3, 2))

			Convey("Then the largest absolute axis wins", func() {
				So(r, ShouldAlmostEqual, 3.0, 1e-12)
			})
		})

		Convey("When the collider is a (1,2,1) box at unit scale", func() {
			r := geometry.DeriveRadius(geometry.Box{Size: mgl64.Vec3{1, 2, 1}}, geometry.Identity())

			Convey("Then the radius is half the longest edge", func() {
				So(r, ShouldAlmostEqual, 1.0, 1e-12)
			})
		})

		Convey("When the box is scaled", func() {
			r := geometry.DeriveRadius(geometry.Box{Size: mgl64.Vec3{1, 2, 1}}, scaled(4, 1, 1))

			Convey("Then the scaled size is used", func() {
				So(r, ShouldAlmostEqual, 2.0, 1e-12)
			})
		})

		Convey("When the collider is generic", func() {
			shape := geometry.Generic{Bounds: geometry.BoundsFromCenter(mgl64.Vec3{}, mgl64.Vec3{0.5, 1.5, 0.25})}
			r := geometry.DeriveRadius(shape, scaled(2, 1, 1))

			Convey("Then the largest world bounds extent is used", func() {
				So(r, ShouldAlmostEqual, 1.5, 1e-12)
			})
		})

		Convey("When the geometry is degenerate", func() {
			zeroSphere := geometry.DeriveRadius(geometry.Sphere{Radius: 0}, geometry.Identity())
			zeroBox := geometry.DeriveRadius(geometry.Box{}, geometry.Identity())
			zeroScale := geometry.DeriveRadius(geometry.Sphere{Radius: 1}, scaled(0, 0, 0))
			missing := geometry.DeriveRadius(nil, geometry.Identity())

			Convey("Then the floor keeps the radius positive", func() {
				So(zeroSphere, ShouldEqual, geometry.MinRadius)
				So(zeroBox, ShouldEqual, geometry.MinRadius)
				So(zeroScale, ShouldEqual, geometry.MinRadius)
				So(missing, ShouldEqual, geometry.MinRadius)
			})
		})
	})
}

func TestTransform(t *testing.T) {
	Convey("Given a transform rotated 90 degrees about Y", t, func() {
		tr := geometry.EulerTransform(mgl64.Vec3{1, 0, 0}, mgl64.Vec3{0, 90, 0}, mgl64.Vec3{2, 2, 2})

		Convey("When applying and inverting a point", func() {
			local := mgl64.Vec3{1, 0, 0}
			world := tr.Apply(local)
			back := tr.InverseApply(world)

			Convey("Then the point round-trips", func() {
				So(world.ApproxEqualThreshold(mgl64.Vec3{1, 0, -2}, 1e-9), ShouldBeTrue)
				So(back.ApproxEqualThreshold(local, 1e-9), ShouldBeTrue)
			})
		})

		Convey("When the rotation is the zero value", func() {
			var zero geometry.Transform
			zero.Scale = mgl64.Vec3{1, 1, 1}

			Convey("Then it behaves as identity", func() {
				So(zero.Apply(mgl64.Vec3{1, 2, 3}).ApproxEqualThreshold(mgl64.Vec3{1, 2, 3}, 1e-12), ShouldBeTrue)
			})
		})
	})
}

func TestClosestPoint(t *testing.T) {
	Convey("Given a sphere collider at the origin", t, func() {
		sphere := geometry.Sphere{Radius: 1}
		tr := geometry.Identity()

		Convey("When the query is outside", func() {
			p := sphere.ClosestPoint(tr, mgl64.Vec3{0, 0, 5})

			Convey("Then the point lies on the surface", func() {
				So(p.ApproxEqualThreshold(mgl64.Vec3{0, 0, 1}, 1e-12), ShouldBeTrue)
			})
		})

		Convey("When the query is inside", func() {
			p := sphere.ClosestPoint(tr, mgl64.Vec3{0.2, 0, 0})

			Convey("Then the query itself is returned", func() {
				So(p.ApproxEqualThreshold(mgl64.Vec3{0.2, 0, 0}, 1e-12), ShouldBeTrue)
			})
		})
	})

	Convey("Given a box collider rotated 45 degrees about Z", t, func() {
		box := geometry.Box{Size: mgl64.Vec3{2, 2, 2}}
		tr := geometry.EulerTransform(mgl64.Vec3{}, mgl64.Vec3{0, 0, 45}, mgl64.Vec3{1, 1, 1})

		Convey("When the query lies along the rotated X axis", func() {
			dir := mgl64.Vec3{math.Sqrt2 / 2, math.Sqrt2 / 2, 0}
			p := box.ClosestPoint(tr, dir.Mul(5))

			Convey("Then the closest point is on the rotated face", func() {
				So(p.ApproxEqualThreshold(dir, 1e-9), ShouldBeTrue)
			})
		})

		Convey("When computing world bounds", func() {
			b := box.WorldBounds(tr)

			Convey("Then they enclose the rotated corners", func() {
				So(b.Max.X(), ShouldAlmostEqual, math.Sqrt2, 1e-9)
				So(b.Min.Y(), ShouldAlmostEqual, -math.Sqrt2, 1e-9)
				So(b.Max.Z(), ShouldAlmostEqual, 1, 1e-9)
			})
		})
	})

	Convey("Given a generic collider", t, func() {
		g := geometry.Generic{Bounds: geometry.AABB{Min: mgl64.Vec3{-1, -1, -1}, Max: mgl64.Vec3{1, 1, 1}}}
		tr := geometry.Identity()
		tr.Position = mgl64.Vec3{0, 10, 0}

		Convey("When querying from above", func() {
			p := g.ClosestPoint(tr, mgl64.Vec3{0.5, 20, 0})

			Convey("Then the point is clamped to the top face", func() {
				So(p.ApproxEqualThreshold(mgl64.Vec3{0.5, 11, 0}, 1e-12), ShouldBeTrue)
			})
		})
	})
}

func TestParseKind(t *testing.T) {
	Convey("Given collider kind names", t, func() {
		k, ok := geometry.ParseKind("box")
		So(ok, ShouldBeTrue)
		So(k, ShouldEqual, geometry.KindBox)

		_, ok = geometry.ParseKind("capsule")
		So(ok, ShouldBeFalse)
	})
}
