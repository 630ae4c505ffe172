package scoring_test

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/okian/bullseye/internal/domain/scoring"
	. "github.com/smartystreets/goconvey/convey"
)

func continuous(maxScore, radius, k float64) scoring.Config {
	return scoring.Config{MaxScore: maxScore, ScoringRadius: radius, FalloffExponent: k}
}

func rings(radius float64, scores ...float64) scoring.Config {
	return scoring.Config{MaxScore: 100, ScoringRadius: radius, FalloffExponent: 1, UseRingScores: true, RingScores: scores}
}

func TestCalculateScoreContinuous(t *testing.T) {
	Convey("Given a continuous falloff target at the origin", t, func() {
		Convey("When a linear target of radius 2 is hit at distance 1", func() {
			raw, final := scoring.Score(mgl64.Vec3{1, 0, 0}, continuous(100, 2, 1))

			Convey("Then the score is 50", func() {
				So(raw, ShouldAlmostEqual, 50, 1e-9)
				So(final, ShouldEqual, 50)
			})
		})

		Convey("When a quadratic target of radius 2 is hit at distance 1", func() {
			raw, final := scoring.Score(mgl64.Vec3{0, 1, 0}, continuous(100, 2, 2))

			Convey("Then the score is 75", func() {
				So(raw, ShouldAlmostEqual, 75, 1e-9)
				So(final, ShouldEqual, 75)
			})
		})

		Convey("When the hit is dead centre", func() {
			raw := scoring.CalculateScore(mgl64.Vec3{}, continuous(37.5, 2, 3))

			Convey("Then max score is awarded exactly", func() {
				So(raw, ShouldEqual, 37.5)
			})
		})

		Convey("When the hit lies outside the radius", func() {
			cfg := continuous(100, 2, 1)
			cfgRings := rings(2, 10, 5)

			Convey("Then both modes score 0", func() {
				So(scoring.CalculateScore(mgl64.Vec3{2.0001, 0, 0}, cfg), ShouldEqual, 0)
				So(scoring.CalculateScore(mgl64.Vec3{0, 0, -7}, cfgRings), ShouldEqual, 0)
			})
		})

		Convey("When the distance grows", func() {
			cfg := continuous(100, 5, 0.7)
			prev := math.Inf(1)
			monotone := true
			inRange := true
			for d := 0.0; d <= 6; d += 0.05 {
				s := scoring.CalculateScore(mgl64.Vec3{d, 0, 0}, cfg)
				if s > prev {
					monotone = false
				}
				if s < 0 || s > cfg.MaxScore {
					inRange = false
				}
				prev = s
			}

			Convey("Then the score never increases and stays within bounds", func() {
				So(monotone, ShouldBeTrue)
				So(inRange, ShouldBeTrue)
			})
		})

		Convey("When the centre is offset", func() {
			c := mgl64.Vec3{10, 0, 0}
			cfg := continuous(100, 2, 1)
			cfg.CenterOrigin = &c

			Convey("Then distance is measured from the centre", func() {
				So(scoring.CalculateScore(mgl64.Vec3{11, 0, 0}, cfg), ShouldAlmostEqual, 50, 1e-9)
				So(scoring.CalculateScore(mgl64.Vec3{1, 0, 0}, cfg), ShouldEqual, 0)
			})
		})
	})
}

func TestCalculateScoreRings(t *testing.T) {
	Convey("Given ring scores [10, 5, 1] over radius 3", t, func() {
		cfg := rings(3, 10, 5, 1)

		Convey("When hit at distance 2.5", func() {
			So(scoring.CalculateScore(mgl64.Vec3{2.5, 0, 0}, cfg), ShouldEqual, 1)
		})

		Convey("When hit exactly on the boundary", func() {
			Convey("Then the last ring is selected rather than a miss", func() {
				So(scoring.CalculateScore(mgl64.Vec3{0, 0, 3}, cfg), ShouldEqual, 1)
			})
		})

		Convey("When hit near the centre", func() {
			So(scoring.CalculateScore(mgl64.Vec3{0.5, 0, 0}, cfg), ShouldEqual, 10)
			So(scoring.CalculateScore(mgl64.Vec3{0, 1.5, 0}, cfg), ShouldEqual, 5)
		})

		Convey("When sampled across the radius", func() {
			seen := map[float64]bool{}
			for d := 0.0; d <= 3; d += 0.01 {
				seen[scoring.CalculateScore(mgl64.Vec3{d, 0, 0}, cfg)] = true
			}

			Convey("Then only configured ring values come back", func() {
				for v := range seen {
					So([]float64{10, 5, 1}, ShouldContain, v)
				}
			})
		})

		Convey("When ring mode is enabled but no scores are configured", func() {
			empty := rings(2)

			Convey("Then continuous falloff is used", func() {
				So(empty.RingMode(), ShouldBeFalse)
				So(scoring.CalculateScore(mgl64.Vec3{1, 0, 0}, empty), ShouldAlmostEqual, 50, 1e-9)
			})
		})
	})
}

func TestRound(t *testing.T) {
	Convey("Given raw scores", t, func() {
		So(scoring.Round(49.6), ShouldEqual, 50)
		So(scoring.Round(2.5), ShouldEqual, 2)
		So(scoring.Round(3.5), ShouldEqual, 4)
		So(scoring.Round(0), ShouldEqual, 0)
		So(scoring.Round(math.NaN()), ShouldEqual, 0)
	})
}

func TestConfigClone(t *testing.T) {
	Convey("Given a configuration with ring scores and a centre", t, func() {
		c := mgl64.Vec3{1, 2, 3}
		cfg := rings(3, 10, 5, 1)
		cfg.CenterOrigin = &c

		Convey("When the clone is mutated", func() {
			cp := cfg.Clone()
			cp.RingScores[0] = 99
			cp.CenterOrigin[0] = 99

			Convey("Then the original is untouched", func() {
				So(cfg.RingScores[0], ShouldEqual, 10)
				So(cfg.Origin().X(), ShouldEqual, 1)
			})
		})
	})
}

func TestComputeRingLayout(t *testing.T) {
	Convey("Given a ring configuration", t, func() {
		layout := scoring.ComputeRingLayout(rings(3, 10, 5, 1))

		Convey("Then one ring per score is laid out at even radii", func() {
			So(layout, ShouldHaveLength, 3)
			for i, r := range layout {
				So(r.Index, ShouldEqual, i+1)
				So(r.Radius, ShouldAlmostEqual, float64(i+1), 1e-12)
			}
			So(layout[0].Score, ShouldEqual, 10)
		})

		Convey("Then colours run from red towards green", func() {
			So(layout[2].Color, ShouldResemble, scoring.ColorGreen)
			So(layout[0].Color.R, ShouldAlmostEqual, 2.0/3, 1e-12)
			So(layout[0].Color.G, ShouldAlmostEqual, 1.0/3, 1e-12)
		})
	})

	Convey("Given a continuous configuration", t, func() {
		layout := scoring.ComputeRingLayout(continuous(100, 2.5, 1))

		Convey("Then a single cyan ring sits at the scoring radius", func() {
			So(layout, ShouldHaveLength, 1)
			So(layout[0].Radius, ShouldEqual, 2.5)
			So(layout[0].Color, ShouldResemble, scoring.ColorCyan)
		})
	})
}

func TestOutline(t *testing.T) {
	Convey("Given an unrotated ring of radius 2", t, func() {
		pts := scoring.Outline(mgl64.Vec3{1, 0, 0}, mgl64.QuatIdent(), 2, 4)

		Convey("Then the points lie in the XY plane around the centre", func() {
			So(pts, ShouldHaveLength, 4)
			So(pts[0].ApproxEqualThreshold(mgl64.Vec3{3, 0, 0}, 1e-9), ShouldBeTrue)
			So(pts[1].ApproxEqualThreshold(mgl64.Vec3{1, 2, 0}, 1e-9), ShouldBeTrue)
			So(pts[2].ApproxEqualThreshold(mgl64.Vec3{-1, 0, 0}, 1e-9), ShouldBeTrue)
		})
	})

	Convey("Given too few segments", t, func() {
		So(scoring.Outline(mgl64.Vec3{}, mgl64.QuatIdent(), 1, 1), ShouldHaveLength, 3)
	})
}

func TestColor(t *testing.T) {
	Convey("Given colours", t, func() {
		So(scoring.ColorRed.Lerp(scoring.ColorGreen, 2), ShouldResemble, scoring.ColorGreen)
		c := scoring.ColorCyan.NRGBA()
		So(c.R, ShouldEqual, 0)
		So(c.G, ShouldEqual, 255)
		So(c.A, ShouldEqual, 255)
	})
}
