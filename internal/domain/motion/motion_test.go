package motion_test

import (
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/okian/bullseye/internal/domain/motion"
	. "github.com/smartystreets/goconvey/convey"
)

func TestMover(t *testing.T) {
	Convey("Given a horizontal mover between -1 and 1 at speed 1", t, func() {
		cfg := motion.DefaultConfig()
		cfg.MinX, cfg.MaxX, cfg.Speed = -1, 1, 1
		m := motion.NewMover(cfg)

		Convey("When it reaches the max bound", func() {
			pos := m.Step(mgl64.Vec3{0.5, 0, 2}, 0.5)
			next := m.Step(pos, 0.25)

			Convey("Then it turns around", func() {
				So(pos, ShouldResemble, mgl64.Vec3{1, 0, 2})
				So(next[0], ShouldAlmostEqual, 0.75, 1e-12)
			})
		})

		Convey("When it reaches the min bound", func() {
			pos := m.Step(mgl64.Vec3{1, 0, 0}, 0.5)
			for i := 0; i < 5; i++ {
				pos = m.Step(pos, 0.5)
			}
			pos = m.Step(pos, 0.5)

			Convey("Then it heads positive again", func() {
				So(pos[0], ShouldAlmostEqual, -0.5, 1e-12)
			})
		})

		Convey("When the axis is toggled", func() {
			m.Step(mgl64.Vec3{1, 0, 0}, 0.1)
			m.Toggle()
			pos := m.Step(mgl64.Vec3{0, 0, 0}, 0.5)

			Convey("Then it moves up from the reset direction", func() {
				So(m.Axis(), ShouldEqual, motion.Vertical)
				So(pos, ShouldResemble, mgl64.Vec3{0, 0.5, 0})
			})
		})
	})

	Convey("Given motion configs", t, func() {
		So(motion.DefaultConfig().Validate(), ShouldBeNil)

		bad := motion.DefaultConfig()
		bad.Axis = "diagonal"
		So(bad.Validate(), ShouldNotBeNil)

		inverted := motion.DefaultConfig()
		inverted.MinY = 10
		So(inverted.Validate(), ShouldNotBeNil)
	})
}
