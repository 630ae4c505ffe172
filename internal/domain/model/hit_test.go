package model_test

import (
	"testing"

	"github.com/google/uuid"
	model "github.com/okian/bullseye/internal/domain/model"
	"github.com/smartystreets/goconvey/convey"
)

func TestHitNotification(t *testing.T) {
	convey.Convey("Given hit notifications of both kinds", t, func() {
		collision := model.HitNotification{
			Kind:      model.HitCollision,
			Collision: model.Collision{SourceID: "gun-1"},
			Trigger:   model.Trigger{SourceID: "ignored"},
		}
		trigger := model.HitNotification{
			Kind:    model.HitTrigger,
			Trigger: model.Trigger{SourceID: "gun-2"},
		}

		convey.Convey("Then the source id follows the kind", func() {
			convey.So(collision.SourceID(), convey.ShouldEqual, "gun-1")
			convey.So(trigger.SourceID(), convey.ShouldEqual, "gun-2")
		})
	})
}

func TestNewHitID(t *testing.T) {
	convey.Convey("Given generated hit ids", t, func() {
		a, b := model.NewHitID(), model.NewHitID()

		convey.Convey("Then they are distinct valid UUIDs", func() {
			convey.So(a, convey.ShouldNotEqual, b)
			_, err := uuid.Parse(a)
			convey.So(err, convey.ShouldBeNil)
		})
	})
}
