package events_test

import (
	"context"
	"testing"

	"github.com/okian/bullseye/internal/domain/events"
	"github.com/okian/bullseye/internal/domain/model"
	"github.com/smartystreets/goconvey/convey"
)

func TestBus(t *testing.T) {
	convey.Convey("Given a bus with two listeners", t, func() {
		bus := events.NewBus(nil)
		var order []string
		unsubA := bus.Subscribe(events.ListenerFunc(func(_ context.Context, ev model.ScoreEvent) {
			order = append(order, "a:"+ev.HitID)
		}))
		bus.Subscribe(events.ListenerFunc(func(_ context.Context, ev model.ScoreEvent) {
			order = append(order, "b:"+ev.HitID)
		}))

		convey.Convey("When an event is published", func() {
			bus.Publish(context.Background(), model.ScoreEvent{HitID: "1"})

			convey.Convey("Then every listener receives it", func() {
				convey.So(order, convey.ShouldResemble, []string{"a:1", "b:1"})
			})
		})

		convey.Convey("When a listener unsubscribes", func() {
			unsubA()
			unsubA()
			bus.Publish(context.Background(), model.ScoreEvent{HitID: "2"})

			convey.Convey("Then only the remaining listener is called", func() {
				convey.So(bus.Len(), convey.ShouldEqual, 1)
				convey.So(order, convey.ShouldResemble, []string{"b:2"})
			})
		})

		convey.Convey("When a listener panics", func() {
			bus.Subscribe(events.ListenerFunc(func(context.Context, model.ScoreEvent) { panic("bad listener") }))
			bus.Subscribe(events.ListenerFunc(func(_ context.Context, ev model.ScoreEvent) {
				order = append(order, "c:"+ev.HitID)
			}))

			convey.Convey("Then later listeners still run", func() {
				convey.So(func() { bus.Publish(context.Background(), model.ScoreEvent{HitID: "3"}) }, convey.ShouldNotPanic)
				convey.So(order, convey.ShouldResemble, []string{"a:3", "b:3", "c:3"})
			})
		})
	})
}
