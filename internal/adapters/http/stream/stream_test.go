package stream

import (
	"context"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/okian/bullseye/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

func waitFor(cond func() bool) bool {
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return true
		}
		time.Sleep(5 * time.Millisecond)
	}
	return cond()
}

func TestHubBroadcast(t *testing.T) {
	Convey("Given a hub served over HTTP", t, func() {
		hub := NewHub()
		srv := httptest.NewServer(hub)
		defer srv.Close()
		defer hub.Close()

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		conn, _, err := websocket.Dial(ctx, "ws"+strings.TrimPrefix(srv.URL, "http"), nil)
		So(err, ShouldBeNil)
		defer conn.CloseNow()
		So(waitFor(func() bool { return hub.Len() == 1 }), ShouldBeTrue)

		Convey("When a score is published", func() {
			hub.OnScore(ctx, model.ScoreEvent{HitID: "h1", TargetID: "t1", SourceID: "alice", Kind: model.HitCollision, FinalScore: 42})

			Convey("Then the client receives it as JSON", func() {
				var ev model.ScoreEvent
				So(wsjson.Read(ctx, conn, &ev), ShouldBeNil)
				So(ev.HitID, ShouldEqual, "h1")
				So(ev.SourceID, ShouldEqual, "alice")
				So(ev.FinalScore, ShouldEqual, 42)
			})
		})

		Convey("When the client disconnects", func() {
			conn.Close(websocket.StatusNormalClosure, "")

			Convey("Then the hub forgets it", func() {
				So(waitFor(func() bool { return hub.Len() == 0 }), ShouldBeTrue)
			})
		})

		Convey("When the hub is closed", func() {
			hub.Close()

			Convey("Then clients are released", func() {
				So(hub.Len(), ShouldEqual, 0)
				_, _, err := conn.Read(ctx)
				So(err, ShouldNotBeNil)
			})
		})
	})
}

func TestHubDropsSlowClients(t *testing.T) {
	Convey("Given a hub with a client that never drains", t, func() {
		hub := NewHub(WithBuffer(1))
		var closed atomic.Bool
		c := &client{send: make(chan []byte, 1), closeSlow: func() { closed.Store(true) }}
		So(hub.add(c), ShouldBeTrue)

		Convey("When more events arrive than the buffer holds", func() {
			ctx := context.Background()
			hub.OnScore(ctx, model.ScoreEvent{HitID: "a"})
			hub.OnScore(ctx, model.ScoreEvent{HitID: "b"})

			Convey("Then the client is dropped and closed", func() {
				So(hub.Len(), ShouldEqual, 0)
				So(waitFor(closed.Load), ShouldBeTrue)
				So(len(c.send), ShouldEqual, 1)
			})
		})
	})

	Convey("Given a closed hub", t, func() {
		hub := NewHub()
		hub.Close()
		hub.Close()

		Convey("Then new clients are refused", func() {
			So(hub.add(&client{send: make(chan []byte, 1)}), ShouldBeFalse)
		})
	})
}
