package dedupe_test

import (
	"context"
	"fmt"
	"sync"
	"testing"

	dedupe "github.com/okian/bullseye/internal/domain/dedupe"
	. "github.com/smartystreets/goconvey/convey"
)

func TestInMemoryDeduper(t *testing.T) {
	ctx := context.Background()

	Convey("Given a new deduper", t, func() {
		d := dedupe.NewInMemoryDeduper()

		Convey("When a hit id is recorded for the first time", func() {
			seen := d.SeenAndRecord(ctx, "hit-1")

			Convey("Then it is reported as new", func() {
				So(seen, ShouldBeFalse)
				So(d.Size(), ShouldEqual, 1)
			})
		})

		Convey("When the same hit id is submitted twice", func() {
			d.SeenAndRecord(ctx, "hit-1")
			seen := d.SeenAndRecord(ctx, "hit-1")

			Convey("Then the retry is flagged", func() {
				So(seen, ShouldBeTrue)
				So(d.Size(), ShouldEqual, 1)
			})
		})

		Convey("When a hit id is unrecorded", func() {
			d.SeenAndRecord(ctx, "hit-1")
			d.Unrecord(ctx, "hit-1")
			d.Unrecord(ctx, "missing")

			Convey("Then it can be submitted again", func() {
				So(d.Size(), ShouldEqual, 0)
				So(d.SeenAndRecord(ctx, "hit-1"), ShouldBeFalse)
			})
		})
	})

	Convey("Given a deduper bounded to three ids", t, func() {
		d := dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(3))
		for _, id := range []string{"hit-1", "hit-2", "hit-3", "hit-4"} {
			So(d.SeenAndRecord(ctx, id), ShouldBeFalse)
		}

		Convey("Then the oldest id is evicted first", func() {
			So(d.Size(), ShouldEqual, 3)
			So(d.SeenAndRecord(ctx, "hit-4"), ShouldBeTrue)
			So(d.SeenAndRecord(ctx, "hit-3"), ShouldBeTrue)
			So(d.SeenAndRecord(ctx, "hit-2"), ShouldBeTrue)
			So(d.SeenAndRecord(ctx, "hit-1"), ShouldBeFalse)
			So(d.Size(), ShouldEqual, 3)
		})

		Convey("When a middle id is unrecorded", func() {
			d.Unrecord(ctx, "hit-3")
			d.SeenAndRecord(ctx, "hit-5")

			Convey("Then nothing else is evicted", func() {
				So(d.Size(), ShouldEqual, 3)
				So(d.SeenAndRecord(ctx, "hit-2"), ShouldBeTrue)
			})
		})
	})

	Convey("Given an unbounded deduper", t, func() {
		d := dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(0))
		for i := 0; i < 1000; i++ {
			d.SeenAndRecord(ctx, fmt.Sprintf("hit-%d", i))
		}

		Convey("Then nothing is evicted", func() {
			So(d.Size(), ShouldEqual, 1000)
			So(d.SeenAndRecord(ctx, "hit-0"), ShouldBeTrue)
		})
	})
}

func TestDedupeConcurrency(t *testing.T) {
	Convey("Given concurrent submitters", t, func() {
		d := dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(1000))
		const workers = 10
		const perWorker = 100

		var wg sync.WaitGroup
		for w := 0; w < workers; w++ {
			wg.Add(1)
			go func(w int) {
				defer wg.Done()
				for j := 0; j < perWorker; j++ {
					d.SeenAndRecord(context.Background(), fmt.Sprintf("hit-%d-%d", w, j))
				}
			}(w)
		}
		wg.Wait()

		Convey("Then every id is recorded once", func() {
			So(d.Size(), ShouldEqual, workers*perWorker)
		})
	})

	Convey("Given the same id raced by many goroutines", t, func() {
		d := dedupe.NewInMemoryDeduper()
		var (
			wg    sync.WaitGroup
			mu    sync.Mutex
			fresh int
		)
		for i := 0; i < 50; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				if !d.SeenAndRecord(context.Background(), "hit-shared") {
					mu.Lock()
					fresh++
					mu.Unlock()
				}
			}()
		}
		wg.Wait()

		Convey("Then exactly one submission wins", func() {
			So(fresh, ShouldEqual, 1)
		})
	})
}
