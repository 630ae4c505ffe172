package metrics

import (
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	. "github.com/smartystreets/goconvey/convey"
)

// gathered sums every sample of the named family in registry.
func gathered(registry *prometheus.Registry, name string) float64 {
	families, err := registry.Gather()
	if err != nil {
		return -1
	}
	var total float64
	for _, f := range families {
		if f.GetName() != name {
			continue
		}
		for _, m := range f.GetMetric() {
			total += m.GetCounter().GetValue() + m.GetGauge().GetValue()
		}
	}
	return total
}

func TestMetricsManagerCreation(t *testing.T) {
	Convey("Given metrics manager creation", t, func() {
		Convey("When creating with a private registry", func() {
			registry := prometheus.NewRegistry()
			manager := NewManager(
				WithNamespace("test"),
				WithSubsystem("unit"),
				WithHistogramBuckets([]float64{1, 5, 10}),
				WithScoreBuckets([]float64{0, 50, 100}),
				WithConstLabels(map[string]string{"env": "test"}),
				WithPrometheusRegistry(registry),
			)

			Convey("Then collectors are registered under the namespace", func() {
				So(manager, ShouldNotBeNil)
				manager.hitsReceived.WithLabelValues("t1", "collision").Inc()
				families, err := registry.Gather()
				So(err, ShouldBeNil)
				var found bool
				for _, f := range families {
					if f.GetName() == "test_unit_hits_received_total" {
						found = true
					}
				}
				So(found, ShouldBeTrue)
			})
		})
	})
}

func TestMetricsRecording(t *testing.T) {
	Convey("Given the global metrics manager", t, func() {
		Convey("When recording a scored hit and a miss", func() {
			scoredBefore := gathered(GetRegistry(), "bullseye_range_hits_scored_total")
			missedBefore := gathered(GetRegistry(), "bullseye_range_hits_missed_total")

			RecordHitScored("rec-target", 75)
			RecordHitScored("rec-target", 0)

			Convey("Then scored and missed counters move independently", func() {
				So(gathered(GetRegistry(), "bullseye_range_hits_scored_total"), ShouldEqual, scoredBefore+1)
				So(gathered(GetRegistry(), "bullseye_range_hits_missed_total"), ShouldEqual, missedBefore+1)
			})
		})

		Convey("When updating gauges", func() {
			UpdateScoreboard(3, 420)
			UpdateQueueSize(7)
			UpdateTargetCount(4)

			Convey("Then gauges hold the latest values", func() {
				So(gathered(GetRegistry(), "bullseye_range_scoreboard_shooters"), ShouldEqual, 3)
				So(gathered(GetRegistry(), "bullseye_range_scoreboard_total_score"), ShouldEqual, 420)
				So(gathered(GetRegistry(), "bullseye_range_queue_size"), ShouldEqual, 7)
				So(gathered(GetRegistry(), "bullseye_range_targets"), ShouldEqual, 4)
			})
		})

		Convey("When recording the remaining helpers", func() {
			So(func() {
				RecordHitReceived("t1", "trigger")
				RecordHitDropped("t1", "no_contacts")
				RecordHitDuplicate()
				RecordScoringLatency(0.2)
				RecordTargetReconfigured("t1")
				RecordTargetMoved()
				RecordScoreboardUpdate(0.1)
				UpdateQueueCapacity(100)
				UpdateQueueUtilization(0.5)
				RecordQueueEnqueue()
				RecordQueueDequeue()
				RecordQueueEnqueueError("queue_full")
				UpdateWorkerCount(4)
				RecordWorkerProcessingLatency(1.5)
				RecordWorkerError()
				RecordHTTPRequest("/hits", "POST", "202")
				RecordHTTPRequestDuration("/hits", "POST", "202", 2)
				UpdateStreamSubscribers(2)
				RecordStreamDropped()
				RecordErrorByComponent("worker", "unknown_target")
				UpdateSystemMemoryUsage(1 << 20)
				UpdateSystemGoroutineCount(12)
			}, ShouldNotPanic)
		})

		Convey("When gathering from the custom registry", func() {
			RecordHitDuplicate()
			families, err := GetRegistry().Gather()

			Convey("Then only bullseye metrics are exported", func() {
				So(err, ShouldBeNil)
				So(len(families), ShouldBeGreaterThan, 0)
				for _, f := range families {
					So(strings.HasPrefix(f.GetName(), "bullseye_range_"), ShouldBeTrue)
				}
			})
		})
	})
}
