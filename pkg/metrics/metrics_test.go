package metrics

import (
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	. "github.com/smartystreets/goconvey/convey"
)

// sample returns the value of the first sample of a family in the global
// registry whose labels include every given name=value pair.
func sample(name string, labels ...string) float64 {
	families, err := GetRegistry().Gather()
	if err != nil {
		return -1
	}
	for _, f := range families {
		if f.GetName() != name {
			continue
		}
	next:
		for _, m := range f.GetMetric() {
			for i := 0; i+1 < len(labels); i += 2 {
				ok := false
				for _, lp := range m.GetLabel() {
					if lp.GetName() == labels[i] && lp.GetValue() == labels[i+1] {
						ok = true
					}
				}
				if !ok {
					continue next
				}
			}
			switch {
			case m.GetCounter() != nil:
				return m.GetCounter().GetValue()
			case m.GetGauge() != nil:
				return m.GetGauge().GetValue()
			}
		}
	}
	return 0
}

func TestManagerCreation(t *testing.T) {
	Convey("Given a dedicated registry", t, func() {
		registry := prometheus.NewRegistry()

		Convey("When a manager is created with custom options", func() {
			m := NewManager(
				WithNamespace("test"),
				WithSubsystem("unit"),
				WithHistogramBuckets([]float64{1, 10}),
				WithPrometheusRegistry(registry),
			)
			m.submissions.WithLabelValues(SubmissionAccepted).Inc()

			Convey("Then collectors are registered under the namespace", func() {
				families, err := registry.Gather()
				So(err, ShouldBeNil)
				found := false
				for _, f := range families {
					if f.GetName() == "test_unit_score_submissions_total" {
						found = true
					}
				}
				So(found, ShouldBeTrue)
			})
		})
	})
}

func TestRecording(t *testing.T) {
	Convey("Given the global manager", t, func() {
		Convey("When submissions are recorded", func() {
			before := sample("strikeboard_score_submissions_total", "status", SubmissionDuplicate)
			RecordSubmission(SubmissionDuplicate)

			Convey("Then the labelled counter grows", func() {
				after := sample("strikeboard_score_submissions_total", "status", SubmissionDuplicate)
				So(after-before, ShouldEqual, 1)
			})
		})

		Convey("When gauges are updated", func() {
			UpdateWSClients(3)
			UpdateQueueSize(7)
			UpdateScoreRows(42)

			Convey("Then they hold the latest value", func() {
				So(sample("strikeboard_ws_clients"), ShouldEqual, 3)
				So(sample("strikeboard_queue_size"), ShouldEqual, 7)
				So(sample("strikeboard_score_rows"), ShouldEqual, 42)
			})
		})

		Convey("When an aggregation pass drops rows", func() {
			before := sample("strikeboard_aggregation_events_dropped_total")
			RecordAggregation(1.5, 2)

			Convey("Then the dropped rows are counted", func() {
				So(sample("strikeboard_aggregation_events_dropped_total")-before, ShouldEqual, 2)
			})
		})

		Convey("When the other recorders are called", func() {
			So(func() {
				RecordScoringLatency(1)
				RecordScoringError()
				RecordStoreWriteLatency(1)
				RecordStoreQueryLatency(1)
				UpdateQueueCapacity(10)
				UpdateQueueUtilization(0.5)
				RecordQueueEnqueue()
				RecordQueueDequeue()
				RecordQueueEnqueueError()
				UpdateWorkerCount(2)
				RecordWorkerProcessingLatency(3)
				RecordWorkerError()
				RecordNotificationPublished("score-updated")
				RecordNotificationDelivered()
				RecordNotificationDropped()
				RecordViewerPull("ok")
				RecordHTTPRequest("/api/scores", "POST", "202")
				RecordHTTPRequestDuration("/api/scores", "POST", "202", 2)
				RecordErrorByComponent("worker", "store")
				UpdateSystemMemoryUsage(1024)
				UpdateSystemGoroutineCount(10)
				RecordSystemGCPauseTime(0.2)
			}, ShouldNotPanic)
		})

		Convey("Then the exposed registry lists strikeboard metrics", func() {
			families, err := GetRegistry().Gather()
			So(err, ShouldBeNil)
			names := make([]string, 0, len(families))
			for _, f := range families {
				names = append(names, f.GetName())
			}
			So(strings.Join(names, ","), ShouldContainSubstring, "strikeboard_score_submissions_total")
		})
	})
}
