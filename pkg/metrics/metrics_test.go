package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	. "github.com/smartystreets/goconvey/convey"
)

func gathered(name string) *dto.MetricFamily {
	families, err := GetRegistry().Gather()
	if err != nil {
		return nil
	}
	for _, f := range families {
		if f.GetName() == name {
			return f
		}
	}
	return nil
}

func counterValue(name string, labels map[string]string) float64 {
	f := gathered(name)
	if f == nil {
		return 0
	}
	for _, m := range f.GetMetric() {
		if matches(m, labels) {
			return m.GetCounter().GetValue()
		}
	}
	return 0
}

func matches(m *dto.Metric, labels map[string]string) bool {
	found := 0
	for _, lp := range m.GetLabel() {
		if v, ok := labels[lp.GetName()]; ok {
			if v != lp.GetValue() {
				return false
			}
			found++
		}
	}
	return found == len(labels)
}

func TestMetricsOptions(t *testing.T) {
	Convey("Given a manager built with custom options", t, func() {
		registry := prometheus.NewRegistry()
		manager := NewManager(
			WithNamespace("test"),
			WithMetricsEnabled(true),
			WithRefreshInterval(5*time.Second),
			WithCustomLabels(map[string]string{"env": "test"}),
			WithPrometheusRegistry(registry),
		)

		Convey("Then the options are applied", func() {
			So(manager.RefreshInterval(), ShouldEqual, 5*time.Second)

			manager.sessionsCreated.Inc()
			families, err := registry.Gather()
			So(err, ShouldBeNil)

			var created *dto.MetricFamily
			for _, f := range families {
				if f.GetName() == "test_fitting_sessions_created_total" {
					created = f
				}
			}
			So(created, ShouldNotBeNil)
			So(matches(created.GetMetric()[0], map[string]string{"env": "test"}), ShouldBeTrue)
		})

		Convey("Then empty values keep the defaults", func() {
			m := NewManager(
				WithNamespace(""),
				WithRefreshInterval(0),
				WithCustomLabels(nil),
				WithPrometheusRegistry(prometheus.NewRegistry()),
			)
			So(m.namespace, ShouldEqual, "lensfit")
			So(m.RefreshInterval(), ShouldEqual, defaultRefreshInterval)
			So(m.customLabels, ShouldBeEmpty)
		})
	})
}

func TestConfigure(t *testing.T) {
	Convey("Given a reconfigured global manager", t, func() {
		Configure(
			WithNamespace("fitshop"),
			WithRefreshInterval(3*time.Second),
			WithCustomLabels(map[string]string{"instance": "eu-1"}),
		)
		defer Configure()

		RecordSessionCreated()

		Convey("Then the served registry uses the new namespace and labels", func() {
			So(DefaultRefreshInterval(), ShouldEqual, 3*time.Second)
			So(counterValue("fitshop_fitting_sessions_created_total", map[string]string{"instance": "eu-1"}), ShouldEqual, 1)
			So(gathered("lensfit_fitting_sessions_created_total"), ShouldBeNil)
		})
	})

	Convey("Given a disabled global manager", t, func() {
		Configure(WithMetricsEnabled(false))
		defer Configure()

		RecordLandmarkMarked("left_pupil", true)

		Convey("Then fitting counters stay empty", func() {
			So(gathered("lensfit_fitting_landmarks_marked_total"), ShouldBeNil)
		})
	})
}

func TestFittingMetrics(t *testing.T) {
	Convey("Given the global manager", t, func() {
		Convey("When a landmark replaces an earlier mark", func() {
			marked := counterValue("lensfit_fitting_landmarks_marked_total", map[string]string{"type": "left_pupil"})
			replaced := counterValue("lensfit_fitting_landmarks_replaced_total", map[string]string{"type": "left_pupil"})

			RecordLandmarkMarked("left_pupil", true)
			RecordLandmarkMarked("left_pupil", false)

			Convey("Then both counters move", func() {
				So(counterValue("lensfit_fitting_landmarks_marked_total", map[string]string{"type": "left_pupil"}), ShouldEqual, marked+2)
				So(counterValue("lensfit_fitting_landmarks_replaced_total", map[string]string{"type": "left_pupil"}), ShouldEqual, replaced+1)
			})
		})

		Convey("When calibrations are recorded", func() {
			before := counterValue("lensfit_fitting_calibrations_total", map[string]string{"outcome": OutcomeDegenerate})
			RecordCalibration(OutcomeDegenerate, 0)
			RecordCalibration(OutcomeSuccess, 3.5)

			Convey("Then they are counted by outcome", func() {
				So(counterValue("lensfit_fitting_calibrations_total", map[string]string{"outcome": OutcomeDegenerate}), ShouldEqual, before+1)
				So(gathered("lensfit_fitting_pixels_per_mm").GetMetric()[0].GetHistogram().GetSampleCount(), ShouldBeGreaterThan, 0)
			})
		})

		Convey("When measurement values are recorded", func() {
			RecordMeasurement(OutcomeSuccess)
			RecordMeasurementValues(map[string]float64{"dp": 57.1, "dpn_left": 28.5})

			Convey("Then one series exists per measurement", func() {
				f := gathered("lensfit_fitting_measurement_millimeters")
				So(f, ShouldNotBeNil)
				So(len(f.GetMetric()), ShouldBeGreaterThanOrEqualTo, 2)
			})
		})
	})
}

func TestOperationalMetrics(t *testing.T) {
	Convey("Given the global manager", t, func() {
		So(func() {
			RecordSessionCreated()
			RecordSessionEvicted("expired")
			UpdateSessionsActive(3)
			UpdateStoreShardCount(4)
			UpdateStoreRecordsPerShard("0", 1)
			RecordStoreLatency("get", 0.2)
			RecordHTTPRequest("/v1/measure", "POST", "200")
			RecordHTTPRequestDuration("/v1/measure", "POST", "200", 1.5)
			RecordRateLimited("/v1/measure")
			RecordErrorByComponent("api", "validation")
			RecordErrorByType("validation", "warning")
			RecordErrorByEndpoint("/v1/measure", "POST", "validation")
			RecordComputeLatency(0.01)
			UpdateSystemMemoryUsage(1024)
			UpdateSystemGoroutineCount(8)
			RecordSystemGCPauseTime(0.3)
		}, ShouldNotPanic)

		Convey("Then gauges hold the last value", func() {
			f := gathered("lensfit_fitting_sessions_active")
			So(f, ShouldNotBeNil)
			So(f.GetMetric()[0].GetGauge().GetValue(), ShouldEqual, 3)
		})

		Convey("Then the rate limiter counter is exposed", func() {
			So(counterValue("lensfit_fitting_rate_limited_total", map[string]string{"endpoint": "/v1/measure"}), ShouldBeGreaterThanOrEqualTo, 1)
		})
	})
}
