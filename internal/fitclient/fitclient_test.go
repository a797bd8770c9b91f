package fitclient_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/okian/lensfit/internal/adapters/http/api"
	service "github.com/okian/lensfit/internal/app"
	"github.com/okian/lensfit/internal/fitclient"
	"github.com/okian/lensfit/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	if err := logger.Init(); err != nil {
		panic(err)
	}
}

func newServer(opts ...service.Option) (*httptest.Server, func()) {
	svc := service.New(opts...)
	if err := svc.Start(context.Background()); err != nil {
		panic(err)
	}
	mux := http.NewServeMux()
	api.NewServer(svc).Register(context.Background(), mux)
	srv := httptest.NewServer(mux)
	return srv, func() {
		srv.Close()
		svc.Stop()
	}
}

func writeScenario(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "scenario.yaml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write scenario: %v", err)
	}
	return path
}

func TestScenario(t *testing.T) {
	Convey("Given the seed scenario", t, func() {
		sc := fitclient.SeedScenario()

		Convey("Then it is valid and computes the reference results", func() {
			So(sc.Validate(), ShouldBeNil)
			cal, res, err := sc.Compute()
			So(err, ShouldBeNil)
			So(cal.PixelsPerMM, ShouldAlmostEqual, 300/85.6, 1e-12)
			So(res.DP, ShouldEqual, sc.Expected.DP)
			So(res.DPNLeft, ShouldEqual, sc.Expected.DPNLeft)
			So(res.HeightRight, ShouldEqual, sc.Expected.HeightRight)
		})

		Convey("Then points come back in marking order", func() {
			cal := sc.CalibrationPoints()
			So(len(cal), ShouldEqual, 2)
			So(cal[0].Type.String(), ShouldEqual, "card_left")
			meas := sc.MeasurementPoints()
			So(len(meas), ShouldEqual, 5)
			So(meas[0].Type.String(), ShouldEqual, "left_pupil")
			So(meas[4].Type.String(), ShouldEqual, "right_lens_bottom")
		})
	})

	Convey("Given scenario files", t, func() {
		Convey("When loading the seed file", func() {
			sc, err := fitclient.LoadScenario("testdata/seed.yaml")

			Convey("Then the reference width defaults to the card", func() {
				So(err, ShouldBeNil)
				So(sc.Name, ShouldEqual, "seed-file")
				So(sc.ReferenceWidthMM, ShouldEqual, 85.6)
				So(sc.Expected, ShouldNotBeNil)
				So(sc.Expected.DPNRight, ShouldEqual, 28.5)
			})
		})

		Convey("When loading a scenario with a custom reference", func() {
			sc, err := fitclient.LoadScenario("testdata/wide.yaml")
			So(err, ShouldBeNil)
			cal, _, err := sc.Compute()

			Convey("Then the scale uses it", func() {
				So(err, ShouldBeNil)
				So(cal.PixelsPerMM, ShouldEqual, 3)
				So(sc.Expected, ShouldBeNil)
			})
		})

		Convey("When the file is missing", func() {
			_, err := fitclient.LoadScenario("testdata/missing.yaml")
			So(err, ShouldNotBeNil)
			So(errors.Is(err, os.ErrNotExist), ShouldBeTrue)
		})

		Convey("When the scenario is invalid", func() {
			cases := map[string]string{
				"unknown landmark": "calibration: {card_left: {x: 1}, card_right: {x: 2}, card_top: {x: 3}}",
				"wrong stage":      "calibration: {card_left: {x: 1}, left_pupil: {x: 2}}",
				"incomplete":       "calibration: {card_left: {x: 1}, card_right: {x: 2}}\nmeasurement: {left_pupil: {x: 1}}",
				"bad yaml":         "calibration: [",
				"negative width":   "reference_width_mm: -1\n" + seedPoints,
			}
			for name, body := range cases {
				Convey("Then a scenario with "+name+" is rejected", func() {
					_, err := fitclient.LoadScenario(writeScenario(t, body))
					So(errors.Is(err, fitclient.ErrInvalidScenario), ShouldBeTrue)
				})
			}
		})
	})
}

const seedPoints = `calibration:
  card_left: {x: 100, y: 500}
  card_right: {x: 400, y: 500}
measurement:
  left_pupil: {x: 150, y: 300}
  right_pupil: {x: 350, y: 300}
  bridge_center: {x: 250, y: 290}
  left_lens_bottom: {x: 150, y: 380}
  right_lens_bottom: {x: 350, y: 380}
`

func TestRun(t *testing.T) {
	Convey("Given a running service", t, func() {
		srv, stop := newServer()
		defer stop()
		cfg := &fitclient.Config{BaseURL: srv.URL, Timeout: 5 * time.Second}

		Convey("When replaying the seed scenario", func() {
			report, err := fitclient.Run(context.Background(), cfg)

			Convey("Then every path agrees", func() {
				So(err, ShouldBeNil)
				So(report.Mismatches, ShouldBeEmpty)
				So(report.SessionID, ShouldNotBeEmpty)
				So(report.Session, ShouldResemble, *fitclient.SeedScenario().Expected)
				So(report.Stateless, ShouldResemble, report.Local)
			})

			Convey("Then the session is cleaned up", func() {
				resp, err := http.Get(srv.URL + "/v1/sessions/" + report.SessionID)
				So(err, ShouldBeNil)
				defer resp.Body.Close()
				So(resp.StatusCode, ShouldEqual, http.StatusNotFound)
			})
		})

		Convey("When the scenario uses a reference the service does not", func() {
			cfg.ScenarioFile = "testdata/wide.yaml"
			report, err := fitclient.Run(context.Background(), cfg)

			Convey("Then the mismatch is reported", func() {
				So(errors.Is(err, fitclient.ErrMismatch), ShouldBeTrue)
				So(report, ShouldNotBeNil)
				So(report.Mismatches, ShouldNotBeEmpty)
				So(report.Mismatches[0], ShouldStartWith, "calibrate: pixels_per_mm")
			})
		})
	})

	Convey("Given a service configured with a 100 mm reference", t, func() {
		srv, stop := newServer(service.WithReferenceWidth(100))
		defer stop()

		Convey("When replaying the matching scenario", func() {
			cfg := &fitclient.Config{BaseURL: srv.URL, ScenarioFile: "testdata/wide.yaml", Timeout: 5 * time.Second}
			report, err := fitclient.Run(context.Background(), cfg)

			Convey("Then every path agrees", func() {
				So(err, ShouldBeNil)
				So(report.PixelsPerMM, ShouldEqual, 3)
				So(report.Session, ShouldResemble, report.Local)
			})
		})
	})

	Convey("Given no service", t, func() {
		srv := httptest.NewServer(http.NotFoundHandler())
		srv.Close()

		Convey("Then the health check fails", func() {
			_, err := fitclient.Run(context.Background(), &fitclient.Config{BaseURL: srv.URL, Timeout: time.Second})
			So(err, ShouldNotBeNil)
			So(err.Error(), ShouldContainSubstring, "service health check failed")
		})
	})

	Convey("Given a service that rejects calibration", t, func() {
		mux := http.NewServeMux()
		mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusOK) })
		mux.HandleFunc("/v1/calibrate", func(w http.ResponseWriter, _ *http.Request) {
			http.Error(w, `{"code":"internal_error"}`, http.StatusInternalServerError)
		})
		srv := httptest.NewServer(mux)
		defer srv.Close()

		Convey("Then the status is surfaced", func() {
			_, err := fitclient.Run(context.Background(), &fitclient.Config{BaseURL: srv.URL, Timeout: time.Second})
			So(errors.Is(err, fitclient.ErrUnexpectedStatus), ShouldBeTrue)
			So(err.Error(), ShouldContainSubstring, "returned 500")
		})
	})
}
