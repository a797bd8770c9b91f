package service_test

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/okian/lensfit/internal/adapters/repository"
	service "github.com/okian/lensfit/internal/app"
	"github.com/okian/lensfit/internal/domain/calibration"
	"github.com/okian/lensfit/internal/domain/geometry"
	"github.com/okian/lensfit/internal/domain/landmark"
	"github.com/okian/lensfit/internal/domain/measurement"
	"github.com/okian/lensfit/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	// Initialize logging for tests
	err := logger.Init()
	if err != nil {
		panic(err)
	}
}

func pt(t landmark.Type, x, y float64) landmark.Point {
	return landmark.New("", t, geometry.NewPoint(x, y), "")
}

func seedPoints() []landmark.Point {
	return []landmark.Point{
		pt(landmark.LeftPupil, 150, 300),
		pt(landmark.RightPupil, 350, 300),
		pt(landmark.NasalBridgeCenter, 250, 290),
		pt(landmark.LeftLensBottomEdge, 150, 380),
		pt(landmark.RightLensBottomEdge, 350, 380),
	}
}

func TestService_New(t *testing.T) {
	Convey("Given a new service with default options", t, func() {
		svc := service.New()

		Convey("Then it should have sensible defaults", func() {
			So(svc, ShouldNotBeNil)
			So(svc.GetStats()["referenceWidthMM"], ShouldEqual, 85.6)
		})
	})

	Convey("Given a new service with custom options", t, func() {
		svc := service.New(
			service.WithReferenceWidth(100),
			service.WithReferenceWidth(-1),
			service.WithReferenceWidth(math.Inf(1)),
			service.WithReferenceWidth(math.NaN()),
			service.WithStoreOptions(repository.WithShardCount(2)),
			service.WithClock(time.Now),
		)

		Convey("Then invalid values are ignored", func() {
			So(svc.GetStats()["referenceWidthMM"], ShouldEqual, 100)
		})
	})
}

func TestService_StartStop(t *testing.T) {
	Convey("Given a new service", t, func() {
		svc := service.New()
		defer svc.Stop()
		ctx := context.Background()

		Convey("When using sessions before starting", func() {
			_, err := svc.CreateSession(ctx)

			Convey("Then it reports the service is not started", func() {
				So(errors.Is(err, service.ErrNotStarted), ShouldBeTrue)
			})
		})

		Convey("When starting the service", func() {
			So(svc.Start(ctx), ShouldBeNil)
			So(svc.Start(ctx), ShouldBeNil)

			Convey("Then it should be marked as started", func() {
				stats := svc.GetStats()
				So(stats["started"], ShouldEqual, true)
				So(stats["activeSessions"], ShouldEqual, 0)
			})

			Convey("And stopping marks it as stopped", func() {
				svc.Stop()
				svc.Stop()
				So(svc.GetStats()["started"], ShouldEqual, false)
			})
		})
	})
}

func TestService_Calibrate(t *testing.T) {
	Convey("Given a service", t, func() {
		svc := service.New()
		ctx := context.Background()

		Convey("When calibrating from a 300px card", func() {
			cal, err := svc.Calibrate(ctx, geometry.NewPoint(100, 500), geometry.NewPoint(400, 500))

			Convey("Then the scale is distance over card width", func() {
				So(err, ShouldBeNil)
				So(cal.PixelsPerMM, ShouldAlmostEqual, 300/85.6, 1e-12)
				So(cal.CardLeft.Type, ShouldEqual, landmark.CardLeftEdge)
				So(cal.CardRight.Type, ShouldEqual, landmark.CardRightEdge)
				So(cal.CardLeft.ID, ShouldNotBeEmpty)
			})
		})

		Convey("When both edges coincide", func() {
			_, err := svc.Calibrate(ctx, geometry.NewPoint(10, 10), geometry.NewPoint(10, 10))

			Convey("Then the calibration is degenerate", func() {
				So(errors.Is(err, calibration.ErrDegenerateCalibration), ShouldBeTrue)
			})
		})

		Convey("When a custom reference width is configured", func() {
			custom := service.New(service.WithReferenceWidth(100))
			cal, err := custom.Calibrate(ctx, geometry.NewPoint(0, 0), geometry.NewPoint(300, 0))

			Convey("Then the scale uses it", func() {
				So(err, ShouldBeNil)
				So(cal.PixelsPerMM, ShouldEqual, 3)
				So(cal.ReferenceWidthMM, ShouldEqual, 100)
			})
		})
	})
}

func TestService_Measure(t *testing.T) {
	Convey("Given a service", t, func() {
		svc := service.New()
		ctx := context.Background()
		scale := 300 / 85.6

		Convey("When measuring the seed points", func() {
			res, err := svc.Measure(ctx, scale, seedPoints())

			Convey("Then the results are rounded to one decimal", func() {
				So(err, ShouldBeNil)
				So(res, ShouldResemble, measurement.Results{
					DP: 57.1, DPNLeft: 28.5, DPNRight: 28.5, HeightLeft: 22.8, HeightRight: 22.8,
				})
			})
		})

		Convey("When a point is missing", func() {
			_, err := svc.Measure(ctx, scale, seedPoints()[1:])

			Convey("Then the set is incomplete", func() {
				So(errors.Is(err, measurement.ErrIncompleteMeasurement), ShouldBeTrue)
			})
		})

		Convey("When the scale is not usable", func() {
			for _, bad := range []float64{0, -1, math.NaN(), math.Inf(1)} {
				_, err := svc.Measure(ctx, bad, seedPoints())
				So(errors.Is(err, measurement.ErrDegenerateCalibration), ShouldBeTrue)
			}
		})
	})
}

func TestService_GetStats(t *testing.T) {
	Convey("Given a new service", t, func() {
		svc := service.New()

		Convey("When getting stats before starting", func() {
			stats := svc.GetStats()

			Convey("Then it should return basic stats", func() {
				So(stats, ShouldNotBeNil)
				So(stats["started"], ShouldEqual, false)
				So(stats, ShouldNotContainKey, "activeSessions")
			})
		})
	})
}
