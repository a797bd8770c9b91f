package model_test

import (
	"testing"
	"time"

	"github.com/okian/lensfit/internal/domain/calibration"
	"github.com/okian/lensfit/internal/domain/geometry"
	"github.com/okian/lensfit/internal/domain/landmark"
	"github.com/okian/lensfit/internal/domain/measurement"
	"github.com/okian/lensfit/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

func pt(t landmark.Type, x, y float64) landmark.Point {
	return landmark.New("", t, geometry.NewPoint(x, y), "")
}

func TestSession(t *testing.T) {
	Convey("Given a new session", t, func() {
		now := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)
		s := model.New("s-1", now)

		Convey("Then it starts in calibration and asks for the card left edge", func() {
			So(s.ID, ShouldEqual, "s-1")
			So(s.CreatedAt, ShouldEqual, now)
			So(s.Stage(), ShouldEqual, model.StageCalibration)
			next, ok := s.NextLandmark()
			So(ok, ShouldBeTrue)
			So(next, ShouldEqual, landmark.CardLeftEdge)
		})

		Convey("When both card edges are marked but calibration is not complete", func() {
			s.Calibration.Add(pt(landmark.CardLeftEdge, 100, 500))
			s.Calibration.Add(pt(landmark.CardRightEdge, 400, 500))

			Convey("Then there is nothing more to mark yet", func() {
				_, ok := s.NextLandmark()
				So(ok, ShouldBeFalse)
				So(s.Stage(), ShouldEqual, model.StageCalibration)
			})
		})

		Convey("When calibration is complete", func() {
			s.Calibration.Add(pt(landmark.CardLeftEdge, 100, 500))
			s.Calibration.Add(pt(landmark.CardRightEdge, 400, 500))
			cal, err := calibration.FromSet(s.Calibration)
			So(err, ShouldBeNil)
			s.Scale = &cal

			Convey("Then the session moves to measurement, starting at the left pupil", func() {
				So(s.Stage(), ShouldEqual, model.StageMeasurement)
				next, ok := s.NextLandmark()
				So(ok, ShouldBeTrue)
				So(next, ShouldEqual, landmark.LeftPupil)
			})

			Convey("And results complete it", func() {
				s.Results = &measurement.Results{DP: 60}
				So(s.Stage(), ShouldEqual, model.StageComplete)
			})

			Convey("And resetting calibration discards scale and results", func() {
				s.Results = &measurement.Results{DP: 60}
				s.ResetCalibration()
				So(s.Scale, ShouldBeNil)
				So(s.Results, ShouldBeNil)
				So(s.Calibration.Len(), ShouldEqual, 0)
				So(s.Stage(), ShouldEqual, model.StageCalibration)
			})

			Convey("And resetting measurement keeps calibration", func() {
				s.Measurement.Add(pt(landmark.LeftPupil, 1, 1))
				s.Results = &measurement.Results{DP: 60}
				s.ResetMeasurement()
				So(s.Scale, ShouldNotBeNil)
				So(s.Measurement.Len(), ShouldEqual, 0)
				So(s.Results, ShouldBeNil)
			})

			Convey("And a clone does not share the scale", func() {
				c := s.Clone()
				c.Scale.PixelsPerMM = 1
				So(s.Scale.PixelsPerMM, ShouldNotEqual, 1)
			})
		})
	})
}
