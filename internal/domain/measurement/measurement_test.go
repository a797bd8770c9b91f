package measurement_test

import (
	"errors"
	"testing"

	"github.com/okian/lensfit/internal/domain/calibration"
	"github.com/okian/lensfit/internal/domain/geometry"
	"github.com/okian/lensfit/internal/domain/landmark"
	"github.com/okian/lensfit/internal/domain/measurement"
	. "github.com/smartystreets/goconvey/convey"
)

func pt(t landmark.Type, x, y float64) landmark.Point {
	return landmark.New("", t, geometry.NewPoint(x, y), "")
}

func seedCalibration() calibration.Data {
	cal, err := calibration.New(
		pt(landmark.CardLeftEdge, 100, 500),
		pt(landmark.CardRightEdge, 400, 500),
	)
	if err != nil {
		panic(err)
	}
	return cal
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

func TestCalculate(t *testing.T) {
	Convey("Given the reference card scenario", t, func() {
		cal := seedCalibration()
		points := seedPoints()

		Convey("When calculating measurements", func() {
			res, err := measurement.Calculate(points, cal)

			Convey("Then every value matches the expected one-decimal result", func() {
				So(err, ShouldBeNil)
				So(res.DP, ShouldEqual, 57.1)
				So(res.DPNLeft, ShouldEqual, 28.5)
				So(res.DPNRight, ShouldEqual, 28.5)
				So(res.HeightLeft, ShouldEqual, 22.8)
				So(res.HeightRight, ShouldEqual, 22.8)
			})

			Convey("And the set-based variant agrees", func() {
				fromSet, err := measurement.CalculateSet(landmark.NewSet(points...), cal)
				So(err, ShouldBeNil)
				So(fromSet, ShouldResemble, res)
			})

			Convey("And repeated calls are deterministic", func() {
				again, err := measurement.Calculate(points, cal)
				So(err, ShouldBeNil)
				So(again, ShouldResemble, res)
			})
		})

		Convey("When the nasal bridge is omitted", func() {
			withoutBridge := []landmark.Point{points[0], points[1], points[3], points[4]}
			res, err := measurement.Calculate(withoutBridge, cal)

			Convey("Then no result is produced", func() {
				So(errors.Is(err, measurement.ErrIncompleteMeasurement), ShouldBeTrue)
				So(res, ShouldResemble, measurement.Results{})
			})
		})

		Convey("When any single landmark is missing", func() {
			Convey("Then calculation fails whenever the validator rejects the set", func() {
				for i := range points {
					partial := append(append([]landmark.Point{}, points[:i]...), points[i+1:]...)
					So(landmark.HasMeasurementPoints(partial), ShouldBeFalse)
					_, err := measurement.Calculate(partial, cal)
					So(errors.Is(err, measurement.ErrIncompleteMeasurement), ShouldBeTrue)
					So(err.Error(), ShouldContainSubstring, points[i].Type.String())
				}
			})
		})

		Convey("When a pupil was re-marked", func() {
			remarked := append(append([]landmark.Point{}, points...), pt(landmark.LeftPupil, 100, 300))
			res, err := measurement.Calculate(remarked, cal)

			Convey("Then the latest mark is used", func() {
				So(err, ShouldBeNil)
				// |100 - 250| = 150 px
				So(res.DPNLeft, ShouldEqual, measurement.Round1(150/cal.PixelsPerMM))
			})
		})

		Convey("When the pupils are on opposite sides of the bridge in mirrored order", func() {
			mirrored := []landmark.Point{
				pt(landmark.LeftPupil, 350, 300),
				pt(landmark.RightPupil, 150, 300),
				pt(landmark.NasalBridgeCenter, 250, 290),
				pt(landmark.LeftLensBottomEdge, 350, 220),
				pt(landmark.RightLensBottomEdge, 150, 220),
			}
			res, err := measurement.Calculate(mirrored, cal)

			Convey("Then distances are absolute", func() {
				So(err, ShouldBeNil)
				So(res.DP, ShouldEqual, 57.1)
				So(res.DPNLeft, ShouldEqual, 28.5)
				So(res.HeightLeft, ShouldEqual, 22.8)
			})
		})
	})

	Convey("Given an invalid calibration scale", t, func() {
		points := seedPoints()

		Convey("Then calculation fails with ErrDegenerateCalibration", func() {
			_, err := measurement.Calculate(points, calibration.Data{PixelsPerMM: 0})
			So(errors.Is(err, measurement.ErrDegenerateCalibration), ShouldBeTrue)

			_, err = measurement.Calculate(points, calibration.Data{PixelsPerMM: -2})
			So(errors.Is(err, measurement.ErrDegenerateCalibration), ShouldBeTrue)
		})

		Convey("Then an incomplete set is still reported as incomplete", func() {
			_, err := measurement.Calculate(points[:1], calibration.Data{})
			So(errors.Is(err, measurement.ErrIncompleteMeasurement), ShouldBeTrue)
		})
	})
}

func TestRound1(t *testing.T) {
	Convey("Given values to round", t, func() {
		So(measurement.Round1(57.06666), ShouldEqual, 57.1)
		So(measurement.Round1(28.5333), ShouldEqual, 28.5)
		So(measurement.Round1(22.8266), ShouldEqual, 22.8)
		So(measurement.Round1(0.25), ShouldEqual, 0.3)
		So(measurement.Round1(-0.25), ShouldEqual, -0.3)
		So(measurement.Round1(0), ShouldEqual, 0)
	})
}

func TestResultsNamed(t *testing.T) {
	res := measurement.Results{DP: 1, DPNLeft: 2, DPNRight: 3, HeightLeft: 4, HeightRight: 5}
	named := res.Named()
	if len(named) != 5 || named["dp"] != 1 || named["height_right"] != 5 {
		t.Errorf("unexpected named results: %v", named)
	}
}
