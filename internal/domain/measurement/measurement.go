// Package measurement computes the clinical eyeglass-fitting measurements
// from five marked landmarks and a calibrated image scale.
//
// The nasal reference line is the vertical x = bridgeCenter.X. Nasal
// pupillary distances are horizontal projections onto that line, and optical
// heights are vertical pupil-to-lens-bottom distances.
package measurement

import (
	"fmt"
	"math"

	"github.com/okian/lensfit/internal/domain/calibration"
	"github.com/okian/lensfit/internal/domain/geometry"
	"github.com/okian/lensfit/internal/domain/landmark"

	"gonum.org/v1/gonum/floats/scalar"
)

// decimals is the precision of every reported value.
const decimals = 1

// Results are the five measurements in millimeters, each rounded to one decimal.
type Results struct {
	DP          float64 `json:"dp"`
	DPNLeft     float64 `json:"dpn_left"`
	DPNRight    float64 `json:"dpn_right"`
	HeightLeft  float64 `json:"height_left"`
	HeightRight float64 `json:"height_right"`
}

// Named returns the results keyed by measurement name.
func (r Results) Named() map[string]float64 {
	return map[string]float64{
		"dp":           r.DP,
		"dpn_left":     r.DPNLeft,
		"dpn_right":    r.DPNRight,
		"height_left":  r.HeightLeft,
		"height_right": r.HeightRight,
	}
}

// Calculate computes the measurements from a collection of landmarks. When a
// type occurs more than once the last occurrence wins, matching how re-marking
// replaces a point, rather than a first-match lookup.
func Calculate(points []landmark.Point, cal calibration.Data) (Results, error) {
	return CalculateSet(landmark.NewSet(points...), cal)
}

// CalculateSet computes the measurements from a keyed landmark set.
//
// A set missing any measurement landmark yields ErrIncompleteMeasurement and
// no result. A non-positive scale yields ErrDegenerateCalibration.
func CalculateSet(set landmark.Set, cal calibration.Data) (Results, error) {
	if missing := set.Missing(landmark.MeasurementTypes...); len(missing) > 0 {
		return Results{}, fmt.Errorf("%w: missing %v", ErrIncompleteMeasurement, missing)
	}
	if !cal.Valid() {
		return Results{}, fmt.Errorf("%w: got %v", ErrDegenerateCalibration, cal.PixelsPerMM)
	}

	leftPupil, _ := set.Get(landmark.LeftPupil)
	rightPupil, _ := set.Get(landmark.RightPupil)
	bridge, _ := set.Get(landmark.NasalBridgeCenter)
	leftLens, _ := set.Get(landmark.LeftLensBottomEdge)
	rightLens, _ := set.Get(landmark.RightLensBottomEdge)

	scale := cal.PixelsPerMM
	bridgeX := bridge.X

	return Results{
		DP:          Round1(geometry.PixelsToMM(geometry.Distance(leftPupil.Point, rightPupil.Point), scale)),
		DPNLeft:     Round1(geometry.PixelsToMM(math.Abs(leftPupil.X-bridgeX), scale)),
		DPNRight:    Round1(geometry.PixelsToMM(math.Abs(rightPupil.X-bridgeX), scale)),
		HeightLeft:  Round1(geometry.PixelsToMM(math.Abs(leftPupil.Y-leftLens.Y), scale)),
		HeightRight: Round1(geometry.PixelsToMM(math.Abs(rightPupil.Y-rightLens.Y), scale)),
	}, nil
}

// Round1 rounds v to one decimal place, half away from zero.
func Round1(v float64) float64 {
	return scalar.Round(v, decimals)
}
