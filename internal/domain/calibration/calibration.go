// Package calibration builds a validated pixel-to-millimeter scale from the
// two marked edges of a reference card.
package calibration

import (
	"fmt"
	"math"

	"github.com/okian/lensfit/internal/domain/geometry"
	"github.com/okian/lensfit/internal/domain/landmark"
)

// Data is a validated calibration. PixelsPerMM is always finite and > 0 for
// values returned by New or FromSet.
type Data struct {
	CardLeft         landmark.Point `json:"card_left"`
	CardRight        landmark.Point `json:"card_right"`
	PixelsPerMM      float64        `json:"pixels_per_mm"`
	ReferenceWidthMM float64        `json:"reference_width_mm"`
}

// Valid reports whether the scale can be used for measurement.
func (d Data) Valid() bool {
	return ValidScale(d.PixelsPerMM)
}

// ValidScale reports whether scale is a usable pixels-per-millimeter value.
func ValidScale(scale float64) bool {
	return scale > 0 && !math.IsInf(scale, 0) && !math.IsNaN(scale)
}

// New computes the scale from the card edges and rejects degenerate results.
func New(left, right landmark.Point, opts ...Option) (Data, error) {
	s := settings{referenceWidthMM: geometry.CardWidthMM}
	for _, opt := range opts {
		opt(&s)
	}

	if left.Type != landmark.CardLeftEdge {
		return Data{}, fmt.Errorf("%w: left edge is %s", ErrWrongLandmarkType, left.Type)
	}
	if right.Type != landmark.CardRightEdge {
		return Data{}, fmt.Errorf("%w: right edge is %s", ErrWrongLandmarkType, right.Type)
	}

	scale := geometry.PixelsPerMMWithReference(left.Point, right.Point, s.referenceWidthMM)
	if !ValidScale(scale) {
		return Data{}, fmt.Errorf("%w: pixels per mm %v", ErrDegenerateCalibration, scale)
	}

	return Data{
		CardLeft:         left,
		CardRight:        right,
		PixelsPerMM:      scale,
		ReferenceWidthMM: s.referenceWidthMM,
	}, nil
}

// FromSet calibrates from the card edges held in set.
func FromSet(set landmark.Set, opts ...Option) (Data, error) {
	if !set.HasCalibrationPoints() {
		return Data{}, fmt.Errorf("%w: missing %v", ErrIncompleteCalibration, set.Missing(landmark.CalibrationTypes...))
	}
	left, _ := set.Get(landmark.CardLeftEdge)
	right, _ := set.Get(landmark.CardRightEdge)
	return New(left, right, opts...)
}
