package calibration

import "math"

// Option applies a configuration option to calibration.
type Option func(*settings)

type settings struct {
	referenceWidthMM float64
}

// WithReferenceWidth sets the physical width in millimeters of the reference
// object whose edges are marked. Non-positive values are ignored.
func WithReferenceWidth(widthMM float64) Option {
	return func(s *settings) {
		if widthMM > 0 && !math.IsInf(widthMM, 0) {
			s.referenceWidthMM = widthMM
		}
	}
}
