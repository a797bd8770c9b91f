package calibration

import "errors"

// Sentinel error kinds for this package. These allow errors.Is/As from callers.
var (
	ErrDegenerateCalibration = errors.New("degenerate calibration")
	ErrIncompleteCalibration = errors.New("incomplete calibration point set")
	ErrWrongLandmarkType     = errors.New("wrong landmark type for calibration")
)
