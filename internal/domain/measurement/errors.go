package measurement

import "errors"

// Sentinel error kinds for this package.
var (
	ErrIncompleteMeasurement = errors.New("incomplete measurement point set")
	ErrDegenerateCalibration = errors.New("calibration scale must be positive")
)
