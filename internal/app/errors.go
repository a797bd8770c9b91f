package service

import "errors"

// Sentinel error kinds for the fitting workflow.
var (
	ErrNotStarted        = errors.New("service not started")
	ErrInvalidPoint      = errors.New("landmark coordinates must be finite")
	ErrWrongStage        = errors.New("landmark type does not belong to this stage")
	ErrCalibrationLocked = errors.New("calibration already completed; reset it to re-mark")
	ErrNotCalibrated     = errors.New("session is not calibrated")
)
