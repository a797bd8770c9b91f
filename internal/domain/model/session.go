// Package model contains domain models passed between layers.
package model

import (
	"time"

	"github.com/okian/lensfit/internal/domain/calibration"
	"github.com/okian/lensfit/internal/domain/landmark"
	"github.com/okian/lensfit/internal/domain/measurement"
)

// Stage is the derived progress of a fitting session.
type Stage string

// Session stages.
const (
	StageCalibration Stage = "calibration"
	StageMeasurement Stage = "measurement"
	StageComplete    Stage = "complete"
)

// markingOrder is the order in which a client is prompted for landmarks.
var markingOrder = []landmark.Type{
	landmark.CardLeftEdge,
	landmark.CardRightEdge,
	landmark.LeftPupil,
	landmark.RightPupil,
	landmark.NasalBridgeCenter,
	landmark.LeftLensBottomEdge,
	landmark.RightLensBottomEdge,
}

// Session is one calibration + measurement pass over a single photo.
type Session struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Calibration landmark.Set         `json:"calibration_points"`
	Scale       *calibration.Data    `json:"calibration,omitempty"`
	Measurement landmark.Set         `json:"measurement_points"`
	Results     *measurement.Results `json:"results,omitempty"`
}

// New creates an empty session.
func New(id string, now time.Time) Session {
	return Session{ID: id, CreatedAt: now, UpdatedAt: now}
}

// Calibrated reports whether calibration has been completed.
func (s *Session) Calibrated() bool {
	return s.Scale != nil
}

// Stage derives the session's progress from its data.
func (s *Session) Stage() Stage {
	switch {
	case s.Scale == nil:
		return StageCalibration
	case s.Results == nil:
		return StageMeasurement
	default:
		return StageComplete
	}
}

// NextLandmark returns the first landmark of the current stage that has not
// been marked. ok is false when nothing is left to mark.
func (s *Session) NextLandmark() (next landmark.Type, ok bool) {
	for _, t := range markingOrder {
		switch t.Stage() {
		case landmark.StageCalibration:
			if !s.Calibration.Has(t) {
				return t, true
			}
		case landmark.StageMeasurement:
			if !s.Calibrated() {
				return 0, false
			}
			if !s.Measurement.Has(t) {
				return t, true
			}
		}
	}
	return 0, false
}

// ResetCalibration discards card points and everything derived from them.
func (s *Session) ResetCalibration() {
	s.Calibration = landmark.Set{}
	s.Scale = nil
	s.Results = nil
}

// ResetMeasurement discards measurement points and results.
func (s *Session) ResetMeasurement() {
	s.Measurement = landmark.Set{}
	s.Results = nil
}

// Clone returns a deep copy of the session.
func (s *Session) Clone() Session {
	c := *s
	if s.Scale != nil {
		scale := *s.Scale
		c.Scale = &scale
	}
	if s.Results != nil {
		res := *s.Results
		c.Results = &res
	}
	return c
}
