// Package types contains the wire shapes shared by the service and HTTP layers.
package types

import (
	"time"

	"github.com/okian/lensfit/internal/domain/calibration"
	"github.com/okian/lensfit/internal/domain/landmark"
	"github.com/okian/lensfit/internal/domain/measurement"
	"github.com/okian/lensfit/internal/domain/model"
)

// Landmark is a marked point as returned to clients.
type Landmark struct {
	ID    string  `json:"id"`
	Type  string  `json:"type"`
	Label string  `json:"label"`
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
}

// Calibration is the client view of a completed calibration.
type Calibration struct {
	PixelsPerMM      float64  `json:"pixels_per_mm"`
	ReferenceWidthMM float64  `json:"reference_width_mm"`
	CardLeft         Landmark `json:"card_left"`
	CardRight        Landmark `json:"card_right"`
}

// Results mirrors measurement.Results.
type Results = measurement.Results

// Session is the client view of a fitting session.
type Session struct {
	ID                string       `json:"id"`
	Stage             string       `json:"stage"`
	NextLandmark      string       `json:"next_landmark,omitempty"`
	CreatedAt         time.Time    `json:"created_at"`
	UpdatedAt         time.Time    `json:"updated_at"`
	CalibrationPoints []Landmark   `json:"calibration_points"`
	Calibration       *Calibration `json:"calibration,omitempty"`
	MeasurementPoints []Landmark   `json:"measurement_points"`
	Results           *Results     `json:"results,omitempty"`
}

// FromLandmark converts a domain landmark point.
func FromLandmark(p landmark.Point) Landmark {
	return Landmark{ID: p.ID, Type: p.Type.String(), Label: p.Label, X: p.X, Y: p.Y}
}

// FromLandmarks converts a slice of domain landmark points.
func FromLandmarks(points []landmark.Point) []Landmark {
	out := make([]Landmark, len(points))
	for i, p := range points {
		out[i] = FromLandmark(p)
	}
	return out
}

// FromCalibration converts a domain calibration.
func FromCalibration(d calibration.Data) Calibration {
	return Calibration{
		PixelsPerMM:      d.PixelsPerMM,
		ReferenceWidthMM: d.ReferenceWidthMM,
		CardLeft:         FromLandmark(d.CardLeft),
		CardRight:        FromLandmark(d.CardRight),
	}
}

// FromSession converts a domain session.
func FromSession(s model.Session) Session {
	out := Session{
		ID:                s.ID,
		Stage:             string(s.Stage()),
		CreatedAt:         s.CreatedAt,
		UpdatedAt:         s.UpdatedAt,
		CalibrationPoints: FromLandmarks(s.Calibration.Points()),
		MeasurementPoints: FromLandmarks(s.Measurement.Points()),
	}
	if next, ok := s.NextLandmark(); ok {
		out.NextLandmark = next.String()
	}
	if s.Scale != nil {
		c := FromCalibration(*s.Scale)
		out.Calibration = &c
	}
	if s.Results != nil {
		r := *s.Results
		out.Results = &r
	}
	return out
}
