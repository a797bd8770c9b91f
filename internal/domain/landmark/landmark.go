// Package landmark defines the typed points a user marks on a photo and the
// completeness rules that gate calibration and measurement.
package landmark

import (
	"fmt"
	"strings"

	"github.com/okian/lensfit/internal/domain/geometry"
)

// Type identifies the semantic role of a marked point.
type Type uint8

// Landmark types in canonical marking order.
const (
	CardLeftEdge Type = iota
	CardRightEdge
	LeftPupil
	RightPupil
	NasalBridgeCenter
	LeftLensBottomEdge
	RightLensBottomEdge

	typeCount = int(RightLensBottomEdge) + 1
)

// Stage groups landmark types by the workflow step that marks them.
type Stage string

// Marking stages.
const (
	StageCalibration Stage = "calibration"
	StageMeasurement Stage = "measurement"
)

type typeInfo struct {
	name  string
	label string
	stage Stage
}

var types = [typeCount]typeInfo{
	CardLeftEdge:        {name: "card_left", label: "Card Left Edge", stage: StageCalibration},
	CardRightEdge:       {name: "card_right", label: "Card Right Edge", stage: StageCalibration},
	LeftPupil:           {name: "left_pupil", label: "Left Pupil", stage: StageMeasurement},
	RightPupil:          {name: "right_pupil", label: "Right Pupil", stage: StageMeasurement},
	NasalBridgeCenter:   {name: "bridge_center", label: "Bridge Center", stage: StageMeasurement},
	LeftLensBottomEdge:  {name: "left_lens_bottom", label: "Left Lens Bottom", stage: StageMeasurement},
	RightLensBottomEdge: {name: "right_lens_bottom", label: "Right Lens Bottom", stage: StageMeasurement},
}

// CalibrationTypes are the landmarks required to calibrate.
var CalibrationTypes = []Type{CardLeftEdge, CardRightEdge}

// MeasurementTypes are the landmarks required to compute measurements.
var MeasurementTypes = []Type{LeftPupil, RightPupil, NasalBridgeCenter, LeftLensBottomEdge, RightLensBottomEdge}

// AllTypes lists every landmark type in canonical marking order.
func AllTypes() []Type {
	all := make([]Type, typeCount)
	for i := range all {
		all[i] = Type(i)
	}
	return all
}

// Valid reports whether t is one of the declared landmark types.
func (t Type) Valid() bool { return int(t) < typeCount }

// String returns the wire name of t, e.g. "left_pupil".
func (t Type) String() string {
	if !t.Valid() {
		return fmt.Sprintf("landmark(%d)", t)
	}
	return types[t].name
}

// Label returns the default display label of t.
func (t Type) Label() string {
	if !t.Valid() {
		return ""
	}
	return types[t].label
}

// Stage returns the workflow step t belongs to.
func (t Type) Stage() Stage {
	if !t.Valid() {
		return ""
	}
	return types[t].stage
}

// ParseType parses a wire name (case-insensitive) into a Type.
func ParseType(s string) (Type, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	for i, info := range types {
		if info.name == name {
			return Type(i), nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownType, s)
}

// MarshalText implements encoding.TextMarshaler.
func (t Type) MarshalText() ([]byte, error) {
	if !t.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrUnknownType, t)
	}
	return []byte(t.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (t *Type) UnmarshalText(b []byte) error {
	parsed, err := ParseType(string(b))
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// Point is a geometry.Point tagged with an identifier, a type and a label.
type Point struct {
	geometry.Point
	ID    string `json:"id"`
	Type  Type   `json:"type"`
	Label string `json:"label"`
}

// New creates a landmark point. An empty label falls back to the type's
// default label.
func New(id string, t Type, at geometry.Point, label string) Point {
	if label == "" {
		label = t.Label()
	}
	return Point{Point: at, ID: id, Type: t, Label: label}
}
