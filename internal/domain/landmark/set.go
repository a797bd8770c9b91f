package landmark

import (
	"encoding/json"
)

// Set holds at most one point per landmark type. Adding a point replaces any
// prior point of the same type.
//
// Set is a value type; copies are independent.
type Set struct {
	slots   [typeCount]Point
	present [typeCount]bool
}

// NewSet builds a Set from points in order; later points of a type replace
// earlier ones. Points with an invalid type are ignored.
func NewSet(points ...Point) Set {
	var s Set
	for _, p := range points {
		s.Add(p)
	}
	return s
}

// Add stores p, replacing any point of the same type. It reports whether a
// previous point was replaced. Points with an invalid type are ignored.
func (s *Set) Add(p Point) (replaced bool) {
	if !p.Type.Valid() {
		return false
	}
	replaced = s.present[p.Type]
	s.slots[p.Type] = p
	s.present[p.Type] = true
	return replaced
}

// Get returns the point of type t, if present.
func (s Set) Get(t Type) (Point, bool) {
	if !t.Valid() || !s.present[t] {
		return Point{}, false
	}
	return s.slots[t], true
}

// Has reports whether every given type is present.
func (s Set) Has(ts ...Type) bool {
	for _, t := range ts {
		if !t.Valid() || !s.present[t] {
			return false
		}
	}
	return true
}

// Missing returns the given types that are absent, in the order given.
func (s Set) Missing(ts ...Type) []Type {
	var missing []Type
	for _, t := range ts {
		if !s.Has(t) {
			missing = append(missing, t)
		}
	}
	return missing
}

// Remove deletes the point of type t and reports whether one was present.
func (s *Set) Remove(t Type) bool {
	if !t.Valid() || !s.present[t] {
		return false
	}
	s.slots[t] = Point{}
	s.present[t] = false
	return true
}

// RemoveStage deletes every point whose type belongs to stage.
func (s *Set) RemoveStage(stage Stage) {
	for i := range s.slots {
		if Type(i).Stage() == stage {
			s.Remove(Type(i))
		}
	}
}

// Len returns the number of points held.
func (s Set) Len() int {
	n := 0
	for _, ok := range s.present {
		if ok {
			n++
		}
	}
	return n
}

// Points returns the held points in canonical type order.
func (s Set) Points() []Point {
	out := make([]Point, 0, typeCount)
	for i, ok := range s.present {
		if ok {
			out = append(out, s.slots[i])
		}
	}
	return out
}

// HasCalibrationPoints reports whether both card edges are present.
func (s Set) HasCalibrationPoints() bool { return s.Has(CalibrationTypes...) }

// HasMeasurementPoints reports whether all five measurement landmarks are present.
func (s Set) HasMeasurementPoints() bool { return s.Has(MeasurementTypes...) }

// MarshalJSON encodes the set as an array of points.
func (s Set) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.Points())
}

// UnmarshalJSON decodes an array of points, applying replace-on-add.
func (s *Set) UnmarshalJSON(b []byte) error {
	var points []Point
	if err := json.Unmarshal(b, &points); err != nil {
		return err
	}
	*s = NewSet(points...)
	return nil
}
