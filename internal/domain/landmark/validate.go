package landmark

// HasCalibrationPoints reports whether points contain at least one point of
// each card-edge type. It does not check that the edges are distinct.
func HasCalibrationPoints(points []Point) bool {
	return hasAll(points, CalibrationTypes)
}

// HasMeasurementPoints reports whether points contain at least one point of
// each of the five measurement types. Extra or duplicate points are ignored.
func HasMeasurementPoints(points []Point) bool {
	return hasAll(points, MeasurementTypes)
}

func hasAll(points []Point, required []Type) bool {
	var seen [typeCount]bool
	for _, p := range points {
		if p.Type.Valid() {
			seen[p.Type] = true
		}
	}
	for _, t := range required {
		if !seen[t] {
			return false
		}
	}
	return true
}
