package fitclient

import (
	"fmt"
	"math"
)

const (
	// Results are rounded to one decimal on both sides, so they must match exactly
	// up to float noise.
	resultTolerance = 1e-9
	scaleTolerance  = 1e-9
)

// verify lists every difference between the local results, the server's
// results and the scenario's expected values.
func verify(sc *Scenario, r *Report) []string {
	mismatches := r.Mismatches
	mismatches = append(mismatches, compare("measure", r.Stateless, r.Local)...)
	mismatches = append(mismatches, compare("session", r.Session, r.Local)...)
	if sc.Expected != nil {
		mismatches = append(mismatches, compare("expected", r.Local, *sc.Expected)...)
	}
	return mismatches
}

func compare(source string, got, want Expected) []string {
	fields := []struct {
		name      string
		got, want float64
	}{
		{"dp", got.DP, want.DP},
		{"dpn_left", got.DPNLeft, want.DPNLeft},
		{"dpn_right", got.DPNRight, want.DPNRight},
		{"height_left", got.HeightLeft, want.HeightLeft},
		{"height_right", got.HeightRight, want.HeightRight},
	}

	var out []string
	for _, f := range fields {
		if !closeTo(f.got, f.want, resultTolerance) {
			out = append(out, fmt.Sprintf("%s: %s %v, want %v", source, f.name, f.got, f.want))
		}
	}
	return out
}

func closeTo(a, b, tol float64) bool {
	return math.Abs(a-b) <= tol*math.Max(1, math.Max(math.Abs(a), math.Abs(b)))
}
