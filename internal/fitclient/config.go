package fitclient

import "time"

// Config holds configuration for a scenario run.
type Config struct {
	BaseURL      string        // Base URL of the service
	ScenarioFile string        // YAML scenario; empty runs the seed scenario
	Timeout      time.Duration // HTTP request timeout
	Verbose      bool          // Enable debug logging
}

// Coordinate is an image position in pixels.
type Coordinate struct {
	X float64 `yaml:"x" json:"x"`
	Y float64 `yaml:"y" json:"y"`
}

// Expected holds optional reference results for a scenario.
type Expected struct {
	DP          float64 `yaml:"dp"`
	DPNLeft     float64 `yaml:"dpn_left"`
	DPNRight    float64 `yaml:"dpn_right"`
	HeightLeft  float64 `yaml:"height_left"`
	HeightRight float64 `yaml:"height_right"`
}

// Scenario is a recorded set of landmarks to replay against the service.
// Calibration and Measurement are keyed by landmark wire name.
type Scenario struct {
	Name             string                `yaml:"name"`
	ReferenceWidthMM float64               `yaml:"reference_width_mm"`
	Calibration      map[string]Coordinate `yaml:"calibration"`
	Measurement      map[string]Coordinate `yaml:"measurement"`
	Expected         *Expected             `yaml:"expected"`
}

// Report summarises one scenario run.
type Report struct {
	Scenario    string
	SessionID   string
	PixelsPerMM float64
	Local       Expected
	Stateless   Expected
	Session     Expected
	Mismatches  []string
	Duration    time.Duration
}
