package fitclient

import (
	"fmt"
	"os"

	"github.com/okian/lensfit/pkg/logger"
)

// SetupLogging initialises the logger, at debug level when verbose.
func SetupLogging(verbose bool) error {
	if err := logger.Init(); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	if verbose {
		return logger.SetLevelString("debug")
	}
	return nil
}

// ShowHelp prints usage information for the fit client.
func ShowHelp() {
	os.Stdout.WriteString(`lensfit Fit Client
==================

Replays a landmark scenario against a running lensfit service and checks the
service's calibration and measurements against a local computation.

Usage:
  go run ./cmd/fit-client [options]

Options:
  -url string
        Base URL of the service (default "http://localhost:9080")
  -scenario string
        YAML scenario file (default: built-in seed scenario)
  -timeout duration
        HTTP request timeout (default 10s)
  -verbose
        Enable verbose logging
  -help
        Show this help message

Scenario format:
  name: front-photo
  reference_width_mm: 85.6
  calibration:
    card_left: {x: 100, y: 500}
    card_right: {x: 400, y: 500}
  measurement:
    left_pupil: {x: 150, y: 300}
    right_pupil: {x: 350, y: 300}
    bridge_center: {x: 250, y: 290}
    left_lens_bottom: {x: 150, y: 380}
    right_lens_bottom: {x: 350, y: 380}
  expected:          # optional
    dp: 57.1
    dpn_left: 28.5
    dpn_right: 28.5
    height_left: 22.8
    height_right: 22.8
`)
}
