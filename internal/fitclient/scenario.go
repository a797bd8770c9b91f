package fitclient

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/okian/lensfit/internal/domain/calibration"
	"github.com/okian/lensfit/internal/domain/geometry"
	"github.com/okian/lensfit/internal/domain/landmark"
	"github.com/okian/lensfit/internal/domain/measurement"
)

// SeedScenario returns the reference scenario: a 300 px wide card and a
// symmetric face whose results are DP 57.1, DPN 28.5 and heights 22.8.
func SeedScenario() *Scenario {
	return &Scenario{
		Name:             "seed",
		ReferenceWidthMM: geometry.CardWidthMM,
		Calibration: map[string]Coordinate{
			"card_left":  {X: 100, Y: 500},
			"card_right": {X: 400, Y: 500},
		},
		Measurement: map[string]Coordinate{
			"left_pupil":        {X: 150, Y: 300},
			"right_pupil":       {X: 350, Y: 300},
			"bridge_center":     {X: 250, Y: 290},
			"left_lens_bottom":  {X: 150, Y: 380},
			"right_lens_bottom": {X: 350, Y: 380},
		},
		Expected: &Expected{DP: 57.1, DPNLeft: 28.5, DPNRight: 28.5, HeightLeft: 22.8, HeightRight: 22.8},
	}
}

// LoadScenario reads and validates a YAML scenario file. A missing
// reference width defaults to the standard card.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scenario: %w", err)
	}

	var sc Scenario
	if err := yaml.Unmarshal(data, &sc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidScenario, err)
	}
	if sc.ReferenceWidthMM == 0 {
		sc.ReferenceWidthMM = geometry.CardWidthMM
	}
	if sc.Name == "" {
		sc.Name = path
	}
	if err := sc.Validate(); err != nil {
		return nil, err
	}
	return &sc, nil
}

// Validate checks that every landmark name is known, belongs to its stage,
// and that both stages are complete.
func (s *Scenario) Validate() error {
	cal, err := points(s.Calibration, landmark.StageCalibration)
	if err != nil {
		return err
	}
	meas, err := points(s.Measurement, landmark.StageMeasurement)
	if err != nil {
		return err
	}
	if !landmark.HasCalibrationPoints(cal) {
		return fmt.Errorf("%w: calibration needs card_left and card_right", ErrInvalidScenario)
	}
	if !landmark.HasMeasurementPoints(meas) {
		return fmt.Errorf("%w: measurement needs all five facial landmarks", ErrInvalidScenario)
	}
	if !calibration.ValidScale(s.ReferenceWidthMM) {
		return fmt.Errorf("%w: reference width must be positive", ErrInvalidScenario)
	}
	return nil
}

// CalibrationPoints returns the card edges in marking order.
func (s *Scenario) CalibrationPoints() []landmark.Point {
	p, _ := points(s.Calibration, landmark.StageCalibration)
	return p
}

// MeasurementPoints returns the facial landmarks in marking order.
func (s *Scenario) MeasurementPoints() []landmark.Point {
	p, _ := points(s.Measurement, landmark.StageMeasurement)
	return p
}

// Compute runs the scenario through the local domain code.
func (s *Scenario) Compute() (calibration.Data, measurement.Results, error) {
	cal := s.CalibrationPoints()
	if len(cal) != 2 {
		return calibration.Data{}, measurement.Results{}, fmt.Errorf("%w: calibration needs card_left and card_right", ErrInvalidScenario)
	}
	data, err := calibration.New(cal[0], cal[1], calibration.WithReferenceWidth(s.ReferenceWidthMM))
	if err != nil {
		return calibration.Data{}, measurement.Results{}, err
	}
	res, err := measurement.Calculate(s.MeasurementPoints(), data)
	return data, res, err
}

// points converts coords to landmark points ordered by type.
func points(coords map[string]Coordinate, stage landmark.Stage) ([]landmark.Point, error) {
	for name := range coords {
		t, err := landmark.ParseType(name)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidScenario, err)
		}
		if t.Stage() != stage {
			return nil, fmt.Errorf("%w: %s is not a %s landmark", ErrInvalidScenario, name, stage)
		}
	}

	out := make([]landmark.Point, 0, len(coords))
	for _, t := range landmark.AllTypes() {
		c, ok := coords[t.String()]
		if !ok {
			continue
		}
		out = append(out, landmark.New("", t, geometry.NewPoint(c.X, c.Y), ""))
	}
	return out, nil
}

func fromResults(r measurement.Results) Expected {
	return Expected{
		DP:          r.DP,
		DPNLeft:     r.DPNLeft,
		DPNRight:    r.DPNRight,
		HeightLeft:  r.HeightLeft,
		HeightRight: r.HeightRight,
	}
}
