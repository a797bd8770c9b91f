package fitclient

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/okian/lensfit/internal/domain/landmark"
	"github.com/okian/lensfit/internal/domain/types"
	"github.com/okian/lensfit/pkg/logger"
)

// Run replays the configured scenario against the service through both the
// stateless endpoints and a fitting session, and compares every result with
// the local computation. It returns ErrMismatch when any value differs.
func Run(ctx context.Context, config *Config) (*Report, error) {
	sc := SeedScenario()
	if config.ScenarioFile != "" {
		var err error
		if sc, err = LoadScenario(config.ScenarioFile); err != nil {
			return nil, err
		}
	}
	return RunScenario(ctx, config, sc)
}

// RunScenario is Run for an already loaded scenario.
func RunScenario(ctx context.Context, config *Config, sc *Scenario) (*Report, error) {
	log := logger.Named("fitclient")
	start := time.Now()

	if err := sc.Validate(); err != nil {
		return nil, err
	}
	cal, local, err := sc.Compute()
	if err != nil {
		return nil, fmt.Errorf("local computation failed: %w", err)
	}

	report := &Report{
		Scenario:    sc.Name,
		PixelsPerMM: cal.PixelsPerMM,
		Local:       fromResults(local),
	}
	log.Info(ctx, "running scenario",
		logger.String("scenario", sc.Name),
		logger.String("baseURL", config.BaseURL),
		logger.Float64("pixelsPerMM", cal.PixelsPerMM))

	c := newAPIClient(config.BaseURL, config.Timeout)

	// Step 1: Check service health
	if err := c.do(ctx, http.MethodGet, "/healthz", nil, http.StatusOK, nil); err != nil {
		return nil, fmt.Errorf("service health check failed: %w", err)
	}

	// Step 2: Stateless calibration and measurement
	if err := runStateless(ctx, c, sc, report); err != nil {
		return nil, err
	}
	log.Debug(ctx, "stateless endpoints done", logger.Any("results", report.Stateless))

	// Step 3: Step-by-step session
	if err := runSession(ctx, c, sc, report); err != nil {
		return nil, err
	}
	log.Debug(ctx, "session done", logger.String("session", report.SessionID), logger.Any("results", report.Session))

	// Step 4: Verify
	report.Mismatches = verify(sc, report)
	report.Duration = time.Since(start)
	displayReport(ctx, log, report)

	if len(report.Mismatches) > 0 {
		return report, fmt.Errorf("%w: %v", ErrMismatch, report.Mismatches)
	}
	return report, nil
}

func runStateless(ctx context.Context, c *apiClient, sc *Scenario, report *Report) error {
	var cal types.Calibration
	body := calibrateBody{
		CardLeft:  sc.Calibration[landmark.CardLeftEdge.String()],
		CardRight: sc.Calibration[landmark.CardRightEdge.String()],
	}
	if err := c.do(ctx, http.MethodPost, "/v1/calibrate", body, http.StatusOK, &cal); err != nil {
		return fmt.Errorf("calibrate failed: %w", err)
	}
	if !closeTo(cal.PixelsPerMM, report.PixelsPerMM, scaleTolerance) {
		report.Mismatches = append(report.Mismatches,
			fmt.Sprintf("calibrate: pixels_per_mm %v, want %v", cal.PixelsPerMM, report.PixelsPerMM))
	}

	measure := measureBody{PixelsPerMM: cal.PixelsPerMM}
	for _, p := range sc.MeasurementPoints() {
		measure.Points = append(measure.Points, pointBody{Type: p.Type.String(), X: p.X, Y: p.Y})
	}
	var res types.Results
	if err := c.do(ctx, http.MethodPost, "/v1/measure", measure, http.StatusOK, &res); err != nil {
		return fmt.Errorf("measure failed: %w", err)
	}
	report.Stateless = fromResults(res)
	return nil
}

func runSession(ctx context.Context, c *apiClient, sc *Scenario, report *Report) error {
	var s types.Session
	if err := c.do(ctx, http.MethodPost, "/v1/sessions", nil, http.StatusCreated, &s); err != nil {
		return fmt.Errorf("create session failed: %w", err)
	}
	report.SessionID = s.ID
	base := "/v1/sessions/" + s.ID
	defer func() {
		if err := c.do(context.WithoutCancel(ctx), http.MethodDelete, base, nil, http.StatusNoContent, nil); err != nil {
			logger.Get().Warn(ctx, "failed to delete session", logger.String("session", s.ID), logger.Error(err))
		}
	}()

	mark := func(stage string, points []landmark.Point) error {
		for _, p := range points {
			body := pointBody{Type: p.Type.String(), X: p.X, Y: p.Y}
			if err := c.do(ctx, http.MethodPut, base+"/"+stage+"/points", body, http.StatusOK, &s); err != nil {
				return fmt.Errorf("mark %s failed: %w", p.Type, err)
			}
		}
		return nil
	}

	if err := mark("calibration", sc.CalibrationPoints()); err != nil {
		return err
	}
	if err := c.do(ctx, http.MethodPost, base+"/calibration/complete", nil, http.StatusOK, &s); err != nil {
		return fmt.Errorf("complete calibration failed: %w", err)
	}
	if err := mark("measurement", sc.MeasurementPoints()); err != nil {
		return err
	}
	if err := c.do(ctx, http.MethodPost, base+"/measurement/compute", nil, http.StatusOK, &s); err != nil {
		return fmt.Errorf("compute failed: %w", err)
	}
	if s.Results == nil {
		return fmt.Errorf("%w: session %s has no results after compute", ErrUnexpectedStatus, s.ID)
	}
	report.Session = fromResults(*s.Results)
	return nil
}

func displayReport(ctx context.Context, log logger.Logger, r *Report) {
	log.Info(ctx, "scenario results",
		logger.String("scenario", r.Scenario),
		logger.String("session", r.SessionID),
		logger.Float64("dp", r.Session.DP),
		logger.Float64("dpnLeft", r.Session.DPNLeft),
		logger.Float64("dpnRight", r.Session.DPNRight),
		logger.Float64("heightLeft", r.Session.HeightLeft),
		logger.Float64("heightRight", r.Session.HeightRight),
		logger.Int("mismatches", len(r.Mismatches)),
		logger.String("duration", r.Duration.String()))
}
