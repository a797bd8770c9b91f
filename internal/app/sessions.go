package service

import (
	"context"
	"fmt"

	"github.com/okian/lensfit/internal/domain/calibration"
	"github.com/okian/lensfit/internal/domain/geometry"
	"github.com/okian/lensfit/internal/domain/landmark"
	"github.com/okian/lensfit/internal/domain/measurement"
	"github.com/okian/lensfit/internal/domain/model"
	"github.com/okian/lensfit/pkg/logger"
	"github.com/okian/lensfit/pkg/metrics"
)

// CreateSession starts a new fitting session in the calibration stage.
func (s *Service) CreateSession(ctx context.Context) (model.Session, error) {
	store, err := s.sessions()
	if err != nil {
		return model.Session{}, err
	}

	session := model.New(s.newSessionID(), s.now().UTC())
	if err := store.Create(ctx, session); err != nil {
		return model.Session{}, fmt.Errorf("create session: %w", err)
	}

	metrics.RecordSessionCreated()
	s.logger.Info(ctx, "session created", logger.String("session", session.ID))
	return session, nil
}

// GetSession returns the session with the given ID.
func (s *Service) GetSession(ctx context.Context, id string) (model.Session, error) {
	store, err := s.sessions()
	if err != nil {
		return model.Session{}, err
	}
	return store.Get(ctx, id)
}

// DeleteSession discards a session.
func (s *Service) DeleteSession(ctx context.Context, id string) error {
	store, err := s.sessions()
	if err != nil {
		return err
	}

	unlock := s.lockSession(id)
	defer unlock()

	if err := store.Delete(ctx, id); err != nil {
		return err
	}
	s.logger.Info(ctx, "session deleted", logger.String("session", id))
	return nil
}

// MarkCalibrationPoint records a card edge on the session, replacing an
// earlier mark of the same type. It fails with ErrCalibrationLocked once
// calibration has been completed.
func (s *Service) MarkCalibrationPoint(ctx context.Context, id string, t landmark.Type, at geometry.Point, label string) (model.Session, error) {
	if err := checkPoint(t, at, landmark.StageCalibration); err != nil {
		return model.Session{}, err
	}

	return s.update(ctx, id, func(session *model.Session) error {
		if session.Calibrated() {
			return ErrCalibrationLocked
		}
		replaced := session.Calibration.Add(landmark.New(s.newLandmarkID(), t, at, label))
		metrics.RecordLandmarkMarked(t.String(), replaced)
		s.logger.Debug(ctx, "calibration point marked",
			logger.String("session", id),
			logger.String("type", t.String()),
			logger.Bool("replaced", replaced),
		)
		return nil
	})
}

// ResetCalibration discards the card points, the scale and any results.
func (s *Service) ResetCalibration(ctx context.Context, id string) (model.Session, error) {
	return s.update(ctx, id, func(session *model.Session) error {
		session.ResetCalibration()
		s.logger.Debug(ctx, "calibration reset", logger.String("session", id))
		return nil
	})
}

// CompleteCalibration derives the scale from both card edges. Completing an
// already calibrated session is a no-op.
func (s *Service) CompleteCalibration(ctx context.Context, id string) (model.Session, error) {
	return s.update(ctx, id, func(session *model.Session) error {
		if session.Calibrated() {
			return nil
		}

		cal, err := calibration.FromSet(session.Calibration, calibration.WithReferenceWidth(s.referenceWidthMM))
		metrics.RecordCalibration(outcome(err), cal.PixelsPerMM)
		if err != nil {
			s.logger.Info(ctx, "calibration rejected", logger.String("session", id), logger.Error(err))
			return err
		}

		session.Scale = &cal
		s.logger.Info(ctx, "calibration completed",
			logger.String("session", id),
			logger.Float64("pixelsPerMM", cal.PixelsPerMM),
		)
		return nil
	})
}

// MarkMeasurementPoint records a face or frame landmark, replacing an earlier
// mark of the same type and invalidating computed results.
func (s *Service) MarkMeasurementPoint(ctx context.Context, id string, t landmark.Type, at geometry.Point, label string) (model.Session, error) {
	if err := checkPoint(t, at, landmark.StageMeasurement); err != nil {
		return model.Session{}, err
	}

	return s.update(ctx, id, func(session *model.Session) error {
		if !session.Calibrated() {
			return ErrNotCalibrated
		}
		replaced := session.Measurement.Add(landmark.New(s.newLandmarkID(), t, at, label))
		session.Results = nil
		metrics.RecordLandmarkMarked(t.String(), replaced)
		s.logger.Debug(ctx, "measurement point marked",
			logger.String("session", id),
			logger.String("type", t.String()),
			logger.Bool("replaced", replaced),
		)
		return nil
	})
}

// ResetMeasurement discards the measurement points and results.
func (s *Service) ResetMeasurement(ctx context.Context, id string) (model.Session, error) {
	return s.update(ctx, id, func(session *model.Session) error {
		session.ResetMeasurement()
		s.logger.Debug(ctx, "measurement reset", logger.String("session", id))
		return nil
	})
}

// ComputeMeasurements runs the measurement engine over the session's points
// and stores the results.
func (s *Service) ComputeMeasurements(ctx context.Context, id string) (model.Session, error) {
	return s.update(ctx, id, func(session *model.Session) error {
		if !session.Calibrated() {
			return ErrNotCalibrated
		}

		res, err := measurement.CalculateSet(session.Measurement, *session.Scale)
		metrics.RecordMeasurement(outcome(err))
		if err != nil {
			s.logger.Info(ctx, "measurement rejected", logger.String("session", id), logger.Error(err))
			return err
		}

		metrics.RecordMeasurementValues(res.Named())
		session.Results = &res
		s.logger.Info(ctx, "measurements computed",
			logger.String("session", id),
			logger.Float64("dp", res.DP),
			logger.Float64("dpnLeft", res.DPNLeft),
			logger.Float64("dpnRight", res.DPNRight),
			logger.Float64("heightLeft", res.HeightLeft),
			logger.Float64("heightRight", res.HeightRight),
		)
		return nil
	})
}

// update loads a session under its lock, applies fn and saves the result.
// Nothing is saved when fn fails.
func (s *Service) update(ctx context.Context, id string, fn func(*model.Session) error) (model.Session, error) {
	store, err := s.sessions()
	if err != nil {
		return model.Session{}, err
	}

	unlock := s.lockSession(id)
	defer unlock()

	session, err := store.Get(ctx, id)
	if err != nil {
		return model.Session{}, err
	}
	if err := fn(&session); err != nil {
		return model.Session{}, err
	}

	session.UpdatedAt = s.now().UTC()
	if err := store.Save(ctx, session); err != nil {
		return model.Session{}, fmt.Errorf("save session %s: %w", id, err)
	}
	return session, nil
}

// checkPoint validates a landmark type against the stage it is marked in.
func checkPoint(t landmark.Type, at geometry.Point, stage landmark.Stage) error {
	if !t.Valid() {
		return landmark.ErrUnknownType
	}
	if t.Stage() != stage {
		return fmt.Errorf("%w: %s is a %s landmark", ErrWrongStage, t, t.Stage())
	}
	if !at.IsFinite() {
		return ErrInvalidPoint
	}
	return nil
}
