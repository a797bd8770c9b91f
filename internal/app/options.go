package service

import (
	"time"

	"github.com/okian/lensfit/internal/adapters/repository"
	"github.com/okian/lensfit/internal/domain/calibration"
	"github.com/okian/lensfit/pkg/logger"
)

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithStore sets the session store. The service closes it on Stop. Without
// it Start creates an in-memory store from the WithStoreOptions options.
func WithStore(store repository.Store) Option {
	return func(s *Service) {
		if store != nil {
			s.store = store
		}
	}
}

// WithStoreOptions configures the in-memory store created by Start.
func WithStoreOptions(opts ...repository.Option) Option {
	return func(s *Service) {
		s.storeOpts = append(s.storeOpts, opts...)
	}
}

// WithReferenceWidth sets the physical width in millimeters of the
// calibration object. Values that are not positive and finite are ignored.
func WithReferenceWidth(widthMM float64) Option {
	return func(s *Service) {
		if calibration.ValidScale(widthMM) {
			s.referenceWidthMM = widthMM
		}
	}
}

// WithClock replaces time.Now for session timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// WithIDGenerators replaces the session and landmark ID generators.
func WithIDGenerators(sessionID, landmarkID func() string) Option {
	return func(s *Service) {
		if sessionID != nil {
			s.newSessionID = sessionID
		}
		if landmarkID != nil {
			s.newLandmarkID = landmarkID
		}
	}
}
