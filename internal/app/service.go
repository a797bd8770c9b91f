// Package service provides the core fitting service that implements
// the dependencies required by the HTTP API.
package service

import (
	"context"
	"errors"
	"hash/fnv"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"

	"github.com/okian/lensfit/internal/adapters/repository"
	"github.com/okian/lensfit/internal/domain/calibration"
	"github.com/okian/lensfit/internal/domain/geometry"
	"github.com/okian/lensfit/internal/domain/landmark"
	"github.com/okian/lensfit/internal/domain/measurement"
	"github.com/okian/lensfit/pkg/logger"
	"github.com/okian/lensfit/pkg/metrics"
)

// lockStripes bounds the number of mutexes serializing per-session updates.
const lockStripes = 64

// Service implements the API dependencies for the fitting workflow.
type Service struct {
	mu sync.RWMutex

	store     repository.Store
	storeOpts []repository.Option

	// sessionLocks serialize read-modify-write cycles on one session.
	sessionLocks [lockStripes]sync.Mutex

	referenceWidthMM float64
	now              func() time.Time
	newSessionID     func() string
	newLandmarkID    func() string

	started bool
	logger  logger.Logger
}

// New constructs a new Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		referenceWidthMM: geometry.CardWidthMM,
		now:              time.Now,
		newSessionID:     func() string { return ulid.Make().String() },
		newLandmarkID:    uuid.NewString,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Start initializes the session store.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}

	if s.logger == nil {
		s.logger = logger.Get()
	}

	s.logger.Info(ctx, "starting fitting service...")

	if s.store == nil {
		s.store = repository.NewMemoryStore(ctx, s.storeOpts...)
		s.logger.Info(ctx, "using in-memory session store")
	}

	s.started = true
	s.logger.Info(ctx, "fitting service started",
		logger.Float64("referenceWidthMM", s.referenceWidthMM),
	)

	return nil
}

// Stop gracefully shuts down the service and closes the store.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}

	s.logger.Info(context.Background(), "stopping fitting service...")

	if s.store != nil {
		if err := s.store.Close(); err != nil {
			s.logger.Warn(context.Background(), "failed to close session store", logger.Error(err))
		}
		s.store = nil
	}

	s.started = false
	s.logger.Info(context.Background(), "fitting service stopped")
}

// sessions returns the store, or ErrNotStarted.
func (s *Service) sessions() (repository.Store, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.started {
		return nil, ErrNotStarted
	}
	return s.store, nil
}

// lockSession acquires the stripe guarding id and returns its unlock func.
func (s *Service) lockSession(id string) func() {
	h := fnv.New32a()
	_, _ = h.Write([]byte(id))
	m := &s.sessionLocks[h.Sum32()%lockStripes]
	m.Lock()
	return m.Unlock
}

// Calibrate computes a scale from two card edge positions without touching
// any session.
func (s *Service) Calibrate(ctx context.Context, left, right geometry.Point) (calibration.Data, error) {
	start := time.Now()
	defer recordLatency(start)

	cal, err := calibration.New(
		landmark.New(s.newLandmarkID(), landmark.CardLeftEdge, left, ""),
		landmark.New(s.newLandmarkID(), landmark.CardRightEdge, right, ""),
		calibration.WithReferenceWidth(s.referenceWidthMM),
	)
	metrics.RecordCalibration(outcome(err), cal.PixelsPerMM)
	if err != nil {
		s.log().Debug(ctx, "calibration rejected", logger.Error(err))
		return calibration.Data{}, err
	}

	s.log().Debug(ctx, "calibrated", logger.Float64("pixelsPerMM", cal.PixelsPerMM))
	return cal, nil
}

// Measure computes the five measurements from a scale and a point
// collection without touching any session. When a type occurs more than once
// the last occurrence wins.
func (s *Service) Measure(ctx context.Context, scale float64, points []landmark.Point) (measurement.Results, error) {
	start := time.Now()
	defer recordLatency(start)

	cal := calibration.Data{PixelsPerMM: scale, ReferenceWidthMM: s.referenceWidthMM}
	res, err := measurement.Calculate(points, cal)
	metrics.RecordMeasurement(outcome(err))
	if err != nil {
		s.log().Debug(ctx, "measurement rejected", logger.Error(err))
		return measurement.Results{}, err
	}

	metrics.RecordMeasurementValues(res.Named())
	return res, nil
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := map[string]interface{}{
		"started":          s.started,
		"referenceWidthMM": s.referenceWidthMM,
	}

	if s.started {
		active := s.store.Count(context.Background())
		stats["activeSessions"] = active
		metrics.UpdateSessionsActive(active)
	}

	return stats
}

// log returns the configured logger, falling back to the global one for
// stateless calls made before Start.
func (s *Service) log() logger.Logger {
	s.mu.RLock()
	l := s.logger
	s.mu.RUnlock()
	if l == nil {
		return logger.Get()
	}
	return l
}

func recordLatency(start time.Time) {
	metrics.RecordComputeLatency(float64(time.Since(start).Microseconds()) / 1000)
}

// outcome maps a workflow error to a metrics outcome label.
func outcome(err error) string {
	switch {
	case err == nil:
		return metrics.OutcomeSuccess
	case errors.Is(err, calibration.ErrIncompleteCalibration),
		errors.Is(err, measurement.ErrIncompleteMeasurement):
		return metrics.OutcomeIncomplete
	case errors.Is(err, calibration.ErrDegenerateCalibration),
		errors.Is(err, measurement.ErrDegenerateCalibration):
		return metrics.OutcomeDegenerate
	default:
		return metrics.OutcomeError
	}
}
