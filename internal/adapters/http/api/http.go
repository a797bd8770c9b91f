// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/okian/lensfit/internal/adapters/repository"
	service "github.com/okian/lensfit/internal/app"
	"github.com/okian/lensfit/internal/domain/calibration"
	"github.com/okian/lensfit/internal/domain/geometry"
	"github.com/okian/lensfit/internal/domain/landmark"
	"github.com/okian/lensfit/internal/domain/measurement"
	"github.com/okian/lensfit/internal/domain/model"
	"github.com/okian/lensfit/pkg/logger"
)

// ComputeDependencies are the stateless calibration and measurement operations.
type ComputeDependencies interface {
	Calibrate(ctx context.Context, left, right geometry.Point) (calibration.Data, error)
	Measure(ctx context.Context, scale float64, points []landmark.Point) (measurement.Results, error)
}

// SessionDependencies drive the stored fitting workflow.
type SessionDependencies interface {
	CreateSession(ctx context.Context) (model.Session, error)
	GetSession(ctx context.Context, id string) (model.Session, error)
	DeleteSession(ctx context.Context, id string) error
	MarkCalibrationPoint(ctx context.Context, id string, t landmark.Type, at geometry.Point, label string) (model.Session, error)
	ResetCalibration(ctx context.Context, id string) (model.Session, error)
	CompleteCalibration(ctx context.Context, id string) (model.Session, error)
	MarkMeasurementPoint(ctx context.Context, id string, t landmark.Type, at geometry.Point, label string) (model.Session, error)
	ResetMeasurement(ctx context.Context, id string) (model.Session, error)
	ComputeMeasurements(ctx context.Context, id string) (model.Session, error)
}

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	ComputeDependencies
	SessionDependencies
	StatsProvider
}

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler   *HealthHandler
	statsHandler    *StatsHandler
	computeHandler  *ComputeHandler
	sessionsHandler *SessionsHandler

	limiter      *rateLimiter
	maxBodyBytes int64
	log          logger.Logger
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, opts ...Option) *Server {
	s := &Server{maxBodyBytes: defaultMaxBodyBytes}
	for _, opt := range opts {
		opt(s)
	}
	if s.log == nil {
		s.log = logger.Named("api")
	}

	v := newValidator()
	s.healthHandler = NewHealthHandler()
	s.statsHandler = NewStatsHandler(deps)
	s.computeHandler = NewComputeHandler(deps, v, s.log)
	s.sessionsHandler = NewSessionsHandler(deps, v, s.log)
	return s
}

// Register attaches all HTTP routes to serveMux. Versioned routes are served
// by a gorilla/mux router mounted under /v1/.
func (s *Server) Register(_ context.Context, serveMux *http.ServeMux) {
	serveMux.HandleFunc("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	serveMux.HandleFunc("/stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))
	serveMux.Handle("/v1/", s.Router())
}

// Router builds the /v1 router.
func (s *Server) Router() *mux.Router {
	r := mux.NewRouter()
	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		writeError(w, http.StatusNotFound, "not_found", NewKind("api.route", ErrRouteNotFound))
	})
	r.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", NewKind("api.route", ErrMethodNotAllowed))
	})

	v1 := r.PathPrefix("/v1").Subrouter()
	v1.Use(s.bodyLimit)
	if s.limiter != nil {
		v1.Use(s.limiter.Middleware)
	}

	route := func(path, name, method string, h http.HandlerFunc) {
		v1.HandleFunc(path, MetricsMiddleware(h, name)).Methods(method).Name(name)
	}

	c, sh := s.computeHandler, s.sessionsHandler
	route("/calibrate", "calibrate", http.MethodPost, c.HandleCalibrate)
	route("/measure", "measure", http.MethodPost, c.HandleMeasure)

	route("/sessions", "sessions.create", http.MethodPost, sh.HandleCreate)
	route("/sessions/{id}", "sessions.get", http.MethodGet, sh.HandleGet)
	route("/sessions/{id}", "sessions.delete", http.MethodDelete, sh.HandleDelete)
	route("/sessions/{id}/calibration/points", "sessions.calibration.mark", http.MethodPut, sh.HandleMarkCalibration)
	route("/sessions/{id}/calibration", "sessions.calibration.reset", http.MethodDelete, sh.HandleResetCalibration)
	route("/sessions/{id}/calibration/complete", "sessions.calibration.complete", http.MethodPost, sh.HandleCompleteCalibration)
	route("/sessions/{id}/measurement/points", "sessions.measurement.mark", http.MethodPut, sh.HandleMarkMeasurement)
	route("/sessions/{id}/measurement", "sessions.measurement.reset", http.MethodDelete, sh.HandleResetMeasurement)
	route("/sessions/{id}/measurement/compute", "sessions.measurement.compute", http.MethodPost, sh.HandleCompute)

	return r
}

func (s *Server) bodyLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, s.maxBodyBytes)
		next.ServeHTTP(w, r)
	})
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

// statusFor maps a workflow error to an HTTP status and error code.
func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, ErrBadRequest),
		errors.Is(err, landmark.ErrUnknownType),
		errors.Is(err, service.ErrInvalidPoint):
		return http.StatusBadRequest, "bad_request"
	case errors.Is(err, ErrPayloadTooLarge):
		return http.StatusRequestEntityTooLarge, "payload_too_large"
	case errors.Is(err, repository.ErrNotFound):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, service.ErrWrongStage):
		return http.StatusConflict, "wrong_stage"
	case errors.Is(err, service.ErrCalibrationLocked):
		return http.StatusConflict, "calibration_locked"
	case errors.Is(err, service.ErrNotCalibrated):
		return http.StatusConflict, "not_calibrated"
	case errors.Is(err, calibration.ErrIncompleteCalibration),
		errors.Is(err, measurement.ErrIncompleteMeasurement):
		return http.StatusUnprocessableEntity, "incomplete"
	case errors.Is(err, calibration.ErrDegenerateCalibration),
		errors.Is(err, measurement.ErrDegenerateCalibration):
		return http.StatusUnprocessableEntity, "degenerate_calibration"
	case errors.Is(err, ErrRateLimited):
		return http.StatusTooManyRequests, "rate_limited"
	case errors.Is(err, service.ErrNotStarted),
		errors.Is(err, repository.ErrClosed):
		return http.StatusServiceUnavailable, "unavailable"
	default:
		return http.StatusInternalServerError, "internal_error"
	}
}

// fail writes err with its mapped status, logging server-side failures.
func fail(ctx context.Context, log logger.Logger, w http.ResponseWriter, op string, err error) {
	status, code := statusFor(err)
	if status >= http.StatusInternalServerError {
		log.Error(ctx, "request failed", logger.String("op", op), logger.Error(err))
	}
	writeError(w, status, code, Wrap(op, err))
}
