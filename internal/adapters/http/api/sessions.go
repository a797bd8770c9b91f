package api

import (
	"context"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/mux"

	"github.com/okian/lensfit/internal/domain/geometry"
	"github.com/okian/lensfit/internal/domain/landmark"
	"github.com/okian/lensfit/internal/domain/model"
	"github.com/okian/lensfit/internal/domain/types"
	"github.com/okian/lensfit/pkg/logger"
)

// SessionsHandler serves the /v1/sessions workflow.
type SessionsHandler struct {
	deps     SessionDependencies
	validate *validator.Validate
	log      logger.Logger
}

// NewSessionsHandler creates a new sessions handler.
func NewSessionsHandler(deps SessionDependencies, v *validator.Validate, log logger.Logger) *SessionsHandler {
	return &SessionsHandler{deps: deps, validate: v, log: log}
}

type sessionOp func(ctx context.Context, id string) (model.Session, error)

type markOp func(ctx context.Context, id string, t landmark.Type, at geometry.Point, label string) (model.Session, error)

// respond writes the session returned by fn or its error.
func (h *SessionsHandler) respond(w http.ResponseWriter, r *http.Request, op string, status int, fn sessionOp) {
	session, err := fn(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		fail(r.Context(), h.log, w, op, err)
		return
	}
	writeJSON(w, status, types.FromSession(session))
}

func (h *SessionsHandler) mark(w http.ResponseWriter, r *http.Request, op string, fn markOp) {
	var req pointRequest
	if err := decode(r, h.validate, &req); err != nil {
		fail(r.Context(), h.log, w, op, err)
		return
	}
	t, at, err := req.parse()
	if err != nil {
		fail(r.Context(), h.log, w, op, err)
		return
	}
	h.respond(w, r, op, http.StatusOK, func(ctx context.Context, id string) (model.Session, error) {
		return fn(ctx, id, t, at, req.Label)
	})
}

// HandleCreate handles POST /v1/sessions.
func (h *SessionsHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	const op = "api.create_session"
	session, err := h.deps.CreateSession(r.Context())
	if err != nil {
		fail(r.Context(), h.log, w, op, err)
		return
	}
	w.Header().Set("Location", "/v1/sessions/"+session.ID)
	writeJSON(w, http.StatusCreated, types.FromSession(session))
}

// HandleGet handles GET /v1/sessions/{id}.
func (h *SessionsHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	h.respond(w, r, "api.get_session", http.StatusOK, h.deps.GetSession)
}

// HandleDelete handles DELETE /v1/sessions/{id}.
func (h *SessionsHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	const op = "api.delete_session"
	if err := h.deps.DeleteSession(r.Context(), mux.Vars(r)["id"]); err != nil {
		fail(r.Context(), h.log, w, op, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleMarkCalibration handles PUT /v1/sessions/{id}/calibration/points.
func (h *SessionsHandler) HandleMarkCalibration(w http.ResponseWriter, r *http.Request) {
	h.mark(w, r, "api.mark_calibration_point", h.deps.MarkCalibrationPoint)
}

// HandleResetCalibration handles DELETE /v1/sessions/{id}/calibration.
func (h *SessionsHandler) HandleResetCalibration(w http.ResponseWriter, r *http.Request) {
	h.respond(w, r, "api.reset_calibration", http.StatusOK, h.deps.ResetCalibration)
}

// HandleCompleteCalibration handles POST /v1/sessions/{id}/calibration/complete.
func (h *SessionsHandler) HandleCompleteCalibration(w http.ResponseWriter, r *http.Request) {
	h.respond(w, r, "api.complete_calibration", http.StatusOK, h.deps.CompleteCalibration)
}

// HandleMarkMeasurement handles PUT /v1/sessions/{id}/measurement/points.
func (h *SessionsHandler) HandleMarkMeasurement(w http.ResponseWriter, r *http.Request) {
	h.mark(w, r, "api.mark_measurement_point", h.deps.MarkMeasurementPoint)
}

// HandleResetMeasurement handles DELETE /v1/sessions/{id}/measurement.
func (h *SessionsHandler) HandleResetMeasurement(w http.ResponseWriter, r *http.Request) {
	h.respond(w, r, "api.reset_measurement", http.StatusOK, h.deps.ResetMeasurement)
}

// HandleCompute handles POST /v1/sessions/{id}/measurement/compute.
func (h *SessionsHandler) HandleCompute(w http.ResponseWriter, r *http.Request) {
	h.respond(w, r, "api.compute_measurements", http.StatusOK, h.deps.ComputeMeasurements)
}
