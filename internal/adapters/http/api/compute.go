package api

import (
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/okian/lensfit/internal/domain/landmark"
	"github.com/okian/lensfit/internal/domain/types"
	"github.com/okian/lensfit/pkg/logger"
)

// ComputeHandler serves the stateless calibration and measurement endpoints.
type ComputeHandler struct {
	deps     ComputeDependencies
	validate *validator.Validate
	log      logger.Logger
}

// NewComputeHandler creates a new compute handler.
func NewComputeHandler(deps ComputeDependencies, v *validator.Validate, log logger.Logger) *ComputeHandler {
	return &ComputeHandler{deps: deps, validate: v, log: log}
}

// HandleCalibrate handles POST /v1/calibrate.
func (h *ComputeHandler) HandleCalibrate(w http.ResponseWriter, r *http.Request) {
	const op = "api.calibrate"
	var req calibrateRequest
	if err := decode(r, h.validate, &req); err != nil {
		fail(r.Context(), h.log, w, op, err)
		return
	}

	cal, err := h.deps.Calibrate(r.Context(), req.CardLeft.point(), req.CardRight.point())
	if err != nil {
		fail(r.Context(), h.log, w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, types.FromCalibration(cal))
}

// HandleMeasure handles POST /v1/measure.
func (h *ComputeHandler) HandleMeasure(w http.ResponseWriter, r *http.Request) {
	const op = "api.measure"
	var req measureRequest
	if err := decode(r, h.validate, &req); err != nil {
		fail(r.Context(), h.log, w, op, err)
		return
	}

	points := make([]landmark.Point, 0, len(req.Points))
	for _, p := range req.Points {
		t, at, err := p.parse()
		if err != nil {
			fail(r.Context(), h.log, w, op, err)
			return
		}
		points = append(points, landmark.New("", t, at, p.Label))
	}

	res, err := h.deps.Measure(r.Context(), *req.PixelsPerMM, points)
	if err != nil {
		fail(r.Context(), h.log, w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, types.Results(res))
}
