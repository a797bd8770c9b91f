package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/okian/lensfit/internal/domain/geometry"
	"github.com/okian/lensfit/internal/domain/landmark"
)

// coordinate is an image position in pixels.
type coordinate struct {
	X *float64 `json:"x" validate:"required,finite"`
	Y *float64 `json:"y" validate:"required,finite"`
}

func (c coordinate) point() geometry.Point {
	return geometry.NewPoint(*c.X, *c.Y)
}

// calibrateRequest mirrors the OpenAPI schema for POST /v1/calibrate.
type calibrateRequest struct {
	CardLeft  *coordinate `json:"card_left" validate:"required"`
	CardRight *coordinate `json:"card_right" validate:"required"`
}

// pointRequest is one typed landmark in a request body.
type pointRequest struct {
	Type  string   `json:"type" validate:"required"`
	X     *float64 `json:"x" validate:"required,finite"`
	Y     *float64 `json:"y" validate:"required,finite"`
	Label string   `json:"label" validate:"max=64"`
}

func (p pointRequest) parse() (landmark.Type, geometry.Point, error) {
	t, err := landmark.ParseType(p.Type)
	if err != nil {
		return 0, geometry.Point{}, err
	}
	return t, geometry.NewPoint(*p.X, *p.Y), nil
}

// measureRequest mirrors the OpenAPI schema for POST /v1/measure.
type measureRequest struct {
	PixelsPerMM *float64       `json:"pixels_per_mm" validate:"required,finite"`
	Points      []pointRequest `json:"points" validate:"max=64,dive"`
}

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	_ = v.RegisterValidation("finite", func(fl validator.FieldLevel) bool {
		f := fl.Field()
		if f.Kind() != reflect.Float64 && f.Kind() != reflect.Float32 {
			return false
		}
		x := f.Float()
		return !math.IsNaN(x) && !math.IsInf(x, 0)
	})
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// decode reads a JSON body into dst and validates it. Every failure wraps
// ErrBadRequest.
func decode(r *http.Request, v *validator.Validate, dst any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return fmt.Errorf("%w: body exceeds %d bytes", ErrPayloadTooLarge, tooLarge.Limit)
		}
		return fmt.Errorf("%w: invalid JSON: %w", ErrBadRequest, err)
	}
	if err := v.Struct(dst); err != nil {
		return fmt.Errorf("%w: %s", ErrBadRequest, describe(err))
	}
	return nil
}

// describe renders validator errors as "field: rule" pairs.
func describe(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error()
	}
	parts := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		ns := fe.Namespace()
		if _, rest, ok := strings.Cut(ns, "."); ok {
			ns = rest
		}
		parts = append(parts, fmt.Sprintf("%s failed %s", ns, fe.Tag()))
	}
	return strings.Join(parts, "; ")
}
