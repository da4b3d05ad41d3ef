package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"

	"github.com/plumewatch/plumewatch/internal/api/models"
	"github.com/plumewatch/plumewatch/internal/api/response"
	"github.com/plumewatch/plumewatch/internal/plume"
)

// PlumeService computes plumes from explicit inputs or from plant readings.
type PlumeService interface {
	Compute(ctx context.Context, req plume.Request) (*plume.Plume, error)
	ComputeForPlant(ctx context.Context, req plume.PlantRequest) (*plume.PlantPlume, error)
	WithDefaults(req plume.Request) plume.Request
}

// PlumeHandler handles plume endpoints.
type PlumeHandler struct {
	service PlumeService
	clock   clockwork.Clock
	logger  zerolog.Logger
}

// NewPlumeHandler creates a new PlumeHandler.
func NewPlumeHandler(service PlumeService, clock clockwork.Clock, logger zerolog.Logger) *PlumeHandler {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &PlumeHandler{service: service, clock: clock, logger: logger}
}

// ComputePlume handles POST /v1/plumes:compute.
func (h *PlumeHandler) ComputePlume(w http.ResponseWriter, r *http.Request) {
	var input models.PlumeComputeRequest
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&input); err != nil {
		response.BadRequest(w, r, "invalid JSON body", nil)
		return
	}

	var missing []models.FieldError
	if input.Source == nil {
		missing = append(missing, models.FieldError{Field: "source", Message: "required", Code: "REQUIRED"})
	}
	if input.Wind == nil {
		missing = append(missing, models.FieldError{Field: "wind", Message: "required", Code: "REQUIRED"})
	}
	if input.BaselineAQI == nil {
		missing = append(missing, models.FieldError{Field: "baselineAqi", Message: "required", Code: "REQUIRED"})
	}
	if len(missing) > 0 {
		response.BadRequest(w, r, "invalid plume request", missing)
		return
	}

	req := h.service.WithDefaults(plume.Request{
		Source:      plume.EmissionSource{Lat: input.Source.Lat, Lon: input.Source.Lon},
		Wind:        plume.WindState{Speed: input.Wind.Speed, Direction: input.Wind.Direction},
		Stability:   plume.ParseStabilityClass(input.Stability),
		BaselineAQI: *input.BaselineAQI,
		ArcCount:    input.ArcCount,
	})
	pl, err := h.service.Compute(r.Context(), req)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	response.JSON(w, r, http.StatusOK, models.PlumeResponse{
		Inputs: toInputs(req),
		Plume:  toPlume(pl),
	})
}

// PlantPlume handles GET /v1/plants/{plantId}/plume.
func (h *PlumeHandler) PlantPlume(w http.ResponseWriter, r *http.Request) {
	req, fieldErrs := parsePlantRequest(r)
	if len(fieldErrs) > 0 {
		response.BadRequest(w, r, "invalid plume query", fieldErrs)
		return
	}

	pp, err := h.service.ComputeForPlant(r.Context(), req)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	w.Header().Set("Cache-Control", "public, max-age=300")
	response.JSON(w, r, http.StatusOK, models.PlantPlumeResponse{
		Plant:       toPlant(pp.Plant, h.clock.Now()),
		Reading:     toReading(pp.Reading),
		Inputs:      toInputs(pp.Request),
		Plume:       toPlume(pp.Plume),
		Attribution: toAttribution(pp),
	})
}

// PlantPlumeOverlay handles GET /v1/plants/{plantId}/plume/overlay.
func (h *PlumeHandler) PlantPlumeOverlay(w http.ResponseWriter, r *http.Request) {
	req, fieldErrs := parsePlantRequest(r)
	if len(fieldErrs) > 0 {
		response.BadRequest(w, r, "invalid plume query", fieldErrs)
		return
	}
	req.Attributed = false

	pp, err := h.service.ComputeForPlant(r.Context(), req)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	w.Header().Set("Cache-Control", "public, max-age=300")
	response.GeoJSON(w, r, toOverlay(pp.Plume))
}

func parsePlantRequest(r *http.Request) (plume.PlantRequest, []models.FieldError) {
	var (
		req  plume.PlantRequest
		errs []models.FieldError
	)
	invalid := func(field, msg string) {
		errs = append(errs, models.FieldError{Field: field, Message: msg, Code: "INVALID"})
	}

	id, err := parsePlantID(r)
	if err != nil {
		invalid("plantId", err.Error())
	}
	req.PlantID = id

	q := r.URL.Query()
	if v := q.Get("time"); v != "" {
		at, err := time.Parse(time.RFC3339, v)
		if err != nil {
			invalid("time", "must be an RFC 3339 timestamp")
		}
		req.At = at
	}
	if v := q.Get("arcs"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			invalid("arcs", "must be a positive integer")
		}
		req.ArcCount = n
	}
	req.Stability = plume.ParseStabilityClass(q.Get("stability"))
	if v := q.Get("attributed"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			invalid("attributed", "must be true or false")
		}
		req.Attributed = b
	}

	return req, errs
}

func parsePlantID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, "plantId"), 10, 64)
	if err != nil || id < 1 {
		return 0, errors.New("must be a positive integer")
	}
	return id, nil
}
