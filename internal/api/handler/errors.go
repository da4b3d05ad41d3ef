package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/plumewatch/plumewatch/internal/api/models"
	"github.com/plumewatch/plumewatch/internal/api/response"
	"github.com/plumewatch/plumewatch/internal/plant"
	"github.com/plumewatch/plumewatch/internal/plume"
	"github.com/plumewatch/plumewatch/internal/provider/resilience"
)

// writeError maps a service error onto a problem response. Unrecognized
// errors are logged and reported as 500.
func writeError(w http.ResponseWriter, r *http.Request, log zerolog.Logger, err error) {
	var inputErr *plume.InputError
	switch {
	case errors.As(err, &inputErr):
		response.BadRequest(w, r, "invalid plume input", []models.FieldError{
			{Field: inputErr.Field, Message: inputErr.Reason, Code: "INVALID"},
		})
	case errors.Is(err, plume.ErrInvalidInput):
		response.BadRequest(w, r, err.Error(), nil)
	case errors.Is(err, plant.ErrPlantNotFound):
		response.NotFound(w, r, "plant not found")
	case errors.Is(err, plant.ErrNoReading):
		response.NotFound(w, r, "no reading for the requested hour")
	case errors.Is(err, plume.ErrNoRegistry):
		response.ServiceUnavailable(w, r, "location attribution is not configured")
	case errors.Is(err, plant.ErrSourceUnavailable),
		errors.Is(err, resilience.ErrCircuitOpen),
		errors.Is(err, resilience.ErrMaxRetriesExceeded),
		errors.Is(err, context.DeadlineExceeded):
		log.Warn().Err(err).Str("path", r.URL.Path).Msg("reading source unavailable")
		response.ServiceUnavailable(w, r, "reading source unavailable, try again later")
	default:
		log.Error().Err(err).Str("path", r.URL.Path).Msg("request failed")
		response.InternalError(w, r, "an unexpected error occurred")
	}
}
