package handler

import (
	"context"
	"net/http"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"

	"github.com/plumewatch/plumewatch/internal/api/models"
	"github.com/plumewatch/plumewatch/internal/api/response"
	"github.com/plumewatch/plumewatch/internal/plant"
)

// PlantStore lists and looks up plants.
type PlantStore interface {
	List(ctx context.Context) ([]*plant.Plant, error)
	Get(ctx context.Context, id int64) (*plant.Plant, error)
}

// PlantHandler handles plant endpoints.
type PlantHandler struct {
	plants PlantStore
	clock  clockwork.Clock
	logger zerolog.Logger
}

// NewPlantHandler creates a new PlantHandler.
func NewPlantHandler(plants PlantStore, clock clockwork.Clock, logger zerolog.Logger) *PlantHandler {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &PlantHandler{plants: plants, clock: clock, logger: logger}
}

// ListPlants handles GET /v1/plants - list all plants.
func (h *PlantHandler) ListPlants(w http.ResponseWriter, r *http.Request) {
	plants, err := h.plants.List(r.Context())
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	now := h.clock.Now()
	out := models.PlantList{Items: make([]models.Plant, 0, len(plants))}
	for _, p := range plants {
		out.Items = append(out.Items, toPlant(p, now))
	}

	w.Header().Set("Cache-Control", "public, max-age=3600")
	response.JSON(w, r, http.StatusOK, out)
}

// GetPlant handles GET /v1/plants/{plantId} - get a plant by ID.
func (h *PlantHandler) GetPlant(w http.ResponseWriter, r *http.Request) {
	id, err := parsePlantID(r)
	if err != nil {
		response.BadRequest(w, r, "invalid plant ID", []models.FieldError{
			{Field: "plantId", Message: err.Error(), Code: "INVALID"},
		})
		return
	}

	p, err := h.plants.Get(r.Context(), id)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	w.Header().Set("Cache-Control", "public, max-age=3600")
	response.JSON(w, r, http.StatusOK, toPlant(p, h.clock.Now()))
}
