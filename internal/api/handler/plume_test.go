package handler_test

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/plumewatch/plumewatch/internal/api/handler"
	"github.com/plumewatch/plumewatch/internal/api/models"
	"github.com/plumewatch/plumewatch/internal/location"
	"github.com/plumewatch/plumewatch/internal/plant"
	"github.com/plumewatch/plumewatch/internal/plume"
	"github.com/plumewatch/plumewatch/internal/provider/resilience"
	"github.com/plumewatch/plumewatch/pkg/geoproj"
)

func computeBody() map[string]interface{} {
	return map[string]interface{}{
		"source":      map[string]float64{"lat": source.Lat, "lon": source.Lon},
		"wind":        map[string]float64{"speed": 10, "direction": 170},
		"baselineAqi": 150,
	}
}

func TestComputePlume(t *testing.T) {
	f := newFixture(t, false)

	rec := f.do(t, http.MethodPost, "/v1/plumes:compute", computeBody())
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var body models.PlumeResponse
	decode(t, rec, &body)

	assert.Equal(t, "OK", body.Status)
	assert.Equal(t, 10, body.Inputs.ArcCount, "default arc count is echoed")
	assert.Equal(t, "D", body.Inputs.Stability, "default stability is echoed")
	assert.Equal(t, []int{9, 8, 7, 6, 5, 4, 3, 2, 1, 0}, body.RenderOrder)

	require.Len(t, body.Arcs, 10)
	first := body.Arcs[0]
	assert.Equal(t, "#A52A2A", first.Color)
	assert.Equal(t, "hazardous", first.Band)
	assert.InDelta(t, source.Lat, first.Boundary[0][0], 0.05, "boundary pairs are [lat, lon]")
	assert.InDelta(t, source.Lon, first.Boundary[0][1], 0.05)
	assert.Len(t, geoproj.DecodePolyline(first.Polyline), len(first.Boundary))
}

func TestComputePlume_DegenerateWind(t *testing.T) {
	f := newFixture(t, false)

	body := computeBody()
	body["wind"] = map[string]float64{"speed": 0, "direction": 0}
	rec := f.do(t, http.MethodPost, "/v1/plumes:compute", body)
	require.Equal(t, http.StatusOK, rec.Code)

	var out models.PlumeResponse
	decode(t, rec, &out)
	assert.Equal(t, "DEGENERATE_WIND", out.Status)
	assert.Empty(t, out.Arcs)
	assert.Empty(t, out.RenderOrder)
}

func TestComputePlume_Validation(t *testing.T) {
	with := func(key string, value interface{}) map[string]interface{} {
		b := computeBody()
		b[key] = value
		return b
	}

	tests := []struct {
		name   string
		body   interface{}
		fields []string
	}{
		{name: "malformed JSON", body: "{"},
		{name: "unknown field", body: with("altitude", 100)},
		{name: "missing fields", body: map[string]interface{}{}, fields: []string{"source", "wind", "baselineAqi"}},
		{name: "direction out of range", body: with("wind", map[string]float64{"speed": 3, "direction": 400}), fields: []string{"wind.direction"}},
		{name: "negative baseline", body: with("baselineAqi", -1), fields: []string{"baselineAqi"}},
		{name: "too many arcs", body: with("arcCount", 100000), fields: []string{"arcCount"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, false)
			rec := f.do(t, http.MethodPost, "/v1/plumes:compute", tt.body)
			require.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())

			var p problemBody
			decode(t, rec, &p)
			if tt.fields != nil {
				assert.Equal(t, tt.fields, fields(p))
			}
		})
	}
}

func TestComputePlume_LowercaseStability(t *testing.T) {
	f := newFixture(t, false)

	body := computeBody()
	body["stability"] = "f"
	body["arcCount"] = 3
	rec := f.do(t, http.MethodPost, "/v1/plumes:compute", body)
	require.Equal(t, http.StatusOK, rec.Code)

	var out models.PlumeResponse
	decode(t, rec, &out)
	assert.Equal(t, "F", out.Inputs.Stability)
	assert.Len(t, out.Arcs, 3)
}

func TestComputePlume_UnknownStabilityUsesDefault(t *testing.T) {
	tests := []struct {
		name      string
		stability string
		want      string
	}{
		{"unknown class", "Z", "D"},
		{"padded class", "  e ", "E"},
		{"blank", "   ", "D"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, false)

			body := computeBody()
			body["stability"] = tt.stability
			rec := f.do(t, http.MethodPost, "/v1/plumes:compute", body)
			require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

			var out models.PlumeResponse
			decode(t, rec, &out)
			assert.Equal(t, tt.want, out.Inputs.Stability)
			assert.NotEmpty(t, out.Arcs)
		})
	}
}

type plantPlumeBody struct {
	Plant struct {
		ID int64 `json:"id"`
	} `json:"plant"`
	Reading struct {
		Time        string   `json:"time"`
		EuropeanAQI *float64 `json:"europeanAqi"`
	} `json:"reading"`
	Inputs      models.PlumeInputs   `json:"inputs"`
	Plume       models.Plume         `json:"plume"`
	Attribution []models.Attribution `json:"attribution"`
}

func TestPlantPlume(t *testing.T) {
	f := newFixture(t, false)

	rec := f.do(t, http.MethodGet, "/v1/plants/7/plume?arcs=4&stability=B", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.NotEmpty(t, rec.Header().Get("Cache-Control"))

	var body plantPlumeBody
	decode(t, rec, &body)
	assert.Equal(t, int64(7), body.Plant.ID)
	assert.Equal(t, "2024-06-01T10:00:00Z", body.Reading.Time, "zero time selects the current hour")
	assert.Equal(t, 150.0, body.Inputs.BaselineAQI)
	assert.Equal(t, 10.0, body.Inputs.Wind.Speed)
	assert.Equal(t, 170.0, body.Inputs.Wind.Direction)
	assert.Equal(t, "B", body.Inputs.Stability)
	assert.Len(t, body.Plume.Arcs, 4)
	assert.Nil(t, body.Attribution)
}

func TestPlantPlume_UnknownStabilityUsesDefault(t *testing.T) {
	f := newFixture(t, false)

	rec := f.do(t, http.MethodGet, "/v1/plants/7/plume?arcs=2&stability=G", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var body plantPlumeBody
	decode(t, rec, &body)
	assert.Equal(t, "D", body.Inputs.Stability)
	assert.Len(t, body.Plume.Arcs, 2)
}

func TestPlantPlume_Attributed(t *testing.T) {
	f := newFixture(t, true)
	village := geoproj.Offset(source, 3000, 300, source.Lat)
	f.registry.Add(location.Location{ID: 1, PlantID: 7, Name: "Downwind Village", Point: village})

	rec := f.do(t, http.MethodGet, "/v1/plants/7/plume?arcs=5&attributed=true", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var body plantPlumeBody
	decode(t, rec, &body)
	require.NotEmpty(t, body.Attribution)
	for _, a := range body.Attribution {
		assert.Equal(t, "Downwind Village", a.LocationName)
		assert.NotEmpty(t, a.Color)
		assert.InDelta(t, geoproj.HaversineDistance(source, village), a.DistanceMeters, 1e-6)
	}
}

func TestPlantPlume_Errors(t *testing.T) {
	tests := []struct {
		name   string
		target string
		status int
		field  string
	}{
		{"bad plant id", "/v1/plants/abc/plume", http.StatusBadRequest, "plantId"},
		{"bad time", "/v1/plants/7/plume?time=yesterday", http.StatusBadRequest, "time"},
		{"zero arcs", "/v1/plants/7/plume?arcs=0", http.StatusBadRequest, "arcs"},
		{"bad attributed", "/v1/plants/7/plume?attributed=maybe", http.StatusBadRequest, "attributed"},
		{"unknown plant", "/v1/plants/99/plume", http.StatusNotFound, ""},
		{"no reading", "/v1/plants/7/plume?time=2024-05-01T00:00:00Z", http.StatusNotFound, ""},
		{"no registry", "/v1/plants/7/plume?attributed=true", http.StatusServiceUnavailable, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, false)
			rec := f.do(t, http.MethodGet, tt.target, nil)
			require.Equal(t, tt.status, rec.Code, rec.Body.String())

			var p problemBody
			decode(t, rec, &p)
			assert.Equal(t, tt.status, p.Status)
			if tt.field != "" {
				assert.Equal(t, []string{tt.field}, fields(p))
			}
		})
	}
}

func TestPlantPlumeOverlay(t *testing.T) {
	f := newFixture(t, false)

	rec := f.do(t, http.MethodGet, "/v1/plants/7/plume/overlay?attributed=true", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "application/geo+json", rec.Header().Get("Content-Type"))

	fc, err := geojson.UnmarshalFeatureCollection(rec.Body.Bytes())
	require.NoError(t, err)
	assert.Equal(t, "OK", fc.ExtraMembers["status"])
	require.Len(t, fc.Features, 10)

	for i, feat := range fc.Features {
		assert.Equal(t, float64(9-i), feat.ID, "features are ordered far to near")
		assert.Equal(t, feat.Properties["fill"], feat.Properties["stroke"])
		assert.Equal(t, 0.3, feat.Properties["fill-opacity"])

		poly, ok := feat.Geometry.(orb.Polygon)
		require.True(t, ok)
		ring := poly[0]
		assert.Equal(t, ring[0], ring[len(ring)-1], "ring is closed")
		assert.InDelta(t, source.Lon, ring[0].Lon(), 0.05, "coordinates are [lon, lat]")
		assert.InDelta(t, source.Lat, ring[0].Lat(), 0.05)
	}
}

func TestPlantPlumeOverlay_DegenerateWind(t *testing.T) {
	f := newFixture(t, false)

	rec := f.do(t, http.MethodGet, "/v1/plants/7/plume/overlay?time=2024-06-01T11:30:00Z", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	fc, err := geojson.UnmarshalFeatureCollection(rec.Body.Bytes())
	require.NoError(t, err)
	assert.Empty(t, fc.Features)
	assert.Equal(t, "DEGENERATE_WIND", fc.ExtraMembers["status"])
}

// failingService returns err from every computation.
type failingService struct {
	err error
}

func (s failingService) Compute(context.Context, plume.Request) (*plume.Plume, error) {
	return nil, s.err
}

func (s failingService) ComputeForPlant(context.Context, plume.PlantRequest) (*plume.PlantPlume, error) {
	return nil, s.err
}

func (s failingService) WithDefaults(req plume.Request) plume.Request {
	return req
}

func TestPlumeHandler_ErrorMapping(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
	}{
		{"input error", &plume.InputError{Field: "wind.speed", Reason: "must be a non-negative number"}, http.StatusBadRequest},
		{"plant not found", plant.ErrPlantNotFound, http.StatusNotFound},
		{"no reading", fmt.Errorf("reading for plant 7: %w", plant.ErrNoReading), http.StatusNotFound},
		{"source unavailable", fmt.Errorf("reading for plant 7: %w", plant.ErrSourceUnavailable), http.StatusServiceUnavailable},
		{"circuit open", resilience.ErrCircuitOpen, http.StatusServiceUnavailable},
		{"retries exhausted", fmt.Errorf("%w: %w", resilience.ErrMaxRetriesExceeded, errors.New("dial tcp")), http.StatusServiceUnavailable},
		{"deadline", context.DeadlineExceeded, http.StatusServiceUnavailable},
		{"unexpected", errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := handler.NewPlumeHandler(failingService{err: tt.err}, nil, zerolog.Nop())
			r := chi.NewRouter()
			r.Get("/v1/plants/{plantId}/plume", h.PlantPlume)

			rec := httptest.NewRecorder()
			r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/plants/7/plume", nil))
			assert.Equal(t, tt.status, rec.Code)
			assert.Equal(t, "application/problem+json", rec.Header().Get("Content-Type"))
		})
	}
}
