package handler_test

import (
	"bytes"
	"encoding/json"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/plumewatch/plumewatch/internal/api/handler"
	"github.com/plumewatch/plumewatch/internal/location"
	"github.com/plumewatch/plumewatch/internal/plant"
	"github.com/plumewatch/plumewatch/internal/plume"
	"github.com/plumewatch/plumewatch/pkg/geoproj"
)

var (
	readingHour = time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC)
	source      = geoproj.LatLon{Lat: 47.8158, Lon: 35.1703}
)

func ptr(v float64) *float64 {
	return &v
}

type fixture struct {
	router   chi.Router
	plants   *plant.InMemoryRepository
	registry *location.InMemoryRegistry
}

// newFixture serves the plant and plume handlers over one plant with a
// 10 m/s southerly wind and AQI 30 at readingHour.
func newFixture(t *testing.T, withRegistry bool) *fixture {
	t.Helper()

	repo := plant.NewInMemoryRepository()
	airFrom := time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)
	repo.AddPlant(&plant.Plant{ID: 7, Name: "Zaporizhzhia TPP", Lat: source.Lat, Lon: source.Lon, AirMinDate: &airFrom})
	repo.AddReading(&plant.Reading{
		PlantID:           7,
		Time:              readingHour,
		WindSpeed100m:     ptr(10),
		WindDirection100m: ptr(170),
		EuropeanAQI:       ptr(30),
	})
	repo.AddReading(&plant.Reading{PlantID: 7, Time: readingHour.Add(time.Hour), EuropeanAQI: ptr(30)})

	gen, err := plume.NewGenerator(plume.DefaultParams())
	require.NoError(t, err)

	clock := clockwork.NewFakeClockAt(readingHour.Add(15 * time.Minute))
	cfg := plume.ServiceConfig{
		Generator: gen,
		Plants:    repo,
		Readings:  plant.RepositorySource{Repo: repo},
		Logger:    zerolog.Nop(),
		Clock:     clock,
	}
	f := &fixture{plants: repo}
	if withRegistry {
		f.registry = location.NewInMemoryRegistry()
		cfg.Registry = f.registry
	}
	svc := plume.NewService(cfg)

	plumes := handler.NewPlumeHandler(svc, clock, zerolog.Nop())
	plants := handler.NewPlantHandler(repo, clock, zerolog.Nop())

	r := chi.NewRouter()
	r.Post("/v1/plumes:compute", plumes.ComputePlume)
	r.Get("/v1/plants", plants.ListPlants)
	r.Get("/v1/plants/{plantId}", plants.GetPlant)
	r.Get("/v1/plants/{plantId}/plume", plumes.PlantPlume)
	r.Get("/v1/plants/{plantId}/plume/overlay", plumes.PlantPlumeOverlay)
	f.router = r
	return f
}

func (f *fixture) do(t *testing.T, method, target string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		switch b := body.(type) {
		case string:
			buf.WriteString(b)
		default:
			require.NoError(t, json.NewEncoder(&buf).Encode(b))
		}
	}
	req := httptest.NewRequest(method, target, &buf)
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), v), rec.Body.String())
}

type problemBody struct {
	Status int    `json:"status"`
	Detail string `json:"detail"`
	Errors []struct {
		Field string `json:"field"`
		Code  string `json:"code"`
	} `json:"errors"`
}

func fields(p problemBody) []string {
	out := make([]string, len(p.Errors))
	for i, e := range p.Errors {
		out[i] = e.Field
	}
	return out
}
