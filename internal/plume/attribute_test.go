package plume_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/plumewatch/plumewatch/internal/location"
	"github.com/plumewatch/plumewatch/internal/plume"
	"github.com/plumewatch/plumewatch/pkg/geoproj"
)

type failingRegistry struct{}

func (failingRegistry) Within(context.Context, int64, []geoproj.LatLon) ([]location.Location, error) {
	return nil, errors.New("registry down")
}

// southWindPlume returns a 3-arc plume carried due north, and a point inside
// every arc: one arc distance downwind and a quarter width to the east.
func southWindPlume(t *testing.T) (*plume.Result, geoproj.LatLon) {
	t.Helper()
	g := newGenerator(t, plume.DefaultParams())
	res, err := g.Generate(zaporizhzhia, plume.WindState{Speed: 10, Direction: 180}, plume.StabilityD, 100, 3)
	require.NoError(t, err)

	first := res.Arcs[0]
	origin := first.Boundary[0]
	inside := geoproj.Offset(origin, first.DistanceMeters, 0.25*first.WidthMeters, zaporizhzhia.Lat)
	return res, inside
}

func TestAttribute_OneRecordPerArcAndLocation(t *testing.T) {
	res, inside := southWindPlume(t)

	reg := location.NewInMemoryRegistry()
	reg.Add(
		location.Location{ID: 1, PlantID: 7, Name: "Downwind Village", Point: inside},
		location.Location{ID: 2, PlantID: 7, Name: "Upwind Town", Point: geoproj.Offset(zaporizhzhia.Point(), -20000, 0, zaporizhzhia.Lat)},
		location.Location{ID: 3, PlantID: 8, Name: "Other Plant Village", Point: inside},
	)

	out, err := plume.Attribute(context.Background(), reg, 7, res)
	require.NoError(t, err)
	assert.Equal(t, plume.StatusOK, out.Status)
	require.Len(t, out.Records, 3)

	for i, rec := range out.Records {
		assert.Equal(t, i, rec.Arc.Index)
		assert.Equal(t, "Downwind Village", rec.Location.Name)
		assert.Equal(t, res.Arcs[i].EstimatedAQI, rec.Arc.EstimatedAQI)
		assert.Equal(t, res.Arcs[i].Boundary, rec.Arc.Boundary)
	}
}

func TestAttribute_NoLocations(t *testing.T) {
	res, _ := southWindPlume(t)

	out, err := plume.Attribute(context.Background(), location.NewInMemoryRegistry(), 7, res)
	require.NoError(t, err)
	assert.Empty(t, out.Records)
}

func TestAttribute_DegenerateWind(t *testing.T) {
	out, err := plume.Attribute(context.Background(), failingRegistry{}, 7, &plume.Result{Status: plume.StatusDegenerateWind})
	require.NoError(t, err)
	assert.Equal(t, plume.StatusDegenerateWind, out.Status)
	assert.Empty(t, out.Records)
}

func TestAttribute_RegistryErrorFailsCall(t *testing.T) {
	res, _ := southWindPlume(t)

	out, err := plume.Attribute(context.Background(), failingRegistry{}, 7, res)
	require.Error(t, err)
	assert.Nil(t, out)
	assert.Contains(t, err.Error(), "registry down")
}
