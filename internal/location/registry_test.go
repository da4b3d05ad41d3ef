package location_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/plumewatch/plumewatch/internal/location"
	"github.com/plumewatch/plumewatch/pkg/geoproj"
)

var square = []geoproj.LatLon{
	{Lat: 47.0, Lon: 35.0},
	{Lat: 47.0, Lon: 36.0},
	{Lat: 48.0, Lon: 36.0},
	{Lat: 48.0, Lon: 35.0},
}

func TestContains(t *testing.T) {
	tests := []struct {
		name  string
		point geoproj.LatLon
		want  bool
	}{
		{"center", geoproj.LatLon{Lat: 47.5, Lon: 35.5}, true},
		{"north of square", geoproj.LatLon{Lat: 48.5, Lon: 35.5}, false},
		{"east of square", geoproj.LatLon{Lat: 47.5, Lon: 36.5}, false},
		{"swapped axes", geoproj.LatLon{Lat: 35.5, Lon: 47.5}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, location.Contains(square, tt.point))
		})
	}
}

func TestContains_ClosedRingSameAsOpen(t *testing.T) {
	closed := append(append([]geoproj.LatLon{}, square...), square[0])
	p := geoproj.LatLon{Lat: 47.2, Lon: 35.9}
	assert.Equal(t, location.Contains(square, p), location.Contains(closed, p))
}

func TestValidatePolygon(t *testing.T) {
	assert.NoError(t, location.ValidatePolygon(square))

	degenerate := []geoproj.LatLon{square[0], square[1], square[0], square[1]}
	assert.ErrorIs(t, location.ValidatePolygon(degenerate), location.ErrInvalidPolygon)
	assert.ErrorIs(t, location.ValidatePolygon(nil), location.ErrInvalidPolygon)
}

func TestInMemoryRegistry_Within(t *testing.T) {
	reg := location.NewInMemoryRegistry()
	reg.Add(
		location.Location{ID: 3, PlantID: 1, Name: "Enerhodar", Point: geoproj.LatLon{Lat: 47.5, Lon: 35.4}},
		location.Location{ID: 1, PlantID: 1, Name: "Vasylivka", Point: geoproj.LatLon{Lat: 47.4, Lon: 35.3}},
		location.Location{ID: 2, PlantID: 1, Name: "Far Away", Point: geoproj.LatLon{Lat: 50.0, Lon: 30.0}},
		location.Location{ID: 4, PlantID: 2, Name: "Other Plant", Point: geoproj.LatLon{Lat: 47.5, Lon: 35.5}},
	)

	found, err := reg.Within(context.Background(), 1, square)
	require.NoError(t, err)
	require.Len(t, found, 2)
	assert.Equal(t, "Vasylivka", found[0].Name)
	assert.Equal(t, "Enerhodar", found[1].Name)

	none, err := reg.Within(context.Background(), 99, square)
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestInMemoryRegistry_RejectsDegeneratePolygon(t *testing.T) {
	reg := location.NewInMemoryRegistry()
	_, err := reg.Within(context.Background(), 1, square[:2])
	assert.ErrorIs(t, err, location.ErrInvalidPolygon)
}
