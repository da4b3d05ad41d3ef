package geoproj_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/plumewatch/plumewatch/pkg/geoproj"
)

func TestMetersToLatDelta(t *testing.T) {
	assert.InDelta(t, 1.0, geoproj.MetersToLatDelta(111320), 1e-12)
	assert.InDelta(t, 1000/111320.0, geoproj.MetersToLatDelta(1000), 1e-15)
	assert.InDelta(t, -0.5, geoproj.MetersToLatDelta(-55660), 1e-12)
}

func TestMetersToLonDelta_LatitudeScaling(t *testing.T) {
	equator := geoproj.MetersToLonDelta(1000, 0)
	sixty := geoproj.MetersToLonDelta(1000, 60)

	assert.InDelta(t, geoproj.MetersToLatDelta(1000), equator, 1e-15, "at the equator a degree of longitude equals a degree of latitude")
	assert.InDelta(t, 2*equator, sixty, 1e-12, "1/cos(60°) doubles the delta")
}

func TestMetersToLonDelta_PoleIsSingular(t *testing.T) {
	d := geoproj.MetersToLonDelta(1000, 90)
	assert.True(t, math.Abs(d) > 1e12, "longitude conversion blows up at the pole, got %v", d)
}

func TestOffset(t *testing.T) {
	origin := geoproj.LatLon{Lat: 47.8158, Lon: 35.1703}

	north := geoproj.Offset(origin, 1000, 0, origin.Lat)
	assert.InDelta(t, origin.Lat+1000/111320.0, north.Lat, 1e-12)
	assert.Equal(t, origin.Lon, north.Lon)

	east := geoproj.Offset(origin, 0, 1000, origin.Lat)
	assert.Equal(t, origin.Lat, east.Lat)
	assert.InDelta(t, origin.Lon+geoproj.MetersToLonDelta(1000, origin.Lat), east.Lon, 1e-12)

	// Round trip through the haversine distance stays within a meter at 1 km.
	assert.InDelta(t, 1000, geoproj.HaversineDistance(origin, north), 1.0)
	assert.InDelta(t, 1000, geoproj.HaversineDistance(origin, east), 1.0)
}

func TestLatLon_Valid(t *testing.T) {
	tests := []struct {
		name  string
		point geoproj.LatLon
		want  bool
	}{
		{"origin", geoproj.LatLon{}, true},
		{"corners", geoproj.LatLon{Lat: -90, Lon: 180}, true},
		{"lat too high", geoproj.LatLon{Lat: 90.0001, Lon: 0}, false},
		{"lon too low", geoproj.LatLon{Lat: 0, Lon: -180.5}, false},
		{"nan", geoproj.LatLon{Lat: math.NaN(), Lon: 0}, false},
		{"inf", geoproj.LatLon{Lat: 0, Lon: math.Inf(1)}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.point.Valid())
		})
	}
}

func TestHaversineDistance(t *testing.T) {
	amsterdam := geoproj.LatLon{Lat: 52.370216, Lon: 4.895168}
	rotterdam := geoproj.LatLon{Lat: 51.9225, Lon: 4.47917}

	d := geoproj.HaversineDistance(amsterdam, rotterdam)
	assert.InDelta(t, 57000, d, 1500)
	assert.Zero(t, geoproj.HaversineDistance(amsterdam, amsterdam))
}

func TestBounds(t *testing.T) {
	minPt, maxPt := geoproj.Bounds(nil)
	assert.Equal(t, geoproj.LatLon{}, minPt)
	assert.Equal(t, geoproj.LatLon{}, maxPt)

	minPt, maxPt = geoproj.Bounds([]geoproj.LatLon{
		{Lat: 1, Lon: 5},
		{Lat: -2, Lon: 7},
		{Lat: 3, Lon: -1},
	})
	require.Equal(t, geoproj.LatLon{Lat: -2, Lon: -1}, minPt)
	require.Equal(t, geoproj.LatLon{Lat: 3, Lon: 7}, maxPt)
}
