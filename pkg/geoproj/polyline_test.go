package geoproj_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/plumewatch/plumewatch/pkg/geoproj"
)

var googleExample = []geoproj.LatLon{
	{Lat: 38.5, Lon: -120.2},
	{Lat: 40.7, Lon: -120.95},
	{Lat: 43.252, Lon: -126.453},
}

func TestEncodePolyline(t *testing.T) {
	tests := []struct {
		name   string
		points []geoproj.LatLon
		want   string
	}{
		{"empty", nil, ""},
		{"single point", googleExample[:1], "_p~iF~ps|U"},
		{"two points", googleExample[:2], "_p~iF~ps|U_ulLnnqC"},
		{"google example", googleExample, "_p~iF~ps|U_ulLnnqC_mqNvxq`@"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, geoproj.EncodePolyline(tt.points))
		})
	}
}

func TestDecodePolyline(t *testing.T) {
	assert.Nil(t, geoproj.DecodePolyline(""))

	got := geoproj.DecodePolyline("_p~iF~ps|U_ulLnnqC_mqNvxq`@")
	require.Len(t, got, len(googleExample))
	for i := range googleExample {
		assert.InDelta(t, googleExample[i].Lat, got[i].Lat, 1e-5)
		assert.InDelta(t, googleExample[i].Lon, got[i].Lon, 1e-5)
	}
}

func TestDecodePolyline_TruncatedInput(t *testing.T) {
	// A dangling latitude without its longitude is dropped.
	got := geoproj.DecodePolyline("_p~iF~ps|U_ulL")
	require.Len(t, got, 1)
	assert.InDelta(t, 38.5, got[0].Lat, 1e-5)
}

func TestPolyline_PreservesClosedRing(t *testing.T) {
	ring := []geoproj.LatLon{
		{Lat: 47.8158, Lon: 35.1703},
		{Lat: 47.8201, Lon: 35.1822},
		{Lat: 47.8099, Lon: 35.1911},
		{Lat: 47.8158, Lon: 35.1703},
	}

	got := geoproj.DecodePolyline(geoproj.EncodePolyline(ring))
	require.Len(t, got, len(ring))
	assert.Equal(t, got[0], got[len(got)-1])
}
