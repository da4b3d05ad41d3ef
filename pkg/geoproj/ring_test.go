package geoproj_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/plumewatch/plumewatch/pkg/geoproj"
)

func TestIsSimpleRing(t *testing.T) {
	square := []geoproj.LatLon{{Lat: 0, Lon: 0}, {Lat: 0, Lon: 1}, {Lat: 1, Lon: 1}, {Lat: 1, Lon: 0}, {Lat: 0, Lon: 0}}
	bowtie := []geoproj.LatLon{{Lat: 0, Lon: 0}, {Lat: 1, Lon: 1}, {Lat: 0, Lon: 1}, {Lat: 1, Lon: 0}, {Lat: 0, Lon: 0}}
	open := square[:4]
	repeated := []geoproj.LatLon{{Lat: 0, Lon: 0}, {Lat: 0, Lon: 1}, {Lat: 1, Lon: 1}, {Lat: 0, Lon: 1}, {Lat: 1, Lon: 0}, {Lat: 0, Lon: 0}}

	tests := []struct {
		name string
		ring []geoproj.LatLon
		want bool
	}{
		{"square", square, true},
		{"bowtie", bowtie, false},
		{"open ring", open, false},
		{"repeated vertex", repeated, false},
		{"too short", square[:2], false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, geoproj.IsSimpleRing(tt.ring))
		})
	}
}

func TestClosed(t *testing.T) {
	ring := []geoproj.LatLon{{Lat: 0, Lon: 0}, {Lat: 0, Lon: 1}, {Lat: 1, Lon: 1}, {Lat: 0, Lon: 0}}
	assert.True(t, geoproj.Closed(ring))
	assert.False(t, geoproj.Closed(ring[:3]))
}
