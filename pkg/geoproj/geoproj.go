// Package geoproj converts between local meter offsets and geographic coordinates.
//
// The conversion is a flat-earth approximation around a reference latitude: one
// degree of latitude is a fixed number of meters, one degree of longitude shrinks
// with the cosine of the latitude. It is accurate to well under a percent over the
// few tens of kilometers a plume covers, and it is singular at the poles, where
// cos(90°) = 0 makes longitude conversion divide by zero. Power plants are not
// polar, so that limitation is accepted rather than guarded.
package geoproj

import "math"

// MetersPerDegreeLat is the length of one degree of latitude in meters.
const MetersPerDegreeLat = 111320.0

const earthRadiusMeters = 6371000

// LatLon is a geographic coordinate in degrees.
type LatLon struct {
	Lat float64
	Lon float64
}

// Valid reports whether the coordinate lies within [-90,90] x [-180,180] and is finite.
func (p LatLon) Valid() bool {
	if math.IsNaN(p.Lat) || math.IsNaN(p.Lon) {
		return false
	}
	return p.Lat >= -90 && p.Lat <= 90 && p.Lon >= -180 && p.Lon <= 180
}

// MetersToLatDelta converts a north-south distance in meters to degrees of latitude.
func MetersToLatDelta(m float64) float64 {
	return m / MetersPerDegreeLat
}

// MetersToLonDelta converts an east-west distance in meters to degrees of longitude
// at the given latitude. The result is ±Inf at the poles.
func MetersToLonDelta(m, atLat float64) float64 {
	return m / MetersPerDegreeLon(atLat)
}

// MetersPerDegreeLon returns the length of one degree of longitude at the given latitude.
func MetersPerDegreeLon(atLat float64) float64 {
	return MetersPerDegreeLat * math.Cos(radians(atLat))
}

// Offset moves origin by north and east meters. Longitude is scaled at refLat,
// which lets a caller project a whole shape with a single scale factor.
func Offset(origin LatLon, north, east, refLat float64) LatLon {
	return LatLon{
		Lat: origin.Lat + MetersToLatDelta(north),
		Lon: origin.Lon + MetersToLonDelta(east, refLat),
	}
}

// HaversineDistance returns the great-circle distance between a and b in meters.
func HaversineDistance(a, b LatLon) float64 {
	lat1 := radians(a.Lat)
	lat2 := radians(b.Lat)
	sinDLat := math.Sin(radians(b.Lat-a.Lat) / 2)
	sinDLon := math.Sin(radians(b.Lon-a.Lon) / 2)

	h := sinDLat*sinDLat + math.Cos(lat1)*math.Cos(lat2)*sinDLon*sinDLon
	return 2 * earthRadiusMeters * math.Asin(math.Sqrt(h))
}

// Bounds returns the bounding box of points as (min, max) corners.
// It returns zero values for an empty slice.
func Bounds(points []LatLon) (minPt, maxPt LatLon) {
	if len(points) == 0 {
		return LatLon{}, LatLon{}
	}
	minPt, maxPt = points[0], points[0]
	for _, p := range points[1:] {
		minPt.Lat = math.Min(minPt.Lat, p.Lat)
		minPt.Lon = math.Min(minPt.Lon, p.Lon)
		maxPt.Lat = math.Max(maxPt.Lat, p.Lat)
		maxPt.Lon = math.Max(maxPt.Lon, p.Lon)
	}
	return minPt, maxPt
}

func radians(deg float64) float64 {
	return deg * math.Pi / 180
}
