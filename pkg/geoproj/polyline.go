package geoproj

import "math"

// polylineScale is the fixed-point scale of the encoded polyline format (5 decimals).
const polylineScale = 1e5

// EncodePolyline encodes points using Google's encoded polyline algorithm.
// Boundaries travel much smaller this way than as coordinate arrays.
// See https://developers.google.com/maps/documentation/utilities/polylinealgorithm
func EncodePolyline(points []LatLon) string {
	if len(points) == 0 {
		return ""
	}

	buf := make([]byte, 0, len(points)*6)
	var prevLat, prevLon int
	for _, p := range points {
		lat := int(math.Round(p.Lat * polylineScale))
		lon := int(math.Round(p.Lon * polylineScale))
		buf = appendVarint(buf, lat-prevLat)
		buf = appendVarint(buf, lon-prevLon)
		prevLat, prevLon = lat, lon
	}
	return string(buf)
}

// DecodePolyline decodes an encoded polyline. A truncated trailing value is dropped.
func DecodePolyline(encoded string) []LatLon {
	if encoded == "" {
		return nil
	}

	var (
		points   []LatLon
		lat, lon int
		idx      int
	)
	for idx < len(encoded) {
		dLat, next, ok := readVarint(encoded, idx)
		if !ok {
			break
		}
		dLon, next, ok := readVarint(encoded, next)
		if !ok {
			break
		}
		idx = next
		lat += dLat
		lon += dLon
		points = append(points, LatLon{Lat: float64(lat) / polylineScale, Lon: float64(lon) / polylineScale})
	}
	return points
}

func appendVarint(buf []byte, v int) []byte {
	u := v << 1
	if v < 0 {
		u = ^u
	}
	for u >= 0x20 {
		buf = append(buf, byte((u&0x1f)|0x20)+63)
		u >>= 5
	}
	return append(buf, byte(u)+63)
}

// readVarint returns the value starting at idx, the index after it, and whether
// the value was terminated before the end of the string.
func readVarint(s string, idx int) (int, int, bool) {
	var result, shift int
	for idx < len(s) {
		b := int(s[idx]) - 63
		idx++
		result |= (b & 0x1f) << shift
		shift += 5
		if b < 0x20 {
			if result&1 != 0 {
				return ^(result >> 1), idx, true
			}
			return result >> 1, idx, true
		}
	}
	return 0, idx, false
}
