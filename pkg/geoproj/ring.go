package geoproj

// Closed reports whether ring has at least four points and ends where it starts.
func Closed(ring []LatLon) bool {
	return len(ring) >= 4 && ring[0] == ring[len(ring)-1]
}

// IsSimpleRing reports whether a closed ring has no repeated vertices and no
// two non-adjacent edges crossing. Coordinates are treated as planar.
func IsSimpleRing(ring []LatLon) bool {
	if !Closed(ring) {
		return false
	}

	n := len(ring) - 1 // edges
	seen := make(map[LatLon]struct{}, n)
	for _, p := range ring[:n] {
		if _, dup := seen[p]; dup {
			return false
		}
		seen[p] = struct{}{}
	}

	for i := 0; i < n; i++ {
		for j := i + 2; j < n; j++ {
			if i == 0 && j == n-1 {
				continue // first and last edges share the closing vertex
			}
			if segmentsCross(ring[i], ring[i+1], ring[j], ring[j+1]) {
				return false
			}
		}
	}
	return true
}

// segmentsCross reports a proper crossing of ab and cd.
func segmentsCross(a, b, c, d LatLon) bool {
	d1 := orientation(c, d, a)
	d2 := orientation(c, d, b)
	d3 := orientation(a, b, c)
	d4 := orientation(a, b, d)
	return d1*d2 < 0 && d3*d4 < 0
}

// orientation returns the sign of the cross product (q-p) x (r-p).
func orientation(p, q, r LatLon) int {
	v := (q.Lon-p.Lon)*(r.Lat-p.Lat) - (q.Lat-p.Lat)*(r.Lon-p.Lon)
	switch {
	case v > 0:
		return 1
	case v < 0:
		return -1
	}
	return 0
}
