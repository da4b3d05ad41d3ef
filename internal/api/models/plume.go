package models

// WindInput is the wind at the source. Direction is the bearing the wind
// blows from, in degrees clockwise from north.
type WindInput struct {
	Speed     float64 `json:"speed"`
	Direction float64 `json:"direction"`
}

// PlumeComputeRequest is the body of POST /v1/plumes:compute.
type PlumeComputeRequest struct {
	Source      *LatLon    `json:"source"`
	Wind        *WindInput `json:"wind"`
	Stability   string     `json:"stability,omitempty"`
	BaselineAQI *float64   `json:"baselineAqi"`
	ArcCount    int        `json:"arcCount,omitempty"`
}

// Arc is one colored plume ring. Boundary holds [lat, lon] pairs and is
// closed; Polyline is the same ring in encoded polyline format.
type Arc struct {
	Index          int          `json:"index"`
	EstimatedAQI   float64      `json:"estimatedAqi"`
	DistanceRatio  float64      `json:"distanceRatio"`
	DistanceMeters float64      `json:"distanceMeters"`
	WidthMeters    float64      `json:"widthMeters"`
	Color          string       `json:"color"`
	Band           string       `json:"band"`
	Boundary       [][2]float64 `json:"boundary"`
	Polyline       string       `json:"polyline"`
}

// Plume is a generated plume. Arcs are nearest first; RenderOrder lists arc
// indexes far to near.
type Plume struct {
	Status      string `json:"status"`
	Arcs        []Arc  `json:"arcs"`
	RenderOrder []int  `json:"renderOrder"`
}

// PlumeInputs echoes the inputs a plume was generated from.
type PlumeInputs struct {
	Source      LatLon    `json:"source"`
	Wind        WindInput `json:"wind"`
	Stability   string    `json:"stability"`
	BaselineAQI float64   `json:"baselineAqi"`
	ArcCount    int       `json:"arcCount"`
}

// PlumeResponse is the body of POST /v1/plumes:compute.
type PlumeResponse struct {
	Inputs PlumeInputs `json:"inputs"`
	Plume
}

// Attribution is one (arc, location) pair.
type Attribution struct {
	ArcIndex     int     `json:"arcIndex"`
	EstimatedAQI float64 `json:"estimatedAqi"`
	Color        string  `json:"color"`
	LocationID   int64   `json:"locationId"`
	LocationName string  `json:"locationName"`
	Location     LatLon  `json:"location"`

	// DistanceMeters is the great-circle distance from the plant.
	DistanceMeters float64 `json:"distanceMeters"`
}

// PlantPlumeResponse is the body of GET /v1/plants/{plantId}/plume.
type PlantPlumeResponse struct {
	Plant       Plant         `json:"plant"`
	Reading     Reading       `json:"reading"`
	Inputs      PlumeInputs   `json:"inputs"`
	Plume       Plume         `json:"plume"`
	Attribution []Attribution `json:"attribution,omitempty"`
}
