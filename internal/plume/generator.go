package plume

import (
	"math"
	"strconv"

	"github.com/plumewatch/plumewatch/pkg/geoproj"
)

// Generator builds plume arcs from a fixed set of Params.
// A Generator is immutable and safe for concurrent use.
type Generator struct {
	params Params
	angles []float64
}

// NewGenerator creates a Generator. It returns ErrInvalidParams if p cannot
// describe a drawable plume.
func NewGenerator(p Params) (*Generator, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return &Generator{params: p, angles: p.sweepAngles()}, nil
}

// Params returns the generator's shape constants.
func (g *Generator) Params() Params {
	return g.params
}

// Generate builds arcCount arcs downwind of source.
//
// Zero wind produces a Result with StatusDegenerateWind and no arcs. Invalid
// input returns an error matching ErrInvalidInput and no partial result.
// Unknown stability classes are treated as DefaultStability.
func (g *Generator) Generate(source EmissionSource, wind WindState, stability StabilityClass, baselineAQI float64, arcCount int) (*Result, error) {
	if err := g.validate(source, wind, baselineAQI, arcCount); err != nil {
		return nil, err
	}
	if wind.Speed == 0 {
		return &Result{Status: StatusDegenerateWind}, nil
	}

	p := g.params
	sinW, cosW := math.Sincos(wind.Direction * math.Pi / 180)
	refLat := source.Lat

	origin := geoproj.Offset(source.Point(), -p.OriginShift*cosW, -p.OriginShift*sinW, refLat)

	widthFactor := 1.0
	if p.StabilityScaling {
		widthFactor = stability.Coefficients().SigmaYA / DefaultStability.Coefficients().SigmaYA
	}
	baseWidth := wind.Speed * p.WidthScale * widthFactor

	arcs := make([]Arc, arcCount)
	for i := range arcs {
		distance := float64(i+1) * wind.Speed * p.DistanceScale
		width := baseWidth * (1 + p.WidthGrowth*float64(i))

		boundary := make([]geoproj.LatLon, 0, len(g.angles)+2)
		boundary = append(boundary, origin)
		for _, angle := range g.angles {
			x, y := g.localPoint(angle, distance, width)
			north := x*cosW - y*sinW
			east := x*sinW + y*cosW
			boundary = append(boundary, geoproj.Offset(origin, north, east, refLat))
		}
		boundary = append(boundary, origin)

		arcs[i] = Arc{
			Index:          i,
			Boundary:       boundary,
			EstimatedAQI:   baselineAQI * math.Pow(p.DecayRate, float64(i)) * p.Amplification,
			DistanceRatio:  float64(i) / float64(arcCount),
			DistanceMeters: distance,
			WidthMeters:    width,
		}
	}

	return &Result{Arcs: arcs, Status: StatusOK}, nil
}

// localPoint places a sweep angle in the plume frame, x along the plume axis
// and y across it, in meters.
func (g *Generator) localPoint(angle, distance, width float64) (x, y float64) {
	coef := 1.0
	if math.Abs(angle) < g.params.SqueezeThreshold {
		coef = g.params.SqueezeCoefficient
	}
	rad := angle * coef * math.Pi / 180
	x = distance * coef * g.params.RadialFactor * math.Cos(rad)
	y = width * g.params.LateralFactor * math.Sin(rad)
	return x, y
}

func (g *Generator) validate(source EmissionSource, wind WindState, baselineAQI float64, arcCount int) error {
	switch {
	case !finite(source.Lat) || source.Lat < -90 || source.Lat > 90:
		return invalidInput("source.lat", "must be within [-90, 90]")
	case !finite(source.Lon) || source.Lon < -180 || source.Lon > 180:
		return invalidInput("source.lon", "must be within [-180, 180]")
	case !finite(wind.Speed) || wind.Speed < 0:
		return invalidInput("wind.speed", "must be a non-negative number")
	case !finite(wind.Direction) || wind.Direction < 0 || wind.Direction > 360:
		return invalidInput("wind.direction", "must be within [0, 360]")
	case !finite(baselineAQI) || baselineAQI < 0:
		return invalidInput("baselineAqi", "must be a non-negative number")
	case arcCount < 1 || arcCount > g.params.MaxArcs:
		return invalidInput("arcCount", "must be within [1, "+strconv.Itoa(g.params.MaxArcs)+"]")
	}
	return nil
}
