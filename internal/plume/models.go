// Package plume builds stylized pollution plume footprints downwind of an
// emission source.
//
// A plume is a sequence of concentric arcs. Each arc is a closed polygon whose
// reach and width grow with the arc index while the estimated AQI decays.
// The shapes are heuristic overlays for a map, not a dispersion model.
package plume

import (
	"errors"
	"fmt"
	"strings"

	"github.com/plumewatch/plumewatch/pkg/geoproj"
)

// Generator errors.
var (
	ErrInvalidInput  = errors.New("invalid plume input")
	ErrInvalidParams = errors.New("invalid plume parameters")
)

// InputError describes which input was rejected. It matches ErrInvalidInput.
type InputError struct {
	Field  string
	Reason string
}

func (e *InputError) Error() string {
	return fmt.Sprintf("%v: %s %s", ErrInvalidInput, e.Field, e.Reason)
}

// Unwrap returns ErrInvalidInput.
func (e *InputError) Unwrap() error {
	return ErrInvalidInput
}

func invalidInput(field, reason string) error {
	return &InputError{Field: field, Reason: reason}
}

// EmissionSource is the location of a plant stack in degrees.
type EmissionSource struct {
	Lat float64
	Lon float64
}

// Point returns the source as a geoproj.LatLon.
func (s EmissionSource) Point() geoproj.LatLon {
	return geoproj.LatLon{Lat: s.Lat, Lon: s.Lon}
}

// WindState is the wind at the source. Speed is in m/s. Direction is in
// meteorological degrees, the direction the wind blows from.
type WindState struct {
	Speed     float64
	Direction float64
}

// StabilityClass is a Pasquill-Gifford atmospheric stability class.
type StabilityClass string

// Stability classes from very unstable (A) to moderately stable (F).
const (
	StabilityA StabilityClass = "A"
	StabilityB StabilityClass = "B"
	StabilityC StabilityClass = "C"
	StabilityD StabilityClass = "D"
	StabilityE StabilityClass = "E"
	StabilityF StabilityClass = "F"
)

// DefaultStability is used when no class is given or the class is unknown.
const DefaultStability = StabilityD

// Coefficients are the sigma-y and sigma-z "a" coefficients of a class.
type Coefficients struct {
	SigmaYA float64
	SigmaZA float64
}

var stabilityCoefficients = map[StabilityClass]Coefficients{
	StabilityA: {SigmaYA: 0.22, SigmaZA: 0.20},
	StabilityB: {SigmaYA: 0.16, SigmaZA: 0.12},
	StabilityC: {SigmaYA: 0.11, SigmaZA: 0.08},
	StabilityD: {SigmaYA: 0.08, SigmaZA: 0.06},
	StabilityE: {SigmaYA: 0.06, SigmaZA: 0.03},
	StabilityF: {SigmaYA: 0.04, SigmaZA: 0.016},
}

// ParseStabilityClass parses a class name, ignoring case and surrounding
// space. Unknown or empty names yield DefaultStability.
func ParseStabilityClass(s string) StabilityClass {
	c := StabilityClass(strings.ToUpper(strings.TrimSpace(s)))
	if c.Valid() {
		return c
	}
	return DefaultStability
}

// Valid reports whether c is one of A through F.
func (c StabilityClass) Valid() bool {
	_, ok := stabilityCoefficients[c]
	return ok
}

// Coefficients returns the class coefficients. Unknown classes use
// DefaultStability.
func (c StabilityClass) Coefficients() Coefficients {
	if coef, ok := stabilityCoefficients[c]; ok {
		return coef
	}
	return stabilityCoefficients[DefaultStability]
}

// Status describes the outcome of a generation.
type Status string

// Generation statuses.
const (
	StatusOK             Status = "OK"
	StatusDegenerateWind Status = "DEGENERATE_WIND"
)

// Arc is one ring of the plume.
type Arc struct {
	// Index is 0 for the arc nearest the source.
	Index int

	// Boundary is a closed simple polygon; the first and last points are equal.
	Boundary []geoproj.LatLon

	// EstimatedAQI is the decayed AQI estimate for this arc.
	EstimatedAQI float64

	// DistanceRatio is Index divided by the arc count, in [0, 1).
	DistanceRatio float64

	// DistanceMeters and WidthMeters are the arc's reach and width.
	DistanceMeters float64
	WidthMeters    float64
}

// Result is the output of a generation. Arcs are ordered by ascending index.
type Result struct {
	Arcs   []Arc
	Status Status
}

// Skipped reports whether no plume was produced because there was no wind.
func (r *Result) Skipped() bool {
	return r.Status == StatusDegenerateWind
}

// RenderOrder returns the arcs far to near, the order they are drawn so near
// arcs end up on top.
func (r *Result) RenderOrder() []Arc {
	out := make([]Arc, len(r.Arcs))
	for i, a := range r.Arcs {
		out[len(r.Arcs)-1-i] = a
	}
	return out
}
