package plume

import (
	"fmt"
	"math"
)

// MinSweepStep bounds the number of boundary vertices per arc.
const MinSweepStep = 0.1

// Params holds the shape constants of a plume. Distances are in meters and
// angles in degrees.
type Params struct {
	// DistanceScale sets arc reach: distance = (i+1) * speed * DistanceScale.
	DistanceScale float64

	// WidthScale sets the first arc's width: base = speed * WidthScale.
	WidthScale float64

	// WidthGrowth widens later arcs: width = base * (1 + WidthGrowth*i).
	WidthGrowth float64

	// DecayRate and Amplification set the AQI estimate:
	// aqi = baseline * DecayRate^i * Amplification.
	DecayRate     float64
	Amplification float64

	// OriginShift moves the plume origin this far downwind of the source.
	OriginShift float64

	// SweepStart, SweepEnd and SweepStep define the boundary sweep.
	SweepStart float64
	SweepEnd   float64
	SweepStep  float64

	// Angles with magnitude below SqueezeThreshold are multiplied by
	// SqueezeCoefficient, pinching the sweep into a narrow forward cap.
	SqueezeThreshold   float64
	SqueezeCoefficient float64

	// RadialFactor and LateralFactor scale the local frame:
	// x = distance * coef * RadialFactor * cos(angle*coef),
	// y = width * LateralFactor * sin(angle*coef).
	RadialFactor  float64
	LateralFactor float64

	// StabilityScaling multiplies width by sigmaY_a(class) / sigmaY_a(D).
	StabilityScaling bool

	// MaxArcs bounds the requested arc count.
	MaxArcs int
}

// DefaultParams returns the local cone shape: an elongated downwind lobe
// starting 1 km from the source.
func DefaultParams() Params {
	return Params{
		DistanceScale:      70,
		WidthScale:         60,
		WidthGrowth:        1,
		DecayRate:          0.65,
		Amplification:      15,
		OriginShift:        1000,
		SweepStart:         -180,
		SweepEnd:           180,
		SweepStep:          5,
		SqueezeThreshold:   100,
		SqueezeCoefficient: 0.05,
		RadialFactor:       2,
		LateralFactor:      0.5,
		StabilityScaling:   true,
		MaxArcs:            100,
	}
}

// FanParams returns the wide fan shape: a half-ellipse sweep with no shift and
// no squeeze, widening tenfold per arc.
func FanParams() Params {
	return Params{
		DistanceScale:      500,
		WidthScale:         30,
		WidthGrowth:        10,
		DecayRate:          0.85,
		Amplification:      1.3,
		OriginShift:        0,
		SweepStart:         -90,
		SweepEnd:           90,
		SweepStep:          5,
		SqueezeThreshold:   0,
		SqueezeCoefficient: 1,
		RadialFactor:       1,
		LateralFactor:      0.5,
		StabilityScaling:   true,
		MaxArcs:            100,
	}
}

// Validate checks that p describes a drawable plume.
func (p Params) Validate() error {
	positive := []struct {
		name  string
		value float64
	}{
		{"DistanceScale", p.DistanceScale},
		{"WidthScale", p.WidthScale},
		{"DecayRate", p.DecayRate},
		{"Amplification", p.Amplification},
		{"SweepStep", p.SweepStep},
		{"SqueezeCoefficient", p.SqueezeCoefficient},
		{"RadialFactor", p.RadialFactor},
		{"LateralFactor", p.LateralFactor},
	}
	for _, f := range positive {
		if !finite(f.value) || f.value <= 0 {
			return fmt.Errorf("%w: %s must be positive, got %v", ErrInvalidParams, f.name, f.value)
		}
	}

	nonNegative := []struct {
		name  string
		value float64
	}{
		{"WidthGrowth", p.WidthGrowth},
		{"OriginShift", p.OriginShift},
		{"SqueezeThreshold", p.SqueezeThreshold},
	}
	for _, f := range nonNegative {
		if !finite(f.value) || f.value < 0 {
			return fmt.Errorf("%w: %s must not be negative, got %v", ErrInvalidParams, f.name, f.value)
		}
	}

	switch {
	case p.SqueezeCoefficient > 1:
		return fmt.Errorf("%w: SqueezeCoefficient must be at most 1, got %v", ErrInvalidParams, p.SqueezeCoefficient)
	case !finite(p.SweepStart) || !finite(p.SweepEnd):
		return fmt.Errorf("%w: sweep bounds must be finite", ErrInvalidParams)
	case p.SweepEnd <= p.SweepStart:
		return fmt.Errorf("%w: SweepEnd must exceed SweepStart", ErrInvalidParams)
	case p.SweepEnd-p.SweepStart > 360:
		return fmt.Errorf("%w: sweep must not exceed a full turn", ErrInvalidParams)
	case p.SweepStep < MinSweepStep:
		return fmt.Errorf("%w: SweepStep must be at least %v, got %v", ErrInvalidParams, MinSweepStep, p.SweepStep)
	case p.SweepStep > p.SweepEnd-p.SweepStart:
		return fmt.Errorf("%w: SweepStep must not exceed the sweep", ErrInvalidParams)
	case p.MaxArcs < 1:
		return fmt.Errorf("%w: MaxArcs must be at least 1, got %d", ErrInvalidParams, p.MaxArcs)
	}

	return nil
}

// sweepAngles returns the boundary angles in degrees. A full-turn sweep
// omits its last angle, which coincides with the first.
func (p Params) sweepAngles() []float64 {
	n := int(math.Floor((p.SweepEnd-p.SweepStart)/p.SweepStep + 1e-9))
	angles := make([]float64, 0, n+1)
	for k := 0; k <= n; k++ {
		angles = append(angles, p.SweepStart+float64(k)*p.SweepStep)
	}

	last := angles[len(angles)-1]
	if len(angles) > 1 && math.Abs(last-p.SweepStart-360) < 1e-9 {
		angles = angles[:len(angles)-1]
	}
	return angles
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
