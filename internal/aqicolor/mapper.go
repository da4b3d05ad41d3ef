package aqicolor

import "math"

// Band is one severity band of the AQI scale. A value belongs to the first band
// whose UpperBound is >= the value; bounds are inclusive.
type Band struct {
	Name       string
	UpperBound float64
	Color      RGB
}

// DefaultBands returns the standard AQI breakpoints. The last band is open-ended.
func DefaultBands() []Band {
	return []Band{
		{Name: "good", UpperBound: 50, Color: Green},
		{Name: "moderate", UpperBound: 100, Color: Yellow},
		{Name: "unhealthy_sensitive", UpperBound: 150, Color: Orange},
		{Name: "unhealthy", UpperBound: 200, Color: Red},
		{Name: "very_unhealthy", UpperBound: 300, Color: Purple},
		{Name: "hazardous", UpperBound: math.Inf(1), Color: Brown},
	}
}

// MapperConfig holds configuration for a Mapper.
type MapperConfig struct {
	// Bands in ascending UpperBound order. Default: DefaultBands().
	Bands []Band

	// Reference is the color arcs fade toward as they move downwind. Default: Green.
	Reference *RGB
}

// Mapper assigns a color to a plume arc.
type Mapper struct {
	bands     []Band
	reference RGB
}

// NewMapper creates a Mapper, filling unset fields with defaults.
func NewMapper(cfg MapperConfig) *Mapper {
	bands := cfg.Bands
	if len(bands) == 0 {
		bands = DefaultBands()
	}
	reference := Green
	if cfg.Reference != nil {
		reference = *cfg.Reference
	}
	return &Mapper{bands: bands, reference: reference}
}

var defaultMapper = NewMapper(MapperConfig{})

// ColorFor returns the color of an arc using the default bands and reference.
func ColorFor(aqi, distanceRatio float64) ColorSpec {
	return defaultMapper.ColorFor(aqi, distanceRatio)
}

// SeverityBand returns the band an AQI value falls into. NaN and values above
// every bound land in the last band.
func (m *Mapper) SeverityBand(aqi float64) Band {
	for _, b := range m.bands {
		if aqi <= b.UpperBound {
			return b
		}
	}
	return m.bands[len(m.bands)-1]
}

// ColorFor anchors the color at the AQI's severity band and fades it toward the
// reference color by distanceRatio, clamped to [0, 1]. The blend follows the
// arc's position along the plume, not the AQI value itself.
func (m *Mapper) ColorFor(aqi, distanceRatio float64) ColorSpec {
	severity := m.SeverityBand(aqi).Color
	// Bounds are fixed at [0, 1], so the domain error cannot occur.
	c, _ := Interpolate(clamp01(distanceRatio), 0, 1, severity, m.reference)
	return c.Hex()
}
