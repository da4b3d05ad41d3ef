// Package aqicolor maps air quality index values to display colors.
package aqicolor

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Color errors.
var (
	ErrInterpolationDomain = errors.New("interpolation requires max > min and finite inputs")
	ErrInvalidHex          = errors.New("invalid hex color")
)

// ColorSpec is a display color formatted as #RRGGBB. It carries no alpha;
// opacity is the renderer's concern.
type ColorSpec string

// RGB holds the three 8-bit channels of a color.
type RGB struct {
	R, G, B uint8
}

// Reference colors.
var (
	Green  = RGB{R: 0x00, G: 0xFF, B: 0x00}
	Yellow = RGB{R: 0xFF, G: 0xFF, B: 0x00}
	Orange = RGB{R: 0xFF, G: 0xA5, B: 0x00}
	Red    = RGB{R: 0xFF, G: 0x00, B: 0x00}
	Purple = RGB{R: 0x80, G: 0x00, B: 0x80}
	Brown  = RGB{R: 0xA5, G: 0x2A, B: 0x2A}
)

// Hex formats the color as #RRGGBB.
func (c RGB) Hex() ColorSpec {
	return ColorSpec(fmt.Sprintf("#%02X%02X%02X", c.R, c.G, c.B))
}

// ParseHex parses a #RRGGBB (or RRGGBB) string.
func ParseHex(s string) (RGB, error) {
	s = strings.TrimPrefix(s, "#")
	if len(s) != 6 {
		return RGB{}, fmt.Errorf("%w: %q", ErrInvalidHex, s)
	}
	v, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return RGB{}, fmt.Errorf("%w: %q", ErrInvalidHex, s)
	}
	return RGB{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v)}, nil
}

// Interpolate blends start toward end by the position of value within [min, max].
// The ratio is clamped to [0, 1]; each channel is rounded to the nearest integer.
func Interpolate(value, minValue, maxValue float64, start, end RGB) (RGB, error) {
	if !finite(value) || !finite(minValue) || !finite(maxValue) || maxValue <= minValue {
		return RGB{}, ErrInterpolationDomain
	}

	ratio := clamp01((value - minValue) / (maxValue - minValue))
	return RGB{
		R: blend(start.R, end.R, ratio),
		G: blend(start.G, end.G, ratio),
		B: blend(start.B, end.B, ratio),
	}, nil
}

func blend(a, b uint8, ratio float64) uint8 {
	v := math.Round(float64(a) + ratio*(float64(b)-float64(a)))
	return uint8(math.Max(0, math.Min(255, v)))
}

func clamp01(v float64) float64 {
	if math.IsNaN(v) || v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
