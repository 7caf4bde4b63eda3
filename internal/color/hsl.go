// SPDX-License-Identifier: MIT
//
// Package color holds the HSL model used throughout the pipeline. Components
// are stored normalised to [0,1]; the hue is a fraction of a full turn, so
// 0.0 and 1.0 name the same red. Conversions to 8-bit RGB round each channel
// to the nearest byte.
package color

import "math"

// HSL is a hue/saturation/luminosity triple, each component in [0,1].
type HSL struct {
	H, S, L float64
}

// Off is the colour emitted for silence and for an empty selection.
var Off = HSL{}

// New returns a clamped HSL. NaN components become 0.
func New(h, s, l float64) HSL {
	return HSL{H: Clamp01(h), S: Clamp01(s), L: Clamp01(l)}
}

// Clamp01 clamps v into [0,1], mapping NaN to 0.
func Clamp01(v float64) float64 {
	switch {
	case math.IsNaN(v), v < 0:
		return 0
	case v > 1:
		return 1
	}
	return v
}

// WrapHue folds any angle expressed in turns into [0,1).
func WrapHue(h float64) float64 {
	if math.IsNaN(h) || math.IsInf(h, 0) {
		return 0
	}
	h -= math.Floor(h)
	if h >= 1 {
		h = 0
	}
	return h
}

// HueDistance is the shortest distance between two hues around the circle,
// in [0, 0.5].
func HueDistance(a, b float64) float64 {
	d := math.Abs(WrapHue(a) - WrapHue(b))
	if d > 0.5 {
		d = 1 - d
	}
	return d
}

// IsOff reports whether c is the black off colour.
func (c HSL) IsOff() bool {
	return c.L == 0
}

// RGB converts to 8-bit channels.
func (c HSL) RGB() RGB {
	c = New(c.H, c.S, c.L)
	if c.S == 0 {
		v := toByte(c.L)
		return RGB{R: v, G: v, B: v}
	}

	var temp2 float64
	if c.L < 0.5 {
		temp2 = c.L * (1 + c.S)
	} else {
		temp2 = c.L + c.S - c.L*c.S
	}
	temp1 := 2*c.L - temp2

	return RGB{
		R: toByte(hueToChannel(temp1, temp2, c.H+1.0/3)),
		G: toByte(hueToChannel(temp1, temp2, c.H)),
		B: toByte(hueToChannel(temp1, temp2, c.H-1.0/3)),
	}
}

func hueToChannel(temp1, temp2, t float64) float64 {
	t -= math.Floor(t)
	switch {
	case 6*t < 1:
		return temp1 + (temp2-temp1)*6*t
	case 2*t < 1:
		return temp2
	case 3*t < 2:
		return temp1 + (temp2-temp1)*(2.0/3-t)*6
	}
	return temp1
}

func toByte(v float64) uint8 {
	return uint8(math.Round(255 * Clamp01(v)))
}

// HSV is the hue/saturation/value form expected by controllers that take a
// brightness rather than a lightness.
type HSV struct {
	H, S, V float64
}

// HSV converts lightness to value. Hue is unchanged.
func (c HSL) HSV() HSV {
	c = New(c.H, c.S, c.L)
	v := c.L + c.S*math.Min(c.L, 1-c.L)
	s := 0.0
	if v > 0 {
		s = 2 * (v - c.L) / v
	}
	return HSV{H: c.H, S: Clamp01(s), V: Clamp01(v)}
}

// Bytes quantises the HSV triple to three bytes, hue as a fraction of 255.
func (c HSV) Bytes() [3]uint8 {
	return [3]uint8{toByte(WrapHue(c.H)), toByte(c.S), toByte(c.V)}
}
