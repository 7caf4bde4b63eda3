// SPDX-License-Identifier: MIT
//
// Package average combines a set of HSL samples into one colour.
package average

import (
	"math"
	"slices"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"moodlight/internal/color"
)

// degenerate is the resultant length, relative to the total weight, below
// which the hues cancel out and have no meaningful mean.
const degenerate = 1e-9

// Options select the hue and luminosity policies. Recent bounds
// BlendedOverHalf to the newest entries; zero or less means all of them.
type Options struct {
	Hue        HueMode
	Luminosity LuminosityMode
	Recent     int
}

// Averager reuses scratch space across calls. It is not safe for concurrent
// use; the zero value is ready.
type Averager struct {
	angles  []float64
	weights []float64
	lums    []float64
}

// Average is a one-shot Averager.Average.
func Average(colors []color.HSL, opt Options) color.HSL {
	var a Averager
	return a.Average(colors, opt)
}

// Average combines colors, which are ordered oldest first when they form a
// history. An empty set yields color.Off and NaN components become 0.
func (a *Averager) Average(colors []color.HSL, opt Options) color.HSL {
	if len(colors) == 0 {
		return color.Off
	}

	h := a.hue(colors, opt.Hue)

	sat := 0.0
	for _, c := range colors {
		sat += c.S
	}
	sat /= float64(len(colors))

	return color.New(color.WrapHue(h), sat, a.luminosity(colors, opt))
}

func (a *Averager) hue(colors []color.HSL, mode HueMode) float64 {
	switch mode {
	case Linear:
		sum := 0.0
		for _, c := range colors {
			sum += c.H
		}
		return sum / float64(len(colors))

	case VectorLinear:
		var sum, weight float64
		for _, c := range colors {
			sum += c.H * c.L
			weight += c.L
		}
		if weight <= 0 {
			return a.hue(colors, Linear)
		}
		return sum / weight

	case Angular:
		return a.circular(colors, false)
	}
	return a.circular(colors, true)
}

// circular is the circular mean of the hues, optionally weighted by
// luminosity, with 0 for a degenerate resultant.
func (a *Averager) circular(colors []color.HSL, weighted bool) float64 {
	a.angles = a.angles[:0]
	a.weights = a.weights[:0]
	var x, y, total float64
	for _, c := range colors {
		theta := 2 * math.Pi * c.H
		w := 1.0
		if weighted {
			w = c.L
		}
		a.angles = append(a.angles, theta)
		a.weights = append(a.weights, w)
		x += w * math.Cos(theta)
		y += w * math.Sin(theta)
		total += math.Abs(w)
	}
	if total == 0 || math.Hypot(x, y) <= degenerate*total {
		return 0
	}
	return stat.CircularMean(a.angles, a.weights) / (2 * math.Pi)
}

func (a *Averager) luminosity(colors []color.HSL, opt Options) float64 {
	a.lums = a.lums[:0]
	for _, c := range colors {
		a.lums = append(a.lums, c.L)
	}
	lums := a.lums

	if frac, ok := opt.Luminosity.topFraction(); ok {
		k := int(math.Round(float64(len(lums)) * frac))
		k = max(1, min(k, len(lums)))
		slices.Sort(lums)
		return mean(lums[len(lums)-k:])
	}

	if opt.Luminosity == BlendedOverHalf && opt.Recent > 0 && opt.Recent < len(lums) {
		return mean(lums[len(lums)-opt.Recent:])
	}
	return mean(lums)
}

func mean(s []float64) float64 {
	if len(s) == 0 {
		return 0
	}
	m := floats.Sum(s) / float64(len(s))
	if math.IsNaN(m) {
		return 0
	}
	return m
}
