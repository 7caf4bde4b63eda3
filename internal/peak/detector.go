// SPDX-License-Identifier: MIT
//
// Package peak implements a z-score detector with an influence-damped
// filter: a value is a peak when it sits more than Threshold standard
// deviations away from the rolling mean of the previous Window filtered
// values.
package peak

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Signal classifies one value relative to its rolling history.
type Signal int8

const (
	Falling Signal = -1
	Neutral Signal = 0
	Rising  Signal = 1
)

// FlatTolerance is the smallest deviation that can be a peak. Without it,
// rounding noise on flat or near-zero input would register as outliers
// whenever the rolling deviation is itself zero.
const FlatTolerance = 1e-9

// RelativeTolerance scales the smallest peak deviation with the largest
// value in the series, so transform leakage next to a strong value is not
// mistaken for a peak of its own.
const RelativeTolerance = 1e-3

// Params configures the detector.
type Params struct {
	Window    int
	Threshold float64
	Influence float64
}

// DefaultParams are the values the pipeline was tuned with.
var DefaultParams = Params{Window: 5, Threshold: 0.1, Influence: 0.5}

// Detector holds scratch buffers so repeated calls do not allocate once the
// input length settles. It is not safe for concurrent use.
type Detector struct {
	filtered []float64
	signals  []Signal
}

// Detect runs a one-shot detection with its own scratch space.
func Detect(values []float64, window int, threshold, influence float64) []Signal {
	var d Detector
	return d.Detect(values, Params{Window: window, Threshold: threshold, Influence: influence})
}

// Detect returns one signal per value. The returned slice is reused by the
// next call.
//
// The series is prefixed with Window+1 values mirrored from its start, so the
// first real values are judged against a history that looks like themselves
// rather than against zeros. Bad input never yields an error: a window below
// one, non-finite values or non-finite statistics produce all-Neutral output.
func (d *Detector) Detect(values []float64, p Params) []Signal {
	n := len(values)
	d.signals = resize(d.signals, n)
	clear(d.signals)
	if n == 0 || p.Window < 1 || !allFinite(values) {
		return d.signals
	}

	threshold := math.Max(p.Threshold, 0)
	influence := math.Min(math.Max(p.Influence, 0), 1)
	if math.IsNaN(threshold) || math.IsNaN(influence) {
		return d.signals
	}

	tolerance := math.Max(FlatTolerance, RelativeTolerance*floats.Norm(values, math.Inf(1)))

	pad := p.Window + 1
	d.filtered = resize(d.filtered, pad+n)
	filtered := d.filtered
	for j := range pad {
		filtered[j] = values[min(pad-1-j, n-1)]
	}

	for i := pad; i < pad+n; i++ {
		v := values[i-pad]
		mean, std := stat.PopMeanStdDev(filtered[i-p.Window:i], nil)
		if math.IsNaN(mean) || math.IsNaN(std) || math.IsInf(mean, 0) || math.IsInf(std, 0) {
			clear(d.signals)
			return d.signals
		}

		dev := math.Abs(v - mean)
		if dev > threshold*std && dev >= tolerance {
			if v > mean {
				d.signals[i-pad] = Rising
			} else {
				d.signals[i-pad] = Falling
			}
			filtered[i] = influence*v + (1-influence)*filtered[i-1]
			continue
		}
		filtered[i] = v
	}
	return d.signals
}

// RisingPeaks appends one index per run of consecutive Rising signals: the
// one with the largest level. A strong value drags its neighbours up through
// leakage, so the bands climbing towards it are flagged too; only the apex
// of the climb is a peak. Ties keep the earlier index.
func RisingPeaks(dst []int, signals []Signal, levels []float64) []int {
	best := -1
	for i, s := range signals {
		if s != Rising {
			if best >= 0 {
				dst = append(dst, best)
				best = -1
			}
			continue
		}
		if best < 0 || levelAt(levels, i) > levelAt(levels, best) {
			best = i
		}
	}
	if best >= 0 {
		dst = append(dst, best)
	}
	return dst
}

func levelAt(levels []float64, i int) float64 {
	if i < len(levels) {
		return levels[i]
	}
	return 0
}

// RisingIndices appends the indices flagged Rising to dst.
func RisingIndices(dst []int, signals []Signal) []int {
	for i, s := range signals {
		if s == Rising {
			dst = append(dst, i)
		}
	}
	return dst
}

func allFinite(values []float64) bool {
	for _, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

func resize[T any](s []T, n int) []T {
	if cap(s) < n {
		return make([]T, n)
	}
	return s[:n]
}
