// SPDX-License-Identifier: MIT
package bands

import (
	"math"

	"gonum.org/v1/gonum/floats"
)

// SilenceEpsilon is the magnitude below which a whole spectrum counts as
// silence.
const SilenceEpsilon = 1e-4

// Params configures one aggregation. Lo and Hi are bin indices and are
// clamped to the spectrum before use.
type Params struct {
	Count int
	Lo    int
	Hi    int
	Scale Scale
	Gain  float64

	// Loudness lifts upper bands with 1/(1+2^-(10x-5)) + 0.5, x being the
	// band's position in [0,1].
	Loudness bool
	// Normalize divides all heights by the largest when it exceeds 1,
	// instead of clipping each band on its own.
	Normalize bool
}

// Result is the outcome of one aggregation. Bands is owned by the
// Aggregator and is overwritten by the next call.
type Result struct {
	Bands  []Band
	Silent bool
	// Peak is the largest raw magnitude in the spectrum.
	Peak float64
}

type partitionKey struct {
	count, lo, hi int
	scale         Scale
}

// Aggregator caches the band partition between calls and re-derives it when
// the count, range or scale changes.
type Aggregator struct {
	key    partitionKey
	valid  bool
	layout []Band
	bands  []Band
}

// Partition returns the cached layout for the last aggregation.
func (a *Aggregator) Partition() []Band {
	return a.layout
}

// Aggregate computes band heights for spectrum.
func (a *Aggregator) Aggregate(spectrum []float64, p Params) Result {
	last := len(spectrum) - 1
	lo := clampInt(p.Lo, 0, max(last, 0))
	hi := clampInt(p.Hi, lo, max(last, 0))

	key := partitionKey{count: p.Count, lo: lo, hi: hi, scale: p.Scale}
	if !a.valid || key != a.key {
		a.layout = Partition(a.layout, p.Count, lo, hi, p.Scale)
		a.key = key
		a.valid = true
	}

	a.bands = append(a.bands[:0], a.layout...)
	res := Result{Bands: a.bands}
	if len(spectrum) > 0 {
		res.Peak = floats.Max(spectrum)
	}
	if !(res.Peak >= SilenceEpsilon) {
		res.Silent = true
		return res
	}

	gain := p.Gain
	if gain <= 0 || math.IsNaN(gain) || math.IsInf(gain, 0) {
		gain = 1
	}

	count := len(a.bands)
	maxHeight := 0.0
	for i := range a.bands {
		b := &a.bands[i]
		h := rangeMax(spectrum, b.Lo, b.Hi) * gain
		if p.Loudness {
			x := 0.0
			if count > 1 {
				x = float64(i) / float64(count-1)
			}
			h *= 1/(1+math.Pow(2, -(10*x-5))) + 0.5
		}
		if math.IsNaN(h) || h < 0 {
			h = 0
		}
		b.Height = h
		b.Level = h
		maxHeight = math.Max(maxHeight, h)
	}

	if p.Normalize && maxHeight > 1 {
		for i := range a.bands {
			a.bands[i].Height /= maxHeight
		}
	}
	for i := range a.bands {
		a.bands[i].Height = math.Min(a.bands[i].Height, 1)
	}
	return res
}

// Heights copies the band heights into dst[:0].
func Heights(dst []float64, bands []Band) []float64 {
	dst = dst[:0]
	for _, b := range bands {
		dst = append(dst, b.Height)
	}
	return dst
}

// Levels copies the unclamped band levels into dst[:0].
func Levels(dst []float64, bands []Band) []float64 {
	dst = dst[:0]
	for _, b := range bands {
		dst = append(dst, b.Level)
	}
	return dst
}

// rangeMax is the largest magnitude in [lo, hi], ignoring indices outside
// the spectrum.
func rangeMax(spectrum []float64, lo, hi int) float64 {
	lo = max(lo, 0)
	hi = min(hi, len(spectrum)-1)
	if lo > hi {
		return 0
	}
	return floats.Max(spectrum[lo : hi+1])
}

func clampInt(v, lo, hi int) int {
	return max(lo, min(v, hi))
}
