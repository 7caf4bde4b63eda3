// SPDX-License-Identifier: MIT
//
// Package bands reduces a magnitude spectrum to a fixed number of bars.
package bands

import (
	"fmt"
	"math"
	"strings"

	"moodlight/internal/color"
)

// Scale selects how bins are distributed across bands.
type Scale int

const (
	// Linear gives every band the same number of bins, give or take one.
	Linear Scale = iota
	// Logarithmic widens bands towards the top of the range.
	Logarithmic
)

func (s Scale) String() string {
	if s == Logarithmic {
		return "logarithmic"
	}
	return "linear"
}

// ParseScale accepts "linear" and "log"/"logarithmic".
func ParseScale(name string) (Scale, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "linear":
		return Linear, nil
	case "log", "logarithmic":
		return Logarithmic, nil
	}
	return Linear, fmt.Errorf("unknown band scale %q", name)
}

// Band is an inclusive bin range [Lo, Hi] and its height for the current
// spectrum. Level is the height before normalisation and clamping, which
// still orders bands that both clamp to 1.
type Band struct {
	Index  int
	Lo, Hi int
	Height float64
	Level  float64
}

// Color is the band's sample for averaging: hue from its position, full
// saturation and the height as luminosity.
func (b Band) Color(count int) color.HSL {
	if count < 1 {
		count = 1
	}
	return color.New(float64(b.Index)/float64(count), 1, b.Height)
}

// Partition splits [lo, hi] into count contiguous, non-empty bands and
// returns them appended to dst[:0]. Reversed bounds collapse to lo, and count
// is clamped to [1, hi-lo+1] since a band cannot be narrower than one bin.
func Partition(dst []Band, count, lo, hi int, scale Scale) []Band {
	if hi < lo {
		hi = lo
	}
	span := hi - lo + 1
	count = max(1, min(count, span))

	dst = dst[:0]
	start := lo
	for i := range count {
		next := hi + 1
		if i+1 < count {
			next = boundary(i+1, count, lo, hi, scale)
			// Keep every band at least one bin wide and leave one bin for
			// each band still to come.
			next = max(next, start+1)
			next = min(next, hi+1-(count-1-i))
		}
		dst = append(dst, Band{Index: i, Lo: start, Hi: next - 1})
		start = next
	}
	return dst
}

// boundary returns the first bin of band i before adjustment.
func boundary(i, count, lo, hi int, scale Scale) int {
	if scale == Logarithmic {
		frac := 1 - math.Log(float64(count+1-i))/math.Log(float64(count+1))
		return lo + int(math.Round(frac*float64(hi-lo)))
	}
	span := hi - lo + 1
	return lo + i*span/count
}
