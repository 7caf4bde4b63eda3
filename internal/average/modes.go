// SPDX-License-Identifier: MIT
package average

import (
	"fmt"
	"strings"
)

// HueMode selects how hues are combined.
type HueMode int

const (
	// Linear is the arithmetic mean. It ignores wraparound, so red at both
	// ends of the circle averages to cyan.
	Linear HueMode = iota
	// Angular is the circular mean.
	Angular
	// VectorLinear is the arithmetic mean weighted by luminosity.
	VectorLinear
	// VectorAngular is the circular mean weighted by luminosity: bright
	// bands pull the hue towards themselves.
	VectorAngular
)

var hueNames = []string{"linear", "angular", "vectorlinear", "vectorangular"}

func (m HueMode) String() string {
	if int(m) >= 0 && int(m) < len(hueNames) {
		return hueNames[m]
	}
	return fmt.Sprintf("HueMode(%d)", int(m))
}

// ParseHueMode is case-insensitive and ignores '-' and '_'.
func ParseHueMode(name string) (HueMode, error) {
	key := normalise(name)
	if key == "" {
		return VectorAngular, nil
	}
	for i, n := range hueNames {
		if n == key {
			return HueMode(i), nil
		}
	}
	return VectorAngular, fmt.Errorf("unknown colour calculation mode %q", name)
}

// LuminosityMode selects how brightness is combined.
type LuminosityMode int

const (
	// Mean is the arithmetic mean, configured as "average".
	Mean LuminosityMode = iota
	Top10
	Top25
	Top50
	// BlendedOverHalf averages the newest half of a history. Over a
	// spatial band set it behaves like Mean.
	BlendedOverHalf
)

var luminosityNames = []string{"average", "top10", "top25", "top50", "blendedoverhalf"}

func (m LuminosityMode) String() string {
	if int(m) >= 0 && int(m) < len(luminosityNames) {
		return luminosityNames[m]
	}
	return fmt.Sprintf("LuminosityMode(%d)", int(m))
}

// ParseLuminosityMode is case-insensitive and ignores '-' and '_'.
func ParseLuminosityMode(name string) (LuminosityMode, error) {
	key := normalise(name)
	if key == "" {
		return Mean, nil
	}
	for i, n := range luminosityNames {
		if n == key {
			return LuminosityMode(i), nil
		}
	}
	return Mean, fmt.Errorf("unknown brightness calculation mode %q", name)
}

func (m LuminosityMode) topFraction() (float64, bool) {
	switch m {
	case Top10:
		return 0.10, true
	case Top25:
		return 0.25, true
	case Top50:
		return 0.50, true
	}
	return 0, false
}

func normalise(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	return strings.NewReplacer("-", "", "_", "", " ", "").Replace(s)
}

// FrameOptions are the options for averaging the bands of one frame.
// BlendedOverHalf has no meaning across bands and falls back to Mean.
func FrameOptions(hue HueMode, lum LuminosityMode) Options {
	if lum == BlendedOverHalf {
		lum = Mean
	}
	return Options{Hue: hue, Luminosity: lum}
}

// HistoryOptions are the options for blending the frame history. Only
// BlendedOverHalf is a temporal policy; every other brightness mode averages
// the whole history.
func HistoryOptions(hue HueMode, lum LuminosityMode, blendedFrames int) Options {
	if lum != BlendedOverHalf {
		return Options{Hue: hue, Luminosity: Mean}
	}
	return Options{Hue: hue, Luminosity: BlendedOverHalf, Recent: (blendedFrames + 1) / 2}
}
