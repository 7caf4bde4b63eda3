// SPDX-License-Identifier: MIT
package color

import (
	"fmt"
	"strings"
)

// Scale is the unit HSL components are exposed in outside the engine:
// observers, config files and the monitor. Internally everything is [0,1].
type Scale float64

const (
	Unit    Scale = 1
	Legacy  Scale = 240
	Degrees Scale = 360
)

// ParseScale accepts "unit", "legacy"/"240" and "degrees"/"360".
func ParseScale(s string) (Scale, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "unit", "1":
		return Unit, nil
	case "legacy", "240":
		return Legacy, nil
	case "degrees", "deg", "360":
		return Degrees, nil
	}
	return Unit, fmt.Errorf("unknown colour scale %q", s)
}

func (s Scale) String() string {
	switch s {
	case Legacy:
		return "legacy"
	case Degrees:
		return "degrees"
	}
	return "unit"
}

// External returns c expressed in the scale.
func (s Scale) External(c HSL) (h, sat, l float64) {
	k := float64(s)
	if k <= 0 {
		k = 1
	}
	return c.H * k, c.S * k, c.L * k
}

// Internal converts externally scaled components back to a clamped HSL.
func (s Scale) Internal(h, sat, l float64) HSL {
	k := float64(s)
	if k <= 0 {
		k = 1
	}
	return New(WrapHue(h/k), sat/k, l/k)
}
