// SPDX-License-Identifier: MIT
package frame

import (
	"fmt"
	"strings"
)

// Mode selects the rendering behaviour on the controller. Only Reactive and
// Visualizer are driven by the engine; the rest are effects the controller
// runs on its own from the colours and speed in the frame.
type Mode uint8

const (
	Off Mode = iota
	Static
	Breathing
	Heartbeat
	Strobe
	Cycle
	Rainbow
	Reactive
	Visualizer
)

var modeNames = [...]string{
	Off:        "off",
	Static:     "static",
	Breathing:  "breathing",
	Heartbeat:  "heartbeat",
	Strobe:     "strobe",
	Cycle:      "cycle",
	Rainbow:    "rainbow",
	Reactive:   "reactive",
	Visualizer: "visualizer",
}

func (m Mode) String() string {
	if int(m) < len(modeNames) {
		return modeNames[m]
	}
	return fmt.Sprintf("Mode(%d)", uint8(m))
}

// AudioDriven reports whether the engine computes the colour for this mode.
func (m Mode) AudioDriven() bool {
	return m == Reactive || m == Visualizer
}

// ParseMode accepts the mode names, case-insensitively.
func ParseMode(name string) (Mode, error) {
	key := strings.ToLower(strings.TrimSpace(name))
	switch key {
	case "":
		return Reactive, nil
	case "staticcolor", "static-color":
		return Static, nil
	case "colorreactive", "color-reactive":
		return Reactive, nil
	}
	for i, n := range modeNames {
		if n == key {
			return Mode(i), nil
		}
	}
	return Reactive, fmt.Errorf("unknown LED mode %q", name)
}

// Framing selects the frame layout.
type Framing int

const (
	// Single is [mode, c1, c2, c3].
	Single Framing = iota
	// Dual is [mode, c1, c2, c3, c1', c2', c3', speed], the older layout that
	// effect modes need for their second colour and speed.
	Dual
)

func (f Framing) String() string {
	if f == Dual {
		return "dual"
	}
	return "single"
}

// Size is the encoded length of a frame.
func (f Framing) Size() int {
	if f == Dual {
		return DualSize
	}
	return SingleSize
}

func ParseFraming(name string) (Framing, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "single":
		return Single, nil
	case "dual", "legacy", "effect":
		return Dual, nil
	}
	return Single, fmt.Errorf("unknown frame layout %q", name)
}

// ColorModel selects how a colour is turned into three bytes.
type ColorModel int

const (
	RGB ColorModel = iota
	HSV
)

func (m ColorModel) String() string {
	if m == HSV {
		return "hsv"
	}
	return "rgb"
}

func ParseColorModel(name string) (ColorModel, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "rgb":
		return RGB, nil
	case "hsv":
		return HSV, nil
	}
	return RGB, fmt.Errorf("unknown colour model %q", name)
}
