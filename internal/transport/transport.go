// SPDX-License-Identifier: MIT
package transport

import (
	"errors"
	"time"

	"moodlight/internal/color"
)

// ErrClosed is returned by sinks and observers used after Close.
var ErrClosed = errors.New("transport closed")

// Sink receives encoded LED frames. Implementations should be thread-safe.
type Sink interface {
	Send(frame []byte) error
	Close() error
}

// Observer receives a snapshot after every committed tick. Publish must not
// block the caller.
type Observer interface {
	Publish(s Snapshot) error
	Close() error
}

// Color is the wire form of an HSL colour.
type Color struct {
	H   float64 `json:"h"`
	S   float64 `json:"s"`
	L   float64 `json:"l"`
	Hex string  `json:"hex"`
}

// ColorOf converts an internal colour for publishing, with the components
// expressed in scale.
func ColorOf(c color.HSL, scale color.Scale) Color {
	h, s, l := scale.External(c)
	return Color{H: h, S: s, L: l, Hex: c.RGB().Hex()}
}

// Snapshot describes one committed tick. Its slices are owned by the
// snapshot and safe to retain.
type Snapshot struct {
	Sequence uint64    `json:"sequence"`
	Time     time.Time `json:"time"`
	Mode     string    `json:"mode"`
	Silent   bool      `json:"silent"`
	Frame    Color     `json:"frame"`   // colour of this tick alone
	Blended  Color     `json:"blended"` // colour sent to the sink
	Peaks    []int     `json:"peaks,omitempty"`
	Heights  []float64 `json:"heights,omitempty"`
}
