// SPDX-License-Identifier: MIT
//
// Package frame encodes colours into the byte frames understood by the LED
// controller.
package frame

import (
	"errors"
	"fmt"

	"moodlight/internal/color"
)

const (
	SingleSize = 4
	DualSize   = 8
)

var ErrFrameLength = errors.New("frame: unsupported length")

// Frame is a decoded frame with colours already in the wire colour model.
type Frame struct {
	Mode      Mode
	Primary   [3]uint8
	Secondary [3]uint8
	Speed     uint8
}

// Encoder converts colours to frames for one framing and colour model.
type Encoder struct {
	Framing Framing
	Model   ColorModel
}

// Triple converts c to three bytes in the encoder's colour model.
func (e Encoder) Triple(c color.HSL) [3]uint8 {
	if e.Model == HSV {
		return c.HSV().Bytes()
	}
	rgb := c.RGB()
	return [3]uint8{rgb.R, rgb.G, rgb.B}
}

// Frame builds a frame from HSL colours.
func (e Encoder) Frame(mode Mode, primary, secondary color.HSL, speed uint8) Frame {
	return Frame{
		Mode:      mode,
		Primary:   e.Triple(primary),
		Secondary: e.Triple(secondary),
		Speed:     speed,
	}
}

// Encode appends the frame to dst[:0]. Single framing drops the secondary
// colour and speed.
func (e Encoder) Encode(dst []byte, f Frame) []byte {
	dst = append(dst[:0], byte(f.Mode), f.Primary[0], f.Primary[1], f.Primary[2])
	if e.Framing == Dual {
		dst = append(dst, f.Secondary[0], f.Secondary[1], f.Secondary[2], f.Speed)
	}
	return dst
}

// Decode parses a 4 or 8 byte frame and reports which framing it used.
func Decode(b []byte) (Frame, Framing, error) {
	switch len(b) {
	case SingleSize:
		return Frame{Mode: Mode(b[0]), Primary: [3]uint8{b[1], b[2], b[3]}}, Single, nil
	case DualSize:
		return Frame{
			Mode:      Mode(b[0]),
			Primary:   [3]uint8{b[1], b[2], b[3]},
			Secondary: [3]uint8{b[4], b[5], b[6]},
			Speed:     b[7],
		}, Dual, nil
	}
	return Frame{}, Single, fmt.Errorf("%w: %d bytes", ErrFrameLength, len(b))
}
