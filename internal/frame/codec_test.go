// SPDX-License-Identifier: MIT
package frame

import (
	"bytes"
	"errors"
	"testing"

	"moodlight/internal/color"
)

var (
	red  = color.HSL{H: 0, S: 1, L: 0.5}
	blue = color.HSL{H: 2.0 / 3, S: 1, L: 0.5}
)

func TestEncodeLayouts(t *testing.T) {
	tests := []struct {
		name string
		enc  Encoder
		mode Mode
		want []byte
	}{
		{"single rgb", Encoder{Framing: Single, Model: RGB}, Reactive, []byte{7, 255, 0, 0}},
		{"dual rgb", Encoder{Framing: Dual, Model: RGB}, Breathing, []byte{2, 255, 0, 0, 0, 0, 255, 40}},
		{"single hsv", Encoder{Framing: Single, Model: HSV}, Visualizer, []byte{8, 0, 255, 255}},
		{"dual hsv", Encoder{Framing: Dual, Model: HSV}, Cycle, []byte{5, 0, 255, 255, 170, 255, 255, 40}},
		{"off", Encoder{}, Off, []byte{0, 255, 0, 0}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := tt.enc.Frame(tt.mode, red, blue, 40)
			got := tt.enc.Encode(nil, f)
			if !bytes.Equal(got, tt.want) {
				t.Errorf("Encode() = %v, want %v", got, tt.want)
			}
			if len(got) != tt.enc.Framing.Size() {
				t.Errorf("len = %d, Size() = %d", len(got), tt.enc.Framing.Size())
			}
		})
	}
}

func TestEncodeReusesBuffer(t *testing.T) {
	enc := Encoder{Framing: Dual}
	buf := make([]byte, 0, DualSize)
	f := enc.Frame(Reactive, red, color.Off, 0)

	allocs := testing.AllocsPerRun(100, func() {
		buf = enc.Encode(buf, f)
	})
	if allocs > 0 {
		t.Errorf("Encode allocated %.1f times per run", allocs)
	}
}

func TestDecodeRoundTrip(t *testing.T) {
	for _, framing := range []Framing{Single, Dual} {
		enc := Encoder{Framing: framing}
		want := enc.Frame(Strobe, red, blue, 200)
		if framing == Single {
			want.Secondary = [3]uint8{}
			want.Speed = 0
		}

		got, gotFraming, err := Decode(enc.Encode(nil, want))
		if err != nil {
			t.Fatalf("%v: Decode() error = %v", framing, err)
		}
		if gotFraming != framing || got != want {
			t.Errorf("%v: Decode() = (%+v, %v), want (%+v, %v)", framing, got, gotFraming, want, framing)
		}
	}
}

func TestDecodeRejectsLength(t *testing.T) {
	for _, n := range []int{0, 3, 5, 9} {
		if _, _, err := Decode(make([]byte, n)); !errors.Is(err, ErrFrameLength) {
			t.Errorf("Decode(%d bytes) error = %v, want ErrFrameLength", n, err)
		}
	}
}

func TestParseMode(t *testing.T) {
	tests := []struct {
		in      string
		want    Mode
		wantErr bool
	}{
		{"off", Off, false},
		{"Static", Static, false},
		{"StaticColor", Static, false},
		{"heartbeat", Heartbeat, false},
		{"ColorReactive", Reactive, false},
		{"visualizer", Visualizer, false},
		{"disco", Reactive, true},
	}

	for _, tt := range tests {
		got, err := ParseMode(tt.in)
		if (err != nil) != tt.wantErr || got != tt.want {
			t.Errorf("ParseMode(%q) = (%v, %v), want (%v, err=%v)", tt.in, got, err, tt.want, tt.wantErr)
		}
	}
}

func TestModeValues(t *testing.T) {
	// The numbering is part of the wire format.
	want := map[Mode]uint8{
		Off: 0, Static: 1, Breathing: 2, Heartbeat: 3, Strobe: 4,
		Cycle: 5, Rainbow: 6, Reactive: 7, Visualizer: 8,
	}
	for m, v := range want {
		if uint8(m) != v {
			t.Errorf("%v = %d, want %d", m, uint8(m), v)
		}
	}
	if !Reactive.AudioDriven() || !Visualizer.AudioDriven() || Static.AudioDriven() {
		t.Error("AudioDriven() classification is wrong")
	}
}

func TestParseFramingAndModel(t *testing.T) {
	if f, err := ParseFraming("legacy"); err != nil || f != Dual {
		t.Errorf("ParseFraming(legacy) = (%v, %v)", f, err)
	}
	if _, err := ParseFraming("triple"); err == nil {
		t.Error("ParseFraming(triple) expected error")
	}
	if m, err := ParseColorModel("HSV"); err != nil || m != HSV {
		t.Errorf("ParseColorModel(HSV) = (%v, %v)", m, err)
	}
	if _, err := ParseColorModel("cmyk"); err == nil {
		t.Error("ParseColorModel(cmyk) expected error")
	}
}
