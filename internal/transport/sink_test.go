// SPDX-License-Identifier: MIT
package transport

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"moodlight/internal/color"
)

func TestDeviceSinkWritesFrames(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ttyFAKE")
	d, err := NewDeviceSink(path)
	if err != nil {
		t.Fatal(err)
	}

	frames := [][]byte{{7, 255, 0, 0}, {7, 0, 255, 0}}
	for _, f := range frames {
		if err := d.Send(f); err != nil {
			t.Fatalf("Send: %v", err)
		}
	}
	if err := d.Close(); err != nil {
		t.Fatal(err)
	}

	got, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(got, bytes.Join(frames, nil)) {
		t.Errorf("device contents = %v", got)
	}

	if err := d.Send(frames[0]); !errors.Is(err, ErrClosed) {
		t.Errorf("Send after Close = %v, want ErrClosed", err)
	}
}

func TestDeviceSinkOpenError(t *testing.T) {
	_, err := NewDeviceSink(filepath.Join(t.TempDir(), "missing", "dir", "tty"))
	if err == nil {
		t.Error("expected error for missing directory")
	}
}

func TestLoggingSinkCounts(t *testing.T) {
	s := NewLoggingSink()
	for range 3 {
		if err := s.Send([]byte{1, 2, 3, 4}); err != nil {
			t.Fatal(err)
		}
	}
	if s.Frames() != 3 {
		t.Errorf("Frames = %d, want 3", s.Frames())
	}
	if err := s.Close(); err != nil {
		t.Error(err)
	}
}

func TestColorOf(t *testing.T) {
	c := ColorOf(color.HSL{H: 0, S: 1, L: 0.5}, color.Unit)
	if c.Hex != "#ff0000" {
		t.Errorf("Hex = %q, want #ff0000", c.Hex)
	}
	if c.S != 1 || c.L != 0.5 {
		t.Errorf("ColorOf = %+v", c)
	}

	c = ColorOf(color.HSL{H: 0.5, S: 1, L: 0.5}, color.Legacy)
	if c.H != 120 || c.S != 240 || c.L != 120 {
		t.Errorf("legacy ColorOf = %+v", c)
	}
	if c.Hex != "#00ffff" {
		t.Errorf("scale changed the hex: %q", c.Hex)
	}
}
