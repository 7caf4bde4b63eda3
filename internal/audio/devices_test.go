// SPDX-License-Identifier: MIT
package audio

import (
	"fmt"
	"strings"
	"testing"

	"github.com/gordonklaus/portaudio"
)

func stubDevices(t *testing.T, devices []*portaudio.DeviceInfo, err error) {
	t.Helper()
	orig := paLibDevicesFunc
	t.Cleanup(func() { paLibDevicesFunc = orig })
	paLibDevicesFunc = func() ([]*portaudio.DeviceInfo, error) {
		return devices, err
	}
}

func TestInputDevice(t *testing.T) {
	stubDevices(t, []*portaudio.DeviceInfo{
		{Name: "speakers", MaxOutputChannels: 2},
		{Name: "monitor of speakers", MaxInputChannels: 2},
	}, nil)

	dev, err := InputDevice(1)
	if err != nil {
		t.Fatalf("InputDevice(1) error: %v", err)
	}
	if dev.Name != "monitor of speakers" {
		t.Errorf("InputDevice(1) = %q", dev.Name)
	}

	tests := []struct {
		name   string
		id     int
		substr string
	}{
		{"Negative ID", -2, "invalid device ID"},
		{"Too high ID", 12, "invalid device ID"},
		{"Non-input device", 0, "does not support input"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := InputDevice(tt.id)
			if err == nil {
				t.Fatalf("Expected error for ID %d", tt.id)
			}
			if !strings.Contains(err.Error(), tt.substr) {
				t.Errorf("Error = %q, want substring %q", err.Error(), tt.substr)
			}
		})
	}
}

func TestInputDevice_paDevicesError(t *testing.T) {
	stubDevices(t, nil, fmt.Errorf("mock error"))

	_, err := InputDevice(0)
	if err == nil || !strings.Contains(err.Error(), "mock error") {
		t.Errorf("expected mock error, got %v", err)
	}
}

func TestInputDevice_paDefaultInputDeviceError(t *testing.T) {
	orig := paLibDefaultInputDeviceFunc
	defer func() { paLibDefaultInputDeviceFunc = orig }()
	paLibDefaultInputDeviceFunc = func() (*portaudio.DeviceInfo, error) {
		return nil, fmt.Errorf("mock default input error")
	}

	_, err := InputDevice(-1)
	if err == nil || !strings.Contains(err.Error(), "mock default input error") {
		t.Errorf("expected mock error, got %v", err)
	}
}

func TestErrorInitialize(t *testing.T) {
	orig := paLibInitialize
	defer func() { paLibInitialize = orig }()

	paLibInitialize = func() error { return nil }
	if err := Initialize(); err != nil {
		t.Errorf("expected nil, got %v", err)
	}

	paLibInitialize = func() error { return fmt.Errorf("mock init error") }
	if err := Initialize(); err == nil || !strings.Contains(err.Error(), "mock init error") {
		t.Errorf("expected mock init error, got %v", err)
	}
}

func TestErrorTerminate(t *testing.T) {
	orig := paLibTerminate
	defer func() { paLibTerminate = orig }()

	paLibTerminate = func() error { return nil }
	if err := Terminate(); err != nil {
		t.Errorf("expected nil, got %v", err)
	}

	paLibTerminate = func() error { return fmt.Errorf("mock term error") }
	if err := Terminate(); err == nil || !strings.Contains(err.Error(), "mock term error") {
		t.Errorf("expected mock term error, got %v", err)
	}
}

func TestNilDevices(t *testing.T) {
	stubDevices(t, nil, nil)

	devices, err := paDevices()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if devices == nil || len(devices) != 0 {
		t.Errorf("expected empty slice, got %v", devices)
	}
}

func TestDevices(t *testing.T) {
	stubDevices(t, []*portaudio.DeviceInfo{
		{Name: "speakers", MaxOutputChannels: 2, DefaultSampleRate: 48000},
		{Name: "monitor of speakers", MaxInputChannels: 2, DefaultSampleRate: 44100,
			HostApi: &portaudio.HostApiInfo{Name: "ALSA"}},
	}, nil)

	devices, err := Devices()
	if err != nil {
		t.Fatal(err)
	}
	if len(devices) != 2 {
		t.Fatalf("got %d devices, want 2", len(devices))
	}
	if devices[0].CanCapture() || !devices[1].CanCapture() {
		t.Error("CanCapture mismatch")
	}
	if devices[1].ID != 1 || devices[1].HostAPI != "ALSA" || devices[1].DefaultSampleRate != 44100 {
		t.Errorf("devices[1] = %+v", devices[1])
	}
	if devices[0].HostAPI != "" {
		t.Errorf("devices[0].HostAPI = %q, want empty", devices[0].HostAPI)
	}
}
