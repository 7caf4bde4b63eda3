// SPDX-License-Identifier: MIT
package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"moodlight/internal/frame"
)

func writeTempConfig(t *testing.T, content string) string {
	t.Helper()
	tmp := t.TempDir()
	path := filepath.Join(tmp, "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write temp config: %v", err)
	}
	return path
}

func TestLoadConfig_EmptyPath(t *testing.T) {
	cfg, err := LoadConfig("")
	if err != nil {
		t.Errorf("expected nil error, got %v", err)
	}
	if cfg == nil {
		t.Fatal("expected default config, got nil")
	}
	if cfg.Engine.FFTSize != DefaultFFTSize {
		t.Errorf("FFTSize = %d, want %d", cfg.Engine.FFTSize, DefaultFFTSize)
	}
}

func TestLoadConfig_FileNotFound(t *testing.T) {
	t.Parallel()
	cfg, err := LoadConfig("nonexistent.yaml")
	if err == nil || !strings.Contains(err.Error(), "failed to read config file") {
		t.Errorf("expected read error, got %v", err)
	}
	if cfg != nil {
		t.Errorf("expected nil config on error, got %+v", cfg)
	}
}

func TestLoadConfig_UnmarshalError(t *testing.T) {
	t.Parallel()
	path := writeTempConfig(t, ":\n:bad")
	_, err := LoadConfig(path)
	if err == nil || !strings.Contains(err.Error(), "failed to parse config file") {
		t.Error("expected unmarshal error, got nil or wrong error")
	}
}

func TestLoadConfig_OverridesDefaults(t *testing.T) {
	t.Parallel()
	path := writeTempConfig(t, `
log_level: debug
engine:
  fft_size: 4096
  band_count: 16
  band_scale: logarithmic
  tick_interval: 50ms
output:
  sink: udp
  mode: breathing
  framing: dual
transport:
  udp_target_address: 10.0.0.2:7777
`)
	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Engine.FFTSize != 4096 || cfg.Engine.BandCount != 16 {
		t.Errorf("engine = %+v", cfg.Engine)
	}
	if cfg.Engine.TickInterval != 50*time.Millisecond {
		t.Errorf("TickInterval = %v, want 50ms", cfg.Engine.TickInterval)
	}
	if cfg.Output.Sink != "udp" || cfg.Output.Mode != "breathing" || cfg.Output.Framing != "dual" {
		t.Errorf("output = %+v", cfg.Output)
	}
	s, err := cfg.Settings()
	if err != nil {
		t.Fatalf("Settings: %v", err)
	}
	if s.Mode != frame.Breathing || s.Framing != frame.Dual {
		t.Errorf("settings mode/framing = %v/%v, want breathing/dual", s.Mode, s.Framing)
	}
	// Untouched keys keep their defaults.
	if cfg.Engine.ScaleFactor != DefaultScaleFactor {
		t.Errorf("ScaleFactor = %v, want %v", cfg.Engine.ScaleFactor, DefaultScaleFactor)
	}
	if cfg.Audio.SampleRate != DefaultSampleRate {
		t.Errorf("SampleRate = %v, want %v", cfg.Audio.SampleRate, DefaultSampleRate)
	}
}

func TestLoadConfig_Invalid(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name    string
		content string
		want    string
	}{
		{"fft not power of two", "engine:\n  fft_size: 1000\n", "engine.fft_size"},
		{"fft too small", "engine:\n  fft_size: 32\n", "engine.fft_size"},
		{"sample rate", "audio:\n  sample_rate: 100\n", "audio.sample_rate"},
		{"log level", "log_level: loud\n", "log_level"},
		{"unknown sink", "output:\n  sink: carrier-pigeon\n", "output.sink"},
		{"device without path", "output:\n  sink: device\n", "output.device_path"},
		{"bit depth", "recording:\n  enabled: true\n  bit_depth: 12\n", "recording.bit_depth"},
		{"window", "engine:\n  fft_window: triangle\n", "triangle"},
		{"hue mode", "engine:\n  color_calculation_mode: median\n", "median"},
		{"colour", "output:\n  primary_color: notacolour\n", "notacolour"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadConfig(writeTempConfig(t, tt.content))
			if err == nil {
				t.Fatal("expected error, got nil")
			}
			if !strings.Contains(err.Error(), "invalid configuration") || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error %q does not mention %q", err, tt.want)
			}
		})
	}
}

func TestApplyEnvOverrides(t *testing.T) {
	t.Setenv("ENV_DEBUG", "true")
	t.Setenv("ENV_LOG_LEVEL", "warn")
	t.Setenv("ENV_OUTPUT_SINK", "device")
	t.Setenv("ENV_DEVICE_PATH", "/dev/ttyACM0")
	t.Setenv("ENV_FFT_SIZE", "2048")
	t.Setenv("ENV_INPUT_FILE", "song.flac")

	cfg := Default()
	cfg.applyEnvOverrides()

	if !cfg.Debug {
		t.Error("Debug not overridden")
	}
	if cfg.LogLevel != "warn" {
		t.Errorf("LogLevel = %q, want warn", cfg.LogLevel)
	}
	if cfg.Output.Sink != "device" || cfg.Output.DevicePath != "/dev/ttyACM0" {
		t.Errorf("Output = %+v", cfg.Output)
	}
	if cfg.Engine.FFTSize != 2048 {
		t.Errorf("FFTSize = %d, want 2048", cfg.Engine.FFTSize)
	}
	if cfg.Audio.InputFile != "song.flac" {
		t.Errorf("InputFile = %q, want song.flac", cfg.Audio.InputFile)
	}
}

func TestApplyEnvOverrides_IgnoresMalformed(t *testing.T) {
	t.Setenv("ENV_DEBUG", "maybe")
	t.Setenv("ENV_FFT_SIZE", "lots")

	cfg := Default()
	cfg.applyEnvOverrides()

	if cfg.Debug {
		t.Error("malformed ENV_DEBUG changed Debug")
	}
	if cfg.Engine.FFTSize != DefaultFFTSize {
		t.Errorf("FFTSize = %d, want %d", cfg.Engine.FFTSize, DefaultFFTSize)
	}
}
