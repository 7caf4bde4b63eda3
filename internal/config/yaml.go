// SPDX-License-Identifier: MIT
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"moodlight/internal/log"
	"moodlight/pkg/bitint"
)

// Config represents the main application configuration structure, loaded from YAML.
type Config struct {
	Debug     bool            `yaml:"debug"`     // Enable debug logging.
	LogLevel  string          `yaml:"log_level"` // Logging level (e.g., "debug", "info", "warn", "error").
	Audio     AudioConfig     `yaml:"audio"`     // Audio capture or file replay.
	Recording RecordingConfig `yaml:"recording"` // WAV tap of the captured input.
	Engine    EngineConfig    `yaml:"engine"`    // Colour pipeline parameters.
	Output    OutputConfig    `yaml:"output"`    // Frame sink and LED mode.
	Transport TransportConfig `yaml:"transport"` // Network sinks and observers.
}

// AudioConfig holds settings related to audio input.
type AudioConfig struct {
	InputDevice     int     `yaml:"input_device"`      // PortAudio device index (-1 for default). Point it at a loopback/monitor device to follow system audio.
	SampleRate      float64 `yaml:"sample_rate"`       // Sample rate in Hz.
	FramesPerBuffer int     `yaml:"frames_per_buffer"` // Frames per PortAudio callback.
	LowLatency      bool    `yaml:"low_latency"`       // Request the device's low latency settings.
	InputChannels   int     `yaml:"input_channels"`    // Channels to capture; downmixed to mono.
	RingSize        int     `yaml:"ring_size"`         // Samples kept for analysis (0 = twice the FFT size).
	GateEnabled     bool    `yaml:"gate_enabled"`      // Zero blocks whose peak is under the gate threshold.
	GateThreshold   float64 `yaml:"gate_threshold"`    // Gate threshold as a fraction of full scale (0-1).
	InputFile       string  `yaml:"input_file"`        // Replay a WAV, MP3 or FLAC file instead of capturing.
	Loop            bool    `yaml:"loop"`              // Restart the file when it ends.
}

// RecordingConfig holds settings for the WAV tap on the capture stream.
type RecordingConfig struct {
	Enabled   bool   `yaml:"enabled"`    // Record the captured input to a WAV file.
	OutputDir string `yaml:"output_dir"` // Directory for recordings.
	BitDepth  int    `yaml:"bit_depth"`  // 16, 24 or 32.
}

// EngineConfig holds the colour pipeline parameters. All of them can be
// changed at runtime through the settings store.
type EngineConfig struct {
	TickInterval              time.Duration `yaml:"tick_interval"`
	FFTSize                   int           `yaml:"fft_size"`   // Power of two.
	FFTWindow                 string        `yaml:"fft_window"` // rectangular, hann, hamming, blackman, ...
	MinimumFrequency          float64       `yaml:"minimum_frequency"`
	MaximumFrequency          float64       `yaml:"maximum_frequency"`
	BandCount                 int           `yaml:"band_count"`
	BandScale                 string        `yaml:"band_scale"`   // linear or logarithmic.
	ScaleFactor               float64       `yaml:"scale_factor"` // Gain applied to band heights.
	LoudnessCurve             bool          `yaml:"loudness_curve"`
	NormalizeHeights          bool          `yaml:"normalize_heights"`
	PeakDetection             bool          `yaml:"peak_detection"`
	ThresholdWindow           int           `yaml:"threshold_window"`
	ThresholdThreshold        float64       `yaml:"threshold_threshold"`
	ThresholdInfluence        float64       `yaml:"threshold_influence"`
	BlendedFrames             int           `yaml:"blended_frames"`
	ColorCalculationMode      string        `yaml:"color_calculation_mode"`      // linear, angular, vectorlinear, vectorangular.
	BrightnessCalculationMode string        `yaml:"brightness_calculation_mode"` // average, top10, top25, top50, blendedoverhalf.
	ColorScale                string        `yaml:"color_scale"`                 // unit, legacy (0-240) or degrees (0-360).
}

// OutputConfig selects where frames go and what they look like.
type OutputConfig struct {
	Sink           string `yaml:"sink"`            // udp, device, log or none.
	DevicePath     string `yaml:"device_path"`     // Character device or file for the device sink.
	Mode           string `yaml:"mode"`            // LED mode sent in every frame.
	Framing        string `yaml:"framing"`         // single or dual.
	ColorModel     string `yaml:"color_model"`     // rgb or hsv.
	PrimaryColor   string `yaml:"primary_color"`   // Effect colour, #rrggbb.
	SecondaryColor string `yaml:"secondary_color"` // Second effect colour, #rrggbb.
	Speed          int    `yaml:"speed"`           // Effect speed, 0-255.
}

// TransportConfig holds settings for network sinks and observers.
type TransportConfig struct {
	UDPTargetAddress string        `yaml:"udp_target_address"` // Controller address for the udp sink.
	PublishEnabled   bool          `yaml:"publish_enabled"`    // Publish engine snapshots over UDP.
	PublishAddress   string        `yaml:"publish_address"`
	PublishInterval  time.Duration `yaml:"publish_interval"`
	WebSocketEnabled bool          `yaml:"websocket_enabled"` // Serve engine snapshots over WebSocket.
	WebSocketAddress string        `yaml:"websocket_address"`
}

// Candidate file names searched when no path is given.
var candidates = []string{"moodlight.yaml", "config.yaml"}

// LoadConfig loads configuration from a YAML file specified by path. If path
// is empty, it searches the default locations and falls back to built-in
// defaults when none exists. Environment overrides are applied last, then the
// result is validated.
func LoadConfig(path string) (*Config, error) {
	cfg := Default()

	if path == "" {
		for _, candidate := range candidates {
			if _, err := os.Stat(candidate); err == nil {
				path = candidate
				break
			}
		}
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	cfg.applyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// Validate rejects configurations the engine cannot start with. Numeric
// values that are merely out of range are clamped later instead.
func (c *Config) Validate() error {
	var errs []error

	if !bitint.IsPowerOfTwo(c.Engine.FFTSize) || c.Engine.FFTSize < MinFFTSize || c.Engine.FFTSize > MaxFFTSize {
		errs = append(errs, fmt.Errorf("engine.fft_size must be a power of two in [%d, %d], got %d",
			MinFFTSize, MaxFFTSize, c.Engine.FFTSize))
	}
	if c.Audio.SampleRate < MinSampleRate || c.Audio.SampleRate > MaxSampleRate {
		errs = append(errs, fmt.Errorf("audio.sample_rate must be in [%d, %d], got %v",
			MinSampleRate, MaxSampleRate, c.Audio.SampleRate))
	}
	if c.LogLevel != "" {
		if _, ok := log.ParseLevel(c.LogLevel); !ok {
			errs = append(errs, fmt.Errorf("log_level %q is not a known level", c.LogLevel))
		}
	}
	switch strings.ToLower(c.Output.Sink) {
	case "udp":
		if c.Transport.UDPTargetAddress == "" {
			errs = append(errs, errors.New("transport.udp_target_address must be set for the udp sink"))
		}
	case "device":
		if c.Output.DevicePath == "" {
			errs = append(errs, errors.New("output.device_path must be set for the device sink"))
		}
	case "", "log", "none":
	default:
		errs = append(errs, fmt.Errorf("output.sink %q is not one of udp, device, log, none", c.Output.Sink))
	}
	if c.Recording.Enabled {
		switch c.Recording.BitDepth {
		case 16, 24, 32:
		default:
			errs = append(errs, fmt.Errorf("recording.bit_depth must be 16, 24 or 32, got %d", c.Recording.BitDepth))
		}
	}

	// Enum names and colours are checked by building the settings.
	if _, err := c.Settings(); err != nil {
		errs = append(errs, err)
	}

	return errors.Join(errs...)
}

// applyEnvOverrides applies ENV_* variables on top of the file values.
func (cfg *Config) applyEnvOverrides() {
	// ENV_DEBUG
	if val, ok := os.LookupEnv("ENV_DEBUG"); ok {
		if bVal, err := strconv.ParseBool(val); err == nil {
			cfg.Debug = bVal
			log.Infof("configuration: Overriding debug from env: %v", bVal)
		}
	}
	// ENV_LOG_LEVEL
	if val, ok := os.LookupEnv("ENV_LOG_LEVEL"); ok {
		cfg.LogLevel = val
		log.Infof("configuration: Overriding log_level from env: %s", val)
	}
	// ENV_OUTPUT_SINK
	if val, ok := os.LookupEnv("ENV_OUTPUT_SINK"); ok {
		cfg.Output.Sink = val
		log.Infof("configuration: Overriding output.sink from env: %s", val)
	}
	// ENV_DEVICE_PATH
	if val, ok := os.LookupEnv("ENV_DEVICE_PATH"); ok {
		cfg.Output.DevicePath = val
		log.Infof("configuration: Overriding output.device_path from env: %s", val)
	}
	// ENV_UDP_TARGET_ADDRESS
	if val, ok := os.LookupEnv("ENV_UDP_TARGET_ADDRESS"); ok {
		cfg.Transport.UDPTargetAddress = val
		log.Infof("configuration: Overriding transport.udp_target_address from env: %s", val)
	}
	// ENV_FFT_SIZE
	if val, ok := os.LookupEnv("ENV_FFT_SIZE"); ok {
		if n, err := strconv.Atoi(val); err == nil {
			cfg.Engine.FFTSize = n
			log.Infof("configuration: Overriding engine.fft_size from env: %d", n)
		}
	}
	// ENV_INPUT_FILE
	if val, ok := os.LookupEnv("ENV_INPUT_FILE"); ok {
		cfg.Audio.InputFile = val
		log.Infof("configuration: Overriding audio.input_file from env: %s", val)
	}
}
