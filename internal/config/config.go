// SPDX-License-Identifier: MIT
package config

import "time"

// Defaults and limits for the pipeline. The engine values are the ones the
// colour pipeline was tuned with; changing them changes how it looks.
const (
	// Audio
	MinDeviceID            = -1 // -1 selects the system default input
	DefaultSampleRate      = 44100
	DefaultFramesPerBuffer = 1024
	DefaultInputChannels   = 2
	DefaultGateThreshold   = 0.001
	MinSampleRate          = 8000
	MaxSampleRate          = 192000

	// Engine
	DefaultTickInterval       = 20 * time.Millisecond
	DefaultFFTSize            = 32768
	DefaultFFTWindow          = "rectangular"
	DefaultMinimumFrequency   = 0
	DefaultMaximumFrequency   = 5000
	DefaultBandCount          = 64
	DefaultBandScale          = "linear"
	DefaultScaleFactor        = 16
	DefaultThresholdWindow    = 5
	DefaultThresholdThreshold = 0.1
	DefaultThresholdInfluence = 0.5
	DefaultBlendedFrames      = 4
	DefaultColorMode          = "vectorangular"
	DefaultBrightnessMode     = "top10"
	DefaultColorScale         = "unit"

	MinFFTSize       = 64
	MaxFFTSize       = 65536
	MaxBandCount     = 1024
	MaxBlendedFrames = 256
	MinTickInterval  = time.Millisecond

	// Output
	DefaultSink           = "log"
	DefaultMode           = "reactive"
	DefaultFraming        = "single"
	DefaultColorModel     = "rgb"
	DefaultPrimaryColor   = "#ff0000"
	DefaultSecondaryColor = "#0000ff"
	DefaultEffectSpeed    = 128

	// Transport
	DefaultUDPTargetAddress = "127.0.0.1:7777"
	DefaultPublishAddress   = "127.0.0.1:9090"
	DefaultPublishInterval  = 33 * time.Millisecond
	DefaultWebSocketAddress = ":8080"
)

// Default returns a configuration populated with built-in defaults.
func Default() *Config {
	return &Config{
		LogLevel: "info",
		Audio: AudioConfig{
			InputDevice:     MinDeviceID,
			SampleRate:      DefaultSampleRate,
			FramesPerBuffer: DefaultFramesPerBuffer,
			InputChannels:   DefaultInputChannels,
			GateEnabled:     true,
			GateThreshold:   DefaultGateThreshold,
			Loop:            true,
		},
		Recording: RecordingConfig{
			OutputDir: "./recordings",
			BitDepth:  16,
		},
		Engine: EngineConfig{
			TickInterval:              DefaultTickInterval,
			FFTSize:                   DefaultFFTSize,
			FFTWindow:                 DefaultFFTWindow,
			MinimumFrequency:          DefaultMinimumFrequency,
			MaximumFrequency:          DefaultMaximumFrequency,
			BandCount:                 DefaultBandCount,
			BandScale:                 DefaultBandScale,
			ScaleFactor:               DefaultScaleFactor,
			PeakDetection:             true,
			ThresholdWindow:           DefaultThresholdWindow,
			ThresholdThreshold:        DefaultThresholdThreshold,
			ThresholdInfluence:        DefaultThresholdInfluence,
			BlendedFrames:             DefaultBlendedFrames,
			ColorCalculationMode:      DefaultColorMode,
			BrightnessCalculationMode: DefaultBrightnessMode,
			ColorScale:                DefaultColorScale,
		},
		Output: OutputConfig{
			Sink:           DefaultSink,
			Mode:           DefaultMode,
			Framing:        DefaultFraming,
			ColorModel:     DefaultColorModel,
			PrimaryColor:   DefaultPrimaryColor,
			SecondaryColor: DefaultSecondaryColor,
			Speed:          DefaultEffectSpeed,
		},
		Transport: TransportConfig{
			UDPTargetAddress: DefaultUDPTargetAddress,
			PublishAddress:   DefaultPublishAddress,
			PublishInterval:  DefaultPublishInterval,
			WebSocketAddress: DefaultWebSocketAddress,
		},
	}
}
