// SPDX-License-Identifier: MIT
package config

import (
	"errors"
	"fmt"
	"math"
	"time"

	"moodlight/internal/average"
	"moodlight/internal/bands"
	"moodlight/internal/color"
	"moodlight/internal/frame"
	"moodlight/internal/peak"
	"moodlight/internal/spectrum"
	"moodlight/pkg/bitint"
)

var ErrInvalidFFTSize = errors.New("fft size must be a power of two")

// Settings is the typed, immutable snapshot the engine reads at the top of
// every tick. Version increases with every change made through a Store.
type Settings struct {
	Version uint64

	TickInterval time.Duration
	FFTSize      int
	Window       spectrum.WindowFunc

	MinimumFrequency float64
	MaximumFrequency float64
	BandCount        int
	BandScale        bands.Scale
	ScaleFactor      float64
	LoudnessCurve    bool
	NormalizeHeights bool

	PeakDetection bool
	Peak          peak.Params

	BlendedFrames  int
	HueMode        average.HueMode
	LuminosityMode average.LuminosityMode
	ColorScale     color.Scale

	Mode       frame.Mode
	Framing    frame.Framing
	ColorModel frame.ColorModel
	Primary    color.HSL
	Secondary  color.HSL
	Speed      uint8
}

// Settings converts the engine and output sections into a snapshot. Unknown
// names and malformed colours are errors; numeric ranges are left to
// Sanitize.
func (c *Config) Settings() (Settings, error) {
	var errs []error
	collect := func(err error) {
		if err != nil {
			errs = append(errs, err)
		}
	}

	e := c.Engine
	s := Settings{
		TickInterval:     e.TickInterval,
		FFTSize:          e.FFTSize,
		MinimumFrequency: e.MinimumFrequency,
		MaximumFrequency: e.MaximumFrequency,
		BandCount:        e.BandCount,
		ScaleFactor:      e.ScaleFactor,
		LoudnessCurve:    e.LoudnessCurve,
		NormalizeHeights: e.NormalizeHeights,
		PeakDetection:    e.PeakDetection,
		Peak: peak.Params{
			Window:    e.ThresholdWindow,
			Threshold: e.ThresholdThreshold,
			Influence: e.ThresholdInfluence,
		},
		BlendedFrames: e.BlendedFrames,
		Speed:         uint8(max(0, min(c.Output.Speed, 255))),
	}

	var err error
	s.Window, err = spectrum.ParseWindowFunc(e.FFTWindow)
	collect(err)
	s.BandScale, err = bands.ParseScale(e.BandScale)
	collect(err)
	s.HueMode, err = average.ParseHueMode(e.ColorCalculationMode)
	collect(err)
	s.LuminosityMode, err = average.ParseLuminosityMode(e.BrightnessCalculationMode)
	collect(err)
	s.ColorScale, err = color.ParseScale(e.ColorScale)
	collect(err)

	s.Mode, err = frame.ParseMode(c.Output.Mode)
	collect(err)
	s.Framing, err = frame.ParseFraming(c.Output.Framing)
	collect(err)
	s.ColorModel, err = frame.ParseColorModel(c.Output.ColorModel)
	collect(err)

	s.Primary, err = parseColor(c.Output.PrimaryColor)
	collect(err)
	s.Secondary, err = parseColor(c.Output.SecondaryColor)
	collect(err)

	if err := errors.Join(errs...); err != nil {
		return Settings{}, err
	}
	return s.Sanitize(), nil
}

func parseColor(hex string) (color.HSL, error) {
	if hex == "" {
		return color.Off, nil
	}
	rgb, err := color.ParseHex(hex)
	if err != nil {
		return color.Off, err
	}
	return color.FromRGB(rgb), nil
}

// Sanitize clamps numeric fields into the ranges the pipeline accepts. The
// FFT size is not touched: a bad size is rejected, not repaired.
func (s Settings) Sanitize() Settings {
	if s.TickInterval < MinTickInterval {
		s.TickInterval = DefaultTickInterval
	}

	s.MinimumFrequency = finiteOr(s.MinimumFrequency, DefaultMinimumFrequency)
	s.MaximumFrequency = finiteOr(s.MaximumFrequency, DefaultMaximumFrequency)
	s.MinimumFrequency = math.Max(s.MinimumFrequency, 0)
	if s.MaximumFrequency <= s.MinimumFrequency {
		s.MaximumFrequency = s.MinimumFrequency + 1
	}

	s.BandCount = max(1, min(s.BandCount, MaxBandCount))
	if !(s.ScaleFactor > 0) || math.IsInf(s.ScaleFactor, 0) {
		s.ScaleFactor = 1
	}

	s.Peak.Window = max(0, s.Peak.Window)
	s.Peak.Threshold = math.Max(finiteOr(s.Peak.Threshold, DefaultThresholdThreshold), 0)
	s.Peak.Influence = math.Min(math.Max(finiteOr(s.Peak.Influence, DefaultThresholdInfluence), 0), 1)

	s.BlendedFrames = max(0, min(s.BlendedFrames, MaxBlendedFrames))
	return s
}

// ValidFFTSize reports whether n can be used as an FFT size.
func ValidFFTSize(n int) bool {
	return bitint.IsPowerOfTwo(n) && n >= MinFFTSize && n <= MaxFFTSize
}

func (s Settings) validate() error {
	if !ValidFFTSize(s.FFTSize) {
		return fmt.Errorf("%w in [%d, %d], got %d", ErrInvalidFFTSize, MinFFTSize, MaxFFTSize, s.FFTSize)
	}
	return nil
}

func finiteOr(v, fallback float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return fallback
	}
	return v
}
