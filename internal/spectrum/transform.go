// SPDX-License-Identifier: MIT
//
// Package spectrum turns a block of time-domain samples into a magnitude
// spectrum. The transform is an in-place radix-2 Cooley-Tukey FFT whose
// forward direction is scaled by 1/N and whose inverse is unscaled; the
// magnitude constants in Analyzer depend on that convention.
package spectrum

import (
	"errors"
	"math"

	"moodlight/pkg/bitint"
)

var (
	ErrNotPowerOfTwo  = errors.New("spectrum: length is not a power of two")
	ErrLengthMismatch = errors.New("spectrum: real and imaginary lengths differ")
)

// Transform runs the FFT over re and im in place. Inputs are validated before
// anything is touched, so a rejected call leaves both slices unchanged.
func Transform(re, im []float64, forward bool) error {
	n := len(re)
	if len(im) != n {
		return ErrLengthMismatch
	}
	if !bitint.IsPowerOfTwo(n) {
		return ErrNotPowerOfTwo
	}

	bitReverse(re, im)

	// Twiddles advance by the half-angle recurrence
	// cos(x/2) = sqrt((1+cos x)/2), sin(x/2) = sqrt((1-cos x)/2),
	// so each stage costs two square roots instead of a trig call per butterfly.
	c1, c2 := -1.0, 0.0
	stages := bitint.Log2(n)
	span := 1
	for range stages {
		half := span
		span <<= 1
		u1, u2 := 1.0, 0.0
		for j := range half {
			for i := j; i < n; i += span {
				k := i + half
				t1 := u1*re[k] - u2*im[k]
				t2 := u1*im[k] + u2*re[k]
				re[k] = re[i] - t1
				im[k] = im[i] - t2
				re[i] += t1
				im[i] += t2
			}
			u1, u2 = u1*c1-u2*c2, u1*c2+u2*c1
		}
		c2 = math.Sqrt((1 - c1) / 2)
		if forward {
			c2 = -c2
		}
		c1 = math.Sqrt((1 + c1) / 2)
	}

	if forward {
		scale := 1 / float64(n)
		for i := range re {
			re[i] *= scale
			im[i] *= scale
		}
	}
	return nil
}

func bitReverse(re, im []float64) {
	n := len(re)
	j := 0
	for i := 0; i < n-1; i++ {
		if i < j {
			re[i], re[j] = re[j], re[i]
			im[i], im[j] = im[j], im[i]
		}
		k := n >> 1
		for k <= j {
			j -= k
			k >>= 1
		}
		j += k
	}
}

// FrequencyToBin maps a frequency to the nearest bin, clamped to the usable
// half of the spectrum [0, fftSize/2-1].
func FrequencyToBin(freq float64, fftSize int, sampleRate float64) int {
	if fftSize < 2 || sampleRate <= 0 || math.IsNaN(freq) {
		return 0
	}
	bin := math.Round(freq * float64(fftSize) / sampleRate)
	last := float64(fftSize/2 - 1)
	switch {
	case bin < 0:
		return 0
	case bin > last:
		return int(last)
	}
	return int(bin)
}

// BinToFrequency returns the centre frequency of bin.
func BinToFrequency(bin, fftSize int, sampleRate float64) float64 {
	if fftSize <= 0 || bin < 0 {
		return 0
	}
	return float64(bin) * sampleRate / float64(fftSize)
}
