// SPDX-License-Identifier: MIT
package audio

import (
	"math"
	"sync/atomic"
)

// Gate silences blocks whose peak amplitude stays under a threshold. It is
// safe to reconfigure from any goroutine while the callback runs.
type Gate struct {
	enabled   atomic.Bool
	threshold atomic.Uint64 // float64 bits
}

// NewGate returns a gate with the given state and threshold.
func NewGate(enabled bool, threshold float64) *Gate {
	g := &Gate{}
	g.enabled.Store(enabled)
	g.SetThreshold(threshold)
	return g
}

func (g *Gate) Enable()       { g.enabled.Store(true) }
func (g *Gate) Disable()      { g.enabled.Store(false) }
func (g *Gate) Enabled() bool { return g.enabled.Load() }

// SetThreshold adjusts the noise gate threshold.
// The value is in the range of 0.0-1.0 where 0=always open, 1=always closed.
func (g *Gate) SetThreshold(threshold float64) {
	if math.IsNaN(threshold) || threshold < 0.0 {
		threshold = 0.0
	}
	if threshold > 1.0 {
		threshold = 1.0
	}
	g.threshold.Store(math.Float64bits(threshold))
}

// Threshold returns the current threshold as a fraction of full scale.
func (g *Gate) Threshold() float64 {
	return math.Float64frombits(g.threshold.Load())
}

// Apply zeroes block in place when the gate is enabled and the block's
// peak is below the threshold. It reports whether the block passed.
func (g *Gate) Apply(block []float32) bool {
	if !g.enabled.Load() {
		return true
	}
	if peakAmplitude(block) >= float32(g.Threshold()) {
		return true
	}
	clear(block)
	return false
}

func peakAmplitude(block []float32) float32 {
	var peak float32
	for _, s := range block {
		a := float32(math.Abs(float64(s)))
		if a > peak {
			peak = a
		}
	}
	return peak
}
