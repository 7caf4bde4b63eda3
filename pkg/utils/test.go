// SPDX-License-Identifier: MIT
//
// Package utils holds signal generators and collaborator fakes shared by the
// package tests.
package utils

import (
	"errors"
	"math"
	"sync"
	"sync/atomic"
)

// GenerateComplexWave returns a 440 Hz fundamental with two harmonics.
func GenerateComplexWave(size int, sampleRate float64) []float32 {
	buffer := make([]float32, size)
	for i := range buffer {
		tm := float64(i) / sampleRate
		signal := math.Sin(2*math.Pi*440*tm)*0.5 +
			math.Sin(2*math.Pi*880*tm)*0.3 +
			math.Sin(2*math.Pi*1320*tm)*0.2
		buffer[i] = float32(signal * 0.9)
	}
	return buffer
}

// GenerateSineWave returns size samples of a unit sine at frequency.
func GenerateSineWave(size int, sampleRate, frequency float64) []float32 {
	buffer := make([]float32, size)
	for i := range buffer {
		t := float64(i) / sampleRate
		buffer[i] = float32(math.Sin(2*math.Pi*frequency*t) * 0.9)
	}
	return buffer
}

// GenerateBinSine returns a sine that completes exactly bin cycles over size
// samples, so its energy lands in a single FFT bin with no leakage.
func GenerateBinSine(size, bin int, amplitude float64) []float32 {
	buffer := make([]float32, size)
	for i := range buffer {
		buffer[i] = float32(amplitude * math.Sin(2*math.Pi*float64(bin*i)/float64(size)))
	}
	return buffer
}

// FindPeakBin returns the index of the largest magnitude in [startBin, endBin].
func FindPeakBin(magnitudes []float64, startBin, endBin int) int {
	if len(magnitudes) == 0 {
		return 0
	}
	if startBin < 0 {
		startBin = 0
	}
	if endBin >= len(magnitudes) {
		endBin = len(magnitudes) - 1
	}

	peakBin := startBin
	peakValue := magnitudes[startBin]
	for bin := startBin + 1; bin <= endBin; bin++ {
		if magnitudes[bin] > peakValue {
			peakValue = magnitudes[bin]
			peakBin = bin
		}
	}
	return peakBin
}

// MockSink records every frame it is sent. Set Err to make Send fail and
// Block to hold Send until the channel is closed or receives.
type MockSink struct {
	Err   error
	Block chan struct{}

	mu     sync.Mutex
	frames [][]byte
	closed bool
}

// Send stores a copy of frame.
func (m *MockSink) Send(frame []byte) error {
	if m.Block != nil {
		<-m.Block
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	m.frames = append(m.frames, append([]byte(nil), frame...))
	return nil
}

func (m *MockSink) Close() error {
	m.mu.Lock()
	m.closed = true
	m.mu.Unlock()
	return nil
}

// Frames returns the frames received so far.
func (m *MockSink) Frames() [][]byte {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([][]byte(nil), m.frames...)
}

// Last returns the most recent frame, or nil.
func (m *MockSink) Last() []byte {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.frames) == 0 {
		return nil
	}
	return m.frames[len(m.frames)-1]
}

func (m *MockSink) Closed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}

var ErrMockUnavailable = errors.New("mock source unavailable")

// MockSource serves a fixed sample block. When Gate is set, SampleBuffer
// signals Entered and then waits on Gate, which lets a test hold a tick open.
type MockSource struct {
	Rate    float64
	Gate    chan struct{}
	Entered chan struct{}

	mu          sync.Mutex
	samples     []float32
	unavailable bool
	calls       atomic.Int64
}

func NewMockSource(rate float64, samples []float32) *MockSource {
	return &MockSource{Rate: rate, samples: samples}
}

// SetSamples replaces the block served by SampleBuffer.
func (m *MockSource) SetSamples(samples []float32) {
	m.mu.Lock()
	m.samples = samples
	m.mu.Unlock()
}

func (m *MockSource) SetAvailable(ok bool) {
	m.mu.Lock()
	m.unavailable = !ok
	m.mu.Unlock()
}

func (m *MockSource) Available() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return !m.unavailable
}

func (m *MockSource) SampleRate() float64 {
	return m.Rate
}

// SampleBuffer copies the block into dst, zero padding when it is shorter.
func (m *MockSource) SampleBuffer(dst []float32) error {
	m.calls.Add(1)
	if m.Gate != nil {
		if m.Entered != nil {
			m.Entered <- struct{}{}
		}
		<-m.Gate
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.unavailable {
		return ErrMockUnavailable
	}
	n := copy(dst, m.samples)
	clear(dst[n:])
	return nil
}

// Calls reports how many times SampleBuffer was invoked.
func (m *MockSource) Calls() int {
	return int(m.calls.Load())
}
