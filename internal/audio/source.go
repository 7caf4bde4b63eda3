// SPDX-License-Identifier: MIT
/*
Package audio supplies mono sample windows to the colour engine.

Two sources exist: Capture reads a PortAudio input stream (point it at a
loopback or monitor device to follow system audio) and Replay paces a WAV,
MP3 or FLAC file through the same ring buffer for offline runs.

Thread Safety:
- The producer (PortAudio callback or replay goroutine) never waits on the
  consumer; the ring copies samples out under a short lock
- Pre-allocates buffers to avoid GC in the callback
*/
package audio

import "errors"

// ErrUnavailable is returned by SampleBuffer when a source has no live data.
var ErrUnavailable = errors.New("audio source unavailable")

// Source is the engine's view of an audio input.
type Source interface {
	// Available reports whether recent samples exist.
	Available() bool
	// SampleBuffer fills dst with the newest len(dst) mono samples, oldest
	// first. Missing history is zero-padded at the front.
	SampleBuffer(dst []float32) error
	// SampleRate returns the rate of the samples in Hz.
	SampleRate() float64
}
