// SPDX-License-Identifier: MIT
package audio

import (
	"fmt"
	"runtime"
	"sync/atomic"
	"time"

	"github.com/gordonklaus/portaudio"

	"moodlight/internal/config"
	"moodlight/internal/log"
)

// minStaleness bounds how long a silent callback gap is tolerated before
// the capture reports itself unavailable.
const minStaleness = 250 * time.Millisecond

// Capture reads a PortAudio input stream, downmixes it to mono, gates it
// and keeps the newest samples in a ring for the engine.
type Capture struct {
	cfg config.AudioConfig
	log *log.Logger

	// Audio input handling.
	inputDevice  *portaudio.DeviceInfo
	inputLatency time.Duration
	inputStream  *portaudio.Stream
	running      atomic.Bool

	// Callback workspace, pre-allocated for frames x channels.
	inputBuffer []float32
	monoBuffer  []float32

	gate     *Gate
	ring     *Ring
	recorder *Recorder

	lastWrite  atomic.Int64 // unix nanoseconds of the last callback
	staleAfter time.Duration
	now        func() time.Time
}

// NewCapture resolves the input device and allocates the capture buffers.
// ringSize is the number of mono samples kept for analysis.
func NewCapture(cfg *config.AudioConfig, ringSize int) (*Capture, error) {
	inputDevice, err := InputDevice(cfg.InputDevice)
	if err != nil {
		return nil, err
	}

	c := newCapture(cfg, ringSize)
	c.inputDevice = inputDevice
	if cfg.LowLatency {
		c.inputLatency = inputDevice.DefaultLowInputLatency
	} else {
		c.inputLatency = inputDevice.DefaultHighInputLatency
	}
	return c, nil
}

func newCapture(cfg *config.AudioConfig, ringSize int) *Capture {
	channels := max(1, cfg.InputChannels)
	frames := max(1, cfg.FramesPerBuffer)

	staleAfter := minStaleness
	if cfg.SampleRate > 0 {
		block := time.Duration(float64(frames) / cfg.SampleRate * float64(time.Second))
		staleAfter = max(staleAfter, 4*block)
	}

	return &Capture{
		cfg:         *cfg,
		log:         log.New("capture"),
		inputBuffer: make([]float32, frames*channels),
		monoBuffer:  make([]float32, frames),
		gate:        NewGate(cfg.GateEnabled, cfg.GateThreshold),
		ring:        NewRing(ringSize),
		recorder:    NewRecorder(int(cfg.SampleRate), channels),
		staleAfter:  staleAfter,
		now:         time.Now,
	}
}

// Start opens and starts the input stream.
func (c *Capture) Start() error {
	params := portaudio.StreamParameters{
		Input: portaudio.StreamDeviceParameters{
			Channels: max(1, c.cfg.InputChannels),
			Device:   c.inputDevice,
			Latency:  c.inputLatency,
		},
		Output: portaudio.StreamDeviceParameters{
			Channels: 0, // No output device
			Device:   nil,
		},
		FramesPerBuffer: max(1, c.cfg.FramesPerBuffer),
		SampleRate:      c.cfg.SampleRate,
	}

	stream, err := portaudio.OpenStream(params, c.processInputStream)
	if err != nil {
		return fmt.Errorf("failed to open input stream: %w", err)
	}
	c.inputStream = stream

	if err := c.inputStream.Start(); err != nil {
		c.inputStream.Close()
		c.inputStream = nil
		return fmt.Errorf("failed to start input stream: %w", err)
	}

	c.running.Store(true)
	c.log.Infof("capturing from %q at %.0f Hz, %d channel(s)",
		c.inputDevice.Name, c.cfg.SampleRate, max(1, c.cfg.InputChannels))
	return nil
}

// Stop stops and closes the input stream.
func (c *Capture) Stop() error {
	c.running.Store(false)
	if c.inputStream == nil {
		return nil
	}
	if err := c.inputStream.Stop(); err != nil {
		return err
	}
	if err := c.inputStream.Close(); err != nil {
		return err
	}
	c.inputStream = nil
	return nil
}

// processInputStream is the PortAudio callback.
// Performance Critical:
// - Runs on the PortAudio thread (LockOSThread)
// - Uses pre-allocated buffers only
func (c *Capture) processInputStream(in []float32) {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	n := copy(c.inputBuffer, in)
	c.process(c.inputBuffer[:n])
}

// process handles one interleaved block: recording tap, downmix, gate,
// ring write.
func (c *Capture) process(block []float32) {
	if err := c.recorder.Write(block); err != nil {
		c.log.Warnf("%v", err)
	}

	mono := downmix(c.monoBuffer, block, max(1, c.cfg.InputChannels))
	c.gate.Apply(mono)
	c.ring.Write(mono)
	c.lastWrite.Store(c.now().UnixNano())
}

// downmix averages interleaved channels into dst.
func downmix(dst, block []float32, channels int) []float32 {
	frames := min(len(dst), len(block)/channels)
	dst = dst[:frames]
	if channels == 1 {
		copy(dst, block)
		return dst
	}
	inv := 1 / float32(channels)
	for i := range dst {
		var sum float32
		for ch := range channels {
			sum += block[i*channels+ch]
		}
		dst[i] = sum * inv
	}
	return dst
}

// Available reports whether the stream delivered samples recently.
func (c *Capture) Available() bool {
	last := c.lastWrite.Load()
	if last == 0 || c.ring.Len() == 0 {
		return false
	}
	return c.now().Sub(time.Unix(0, last)) <= c.staleAfter
}

// SampleBuffer copies the newest samples into dst.
func (c *Capture) SampleBuffer(dst []float32) error {
	if !c.Available() {
		return ErrUnavailable
	}
	c.ring.Latest(dst)
	return nil
}

func (c *Capture) SampleRate() float64 { return c.cfg.SampleRate }

// Gate exposes the noise gate for runtime adjustment.
func (c *Capture) Gate() *Gate { return c.gate }

// StartRecording begins a WAV tap in dir and returns the file name.
func (c *Capture) StartRecording(dir string, bitDepth int) (string, error) {
	name := RecordingName(dir, c.now())
	if err := c.recorder.Start(name, bitDepth); err != nil {
		return "", err
	}
	c.log.Infof("recording to %s", name)
	return name, nil
}

func (c *Capture) StopRecording() error { return c.recorder.Stop() }

func (c *Capture) Recording() bool { return c.recorder.Recording() }

// Close stops any recording and the input stream.
func (c *Capture) Close() error {
	if err := c.StopRecording(); err != nil {
		return err
	}
	return c.Stop()
}
