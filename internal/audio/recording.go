// SPDX-License-Identifier: MIT
package audio

import (
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

var ErrAlreadyRecording = errors.New("already recording")

// Recorder taps the interleaved capture stream into a PCM WAV file.
type Recorder struct {
	sampleRate int
	channels   int

	mu          sync.Mutex
	isRecording atomic.Bool
	outputFile  *os.File
	wavEncoder  *wav.Encoder
	sampleBuf   *audio.IntBuffer // Reusable buffer for format conversion
	scale       float64
	path        string
	dropped     atomic.Uint64
}

// NewRecorder returns an idle recorder for the given stream format.
func NewRecorder(sampleRate, channels int) *Recorder {
	return &Recorder{sampleRate: sampleRate, channels: max(1, channels)}
}

// RecordingName returns a timestamped file name inside dir.
func RecordingName(dir string, now time.Time) string {
	return filepath.Join(dir, "moodlight-"+now.Format("20060102-150405")+".wav")
}

// Start opens filename and begins recording at bitDepth (16, 24 or 32).
func (r *Recorder) Start(filename string, bitDepth int) error {
	switch bitDepth {
	case 16, 24, 32:
	default:
		return fmt.Errorf("unsupported bit depth %d", bitDepth)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.isRecording.Load() {
		return ErrAlreadyRecording
	}

	if dir := filepath.Dir(filename); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create recording directory: %w", err)
		}
	}

	file, err := os.Create(filename)
	if err != nil {
		return err
	}

	r.outputFile = file
	r.wavEncoder = wav.NewEncoder(file, r.sampleRate, bitDepth, r.channels, 1)
	r.sampleBuf = &audio.IntBuffer{
		Format: &audio.Format{
			NumChannels: r.channels,
			SampleRate:  r.sampleRate,
		},
		SourceBitDepth: bitDepth,
	}
	r.scale = float64(audio.IntMaxSignedValue(bitDepth))
	r.path = filename
	r.isRecording.Store(true)

	return nil
}

// Write converts one interleaved float block and appends it to the file.
// It never waits: if Start or Stop holds the recorder the block is dropped.
func (r *Recorder) Write(block []float32) error {
	if !r.isRecording.Load() {
		return nil
	}
	if !r.mu.TryLock() {
		r.dropped.Add(1)
		return nil
	}
	defer r.mu.Unlock()

	if r.wavEncoder == nil {
		return nil
	}

	if cap(r.sampleBuf.Data) < len(block) {
		r.sampleBuf.Data = make([]int, len(block))
	}
	r.sampleBuf.Data = r.sampleBuf.Data[:len(block)]
	for i, s := range block {
		v := math.Max(-1, math.Min(1, float64(s)))
		r.sampleBuf.Data[i] = int(math.Round(v * r.scale))
	}

	if err := r.wavEncoder.Write(r.sampleBuf); err != nil {
		return fmt.Errorf("error writing to WAV file: %w", err)
	}
	return nil
}

// Stop finalises the WAV header and closes the file. Stopping an idle
// recorder is a no-op.
func (r *Recorder) Stop() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.isRecording.Load() {
		return nil
	}
	r.isRecording.Store(false)

	var errs []error
	if r.wavEncoder != nil {
		errs = append(errs, r.wavEncoder.Close())
		r.wavEncoder = nil
	}
	if r.outputFile != nil {
		errs = append(errs, r.outputFile.Close())
		r.outputFile = nil
	}
	return errors.Join(errs...)
}

func (r *Recorder) Recording() bool { return r.isRecording.Load() }

// Path returns the file of the current or most recent recording.
func (r *Recorder) Path() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.path
}

// Dropped returns the number of blocks skipped because the recorder was busy.
func (r *Recorder) Dropped() uint64 { return r.dropped.Load() }
