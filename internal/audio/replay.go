// SPDX-License-Identifier: MIT
package audio

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"sync/atomic"
	"time"

	"moodlight/internal/log"
)

// DefaultReplayChunk is the number of mono samples decoded per pacing step.
const DefaultReplayChunk = 1024

// Replay plays an audio file into a ring at real-time pace, so the engine
// sees the same sample windows it would see from a live capture.
type Replay struct {
	path string
	loop bool
	open func(string) (Decoder, error)
	log  *log.Logger

	mu    sync.Mutex // guards dec
	dec   Decoder
	rate  float64
	chunk []float32
	ring  *Ring

	available atomic.Bool
	cancel    context.CancelFunc
	done      chan struct{}
}

// NewReplay opens path and prepares a ring of ringSize samples.
func NewReplay(path string, loop bool, ringSize int) (*Replay, error) {
	return newReplay(path, loop, ringSize, OpenDecoder)
}

func newReplay(path string, loop bool, ringSize int, open func(string) (Decoder, error)) (*Replay, error) {
	dec, err := open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	if dec.SampleRate() <= 0 {
		dec.Close()
		return nil, fmt.Errorf("%s: invalid sample rate %d", path, dec.SampleRate())
	}

	return &Replay{
		path:  path,
		loop:  loop,
		open:  open,
		log:   log.New("replay"),
		dec:   dec,
		rate:  float64(dec.SampleRate()),
		chunk: make([]float32, DefaultReplayChunk),
		ring:  NewRing(ringSize),
	}, nil
}

// Start begins pacing the file into the ring until ctx is cancelled, the
// file ends without looping, or Stop is called.
func (r *Replay) Start(ctx context.Context) error {
	if r.done != nil {
		return errors.New("replay already started")
	}
	ctx, r.cancel = context.WithCancel(ctx)
	r.done = make(chan struct{})

	interval := time.Duration(float64(len(r.chunk)) / r.rate * float64(time.Second))
	r.log.Infof("replaying %s at %.0f Hz (loop=%v)", r.path, r.rate, r.loop)
	go r.run(ctx, interval)
	return nil
}

func (r *Replay) run(ctx context.Context, interval time.Duration) {
	defer close(r.done)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			more, err := r.step()
			if err != nil {
				r.log.Errorf("replay stopped: %v", err)
				r.available.Store(false)
				return
			}
			if !more {
				r.log.Infof("finished %s", r.path)
				r.available.Store(false)
				return
			}
		}
	}
}

// step decodes one chunk into the ring. It returns false once the file has
// ended and looping is off.
func (r *Replay) step() (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.dec == nil {
		return false, nil
	}

	n, err := r.dec.ReadChunk(r.chunk)
	if n > 0 {
		r.ring.Write(r.chunk[:n])
		r.available.Store(true)
	}
	if err == nil {
		return true, nil
	}
	if !errors.Is(err, io.EOF) {
		return false, err
	}
	if !r.loop {
		return false, nil
	}

	r.dec.Close()
	r.dec = nil
	dec, err := r.open(r.path)
	if err != nil {
		return false, fmt.Errorf("failed to reopen %s: %w", r.path, err)
	}
	r.dec = dec
	r.log.Debugf("looping %s", r.path)
	return true, nil
}

// Stop halts playback and closes the decoder.
func (r *Replay) Stop() error {
	if r.cancel != nil {
		r.cancel()
		<-r.done
	}
	r.available.Store(false)

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.dec == nil {
		return nil
	}
	err := r.dec.Close()
	r.dec = nil
	return err
}

func (r *Replay) Available() bool     { return r.available.Load() }
func (r *Replay) SampleRate() float64 { return r.rate }

// SampleBuffer copies the newest decoded samples into dst.
func (r *Replay) SampleBuffer(dst []float32) error {
	if !r.available.Load() {
		return ErrUnavailable
	}
	r.ring.Latest(dst)
	return nil
}
