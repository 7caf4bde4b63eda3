// SPDX-License-Identifier: MIT
package audio

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/mewkiz/flac"
)

// FLACDecoder implements Decoder for FLAC files. Samples left over from a
// frame that did not fit in dst are kept for the next call.
type FLACDecoder struct {
	stream      *flac.Stream
	file        *os.File
	sampleRate  int
	numChannels int
	frameBuf    []float32
	pending     []float32
}

// NewFLACDecoder opens filename and reads the StreamInfo block.
func NewFLACDecoder(filename string) (*FLACDecoder, error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, err
	}

	stream, err := flac.New(f)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to create FLAC decoder: %w", err)
	}

	return &FLACDecoder{
		stream:      stream,
		file:        f,
		sampleRate:  int(stream.Info.SampleRate),
		numChannels: int(stream.Info.NChannels),
	}, nil
}

// ReadChunk fills dst from buffered and newly parsed frames.
func (d *FLACDecoder) ReadChunk(dst []float32) (int, error) {
	n := 0
	for n < len(dst) {
		if len(d.pending) == 0 {
			if err := d.parseFrame(); err != nil {
				if errors.Is(err, io.EOF) {
					if n == 0 {
						return 0, io.EOF
					}
					return n, nil
				}
				return n, err
			}
		}
		c := copy(dst[n:], d.pending)
		d.pending = d.pending[c:]
		n += c
	}
	return n, nil
}

// parseFrame decodes the next frame, downmixed and normalised, into pending.
func (d *FLACDecoder) parseFrame() error {
	frame, err := d.stream.ParseNext()
	if err != nil {
		if err == io.EOF {
			return io.EOF
		}
		return fmt.Errorf("failed to parse FLAC frame: %w", err)
	}
	if len(frame.Subframes) == 0 {
		return nil
	}

	count := len(frame.Subframes[0].Samples)
	if cap(d.frameBuf) < count {
		d.frameBuf = make([]float32, count)
	}
	d.pending = d.frameBuf[:count]

	maxVal := float32(int64(1) << (frame.BitsPerSample - 1))
	channels := float32(len(frame.Subframes))
	for i := range count {
		var sum int64
		for _, sub := range frame.Subframes {
			sum += int64(sub.Samples[i])
		}
		d.pending[i] = float32(sum) / channels / maxVal
	}
	return nil
}

func (d *FLACDecoder) SampleRate() int  { return d.sampleRate }
func (d *FLACDecoder) NumChannels() int { return d.numChannels }

// Close closes the decoder and releases resources.
func (d *FLACDecoder) Close() error {
	var errs []error
	if d.stream != nil {
		errs = append(errs, d.stream.Close())
		d.stream = nil
	}
	if d.file != nil {
		errs = append(errs, d.file.Close())
		d.file = nil
	}
	return errors.Join(errs...)
}
