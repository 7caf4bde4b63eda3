// SPDX-License-Identifier: MIT
package audio

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

// WAVDecoder implements Decoder for PCM WAV files.
type WAVDecoder struct {
	decoder    *wav.Decoder
	file       *os.File
	sampleRate int
	numChans   int
	scale      float32
	intBuf     *audio.IntBuffer
}

// NewWAVDecoder opens filename and seeks to the PCM data.
func NewWAVDecoder(filename string) (*WAVDecoder, error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, err
	}

	decoder := wav.NewDecoder(f)
	if !decoder.IsValidFile() {
		f.Close()
		return nil, errors.New("invalid WAV file")
	}

	if err := decoder.FwdToPCM(); err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to seek to PCM data: %w", err)
	}

	numChans := max(1, int(decoder.NumChans))
	return &WAVDecoder{
		decoder:    decoder,
		file:       f,
		sampleRate: int(decoder.SampleRate),
		numChans:   numChans,
		scale:      1 / float32(audio.IntMaxSignedValue(int(decoder.BitDepth))),
		intBuf: &audio.IntBuffer{
			Format: &audio.Format{
				NumChannels: numChans,
				SampleRate:  int(decoder.SampleRate),
			},
		},
	}, nil
}

// ReadChunk reads up to len(dst) frames and downmixes them.
func (d *WAVDecoder) ReadChunk(dst []float32) (int, error) {
	size := len(dst) * d.numChans
	if cap(d.intBuf.Data) < size {
		d.intBuf.Data = make([]int, size)
	}
	d.intBuf.Data = d.intBuf.Data[:size]

	n, err := d.decoder.PCMBuffer(d.intBuf)
	if err != nil && err != io.EOF {
		return 0, fmt.Errorf("failed to read PCM buffer: %w", err)
	}
	if n == 0 {
		return 0, io.EOF
	}

	frames := n / d.numChans
	for i := range frames {
		var sum int
		for ch := range d.numChans {
			sum += d.intBuf.Data[i*d.numChans+ch]
		}
		dst[i] = float32(sum) * d.scale / float32(d.numChans)
	}
	return frames, nil
}

func (d *WAVDecoder) SampleRate() int  { return d.sampleRate }
func (d *WAVDecoder) NumChannels() int { return d.numChans }

// Close closes the decoder and releases resources.
func (d *WAVDecoder) Close() error {
	if d.file != nil {
		err := d.file.Close()
		d.file = nil
		return err
	}
	return nil
}
