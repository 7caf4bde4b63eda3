// SPDX-License-Identifier: MIT
package audio

import (
	"fmt"
	"io"
	"os"

	"github.com/hajimehoshi/go-mp3"
)

// MP3Decoder implements Decoder for MP3 files. go-mp3 always produces
// interleaved 16-bit little-endian stereo.
type MP3Decoder struct {
	decoder    *mp3.Decoder
	file       *os.File
	sampleRate int
	buf        []byte
}

const mp3FrameBytes = 4 // two channels of int16

// NewMP3Decoder opens filename and parses the first frame header.
func NewMP3Decoder(filename string) (*MP3Decoder, error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, err
	}

	decoder, err := mp3.NewDecoder(f)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to create MP3 decoder: %w", err)
	}

	return &MP3Decoder{
		decoder:    decoder,
		file:       f,
		sampleRate: decoder.SampleRate(),
	}, nil
}

// ReadChunk reads up to len(dst) stereo frames and averages them to mono.
func (d *MP3Decoder) ReadChunk(dst []float32) (int, error) {
	size := len(dst) * mp3FrameBytes
	if cap(d.buf) < size {
		d.buf = make([]byte, size)
	}
	d.buf = d.buf[:size]

	n, err := io.ReadFull(d.decoder, d.buf)
	if err != nil && err != io.EOF && err != io.ErrUnexpectedEOF {
		return 0, fmt.Errorf("failed to read MP3 data: %w", err)
	}

	frames := n / mp3FrameBytes
	if frames == 0 {
		return 0, io.EOF
	}
	for i := range frames {
		b := d.buf[i*mp3FrameBytes:]
		left := int16(b[0]) | int16(b[1])<<8
		right := int16(b[2]) | int16(b[3])<<8
		dst[i] = (float32(left) + float32(right)) / (2 * 32768)
	}
	return frames, nil
}

func (d *MP3Decoder) SampleRate() int  { return d.sampleRate }
func (d *MP3Decoder) NumChannels() int { return 2 }

// Close closes the decoder and releases resources.
func (d *MP3Decoder) Close() error {
	if d.file != nil {
		err := d.file.Close()
		d.file = nil
		return err
	}
	return nil
}
