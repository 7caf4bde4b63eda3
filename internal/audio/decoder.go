// SPDX-License-Identifier: MIT
package audio

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

var ErrUnsupportedFormat = errors.New("unsupported audio format")

// Decoder yields mono float samples from an audio file.
type Decoder interface {
	// ReadChunk fills dst with the next mono samples and returns how many
	// were written. It returns io.EOF once the stream is exhausted.
	ReadChunk(dst []float32) (int, error)

	// SampleRate returns the audio sample rate in Hz.
	SampleRate() int

	// NumChannels returns the channel count before downmixing.
	NumChannels() int

	// Close closes the decoder and releases resources.
	Close() error
}

// OpenDecoder picks a decoder by file extension.
func OpenDecoder(filename string) (Decoder, error) {
	switch ext := strings.ToLower(filepath.Ext(filename)); ext {
	case ".wav", ".wave":
		return NewWAVDecoder(filename)
	case ".mp3":
		return NewMP3Decoder(filename)
	case ".flac":
		return NewFLACDecoder(filename)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
	}
}
