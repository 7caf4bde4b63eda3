// SPDX-License-Identifier: MIT
package transport

import (
	"sync/atomic"

	"moodlight/internal/log"
)

// LoggingSink implements Sink by logging frames at debug level.
type LoggingSink struct {
	log    *log.Logger
	frames atomic.Uint64
}

// NewLoggingSink creates a new LoggingSink instance.
func NewLoggingSink() *LoggingSink {
	l := log.New("sink")
	l.Infof("using logging sink")
	return &LoggingSink{log: l}
}

// Send logs the frame bytes. It never fails.
func (s *LoggingSink) Send(frame []byte) error {
	n := s.frames.Add(1)
	s.log.Debugf("frame %d: % x", n, frame)
	return nil
}

// Frames returns the number of frames seen.
func (s *LoggingSink) Frames() uint64 { return s.frames.Load() }

// Close is a no-op for LoggingSink.
func (s *LoggingSink) Close() error {
	s.log.Debugf("closed after %d frames", s.frames.Load())
	return nil
}

// Discard drops every frame. It backs the "none" sink.
type Discard struct{}

func (Discard) Send([]byte) error { return nil }
func (Discard) Close() error      { return nil }

var (
	_ Sink = (*LoggingSink)(nil)
	_ Sink = Discard{}
)
