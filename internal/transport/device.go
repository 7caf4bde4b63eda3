// SPDX-License-Identifier: MIT
package transport

import (
	"fmt"
	"os"
	"sync"

	"moodlight/internal/log"
)

// DeviceSink writes each frame to a character device or file, such as a
// serial port already configured by the system.
type DeviceSink struct {
	path string
	log  *log.Logger

	mu   sync.Mutex
	file *os.File
}

// NewDeviceSink opens path for writing. Regular files are created and
// appended to.
func NewDeviceSink(path string) (*DeviceSink, error) {
	file, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("failed to open device '%s': %w", path, err)
	}
	l := log.New("device")
	l.Infof("writing frames to %s", path)
	return &DeviceSink{path: path, log: l, file: file}, nil
}

// Send writes frame in a single call.
func (d *DeviceSink) Send(frame []byte) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.file == nil {
		return ErrClosed
	}
	n, err := d.file.Write(frame)
	if err != nil {
		return fmt.Errorf("failed to write frame to '%s': %w", d.path, err)
	}
	if n != len(frame) {
		return fmt.Errorf("short write to '%s': %d of %d bytes", d.path, n, len(frame))
	}
	return nil
}

// Close closes the device. Further sends return ErrClosed.
func (d *DeviceSink) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.file == nil {
		return nil
	}
	err := d.file.Close()
	d.file = nil
	return err
}

var _ Sink = (*DeviceSink)(nil)
