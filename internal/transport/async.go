// SPDX-License-Identifier: MIT
package transport

import (
	"sync"
	"sync/atomic"

	"moodlight/internal/log"
)

// AsyncSink sends frames on a background goroutine. While a send is in
// flight new frames are dropped, so a slow device never stalls the caller
// and never builds a backlog.
type AsyncSink struct {
	inner Sink
	log   *log.Logger

	mu     sync.Mutex // orders wg.Add against Close
	busy   atomic.Bool
	closed atomic.Bool
	wg     sync.WaitGroup
	buf    []byte // owned by the in-flight send

	sent    atomic.Uint64
	dropped atomic.Uint64
	failed  atomic.Uint64
}

func NewAsyncSink(inner Sink) *AsyncSink {
	return &AsyncSink{inner: inner, log: log.New("sink")}
}

// Send copies frame and dispatches it unless a send is already running.
// A dropped frame is not an error.
func (a *AsyncSink) Send(frame []byte) error {
	if a.closed.Load() {
		return ErrClosed
	}
	a.TrySend(frame)
	return nil
}

// TrySend is Send reporting whether the frame was dispatched.
func (a *AsyncSink) TrySend(frame []byte) bool {
	if a.closed.Load() {
		return false
	}
	if !a.busy.CompareAndSwap(false, true) {
		a.dropped.Add(1)
		return false
	}

	a.mu.Lock()
	if a.closed.Load() {
		a.mu.Unlock()
		a.busy.Store(false)
		return false
	}
	a.wg.Add(1)
	a.mu.Unlock()

	a.buf = append(a.buf[:0], frame...)
	go func(b []byte) {
		defer a.wg.Done()
		defer a.busy.Store(false)
		if err := a.inner.Send(b); err != nil {
			a.failed.Add(1)
			a.log.Debugf("send failed: %v", err)
			return
		}
		a.sent.Add(1)
	}(a.buf)
	return true
}

// Busy reports whether a send is in flight.
func (a *AsyncSink) Busy() bool { return a.busy.Load() }

// Wait blocks until the in-flight send, if any, completes.
func (a *AsyncSink) Wait() { a.wg.Wait() }

func (a *AsyncSink) Sent() uint64    { return a.sent.Load() }
func (a *AsyncSink) Dropped() uint64 { return a.dropped.Load() }
func (a *AsyncSink) Failed() uint64  { return a.failed.Load() }

// Close waits for the in-flight send and closes the wrapped sink.
func (a *AsyncSink) Close() error {
	a.mu.Lock()
	if a.closed.Swap(true) {
		a.mu.Unlock()
		return nil
	}
	a.mu.Unlock()

	a.wg.Wait()
	return a.inner.Close()
}

var _ Sink = (*AsyncSink)(nil)
