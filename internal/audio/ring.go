// SPDX-License-Identifier: MIT
package audio

import "sync"

// Ring is a fixed-capacity buffer of the most recent mono samples. Writers
// overwrite the oldest data; readers copy out and never hold the lock for
// longer than one copy.
type Ring struct {
	mu      sync.Mutex
	buf     []float32
	head    int // next write position
	size    int // valid samples, <= len(buf)
	written uint64
}

// NewRing allocates a ring holding capacity samples (at least one).
func NewRing(capacity int) *Ring {
	return &Ring{buf: make([]float32, max(1, capacity))}
}

// Write appends samples, discarding the oldest when full.
func (r *Ring) Write(samples []float32) {
	r.mu.Lock()
	defer r.mu.Unlock()

	n := len(r.buf)
	r.written += uint64(len(samples))
	if len(samples) >= n {
		copy(r.buf, samples[len(samples)-n:])
		r.head = 0
		r.size = n
		return
	}

	c := copy(r.buf[r.head:], samples)
	if c < len(samples) {
		copy(r.buf, samples[c:])
	}
	r.head = (r.head + len(samples)) % n
	r.size = min(n, r.size+len(samples))
}

// Latest copies the newest len(dst) samples into dst in chronological
// order. When fewer are stored, the front of dst is zeroed. It returns the
// number of real samples copied.
func (r *Ring) Latest(dst []float32) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	want := min(len(dst), r.size)
	pad := len(dst) - want
	clear(dst[:pad])
	if want == 0 {
		return 0
	}

	n := len(r.buf)
	start := (r.head - want + n) % n
	c := copy(dst[pad:], r.buf[start:min(n, start+want)])
	if c < want {
		copy(dst[pad+c:], r.buf[:want-c])
	}
	return want
}

// Len returns the number of valid samples held.
func (r *Ring) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.size
}

// Cap returns the ring capacity.
func (r *Ring) Cap() int { return len(r.buf) }

// Written returns the total number of samples ever written.
func (r *Ring) Written() uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.written
}

// Reset discards all samples.
func (r *Ring) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	clear(r.buf)
	r.head = 0
	r.size = 0
}
