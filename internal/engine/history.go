// SPDX-License-Identifier: MIT
package engine

import (
	"sync"

	"moodlight/internal/color"
)

// History is a bounded FIFO of frame colours, oldest first. It is safe for
// concurrent use so observers can read it while the engine ticks.
type History struct {
	mu       sync.Mutex
	colors   []color.HSL
	capacity int
}

// NewHistory returns an empty history holding at most capacity colours
// (at least one).
func NewHistory(capacity int) *History {
	return &History{capacity: max(1, capacity)}
}

// Push appends c, evicting the oldest colours beyond capacity.
func (h *History) Push(c color.HSL) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.colors = append(h.colors, c)
	h.trim()
}

// SetCapacity changes the bound, dropping the oldest colours if needed.
func (h *History) SetCapacity(capacity int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.capacity = max(1, capacity)
	h.trim()
}

func (h *History) trim() {
	if over := len(h.colors) - h.capacity; over > 0 {
		n := copy(h.colors, h.colors[over:])
		h.colors = h.colors[:n]
	}
}

// AppendTo appends the colours, oldest first, to dst.
func (h *History) AppendTo(dst []color.HSL) []color.HSL {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append(dst, h.colors...)
}

// Colors returns a copy of the colours, oldest first.
func (h *History) Colors() []color.HSL {
	return h.AppendTo(nil)
}

func (h *History) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.colors)
}

func (h *History) Cap() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.capacity
}

// Reset empties the history.
func (h *History) Reset() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.colors = h.colors[:0]
}
