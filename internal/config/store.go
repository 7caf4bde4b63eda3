// SPDX-License-Identifier: MIT
package config

import (
	"sync"
	"sync/atomic"
)

// Store publishes Settings snapshots to the engine. Readers never block;
// writers are serialised so concurrent updates do not lose each other's
// changes.
type Store struct {
	mu      sync.Mutex
	current atomic.Pointer[Settings]
	version uint64
}

// NewStore validates and publishes the initial settings.
func NewStore(initial Settings) (*Store, error) {
	s := &Store{}
	if err := s.Replace(initial); err != nil {
		return nil, err
	}
	return s, nil
}

// Load returns the current snapshot. The result must not be modified.
func (s *Store) Load() *Settings {
	return s.current.Load()
}

// Replace publishes next after sanitising it. An invalid FFT size leaves the
// current snapshot in place.
func (s *Store) Replace(next Settings) error {
	if err := next.validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.publish(next)
	return nil
}

// Update applies fn to a copy of the current snapshot and publishes the
// result.
func (s *Store) Update(fn func(*Settings)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := *s.current.Load()
	fn(&next)
	if err := next.validate(); err != nil {
		return err
	}
	s.publish(next)
	return nil
}

func (s *Store) publish(next Settings) {
	next = next.Sanitize()
	s.version++
	next.Version = s.version
	s.current.Store(&next)
}
