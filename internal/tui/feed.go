// SPDX-License-Identifier: MIT
package tui

import (
	"sync"
	"sync/atomic"

	tea "github.com/charmbracelet/bubbletea"

	"moodlight/internal/transport"
)

// DefaultFeedSize holds a few frames; the monitor only ever draws the newest.
const DefaultFeedSize = 8

// Feed is an observer that hands engine snapshots to the monitor. Publish
// never blocks: when the monitor falls behind, snapshots are dropped.
type Feed struct {
	ch      chan transport.Snapshot
	done    chan struct{}
	once    sync.Once
	dropped atomic.Uint64
}

func NewFeed(size int) *Feed {
	if size < 1 {
		size = DefaultFeedSize
	}
	return &Feed{
		ch:   make(chan transport.Snapshot, size),
		done: make(chan struct{}),
	}
}

func (f *Feed) Publish(s transport.Snapshot) error {
	select {
	case <-f.done:
		return transport.ErrClosed
	default:
	}

	select {
	case f.ch <- s:
	default:
		f.dropped.Add(1)
	}
	return nil
}

// Dropped reports snapshots discarded because the feed was full.
func (f *Feed) Dropped() uint64 { return f.dropped.Load() }

func (f *Feed) Close() error {
	f.once.Do(func() { close(f.done) })
	return nil
}

type snapshotMsg transport.Snapshot

type feedClosedMsg struct{}

// wait returns a command that blocks for the next snapshot, skipping ahead
// to the newest one queued.
func (f *Feed) wait() tea.Cmd {
	return func() tea.Msg {
		var s transport.Snapshot
		select {
		case s = <-f.ch:
		case <-f.done:
			return feedClosedMsg{}
		}
		for {
			select {
			case next := <-f.ch:
				s = next
			default:
				return snapshotMsg(s)
			}
		}
	}
}
