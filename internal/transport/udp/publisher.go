// SPDX-License-Identifier: MIT
package udp

import (
	"bytes"
	"encoding/binary"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"moodlight/internal/color"
	"moodlight/internal/log"
	"moodlight/internal/transport"
)

// DefaultPublishInterval is used when the configured interval is invalid.
const DefaultPublishInterval = 16 * time.Millisecond

// Snapshot flags.
const (
	FlagSilent uint8 = 1 << iota
)

// Publisher is an Observer that keeps the newest snapshot and sends it as a
// binary packet on a fixed interval. Snapshots published between two ticks
// of the interval replace each other.
type Publisher struct {
	log      *log.Logger
	sender   transport.Sink // The underlying UDP sender.
	interval time.Duration  // The interval at which packets are sent.

	latest  atomic.Pointer[transport.Snapshot]
	sentSeq uint64 // Snapshot sequence of the last packet, publisher goroutine only.

	ticker   *time.Ticker   // Ticker that triggers packet sending.
	doneChan chan struct{}  // Channel used to signal the publisher goroutine to stop.
	stopOnce sync.Once      // Ensures the stop logic runs only once per Start/Stop cycle.
	wg       sync.WaitGroup // Waits for the publisher goroutine to finish during Stop.
	mu       sync.Mutex     // Protects access to ticker and doneChan during Start/Stop.

	sequenceNum uint32        // Monotonically increasing packet sequence number.
	packets     atomic.Uint64 // Packets sent successfully.

	packetBuffer *bytes.Buffer // Reusable buffer for constructing the binary packet.
	f32Buffer    []float32     // Reusable buffer for heights.
}

// NewPublisher creates a publisher writing through sender. If the interval
// is invalid (<= 0), it defaults to 16ms (~60Hz).
func NewPublisher(interval time.Duration, sender transport.Sink) (*Publisher, error) {
	if sender == nil {
		return nil, errors.New("publisher: UDP sender cannot be nil")
	}

	l := log.New("publisher")
	if interval <= 0 {
		interval = DefaultPublishInterval
		l.Warnf("invalid interval provided, defaulting to %s", interval)
	}

	return &Publisher{
		log:          l,
		sender:       sender,
		interval:     interval,
		packetBuffer: new(bytes.Buffer),
	}, nil
}

// Publish stores s as the newest snapshot. It never blocks.
func (p *Publisher) Publish(s transport.Snapshot) error {
	p.latest.Store(&s)
	return nil
}

// Start begins the periodic publishing process.
// It is safe to call Start multiple times; subsequent calls are no-ops if already started.
func (p *Publisher) Start() {
	p.mu.Lock()
	if p.ticker != nil {
		p.mu.Unlock()
		p.log.Warnf("Start called but already running")
		return
	}

	p.ticker = time.NewTicker(p.interval)
	p.doneChan = make(chan struct{})
	p.stopOnce = sync.Once{}

	// Capture local copies so the goroutine does not race Stop on the fields.
	ticker := p.ticker
	doneChan := p.doneChan
	p.mu.Unlock()

	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		p.log.Infof("publishing every %s", p.interval)
		for {
			select {
			case <-ticker.C:
				p.publishLatest()
			case <-doneChan:
				return
			}
		}
	}()
}

// Stop signals the publisher goroutine to terminate and waits for it to exit.
// It is safe to call Stop multiple times; subsequent calls are no-ops.
func (p *Publisher) Stop() error {
	p.mu.Lock()
	if p.ticker == nil {
		p.mu.Unlock()
		return nil
	}

	p.stopOnce.Do(func() {
		close(p.doneChan)
		p.ticker.Stop()
		p.ticker = nil
	})
	p.mu.Unlock()

	p.wg.Wait()
	p.log.Debugf("publisher goroutine finished")
	return nil
}

// publishLatest sends the newest snapshot once; unchanged snapshots are not
// resent.
func (p *Publisher) publishLatest() {
	s := p.latest.Load()
	if s == nil || s.Sequence == p.sentSeq {
		return
	}
	p.sentSeq = s.Sequence

	packet, err := p.buildPacket(s, time.Now())
	if err != nil {
		p.log.Errorf("error packing snapshot: %v", err)
		return
	}
	if err := p.sender.Send(packet); err != nil {
		return // The sender logs at debug level.
	}
	p.packets.Add(1)
	p.log.Debugf("sent packet %d (%d bytes)", p.sequenceNum, len(packet))
}

/*
Snapshot Packet Structure (BigEndian)

+-----------------------------------------------------------------------------+
| Field             | Data Type      | Size (Bytes) | Description             |
|-------------------|----------------|--------------|-------------------------|
| Sequence Number   | uint32         | 4            | Monotonically increasing|
| Timestamp         | int64          | 8            | Nanoseconds since epoch |
| Flags             | uint8          | 1            | Bit 0: silent           |
| Colour            | [3]uint8       | 3            | Blended colour, RGB     |
| Height Count      | uint16         | 2            | Number of floats (N)    |
| Heights           | []float32      | N * 4        | Band heights            |
+-----------------------------------------------------------------------------+
*/

// PacketHeaderSize is the size of a packet with no heights.
const PacketHeaderSize = 4 + 8 + 1 + 3 + 2

// buildPacket packs s into the reusable buffer. The result is valid until
// the next call.
func (p *Publisher) buildPacket(s *transport.Snapshot, now time.Time) ([]byte, error) {
	heights := s.Heights
	if len(heights) > 0xFFFF {
		heights = heights[:0xFFFF]
	}
	p.f32Buffer = p.f32Buffer[:0]
	for _, h := range heights {
		p.f32Buffer = append(p.f32Buffer, float32(h))
	}

	var flags uint8
	if s.Silent {
		flags |= FlagSilent
	}
	rgb := rgbOf(s.Blended)

	p.sequenceNum++
	p.packetBuffer.Reset()

	err := binary.Write(p.packetBuffer, binary.BigEndian, p.sequenceNum)
	if err == nil {
		err = binary.Write(p.packetBuffer, binary.BigEndian, now.UnixNano())
	}
	if err == nil {
		err = p.packetBuffer.WriteByte(flags)
	}
	if err == nil {
		_, err = p.packetBuffer.Write(rgb[:])
	}
	if err == nil {
		err = binary.Write(p.packetBuffer, binary.BigEndian, uint16(len(p.f32Buffer)))
	}
	if err == nil {
		err = binary.Write(p.packetBuffer, binary.BigEndian, p.f32Buffer)
	}
	if err != nil {
		return nil, err
	}
	return p.packetBuffer.Bytes(), nil
}

// rgbOf reads the hex form, which does not depend on the colour scale.
func rgbOf(c transport.Color) [3]uint8 {
	rgb, err := color.ParseHex(c.Hex)
	if err != nil {
		return [3]uint8{}
	}
	return [3]uint8{rgb.R, rgb.G, rgb.B}
}

// Packets returns the number of packets sent successfully.
func (p *Publisher) Packets() uint64 { return p.packets.Load() }

// Close stops the publisher goroutine and closes the sender.
func (p *Publisher) Close() error {
	return errors.Join(p.Stop(), p.sender.Close())
}

var _ transport.Observer = (*Publisher)(nil)
