// SPDX-License-Identifier: MIT
package udp

import (
	"bytes"
	"encoding/binary"
	"errors"
	"math"
	"net"
	"testing"
	"time"

	"moodlight/internal/transport"
	"moodlight/pkg/utils"
)

func listen(t *testing.T) *net.UDPConn {
	t.Helper()
	conn, err := net.ListenUDP("udp", &net.UDPAddr{IP: net.IPv4(127, 0, 0, 1)})
	if err != nil {
		t.Fatalf("ListenUDP: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func TestSenderSend(t *testing.T) {
	server := listen(t)
	s, err := NewSender(server.LocalAddr().String())
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()

	frame := []byte{7, 10, 20, 30}
	if err := s.Send(frame); err != nil {
		t.Fatal(err)
	}

	buf := make([]byte, 64)
	server.SetReadDeadline(time.Now().Add(2 * time.Second))
	n, _, err := server.ReadFromUDP(buf)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(buf[:n], frame) {
		t.Errorf("received %v, want %v", buf[:n], frame)
	}
}

func TestSenderClosed(t *testing.T) {
	server := listen(t)
	s, err := NewSender(server.LocalAddr().String())
	if err != nil {
		t.Fatal(err)
	}
	if err := s.Close(); err != nil {
		t.Fatal(err)
	}
	if err := s.Send([]byte{1}); !errors.Is(err, transport.ErrClosed) {
		t.Errorf("Send after Close = %v, want ErrClosed", err)
	}
	if err := s.Close(); err != nil {
		t.Errorf("second Close = %v", err)
	}
}

func TestNewSenderBadAddress(t *testing.T) {
	if _, err := NewSender("not an address"); err == nil {
		t.Error("expected resolve error")
	}
}

func TestBuildPacketLayout(t *testing.T) {
	p, err := NewPublisher(time.Second, &utils.MockSink{})
	if err != nil {
		t.Fatal(err)
	}

	s := &transport.Snapshot{
		Sequence: 1,
		Silent:   true,
		Blended:  transport.Color{H: 0, S: 1, L: 0.5, Hex: "#ff0000"},
		Heights:  []float64{0.25, 1},
	}
	now := time.Unix(0, 123456789)
	pkt, err := p.buildPacket(s, now)
	if err != nil {
		t.Fatal(err)
	}

	if len(pkt) != PacketHeaderSize+2*4 {
		t.Fatalf("packet length = %d, want %d", len(pkt), PacketHeaderSize+8)
	}
	if seq := binary.BigEndian.Uint32(pkt[0:4]); seq != 1 {
		t.Errorf("sequence = %d, want 1", seq)
	}
	if ts := int64(binary.BigEndian.Uint64(pkt[4:12])); ts != now.UnixNano() {
		t.Errorf("timestamp = %d", ts)
	}
	if pkt[12] != FlagSilent {
		t.Errorf("flags = %#x, want silent", pkt[12])
	}
	if !bytes.Equal(pkt[13:16], []byte{255, 0, 0}) {
		t.Errorf("rgb = %v, want red", pkt[13:16])
	}
	if n := binary.BigEndian.Uint16(pkt[16:18]); n != 2 {
		t.Errorf("height count = %d, want 2", n)
	}
	if h := math.Float32frombits(binary.BigEndian.Uint32(pkt[18:22])); h != 0.25 {
		t.Errorf("height[0] = %v, want 0.25", h)
	}
}

func TestPublisherSendsNewestOnce(t *testing.T) {
	mock := &utils.MockSink{}
	p, _ := NewPublisher(time.Second, mock)

	p.publishLatest() // nothing published yet
	_ = p.Publish(transport.Snapshot{Sequence: 1})
	_ = p.Publish(transport.Snapshot{Sequence: 2, Heights: []float64{0.5}})
	p.publishLatest()
	p.publishLatest() // unchanged

	frames := mock.Frames()
	if len(frames) != 1 {
		t.Fatalf("sent %d packets, want 1", len(frames))
	}
	if len(frames[0]) != PacketHeaderSize+4 {
		t.Errorf("packet length = %d, want newest snapshot", len(frames[0]))
	}
	if p.Packets() != 1 {
		t.Errorf("Packets = %d, want 1", p.Packets())
	}
}

func TestPublisherStartStop(t *testing.T) {
	server := listen(t)
	sender, err := NewSender(server.LocalAddr().String())
	if err != nil {
		t.Fatal(err)
	}
	p, err := NewPublisher(5*time.Millisecond, sender)
	if err != nil {
		t.Fatal(err)
	}

	p.Start()
	p.Start() // no-op
	_ = p.Publish(transport.Snapshot{Sequence: 9})

	buf := make([]byte, 256)
	server.SetReadDeadline(time.Now().Add(2 * time.Second))
	n, _, err := server.ReadFromUDP(buf)
	if err != nil {
		t.Fatalf("no packet received: %v", err)
	}
	if n != PacketHeaderSize {
		t.Errorf("packet length = %d, want %d", n, PacketHeaderSize)
	}

	if err := p.Close(); err != nil {
		t.Fatal(err)
	}
	if err := p.Stop(); err != nil {
		t.Errorf("Stop after Close = %v", err)
	}
}

func TestNewPublisherValidation(t *testing.T) {
	if _, err := NewPublisher(time.Second, nil); err == nil {
		t.Error("expected error for nil sender")
	}
	p, err := NewPublisher(0, &utils.MockSink{})
	if err != nil {
		t.Fatal(err)
	}
	if p.interval != DefaultPublishInterval {
		t.Errorf("interval = %v, want %v", p.interval, DefaultPublishInterval)
	}
}
