// SPDX-License-Identifier: MIT
package tui

import (
	"errors"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"moodlight/internal/audio"
	"moodlight/internal/bands"
	"moodlight/internal/config"
	"moodlight/internal/engine"
	"moodlight/internal/frame"
	"moodlight/internal/transport"
)

type fakeEngine struct {
	store  *config.Store
	stats  engine.Stats
	resets int
}

func (f *fakeEngine) Stats() engine.Stats     { return f.stats }
func (f *fakeEngine) Settings() *config.Store { return f.store }
func (f *fakeEngine) Reset()                  { f.resets++ }

func newFakeEngine(t *testing.T) *fakeEngine {
	t.Helper()
	s, err := config.Default().Settings()
	if err != nil {
		t.Fatal(err)
	}
	store, err := config.NewStore(s)
	if err != nil {
		t.Fatal(err)
	}
	return &fakeEngine{store: store}
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func isQuit(cmd tea.Cmd) bool {
	if cmd == nil {
		return false
	}
	_, ok := cmd().(tea.QuitMsg)
	return ok
}

func TestFeedDropsWhenFull(t *testing.T) {
	f := NewFeed(2)
	for i := range 5 {
		if err := f.Publish(transport.Snapshot{Sequence: uint64(i)}); err != nil {
			t.Fatal(err)
		}
	}
	if f.Dropped() != 3 {
		t.Errorf("dropped = %d, want 3", f.Dropped())
	}

	msg := f.wait()()
	snap, ok := msg.(snapshotMsg)
	if !ok {
		t.Fatalf("wait returned %T", msg)
	}
	if snap.Sequence != 1 {
		t.Errorf("wait delivered sequence %d, want the newest queued (1)", snap.Sequence)
	}
}

func TestFeedClose(t *testing.T) {
	f := NewFeed(0)
	f.Close()
	f.Close()

	if err := f.Publish(transport.Snapshot{}); !errors.Is(err, transport.ErrClosed) {
		t.Errorf("Publish after Close = %v, want ErrClosed", err)
	}
	if _, ok := f.wait()().(feedClosedMsg); !ok {
		t.Error("wait did not report the closed feed")
	}
}

func TestMonitorKeysUpdateSettings(t *testing.T) {
	tests := []struct {
		key   string
		check func(s *config.Settings) bool
	}{
		{"m", func(s *config.Settings) bool { return s.Mode == frame.Visualizer }},
		{"s", func(s *config.Settings) bool { return s.BandScale == bands.Logarithmic }},
		{"p", func(s *config.Settings) bool { return !s.PeakDetection }},
		{"n", func(s *config.Settings) bool { return s.NormalizeHeights }},
		{"+", func(s *config.Settings) bool { return s.BandCount == 2*config.DefaultBandCount }},
		{"-", func(s *config.Settings) bool { return s.BandCount == config.DefaultBandCount/2 }},
	}
	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			eng := newFakeEngine(t)
			before := eng.store.Load().Version

			model, _ := NewMonitor(eng, NewFeed(1)).Update(runes(tt.key))
			m := model.(Monitor)

			s := eng.store.Load()
			if m.err != nil {
				t.Fatalf("update error: %v", m.err)
			}
			if s.Version == before {
				t.Error("settings version not bumped")
			}
			if !tt.check(s) {
				t.Errorf("settings after %q: %+v", tt.key, s)
			}
		})
	}
}

func TestMonitorModeWraps(t *testing.T) {
	eng := newFakeEngine(t)
	_ = eng.store.Update(func(s *config.Settings) { s.Mode = frame.Visualizer })

	NewMonitor(eng, NewFeed(1)).Update(runes("m"))
	if got := eng.store.Load().Mode; got != frame.Off {
		t.Errorf("mode = %v, want off", got)
	}
}

func TestMonitorQuitAndReset(t *testing.T) {
	eng := newFakeEngine(t)
	m := NewMonitor(eng, NewFeed(1))

	if _, cmd := m.Update(runes("r")); cmd != nil || eng.resets != 1 {
		t.Errorf("reset: cmd %v, resets %d", cmd, eng.resets)
	}
	if _, cmd := m.Update(runes("q")); !isQuit(cmd) {
		t.Error("q did not quit")
	}
	if _, cmd := m.Update(tea.KeyMsg{Type: tea.KeyCtrlC}); !isQuit(cmd) {
		t.Error("ctrl+c did not quit")
	}
	if _, cmd := m.Update(feedClosedMsg{}); !isQuit(cmd) {
		t.Error("closed feed did not quit")
	}
}

func TestMonitorView(t *testing.T) {
	eng := newFakeEngine(t)
	eng.stats = engine.Stats{Ticks: 42, Skipped: 3}
	m := NewMonitor(eng, NewFeed(1))

	if view := m.View(); !strings.Contains(view, "waiting for the first frame") {
		t.Errorf("initial view:\n%s", view)
	}

	model, cmd := m.Update(snapshotMsg{
		Sequence: 1,
		Mode:     "reactive",
		Blended:  transport.Color{Hex: "#3366ff"},
		Frame:    transport.Color{Hex: "#3366ff"},
		Peaks:    []int{1},
		Heights:  []float64{0.1, 0.9, 0.4},
	})
	if cmd == nil {
		t.Error("snapshot did not re-arm the feed")
	}
	model, _ = model.Update(statsMsg(eng.stats))

	view := model.View()
	for _, want := range []string{"#3366ff", "ticks 42", "skipped 3", "reactive", "bands 64"} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q:\n%s", want, view)
		}
	}
}

func TestRenderBars(t *testing.T) {
	got := renderBars([]float64{0, 0.5, 1, 2, -1}, nil, 10)
	if got != " ▄██ " {
		t.Errorf("renderBars = %q", got)
	}
	if n := len([]rune(renderBars(make([]float64, 64), nil, 16))); n != 16 {
		t.Errorf("resampled width = %d, want 16", n)
	}
}

func stubDeviceList(t *testing.T, devices []audio.Device, err error) {
	t.Helper()
	orig := listDevices
	t.Cleanup(func() { listDevices = orig })
	listDevices = func() ([]audio.Device, error) { return devices, err }
}

func TestDeviceListFiltersCaptureDevices(t *testing.T) {
	stubDeviceList(t, []audio.Device{
		{ID: 0, Name: "speakers", MaxOutputChannels: 2},
		{ID: 1, Name: "monitor of speakers", MaxInputChannels: 2, DefaultSampleRate: 48000},
	}, nil)

	msg, ok := fetchDevices().(devicesMsg)
	if !ok {
		t.Fatal("fetchDevices did not return devices")
	}
	if len(msg.devices) != 1 || msg.devices[0].ID != 1 {
		t.Errorf("devices = %+v", msg.devices)
	}
}

func TestDeviceListError(t *testing.T) {
	stubDeviceList(t, nil, errors.New("no portaudio"))

	var m tea.Model = NewDeviceListModel()
	m, _ = m.Update(tea.WindowSizeMsg{Width: 80, Height: 24})
	m, _ = m.Update(fetchDevices())
	if view := m.View(); !strings.Contains(view, "no portaudio") {
		t.Errorf("view:\n%s", view)
	}
}

func TestDeviceListSelection(t *testing.T) {
	var m tea.Model = NewDeviceListModel()
	m, _ = m.Update(tea.WindowSizeMsg{Width: 80, Height: 24})
	m, _ = m.Update(devicesMsg{devices: []audio.Device{
		{ID: 2, Name: "mic", MaxInputChannels: 1, DefaultSampleRate: 44100},
		{ID: 5, Name: "loopback", MaxInputChannels: 2, DefaultSampleRate: 48000},
	}})

	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyDown})
	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	if m.(DeviceListModel).activeScreen != ConfigScreen {
		t.Fatal("enter did not open the config screen")
	}
	if view := m.View(); !strings.Contains(view, "loopback") {
		t.Errorf("config view:\n%s", view)
	}

	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyDown})
	m, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	if !isQuit(cmd) {
		t.Error("confirming did not quit")
	}

	sel := m.(DeviceListModel).Selection()
	if sel == nil || sel.DeviceID != 5 || sel.SampleRate != 88200 {
		t.Fatalf("selection = %+v", sel)
	}
	if want := "audio:\n  input_device: 5\n  sample_rate: 88200\n"; sel.YAML() != want {
		t.Errorf("YAML = %q", sel.YAML())
	}
}
