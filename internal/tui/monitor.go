// SPDX-License-Identifier: MIT
//
// Package tui implements the terminal monitor: the colour being sent, the
// band heights behind it, engine counters and keys that change the engine
// settings while it runs.
package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"moodlight/internal/bands"
	"moodlight/internal/config"
	"moodlight/internal/engine"
	"moodlight/internal/frame"
	"moodlight/internal/transport"
)

const statsInterval = 250 * time.Millisecond

var (
	titleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFFDF5")).
			Background(lipgloss.Color("#25A065")).
			Padding(0, 1).
			Bold(true)

	infoStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFFDF5"))

	highlightStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#25A065")).
			Bold(true)

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF5F87"))
)

// Engine is the part of the engine the monitor reads and steers.
type Engine interface {
	Stats() engine.Stats
	Settings() *config.Store
	Reset()
}

type keyMap struct {
	Mode      key.Binding
	Scale     key.Binding
	Peaks     key.Binding
	Normalize key.Binding
	More      key.Binding
	Fewer     key.Binding
	Reset     key.Binding
	Help      key.Binding
	Quit      key.Binding
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Mode, k.Peaks, k.Help, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Mode, k.Scale, k.Peaks, k.Normalize},
		{k.More, k.Fewer, k.Reset},
		{k.Help, k.Quit},
	}
}

var keys = keyMap{
	Mode:      key.NewBinding(key.WithKeys("m"), key.WithHelp("m", "next mode")),
	Scale:     key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "linear/log bands")),
	Peaks:     key.NewBinding(key.WithKeys("p"), key.WithHelp("p", "peak detection")),
	Normalize: key.NewBinding(key.WithKeys("n"), key.WithHelp("n", "normalise")),
	More:      key.NewBinding(key.WithKeys("+", "="), key.WithHelp("+", "double bands")),
	Fewer:     key.NewBinding(key.WithKeys("-"), key.WithHelp("-", "halve bands")),
	Reset:     key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "reset history")),
	Help:      key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "more keys")),
	Quit:      key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
}

type statsMsg engine.Stats

// Monitor is the Bubble Tea model for the live monitor.
type Monitor struct {
	engine Engine
	feed   *Feed
	help   help.Model

	snapshot transport.Snapshot
	received bool
	stats    engine.Stats
	width    int
	err      error
}

func NewMonitor(e Engine, feed *Feed) Monitor {
	return Monitor{
		engine: e,
		feed:   feed,
		help:   help.New(),
		width:  80,
	}
}

func (m Monitor) Init() tea.Cmd {
	return tea.Batch(m.feed.wait(), m.pollStats())
}

func (m Monitor) pollStats() tea.Cmd {
	return tea.Tick(statsInterval, func(time.Time) tea.Msg {
		return statsMsg(m.engine.Stats())
	})
}

func (m Monitor) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.help.Width = msg.Width

	case snapshotMsg:
		m.snapshot = transport.Snapshot(msg)
		m.received = true
		return m, m.feed.wait()

	case feedClosedMsg:
		return m, tea.Quit

	case statsMsg:
		m.stats = engine.Stats(msg)
		return m, m.pollStats()

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.Quit):
			return m, tea.Quit
		case key.Matches(msg, keys.Help):
			m.help.ShowAll = !m.help.ShowAll
		case key.Matches(msg, keys.Reset):
			m.engine.Reset()
		case key.Matches(msg, keys.Mode):
			m.err = m.update(func(s *config.Settings) { s.Mode = nextMode(s.Mode) })
		case key.Matches(msg, keys.Scale):
			m.err = m.update(func(s *config.Settings) {
				if s.BandScale == bands.Linear {
					s.BandScale = bands.Logarithmic
				} else {
					s.BandScale = bands.Linear
				}
			})
		case key.Matches(msg, keys.Peaks):
			m.err = m.update(func(s *config.Settings) { s.PeakDetection = !s.PeakDetection })
		case key.Matches(msg, keys.Normalize):
			m.err = m.update(func(s *config.Settings) { s.NormalizeHeights = !s.NormalizeHeights })
		case key.Matches(msg, keys.More):
			m.err = m.update(func(s *config.Settings) { s.BandCount *= 2 })
		case key.Matches(msg, keys.Fewer):
			m.err = m.update(func(s *config.Settings) { s.BandCount /= 2 })
		}
	}
	return m, nil
}

func (m Monitor) update(fn func(*config.Settings)) error {
	return m.engine.Settings().Update(fn)
}

func nextMode(mode frame.Mode) frame.Mode {
	if mode >= frame.Visualizer {
		return frame.Off
	}
	return mode + 1
}

func (m Monitor) View() string {
	s := m.engine.Settings().Load()

	var sb strings.Builder
	sb.WriteString(titleStyle.Render("moodlight"))
	sb.WriteString("\n\n")

	sb.WriteString(m.renderColor())
	sb.WriteString("\n\n")

	scale := "linear"
	if s.BandScale == bands.Logarithmic {
		scale = "log"
	}
	fmt.Fprintf(&sb, "mode %s  bands %d (%s)  peaks %s  normalise %s\n",
		highlightStyle.Render(s.Mode.String()), s.BandCount, scale,
		onOff(s.PeakDetection), onOff(s.NormalizeHeights))

	if len(m.snapshot.Heights) > 0 {
		sb.WriteString(renderBars(m.snapshot.Heights, m.snapshot.Peaks, max(m.width-2, 8)))
		sb.WriteString("\n")
	}

	st := m.stats
	sb.WriteString(infoStyle.Render(fmt.Sprintf(
		"ticks %d  skipped %d  failed %d  silent %d  no input %d  sent %d  dropped %d",
		st.Ticks, st.Skipped, st.Failed, st.Silent, st.Unavailable, st.Sent, st.Dropped)))
	sb.WriteString("\n")

	if m.err != nil {
		sb.WriteString(errorStyle.Render(m.err.Error()))
		sb.WriteString("\n")
	}
	sb.WriteString("\n")
	sb.WriteString(m.help.View(keys))
	return sb.String()
}

func (m Monitor) renderColor() string {
	if !m.received {
		return infoStyle.Render("waiting for the first frame...")
	}
	snap := m.snapshot
	swatch := lipgloss.NewStyle().
		Background(lipgloss.Color(snap.Blended.Hex)).
		Width(12).
		Render("")
	detail := fmt.Sprintf("%s  frame %s", snap.Blended.Hex, snap.Frame.Hex)
	if snap.Silent {
		detail += "  (silent)"
	}
	return lipgloss.JoinHorizontal(lipgloss.Center, swatch, "  ", detail)
}

var barRunes = []rune(" ▁▂▃▄▅▆▇█")

// renderBars draws one column per band, resampled to fit width. Selected
// bands are highlighted.
func renderBars(heights []float64, peaks []int, width int) string {
	n := min(len(heights), width)
	selected := make(map[int]bool, len(peaks))
	for _, p := range peaks {
		selected[p] = true
	}

	var sb strings.Builder
	for col := range n {
		i := col * len(heights) / n
		h := min(max(heights[i], 0), 1)
		r := string(barRunes[int(h*float64(len(barRunes)-1)+0.5)])
		if selected[i] {
			r = highlightStyle.Render(r)
		}
		sb.WriteString(r)
	}
	return sb.String()
}

func onOff(b bool) string {
	if b {
		return "on"
	}
	return "off"
}

// Run blocks in the monitor until the user quits or the feed closes.
func Run(e Engine, feed *Feed) error {
	p := tea.NewProgram(NewMonitor(e, feed), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
