// SPDX-License-Identifier: MIT

// Package tui holds the terminal front ends: a live spectrum view that
// consumes frames from the pipeline, and a capture device picker.
package tui

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/tphakala/simd/f32"

	"wfall/internal/analysis"
	"wfall/internal/engine"
	"wfall/internal/fft"
)

// TickInterval is how often the spectrum view polls for a frame.
const TickInterval = 16 * time.Millisecond

const (
	defaultRows = 16
	gateStep    = 0.01
)

var (
	barStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#25A065"))

	peakStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFFDF5")).
			Bold(true)

	mutedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#626262"))
)

// partial block glyphs, from empty to full.
var blocks = []rune(" ▁▂▃▄▅▆▇█")

// Source is the part of the pipeline the spectrum view reads.
type Source interface {
	engine.PeakSource
	FFTSize() int
}

type spectrumKeys struct {
	Quit     key.Binding
	Gate     key.Binding
	GateUp   key.Binding
	GateDown key.Binding
	Freeze   key.Binding
	Help     key.Binding
}

func (k spectrumKeys) ShortHelp() []key.Binding {
	return []key.Binding{k.Quit, k.Gate, k.Freeze, k.Help}
}

func (k spectrumKeys) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Quit, k.Freeze, k.Help},
		{k.Gate, k.GateUp, k.GateDown},
	}
}

var defaultSpectrumKeys = spectrumKeys{
	Quit:     key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	Gate:     key.NewBinding(key.WithKeys("g"), key.WithHelp("g", "toggle gate")),
	GateUp:   key.NewBinding(key.WithKeys("+", "="), key.WithHelp("+", "raise gate")),
	GateDown: key.NewBinding(key.WithKeys("-"), key.WithHelp("-", "lower gate")),
	Freeze:   key.NewBinding(key.WithKeys(" "), key.WithHelp("space", "freeze")),
	Help:     key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "more keys")),
}

type tickMsg time.Time

func tick() tea.Cmd {
	return tea.Tick(TickInterval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// SpectrumModel renders the most recent frame as log-spaced bars.
type SpectrumModel struct {
	src     Source
	gate    *analysis.Gate
	gateOn  bool
	floorDB float32
	keys    spectrumKeys
	help    help.Model

	bars   []float32 // level per bar, 0..1
	db     []float32 // scratch
	mags   []float32 // scratch
	peak   engine.Peak
	frames int
	gated  int
	frozen bool

	width  int
	height int
	done   bool
	err    error
}

// NewSpectrumModel builds a view with the given number of bars. Levels at
// or below floorDB (negative) draw as empty. A nil gate is replaced by a
// disabled one the keys can switch on.
func NewSpectrumModel(src Source, bars int, floorDB float64, gate *analysis.Gate) SpectrumModel {
	gateOn := gate != nil
	if gate == nil {
		gate = analysis.NewGate(0)
		gate.Disable()
	}
	return SpectrumModel{
		src:     src,
		gate:    gate,
		gateOn:  gateOn,
		floorDB: float32(floorDB),
		keys:    defaultSpectrumKeys,
		help:    help.New(),
		bars:    make([]float32, max(1, bars)),
	}
}

// Init starts polling.
func (m SpectrumModel) Init() tea.Cmd {
	return tick()
}

// Update handles ticks and key presses.
func (m SpectrumModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width

	case tickMsg:
		if m.poll() {
			return m, tea.Quit
		}
		return m, tick()

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			return m, tea.Quit
		case key.Matches(msg, m.keys.Freeze):
			m.frozen = !m.frozen
		case key.Matches(msg, m.keys.Help):
			m.help.ShowAll = !m.help.ShowAll
		case key.Matches(msg, m.keys.Gate):
			m.gateOn = !m.gateOn
			if m.gateOn {
				m.gate.Enable()
			} else {
				m.gate.Disable()
			}
		case key.Matches(msg, m.keys.GateUp):
			m.gate.SetThreshold(m.gate.Threshold() + gateStep)
		case key.Matches(msg, m.keys.GateDown):
			m.gate.SetThreshold(m.gate.Threshold() - gateStep)
		}
	}
	return m, nil
}

// poll takes at most one frame from the source. It reports whether the
// source has stopped.
func (m *SpectrumModel) poll() bool {
	if !m.src.HasNext() {
		if m.src.Stopped() {
			m.done = true
			m.err = m.src.Err()
			return true
		}
		return false
	}

	frame := m.src.Next()
	m.src.Resume()
	m.frames++

	if !m.gate.Open(frame) {
		m.gated++
		return false
	}
	if m.frozen {
		return false
	}

	m.peak, m.mags = engine.FindPeak(frame, m.src.SampleRate(), m.mags)
	m.peak.Frame = m.frames
	m.levels(frame)
	return false
}

// levels folds the non-negative frequency bins of frame into log-spaced
// bars, keeping the loudest bin of each band.
func (m *SpectrumModel) levels(frame []complex64) {
	half := len(frame)/2 + 1
	if cap(m.db) < half {
		m.db = make([]float32, half)
	}
	m.db = m.db[:half]
	fft.Decibels(m.db, frame, m.floorDB)

	n := len(m.bars)
	for i := range m.bars {
		lo, hi := bandEdges(i, n, half)
		level := m.floorDB
		for _, v := range m.db[lo:hi] {
			level = max(level, v)
		}
		m.bars[i] = level - m.floorDB
	}
	// dB above the floor to 0..1
	f32.Scale(m.bars, m.bars, -1/m.floorDB)
}

// bandEdges returns the bin range [lo, hi) of bar i out of n, spaced
// geometrically over bins 1..half-1. Every band holds at least one bin.
func bandEdges(i, n, half int) (lo, hi int) {
	top := float64(max(half-1, 1))
	edge := func(j int) int {
		return int(math.Floor(math.Pow(top, float64(j)/float64(n))))
	}
	lo = min(edge(i), half-1)
	hi = max(min(edge(i+1), half), lo+1)
	return lo, hi
}

// Err returns the stream error that ended the view, if any.
func (m SpectrumModel) Err() error { return m.err }

// Frames returns the number of frames consumed.
func (m SpectrumModel) Frames() int { return m.frames }

// View renders the bars, a status line and help.
func (m SpectrumModel) View() string {
	var sb strings.Builder

	sb.WriteString(titleStyle.Render("Spectrum"))
	sb.WriteString("\n\n")
	sb.WriteString(m.renderBars())
	sb.WriteString("\n")
	sb.WriteString(m.renderStatus())
	sb.WriteString("\n")
	sb.WriteString(m.help.View(m.keys))

	return sb.String()
}

func (m SpectrumModel) rows() int {
	// title, blank, status, help
	if r := m.height - 5; r > 0 {
		return r
	}
	return defaultRows
}

func (m SpectrumModel) renderBars() string {
	rows := m.rows()
	eighths := len(blocks) - 1
	var sb strings.Builder
	for r := rows - 1; r >= 0; r-- {
		line := make([]rune, len(m.bars))
		for i, level := range m.bars {
			fill := int(math.Round(float64(level) * float64(rows*eighths)))
			switch cell := fill - r*eighths; {
			case cell >= eighths:
				line[i] = blocks[eighths]
			case cell > 0:
				line[i] = blocks[cell]
			default:
				line[i] = blocks[0]
			}
		}
		sb.WriteString(barStyle.Render(string(line)))
		sb.WriteString("\n")
	}
	return sb.String()
}

func (m SpectrumModel) renderStatus() string {
	if m.done {
		if m.err != nil {
			return peakStyle.Render(fmt.Sprintf("stream ended after %d frames: %v", m.frames, m.err))
		}
		return peakStyle.Render(fmt.Sprintf("stream ended after %d frames", m.frames))
	}
	if m.peak.Frame == 0 {
		return mutedStyle.Render("waiting for input...")
	}

	status := peakStyle.Render(m.peak.String())
	gate := "gate off"
	if m.gateOn {
		gate = fmt.Sprintf("gate %.2f (%d held)", m.gate.Threshold(), m.gated)
	}
	extra := fmt.Sprintf("  fft %d  %s", m.src.FFTSize(), gate)
	if m.frozen {
		extra += "  frozen"
	}
	return status + mutedStyle.Render(extra)
}

// RunSpectrum drives the spectrum view until the user quits, ctx is
// cancelled or the stream ends, and returns the stream error.
func RunSpectrum(ctx context.Context, src Source, bars int, floorDB float64, gate *analysis.Gate) error {
	p := tea.NewProgram(
		NewSpectrumModel(src, bars, floorDB, gate),
		tea.WithAltScreen(),
		tea.WithContext(ctx),
	)
	final, err := p.Run()
	if ctx.Err() != nil {
		return nil
	}
	if err != nil {
		return err
	}
	if m, ok := final.(SpectrumModel); ok {
		return m.Err()
	}
	return nil
}
