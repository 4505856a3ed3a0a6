// Package views renders the status shell: transport, server state, meters,
// and telemetry. The full editing surface lives elsewhere; this is the
// minimal front end the engine ships with.
package views

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/mohsenil85/imbolc/internal/action"
	"github.com/mohsenil85/imbolc/internal/music"
	"github.com/mohsenil85/imbolc/internal/state"
)

// StatusModel is everything the shell view needs to draw one frame.
type StatusModel struct {
	Session     *state.SessionState
	Instruments *state.InstrumentState

	ServerStatus action.ServerStatus
	Telemetry    action.TelemetrySummary
	Meters       action.MeterLevels

	StatusMessage string
	StatusIsError bool
	StatusUntil   time.Time

	ClientCount int
	Connected   bool

	Width  int
	Height int
}

func styles(theme state.Theme) (title, value, dim, warn lipgloss.Style) {
	title = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(theme.Accent))
	value = lipgloss.NewStyle().Foreground(lipgloss.Color(theme.Foreground))
	dim = lipgloss.NewStyle().Foreground(lipgloss.Color(theme.Dim))
	warn = lipgloss.NewStyle().Foreground(lipgloss.Color(theme.Warn))
	return
}

// RenderStatus draws the full shell frame.
func RenderStatus(m *StatusModel) string {
	if m.Session == nil {
		return "starting..."
	}
	theme := m.Session.Theme
	title, value, dim, warn := styles(theme)

	var b strings.Builder

	b.WriteString(title.Render("imbolc"))
	b.WriteString(dim.Render("  multi-track DAW engine"))
	b.WriteString("\n\n")

	b.WriteString(renderTransport(m, title, value, dim))
	b.WriteString("\n")
	b.WriteString(renderInstruments(m, value, dim))
	b.WriteString("\n")
	b.WriteString(renderMeters(m, theme))
	b.WriteString("\n")
	b.WriteString(renderTelemetry(m, value, dim))
	b.WriteString("\n")

	if m.StatusMessage != "" && time.Now().Before(m.StatusUntil) {
		if m.StatusIsError {
			b.WriteString(warn.Render(m.StatusMessage))
		} else {
			b.WriteString(value.Render(m.StatusMessage))
		}
		b.WriteString("\n")
	}

	b.WriteString(dim.Render("space play/stop  l loop  c click  m mute  q quit"))
	return b.String()
}

func renderTransport(m *StatusModel, title, value, dim lipgloss.Style) string {
	pr := &m.Session.PianoRoll
	playState := "stopped"
	if pr.Playing && pr.Recording {
		playState = "recording"
	} else if pr.Playing {
		playState = "playing"
	}

	tpb := m.Session.TicksPerBeat
	var bar, beat uint32
	if tpb > 0 && m.Session.TimeSignature[0] > 0 {
		totalBeats := uint32(pr.PlayheadTicks) / tpb
		bar = totalBeats/uint32(m.Session.TimeSignature[0]) + 1
		beat = totalBeats%uint32(m.Session.TimeSignature[0]) + 1
	}

	loop := " "
	if pr.Looping {
		loop = "L"
	}
	click := " "
	if m.Session.ClickTrack.Enabled {
		click = "C"
	}
	mute := " "
	if m.Session.Mixer.MasterMute {
		mute = "M"
	}

	return fmt.Sprintf("%s %s  %s  %s %s %s   %s",
		title.Render("transport"),
		value.Render(playState),
		value.Render(fmt.Sprintf("%03d.%d  %.1f bpm %d/%d",
			bar, beat, m.Session.Bpm,
			m.Session.TimeSignature[0], m.Session.TimeSignature[1])),
		value.Render(loop), value.Render(click), value.Render(mute),
		dim.Render(fmt.Sprintf("server %s", m.ServerStatus)),
	)
}

func renderInstruments(m *StatusModel, value, dim lipgloss.Style) string {
	if m.Instruments == nil || len(m.Instruments.Instruments) == 0 {
		return dim.Render("no instruments")
	}
	var parts []string
	for i, inst := range m.Instruments.Instruments {
		marker := "  "
		if i == m.Instruments.Selected {
			marker = "> "
		}
		flags := ""
		if inst.Mixer.Mute {
			flags += "m"
		}
		if inst.Mixer.Solo {
			flags += "s"
		}
		parts = append(parts, fmt.Sprintf("%s%s %s %s",
			marker, value.Render(inst.Name), dim.Render(inst.Source.String()), flags))
	}
	return strings.Join(parts, "\n")
}

func renderMeters(m *StatusModel, theme state.Theme) string {
	return meterBar("L", float64(m.Meters.PeakL), theme) + "\n" +
		meterBar("R", float64(m.Meters.PeakR), theme)
}

// meterBar renders a 30-cell peak meter colored by the theme blend.
func meterBar(label string, level float64, theme state.Theme) string {
	const cells = 30
	db := music.AmpToDb(level)
	norm := (db + 60) / 60
	if norm < 0 {
		norm = 0
	}
	if norm > 1 {
		norm = 1
	}
	filled := int(norm * cells)
	color := theme.MeterColor(norm)
	style := lipgloss.NewStyle().Foreground(lipgloss.Color(color.Hex()))
	dim := lipgloss.NewStyle().Foreground(lipgloss.Color(theme.Dim))
	return fmt.Sprintf("%s %s%s", label,
		style.Render(strings.Repeat("█", filled)),
		dim.Render(strings.Repeat("░", cells-filled)))
}

func renderTelemetry(m *StatusModel, value, dim lipgloss.Style) string {
	t := m.Telemetry
	net := ""
	if m.ClientCount > 0 {
		net = fmt.Sprintf("  clients %d", m.ClientCount)
	}
	return dim.Render(fmt.Sprintf(
		"tick avg %dus max %dus p95 %dus overruns %d queue %d%s",
		t.AvgTickUs, t.MaxTickUs, t.P95TickUs, t.Overruns, t.QueueDepth, net))
}
