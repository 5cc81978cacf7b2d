// ABOUTME: Bubbletea model for the encode progress TUI
// ABOUTME: Holds run statistics and renders them with lipgloss
package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/Resonate-Protocol/aerial-go/internal/pipeline"
	"github.com/Resonate-Protocol/aerial-go/pkg/audio"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// Model represents the TUI state
type Model struct {
	// Run
	title  string
	sink   string
	target time.Duration // 0 when the source has no fixed length

	// Stats
	stats pipeline.Stats

	// Lifecycle
	done     bool
	err      error
	quitting bool
	quit     chan struct{}

	// Debug
	showDebug bool

	width int
}

// StatusMsg carries a stats snapshot from the pipeline.
type StatusMsg pipeline.Stats

// DoneMsg reports the end of a run.
type DoneMsg struct {
	Err error
}

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("205")).
			MarginBottom(1)

	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("86"))

	valueStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("250"))

	statsHeaderStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("220"))

	errorStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("196"))

	helpStyle = lipgloss.NewStyle().Faint(true)
)

// NewModel creates a model for one run.
func NewModel(title, sink string, target time.Duration, quit chan struct{}) Model {
	return Model{
		title:  title,
		sink:   sink,
		target: target,
		quit:   quit,
	}
}

// Init initializes the model
func (m Model) Init() tea.Cmd {
	return nil
}

// Update handles messages
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)
	case tea.WindowSizeMsg:
		m.width = msg.Width
	case StatusMsg:
		m.stats = pipeline.Stats(msg)
		if m.stats.Title != "" {
			m.title = m.stats.Title
		}
	case DoneMsg:
		m.done = true
		m.err = msg.Err
		return m, tea.Quit
	}

	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		m.quitting = true
		if m.quit != nil {
			select {
			case m.quit <- struct{}{}:
			default:
			}
		}
		return m, tea.Quit
	case "d":
		m.showDebug = !m.showDebug
	}
	return m, nil
}

// View renders the TUI
func (m Model) View() string {
	if m.quitting && !m.done {
		return "Stopping encoder...\n"
	}

	var b strings.Builder

	b.WriteString(titleStyle.Render("Aerial ALAC Encoder"))
	b.WriteString("\n\n")

	field(&b, "Source: ", m.title)
	field(&b, "Sink: ", m.sink)
	field(&b, "Format: ", fmt.Sprintf("alac %dHz %d-bit stereo, %d frames/packet",
		audio.SampleRate, audio.BitDepth, audio.FramesPerPacket))
	b.WriteString("\n")

	b.WriteString(statsHeaderStyle.Render("Progress"))
	b.WriteString("\n\n")

	encoded := m.stats.Duration().Round(10 * time.Millisecond)
	if m.target > 0 {
		pct := int(100 * m.stats.Duration() / m.target)
		if pct > 100 {
			pct = 100
		}
		b.WriteString(fmt.Sprintf("  [%s] %3d%%  ", renderBar(pct, 100, 30), pct))
		b.WriteString(valueStyle.Render(fmt.Sprintf("%s / %s", encoded, m.target)))
	} else {
		b.WriteString("  ")
		b.WriteString(valueStyle.Render(encoded.String() + " encoded"))
	}
	b.WriteString("\n\n")

	field(&b, "Packets: ", fmt.Sprintf("%d (%d escaped)", m.stats.Packets, m.stats.Escaped))
	field(&b, "Input: ", formatBytes(m.stats.InputBytes))
	field(&b, "Output: ", formatBytes(m.stats.OutputBytes))
	field(&b, "Ratio: ", fmt.Sprintf("%.1f%%", 100*m.stats.Ratio()))
	if m.stats.Verified > 0 {
		field(&b, "Verified: ", fmt.Sprintf("%d packets", m.stats.Verified))
	}
	if m.stats.Elapsed > 0 {
		speed := float64(m.stats.Duration()) / float64(m.stats.Elapsed)
		field(&b, "Speed: ", fmt.Sprintf("%.1fx realtime", speed))
	}

	if m.showDebug {
		b.WriteString("\n")
		field(&b, "Run ID: ", m.stats.RunID)
		field(&b, "Frames: ", fmt.Sprintf("%d", m.stats.Frames))
		field(&b, "Rejected: ", fmt.Sprintf("%d", m.stats.Rejected))
	}

	b.WriteString("\n")
	switch {
	case m.err != nil:
		b.WriteString(errorStyle.Render("Failed: " + m.err.Error()))
		b.WriteString("\n")
	case m.done:
		b.WriteString(headerStyle.Render("Done"))
		b.WriteString("\n")
	default:
		b.WriteString(helpStyle.Render("d: debug  q/Ctrl+C: stop"))
	}

	return b.String()
}

func field(b *strings.Builder, name, value string) {
	b.WriteString(headerStyle.Render(name))
	b.WriteString(valueStyle.Render(value))
	b.WriteString("\n")
}

func renderBar(value, max, width int) string {
	filled := 0
	if max > 0 {
		filled = (value * width) / max
	}
	return strings.Repeat("█", filled) + strings.Repeat("░", width-filled)
}

func formatBytes(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for v := n / unit; v >= unit; v /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}
