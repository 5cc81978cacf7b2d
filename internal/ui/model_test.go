// ABOUTME: Tests for TUI model and state management
// ABOUTME: Tests status updates, key handling and rendering
package ui

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/Resonate-Protocol/aerial-go/internal/pipeline"
	tea "github.com/charmbracelet/bubbletea"
)

func TestNewModel(t *testing.T) {
	model := NewModel("tone", "file", time.Second, nil)

	if model.title != "tone" || model.sink != "file" {
		t.Errorf("unexpected identity %q %q", model.title, model.sink)
	}
	if model.done || model.quitting || model.showDebug {
		t.Error("expected a fresh model")
	}
}

func TestStatusMsg(t *testing.T) {
	model := NewModel("", "null", 0, nil)

	updated, cmd := model.Update(StatusMsg(pipeline.Stats{
		Title:       "Song",
		Packets:     10,
		Frames:      3520,
		InputBytes:  14080,
		OutputBytes: 7040,
	}))
	if cmd != nil {
		t.Error("status update should not return a command")
	}
	m := updated.(Model)

	if m.stats.Packets != 10 {
		t.Errorf("expected 10 packets, got %d", m.stats.Packets)
	}
	if m.title != "Song" {
		t.Errorf("expected title from stats, got %q", m.title)
	}

	view := m.View()
	for _, want := range []string{"Song", "null", "10 (0 escaped)", "50.0%"} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q:\n%s", want, view)
		}
	}
}

func TestProgressBar(t *testing.T) {
	model := NewModel("tone", "file", time.Second, nil)
	updated, _ := model.Update(StatusMsg(pipeline.Stats{Frames: 22050}))

	view := updated.(Model).View()
	if !strings.Contains(view, " 50%") {
		t.Errorf("expected 50%% progress:\n%s", view)
	}

	updated, _ = model.Update(StatusMsg(pipeline.Stats{Frames: 88200}))
	if !strings.Contains(updated.(Model).View(), "100%") {
		t.Error("progress should clamp at 100%")
	}
}

func TestQuitKey(t *testing.T) {
	quit := make(chan struct{}, 1)
	model := NewModel("tone", "file", 0, quit)

	updated, cmd := model.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	if cmd == nil {
		t.Fatal("expected quit command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("expected tea.QuitMsg")
	}
	if !updated.(Model).quitting {
		t.Error("expected quitting")
	}

	select {
	case <-quit:
	default:
		t.Error("expected quit signal")
	}

	// A second press must not block on the full channel
	quit <- struct{}{}
	model.Update(tea.KeyMsg{Type: tea.KeyCtrlC})
}

func TestDebugToggle(t *testing.T) {
	model := NewModel("tone", "file", 0, nil)
	model.stats.RunID = "run-123"

	updated, _ := model.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("d")})
	m := updated.(Model)
	if !m.showDebug {
		t.Fatal("expected debug on")
	}
	if !strings.Contains(m.View(), "run-123") {
		t.Error("debug view should show the run ID")
	}

	updated, _ = m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("d")})
	if updated.(Model).showDebug {
		t.Error("expected debug off")
	}
}

func TestDoneMsg(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"success", nil, "Done"},
		{"failure", errors.New("disk full"), "Failed: disk full"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			model := NewModel("tone", "file", 0, nil)
			updated, cmd := model.Update(DoneMsg{Err: tt.err})
			if cmd == nil {
				t.Fatal("expected quit command")
			}
			if view := updated.(Model).View(); !strings.Contains(view, tt.want) {
				t.Errorf("view missing %q:\n%s", tt.want, view)
			}
		})
	}
}

func TestRenderBar(t *testing.T) {
	tests := []struct {
		value, max, width int
		filled            int
	}{
		{0, 100, 10, 0},
		{50, 100, 10, 5},
		{100, 100, 10, 10},
		{5, 0, 10, 0},
	}

	for _, tt := range tests {
		bar := renderBar(tt.value, tt.max, tt.width)
		if got := strings.Count(bar, "█"); got != tt.filled {
			t.Errorf("renderBar(%d, %d, %d) filled %d, want %d", tt.value, tt.max, tt.width, got, tt.filled)
		}
		if got := strings.Count(bar, "█") + strings.Count(bar, "░"); got != tt.width {
			t.Errorf("renderBar width %d, want %d", got, tt.width)
		}
	}
}

func TestFormatBytes(t *testing.T) {
	tests := []struct {
		n    int64
		want string
	}{
		{0, "0 B"},
		{1023, "1023 B"},
		{1024, "1.0 KiB"},
		{1536, "1.5 KiB"},
		{5 * 1024 * 1024, "5.0 MiB"},
	}

	for _, tt := range tests {
		if got := formatBytes(tt.n); got != tt.want {
			t.Errorf("formatBytes(%d) = %q, want %q", tt.n, got, tt.want)
		}
	}
}
