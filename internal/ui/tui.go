// ABOUTME: TUI initialization and control
// ABOUTME: Wraps the bubbletea program that shows encode progress
package ui

import (
	"time"

	"github.com/Resonate-Protocol/aerial-go/internal/pipeline"
	tea "github.com/charmbracelet/bubbletea"
)

// TUI manages the progress display for one run
type TUI struct {
	program *tea.Program
	updates chan pipeline.Stats
	drained chan struct{}
	quit    chan struct{}
}

// New creates a TUI. target is the expected audio length, or 0 if unknown.
func New(title, sink string, target time.Duration) *TUI {
	quit := make(chan struct{}, 1)
	t := &TUI{
		updates: make(chan pipeline.Stats, 10),
		drained: make(chan struct{}),
		quit:    quit,
	}
	t.program = tea.NewProgram(NewModel(title, sink, target, quit))
	return t
}

// Start runs the TUI until it quits.
func (t *TUI) Start() error {
	go func() {
		defer close(t.drained)
		for stats := range t.updates {
			t.program.Send(StatusMsg(stats))
		}
	}()

	_, err := t.program.Run()
	return err
}

// Update sends a stats snapshot to the TUI
func (t *TUI) Update(stats pipeline.Stats) {
	select {
	case t.updates <- stats:
	default:
		// Don't block the pipeline if the display is behind
	}
}

// Finish shows the final result and ends the program. Start must be
// running.
func (t *TUI) Finish(stats pipeline.Stats, err error) {
	close(t.updates)
	<-t.drained
	t.program.Send(StatusMsg(stats))
	t.program.Send(DoneMsg{Err: err})
}

// QuitChan returns the channel that signals when the user wants to stop
func (t *TUI) QuitChan() <-chan struct{} {
	return t.quit
}
