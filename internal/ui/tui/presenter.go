package tui

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/pdiffcopy/pdiffcopy/internal/progress"
)

// Presenter wraps a Bubble Tea program and implements ui.Presenter.
type Presenter struct {
	model Model
}

// NewPresenter creates a new TUI presenter.
func NewPresenter() *Presenter {
	return &Presenter{}
}

// Run starts the Bubble Tea program and blocks until a Done or Failed event
// arrives, the event stream closes, or the user quits with q or ctrl+c.
func (p *Presenter) Run(events <-chan progress.Event) error {
	p.model = NewModel(events)
	prog := tea.NewProgram(p.model)
	finalModel, err := prog.Run()
	if err != nil {
		return err
	}
	p.model = finalModel.(Model)
	return nil
}

// Summary returns the final completion summary line.
func (p *Presenter) Summary() string {
	if p.model.err != nil {
		return fmt.Sprintf("failed: %v", p.model.err)
	}
	return fmt.Sprintf("done: %s transferred, similarity %.2f%%", progress.FormatBytes(p.model.bytesMoved), p.model.similarity*100)
}
