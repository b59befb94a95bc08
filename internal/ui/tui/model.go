// Package tui implements the optional --tui live progress view: a single
// Bubble Tea model tracking one transfer's state-machine stage, hashed
// block count, and transferred bytes, styled with lipgloss. It is scaled
// down from the teacher's internal/ui/tui (which drives a multi-mode feed
// and throughput HUD over a whole directory tree) to the single number
// this protocol actually has to show: one file's progress.
package tui

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/pdiffcopy/pdiffcopy/internal/progress"
	"github.com/pdiffcopy/pdiffcopy/internal/ui"
)

type tickMsg struct{}

type eventMsg progress.Event

// Model is the Bubble Tea model for the live transfer view.
type Model struct {
	events <-chan progress.Event

	stage      progress.Type
	bytesTotal int64
	bytesMoved int64
	blocksDone int64
	blocksAll  int64
	diffBlocks int
	similarity float64
	sparkline  []float64
	err        error
	done       bool
}

// NewModel builds a Model that reads from events until the channel closes.
func NewModel(events <-chan progress.Event) Model {
	return Model{events: events}
}

// Init starts listening for the first event.
func (m Model) Init() tea.Cmd {
	return m.waitForEvent
}

func (m Model) waitForEvent() tea.Msg {
	ev, ok := <-m.events
	if !ok {
		return tea.Quit()
	}
	return eventMsg(ev)
}

// Update applies one incoming event or key press to the model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" || msg.String() == "q" {
			return m, tea.Quit
		}
	case eventMsg:
		m.apply(progress.Event(msg))
		if progress.Event(msg).Type == progress.Done || progress.Event(msg).Type == progress.Failed {
			m.done = true
			return m, tea.Quit
		}
		return m, m.waitForEvent
	}
	return m, nil
}

func (m *Model) apply(ev progress.Event) {
	m.stage = ev.Type
	if ev.BytesTotal > 0 {
		m.bytesTotal = ev.BytesTotal
	}
	if ev.BytesTransferred > 0 {
		m.bytesMoved = ev.BytesTransferred
		m.sparkline = append(m.sparkline, float64(ev.BytesTransferred))
	}
	if ev.BlocksTotal > 0 {
		m.blocksAll = ev.BlocksTotal
	}
	m.blocksDone = ev.BlocksHashed
	m.diffBlocks = ev.DiffBlocks
	m.similarity = ev.Similarity
	m.err = ev.Err
}

// View renders the current state.
func (m Model) View() string {
	header := styleHeader.Render("pdiffcopy")
	status := styleStatus.Render(m.stage.String())

	var pct float64
	if m.bytesTotal > 0 {
		pct = float64(m.bytesMoved) / float64(m.bytesTotal)
	}
	bar := ui.ProgressBar(pct, 30)

	lines := []string{
		fmt.Sprintf("%s  %s", header, status),
		fmt.Sprintf("%s  %s / %s", bar, progress.FormatBytes(m.bytesMoved), progress.FormatBytes(m.bytesTotal)),
		styleMuted.Render(fmt.Sprintf("blocks hashed %d/%d  diff %d  similarity %.1f%%",
			m.blocksDone, m.blocksAll, m.diffBlocks, m.similarity*100)),
	}
	if len(m.sparkline) > 0 {
		lines = append(lines, styleSparkline.Render(ui.Sparkline(m.sparkline, 30)))
	}
	if m.err != nil {
		lines = append(lines, styleError.Render(m.err.Error()))
	}

	out := ""
	for _, l := range lines {
		out += l + "\n"
	}
	return out
}
