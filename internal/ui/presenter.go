// Package ui provides progress presenters for the pdiffcopy CLI, following
// the presenter-selection pattern of the teacher's internal/ui package:
// pick the plain-text presenter by default, a quiet presenter for
// --quiet, or (see internal/ui/tui) a Bubble Tea live view when --tui is
// given and stderr is an interactive terminal.
package ui

import (
	"fmt"
	"io"

	"github.com/pdiffcopy/pdiffcopy/internal/progress"
)

// Presenter consumes progress events until the channel closes.
type Presenter interface {
	Run(events <-chan progress.Event) error
	Summary() string
}

// Config selects and configures a Presenter.
type Config struct {
	Writer    io.Writer
	ErrWriter io.Writer
	Quiet     bool
	IsTTY     bool
}

// NewPresenter returns the presenter matching cfg, mirroring the teacher's
// ui.NewPresenter factory.
func NewPresenter(cfg Config) Presenter {
	if cfg.Quiet {
		return &quietPresenter{}
	}
	return &plainPresenter{w: cfg.Writer, errW: cfg.ErrWriter}
}

type plainPresenter struct {
	w, errW io.Writer
	last    progress.Event
}

func (p *plainPresenter) Run(events <-chan progress.Event) error {
	for ev := range events {
		p.handleEvent(ev)
	}
	return nil
}

func (p *plainPresenter) handleEvent(ev progress.Event) {
	p.last = ev
	switch ev.Type {
	case progress.DescribeDone:
		fmt.Fprintf(p.w, "size %s\n", FormatBytes(ev.BytesTotal))
	case progress.HashingDone:
		fmt.Fprintf(p.w, "hashed %d blocks\n", ev.BlocksTotal)
	case progress.DeltaComputed:
		fmt.Fprintf(p.w, "diff: %d/%d blocks, similarity %.2f%%\n", ev.DiffBlocks, ev.BlocksTotal, ev.Similarity*100)
	case progress.TransferProgress:
		var pct float64
		if ev.BytesTotal > 0 {
			pct = float64(ev.BytesTransferred) / float64(ev.BytesTotal)
		}
		fmt.Fprintf(p.errW, "%s %s / %s\n", ProgressBar(pct, 20), FormatBytes(ev.BytesTransferred), FormatBytes(ev.BytesTotal))
	case progress.TransferDone:
		fmt.Fprintf(p.w, "transferred %s\n", FormatBytes(ev.BytesTransferred))
	case progress.Failed:
		fmt.Fprintf(p.w, "failed: %v\n", ev.Err)
	}
}

func (p *plainPresenter) Summary() string {
	switch p.last.Type {
	case progress.Failed:
		return fmt.Sprintf("failed: %v", p.last.Err)
	default:
		return fmt.Sprintf("done: %s transferred, similarity %.2f%%", FormatBytes(p.last.BytesTransferred), p.last.Similarity*100)
	}
}

type quietPresenter struct {
	last progress.Event
}

func (p *quietPresenter) Run(events <-chan progress.Event) error {
	for ev := range events {
		p.last = ev
	}
	return nil
}

func (p *quietPresenter) Summary() string {
	return ""
}
