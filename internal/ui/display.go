package ui

import (
	"strings"

	"golang.org/x/term"

	"github.com/pdiffcopy/pdiffcopy/internal/progress"
)

// IsTTY reports whether fd refers to a terminal, used to decide between the
// plain presenter and the interactive TUI (--tui only takes effect when
// stderr is a terminal).
func IsTTY(fd uintptr) bool {
	return term.IsTerminal(int(fd))
}

// ProgressBar renders a block-transfer progress bar of the given width using
// ▪/□ characters: int(pct*width) filled squares, the rest empty.
func ProgressBar(pct float64, width int) string {
	if width <= 0 {
		return ""
	}
	if pct < 0 {
		pct = 0
	}
	if pct > 1 {
		pct = 1
	}
	filled := int(pct * float64(width))
	if filled > width {
		filled = width
	}
	var b strings.Builder
	b.WriteString(strings.Repeat("▪", filled))
	b.WriteString(strings.Repeat("□", width-filled))
	return b.String()
}

// Sparkline renders a rolling window of transfer-throughput samples as a
// line of Unicode block characters exactly width runes wide, normalized
// against the largest sample in the window. Samples older than width are
// dropped; a window shorter than width is left-padded with zero-height bars.
func Sparkline(data []float64, width int) string {
	if width <= 0 {
		return ""
	}

	blocks := []rune("▁▂▃▄▅▆▇█")

	samples := make([]float64, width)
	if len(data) >= width {
		copy(samples, data[len(data)-width:])
	} else {
		copy(samples[width-len(data):], data)
	}

	var peak float64
	for _, v := range samples {
		if v > peak {
			peak = v
		}
	}

	out := make([]rune, width)
	for i, v := range samples {
		if peak <= 0 || v <= 0 {
			out[i] = blocks[0]
			continue
		}
		idx := int(v / peak * float64(len(blocks)-1))
		if idx >= len(blocks) {
			idx = len(blocks) - 1
		}
		out[i] = blocks[idx]
	}
	return string(out)
}

// FormatBytes renders a human-readable byte count for presenter output,
// delegating to the shared progress.FormatBytes so the plain and TUI
// presenters agree on units with the rest of the client.
func FormatBytes(b int64) string {
	return progress.FormatBytes(b)
}
