package tui

import "github.com/charmbracelet/lipgloss"

// Catppuccin Mocha palette, matching the teacher's TUI.
var (
	colorGreen  = lipgloss.Color("#a6e3a1")
	colorBlue   = lipgloss.Color("#89b4fa")
	colorYellow = lipgloss.Color("#f9e2af")
	colorRed    = lipgloss.Color("#f38ba8")
	colorMuted  = lipgloss.Color("#5a6278")
	colorDim    = lipgloss.Color("#3a4055")
	colorBright = lipgloss.Color("#cdd6f4")
)

var (
	styleHeader         = lipgloss.NewStyle().Bold(true).Foreground(colorBright)
	styleStatus         = lipgloss.NewStyle().Foreground(colorYellow).Italic(true)
	styleError          = lipgloss.NewStyle().Foreground(colorRed).Bold(true)
	styleBigNumber      = lipgloss.NewStyle().Bold(true).Foreground(colorGreen)
	styleSparkline      = lipgloss.NewStyle().Foreground(colorBlue)
	styleProgressFilled = lipgloss.NewStyle().Foreground(colorGreen)
	styleProgressEmpty  = lipgloss.NewStyle().Foreground(colorDim)
	styleMuted          = lipgloss.NewStyle().Foreground(colorMuted)
)
