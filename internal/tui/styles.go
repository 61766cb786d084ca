package tui

import "github.com/charmbracelet/lipgloss"

var (
	// Colors
	primary = lipgloss.Color("#7C3AED") // violet
	success = lipgloss.Color("#22C55E") // green
	danger  = lipgloss.Color("#EF4444") // red
	muted   = lipgloss.Color("#6B7280") // gray
	text    = lipgloss.Color("#E5E7EB") // light gray

	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(primary).
			MarginBottom(1)

	statLabel = lipgloss.NewStyle().
			Foreground(muted).
			Width(14)

	statValue = lipgloss.NewStyle().
			Foreground(text).
			Bold(true)

	statsBox = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(muted).
			Padding(0, 1)

	successText = lipgloss.NewStyle().
			Foreground(success).
			Bold(true)

	errorText = lipgloss.NewStyle().
			Foreground(danger).
			Bold(true)

	statusBar = lipgloss.NewStyle().
			Foreground(muted).
			MarginTop(1)
)
