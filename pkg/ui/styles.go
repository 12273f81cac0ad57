package ui

import "github.com/charmbracelet/lipgloss"

var (
	colorAccent  = lipgloss.Color("#7C3AED")
	colorGood    = lipgloss.Color("#10B981")
	colorBad     = lipgloss.Color("#EF4444")
	colorCaution = lipgloss.Color("#F59E0B")
	colorDim     = lipgloss.Color("#6B7280")
	colorFrame   = lipgloss.Color("#374151")
)

var (
	panelStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorFrame).
			Padding(0, 1)

	bannerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FFFFFF")).
			Background(colorAccent).
			Padding(0, 2)

	sectionStyle     = lipgloss.NewStyle().Bold(true).Foreground(colorAccent)
	errorStyle       = lipgloss.NewStyle().Foreground(colorBad)
	errorHeaderStyle = errorStyle.Bold(true)
	warnStyle        = lipgloss.NewStyle().Bold(true).Foreground(colorCaution)
	dimStyle         = lipgloss.NewStyle().Foreground(colorDim)
	helpStyle        = dimStyle.Padding(0, 1)
)
