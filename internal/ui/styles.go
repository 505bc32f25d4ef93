package ui

import "github.com/charmbracelet/lipgloss"

var (
	primaryColor   = lipgloss.Color("#A78BFA")
	secondaryColor = lipgloss.Color("#10B981")
	warningColor   = lipgloss.Color("#F59E0B")
	errorColor     = lipgloss.Color("#F87171")
	mutedColor     = lipgloss.Color("#9CA3AF")
	borderColor    = lipgloss.Color("#6B7280")

	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(primaryColor)

	subtitleStyle = lipgloss.NewStyle().
			Foreground(mutedColor)

	sectionStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(borderColor).
			Padding(0, 1)

	switchOnStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(secondaryColor)

	switchOffStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(mutedColor)

	occupantStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(warningColor)

	doneStyle = lipgloss.NewStyle().Foreground(secondaryColor)

	resetterStyle = lipgloss.NewStyle().Foreground(primaryColor)

	successStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(secondaryColor)

	failureStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(errorColor)

	helpStyle = lipgloss.NewStyle().Foreground(mutedColor)
)
