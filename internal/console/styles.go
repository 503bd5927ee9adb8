package console

import "github.com/charmbracelet/lipgloss"

var (
	colorPrimary   = lipgloss.Color("#7C3AED")
	colorSecondary = lipgloss.Color("#10B981")
	colorAccent    = lipgloss.Color("#F59E0B")
	colorMuted     = lipgloss.Color("#6B7280")
)

var (
	TitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorPrimary).
			MarginBottom(1)

	LearnerStyle = lipgloss.NewStyle().
			Foreground(colorSecondary).
			Bold(true)

	TutorStyle = lipgloss.NewStyle().
			Foreground(colorPrimary)

	CorrectiveStyle = lipgloss.NewStyle().
			Foreground(colorAccent)

	SystemStyle = lipgloss.NewStyle().
			Foreground(colorMuted).
			Italic(true)

	StatusStyle = lipgloss.NewStyle().
			Foreground(colorMuted)

	HelpStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorMuted).
			Padding(0, 1)
)
