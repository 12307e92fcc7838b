package tui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/moonbit-tools/moonbridge/internal/supervisor"
)

var (
	// Title styling
	TitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#7D56F4")).
			MarginBottom(1)

	// Error styling
	ErrorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF5F5F")).
			Bold(true)

	// Warning styling
	WarnStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFAF00"))

	// Success styling
	SuccessStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#04B575")).
			Bold(true)

	// Subtle text styling
	SubtleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#888888"))

	// Help text styling
	HelpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#888888")).
			MarginTop(1)

	badgeBase = lipgloss.NewStyle().
			Bold(true).
			Padding(0, 1)

	badgeColors = map[supervisor.BuildState]lipgloss.Color{
		supervisor.StateIdle:      lipgloss.Color("#888888"),
		supervisor.StateStarting:  lipgloss.Color("#FFAF00"),
		supervisor.StateWatching:  lipgloss.Color("#5F87FF"),
		supervisor.StateSucceeded: lipgloss.Color("#04B575"),
		supervisor.StateFailed:    lipgloss.Color("#FF5F5F"),
		supervisor.StateStopped:   lipgloss.Color("#666666"),
	}
)

// StateBadge renders a colored badge for a build state.
func StateBadge(state supervisor.BuildState) string {
	color, ok := badgeColors[state]
	if !ok {
		color = lipgloss.Color("#888888")
	}
	return badgeBase.Background(color).Foreground(lipgloss.Color("#FFFFFF")).Render(state.String())
}
