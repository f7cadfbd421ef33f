package tui

import (
	"github.com/charmbracelet/lipgloss"
)

// Styles holds the styled components shared by all screens.
type Styles struct {
	Title    lipgloss.Style
	Subtitle lipgloss.Style
	Body     lipgloss.Style
	Muted    lipgloss.Style
	Bold     lipgloss.Style

	Selected lipgloss.Style
	Label    lipgloss.Style

	Success lipgloss.Style
	Error   lipgloss.Style

	Help lipgloss.Style
}

// DefaultStyles returns the default color scheme.
func DefaultStyles() Styles {
	var (
		primary = lipgloss.Color("99")
		muted   = lipgloss.Color("241")
		accent  = lipgloss.Color("212")
		good    = lipgloss.Color("42")
		bad     = lipgloss.Color("196")
	)

	return Styles{
		Title: lipgloss.NewStyle().
			Foreground(primary).
			Bold(true).
			MarginBottom(1),

		Subtitle: lipgloss.NewStyle().
			Foreground(muted).
			Italic(true),

		Body: lipgloss.NewStyle(),

		Muted: lipgloss.NewStyle().
			Foreground(muted),

		Bold: lipgloss.NewStyle().
			Bold(true),

		Selected: lipgloss.NewStyle().
			Foreground(accent).
			Bold(true),

		Label: lipgloss.NewStyle().
			Foreground(primary),

		Success: lipgloss.NewStyle().
			Foreground(good).
			Bold(true),

		Error: lipgloss.NewStyle().
			Foreground(bad).
			Bold(true),

		Help: lipgloss.NewStyle().
			Foreground(muted).
			MarginTop(1),
	}
}
