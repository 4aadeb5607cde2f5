package cli

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/eagle-green/mysked/internal/timeline"
)

var (
	// Colors
	primaryColor   = lipgloss.Color("39")  // Blue
	secondaryColor = lipgloss.Color("245") // Gray
	successColor   = lipgloss.Color("76")  // Green
	infoColor      = lipgloss.Color("37")  // Cyan
	warningColor   = lipgloss.Color("214") // Orange
	errorColor     = lipgloss.Color("196") // Red
	mutedColor     = lipgloss.Color("241")

	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(primaryColor)
	mutedStyle  = lipgloss.NewStyle().Foreground(mutedColor)
	errorStyle  = lipgloss.NewStyle().Bold(true).Foreground(errorColor)
	countStyle  = lipgloss.NewStyle().Bold(true)
)

var displayColors = map[string]lipgloss.Color{
	timeline.ColorPrimary:   primaryColor,
	timeline.ColorSecondary: secondaryColor,
	timeline.ColorSuccess:   successColor,
	timeline.ColorInfo:      infoColor,
	timeline.ColorWarning:   warningColor,
	timeline.ColorError:     errorColor,
}

// entryStyle colors an entry title by its display color.
func entryStyle(color string) lipgloss.Style {
	c, ok := displayColors[color]
	if !ok {
		c = mutedColor
	}
	return lipgloss.NewStyle().Bold(true).Foreground(c)
}
