package tui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/jpalmerr/sensorboard/sensor"
)

// Layout constants for the history table.
const (
	colTimeWidth        = 10
	colTemperatureWidth = 18
	colHumidityWidth    = 14
	colGasWidth         = 16
	colStatusMinWidth   = 24

	// rows taken by header, current block, spacing and footer
	chromeHeight   = 10
	minTableHeight = 3
)

var (
	headerBackground = lipgloss.Color("#0056B3")
	mutedColor       = lipgloss.Color("#6C757D")
	borderColor      = lipgloss.Color("#CED4DA")
)

// Styles for the dashboard
var (
	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FFFFFF")).
			Background(headerBackground).
			Padding(0, 1)

	currentStyle = lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(borderColor).
			Padding(0, 1)

	valueStyle = lipgloss.NewStyle()

	footerStyle = lipgloss.NewStyle().
			Foreground(mutedColor)

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color(sensor.ErrorColor.Hex())).
			Bold(true)
)

// statusStyle renders the status line in the category's color.
func statusStyle(c sensor.Color) lipgloss.Style {
	s := lipgloss.NewStyle().Bold(true)
	if c == sensor.Black {
		// black is the terminal's default foreground
		return s
	}
	return s.Foreground(lipgloss.Color(c.Hex()))
}
