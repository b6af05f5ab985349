// Package render prints analyses, statistics and notifications to a
// terminal.
package render

import "github.com/charmbracelet/lipgloss"

var (
	Green  = lipgloss.Color("#a6e3a1")
	Blue   = lipgloss.Color("#89b4fa")
	Yellow = lipgloss.Color("#f9e2af")
	Red    = lipgloss.Color("#f38ba8")
	Subtle = lipgloss.Color("#a6adc8")
	Border = lipgloss.Color("#45475a")
	Accent = lipgloss.Color("#cba6f7")

	Card = lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(Border).
		Padding(0, 1)

	Title   = lipgloss.NewStyle().Foreground(Accent).Bold(true)
	Heading = lipgloss.NewStyle().Bold(true).Underline(true)
	Muted   = lipgloss.NewStyle().Foreground(Subtle)
	Score   = lipgloss.NewStyle().Bold(true)
)

// bandColors maps the band colors of the label catalog to terminal colors.
var bandColors = map[string]lipgloss.Color{
	"green":  Green,
	"blue":   Blue,
	"yellow": Yellow,
	"red":    Red,
}

// statusColors follows the badge colors of the web front end.
var statusColors = map[string]lipgloss.Color{
	"feasible":   Green,
	"improvable": Yellow,
	"denied":     Red,
}

func colored(c lipgloss.Color) lipgloss.Style {
	return lipgloss.NewStyle().Foreground(c)
}
