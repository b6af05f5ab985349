package render

import (
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"

	"github.com/PabloViniegra/how-are-u/internal/beautyapi"
	"github.com/PabloViniegra/how-are-u/internal/labels"
	"github.com/PabloViniegra/how-are-u/internal/store"
)

// Stats writes the aggregate view of a list of analyses followed by the
// most recent feasible ones.
func Stats(w io.Writer, stats store.AnalysisStats, recent []beautyapi.Analysis) error {
	lines := []string{
		Title.Render("Resumen de análisis"),
		fmt.Sprintf("Total: %d  Válidos: %d", stats.TotalAnalyses, stats.FeasibleAnalyses),
		fmt.Sprintf("Puntuación media: %.1f  Mejor puntuación: %.1f", stats.AverageScore, stats.BestScore),
		"",
		Heading.Render("Distribución"),
		distributionRow(labels.ScoreBand(8), stats.ScoreDistribution.Excellent),
		distributionRow(labels.ScoreBand(6), stats.ScoreDistribution.Good),
		distributionRow(labels.ScoreBand(4), stats.ScoreDistribution.Average),
		distributionRow(labels.ScoreBand(0), stats.ScoreDistribution.Poor),
	}

	if len(recent) > 0 {
		lines = append(lines, "", Heading.Render("Recientes"))
		for _, a := range recent {
			band := labels.ScoreBand(a.Score())
			lines = append(lines, fmt.Sprintf("  %s  %s  %s%s",
				a.ID,
				Score.Render(fmt.Sprintf("%.1f", a.Score())),
				colored(bandColors[band.Color]).Render(band.Label),
				Muted.Render(dateSuffix(&a)),
			))
		}
	}

	if stats.LatestAnalysis != nil {
		lines = append(lines, "", Muted.Render(fmt.Sprintf("Último análisis: %s (%s)",
			stats.LatestAnalysis.ID, labels.Status(string(stats.LatestAnalysis.Status)))))
	}

	_, err := fmt.Fprintln(w, Card.Render(lipgloss.JoinVertical(lipgloss.Left, lines...)))
	return err
}

func distributionRow(band labels.Band, count int) string {
	return fmt.Sprintf("  %-10s %s", band.Label, colored(bandColors[band.Color]).Render(fmt.Sprintf("%d", count)))
}

// Notification writes a one-line notification.
func Notification(w io.Writer, n store.Notification) error {
	var style lipgloss.Style
	switch n.Type {
	case store.NotificationSuccess:
		style = colored(Green)
	case store.NotificationError:
		style = colored(Red)
	default:
		style = colored(Blue)
	}
	line := style.Bold(true).Render(n.Title)
	if n.Message != "" {
		line += " " + n.Message
	}
	_, err := fmt.Fprintln(w, line)
	return err
}
