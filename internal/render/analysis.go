package render

import (
	"fmt"
	"io"
	"math"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/PabloViniegra/how-are-u/internal/beautyapi"
	"github.com/PabloViniegra/how-are-u/internal/labels"
)

const barWidth = 20

// Options controls optional parts of the analysis view.
type Options struct {
	// ShowShare adds the share call to action. The shared summary view
	// leaves it off.
	ShowShare bool
	ShareURL  string
}

// Analysis writes a boxed view of a. Scores are only shown for feasible
// analyses.
func Analysis(w io.Writer, a *beautyapi.Analysis, opts Options) error {
	if a == nil {
		return fmt.Errorf("no analysis to render")
	}

	status := string(a.Status)
	badge := colored(statusColors[status]).Bold(true).Render(labels.Status(status))
	sections := []string{badge}
	if detail := labels.StatusDetail(status); detail != "" {
		sections = append(sections, Muted.Render(detail))
	}

	if a.IsFeasible() {
		sections = append(sections, "", overall(a.Score()))

		if len(a.DetailedScores) > 0 {
			sections = append(sections, "", Heading.Render("Puntuaciones Detalladas"))
			sections = append(sections, scoreRows(a.DetailedScores, func(v float64) string {
				return fmt.Sprintf("%.1f", v)
			})...)
		}
		if len(a.AdditionalScores) > 0 {
			sections = append(sections, "", Heading.Render("Métricas Adicionales"))
			sections = append(sections, scoreRows(a.AdditionalScores, func(v float64) string {
				return fmt.Sprintf("%d%%", Percent(v))
			})...)
		}
		if a.ScientificExplanation != "" {
			sections = append(sections, "", Heading.Render("Explicación Científica"), a.ScientificExplanation)
		}
		if a.Recommendations != "" {
			sections = append(sections, "", Heading.Render("Recomendaciones"), a.Recommendations)
		}
		if opts.ShowShare {
			sections = append(sections, "", Title.Render("¡Comparte tu resultado!"),
				Muted.Render("Muestra tu análisis de belleza"))
			if opts.ShareURL != "" {
				sections = append(sections, opts.ShareURL)
			}
		}
	}

	sections = append(sections, "", Muted.Render("ID: "+a.ID+dateSuffix(a)))

	_, err := fmt.Fprintln(w, Card.Render(lipgloss.JoinVertical(lipgloss.Left, sections...)))
	return err
}

func dateSuffix(a *beautyapi.Analysis) string {
	if d := a.Date(); !d.IsZero() {
		return " · " + d.Format("02/01/2006 15:04")
	}
	return ""
}

func overall(score float64) string {
	band := labels.ScoreBand(score)
	style := colored(bandColors[band.Color])
	return fmt.Sprintf("%s  %s/10  %s",
		Heading.Render("Puntuación General"),
		Score.Inherit(style).Render(fmt.Sprintf("%.1f", score)),
		style.Render(band.Label),
	)
}

// scoreRows renders one labelled bar per key, sorted by label.
func scoreRows(scores map[string]float64, format func(float64) string) []string {
	type row struct {
		label string
		value float64
	}
	rows := make([]row, 0, len(scores))
	width := 0
	for key, value := range scores {
		label := labels.Field(key)
		rows = append(rows, row{label, value})
		width = max(width, lipgloss.Width(label))
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].label < rows[j].label })

	out := make([]string, 0, len(rows))
	for _, r := range rows {
		padding := strings.Repeat(" ", width-lipgloss.Width(r.label))
		style := colored(bandColors[labels.ScoreBand(r.value).Color])
		out = append(out, fmt.Sprintf("  %s%s  %s %s", r.label, padding, style.Render(Bar(r.value)), format(r.value)))
	}
	return out
}

// Percent converts a 0-10 score to a whole percentage.
func Percent(score float64) int {
	return int(math.Round(math.Min(math.Max(score, 0), 10) * 10))
}

// Bar draws a 0-10 score as a fixed-width bar.
func Bar(score float64) string {
	filled := Percent(score) * barWidth / 100
	return strings.Repeat("█", filled) + strings.Repeat("░", barWidth-filled)
}
