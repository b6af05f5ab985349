package beautyapi

import "time"

// Status is the server-side gating outcome of an analysis.
type Status string

// Status values. Only feasible analyses carry scores.
const (
	StatusDenied     Status = "denied"
	StatusImprovable Status = "improvable"
	StatusFeasible   Status = "feasible"
)

// Analysis is the scoring result for one uploaded photo.
type Analysis struct {
	ID                    string             `json:"id"`
	Status                Status             `json:"status"`
	OverallScore          *float64           `json:"overall_score,omitempty"`
	DetailedScores        map[string]float64 `json:"detailed_scores,omitempty"`
	AdditionalScores      map[string]float64 `json:"additional_scores,omitempty"`
	ScientificExplanation string             `json:"scientific_explanation,omitempty"`
	Recommendations       string             `json:"recommendations,omitempty"`
	AnalysisDate          string             `json:"analysis_date"`
	ImageURL              string             `json:"image_url,omitempty"`
}

// IsFeasible reports whether the analysis carries scores.
func (a *Analysis) IsFeasible() bool {
	return a != nil && a.Status == StatusFeasible
}

// Score returns the overall score, or 0 when absent.
func (a *Analysis) Score() float64 {
	if a == nil || a.OverallScore == nil {
		return 0
	}
	return *a.OverallScore
}

// Date parses AnalysisDate. Unparseable dates yield the zero time.
func (a *Analysis) Date() time.Time {
	for _, layout := range []string{time.RFC3339Nano, "2006-01-02T15:04:05.999999", "2006-01-02"} {
		if t, err := time.Parse(layout, a.AnalysisDate); err == nil {
			return t
		}
	}
	return time.Time{}
}

// Float returns a pointer to v, for building analyses with a score.
func Float(v float64) *float64 {
	return &v
}

// Response wraps an API payload.
type Response[T any] struct {
	Success bool   `json:"success"`
	Data    T      `json:"data"`
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
}
