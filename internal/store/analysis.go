package store

import (
	"math"
	"slices"
	"sort"
	"sync"

	"github.com/PabloViniegra/how-are-u/internal/beautyapi"
	"github.com/PabloViniegra/how-are-u/internal/constants"
	"github.com/PabloViniegra/how-are-u/internal/progress"
)

// ScoreDistribution counts feasible analyses per score band.
type ScoreDistribution struct {
	Excellent int `json:"excellent"` // 8-10
	Good      int `json:"good"`      // 6-8
	Average   int `json:"average"`   // 4-6
	Poor      int `json:"poor"`      // 0-4
}

// AnalysisStats aggregates the analyses held by a store.
type AnalysisStats struct {
	TotalAnalyses     int                 `json:"total_analyses"`
	FeasibleAnalyses  int                 `json:"feasible_analyses"`
	AverageScore      float64             `json:"average_score"`
	BestScore         float64             `json:"best_score"`
	LatestAnalysis    *beautyapi.Analysis `json:"latest_analysis"`
	ScoreDistribution ScoreDistribution   `json:"score_distribution"`
}

// AnalysisStore holds the analyses seen in this session, newest first.
type AnalysisStore struct {
	Broadcaster

	mu        sync.RWMutex
	analyses  []beautyapi.Analysis
	current   *beautyapi.Analysis
	analyzing bool
	progress  progress.UploadProgress
}

// NewAnalysisStore creates an empty analysis store.
func NewAnalysisStore() *AnalysisStore {
	return &AnalysisStore{}
}

func clone(a *beautyapi.Analysis) *beautyapi.Analysis {
	if a == nil {
		return nil
	}
	c := *a
	return &c
}

// SetCurrentAnalysis sets the analysis being shown. nil clears it.
func (s *AnalysisStore) SetCurrentAnalysis(a *beautyapi.Analysis) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.current = clone(a)
	s.SendEvent(Event{Type: EventCurrent, Data: clone(s.current)})
}

// AddAnalysis inserts a at the front of the list.
func (s *AnalysisStore) AddAnalysis(a beautyapi.Analysis) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.analyses = slices.Insert(s.analyses, 0, a)
	s.SendEvent(Event{Type: EventAnalyses, Data: len(s.analyses)})
}

// ReplaceAnalysis swaps the cached analysis with the same id for a. It
// reports whether one was found; the list is left untouched otherwise.
func (s *AnalysisStore) ReplaceAnalysis(a beautyapi.Analysis) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := slices.IndexFunc(s.analyses, func(x beautyapi.Analysis) bool { return x.ID == a.ID })
	if i < 0 {
		return false
	}
	s.analyses[i] = a
	s.SendEvent(Event{Type: EventAnalyses, Data: len(s.analyses)})
	return true
}

// SetAnalyses replaces the whole list.
func (s *AnalysisStore) SetAnalyses(analyses []beautyapi.Analysis) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.analyses = slices.Clone(analyses)
	s.SendEvent(Event{Type: EventAnalyses, Data: len(s.analyses)})
}

// SetAnalyzing sets the analyzing flag.
func (s *AnalysisStore) SetAnalyzing(v bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.analyzing = v
	s.SendEvent(Event{Type: EventAnalyzing, Data: v})
}

// SetUploadProgress records the latest upload progress.
func (s *AnalysisStore) SetUploadProgress(p progress.UploadProgress) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.progress = p
	s.SendEvent(Event{Type: EventProgress, Data: p})
}

// ResetUploadProgress sets the upload progress back to zero.
func (s *AnalysisStore) ResetUploadProgress() {
	s.SetUploadProgress(progress.UploadProgress{})
}

// Analyses returns a copy of the list, newest first.
func (s *AnalysisStore) Analyses() []beautyapi.Analysis {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.analyses)
}

// CurrentAnalysis returns the analysis being shown, or nil.
func (s *AnalysisStore) CurrentAnalysis() *beautyapi.Analysis {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return clone(s.current)
}

// IsAnalyzing reports whether an upload is in progress.
func (s *AnalysisStore) IsAnalyzing() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.analyzing
}

// UploadProgress returns the latest upload progress.
func (s *AnalysisStore) UploadProgress() progress.UploadProgress {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.progress
}

// AnalysisByID returns the cached analysis with the given id, or nil.
func (s *AnalysisStore) AnalysisByID(id string) *beautyapi.Analysis {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for i := range s.analyses {
		if s.analyses[i].ID == id {
			return clone(&s.analyses[i])
		}
	}
	return nil
}

// FeasibleAnalyses returns the analyses that carry scores, in list order.
func (s *AnalysisStore) FeasibleAnalyses() []beautyapi.Analysis {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.feasible()
}

func (s *AnalysisStore) feasible() []beautyapi.Analysis {
	var out []beautyapi.Analysis
	for _, a := range s.analyses {
		if a.IsFeasible() {
			out = append(out, a)
		}
	}
	return out
}

// RecentAnalyses returns up to five feasible analyses, latest date first.
func (s *AnalysisStore) RecentAnalyses() []beautyapi.Analysis {
	feasible := s.FeasibleAnalyses()
	sort.SliceStable(feasible, func(i, j int) bool {
		return feasible[i].Date().After(feasible[j].Date())
	})
	if len(feasible) > constants.RecentAnalysesLimit {
		feasible = feasible[:constants.RecentAnalysesLimit]
	}
	return feasible
}

// AverageScore returns the mean overall score of the feasible analyses
// rounded to one decimal, or 0 when there are none.
func (s *AnalysisStore) AverageScore() float64 {
	feasible := s.FeasibleAnalyses()
	if len(feasible) == 0 {
		return 0
	}
	var sum float64
	for _, a := range feasible {
		sum += a.Score()
	}
	return math.Round(sum/float64(len(feasible))*10) / 10
}

// TotalAnalyses returns the number of cached analyses.
func (s *AnalysisStore) TotalAnalyses() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.analyses)
}

// TotalFeasibleAnalyses returns the number of feasible analyses.
func (s *AnalysisStore) TotalFeasibleAnalyses() int {
	return len(s.FeasibleAnalyses())
}

// ScoreDistribution buckets the feasible analyses by overall score. Each
// band includes its lower bound.
func (s *AnalysisStore) ScoreDistribution() ScoreDistribution {
	var d ScoreDistribution
	for _, a := range s.FeasibleAnalyses() {
		switch score := a.Score(); {
		case score >= constants.ExcellentScore:
			d.Excellent++
		case score >= constants.GoodScore:
			d.Good++
		case score >= constants.AverageScore:
			d.Average++
		default:
			d.Poor++
		}
	}
	return d
}

// BestScore returns the highest overall score among feasible analyses,
// or 0 when there are none.
func (s *AnalysisStore) BestScore() float64 {
	var best float64
	for i, a := range s.FeasibleAnalyses() {
		if i == 0 || a.Score() > best {
			best = a.Score()
		}
	}
	return best
}

// LatestAnalysis returns the analysis with the latest date, or nil when the
// store is empty. On equal dates the one earlier in the list wins.
func (s *AnalysisStore) LatestAnalysis() *beautyapi.Analysis {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if len(s.analyses) == 0 {
		return nil
	}
	latest := &s.analyses[0]
	for i := 1; i < len(s.analyses); i++ {
		if s.analyses[i].Date().After(latest.Date()) {
			latest = &s.analyses[i]
		}
	}
	return clone(latest)
}

// Stats returns every aggregate at once.
func (s *AnalysisStore) Stats() AnalysisStats {
	return AnalysisStats{
		TotalAnalyses:     s.TotalAnalyses(),
		FeasibleAnalyses:  s.TotalFeasibleAnalyses(),
		AverageScore:      s.AverageScore(),
		BestScore:         s.BestScore(),
		LatestAnalysis:    s.LatestAnalysis(),
		ScoreDistribution: s.ScoreDistribution(),
	}
}
