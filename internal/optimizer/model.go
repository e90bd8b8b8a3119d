// Package optimizer ranks the remediation actions catalogued for a confirmed
// root cause by a cost/benefit utility score.
package optimizer

import (
	"math"
	"sort"

	"go.uber.org/zap"
)

// Reversibility describes how easily an action can be undone.
type Reversibility string

const (
	ReversibilityHigh   Reversibility = "high"
	ReversibilityMedium Reversibility = "medium"
	ReversibilityLow    Reversibility = "low"
)

var reversibilityFactors = map[Reversibility]float64{
	ReversibilityHigh:   1.0,
	ReversibilityMedium: 0.7,
	ReversibilityLow:    0.4,
}

const (
	defaultReversibilityFactor = 0.5
	timeHorizonMinutes         = 60.0
	dependencyPenalty          = 0.1
	dependencyFloor            = 0.5
)

// RemediationRef names the dispatcher function backing a candidate.
type RemediationRef struct {
	Function   string         `json:"function"`
	Parameters map[string]any `json:"parameters"`
}

// Candidate is one catalogued remediation action.
type Candidate struct {
	Action             string         `json:"action"`
	Description        string         `json:"description"`
	Cost               float64        `json:"cost"`
	PerformanceGain    float64        `json:"performance_gain"`
	Risk               float64        `json:"risk"`
	ImplementationTime float64        `json:"implementation_time"` // minutes
	Reversibility      Reversibility  `json:"reversibility"`
	Dependencies       []string       `json:"dependencies"`
	Remediation        RemediationRef `json:"remediation_details"`
}

// ScoredCandidate is a candidate with its computed utility.
type ScoredCandidate struct {
	Candidate
	UtilityScore float64 `json:"utility_score"`
}

// ScoreRange summarises the utilities of every candidate considered.
type ScoreRange struct {
	Highest float64 `json:"highest"`
	Lowest  float64 `json:"lowest"`
	Average float64 `json:"average"`
}

// Alternative is a runner-up in the ranking.
type Alternative struct {
	Action          string  `json:"action"`
	UtilityScore    float64 `json:"utility_score"`
	PerformanceGain float64 `json:"performance_gain"`
	Cost            float64 `json:"cost"`
}

// Analysis explains how the optimal candidate was chosen.
type Analysis struct {
	TotalOptionsAnalyzed   int           `json:"total_options_analyzed"`
	UtilityScoreRange      ScoreRange    `json:"utility_score_range"`
	AlternativesConsidered []Alternative `json:"alternatives_considered"`
}

// Solution is the top-ranked candidate plus its analysis block.
type Solution struct {
	ScoredCandidate
	Analysis Analysis `json:"analysis"`
}

// UtilityScore rates a candidate. Negative scores are valid.
func UtilityScore(c Candidate) float64 {
	base := c.PerformanceGain - c.Cost - c.Risk
	timeFactor := math.Max(0, 1-c.ImplementationTime/timeHorizonMinutes)

	reversibility, ok := reversibilityFactors[c.Reversibility]
	if !ok {
		reversibility = defaultReversibilityFactor
	}

	dependency := math.Max(dependencyFloor, 1-float64(len(c.Dependencies))*dependencyPenalty)

	return math.Round(base*timeFactor*reversibility*dependency*100) / 100
}

// Model scores a read-only catalogue and is safe for concurrent use.
type Model struct {
	catalogue map[string][]Candidate
	log       *zap.Logger
}

// NewModel copies the catalogue.
func NewModel(catalogue map[string][]Candidate, log *zap.Logger) *Model {
	if log == nil {
		log = zap.NewNop()
	}
	copied := make(map[string][]Candidate, len(catalogue))
	for cause, candidates := range catalogue {
		copied[cause] = append([]Candidate(nil), candidates...)
	}
	return &Model{catalogue: copied, log: log}
}

// Causes lists the causes that have catalogued actions, sorted by name.
func (m *Model) Causes() []string {
	causes := make([]string, 0, len(m.catalogue))
	for cause, candidates := range m.catalogue {
		if len(candidates) > 0 {
			causes = append(causes, cause)
		}
	}
	sort.Strings(causes)
	return causes
}

// Candidate looks up a catalogued action by id.
func (m *Model) Candidate(action string) (Candidate, bool) {
	for _, candidates := range m.catalogue {
		for _, c := range candidates {
			if c.Action == action {
				return c, true
			}
		}
	}
	return Candidate{}, false
}

func (m *Model) rank(cause string) []ScoredCandidate {
	candidates := m.catalogue[cause]
	scored := make([]ScoredCandidate, 0, len(candidates))
	for _, c := range candidates {
		scored = append(scored, ScoredCandidate{Candidate: c, UtilityScore: UtilityScore(c)})
	}
	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].UtilityScore > scored[j].UtilityScore
	})
	return scored
}

// FindOptimalSolution returns the best-scoring action for cause, or nil when
// the cause has no catalogued actions.
func (m *Model) FindOptimalSolution(cause string) *Solution {
	if cause == "" || len(m.catalogue[cause]) == 0 {
		m.log.Warn("No remediation catalogued for cause", zap.String("cause", cause))
		return nil
	}

	scored := m.rank(cause)
	m.log.Info("Scoring remediation options",
		zap.String("cause", cause),
		zap.Int("options", len(scored)),
	)

	var total float64
	for _, s := range scored {
		total += s.UtilityScore
	}

	alternatives := []Alternative{}
	for _, s := range scored[1:min(3, len(scored))] {
		alternatives = append(alternatives, Alternative{
			Action:          s.Action,
			UtilityScore:    s.UtilityScore,
			PerformanceGain: s.PerformanceGain,
			Cost:            s.Cost,
		})
	}

	solution := &Solution{
		ScoredCandidate: scored[0],
		Analysis: Analysis{
			TotalOptionsAnalyzed: len(scored),
			UtilityScoreRange: ScoreRange{
				Highest: scored[0].UtilityScore,
				Lowest:  scored[len(scored)-1].UtilityScore,
				Average: total / float64(len(scored)),
			},
			AlternativesConsidered: alternatives,
		},
	}

	m.log.Info("Optimal solution selected",
		zap.String("action", solution.Action),
		zap.Float64("utility_score", solution.UtilityScore),
	)
	return solution
}

// SolutionAlternatives returns up to limit candidates for cause in ranking
// order. Unknown causes and non-positive limits yield an empty slice.
func (m *Model) SolutionAlternatives(cause string, limit int) []ScoredCandidate {
	scored := m.rank(cause)
	if limit <= 0 {
		return []ScoredCandidate{}
	}
	if limit < len(scored) {
		scored = scored[:limit]
	}
	return scored
}
