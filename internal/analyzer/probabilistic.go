// Package analyzer turns a metrics snapshot into a probability distribution
// over candidate root causes.
package analyzer

import (
	"math"
	"sort"

	"github.com/namansh70747/quantum-brain/internal/entanglement"
)

// MaxRecommendations caps the advice returned for one distribution.
const MaxRecommendations = 3

// recommendationFloor is the strict lower bound a cause must exceed before
// its advice is surfaced.
const recommendationFloor = 0.3

// Analyzer scores root causes with an ordered, additive rule table.
// It holds no mutable state and is safe for concurrent use.
type Analyzer struct {
	rules           []Rule
	recommendations map[string]string
}

// New builds an analyzer from a rule table and a cause→advice table.
func New(rules []Rule, recommendations map[string]string) *Analyzer {
	a := &Analyzer{
		rules:           append([]Rule(nil), rules...),
		recommendations: make(map[string]string, len(recommendations)),
	}
	for cause, msg := range recommendations {
		a.recommendations[cause] = msg
	}
	return a
}

// NewDefault builds an analyzer from the production tables.
func NewDefault() *Analyzer {
	return New(DefaultRules(), DefaultRecommendations())
}

// AnalyzeRootCause applies every rule to the snapshot, normalises the
// accumulated weights and returns them in descending probability order.
// An empty distribution means no rule fired.
func (a *Analyzer) AnalyzeRootCause(snapshot entanglement.Snapshot) Distribution {
	weights := make(map[string]float64)
	var order []string

	for _, rule := range a.rules {
		value, ok := snapshot[rule.Metric]
		if !ok {
			value = rule.Default
		}
		for _, band := range rule.Bands {
			if !band.matches(value) {
				continue
			}
			for _, w := range band.Weights {
				if _, seen := weights[w.Cause]; !seen {
					order = append(order, w.Cause)
				}
				weights[w.Cause] += w.Amount
			}
			break
		}
	}

	dist := Distribution{}
	if len(order) == 0 {
		return dist
	}

	var total float64
	for _, cause := range order {
		total += weights[cause]
	}
	if total <= 0 {
		return dist
	}

	for _, cause := range order {
		dist = append(dist, CauseProbability{
			Cause:       cause,
			Probability: round3(weights[cause] / total),
		})
	}
	sort.SliceStable(dist, func(i, j int) bool {
		return dist[i].Probability > dist[j].Probability
	})
	return dist
}

// Recommendations returns advice for up to MaxRecommendations causes whose
// probability exceeds 0.3, in distribution order. Causes without advice are
// skipped without consuming a slot.
func (a *Analyzer) Recommendations(dist Distribution) []string {
	out := []string{}
	for _, cp := range dist {
		if len(out) == MaxRecommendations {
			break
		}
		if cp.Probability <= recommendationFloor {
			continue
		}
		if msg, ok := a.recommendations[cp.Cause]; ok {
			out = append(out, msg)
		}
	}
	return out
}

// SuperpositionConfidence is one minus the normalised Shannon entropy of the
// distribution, rounded to three decimals. A single-cause distribution is
// fully confident; an empty one has zero confidence.
func SuperpositionConfidence(dist Distribution) float64 {
	switch len(dist) {
	case 0:
		return 0
	case 1:
		return 1
	}

	var entropy float64
	for _, cp := range dist {
		if cp.Probability > 0 {
			entropy -= cp.Probability * math.Log2(cp.Probability)
		}
	}
	maxEntropy := math.Log2(float64(len(dist)))
	return round3(1 - entropy/maxEntropy)
}

// round3 rounds half away from zero.
func round3(v float64) float64 {
	return math.Round(v*1000) / 1000
}
