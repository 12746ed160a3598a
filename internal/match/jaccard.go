// Package match pairs forecast metrics with actual-outcome metrics by name.
package match

import (
	"strings"

	"github.com/ppiankov/foretell/internal/model"
)

// DefaultThreshold is the similarity a pairing must exceed to be accepted
const DefaultThreshold = 0.5

// Jaccard returns |A∩B| / |A∪B| over the lower-cased whitespace tokens
// of a and b. Either side empty yields 0.
func Jaccard(a, b string) float64 {
	setA := tokenSet(a)
	setB := tokenSet(b)
	if len(setA) == 0 || len(setB) == 0 {
		return 0
	}

	intersection := 0
	for tok := range setA {
		if setB[tok] {
			intersection++
		}
	}
	union := len(setA) + len(setB) - intersection
	return float64(intersection) / float64(union)
}

func tokenSet(s string) map[string]bool {
	set := make(map[string]bool)
	for _, tok := range strings.Fields(strings.ToLower(s)) {
		set[tok] = true
	}
	return set
}

// Pair is an accepted forecast/actual pairing
type Pair struct {
	Forecast   model.ForecastEntry
	Actual     model.ActualEntry
	Similarity float64
}

// Matcher pairs forecasts with their best-scoring actual
type Matcher struct {
	threshold float64
}

// NewMatcher creates a matcher. A non-positive threshold uses DefaultThreshold.
func NewMatcher(threshold float64) *Matcher {
	if threshold <= 0 {
		threshold = DefaultThreshold
	}
	return &Matcher{threshold: threshold}
}

// Similar returns the similarity of two metric names and whether it
// exceeds the threshold
func (m *Matcher) Similar(a, b string) (float64, bool) {
	score := Jaccard(a, b)
	return score, score > m.threshold
}

// Pairs returns at most one pairing per forecast. The candidate with the
// strictly highest similarity is chosen, so ties keep the first-seen
// actual. Actuals in a unit class the forecast cannot be compared with
// are never candidates. Forecasts whose best score does not exceed the
// threshold are dropped.
func (m *Matcher) Pairs(forecasts []model.ForecastEntry, actuals []model.ActualEntry) []Pair {
	var pairs []Pair
	for _, f := range forecasts {
		best := -1
		bestScore := 0.0
		for i, a := range actuals {
			if !f.Unit.Comparable(a.Unit) {
				continue
			}
			score := Jaccard(f.Metric, a.Metric)
			if score > bestScore {
				best = i
				bestScore = score
			}
		}
		if best < 0 || bestScore <= m.threshold {
			continue
		}
		pairs = append(pairs, Pair{
			Forecast:   f,
			Actual:     actuals[best],
			Similarity: bestScore,
		})
	}
	return pairs
}
