package score

import (
	"fmt"
	"math"

	"github.com/ppiankov/foretell/internal/extract"
	"github.com/ppiankov/foretell/internal/model"
)

// DefaultTolerance is the relative difference still counted as on time
const DefaultTolerance = 0.15

// DefaultPolarityBand is the polarity gap still counted as on time
const DefaultPolarityBand = 0.2

// Scorer compares a forecast with its actual outcome and records the
// inputs behind each flag
type Scorer struct {
	tolerance    float64
	polarityBand float64
	polarity     *Polarity
}

// NewScorer creates a scorer. Non-positive arguments use the defaults.
func NewScorer(tolerance, polarityBand float64) *Scorer {
	if tolerance <= 0 {
		tolerance = DefaultTolerance
	}
	if polarityBand <= 0 {
		polarityBand = DefaultPolarityBand
	}
	return &Scorer{
		tolerance:    tolerance,
		polarityBand: polarityBand,
		polarity:     NewPolarity(),
	}
}

// Compare scores one forecast against one actual. Numeric values are
// compared by relative difference; when either side has no number, or
// the two sides are in different unit classes, the texts are compared by
// polarity instead, which is a weaker signal.
func (s *Scorer) Compare(f model.ForecastEntry, a model.ActualEntry) model.ComparisonResult {
	result := model.ComparisonResult{
		Metric:         f.Metric,
		PredictedValue: f.PredictedValue,
		ActualValue:    a.ActualValue,
		Source:         f.Source,
		Status:         model.StatusUnknown,
	}

	predicted, okP := extract.Numeric(f.PredictedValue)
	actual, okA := extract.Numeric(a.ActualValue)
	if okP && okA && f.Unit.Comparable(a.Unit) {
		s.compareNumeric(&result, predicted, actual)
		return result
	}

	s.compareQualitative(&result, f.PredictedValue, a.ActualValue)
	return result
}

// RelativeDifference returns |actual-predicted| / |predicted|. A zero
// prediction yields 1 unless the actual is also zero.
func RelativeDifference(predicted, actual float64) float64 {
	if predicted == 0 {
		if actual == 0 {
			return 0
		}
		return 1
	}
	return math.Abs(actual-predicted) / math.Abs(predicted)
}

func (s *Scorer) compareNumeric(result *model.ComparisonResult, predicted, actual float64) {
	d := RelativeDifference(predicted, actual)

	result.Method = model.MethodNumeric
	result.AccuracyScore = math.Max(0, 1-d)

	severity := model.SeverityInfo
	switch {
	case d <= s.tolerance:
		result.Status = model.StatusOnTime
		result.Analysis = fmt.Sprintf("Prediction was accurate within %.0f%% tolerance", s.tolerance*100)
	case actual > predicted:
		result.Status = model.StatusEarly
		result.Analysis = fmt.Sprintf("Actual outcome exceeded prediction by %.1f%%", d*100)
	default:
		result.Status = model.StatusLate
		result.Analysis = fmt.Sprintf("Actual outcome fell short of prediction by %.1f%%", d*100)
		severity = model.SeverityWarning
	}

	result.Signal = model.Signal{
		Type:        model.SignalRelativeDifference,
		Severity:    severity,
		Description: fmt.Sprintf("Relative difference: %.2f", d),
		Data: map[string]interface{}{
			"predicted": predicted,
			"actual":    actual,
			"d":         d,
			"tolerance": s.tolerance,
			"accuracy":  result.AccuracyScore,
			"formula":   "d = |actual - predicted| / |predicted|; accuracy = max(0, 1 - d)",
		},
	}
}

func (s *Scorer) compareQualitative(result *model.ComparisonResult, predicted, actual string) {
	result.Method = model.MethodQualitative
	result.Analysis = "Comparison based on qualitative assessment"

	if predicted == "" || actual == "" {
		result.Status = model.StatusUnknown
		result.Signal = model.Signal{
			Type:        model.SignalPolarity,
			Severity:    model.SeverityWarning,
			Description: "Missing predicted or actual text",
		}
		return
	}

	pp := s.polarity.Score(predicted)
	ap := s.polarity.Score(actual)
	gap := ap - pp

	switch {
	case math.Abs(gap) < s.polarityBand:
		result.Status = model.StatusOnTime
	case gap > 0:
		result.Status = model.StatusEarly
	default:
		result.Status = model.StatusLate
	}

	result.Signal = model.Signal{
		Type:        model.SignalPolarity,
		Severity:    model.SeverityWarning,
		Description: fmt.Sprintf("Polarity gap: %.2f (low confidence)", gap),
		Data: map[string]interface{}{
			"predicted_polarity": pp,
			"actual_polarity":    ap,
			"band":               s.polarityBand,
			"formula":            "|actual_polarity - predicted_polarity| < band => ON-TIME",
		},
	}
}

// SectorAccuracy is the mean accuracy score of a sector's comparisons,
// or 0 when there are none
func SectorAccuracy(results []model.ComparisonResult) float64 {
	if len(results) == 0 {
		return 0
	}
	total := 0.0
	for _, r := range results {
		total += r.AccuracyScore
	}
	return total / float64(len(results))
}

// AccuracyStats counts retrospective flags across sectors
func AccuracyStats(sectors []model.SectorComparison) map[model.StatusFlag]int {
	stats := map[model.StatusFlag]int{
		model.StatusEarly:   0,
		model.StatusOnTime:  0,
		model.StatusLate:    0,
		model.StatusUnknown: 0,
	}
	for _, sc := range sectors {
		for _, r := range sc.Results {
			if _, ok := stats[r.Status]; ok {
				stats[r.Status]++
			} else {
				stats[model.StatusUnknown]++
			}
		}
	}
	return stats
}
