package score

import (
	"fmt"
	"math"
	"regexp"
	"strings"

	"github.com/ppiankov/foretell/internal/extract"
	"github.com/ppiankov/foretell/internal/model"
)

// DefaultAccuracyWeight is assumed for sectors missing from the table
const DefaultAccuracyWeight = 0.6

const likelihoodThreshold = 0.15

const sectorThreshold = 0.3

// LikelihoodEstimator judges whether announced targets are on track.
// Sector patterns are injected and never modified.
type LikelihoodEstimator struct {
	sectors       []model.SectorPattern
	defaultWeight float64
	keywords      map[string]*regexp.Regexp
}

// NewLikelihoodEstimator creates an estimator over the given sector table.
// A non-positive defaultWeight uses DefaultAccuracyWeight.
func NewLikelihoodEstimator(sectors []model.SectorPattern, defaultWeight float64) *LikelihoodEstimator {
	if defaultWeight <= 0 {
		defaultWeight = DefaultAccuracyWeight
	}
	e := &LikelihoodEstimator{
		sectors:       sectors,
		defaultWeight: defaultWeight,
		keywords:      make(map[string]*regexp.Regexp),
	}
	for _, s := range sectors {
		for _, kw := range append(append([]string{}, s.EarlyIndicators...), s.LateIndicators...) {
			key := strings.ToLower(kw)
			if _, ok := e.keywords[key]; !ok {
				e.keywords[key] = regexp.MustCompile(`(?i)\b` + regexp.QuoteMeta(kw) + `\b`)
			}
		}
	}
	return e
}

func (e *LikelihoodEstimator) pattern(sector string) (model.SectorPattern, float64) {
	p, ok := model.FindSector(e.sectors, sector)
	if !ok {
		return model.SectorPattern{Name: sector}, e.defaultWeight
	}
	w := p.AccuracyWeight
	if w <= 0 {
		w = e.defaultWeight
	}
	return p, w
}

func (e *LikelihoodEstimator) hits(text string, indicators []string) []string {
	var found []string
	for _, kw := range indicators {
		re, ok := e.keywords[strings.ToLower(kw)]
		if !ok {
			continue
		}
		if re.MatchString(text) {
			found = append(found, kw)
		}
	}
	return found
}

// ProgressRatio is current/target capped at 1. It is absent when either
// value has no number or the target is zero.
func ProgressRatio(current, target string) (float64, bool) {
	c, ok := extract.Numeric(current)
	if !ok {
		return 0, false
	}
	t, ok := extract.Numeric(target)
	if !ok || t == 0 {
		return 0, false
	}
	return math.Min(1, c/t), true
}

// Estimate scores one prediction for a sector with horizon years left
func (e *LikelihoodEstimator) Estimate(p model.Prediction, sector string, horizon int) model.LikelihoodResult {
	pattern, weight := e.pattern(sector)
	result := model.LikelihoodResult{
		Prediction:      p,
		Likelihood:      model.StatusOnTime,
		RiskFactors:     []string{},
		PositiveFactors: []string{},
	}

	text := strings.Join([]string{p.TargetValue, p.CurrentProgress, p.Metric}, " ")

	early := e.hits(text, pattern.EarlyIndicators)
	for _, kw := range early {
		result.PositiveFactors = append(result.PositiveFactors, "Contains early indicator: "+kw)
	}
	late := e.hits(text, pattern.LateIndicators)
	for _, kw := range late {
		result.RiskFactors = append(result.RiskFactors, "Contains late indicator: "+kw)
	}

	progressTerm := 0.0
	if ratio, ok := ProgressRatio(p.CurrentProgress, p.TargetValue); ok {
		result.ProgressRatio = &ratio
		switch {
		case ratio >= 0.8:
			progressTerm = 0.3
			result.PositiveFactors = append(result.PositiveFactors, fmt.Sprintf("High progress ratio: %.1f%%", ratio*100))
		case ratio >= 0.5:
			progressTerm = 0.1
			result.PositiveFactors = append(result.PositiveFactors, fmt.Sprintf("Moderate progress: %.1f%%", ratio*100))
		default:
			progressTerm = -0.2
			result.RiskFactors = append(result.RiskFactors, fmt.Sprintf("Low progress ratio: %.1f%%", ratio*100))
		}
	}

	indicatorTerm := float64(len(early)-len(late)) * 0.1
	horizonTerm := horizonFactor(horizon)
	historyTerm := (weight - 0.5) * 0.2
	s := progressTerm + indicatorTerm + horizonTerm + historyTerm

	switch {
	case s > likelihoodThreshold:
		result.Likelihood = model.StatusLikelyEarly
		result.Confidence = math.Min(0.9, 0.6+s)
	case s < -likelihoodThreshold:
		result.Likelihood = model.StatusLateRisk
		result.Confidence = math.Min(0.9, 0.6+math.Abs(s))
	default:
		result.Likelihood = model.StatusOnTime
		result.Confidence = 0.6 + math.Abs(s)*0.5
	}

	result.Reasoning = reasoning(pattern.Name, weight, horizon, len(result.RiskFactors), len(result.PositiveFactors))

	severity := model.SeverityInfo
	if result.Likelihood == model.StatusLateRisk {
		severity = model.SeverityWarning
	}
	result.Signal = model.Signal{
		Type:        model.SignalLikelihood,
		Severity:    severity,
		Description: fmt.Sprintf("Likelihood score: %.2f", s),
		Data: map[string]interface{}{
			"progress_term":  progressTerm,
			"indicator_term": indicatorTerm,
			"horizon_term":   horizonTerm,
			"history_term":   historyTerm,
			"early_hits":     len(early),
			"late_hits":      len(late),
			"horizon":        horizon,
			"accuracy":       weight,
			"score":          s,
			"formula":        "s = progress + (early - late) * 0.1 + horizon + (weight - 0.5) * 0.2; |s| > 0.15 decides",
		},
	}
	return result
}

func horizonFactor(horizon int) float64 {
	switch {
	case horizon <= 5:
		return 0.2
	case horizon <= 10:
		return 0
	default:
		return -0.2
	}
}

func reasoning(sector string, weight float64, horizon, risks, positives int) string {
	var parts []string
	switch {
	case horizon <= 5:
		parts = append(parts, "Short-term target allows for focused implementation")
	case horizon > 10:
		parts = append(parts, "Long-term horizon increases uncertainty")
	}
	switch {
	case weight > 0.7:
		parts = append(parts, sector+" sector has historically high accuracy")
	case weight < 0.6:
		parts = append(parts, sector+" sector has historically faced implementation challenges")
	}
	if risks > 0 {
		parts = append(parts, fmt.Sprintf("Risk factors: %d identified", risks))
	}
	if positives > 0 {
		parts = append(parts, fmt.Sprintf("Positive factors: %d identified", positives))
	}
	if len(parts) == 0 {
		return "Standard assessment based on historical patterns"
	}
	return strings.Join(parts, ". ")
}

// SectorLikelihood averages the per-prediction flags on a {+1, 0, -1}
// scale and re-thresholds at 0.3. An empty sector is ON-TIME.
func SectorLikelihood(results []model.LikelihoodResult) model.StatusFlag {
	if len(results) == 0 {
		return model.StatusOnTime
	}
	total := 0.0
	for _, r := range results {
		total += r.Likelihood.Weight()
	}
	avg := total / float64(len(results))
	switch {
	case avg > sectorThreshold:
		return model.StatusLikelyEarly
	case avg < -sectorThreshold:
		return model.StatusLateRisk
	default:
		return model.StatusOnTime
	}
}

// SectorConfidence blends mean confidence with small bonuses for more
// predictions and shorter horizons, capped at 1
func SectorConfidence(results []model.LikelihoodResult, horizon int) float64 {
	if len(results) == 0 {
		return 0
	}
	total := 0.0
	for _, r := range results {
		total += r.Confidence
	}
	avg := total / float64(len(results))
	count := math.Min(1, float64(len(results))/5) * 0.1
	timing := math.Max(0, 1-float64(horizon)/20) * 0.1
	return math.Min(1, avg+count+timing)
}

// LikelihoodStats counts prospective flags across sectors
func LikelihoodStats(sectors []model.SectorLikelihood) map[model.StatusFlag]int {
	stats := map[model.StatusFlag]int{
		model.StatusLikelyEarly: 0,
		model.StatusOnTime:      0,
		model.StatusLateRisk:    0,
	}
	for _, sl := range sectors {
		for _, r := range sl.Predictions {
			stats[r.Likelihood]++
		}
	}
	return stats
}
