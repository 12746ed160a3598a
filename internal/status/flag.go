// Package status classifies the timing of a target against its year.
package status

import (
	"time"

	"github.com/ppiankov/foretell/internal/model"
)

// DefaultBand is the percentage-point band around expected progress
// that still counts as on time
const DefaultBand = 10.0

// nowYear is the clock used when no current year is supplied
var nowYear = func() int { return time.Now().Year() }

type evaluation struct {
	current     int
	hasCurrent  bool
	progress    float64
	hasProgress bool
	achieved    int
	hasAchieved bool
	baseline    int
	hasBaseline bool
	band        float64
}

// Option supplies evidence to Flag
type Option func(*evaluation)

// AsOf sets the year the evaluation is made in
func AsOf(year int) Option {
	return func(e *evaluation) {
		e.current = year
		e.hasCurrent = true
	}
}

// Progress sets the reported completion percentage
func Progress(pct float64) Option {
	return func(e *evaluation) {
		e.progress = pct
		e.hasProgress = true
	}
}

// Achieved sets the year the target was actually met
func Achieved(year int) Option {
	return func(e *evaluation) {
		e.achieved = year
		e.hasAchieved = true
	}
}

// Since sets the year the target was announced, used as the start of
// the timeframe when computing expected progress
func Since(year int) Option {
	return func(e *evaluation) {
		e.baseline = year
		e.hasBaseline = true
	}
}

// Band overrides the on-time band in percentage points
func Band(points float64) Option {
	return func(e *evaluation) {
		if points > 0 {
			e.band = points
		}
	}
}

// Flag classifies a target. With Achieved it is retrospective and
// returns EARLY, ON-TIME or LATE. Otherwise it is prospective: a target
// year that has already passed is LATE, and a pending one is LIKELY
// EARLY, ON-TIME or LATE-RISK depending on progress. Flag never fails.
func Flag(targetYear int, opts ...Option) model.StatusFlag {
	e := evaluation{band: DefaultBand}
	for _, opt := range opts {
		opt(&e)
	}

	if e.hasAchieved {
		switch {
		case e.achieved < targetYear:
			return model.StatusEarly
		case e.achieved == targetYear:
			return model.StatusOnTime
		default:
			return model.StatusLate
		}
	}

	if !e.hasCurrent {
		e.current = nowYear()
	}

	yearsLeft := targetYear - e.current
	if yearsLeft <= 0 {
		return model.StatusLate
	}

	if e.hasProgress {
		expected := ExpectedProgress(targetYear, e.current, e.baselineOr(e.current-yearsLeft))
		switch {
		case e.progress >= expected+e.band:
			return model.StatusLikelyEarly
		case e.progress-expected <= e.band && expected-e.progress <= e.band:
			return model.StatusOnTime
		default:
			return model.StatusLateRisk
		}
	}

	if yearsLeft <= 2 {
		return model.StatusOnTime
	}
	return model.StatusLateRisk
}

func (e evaluation) baselineOr(fallback int) int {
	if e.hasBaseline {
		return e.baseline
	}
	return fallback
}

// ExpectedProgress is the share of the timeframe [baseline, target]
// elapsed by current, as a percentage clamped to [0, 100]
func ExpectedProgress(targetYear, currentYear, baselineYear int) float64 {
	total := targetYear - baselineYear
	if total <= 0 {
		return 100
	}
	elapsed := currentYear - baselineYear
	pct := float64(elapsed) / float64(total) * 100
	if pct < 0 {
		return 0
	}
	if pct > 100 {
		return 100
	}
	return pct
}
