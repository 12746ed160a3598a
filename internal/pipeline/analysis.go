package pipeline

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/ppiankov/foretell/internal/extract"
	"github.com/ppiankov/foretell/internal/model"
	"github.com/ppiankov/foretell/internal/score"
	"github.com/ppiankov/foretell/internal/validate"
)

// CompareForecasts matches forecasts made in forecastYear about
// targetYear with observed outcomes and scores each matched pair.
// Sectors with nothing to compare are left out.
func (d *Dashboard) CompareForecasts(ctx context.Context, forecastYear, targetYear int, sectors []string) []model.SectorComparison {
	return d.compare(ctx, forecastYear, targetYear, sectors, nil)
}

func (d *Dashboard) compare(ctx context.Context, forecastYear, targetYear int, sectors []string, t *trace) []model.SectorComparison {
	var out []model.SectorComparison
	for _, pattern := range d.sectorPatterns(sectors) {
		forecasts := d.forecastEntries(ctx, pattern, forecastYear, targetYear, t)
		if len(forecasts) == 0 {
			continue
		}
		actuals := d.actualEntries(ctx, pattern.Name, forecastYear, targetYear)

		pairs := d.matcher.Pairs(forecasts, actuals)
		if len(pairs) == 0 {
			d.logger.Debug("no matches", "sector", pattern.Name, "forecasts", len(forecasts), "actuals", len(actuals))
			continue
		}

		results := make([]model.ComparisonResult, 0, len(pairs))
		for _, p := range pairs {
			r := d.scorer.Compare(p.Forecast, p.Actual)
			r.Similarity = p.Similarity
			results = append(results, r)
		}
		out = append(out, model.SectorComparison{
			Sector:   pattern.Name,
			Results:  results,
			Accuracy: score.SectorAccuracy(results),
		})
	}
	return out
}

// forecastEntries combines recorded forecasts with values found by
// searching the sector's terms
func (d *Dashboard) forecastEntries(ctx context.Context, pattern model.SectorPattern, forecastYear, targetYear int, t *trace) []model.ForecastEntry {
	var entries []model.ForecastEntry
	for _, rec := range model.SampleHistorical() {
		if rec.ForecastYear != forecastYear || rec.TargetYear != targetYear || !strings.EqualFold(rec.Sector, pattern.Name) {
			continue
		}
		entries = append(entries, model.ForecastEntry{
			Metric:         rec.Metric,
			PredictedValue: rec.PredictedValue,
			Unit:           extract.UnitClassOf(rec.PredictedValue),
			Source:         rec.Source,
			Confidence:     "high",
			Year:           rec.TargetYear,
		})
	}

	query := fmt.Sprintf("%s %s %d forecast %d", d.country(), pattern.Name, forecastYear, targetYear)
	for _, r := range d.searchCached(ctx, query, t) {
		text := r.Text()
		metric := metricIn(text, pattern.SearchTerms)
		if metric == "" {
			continue
		}
		for _, c := range extract.Pairs(text) {
			if c.Year != targetYear {
				continue
			}
			entries = append(entries, model.ForecastEntry{
				Metric:         metric,
				PredictedValue: formatMillions(c.Value),
				Unit:           model.UnitQuantity,
				Source:         r.Domain,
				SourceTag:      d.session.Citations.Add(r.URL),
				Confidence:     validate.Confidence(d.authority.Classify(r.URL)),
				Year:           c.Year,
			})
		}
	}
	return entries
}

// actualEntries reads observed values from the World Bank first, then
// from the recorded outcomes. Matching keeps the first of equal
// candidates, so observations win ties.
func (d *Dashboard) actualEntries(ctx context.Context, sector string, forecastYear, targetYear int) []model.ActualEntry {
	var entries []model.ActualEntry
	for _, ind := range d.indicators() {
		if !strings.EqualFold(ind.Sector, sector) {
			continue
		}
		v, ok := d.worldBank.Indicator(ctx, ind.Code, targetYear)
		if !ok {
			continue
		}
		observed := formatObservation(ind.Code, v)
		entries = append(entries, model.ActualEntry{
			Metric:      ind.Metric,
			ActualValue: observed,
			Unit:        extract.UnitClassOf(observed),
			Source:      "World Bank",
			SourceTag:   d.session.Citations.Add(d.worldBank.SourceURL(ind.Code)),
		})
	}

	for _, rec := range model.SampleHistorical() {
		if rec.ForecastYear != forecastYear || rec.TargetYear != targetYear || !strings.EqualFold(rec.Sector, sector) {
			continue
		}
		entries = append(entries, model.ActualEntry{
			Metric:      rec.Metric,
			ActualValue: rec.ActualValue,
			Unit:        extract.UnitClassOf(rec.ActualValue),
			Source:      "Recorded outcome",
		})
	}
	return entries
}

// metricIn returns the first term mentioned in text, matched on word
// boundaries and case-insensitively
func metricIn(text string, terms []string) string {
	padded := " " + strings.Join(strings.FieldsFunc(strings.ToLower(text), notWordRune), " ") + " "
	for _, term := range terms {
		needle := " " + strings.Join(strings.FieldsFunc(strings.ToLower(term), notWordRune), " ") + " "
		if strings.TrimSpace(needle) != "" && strings.Contains(padded, needle) {
			return term
		}
	}
	return ""
}

func notWordRune(r rune) bool {
	return !(r >= 'a' && r <= 'z' || r >= '0' && r <= '9')
}

// formatMillions renders a canonical value so extract.Numeric reads it back
func formatMillions(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64) + " million"
}

// formatObservation renders a World Bank value. Percentage indicators
// keep their unit; large absolute values are expressed in millions.
func formatObservation(code string, v float64) string {
	switch {
	case strings.HasSuffix(code, ".ZG") || strings.HasSuffix(code, ".ZS"):
		return fmt.Sprintf("%.1f%%", v)
	case math.Abs(v) >= 1_000_000:
		return formatMillions(math.Round(v/1_000_000*100) / 100)
	default:
		return strconv.FormatFloat(v, 'f', 2, 64)
	}
}

// AnalyzeFuture estimates how likely each known target due by
// targetYear is to be met, grouped by sector, with related news cited
func (d *Dashboard) AnalyzeFuture(ctx context.Context, targetYear int, sectors []string) []model.SectorLikelihood {
	current := d.currentYear()
	horizon := targetYear - current
	if horizon < 0 {
		horizon = 0
	}

	var out []model.SectorLikelihood
	for _, pattern := range d.sectorPatterns(sectors) {
		var results []model.LikelihoodResult
		for _, rec := range model.CurrentTargets() {
			if rec.TargetYear > targetYear || !strings.EqualFold(rec.Sector, pattern.Name) {
				continue
			}
			years := rec.TargetYear - current
			if years < 0 {
				years = 0
			}
			results = append(results, d.estimator.Estimate(rec.Prediction, pattern.Name, years))
		}
		if len(results) == 0 {
			continue
		}

		out = append(out, model.SectorLikelihood{
			Sector:      pattern.Name,
			Predictions: results,
			Likelihood:  score.SectorLikelihood(results),
			Confidence:  score.SectorConfidence(results, horizon),
			Evidence:    d.newsEvidence(ctx, results),
		})
	}
	return out
}

// newsEvidence cites feed entries mentioning the predictions' metrics
func (d *Dashboard) newsEvidence(ctx context.Context, results []model.LikelihoodResult) []string {
	var evidence []string
	seen := make(map[string]bool)
	for _, r := range results {
		for _, item := range d.feeds.Search(ctx, r.Prediction.Metric) {
			if len(evidence) >= d.evidenceLimit() {
				return evidence
			}
			if item.Link == "" || seen[item.Link] {
				continue
			}
			seen[item.Link] = true
			evidence = append(evidence, d.session.Citations.Add(item.Link)+": "+item.Title)
		}
	}
	return evidence
}
