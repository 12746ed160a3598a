package pipeline

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ppiankov/foretell/internal/model"
	"github.com/ppiankov/foretell/internal/score"
)

// ErrUnrecognized is returned when a question cannot be mapped to an analysis
var ErrUnrecognized = errors.New("could not understand the question")

// defaultLookback is how far before the target a forecast is assumed to
// have been made when the question names only one year
const defaultLookback = 25

// defaultSpan is the year range used by series questions without years
const defaultSpan = 10

var questionYearPattern = regexp.MustCompile(`\b(?:19|20)\d{2}\b`)

var (
	forecastWords = []string{"prediction", "predictions", "forecast", "forecasts", "made", "predicted", "projection", "projected"}
	outcomeWords  = []string{"happened", "actual", "actuals", "actually", "reality", "outcome", "outcomes", "achieved"}
	outlookWords  = []string{"outlook", "likely", "likelihood", "track", "chance", "chances"}
	flowWords     = []string{"money", "investment", "investments", "fdi", "flow", "flows", "funding", "capex", "spending"}
	trendWords    = []string{"trend", "trends", "series", "history"}

	fillerWords = map[string]bool{
		"what": true, "did": true, "does": true, "do": true, "was": true, "were": true, "is": true,
		"are": true, "the": true, "a": true, "an": true, "of": true, "in": true, "for": true,
		"by": true, "to": true, "and": true, "from": true, "about": true, "on": true, "will": true,
		"how": true, "into": true, "india": true, "india's": true, "between": true, "show": true, "me": true,
	}
)

// Query is a parsed request for one analysis
type Query struct {
	Kind         model.QueryKind
	Question     string
	ForecastYear int
	TargetYear   int
	Sectors      []string
	Sources      []string

	// Topic is the target description, money-flow topic or indicator
	Topic string
}

// ParseQuery maps a free-form question onto an analysis by keyword and
// year matching. Years up to currentYear are treated as past.
func ParseQuery(question string, sectors []model.SectorPattern, currentYear int) Query {
	q := Query{Kind: model.KindUnknown, Question: strings.TrimSpace(question)}
	lower := strings.ToLower(q.Question)
	words := wordSet(lower)

	var years []int
	for _, raw := range questionYearPattern.FindAllString(q.Question, -1) {
		if y, err := strconv.Atoi(raw); err == nil {
			years = append(years, y)
		}
	}
	switch {
	case len(years) >= 2:
		q.ForecastYear, q.TargetYear = years[0], years[1]
	case len(years) == 1:
		q.TargetYear = years[0]
	}
	if q.TargetYear != 0 {
		if q.TargetYear <= currentYear {
			q.Kind = model.KindPastForecast
		} else {
			q.Kind = model.KindFuture
		}
	}

	switch {
	case containsAny(words, flowWords):
		q.Kind = model.KindMoneyFlow
	case containsAny(words, trendWords):
		q.Kind = model.KindTrend
	case containsAny(words, forecastWords) && containsAny(words, outcomeWords):
		if q.ForecastYear != 0 {
			q.Kind = model.KindComparison
		} else {
			q.Kind = model.KindPastForecast
		}
	case containsAny(words, outlookWords) && q.TargetYear > currentYear:
		q.Kind = model.KindOutlook
	case containsAny(words, forecastWords) && q.Kind == model.KindUnknown:
		q.Kind = model.KindFuture
	}

	padded := " " + strings.Join(strings.FieldsFunc(lower, notWordRune), " ") + " "
	for _, s := range sectors {
		for _, kw := range s.QueryKeywords {
			if strings.Contains(padded, " "+strings.ToLower(kw)+" ") {
				q.Sectors = append(q.Sectors, s.Name)
				break
			}
		}
	}
	for _, s := range model.SourceKeywords {
		for _, kw := range s.Keywords {
			if strings.Contains(padded, " "+kw+" ") {
				q.Sources = append(q.Sources, s.Source)
				break
			}
		}
	}

	q.Topic = topic(q.Question)
	return q
}

func wordSet(lower string) map[string]bool {
	set := make(map[string]bool)
	for _, w := range strings.FieldsFunc(lower, notWordRune) {
		set[w] = true
	}
	return set
}

func containsAny(words map[string]bool, candidates []string) bool {
	for _, c := range candidates {
		if words[c] {
			return true
		}
	}
	return false
}

// topic strips years, filler and punctuation from a question
func topic(question string) string {
	var kept []string
	for _, w := range strings.Fields(questionYearPattern.ReplaceAllString(question, " ")) {
		w = strings.Trim(w, "?.,!;:\"'")
		if w == "" || fillerWords[strings.ToLower(w)] {
			continue
		}
		kept = append(kept, w)
	}
	return strings.Join(kept, " ")
}

// Ask parses a question and runs the matching analysis
func (d *Dashboard) Ask(ctx context.Context, question string) (*model.Report, error) {
	q := ParseQuery(question, d.config.Sectors, d.currentYear())
	d.logger.Debug("parsed question", "kind", q.Kind, "forecast_year", q.ForecastYear,
		"target_year", q.TargetYear, "sectors", q.Sectors, "topic", q.Topic)
	return d.Run(ctx, q)
}

// Run executes a query and returns the finished report. Empty results
// for analyses that produce a table or series return ErrNoData.
func (d *Dashboard) Run(ctx context.Context, q Query) (*model.Report, error) {
	current := d.currentYear()
	report := &model.Report{
		ID:           uuid.NewString(),
		Kind:         q.Kind,
		Question:     q.Question,
		GeneratedAt:  d.now().UTC(),
		ForecastYear: q.ForecastYear,
		TargetYear:   q.TargetYear,
		Sectors:      q.Sectors,
	}
	t := &trace{}

	switch q.Kind {
	case model.KindPastForecast:
		if q.TargetYear == 0 {
			return nil, fmt.Errorf("%w: a target year is required", ErrUnrecognized)
		}
		if q.ForecastYear == 0 {
			report.ForecastYear = q.TargetYear - defaultLookback
		}
		report.PastForecasts = d.investigate(ctx, report.ForecastYear, q.TargetYear, t)
		if len(report.PastForecasts) == 0 {
			return nil, fmt.Errorf("%w: no forecasts made in %d about %d", ErrNoData, report.ForecastYear, q.TargetYear)
		}
		report.Stats = make(map[model.StatusFlag]int)
		for _, pf := range report.PastForecasts {
			report.Stats[pf.Status]++
		}

	case model.KindFuture:
		if q.TargetYear == 0 {
			return nil, fmt.Errorf("%w: a target year is required", ErrUnrecognized)
		}
		future := d.evaluate(ctx, q.Topic, q.TargetYear, t)
		report.Future = &future

	case model.KindComparison:
		if q.TargetYear == 0 {
			return nil, fmt.Errorf("%w: a target year is required", ErrUnrecognized)
		}
		if q.ForecastYear == 0 {
			report.ForecastYear = q.TargetYear - defaultLookback
		}
		report.Comparisons = d.compare(ctx, report.ForecastYear, q.TargetYear, q.Sectors, t)
		if len(report.Comparisons) == 0 {
			return nil, fmt.Errorf("%w: no comparable forecasts for %d", ErrNoData, q.TargetYear)
		}
		report.Stats = score.AccuracyStats(report.Comparisons)

	case model.KindOutlook:
		if q.TargetYear == 0 {
			return nil, fmt.Errorf("%w: a target year is required", ErrUnrecognized)
		}
		report.Outlook = d.AnalyzeFuture(ctx, q.TargetYear, q.Sectors)
		if len(report.Outlook) == 0 {
			return nil, fmt.Errorf("%w: no targets due by %d", ErrNoData, q.TargetYear)
		}
		report.Stats = score.LikelihoodStats(report.Outlook)

	case model.KindMoneyFlow, model.KindTrend:
		start, end := q.ForecastYear, q.TargetYear
		if end == 0 {
			end = current
		}
		if start == 0 {
			start = end - defaultSpan
		}
		report.ForecastYear, report.TargetYear = start, end

		var err error
		if q.Kind == model.KindMoneyFlow {
			report.Series, err = d.moneyFlow(ctx, q.Topic, start, end, t)
		} else {
			report.Series, err = d.Trend(ctx, d.trendIndicator(q), start, end)
		}
		if err != nil {
			return nil, err
		}

	default:
		return nil, fmt.Errorf("%w: %q", ErrUnrecognized, q.Question)
	}

	d.finish(ctx, report, t)
	return report, nil
}

// trendIndicator picks the indicator named by the topic, else the first
// indicator of the first sector asked about, else GDP growth
func (d *Dashboard) trendIndicator(q Query) string {
	indicators := d.indicators()
	lower := strings.ToLower(q.Question + " " + q.Topic)
	for _, ind := range indicators {
		if strings.Contains(lower, strings.ToLower(ind.Metric)) || strings.Contains(lower, strings.ToLower(ind.Code)) {
			return ind.Code
		}
	}
	if _, ok := model.FindIndicator(indicators, q.Topic); ok {
		return q.Topic
	}
	for _, sector := range q.Sectors {
		for _, ind := range indicators {
			if strings.EqualFold(ind.Sector, sector) {
				return ind.Code
			}
		}
	}
	return "NY.GDP.MKTP.KD.ZG"
}

// finish attaches citations, link checks and the optional summary
func (d *Dashboard) finish(ctx context.Context, report *model.Report, t *trace) {
	report.Citations = d.session.Citations.Render()
	report.Failures = t.failures

	if d.checker != nil && len(report.Citations) > 0 {
		start := time.Now()
		report.LinkChecks = d.checker.Check(ctx, report.Citations)
		d.logger.Debug("checked citations", "count", len(report.LinkChecks), "took", time.Since(start))
	}

	if d.summarizer.IsEnabled() {
		summary, err := d.summarizer.GenerateSummary(ctx, *report)
		if err != nil {
			d.logger.Warn("LLM summary failed", "err", err)
		} else if summary != nil {
			report.LLM = summary
		}
	}
}
