// Package pipeline orchestrates searches, extraction, matching and
// classification into finished reports.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/ppiankov/foretell/internal/cache"
	"github.com/ppiankov/foretell/internal/extract"
	"github.com/ppiankov/foretell/internal/fetch"
	"github.com/ppiankov/foretell/internal/llm"
	"github.com/ppiankov/foretell/internal/logging"
	"github.com/ppiankov/foretell/internal/match"
	"github.com/ppiankov/foretell/internal/model"
	"github.com/ppiankov/foretell/internal/score"
	"github.com/ppiankov/foretell/internal/search"
	"github.com/ppiankov/foretell/internal/session"
	"github.com/ppiankov/foretell/internal/sources"
	"github.com/ppiankov/foretell/internal/status"
	"github.com/ppiankov/foretell/internal/validate"
	"github.com/ppiankov/foretell/internal/worker"
)

// ErrNoData is returned when an analysis that feeds a chart or table
// found nothing at all. It means "nothing found", not "fetch broke".
var ErrNoData = errors.New("no data found")

const (
	defaultMaxResults    = 25
	defaultEvidenceLimit = 5
	defaultSummaryChars  = 300
)

// Dashboard runs analyses for one session
type Dashboard struct {
	config  *model.Config
	session *session.Session

	backend    search.Searcher
	search     *search.Aggregator
	worldBank  *sources.WorldBank
	feeds      *sources.Feeds
	scorer     *score.Scorer
	estimator  *score.LikelihoodEstimator
	matcher    *match.Matcher
	authority  *validate.AuthorityClassifier
	checker    *validate.LinkChecker
	summarizer *llm.Summarizer
	onDomain   func(search.DomainResult)

	logger *log.Logger
	now    func() time.Time
}

// Option configures a Dashboard
type Option func(*Dashboard)

// WithSearcher replaces the DuckDuckGo backend
func WithSearcher(s search.Searcher) Option {
	return func(d *Dashboard) { d.backend = s }
}

// WithLogger sets the logger
func WithLogger(l *log.Logger) Option {
	return func(d *Dashboard) { d.logger = l }
}

// WithClock sets the clock used for the current year
func WithClock(now func() time.Time) Option {
	return func(d *Dashboard) { d.now = now }
}

// WithSummarizer attaches an LLM summarizer
func WithSummarizer(s *llm.Summarizer) Option {
	return func(d *Dashboard) { d.summarizer = s }
}

// WithLinkChecks checks every cited URL before a report is returned
func WithLinkChecks() Option {
	return func(d *Dashboard) {
		d.checker = validate.NewLinkChecker(d.config.HTTP, d.config.Concurrency.Workers,
			validate.NewAuthorityClassifier(&d.config.Authority))
	}
}

// WithProgress is called after each domain of every search
func WithProgress(fn func(search.DomainResult)) Option {
	return func(d *Dashboard) { d.onDomain = fn }
}

// New wires a dashboard from configuration. A nil session gets a fresh
// uncached one.
func New(cfg *model.Config, sess *session.Session, opts ...Option) *Dashboard {
	if cfg == nil {
		cfg = model.DefaultConfig()
	}
	d := &Dashboard{config: cfg, now: time.Now}
	for _, opt := range opts {
		opt(d)
	}
	d.logger = logging.OrDiscard(d.logger)
	if sess == nil {
		sess = session.New(nil, cfg.Cache.TTL, d.logger)
	}
	d.session = sess

	fetchOpts := []fetch.Option{fetch.WithLogger(d.logger)}
	if cfg.RateLimiting.RequestsPerSecond > 0 {
		fetchOpts = append(fetchOpts, fetch.WithLimiter(
			worker.NewLimiter(cfg.RateLimiting.RequestsPerSecond, cfg.RateLimiting.BurstSize)))
	}
	fetcher := fetch.NewFetcher(cfg.HTTP, fetchOpts...)

	if d.backend == nil {
		d.backend = search.NewDDGLite(fetcher, cfg.Search.Endpoint, cfg.Search.Region)
	}
	d.search = search.NewAggregator(d.backend, cfg.Search, d.logger)
	d.search.OnDomain = d.onDomain
	d.worldBank = sources.NewWorldBank(fetcher, cfg.Sources, sess.Memo, d.logger)
	d.feeds = sources.NewFeeds(fetcher, cfg.Sources.Feeds, sess.Memo, d.logger)
	d.scorer = score.NewScorer(cfg.Analysis.Tolerance, cfg.Analysis.PolarityBand)
	d.estimator = score.NewLikelihoodEstimator(cfg.Sectors, cfg.Analysis.DefaultWeight)
	d.matcher = match.NewMatcher(cfg.Analysis.MatchThreshold)
	d.authority = validate.NewAuthorityClassifier(&cfg.Authority)
	return d
}

// Session returns the dashboard's session
func (d *Dashboard) Session() *session.Session {
	return d.session
}

// trace collects non-fatal failures for the report being built
type trace struct {
	mu       sync.Mutex
	failures []string
}

func (t *trace) add(format string, args ...any) {
	if t == nil {
		return
	}
	t.mu.Lock()
	t.failures = append(t.failures, fmt.Sprintf(format, args...))
	t.mu.Unlock()
}

func (d *Dashboard) country() string {
	if c := d.config.Search.Country; c != "" {
		return c
	}
	return "India"
}

func (d *Dashboard) maxResults() int {
	if n := d.config.Search.MaxResults; n > 0 {
		return n
	}
	return defaultMaxResults
}

func (d *Dashboard) currentYear() int {
	return d.now().Year()
}

// searchCached runs a search through the session cache. A search where
// every domain failed is not cached, so the next call tries again.
func (d *Dashboard) searchCached(ctx context.Context, query string, t *trace) []model.SearchResult {
	max := d.maxResults()
	key := cache.CacheKey("search", query, strconv.Itoa(max))
	results, ok := cache.GetOrFetch(d.session.Memo, key, func() ([]model.SearchResult, error) {
		out := d.search.SearchDetailed(ctx, query, max)
		for _, f := range out.Failures {
			t.add("search %s: %v", f.Domain, f.Err)
		}
		if err := out.Err(); err != nil {
			return nil, err
		}
		return out.Results, nil
	})
	if !ok {
		return []model.SearchResult{}
	}
	return results
}

// InvestigatePastForecasts finds forecasts made around referenceYear
// about targetYear and flags each one
func (d *Dashboard) InvestigatePastForecasts(ctx context.Context, referenceYear, targetYear int) []model.PastForecast {
	return d.investigate(ctx, referenceYear, targetYear, nil)
}

func (d *Dashboard) investigate(ctx context.Context, referenceYear, targetYear int, t *trace) []model.PastForecast {
	query := fmt.Sprintf("%s %d forecast %d", d.country(), referenceYear, targetYear)
	d.logger.Info("searching past forecasts", "query", query)
	results := d.searchCached(ctx, query, t)

	current := d.currentYear()
	forecasts := make([]model.PastForecast, 0, len(results))
	for _, r := range results {
		text := forecastSummary(r, d.summaryChars())
		pf := model.PastForecast{
			Forecast:  text,
			SourceTag: d.session.Citations.Add(r.URL),
			URL:       r.URL,
		}
		if y, ok := extract.AchievementYear(text, referenceYear, current); ok {
			pf.Year = y
			pf.Status = status.Flag(targetYear, status.Achieved(y))
		} else {
			pf.Status = status.Flag(targetYear, status.AsOf(current))
		}
		forecasts = append(forecasts, pf)
	}
	return forecasts
}

func forecastSummary(r model.SearchResult, max int) string {
	text := r.Snippet
	if strings.TrimSpace(text) == "" {
		text = r.Title
	}
	return extract.Clean(text, max)
}

func (d *Dashboard) summaryChars() int {
	if n := d.config.Analysis.SummaryMaxChars; n > 0 {
		return n
	}
	return defaultSummaryChars
}

func (d *Dashboard) evidenceLimit() int {
	if n := d.config.Analysis.EvidenceLimit; n > 0 {
		return n
	}
	return defaultEvidenceLimit
}

// EvaluateFutureTarget searches for progress on a target and flags it
func (d *Dashboard) EvaluateFutureTarget(ctx context.Context, description string, targetYear int) model.FutureTarget {
	return d.evaluate(ctx, description, targetYear, nil)
}

func (d *Dashboard) evaluate(ctx context.Context, description string, targetYear int, t *trace) model.FutureTarget {
	query := fmt.Sprintf("%s %s %d progress", d.country(), description, targetYear)
	d.logger.Info("searching future target", "query", query)
	results := d.searchCached(ctx, query, t)

	snippets := make([]string, len(results))
	for i, r := range results {
		snippets[i] = r.Snippet
	}

	opts := []status.Option{status.AsOf(d.currentYear())}
	if band := d.config.Analysis.ProgressBand; band > 0 {
		opts = append(opts, status.Band(band))
	}
	target := model.FutureTarget{
		Description: description,
		TargetYear:  targetYear,
		ProgressPct: "N/A",
		Evidence:    []string{},
	}
	if year, ok := d.announcedYear(description, targetYear); ok {
		opts = append(opts, status.Since(year))
		target.AnnouncedYear = year
	}
	if pct, ok := extract.ProgressPercent(snippets...); ok {
		opts = append(opts, status.Progress(pct))
		target.ProgressPct = fmt.Sprintf("%.0f%%", pct)
	}
	target.Status = status.Flag(targetYear, opts...)

	for i, r := range results {
		if i >= d.evidenceLimit() {
			break
		}
		tag := d.session.Citations.Add(r.URL)
		target.Evidence = append(target.Evidence, tag+": "+r.Title)
	}
	return target
}

// announcedYear returns the announcement year of the known target due in
// targetYear whose metric best matches description
func (d *Dashboard) announcedYear(description string, targetYear int) (int, bool) {
	year, best := 0, 0.0
	for _, rec := range model.CurrentTargets() {
		if rec.TargetYear != targetYear {
			continue
		}
		score, ok := d.matcher.Similar(description, rec.Prediction.Metric)
		if !ok || score <= best {
			continue
		}
		announced, err := time.Parse("2006-01-02", rec.Prediction.AnnouncementDate)
		if err != nil {
			continue
		}
		year, best = announced.Year(), score
	}
	return year, year > 0
}

// MoneyFlowData returns the median extracted value per year for a topic.
// It returns ErrNoData when no result mentions a value in range.
func (d *Dashboard) MoneyFlowData(ctx context.Context, topic string, startYear, endYear int) (map[int]float64, error) {
	return d.moneyFlow(ctx, topic, startYear, endYear, nil)
}

func (d *Dashboard) moneyFlow(ctx context.Context, topic string, startYear, endYear int, t *trace) (map[int]float64, error) {
	if startYear > endYear {
		startYear, endYear = endYear, startYear
	}
	query := fmt.Sprintf("%s %s %d %d", d.country(), topic, startYear, endYear)
	d.logger.Info("searching money flow", "query", query)
	results := d.searchCached(ctx, query, t)

	grouped := make(map[int][]float64)
	for _, r := range results {
		byYear := extract.ValuesByYear([]string{r.Text()}, startYear, endYear)
		if len(byYear) == 0 {
			continue
		}
		d.session.Citations.Add(r.URL)
		for y, values := range byYear {
			grouped[y] = append(grouped[y], values...)
		}
	}

	if len(grouped) == 0 {
		return nil, fmt.Errorf("%w: no values for %q between %d and %d", ErrNoData, topic, startYear, endYear)
	}

	series := make(map[int]float64, len(grouped))
	for y, values := range grouped {
		series[y] = median(values)
	}
	return series, nil
}

func median(values []float64) float64 {
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)
	n := len(sorted)
	if n%2 == 1 {
		return sorted[n/2]
	}
	return (sorted[n/2-1] + sorted[n/2]) / 2
}

// RenderCitations returns the session's citations as "tag: url" lines
func (d *Dashboard) RenderCitations() string {
	return d.session.Citations.String()
}

// Trend returns the World Bank series for an indicator key, code or
// metric name
func (d *Dashboard) Trend(ctx context.Context, indicator string, startYear, endYear int) (map[int]float64, error) {
	code := indicator
	if ind, ok := model.FindIndicator(d.indicators(), indicator); ok {
		code = ind.Code
	}

	series := d.worldBank.Series(ctx, code, startYear, endYear)
	if len(series) == 0 {
		return nil, fmt.Errorf("%w: indicator %s between %d and %d", ErrNoData, code, startYear, endYear)
	}
	d.session.Citations.Add(d.worldBank.SourceURL(code))
	return series, nil
}

func (d *Dashboard) indicators() []model.Indicator {
	if len(d.config.Sources.Indicators) > 0 {
		return d.config.Sources.Indicators
	}
	return model.DefaultIndicators()
}

func (d *Dashboard) sectorPatterns(names []string) []model.SectorPattern {
	if len(names) == 0 {
		return d.config.Sectors
	}
	var patterns []model.SectorPattern
	for _, name := range names {
		if p, ok := d.config.Sector(name); ok {
			patterns = append(patterns, p)
		} else {
			d.logger.Warn("unknown sector", "sector", name)
		}
	}
	return patterns
}
