package pipeline

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ppiankov/foretell/internal/cache"
	"github.com/ppiankov/foretell/internal/model"
	"github.com/ppiankov/foretell/internal/search"
	"github.com/ppiankov/foretell/internal/session"
)

// fakeSearcher serves canned hits keyed by the query without its site: prefix
type fakeSearcher struct {
	mu    sync.Mutex
	hits  map[string][]model.SearchResult
	fail  map[string]error
	calls int
}

func (f *fakeSearcher) Search(ctx context.Context, query string) ([]model.SearchResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++

	domain, rest, _ := strings.Cut(strings.TrimPrefix(query, "site:"), " ")
	if err := f.fail[domain]; err != nil {
		return nil, err
	}
	return f.hits[rest], nil
}

func pib(path, title, snippet string) model.SearchResult {
	return model.SearchResult{
		Title:   title,
		URL:     "https://pib.gov.in/" + path,
		Snippet: snippet,
		Domain:  "pib.gov.in",
	}
}

const testFeed = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0">
<channel>
  <title>Business</title>
  <item>
    <title>Renewable capacity additions hit a record</title>
    <link>https://example.com/renewables</link>
    <description>Installations grew again this quarter.</description>
  </item>
  <item>
    <title>Cricket results</title>
    <link>https://example.com/cricket</link>
    <description>Nothing relevant here.</description>
  </item>
</channel>
</rss>`

var gdpGrowth = map[int]float64{2000: 3.8, 2019: 3.9, 2020: -5.8, 2021: 9.7}

// sourceServer stands in for the World Bank API and one news feed
func sourceServer(t *testing.T) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.URL.Path == "/rss":
			w.Header().Set("Content-Type", "application/rss+xml")
			_, _ = fmt.Fprint(w, testFeed)
		case strings.HasSuffix(r.URL.Path, "/NY.GDP.MKTP.KD.ZG"):
			var start, end int
			_, _ = fmt.Sscanf(r.URL.Query().Get("date"), "%d:%d", &start, &end)
			var obs []string
			for y := end; y >= start; y-- {
				if v, ok := gdpGrowth[y]; ok {
					obs = append(obs, fmt.Sprintf(`{"date":"%d","value":%g}`, y, v))
				}
			}
			_, _ = fmt.Fprintf(w, `[{"page":1},[%s]]`, strings.Join(obs, ","))
		default:
			_, _ = fmt.Fprint(w, `[{"page":1},null]`)
		}
	}))
	t.Cleanup(server.Close)
	return server
}

func testConfig(serverURL string, domains ...string) *model.Config {
	if len(domains) == 0 {
		domains = []string{"pib.gov.in"}
	}
	cfg := model.DefaultConfig()
	cfg.HTTP.RespectRobots = false
	cfg.HTTP.MaxRetries = 1
	cfg.HTTP.Timeout = 5 * time.Second
	cfg.Search.Domains = domains
	cfg.Search.DelayMin = 0
	cfg.Search.DelayMax = 0
	cfg.RateLimiting.RequestsPerSecond = 0
	cfg.Sources.WorldBankURL = serverURL
	cfg.Sources.Feeds = []model.FeedConfig{{Name: "Test", URL: serverURL + "/rss"}}
	return cfg
}

var fixedNow = func() time.Time { return time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC) }

func newTestDashboard(t *testing.T, backend *fakeSearcher, opts ...Option) *Dashboard {
	t.Helper()
	server := sourceServer(t)
	opts = append([]Option{WithSearcher(backend), WithClock(fixedNow)}, opts...)
	return New(testConfig(server.URL), nil, opts...)
}

func TestInvestigatePastForecasts(t *testing.T) {
	backend := &fakeSearcher{hits: map[string][]model.SearchResult{
		"India 2000 forecast 2020": {
			pib("a", "Power plan", "The 200 GW capacity target was achieved in 2018."),
			pib("b", "Rural roads", "Vision document from 2000 on rural roads."),
			pib("c", "Forecast met on schedule in 2020", ""),
		},
	}}
	d := newTestDashboard(t, backend)

	got := d.InvestigatePastForecasts(context.Background(), 2000, 2020)

	require.Len(t, got, 3)
	assert.Equal(t, model.PastForecast{
		Forecast:  "The 200 GW capacity target was achieved in 2018.",
		SourceTag: "web:1",
		URL:       "https://pib.gov.in/a",
		Status:    model.StatusEarly,
		Year:      2018,
	}, got[0])

	// no year after the forecast year, and 2020 has passed
	assert.Equal(t, model.StatusLate, got[1].Status)
	assert.Zero(t, got[1].Year)

	// empty snippet falls back to the title
	assert.Equal(t, "Forecast met on schedule in 2020", got[2].Forecast)
	assert.Equal(t, model.StatusOnTime, got[2].Status)
	assert.Equal(t, "web:3", got[2].SourceTag)
}

func TestInvestigatePastForecasts_TruncatesSummary(t *testing.T) {
	backend := &fakeSearcher{hits: map[string][]model.SearchResult{
		"India 2000 forecast 2020": {pib("a", "t", strings.Repeat("word ", 200))},
	}}
	d := newTestDashboard(t, backend)

	got := d.InvestigatePastForecasts(context.Background(), 2000, 2020)

	require.Len(t, got, 1)
	assert.Len(t, []rune(got[0].Forecast), 300)
	assert.True(t, strings.HasSuffix(got[0].Forecast, "..."))
}

func TestEvaluateFutureTarget(t *testing.T) {
	backend := &fakeSearcher{hits: map[string][]model.SearchResult{
		"India renewable capacity 2030 progress": {
			pib("r1", "Capacity review", "Installed capacity is 75% of the goal."),
			pib("r2", "Later update", "Another 12% added."),
		},
	}}
	d := newTestDashboard(t, backend)

	got := d.EvaluateFutureTarget(context.Background(), "renewable capacity", 2030)

	// announced in 2019, so 5 of 11 years have passed: about 45% expected
	assert.Equal(t, model.StatusLikelyEarly, got.Status)
	assert.Equal(t, 2019, got.AnnouncedYear)
	assert.Equal(t, "75%", got.ProgressPct)
	assert.Equal(t, []string{"web:1: Capacity review", "web:2: Later update"}, got.Evidence)
	assert.Equal(t, 2030, got.TargetYear)
}

func TestEvaluateFutureTarget_AnnouncementBaseline(t *testing.T) {
	backend := &fakeSearcher{hits: map[string][]model.SearchResult{
		"India highway length 2030 progress": {
			pib("h1", "Road review", "The network is 55% built."),
		},
		"India coastal shipping 2030 progress": {
			pib("c1", "Port review", "Shipping capacity is 55% built."),
		},
	}}
	d := newTestDashboard(t, backend)

	// announced 2021: 3 of 9 years passed, 33% expected, 55% is early
	announced := d.EvaluateFutureTarget(context.Background(), "highway length", 2030)
	assert.Equal(t, 2021, announced.AnnouncedYear)
	assert.Equal(t, model.StatusLikelyEarly, announced.Status)

	// unknown target: midpoint baseline gives 50% expected, 55% is on time
	unknown := d.EvaluateFutureTarget(context.Background(), "coastal shipping", 2030)
	assert.Zero(t, unknown.AnnouncedYear)
	assert.Equal(t, model.StatusOnTime, unknown.Status)
}

func TestEvaluateFutureTarget_NoEvidence(t *testing.T) {
	d := newTestDashboard(t, &fakeSearcher{})

	got := d.EvaluateFutureTarget(context.Background(), "bullet train", 2030)

	assert.Equal(t, model.StatusLateRisk, got.Status)
	assert.Equal(t, "N/A", got.ProgressPct)
	assert.NotNil(t, got.Evidence)
	assert.Empty(t, got.Evidence)
	assert.Empty(t, d.RenderCitations())
}

func TestEvaluateFutureTarget_EvidenceLimit(t *testing.T) {
	var hits []model.SearchResult
	for i := 0; i < 8; i++ {
		hits = append(hits, pib(fmt.Sprintf("p%d", i), fmt.Sprintf("Item %d", i), ""))
	}
	backend := &fakeSearcher{hits: map[string][]model.SearchResult{"India metro 2028 progress": hits}}
	d := newTestDashboard(t, backend)

	got := d.EvaluateFutureTarget(context.Background(), "metro", 2028)

	assert.Len(t, got.Evidence, 5)
	assert.Equal(t, 5, d.Session().Citations.Len())
}

func TestMoneyFlowData(t *testing.T) {
	backend := &fakeSearcher{hits: map[string][]model.SearchResult{
		"India FDI 2018 2020": {
			pib("f1", "FDI report", "FDI inflows in 2019 were $50 billion."),
			pib("f2", "Annual review", "In 2019 FDI reached $60 billion; in 2020 it hit $80 billion."),
			pib("f3", "Unrelated", "No figures here."),
		},
	}}
	d := newTestDashboard(t, backend)

	// reversed range is normalised
	got, err := d.MoneyFlowData(context.Background(), "FDI", 2020, 2018)

	require.NoError(t, err)
	assert.Equal(t, map[int]float64{2019: 55_000, 2020: 80_000}, got)
	assert.Equal(t, "web:1: https://pib.gov.in/f1\nweb:2: https://pib.gov.in/f2", d.RenderCitations())
}

func TestMoneyFlowData_NoData(t *testing.T) {
	d := newTestDashboard(t, &fakeSearcher{})

	got, err := d.MoneyFlowData(context.Background(), "FDI", 2018, 2020)

	assert.ErrorIs(t, err, ErrNoData)
	assert.Nil(t, got)
}

func TestMedian(t *testing.T) {
	assert.Equal(t, 2.0, median([]float64{3, 1, 2}))
	assert.Equal(t, 2.5, median([]float64{4, 1, 3, 2}))
	assert.Equal(t, 7.0, median([]float64{7}))
}

func TestRenderCitations_SharedAcrossOperations(t *testing.T) {
	shared := pib("shared", "Shared", "Progress is 30% so far.")
	backend := &fakeSearcher{hits: map[string][]model.SearchResult{
		"India 2000 forecast 2020":      {shared},
		"India highways 2030 progress": {shared, pib("other", "Other", "")},
	}}
	d := newTestDashboard(t, backend)

	d.InvestigatePastForecasts(context.Background(), 2000, 2020)
	d.EvaluateFutureTarget(context.Background(), "highways", 2030)

	assert.Equal(t, "web:1: https://pib.gov.in/shared\nweb:2: https://pib.gov.in/other", d.RenderCitations())
}

func TestSearchCache(t *testing.T) {
	server := sourceServer(t)
	backend := &fakeSearcher{hits: map[string][]model.SearchResult{
		"India 2000 forecast 2020": {pib("a", "t", "s")},
	}}
	sess := session.New(cache.NewMemoryCache(time.Hour, time.Minute), time.Hour, nil)
	d := New(testConfig(server.URL), sess, WithSearcher(backend), WithClock(fixedNow))

	d.InvestigatePastForecasts(context.Background(), 2000, 2020)
	d.InvestigatePastForecasts(context.Background(), 2000, 2020)

	assert.Equal(t, 1, backend.calls)
}

func TestSearchCache_TotalFailureNotCached(t *testing.T) {
	server := sourceServer(t)
	backend := &fakeSearcher{fail: map[string]error{"pib.gov.in": errors.New("blocked")}}
	sess := session.New(cache.NewMemoryCache(time.Hour, time.Minute), time.Hour, nil)
	d := New(testConfig(server.URL), sess, WithSearcher(backend), WithClock(fixedNow))

	first := d.InvestigatePastForecasts(context.Background(), 2000, 2020)
	d.InvestigatePastForecasts(context.Background(), 2000, 2020)

	assert.NotNil(t, first)
	assert.Empty(t, first)
	assert.Equal(t, 2, backend.calls)
}

func TestWithProgress(t *testing.T) {
	server := sourceServer(t)
	backend := &fakeSearcher{fail: map[string]error{"rbi.org.in": errors.New("timeout")}}

	var seen []string
	d := New(testConfig(server.URL, "pib.gov.in", "rbi.org.in"), nil,
		WithSearcher(backend), WithClock(fixedNow),
		WithProgress(func(r search.DomainResult) { seen = append(seen, r.Domain) }))

	d.EvaluateFutureTarget(context.Background(), "ports", 2030)

	assert.Equal(t, []string{"pib.gov.in", "rbi.org.in"}, seen)
}

func TestTrend(t *testing.T) {
	d := newTestDashboard(t, &fakeSearcher{})

	got, err := d.Trend(context.Background(), "GDP Growth Rate", 2019, 2021)

	require.NoError(t, err)
	assert.Equal(t, map[int]float64{2019: 3.9, 2020: -5.8, 2021: 9.7}, got)
	assert.Equal(t, "web:1: https://data.worldbank.org/indicator/NY.GDP.MKTP.KD.ZG?locations=IND", d.RenderCitations())
}

func TestTrend_NoData(t *testing.T) {
	d := newTestDashboard(t, &fakeSearcher{})

	_, err := d.Trend(context.Background(), "SP.POP.TOTL", 2019, 2021)

	assert.ErrorIs(t, err, ErrNoData)
	assert.Empty(t, d.RenderCitations())
}

func TestNew_Defaults(t *testing.T) {
	d := New(nil, nil)

	assert.NotNil(t, d.Session())
	assert.Equal(t, "India", d.country())
	assert.Equal(t, 10, d.maxResults())
	assert.Equal(t, 300, d.summaryChars())
	assert.Equal(t, 5, d.evidenceLimit())
}

func TestSectorPatterns_UnknownSkipped(t *testing.T) {
	d := newTestDashboard(t, &fakeSearcher{})

	got := d.sectorPatterns([]string{"energy", "astrology"})

	require.Len(t, got, 1)
	assert.Equal(t, "Energy", got[0].Name)
	assert.Len(t, d.sectorPatterns(nil), len(model.DefaultSectors()))
}
