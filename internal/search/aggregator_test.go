package search

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ppiankov/foretell/internal/model"
)

type fakeSearcher struct {
	mu      sync.Mutex
	hits    map[string][]model.SearchResult
	fail    map[string]error
	queries []string
}

func (f *fakeSearcher) Search(ctx context.Context, query string) ([]model.SearchResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.queries = append(f.queries, query)

	domain := strings.TrimPrefix(strings.Fields(query)[0], "site:")
	if err := f.fail[domain]; err != nil {
		return nil, err
	}
	return f.hits[domain], nil
}

func hit(url string) model.SearchResult {
	return model.SearchResult{Title: url, URL: url}
}

func recordSleeps(t *testing.T) *[]time.Duration {
	t.Helper()
	var slept []time.Duration
	orig := searchSleepFunc
	searchSleepFunc = func(d time.Duration) { slept = append(slept, d) }
	t.Cleanup(func() { searchSleepFunc = orig })
	return &slept
}

func newTestAggregator(backend Searcher, domains ...string) *Aggregator {
	return NewAggregator(backend, model.SearchConfig{
		Domains:  domains,
		DelayMin: time.Second,
		DelayMax: 2 * time.Second,
	}, nil)
}

func TestAggregator_QueriesEachDomainInOrder(t *testing.T) {
	recordSleeps(t)
	backend := &fakeSearcher{}
	agg := newTestAggregator(backend, "iea.org", "rbi.org.in", "un.org")

	agg.Search(context.Background(), "coal 2030", 10)

	assert.Equal(t, []string{
		"site:iea.org coal 2030",
		"site:rbi.org.in coal 2030",
		"site:un.org coal 2030",
	}, backend.queries)
}

func TestAggregator_DedupAcrossDomains(t *testing.T) {
	recordSleeps(t)
	backend := &fakeSearcher{hits: map[string][]model.SearchResult{
		"iea.org": {hit("https://www.iea.org/a"), hit("https://www.iea.org/b")},
		// the same page syndicated under a second allow-listed domain
		"un.org": {hit("https://www.iea.org/a"), hit("https://news.un.org/c")},
	}}
	backend.hits["un.org"][0].Domain = "un.org"
	agg := newTestAggregator(backend, "iea.org", "un.org")

	got := agg.Search(context.Background(), "q", 10)

	urls := make([]string, len(got))
	for i, r := range got {
		urls[i] = r.URL
	}
	assert.Equal(t, []string{"https://www.iea.org/a", "https://www.iea.org/b", "https://news.un.org/c"}, urls)
}

func TestAggregator_FiltersForeignHosts(t *testing.T) {
	recordSleeps(t)
	backend := &fakeSearcher{hits: map[string][]model.SearchResult{
		"un.org": {
			hit("https://spam.example.com/un.org"),
			hit("https://notun.org/x"),
			hit("https://data.un.org/y"),
		},
	}}
	agg := newTestAggregator(backend, "un.org")

	got := agg.Search(context.Background(), "q", 10)

	require.Len(t, got, 1)
	assert.Equal(t, "https://data.un.org/y", got[0].URL)
}

func TestAggregator_PerDomainCap(t *testing.T) {
	recordSleeps(t)
	var many []model.SearchResult
	for i := 0; i < 10; i++ {
		many = append(many, hit(fmt.Sprintf("https://iea.org/%d", i)))
	}
	backend := &fakeSearcher{hits: map[string][]model.SearchResult{
		"iea.org": many,
		"un.org":  {hit("https://un.org/1")},
		"pib.gov.in": {
			hit("https://pib.gov.in/1"),
		},
	}}
	agg := newTestAggregator(backend, "iea.org", "un.org", "pib.gov.in")

	// 5/3 + 1 = 2 per domain
	got := agg.Search(context.Background(), "q", 5)

	require.Len(t, got, 4)
	assert.Equal(t, "https://iea.org/0", got[0].URL)
	assert.Equal(t, "https://iea.org/1", got[1].URL)
	assert.Equal(t, "https://un.org/1", got[2].URL)
	assert.Equal(t, "https://pib.gov.in/1", got[3].URL)
}

func TestAggregator_TruncatesToMax(t *testing.T) {
	recordSleeps(t)
	backend := &fakeSearcher{hits: map[string][]model.SearchResult{
		"iea.org": {hit("https://iea.org/1"), hit("https://iea.org/2")},
		"un.org":  {hit("https://un.org/1"), hit("https://un.org/2")},
	}}
	agg := newTestAggregator(backend, "iea.org", "un.org")

	got := agg.Search(context.Background(), "q", 2)

	require.Len(t, got, 2)
	assert.Equal(t, "https://iea.org/1", got[0].URL)
	assert.Equal(t, "https://iea.org/2", got[1].URL)
}

func TestAggregator_PartialFailure(t *testing.T) {
	recordSleeps(t)
	backend := &fakeSearcher{
		hits: map[string][]model.SearchResult{"un.org": {hit("https://un.org/1")}},
		fail: map[string]error{"iea.org": errors.New("connection refused")},
	}
	agg := newTestAggregator(backend, "iea.org", "un.org")

	var seen []string
	agg.OnDomain = func(r DomainResult) { seen = append(seen, r.Domain) }

	out := agg.SearchDetailed(context.Background(), "q", 10)

	require.Len(t, out.Results, 1)
	require.Len(t, out.Failures, 1)
	assert.Equal(t, "iea.org", out.Failures[0].Domain)
	assert.NoError(t, out.Err())
	assert.Equal(t, []string{"iea.org", "un.org"}, seen)
}

func TestAggregator_TotalFailure(t *testing.T) {
	recordSleeps(t)
	boom := errors.New("boom")
	backend := &fakeSearcher{fail: map[string]error{"iea.org": boom, "un.org": boom}}
	agg := newTestAggregator(backend, "iea.org", "un.org")

	got := agg.Search(context.Background(), "q", 10)
	assert.NotNil(t, got)
	assert.Empty(t, got)

	out := agg.SearchDetailed(context.Background(), "q", 10)
	assert.ErrorIs(t, out.Err(), ErrAllDomainsFailed)
}

func TestAggregator_CancelledContext(t *testing.T) {
	recordSleeps(t)
	backend := &fakeSearcher{}
	agg := newTestAggregator(backend, "iea.org", "un.org")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	out := agg.SearchDetailed(ctx, "q", 10)

	assert.Empty(t, backend.queries)
	assert.Len(t, out.Failures, 2)
	assert.ErrorIs(t, out.Failures[0].Err, context.Canceled)
}

func TestAggregator_PolitenessDelay(t *testing.T) {
	slept := recordSleeps(t)
	agg := newTestAggregator(&fakeSearcher{}, "iea.org", "un.org", "pib.gov.in")

	agg.Search(context.Background(), "q", 10)

	require.Len(t, *slept, 2)
	for _, d := range *slept {
		assert.GreaterOrEqual(t, d, time.Second)
		assert.Less(t, d, 2*time.Second)
	}
}

func TestAggregator_ZeroMax(t *testing.T) {
	recordSleeps(t)
	backend := &fakeSearcher{}
	agg := newTestAggregator(backend, "iea.org")

	assert.Empty(t, agg.Search(context.Background(), "q", 0))
	assert.Empty(t, backend.queries)
}

func TestNewAggregator_DefaultDomains(t *testing.T) {
	recordSleeps(t)
	backend := &fakeSearcher{}
	agg := NewAggregator(backend, model.SearchConfig{}, nil)

	agg.Search(context.Background(), "q", 50)

	want := make([]string, len(model.TrustedDomains))
	for i, d := range model.TrustedDomains {
		want[i] = "site:" + d + " q"
	}
	assert.Equal(t, want, backend.queries)
}
