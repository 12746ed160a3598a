// Package sources reads observed values from the World Bank indicator API
// and news evidence from publisher RSS feeds.
package sources

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/ppiankov/foretell/internal/cache"
	"github.com/ppiankov/foretell/internal/fetch"
	"github.com/ppiankov/foretell/internal/logging"
	"github.com/ppiankov/foretell/internal/model"
)

// DefaultWorldBankURL is the v2 API root
const DefaultWorldBankURL = "https://api.worldbank.org/v2"

// ErrNoObservations is returned when the API has no values for the range
var ErrNoObservations = errors.New("no observations")

// Getter is the part of the fetcher the clients need
type Getter interface {
	FetchWithRetry(ctx context.Context, rawURL string, opts ...fetch.RequestOption) (*fetch.Response, error)
}

// WorldBank reads indicator values for one country
type WorldBank struct {
	getter  Getter
	baseURL string
	country string
	memo    *cache.Memo
	logger  *log.Logger
}

// NewWorldBank creates a client. A nil memo disables caching.
func NewWorldBank(getter Getter, cfg model.SourcesConfig, memo *cache.Memo, logger *log.Logger) *WorldBank {
	base := strings.TrimRight(cfg.WorldBankURL, "/")
	if base == "" {
		base = DefaultWorldBankURL
	}
	country := cfg.Country
	if country == "" {
		country = "IND"
	}
	logger = logging.OrDiscard(logger)
	if memo == nil {
		memo = cache.NewMemo(nil, 0, logger)
	}
	return &WorldBank{
		getter:  getter,
		baseURL: base,
		country: country,
		memo:    memo,
		logger:  logger,
	}
}

// Indicator returns the value of code for a single year
func (w *WorldBank) Indicator(ctx context.Context, code string, year int) (float64, bool) {
	series := w.Series(ctx, code, year, year)
	v, ok := series[year]
	return v, ok
}

// Series returns the non-null values of code between start and end
// inclusive. Failures are logged and yield an empty map.
func (w *WorldBank) Series(ctx context.Context, code string, start, end int) map[int]float64 {
	if start > end {
		start, end = end, start
	}
	key := cache.CacheKey("worldbank", w.country, code, strconv.Itoa(start), strconv.Itoa(end))
	series, ok := cache.GetOrFetch(w.memo, key, func() (map[int]float64, error) {
		return w.fetchSeries(ctx, code, start, end)
	})
	if !ok || series == nil {
		return map[int]float64{}
	}
	return series
}

// SourceURL is the human-readable page cited for code
func (w *WorldBank) SourceURL(code string) string {
	return "https://data.worldbank.org/indicator/" + url.PathEscape(code) + "?locations=" + url.QueryEscape(w.country)
}

type observation struct {
	Date  string   `json:"date"`
	Value *float64 `json:"value"`
}

type apiMessage struct {
	Message []struct {
		ID    string `json:"id"`
		Value string `json:"value"`
	} `json:"message"`
}

func (w *WorldBank) fetchSeries(ctx context.Context, code string, start, end int) (map[int]float64, error) {
	u := fmt.Sprintf("%s/country/%s/indicator/%s?format=json&date=%d:%d&per_page=%d",
		w.baseURL, url.PathEscape(w.country), url.PathEscape(code), start, end, end-start+1)

	resp, err := w.getter.FetchWithRetry(ctx, u, fetch.SkipRobots(), fetch.Accept("application/json"))
	if err != nil {
		return nil, fmt.Errorf("indicator %s: %w", code, err)
	}

	series, err := parseSeries(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("indicator %s: %w", code, err)
	}
	w.logger.Debug("indicator fetched", "code", code, "points", len(series))
	return series, nil
}

func parseSeries(body []byte) (map[int]float64, error) {
	var parts []json.RawMessage
	if err := json.Unmarshal(body, &parts); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	if len(parts) < 2 {
		if len(parts) == 1 {
			var msg apiMessage
			if json.Unmarshal(parts[0], &msg) == nil && len(msg.Message) > 0 {
				return nil, fmt.Errorf("api error %s: %s", msg.Message[0].ID, msg.Message[0].Value)
			}
		}
		return nil, ErrNoObservations
	}

	var obs []observation
	if err := json.Unmarshal(parts[1], &obs); err != nil {
		return nil, fmt.Errorf("decode observations: %w", err)
	}

	series := make(map[int]float64, len(obs))
	for _, o := range obs {
		if o.Value == nil {
			continue
		}
		year, err := strconv.Atoi(o.Date)
		if err != nil {
			continue
		}
		series[year] = *o.Value
	}
	if len(series) == 0 {
		return nil, ErrNoObservations
	}
	return series, nil
}
