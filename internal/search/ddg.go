package search

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/ppiankov/foretell/internal/fetch"
	"github.com/ppiankov/foretell/internal/model"
	"github.com/ppiankov/foretell/internal/validate"
)

// DefaultEndpoint is the DuckDuckGo Lite HTML interface
const DefaultEndpoint = "https://lite.duckduckgo.com/lite/"

// DefaultRegion is the India/English locale
const DefaultRegion = "in-en"

// Getter is the part of the fetcher the backend needs
type Getter interface {
	FetchWithRetry(ctx context.Context, rawURL string, opts ...fetch.RequestOption) (*fetch.Response, error)
}

// DDGLite scrapes the lightweight DuckDuckGo results page. It needs no API
// key but depends on the page layout staying stable.
type DDGLite struct {
	getter   Getter
	endpoint string
	region   string
}

// NewDDGLite creates a backend. Empty endpoint or region use the defaults.
func NewDDGLite(getter Getter, endpoint, region string) *DDGLite {
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	if region == "" {
		region = DefaultRegion
	}
	return &DDGLite{getter: getter, endpoint: endpoint, region: region}
}

// Search runs one query and parses the result table
func (d *DDGLite) Search(ctx context.Context, query string) ([]model.SearchResult, error) {
	u, err := url.Parse(d.endpoint)
	if err != nil {
		return nil, fmt.Errorf("invalid endpoint: %w", err)
	}
	q := u.Query()
	q.Set("q", query)
	q.Set("kl", d.region)
	u.RawQuery = q.Encode()

	// the results page is not a crawl target, robots.txt does not apply
	resp, err := d.getter.FetchWithRetry(ctx, u.String(), fetch.SkipRobots(), fetch.Accept("text/html"))
	if err != nil {
		return nil, fmt.Errorf("query %q: %w", query, err)
	}
	return ParseLite(resp.Body)
}

// ParseLite extracts results from a DuckDuckGo Lite page. Each result
// link sits in its own table row and the snippet in the row after it.
func ParseLite(body []byte) ([]model.SearchResult, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to parse results: %w", err)
	}

	var results []model.SearchResult
	doc.Find("a.result-link").Each(func(_ int, a *goquery.Selection) {
		href, _ := a.Attr("href")
		link := unwrapRedirect(href)
		if link == "" {
			return
		}

		snippet := ""
		row := a.ParentsFiltered("tr").First()
		if row.Length() > 0 {
			next := row.NextAllFiltered("tr").First()
			if cell := next.Find("td.result-snippet"); cell.Length() > 0 {
				snippet = cell.Text()
			} else {
				snippet = next.Text()
			}
		}

		results = append(results, model.SearchResult{
			Title:   strings.Join(strings.Fields(a.Text()), " "),
			URL:     link,
			Snippet: strings.Join(strings.Fields(snippet), " "),
			Domain:  validate.Host(link),
		})
	})
	return results, nil
}

// unwrapRedirect turns //duckduckgo.com/l/?uddg=<target> into the target
func unwrapRedirect(href string) string {
	href = strings.TrimSpace(href)
	if href == "" {
		return ""
	}
	if strings.HasPrefix(href, "//") {
		href = "https:" + href
	}
	u, err := url.Parse(href)
	if err != nil {
		return ""
	}
	if strings.HasSuffix(u.Host, "duckduckgo.com") && strings.HasPrefix(u.Path, "/l/") {
		if target := u.Query().Get("uddg"); target != "" {
			return target
		}
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return ""
	}
	return href
}
