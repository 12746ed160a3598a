package sources

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/mmcdole/gofeed"

	"github.com/ppiankov/foretell/internal/cache"
	"github.com/ppiankov/foretell/internal/extract"
	"github.com/ppiankov/foretell/internal/logging"
	"github.com/ppiankov/foretell/internal/model"
)

// maxEntriesPerFeed bounds how many recent entries of each feed are scanned
const maxEntriesPerFeed = 10

const summaryMaxChars = 300

// Feeds searches recent entries of publisher RSS feeds
type Feeds struct {
	getter Getter
	feeds  []model.FeedConfig
	memo   *cache.Memo
	logger *log.Logger
	now    func() time.Time
}

// NewFeeds creates a feed reader. Empty feeds use model.DefaultFeeds.
func NewFeeds(getter Getter, feeds []model.FeedConfig, memo *cache.Memo, logger *log.Logger) *Feeds {
	if len(feeds) == 0 {
		feeds = model.DefaultFeeds()
	}
	logger = logging.OrDiscard(logger)
	if memo == nil {
		memo = cache.NewMemo(nil, 0, logger)
	}
	return &Feeds{
		getter: getter,
		feeds:  feeds,
		memo:   memo,
		logger: logger,
		now:    time.Now,
	}
}

// Search returns entries whose title or summary mentions any query term of
// three or more characters, in feed order. Unreachable feeds are skipped.
func (f *Feeds) Search(ctx context.Context, query string) []model.NewsItem {
	terms := queryTerms(query)
	if len(terms) == 0 {
		return []model.NewsItem{}
	}

	items := []model.NewsItem{}
	for _, fc := range f.feeds {
		if ctx.Err() != nil {
			break
		}
		entries, ok := cache.GetOrFetch(f.memo, cache.CacheKey("feed", fc.URL), func() ([]model.NewsItem, error) {
			return f.fetch(ctx, fc)
		})
		if !ok {
			continue
		}
		for _, e := range entries {
			if mentions(e, terms) {
				items = append(items, e)
			}
		}
	}
	return items
}

func (f *Feeds) fetch(ctx context.Context, fc model.FeedConfig) ([]model.NewsItem, error) {
	resp, err := f.getter.FetchWithRetry(ctx, fc.URL)
	if err != nil {
		return nil, fmt.Errorf("feed %s: %w", fc.Name, err)
	}

	feed, err := gofeed.NewParser().Parse(bytes.NewReader(resp.Body))
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", fc.URL, err)
	}

	n := min(len(feed.Items), maxEntriesPerFeed)
	items := make([]model.NewsItem, 0, n)
	for _, entry := range feed.Items[:n] {
		published := f.now()
		if entry.PublishedParsed != nil {
			published = *entry.PublishedParsed
		} else if entry.UpdatedParsed != nil {
			published = *entry.UpdatedParsed
		}

		summary := entry.Description
		if summary == "" {
			summary = entry.Content
		}

		items = append(items, model.NewsItem{
			Feed:      fc.Name,
			Title:     extract.Clean(entry.Title, 0),
			Summary:   extract.Clean(extract.VisibleText(summary), summaryMaxChars),
			Link:      entry.Link,
			Published: published,
		})
	}
	return items, nil
}

func queryTerms(query string) []string {
	var terms []string
	for _, w := range strings.Fields(strings.ToLower(query)) {
		w = strings.Trim(w, `.,;:!?"'()`)
		if len(w) >= 3 {
			terms = append(terms, w)
		}
	}
	return terms
}

func mentions(item model.NewsItem, terms []string) bool {
	title := strings.ToLower(item.Title)
	summary := strings.ToLower(item.Summary)
	for _, t := range terms {
		if strings.Contains(title, t) || strings.Contains(summary, t) {
			return true
		}
	}
	return false
}
