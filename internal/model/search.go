package model

import "time"

// SearchResult is a single hit returned by a search backend
type SearchResult struct {
	Title   string `json:"title"`
	URL     string `json:"url"`
	Snippet string `json:"snippet"`
	Domain  string `json:"domain"`
}

// Text joins the title and snippet for extraction
func (r SearchResult) Text() string {
	if r.Snippet == "" {
		return r.Title
	}
	return r.Title + " " + r.Snippet
}

// Citation maps a source URL to its session tag
type Citation struct {
	Tag string `json:"tag"`
	URL string `json:"url"`
}

// NewsItem is a feed entry that mentioned the query
type NewsItem struct {
	Feed      string    `json:"feed"`
	Title     string    `json:"title"`
	Summary   string    `json:"summary"`
	Link      string    `json:"link"`
	Published time.Time `json:"published"`
}

// PastForecast is one row of a retrospective investigation
type PastForecast struct {
	Forecast  string     `json:"forecast"`
	SourceTag string     `json:"source_tag"`
	URL       string     `json:"url"`
	Status    StatusFlag `json:"status"`
	Year      int        `json:"achieved_year,omitempty"`
}

// FutureTarget is the evaluation of a prospective target
type FutureTarget struct {
	Description   string     `json:"description"`
	TargetYear    int        `json:"target_year"`
	AnnouncedYear int        `json:"announced_year,omitempty"`
	Status        StatusFlag `json:"status"`
	ProgressPct   string     `json:"progress_pct"`
	Evidence      []string   `json:"evidence"`
}

// AuthorityTier ranks how much weight a publisher's claims carry
type AuthorityTier string

const (
	TierPrimary   AuthorityTier = "primary"
	TierSecondary AuthorityTier = "secondary"
	TierUntrusted AuthorityTier = "untrusted"
)

// LinkCheck is the liveness check of one cited URL
type LinkCheck struct {
	Tag          string        `json:"tag"`
	URL          string        `json:"url"`
	Tier         AuthorityTier `json:"tier"`
	Accessible   bool          `json:"accessible"`
	Dead         bool          `json:"dead"`
	StatusCode   int           `json:"status_code,omitempty"`
	RedirectURL  string        `json:"redirect_url,omitempty"`
	LastModified *time.Time    `json:"last_modified,omitempty"`
	AgeDays      *int          `json:"age_days,omitempty"`
	Stale        bool          `json:"stale"`
	Error        string        `json:"error,omitempty"`
}
