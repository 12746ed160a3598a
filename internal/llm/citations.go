package llm

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/ppiankov/foretell/internal/model"
)

// ErrCitationLeak is returned when a summary cites something outside the
// session's citation list
var ErrCitationLeak = errors.New("citation leak")

var (
	urlPattern = regexp.MustCompile(`https?://[^\s\)\]]+`)
	tagPattern = regexp.MustCompile(`\bweb:\d+\b`)
)

// extractURLs returns the unique URLs in text in order of appearance
func extractURLs(text string) []string {
	seen := make(map[string]bool)
	var unique []string
	for _, u := range urlPattern.FindAllString(text, -1) {
		u = strings.TrimRight(u, ".,;:!?")
		if !seen[u] {
			seen[u] = true
			unique = append(unique, u)
		}
	}
	return unique
}

// extractTags returns the unique web:<n> tags in text in order of appearance
func extractTags(text string) []string {
	seen := make(map[string]bool)
	var unique []string
	for _, t := range tagPattern.FindAllString(text, -1) {
		if !seen[t] {
			seen[t] = true
			unique = append(unique, t)
		}
	}
	return unique
}

// CheckCitations returns the URLs and tags cited in summary. When strict,
// any URL or tag absent from allowed is an ErrCitationLeak.
func CheckCitations(summary string, allowed []model.Citation, strict bool) ([]string, []string, error) {
	urls := extractURLs(summary)
	tags := extractTags(summary)
	if !strict {
		return urls, tags, nil
	}

	allowedURLs := make(map[string]bool, len(allowed))
	allowedTags := make(map[string]bool, len(allowed))
	for _, c := range allowed {
		allowedURLs[c.URL] = true
		allowedTags[c.Tag] = true
	}

	for _, u := range urls {
		if !allowedURLs[u] {
			return nil, nil, fmt.Errorf("%w: disallowed URL %s", ErrCitationLeak, u)
		}
	}
	for _, t := range tags {
		if !allowedTags[t] {
			return nil, nil, fmt.Errorf("%w: unknown tag %s", ErrCitationLeak, t)
		}
	}
	return urls, tags, nil
}
