package extract

import (
	"regexp"
	"strconv"
	"strings"

	"golang.org/x/net/html"
)

var (
	whitespacePattern  = regexp.MustCompile(`\s+`)
	yearPattern        = regexp.MustCompile(`\b(?:19|20)\d{2}\b`)
	achievementPattern = regexp.MustCompile(`(?i)\b(?:achieved|reached|attained|met|crossed|surpassed|completed|hit)\b[^.\d]{0,20}\b((?:19|20)\d{2})\b`)
)

// VisibleText returns the text content of an HTML fragment, skipping
// script-like elements. Unparseable input is returned unchanged.
func VisibleText(fragment string) string {
	if !strings.ContainsAny(fragment, "<&") {
		return Clean(fragment, 0)
	}

	doc, err := html.Parse(strings.NewReader(fragment))
	if err != nil {
		return Clean(fragment, 0)
	}

	var buf strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "script", "style", "noscript", "iframe":
				return
			}
		}

		if n.Type == html.TextNode {
			text := strings.TrimSpace(n.Data)
			if text != "" {
				buf.WriteString(text)
				buf.WriteString(" ")
			}
		}

		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}

	walk(doc)
	return Clean(buf.String(), 0)
}

// Clean collapses whitespace and truncates to max runes, marking the cut
// with "...". A max of zero disables truncation.
func Clean(text string, max int) string {
	text = strings.TrimSpace(whitespacePattern.ReplaceAllString(text, " "))
	if max <= 3 {
		return text
	}
	runes := []rune(text)
	if len(runes) <= max {
		return text
	}
	return string(runes[:max-3]) + "..."
}

// Years returns every year mentioned in text, in order of appearance
func Years(text string) []int {
	var years []int
	for _, raw := range yearPattern.FindAllString(text, -1) {
		if y, err := strconv.Atoi(raw); err == nil {
			years = append(years, y)
		}
	}
	return years
}

// AchievementYear finds the year a target was reported as met. A year
// following an achievement verb wins; otherwise the first year in
// (after, notAfter] is used. The second result is false when nothing fits.
func AchievementYear(text string, after, notAfter int) (int, bool) {
	for _, m := range achievementPattern.FindAllStringSubmatch(text, -1) {
		y, err := strconv.Atoi(m[1])
		if err == nil && y > after && y <= notAfter {
			return y, true
		}
	}

	for _, y := range Years(text) {
		if y > after && y <= notAfter {
			return y, true
		}
	}
	return 0, false
}
