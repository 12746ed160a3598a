package extract

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/ppiankov/foretell/internal/model"
)

// InrToUsdMillion is a rough fixed rupee to dollar rate applied when the
// only unit is a rupee marker. Exact FX is not attempted.
const InrToUsdMillion = 0.012

const (
	yearGroup  = `\b(?P<year>(?:19|20)\d{2})\b`
	valueGroup = `(?P<value>\d[\d,]*(?:\.\d+)?)`
	curGroup   = `(?P<cur>\$|₹|\brs\.?|\binr\b|\busd\b)?`
	scaleWords = `trillion|trn|billion|bn|million|mn|crore|lakh|cr|usd|inr|rs`
	window     = `[^\d]{0,20}?`
)

var (
	// year, short non-digit window, value, unit (or end of text)
	forwardPattern = regexp.MustCompile(`(?i)` + yearGroup + window + curGroup + `\s*` + valueGroup +
		`\s*(?P<unit>(?:` + scaleWords + `)\b|₹|\$|\z)`)

	// value and unit first, year after: "$5 trillion by 2025"
	reversePattern = regexp.MustCompile(`(?i)` + curGroup + `\s*` + valueGroup +
		`\s*(?P<unit>(?:` + scaleWords + `)\b)` + window + yearGroup)
)

// unitMultipliers convert a unit token to canonical million units
var unitMultipliers = map[string]float64{
	"trillion": 1_000_000,
	"trn":      1_000_000,
	"billion":  1_000,
	"bn":       1_000,
	"million":  1,
	"mn":       1,
	"crore":    10,
	"cr":       10,
	"lakh":     0.1,
	"usd":      1,
	"$":        1,
	"₹":        InrToUsdMillion,
	"rs":       InrToUsdMillion,
	"rs.":      InrToUsdMillion,
	"inr":      InrToUsdMillion,
	"":         1,
}

// Pairs extracts (year, value) claims from text. Values are normalised
// to million units. Text with no year or no unit yields nothing, and
// malformed numbers are skipped.
func Pairs(text string) []model.ExtractedClaim {
	var claims []model.ExtractedClaim
	var spans [][2]int

	for _, m := range forwardPattern.FindAllStringSubmatchIndex(text, -1) {
		claim, ok := buildClaim(forwardPattern, text, m)
		if !ok {
			continue
		}
		claims = append(claims, claim)
		spans = append(spans, [2]int{m[0], m[1]})
	}

	for _, m := range reversePattern.FindAllStringSubmatchIndex(text, -1) {
		if overlaps(spans, m[0], m[1]) {
			continue
		}
		claim, ok := buildClaim(reversePattern, text, m)
		if !ok {
			continue
		}
		claims = append(claims, claim)
	}

	return claims
}

func buildClaim(re *regexp.Regexp, text string, m []int) (model.ExtractedClaim, bool) {
	group := func(name string) string {
		i := re.SubexpIndex(name)
		if i < 0 || m[2*i] < 0 {
			return ""
		}
		return text[m[2*i]:m[2*i+1]]
	}

	year, err := strconv.Atoi(group("year"))
	if err != nil || year < 1900 || year > 2099 {
		return model.ExtractedClaim{}, false
	}

	value, ok := parseNumber(group("value"))
	if !ok {
		return model.ExtractedClaim{}, false
	}

	unit := strings.ToLower(strings.TrimSpace(group("unit")))
	cur := strings.ToLower(strings.TrimSpace(group("cur")))

	multiplier, known := unitMultipliers[unit]
	if !known {
		multiplier = 1
	}
	// A bare number preceded by a currency marker takes the currency's rate.
	if unit == "" && cur != "" {
		multiplier = unitMultipliers[cur]
		unit = cur
	}

	return model.ExtractedClaim{
		Year:  year,
		Value: value * multiplier,
		Unit:  unit,
		Raw:   strings.TrimSpace(text[m[0]:m[1]]),
	}, true
}

// parseNumber parses a comma-grouped decimal literal
func parseNumber(raw string) (float64, bool) {
	cleaned := strings.ReplaceAll(raw, ",", "")
	if cleaned == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

func overlaps(spans [][2]int, start, end int) bool {
	for _, s := range spans {
		if start < s[1] && s[0] < end {
			return true
		}
	}
	return false
}

// ValuesByYear groups the extracted values of many texts by year,
// keeping only years in [start, end]
func ValuesByYear(texts []string, start, end int) map[int][]float64 {
	grouped := make(map[int][]float64)
	for _, text := range texts {
		for _, c := range Pairs(text) {
			if c.Year < start || c.Year > end {
				continue
			}
			grouped[c.Year] = append(grouped[c.Year], c.Value)
		}
	}
	return grouped
}
