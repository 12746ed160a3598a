package extract

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/ppiankov/foretell/internal/model"
)

var (
	parenYearPattern = regexp.MustCompile(`\(\s*(?:19|20)\d{2}\s*\)`)
	numberPattern    = regexp.MustCompile(`\d+(?:\.\d+)?`)
	percentPattern   = regexp.MustCompile(`(\d{1,3})%`)
	perCentPattern   = regexp.MustCompile(`(?i)%|\bper\s?cent\b`)

	// scaleWordPattern matches one magnitude word at the start of the
	// remaining text. Single letters only count glued to or spaced from
	// the number, never inside a word such as "didn't".
	scaleWordPattern = regexp.MustCompile(`(?i)^\s*(thousand|lakh|million|crore|billion|trillion|trn|mn|bn|cr|k|m|b|t)\b`)

	// scaleFactors are absolute multipliers for each magnitude word
	scaleFactors = map[string]float64{
		"thousand": 1e3, "k": 1e3,
		"lakh":    1e5,
		"million": 1e6, "mn": 1e6, "m": 1e6,
		"crore": 1e7, "cr": 1e7,
		"billion": 1e9, "bn": 1e9, "b": 1e9,
		"trillion": 1e12, "trn": 1e12, "t": 1e12,
	}
)

// Numeric reads the leading quantity of a value string such as
// "$3.7 Trillion (2024)" or "200,000 km" and scales it to million units
// when magnitude words follow the number. Compound magnitudes such as
// "2 lakh crore" multiply. Parenthesised years are ignored.
func Numeric(text string) (float64, bool) {
	if strings.TrimSpace(text) == "" {
		return 0, false
	}

	cleaned := parenYearPattern.ReplaceAllString(text, " ")
	cleaned = strings.NewReplacer("%", "", "$", "", "₹", "", ",", "").Replace(cleaned)

	loc := numberPattern.FindStringIndex(cleaned)
	if loc == nil {
		return 0, false
	}
	value, err := strconv.ParseFloat(cleaned[loc[0]:loc[1]], 64)
	if err != nil {
		return 0, false
	}

	rest := cleaned[loc[1]:]
	factor, scaled := 1.0, false
	for {
		m := scaleWordPattern.FindStringSubmatch(rest)
		if m == nil {
			break
		}
		factor *= scaleFactors[strings.ToLower(m[1])]
		scaled = true
		rest = rest[len(m[0]):]
	}
	if !scaled {
		return value, true
	}
	return value * (factor / 1e6), true
}

// UnitClassOf classifies a value string as a percentage or a quantity.
// Text without a number has no class.
func UnitClassOf(text string) model.UnitClass {
	if !numberPattern.MatchString(text) {
		return model.UnitNone
	}
	if perCentPattern.MatchString(text) {
		return model.UnitPercent
	}
	return model.UnitQuantity
}

// ProgressPercent returns the first "NN%" reading in [0, 100] across texts
func ProgressPercent(texts ...string) (float64, bool) {
	for _, text := range texts {
		for _, m := range percentPattern.FindAllStringSubmatch(text, -1) {
			pct, err := strconv.Atoi(m[1])
			if err != nil {
				continue
			}
			if pct >= 0 && pct <= 100 {
				return float64(pct), true
			}
		}
	}
	return 0, false
}
