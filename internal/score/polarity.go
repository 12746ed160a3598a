package score

import (
	"regexp"
	"strings"
)

// Polarity scores text on [-1, 1] with a small achievement lexicon.
// Negators flip the next scored word and intensifiers scale it.
type Polarity struct {
	lexicon      map[string]float64
	negators     map[string]bool
	intensifiers map[string]float64
}

var wordPattern = regexp.MustCompile(`[a-z]+(?:-[a-z]+)?`)

// NewPolarity creates a scorer with the built-in lexicon
func NewPolarity() *Polarity {
	return &Polarity{
		lexicon: map[string]float64{
			"achieved": 0.6, "accomplished": 0.6, "exceeded": 0.8, "surpassed": 0.8,
			"ahead": 0.5, "early": 0.4, "success": 0.7, "successful": 0.7,
			"strong": 0.4, "robust": 0.5, "high": 0.2, "growth": 0.2,
			"improved": 0.5, "improvement": 0.5, "record": 0.4, "met": 0.4,
			"completed": 0.5, "good": 0.5, "great": 0.7, "better": 0.4,
			"universal": 0.3, "full": 0.3, "increase": 0.2, "increased": 0.2,
			"rising": 0.2, "expanded": 0.3, "boost": 0.3, "on-track": 0.4,
			"delayed": -0.6, "delay": -0.5, "missed": -0.7, "shortfall": -0.6,
			"behind": -0.5, "slow": -0.4, "slowdown": -0.5, "weak": -0.4,
			"low": -0.2, "decline": -0.5, "declined": -0.5, "failed": -0.8,
			"failure": -0.8, "lag": -0.4, "lagging": -0.4, "stalled": -0.6,
			"poor": -0.6, "bad": -0.6, "worse": -0.5, "partial": -0.3,
			"short": -0.3, "fell": -0.4, "crisis": -0.6, "setback": -0.5,
		},
		negators: map[string]bool{
			"not": true, "no": true, "never": true, "without": true, "hardly": true,
		},
		intensifiers: map[string]float64{
			"very": 1.3, "highly": 1.3, "significantly": 1.4, "largely": 1.2,
			"slightly": 0.6, "somewhat": 0.7, "extremely": 1.5,
		},
	}
}

// Score returns the mean polarity of the scored words in text, or 0 when
// no lexicon word occurs
func (p *Polarity) Score(text string) float64 {
	words := wordPattern.FindAllString(strings.ToLower(text), -1)

	total := 0.0
	scored := 0
	negate := false
	scale := 1.0

	for _, w := range words {
		if p.negators[w] {
			negate = true
			continue
		}
		if m, ok := p.intensifiers[w]; ok {
			scale *= m
			continue
		}
		v, ok := p.lexicon[w]
		if !ok {
			continue
		}
		v *= scale
		if negate {
			v = -v * 0.5
		}
		total += v
		scored++
		negate = false
		scale = 1.0
	}

	if scored == 0 {
		return 0
	}
	avg := total / float64(scored)
	if avg > 1 {
		return 1
	}
	if avg < -1 {
		return -1
	}
	return avg
}
