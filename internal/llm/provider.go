// Package llm produces optional narrative summaries of finished reports.
// Summaries are generated after classification and never change a flag.
package llm

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/ppiankov/foretell/internal/model"
)

// Provider defines the interface for LLM providers
type Provider interface {
	// Name returns the provider name
	Name() string

	// Summarize generates a summary of the report with strict evidence mode
	Summarize(ctx context.Context, req SummarizeRequest) (*SummarizeResponse, error)

	// IsAvailable checks if the provider is properly configured and accessible
	IsAvailable(ctx context.Context) bool
}

// SummarizeRequest contains the input for LLM summarization
type SummarizeRequest struct {
	// Report is the finished analysis to summarize
	Report model.Report

	// Citations is the only list of tags and URLs the model may cite
	Citations []model.Citation

	// Prompt is an optional custom prompt (if empty, use default)
	Prompt string

	// Model is the specific model to use (provider-specific)
	Model string

	// MaxTokens limits the response length
	MaxTokens int
}

// SummarizeResponse contains the LLM's summary output
type SummarizeResponse struct {
	Summary string

	// CitedURLs and CitedTags are what the model actually referenced
	CitedURLs []string
	CitedTags []string

	Model      string
	TokensUsed int
}

// Config holds LLM provider configuration
type Config struct {
	// Provider name: "openai", "anthropic", "ollama", ""
	Provider string

	Model   string
	APIKey  string
	BaseURL string

	// Timeout for API requests
	Timeout int // seconds

	// StrictEvidence rejects summaries citing anything outside the session list
	StrictEvidence bool

	MaxTokens int

	HTTPProxy  string
	HTTPSProxy string
	NoProxy    string

	Logger *log.Logger
}

// DefaultConfig returns the disabled configuration
func DefaultConfig() Config {
	return Config{
		Timeout:        30,
		StrictEvidence: true,
		MaxTokens:      800,
	}
}

const systemPrompt = "You summarize forecast timing reports. You only restate the computed flags and cite only the web:<n> tags you are given."

// BuildPrompt constructs the default prompt for a report
func BuildPrompt(report model.Report, citations []model.Citation) string {
	var b strings.Builder

	fmt.Fprintf(&b, `You are summarizing a forecast timing report. The flags below were computed by fixed rules; you MUST NOT change, re-grade or second-guess them.

CRITICAL RULES:
1. You MUST ONLY cite sources by the tags in this list, written as [web:<n>]:
%s

2. DO NOT write URLs, invent tags, or cite anything outside this list.
3. If evidence is thin or missing, say so explicitly.
4. Describe what sources predicted and how the outcome was classified. Never claim certainty.

Report:
- Kind: %s
`, joinCitations(citations), report.Kind)

	if report.Question != "" {
		fmt.Fprintf(&b, "- Question: %s\n", report.Question)
	}
	if report.ForecastYear != 0 {
		fmt.Fprintf(&b, "- Forecast year: %d\n", report.ForecastYear)
	}
	if report.TargetYear != 0 {
		fmt.Fprintf(&b, "- Target year: %d\n", report.TargetYear)
	}
	if len(report.LinkChecks) > 0 {
		fmt.Fprintf(&b, "- Cited links: %d accessible, %d dead/inaccessible\n",
			countAccessible(report.LinkChecks), countDead(report.LinkChecks))
	}

	b.WriteString("\nFindings:\n")
	for i, pf := range report.PastForecasts {
		if i >= 10 {
			fmt.Fprintf(&b, "- ... and %d more forecasts\n", len(report.PastForecasts)-10)
			break
		}
		fmt.Fprintf(&b, "- [%s] %s: %s\n", pf.SourceTag, pf.Status, pf.Forecast)
	}
	if f := report.Future; f != nil {
		fmt.Fprintf(&b, "- Target %q for %d: %s, progress %s\n", f.Description, f.TargetYear, f.Status, f.ProgressPct)
		for _, e := range f.Evidence {
			fmt.Fprintf(&b, "  - %s\n", e)
		}
	}
	for _, sc := range report.Comparisons {
		fmt.Fprintf(&b, "- %s: accuracy %.0f%%\n", sc.Sector, sc.Accuracy*100)
		for _, r := range sc.Results {
			fmt.Fprintf(&b, "  - %s predicted %s, actual %s: %s\n", r.Metric, r.PredictedValue, r.ActualValue, r.Status)
		}
	}
	for _, sl := range report.Outlook {
		fmt.Fprintf(&b, "- %s: %s (confidence %.0f%%)\n", sl.Sector, sl.Likelihood, sl.Confidence*100)
		for _, p := range sl.Predictions {
			fmt.Fprintf(&b, "  - %s target %s: %s\n", p.Prediction.Metric, p.Prediction.TargetValue, p.Likelihood)
		}
	}
	if len(report.Series) > 0 {
		years := make([]int, 0, len(report.Series))
		for y := range report.Series {
			years = append(years, y)
		}
		sort.Ints(years)
		fmt.Fprintf(&b, "- Series covers %d-%d (%d points)\n", years[0], years[len(years)-1], len(years))
	}

	b.WriteString("\nProvide a 3-4 sentence summary of the timing picture, citing tags inline.")
	return b.String()
}

func joinCitations(citations []model.Citation) string {
	if len(citations) == 0 {
		return "(No citations available)"
	}
	var b strings.Builder
	for i, c := range citations {
		if i >= 20 {
			fmt.Fprintf(&b, "\n... and %d more citations", len(citations)-20)
			break
		}
		fmt.Fprintf(&b, "\n- %s: %s", c.Tag, c.URL)
	}
	return b.String()
}

func countAccessible(checks []model.LinkCheck) int {
	count := 0
	for _, c := range checks {
		if c.Accessible {
			count++
		}
	}
	return count
}

func countDead(checks []model.LinkCheck) int {
	count := 0
	for _, c := range checks {
		if !c.Accessible {
			count++
		}
	}
	return count
}
