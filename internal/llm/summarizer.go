package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/ppiankov/foretell/internal/model"
)

// Summarizer wraps a provider and degrades to warnings on failure
type Summarizer struct {
	provider Provider
	config   Config
}

// NewSummarizer creates a summarizer. A disabled config yields a
// summarizer whose IsEnabled is false.
func NewSummarizer(config Config) (*Summarizer, error) {
	provider, err := NewProvider(config)
	if err != nil {
		return nil, err
	}
	return &Summarizer{provider: provider, config: config}, nil
}

// IsEnabled reports whether a provider is configured
func (s *Summarizer) IsEnabled() bool {
	return s != nil && s.provider != nil
}

// ProviderName returns the configured provider, or ""
func (s *Summarizer) ProviderName() string {
	if !s.IsEnabled() {
		return ""
	}
	return s.provider.Name()
}

// GenerateSummary summarizes a finished report. Provider failures and
// citation leaks are returned as warnings in the summary, never as errors.
func (s *Summarizer) GenerateSummary(ctx context.Context, report model.Report) (*model.LLMSummary, error) {
	if !s.IsEnabled() {
		return nil, nil
	}

	summary := &model.LLMSummary{
		Provider:       s.provider.Name(),
		Model:          s.config.Model,
		StrictEvidence: s.config.StrictEvidence,
	}

	if !s.provider.IsAvailable(ctx) {
		summary.Warnings = append(summary.Warnings,
			fmt.Sprintf("LLM provider %s is not available", s.provider.Name()))
		return summary, nil
	}
	summary.Enabled = true

	resp, err := s.provider.Summarize(ctx, SummarizeRequest{
		Report:    report,
		Citations: report.Citations,
		Model:     s.config.Model,
		MaxTokens: s.config.MaxTokens,
	})
	if err != nil {
		summary.Warnings = append(summary.Warnings, fmt.Sprintf("LLM summary generation failed: %v", err))
		return summary, nil
	}

	if resp.Model != "" {
		summary.Model = resp.Model
	}
	summary.SummaryMD = resp.Summary
	summary.Warnings = append(summary.Warnings, fmt.Sprintf("Tokens used: %d", resp.TokensUsed))
	if s.config.StrictEvidence {
		summary.Warnings = append(summary.Warnings,
			fmt.Sprintf("Verified %d citations against the session list", len(resp.CitedTags)+len(resp.CitedURLs)))
	}
	return summary, nil
}

// RenderSeparateMarkdown renders a summary for its own file, apart from
// the computed report
func RenderSeparateMarkdown(summary *model.LLMSummary) string {
	if summary == nil || !summary.Enabled {
		return ""
	}

	var b strings.Builder
	b.WriteString("# LLM Summary\n\n")
	b.WriteString("> **GENERATED CONTENT.** Status flags in the main report were determined independently by fixed rules; this text does not change them.\n\n")
	fmt.Fprintf(&b, "- **Provider**: %s\n", summary.Provider)
	if summary.Model != "" {
		fmt.Fprintf(&b, "- **Model**: %s\n", summary.Model)
	}
	fmt.Fprintf(&b, "- **Strict Evidence Mode**: %t\n\n", summary.StrictEvidence)

	if summary.SummaryMD == "" {
		b.WriteString("_No summary generated._\n")
	} else {
		b.WriteString(summary.SummaryMD)
		b.WriteString("\n")
	}

	if len(summary.Warnings) > 0 {
		b.WriteString("\n## Notes\n\n")
		for _, w := range summary.Warnings {
			fmt.Fprintf(&b, "- %s\n", w)
		}
	}
	return b.String()
}
