package pipeline

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/fatih/color"

	"github.com/ppiankov/foretell/internal/model"
)

// Renderer writes finished reports
type Renderer struct {
	includeFooter bool
}

// NewRenderer creates a renderer
func NewRenderer(includeFooter bool) *Renderer {
	return &Renderer{includeFooter: includeFooter}
}

// RenderJSON writes the report as indented JSON
func (r *Renderer) RenderJSON(report *model.Report, path string) error {
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal report: %w", err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

// RenderMarkdown writes the report as Markdown
func (r *Renderer) RenderMarkdown(report *model.Report, path string) error {
	if err := os.WriteFile(path, []byte(r.Markdown(report)), 0644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

// RenderLLMMarkdown writes a generated summary to its own file
func (r *Renderer) RenderLLMMarkdown(markdown, path string) error {
	if markdown == "" {
		return nil
	}
	if err := os.WriteFile(path, []byte(markdown), 0644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

// Markdown renders the report body
func (r *Renderer) Markdown(report *model.Report) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# Forecast Report: %s\n\n", title(report))
	fmt.Fprintf(&b, "- **Kind**: %s\n", report.Kind)
	if report.Question != "" {
		fmt.Fprintf(&b, "- **Question**: %s\n", report.Question)
	}
	fmt.Fprintf(&b, "- **Generated**: %s\n\n", report.GeneratedAt.Format("2006-01-02 15:04 MST"))

	if len(report.PastForecasts) > 0 {
		b.WriteString("## Past Forecasts\n\n")
		b.WriteString("| Status | Forecast | Source |\n|---|---|---|\n")
		for _, pf := range report.PastForecasts {
			fmt.Fprintf(&b, "| %s | %s | [%s](%s) |\n", pf.Status, escapeCell(pf.Forecast), pf.SourceTag, pf.URL)
		}
		b.WriteString("\n")
	}

	if f := report.Future; f != nil {
		b.WriteString("## Target\n\n")
		fmt.Fprintf(&b, "- **Target**: %s by %d\n", f.Description, f.TargetYear)
		if f.AnnouncedYear > 0 {
			fmt.Fprintf(&b, "- **Announced**: %d\n", f.AnnouncedYear)
		}
		fmt.Fprintf(&b, "- **Status**: %s\n", f.Status)
		fmt.Fprintf(&b, "- **Progress**: %s\n\n", f.ProgressPct)
		if len(f.Evidence) > 0 {
			b.WriteString("### Evidence\n\n")
			for _, e := range f.Evidence {
				fmt.Fprintf(&b, "- %s\n", e)
			}
			b.WriteString("\n")
		}
	}

	for _, sc := range report.Comparisons {
		fmt.Fprintf(&b, "## %s (accuracy %.0f%%)\n\n", sc.Sector, sc.Accuracy*100)
		b.WriteString("| Metric | Predicted | Actual | Status | Accuracy | Method |\n|---|---|---|---|---|---|\n")
		for _, c := range sc.Results {
			fmt.Fprintf(&b, "| %s | %s | %s | %s | %.2f | %s |\n",
				escapeCell(c.Metric), escapeCell(c.PredictedValue), escapeCell(c.ActualValue), c.Status, c.AccuracyScore, c.Method)
		}
		b.WriteString("\n")
	}

	for _, sl := range report.Outlook {
		fmt.Fprintf(&b, "## %s: %s (confidence %.0f%%)\n\n", sl.Sector, sl.Likelihood, sl.Confidence*100)
		for _, p := range sl.Predictions {
			fmt.Fprintf(&b, "- **%s** %s (now %s): %s. %s\n",
				p.Prediction.Metric, p.Prediction.TargetValue, p.Prediction.CurrentProgress, p.Likelihood, p.Reasoning)
		}
		if len(sl.Evidence) > 0 {
			b.WriteString("\nNews:\n")
			for _, e := range sl.Evidence {
				fmt.Fprintf(&b, "- %s\n", e)
			}
		}
		b.WriteString("\n")
	}

	if len(report.Series) > 0 {
		b.WriteString("## Series\n\n| Year | Value |\n|---|---|\n")
		for _, y := range sortedYears(report.Series) {
			fmt.Fprintf(&b, "| %d | %.2f |\n", y, report.Series[y])
		}
		b.WriteString("\n")
	}

	if len(report.Stats) > 0 {
		b.WriteString("## Summary\n\n")
		for _, flag := range sortedFlags(report.Stats) {
			fmt.Fprintf(&b, "- %s: %d\n", flag, report.Stats[flag])
		}
		b.WriteString("\n")
	}

	if len(report.Citations) > 0 {
		b.WriteString("## Citations\n\n")
		dead := make(map[string]bool)
		for _, lc := range report.LinkChecks {
			dead[lc.Tag] = lc.Dead
		}
		for _, c := range report.Citations {
			marker := ""
			if dead[c.Tag] {
				marker = " (dead link)"
			}
			fmt.Fprintf(&b, "- %s: %s%s\n", c.Tag, c.URL, marker)
		}
		b.WriteString("\n")
	}

	if len(report.Failures) > 0 {
		b.WriteString("## Source Failures\n\n")
		for _, f := range report.Failures {
			fmt.Fprintf(&b, "- %s\n", f)
		}
		b.WriteString("\n")
	}

	if r.includeFooter {
		b.WriteString("---\n\n")
		b.WriteString("_Flags are computed from search snippets and public indicators by fixed rules. Extraction is best-effort; check the cited sources._\n")
	}
	return b.String()
}

// RenderSummary prints a short colored digest of the report
func (r *Renderer) RenderSummary(w io.Writer, report *model.Report) {
	fmt.Fprintf(w, "\n%s\n\n", color.New(color.Bold).Sprint(title(report)))

	for _, pf := range report.PastForecasts {
		fmt.Fprintf(w, "  %s [%s] %s\n", Colorize(pf.Status), pf.SourceTag, pf.Forecast)
	}
	if f := report.Future; f != nil {
		fmt.Fprintf(w, "  %s %s by %d (progress %s)\n", Colorize(f.Status), f.Description, f.TargetYear, f.ProgressPct)
		for _, e := range f.Evidence {
			fmt.Fprintf(w, "    %s\n", e)
		}
	}
	for _, sc := range report.Comparisons {
		fmt.Fprintf(w, "  %s: accuracy %.0f%%\n", sc.Sector, sc.Accuracy*100)
		for _, c := range sc.Results {
			fmt.Fprintf(w, "    %s %s: predicted %s, actual %s\n", Colorize(c.Status), c.Metric, c.PredictedValue, c.ActualValue)
		}
	}
	for _, sl := range report.Outlook {
		fmt.Fprintf(w, "  %s %s (confidence %.0f%%)\n", Colorize(sl.Likelihood), sl.Sector, sl.Confidence*100)
		for _, p := range sl.Predictions {
			fmt.Fprintf(w, "    %s %s %s\n", Colorize(p.Likelihood), p.Prediction.Metric, p.Prediction.TargetValue)
		}
	}
	for _, y := range sortedYears(report.Series) {
		fmt.Fprintf(w, "  %d  %.2f\n", y, report.Series[y])
	}
	if len(report.Failures) > 0 {
		fmt.Fprintf(w, "\n  %s\n", color.YellowString("%d source failures (see report)", len(report.Failures)))
	}
	fmt.Fprintln(w)
}

// Colorize renders a status flag in its conventional color
func Colorize(flag model.StatusFlag) string {
	switch flag {
	case model.StatusEarly, model.StatusLikelyEarly:
		return color.GreenString(string(flag))
	case model.StatusOnTime:
		return color.CyanString(string(flag))
	case model.StatusLate, model.StatusLateRisk:
		return color.RedString(string(flag))
	default:
		return color.New(color.Faint).Sprint(string(flag))
	}
}

func title(report *model.Report) string {
	switch report.Kind {
	case model.KindPastForecast:
		return fmt.Sprintf("Forecasts made in %d about %d", report.ForecastYear, report.TargetYear)
	case model.KindFuture:
		if report.Future != nil {
			return fmt.Sprintf("%s by %d", report.Future.Description, report.TargetYear)
		}
	case model.KindComparison:
		return fmt.Sprintf("Forecasts from %d against %d outcomes", report.ForecastYear, report.TargetYear)
	case model.KindOutlook:
		return fmt.Sprintf("Outlook for %d", report.TargetYear)
	case model.KindMoneyFlow:
		return fmt.Sprintf("Money flow %d-%d", report.ForecastYear, report.TargetYear)
	case model.KindTrend:
		return fmt.Sprintf("Trend %d-%d", report.ForecastYear, report.TargetYear)
	}
	if report.Question != "" {
		return report.Question
	}
	return string(report.Kind)
}

func escapeCell(s string) string {
	return strings.ReplaceAll(s, "|", `\|`)
}

func sortedYears(series map[int]float64) []int {
	years := make([]int, 0, len(series))
	for y := range series {
		years = append(years, y)
	}
	sort.Ints(years)
	return years
}

var flagOrder = []model.StatusFlag{
	model.StatusEarly, model.StatusLikelyEarly, model.StatusOnTime,
	model.StatusLate, model.StatusLateRisk, model.StatusUnknown,
}

func sortedFlags(stats map[model.StatusFlag]int) []model.StatusFlag {
	var flags []model.StatusFlag
	for _, f := range flagOrder {
		if _, ok := stats[f]; ok {
			flags = append(flags, f)
		}
	}
	return flags
}
