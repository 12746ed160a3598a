package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/ppiankov/foretell/internal/llm"
	"github.com/ppiankov/foretell/internal/pipeline"
	"github.com/ppiankov/foretell/internal/worker"
)

var (
	concurrency  int
	outputDir    string
	batchTimeout time.Duration
)

// batchCmd represents the batch command
var batchCmd = &cobra.Command{
	Use:   "batch <file>",
	Short: "Answer many questions from a file in parallel",
	Long: `Batch answers questions concurrently:
- Read questions from the input file (one per line, # for comments)
- Answer them in parallel with a configurable worker count
- Share one session, so repeated searches hit the cache and
  citation tags are unique across the whole batch
- Write a JSON and Markdown report per question

Example:
  foretell batch questions.txt
  foretell batch questions.txt --concurrency 4 --output-dir ./reports`,
	Args: cobra.ExactArgs(1),
	RunE: runBatch,
}

func init() {
	rootCmd.AddCommand(batchCmd)

	batchCmd.Flags().IntVar(&concurrency, "concurrency", min(runtime.NumCPU(), 4), "number of concurrent workers")
	batchCmd.Flags().StringVar(&outputDir, "output-dir", "./foretell-reports", "output directory for reports")
	batchCmd.Flags().DurationVar(&batchTimeout, "timeout", 30*time.Minute, "total timeout for batch processing")

	batchCmd.Flags().BoolVar(&noCache, "no-cache", false, "disable cache (force fresh searches)")
	batchCmd.Flags().BoolVar(&fresh, "fresh", false, "clear the cache before running")
	batchCmd.Flags().BoolVar(&noFooter, "no-footer", false, "disable footer in Markdown reports")
	batchCmd.Flags().IntVar(&maxResults, "max-results", 0, "results kept per search (default from config)")
	batchCmd.Flags().BoolVar(&checkCitations, "check-citations", false, "check every cited URL is still reachable")

	batchCmd.Flags().BoolVar(&llmEnabled, "llm", false, "enable LLM summary generation")
	batchCmd.Flags().StringVar(&llmProvider, "llm-provider", "openai", "LLM provider (openai, anthropic, ollama)")
	batchCmd.Flags().StringVar(&llmModel, "llm-model", "gpt-4o-mini", "LLM model name")
}

func runBatch(cmd *cobra.Command, args []string) error {
	file := args[0]
	ctx, cancel := context.WithTimeout(context.Background(), batchTimeout)
	defer cancel()

	// answers arrive out of order; a spinner would interleave with them
	noProgress = true
	r, err := newRunner()
	if err != nil {
		return err
	}
	defer r.Close()

	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "  Foretell Batch Processing\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "  Input file:   %s\n", file)
	fmt.Fprintf(os.Stderr, "  Workers:      %d\n", concurrency)
	fmt.Fprintf(os.Stderr, "  Output dir:   %s\n", outputDir)
	fmt.Fprintf(os.Stderr, "  Timeout:      %v\n", batchTimeout)
	if llmEnabled {
		fmt.Fprintf(os.Stderr, "  LLM:          %s/%s\n", llmProvider, llmModel)
	}
	fmt.Fprintf(os.Stderr, "\n")

	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}

	renderer := pipeline.NewRenderer(r.cfg.Output.IncludeFooter)
	processor := worker.NewBatchProcessor(r.dashboard, concurrency)
	processor.OnDone = func(a *worker.Answer) {
		if a.Error != nil {
			fmt.Fprintf(os.Stderr, "%s %s: %v\n", color.RedString("✗"), a.Question, a.Error)
			return
		}
		fmt.Fprintf(os.Stderr, "%s %s (%s)\n", color.GreenString("✓"), a.Question, a.Report.Kind)
	}

	answers, err := processor.ProcessFile(ctx, file)
	if err != nil {
		return fmt.Errorf("process file: %w", err)
	}

	successCount := 0
	failureCount := 0
	for _, a := range answers {
		if a.Error != nil {
			failureCount++
			continue
		}

		base := filepath.Join(outputDir, fmt.Sprintf("%03d-%s", a.Index+1, sanitizeFilename(a.Question)))
		if err := renderer.RenderJSON(a.Report, base+".json"); err != nil {
			fmt.Fprintf(os.Stderr, "✗ %s: failed to write JSON: %v\n", a.Question, err)
			failureCount++
			continue
		}
		if err := renderer.RenderMarkdown(a.Report, base+".md"); err != nil {
			fmt.Fprintf(os.Stderr, "✗ %s: failed to write Markdown: %v\n", a.Question, err)
			failureCount++
			continue
		}
		if a.Report.LLM != nil && a.Report.LLM.Enabled {
			if err := renderer.RenderLLMMarkdown(llm.RenderSeparateMarkdown(a.Report.LLM), base+".llm.md"); err != nil {
				fmt.Fprintf(os.Stderr, "✗ %s: failed to write LLM summary: %v\n", a.Question, err)
			}
		}
		successCount++
	}

	if err := os.WriteFile(filepath.Join(outputDir, "citations.txt"), []byte(r.dashboard.RenderCitations()+"\n"), 0644); err != nil {
		return fmt.Errorf("write citations: %w", err)
	}

	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "  Batch Complete\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "  Total:     %d questions\n", len(answers))
	fmt.Fprintf(os.Stderr, "  Success:   %d\n", successCount)
	fmt.Fprintf(os.Stderr, "  Failures:  %d\n", failureCount)
	fmt.Fprintf(os.Stderr, "  Output:    %s\n", outputDir)
	fmt.Fprintf(os.Stderr, "\n")

	return nil
}

// sanitizeFilename turns a question into a short file-safe slug
func sanitizeFilename(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	var b strings.Builder
	dash := false
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			dash = false
		case !dash && b.Len() > 0:
			b.WriteByte('-')
			dash = true
		}
	}

	out := strings.TrimSuffix(b.String(), "-")
	if len(out) > 60 {
		out = strings.TrimSuffix(out[:60], "-")
	}
	if out == "" {
		out = "question"
	}
	return out
}
