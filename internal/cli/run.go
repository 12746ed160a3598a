package cli

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/fatih/color"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/ppiankov/foretell/internal/cache"
	"github.com/ppiankov/foretell/internal/llm"
	"github.com/ppiankov/foretell/internal/model"
	"github.com/ppiankov/foretell/internal/pipeline"
	"github.com/ppiankov/foretell/internal/search"
	"github.com/ppiankov/foretell/internal/session"
)

var (
	outJSON        string
	outMD          string
	timeout        time.Duration
	noCache        bool
	fresh          bool
	noFooter       bool
	noProgress     bool
	maxResults     int
	checkCitations bool
	llmEnabled     bool
	llmProvider    string
	llmModel       string
)

// addRunFlags registers the flags shared by every analysis command
func addRunFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&outJSON, "json", "", "output JSON path (optional)")
	cmd.Flags().StringVar(&outMD, "md", "", "output Markdown path (optional)")
	cmd.Flags().DurationVar(&timeout, "timeout", 5*time.Minute, "overall timeout")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable cache (force fresh searches)")
	cmd.Flags().BoolVar(&fresh, "fresh", false, "clear the cache before running")
	cmd.Flags().BoolVar(&noFooter, "no-footer", false, "disable footer in Markdown reports")
	cmd.Flags().BoolVar(&noProgress, "no-progress", false, "hide the search progress spinner")
	cmd.Flags().IntVar(&maxResults, "max-results", 0, "results kept per search (default from config)")
	cmd.Flags().BoolVar(&checkCitations, "check-citations", false, "check every cited URL is still reachable")

	cmd.Flags().BoolVar(&llmEnabled, "llm", false, "enable LLM summary generation")
	cmd.Flags().StringVar(&llmProvider, "llm-provider", "openai", "LLM provider (openai, anthropic, ollama)")
	cmd.Flags().StringVar(&llmModel, "llm-model", "gpt-4o-mini", "LLM model name")
}

// runner owns the dashboard and resources for one command invocation
type runner struct {
	cfg       *model.Config
	logger    *log.Logger
	dashboard *pipeline.Dashboard
	bar       *progressbar.ProgressBar
	closers   []func() error
}

func newRunner() (*runner, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	if maxResults > 0 {
		cfg.Search.MaxResults = maxResults
	}
	if noCache {
		cfg.Cache.Enabled = false
	}
	if noFooter {
		cfg.Output.IncludeFooter = false
	}
	if !cfg.Output.Color {
		color.NoColor = true
	}

	r := &runner{cfg: cfg, logger: newLogger(cfg)}

	sess, err := r.openSession()
	if err != nil {
		r.Close()
		return nil, err
	}

	opts := []pipeline.Option{pipeline.WithLogger(r.logger)}
	if checkCitations {
		opts = append(opts, pipeline.WithLinkChecks())
	}
	if llmEnabled {
		summarizer, err := r.newSummarizer()
		if err != nil {
			r.Close()
			return nil, err
		}
		opts = append(opts, pipeline.WithSummarizer(summarizer))
	}
	if !noProgress && !verbose {
		r.bar = newSpinner("searching")
		opts = append(opts, pipeline.WithProgress(r.progress))
	}

	r.dashboard = pipeline.New(cfg, sess, opts...)
	r.logger.Debug("session started", "id", sess.ID, "cache", cfg.Cache.Enabled, "domains", len(cfg.Search.Domains))
	return r, nil
}

// openSession builds the session over the configured cache. With
// --fresh the session is reset first, emptying the persistent tier.
func (r *runner) openSession() (*session.Session, error) {
	store, err := r.openStore()
	if err != nil {
		return nil, err
	}

	sess := session.New(store, r.cfg.Cache.TTL, r.logger)
	if fresh {
		if err := sess.Reset(); err != nil {
			return nil, fmt.Errorf("reset session: %w", err)
		}
		r.logger.Debug("cache cleared before run", "path", r.cfg.Cache.Path)
	}
	return sess, nil
}

// openStore returns no cache when caching is disabled, memory only, or
// memory in front of SQLite when a cache path is configured
func (r *runner) openStore() (cache.Cache, error) {
	if !r.cfg.Cache.Enabled {
		return nil, nil
	}

	memory := cache.NewMemoryCache(r.cfg.Cache.TTL, 10*time.Minute)
	if r.cfg.Cache.Path == "" {
		return memory, nil
	}

	disk, err := cache.OpenSQLite(r.cfg.Cache.Path, r.cfg.Cache.TTL)
	if err != nil {
		return nil, fmt.Errorf("open cache: %w", err)
	}
	r.closers = append(r.closers, disk.Close)
	return cache.NewLayeredCache(memory, disk), nil
}

func (r *runner) newSummarizer() (*llm.Summarizer, error) {
	r.cfg.LLM.Provider = llmProvider
	r.cfg.LLM.Model = llmModel
	r.cfg.LLM.StrictEvidence = true

	llmConfig := llm.ConfigFromModel(r.cfg.LLM, r.cfg.HTTP, r.logger)
	if err := llm.ApplyEnv(&llmConfig); err != nil {
		return nil, err
	}
	summarizer, err := llm.NewSummarizer(llmConfig)
	if err != nil {
		return nil, fmt.Errorf("initialize LLM provider: %w", err)
	}
	return summarizer, nil
}

func (r *runner) progress(d search.DomainResult) {
	desc := "searched " + d.Domain
	if d.Err != nil {
		desc = color.YellowString("failed " + d.Domain)
	}
	r.bar.Describe(desc)
	_ = r.bar.Add(1)
}

// Close finishes the spinner and releases the cache
func (r *runner) Close() {
	if r.bar != nil {
		_ = r.bar.Finish()
		fmt.Fprintln(os.Stderr)
	}
	for _, c := range r.closers {
		if err := c(); err != nil {
			r.logger.Warn("close failed", "err", err)
		}
	}
}

func newSpinner(description string) *progressbar.ProgressBar {
	return progressbar.NewOptions(-1,
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionSetDescription(color.CyanString(description)),
		progressbar.OptionSpinnerType(14),
		progressbar.OptionSetWidth(20),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionShowCount(),
		progressbar.OptionSetItsString("domains"),
		progressbar.OptionClearOnFinish(),
	)
}

// runQuery executes one query and writes every requested output
func runQuery(q pipeline.Query) error {
	r, err := newRunner()
	if err != nil {
		return err
	}
	defer r.Close()

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	report, err := r.dashboard.Run(ctx, q)
	if r.bar != nil {
		_ = r.bar.Finish()
		r.bar = nil
	}
	if err != nil {
		return fmt.Errorf("%s failed: %w", q.Kind, err)
	}
	return r.output(report)
}

func (r *runner) output(report *model.Report) error {
	renderer := pipeline.NewRenderer(r.cfg.Output.IncludeFooter)
	renderer.RenderSummary(os.Stdout, report)

	if citations := r.dashboard.RenderCitations(); citations != "" {
		fmt.Println(color.New(color.Bold).Sprint("Citations"))
		fmt.Println(citations)
		fmt.Println()
	}

	if outJSON != "" {
		if err := renderer.RenderJSON(report, outJSON); err != nil {
			return fmt.Errorf("render failed: %w", err)
		}
		fmt.Fprintf(os.Stderr, "✓ Wrote %s\n", outJSON)
	}
	if outMD != "" {
		if err := renderer.RenderMarkdown(report, outMD); err != nil {
			return fmt.Errorf("render failed: %w", err)
		}
		fmt.Fprintf(os.Stderr, "✓ Wrote %s\n", outMD)

		if report.LLM != nil && report.LLM.Enabled {
			llmPath := strings.TrimSuffix(outMD, ".md") + ".llm.md"
			if err := renderer.RenderLLMMarkdown(llm.RenderSeparateMarkdown(report.LLM), llmPath); err != nil {
				return fmt.Errorf("render failed: %w", err)
			}
			fmt.Fprintf(os.Stderr, "✓ Wrote %s\n", llmPath)
		}
	}
	return nil
}
