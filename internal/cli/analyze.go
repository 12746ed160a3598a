package cli

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/ppiankov/foretell/internal/model"
	"github.com/ppiankov/foretell/internal/pipeline"
)

var (
	sectors  []string
	fromYear int
	toYear   int
)

var pastCmd = &cobra.Command{
	Use:   "past <forecast-year> <target-year>",
	Short: "Flag forecasts made in one year about another",
	Long: `Past searches the trusted publishers for forecasts made around
<forecast-year> about <target-year> and flags each one EARLY, ON-TIME or
LATE from the year it was reported achieved.

Example:
  foretell past 2000 2020
  foretell past 2000 2020 --md report.md --check-citations`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		years, err := parseYears(args)
		if err != nil {
			return err
		}
		return runQuery(pipeline.Query{Kind: model.KindPastForecast, ForecastYear: years[0], TargetYear: years[1]})
	},
}

var futureCmd = &cobra.Command{
	Use:   "future <target-year> <description...>",
	Short: "Evaluate progress on a target that has not come due",
	Long: `Future searches for reported progress on a target and flags it LIKELY
EARLY, ON-TIME or LATE-RISK against the share of time already elapsed.

Example:
  foretell future 2030 500 GW renewable energy capacity`,
	Args: cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		years, err := parseYears(args[:1])
		if err != nil {
			return err
		}
		return runQuery(pipeline.Query{
			Kind:       model.KindFuture,
			TargetYear: years[0],
			Topic:      strings.Join(args[1:], " "),
		})
	},
}

var compareCmd = &cobra.Command{
	Use:   "compare <forecast-year> <target-year>",
	Short: "Score past forecasts against observed outcomes",
	Long: `Compare pairs forecasts with World Bank observations and recorded
outcomes by metric name, then scores each pair by relative difference.

Example:
  foretell compare 1975 2000
  foretell compare 1975 2000 --sector Energy --sector Economy`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		years, err := parseYears(args)
		if err != nil {
			return err
		}
		return runQuery(pipeline.Query{
			Kind:         model.KindComparison,
			ForecastYear: years[0],
			TargetYear:   years[1],
			Sectors:      sectors,
		})
	},
}

var outlookCmd = &cobra.Command{
	Use:   "outlook <target-year>",
	Short: "Estimate how likely announced targets are to be met",
	Long: `Outlook estimates the likelihood of every known target due by
<target-year>, grouped by sector, with related news cited.

Example:
  foretell outlook 2030 --sector Energy`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		years, err := parseYears(args)
		if err != nil {
			return err
		}
		return runQuery(pipeline.Query{Kind: model.KindOutlook, TargetYear: years[0], Sectors: sectors})
	},
}

var flowCmd = &cobra.Command{
	Use:   "flow <topic...>",
	Short: "Chart money amounts mentioned for a topic per year",
	Long: `Flow searches for a topic over a year range and reports the median
amount (in million units) mentioned for each year.

Example:
  foretell flow FDI inflows --from 2015 --to 2023`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runQuery(pipeline.Query{
			Kind:         model.KindMoneyFlow,
			ForecastYear: fromYear,
			TargetYear:   toYear,
			Topic:        strings.Join(args, " "),
		})
	},
}

var trendCmd = &cobra.Command{
	Use:   "trend <indicator>",
	Short: "Show a World Bank indicator over a year range",
	Long: `Trend fetches an indicator by key (GDP_GROWTH), code
(NY.GDP.MKTP.KD.ZG) or metric name (GDP Growth Rate).

Example:
  foretell trend GDP_GROWTH --from 2010 --to 2023`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		indicator := strings.Join(args, " ")
		return runQuery(pipeline.Query{
			Kind:         model.KindTrend,
			Question:     indicator,
			ForecastYear: fromYear,
			TargetYear:   toYear,
			Topic:        indicator,
		})
	},
}

var askCmd = &cobra.Command{
	Use:   "ask <question...>",
	Short: "Answer a free-form question",
	Long: `Ask maps a question onto one of the analyses by its years and keywords.

Example:
  foretell ask "What forecasts were made in 2000 about 2020?"
  foretell ask "Energy outlook for 2030"
  foretell ask "GDP growth trend 2010 2020"`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		question := strings.Join(args, " ")
		return runQuery(pipeline.ParseQuery(question, mustSectors(), time.Now().Year()))
	},
}

func init() {
	for _, cmd := range []*cobra.Command{pastCmd, futureCmd, compareCmd, outlookCmd, flowCmd, trendCmd, askCmd} {
		addRunFlags(cmd)
		rootCmd.AddCommand(cmd)
	}

	compareCmd.Flags().StringSliceVar(&sectors, "sector", nil, "limit to sectors (repeatable)")
	outlookCmd.Flags().StringSliceVar(&sectors, "sector", nil, "limit to sectors (repeatable)")

	for _, cmd := range []*cobra.Command{flowCmd, trendCmd} {
		cmd.Flags().IntVar(&fromYear, "from", 0, "first year (default: ten years before --to)")
		cmd.Flags().IntVar(&toYear, "to", 0, "last year (default: this year)")
	}
}

// parseYears parses four-digit years
func parseYears(args []string) ([]int, error) {
	years := make([]int, len(args))
	for i, a := range args {
		y, err := strconv.Atoi(a)
		if err != nil || y < 1900 || y > 2100 {
			return nil, fmt.Errorf("invalid year %q", a)
		}
		years[i] = y
	}
	return years, nil
}

// mustSectors returns the configured sector table, or the built-in one
// when the config cannot be read
func mustSectors() []model.SectorPattern {
	cfg, err := loadConfig()
	if err != nil {
		return model.DefaultSectors()
	}
	return cfg.Sectors
}
