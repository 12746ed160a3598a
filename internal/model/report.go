package model

import "time"

// QueryKind identifies which analysis a report came from
type QueryKind string

const (
	KindPastForecast QueryKind = "past_forecast"
	KindFuture       QueryKind = "future_prediction"
	KindComparison   QueryKind = "comparison"
	KindOutlook      QueryKind = "outlook"
	KindMoneyFlow    QueryKind = "money_flow"
	KindTrend        QueryKind = "trend"
	KindUnknown      QueryKind = "unknown"
)

// Report is the complete output of one analysis call.
// Only the sections relevant to Kind are populated.
type Report struct {
	ID          string    `json:"id"`
	Kind        QueryKind `json:"kind"`
	Question    string    `json:"question,omitempty"`
	GeneratedAt time.Time `json:"generated_at"`

	ForecastYear int      `json:"forecast_year,omitempty"`
	TargetYear   int      `json:"target_year,omitempty"`
	Sectors      []string `json:"sectors,omitempty"`

	PastForecasts []PastForecast     `json:"past_forecasts,omitempty"`
	Future        *FutureTarget      `json:"future,omitempty"`
	Comparisons   []SectorComparison `json:"comparisons,omitempty"`
	Outlook       []SectorLikelihood `json:"outlook,omitempty"`
	Series        map[int]float64    `json:"series,omitempty"`
	Stats         map[StatusFlag]int `json:"stats,omitempty"`
	Citations     []Citation         `json:"citations"`
	LinkChecks    []LinkCheck        `json:"link_checks,omitempty"`
	Failures      []string           `json:"failures,omitempty"`

	LLM *LLMSummary `json:"llm,omitempty"` // never affects classification
}

// Signal carries the transparent inputs behind a computed flag
type Signal struct {
	Type        SignalType             `json:"type"`
	Severity    SignalSeverity         `json:"severity"`
	Description string                 `json:"description"`
	Data        map[string]interface{} `json:"data,omitempty"` // formulas and inputs
}

// SignalType classifies the signal
type SignalType string

const (
	SignalRelativeDifference SignalType = "relative_difference"
	SignalPolarity           SignalType = "polarity"
	SignalLikelihood         SignalType = "likelihood"
)

// SignalSeverity indicates the importance of the signal
type SignalSeverity string

const (
	SeverityInfo     SignalSeverity = "info"
	SeverityWarning  SignalSeverity = "warning"
	SeverityCritical SignalSeverity = "critical"
)

// LLMSummary contains an optional generated narrative.
// It is rendered separately and never changes a flag.
type LLMSummary struct {
	Enabled        bool     `json:"enabled"`
	Provider       string   `json:"provider,omitempty"`
	Model          string   `json:"model,omitempty"`
	StrictEvidence bool     `json:"strict_evidence"`
	SummaryMD      string   `json:"summary_md,omitempty"`
	Warnings       []string `json:"warnings,omitempty"`
}
