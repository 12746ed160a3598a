package model

// StatusFlag is the timing classification of a target
type StatusFlag string

const (
	StatusEarly       StatusFlag = "EARLY"
	StatusOnTime      StatusFlag = "ON-TIME"
	StatusLate        StatusFlag = "LATE"
	StatusLikelyEarly StatusFlag = "LIKELY EARLY"
	StatusLateRisk    StatusFlag = "LATE-RISK"
	StatusUnknown     StatusFlag = "UNKNOWN"
)

// Prospective reports whether the flag belongs to the forward-looking set
func (s StatusFlag) Prospective() bool {
	return s == StatusLikelyEarly || s == StatusLateRisk
}

// Weight maps a likelihood flag onto the sector aggregation scale
func (s StatusFlag) Weight() float64 {
	switch s {
	case StatusLikelyEarly, StatusEarly:
		return 1
	case StatusLateRisk, StatusLate:
		return -1
	default:
		return 0
	}
}

// ExtractedClaim is a (year, value) pair pulled out of free text.
// Value is expressed in canonical million units.
type ExtractedClaim struct {
	Year  int     `json:"year"`
	Value float64 `json:"value"`
	Unit  string  `json:"unit,omitempty"`
	Raw   string  `json:"raw,omitempty"`
}

// UnitClass is the kind of quantity a value expresses. Values of
// different classes cannot be compared numerically.
type UnitClass string

const (
	UnitNone     UnitClass = ""
	UnitPercent  UnitClass = "percent"
	UnitQuantity UnitClass = "quantity"
)

// Comparable reports whether values of the two classes can be scored
// against each other. An unknown class is comparable with anything.
func (u UnitClass) Comparable(other UnitClass) bool {
	return u == UnitNone || other == UnitNone || u == other
}

// ForecastEntry is a predicted metric value attributed to a source
type ForecastEntry struct {
	Metric         string    `json:"metric"`
	PredictedValue string    `json:"predicted_value"`
	Unit           UnitClass `json:"unit,omitempty"`
	Source         string    `json:"source"`
	SourceTag      string    `json:"source_tag,omitempty"`
	Confidence     string    `json:"confidence,omitempty"`
	Year           int       `json:"year,omitempty"`
	Score          float64   `json:"-"`
}

// ActualEntry is an observed metric value attributed to a source
type ActualEntry struct {
	Metric      string    `json:"metric"`
	ActualValue string    `json:"actual_value"`
	Unit        UnitClass `json:"unit,omitempty"`
	Source      string    `json:"source"`
	SourceTag   string    `json:"source_tag,omitempty"`
}

// ComparisonMethod records which scoring path produced a flag
type ComparisonMethod string

const (
	MethodNumeric     ComparisonMethod = "numeric"
	MethodQualitative ComparisonMethod = "qualitative"
)

// ComparisonResult is the outcome of scoring one matched forecast
type ComparisonResult struct {
	Metric         string           `json:"metric"`
	PredictedValue string           `json:"predicted_value"`
	ActualValue    string           `json:"actual_value"`
	Source         string           `json:"source,omitempty"`
	Status         StatusFlag       `json:"status"`
	AccuracyScore  float64          `json:"accuracy_score"`
	Analysis       string           `json:"analysis"`
	Method         ComparisonMethod `json:"method"`
	Similarity     float64          `json:"similarity,omitempty"`
	Signal         Signal           `json:"signal"`
}

// SectorComparison groups comparison results for one sector
type SectorComparison struct {
	Sector   string             `json:"sector"`
	Results  []ComparisonResult `json:"results"`
	Accuracy float64            `json:"accuracy"`
}

// Prediction is a forward-looking target with its latest progress reading
type Prediction struct {
	Metric           string `json:"metric"`
	TargetValue      string `json:"target_value"`
	CurrentProgress  string `json:"current_progress"`
	Source           string `json:"source"`
	AnnouncementDate string `json:"announcement_date,omitempty"`
}

// LikelihoodResult is the estimator's verdict for a single prediction
type LikelihoodResult struct {
	Prediction      Prediction `json:"prediction"`
	Likelihood      StatusFlag `json:"likelihood"`
	Confidence      float64    `json:"confidence"`
	Reasoning       string     `json:"reasoning"`
	RiskFactors     []string   `json:"risk_factors"`
	PositiveFactors []string   `json:"positive_factors"`
	ProgressRatio   *float64   `json:"progress_ratio,omitempty"`
	Signal          Signal     `json:"signal"`
}

// SectorLikelihood aggregates likelihood results for one sector
type SectorLikelihood struct {
	Sector      string             `json:"sector"`
	Predictions []LikelihoodResult `json:"predictions"`
	Likelihood  StatusFlag         `json:"likelihood"`
	Confidence  float64            `json:"confidence"`
	Evidence    []string           `json:"evidence,omitempty"`
}
