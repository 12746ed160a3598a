package score

import (
	"math"
	"testing"

	"github.com/ppiankov/foretell/internal/model"
)

func approx(a, b float64) bool {
	return math.Abs(a-b) < 1e-6
}

func TestScorer_Compare_Numeric(t *testing.T) {
	tests := []struct {
		desc      string
		predicted string
		actual    string
		want      model.StatusFlag
		accuracy  float64
		analysis  string
	}{
		{
			desc:      "within tolerance",
			predicted: "100 GW",
			actual:    "86 GW",
			want:      model.StatusOnTime,
			accuracy:  0.86,
			analysis:  "Prediction was accurate within 15% tolerance",
		},
		{
			desc:      "percentages",
			predicted: "6.5% annually",
			actual:    "5.9% annually",
			want:      model.StatusOnTime,
			accuracy:  1 - 0.6/6.5,
			analysis:  "Prediction was accurate within 15% tolerance",
		},
		{
			desc:      "fell short with magnitude words",
			predicted: "$5 Trillion",
			actual:    "$3.7 Trillion (2024)",
			want:      model.StatusLate,
			accuracy:  0.74,
			analysis:  "Actual outcome fell short of prediction by 26.0%",
		},
		{
			desc:      "exceeded",
			predicted: "100",
			actual:    "130",
			want:      model.StatusEarly,
			accuracy:  0.7,
			analysis:  "Actual outcome exceeded prediction by 30.0%",
		},
		{
			desc:      "accuracy floors at zero",
			predicted: "10",
			actual:    "35",
			want:      model.StatusEarly,
			accuracy:  0,
			analysis:  "Actual outcome exceeded prediction by 250.0%",
		},
	}

	scorer := NewScorer(0, 0)
	for _, tt := range tests {
		t.Run(tt.desc, func(t *testing.T) {
			got := scorer.Compare(
				model.ForecastEntry{Metric: "m", PredictedValue: tt.predicted},
				model.ActualEntry{Metric: "m", ActualValue: tt.actual},
			)
			if got.Status != tt.want {
				t.Errorf("Expected %s, got %s", tt.want, got.Status)
			}
			if !approx(got.AccuracyScore, tt.accuracy) {
				t.Errorf("Expected accuracy %.4f, got %.4f", tt.accuracy, got.AccuracyScore)
			}
			if got.Analysis != tt.analysis {
				t.Errorf("Expected analysis %q, got %q", tt.analysis, got.Analysis)
			}
			if got.Method != model.MethodNumeric {
				t.Errorf("Expected numeric method, got %s", got.Method)
			}
			if got.Signal.Data["formula"] == nil {
				t.Error("Expected signal to record the formula")
			}
		})
	}
}

func TestScorer_Compare_SignalInputs(t *testing.T) {
	got := NewScorer(0, 0).Compare(
		model.ForecastEntry{PredictedValue: "100 GW"},
		model.ActualEntry{ActualValue: "86 GW"},
	)

	if got.Signal.Type != model.SignalRelativeDifference {
		t.Errorf("Expected relative difference signal, got %s", got.Signal.Type)
	}
	d, ok := got.Signal.Data["d"].(float64)
	if !ok || !approx(d, 0.14) {
		t.Errorf("Expected d=0.14, got %v", got.Signal.Data["d"])
	}
}

func TestScorer_Compare_CustomTolerance(t *testing.T) {
	got := NewScorer(0.3, 0).Compare(
		model.ForecastEntry{PredictedValue: "$5 Trillion"},
		model.ActualEntry{ActualValue: "$3.7 Trillion"},
	)
	if got.Status != model.StatusOnTime {
		t.Errorf("Expected ON-TIME with 30%% tolerance, got %s", got.Status)
	}
	if got.Analysis != "Prediction was accurate within 30% tolerance" {
		t.Errorf("Unexpected analysis: %q", got.Analysis)
	}
}

func TestRelativeDifference_ZeroPrediction(t *testing.T) {
	if d := RelativeDifference(0, 5); d != 1 {
		t.Errorf("Expected 1 for zero prediction, got %f", d)
	}
	if d := RelativeDifference(0, 0); d != 0 {
		t.Errorf("Expected 0 when both zero, got %f", d)
	}
}

func TestScorer_Compare_Qualitative(t *testing.T) {
	tests := []struct {
		desc      string
		predicted string
		actual    string
		want      model.StatusFlag
	}{
		{"same sentiment", "strong growth", "strong growth", model.StatusOnTime},
		{"worse outcome", "universal literacy", "partial literacy, delayed", model.StatusLate},
		{"better outcome", "slow rollout", "exceeded expectations", model.StatusEarly},
		{"missing actual", "universal literacy", "", model.StatusUnknown},
		{"missing prediction", "", "achieved", model.StatusUnknown},
	}

	scorer := NewScorer(0, 0)
	for _, tt := range tests {
		t.Run(tt.desc, func(t *testing.T) {
			got := scorer.Compare(
				model.ForecastEntry{PredictedValue: tt.predicted},
				model.ActualEntry{ActualValue: tt.actual},
			)
			if got.Status != tt.want {
				t.Errorf("Expected %s, got %s", tt.want, got.Status)
			}
			if got.Method != model.MethodQualitative {
				t.Errorf("Expected qualitative method, got %s", got.Method)
			}
			if got.AccuracyScore != 0 {
				t.Errorf("Expected zero accuracy for qualitative comparison, got %f", got.AccuracyScore)
			}
			if got.Analysis != "Comparison based on qualitative assessment" {
				t.Errorf("Unexpected analysis: %q", got.Analysis)
			}
		})
	}
}

func TestScorer_Compare_IncomparableUnits(t *testing.T) {
	scorer := NewScorer(0, 0)
	got := scorer.Compare(
		model.ForecastEntry{PredictedValue: "500000 million", Unit: model.UnitQuantity},
		model.ActualEntry{ActualValue: "3.8%", Unit: model.UnitPercent},
	)
	if got.Method != model.MethodQualitative {
		t.Errorf("Expected qualitative method for mixed units, got %s", got.Method)
	}
	if got.AccuracyScore != 0 {
		t.Errorf("Expected zero accuracy for mixed units, got %f", got.AccuracyScore)
	}
}

func TestPolarity_Score(t *testing.T) {
	p := NewPolarity()

	tests := []struct {
		text string
		want float64
	}{
		{"", 0},
		{"the plan", 0},
		{"achieved", 0.6},
		{"not achieved", -0.3},
		{"very strong", 0.52},
		{"strong but delayed", -0.1},
	}

	for _, tt := range tests {
		if got := p.Score(tt.text); !approx(got, tt.want) {
			t.Errorf("Score(%q) = %f, want %f", tt.text, got, tt.want)
		}
	}
}

func TestSectorAccuracy(t *testing.T) {
	if got := SectorAccuracy(nil); got != 0 {
		t.Errorf("Expected 0 for no results, got %f", got)
	}

	results := []model.ComparisonResult{
		{AccuracyScore: 0.86},
		{AccuracyScore: 0.74},
		{AccuracyScore: 0},
	}
	if got := SectorAccuracy(results); !approx(got, 0.5333333333) {
		t.Errorf("Expected mean 0.5333, got %f", got)
	}
}

func TestAccuracyStats(t *testing.T) {
	sectors := []model.SectorComparison{
		{Sector: "Economy", Results: []model.ComparisonResult{
			{Status: model.StatusOnTime},
			{Status: model.StatusLate},
		}},
		{Sector: "Energy", Results: []model.ComparisonResult{
			{Status: model.StatusOnTime},
			{Status: model.StatusEarly},
			{Status: model.StatusUnknown},
		}},
	}

	stats := AccuracyStats(sectors)
	want := map[model.StatusFlag]int{
		model.StatusEarly:   1,
		model.StatusOnTime:  2,
		model.StatusLate:    1,
		model.StatusUnknown: 1,
	}
	for flag, n := range want {
		if stats[flag] != n {
			t.Errorf("Expected %d %s, got %d", n, flag, stats[flag])
		}
	}
}
