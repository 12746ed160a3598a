package pipeline

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ppiankov/foretell/internal/model"
)

func TestCompareForecasts_RecordedOutcome(t *testing.T) {
	d := newTestDashboard(t, &fakeSearcher{})

	got := d.CompareForecasts(context.Background(), 1975, 2000, []string{"Energy"})

	require.Len(t, got, 1)
	assert.Equal(t, "Energy", got[0].Sector)
	require.Len(t, got[0].Results, 1)

	r := got[0].Results[0]
	assert.Equal(t, "Power Generation Capacity", r.Metric)
	assert.Equal(t, "100 GW", r.PredictedValue)
	assert.Equal(t, "86 GW", r.ActualValue)
	assert.Equal(t, model.StatusOnTime, r.Status)
	assert.Equal(t, model.MethodNumeric, r.Method)
	assert.InDelta(t, 0.86, r.AccuracyScore, 1e-9)
	assert.InDelta(t, 1.0, r.Similarity, 1e-9)
	assert.InDelta(t, 0.86, got[0].Accuracy, 1e-9)
}

func TestCompareForecasts_ObservationWinsTie(t *testing.T) {
	d := newTestDashboard(t, &fakeSearcher{})

	got := d.CompareForecasts(context.Background(), 1975, 2000, []string{"Economy"})

	require.Len(t, got, 1)
	require.Len(t, got[0].Results, 1)
	r := got[0].Results[0]

	// the World Bank reading comes before the recorded 5.9%
	assert.Equal(t, "3.8%", r.ActualValue)
	assert.Equal(t, model.StatusLate, r.Status)
	assert.Equal(t, "web:1: https://data.worldbank.org/indicator/NY.GDP.MKTP.KD.ZG?locations=IND", d.RenderCitations())
}

func TestCompareForecasts_SkipsIncomparableUnits(t *testing.T) {
	backend := &fakeSearcher{hits: map[string][]model.SearchResult{
		"India Economy 1975 forecast 2000": {
			pib("g1", "Plan outlook", "The growth rate plan says by 2000 output of $500 billion."),
		},
	}}
	d := newTestDashboard(t, backend)

	pattern, ok := d.config.Sector("Economy")
	require.True(t, ok)
	entries := d.forecastEntries(context.Background(), pattern, 1975, 2000, nil)
	require.Len(t, entries, 2)
	assert.Equal(t, "growth rate", entries[1].Metric)

	got := d.CompareForecasts(context.Background(), 1975, 2000, []string{"Economy"})

	// the amount cannot be scored against a growth percentage, so only
	// the recorded rate forecast is compared
	require.Len(t, got, 1)
	require.Len(t, got[0].Results, 1)
	r := got[0].Results[0]
	assert.Equal(t, "GDP Growth Rate", r.Metric)
	assert.Equal(t, "6.5% annually", r.PredictedValue)
	assert.Equal(t, "3.8%", r.ActualValue)
	assert.InDelta(t, 1-2.7/6.5, got[0].Accuracy, 1e-9)
}

func TestCompareForecasts_NothingToCompare(t *testing.T) {
	d := newTestDashboard(t, &fakeSearcher{})

	assert.Empty(t, d.CompareForecasts(context.Background(), 1990, 2010, nil))
}

func TestForecastEntries_FromSearch(t *testing.T) {
	backend := &fakeSearcher{hits: map[string][]model.SearchResult{
		"India Energy 1975 forecast 2000": {
			pib("e1", "Electricity plan", "Electricity demand by 2000 of 95 million units is expected."),
			pib("e2", "Unrelated", "Cricket in 2000 drew 5 million fans."),
		},
	}}
	d := newTestDashboard(t, backend)
	pattern, ok := d.config.Sector("Energy")
	require.True(t, ok)

	got := d.forecastEntries(context.Background(), pattern, 1975, 2000, nil)

	require.Len(t, got, 2)
	assert.Equal(t, "Power Generation Capacity", got[0].Metric)
	assert.Equal(t, model.ForecastEntry{
		Metric:         "electricity",
		PredictedValue: "95 million",
		Unit:           model.UnitQuantity,
		Source:         "pib.gov.in",
		SourceTag:      "web:1",
		Confidence:     "high",
		Year:           2000,
	}, got[1])
}

func TestMetricIn(t *testing.T) {
	terms := []string{"power generation", "solar", "IT sector"}
	tests := []struct {
		text string
		want string
	}{
		{"Power generation rose in 2000", "power generation"},
		{"Solar parks expanded", "solar"},
		{"Solaris is a film", ""},
		{"The IT-sector boom", "IT sector"},
		{"", ""},
	}
	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			assert.Equal(t, tt.want, metricIn(tt.text, terms))
		})
	}
}

func TestFormatObservation(t *testing.T) {
	assert.Equal(t, "3.8%", formatObservation("NY.GDP.MKTP.KD.ZG", 3.8))
	assert.Equal(t, "21.4%", formatObservation("EG.FEC.RNEW.ZS", 21.43))
	assert.Equal(t, "1234.57 million", formatObservation("NY.GDP.MKTP.CD", 1_234_567_890))
	assert.Equal(t, "71.20", formatObservation("SP.DYN.LE00.IN", 71.2))
}

func TestAnalyzeFuture(t *testing.T) {
	d := newTestDashboard(t, &fakeSearcher{})

	got := d.AnalyzeFuture(context.Background(), 2030, []string{"Energy"})

	require.Len(t, got, 1)
	sl := got[0]
	assert.Equal(t, "Energy", sl.Sector)
	require.Len(t, sl.Predictions, 1)
	assert.Equal(t, "Renewable Energy Capacity", sl.Predictions[0].Prediction.Metric)
	assert.NotEmpty(t, sl.Likelihood)
	assert.Greater(t, sl.Confidence, 0.0)
	assert.Equal(t, []string{"web:1: Renewable capacity additions hit a record"}, sl.Evidence)
}

func TestAnalyzeFuture_AllSectors(t *testing.T) {
	d := newTestDashboard(t, &fakeSearcher{})

	got := d.AnalyzeFuture(context.Background(), 2030, nil)

	var sectors []string
	for _, sl := range got {
		sectors = append(sectors, sl.Sector)
	}
	assert.Equal(t, []string{"Economy", "Energy", "Infrastructure"}, sectors)
}

func TestAnalyzeFuture_NothingDue(t *testing.T) {
	d := newTestDashboard(t, &fakeSearcher{})

	assert.Empty(t, d.AnalyzeFuture(context.Background(), 2026, nil))
}
