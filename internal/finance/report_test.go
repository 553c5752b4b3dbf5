package finance

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatPercentChange(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{0, "+0.00%"},
		{50, "+50.00%"},
		{-12.5, "-12.50%"},
		{-0.001, "+0.00%"},
		{0.004, "+0.00%"},
		{3.14159, "+3.14%"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, FormatPercentChange(tt.in), "pct %v", tt.in)
	}
}

func TestFormatDollarChange(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{5, "+$5.00"},
		{-5, "-$5.00"},
		{0, "+$0.00"},
		{100, "+$100.00"},
		{-201.456, "-$201.46"},
		{1234.5, "+$1234.50"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, FormatDollarChange(tt.in), "delta %v", tt.in)
	}
}

func buildTestTable(t *testing.T) *ValuationTable {
	t.Helper()
	src := newFakeSource(seriesOf("AAPL", 50, 75), seriesOf("^GSPC", 4000, 3800))
	table, err := newTestEngine(src, AlignStrict).BuildTable(context.Background(),
		AllocationOf(Holding{"AAPL", 200}), testStart, testEnd, BenchmarkSP500)
	require.NoError(t, err)
	return table
}

func TestSummarize(t *testing.T) {
	b := NewReportBuilder(&fakeRenderer{}, zerolog.Nop())
	r, err := b.Summarize(buildTestTable(t))
	require.NoError(t, err)

	assert.NotEqual(t, uuid.Nil, r.RunID)
	assert.Equal(t, "Portfolio", r.Portfolio.Name)
	assert.Equal(t, "+50.00%", r.Portfolio.PercentChange)
	assert.Equal(t, "+$100.00", r.Portfolio.DollarChange)
	assert.Equal(t, "300.00", r.Portfolio.FinalValue.StringFixed(2))

	assert.Equal(t, "Standard & Poor's 500", r.Index.Name)
	assert.Equal(t, "-5.00%", r.Index.PercentChange)
	assert.Equal(t, "-$10.00", r.Index.DollarChange)

	require.Len(t, r.Constituents, 1)
	assert.Equal(t, "AAPL", r.Constituents[0].Name)
	assert.Equal(t, 200, r.Constituents[0].Invested)

	// two rows are too few for statistics
	assert.Nil(t, r.PortfolioRisk)
	assert.Nil(t, r.IndexRisk)

	text := r.Text()
	assert.Contains(t, text, "Portfolio: $300.00 (+$100.00, +50.00%)")
	assert.Contains(t, text, "AAPL: $300.00")
	assert.Contains(t, text, "2023-01-03 to 2023-01-04")
}

func TestSummarize_RiskStats(t *testing.T) {
	src := newFakeSource(seriesOf("AAPL", 100, 120, 90, 110), seriesOf("^GSPC", 10, 10.1, 10.2, 10.3))
	table, err := newTestEngine(src, AlignStrict).BuildTable(context.Background(),
		AllocationOf(Holding{"AAPL", 1000}), testStart, testEnd, BenchmarkSP500)
	require.NoError(t, err)

	r, err := NewReportBuilder(&fakeRenderer{}, zerolog.Nop()).Summarize(table)
	require.NoError(t, err)
	require.NotNil(t, r.PortfolioRisk)
	assert.InDelta(t, 25.0, r.PortfolioRisk.MaxDrawdown, 1e-9)
	assert.InDelta(t, 10.0, r.PortfolioRisk.TotalReturn, 1e-9)
	require.NotNil(t, r.IndexRisk)
	assert.Equal(t, 0.0, r.IndexRisk.MaxDrawdown)
	assert.Contains(t, r.Text(), "Portfolio risk:")
}

func TestSummarize_Empty(t *testing.T) {
	_, err := NewReportBuilder(&fakeRenderer{}, zerolog.Nop()).Summarize(&ValuationTable{})
	assert.Error(t, err)
}

func TestChartPayload_PassesBytesThrough(t *testing.T) {
	table := buildTestTable(t)
	img := []byte("\x89PNG opaque")
	renderer := &fakeRenderer{out: img}
	b := NewReportBuilder(renderer, zerolog.Nop())

	art, err := b.ChartPayload(context.Background(), table, ModePortfolioVsIndexDollars)
	require.NoError(t, err)
	assert.Equal(t, img, art.Data)
	assert.Equal(t, ModePortfolioVsIndexDollars, art.Mode)
	assert.Equal(t, "image/png", art.ContentType)
	assert.Equal(t, "iVBORyBvcGFxdWU=", art.Base64())

	require.Len(t, renderer.specs, 1)
	spec := renderer.specs[0]
	require.Len(t, spec.Series, 2)
	assert.Equal(t, "Portfolio", spec.Series[0].Name)
	assert.Equal(t, table.PortfolioValue, spec.Series[0].Values)
	assert.Equal(t, "S&P 500", spec.Series[1].Name)
	assert.Equal(t, []string{"Jan 03", "Jan 04"}, spec.Labels)
}

func TestChartPayload_Modes(t *testing.T) {
	table := buildTestTable(t)
	tests := []struct {
		mode   ChartMode
		values []float64
	}{
		{ModePortfolioVsIndexPercent, table.PortfolioGrowth},
		{ModeConstituentsDollars, table.Constituents[0].Value},
		{ModeConstituentsPercent, table.Constituents[0].Growth},
	}
	for _, tt := range tests {
		t.Run(tt.mode.String(), func(t *testing.T) {
			renderer := &fakeRenderer{out: []byte("x")}
			_, err := NewReportBuilder(renderer, zerolog.Nop()).ChartPayload(context.Background(), table, tt.mode)
			require.NoError(t, err)
			assert.Equal(t, tt.values, renderer.specs[0].Series[0].Values)
			assert.Equal(t, tt.mode, renderer.specs[0].Mode)
		})
	}
}

func TestChartPayload_Errors(t *testing.T) {
	table := buildTestTable(t)

	_, err := NewReportBuilder(&fakeRenderer{}, zerolog.Nop()).ChartPayload(context.Background(), table, ChartMode("pie"))
	assert.Error(t, err)

	boom := errors.New("boom")
	_, err = NewReportBuilder(&fakeRenderer{err: boom}, zerolog.Nop()).ChartPayload(context.Background(), table, ModeConstituentsDollars)
	assert.ErrorIs(t, err, boom)
}
