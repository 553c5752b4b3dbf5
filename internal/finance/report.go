package finance

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// ChangeSummary is the overall move of one column between the first and last row.
type ChangeSummary struct {
	Name          string
	Invested      int
	First         float64
	Last          float64
	PercentChange string
	DollarChange  string
	FinalValue    decimal.Decimal
}

// Report is what a finished run hands to the presentation layer.
type Report struct {
	RunID        uuid.UUID
	Benchmark    Benchmark
	Start        time.Time
	End          time.Time
	Portfolio    ChangeSummary
	Index        ChangeSummary
	Constituents []ChangeSummary

	// Nil when the range is too short for statistics.
	PortfolioRisk *RiskStats
	IndexRisk     *RiskStats

	Table *ValuationTable
}

// Text renders the report the way the bot sends it.
func (r *Report) Text() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Simulation %s to %s vs %s\n\n",
		r.Start.Format(DateLayout), r.End.Format(DateLayout), r.Benchmark.DisplayName())
	writeSummaryLine(&b, r.Portfolio)
	writeSummaryLine(&b, r.Index)
	if len(r.Constituents) > 0 {
		b.WriteString("\nHoldings:\n")
		for _, c := range r.Constituents {
			writeSummaryLine(&b, c)
		}
	}
	if r.PortfolioRisk != nil {
		s := r.PortfolioRisk
		fmt.Fprintf(&b, "\nPortfolio risk: vol %.2f%% | Sharpe %.2f | max drawdown %.2f%%\n",
			s.Volatility, s.SharpeRatio, s.MaxDrawdown)
	}
	if r.IndexRisk != nil {
		s := r.IndexRisk
		fmt.Fprintf(&b, "Index risk: vol %.2f%% | Sharpe %.2f | max drawdown %.2f%%\n",
			s.Volatility, s.SharpeRatio, s.MaxDrawdown)
	}
	return strings.TrimRight(b.String(), "\n")
}

func writeSummaryLine(b *strings.Builder, s ChangeSummary) {
	fmt.Fprintf(b, "%s: $%s (%s, %s)\n", s.Name, s.FinalValue.StringFixed(2), s.DollarChange, s.PercentChange)
}

// PercentChange is (last-first)/first*100.
func PercentChange(first, last float64) float64 {
	return (last - first) / first * 100
}

// FormatPercentChange renders pct with two decimals and a leading sign; zero is "+0.00%".
func FormatPercentChange(pct float64) string {
	d := decimal.NewFromFloat(pct).Round(2)
	if d.Sign() < 0 {
		return d.StringFixed(2) + "%"
	}
	return "+" + d.StringFixed(2) + "%"
}

// FormatDollarChange renders delta as "+$X.XX" or "-$X.XX".
func FormatDollarChange(delta float64) string {
	d := decimal.NewFromFloat(delta).Round(2)
	if d.Sign() < 0 {
		return "-$" + d.Abs().StringFixed(2)
	}
	return "+$" + d.StringFixed(2)
}

func summarizeColumn(name string, invested int, values []float64) (ChangeSummary, error) {
	if len(values) == 0 {
		return ChangeSummary{}, fmt.Errorf("%s: empty column", name)
	}
	first, last := values[0], values[len(values)-1]
	if first == 0 {
		return ChangeSummary{}, fmt.Errorf("%s: zero starting value", name)
	}
	return ChangeSummary{
		Name:          name,
		Invested:      invested,
		First:         first,
		Last:          last,
		PercentChange: FormatPercentChange(PercentChange(first, last)),
		DollarChange:  FormatDollarChange(last - first),
		FinalValue:    decimal.NewFromFloat(last).Round(2),
	}, nil
}

// ReportBuilder summarizes valuation tables and requests charts for them.
type ReportBuilder struct {
	renderer ChartRenderer
	log      zerolog.Logger
}

func NewReportBuilder(renderer ChartRenderer, log zerolog.Logger) *ReportBuilder {
	return &ReportBuilder{
		renderer: renderer,
		log:      log.With().Str("component", "report").Logger(),
	}
}

func (b *ReportBuilder) Summarize(t *ValuationTable) (*Report, error) {
	if t == nil || t.Len() == 0 {
		return nil, fmt.Errorf("empty valuation table")
	}
	r := &Report{
		RunID:     uuid.New(),
		Benchmark: t.Benchmark,
		Start:     t.Dates[0],
		End:       t.Dates[t.Len()-1],
		Table:     t,
	}

	var err error
	if r.Portfolio, err = summarizeColumn("Portfolio", t.Invested, t.PortfolioValue); err != nil {
		return nil, err
	}
	if r.Index, err = summarizeColumn(t.Benchmark.DisplayName(), t.Invested, t.IndexValue); err != nil {
		return nil, err
	}
	for _, c := range t.Constituents {
		s, err := summarizeColumn(c.Symbol, c.Invested, c.Value)
		if err != nil {
			return nil, err
		}
		r.Constituents = append(r.Constituents, s)
	}

	if r.PortfolioRisk, err = calculateRiskStats(t.PortfolioValue); err != nil {
		b.log.Debug().Err(err).Str("run_id", r.RunID.String()).Msg("portfolio risk stats skipped")
	}
	if r.IndexRisk, err = calculateRiskStats(t.IndexValue); err != nil {
		b.log.Debug().Err(err).Str("run_id", r.RunID.String()).Msg("index risk stats skipped")
	}

	b.log.Info().
		Str("run_id", r.RunID.String()).
		Str("portfolio", r.Portfolio.PercentChange).
		Str("index", r.Index.PercentChange).
		Int("holdings", len(r.Constituents)).
		Msg("report summarized")
	return r, nil
}

// ChartPayload renders one view of t. The renderer's bytes are returned as is.
func (b *ReportBuilder) ChartPayload(ctx context.Context, t *ValuationTable, mode ChartMode) (ChartArtifact, error) {
	var stats *RiskStats
	if t != nil && (mode == ModePortfolioVsIndexDollars || mode == ModePortfolioVsIndexPercent) {
		stats, _ = calculateRiskStats(t.PortfolioValue)
	}
	spec, err := chartSpecFor(t, mode, stats)
	if err != nil {
		return ChartArtifact{}, err
	}
	data, err := b.renderer.Render(ctx, spec)
	if err != nil {
		return ChartArtifact{}, fmt.Errorf("render %s: %w", mode, err)
	}
	return ChartArtifact{Mode: mode, ContentType: "image/png", Data: data}, nil
}
