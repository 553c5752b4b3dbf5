package finance

import (
	"fmt"
	"strings"
	"time"
)

// chartSpecFor picks the columns for mode out of t.
func chartSpecFor(t *ValuationTable, mode ChartMode, stats *RiskStats) (ChartSpec, error) {
	if t == nil || t.Len() == 0 {
		return ChartSpec{}, fmt.Errorf("empty valuation table")
	}
	spec := ChartSpec{Mode: mode, Labels: dateLabels(t.Dates)}
	period := t.Dates[0].Format(DateLayout) + " to " + t.Dates[t.Len()-1].Format(DateLayout)

	switch mode {
	case ModePortfolioVsIndexDollars:
		spec.Title = "Portfolio vs " + t.Benchmark.DisplayName() + " ($)"
		spec.Series = []ChartSeries{
			{Name: "Portfolio", Values: t.PortfolioValue},
			{Name: t.Benchmark.Label(), Values: t.IndexValue},
		}
	case ModePortfolioVsIndexPercent:
		spec.Title = "Portfolio vs " + t.Benchmark.DisplayName() + " (%)"
		spec.Series = []ChartSeries{
			{Name: "Portfolio", Values: t.PortfolioGrowth},
			{Name: t.Benchmark.Label(), Values: t.IndexGrowth},
		}
	case ModeConstituentsDollars:
		spec.Title = "Holdings ($)"
		for _, c := range t.Constituents {
			spec.Series = append(spec.Series, ChartSeries{Name: c.Symbol, Values: c.Value})
		}
	case ModeConstituentsPercent:
		spec.Title = "Holdings (%)"
		for _, c := range t.Constituents {
			spec.Series = append(spec.Series, ChartSeries{Name: c.Symbol, Values: c.Growth})
		}
	default:
		return ChartSpec{}, fmt.Errorf("unknown chart mode %q", mode)
	}

	if stats != nil && (mode == ModePortfolioVsIndexDollars || mode == ModePortfolioVsIndexPercent) {
		spec.Subtitle = fmt.Sprintf("%s | Return: %.2f%% | Sharpe: %.2f | Vol: %.2f%% | MaxDD: %.2f%%",
			period, stats.TotalReturn, stats.SharpeRatio, stats.Volatility, stats.MaxDrawdown)
	} else {
		names := make([]string, 0, len(spec.Series))
		for _, s := range spec.Series {
			names = append(names, s.Name)
		}
		spec.Subtitle = period + " | " + strings.Join(names, ", ")
	}
	return spec, nil
}

func dateLabels(dates []time.Time) []string {
	layout := "Jan 02"
	if len(dates) > 60 {
		layout = "Jan '06"
	}
	out := make([]string, len(dates))
	for i, d := range dates {
		out[i] = d.Format(layout)
	}
	return out
}
