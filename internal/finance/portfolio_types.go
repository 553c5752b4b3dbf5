package finance

import "time"

// ConstituentColumn is one portfolio symbol's curves.
type ConstituentColumn struct {
	Symbol   string
	Invested int
	Value    []float64
	Growth   []float64
}

// ValuationTable holds the aligned per-day numbers for one run. Row 0 is the
// first trading day of the range and anchors every growth column at 100.
type ValuationTable struct {
	Dates           []time.Time
	PortfolioValue  []float64
	IndexValue      []float64
	PortfolioGrowth []float64
	IndexGrowth     []float64
	Constituents    []ConstituentColumn

	Benchmark Benchmark
	Invested  int
}

// TableRow is one trading day across every column. Constituent values follow
// the order of ValuationTable.Constituents.
type TableRow struct {
	Date              time.Time
	PortfolioValue    float64
	IndexValue        float64
	PortfolioGrowth   float64
	IndexGrowth       float64
	ConstituentValues []float64
}

func (t *ValuationTable) Len() int { return len(t.Dates) }

func (t *ValuationTable) Symbols() []string {
	out := make([]string, len(t.Constituents))
	for i, c := range t.Constituents {
		out[i] = c.Symbol
	}
	return out
}

func (t *ValuationTable) Constituent(symbol string) (ConstituentColumn, bool) {
	for _, c := range t.Constituents {
		if c.Symbol == symbol {
			return c, true
		}
	}
	return ConstituentColumn{}, false
}

func (t *ValuationTable) Row(i int) TableRow {
	vals := make([]float64, len(t.Constituents))
	for j, c := range t.Constituents {
		vals[j] = c.Value[i]
	}
	return TableRow{
		Date:              t.Dates[i],
		PortfolioValue:    t.PortfolioValue[i],
		IndexValue:        t.IndexValue[i],
		PortfolioGrowth:   t.PortfolioGrowth[i],
		IndexGrowth:       t.IndexGrowth[i],
		ConstituentValues: vals,
	}
}

func (t *ValuationTable) Rows() []TableRow {
	out := make([]TableRow, t.Len())
	for i := range out {
		out[i] = t.Row(i)
	}
	return out
}
