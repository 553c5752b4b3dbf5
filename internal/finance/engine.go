package finance

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
)

// ValuationEngine turns an allocation and a date range into a ValuationTable.
type ValuationEngine struct {
	source PriceSource
	loc    *time.Location
	policy AlignmentPolicy
	log    zerolog.Logger
}

func NewValuationEngine(source PriceSource, loc *time.Location, policy AlignmentPolicy, log zerolog.Logger) *ValuationEngine {
	if loc == nil {
		loc = getEasternTime()
	}
	if policy == "" {
		policy = AlignStrict
	}
	return &ValuationEngine{
		source: source,
		loc:    loc,
		policy: policy,
		log:    log.With().Str("component", "valuation").Logger(),
	}
}

// BuildFromSession values a completed session.
func (e *ValuationEngine) BuildFromSession(ctx context.Context, s *AllocationSession) (*ValuationTable, error) {
	alloc, err := s.Allocations()
	if err != nil {
		return nil, err
	}
	p := s.Parameters()
	return e.BuildTable(ctx, alloc, p.Start, p.End, p.Benchmark)
}

// BuildTable fetches every allocated symbol and the benchmark, then derives the
// per-day value and growth columns. The first allocated symbol's trading days
// are the table's rows. Any fetch or alignment failure aborts with no table.
func (e *ValuationEngine) BuildTable(ctx context.Context, alloc Allocation, start, end time.Time, benchmark Benchmark) (*ValuationTable, error) {
	if alloc.Len() == 0 {
		return nil, fmt.Errorf("%w: no holdings to value", ErrInvalidAllocation)
	}
	for _, h := range alloc.Holdings() {
		if h.Amount <= 0 {
			return nil, fmt.Errorf("%w: %s has non-positive amount %d", ErrInvalidAllocation, h.Symbol, h.Amount)
		}
	}
	if !benchmark.Valid() {
		return nil, fmt.Errorf("%w: unknown benchmark %d", ErrMalformedParameters, int(benchmark))
	}
	if !end.After(start) {
		return nil, fmt.Errorf("%w: end %s is not after start %s",
			ErrMalformedParameters, end.Format(DateLayout), start.Format(DateLayout))
	}

	symbols := alloc.Symbols()
	fetch := append(append(make([]string, 0, len(symbols)+1), symbols...), benchmark.Ticker())
	startEpoch, endEpoch := EpochAt(start, e.loc), EpochAt(end, e.loc)

	started := time.Now()
	series, err := fetchAll(ctx, e.source, fetch, startEpoch, endEpoch)
	if err != nil {
		e.log.Warn().Err(err).Strs("symbols", fetch).Msg("fetch failed, no table built")
		return nil, err
	}

	ref := series[0].Dates()
	table := &ValuationTable{
		Dates:          ref,
		PortfolioValue: make([]float64, len(ref)),
		Benchmark:      benchmark,
		Invested:       alloc.Total(),
	}

	for i, symbol := range symbols {
		closes, err := alignCloses(ref, series[i], e.policy)
		if err != nil {
			return nil, err
		}
		growth, err := growthCurve(symbol, closes)
		if err != nil {
			return nil, err
		}
		invested := alloc.Amount(symbol)
		value := valueCurve(growth, invested)
		for d, v := range value {
			table.PortfolioValue[d] += v
		}
		table.Constituents = append(table.Constituents, ConstituentColumn{
			Symbol:   symbol,
			Invested: invested,
			Value:    value,
			Growth:   growth,
		})
	}

	table.PortfolioGrowth = make([]float64, len(ref))
	for d, v := range table.PortfolioValue {
		table.PortfolioGrowth[d] = v / table.PortfolioValue[0] * 100
	}

	idx := series[len(series)-1]
	closes, err := alignCloses(ref, idx, e.policy)
	if err != nil {
		return nil, err
	}
	table.IndexGrowth, err = growthCurve(idx.Symbol, closes)
	if err != nil {
		return nil, err
	}
	table.IndexValue = valueCurve(table.IndexGrowth, table.Invested)

	e.log.Info().
		Strs("symbols", symbols).
		Str("benchmark", benchmark.Ticker()).
		Str("policy", string(e.policy)).
		Int("rows", table.Len()).
		Dur("took", time.Since(started)).
		Msg("valuation table built")
	return table, nil
}
