package finance

import (
	"context"
	"sync"
	"time"
)

// tradingDays returns n consecutive calendar days from 2023-01-03 as UTC midnights.
func tradingDays(n int) []time.Time {
	start := time.Date(2023, 1, 3, 0, 0, 0, 0, time.UTC)
	out := make([]time.Time, n)
	for i := range out {
		out[i] = start.AddDate(0, 0, i)
	}
	return out
}

func seriesOn(symbol string, dates []time.Time, closes ...float64) PriceSeries {
	pts := make([]PricePoint, len(closes))
	for i, c := range closes {
		pts[i] = PricePoint{Date: dates[i], Close: c}
	}
	return PriceSeries{Symbol: symbol, Points: pts}
}

func seriesOf(symbol string, closes ...float64) PriceSeries {
	return seriesOn(symbol, tradingDays(len(closes)), closes...)
}

type fakeSource struct {
	mu     sync.Mutex
	series map[string]PriceSeries
	fail   map[string]error
	calls  map[string]int
}

func newFakeSource(series ...PriceSeries) *fakeSource {
	f := &fakeSource{
		series: map[string]PriceSeries{},
		fail:   map[string]error{},
		calls:  map[string]int{},
	}
	for _, s := range series {
		f.series[s.Symbol] = s
	}
	return f
}

func (f *fakeSource) FetchDailyCloses(_ context.Context, symbol string, _, _ int64) (PriceSeries, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls[symbol]++
	if err, ok := f.fail[symbol]; ok {
		return PriceSeries{}, err
	}
	s, ok := f.series[symbol]
	if !ok {
		return PriceSeries{}, unavailable(symbol, "no result", nil)
	}
	return s.clone(), nil
}

func (f *fakeSource) callCount(symbol string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[symbol]
}

type fakeRenderer struct {
	specs []ChartSpec
	out   []byte
	err   error
}

func (r *fakeRenderer) Render(_ context.Context, spec ChartSpec) ([]byte, error) {
	r.specs = append(r.specs, spec)
	if r.err != nil {
		return nil, r.err
	}
	return r.out, nil
}

type eligibleSet map[string]bool

func (e eligibleSet) IsEligible(symbol string, _ time.Time) bool { return e[symbol] }

func testParams(budget int) SimulationParameters {
	return SimulationParameters{
		Budget:    budget,
		Start:     time.Date(2023, 1, 3, 0, 0, 0, 0, time.UTC),
		End:       time.Date(2023, 2, 1, 0, 0, 0, 0, time.UTC),
		Benchmark: BenchmarkSP500,
	}
}
