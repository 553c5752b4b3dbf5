package finance

import (
	"fmt"
	"strings"
	"time"
)

// Benchmark is the closed set of indices a portfolio can be compared against.
type Benchmark int

const (
	BenchmarkSP500 Benchmark = iota + 1
	BenchmarkDJIA
	BenchmarkNasdaq100
)

var benchmarkLabels = map[Benchmark]string{
	BenchmarkSP500:     "S&P 500",
	BenchmarkDJIA:      "DJIA",
	BenchmarkNasdaq100: "NASDAQ-100",
}

var benchmarkTickers = map[Benchmark]string{
	BenchmarkSP500:     "^GSPC",
	BenchmarkDJIA:      "^DJI",
	BenchmarkNasdaq100: "^NDX",
}

var benchmarkNames = map[Benchmark]string{
	BenchmarkSP500:     "Standard & Poor's 500",
	BenchmarkDJIA:      "Dow Jones Industrial Average",
	BenchmarkNasdaq100: "Nasdaq-100",
}

// Benchmarks lists every supported benchmark in display order.
func Benchmarks() []Benchmark {
	return []Benchmark{BenchmarkSP500, BenchmarkDJIA, BenchmarkNasdaq100}
}

// ParseBenchmark resolves a user-facing label. Matching ignores case and spacing;
// "NASDAQ" is accepted as the short form of NASDAQ-100.
func ParseBenchmark(label string) (Benchmark, error) {
	norm := normalizeLabel(label)
	for _, b := range Benchmarks() {
		if normalizeLabel(b.Label()) == norm {
			return b, nil
		}
	}
	if norm == "NASDAQ" {
		return BenchmarkNasdaq100, nil
	}
	return 0, fmt.Errorf("%w: unknown benchmark %q", ErrMalformedParameters, label)
}

func normalizeLabel(s string) string {
	return strings.ToUpper(strings.Join(strings.Fields(s), ""))
}

func (b Benchmark) Valid() bool {
	_, ok := benchmarkLabels[b]
	return ok
}

func (b Benchmark) Label() string { return benchmarkLabels[b] }

// Ticker is the quote-provider symbol for the index.
func (b Benchmark) Ticker() string { return benchmarkTickers[b] }

func (b Benchmark) DisplayName() string { return benchmarkNames[b] }

func (b Benchmark) String() string {
	if !b.Valid() {
		return fmt.Sprintf("Benchmark(%d)", int(b))
	}
	return b.Label()
}

const (
	MinBudget = 1
	MaxBudget = 1_000_000

	// Daily closes settle after the session, so the range must trail today.
	startLagDays = 2
	endLagDays   = 1
)

// SimulationParameters is fixed for the lifetime of one run.
type SimulationParameters struct {
	Budget    int
	Start     time.Time // calendar date, UTC midnight
	End       time.Time // calendar date, UTC midnight
	Benchmark Benchmark
}

// NewSimulationParameters validates user input. today is the current time in the market location.
func NewSimulationParameters(budget int, start, end, benchmark string, today time.Time) (SimulationParameters, error) {
	if budget < MinBudget || budget > MaxBudget {
		return SimulationParameters{}, fmt.Errorf("%w: budget %d outside %d..%d", ErrMalformedParameters, budget, MinBudget, MaxBudget)
	}
	startDate, err := ParseDate(strings.TrimSpace(start))
	if err != nil {
		return SimulationParameters{}, fmt.Errorf("%w: start date %q is not YYYY-MM-DD", ErrMalformedParameters, start)
	}
	endDate, err := ParseDate(strings.TrimSpace(end))
	if err != nil {
		return SimulationParameters{}, fmt.Errorf("%w: end date %q is not YYYY-MM-DD", ErrMalformedParameters, end)
	}
	bm, err := ParseBenchmark(benchmark)
	if err != nil {
		return SimulationParameters{}, err
	}

	p := SimulationParameters{Budget: budget, Start: startDate, End: endDate, Benchmark: bm}
	if err := p.validateRange(today); err != nil {
		return SimulationParameters{}, err
	}
	return p, nil
}

func (p SimulationParameters) validateRange(today time.Time) error {
	if !p.End.After(p.Start) {
		return fmt.Errorf("%w: end date %s is not after start date %s",
			ErrMalformedParameters, p.End.Format(DateLayout), p.Start.Format(DateLayout))
	}
	day := civilDate(today)
	if latest := day.AddDate(0, 0, -startLagDays); p.Start.After(latest) {
		return fmt.Errorf("%w: start date %s must be on or before %s",
			ErrMalformedParameters, p.Start.Format(DateLayout), latest.Format(DateLayout))
	}
	if latest := day.AddDate(0, 0, -endLagDays); p.End.After(latest) {
		return fmt.Errorf("%w: end date %s must be on or before %s",
			ErrMalformedParameters, p.End.Format(DateLayout), latest.Format(DateLayout))
	}
	return nil
}

func (p SimulationParameters) String() string {
	return fmt.Sprintf("budget=%d range=%s..%s benchmark=%s",
		p.Budget, p.Start.Format(DateLayout), p.End.Format(DateLayout), p.Benchmark)
}
