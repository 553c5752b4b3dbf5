package finance

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var paramsToday = time.Date(2024, 6, 10, 15, 0, 0, 0, est)

func TestNewSimulationParameters(t *testing.T) {
	p, err := NewSimulationParameters(5000, "2024-01-02", "2024-06-09", "S&P 500", paramsToday)
	require.NoError(t, err)
	assert.Equal(t, 5000, p.Budget)
	assert.Equal(t, time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC), p.Start)
	assert.Equal(t, time.Date(2024, 6, 9, 0, 0, 0, 0, time.UTC), p.End)
	assert.Equal(t, BenchmarkSP500, p.Benchmark)
	assert.Equal(t, "budget=5000 range=2024-01-02..2024-06-09 benchmark=S&P 500", p.String())
}

func TestNewSimulationParameters_Rejects(t *testing.T) {
	tests := []struct {
		name       string
		budget     int
		start, end string
		benchmark  string
	}{
		{"zero budget", 0, "2024-01-02", "2024-02-01", "DJIA"},
		{"budget too large", 1_000_001, "2024-01-02", "2024-02-01", "DJIA"},
		{"bad start format", 100, "2024/01/02", "2024-02-01", "DJIA"},
		{"bad end format", 100, "2024-01-02", "Feb 1", "DJIA"},
		{"end before start", 100, "2024-02-01", "2024-01-02", "DJIA"},
		{"same day", 100, "2024-02-01", "2024-02-01", "DJIA"},
		{"end is today", 100, "2024-06-01", "2024-06-10", "DJIA"},
		{"start within lag", 100, "2024-06-09", "2024-06-10", "DJIA"},
		{"future", 100, "2025-01-01", "2025-02-01", "DJIA"},
		{"unknown benchmark", 100, "2024-01-02", "2024-02-01", "FTSE 100"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewSimulationParameters(tt.budget, tt.start, tt.end, tt.benchmark, paramsToday)
			assert.ErrorIs(t, err, ErrMalformedParameters)
		})
	}
}

func TestParameters_LagBoundaries(t *testing.T) {
	_, err := NewSimulationParameters(1, "2024-06-08", "2024-06-09", "DJIA", paramsToday)
	assert.NoError(t, err)
	_, err = NewSimulationParameters(MaxBudget, "2024-06-07", "2024-06-08", "DJIA", paramsToday)
	assert.NoError(t, err)
}

func TestParseBenchmark(t *testing.T) {
	tests := map[string]Benchmark{
		"S&P 500":    BenchmarkSP500,
		"s&p500":     BenchmarkSP500,
		"DJIA":       BenchmarkDJIA,
		"djia":       BenchmarkDJIA,
		"NASDAQ-100": BenchmarkNasdaq100,
		"nasdaq":     BenchmarkNasdaq100,
	}
	for in, want := range tests {
		got, err := ParseBenchmark(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
}

func TestBenchmarkMappings(t *testing.T) {
	assert.Equal(t, "^GSPC", BenchmarkSP500.Ticker())
	assert.Equal(t, "^DJI", BenchmarkDJIA.Ticker())
	assert.Equal(t, "^NDX", BenchmarkNasdaq100.Ticker())
	assert.Equal(t, "Dow Jones Industrial Average", BenchmarkDJIA.DisplayName())
	assert.Equal(t, "Nasdaq-100", BenchmarkNasdaq100.DisplayName())
	assert.False(t, Benchmark(0).Valid())
	assert.Equal(t, "Benchmark(7)", Benchmark(7).String())
	assert.Len(t, Benchmarks(), 3)
}
