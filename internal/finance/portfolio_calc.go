package finance

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat"
)

const tradingDaysPerYear = 252.0

// growthCurve normalizes closes to 100 at day 0.
func growthCurve(symbol string, closes []float64) ([]float64, error) {
	if len(closes) == 0 {
		return nil, unavailable(symbol, "empty series", nil)
	}
	p0 := closes[0]
	if p0 == 0 || math.IsNaN(p0) || math.IsInf(p0, 0) {
		return nil, unavailable(symbol, fmt.Sprintf("unusable day-0 close %v", p0), nil)
	}
	out := make([]float64, len(closes))
	for i, p := range closes {
		g := p / p0 * 100
		if math.IsNaN(g) || math.IsInf(g, 0) {
			return nil, unavailable(symbol, fmt.Sprintf("invalid growth on day %d: %v", i, g), nil)
		}
		out[i] = g
	}
	return out, nil
}

// valueCurve scales a growth curve to dollars; day 0 equals invested exactly.
func valueCurve(growth []float64, invested int) []float64 {
	out := make([]float64, len(growth))
	amt := float64(invested)
	for i, g := range growth {
		out[i] = g * amt / 100
	}
	return out
}

// RiskStats summarizes a value curve. Percent fields are already multiplied by 100.
type RiskStats struct {
	TotalReturn  float64
	AnnualReturn float64
	Volatility   float64
	SharpeRatio  float64
	MaxDrawdown  float64
	NumDays      int
}

// calculateRiskStats uses sample volatility of daily returns, geometric annualization
// over 252 trading days and a zero risk-free rate.
func calculateRiskStats(values []float64) (*RiskStats, error) {
	if len(values) < 3 {
		return nil, fmt.Errorf("need at least 2 return observations, have %d values", len(values))
	}
	initial, final := values[0], values[len(values)-1]
	if initial <= 0 {
		return nil, fmt.Errorf("non-positive initial value %f", initial)
	}

	returns := make([]float64, len(values)-1)
	for i := 1; i < len(values); i++ {
		if values[i-1] > 0 {
			returns[i-1] = (values[i] - values[i-1]) / values[i-1]
		}
	}

	dailyVol := stat.StdDev(returns, nil)
	annualVol := dailyVol * math.Sqrt(tradingDaysPerYear)

	years := float64(len(returns)) / tradingDaysPerYear
	var annualReturn float64
	if final > 0 {
		annualReturn = math.Pow(final/initial, 1/years) - 1
	}

	var sharpe float64
	if annualVol > 0 {
		sharpe = annualReturn / annualVol
	}

	stats := &RiskStats{
		TotalReturn:  (final - initial) / initial * 100,
		AnnualReturn: annualReturn * 100,
		Volatility:   annualVol * 100,
		SharpeRatio:  sharpe,
		MaxDrawdown:  calculateMaxDrawdown(values) * 100,
		NumDays:      len(values),
	}
	for name, v := range map[string]float64{
		"total return":  stats.TotalReturn,
		"annual return": stats.AnnualReturn,
		"volatility":    stats.Volatility,
		"sharpe ratio":  stats.SharpeRatio,
		"max drawdown":  stats.MaxDrawdown,
	} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, fmt.Errorf("invalid %s: %f", name, v)
		}
	}
	return stats, nil
}

// calculateMaxDrawdown returns the largest peak-to-trough decline as a fraction.
func calculateMaxDrawdown(values []float64) float64 {
	if len(values) < 2 {
		return 0
	}
	maxDrawdown := 0.0
	peak := 0.0
	for _, v := range values {
		if v > peak {
			peak = v
		}
		if peak > 0 && v >= 0 {
			if dd := (peak - v) / peak; dd > maxDrawdown {
				maxDrawdown = dd
			}
		}
	}
	return maxDrawdown
}
