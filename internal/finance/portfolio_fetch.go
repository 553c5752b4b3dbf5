package finance

import (
	"context"
	"fmt"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"
)

// AlignmentPolicy says how a series is mapped onto the reference timeline
// set by the first portfolio symbol.
type AlignmentPolicy string

const (
	// AlignStrict requires exactly the reference trading days.
	AlignStrict AlignmentPolicy = "strict"
	// AlignForwardFill carries the last close forward onto reference days the series lacks,
	// and ignores days the reference does not have.
	AlignForwardFill AlignmentPolicy = "ffill"
)

func ParseAlignmentPolicy(s string) (AlignmentPolicy, error) {
	switch AlignmentPolicy(strings.ToLower(strings.TrimSpace(s))) {
	case "", AlignStrict:
		return AlignStrict, nil
	case AlignForwardFill, "forward-fill":
		return AlignForwardFill, nil
	default:
		return "", fmt.Errorf("unknown alignment policy %q", s)
	}
}

// alignCloses returns the closes of s on each reference day.
func alignCloses(ref []time.Time, s PriceSeries, policy AlignmentPolicy) ([]float64, error) {
	if policy == AlignForwardFill {
		return forwardFill(ref, s)
	}
	if len(s.Points) != len(ref) {
		return nil, unavailable(s.Symbol,
			fmt.Sprintf("misaligned series: %d trading days, reference has %d", len(s.Points), len(ref)), nil)
	}
	for i, p := range s.Points {
		if !p.Date.Equal(ref[i]) {
			return nil, unavailable(s.Symbol,
				fmt.Sprintf("misaligned series: day %d is %s, reference has %s",
					i, p.Date.Format(DateLayout), ref[i].Format(DateLayout)), nil)
		}
	}
	return s.Closes(), nil
}

func forwardFill(ref []time.Time, s PriceSeries) ([]float64, error) {
	out := make([]float64, len(ref))
	j := 0
	var last float64
	have := false
	for i, day := range ref {
		for j < len(s.Points) && !s.Points[j].Date.After(day) {
			last = s.Points[j].Close
			have = true
			j++
		}
		if !have {
			return nil, unavailable(s.Symbol,
				fmt.Sprintf("no close on or before %s", day.Format(DateLayout)), nil)
		}
		out[i] = last
	}
	return out, nil
}

// fetchAll fetches every symbol concurrently and returns the series in input order.
// The first failure cancels the rest.
func fetchAll(ctx context.Context, src PriceSource, symbols []string, startEpoch, endEpoch int64) ([]PriceSeries, error) {
	out := make([]PriceSeries, len(symbols))
	g, gctx := errgroup.WithContext(ctx)
	for i, symbol := range symbols {
		i, symbol := i, symbol
		g.Go(func() error {
			s, err := src.FetchDailyCloses(gctx, symbol, startEpoch, endEpoch)
			if err != nil {
				return err
			}
			if s.Len() == 0 {
				return unavailable(symbol, "empty series", nil)
			}
			s.Symbol = symbol
			out[i] = s
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}
