package finance

import (
	"fmt"
	"math"
	"time"
)

// dropNullCloses pairs timestamps with closes, skipping bars the provider left null.
// Trading-calendar gaps are kept as they come; nothing is filled in.
func dropNullCloses(ts []int64, cl []*float64, loc *time.Location) []PricePoint {
	out := make([]PricePoint, 0, len(ts))
	for i := 0; i < len(ts) && i < len(cl); i++ {
		if cl[i] == nil {
			continue
		}
		out = append(out, PricePoint{Date: barDate(ts[i], loc), Close: *cl[i]})
	}
	return out
}

// checkIncreasing requires strictly increasing trading days and finite closes.
func checkIncreasing(points []PricePoint) error {
	for i, p := range points {
		if math.IsNaN(p.Close) || math.IsInf(p.Close, 0) {
			return fmt.Errorf("non-finite close on %s", p.Date.Format(DateLayout))
		}
		if p.Close < 0 {
			return fmt.Errorf("negative close %f on %s", p.Close, p.Date.Format(DateLayout))
		}
		if i > 0 && !p.Date.After(points[i-1].Date) {
			return fmt.Errorf("dates not increasing at %s", p.Date.Format(DateLayout))
		}
	}
	return nil
}
