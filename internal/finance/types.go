package finance

import (
	"context"
	"time"
)

// yahooChartResp mirrors Yahoo v8 chart response (trimmed to needed fields).
// Close entries are pointers because the provider reports missing bars as null.
type yahooChartResp struct {
	Chart struct {
		Result []struct {
			Meta struct {
				Symbol   string `json:"symbol"`
				Timezone string `json:"exchangeTimezoneName"`
			} `json:"meta"`
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					Close []*float64 `json:"close"`
				} `json:"quote"`
			} `json:"indicators"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

// PricePoint is one daily close. Date is the trading day at UTC midnight.
type PricePoint struct {
	Date  time.Time
	Close float64
}

// PriceSeries is the ordered daily closes of one symbol; dates strictly increase.
type PriceSeries struct {
	Symbol string
	Points []PricePoint
}

func (s PriceSeries) Len() int { return len(s.Points) }

func (s PriceSeries) Dates() []time.Time {
	out := make([]time.Time, len(s.Points))
	for i, p := range s.Points {
		out[i] = p.Date
	}
	return out
}

func (s PriceSeries) Closes() []float64 {
	out := make([]float64, len(s.Points))
	for i, p := range s.Points {
		out[i] = p.Close
	}
	return out
}

func (s PriceSeries) clone() PriceSeries {
	pts := make([]PricePoint, len(s.Points))
	copy(pts, s.Points)
	return PriceSeries{Symbol: s.Symbol, Points: pts}
}

// PriceSource fetches daily closes for one symbol over an inclusive epoch-second range.
type PriceSource interface {
	FetchDailyCloses(ctx context.Context, symbol string, startEpoch, endEpoch int64) (PriceSeries, error)
}
