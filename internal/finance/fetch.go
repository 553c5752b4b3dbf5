package finance

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

func preview(body []byte) string {
	s := string(body)
	if len(s) > 120 {
		s = s[:120]
	}
	return s
}

// decodeChart turns a v8 chart body into a PriceSeries, rejecting anything that is not
// a usable, strictly increasing, non-empty daily series.
func decodeChart(symbol string, body []byte, loc *time.Location) (PriceSeries, error) {
	trimmed := strings.TrimSpace(string(body))
	if trimmed == "" {
		return PriceSeries{}, unavailable(symbol, "empty response body", nil)
	}
	if strings.HasPrefix(trimmed, "<") || strings.HasPrefix(trimmed, "Edge:") {
		return PriceSeries{}, unavailable(symbol, "non-json body: "+preview(body), nil)
	}

	var yc yahooChartResp
	if err := json.Unmarshal(body, &yc); err != nil {
		return PriceSeries{}, unavailable(symbol, "parse json", err)
	}
	if yc.Chart.Error != nil {
		return PriceSeries{}, unavailable(symbol, fmt.Sprintf("provider error %s: %s", yc.Chart.Error.Code, yc.Chart.Error.Description), nil)
	}
	if len(yc.Chart.Result) == 0 {
		return PriceSeries{}, unavailable(symbol, "no result", nil)
	}
	res := yc.Chart.Result[0]
	if len(res.Indicators.Quote) == 0 {
		return PriceSeries{}, unavailable(symbol, "no quote indicators", nil)
	}
	closes := res.Indicators.Quote[0].Close
	if len(res.Timestamp) != len(closes) {
		return PriceSeries{}, unavailable(symbol,
			fmt.Sprintf("timestamp/close length mismatch: %d vs %d", len(res.Timestamp), len(closes)), nil)
	}

	points := dropNullCloses(res.Timestamp, closes, loc)
	if len(points) == 0 {
		return PriceSeries{}, unavailable(symbol, "no closes in range", nil)
	}
	if err := checkIncreasing(points); err != nil {
		return PriceSeries{}, unavailable(symbol, err.Error(), nil)
	}
	return PriceSeries{Symbol: symbol, Points: points}, nil
}
