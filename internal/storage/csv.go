package storage

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/lysmm203/stock-market-simulator/internal/finance"
)

var tickerColumns = []string{"ticker", "first_trade_date", "company_name"}

// ReadTickersCSV parses the universe file produced by the offline scraper:
// a header naming ticker, first_trade_date (epoch seconds) and company_name in
// any order, then one row per symbol. Values are kept as written.
func ReadTickersCSV(r io.Reader) ([]finance.TickerRecord, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, errors.New("tickers csv is empty")
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	idx := map[string]int{}
	for i, h := range header {
		idx[strings.ToLower(strings.TrimSpace(h))] = i
	}
	for _, col := range tickerColumns {
		if _, ok := idx[col]; !ok {
			return nil, fmt.Errorf("tickers csv: missing column %q", col)
		}
	}

	var out []finance.TickerRecord
	for {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("tickers csv: %w", err)
		}
		line, _ := cr.FieldPos(0)
		epoch, err := parseEpoch(row[idx["first_trade_date"]])
		if err != nil {
			return nil, fmt.Errorf("tickers csv line %d: %w", line, err)
		}
		out = append(out, finance.TickerRecord{
			Symbol:          row[idx["ticker"]],
			FirstTradeEpoch: epoch,
			CompanyName:     row[idx["company_name"]],
		})
	}
	return out, nil
}

// parseEpoch accepts integer seconds and the "345479400.0" form pandas writes.
func parseEpoch(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if v, err := strconv.ParseInt(s, 10, 64); err == nil {
		return v, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("first_trade_date %q is not epoch seconds", s)
	}
	return int64(f), nil
}
