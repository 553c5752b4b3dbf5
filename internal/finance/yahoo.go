package finance

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

const defaultYahooBaseURL = "https://query1.finance.yahoo.com"

// YahooClient is the MarketDataClient: one chart request per symbol and range, no retries.
type YahooClient struct {
	baseURL string
	client  *http.Client
	loc     *time.Location
	log     zerolog.Logger
}

func NewYahooClient(baseURL string, timeout time.Duration, loc *time.Location, log zerolog.Logger) *YahooClient {
	if baseURL == "" {
		baseURL = defaultYahooBaseURL
	}
	if loc == nil {
		loc = getEasternTime()
	}
	return &YahooClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
		loc:     loc,
		log:     log.With().Str("client", "yahoo").Logger(),
	}
}

func (c *YahooClient) chartURL(symbol string, startEpoch, endEpoch int64) string {
	params := url.Values{}
	params.Set("period1", strconv.FormatInt(startEpoch, 10))
	params.Set("period2", strconv.FormatInt(endEpoch, 10))
	params.Set("interval", "1d")
	params.Set("events", "history")
	params.Set("includeAdjustedClose", "true")
	return c.baseURL + "/v8/finance/chart/" + url.PathEscape(symbol) + "?" + params.Encode()
}

// FetchDailyCloses returns the daily closes of symbol between the two epoch bounds.
// Every failure is a *DataUnavailableError naming the symbol.
func (c *YahooClient) FetchDailyCloses(ctx context.Context, symbol string, startEpoch, endEpoch int64) (PriceSeries, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.chartURL(symbol, startEpoch, endEpoch), nil)
	if err != nil {
		return PriceSeries{}, unavailable(symbol, "build request", err)
	}
	req.Header.Set("User-Agent", "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.4 Safari/605.1.15")
	req.Header.Set("Accept", "application/json, text/javascript, */*; q=0.01")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")
	req.Header.Set("Referer", fmt.Sprintf("https://finance.yahoo.com/quote/%s/history", strings.ToUpper(symbol)))

	started := time.Now()
	resp, err := c.client.Do(req)
	if err != nil {
		return PriceSeries{}, unavailable(symbol, "request failed", err)
	}
	body, readErr := io.ReadAll(resp.Body)
	resp.Body.Close()
	if readErr != nil {
		return PriceSeries{}, unavailable(symbol, "read response", readErr)
	}
	if resp.StatusCode == http.StatusTooManyRequests || strings.HasPrefix(string(body), "Edge: Too Many Requests") {
		return PriceSeries{}, unavailable(symbol, "rate limited (429)", nil)
	}
	if resp.StatusCode != http.StatusOK {
		return PriceSeries{}, unavailable(symbol, fmt.Sprintf("status %d: %s", resp.StatusCode, preview(body)), nil)
	}

	series, err := decodeChart(symbol, body, c.loc)
	if err != nil {
		return PriceSeries{}, err
	}

	c.log.Debug().
		Str("symbol", symbol).
		Int64("period1", startEpoch).
		Int64("period2", endEpoch).
		Int("points", series.Len()).
		Dur("took", time.Since(started)).
		Msg("fetched daily closes")
	return series, nil
}
