package telegram

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lysmm203/stock-market-simulator/internal/finance"
)

type fakeSender struct {
	mu   sync.Mutex
	sent []tgbotapi.Chattable
}

func (f *fakeSender) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, c)
	return tgbotapi.Message{}, nil
}

func (f *fakeSender) texts() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []string
	for _, c := range f.sent {
		if m, ok := c.(tgbotapi.MessageConfig); ok {
			out = append(out, m.Text)
		}
	}
	return out
}

func (f *fakeSender) photos() []tgbotapi.PhotoConfig {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []tgbotapi.PhotoConfig
	for _, c := range f.sent {
		if p, ok := c.(tgbotapi.PhotoConfig); ok {
			out = append(out, p)
		}
	}
	return out
}

func (f *fakeSender) last() string {
	t := f.texts()
	if len(t) == 0 {
		return ""
	}
	return t[len(t)-1]
}

type stubPrices struct {
	fail map[string]bool
}

func (s stubPrices) FetchDailyCloses(_ context.Context, symbol string, _, _ int64) (finance.PriceSeries, error) {
	if s.fail[symbol] {
		return finance.PriceSeries{}, &finance.DataUnavailableError{Symbol: symbol, Reason: "request failed"}
	}
	day := time.Date(2023, 1, 3, 0, 0, 0, 0, time.UTC)
	return finance.PriceSeries{Symbol: symbol, Points: []finance.PricePoint{
		{Date: day, Close: 100},
		{Date: day.AddDate(0, 0, 1), Close: 110},
		{Date: day.AddDate(0, 0, 2), Close: 121},
	}}, nil
}

type stubRenderer struct{}

func (stubRenderer) Render(context.Context, finance.ChartSpec) ([]byte, error) {
	return []byte("png"), nil
}

type stubCommenter struct{ out string }

func (s stubCommenter) Comment(context.Context, *finance.Report) (string, error) { return s.out, nil }

func newTestHandlers(t *testing.T, prices stubPrices, commenter Commenter) (*Handlers, *fakeSender) {
	t.Helper()
	catalog := finance.NewTickerCatalog(time.UTC)
	catalog.Load([]finance.TickerRecord{
		{Symbol: "AAPL", FirstTradeEpoch: 345479400, CompanyName: "Apple Inc."},
		{Symbol: "MSFT", FirstTradeEpoch: 511108200, CompanyName: "Microsoft Corporation"},
		{Symbol: "NEWCO", FirstTradeEpoch: 4102444800, CompanyName: "New Company"},
	})
	sender := &fakeSender{}
	h := NewHandlers(sender, Deps{
		Catalog:     catalog,
		Engine:      finance.NewValuationEngine(prices, time.UTC, finance.AlignStrict, zerolog.Nop()),
		Reports:     finance.NewReportBuilder(stubRenderer{}, zerolog.Nop()),
		Commentator: commenter,
		Location:    time.UTC,
		Now:         func() time.Time { return time.Date(2024, 6, 10, 12, 0, 0, 0, time.UTC) },
	}, zerolog.Nop())
	return h, sender
}

func msg(chatID int64, text string) *tgbotapi.Message {
	return &tgbotapi.Message{Chat: &tgbotapi.Chat{ID: chatID}, Text: text}
}

func TestHandlers_SimulationFlow(t *testing.T) {
	h, sender := newTestHandlers(t, stubPrices{}, nil)

	h.HandleMessage(msg(1, "/simulate 1000 2023-01-03 2023-06-30 S&P 500"))
	assert.Contains(t, sender.last(), "New simulation: $1000 from 2023-01-03 to 2023-06-30 vs Standard & Poor's 500")

	h.HandleMessage(msg(1, "/pick AAPL:Apple Inc. 600"))
	assert.Equal(t, "Added $600 to AAPL (Apple Inc.). $400 left to allocate.", sender.last())

	h.HandleMessage(msg(1, "/pick MSFT 500"))
	assert.Equal(t, "$500 for MSFT would exceed the budget; only $400 left.", sender.last())

	h.HandleMessage(msg(1, "/pick NEWCO 100"))
	assert.Contains(t, sender.last(), "Pick rejected")

	h.HandleMessage(msg(1, "/status"))
	assert.Contains(t, sender.last(), "- AAPL: $600")
	assert.Contains(t, sender.last(), "Remaining: $400")

	h.HandleMessage(msg(1, "/pick MSFT 400"))
	texts := sender.texts()
	require.GreaterOrEqual(t, len(texts), 2)
	assert.Equal(t, "Added $400 to MSFT (Microsoft Corporation). Budget fully allocated, running simulation…", texts[len(texts)-2])
	report := texts[len(texts)-1]
	assert.Contains(t, report, "Portfolio: $1210.00 (+$210.00, +21.00%)")
	assert.Contains(t, report, "MSFT: $484.00 (+$84.00, +21.00%)")

	photos := sender.photos()
	require.Len(t, photos, 4)
	assert.Equal(t, "Portfolio vs S&P 500 • $", photos[0].Caption)

	h.HandleMessage(msg(1, "/status"))
	assert.Contains(t, sender.last(), "No simulation in progress")
}

func TestHandlers_Commentary(t *testing.T) {
	h, sender := newTestHandlers(t, stubPrices{}, stubCommenter{out: "- beat nothing"})
	h.HandleMessage(msg(7, "/simulate 100 2023-01-03 2023-06-30 DJIA"))
	h.HandleMessage(msg(7, "/pick AAPL 100"))
	assert.Equal(t, "- beat nothing", sender.last())
}

func TestHandlers_SimulationFailure(t *testing.T) {
	h, sender := newTestHandlers(t, stubPrices{fail: map[string]bool{"^NDX": true}}, nil)
	h.HandleMessage(msg(3, "/simulate 100 2023-01-03 2023-06-30 nasdaq"))
	h.HandleMessage(msg(3, "/pick AAPL 100"))

	assert.Contains(t, sender.last(), "Simulation failed")
	assert.Contains(t, sender.last(), "^NDX")
	assert.Empty(t, sender.photos())
}

func TestHandlers_ChartModesSubset(t *testing.T) {
	h, sender := newTestHandlers(t, stubPrices{}, nil)
	h.deps.ChartModes = []finance.ChartMode{finance.ModeConstituentsPercent}

	h.HandleMessage(msg(4, "/simulate 100 2023-01-03 2023-06-30 DJIA"))
	h.HandleMessage(msg(4, "/pick AAPL 100"))

	photos := sender.photos()
	require.Len(t, photos, 1)
	assert.Equal(t, "Holdings • %", photos[0].Caption)
}

func TestHandlers_LogsComponentOnce(t *testing.T) {
	var buf bytes.Buffer
	log := zerolog.New(&buf).With().Str("component", "telegram").Logger()
	h := NewHandlers(&fakeSender{}, Deps{
		Location: time.UTC,
		Now:      func() time.Time { return time.Date(2024, 6, 10, 12, 0, 0, 0, time.UTC) },
	}, log)

	h.HandleMessage(msg(1, "/simulate 100 2023-01-03 2023-06-30 DJIA"))
	line := buf.String()
	require.Contains(t, line, "simulation started")
	assert.Equal(t, 1, strings.Count(line, `"component"`))
}

func TestHandlers_SessionsArePerChat(t *testing.T) {
	h, sender := newTestHandlers(t, stubPrices{}, nil)
	h.HandleMessage(msg(1, "/simulate 1000 2023-01-03 2023-06-30 DJIA"))
	h.HandleMessage(msg(2, "/pick AAPL 10"))
	assert.Contains(t, sender.last(), "No simulation in progress")

	h.HandleMessage(msg(1, "/cancel"))
	assert.Equal(t, "Simulation cancelled.", sender.last())
	h.HandleMessage(msg(1, "/cancel"))
	assert.Equal(t, "Nothing to cancel.", sender.last())
}

func TestHandlers_BadInput(t *testing.T) {
	h, sender := newTestHandlers(t, stubPrices{}, nil)

	h.HandleMessage(msg(1, "/simulate lots 2023-01-03 2023-06-30 DJIA"))
	assert.Contains(t, sender.last(), "Budget must be")

	h.HandleMessage(msg(1, "/simulate 100 2023-06-30 2023-01-03 DJIA"))
	assert.Contains(t, sender.last(), "Invalid parameters")

	h.HandleMessage(msg(1, "/simulate 100 2023-01-03 2023-06-30 FTSE"))
	assert.Contains(t, sender.last(), "unknown benchmark")

	h.HandleMessage(msg(1, "/simulate"))
	assert.Contains(t, sender.last(), "Usage: /simulate")

	h.HandleMessage(msg(1, "/pick AAPL"))
	assert.Contains(t, sender.last(), "Usage: /pick")
}

func TestHandlers_Tickers(t *testing.T) {
	h, sender := newTestHandlers(t, stubPrices{}, nil)

	h.HandleMessage(msg(1, "/tickers"))
	assert.Equal(t, "AAPL - Apple Inc.\nMSFT - Microsoft Corporation", sender.last())

	h.HandleMessage(msg(1, "/tickers micro"))
	assert.Equal(t, "MSFT - Microsoft Corporation", sender.last())

	// MSFT first traded in March 1986
	h.HandleMessage(msg(1, "/simulate 100 1985-01-02 1990-01-02 DJIA"))
	h.HandleMessage(msg(1, "/tickers"))
	assert.Equal(t, "AAPL - Apple Inc.", sender.last())

	h.HandleMessage(msg(1, "/tickers zzz"))
	assert.Equal(t, "No eligible tickers match.", sender.last())
}

func TestHandlers_Help(t *testing.T) {
	h, sender := newTestHandlers(t, stubPrices{}, nil)
	h.HandleMessage(msg(1, "/help"))
	assert.Contains(t, sender.last(), "/simulate BUDGET START END INDEX")
	assert.Contains(t, sender.last(), "S&P 500, DJIA, NASDAQ-100")

	n := len(sender.texts())
	h.HandleMessage(msg(1, "hello there"))
	assert.Len(t, sender.texts(), n)
}

func TestBot_WebhookHandler(t *testing.T) {
	h, sender := newTestHandlers(t, stubPrices{}, nil)
	b := &Bot{h: h, log: zerolog.Nop()}

	body := `{"update_id":1,"message":{"message_id":1,"date":0,"chat":{"id":42,"type":"private"},"text":"/help"}}`
	rec := httptest.NewRecorder()
	b.WebhookHandler(rec, httptest.NewRequest(http.MethodPost, "/telegram/webhook", strings.NewReader(body)))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Eventually(t, func() bool { return len(sender.texts()) == 1 }, time.Second, 10*time.Millisecond)

	rec = httptest.NewRecorder()
	b.WebhookHandler(rec, httptest.NewRequest(http.MethodPost, "/telegram/webhook", strings.NewReader("{")))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
