package telegram

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"

	"github.com/lysmm203/stock-market-simulator/internal/finance"
)

var (
	// /simulate BUDGET START END INDEX
	reSimulate = regexp.MustCompile(`^/simulate(?:@[\w_]+)?\s+(\S+)\s+(\d{4}-\d{2}-\d{2})\s+(\d{4}-\d{2}-\d{2})\s+(.+)$`)
	// /pick SYMBOL[:Company] AMOUNT
	rePick    = regexp.MustCompile(`^/pick(?:@[\w_]+)?\s+(.+)$`)
	reStatus  = regexp.MustCompile(`^/status(?:@[\w_]+)?$`)
	reTickers = regexp.MustCompile(`^/tickers(?:@[\w_]+)?(?:\s+(\S+))?$`)
	reCancel  = regexp.MustCompile(`^/cancel(?:@[\w_]+)?$`)
	reHelp    = regexp.MustCompile(`^/(help|start)(?:@[\w_]+)?$`)
)

const tickerListLimit = 25

// Sender is the part of tgbotapi.BotAPI the handlers use.
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

type Valuer interface {
	BuildFromSession(ctx context.Context, s *finance.AllocationSession) (*finance.ValuationTable, error)
}

type Reporter interface {
	Summarize(t *finance.ValuationTable) (*finance.Report, error)
	ChartPayload(ctx context.Context, t *finance.ValuationTable, mode finance.ChartMode) (finance.ChartArtifact, error)
}

type Commenter interface {
	Comment(ctx context.Context, r *finance.Report) (string, error)
}

// Deps wires the simulator into the chat front end. Commentator may be nil.
type Deps struct {
	Catalog     *finance.TickerCatalog
	Engine      Valuer
	Reports     Reporter
	Commentator Commenter
	Location    *time.Location
	Now         func() time.Time
	RunTimeout  time.Duration
	ChartModes  []finance.ChartMode // empty sends every mode
}

// Handlers keeps one allocation session per chat. A session is only touched
// while mu is held and is removed from the map before it is valued.
type Handlers struct {
	api  Sender
	deps Deps
	log  zerolog.Logger

	mu       sync.Mutex
	sessions map[int64]*finance.AllocationSession
}

// NewHandlers expects log to be tagged by the caller.
func NewHandlers(api Sender, deps Deps, log zerolog.Logger) *Handlers {
	if deps.Location == nil {
		deps.Location = finance.DefaultLocation()
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}
	if deps.RunTimeout <= 0 {
		deps.RunTimeout = 90 * time.Second
	}
	if len(deps.ChartModes) == 0 {
		deps.ChartModes = finance.ChartModes()
	}
	return &Handlers{
		api:      api,
		deps:     deps,
		log:      log,
		sessions: map[int64]*finance.AllocationSession{},
	}
}

func (h *Handlers) HandleMessage(m *tgbotapi.Message) {
	if m == nil || m.Chat == nil {
		return
	}
	chatID := m.Chat.ID
	txt := strings.TrimSpace(m.Text)

	switch {
	case reSimulate.MatchString(txt):
		g := reSimulate.FindStringSubmatch(txt)
		h.handleSimulate(chatID, g[1], g[2], g[3], g[4])

	case rePick.MatchString(txt):
		h.handlePick(chatID, rePick.FindStringSubmatch(txt)[1])

	case reStatus.MatchString(txt):
		h.handleStatus(chatID)

	case reTickers.MatchString(txt):
		h.handleTickers(chatID, reTickers.FindStringSubmatch(txt)[1])

	case reCancel.MatchString(txt):
		h.mu.Lock()
		_, had := h.sessions[chatID]
		delete(h.sessions, chatID)
		h.mu.Unlock()
		if had {
			h.reply(chatID, "Simulation cancelled.")
		} else {
			h.reply(chatID, "Nothing to cancel.")
		}

	case reHelp.MatchString(txt):
		h.handleHelp(chatID)

	case strings.HasPrefix(txt, "/pick"):
		h.reply(chatID, "Usage: /pick SYMBOL AMOUNT, e.g. /pick AAPL 600")

	case strings.HasPrefix(txt, "/simulate"):
		h.reply(chatID, "Usage: /simulate BUDGET START END INDEX\ne.g. /simulate 1000 2020-01-02 2023-12-29 S&P 500")
	}
}

func (h *Handlers) handleSimulate(chatID int64, budgetArg, start, end, index string) {
	budget, err := finance.ParseAmount(budgetArg)
	if err != nil {
		h.reply(chatID, fmt.Sprintf("Budget must be a whole number of dollars between %d and %d.", finance.MinBudget, finance.MaxBudget))
		return
	}
	today := h.deps.Now().In(h.deps.Location)
	params, err := finance.NewSimulationParameters(budget, start, end, index, today)
	if err != nil {
		h.reply(chatID, "Invalid parameters: "+err.Error())
		return
	}

	var opts []finance.SessionOption
	if h.deps.Catalog != nil && h.deps.Catalog.Len() > 0 {
		opts = append(opts, finance.WithEligibility(h.deps.Catalog))
	}
	s := finance.NewAllocationSession(params, opts...)

	h.mu.Lock()
	h.sessions[chatID] = s
	h.mu.Unlock()

	h.log.Info().Int64("chat_id", chatID).Str("params", params.String()).Msg("simulation started")
	h.reply(chatID, fmt.Sprintf("New simulation: $%d from %s to %s vs %s.\nAllocate with /pick SYMBOL AMOUNT until the budget is spent. /tickers lists eligible symbols.",
		params.Budget, params.Start.Format(finance.DateLayout), params.End.Format(finance.DateLayout), params.Benchmark.DisplayName()))
}

func (h *Handlers) handlePick(chatID int64, arg string) {
	pick, amount, err := finance.ParseAllocationRequest(arg)
	if err != nil {
		h.reply(chatID, "Usage: /pick SYMBOL AMOUNT, e.g. /pick AAPL 600")
		return
	}

	h.mu.Lock()
	s, ok := h.sessions[chatID]
	if !ok {
		h.mu.Unlock()
		h.reply(chatID, "No simulation in progress. Start one with /simulate.")
		return
	}
	state, err := s.AllocatePick(pick, amount)
	remaining := s.Remaining()
	if state == finance.StateComplete {
		delete(h.sessions, chatID)
	}
	h.mu.Unlock()

	name := h.holdingName(pick)
	var over *finance.OvershootError
	switch {
	case errors.As(err, &over):
		h.reply(chatID, fmt.Sprintf("$%d for %s would exceed the budget; only $%d left.", over.Requested, over.Symbol, over.Remaining))
	case err != nil:
		h.reply(chatID, "Pick rejected: "+err.Error())
	case state == finance.StateComplete:
		h.reply(chatID, fmt.Sprintf("Added $%d to %s. Budget fully allocated, running simulation…", amount, name))
		h.runSimulation(chatID, s)
	default:
		h.reply(chatID, fmt.Sprintf("Added $%d to %s. $%d left to allocate.", amount, name, remaining))
	}
}

// holdingName is "SYMBOL (Company)", taking the company from the pick or the catalog.
func (h *Handlers) holdingName(p finance.Pick) string {
	company := p.CompanyName
	if company == "" && h.deps.Catalog != nil {
		if r, ok := h.deps.Catalog.Lookup(p.Symbol); ok {
			company = r.CompanyName
		}
	}
	if company == "" {
		return p.Symbol
	}
	return p.Symbol + " (" + company + ")"
}

func (h *Handlers) handleStatus(chatID int64) {
	h.mu.Lock()
	s, ok := h.sessions[chatID]
	var params finance.SimulationParameters
	var alloc finance.Allocation
	var remaining int
	if ok {
		params, alloc, remaining = s.Parameters(), s.Snapshot(), s.Remaining()
	}
	h.mu.Unlock()

	if !ok {
		h.reply(chatID, "No simulation in progress. Start one with /simulate.")
		return
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Simulation %s\n", params)
	for _, hd := range alloc.Holdings() {
		fmt.Fprintf(&b, "- %s: $%d\n", hd.Symbol, hd.Amount)
	}
	fmt.Fprintf(&b, "Remaining: $%d", remaining)
	h.reply(chatID, b.String())
}

func (h *Handlers) handleTickers(chatID int64, prefix string) {
	if h.deps.Catalog == nil || h.deps.Catalog.Len() == 0 {
		h.reply(chatID, "Ticker list is not loaded yet.")
		return
	}
	start := h.deps.Now().In(h.deps.Location)
	h.mu.Lock()
	if s, ok := h.sessions[chatID]; ok {
		start = s.Parameters().Start
	}
	h.mu.Unlock()

	found := h.deps.Catalog.Search(prefix, start, tickerListLimit)
	if len(found) == 0 {
		h.reply(chatID, "No eligible tickers match.")
		return
	}
	lines := make([]string, len(found))
	for i, t := range found {
		lines[i] = t.Symbol + " - " + t.CompanyName
	}
	h.reply(chatID, strings.Join(lines, "\n"))
}

// runSimulation values a completed session, then sends the summary, the charts
// and, when configured, a short commentary. The session is discarded afterwards.
func (h *Handlers) runSimulation(chatID int64, s *finance.AllocationSession) {
	ctx, cancel := context.WithTimeout(context.Background(), h.deps.RunTimeout)
	defer cancel()

	table, err := h.deps.Engine.BuildFromSession(ctx, s)
	if err != nil {
		h.log.Warn().Err(err).Int64("chat_id", chatID).Msg("simulation failed")
		h.reply(chatID, "Simulation failed: "+err.Error())
		return
	}
	report, err := h.deps.Reports.Summarize(table)
	if err != nil {
		h.reply(chatID, "Report failed: "+err.Error())
		return
	}
	h.reply(chatID, report.Text())

	for _, mode := range h.deps.ChartModes {
		art, err := h.deps.Reports.ChartPayload(ctx, table, mode)
		if err != nil {
			h.log.Warn().Err(err).Str("run_id", report.RunID.String()).Str("mode", mode.String()).Msg("chart failed")
			continue
		}
		photo := tgbotapi.NewPhoto(chatID, tgbotapi.FileBytes{Name: mode.String() + ".png", Bytes: art.Data})
		photo.Caption = chartCaption(mode, report)
		h.send(photo)
	}

	if h.deps.Commentator != nil {
		out, err := h.deps.Commentator.Comment(ctx, report)
		if err != nil {
			h.log.Warn().Err(err).Str("run_id", report.RunID.String()).Msg("commentary failed")
			return
		}
		h.reply(chatID, out)
	}
}

func chartCaption(mode finance.ChartMode, r *finance.Report) string {
	switch mode {
	case finance.ModePortfolioVsIndexDollars:
		return "Portfolio vs " + r.Benchmark.Label() + " • $"
	case finance.ModePortfolioVsIndexPercent:
		return "Portfolio vs " + r.Benchmark.Label() + " • %"
	case finance.ModeConstituentsDollars:
		return "Holdings • $"
	default:
		return "Holdings • %"
	}
}

func (h *Handlers) handleHelp(chatID int64) {
	labels := make([]string, 0, 3)
	for _, b := range finance.Benchmarks() {
		labels = append(labels, b.Label())
	}
	help := "Commands\n\n" +
		"- /simulate BUDGET START END INDEX - Start a simulation (dates YYYY-MM-DD, INDEX one of " + strings.Join(labels, ", ") + ")\n" +
		"- /pick SYMBOL AMOUNT - Put AMOUNT dollars into SYMBOL; SYMBOL:Company is accepted\n" +
		"- /status - Show allocations and remaining budget\n" +
		"- /tickers [PREFIX] - List symbols that were trading before the start date\n" +
		"- /cancel - Drop the current simulation\n" +
		"\nThe simulation runs once the whole budget is allocated."
	h.reply(chatID, help)
}

func (h *Handlers) reply(chatID int64, text string) {
	h.send(tgbotapi.NewMessage(chatID, text))
}

func (h *Handlers) send(c tgbotapi.Chattable) {
	if _, err := h.api.Send(c); err != nil {
		h.log.Error().Err(err).Msg("telegram send failed")
	}
}
