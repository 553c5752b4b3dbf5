package finance

import (
	"sort"
	"strings"
	"sync/atomic"
	"time"
)

// TickerRecord is one row of the tradeable universe.
type TickerRecord struct {
	Symbol          string
	FirstTradeEpoch int64
	CompanyName     string
}

// EligibleTicker is what the selection step offers to the user.
type EligibleTicker struct {
	Symbol      string
	CompanyName string
}

// TickerCatalog holds the current universe. Load swaps the whole set in one step,
// so readers see either the old or the new catalog, never a mix.
type TickerCatalog struct {
	records atomic.Pointer[[]TickerRecord]
	loc     *time.Location
}

func NewTickerCatalog(loc *time.Location) *TickerCatalog {
	if loc == nil {
		loc = getEasternTime()
	}
	c := &TickerCatalog{loc: loc}
	empty := []TickerRecord{}
	c.records.Store(&empty)
	return c
}

// Load replaces the catalog. Records are kept as given; no validation or dedup.
func (c *TickerCatalog) Load(records []TickerRecord) {
	cp := make([]TickerRecord, len(records))
	copy(cp, records)
	c.records.Store(&cp)
}

func (c *TickerCatalog) snapshot() []TickerRecord { return *c.records.Load() }

func (c *TickerCatalog) Len() int { return len(c.snapshot()) }

// EligibleSince returns tickers whose first trade is strictly before midnight of start.
func (c *TickerCatalog) EligibleSince(start time.Time) []EligibleTicker {
	cutoff := EpochAt(start, c.loc)
	var out []EligibleTicker
	for _, r := range c.snapshot() {
		if r.FirstTradeEpoch < cutoff {
			out = append(out, EligibleTicker{Symbol: r.Symbol, CompanyName: r.CompanyName})
		}
	}
	return out
}

// IsEligible reports whether symbol traded before start.
func (c *TickerCatalog) IsEligible(symbol string, start time.Time) bool {
	cutoff := EpochAt(start, c.loc)
	for _, r := range c.snapshot() {
		if r.Symbol == symbol && r.FirstTradeEpoch < cutoff {
			return true
		}
	}
	return false
}

func (c *TickerCatalog) Lookup(symbol string) (TickerRecord, bool) {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	for _, r := range c.snapshot() {
		if r.Symbol == symbol {
			return r, true
		}
	}
	return TickerRecord{}, false
}

// Search returns eligible tickers whose symbol starts with prefix, or whose company
// name contains it, sorted by symbol. limit <= 0 means no limit.
func (c *TickerCatalog) Search(prefix string, start time.Time, limit int) []EligibleTicker {
	q := strings.ToUpper(strings.TrimSpace(prefix))
	var out []EligibleTicker
	for _, t := range c.EligibleSince(start) {
		if q == "" || strings.HasPrefix(t.Symbol, q) || strings.Contains(strings.ToUpper(t.CompanyName), q) {
			out = append(out, t)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Symbol < out[j].Symbol })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}
