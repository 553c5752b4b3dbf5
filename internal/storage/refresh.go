package storage

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"

	"github.com/lysmm203/stock-market-simulator/internal/finance"
)

// Refresher moves the ticker universe from the CSV file into the store and
// then swaps it into the in-memory catalog.
type Refresher struct {
	store   *TickerStore
	catalog *finance.TickerCatalog
	csvPath string
	log     zerolog.Logger
}

func NewRefresher(store *TickerStore, catalog *finance.TickerCatalog, csvPath string, log zerolog.Logger) *Refresher {
	return &Refresher{
		store:   store,
		catalog: catalog,
		csvPath: csvPath,
		log:     log.With().Str("component", "catalog_refresh").Logger(),
	}
}

// Warm loads the catalog from what the store already holds.
func (r *Refresher) Warm() (int, error) {
	records, err := r.store.All()
	if err != nil {
		return 0, fmt.Errorf("read stored tickers: %w", err)
	}
	r.catalog.Load(records)
	r.log.Info().Int("tickers", len(records)).Msg("catalog warmed from store")
	return len(records), nil
}

// Refresh re-reads the CSV. On any error the store and catalog keep the previous set.
func (r *Refresher) Refresh() (int, error) {
	if r.csvPath == "" {
		return 0, errors.New("no tickers csv configured")
	}
	started := time.Now()
	f, err := os.Open(r.csvPath)
	if err != nil {
		return 0, fmt.Errorf("open tickers csv: %w", err)
	}
	defer f.Close()

	records, err := ReadTickersCSV(f)
	if err != nil {
		return 0, err
	}
	if err := r.store.ReplaceAll(records); err != nil {
		return 0, fmt.Errorf("store tickers: %w", err)
	}
	r.catalog.Load(records)
	r.log.Info().
		Str("path", r.csvPath).
		Int("tickers", len(records)).
		Dur("took", time.Since(started)).
		Msg("catalog refreshed")
	return len(records), nil
}

// Run is the cron entry point.
func (r *Refresher) Run() {
	if _, err := r.Refresh(); err != nil {
		r.log.Error().Err(err).Msg("catalog refresh failed")
	}
}
