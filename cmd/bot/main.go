package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"

	"github.com/lysmm203/stock-market-simulator/internal/config"
	"github.com/lysmm203/stock-market-simulator/internal/finance"
	"github.com/lysmm203/stock-market-simulator/internal/logger"
	"github.com/lysmm203/stock-market-simulator/internal/openai"
	"github.com/lysmm203/stock-market-simulator/internal/server"
	"github.com/lysmm203/stock-market-simulator/internal/storage"
	"github.com/lysmm203/stock-market-simulator/internal/telegram"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}

	lg := logger.New(logger.Config{Level: cfg.LogLevel, Pretty: cfg.LogPretty})
	logger.SetGlobalLogger(lg)
	loc := cfg.Location()

	// Ensure parent directory for the DB exists
	_ = os.MkdirAll(filepath.Dir(cfg.DBPath), 0o755)
	db, err := storage.OpenSQLite("file:" + cfg.DBPath + "?_fk=1")
	if err != nil {
		lg.Fatal().Err(err).Msg("open sqlite")
	}
	defer db.Close()
	if err := storage.InitSchema(db); err != nil {
		lg.Fatal().Err(err).Msg("init schema")
	}
	lg.Info().Str("path", cfg.DBPath).Msg("db: schema ensured (tickers table)")

	catalog := finance.NewTickerCatalog(loc)
	store := storage.NewTickerStore(db)
	refresher := storage.NewRefresher(store, catalog, cfg.TickersCSV, lg)
	if _, err := refresher.Warm(); err != nil {
		lg.Warn().Err(err).Msg("catalog warm start failed")
	}
	if cfg.TickersCSV != "" {
		refresher.Run()
	}

	prices := finance.NewCachedPriceSource(
		finance.NewYahooClient(cfg.YahooBaseURL, cfg.FetchTimeout, loc, lg),
		cfg.PriceCacheTTL,
	)

	sched := cron.New(cron.WithLocation(loc))
	if cfg.CatalogRefreshSpec != "" && cfg.TickersCSV != "" {
		if _, err := sched.AddFunc(cfg.CatalogRefreshSpec, refresher.Run); err != nil {
			lg.Fatal().Err(err).Str("spec", cfg.CatalogRefreshSpec).Msg("bad catalog refresh schedule")
		}
	}
	if cfg.PriceCacheTTL > 0 {
		_, err := sched.AddFunc("@every "+cfg.PriceCacheTTL.String(), func() {
			if n := prices.Purge(); n > 0 {
				lg.Debug().Int("evicted", n).Msg("price cache purged")
			}
		})
		if err != nil {
			lg.Fatal().Err(err).Msg("schedule price cache purge")
		}
	}
	sched.Start()
	defer func() { <-sched.Stop().Done() }()

	policy, err := finance.ParseAlignmentPolicy(cfg.AlignmentPolicy)
	if err != nil {
		lg.Fatal().Err(err).Msg("alignment policy")
	}
	engine := finance.NewValuationEngine(prices, loc, policy, lg)
	reports := finance.NewReportBuilder(finance.NewGoChartsRenderer(), lg)
	modes, err := finance.ParseChartModes(cfg.ChartModes)
	if err != nil {
		lg.Fatal().Err(err).Msg("chart modes")
	}

	deps := telegram.Deps{
		Catalog:    catalog,
		Engine:     engine,
		Reports:    reports,
		Location:   loc,
		Now:        time.Now,
		RunTimeout: 2 * time.Minute,
		ChartModes: modes,
	}
	if cfg.OpenAIKey != "" {
		deps.Commentator = openai.NewCommentator(cfg.OpenAIKey)
	}

	tg, err := telegram.NewBot(cfg.TelegramToken, cfg.WebhookPublicURL, deps, lg)
	if err != nil {
		lg.Fatal().Err(err).Msg("telegram init")
	}
	lg.Info().Str("webhook", cfg.WebhookPublicURL).Msg("telegram: bot initialized")

	router := server.NewRouter(tg.WebhookHandler, server.Config{
		Catalog:  catalog,
		Location: loc,
		Log:      lg,
		LoadedAt: store.LoadedAt,
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	addr := ":" + cfg.Port
	lg.Info().Str("addr", addr).Msg("http: listening")
	if err := server.ListenAndServe(ctx, addr, router); err != nil && !errors.Is(err, http.ErrServerClosed) {
		lg.Error().Err(err).Msg("server error")
		os.Exit(1)
	}
	lg.Info().Msg("shutdown complete")
}
