package server

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"

	"github.com/lysmm203/stock-market-simulator/internal/finance"
)

const defaultTickerLimit = 50

// Config holds what the router needs besides the webhook.
type Config struct {
	Catalog  *finance.TickerCatalog
	Location *time.Location
	Now      func() time.Time
	Log      zerolog.Logger
	// LoadedAt reports when the persisted ticker set was written. Optional.
	LoadedAt func() (time.Time, error)
}

type handlers struct {
	catalog  *finance.TickerCatalog
	loc      *time.Location
	now      func() time.Time
	loadedAt func() (time.Time, error)
	log      zerolog.Logger
}

// NewRouter mounts the Telegram webhook, the health probe and the ticker
// autocomplete endpoint.
func NewRouter(webhook http.HandlerFunc, cfg Config) chi.Router {
	h := &handlers{
		catalog:  cfg.Catalog,
		loc:      cfg.Location,
		now:      cfg.Now,
		loadedAt: cfg.LoadedAt,
		log:      cfg.Log.With().Str("component", "server").Logger(),
	}
	if h.loc == nil {
		h.loc = finance.DefaultLocation()
	}
	if h.now == nil {
		h.now = time.Now
	}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(h.loggingMiddleware)
	// the autocomplete endpoint is called from browser widgets
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	r.Post("/telegram/webhook", webhook)
	r.Get("/healthz", h.handleHealth)
	r.Get("/tickers", h.handleTickers)
	return r
}

func (h *handlers) handleHealth(w http.ResponseWriter, _ *http.Request) {
	body := map[string]any{
		"status":  "ok",
		"tickers": h.catalog.Len(),
	}
	if h.loadedAt != nil {
		at, err := h.loadedAt()
		if err != nil {
			h.log.Warn().Err(err).Msg("read catalog load time")
		} else if !at.IsZero() {
			body["catalog_loaded_at"] = at.UTC().Format(time.RFC3339)
		}
	}
	h.writeJSON(w, http.StatusOK, body)
}

// handleTickers answers ?start=YYYY-MM-DD&q=PREFIX&limit=N with a
// symbol -> company name map of tickers already trading on start.
func (h *handlers) handleTickers(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	start := h.now().In(h.loc)
	if s := q.Get("start"); s != "" {
		d, err := finance.ParseDate(s)
		if err != nil {
			h.writeError(w, http.StatusBadRequest, "start must be YYYY-MM-DD")
			return
		}
		start = d
	}

	limit := defaultTickerLimit
	if s := q.Get("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 0 {
			h.writeError(w, http.StatusBadRequest, "limit must be a non-negative integer")
			return
		}
		limit = n
	}

	out := make(map[string]string)
	for _, t := range h.catalog.Search(q.Get("q"), start, limit) {
		out[t.Symbol] = t.CompanyName
	}
	h.writeJSON(w, http.StatusOK, out)
}

func (h *handlers) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.log.Error().Err(err).Msg("failed to encode JSON response")
	}
}

func (h *handlers) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, map[string]string{"error": message})
}

func (h *handlers) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		h.log.Debug().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Dur("duration", time.Since(start)).
			Str("request_id", middleware.GetReqID(r.Context())).
			Msg("http request")
	})
}

// ListenAndServe serves handler on addr until ctx is cancelled, then shuts
// down gracefully.
func ListenAndServe(ctx context.Context, addr string, handler http.Handler) error {
	srv := &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}
