package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"github.com/lysmm203/stock-market-simulator/internal/finance"
)

type Config struct {
	TelegramToken    string
	WebhookPublicURL string
	OpenAIKey        string // empty disables report commentary
	Port             string
	DBPath           string

	TickersCSV         string
	CatalogRefreshSpec string // cron spec, empty disables scheduled refresh
	MarketTimezone     string

	YahooBaseURL    string
	FetchTimeout    time.Duration
	PriceCacheTTL   time.Duration
	AlignmentPolicy string
	ChartModes      string // comma separated, empty sends every chart

	LogLevel  string
	LogPretty bool
}

// Load reads configuration from the environment, after applying a .env file if present.
func Load() (Config, error) {
	_ = godotenv.Load()

	cfg := Config{
		TelegramToken:      getEnv("TELEGRAM_BOT_TOKEN", ""),
		WebhookPublicURL:   getEnv("WEBHOOK_PUBLIC_URL", ""),
		OpenAIKey:          getEnv("OPENAI_API_KEY", ""),
		Port:               getEnv("PORT", "9095"),
		DBPath:             getEnv("DB_PATH", "/app/data/simulator.db"),
		TickersCSV:         getEnv("TICKERS_CSV", "/app/data/stocks.csv"),
		CatalogRefreshSpec: getEnv("CATALOG_REFRESH_SPEC", "@daily"),
		MarketTimezone:     getEnv("MARKET_TIMEZONE", "America/New_York"),
		YahooBaseURL:       getEnv("YAHOO_BASE_URL", "https://query1.finance.yahoo.com"),
		FetchTimeout:       getEnvAsDuration("FETCH_TIMEOUT", 20*time.Second),
		PriceCacheTTL:      getEnvAsDuration("PRICE_CACHE_TTL", 10*time.Minute),
		AlignmentPolicy:    getEnv("ALIGNMENT_POLICY", "strict"),
		ChartModes:         getEnv("CHART_MODES", ""),
		LogLevel:           getEnv("LOG_LEVEL", "info"),
		LogPretty:          getEnvAsBool("LOG_PRETTY", false),
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks required fields and value ranges.
func (c Config) Validate() error {
	var errs []error
	if c.TelegramToken == "" {
		errs = append(errs, errors.New("missing env TELEGRAM_BOT_TOKEN"))
	}
	if c.WebhookPublicURL == "" {
		errs = append(errs, errors.New("missing env WEBHOOK_PUBLIC_URL"))
	}
	if _, err := strconv.Atoi(c.Port); err != nil {
		errs = append(errs, fmt.Errorf("invalid PORT %q", c.Port))
	}
	if c.FetchTimeout <= 0 {
		errs = append(errs, fmt.Errorf("FETCH_TIMEOUT must be positive, got %s", c.FetchTimeout))
	}
	if c.PriceCacheTTL < 0 {
		errs = append(errs, fmt.Errorf("PRICE_CACHE_TTL must not be negative, got %s", c.PriceCacheTTL))
	}
	if _, err := finance.ParseAlignmentPolicy(c.AlignmentPolicy); err != nil {
		errs = append(errs, fmt.Errorf("ALIGNMENT_POLICY: %w", err))
	}
	if _, err := finance.ParseChartModes(c.ChartModes); err != nil {
		errs = append(errs, fmt.Errorf("CHART_MODES: %w", err))
	}
	return errors.Join(errs...)
}

// Location resolves MarketTimezone, falling back to a fixed EST offset if tzdata is missing.
func (c Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.MarketTimezone)
	if err != nil {
		return time.FixedZone("EST", -5*3600)
	}
	return loc
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
