package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// ---------------------------------------------------------------------------
// Configuration structs
// ---------------------------------------------------------------------------

// Config is the top-level configuration for vixboard.
type Config struct {
	Storage Storage       `yaml:"storage"`
	Logging Logging       `yaml:"logging"`
	Collect CollectConfig `yaml:"collect"`
	US      USConfig      `yaml:"us"`
	Alpaca  Alpaca        `yaml:"alpaca"`
	Japan   JapanConfig   `yaml:"japan"`
	Taiwan  TaiwanConfig  `yaml:"taiwan"`
	Chart   ChartConfig   `yaml:"chart"`
	Status  StatusConfig  `yaml:"status"`
}

// Storage holds paths for data persistence.
type Storage struct {
	DataDir   string `yaml:"data_dir"`
	MergedCSV string `yaml:"merged_csv"`
}

// Logging configures the application logger.
type Logging struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// CollectConfig controls the collection run.
type CollectConfig struct {
	StartDate   string        `yaml:"start_date"`
	HTTPTimeout time.Duration `yaml:"http_timeout"`
}

// USConfig selects the quote catalog for the US series.
type USConfig struct {
	Provider string `yaml:"provider"` // "yahoo" or "alpaca"
	Symbol   string `yaml:"symbol"`
	YahooURL string `yaml:"yahoo_url"`
}

// Alpaca holds credentials and endpoints for the Alpaca market-data API.
type Alpaca struct {
	APIKey    string `yaml:"api_key"`
	APISecret string `yaml:"api_secret"`
	DataURL   string `yaml:"data_url"`
	Symbol    string `yaml:"symbol"`
	Feed      string `yaml:"feed"`
}

// JapanConfig points at the manually downloaded Nikkei VI file.
type JapanConfig struct {
	File string `yaml:"file"`
}

// TaiwanConfig controls the TAIFEX scrape and its local fallback.
type TaiwanConfig struct {
	File            string `yaml:"file"`
	MonthURL        string `yaml:"month_url"` // fmt pattern taking year and month
	FormURL         string `yaml:"form_url"`
	ValueField      int    `yaml:"value_field"`
	FormValueColumn int    `yaml:"form_value_column"`
	RateLimitPerMin int    `yaml:"rate_limit_per_min"`
}

// ChartConfig controls chart rendering.
type ChartConfig struct {
	LookbackYears int    `yaml:"lookback_years"`
	StaticPath    string `yaml:"static_path"`
	HTMLPath      string `yaml:"html_path"`
}

// StatusConfig controls the README status update.
type StatusConfig struct {
	ReadmePath string `yaml:"readme_path"`
	Timezone   string `yaml:"timezone"`
}

// ---------------------------------------------------------------------------
// Defaults
// ---------------------------------------------------------------------------

// Default returns the configuration used when no file is present.
func Default() *Config {
	return &Config{
		Storage: Storage{
			DataDir:   "data",
			MergedCSV: "global_vix_merged.csv",
		},
		Logging: Logging{Level: "info", Format: "text"},
		Collect: CollectConfig{
			StartDate:   "2010-01-01",
			HTTPTimeout: 30 * time.Second,
		},
		US: USConfig{
			Provider: "yahoo",
			Symbol:   "^VIX",
			YahooURL: "https://query1.finance.yahoo.com/v8/finance/chart/",
		},
		Alpaca: Alpaca{
			DataURL: "https://data.alpaca.markets",
			Symbol:  "VIXY",
			Feed:    "iex",
		},
		Japan: JapanConfig{File: "nk225vi_daily_jp.csv"},
		Taiwan: TaiwanConfig{
			File:            "taifex_vix.csv",
			MonthURL:        "https://www.taifex.com.tw/file/taifex/Dailydownload/vix/log2data/%04d%02dnew.txt",
			FormURL:         "https://www.taifex.com.tw/cht/7/vixDaily",
			ValueField:      2,
			FormValueColumn: 4,
			RateLimitPerMin: 120,
		},
		Chart: ChartConfig{
			LookbackYears: 2,
			StaticPath:    "vix_chart.svg",
			HTMLPath:      "vix_chart_interactive.html",
		},
		Status: StatusConfig{
			ReadmePath: "README.md",
			Timezone:   "Asia/Taipei",
		},
	}
}

// ---------------------------------------------------------------------------
// Loading
// ---------------------------------------------------------------------------

// Load reads the YAML configuration file at the given path over the
// defaults, and then applies environment variable overrides. A missing file
// yields the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
	case err != nil:
		return nil, fmt.Errorf("read config: %w", err)
	default:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return cfg, nil
}

// StartDate parses Collect.StartDate.
func (c *Config) StartDate() (time.Time, error) {
	t, err := time.Parse("2006-01-02", c.Collect.StartDate)
	if err != nil {
		return time.Time{}, fmt.Errorf("parsing start date %q: %w", c.Collect.StartDate, err)
	}
	return t, nil
}

// Validate checks the fields a run cannot do without.
func (c *Config) Validate() error {
	if _, err := c.StartDate(); err != nil {
		return err
	}
	switch c.US.Provider {
	case "yahoo", "alpaca":
	default:
		return fmt.Errorf("unknown us.provider %q", c.US.Provider)
	}
	if c.Taiwan.ValueField < 1 {
		return fmt.Errorf("taiwan.value_field must be >= 1, got %d", c.Taiwan.ValueField)
	}
	if c.Taiwan.FormValueColumn < 1 {
		return fmt.Errorf("taiwan.form_value_column must be >= 1, got %d", c.Taiwan.FormValueColumn)
	}
	if c.Chart.LookbackYears < 1 {
		return fmt.Errorf("chart.lookback_years must be >= 1, got %d", c.Chart.LookbackYears)
	}
	return nil
}

// applyEnvOverrides checks well-known environment variables and overrides the
// corresponding configuration fields when they are set.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("DATA_DIR"); v != "" {
		cfg.Storage.DataDir = v
	}

	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}

	if v := os.Getenv("VIX_US_PROVIDER"); v != "" {
		cfg.US.Provider = v
	}

	if v := os.Getenv("ALPACA_API_KEY"); v != "" {
		cfg.Alpaca.APIKey = v
	}

	if v := os.Getenv("ALPACA_API_SECRET"); v != "" {
		cfg.Alpaca.APISecret = v
	}

	// Standard Alpaca env vars take priority, matching the SDK.
	if v := os.Getenv("APCA_API_KEY_ID"); v != "" {
		cfg.Alpaca.APIKey = v
	}
	if v := os.Getenv("APCA_API_SECRET_KEY"); v != "" {
		cfg.Alpaca.APISecret = v
	}
}
