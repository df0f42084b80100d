package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds the complete run configuration.
type Config struct {
	API      APIConfig      `yaml:"api"`
	Analysis AnalysisConfig `yaml:"analysis"`
	Chart    ChartConfig    `yaml:"chart"`
	Log      LogConfig      `yaml:"log"`
}

// APIConfig selects the market data endpoint.
type APIConfig struct {
	BaseURL    string `yaml:"base_url"`
	CoinID     string `yaml:"coin_id"`
	VsCurrency string `yaml:"vs_currency"`
}

// AnalysisConfig controls the statistical steps.
type AnalysisConfig struct {
	Days         int         `yaml:"days"`
	Order        OrderConfig `yaml:"order"`
	Horizon      int         `yaml:"horizon"`      // forecast length in days
	Significance float64     `yaml:"significance"` // ADF p-value threshold
}

// OrderConfig is the ARIMA (p, d, q) order.
type OrderConfig struct {
	P int `yaml:"p"`
	D int `yaml:"d"`
	Q int `yaml:"q"`
}

// ChartConfig controls where and how large charts are written.
type ChartConfig struct {
	OutputDir string  `yaml:"output_dir"`
	WidthIn   float64 `yaml:"width_in"`
	HeightIn  float64 `yaml:"height_in"`
}

// LogConfig controls the format and level of logging.
type LogConfig struct {
	Level  string `yaml:"level"`  // debug | info | warn | error
	Format string `yaml:"format"` // console | json
}

// Load reads the YAML file at path over the defaults, then applies
// environment overrides. Keys absent from the file keep their default; keys
// set to zero are kept and rejected by Validate. A missing file is not an
// error; an empty path skips the file. A .env file in the working directory
// is loaded first when present.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	cfg := defaults()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil && !os.IsNotExist(err) {
			return nil, fmt.Errorf("config.Load: read %q: %w", path, err)
		}
		if len(data) > 0 {
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return nil, fmt.Errorf("config.Load: parse YAML: %w", err)
			}
		}
	}

	if err := applyEnvOverrides(&cfg); err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}
	setDefaults(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}
	return &cfg, nil
}

// Default returns the configuration used when no file or environment is given.
func Default() *Config {
	cfg := defaults()
	return &cfg
}

func defaults() Config {
	return Config{
		API: APIConfig{
			BaseURL:    "https://api.coingecko.com/api/v3",
			CoinID:     "bitcoin",
			VsCurrency: "usd",
		},
		Analysis: AnalysisConfig{
			Days:         60,
			Order:        OrderConfig{P: 5, D: 1, Q: 0},
			Horizon:      10,
			Significance: 0.05,
		},
		Chart: ChartConfig{OutputDir: "charts", WidthIn: 12, HeightIn: 6},
		Log:   LogConfig{Level: "info", Format: "console"},
	}
}

func applyEnvOverrides(cfg *Config) error {
	if v := os.Getenv("COINGECKO_BASE_URL"); v != "" {
		cfg.API.BaseURL = v
	}
	if v := os.Getenv("BTC_DAYS"); v != "" {
		days, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("BTC_DAYS: %w", err)
		}
		cfg.Analysis.Days = days
	}
	if v := os.Getenv("CHART_DIR"); v != "" {
		cfg.Chart.OutputDir = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("LOG_FORMAT"); v != "" {
		cfg.Log.Format = v
	}
	return nil
}

// setDefaults restores settings that have no meaningful zero value, such as
// an empty string written out in the file.
func setDefaults(cfg *Config) {
	d := defaults()
	if cfg.API.BaseURL == "" {
		cfg.API.BaseURL = d.API.BaseURL
	}
	if cfg.API.CoinID == "" {
		cfg.API.CoinID = d.API.CoinID
	}
	if cfg.API.VsCurrency == "" {
		cfg.API.VsCurrency = d.API.VsCurrency
	}
	if cfg.Chart.OutputDir == "" {
		cfg.Chart.OutputDir = d.Chart.OutputDir
	}
	if cfg.Chart.WidthIn <= 0 {
		cfg.Chart.WidthIn = d.Chart.WidthIn
	}
	if cfg.Chart.HeightIn <= 0 {
		cfg.Chart.HeightIn = d.Chart.HeightIn
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = d.Log.Level
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = d.Log.Format
	}
}

// Validate checks that the configuration can drive a run.
func (c *Config) Validate() error {
	var errs []error
	if c.Analysis.Days < 1 {
		errs = append(errs, fmt.Errorf("analysis.days must be at least 1, got %d", c.Analysis.Days))
	}
	o := c.Analysis.Order
	if o.P < 0 || o.D < 0 || o.Q < 0 {
		errs = append(errs, fmt.Errorf("analysis.order must be non-negative, got (%d,%d,%d)", o.P, o.D, o.Q))
	}
	if c.Analysis.Horizon < 1 {
		errs = append(errs, fmt.Errorf("analysis.horizon must be at least 1, got %d", c.Analysis.Horizon))
	}
	if s := c.Analysis.Significance; s <= 0 || s >= 1 {
		errs = append(errs, fmt.Errorf("analysis.significance must be in (0, 1), got %g", s))
	}
	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Errorf("log.level %q is not one of debug|info|warn|error", c.Log.Level))
	}
	switch c.Log.Format {
	case "console", "json":
	default:
		errs = append(errs, fmt.Errorf("log.format %q is not one of console|json", c.Log.Format))
	}
	return errors.Join(errs...)
}
