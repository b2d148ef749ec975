// Package config loads the run configuration: an optional YAML file for base
// values, then environment variables, which always win.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"signalbot/internal/indicator"
	"signalbot/internal/marketdata"
	"signalbot/internal/strategy"
)

const (
	MinCandleCount = 50
	MaxCandleCount = 720
)

// ConfigurationError reports a missing or invalid setting.
type ConfigurationError struct {
	Key    string
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("config: %s: %s", e.Key, e.Reason)
}

// Config holds all run configuration. It is immutable once loaded.
type Config struct {
	// Instrument
	Symbol      string `yaml:"symbol"`
	Timeframe   string `yaml:"timeframe"`
	CandleCount int    `yaml:"candle_count"`

	// Market data
	DataSource    string `yaml:"data_source"` // rest | ws
	KrakenRESTURL string `yaml:"kraken_rest_url"`
	KrakenWSURL   string `yaml:"kraken_ws_url"`

	// Indicators
	RSIPeriod      int     `yaml:"rsi_period"`
	BBPeriod       int     `yaml:"bb_period"`
	BBStd          float64 `yaml:"bb_std"`
	ADXPeriod      int     `yaml:"adx_period"` // 0 disables the ADX gate
	ADXThreshold   float64 `yaml:"adx_threshold"`
	TrendEMAPeriod int     `yaml:"trend_ema_period"` // 0 disables the trend filter

	// Strategy
	RSILow              float64 `yaml:"rsi_low"`
	RSIHigh             float64 `yaml:"rsi_high"`
	StopLossPct         float64 `yaml:"stop_loss_pct"`
	LongEntryTolerance  float64 `yaml:"long_entry_tolerance"`
	ShortEntryTolerance float64 `yaml:"short_entry_tolerance"`

	// Store
	StoreDriver   string `yaml:"store_driver"` // sqlite | redis | postgres; inferred when empty
	SQLitePath    string `yaml:"sqlite_path"`
	RedisAddr     string `yaml:"redis_addr"`
	RedisPassword string `yaml:"redis_password"`
	PostgresDSN   string `yaml:"postgres_dsn"`
	Collection    string `yaml:"collection"`

	// Notifications
	SiteURL        string `yaml:"site_url"`
	TelegramToken  string `yaml:"telegram_token"`
	TelegramChatID string `yaml:"telegram_chat_id"`
	WebhookURL     string `yaml:"webhook_url"`

	// Observability
	PushgatewayURL string `yaml:"pushgateway_url"`
	LogLevel       string `yaml:"log_level"`
	TracingEnabled bool   `yaml:"tracing_enabled"`
}

// Defaults returns the built-in configuration.
func Defaults() *Config {
	ind := indicator.DefaultConfig()
	p := strategy.DefaultParams()
	return &Config{
		Symbol:      "BTC/USD",
		Timeframe:   "15m",
		CandleCount: 100,

		DataSource: "rest",

		RSIPeriod:    ind.RSIPeriod,
		BBPeriod:     ind.BBPeriod,
		BBStd:        ind.BBStdDev,
		ADXThreshold: p.ADXThreshold,

		RSILow:              p.RSILow,
		RSIHigh:             p.RSIHigh,
		StopLossPct:         p.StopLossPct,
		LongEntryTolerance:  p.LongBandTolerance,
		ShortEntryTolerance: p.ShortBandTolerance,

		Collection: "signals",
		LogLevel:   "info",
	}
}

// Load builds the configuration from defaults, the YAML file named by
// CONFIG_FILE (if any) and the environment, then validates it.
func Load() (*Config, error) {
	cfg := Defaults()

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := cfg.mergeFile(path); err != nil {
			return nil, err
		}
	}
	if err := cfg.mergeEnv(); err != nil {
		return nil, err
	}
	cfg.clamp()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) mergeFile(path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return &ConfigurationError{Key: "CONFIG_FILE", Reason: err.Error()}
	}
	if err := yaml.Unmarshal(raw, c); err != nil {
		return &ConfigurationError{Key: "CONFIG_FILE", Reason: "parse " + path + ": " + err.Error()}
	}
	return nil
}

func (c *Config) mergeEnv() error {
	e := envReader{}

	e.setString("SYMBOL", &c.Symbol)
	e.setString("TIMEFRAME", &c.Timeframe)
	e.setInt("CANDLE_COUNT", &c.CandleCount)

	e.setString("DATA_SOURCE", &c.DataSource)
	e.setString("KRAKEN_REST_URL", &c.KrakenRESTURL)
	e.setString("KRAKEN_WS_URL", &c.KrakenWSURL)

	e.setInt("RSI_PERIOD", &c.RSIPeriod)
	e.setInt("BB_PERIOD", &c.BBPeriod)
	e.setFloat("BB_STD", &c.BBStd)
	e.setInt("ADX_PERIOD", &c.ADXPeriod)
	e.setFloat("ADX_THRESHOLD", &c.ADXThreshold)
	e.setInt("TREND_EMA_PERIOD", &c.TrendEMAPeriod)

	e.setFloat("RSI_LOW", &c.RSILow)
	e.setFloat("RSI_HIGH", &c.RSIHigh)
	e.setFloat("STOP_LOSS_PCT", &c.StopLossPct)
	e.setFloat("LONG_ENTRY_TOLERANCE", &c.LongEntryTolerance)
	e.setFloat("SHORT_ENTRY_TOLERANCE", &c.ShortEntryTolerance)

	e.setString("STORE_DRIVER", &c.StoreDriver)
	e.setString("SQLITE_PATH", &c.SQLitePath)
	e.setString("REDIS_ADDR", &c.RedisAddr)
	e.setString("REDIS_PASSWORD", &c.RedisPassword)
	e.setString("POSTGRES_DSN", &c.PostgresDSN)
	e.setString("COLLECTION", &c.Collection)

	e.setString("SITE_URL", &c.SiteURL)
	e.setString("TELEGRAM_TOKEN", &c.TelegramToken)
	e.setString("TELEGRAM_CHAT_ID", &c.TelegramChatID)
	e.setString("WEBHOOK_URL", &c.WebhookURL)

	e.setString("PUSHGATEWAY_URL", &c.PushgatewayURL)
	e.setString("LOG_LEVEL", &c.LogLevel)
	e.setBool("TRACING_ENABLED", &c.TracingEnabled)

	return errors.Join(e.errs...)
}

func (c *Config) clamp() {
	switch {
	case c.CandleCount < MinCandleCount:
		slog.Warn("candle count raised to minimum", slog.String("component", "config"),
			slog.Int("requested", c.CandleCount), slog.Int("used", MinCandleCount))
		c.CandleCount = MinCandleCount
	case c.CandleCount > MaxCandleCount:
		slog.Warn("candle count lowered to maximum", slog.String("component", "config"),
			slog.Int("requested", c.CandleCount), slog.Int("used", MaxCandleCount))
		c.CandleCount = MaxCandleCount
	}
}

// Validate checks the settings the decision cycle depends on. Store and
// notifier credentials are checked where those collaborators are built.
func (c *Config) Validate() error {
	if !strings.Contains(c.Symbol, "/") {
		return &ConfigurationError{Key: "SYMBOL", Reason: fmt.Sprintf("want BASE/QUOTE, got %q", c.Symbol)}
	}
	if _, err := marketdata.ParseTimeframe(c.Timeframe); err != nil {
		return &ConfigurationError{Key: "TIMEFRAME", Reason: err.Error()}
	}
	if err := c.IndicatorConfig().Validate(); err != nil {
		return &ConfigurationError{Key: "indicators", Reason: err.Error()}
	}
	if err := c.StrategyParams().Validate(); err != nil {
		return &ConfigurationError{Key: "strategy", Reason: err.Error()}
	}
	for _, w := range c.warmupWarnings() {
		slog.Warn(w, slog.String("component", "config"),
			slog.Int("candle_count", c.CandleCount),
			slog.Int("warmup", c.IndicatorConfig().Warmup()))
	}
	if c.Collection == "" {
		return &ConfigurationError{Key: "COLLECTION", Reason: "must not be empty"}
	}
	return nil
}

// warmupWarnings lists the gates that can never open because the candle
// window is shorter than their indicator's warm-up. An unready ADX blocks
// entries, and an unready trend EMA falls back to the close, which passes
// neither the long nor the short comparison.
func (c *Config) warmupWarnings() []string {
	var out []string
	if c.ADXPeriod > 0 && 2*c.ADXPeriod > c.CandleCount {
		out = append(out, fmt.Sprintf(
			"ADX_PERIOD %d needs %d candles but CANDLE_COUNT is %d: ADX never warms up and no entry will ever fire",
			c.ADXPeriod, 2*c.ADXPeriod, c.CandleCount))
	}
	if c.TrendEMAPeriod > c.CandleCount {
		out = append(out, fmt.Sprintf(
			"TREND_EMA_PERIOD %d exceeds CANDLE_COUNT %d: trend EMA never warms up and no trend-filtered entry will ever fire",
			c.TrendEMAPeriod, c.CandleCount))
	}
	return out
}

// IndicatorConfig converts the settings for the indicator engine.
func (c *Config) IndicatorConfig() indicator.Config {
	return indicator.Config{
		RSIPeriod:      c.RSIPeriod,
		BBPeriod:       c.BBPeriod,
		BBStdDev:       c.BBStd,
		ADXPeriod:      c.ADXPeriod,
		TrendEMAPeriod: c.TrendEMAPeriod,
	}
}

// StrategyParams converts the settings for the decision engine. The ADX gate
// and trend filter are on exactly when their indicator is enabled.
func (c *Config) StrategyParams() strategy.Params {
	return strategy.Params{
		RSILow:             c.RSILow,
		RSIHigh:            c.RSIHigh,
		LongBandTolerance:  c.LongEntryTolerance,
		ShortBandTolerance: c.ShortEntryTolerance,
		StopLossPct:        c.StopLossPct,
		ADXFilter:          c.ADXPeriod > 0,
		ADXThreshold:       c.ADXThreshold,
		TrendFilter:        c.TrendEMAPeriod > 0,
	}
}

// SlogLevel maps LogLevel to a slog level; unknown values mean info.
func (c *Config) SlogLevel() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// envReader applies set environment variables and collects parse errors.
type envReader struct {
	errs []error
}

func (r *envReader) setString(key string, dst *string) {
	if v := getEnv(key, ""); v != "" {
		*dst = v
	}
}

func (r *envReader) setInt(key string, dst *int) {
	v := getEnv(key, "")
	if v == "" {
		return
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		r.errs = append(r.errs, &ConfigurationError{Key: key, Reason: fmt.Sprintf("not an integer: %q", v)})
		return
	}
	*dst = n
}

func (r *envReader) setFloat(key string, dst *float64) {
	v := getEnv(key, "")
	if v == "" {
		return
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		r.errs = append(r.errs, &ConfigurationError{Key: key, Reason: fmt.Sprintf("not a number: %q", v)})
		return
	}
	*dst = f
}

func (r *envReader) setBool(key string, dst *bool) {
	v := getEnv(key, "")
	if v == "" {
		return
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		r.errs = append(r.errs, &ConfigurationError{Key: key, Reason: fmt.Sprintf("not a boolean: %q", v)})
		return
	}
	*dst = b
}

func getEnv(key, fallback string) string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	return v
}
