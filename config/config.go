// Package config loads bot configuration from the environment, optionally
// overridden by a YAML file. A .env file next to the binary is honored.
package config

import (
	"flag"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/vadiminshakov/crossma/internal/domain"
	"gopkg.in/yaml.v3"
)

const (
	defaultSymbol       = "BTC_USDT"
	defaultFast         = 10
	defaultSlow         = 20
	defaultQty          = "0.001"
	defaultMaxDrawdown  = "0.05"
	defaultPollInterval = 15 * time.Second
	defaultBarInterval  = "1m"
	defaultRiskFile     = "risk_state.json"
	defaultTradeLog     = "trade_log.csv"
	defaultDashAddr     = ":8080"
	minDefaultLookback  = 300
)

// Config is the resolved runtime configuration.
type Config struct {
	Platform     string
	Pair         domain.Pair
	Fast         int
	Slow         int
	Qty          decimal.Decimal
	DryRun       bool
	MaxDrawdown  decimal.Decimal
	PollInterval time.Duration
	BarInterval  string
	// Lookback is the number of bars fetched per tick.
	Lookback int

	RiskStateFile string
	TradeLogFile  string

	DashboardAddr string
	// DashboardDomains enables automatic TLS when non-empty.
	DashboardDomains []string
	CertCacheDir     string

	// RunSetup and RunBacktest are one-shot modes selected via flags.
	RunSetup    bool
	RunBacktest bool
}

// yamlConfig is the file representation; string fields keep decimal values
// exact.
type yamlConfig struct {
	Platform         string        `yaml:"platform"`
	Symbol           string        `yaml:"symbol"`
	Fast             int           `yaml:"fast"`
	Slow             int           `yaml:"slow"`
	Qty              string        `yaml:"qty"`
	DryRun           bool          `yaml:"dry_run"`
	MaxDDPct         string        `yaml:"max_dd_pct"`
	PollInterval     time.Duration `yaml:"poll_interval"`
	BarInterval      string        `yaml:"bar_interval"`
	Lookback         int           `yaml:"lookback,omitempty"`
	RiskStateFile    string        `yaml:"risk_state_file,omitempty"`
	TradeLogFile     string        `yaml:"trade_log_file,omitempty"`
	DashboardAddr    string        `yaml:"dashboard_addr,omitempty"`
	DashboardDomains []string      `yaml:"dashboard_domains,omitempty"`
	CertCacheDir     string        `yaml:"cert_cache_dir,omitempty"`
}

// Get resolves configuration from flags, an optional YAML file and the
// environment. Any invalid setting is fatal at startup by contract.
func Get() (Config, error) {
	// missing .env is fine, the environment may already be populated
	_ = godotenv.Load()

	configPath := flag.String("config", "", "path to yaml config")
	setup := flag.Bool("setup", false, "run the interactive configuration wizard")
	backtest := flag.Bool("backtest", false, "replay historical bars instead of trading")
	flag.Parse()

	var (
		cfg Config
		err error
	)
	if *configPath != "" {
		cfg, err = fromYaml(*configPath)
	} else {
		cfg, err = fromEnv()
	}
	if err != nil {
		return Config{}, err
	}

	cfg.RunSetup = *setup
	cfg.RunBacktest = *backtest

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func fromEnv() (Config, error) {
	cfg := Config{
		Platform:      envOr("PLATFORM", "binance"),
		Fast:          defaultFast,
		Slow:          defaultSlow,
		BarInterval:   envOr("BAR_INTERVAL", defaultBarInterval),
		PollInterval:  defaultPollInterval,
		RiskStateFile: envOr("RISK_STATE_FILE", defaultRiskFile),
		TradeLogFile:  envOr("TRADE_LOG_FILE", defaultTradeLog),
		DashboardAddr: envOr("DASHBOARD_ADDR", defaultDashAddr),
		CertCacheDir:  envOr("CERT_CACHE_DIR", ""),
	}

	pair, err := domain.ParsePair(envOr("SYMBOL", defaultSymbol))
	if err != nil {
		return Config{}, errors.Wrap(err, "invalid SYMBOL")
	}
	cfg.Pair = pair

	if v := os.Getenv("FAST"); v != "" {
		if cfg.Fast, err = strconv.Atoi(v); err != nil {
			return Config{}, errors.Wrapf(err, "invalid FAST %q", v)
		}
	}
	if v := os.Getenv("SLOW"); v != "" {
		if cfg.Slow, err = strconv.Atoi(v); err != nil {
			return Config{}, errors.Wrapf(err, "invalid SLOW %q", v)
		}
	}
	if cfg.Qty, err = decimal.NewFromString(envOr("QTY", defaultQty)); err != nil {
		return Config{}, errors.Wrap(err, "invalid QTY")
	}
	if v := os.Getenv("DRY_RUN"); v != "" {
		if cfg.DryRun, err = strconv.ParseBool(v); err != nil {
			return Config{}, errors.Wrapf(err, "invalid DRY_RUN %q", v)
		}
	}
	if cfg.MaxDrawdown, err = decimal.NewFromString(envOr("MAX_DD_PCT", defaultMaxDrawdown)); err != nil {
		return Config{}, errors.Wrap(err, "invalid MAX_DD_PCT")
	}
	if v := os.Getenv("POLL_INTERVAL"); v != "" {
		if cfg.PollInterval, err = time.ParseDuration(v); err != nil {
			return Config{}, errors.Wrapf(err, "invalid POLL_INTERVAL %q", v)
		}
	}
	if v := os.Getenv("LOOKBACK"); v != "" {
		if cfg.Lookback, err = strconv.Atoi(v); err != nil {
			return Config{}, errors.Wrapf(err, "invalid LOOKBACK %q", v)
		}
	}
	if v := os.Getenv("DASHBOARD_DOMAINS"); v != "" {
		cfg.DashboardDomains = splitDomains(v)
	}

	return cfg, nil
}

func fromYaml(path string) (Config, error) {
	payload, err := os.ReadFile(path)
	if err != nil {
		return Config{}, errors.Wrap(err, "read config file")
	}

	var yc yamlConfig
	if err := yaml.Unmarshal(payload, &yc); err != nil {
		return Config{}, errors.Wrap(err, "parse config file")
	}

	cfg := Config{
		Platform:         valueOr(yc.Platform, "binance"),
		Fast:             yc.Fast,
		Slow:             yc.Slow,
		DryRun:           yc.DryRun,
		PollInterval:     yc.PollInterval,
		BarInterval:      valueOr(yc.BarInterval, defaultBarInterval),
		Lookback:         yc.Lookback,
		RiskStateFile:    valueOr(yc.RiskStateFile, defaultRiskFile),
		TradeLogFile:     valueOr(yc.TradeLogFile, defaultTradeLog),
		DashboardAddr:    valueOr(yc.DashboardAddr, defaultDashAddr),
		DashboardDomains: yc.DashboardDomains,
		CertCacheDir:     yc.CertCacheDir,
	}

	if cfg.Pair, err = domain.ParsePair(valueOr(yc.Symbol, defaultSymbol)); err != nil {
		return Config{}, errors.Wrap(err, "incorrect 'symbol' param in yaml config")
	}
	if cfg.Fast == 0 {
		cfg.Fast = defaultFast
	}
	if cfg.Slow == 0 {
		cfg.Slow = defaultSlow
	}
	if cfg.PollInterval == 0 {
		cfg.PollInterval = defaultPollInterval
	}
	if cfg.Qty, err = decimal.NewFromString(valueOr(yc.Qty, defaultQty)); err != nil {
		return Config{}, errors.Wrap(err, "incorrect 'qty' param in yaml config")
	}
	if cfg.MaxDrawdown, err = decimal.NewFromString(valueOr(yc.MaxDDPct, defaultMaxDrawdown)); err != nil {
		return Config{}, errors.Wrap(err, "incorrect 'max_dd_pct' param in yaml config")
	}

	return cfg, nil
}

func (c *Config) validate() error {
	switch c.Platform {
	case "binance", "bybit":
	default:
		return errors.Errorf("unsupported platform %q", c.Platform)
	}
	if c.Fast < 1 {
		return errors.Errorf("fast period must be at least 1, got %d", c.Fast)
	}
	if c.Slow <= c.Fast {
		return errors.Errorf("slow period must be greater than fast period, got fast=%d slow=%d", c.Fast, c.Slow)
	}
	if !c.Qty.IsPositive() {
		return errors.Errorf("qty must be positive, got %s", c.Qty.String())
	}
	if !c.MaxDrawdown.IsPositive() || c.MaxDrawdown.GreaterThanOrEqual(decimal.NewFromInt(1)) {
		return errors.Errorf("max drawdown must be in (0,1), got %s", c.MaxDrawdown.String())
	}
	if c.PollInterval <= 0 {
		return errors.Errorf("poll interval must be positive, got %s", c.PollInterval)
	}
	if !validBarInterval(c.BarInterval) {
		return errors.Errorf("invalid bar interval %q", c.BarInterval)
	}

	if c.Lookback == 0 {
		c.Lookback = c.Slow + 50
		if c.Lookback < minDefaultLookback {
			c.Lookback = minDefaultLookback
		}
	}
	if c.Lookback < c.Slow+1 {
		return errors.Errorf("lookback %d is too short for SLOW=%d, need at least %d", c.Lookback, c.Slow, c.Slow+1)
	}

	return nil
}

// validBarInterval accepts the interval grammar both brokerages understand:
// a positive integer followed by a unit of m, h, d or w.
func validBarInterval(interval string) bool {
	if len(interval) < 2 {
		return false
	}
	switch interval[len(interval)-1] {
	case 'm', 'h', 'd', 'w':
	default:
		return false
	}
	n, err := strconv.Atoi(interval[:len(interval)-1])
	return err == nil && n > 0
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func valueOr(v, fallback string) string {
	if v != "" {
		return v
	}
	return fallback
}

func splitDomains(v string) []string {
	var domains []string
	for _, d := range strings.Split(v, ",") {
		if d = strings.TrimSpace(d); d != "" {
			domains = append(domains, d)
		}
	}
	return domains
}
