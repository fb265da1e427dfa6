package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func TestFromEnvDefaults(t *testing.T) {
	cfg, err := fromEnv()
	require.NoError(t, err)
	require.NoError(t, cfg.validate())

	require.Equal(t, "binance", cfg.Platform)
	require.Equal(t, "BTC_USDT", cfg.Pair.String())
	require.Equal(t, 10, cfg.Fast)
	require.Equal(t, 20, cfg.Slow)
	require.True(t, cfg.Qty.Equal(decimal.NewFromFloat(0.001)))
	require.False(t, cfg.DryRun)
	require.True(t, cfg.MaxDrawdown.Equal(decimal.NewFromFloat(0.05)))
	require.Equal(t, 15*time.Second, cfg.PollInterval)
	require.Equal(t, "1m", cfg.BarInterval)
	require.Equal(t, 300, cfg.Lookback)
	require.Equal(t, "risk_state.json", cfg.RiskStateFile)
	require.Equal(t, "trade_log.csv", cfg.TradeLogFile)
}

func TestFromEnvOverrides(t *testing.T) {
	t.Setenv("SYMBOL", "ETH_USDT")
	t.Setenv("FAST", "5")
	t.Setenv("SLOW", "30")
	t.Setenv("QTY", "0.5")
	t.Setenv("DRY_RUN", "true")
	t.Setenv("POLL_INTERVAL", "30s")
	t.Setenv("LOOKBACK", "100")
	t.Setenv("DASHBOARD_DOMAINS", "bot.example.com, www.bot.example.com")

	cfg, err := fromEnv()
	require.NoError(t, err)
	require.NoError(t, cfg.validate())

	require.Equal(t, "ETH_USDT", cfg.Pair.String())
	require.Equal(t, 5, cfg.Fast)
	require.Equal(t, 30, cfg.Slow)
	require.True(t, cfg.Qty.Equal(decimal.NewFromFloat(0.5)))
	require.True(t, cfg.DryRun)
	require.Equal(t, 30*time.Second, cfg.PollInterval)
	require.Equal(t, 100, cfg.Lookback)
	require.Equal(t, []string{"bot.example.com", "www.bot.example.com"}, cfg.DashboardDomains)
}

func TestFromYaml(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	payload := `platform: bybit
symbol: ETH_USDT
fast: 7
slow: 21
qty: "0.25"
dry_run: true
max_dd_pct: "0.1"
poll_interval: 1m
bar_interval: 5m
`
	require.NoError(t, os.WriteFile(path, []byte(payload), 0o644))

	cfg, err := fromYaml(path)
	require.NoError(t, err)
	require.NoError(t, cfg.validate())

	require.Equal(t, "bybit", cfg.Platform)
	require.Equal(t, "ETH_USDT", cfg.Pair.String())
	require.Equal(t, 7, cfg.Fast)
	require.Equal(t, 21, cfg.Slow)
	require.True(t, cfg.Qty.Equal(decimal.NewFromFloat(0.25)))
	require.True(t, cfg.DryRun)
	require.True(t, cfg.MaxDrawdown.Equal(decimal.NewFromFloat(0.1)))
	require.Equal(t, time.Minute, cfg.PollInterval)
	require.Equal(t, "5m", cfg.BarInterval)
}

func TestValidateRejectsBadSettings(t *testing.T) {
	base := func() Config {
		cfg, err := fromEnv()
		require.NoError(t, err)
		return cfg
	}

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"fast not below slow", func(c *Config) { c.Fast = 20; c.Slow = 20 }},
		{"zero qty", func(c *Config) { c.Qty = decimal.Zero }},
		{"drawdown of one", func(c *Config) { c.MaxDrawdown = decimal.NewFromInt(1) }},
		{"negative poll interval", func(c *Config) { c.PollInterval = -time.Second }},
		{"unknown platform", func(c *Config) { c.Platform = "kraken" }},
		{"bad bar interval", func(c *Config) { c.BarInterval = "fortnight" }},
		{"lookback below slow", func(c *Config) { c.Lookback = 10 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base()
			tt.mutate(&cfg)
			require.Error(t, cfg.validate())
		})
	}
}

func TestLookbackDefaultScalesWithSlow(t *testing.T) {
	cfg, err := fromEnv()
	require.NoError(t, err)
	cfg.Slow = 400
	cfg.Fast = 100
	cfg.Lookback = 0

	require.NoError(t, cfg.validate())
	require.Equal(t, 450, cfg.Lookback)
}
