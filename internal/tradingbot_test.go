package internal

import (
	"path/filepath"
	"testing"
	"time"

	binance "github.com/adshao/go-binance/v2"
	bybit "github.com/hirokisan/bybit/v2"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vadiminshakov/crossma/config"
	"github.com/vadiminshakov/crossma/internal/domain"
	"github.com/vadiminshakov/crossma/internal/storage/auditlog"
	"github.com/vadiminshakov/crossma/internal/storage/riskstate"
)

func TestNewTradingBot(t *testing.T) {
	defaultConf := config.Config{
		Pair:         domain.Pair{From: "BTC", To: "USDT"},
		Fast:         10,
		Slow:         20,
		Qty:          decimal.NewFromFloat(0.001),
		MaxDrawdown:  decimal.NewFromFloat(0.05),
		PollInterval: 1 * time.Minute,
		BarInterval:  "1m",
		Lookback:     300,
	}

	tests := []struct {
		name             string
		client           interface{}
		expectError      bool
		expectedErrorMsg string
	}{
		{
			name:             "Unsupported Client",
			client:           "not a client",
			expectError:      true,
			expectedErrorMsg: "unsupported client type",
		},
		{
			name:        "Valid Binance Client",
			client:      &binance.Client{},
			expectError: false,
		},
		{
			name:        "Valid Bybit Client",
			client:      &bybit.Client{},
			expectError: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			states, err := riskstate.NewStore(filepath.Join(dir, "risk_state.json"))
			require.NoError(t, err)
			audit, err := auditlog.NewLog(filepath.Join(dir, "trade_log.csv"))
			require.NoError(t, err)

			bot, err := NewTradingBot(defaultConf, tt.client, states, audit)

			if tt.expectError {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.expectedErrorMsg)
				assert.Nil(t, bot)
			} else {
				require.NoError(t, err)
				require.NotNil(t, bot)
				assert.Equal(t, defaultConf, bot.Config)
			}
		})
	}
}
