package internal

import (
	"context"
	"fmt"

	binance "github.com/adshao/go-binance/v2"
	bybit "github.com/hirokisan/bybit/v2"
	"github.com/shopspring/decimal"
	"github.com/vadiminshakov/crossma/config"
	"github.com/vadiminshakov/crossma/internal/domain"
	"github.com/vadiminshakov/crossma/internal/services/market"
	"github.com/vadiminshakov/crossma/internal/services/trader"
)

// MarketData exposes the read-only brokerage surface the bot needs.
type MarketData interface {
	GetBars(ctx context.Context, limit int) ([]domain.Bar, error)
	GetPrice(ctx context.Context) (decimal.Decimal, error)
	GetEquity(ctx context.Context) (decimal.Decimal, error)
	GetPosition(ctx context.Context) (decimal.Decimal, error)
}

// Trader submits orders to the brokerage.
type Trader interface {
	SubmitOrder(ctx context.Context, side domain.Side, qty decimal.Decimal) (domain.OrderResult, error)
}

// createMarketAndTrader dispatches to platform-specific implementations.
// This is the single point of truth for supported client types.
func createMarketAndTrader(conf config.Config, client any) (MarketData, Trader, error) {
	switch c := client.(type) {
	case *binance.Client:
		return market.NewBinanceMarket(c, conf.Pair, conf.BarInterval), trader.NewBinanceTrader(c, conf.Pair), nil
	case *bybit.Client:
		return market.NewBybitMarket(c, conf.Pair, conf.BarInterval), trader.NewBybitTrader(c, conf.Pair), nil
	default:
		return nil, nil, fmt.Errorf("unsupported client type: %T", client)
	}
}
