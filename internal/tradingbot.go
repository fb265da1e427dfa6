package internal

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/vadiminshakov/crossma/config"
	"github.com/vadiminshakov/crossma/internal/domain"
	"github.com/vadiminshakov/crossma/internal/services/risk"
	"github.com/vadiminshakov/crossma/internal/services/signal"
	"github.com/vadiminshakov/crossma/internal/services/strategy"
	"github.com/vadiminshakov/crossma/internal/storage/auditlog"
	"github.com/vadiminshakov/crossma/internal/storage/riskstate"
	"go.uber.org/zap"
)

type TradingStrategy interface {
	Initialize(ctx context.Context) error
	Trade(ctx context.Context) (*domain.TradeRecord, error)
	Close() error
}

// TradingBot represents a single trading instance
type TradingBot struct {
	Market          MarketData
	Trader          Trader
	Config          config.Config
	tradingStrategy TradingStrategy
}

// NewTradingBot creates a new trading bot instance
func NewTradingBot(conf config.Config, client any, states *riskstate.Store, audit *auditlog.Log) (*TradingBot, error) {
	currentMarket, currentTrader, err := createMarketAndTrader(conf, client)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create market and trader")
	}

	engine, err := signal.NewEngine(conf.Fast, conf.Slow)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create signal engine")
	}

	gate, err := risk.NewGate(conf.MaxDrawdown)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create risk gate")
	}

	tsLogger := zap.L().With(zap.String("pair", conf.Pair.String()))
	tradingStrategy, err := strategy.NewCrossoverStrategy(
		tsLogger,
		conf.Pair,
		conf.Qty,
		conf.Lookback,
		conf.DryRun,
		engine,
		gate,
		currentMarket,
		currentTrader,
		states,
		audit,
	)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create CrossoverStrategy")
	}

	return &TradingBot{
		Market:          currentMarket,
		Trader:          currentTrader,
		Config:          conf,
		tradingStrategy: tradingStrategy,
	}, nil
}

// Close closes the trading bot
func (b *TradingBot) Close() {
	b.tradingStrategy.Close()
}

// Run executes the trading bot
func (b *TradingBot) Run(ctx context.Context, logger *zap.Logger) error {
	if err := b.tradingStrategy.Initialize(ctx); err != nil {
		return errors.Wrap(err, "failed to initialize trading strategy")
	}

	ticker := time.NewTicker(b.Config.PollInterval)
	defer ticker.Stop()

	logger.Info("Starting trading loop", zap.String("pair", b.Config.Pair.String()), zap.Duration("poll_interval", b.Config.PollInterval))

	for {
		select {
		case <-ctx.Done():
			logger.Info("Context done, stopping trading bot run loop.", zap.String("pair", b.Config.Pair.String()))
			return ctx.Err()
		case <-ticker.C:
			logger.Debug("Trade tick", zap.String("pair", b.Config.Pair.String()))
			rec, err := b.tradingStrategy.Trade(ctx)
			if err != nil {
				if errors.Is(err, strategy.ErrNoData) {
					logger.Debug("No market data this tick, continuing", zap.String("pair", b.Config.Pair.String()))
				} else {
					logger.Error("Trading strategy failed", zap.String("pair", b.Config.Pair.String()), zap.Error(err))
				}
				continue
			}

			if rec != nil {
				logger.Info("Trade recorded", zap.String("pair", b.Config.Pair.String()), zap.String("record", rec.String()))
			}
		}
	}
}
