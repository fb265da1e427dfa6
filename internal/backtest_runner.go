package internal

import (
	"context"

	"github.com/pkg/errors"
	"github.com/vadiminshakov/crossma/config"
	"github.com/vadiminshakov/crossma/internal/backtest"
	"github.com/vadiminshakov/crossma/internal/services/signal"
	"go.uber.org/zap"
)

// RunBacktest fetches the configured lookback window of bars and replays it
// through the crossover signal, logging simulated fills and the resulting PnL.
func RunBacktest(ctx context.Context, conf config.Config, client any, logger *zap.Logger) error {
	currentMarket, _, err := createMarketAndTrader(conf, client)
	if err != nil {
		return errors.Wrap(err, "failed to create market accessor")
	}

	engine, err := signal.NewEngine(conf.Fast, conf.Slow)
	if err != nil {
		return errors.Wrap(err, "failed to create signal engine")
	}

	bars, err := currentMarket.GetBars(ctx, conf.Lookback)
	if err != nil {
		return errors.Wrapf(err, "failed to fetch bars for %s", conf.Pair.String())
	}

	res, err := backtest.Replay(engine, bars, conf.Qty)
	if err != nil {
		return errors.Wrap(err, "replay failed")
	}

	for _, tr := range res.Trades {
		logger.Info("Simulated fill",
			zap.Time("time", tr.Time),
			zap.String("side", string(tr.Side)),
			zap.String("price", tr.Price.String()),
			zap.String("qty", tr.Qty.String()),
			zap.Float64("confidence", tr.Confidence),
			zap.String("reason", tr.Reason))
	}

	logger.Info("Backtest finished",
		zap.String("pair", conf.Pair.String()),
		zap.Int("bars", len(bars)),
		zap.Int("trades", len(res.Trades)),
		zap.String("realized_pnl", res.RealizedPnL.String()),
		zap.String("unrealized_pnl", res.UnrealizedPnL.String()),
		zap.Bool("open_position", res.OpenPosition))

	return nil
}
