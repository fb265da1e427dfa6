// Command crossma runs the SMA crossover trading bot. It polls recent bars,
// evaluates the fast/slow crossover signal behind a drawdown gate and writes
// every decision to the CSV audit log shared with the dashboard process.
//
// Usage:
//
//	crossma [--config config.yaml] [--setup] [--backtest]
//
// Required environment variables:
//
//	For Binance: BINANCE_API_KEY, BINANCE_API_SECRET
//	For Bybit: BYBIT_API_KEY, BYBIT_API_SECRET
package main

import (
	"context"
	"errors"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/vadiminshakov/crossma/config"
	"github.com/vadiminshakov/crossma/internal"
	"github.com/vadiminshakov/crossma/internal/clients"
	"github.com/vadiminshakov/crossma/internal/setup"
	"github.com/vadiminshakov/crossma/internal/storage/auditlog"
	"github.com/vadiminshakov/crossma/internal/storage/riskstate"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

func main() {
	conf, err := config.Get()
	if err != nil {
		log.Fatal(err)
	}

	if conf.RunSetup {
		if err := setup.RunTUI(); err != nil {
			log.Fatal(err)
		}
		return
	}

	logger, _ := zap.NewProduction()
	defer logger.Sync()
	zap.ReplaceGlobals(logger)

	var client any
	switch conf.Platform {
	case "binance":
		apiKey := os.Getenv("BINANCE_API_KEY")
		apiSecret := os.Getenv("BINANCE_API_SECRET")
		if apiKey == "" || apiSecret == "" {
			logger.Fatal("BINANCE_API_KEY and BINANCE_API_SECRET environment variables must be set")
		}
		client = clients.NewBinanceClient(apiKey, apiSecret)
	case "bybit":
		apiKey := os.Getenv("BYBIT_API_KEY")
		apiSecret := os.Getenv("BYBIT_API_SECRET")
		if apiKey == "" || apiSecret == "" {
			logger.Fatal("BYBIT_API_KEY and BYBIT_API_SECRET environment variables must be set")
		}
		client = clients.NewBybitClient(apiKey, apiSecret)
	default:
		logger.Fatal("unsupported platform", zap.String("platform", conf.Platform))
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if conf.RunBacktest {
		if err := internal.RunBacktest(ctx, conf, client, logger); err != nil {
			logger.Fatal("backtest failed", zap.Error(err))
		}
		return
	}

	states, err := riskstate.NewStore(conf.RiskStateFile)
	if err != nil {
		logger.Fatal("failed to open risk state store", zap.Error(err))
	}

	audit, err := auditlog.NewLog(conf.TradeLogFile)
	if err != nil {
		logger.Fatal("failed to open trade log", zap.Error(err))
	}

	bot, err := internal.NewTradingBot(conf, client, states, audit)
	if err != nil {
		logger.Fatal("failed to create trading bot", zap.Error(err))
	}
	defer bot.Close()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return bot.Run(ctx, logger)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Fatal("bot stopped with error", zap.Error(err))
	}
	logger.Info("bot stopped")
}
