// Command dashboard serves the web UI over the risk state and trade log
// files written by the crossma bot. The two processes share only those files,
// so the dashboard can run on the same host without touching the brokerage.
package main

import (
	"context"
	"errors"
	"log"
	"os/signal"
	"syscall"

	"github.com/vadiminshakov/crossma/config"
	"github.com/vadiminshakov/crossma/internal/storage/auditlog"
	"github.com/vadiminshakov/crossma/internal/storage/riskstate"
	"github.com/vadiminshakov/crossma/internal/web"
	"go.uber.org/zap"
)

func main() {
	conf, err := config.Get()
	if err != nil {
		log.Fatal(err)
	}

	logger, _ := zap.NewProduction()
	defer logger.Sync()

	states, err := riskstate.NewStore(conf.RiskStateFile)
	if err != nil {
		logger.Fatal("failed to open risk state store", zap.Error(err))
	}

	trades, err := auditlog.NewLog(conf.TradeLogFile)
	if err != nil {
		logger.Fatal("failed to open trade log", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	server := web.NewServer(conf.DashboardAddr, conf.Pair.String(), trades, states)

	logger.Info("Starting dashboard",
		zap.String("addr", conf.DashboardAddr),
		zap.Strings("domains", conf.DashboardDomains))

	if len(conf.DashboardDomains) > 0 {
		err = server.StartWithAutoTLS(ctx, conf.DashboardDomains, conf.CertCacheDir)
	} else {
		err = server.Start(ctx)
	}
	if err != nil && !errors.Is(err, context.Canceled) {
		logger.Fatal("dashboard stopped with error", zap.Error(err))
	}
	logger.Info("dashboard stopped")
}
