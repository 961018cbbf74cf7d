// cmd/churn-loader/main.go
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"churn-loader/internal/common/config"
	"churn-loader/internal/common/logger"
	"churn-loader/internal/common/observability"
	"churn-loader/internal/pipeline"
)

func main() {
	os.Exit(run())
}

func run() int {
	cfg, err := config.Load()
	if err != nil {
		bootLog := logger.New("info", "console")
		bootLog.Error("config load failed", zap.Error(err))
		_ = bootLog.Sync()
		return 1
	}

	zapLog := logger.New(cfg.Logging.Level, cfg.Logging.Format)
	defer zapLog.Sync() //nolint:errcheck

	log := logger.NewZapAdapter(zapLog)

	obs, err := observability.New(cfg.App.Name, nil)
	if err != nil {
		zapLog.Warn("step metrics disabled", zap.Error(err))
	}
	defer obs.Shutdown()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	p := pipeline.New(cfg, log, pipeline.WithObservability(obs))
	if err := p.Run(ctx); err != nil {
		zapLog.Error("churn loader failed", zap.String("runId", p.RunID()), zap.Error(err))
		return 1
	}
	return 0
}
