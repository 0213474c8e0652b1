// Command server runs the OrderDrop HTTP controller with configuration taken
// from the environment (and $ORDERDROP_CONFIG when set).
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/dharsanguruparan/OrderDrop/internal/app"
	"github.com/dharsanguruparan/OrderDrop/internal/config"
	"github.com/dharsanguruparan/OrderDrop/internal/logger"
)

func main() {
	cfg, err := config.Load("")
	if err != nil {
		slog.Error("load config", slog.Any("error", err))
		os.Exit(1)
	}
	log := logger.New(os.Stderr, cfg.LogLevel, cfg.LogFormat)
	slog.SetDefault(log)

	a, err := app.New(cfg, log)
	if err != nil {
		log.Error("init app", slog.Any("error", err))
		os.Exit(1)
	}
	defer a.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	if err := a.Server().Serve(ctx); err != nil {
		log.Error("server stopped", slog.Any("error", err))
		os.Exit(1)
	}
}
