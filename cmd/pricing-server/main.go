// Command pricing-server runs the Geographic Resolver and Pricing
// Orchestrator behind an HTTP API.
package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/gyeh/cms-pricing/internal/app"
	"github.com/gyeh/cms-pricing/internal/config"
	"github.com/gyeh/cms-pricing/internal/logging"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	cfg, err := config.Load("")
	if err != nil {
		return err
	}

	zapLog, err := logging.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return err
	}
	defer zapLog.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := app.Init(ctx, cfg, zapLog)
	if err != nil {
		return err
	}
	defer a.Close()

	serveErr := make(chan error, 1)
	go func() {
		if err := a.Serve(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
			return
		}
		serveErr <- nil
	}()

	select {
	case <-ctx.Done():
		zapLog.Info("shutdown signal received, draining")
	case err := <-serveErr:
		if err != nil {
			return err
		}
		return nil
	}

	shutdownCtx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := a.Drain(shutdownCtx); err != nil {
		zapLog.Warn("drain did not complete cleanly", zap.Error(err))
	}
	return <-serveErr
}
