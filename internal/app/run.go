package app

import (
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mselser95/fpmm-quoter/internal/compound"
	"go.uber.org/zap"
)

// Run starts the application and blocks until shutdown.
func (a *App) Run() error {
	a.logger.Info("application-starting",
		zap.String("subgraph-url", a.cfg.SubgraphURL),
		zap.Duration("quote-debounce", a.cfg.QuoteDebounce),
		zap.String("storage-mode", a.cfg.StorageMode),
		zap.String("log-level", a.cfg.LogLevel))

	a.startComponents()

	// Mark as ready
	a.healthChecker.SetReady(true)

	a.logger.Info("application-ready",
		zap.String("http-addr", ":"+a.cfg.HTTPPort))

	// Wait for shutdown signal
	return a.waitForShutdown()
}

func (a *App) startComponents() {
	// Start HTTP server
	a.wg.Add(1)
	go a.runHTTPServer()

	// Give HTTP server a moment to start
	time.Sleep(100 * time.Millisecond)

	// Start exchange rate refresher
	a.wg.Add(1)
	go a.runRateRefresher()

	a.preloadMarkets()
}

func (a *App) runHTTPServer() {
	defer a.wg.Done()
	err := a.httpServer.Start()
	if err != nil {
		a.logger.Error("http-server-error", zap.Error(err))
		a.cancel()
	}
}

func (a *App) runRateRefresher() {
	defer a.wg.Done()
	err := a.rates.Run(a.ctx)
	if err != nil && !errors.Is(err, a.ctx.Err()) {
		a.logger.Error("rate-refresher-error", zap.Error(err))
	}
}

// preloadMarkets warms the snapshot cache for the configured markets and
// registers cToken collateral with the rate refresher. Failures are logged only.
func (a *App) preloadMarkets() {
	for _, address := range a.opts.Markets {
		mm, err := a.markets.MarketMaker(a.ctx, address)
		if err != nil {
			a.logger.Warn("market-preload-failed",
				zap.String("market", address),
				zap.Error(err))
			continue
		}

		a.logger.Info("market-preloaded",
			zap.String("market", mm.Address),
			zap.String("title", mm.Title),
			zap.String("collateral", mm.Collateral.Symbol),
			zap.Int("outcomes", len(mm.Balances)))

		if !compound.IsCToken(mm.Collateral.Symbol) {
			continue
		}
		_, err = a.rates.Get(a.ctx, mm.Collateral.Address)
		if err != nil {
			a.logger.Warn("exchange-rate-preload-failed",
				zap.String("ctoken", mm.Collateral.Symbol),
				zap.Error(err))
		}
	}
}

func (a *App) waitForShutdown() error {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	select {
	case sig := <-sigChan:
		a.logger.Info("shutdown-signal-received", zap.String("signal", sig.String()))
	case <-a.ctx.Done():
		a.logger.Info("context-cancelled")
	}

	return a.Shutdown()
}
