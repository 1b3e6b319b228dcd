// Package app wires the quoting service together and manages its lifecycle.
package app

import (
	"context"
	"sync"

	"github.com/mselser95/fpmm-quoter/internal/compound"
	"github.com/mselser95/fpmm-quoter/internal/markets"
	"github.com/mselser95/fpmm-quoter/internal/storage"
	"github.com/mselser95/fpmm-quoter/pkg/cache"
	"github.com/mselser95/fpmm-quoter/pkg/config"
	"github.com/mselser95/fpmm-quoter/pkg/healthprobe"
	"github.com/mselser95/fpmm-quoter/pkg/httpserver"
	"go.uber.org/zap"
)

// App is the main application orchestrator.
type App struct {
	cfg           *config.Config
	logger        *zap.Logger
	opts          *Options
	healthChecker *healthprobe.HealthChecker
	httpServer    *httpserver.Server
	cache         *cache.RistrettoCache
	markets       *markets.CachedClient
	rates         *compound.Registry
	storage       storage.Storage // nil when journaling is disabled
	closeChain    func()
	ctx           context.Context
	cancel        context.CancelFunc
	wg            sync.WaitGroup
}

// Options holds application options.
type Options struct {
	// Markets are market maker addresses to load at startup, registering the
	// exchange rate of any cToken collateral.
	Markets []string
}
