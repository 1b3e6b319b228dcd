package app

import (
	"context"
	"fmt"
	"math/big"
	"time"

	"github.com/mselser95/fpmm-quoter/internal/compound"
	"github.com/mselser95/fpmm-quoter/internal/markets"
	"github.com/mselser95/fpmm-quoter/internal/outcomes"
	"github.com/mselser95/fpmm-quoter/internal/quoter"
	"github.com/mselser95/fpmm-quoter/internal/storage"
	"github.com/mselser95/fpmm-quoter/pkg/cache"
	"github.com/mselser95/fpmm-quoter/pkg/chain"
	"github.com/mselser95/fpmm-quoter/pkg/config"
	"github.com/mselser95/fpmm-quoter/pkg/healthprobe"
	"github.com/mselser95/fpmm-quoter/pkg/httpserver"
	"github.com/mselser95/fpmm-quoter/pkg/websocket"
	"go.uber.org/zap"
)

// blockReader is implemented by RPC clients that can report the chain head.
type blockReader interface {
	BlockNumber(ctx context.Context) (uint64, error)
}

// New creates a new application instance connected to cfg.RPCURL.
func New(cfg *config.Config, logger *zap.Logger, opts *Options) (*App, error) {
	client, err := chain.Dial(context.Background(), cfg.RPCURL)
	if err != nil {
		return nil, fmt.Errorf("setup chain client: %w", err)
	}

	a, err := newApp(cfg, logger, opts, client)
	if err != nil {
		client.Close()
		return nil, err
	}
	a.closeChain = client.Close
	return a, nil
}

// newApp builds the application on top of an existing contract caller.
func newApp(cfg *config.Config, logger *zap.Logger, opts *Options, caller chain.Caller) (*App, error) {
	if opts == nil {
		opts = &Options{}
	}

	ctx, cancel := context.WithCancel(context.Background())

	healthChecker := setupHealthChecker()

	appCache, err := setupCache(cfg, logger)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("setup cache: %w", err)
	}

	marketClient, err := setupMarkets(cfg, logger, appCache, caller)
	if err != nil {
		cancel()
		appCache.Close()
		return nil, fmt.Errorf("setup markets: %w", err)
	}

	rates, err := setupRates(cfg, logger, caller)
	if err != nil {
		cancel()
		appCache.Close()
		return nil, fmt.Errorf("setup exchange rates: %w", err)
	}

	quoteStorage, err := setupStorage(ctx, cfg, logger)
	if err != nil {
		cancel()
		appCache.Close()
		return nil, fmt.Errorf("setup storage: %w", err)
	}

	registerChecks(healthChecker, rates, caller)

	httpServer := setupHTTPServer(cfg, logger, healthChecker, &httpDeps{
		markets: marketClient,
		quoters: newQuoterSet(cfg, logger, appCache, caller),
		rates:   rates,
		caller:  caller,
		storage: quoteStorage,
	})

	return &App{
		cfg:           cfg,
		logger:        logger,
		opts:          opts,
		healthChecker: healthChecker,
		httpServer:    httpServer,
		cache:         appCache,
		markets:       marketClient,
		rates:         rates,
		storage:       quoteStorage,
		ctx:           ctx,
		cancel:        cancel,
	}, nil
}

func setupHealthChecker() *healthprobe.HealthChecker {
	return healthprobe.New()
}

func setupCache(cfg *config.Config, logger *zap.Logger) (*cache.RistrettoCache, error) {
	items := int64(cfg.CacheMaxItems)
	return cache.NewRistrettoCache(&cache.RistrettoConfig{
		NumCounters: 10 * items, // 10x expected max items
		MaxCost:     items,
		BufferItems: 64,
		Logger:      logger,
	})
}

func setupMarkets(cfg *config.Config, logger *zap.Logger, appCache cache.Cache, caller chain.Caller) (*markets.CachedClient, error) {
	client, err := markets.NewClient(cfg.SubgraphURL, logger)
	if err != nil {
		return nil, err
	}
	return markets.NewCachedClient(markets.CachedClientConfig{
		Fetcher: client,
		Tokens:  chain.NewTokenReader(caller),
		Cache:   appCache,
		PoolTTL: cfg.PoolCacheTTL,
		Logger:  logger,
	})
}

func setupRates(cfg *config.Config, logger *zap.Logger, caller chain.Caller) (*compound.Registry, error) {
	return compound.NewRegistry(&compound.RegistryConfig{
		Factory: func(ctx context.Context, address string) (compound.RateSource, string, error) {
			token, err := chain.NewCToken(address, caller)
			if err != nil {
				return nil, "", err
			}
			symbol, err := token.Symbol(ctx)
			if err != nil {
				return nil, "", fmt.Errorf("read symbol: %w", err)
			}
			return token, symbol, nil
		},
		RefreshInterval: cfg.RateRefreshInterval,
		Logger:          logger,
	})
}

func setupStorage(ctx context.Context, cfg *config.Config, logger *zap.Logger) (storage.Storage, error) {
	switch cfg.StorageMode {
	case config.StorageModePostgres:
		pgStorage, err := storage.NewPostgresStorage(ctx, &storage.PostgresConfig{
			Host:     cfg.PostgresHost,
			Port:     cfg.PostgresPort,
			User:     cfg.PostgresUser,
			Password: cfg.PostgresPass,
			Database: cfg.PostgresDB,
			SSLMode:  cfg.PostgresSSL,
			Logger:   logger,
		})
		if err != nil {
			return nil, fmt.Errorf("create postgres storage: %w", err)
		}
		return pgStorage, nil
	case config.StorageModeNone:
		return nil, nil
	default:
		return storage.NewConsoleStorage(logger), nil
	}
}

func registerChecks(hc *healthprobe.HealthChecker, rates *compound.Registry, caller chain.Caller) {
	hc.Register("exchange-rates", rates.Check)

	if br, ok := caller.(blockReader); ok {
		hc.Register("rpc", func(ctx context.Context) error {
			_, err := br.BlockNumber(ctx)
			return err
		})
	}
}

type httpDeps struct {
	markets *markets.CachedClient
	quoters *quoterSet
	rates   *compound.Registry
	caller  chain.Caller
	storage storage.Storage
}

func setupHTTPServer(
	cfg *config.Config,
	logger *zap.Logger,
	healthChecker *healthprobe.HealthChecker,
	deps *httpDeps,
) *httpserver.Server {
	httpCfg := &httpserver.Config{
		Port:           cfg.HTTPPort,
		Logger:         logger,
		HealthChecker:  healthChecker,
		AllowedOrigins: cfg.CORSAllowedOrigins,
		Markets:        deps.markets,
		Quoters:        deps.quoters.For,
		Sources: func(market string, shares []*big.Int) quoter.MarketSource {
			return markets.NewSource(deps.markets, market, shares)
		},
		Debounce: cfg.QuoteDebounce,
		Rates:    deps.rates,
		Balances: chain.NewBalanceReader(deps.caller),
		Journal:  deps.storage,
		Drafts:   outcomes.NewStore(logger),
		WebSocket: websocket.Config{
			PingInterval: cfg.WSPingInterval,
			PongTimeout:  cfg.WSPongTimeout,
			WriteTimeout: cfg.WSWriteTimeout,
			Logger:       logger,
		},
	}
	return httpserver.New(httpCfg)
}

// quoterTTL bounds how long a market maker binding stays cached.
const quoterTTL = time.Hour

// quoterSet hands out one quoter per market maker contract, kept in the shared cache.
type quoterSet struct {
	caller  chain.Caller
	cache   cache.Cache
	timeout time.Duration
	logger  *zap.Logger
}

func newQuoterSet(cfg *config.Config, logger *zap.Logger, appCache cache.Cache, caller chain.Caller) *quoterSet {
	return &quoterSet{
		caller:  caller,
		cache:   appCache,
		timeout: cfg.OracleTimeout,
		logger:  logger,
	}
}

// For returns the quoter for market. An unusable address yields a quoter
// without oracle, whose quotes trade zero shares.
func (s *quoterSet) For(market string) *quoter.Quoter {
	key := cache.Key("quoter", market)
	if q, ok := cache.GetAs[*quoter.Quoter](s.cache, key); ok {
		return q
	}

	cfg := quoter.Config{OracleTimeout: s.timeout, Logger: s.logger}
	mm, err := chain.NewMarketMaker(market, s.caller)
	if err != nil {
		s.logger.Warn("market-maker-binding-failed",
			zap.String("market", market),
			zap.Error(err))
		return quoter.New(cfg)
	}
	cfg.Oracle = mm

	q := quoter.New(cfg)
	s.cache.Set(key, q, quoterTTL)
	return q
}
