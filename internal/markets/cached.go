package markets

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/mselser95/fpmm-quoter/pkg/cache"
	"github.com/mselser95/fpmm-quoter/pkg/types"
	"go.uber.org/zap"
)

// tokenTTL is long: token symbols and decimals never change.
const tokenTTL = 24 * time.Hour

// Fetcher fetches an uncached market maker snapshot.
type Fetcher interface {
	FetchMarketMaker(ctx context.Context, address string) (*types.MarketMakerData, error)
}

// TokenResolver reads collateral token metadata.
type TokenResolver interface {
	Token(ctx context.Context, address string) (types.Token, error)
}

// CachedClientConfig holds cached client configuration.
type CachedClientConfig struct {
	Fetcher Fetcher
	Tokens  TokenResolver // optional; without it collateral carries only its address
	Cache   cache.Cache
	PoolTTL time.Duration
	Logger  *zap.Logger
}

// CachedClient wraps a Fetcher with caching of pool snapshots and token metadata.
type CachedClient struct {
	fetcher Fetcher
	tokens  TokenResolver
	cache   cache.Cache
	poolTTL time.Duration
	logger  *zap.Logger
}

// NewCachedClient creates a new cached client.
func NewCachedClient(cfg CachedClientConfig) (*CachedClient, error) {
	if cfg.Fetcher == nil {
		return nil, errors.New("fetcher cannot be nil")
	}
	if cfg.Cache == nil {
		return nil, errors.New("cache cannot be nil")
	}
	if cfg.PoolTTL <= 0 {
		return nil, errors.New("pool TTL must be positive")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	return &CachedClient{
		fetcher: cfg.Fetcher,
		tokens:  cfg.Tokens,
		cache:   cfg.Cache,
		poolTTL: cfg.PoolTTL,
		logger:  logger,
	}, nil
}

// MarketMaker returns the market maker snapshot, from cache when fresh.
func (c *CachedClient) MarketMaker(ctx context.Context, address string) (*types.MarketMakerData, error) {
	key := cache.Key("pool", address)
	if mm, ok := cache.GetAs[*types.MarketMakerData](c.cache, key); ok {
		PoolCacheHitsTotal.Inc()
		return mm, nil
	}
	PoolCacheMissesTotal.Inc()

	mm, err := c.fetcher.FetchMarketMaker(ctx, address)
	if err != nil {
		return nil, fmt.Errorf("fetch market maker: %w", err)
	}

	if c.tokens != nil && mm.Collateral.Address != "" {
		token, err := c.token(ctx, mm.Collateral.Address)
		if err != nil {
			// snapshot is still usable for quoting
			c.logger.Warn("collateral-token-lookup-failed",
				zap.String("market", address),
				zap.String("token", mm.Collateral.Address),
				zap.Error(err))
		} else {
			mm.Collateral = token
		}
	}

	c.cache.Set(key, mm, c.poolTTL)
	return mm, nil
}

func (c *CachedClient) token(ctx context.Context, address string) (types.Token, error) {
	key := cache.Key("token", address)
	if token, ok := cache.GetAs[types.Token](c.cache, key); ok {
		return token, nil
	}

	token, err := c.tokens.Token(ctx, address)
	if err != nil {
		return types.Token{}, fmt.Errorf("resolve token: %w", err)
	}

	c.cache.Set(key, token, tokenTTL)
	return token, nil
}

// Invalidate drops the cached snapshot for address so the next read refetches.
func (c *CachedClient) Invalidate(address string) {
	c.cache.Delete(cache.Key("pool", address))
}
