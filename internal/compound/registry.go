package compound

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// SourceFactory builds the rate source for a cToken address and reports its symbol.
type SourceFactory func(ctx context.Context, address string) (source RateSource, symbol string, err error)

// Registry keeps one converter per cToken address and refreshes them periodically.
type Registry struct {
	factory  SourceFactory
	interval time.Duration
	logger   *zap.Logger

	mu         sync.RWMutex
	converters map[string]*Converter
}

// RegistryConfig holds registry configuration.
type RegistryConfig struct {
	Factory         SourceFactory
	RefreshInterval time.Duration
	Logger          *zap.Logger
}

// NewRegistry creates a new converter registry.
func NewRegistry(cfg *RegistryConfig) (*Registry, error) {
	if cfg == nil {
		return nil, errors.New("config cannot be nil")
	}
	if cfg.Factory == nil {
		return nil, errors.New("source factory cannot be nil")
	}
	if cfg.Logger == nil {
		return nil, errors.New("logger cannot be nil")
	}
	if cfg.RefreshInterval <= 0 {
		return nil, errors.New("refresh interval must be positive")
	}

	return &Registry{
		factory:    cfg.Factory,
		interval:   cfg.RefreshInterval,
		logger:     cfg.Logger,
		converters: make(map[string]*Converter),
	}, nil
}

// Get returns the converter for address, creating and refreshing it on first use.
func (r *Registry) Get(ctx context.Context, address string) (*Converter, error) {
	key := strings.ToLower(address)

	r.mu.RLock()
	conv, ok := r.converters[key]
	r.mu.RUnlock()
	if ok {
		return conv, nil
	}

	source, symbol, err := r.factory(ctx, address)
	if err != nil {
		return nil, fmt.Errorf("create rate source: %w", err)
	}
	if !IsCToken(symbol) {
		return nil, fmt.Errorf("token %s (%s) is not a supported cToken", address, symbol)
	}

	conv = NewConverter(strings.ToLower(symbol), source, r.logger)
	err = conv.Refresh(ctx)
	if err != nil {
		return nil, fmt.Errorf("initial refresh: %w", err)
	}

	r.mu.Lock()
	if existing, ok := r.converters[key]; ok {
		conv = existing
	} else {
		r.converters[key] = conv
	}
	r.mu.Unlock()

	r.logger.Info("converter-registered",
		zap.String("ctoken", conv.Symbol()),
		zap.String("address", address))

	return conv, nil
}

// RefreshAll refreshes every registered converter concurrently.
func (r *Registry) RefreshAll(ctx context.Context) error {
	r.mu.RLock()
	convs := make([]*Converter, 0, len(r.converters))
	for _, c := range r.converters {
		convs = append(convs, c)
	}
	r.mu.RUnlock()

	g, gctx := errgroup.WithContext(ctx)
	for _, c := range convs {
		c := c
		g.Go(func() error {
			return c.Refresh(gctx)
		})
	}
	return g.Wait()
}

// Run refreshes all converters every interval until ctx is cancelled (blocking).
func (r *Registry) Run(ctx context.Context) error {
	r.logger.Info("rate-refresher-starting", zap.Duration("interval", r.interval))

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			r.logger.Info("rate-refresher-stopping")
			return ctx.Err()
		case <-ticker.C:
			err := r.RefreshAll(ctx)
			if err != nil {
				r.logger.Error("rate-refresh-failed", zap.Error(err))
			}
		}
	}
}

// Check reports an error when a registered converter has never obtained a rate.
func (r *Registry) Check(ctx context.Context) error {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for addr, c := range r.converters {
		if !c.Ready() {
			return fmt.Errorf("no exchange rate for %s (%s)", c.Symbol(), addr)
		}
	}
	return nil
}
