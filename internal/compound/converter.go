// Package compound converts amounts between Compound cTokens and their
// underlying base tokens using the protocol exchange rate.
package compound

import (
	"context"
	"fmt"
	"math/big"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

const (
	// CTokenDecimals is the fixed decimal count of every cToken.
	CTokenDecimals = 8

	// rateMantissa is the fixed point scale of exchangeRateStored.
	rateMantissa = 18

	// displayPlaces caps converted amounts before they are re-encoded.
	displayPlaces = 4

	// divisionPlaces is the precision kept when inverting the rate.
	divisionPlaces = 36
)

// RateSource reports the current cToken exchange rate, scaled by 1e(18 + baseDecimals - 8).
type RateSource interface {
	ExchangeRateStored(ctx context.Context) (*big.Int, error)
}

// Converter holds an exchange rate snapshot for one cToken.
// The rate is zero until the first successful Refresh and conversions return zero until then.
type Converter struct {
	symbol string
	source RateSource
	logger *zap.Logger

	group singleflight.Group

	mu          sync.RWMutex
	rate        decimal.Decimal
	refreshedAt time.Time
}

// NewConverter creates a converter for the cToken identified by symbol.
func NewConverter(symbol string, source RateSource, logger *zap.Logger) *Converter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Converter{
		symbol: symbol,
		source: source,
		logger: logger,
		rate:   decimal.Zero,
	}
}

// Refresh pulls the current exchange rate from the source. Concurrent callers
// share one source call. On error the previous snapshot is kept.
func (c *Converter) Refresh(ctx context.Context) error {
	_, err, _ := c.group.Do("refresh", func() (interface{}, error) {
		start := time.Now()
		raw, err := c.source.ExchangeRateStored(ctx)
		RateFetchDuration.Observe(time.Since(start).Seconds())
		if err != nil {
			RateRefreshErrorsTotal.WithLabelValues(c.symbol).Inc()
			return nil, fmt.Errorf("fetch exchange rate: %w", err)
		}
		if raw == nil || raw.Sign() < 0 {
			RateRefreshErrorsTotal.WithLabelValues(c.symbol).Inc()
			return nil, fmt.Errorf("invalid exchange rate %v", raw)
		}

		rate := decimal.NewFromBigInt(raw, 0)
		c.setRate(rate)

		rateFloat, _ := rate.Float64()
		ExchangeRate.WithLabelValues(c.symbol).Set(rateFloat)
		RateRefreshesTotal.WithLabelValues(c.symbol).Inc()

		c.logger.Debug("exchange-rate-refreshed",
			zap.String("ctoken", c.symbol),
			zap.String("rate", raw.String()))
		return nil, nil
	})
	return err
}

// SetRate overrides the snapshot, e.g. with a rate obtained elsewhere.
func (c *Converter) SetRate(raw *big.Int) {
	if raw == nil {
		c.setRate(decimal.Zero)
		return
	}
	c.setRate(decimal.NewFromBigInt(raw, 0))
}

func (c *Converter) setRate(rate decimal.Decimal) {
	c.mu.Lock()
	c.rate = rate
	c.refreshedAt = time.Now()
	c.mu.Unlock()
}

// Rate returns the current snapshot and when it was taken. A zero rate means not refreshed.
func (c *Converter) Rate() (rate decimal.Decimal, refreshedAt time.Time) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.rate, c.refreshedAt
}

// Ready reports whether a non-zero rate has been observed.
func (c *Converter) Ready() bool {
	rate, _ := c.Rate()
	return !rate.IsZero()
}

// Symbol returns the cToken symbol.
func (c *Converter) Symbol() string {
	return c.symbol
}

// ToBase converts a cToken amount into base token units with baseDecimals decimals.
// The intermediate amount is rounded to four decimal places.
func (c *Converter) ToBase(amountInWrapped *big.Int, baseDecimals int) *big.Int {
	rate, _ := c.Rate()
	if rate.IsZero() || amountInWrapped == nil {
		return new(big.Int)
	}

	mantissa := int32(rateMantissa + baseDecimals - CTokenDecimals)
	unitValue := rate.Shift(-mantissa)

	wrapped := decimal.NewFromBigInt(amountInWrapped, -CTokenDecimals)
	base := wrapped.Mul(unitValue).Round(displayPlaces)

	return base.Shift(int32(baseDecimals)).BigInt()
}

// ToWrapped converts a base token amount with baseDecimals decimals into cToken units.
// The intermediate amount is rounded to four decimal places.
func (c *Converter) ToWrapped(amountInBase *big.Int, baseDecimals int) *big.Int {
	rate, _ := c.Rate()
	if rate.IsZero() || amountInBase == nil {
		return new(big.Int)
	}

	mantissa := int32(rateMantissa + baseDecimals - CTokenDecimals)
	unitValue := decimal.New(1, mantissa).DivRound(rate, divisionPlaces)

	base := decimal.NewFromBigInt(amountInBase, -int32(baseDecimals))
	wrapped := base.Mul(unitValue).Round(displayPlaces)

	return wrapped.Shift(CTokenDecimals).BigInt()
}

// ToBaseAll converts every amount with ToBase, e.g. share balances for display.
func (c *Converter) ToBaseAll(amounts []*big.Int, baseDecimals int) []*big.Int {
	out := make([]*big.Int, len(amounts))
	for i, a := range amounts {
		out[i] = c.ToBase(a, baseDecimals)
	}
	return out
}
