// Package quoter turns a proposed trade amount into a quote against a fixed
// product market maker: shares traded, post-trade reserves and marginal prices.
package quoter

import (
	"context"
	"math/big"
	"time"

	"github.com/google/uuid"
	"github.com/mselser95/fpmm-quoter/pkg/types"
	"go.uber.org/zap"
)

// Oracle asks the market maker contract how many shares an amount trades.
// Calls may fail at any time, e.g. when the contract reverts.
type Oracle interface {
	// CalcBuyAmount returns the shares of outcomeIndex bought by investing amount.
	CalcBuyAmount(ctx context.Context, amount *big.Int, outcomeIndex int) (*big.Int, error)
	// CalcSellAmount returns the shares of outcomeIndex that must be sold to receive returnAmount.
	CalcSellAmount(ctx context.Context, returnAmount *big.Int, outcomeIndex int) (*big.Int, error)
}

// Config holds quoter configuration.
type Config struct {
	Oracle Oracle
	// OracleTimeout bounds each oracle call; a timeout yields the zero-shares fallback.
	// Zero means no timeout.
	OracleTimeout time.Duration
	Logger        *zap.Logger
}

// Quoter computes trade quotes. It never mutates the pool it is given.
type Quoter struct {
	oracle  Oracle
	timeout time.Duration
	logger  *zap.Logger
}

// New creates a new quoter.
func New(cfg Config) *Quoter {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Quoter{
		oracle:  cfg.Oracle,
		timeout: cfg.OracleTimeout,
		logger:  logger,
	}
}

// Quote computes a buy quote for investing amount in outcomeIndex.
// Non-positive amounts and unknown outcomes return the zero-effect quote without
// calling the oracle. Oracle failures degrade to zero shares.
func (q *Quoter) Quote(ctx context.Context, amount *big.Int, outcomeIndex int, pool []types.PoolBalance) *TradeQuote {
	return q.quote(ctx, types.SideBuy, amount, outcomeIndex, pool)
}

// QuoteSell computes a sell quote for receiving returnAmount collateral from outcomeIndex.
// It mirrors Quote with the balance update signs reversed.
func (q *Quoter) QuoteSell(ctx context.Context, returnAmount *big.Int, outcomeIndex int, pool []types.PoolBalance) *TradeQuote {
	return q.quote(ctx, types.SideSell, returnAmount, outcomeIndex, pool)
}

func (q *Quoter) quote(ctx context.Context, side types.Side, amount *big.Int, outcomeIndex int, pool []types.PoolBalance) *TradeQuote {
	if amount == nil || amount.Sign() <= 0 || outcomeIndex < 0 || outcomeIndex >= len(pool) {
		QuotesShortCircuitedTotal.Inc()
		return zeroQuote(side, outcomeIndex, pool)
	}

	shares, failed := q.estimate(ctx, side, amount, outcomeIndex)

	holdings := make([]*big.Int, len(pool))
	current := make([]*big.Int, len(pool))
	for i, b := range pool {
		holdings[i] = b.Holdings
		current[i] = b.Shares
	}

	var balance, newShares []*big.Int
	if side == types.SideSell {
		balance = BalanceAfterTrade(holdings, outcomeIndex, new(big.Int).Neg(amount), new(big.Int).Neg(shares))
		newShares = ApplyShares(current, outcomeIndex, new(big.Int).Neg(shares))
	} else {
		balance = BalanceAfterTrade(holdings, outcomeIndex, amount, shares)
		newShares = ApplyShares(current, outcomeIndex, shares)
	}

	QuotesComputedTotal.WithLabelValues(string(side)).Inc()

	return &TradeQuote{
		ID:                uuid.New().String(),
		Side:              side,
		OutcomeIndex:      outcomeIndex,
		QuotedAt:          time.Now(),
		AmountUsed:        new(big.Int).Set(amount),
		TradedShares:      shares,
		BalanceAfterTrade: balance,
		PricesAfterTrade:  PricesAfterTrade(balance),
		NewShares:         newShares,
		OracleFailed:      failed,
	}
}

// estimate calls the oracle, returning zero shares and failed=true on any error.
func (q *Quoter) estimate(ctx context.Context, side types.Side, amount *big.Int, outcomeIndex int) (shares *big.Int, failed bool) {
	if q.oracle == nil {
		OracleFailuresTotal.WithLabelValues(string(side), "no_oracle").Inc()
		return new(big.Int), true
	}

	callCtx := ctx
	if q.timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, q.timeout)
		defer cancel()
	}

	start := time.Now()
	var err error
	if side == types.SideSell {
		shares, err = q.oracle.CalcSellAmount(callCtx, amount, outcomeIndex)
	} else {
		shares, err = q.oracle.CalcBuyAmount(callCtx, amount, outcomeIndex)
	}
	OracleCallDuration.WithLabelValues(string(side)).Observe(time.Since(start).Seconds())

	if err != nil {
		OracleFailuresTotal.WithLabelValues(string(side), "error").Inc()
		q.logger.Debug("oracle-call-failed",
			zap.String("side", string(side)),
			zap.String("amount", amount.String()),
			zap.Int("outcome-index", outcomeIndex),
			zap.Error(err))
		return new(big.Int), true
	}
	if shares == nil || shares.Sign() < 0 {
		OracleFailuresTotal.WithLabelValues(string(side), "invalid_result").Inc()
		return new(big.Int), true
	}

	return new(big.Int).Set(shares), false
}

// zeroQuote is the no-trade quote: nothing invested, reserves and shares
// unchanged, current prices.
func zeroQuote(side types.Side, outcomeIndex int, pool []types.PoolBalance) *TradeQuote {
	holdings := make([]*big.Int, len(pool))
	shares := make([]*big.Int, len(pool))
	for i, b := range pool {
		holdings[i] = copyOrZero(b.Holdings)
		shares[i] = copyOrZero(b.Shares)
	}

	return &TradeQuote{
		ID:                uuid.New().String(),
		Side:              side,
		OutcomeIndex:      outcomeIndex,
		QuotedAt:          time.Now(),
		AmountUsed:        new(big.Int),
		TradedShares:      new(big.Int),
		BalanceAfterTrade: holdings,
		PricesAfterTrade:  PricesAfterTrade(holdings),
		NewShares:         shares,
	}
}

func copyOrZero(v *big.Int) *big.Int {
	if v == nil {
		return new(big.Int)
	}
	return new(big.Int).Set(v)
}
