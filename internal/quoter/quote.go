package quoter

import (
	"fmt"
	"math/big"
	"time"

	"github.com/mselser95/fpmm-quoter/pkg/types"
	"github.com/shopspring/decimal"
)

// TradeQuote is the computed result of a hypothetical trade against the pool.
type TradeQuote struct {
	ID           string
	Side         types.Side
	OutcomeIndex int
	QuotedAt     time.Time

	AmountUsed        *big.Int          // collateral invested (buy) or returned (sell)
	TradedShares      *big.Int          // shares bought (buy) or sold (sell)
	BalanceAfterTrade []*big.Int        // market maker reserves after the trade
	PricesAfterTrade  []decimal.Decimal // marginal probabilities in percent, sum ~100
	NewShares         []*big.Int        // trader share holdings after the trade

	// OracleFailed is set when the oracle call failed and TradedShares fell back to zero.
	OracleFailed bool

	// Generation is the pipeline input generation this quote answers. Zero outside a pipeline.
	Generation uint64
}

// IsZero reports whether the quote trades nothing.
func (q *TradeQuote) IsZero() bool {
	return q.TradedShares == nil || q.TradedShares.Sign() == 0
}

// String returns a human-readable representation of the quote.
func (q *TradeQuote) String() string {
	prices := make([]string, len(q.PricesAfterTrade))
	for i, p := range q.PricesAfterTrade {
		prices[i] = p.StringFixed(2)
	}
	id := q.ID
	if len(id) > 8 {
		id = id[:8]
	}
	return fmt.Sprintf(
		"Quote[%s] %s outcome=%d amount=%s shares=%s prices=%v oracleFailed=%t",
		id,
		q.Side,
		q.OutcomeIndex,
		q.AmountUsed,
		q.TradedShares,
		prices,
		q.OracleFailed,
	)
}
