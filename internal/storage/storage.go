// Package storage journals published quotes.
package storage

import (
	"context"
	"math/big"
	"time"

	"github.com/mselser95/fpmm-quoter/internal/fees"
	"github.com/mselser95/fpmm-quoter/internal/quoter"
	"github.com/shopspring/decimal"
)

// Storage is the interface for journaling quotes.
type Storage interface {
	// StoreQuote stores a published quote.
	StoreQuote(ctx context.Context, rec *QuoteRecord) error

	// Close closes the storage connection.
	Close() error
}

// QuoteRecord is the journaled form of a quote and its fee accounting.
type QuoteRecord struct {
	ID               string
	Market           string
	Side             string
	OutcomeIndex     int
	AmountUsed       *big.Int
	TradedShares     *big.Int
	FeePaid          *big.Int
	PotentialProfit  *big.Int
	PricesAfterTrade []decimal.Decimal
	OracleFailed     bool
	QuotedAt         time.Time
}

// NewQuoteRecord builds a record for a quote on market.
func NewQuoteRecord(market string, q *quoter.TradeQuote, f fees.FeeQuote) *QuoteRecord {
	return &QuoteRecord{
		ID:               q.ID,
		Market:           market,
		Side:             string(q.Side),
		OutcomeIndex:     q.OutcomeIndex,
		AmountUsed:       q.AmountUsed,
		TradedShares:     q.TradedShares,
		FeePaid:          f.FeePaid,
		PotentialProfit:  f.PotentialProfit,
		PricesAfterTrade: q.PricesAfterTrade,
		OracleFailed:     q.OracleFailed,
		QuotedAt:         q.QuotedAt,
	}
}

func bigString(v *big.Int) string {
	if v == nil {
		return "0"
	}
	return v.String()
}
