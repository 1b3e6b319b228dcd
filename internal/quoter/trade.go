package quoter

import (
	"math/big"

	"github.com/shopspring/decimal"
)

// pricePlaces is the precision of post-trade prices.
const pricePlaces = 18

//nolint:gochecknoglobals // constant
var hundred = decimal.NewFromInt(100)

// BalanceAfterTrade returns the market maker holdings after investing amount and
// receiving shares of outcomeIndex. Every reserve grows by amount and the traded
// outcome additionally pays out shares. Pass negated values for a sell.
func BalanceAfterTrade(holdings []*big.Int, outcomeIndex int, amount, shares *big.Int) []*big.Int {
	out := make([]*big.Int, len(holdings))
	for i, h := range holdings {
		next := new(big.Int)
		if h != nil {
			next.Set(h)
		}
		next.Add(next, amount)
		if i == outcomeIndex {
			next.Sub(next, shares)
		}
		out[i] = next
	}
	return out
}

// PricesAfterTrade returns the marginal probability of each outcome, in percent.
// The price of an outcome is proportional to the product of all other reserves,
// normalised so the prices sum to 100. Pools with a negative reserve, or more than
// one empty reserve, price every outcome at zero.
func PricesAfterTrade(holdings []*big.Int) []decimal.Decimal {
	prices := make([]decimal.Decimal, len(holdings))
	for i := range prices {
		prices[i] = decimal.Zero
	}
	if len(holdings) == 0 {
		return prices
	}

	weights := make([]*big.Int, len(holdings))
	denominator := new(big.Int)
	for i := range holdings {
		w := big.NewInt(1)
		for j, h := range holdings {
			if j == i {
				continue
			}
			if h == nil {
				w.SetInt64(0)
				continue
			}
			if h.Sign() < 0 {
				return prices
			}
			w.Mul(w, h)
		}
		weights[i] = w
		denominator.Add(denominator, w)
	}
	if denominator.Sign() == 0 {
		return prices
	}

	denom := decimal.NewFromBigInt(denominator, 0)
	for i, w := range weights {
		prices[i] = decimal.NewFromBigInt(w, 0).Mul(hundred).DivRound(denom, pricePlaces)
	}
	return prices
}

// ApplyShares returns the trader's share holdings with delta added at outcomeIndex.
func ApplyShares(shares []*big.Int, outcomeIndex int, delta *big.Int) []*big.Int {
	out := make([]*big.Int, len(shares))
	for i, s := range shares {
		next := new(big.Int)
		if s != nil {
			next.Set(s)
		}
		if i == outcomeIndex {
			next.Add(next, delta)
		}
		out[i] = next
	}
	return out
}
