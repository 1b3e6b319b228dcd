// Package fees derives fee, cost and profit figures for a quoted trade.
package fees

import (
	"math/big"
)

// feeScale is the 18-decimal fixed point used by market maker fee fractions.
var feeScale = new(big.Int).Exp(big.NewInt(10), big.NewInt(18), nil)

// FeeQuote holds the derived accounting for one quote.
// FeePaid + BaseCost always equals the amount used.
type FeeQuote struct {
	FeePaid         *big.Int
	BaseCost        *big.Int
	PotentialProfit *big.Int
}

// Compute derives the fee quote for a trade of amountUsed collateral that returns
// tradedShares shares, with feeFraction expressed in 18-decimal fixed point.
// Nil arguments are treated as zero.
func Compute(amountUsed, tradedShares, feeFraction *big.Int) FeeQuote {
	amount := orZero(amountUsed)
	shares := orZero(tradedShares)
	fee := orZero(feeFraction)

	feePaid := new(big.Int).Mul(amount, fee)
	feePaid.Quo(feePaid, feeScale)

	baseCost := new(big.Int).Sub(amount, feePaid)

	profit := new(big.Int)
	if shares.Sign() != 0 {
		profit.Sub(shares, amount)
	}

	return FeeQuote{
		FeePaid:         feePaid,
		BaseCost:        baseCost,
		PotentialProfit: profit,
	}
}

// FeePercentage returns the fee fraction as a percentage for display, e.g. 2 for 2%.
func FeePercentage(feeFraction *big.Int) float64 {
	f := new(big.Float).SetInt(orZero(feeFraction))
	f.Quo(f, new(big.Float).SetInt(feeScale))
	f.Mul(f, big.NewFloat(100))
	pct, _ := f.Float64()
	return pct
}

func orZero(v *big.Int) *big.Int {
	if v == nil {
		return new(big.Int)
	}
	return v
}
