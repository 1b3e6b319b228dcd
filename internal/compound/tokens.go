package compound

import (
	"math"
	"math/big"
	"strings"
)

// baseSymbols maps supported cToken symbols to their underlying token symbol.
//
//nolint:gochecknoglobals // static lookup table
var baseSymbols = map[string]string{
	"cdai":  "dai",
	"cusdc": "usdc",
	"cusdt": "usdt",
	"cwbtc": "wbtc",
	"ceth":  "eth",
	"cbat":  "bat",
}

// baseDecimals maps underlying token symbols to their ERC20 decimals.
//
//nolint:gochecknoglobals // static lookup table
var baseDecimals = map[string]int{
	"dai":  18,
	"usdc": 6,
	"usdt": 6,
	"wbtc": 8,
	"eth":  18,
	"bat":  18,
}

// IsCToken reports whether symbol is a supported cToken.
func IsCToken(symbol string) bool {
	_, ok := baseSymbols[strings.ToLower(symbol)]
	return ok
}

// BaseSymbol returns the underlying token symbol for a cToken, or "" if unknown.
func BaseSymbol(cTokenSymbol string) string {
	return baseSymbols[strings.ToLower(cTokenSymbol)]
}

// BaseDecimals returns the decimals of the underlying token of a cToken.
func BaseDecimals(cTokenSymbol string) (int, bool) {
	d, ok := baseDecimals[BaseSymbol(cTokenSymbol)]
	return d, ok
}

const (
	blocksPerDay = 4 * 60 * 24
	daysPerYear  = 365
)

// SupplyAPY returns the supply APY in percent for a supplyRatePerBlock value.
func SupplyAPY(supplyRatePerBlock *big.Int) float64 {
	if supplyRatePerBlock == nil {
		return 0
	}
	f := new(big.Float).SetInt(supplyRatePerBlock)
	f.Quo(f, big.NewFloat(1e18))
	ratePerBlock, _ := f.Float64()

	return (math.Pow(ratePerBlock*blocksPerDay+1, daysPerYear-1) - 1) * 100
}
