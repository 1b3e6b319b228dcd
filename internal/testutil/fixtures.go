package testutil

import (
	"math/big"

	"github.com/mselser95/fpmm-quoter/pkg/types"
)

// CreateTestPool creates pool balances with the given reserves and zero trader shares.
func CreateTestPool(holdings ...int64) []types.PoolBalance {
	names := []string{"Yes", "No"}
	pool := make([]types.PoolBalance, len(holdings))
	for i, h := range holdings {
		name := string(rune('A' + i))
		if len(holdings) == 2 {
			name = names[i]
		}
		pool[i] = types.PoolBalance{
			OutcomeIndex: i,
			OutcomeName:  name,
			Holdings:     big.NewInt(h),
			Shares:       new(big.Int),
		}
	}
	return pool
}

// CreateTestMarketMaker creates a binary market maker snapshot with a 2% fee.
func CreateTestMarketMaker(address string, collateral types.Token) *types.MarketMakerData {
	return &types.MarketMakerData{
		Address:    address,
		Title:      "Will it rain tomorrow?",
		Collateral: collateral,
		Fee:        FeeFraction(2),
		Balances:   CreateTestPool(1000, 1000),
	}
}

// FeeFraction returns pct percent as an 18-decimal fixed point fraction.
func FeeFraction(pct int64) *big.Int {
	return new(big.Int).Mul(big.NewInt(pct), big.NewInt(1e16))
}

// DAI is a test collateral token.
//
//nolint:gochecknoglobals // test fixture
var DAI = types.Token{Symbol: "DAI", Decimals: 18, Address: "0x6B175474E89094C44Da98b954EedeAC495271d0F"}

// CDAI is a test cToken collateral.
//
//nolint:gochecknoglobals // test fixture
var CDAI = types.Token{Symbol: "cDAI", Decimals: 8, Address: "0x5d3a536E4D6DbD6114cc1Ead35777bAB948E3643"}
