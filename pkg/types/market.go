package types

import (
	"fmt"
	"math/big"
	"strings"
)

// Side is the direction of a trade against the market maker.
type Side string

const (
	SideBuy  Side = "buy"
	SideSell Side = "sell"
)

// ParseSide parses a side from user input. Empty input defaults to buy.
func ParseSide(s string) (Side, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "buy":
		return SideBuy, nil
	case "sell":
		return SideSell, nil
	default:
		return "", fmt.Errorf("unknown side %q", s)
	}
}

// Token is immutable reference data for an ERC20 collateral token.
type Token struct {
	Symbol   string `json:"symbol"`
	Decimals int    `json:"decimals"`
	Address  string `json:"address"`
}

// PoolBalance is the market maker reserve and the trader's share holding for one outcome.
type PoolBalance struct {
	OutcomeIndex int      `json:"outcome_index"`
	OutcomeName  string   `json:"outcome_name"`
	Holdings     *big.Int `json:"holdings"` // market maker reserve, base units
	Shares       *big.Int `json:"shares"`   // trader holding, base units
}

// MarketMakerData is a snapshot of a fixed product market maker.
type MarketMakerData struct {
	Address    string        `json:"address"`
	Title      string        `json:"title"`
	Collateral Token         `json:"collateral"`
	Fee        *big.Int      `json:"fee"` // 18-decimal fixed point, 1e18 == 100%
	Balances   []PoolBalance `json:"balances"`
}

// Holdings returns the market maker reserves in outcome order.
func (m *MarketMakerData) Holdings() []*big.Int {
	holdings := make([]*big.Int, len(m.Balances))
	for i, b := range m.Balances {
		holdings[i] = b.Holdings
	}
	return holdings
}

// WithShares returns a copy of the balances with the trader's share holdings applied.
// Missing entries are treated as zero.
func (m *MarketMakerData) WithShares(shares []*big.Int) []PoolBalance {
	out := make([]PoolBalance, len(m.Balances))
	for i, b := range m.Balances {
		out[i] = b
		out[i].Shares = new(big.Int)
		if i < len(shares) && shares[i] != nil {
			out[i].Shares.Set(shares[i])
		}
	}
	return out
}
