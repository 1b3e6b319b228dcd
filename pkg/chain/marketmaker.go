package chain

import (
	"context"
	"errors"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

const marketMakerABI = `[
{"constant":true,"inputs":[{"name":"investmentAmount","type":"uint256"},{"name":"outcomeIndex","type":"uint256"}],"name":"calcBuyAmount","outputs":[{"name":"","type":"uint256"}],"type":"function"},
{"constant":true,"inputs":[{"name":"returnAmount","type":"uint256"},{"name":"outcomeIndex","type":"uint256"}],"name":"calcSellAmount","outputs":[{"name":"outcomeTokenSellAmount","type":"uint256"}],"type":"function"},
{"constant":true,"inputs":[],"name":"fee","outputs":[{"name":"","type":"uint256"}],"type":"function"},
{"constant":true,"inputs":[],"name":"collateralToken","outputs":[{"name":"","type":"address"}],"type":"function"}
]`

// MarketMaker is a read-only binding of a fixed product market maker.
type MarketMaker struct {
	c *contract
}

// NewMarketMaker binds the market maker at address.
func NewMarketMaker(address string, caller Caller) (*MarketMaker, error) {
	c, err := newContract("market_maker", address, marketMakerABI, caller)
	if err != nil {
		return nil, err
	}
	return &MarketMaker{c: c}, nil
}

// CalcBuyAmount returns the outcome shares bought by investing amount.
func (m *MarketMaker) CalcBuyAmount(ctx context.Context, amount *big.Int, outcomeIndex int) (*big.Int, error) {
	if outcomeIndex < 0 {
		return nil, errors.New("outcome index must not be negative")
	}
	return m.c.callUint(ctx, "calcBuyAmount", amount, big.NewInt(int64(outcomeIndex)))
}

// CalcSellAmount returns the outcome shares to sell to receive returnAmount collateral.
func (m *MarketMaker) CalcSellAmount(ctx context.Context, returnAmount *big.Int, outcomeIndex int) (*big.Int, error) {
	if outcomeIndex < 0 {
		return nil, errors.New("outcome index must not be negative")
	}
	return m.c.callUint(ctx, "calcSellAmount", returnAmount, big.NewInt(int64(outcomeIndex)))
}

// Fee returns the pool fee as an 18-decimal fraction.
func (m *MarketMaker) Fee(ctx context.Context) (*big.Int, error) {
	return m.c.callUint(ctx, "fee")
}

// CollateralToken returns the address of the collateral ERC20.
func (m *MarketMaker) CollateralToken(ctx context.Context) (common.Address, error) {
	return m.c.callAddress(ctx, "collateralToken")
}

// Address returns the market maker address.
func (m *MarketMaker) Address() common.Address {
	return m.c.Address()
}
