package chain

import (
	"context"
	"math/big"
)

const cTokenABI = `[
{"constant":true,"inputs":[],"name":"exchangeRateStored","outputs":[{"name":"","type":"uint256"}],"type":"function"},
{"constant":true,"inputs":[],"name":"supplyRatePerBlock","outputs":[{"name":"","type":"uint256"}],"type":"function"},
{"constant":true,"inputs":[],"name":"symbol","outputs":[{"name":"","type":"string"}],"type":"function"}
]`

// CToken is a read-only binding of a Compound cToken.
type CToken struct {
	c *contract
}

// NewCToken binds the cToken at address.
func NewCToken(address string, caller Caller) (*CToken, error) {
	c, err := newContract("ctoken", address, cTokenABI, caller)
	if err != nil {
		return nil, err
	}
	return &CToken{c: c}, nil
}

// ExchangeRateStored returns the stored exchange rate mantissa.
func (t *CToken) ExchangeRateStored(ctx context.Context) (*big.Int, error) {
	return t.c.callUint(ctx, "exchangeRateStored")
}

// SupplyRatePerBlock returns the per-block supply rate, scaled by 1e18.
func (t *CToken) SupplyRatePerBlock(ctx context.Context) (*big.Int, error) {
	return t.c.callUint(ctx, "supplyRatePerBlock")
}

// Symbol returns the cToken symbol, e.g. cDAI.
func (t *CToken) Symbol(ctx context.Context) (string, error) {
	return t.c.callString(ctx, "symbol")
}
