package chain

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/mselser95/fpmm-quoter/pkg/types"
)

const erc20ABI = `[
{"constant":true,"inputs":[{"name":"owner","type":"address"}],"name":"balanceOf","outputs":[{"name":"","type":"uint256"}],"type":"function"},
{"constant":true,"inputs":[],"name":"decimals","outputs":[{"name":"","type":"uint8"}],"type":"function"},
{"constant":true,"inputs":[],"name":"symbol","outputs":[{"name":"","type":"string"}],"type":"function"}
]`

// ERC20 is a read-only binding of an ERC20 token.
type ERC20 struct {
	c *contract
}

// NewERC20 binds the token at address.
func NewERC20(address string, caller Caller) (*ERC20, error) {
	c, err := newContract("erc20", address, erc20ABI, caller)
	if err != nil {
		return nil, err
	}
	return &ERC20{c: c}, nil
}

// BalanceOf returns the token balance of owner.
func (e *ERC20) BalanceOf(ctx context.Context, owner string) (*big.Int, error) {
	if !common.IsHexAddress(owner) {
		return nil, fmt.Errorf("invalid owner address %q", owner)
	}
	return e.c.callUint(ctx, "balanceOf", common.HexToAddress(owner))
}

// Token reads symbol and decimals.
func (e *ERC20) Token(ctx context.Context) (token types.Token, err error) {
	symbol, err := e.c.callString(ctx, "symbol")
	if err != nil {
		return types.Token{}, err
	}

	out, err := e.c.call(ctx, "decimals")
	if err != nil {
		return types.Token{}, err
	}
	decimals, ok := out[0].(uint8)
	if !ok {
		return types.Token{}, &types.CallError{Contract: e.c.address.Hex(), Method: "decimals", Err: fmt.Errorf("unexpected result type %T", out[0])}
	}

	token = types.Token{
		Symbol:   symbol,
		Decimals: int(decimals),
		Address:  e.c.address.Hex(),
	}
	return token, nil
}

// TokenReader resolves ERC20 metadata by address.
type TokenReader struct {
	caller Caller
}

// NewTokenReader creates a token reader over caller.
func NewTokenReader(caller Caller) *TokenReader {
	return &TokenReader{caller: caller}
}

// Token reads symbol and decimals of the token at address.
func (r *TokenReader) Token(ctx context.Context, address string) (types.Token, error) {
	erc20, err := NewERC20(address, r.caller)
	if err != nil {
		return types.Token{}, err
	}
	return erc20.Token(ctx)
}

// BalanceReader reads ERC20 balances of arbitrary tokens.
type BalanceReader struct {
	caller Caller
}

// NewBalanceReader creates a balance reader over caller.
func NewBalanceReader(caller Caller) *BalanceReader {
	return &BalanceReader{caller: caller}
}

// BalanceOf returns owner's balance of the token at tokenAddress.
func (r *BalanceReader) BalanceOf(ctx context.Context, tokenAddress, owner string) (*big.Int, error) {
	erc20, err := NewERC20(tokenAddress, r.caller)
	if err != nil {
		return nil, err
	}
	return erc20.BalanceOf(ctx, owner)
}
