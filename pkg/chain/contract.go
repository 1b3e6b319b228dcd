// Package chain provides read-only bindings for the contracts the quoter talks to:
// the fixed product market maker, Compound cTokens and ERC20 collateral.
package chain

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/mselser95/fpmm-quoter/pkg/types"
)

// Caller performs read-only contract calls. *ethclient.Client satisfies it.
type Caller interface {
	CallContract(ctx context.Context, msg ethereum.CallMsg, blockNumber *big.Int) ([]byte, error)
}

// Dial connects to an RPC endpoint.
func Dial(ctx context.Context, rpcURL string) (*ethclient.Client, error) {
	if rpcURL == "" {
		return nil, errors.New("rpcURL cannot be empty")
	}

	client, err := ethclient.DialContext(ctx, rpcURL)
	if err != nil {
		return nil, fmt.Errorf("dial RPC: %w", err)
	}

	return client, nil
}

// contract is a bound ABI at an address.
type contract struct {
	kind    string
	address common.Address
	abi     abi.ABI
	caller  Caller
}

func newContract(kind, address, abiJSON string, caller Caller) (*contract, error) {
	if caller == nil {
		return nil, errors.New("caller cannot be nil")
	}
	if !common.IsHexAddress(address) {
		return nil, fmt.Errorf("invalid %s address %q", kind, address)
	}

	parsed, err := abi.JSON(strings.NewReader(abiJSON))
	if err != nil {
		return nil, fmt.Errorf("parse ABI: %w", err)
	}

	return &contract{
		kind:    kind,
		address: common.HexToAddress(address),
		abi:     parsed,
		caller:  caller,
	}, nil
}

// call packs the arguments, performs the call at the latest block and unpacks the outputs.
func (c *contract) call(ctx context.Context, method string, args ...interface{}) (out []interface{}, err error) {
	start := time.Now()
	defer func() {
		status := "success"
		if err != nil {
			status = "error"
		}
		ContractCallsTotal.WithLabelValues(c.kind, method, status).Inc()
		ContractCallDuration.WithLabelValues(c.kind, method).Observe(time.Since(start).Seconds())
	}()

	data, err := c.abi.Pack(method, args...)
	if err != nil {
		return nil, fmt.Errorf("pack %s: %w", method, err)
	}

	msg := ethereum.CallMsg{
		To:   &c.address,
		Data: data,
	}

	result, err := c.caller.CallContract(ctx, msg, nil)
	if err != nil {
		return nil, &types.CallError{Contract: c.address.Hex(), Method: method, Err: err}
	}

	out, err = c.abi.Unpack(method, result)
	if err != nil {
		return nil, &types.CallError{Contract: c.address.Hex(), Method: method, Err: fmt.Errorf("unpack: %w", err)}
	}
	if len(out) == 0 {
		return nil, &types.CallError{Contract: c.address.Hex(), Method: method, Err: errors.New("empty result")}
	}

	return out, nil
}

func (c *contract) callUint(ctx context.Context, method string, args ...interface{}) (*big.Int, error) {
	out, err := c.call(ctx, method, args...)
	if err != nil {
		return nil, err
	}

	v, ok := out[0].(*big.Int)
	if !ok {
		return nil, &types.CallError{Contract: c.address.Hex(), Method: method, Err: fmt.Errorf("unexpected result type %T", out[0])}
	}

	return v, nil
}

func (c *contract) callString(ctx context.Context, method string) (string, error) {
	out, err := c.call(ctx, method)
	if err != nil {
		return "", err
	}

	v, ok := out[0].(string)
	if !ok {
		return "", &types.CallError{Contract: c.address.Hex(), Method: method, Err: fmt.Errorf("unexpected result type %T", out[0])}
	}

	return v, nil
}

func (c *contract) callAddress(ctx context.Context, method string) (common.Address, error) {
	out, err := c.call(ctx, method)
	if err != nil {
		return common.Address{}, err
	}

	v, ok := out[0].(common.Address)
	if !ok {
		return common.Address{}, &types.CallError{Contract: c.address.Hex(), Method: method, Err: fmt.Errorf("unexpected result type %T", out[0])}
	}

	return v, nil
}

// Address returns the contract address.
func (c *contract) Address() common.Address {
	return c.address
}
