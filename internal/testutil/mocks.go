package testutil

import (
	"context"
	"errors"
	"math/big"
	"sync"
	"sync/atomic"

	"github.com/mselser95/fpmm-quoter/pkg/types"
)

// ErrReverted mimics a reverted contract call.
var ErrReverted = errors.New("execution reverted")

// OracleCall records one oracle invocation.
type OracleCall struct {
	Side         types.Side
	Amount       *big.Int
	OutcomeIndex int
}

// MockOracle is a scriptable market maker oracle.
// By default it returns Shares; Fn, when set, takes precedence.
type MockOracle struct {
	mu     sync.Mutex
	calls  []OracleCall
	Shares *big.Int
	Err    error
	Fn     func(ctx context.Context, side types.Side, amount *big.Int, outcomeIndex int) (*big.Int, error)
}

// NewMockOracle creates an oracle that always returns shares.
func NewMockOracle(shares int64) *MockOracle {
	return &MockOracle{Shares: big.NewInt(shares)}
}

// NewFailingOracle creates an oracle whose calls always revert.
func NewFailingOracle() *MockOracle {
	return &MockOracle{Err: ErrReverted}
}

// CalcBuyAmount implements the buy side of the oracle.
func (m *MockOracle) CalcBuyAmount(ctx context.Context, amount *big.Int, outcomeIndex int) (*big.Int, error) {
	return m.call(ctx, types.SideBuy, amount, outcomeIndex)
}

// CalcSellAmount implements the sell side of the oracle.
func (m *MockOracle) CalcSellAmount(ctx context.Context, returnAmount *big.Int, outcomeIndex int) (*big.Int, error) {
	return m.call(ctx, types.SideSell, returnAmount, outcomeIndex)
}

func (m *MockOracle) call(ctx context.Context, side types.Side, amount *big.Int, outcomeIndex int) (*big.Int, error) {
	m.mu.Lock()
	m.calls = append(m.calls, OracleCall{Side: side, Amount: new(big.Int).Set(amount), OutcomeIndex: outcomeIndex})
	fn, shares, err := m.Fn, m.Shares, m.Err
	m.mu.Unlock()

	if fn != nil {
		return fn(ctx, side, amount, outcomeIndex)
	}
	if err != nil {
		return nil, err
	}
	return new(big.Int).Set(shares), nil
}

// Calls returns a copy of the recorded calls.
func (m *MockOracle) Calls() []OracleCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]OracleCall(nil), m.calls...)
}

// MockRateSource serves a fixed exchange rate and counts calls.
type MockRateSource struct {
	mu    sync.Mutex
	Rate  *big.Int
	Err   error
	calls atomic.Int64
}

// NewMockRateSource creates a rate source returning rate, parsed as a base-10 string.
func NewMockRateSource(rate string) *MockRateSource {
	r, ok := new(big.Int).SetString(rate, 10)
	if !ok {
		panic("invalid rate " + rate)
	}
	return &MockRateSource{Rate: r}
}

// ExchangeRateStored implements compound.RateSource.
func (m *MockRateSource) ExchangeRateStored(ctx context.Context) (*big.Int, error) {
	m.calls.Add(1)
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	return new(big.Int).Set(m.Rate), nil
}

// SetRate replaces the served rate.
func (m *MockRateSource) SetRate(rate *big.Int, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Rate = rate
	m.Err = err
}

// CallCount returns how many times the rate was requested.
func (m *MockRateSource) CallCount() int64 {
	return m.calls.Load()
}

// MockMarketSource serves a fixed pool and fee fraction.
type MockMarketSource struct {
	mu   sync.Mutex
	Pool []types.PoolBalance
	Fee  *big.Int
	Err  error
}

// CurrentPool implements quoter.MarketSource.
func (m *MockMarketSource) CurrentPool(ctx context.Context) ([]types.PoolBalance, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	return m.Pool, nil
}

// CurrentFeeFraction implements quoter.MarketSource.
func (m *MockMarketSource) CurrentFeeFraction(ctx context.Context) (*big.Int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	return m.Fee, nil
}
