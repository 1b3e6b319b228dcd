package types

import (
	"errors"
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSide(t *testing.T) {
	tests := []struct {
		input   string
		want    Side
		wantErr bool
	}{
		{input: "", want: SideBuy},
		{input: "buy", want: SideBuy},
		{input: " SELL ", want: SideSell},
		{input: "hold", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			side, err := ParseSide(tt.input)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, side)
		})
	}
}

func TestMarketMakerData_WithShares(t *testing.T) {
	mm := &MarketMakerData{
		Balances: []PoolBalance{
			{OutcomeIndex: 0, Holdings: big.NewInt(100), Shares: big.NewInt(1)},
			{OutcomeIndex: 1, Holdings: big.NewInt(200), Shares: big.NewInt(2)},
		},
	}

	out := mm.WithShares([]*big.Int{big.NewInt(7)})

	require.Len(t, out, 2)
	assert.Equal(t, int64(7), out[0].Shares.Int64())
	assert.Equal(t, int64(0), out[1].Shares.Int64())
	// source untouched
	assert.Equal(t, int64(1), mm.Balances[0].Shares.Int64())

	holdings := mm.Holdings()
	assert.Equal(t, int64(100), holdings[0].Int64())
	assert.Equal(t, int64(200), holdings[1].Int64())
}

func TestCallError_Unwrap(t *testing.T) {
	base := errors.New("execution reverted")
	err := &CallError{Contract: "0xabc", Method: "calcBuyAmount", Err: base}

	assert.ErrorIs(t, err, base)
	assert.Contains(t, err.Error(), "calcBuyAmount")
}
