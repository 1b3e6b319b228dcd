package fees

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
)

func ether(n int64) *big.Int {
	return new(big.Int).Mul(big.NewInt(n), feeScale)
}

// pct returns p percent in 18-decimal fixed point.
func pct(p int64) *big.Int {
	return new(big.Int).Mul(big.NewInt(p), big.NewInt(1e16))
}

func TestCompute(t *testing.T) {
	tests := []struct {
		name       string
		amount     *big.Int
		shares     *big.Int
		fee        *big.Int
		wantFee    *big.Int
		wantCost   *big.Int
		wantProfit *big.Int
	}{
		{
			name:       "two-percent-fee",
			amount:     ether(100),
			shares:     ether(180),
			fee:        pct(2),
			wantFee:    ether(2),
			wantCost:   ether(98),
			wantProfit: ether(80),
		},
		{
			name:       "zero-shares-means-zero-profit",
			amount:     ether(10),
			shares:     big.NewInt(0),
			fee:        pct(1),
			wantFee:    new(big.Int).Div(ether(1), big.NewInt(10)),
			wantCost:   new(big.Int).Sub(ether(10), new(big.Int).Div(ether(1), big.NewInt(10))),
			wantProfit: big.NewInt(0),
		},
		{
			name:       "shares-below-amount-is-negative-profit",
			amount:     big.NewInt(100),
			shares:     big.NewInt(90),
			fee:        big.NewInt(0),
			wantFee:    big.NewInt(0),
			wantCost:   big.NewInt(100),
			wantProfit: big.NewInt(-10),
		},
		{
			name:       "nil-inputs",
			wantFee:    big.NewInt(0),
			wantCost:   big.NewInt(0),
			wantProfit: big.NewInt(0),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := Compute(tt.amount, tt.shares, tt.fee)
			assert.Equal(t, 0, tt.wantFee.Cmp(q.FeePaid), "fee %s", q.FeePaid)
			assert.Equal(t, 0, tt.wantCost.Cmp(q.BaseCost), "base cost %s", q.BaseCost)
			assert.Equal(t, 0, tt.wantProfit.Cmp(q.PotentialProfit), "profit %s", q.PotentialProfit)
		})
	}
}

func TestCompute_AccountingIdentity(t *testing.T) {
	amounts := []*big.Int{
		big.NewInt(0),
		big.NewInt(1),
		big.NewInt(999),
		big.NewInt(123456789),
		ether(1),
		new(big.Int).Add(ether(7), big.NewInt(3)),
	}
	fractions := []*big.Int{
		big.NewInt(0),
		big.NewInt(1),
		pct(1),
		new(big.Int).Div(pct(1), big.NewInt(3)),
		pct(50),
		pct(100),
	}

	for _, amount := range amounts {
		for _, fee := range fractions {
			q := Compute(amount, big.NewInt(5), fee)
			sum := new(big.Int).Add(q.FeePaid, q.BaseCost)
			assert.Equal(t, 0, sum.Cmp(amount), "amount=%s fee=%s", amount, fee)
			assert.True(t, q.FeePaid.Sign() >= 0)
			assert.True(t, q.FeePaid.Cmp(amount) <= 0)
		}
	}
}

func TestCompute_DoesNotMutateInputs(t *testing.T) {
	amount := big.NewInt(1000)
	shares := big.NewInt(1500)
	fee := pct(2)

	Compute(amount, shares, fee)

	assert.Equal(t, int64(1000), amount.Int64())
	assert.Equal(t, int64(1500), shares.Int64())
	assert.Equal(t, 0, pct(2).Cmp(fee))
}

func TestFeePercentage(t *testing.T) {
	assert.InDelta(t, 2.0, FeePercentage(pct(2)), 1e-9)
	assert.InDelta(t, 0.0, FeePercentage(nil), 1e-9)
	assert.InDelta(t, 100.0, FeePercentage(pct(100)), 1e-9)
}
