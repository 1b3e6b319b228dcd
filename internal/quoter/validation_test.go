package quoter

import (
	"math/big"
	"testing"

	"github.com/mselser95/fpmm-quoter/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckBalance(t *testing.T) {
	oneDAI := new(big.Int).Exp(big.NewInt(10), big.NewInt(18), nil)
	twoDAI := new(big.Int).Mul(big.NewInt(2), oneDAI)

	assert.NoError(t, CheckBalance(oneDAI, twoDAI, testutil.DAI))
	assert.NoError(t, CheckBalance(twoDAI, twoDAI, testutil.DAI))
	assert.NoError(t, CheckBalance(twoDAI, nil, testutil.DAI), "unknown balance is not checked")
	assert.NoError(t, CheckBalance(nil, twoDAI, testutil.DAI))

	assert.ErrorIs(t, CheckBalance(big.NewInt(-1), twoDAI, testutil.DAI), ErrNegativeAmount)
	assert.ErrorIs(t, CheckBalance(oneDAI, big.NewInt(0), testutil.DAI), ErrInsufficientBalance)

	err := CheckBalance(twoDAI, oneDAI, testutil.DAI)
	require.ErrorIs(t, err, ErrAmountExceedsBalance)
	assert.Contains(t, err.Error(), "1.00000 DAI")
}
