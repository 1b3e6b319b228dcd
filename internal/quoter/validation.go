package quoter

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/mselser95/fpmm-quoter/pkg/types"
	"github.com/shopspring/decimal"
)

var (
	// ErrNegativeAmount is returned for amounts below zero.
	ErrNegativeAmount = errors.New("amount must not be negative")
	// ErrInsufficientBalance is returned when the trader holds no collateral at all.
	ErrInsufficientBalance = errors.New("insufficient balance")
	// ErrAmountExceedsBalance is returned when the amount is larger than the balance.
	ErrAmountExceedsBalance = errors.New("amount exceeds balance")
)

// CheckBalance validates a trade amount against the trader's collateral balance.
// A nil balance means unknown and is not checked.
func CheckBalance(amount, balance *big.Int, token types.Token) error {
	if amount == nil {
		return nil
	}
	if amount.Sign() < 0 {
		return ErrNegativeAmount
	}
	if balance == nil || amount.Cmp(balance) <= 0 {
		return nil
	}
	if balance.Sign() == 0 {
		return ErrInsufficientBalance
	}

	display := decimal.NewFromBigInt(balance, -int32(token.Decimals)).StringFixed(5)
	return fmt.Errorf("%w: value must be less than or equal to %s %s", ErrAmountExceedsBalance, display, token.Symbol)
}
