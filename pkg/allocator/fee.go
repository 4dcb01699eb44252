package allocator

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/yieldworks/compounder/pkg/protocol"
)

// ErrFeeExceedsMaximum marks a fee request above the configured cap.
var ErrFeeExceedsMaximum = errors.New("fee exceeds configured maximum")

// BpsDenominator aliases the shared basis-point scale for callers of this
// package.
const BpsDenominator = protocol.BpsScale

// FeeSplit is the result of removing the compounding fee from a gross reward.
// Remaining + Fee always equals the gross amount; Remaining is what the
// allocator distributes.
type FeeSplit struct {
	Remaining int64
	Fee       int64
	// Transfer moves the fee from payer to payee. Nil when the fee rounds
	// to zero, since a zero-coin bank send is rejected downstream.
	Transfer *protocol.MsgSend
}

// SplitFee removes feeBps of gross off the top, truncating the fee toward
// zero. Fails when feeBps exceeds maxFeeBps.
func SplitFee(gross int64, feeBps, maxFeeBps uint32, denom, payer, payee string) (FeeSplit, error) {
	if gross < 0 {
		return FeeSplit{}, fmt.Errorf("negative gross amount %d", gross)
	}
	if feeBps > maxFeeBps {
		return FeeSplit{}, fmt.Errorf("%w: %d bps > %d bps cap", ErrFeeExceedsMaximum, feeBps, maxFeeBps)
	}

	// Full-precision multiply before dividing: gross*feeBps can overflow
	// int64 for large micro-denom amounts.
	scaled := decimal.NewFromInt(gross).Mul(decimal.NewFromInt(int64(feeBps)))
	quotient, _ := scaled.QuoRem(decimal.NewFromInt(BpsDenominator), 0)
	fee := quotient.IntPart()
	split := FeeSplit{
		Remaining: gross - fee,
		Fee:       fee,
	}
	if fee > 0 {
		split.Transfer = &protocol.MsgSend{
			FromAddress: payer,
			ToAddress:   payee,
			Amount:      []protocol.Coin{protocol.NewCoin(denom, fee)},
		}
	}
	return split, nil
}
