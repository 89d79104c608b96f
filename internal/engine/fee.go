// Package engine implements the pure market math: basis-point fee splits,
// constant-product curve quotes, and the position/liquidity ledger rules.
// Nothing in this package performs I/O or mutates shared state; callers
// compute a full result first and commit it afterwards.
package engine

import (
	"fmt"
	"math/bits"

	"github.com/outcomefi/marketd/internal/domain"
)

// FeeBreakdown is the result of splitting a gross collateral amount.
type FeeBreakdown struct {
	PlatformFee uint64
	LpFee       uint64
	Net         uint64
}

// Total returns the combined fee taken from the gross amount.
func (f FeeBreakdown) Total() uint64 {
	return f.PlatformFee + f.LpFee
}

// SplitFee computes floor(amount*bps/10000) for the platform and LP rates and
// the remaining net amount. The multiplication runs through a 128-bit
// intermediate so it cannot overflow for any uint64 amount.
func SplitFee(amount, platformBps, lpBps uint64) (FeeBreakdown, error) {
	platformFee, err := bpsMul(amount, platformBps)
	if err != nil {
		return FeeBreakdown{}, fmt.Errorf("engine: platform fee: %w", err)
	}
	lpFee, err := bpsMul(amount, lpBps)
	if err != nil {
		return FeeBreakdown{}, fmt.Errorf("engine: lp fee: %w", err)
	}
	if platformFee+lpFee > amount {
		return FeeBreakdown{}, fmt.Errorf("engine: fees exceed amount: %w", domain.ErrArithmetic)
	}
	return FeeBreakdown{
		PlatformFee: platformFee,
		LpFee:       lpFee,
		Net:         amount - platformFee - lpFee,
	}, nil
}

// bpsMul computes floor(value*bps/10000) with a 128-bit intermediate.
func bpsMul(value, bps uint64) (uint64, error) {
	if bps > domain.BpsDenominator {
		return 0, fmt.Errorf("fee rate %d bps out of range: %w", bps, domain.ErrArithmetic)
	}
	hi, lo := bits.Mul64(value, bps)
	if hi >= domain.BpsDenominator {
		return 0, domain.ErrArithmetic
	}
	q, _ := bits.Div64(hi, lo, domain.BpsDenominator)
	return q, nil
}

// mulDiv computes floor(a*b/div) with a 128-bit intermediate. It fails with
// ErrArithmetic when div is zero or the quotient does not fit in 64 bits.
func mulDiv(a, b, div uint64) (uint64, error) {
	if div == 0 {
		return 0, domain.ErrArithmetic
	}
	hi, lo := bits.Mul64(a, b)
	if hi >= div {
		return 0, domain.ErrArithmetic
	}
	q, _ := bits.Div64(hi, lo, div)
	return q, nil
}
