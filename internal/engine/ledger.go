package engine

import (
	"fmt"

	"github.com/outcomefi/marketd/internal/domain"
)

// Credit adds tokens to a holder's balance for one outcome.
func Credit(u *domain.UserInfo, o domain.Outcome, amount uint64) error {
	if !o.Valid() {
		return domain.ErrInvalidOutcome
	}
	cur := u.Balance(o)
	next, ok := addU64(cur, amount)
	if !ok {
		return fmt.Errorf("engine: balance overflow for %s: %w", o, domain.ErrArithmetic)
	}
	u.SetBalance(o, next)
	return nil
}

// Debit removes tokens from a holder's balance, failing when the balance
// cannot cover the amount.
func Debit(u *domain.UserInfo, o domain.Outcome, amount uint64) error {
	if !o.Valid() {
		return domain.ErrInvalidOutcome
	}
	cur := u.Balance(o)
	if amount > cur {
		return fmt.Errorf("engine: debit %d exceeds balance %d: %w", amount, cur, domain.ErrInsufficientTokens)
	}
	u.SetBalance(o, cur-amount)
	return nil
}

// ClaimPayout computes the lamports owed to a holder of the winning outcome:
// balance * realSolReserves / tokenTotalSupply, floored. The quotient fits in
// 64 bits because a holder's balance never exceeds the total supply.
func ClaimPayout(balance uint64, winning domain.OutcomeReserve) (uint64, error) {
	if winning.TokenTotalSupply == 0 {
		return 0, fmt.Errorf("engine: zero token supply: %w", domain.ErrArithmetic)
	}
	if balance > winning.TokenTotalSupply {
		return 0, fmt.Errorf("engine: balance exceeds supply: %w", domain.ErrArithmetic)
	}
	payout, err := mulDiv(balance, winning.RealSolReserves, winning.TokenTotalSupply)
	if err != nil {
		return 0, fmt.Errorf("engine: claim payout: %w", err)
	}
	if payout > winning.RealSolReserves {
		return 0, fmt.Errorf("engine: payout exceeds reserves: %w", domain.ErrInsufficientSol)
	}
	return payout, nil
}
