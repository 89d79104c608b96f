package engine

import (
	"fmt"

	"github.com/outcomefi/marketd/internal/domain"
)

// SplitLiquidity divides a collateral deposit between the YES and NO curves.
// An odd lamport goes to the YES side so the split always sums to the input.
func SplitLiquidity(sol uint64) (yes, no uint64) {
	no = sol / 2
	yes = sol - no
	return yes, no
}

// AddLiquidity credits a provider's deposit to both reserve sides and records
// the contribution. The first deposit into a market must meet minLiquidity;
// top-ups by existing providers have no floor.
func AddLiquidity(m *domain.Market, provider string, sol, minLiquidity uint64) error {
	if sol == 0 {
		return fmt.Errorf("engine: liquidity amount is zero: %w", domain.ErrInvalidAmount)
	}
	if m.TotalLpAmount == 0 && sol < minLiquidity {
		return fmt.Errorf("engine: initial liquidity %d below minimum %d: %w", sol, minLiquidity, domain.ErrInvalidAmount)
	}
	newTotal, ok := addU64(m.TotalLpAmount, sol)
	if !ok {
		return fmt.Errorf("engine: total liquidity overflow: %w", domain.ErrArithmetic)
	}
	yesSol, noSol := SplitLiquidity(sol)
	newYes, ok := addU64(m.Yes.RealSolReserves, yesSol)
	if !ok {
		return fmt.Errorf("engine: yes reserves overflow: %w", domain.ErrArithmetic)
	}
	newNo, ok := addU64(m.No.RealSolReserves, noSol)
	if !ok {
		return fmt.Errorf("engine: no reserves overflow: %w", domain.ErrArithmetic)
	}

	m.Yes.RealSolReserves = newYes
	m.No.RealSolReserves = newNo
	m.TotalLpAmount = newTotal
	if i := m.LpIndex(provider); i >= 0 {
		m.Lps[i].SolAmount += sol
	} else {
		m.Lps = append(m.Lps, domain.LpInfo{Provider: provider, SolAmount: sol})
	}
	return nil
}

// WithdrawLiquidity returns up to the provider's outstanding principal from
// the reserves, drawn evenly from both sides. Providers have no claim on
// trading gains; their entitlement is capped at what they deposited.
func WithdrawLiquidity(m *domain.Market, provider string, sol uint64) error {
	i := m.LpIndex(provider)
	if i < 0 {
		return fmt.Errorf("engine: %s holds no liquidity: %w", provider, domain.ErrNotLP)
	}
	if sol == 0 || sol > m.Lps[i].SolAmount {
		return fmt.Errorf("engine: withdraw %d outside (0, %d]: %w", sol, m.Lps[i].SolAmount, domain.ErrWithdrawAmount)
	}
	yesSol, noSol := SplitLiquidity(sol)
	if yesSol > m.Yes.RealSolReserves {
		return fmt.Errorf("engine: yes reserves %d cannot cover %d: %w", m.Yes.RealSolReserves, yesSol, domain.ErrInsufficientSol)
	}
	if noSol > m.No.RealSolReserves {
		return fmt.Errorf("engine: no reserves %d cannot cover %d: %w", m.No.RealSolReserves, noSol, domain.ErrInsufficientSol)
	}

	m.Yes.RealSolReserves -= yesSol
	m.No.RealSolReserves -= noSol
	m.TotalLpAmount -= sol
	m.Lps[i].SolAmount -= sol
	if m.Lps[i].SolAmount == 0 {
		m.Lps = append(m.Lps[:i], m.Lps[i+1:]...)
	}
	return nil
}
