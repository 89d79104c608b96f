package engine

import (
	"fmt"

	"github.com/outcomefi/marketd/internal/domain"
)

// Quote is the outcome of pricing a swap against one side of a market. It
// carries both the amounts exchanged and the full post-trade reserve state so
// the caller can commit the trade without recomputing anything.
type Quote struct {
	// SolAmount is the lamports entering (buy) or leaving (sell) the curve,
	// after fees have been removed from the gross input on buys.
	SolAmount uint64
	// TokenAmount is the outcome tokens leaving (buy) or entering (sell)
	// the curve.
	TokenAmount uint64

	// Post-trade reserves for the traded side.
	NewRealSolReserves   uint64
	NewRealTokenReserves uint64
}

// QuoteBuy prices a purchase of outcome tokens for solIn lamports (net of
// fees) against the given reserve side. The curve holds
// k = (virtualSol + realSol) * realToken invariant across the trade.
func QuoteBuy(r domain.OutcomeReserve, virtualSol, solIn uint64) (Quote, error) {
	if solIn == 0 {
		return Quote{}, fmt.Errorf("engine: buy amount is zero: %w", domain.ErrInvalidAmount)
	}
	totalSol, ok := addU64(virtualSol, r.RealSolReserves)
	if !ok {
		return Quote{}, fmt.Errorf("engine: sol reserves overflow: %w", domain.ErrArithmetic)
	}
	if r.RealTokenReserves == 0 {
		return Quote{}, fmt.Errorf("engine: empty token reserves: %w", domain.ErrInsufficientTokens)
	}
	newTotalSol, ok := addU64(totalSol, solIn)
	if !ok {
		return Quote{}, fmt.Errorf("engine: buy amount overflows reserves: %w", domain.ErrArithmetic)
	}
	// newToken = floor(totalSol * realToken / newTotalSol). The quotient is
	// strictly below realToken, so it always fits in 64 bits.
	newToken, err := mulDiv(totalSol, r.RealTokenReserves, newTotalSol)
	if err != nil {
		return Quote{}, fmt.Errorf("engine: buy quote: %w", err)
	}
	tokensOut := r.RealTokenReserves - newToken
	if tokensOut == 0 {
		return Quote{}, fmt.Errorf("engine: buy yields zero tokens: %w", domain.ErrInvalidAmount)
	}
	return Quote{
		SolAmount:            solIn,
		TokenAmount:          tokensOut,
		NewRealSolReserves:   r.RealSolReserves + solIn,
		NewRealTokenReserves: newToken,
	}, nil
}

// QuoteSell prices a sale of tokensIn outcome tokens back into the curve.
// The returned SolAmount is gross; sell fees are removed by the caller.
func QuoteSell(r domain.OutcomeReserve, virtualSol, tokensIn uint64) (Quote, error) {
	if tokensIn == 0 {
		return Quote{}, fmt.Errorf("engine: sell amount is zero: %w", domain.ErrInvalidAmount)
	}
	totalSol, ok := addU64(virtualSol, r.RealSolReserves)
	if !ok {
		return Quote{}, fmt.Errorf("engine: sol reserves overflow: %w", domain.ErrArithmetic)
	}
	newToken, ok := addU64(r.RealTokenReserves, tokensIn)
	if !ok {
		return Quote{}, fmt.Errorf("engine: sell amount overflows reserves: %w", domain.ErrArithmetic)
	}
	// newTotalSol = floor(totalSol * realToken / newToken) < totalSol.
	newTotalSol, err := mulDiv(totalSol, r.RealTokenReserves, newToken)
	if err != nil {
		return Quote{}, fmt.Errorf("engine: sell quote: %w", err)
	}
	solOut := totalSol - newTotalSol
	if solOut == 0 {
		return Quote{}, fmt.Errorf("engine: sell yields zero lamports: %w", domain.ErrInvalidAmount)
	}
	if solOut > r.RealSolReserves {
		return Quote{}, fmt.Errorf("engine: sell exceeds real sol reserves: %w", domain.ErrInsufficientSol)
	}
	return Quote{
		SolAmount:            solOut,
		TokenAmount:          tokensIn,
		NewRealSolReserves:   r.RealSolReserves - solOut,
		NewRealTokenReserves: newToken,
	}, nil
}

// SpotPrice returns the marginal lamports-per-token price of one side scaled
// by 1e9, for display only. The executable price always comes from a quote.
func SpotPrice(r domain.OutcomeReserve, virtualSol uint64) (uint64, error) {
	if r.RealTokenReserves == 0 {
		return 0, domain.ErrInsufficientTokens
	}
	totalSol, ok := addU64(virtualSol, r.RealSolReserves)
	if !ok {
		return 0, domain.ErrArithmetic
	}
	return mulDiv(totalSol, 1_000_000_000, r.RealTokenReserves)
}

func addU64(a, b uint64) (uint64, bool) {
	s := a + b
	return s, s >= a
}
