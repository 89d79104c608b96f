// Package domain defines the core data model of the prediction market engine
// and the interfaces it expects from storage, cache, and transfer
// collaborators.
package domain

import "time"

// OutcomeReserve is the reserve state backing a single outcome's bonding
// curve. InitialTokenReserves is the virtual baseline fixed at creation;
// RealTokenReserves is the unsold pool balance and never exceeds the
// baseline. RealSolReserves is the collateral held against this outcome.
type OutcomeReserve struct {
	InitialTokenReserves uint64 `json:"initial_token_reserves"`
	RealTokenReserves    uint64 `json:"real_token_reserves"`
	RealSolReserves      uint64 `json:"real_sol_reserves"`
	TokenTotalSupply     uint64 `json:"token_total_supply"`
}

// LpInfo records one provider's outstanding liquidity contribution. The
// record only shrinks through withdrawals and is removed once fully drained.
type LpInfo struct {
	Provider  string `json:"provider"`
	SolAmount uint64 `json:"sol_amount"`
}

// Market is one binary YES/NO prediction market. It exclusively owns its
// reserve state and LP list; per-user positions live in UserInfo records
// referenced by (market, user).
type Market struct {
	ID      string `json:"id"`
	Creator string `json:"creator"`
	YesMint string `json:"yes_mint"`
	NoMint  string `json:"no_mint"`

	// VirtualSolReserves is a constant collateral offset applied to both
	// curves so the price stays finite while real reserves are zero.
	VirtualSolReserves uint64 `json:"virtual_sol_reserves"`

	Yes OutcomeReserve `json:"yes"`
	No  OutcomeReserve `json:"no"`

	IsCompleted    bool     `json:"is_completed"`
	WinningOutcome *Outcome `json:"winning_outcome,omitempty"`
	StartSlot      *uint64  `json:"start_slot,omitempty"`
	EndingSlot     *uint64  `json:"ending_slot,omitempty"`

	Lps           []LpInfo `json:"lps"`
	TotalLpAmount uint64   `json:"total_lp_amount"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Reserve returns a pointer to the reserve state for the given outcome.
func (m *Market) Reserve(o Outcome) *OutcomeReserve {
	if o == OutcomeYes {
		return &m.Yes
	}
	return &m.No
}

// LpIndex returns the index of provider's LP record, or -1 if the provider
// has no outstanding contribution.
func (m *Market) LpIndex(provider string) int {
	for i := range m.Lps {
		if m.Lps[i].Provider == provider {
			return i
		}
	}
	return -1
}

// LpTotal sums the outstanding LP contributions. It must always equal
// TotalLpAmount; stores and tests use it as a consistency check.
func (m *Market) LpTotal() uint64 {
	var sum uint64
	for i := range m.Lps {
		sum += m.Lps[i].SolAmount
	}
	return sum
}

// TradingOpen reports whether the market accepts swaps at the given slot.
// The ending slot is inclusive: trading closes on the first slot after it.
func (m *Market) TradingOpen(slot uint64) bool {
	if m.IsCompleted {
		return false
	}
	if m.StartSlot != nil && slot < *m.StartSlot {
		return false
	}
	if m.EndingSlot != nil && slot > *m.EndingSlot {
		return false
	}
	return true
}
