package domain

import "time"

// Trade is one committed swap fill, recorded after the reserve and ledger
// mutations succeed. SolAmount is the gross collateral side of the trade
// before fees; FeeLamports is the total platform+LP fee taken from it.
type Trade struct {
	ID          string    `json:"id"`
	MarketID    string    `json:"market_id"`
	User        string    `json:"user"`
	Outcome     Outcome   `json:"outcome"`
	Direction   Direction `json:"direction"`
	SolAmount   uint64    `json:"sol_amount"`
	TokenAmount uint64    `json:"token_amount"`
	FeeLamports uint64    `json:"fee_lamports"`
	Slot        uint64    `json:"slot"`
	CreatedAt   time.Time `json:"created_at"`
}
