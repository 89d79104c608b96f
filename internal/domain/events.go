package domain

import "time"

// Signal bus channels. The ws hub relays all of them to subscribers.
const (
	ChannelMarkets     = "markets"
	ChannelTrades      = "trades"
	ChannelLiquidity   = "liquidity"
	ChannelResolutions = "resolutions"
)

// MarketCreatedEvent is published when a new market is opened.
type MarketCreatedEvent struct {
	Type             string `json:"type"`
	MarketID         string `json:"market_id"`
	Creator          string `json:"creator"`
	YesMint          string `json:"yes_mint"`
	NoMint           string `json:"no_mint"`
	TokenTotalSupply uint64 `json:"token_total_supply"`
	StartSlot        uint64 `json:"start_slot"`
	EndingSlot       uint64 `json:"ending_slot"`
	Timestamp        int64  `json:"timestamp"`
}

// TradeEvent is published for every committed swap.
type TradeEvent struct {
	Type              string `json:"type"`
	MarketID          string `json:"market_id"`
	User              string `json:"user"`
	Outcome           string `json:"outcome"`
	IsBuy             bool   `json:"is_buy"`
	SolAmount         uint64 `json:"sol_amount"`
	TokenAmount       uint64 `json:"token_amount"`
	FeeLamports       uint64 `json:"fee_lamports"`
	RealSolReserves   uint64 `json:"real_sol_reserves"`
	RealTokenReserves uint64 `json:"real_token_reserves"`
	Timestamp         int64  `json:"timestamp"`
}

// LiquidityEvent is published on LP deposits and withdrawals.
type LiquidityEvent struct {
	Type          string `json:"type"`
	MarketID      string `json:"market_id"`
	Provider      string `json:"provider"`
	SolAmount     uint64 `json:"sol_amount"`
	Withdraw      bool   `json:"withdraw"`
	TotalLpAmount uint64 `json:"total_lp_amount"`
	Timestamp     int64  `json:"timestamp"`
}

// ResolutionEvent is published when the winning outcome is declared, on each
// holder payout, and once more when the market is finalized.
type ResolutionEvent struct {
	Type            string `json:"type"`
	MarketID        string `json:"market_id"`
	WinningOutcome  string `json:"winning_outcome"`
	Holder          string `json:"holder,omitempty"`
	Payout          uint64 `json:"payout,omitempty"`
	RealSolReserves uint64 `json:"real_sol_reserves"`
	Final           bool   `json:"final"`
	Timestamp       int64  `json:"timestamp"`
}

// EventTimestamp is the shared timestamp convention for bus events.
func EventTimestamp(t time.Time) int64 {
	return t.UTC().Unix()
}
