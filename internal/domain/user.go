package domain

import "time"

// UserInfo is the per-(market, user) position record. It is created lazily on
// the user's first swap or liquidity action and never deleted; balances only
// change through swaps and resolution claims.
type UserInfo struct {
	MarketID      string    `json:"market_id"`
	User          string    `json:"user"`
	YesBalance    uint64    `json:"yes_balance"`
	NoBalance     uint64    `json:"no_balance"`
	IsLP          bool      `json:"is_lp"`
	IsInitialized bool      `json:"is_initialized"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// NewUserInfo returns an initialized zero-balance record for (marketID, user).
func NewUserInfo(marketID, user string) UserInfo {
	return UserInfo{
		MarketID:      marketID,
		User:          user,
		IsInitialized: true,
	}
}

// Balance returns the holding for the given outcome.
func (u *UserInfo) Balance(o Outcome) uint64 {
	if o == OutcomeYes {
		return u.YesBalance
	}
	return u.NoBalance
}

// SetBalance overwrites the holding for the given outcome.
func (u *UserInfo) SetBalance(o Outcome, v uint64) {
	if o == OutcomeYes {
		u.YesBalance = v
	} else {
		u.NoBalance = v
	}
}
