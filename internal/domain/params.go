package domain

import (
	"fmt"
	"math"
	"time"
)

// BpsDenominator is the basis-point scale: 10,000 bps = 100%.
const BpsDenominator uint64 = 10_000

// MaxMintDecimals bounds the position-token decimals template.
const MaxMintDecimals uint8 = 9

// PlatformParams is the singleton platform configuration record. The engine
// treats it as an immutable snapshot per operation; updates go through the
// admin configure flow with two-phase authority transfer.
type PlatformParams struct {
	Authority        string `json:"authority"`
	PendingAuthority string `json:"pending_authority,omitempty"`
	TeamWallet       string `json:"team_wallet"`

	PlatformBuyFeeBps  uint64 `json:"platform_buy_fee_bps"`
	PlatformSellFeeBps uint64 `json:"platform_sell_fee_bps"`
	LpBuyFeeBps        uint64 `json:"lp_buy_fee_bps"`
	LpSellFeeBps       uint64 `json:"lp_sell_fee_bps"`

	// Token template applied to every new market's outcome mints.
	TokenTotalSupply         uint64 `json:"token_total_supply"`
	TokenDecimals            uint8  `json:"token_decimals"`
	InitialRealTokenReserves uint64 `json:"initial_real_token_reserves"`

	// VirtualSolReserves seeds each new market's curve offset.
	VirtualSolReserves uint64 `json:"virtual_sol_reserves"`

	// MinSolLiquidity is the smallest accepted liquidity deposit.
	MinSolLiquidity uint64 `json:"min_sol_liquidity"`

	// WhitelistEnabled restricts market creation to CreatorWhitelist members.
	// Membership is managed through the admin whitelist operations, not
	// through Configure.
	WhitelistEnabled bool     `json:"whitelist_enabled"`
	CreatorWhitelist []string `json:"creator_whitelist,omitempty"`

	Initialized bool      `json:"initialized"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// MayCreateMarkets reports whether the given wallet is allowed to create
// markets. Every wallet qualifies while the whitelist is disabled.
func (p *PlatformParams) MayCreateMarkets(wallet string) bool {
	if !p.WhitelistEnabled {
		return true
	}
	for _, w := range p.CreatorWhitelist {
		if w == wallet {
			return true
		}
	}
	return false
}

// Validate checks the settings ranges before they are persisted.
func (p *PlatformParams) Validate() error {
	if p.Authority == "" {
		return fmt.Errorf("authority is required: %w", ErrInvalidParameter)
	}
	if p.TeamWallet == "" {
		return fmt.Errorf("team wallet is required: %w", ErrInvalidParameter)
	}
	if p.TokenDecimals > MaxMintDecimals {
		return fmt.Errorf("token decimals %d exceeds %d: %w", p.TokenDecimals, MaxMintDecimals, ErrInvalidParameter)
	}
	if p.TokenTotalSupply > math.MaxUint64/2 {
		return fmt.Errorf("token total supply out of range: %w", ErrInvalidParameter)
	}
	if p.InitialRealTokenReserves == 0 {
		return fmt.Errorf("initial real token reserves must be positive: %w", ErrInvalidParameter)
	}
	if p.TokenTotalSupply < p.InitialRealTokenReserves {
		return fmt.Errorf("token total supply below initial reserves: %w", ErrInvalidParameter)
	}
	for _, bps := range []uint64{p.PlatformBuyFeeBps, p.PlatformSellFeeBps, p.LpBuyFeeBps, p.LpSellFeeBps} {
		if bps > BpsDenominator {
			return fmt.Errorf("fee %d bps exceeds %d: %w", bps, BpsDenominator, ErrInvalidParameter)
		}
	}
	if p.PlatformBuyFeeBps+p.LpBuyFeeBps > BpsDenominator {
		return fmt.Errorf("combined buy fee exceeds 100%%: %w", ErrInvalidParameter)
	}
	if p.PlatformSellFeeBps+p.LpSellFeeBps > BpsDenominator {
		return fmt.Errorf("combined sell fee exceeds 100%%: %w", ErrInvalidParameter)
	}
	return nil
}

// BuyFees returns the (platform, lp) fee rates applied to buys.
func (p *PlatformParams) BuyFees() (uint64, uint64) {
	return p.PlatformBuyFeeBps, p.LpBuyFeeBps
}

// SellFees returns the (platform, lp) fee rates applied to sells.
func (p *PlatformParams) SellFees() (uint64, uint64) {
	return p.PlatformSellFeeBps, p.LpSellFeeBps
}
