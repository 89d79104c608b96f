package domain

import "context"

// Movement is one collateral transfer between two vault accounts.
type Movement struct {
	From     string
	To       string
	Lamports uint64
}

// CollateralVault moves collateral between user accounts and the pool
// account. Apply commits every movement or none of them; movements out of
// the pool account require the pool authorization proof, user-funded
// movements ignore it. The engine relies on this atomicity for its
// quote-then-commit swap protocol.
type CollateralVault interface {
	Apply(ctx context.Context, proof string, moves ...Movement) error
	Balance(ctx context.Context, account string) (uint64, error)
}

// TokenMinter creates the fixed-supply position-token mints at market
// creation. RevokeMintAuthority irrevocably disables further minting.
type TokenMinter interface {
	CreateMint(ctx context.Context, decimals uint8) (string, error)
	MintTo(ctx context.Context, mint, account string, amount uint64) error
	RevokeMintAuthority(ctx context.Context, mint string) error
}

// SlotClock exposes the monotonically increasing logical tick used for
// start/ending slot comparisons. One slot is roughly 400ms of wall time.
type SlotClock interface {
	CurrentSlot() uint64
}
