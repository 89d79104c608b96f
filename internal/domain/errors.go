package domain

import "errors"

var (
	// Generic storage/cache errors.
	ErrNotFound      = errors.New("not found")
	ErrAlreadyExists = errors.New("already exists")
	ErrLockHeld      = errors.New("lock already held")

	// Validation errors.
	ErrInvalidAmount    = errors.New("amount is invalid")
	ErrInvalidOutcome   = errors.New("invalid outcome selector")
	ErrInvalidParameter = errors.New("invalid parameter")
	ErrInvalidStartSlot = errors.New("start slot is in the past")
	ErrInvalidEndSlot   = errors.New("ending slot is in the past")

	// Authorization errors.
	ErrIncorrectAuthority = errors.New("incorrect authority")
	ErrNotInitialized     = errors.New("platform config not initialized")
	ErrNotWhitelisted     = errors.New("creator is not in whitelist")

	// Lifecycle errors.
	ErrMarketCompleted   = errors.New("market already completed")
	ErrMarketNotResolved = errors.New("winning outcome not published")
	ErrTradingNotStarted = errors.New("trading window has not opened")
	ErrTradingEnded      = errors.New("trading window has closed")

	// Arithmetic errors. Every fee, curve, and payout computation is checked;
	// silent wrapping is never acceptable for reserve math.
	ErrArithmetic = errors.New("arithmetic overflow or underflow")

	// Liquidity and balance errors.
	ErrInsufficientTokens   = errors.New("not enough tokens to complete the sell order")
	ErrInsufficientSol      = errors.New("not enough collateral to complete the operation")
	ErrReturnAmountTooSmall = errors.New("return amount below minimum receive amount")
	ErrNotLP                = errors.New("caller has no liquidity on record")
	ErrWithdrawAmount       = errors.New("withdraw amount is zero or exceeds entitlement")
)
