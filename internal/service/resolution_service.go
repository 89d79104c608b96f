package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/outcomefi/marketd/internal/domain"
	"github.com/outcomefi/marketd/internal/engine"
)

// ResolutionService settles markets: the platform authority publishes the
// winning outcome, holders claim their pro-rata payout permissionlessly, and
// a final call freezes the market and sweeps the remainder.
type ResolutionService struct {
	markets  domain.MarketStore
	users    domain.UserInfoStore
	platform domain.PlatformStore
	cache    domain.MarketCache
	locks    domain.LockManager
	bus      domain.SignalBus
	audit    domain.AuditStore
	vault    domain.CollateralVault
	clock    domain.SlotClock
	logger   *slog.Logger
	lockTTL  time.Duration
	secret   string
}

// NewResolutionService creates a ResolutionService with all required
// dependencies. secret must match the market service's pool secret.
func NewResolutionService(
	markets domain.MarketStore,
	users domain.UserInfoStore,
	platform domain.PlatformStore,
	cache domain.MarketCache,
	locks domain.LockManager,
	bus domain.SignalBus,
	audit domain.AuditStore,
	vault domain.CollateralVault,
	clock domain.SlotClock,
	logger *slog.Logger,
	lockTTL time.Duration,
	secret string,
) *ResolutionService {
	return &ResolutionService{
		markets:  markets,
		users:    users,
		platform: platform,
		cache:    cache,
		locks:    locks,
		bus:      bus,
		audit:    audit,
		vault:    vault,
		clock:    clock,
		logger:   logger,
		lockTTL:  lockTTL,
		secret:   secret,
	}
}

// Resolve publishes the winning outcome. Only the platform authority may
// resolve, and only after the trading window has closed. Holders claim
// individually afterwards; nothing is paid out here.
func (s *ResolutionService) Resolve(ctx context.Context, marketID, authority string, winning domain.Outcome) (domain.Market, error) {
	params, err := s.platform.Get(ctx)
	if err != nil {
		return domain.Market{}, fmt.Errorf("resolution_service: load platform params: %w", err)
	}
	if authority != params.Authority {
		return domain.Market{}, fmt.Errorf("resolution_service: %w", domain.ErrIncorrectAuthority)
	}
	if !winning.Valid() {
		return domain.Market{}, fmt.Errorf("resolution_service: %w", domain.ErrInvalidOutcome)
	}

	unlock, err := s.locks.Acquire(ctx, "market:"+marketID, s.lockTTL)
	if err != nil {
		return domain.Market{}, fmt.Errorf("resolution_service: lock market %s: %w", marketID, err)
	}
	defer unlock()

	market, err := s.markets.GetByID(ctx, marketID)
	if err != nil {
		return domain.Market{}, fmt.Errorf("resolution_service: get market %s: %w", marketID, err)
	}
	if market.IsCompleted {
		return domain.Market{}, fmt.Errorf("resolution_service: %w", domain.ErrMarketCompleted)
	}
	if market.WinningOutcome != nil {
		return domain.Market{}, fmt.Errorf("resolution_service: outcome already published: %w", domain.ErrAlreadyExists)
	}
	if market.EndingSlot != nil {
		if slot := s.clock.CurrentSlot(); slot <= *market.EndingSlot {
			return domain.Market{}, fmt.Errorf("resolution_service: trading still open at slot %d: %w",
				slot, domain.ErrInvalidEndSlot)
		}
	}

	now := time.Now().UTC()
	market.WinningOutcome = &winning
	market.UpdatedAt = now
	if err := s.markets.Update(ctx, market); err != nil {
		return domain.Market{}, fmt.Errorf("resolution_service: update market %s: %w", marketID, err)
	}
	s.cacheSet(ctx, market)

	s.publish(ctx, domain.ResolutionEvent{
		Type:            "market_resolved",
		MarketID:        marketID,
		WinningOutcome:  winning.String(),
		RealSolReserves: market.Reserve(winning).RealSolReserves,
		Timestamp:       domain.EventTimestamp(now),
	})
	s.auditLog(ctx, "market_resolved", map[string]any{
		"market_id": marketID,
		"winning":   winning.String(),
	})

	s.logger.InfoContext(ctx, "resolution_service: market resolved",
		slog.String("market_id", marketID),
		slog.String("winning", winning.String()),
	)
	return market, nil
}

// Claim pays a holder of the winning outcome their pro-rata share of the
// reserves. Anyone may call it for their own position once the outcome is
// published; the balance is zeroed so a position can only be claimed once.
func (s *ResolutionService) Claim(ctx context.Context, marketID, user string) (uint64, error) {
	unlock, err := s.locks.Acquire(ctx, "market:"+marketID, s.lockTTL)
	if err != nil {
		return 0, fmt.Errorf("resolution_service: lock market %s: %w", marketID, err)
	}
	defer unlock()

	market, err := s.markets.GetByID(ctx, marketID)
	if err != nil {
		return 0, fmt.Errorf("resolution_service: get market %s: %w", marketID, err)
	}
	if market.WinningOutcome == nil {
		return 0, fmt.Errorf("resolution_service: %w", domain.ErrMarketNotResolved)
	}
	if market.IsCompleted {
		return 0, fmt.Errorf("resolution_service: %w", domain.ErrMarketCompleted)
	}
	winning := *market.WinningOutcome

	info, err := s.users.Get(ctx, marketID, user)
	if errors.Is(err, domain.ErrNotFound) {
		return 0, fmt.Errorf("resolution_service: no position for %s: %w", user, domain.ErrInsufficientTokens)
	}
	if err != nil {
		return 0, fmt.Errorf("resolution_service: get user info: %w", err)
	}
	balance := info.Balance(winning)
	if balance == 0 {
		return 0, fmt.Errorf("resolution_service: nothing to claim: %w", domain.ErrInsufficientTokens)
	}

	// Reserves and outstanding supply shrink together claim by claim, so
	// every holder gets the same lamports-per-token ratio no matter the
	// claim order, and the floored payouts can never exceed the reserves.
	payout, err := engine.ClaimPayout(balance, *market.Reserve(winning))
	if err != nil {
		return 0, fmt.Errorf("resolution_service: %w", err)
	}

	if payout > 0 {
		if err := s.vault.Apply(ctx, PoolProof(s.secret, marketID), domain.Movement{
			From: PoolAccount(marketID), To: user, Lamports: payout,
		}); err != nil {
			return 0, fmt.Errorf("resolution_service: apply payout: %w", err)
		}
	}

	now := time.Now().UTC()
	market.Reserve(winning).RealSolReserves -= payout
	market.Reserve(winning).TokenTotalSupply -= balance
	market.UpdatedAt = now
	info.SetBalance(winning, 0)
	info.UpdatedAt = now

	if err := s.markets.Update(ctx, market); err != nil {
		return 0, fmt.Errorf("resolution_service: update market %s: %w", marketID, err)
	}
	if err := s.users.Upsert(ctx, info); err != nil {
		return 0, fmt.Errorf("resolution_service: upsert user info: %w", err)
	}
	s.cacheSet(ctx, market)

	s.publish(ctx, domain.ResolutionEvent{
		Type:            "claim",
		MarketID:        marketID,
		WinningOutcome:  winning.String(),
		Holder:          user,
		Payout:          payout,
		RealSolReserves: market.Reserve(winning).RealSolReserves,
		Timestamp:       domain.EventTimestamp(now),
	})
	s.auditLog(ctx, "claim", map[string]any{
		"market_id": marketID,
		"user":      user,
		"payout":    payout,
	})

	s.logger.InfoContext(ctx, "resolution_service: claim paid",
		slog.String("market_id", marketID),
		slog.String("user", user),
		slog.Uint64("payout", payout),
	)
	return payout, nil
}

// Finalize is the authority's final call: the market is frozen, no further
// claims are honored, and whatever collateral remains in the pool is swept
// to the team wallet.
func (s *ResolutionService) Finalize(ctx context.Context, marketID, authority string) (domain.Market, error) {
	params, err := s.platform.Get(ctx)
	if err != nil {
		return domain.Market{}, fmt.Errorf("resolution_service: load platform params: %w", err)
	}
	if authority != params.Authority {
		return domain.Market{}, fmt.Errorf("resolution_service: %w", domain.ErrIncorrectAuthority)
	}

	unlock, err := s.locks.Acquire(ctx, "market:"+marketID, s.lockTTL)
	if err != nil {
		return domain.Market{}, fmt.Errorf("resolution_service: lock market %s: %w", marketID, err)
	}
	defer unlock()

	market, err := s.markets.GetByID(ctx, marketID)
	if err != nil {
		return domain.Market{}, fmt.Errorf("resolution_service: get market %s: %w", marketID, err)
	}
	if market.WinningOutcome == nil {
		return domain.Market{}, fmt.Errorf("resolution_service: %w", domain.ErrMarketNotResolved)
	}
	if market.IsCompleted {
		return domain.Market{}, fmt.Errorf("resolution_service: %w", domain.ErrMarketCompleted)
	}

	pool := PoolAccount(marketID)
	remainder, err := s.vault.Balance(ctx, pool)
	if err != nil {
		return domain.Market{}, fmt.Errorf("resolution_service: pool balance: %w", err)
	}
	if remainder > 0 {
		if err := s.vault.Apply(ctx, PoolProof(s.secret, marketID), domain.Movement{
			From: pool, To: TeamWalletAccount, Lamports: remainder,
		}); err != nil {
			return domain.Market{}, fmt.Errorf("resolution_service: sweep pool: %w", err)
		}
	}

	now := time.Now().UTC()
	market.IsCompleted = true
	market.Yes.RealSolReserves = 0
	market.No.RealSolReserves = 0
	market.UpdatedAt = now
	if err := s.markets.Update(ctx, market); err != nil {
		return domain.Market{}, fmt.Errorf("resolution_service: update market %s: %w", marketID, err)
	}
	s.cacheSet(ctx, market)

	s.publish(ctx, domain.ResolutionEvent{
		Type:           "market_finalized",
		MarketID:       marketID,
		WinningOutcome: market.WinningOutcome.String(),
		Final:          true,
		Timestamp:      domain.EventTimestamp(now),
	})
	s.auditLog(ctx, "market_finalized", map[string]any{
		"market_id": marketID,
		"swept":     remainder,
	})

	s.logger.InfoContext(ctx, "resolution_service: market finalized",
		slog.String("market_id", marketID),
		slog.Uint64("swept", remainder),
	)
	return market, nil
}

func (s *ResolutionService) cacheSet(ctx context.Context, m domain.Market) {
	if err := s.cache.Set(ctx, m); err != nil {
		s.logger.WarnContext(ctx, "resolution_service: cache set failed",
			slog.String("market_id", m.ID),
			slog.String("error", err.Error()),
		)
	}
}

func (s *ResolutionService) publish(ctx context.Context, event domain.ResolutionEvent) {
	payload, err := json.Marshal(event)
	if err != nil {
		s.logger.WarnContext(ctx, "resolution_service: marshal event failed",
			slog.String("error", err.Error()),
		)
		return
	}
	if err := s.bus.Publish(ctx, domain.ChannelResolutions, payload); err != nil {
		s.logger.WarnContext(ctx, "resolution_service: publish event failed",
			slog.String("error", err.Error()),
		)
	}
}

func (s *ResolutionService) auditLog(ctx context.Context, event string, detail map[string]any) {
	if err := s.audit.Log(ctx, event, detail); err != nil {
		s.logger.WarnContext(ctx, "resolution_service: audit log failed",
			slog.String("event", event),
			slog.String("error", err.Error()),
		)
	}
}
