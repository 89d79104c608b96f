// Package service implements the market engine's application operations on
// top of the domain stores, cache, vault, and signal bus. Every mutating
// operation follows the same protocol: acquire the per-market lock, load
// state, validate and compute the full result, commit the collateral batch,
// then persist and publish.
package service

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/outcomefi/marketd/internal/domain"
	"github.com/outcomefi/marketd/internal/engine"
)

// TeamWalletAccount is the vault account fee revenue and settlement sweeps
// land in.
const TeamWalletAccount = "team"

// MarketServiceConfig carries the tunables the market service needs.
type MarketServiceConfig struct {
	// LockTTL bounds how long a per-market lock may be held.
	LockTTL time.Duration
	// MaxStartSlotDelay bounds how far ahead a market may schedule its
	// start slot.
	MaxStartSlotDelay uint64
	// PoolSecret derives each market's pool authorization proof.
	PoolSecret string
}

// MarketService implements market creation, swaps, and liquidity operations.
type MarketService struct {
	markets  domain.MarketStore
	users    domain.UserInfoStore
	trades   domain.TradeStore
	platform domain.PlatformStore
	cache    domain.MarketCache
	locks    domain.LockManager
	bus      domain.SignalBus
	audit    domain.AuditStore
	vault    domain.CollateralVault
	minter   domain.TokenMinter
	clock    domain.SlotClock
	logger   *slog.Logger
	cfg      MarketServiceConfig
}

// NewMarketService creates a MarketService with all required dependencies.
func NewMarketService(
	markets domain.MarketStore,
	users domain.UserInfoStore,
	trades domain.TradeStore,
	platform domain.PlatformStore,
	cache domain.MarketCache,
	locks domain.LockManager,
	bus domain.SignalBus,
	audit domain.AuditStore,
	vault domain.CollateralVault,
	minter domain.TokenMinter,
	clock domain.SlotClock,
	logger *slog.Logger,
	cfg MarketServiceConfig,
) *MarketService {
	return &MarketService{
		markets:  markets,
		users:    users,
		trades:   trades,
		platform: platform,
		cache:    cache,
		locks:    locks,
		bus:      bus,
		audit:    audit,
		vault:    vault,
		minter:   minter,
		clock:    clock,
		logger:   logger,
		cfg:      cfg,
	}
}

// PoolAccount returns the vault account holding a market's collateral.
func PoolAccount(marketID string) string {
	return "pool:" + marketID
}

// PoolProof derives the pool authorization proof for a market from the
// configured secret. Only services sharing the secret can move collateral
// out of a pool account.
func PoolProof(secret, marketID string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(PoolAccount(marketID)))
	return hex.EncodeToString(mac.Sum(nil))
}

func (s *MarketService) poolProof(marketID string) string {
	return PoolProof(s.cfg.PoolSecret, marketID)
}

// CreateMarketRequest carries the market creation parameters.
type CreateMarketRequest struct {
	Creator    string
	StartSlot  *uint64
	EndingSlot *uint64
}

// CreateMarket opens a new binary market: both outcome mints are created,
// the full token supply is minted to the pool, and mint authority is revoked
// so the supply is fixed forever.
func (s *MarketService) CreateMarket(ctx context.Context, req CreateMarketRequest) (domain.Market, error) {
	params, err := s.platform.Get(ctx)
	if err != nil {
		return domain.Market{}, fmt.Errorf("market_service: load platform params: %w", err)
	}
	if req.Creator == "" {
		return domain.Market{}, fmt.Errorf("market_service: creator is required: %w", domain.ErrInvalidParameter)
	}
	if !params.MayCreateMarkets(req.Creator) {
		return domain.Market{}, fmt.Errorf("market_service: creator %s: %w", req.Creator, domain.ErrNotWhitelisted)
	}

	slot := s.clock.CurrentSlot()
	if req.StartSlot != nil {
		if *req.StartSlot < slot {
			return domain.Market{}, fmt.Errorf("market_service: start slot %d before current %d: %w",
				*req.StartSlot, slot, domain.ErrInvalidStartSlot)
		}
		if *req.StartSlot > slot+s.cfg.MaxStartSlotDelay {
			return domain.Market{}, fmt.Errorf("market_service: start slot %d too far ahead: %w",
				*req.StartSlot, domain.ErrInvalidStartSlot)
		}
	}
	if req.EndingSlot != nil {
		if *req.EndingSlot <= slot {
			return domain.Market{}, fmt.Errorf("market_service: ending slot %d not in the future: %w",
				*req.EndingSlot, domain.ErrInvalidEndSlot)
		}
		if req.StartSlot != nil && *req.EndingSlot <= *req.StartSlot {
			return domain.Market{}, fmt.Errorf("market_service: ending slot %d not after start %d: %w",
				*req.EndingSlot, *req.StartSlot, domain.ErrInvalidEndSlot)
		}
	}

	id := uuid.NewString()
	pool := PoolAccount(id)

	yesMint, err := s.minter.CreateMint(ctx, params.TokenDecimals)
	if err != nil {
		return domain.Market{}, fmt.Errorf("market_service: create yes mint: %w", err)
	}
	noMint, err := s.minter.CreateMint(ctx, params.TokenDecimals)
	if err != nil {
		return domain.Market{}, fmt.Errorf("market_service: create no mint: %w", err)
	}
	for _, mint := range []string{yesMint, noMint} {
		if err := s.minter.MintTo(ctx, mint, pool, params.TokenTotalSupply); err != nil {
			return domain.Market{}, fmt.Errorf("market_service: mint supply: %w", err)
		}
		if err := s.minter.RevokeMintAuthority(ctx, mint); err != nil {
			return domain.Market{}, fmt.Errorf("market_service: revoke mint authority: %w", err)
		}
	}

	reg, ok := s.vault.(poolRegistrar)
	if !ok {
		return domain.Market{}, fmt.Errorf("market_service: vault cannot register pools: %w", domain.ErrInvalidParameter)
	}
	if err := reg.RegisterPool(pool, s.poolProof(id)); err != nil {
		return domain.Market{}, fmt.Errorf("market_service: register pool: %w", err)
	}

	now := time.Now().UTC()
	reserve := domain.OutcomeReserve{
		InitialTokenReserves: params.InitialRealTokenReserves,
		RealTokenReserves:    params.InitialRealTokenReserves,
		TokenTotalSupply:     params.TokenTotalSupply,
	}
	market := domain.Market{
		ID:                 id,
		Creator:            req.Creator,
		YesMint:            yesMint,
		NoMint:             noMint,
		VirtualSolReserves: params.VirtualSolReserves,
		Yes:                reserve,
		No:                 reserve,
		StartSlot:          req.StartSlot,
		EndingSlot:         req.EndingSlot,
		CreatedAt:          now,
		UpdatedAt:          now,
	}

	if err := s.markets.Create(ctx, market); err != nil {
		return domain.Market{}, fmt.Errorf("market_service: create market: %w", err)
	}
	s.cacheSet(ctx, market)

	evt := domain.MarketCreatedEvent{
		Type:             "market_created",
		MarketID:         id,
		Creator:          req.Creator,
		YesMint:          yesMint,
		NoMint:           noMint,
		TokenTotalSupply: params.TokenTotalSupply,
		Timestamp:        domain.EventTimestamp(now),
	}
	if req.StartSlot != nil {
		evt.StartSlot = *req.StartSlot
	}
	if req.EndingSlot != nil {
		evt.EndingSlot = *req.EndingSlot
	}
	s.publish(ctx, domain.ChannelMarkets, evt)
	s.auditLog(ctx, "market_created", map[string]any{
		"market_id": id,
		"creator":   req.Creator,
		"yes_mint":  yesMint,
		"no_mint":   noMint,
	})

	s.logger.InfoContext(ctx, "market_service: market created",
		slog.String("market_id", id),
		slog.String("creator", req.Creator),
	)
	return market, nil
}

// poolRegistrar is the extra capability the market service needs from its
// vault beyond domain.CollateralVault.
type poolRegistrar interface {
	RegisterPool(account, proof string) error
}

// SwapRequest carries the parameters of one swap.
type SwapRequest struct {
	MarketID  string
	User      string
	Outcome   domain.Outcome
	Direction domain.Direction
	// Amount is lamports for buys and outcome tokens for sells.
	Amount uint64
	// MinReceive bounds slippage: tokens out for buys, net lamports out for
	// sells. The swap fails rather than fill below it.
	MinReceive uint64
}

// SwapResult reports a committed swap.
type SwapResult struct {
	Trade  domain.Trade
	Market domain.Market
}

// Swap executes a buy or sell against one side of a market. All validation
// and curve math happens before any state changes; the collateral batch and
// the store writes only run once the full result is known.
func (s *MarketService) Swap(ctx context.Context, req SwapRequest) (SwapResult, error) {
	if req.User == "" {
		return SwapResult{}, fmt.Errorf("market_service: user is required: %w", domain.ErrInvalidParameter)
	}
	if !req.Outcome.Valid() {
		return SwapResult{}, fmt.Errorf("market_service: %w", domain.ErrInvalidOutcome)
	}
	params, err := s.platform.Get(ctx)
	if err != nil {
		return SwapResult{}, fmt.Errorf("market_service: load platform params: %w", err)
	}

	unlock, err := s.locks.Acquire(ctx, "market:"+req.MarketID, s.cfg.LockTTL)
	if err != nil {
		return SwapResult{}, fmt.Errorf("market_service: lock market %s: %w", req.MarketID, err)
	}
	defer unlock()

	market, err := s.markets.GetByID(ctx, req.MarketID)
	if err != nil {
		return SwapResult{}, fmt.Errorf("market_service: get market %s: %w", req.MarketID, err)
	}

	slot := s.clock.CurrentSlot()
	if err := tradingGate(&market, slot); err != nil {
		return SwapResult{}, fmt.Errorf("market_service: %w", err)
	}

	// Positions are initialized lazily on first touch.
	user, err := s.users.Get(ctx, req.MarketID, req.User)
	if errors.Is(err, domain.ErrNotFound) {
		user = domain.NewUserInfo(req.MarketID, req.User)
	} else if err != nil {
		return SwapResult{}, fmt.Errorf("market_service: get user info: %w", err)
	}

	reserve := market.Reserve(req.Outcome)
	pool := PoolAccount(req.MarketID)

	var (
		quote engine.Quote
		fees  engine.FeeBreakdown
		moves []domain.Movement
		proof string
	)
	switch req.Direction {
	case domain.DirectionBuy:
		platformBps, lpBps := params.BuyFees()
		fees, err = engine.SplitFee(req.Amount, platformBps, lpBps)
		if err != nil {
			return SwapResult{}, fmt.Errorf("market_service: buy fees: %w", err)
		}
		quote, err = engine.QuoteBuy(*reserve, market.VirtualSolReserves, fees.Net)
		if err != nil {
			return SwapResult{}, fmt.Errorf("market_service: %w", err)
		}
		if quote.TokenAmount < req.MinReceive {
			return SwapResult{}, fmt.Errorf("market_service: %d tokens below minimum %d: %w",
				quote.TokenAmount, req.MinReceive, domain.ErrReturnAmountTooSmall)
		}
		moves = []domain.Movement{
			{From: req.User, To: pool, Lamports: fees.Net},
		}
		if fees.Total() > 0 {
			moves = append(moves, domain.Movement{From: req.User, To: TeamWalletAccount, Lamports: fees.Total()})
		}

	case domain.DirectionSell:
		if user.Balance(req.Outcome) < req.Amount {
			return SwapResult{}, fmt.Errorf("market_service: balance %d below sell amount %d: %w",
				user.Balance(req.Outcome), req.Amount, domain.ErrInsufficientTokens)
		}
		quote, err = engine.QuoteSell(*reserve, market.VirtualSolReserves, req.Amount)
		if err != nil {
			return SwapResult{}, fmt.Errorf("market_service: %w", err)
		}
		platformBps, lpBps := params.SellFees()
		fees, err = engine.SplitFee(quote.SolAmount, platformBps, lpBps)
		if err != nil {
			return SwapResult{}, fmt.Errorf("market_service: sell fees: %w", err)
		}
		if fees.Net < req.MinReceive {
			return SwapResult{}, fmt.Errorf("market_service: %d lamports below minimum %d: %w",
				fees.Net, req.MinReceive, domain.ErrReturnAmountTooSmall)
		}
		proof = s.poolProof(req.MarketID)
		moves = []domain.Movement{
			{From: pool, To: req.User, Lamports: fees.Net},
		}
		if fees.Total() > 0 {
			moves = append(moves, domain.Movement{From: pool, To: TeamWalletAccount, Lamports: fees.Total()})
		}

	default:
		return SwapResult{}, fmt.Errorf("market_service: unknown direction: %w", domain.ErrInvalidParameter)
	}

	// Commit point. The vault batch is atomic; everything after it must be
	// driven to completion.
	if err := s.vault.Apply(ctx, proof, moves...); err != nil {
		return SwapResult{}, fmt.Errorf("market_service: apply collateral batch: %w", err)
	}

	reserve.RealSolReserves = quote.NewRealSolReserves
	reserve.RealTokenReserves = quote.NewRealTokenReserves
	if req.Direction == domain.DirectionBuy {
		if err := engine.Credit(&user, req.Outcome, quote.TokenAmount); err != nil {
			return SwapResult{}, fmt.Errorf("market_service: credit position: %w", err)
		}
	} else {
		if err := engine.Debit(&user, req.Outcome, req.Amount); err != nil {
			return SwapResult{}, fmt.Errorf("market_service: debit position: %w", err)
		}
	}

	now := time.Now().UTC()
	market.UpdatedAt = now
	user.UpdatedAt = now

	grossSol := req.Amount
	if req.Direction == domain.DirectionSell {
		grossSol = quote.SolAmount
	}
	trade := domain.Trade{
		ID:          uuid.NewString(),
		MarketID:    req.MarketID,
		User:        req.User,
		Outcome:     req.Outcome,
		Direction:   req.Direction,
		SolAmount:   grossSol,
		TokenAmount: quote.TokenAmount,
		FeeLamports: fees.Total(),
		Slot:        slot,
		CreatedAt:   now,
	}

	if err := s.markets.Update(ctx, market); err != nil {
		return SwapResult{}, fmt.Errorf("market_service: update market %s: %w", req.MarketID, err)
	}
	if err := s.users.Upsert(ctx, user); err != nil {
		return SwapResult{}, fmt.Errorf("market_service: upsert user info: %w", err)
	}
	if err := s.trades.Insert(ctx, trade); err != nil {
		s.logger.WarnContext(ctx, "market_service: record trade failed",
			slog.String("trade_id", trade.ID),
			slog.String("error", err.Error()),
		)
	}
	s.cacheSet(ctx, market)

	s.publish(ctx, domain.ChannelTrades, domain.TradeEvent{
		Type:              "trade",
		MarketID:          req.MarketID,
		User:              req.User,
		Outcome:           req.Outcome.String(),
		IsBuy:             req.Direction == domain.DirectionBuy,
		SolAmount:         grossSol,
		TokenAmount:       quote.TokenAmount,
		FeeLamports:       fees.Total(),
		RealSolReserves:   reserve.RealSolReserves,
		RealTokenReserves: reserve.RealTokenReserves,
		Timestamp:         domain.EventTimestamp(now),
	})
	s.auditLog(ctx, "trade", map[string]any{
		"trade_id":  trade.ID,
		"market_id": req.MarketID,
		"user":      req.User,
		"outcome":   req.Outcome.String(),
		"direction": req.Direction.String(),
		"sol":       grossSol,
		"tokens":    quote.TokenAmount,
		"fees":      fees.Total(),
	})

	s.logger.InfoContext(ctx, "market_service: swap committed",
		slog.String("market_id", req.MarketID),
		slog.String("user", req.User),
		slog.String("outcome", req.Outcome.String()),
		slog.String("direction", req.Direction.String()),
		slog.Uint64("sol", grossSol),
		slog.Uint64("tokens", quote.TokenAmount),
	)
	return SwapResult{Trade: trade, Market: market}, nil
}

// tradingGate maps the market lifecycle state at slot to the error the swap
// path must surface. Check order matters: completion trumps window checks.
func tradingGate(m *domain.Market, slot uint64) error {
	if m.IsCompleted {
		return domain.ErrMarketCompleted
	}
	if m.StartSlot != nil && slot < *m.StartSlot {
		return domain.ErrTradingNotStarted
	}
	if m.EndingSlot != nil && slot > *m.EndingSlot {
		return domain.ErrTradingEnded
	}
	return nil
}

// AddLiquidity deposits collateral into both sides of a market's curve.
func (s *MarketService) AddLiquidity(ctx context.Context, marketID, provider string, sol uint64) (domain.Market, error) {
	params, err := s.platform.Get(ctx)
	if err != nil {
		return domain.Market{}, fmt.Errorf("market_service: load platform params: %w", err)
	}
	if provider == "" {
		return domain.Market{}, fmt.Errorf("market_service: provider is required: %w", domain.ErrInvalidParameter)
	}

	unlock, err := s.locks.Acquire(ctx, "market:"+marketID, s.cfg.LockTTL)
	if err != nil {
		return domain.Market{}, fmt.Errorf("market_service: lock market %s: %w", marketID, err)
	}
	defer unlock()

	market, err := s.markets.GetByID(ctx, marketID)
	if err != nil {
		return domain.Market{}, fmt.Errorf("market_service: get market %s: %w", marketID, err)
	}
	if market.IsCompleted {
		return domain.Market{}, fmt.Errorf("market_service: %w", domain.ErrMarketCompleted)
	}

	if err := engine.AddLiquidity(&market, provider, sol, params.MinSolLiquidity); err != nil {
		return domain.Market{}, fmt.Errorf("market_service: %w", err)
	}

	if err := s.vault.Apply(ctx, "", domain.Movement{
		From: provider, To: PoolAccount(marketID), Lamports: sol,
	}); err != nil {
		return domain.Market{}, fmt.Errorf("market_service: apply collateral batch: %w", err)
	}

	now := time.Now().UTC()
	market.UpdatedAt = now
	if err := s.markets.Update(ctx, market); err != nil {
		return domain.Market{}, fmt.Errorf("market_service: update market %s: %w", marketID, err)
	}
	s.markLP(ctx, marketID, provider, true)
	s.cacheSet(ctx, market)

	s.publish(ctx, domain.ChannelLiquidity, domain.LiquidityEvent{
		Type:          "liquidity_added",
		MarketID:      marketID,
		Provider:      provider,
		SolAmount:     sol,
		TotalLpAmount: market.TotalLpAmount,
		Timestamp:     domain.EventTimestamp(now),
	})
	s.auditLog(ctx, "liquidity_added", map[string]any{
		"market_id": marketID,
		"provider":  provider,
		"sol":       sol,
	})

	s.logger.InfoContext(ctx, "market_service: liquidity added",
		slog.String("market_id", marketID),
		slog.String("provider", provider),
		slog.Uint64("sol", sol),
	)
	return market, nil
}

// WithdrawLiquidity returns part of a provider's principal from the curve.
// Only open markets can be withdrawn from; once a market resolves the
// remaining collateral belongs to the winning side.
func (s *MarketService) WithdrawLiquidity(ctx context.Context, marketID, provider string, sol uint64) (domain.Market, error) {
	unlock, err := s.locks.Acquire(ctx, "market:"+marketID, s.cfg.LockTTL)
	if err != nil {
		return domain.Market{}, fmt.Errorf("market_service: lock market %s: %w", marketID, err)
	}
	defer unlock()

	market, err := s.markets.GetByID(ctx, marketID)
	if err != nil {
		return domain.Market{}, fmt.Errorf("market_service: get market %s: %w", marketID, err)
	}
	if market.IsCompleted {
		return domain.Market{}, fmt.Errorf("market_service: %w", domain.ErrMarketCompleted)
	}

	if err := engine.WithdrawLiquidity(&market, provider, sol); err != nil {
		return domain.Market{}, fmt.Errorf("market_service: %w", err)
	}

	if err := s.vault.Apply(ctx, s.poolProof(marketID), domain.Movement{
		From: PoolAccount(marketID), To: provider, Lamports: sol,
	}); err != nil {
		return domain.Market{}, fmt.Errorf("market_service: apply collateral batch: %w", err)
	}

	now := time.Now().UTC()
	market.UpdatedAt = now
	if err := s.markets.Update(ctx, market); err != nil {
		return domain.Market{}, fmt.Errorf("market_service: update market %s: %w", marketID, err)
	}
	if market.LpIndex(provider) < 0 {
		s.markLP(ctx, marketID, provider, false)
	}
	s.cacheSet(ctx, market)

	s.publish(ctx, domain.ChannelLiquidity, domain.LiquidityEvent{
		Type:          "liquidity_withdrawn",
		MarketID:      marketID,
		Provider:      provider,
		SolAmount:     sol,
		Withdraw:      true,
		TotalLpAmount: market.TotalLpAmount,
		Timestamp:     domain.EventTimestamp(now),
	})
	s.auditLog(ctx, "liquidity_withdrawn", map[string]any{
		"market_id": marketID,
		"provider":  provider,
		"sol":       sol,
	})

	s.logger.InfoContext(ctx, "market_service: liquidity withdrawn",
		slog.String("market_id", marketID),
		slog.String("provider", provider),
		slog.Uint64("sol", sol),
	)
	return market, nil
}

// GetMarket returns a market, serving from cache when possible.
func (s *MarketService) GetMarket(ctx context.Context, id string) (domain.Market, error) {
	if m, err := s.cache.Get(ctx, id); err == nil {
		return m, nil
	}
	m, err := s.markets.GetByID(ctx, id)
	if err != nil {
		return domain.Market{}, fmt.Errorf("market_service: get market %s: %w", id, err)
	}
	s.cacheSet(ctx, m)
	return m, nil
}

// ListOpenMarkets returns open markets, newest first.
func (s *MarketService) ListOpenMarkets(ctx context.Context, opts domain.ListOpts) ([]domain.Market, error) {
	markets, err := s.markets.ListOpen(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("market_service: list open markets: %w", err)
	}
	return markets, nil
}

// ListTrades returns a market's trade history.
func (s *MarketService) ListTrades(ctx context.Context, marketID string, opts domain.ListOpts) ([]domain.Trade, error) {
	trades, err := s.trades.ListByMarket(ctx, marketID, opts)
	if err != nil {
		return nil, fmt.Errorf("market_service: list trades for %s: %w", marketID, err)
	}
	return trades, nil
}

// ListUserTrades returns a user's trade history across markets.
func (s *MarketService) ListUserTrades(ctx context.Context, user string, opts domain.ListOpts) ([]domain.Trade, error) {
	trades, err := s.trades.ListByUser(ctx, user, opts)
	if err != nil {
		return nil, fmt.Errorf("market_service: list trades for user %s: %w", user, err)
	}
	return trades, nil
}

// GetPosition returns a user's position in a market. Unknown users get a
// zero-balance record rather than an error.
func (s *MarketService) GetPosition(ctx context.Context, marketID, user string) (domain.UserInfo, error) {
	info, err := s.users.Get(ctx, marketID, user)
	if errors.Is(err, domain.ErrNotFound) {
		return domain.NewUserInfo(marketID, user), nil
	}
	if err != nil {
		return domain.UserInfo{}, fmt.Errorf("market_service: get position %s/%s: %w", marketID, user, err)
	}
	return info, nil
}

// markLP flips the is_lp flag on the provider's position record.
func (s *MarketService) markLP(ctx context.Context, marketID, provider string, isLP bool) {
	info, err := s.users.Get(ctx, marketID, provider)
	if errors.Is(err, domain.ErrNotFound) {
		info = domain.NewUserInfo(marketID, provider)
	} else if err != nil {
		s.logger.WarnContext(ctx, "market_service: load lp position failed",
			slog.String("market_id", marketID),
			slog.String("provider", provider),
			slog.String("error", err.Error()),
		)
		return
	}
	info.IsLP = isLP
	info.UpdatedAt = time.Now().UTC()
	if err := s.users.Upsert(ctx, info); err != nil {
		s.logger.WarnContext(ctx, "market_service: mark lp failed",
			slog.String("market_id", marketID),
			slog.String("provider", provider),
			slog.String("error", err.Error()),
		)
	}
}

func (s *MarketService) cacheSet(ctx context.Context, m domain.Market) {
	if err := s.cache.Set(ctx, m); err != nil {
		s.logger.WarnContext(ctx, "market_service: cache set failed",
			slog.String("market_id", m.ID),
			slog.String("error", err.Error()),
		)
	}
}

func (s *MarketService) publish(ctx context.Context, channel string, event any) {
	payload, err := json.Marshal(event)
	if err != nil {
		s.logger.WarnContext(ctx, "market_service: marshal event failed",
			slog.String("channel", channel),
			slog.String("error", err.Error()),
		)
		return
	}
	if err := s.bus.Publish(ctx, channel, payload); err != nil {
		s.logger.WarnContext(ctx, "market_service: publish event failed",
			slog.String("channel", channel),
			slog.String("error", err.Error()),
		)
	}
}

func (s *MarketService) auditLog(ctx context.Context, event string, detail map[string]any) {
	if err := s.audit.Log(ctx, event, detail); err != nil {
		s.logger.WarnContext(ctx, "market_service: audit log failed",
			slog.String("event", event),
			slog.String("error", err.Error()),
		)
	}
}
