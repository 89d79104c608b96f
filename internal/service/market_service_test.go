package service

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/outcomefi/marketd/internal/clock"
	"github.com/outcomefi/marketd/internal/domain"
	"github.com/outcomefi/marketd/internal/vault"
)

type testEnv struct {
	markets  *fakeMarketStore
	users    *fakeUserStore
	trades   *fakeTradeStore
	platform *fakePlatformStore
	cache    *fakeCache
	locks    *fakeLocks
	bus      *fakeBus
	audit    *fakeAuditStore
	vault    *vault.Memory
	minter   *vault.Minter
	clock    *clock.Manual

	market     *MarketService
	resolution *ResolutionService
	plat       *PlatformService
}

const testPoolSecret = "test-pool-secret"

func testParams() domain.PlatformParams {
	return domain.PlatformParams{
		Authority:                "admin",
		TeamWallet:               TeamWalletAccount,
		TokenTotalSupply:         1_000_000,
		TokenDecimals:            6,
		InitialRealTokenReserves: 1_000_000,
		VirtualSolReserves:       1_000_000,
		MinSolLiquidity:          1_000,
		Initialized:              true,
	}
}

func newTestEnv(t *testing.T, params domain.PlatformParams) *testEnv {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	env := &testEnv{
		markets:  newFakeMarketStore(),
		users:    newFakeUserStore(),
		trades:   &fakeTradeStore{},
		platform: &fakePlatformStore{params: &params},
		cache:    newFakeCache(),
		locks:    newFakeLocks(),
		bus:      &fakeBus{},
		audit:    &fakeAuditStore{},
		vault:    vault.NewMemory(),
		minter:   vault.NewMinter(),
		clock:    clock.NewManual(50),
	}
	cfg := MarketServiceConfig{
		LockTTL:           10 * time.Second,
		MaxStartSlotDelay: 1_000_000,
		PoolSecret:        testPoolSecret,
	}
	env.market = NewMarketService(
		env.markets, env.users, env.trades, env.platform,
		env.cache, env.locks, env.bus, env.audit,
		env.vault, env.minter, env.clock, logger, cfg,
	)
	env.resolution = NewResolutionService(
		env.markets, env.users, env.platform,
		env.cache, env.locks, env.bus, env.audit,
		env.vault, env.clock, logger, cfg.LockTTL, testPoolSecret,
	)
	env.plat = NewPlatformService(env.platform, env.audit, logger)
	return env
}

func (e *testEnv) mustCreateMarket(t *testing.T, req CreateMarketRequest) domain.Market {
	t.Helper()
	m, err := e.market.CreateMarket(context.Background(), req)
	require.NoError(t, err)
	return m
}

func (e *testEnv) fund(t *testing.T, account string, lamports uint64) {
	t.Helper()
	require.NoError(t, e.vault.Deposit(account, lamports))
}

func (e *testEnv) balance(t *testing.T, account string) uint64 {
	t.Helper()
	b, err := e.vault.Balance(context.Background(), account)
	require.NoError(t, err)
	return b
}

func slotPtr(s uint64) *uint64 { return &s }

func TestCreateMarket_Basic(t *testing.T) {
	env := newTestEnv(t, testParams())
	m := env.mustCreateMarket(t, CreateMarketRequest{
		Creator:    "alice",
		StartSlot:  slotPtr(60),
		EndingSlot: slotPtr(1_000),
	})

	assert.NotEmpty(t, m.ID)
	assert.NotEmpty(t, m.YesMint)
	assert.NotEmpty(t, m.NoMint)
	assert.NotEqual(t, m.YesMint, m.NoMint)
	assert.Equal(t, uint64(1_000_000), m.Yes.RealTokenReserves)
	assert.Equal(t, uint64(1_000_000), m.No.RealTokenReserves)
	assert.Equal(t, uint64(0), m.Yes.RealSolReserves)
	assert.False(t, m.IsCompleted)

	// The full supply sits in the pool and the mints are frozen.
	pool := PoolAccount(m.ID)
	assert.Equal(t, uint64(1_000_000), env.minter.Supply(m.YesMint, pool))
	err := env.minter.MintTo(context.Background(), m.YesMint, pool, 1)
	assert.ErrorIs(t, err, domain.ErrIncorrectAuthority)

	// Event and audit trail.
	var evt domain.MarketCreatedEvent
	require.True(t, env.bus.lastEvent(domain.ChannelMarkets, &evt))
	assert.Equal(t, m.ID, evt.MarketID)
	assert.Contains(t, env.audit.events(), "market_created")
}

func TestCreateMarket_SlotValidation(t *testing.T) {
	env := newTestEnv(t, testParams()) // clock at slot 50

	_, err := env.market.CreateMarket(context.Background(), CreateMarketRequest{
		Creator: "alice", StartSlot: slotPtr(49),
	})
	assert.ErrorIs(t, err, domain.ErrInvalidStartSlot)

	_, err = env.market.CreateMarket(context.Background(), CreateMarketRequest{
		Creator: "alice", StartSlot: slotPtr(50 + 1_000_001),
	})
	assert.ErrorIs(t, err, domain.ErrInvalidStartSlot)

	_, err = env.market.CreateMarket(context.Background(), CreateMarketRequest{
		Creator: "alice", EndingSlot: slotPtr(50),
	})
	assert.ErrorIs(t, err, domain.ErrInvalidEndSlot)

	_, err = env.market.CreateMarket(context.Background(), CreateMarketRequest{
		Creator: "alice", StartSlot: slotPtr(200), EndingSlot: slotPtr(200),
	})
	assert.ErrorIs(t, err, domain.ErrInvalidEndSlot)
}

func TestCreateMarket_WhitelistGate(t *testing.T) {
	params := testParams()
	params.WhitelistEnabled = true
	params.CreatorWhitelist = []string{"alice"}
	env := newTestEnv(t, params)

	_, err := env.market.CreateMarket(context.Background(), CreateMarketRequest{Creator: "mallory"})
	assert.ErrorIs(t, err, domain.ErrNotWhitelisted)

	_, err = env.market.CreateMarket(context.Background(), CreateMarketRequest{Creator: "alice"})
	require.NoError(t, err)
}

func TestSwap_BuyNoFees(t *testing.T) {
	params := testParams() // zero fee rates
	env := newTestEnv(t, params)
	m := env.mustCreateMarket(t, CreateMarketRequest{Creator: "alice"})
	env.fund(t, "bob", 100_000)

	res, err := env.market.Swap(context.Background(), SwapRequest{
		MarketID:  m.ID,
		User:      "bob",
		Outcome:   domain.OutcomeYes,
		Direction: domain.DirectionBuy,
		Amount:    10_000,
	})
	require.NoError(t, err)

	// k = (1e6 + 0) * 1e6; after: newToken = 1e12 / 1_010_000 = 990_099.
	assert.Equal(t, uint64(9_901), res.Trade.TokenAmount)
	assert.Equal(t, uint64(10_000), res.Market.Yes.RealSolReserves)
	assert.Equal(t, uint64(990_099), res.Market.Yes.RealTokenReserves)
	// NO side untouched.
	assert.Equal(t, uint64(1_000_000), res.Market.No.RealTokenReserves)

	assert.Equal(t, uint64(90_000), env.balance(t, "bob"))
	assert.Equal(t, uint64(10_000), env.balance(t, PoolAccount(m.ID)))

	pos, err := env.market.GetPosition(context.Background(), m.ID, "bob")
	require.NoError(t, err)
	assert.Equal(t, uint64(9_901), pos.YesBalance)

	var evt domain.TradeEvent
	require.True(t, env.bus.lastEvent(domain.ChannelTrades, &evt))
	assert.True(t, evt.IsBuy)
	assert.Equal(t, uint64(10_000), evt.SolAmount)
}

func TestSwap_FeesLeaveCurve(t *testing.T) {
	params := testParams()
	params.PlatformBuyFeeBps = 100 // 1%
	params.LpBuyFeeBps = 50        // 0.5%
	env := newTestEnv(t, params)
	m := env.mustCreateMarket(t, CreateMarketRequest{Creator: "alice"})
	env.fund(t, "bob", 100_000)

	res, err := env.market.Swap(context.Background(), SwapRequest{
		MarketID:  m.ID,
		User:      "bob",
		Outcome:   domain.OutcomeNo,
		Direction: domain.DirectionBuy,
		Amount:    10_000,
	})
	require.NoError(t, err)

	// 150 lamports of fees go to the team wallet; only the net 9850 enters
	// the curve.
	assert.Equal(t, uint64(150), res.Trade.FeeLamports)
	assert.Equal(t, uint64(9_850), res.Market.No.RealSolReserves)
	assert.Equal(t, uint64(150), env.balance(t, TeamWalletAccount))
	assert.Equal(t, uint64(9_850), env.balance(t, PoolAccount(m.ID)))
	assert.Equal(t, uint64(90_000), env.balance(t, "bob"))
}

func TestSwap_SellRoundTrip(t *testing.T) {
	env := newTestEnv(t, testParams())
	m := env.mustCreateMarket(t, CreateMarketRequest{Creator: "alice"})
	env.fund(t, "bob", 100_000)

	buy, err := env.market.Swap(context.Background(), SwapRequest{
		MarketID: m.ID, User: "bob",
		Outcome: domain.OutcomeYes, Direction: domain.DirectionBuy,
		Amount: 10_000,
	})
	require.NoError(t, err)

	sell, err := env.market.Swap(context.Background(), SwapRequest{
		MarketID: m.ID, User: "bob",
		Outcome: domain.OutcomeYes, Direction: domain.DirectionSell,
		Amount: buy.Trade.TokenAmount,
	})
	require.NoError(t, err)

	// Zero fees: selling everything back recovers at most what went in.
	assert.LessOrEqual(t, sell.Trade.SolAmount, uint64(10_000))
	assert.LessOrEqual(t, uint64(100_000)-env.balance(t, "bob"), uint64(1))

	pos, err := env.market.GetPosition(context.Background(), m.ID, "bob")
	require.NoError(t, err)
	assert.Equal(t, uint64(0), pos.YesBalance)
}

func TestSwap_SellWithoutBalance(t *testing.T) {
	env := newTestEnv(t, testParams())
	m := env.mustCreateMarket(t, CreateMarketRequest{Creator: "alice"})

	_, err := env.market.Swap(context.Background(), SwapRequest{
		MarketID: m.ID, User: "bob",
		Outcome: domain.OutcomeYes, Direction: domain.DirectionSell,
		Amount: 100,
	})
	assert.ErrorIs(t, err, domain.ErrInsufficientTokens)
}

func TestSwap_MinReceive(t *testing.T) {
	env := newTestEnv(t, testParams())
	m := env.mustCreateMarket(t, CreateMarketRequest{Creator: "alice"})
	env.fund(t, "bob", 100_000)

	_, err := env.market.Swap(context.Background(), SwapRequest{
		MarketID: m.ID, User: "bob",
		Outcome: domain.OutcomeYes, Direction: domain.DirectionBuy,
		Amount: 10_000, MinReceive: 9_902, // quote fills 9_901
	})
	assert.ErrorIs(t, err, domain.ErrReturnAmountTooSmall)

	// Nothing moved.
	assert.Equal(t, uint64(100_000), env.balance(t, "bob"))
	stored, err := env.markets.GetByID(context.Background(), m.ID)
	require.NoError(t, err)
	assert.Equal(t, uint64(0), stored.Yes.RealSolReserves)
}

func TestSwap_TradingWindow(t *testing.T) {
	env := newTestEnv(t, testParams())
	m := env.mustCreateMarket(t, CreateMarketRequest{
		Creator: "alice", StartSlot: slotPtr(100), EndingSlot: slotPtr(200),
	})
	env.fund(t, "bob", 100_000)
	req := SwapRequest{
		MarketID: m.ID, User: "bob",
		Outcome: domain.OutcomeYes, Direction: domain.DirectionBuy,
		Amount: 1_000,
	}

	// Clock starts at 50, before the window opens.
	_, err := env.market.Swap(context.Background(), req)
	assert.ErrorIs(t, err, domain.ErrTradingNotStarted)

	env.clock.Set(100)
	_, err = env.market.Swap(context.Background(), req)
	require.NoError(t, err)

	// The ending slot itself still trades.
	env.clock.Set(200)
	_, err = env.market.Swap(context.Background(), req)
	require.NoError(t, err)

	env.clock.Set(201)
	_, err = env.market.Swap(context.Background(), req)
	assert.ErrorIs(t, err, domain.ErrTradingEnded)
}

func TestSwap_CompletedMarket(t *testing.T) {
	env := newTestEnv(t, testParams())
	m := env.mustCreateMarket(t, CreateMarketRequest{Creator: "alice"})

	stored := env.markets.markets[m.ID]
	stored.IsCompleted = true
	env.markets.markets[m.ID] = stored

	env.fund(t, "bob", 1_000)
	_, err := env.market.Swap(context.Background(), SwapRequest{
		MarketID: m.ID, User: "bob",
		Outcome: domain.OutcomeYes, Direction: domain.DirectionBuy,
		Amount: 1_000,
	})
	assert.ErrorIs(t, err, domain.ErrMarketCompleted)
}

func TestSwap_LockContention(t *testing.T) {
	env := newTestEnv(t, testParams())
	m := env.mustCreateMarket(t, CreateMarketRequest{Creator: "alice"})
	env.fund(t, "bob", 1_000)

	env.locks.held["market:"+m.ID] = true
	_, err := env.market.Swap(context.Background(), SwapRequest{
		MarketID: m.ID, User: "bob",
		Outcome: domain.OutcomeYes, Direction: domain.DirectionBuy,
		Amount: 1_000,
	})
	assert.ErrorIs(t, err, domain.ErrLockHeld)
}

func TestAddLiquidity_ThroughService(t *testing.T) {
	env := newTestEnv(t, testParams())
	m := env.mustCreateMarket(t, CreateMarketRequest{Creator: "alice"})
	env.fund(t, "carol", 10_000)

	got, err := env.market.AddLiquidity(context.Background(), m.ID, "carol", 2_001)
	require.NoError(t, err)

	assert.Equal(t, uint64(1_001), got.Yes.RealSolReserves)
	assert.Equal(t, uint64(1_000), got.No.RealSolReserves)
	assert.Equal(t, uint64(2_001), got.TotalLpAmount)
	assert.Equal(t, uint64(2_001), env.balance(t, PoolAccount(m.ID)))

	pos, err := env.market.GetPosition(context.Background(), m.ID, "carol")
	require.NoError(t, err)
	assert.True(t, pos.IsLP)

	var evt domain.LiquidityEvent
	require.True(t, env.bus.lastEvent(domain.ChannelLiquidity, &evt))
	assert.Equal(t, "liquidity_added", evt.Type)
}

func TestAddLiquidity_BelowMinimum(t *testing.T) {
	env := newTestEnv(t, testParams())
	m := env.mustCreateMarket(t, CreateMarketRequest{Creator: "alice"})
	env.fund(t, "carol", 10_000)

	_, err := env.market.AddLiquidity(context.Background(), m.ID, "carol", 999)
	assert.ErrorIs(t, err, domain.ErrInvalidAmount)
}

func TestWithdrawLiquidity_ThroughService(t *testing.T) {
	env := newTestEnv(t, testParams())
	m := env.mustCreateMarket(t, CreateMarketRequest{Creator: "alice"})
	env.fund(t, "carol", 10_000)

	_, err := env.market.AddLiquidity(context.Background(), m.ID, "carol", 2_000)
	require.NoError(t, err)

	got, err := env.market.WithdrawLiquidity(context.Background(), m.ID, "carol", 2_000)
	require.NoError(t, err)

	assert.Equal(t, uint64(0), got.TotalLpAmount)
	assert.Empty(t, got.Lps)
	assert.Equal(t, uint64(10_000), env.balance(t, "carol"))
	assert.Equal(t, uint64(0), env.balance(t, PoolAccount(m.ID)))

	pos, err := env.market.GetPosition(context.Background(), m.ID, "carol")
	require.NoError(t, err)
	assert.False(t, pos.IsLP)
}

func TestGetMarket_ServesFromCache(t *testing.T) {
	env := newTestEnv(t, testParams())
	m := env.mustCreateMarket(t, CreateMarketRequest{Creator: "alice"})

	// Remove from the store; the cache copy should still serve reads.
	delete(env.markets.markets, m.ID)

	got, err := env.market.GetMarket(context.Background(), m.ID)
	require.NoError(t, err)
	assert.Equal(t, m.ID, got.ID)
}
