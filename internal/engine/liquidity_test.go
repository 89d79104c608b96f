package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/outcomefi/marketd/internal/domain"
)

func testMarket() *domain.Market {
	return &domain.Market{
		ID:                 "mkt-1",
		VirtualSolReserves: 30_000_000_000,
		Yes:                freshReserve(),
		No:                 freshReserve(),
	}
}

func TestSplitLiquidity(t *testing.T) {
	yes, no := SplitLiquidity(1_000)
	assert.Equal(t, uint64(500), yes)
	assert.Equal(t, uint64(500), no)

	// Odd lamport lands on the YES side.
	yes, no = SplitLiquidity(1_001)
	assert.Equal(t, uint64(501), yes)
	assert.Equal(t, uint64(500), no)
}

func TestAddLiquidity_Basic(t *testing.T) {
	m := testMarket()
	require.NoError(t, AddLiquidity(m, "alice", 1_001, 1_000))

	assert.Equal(t, uint64(501), m.Yes.RealSolReserves)
	assert.Equal(t, uint64(500), m.No.RealSolReserves)
	assert.Equal(t, uint64(1_001), m.TotalLpAmount)
	require.Len(t, m.Lps, 1)
	assert.Equal(t, domain.LpInfo{Provider: "alice", SolAmount: 1_001}, m.Lps[0])
	assert.Equal(t, m.TotalLpAmount, m.LpTotal())
}

func TestAddLiquidity_TopUpMergesRecord(t *testing.T) {
	m := testMarket()
	require.NoError(t, AddLiquidity(m, "alice", 1_000, 1_000))
	require.NoError(t, AddLiquidity(m, "bob", 2_000, 1_000))
	require.NoError(t, AddLiquidity(m, "alice", 500, 1_000))

	require.Len(t, m.Lps, 2)
	assert.Equal(t, uint64(1_500), m.Lps[m.LpIndex("alice")].SolAmount)
	assert.Equal(t, uint64(3_500), m.TotalLpAmount)
	assert.Equal(t, m.TotalLpAmount, m.LpTotal())
}

func TestAddLiquidity_FirstDepositBelowMinimum(t *testing.T) {
	m := testMarket()
	err := AddLiquidity(m, "alice", 999, 1_000)
	assert.ErrorIs(t, err, domain.ErrInvalidAmount)

	// Top-ups after the pool is seeded have no floor.
	require.NoError(t, AddLiquidity(m, "alice", 1_000, 1_000))
	require.NoError(t, AddLiquidity(m, "bob", 1, 1_000))
}

func TestAddLiquidity_ZeroAmount(t *testing.T) {
	err := AddLiquidity(testMarket(), "alice", 0, 0)
	assert.ErrorIs(t, err, domain.ErrInvalidAmount)
}

func TestWithdrawLiquidity_Partial(t *testing.T) {
	m := testMarket()
	require.NoError(t, AddLiquidity(m, "alice", 2_000, 1_000))

	require.NoError(t, WithdrawLiquidity(m, "alice", 501))
	assert.Equal(t, uint64(749), m.Yes.RealSolReserves)
	assert.Equal(t, uint64(750), m.No.RealSolReserves)
	assert.Equal(t, uint64(1_499), m.TotalLpAmount)
	assert.Equal(t, uint64(1_499), m.Lps[0].SolAmount)
}

func TestWithdrawLiquidity_FullRemovesRecord(t *testing.T) {
	m := testMarket()
	require.NoError(t, AddLiquidity(m, "alice", 1_000, 1_000))
	require.NoError(t, AddLiquidity(m, "bob", 1_000, 1_000))

	require.NoError(t, WithdrawLiquidity(m, "alice", 1_000))
	assert.Equal(t, -1, m.LpIndex("alice"))
	require.Len(t, m.Lps, 1)
	assert.Equal(t, uint64(1_000), m.TotalLpAmount)
	assert.Equal(t, m.TotalLpAmount, m.LpTotal())
}

func TestWithdrawLiquidity_NotLP(t *testing.T) {
	m := testMarket()
	require.NoError(t, AddLiquidity(m, "alice", 1_000, 1_000))
	err := WithdrawLiquidity(m, "mallory", 100)
	assert.ErrorIs(t, err, domain.ErrNotLP)
}

func TestWithdrawLiquidity_AmountOutOfRange(t *testing.T) {
	m := testMarket()
	require.NoError(t, AddLiquidity(m, "alice", 1_000, 1_000))

	assert.ErrorIs(t, WithdrawLiquidity(m, "alice", 0), domain.ErrWithdrawAmount)
	assert.ErrorIs(t, WithdrawLiquidity(m, "alice", 1_001), domain.ErrWithdrawAmount)
}

func TestWithdrawLiquidity_ReservesDrainedByTrading(t *testing.T) {
	m := testMarket()
	require.NoError(t, AddLiquidity(m, "alice", 1_000, 1_000))

	// Sellers have pulled collateral off the YES curve since the deposit.
	m.Yes.RealSolReserves = 100
	err := WithdrawLiquidity(m, "alice", 1_000)
	assert.ErrorIs(t, err, domain.ErrInsufficientSol)
	assert.Equal(t, uint64(1_000), m.TotalLpAmount, "failed withdraw must not mutate the market")
}
