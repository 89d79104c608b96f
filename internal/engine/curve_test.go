package engine

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/outcomefi/marketd/internal/domain"
)

func freshReserve() domain.OutcomeReserve {
	return domain.OutcomeReserve{
		InitialTokenReserves: 1_000_000,
		RealTokenReserves:    1_000_000,
		TokenTotalSupply:     1_000_000,
	}
}

func TestQuoteBuy_Basic(t *testing.T) {
	r := freshReserve()
	const virtual = 1_000_000

	q, err := QuoteBuy(r, virtual, 1_000_000)
	require.NoError(t, err)
	// Doubling the effective sol halves the token reserves.
	assert.Equal(t, uint64(500_000), q.TokenAmount)
	assert.Equal(t, uint64(1_000_000), q.NewRealSolReserves)
	assert.Equal(t, uint64(500_000), q.NewRealTokenReserves)
}

func TestQuoteBuy_PreservesInvariant(t *testing.T) {
	r := freshReserve()
	const virtual = 30_000_000_000

	for _, solIn := range []uint64{1, 999, 1_000_000, 123_456_789} {
		q, err := QuoteBuy(r, virtual, solIn)
		require.NoError(t, err)

		before := (virtual + r.RealSolReserves) * r.RealTokenReserves
		after := (virtual + q.NewRealSolReserves) * q.NewRealTokenReserves
		assert.LessOrEqual(t, after, before, "k must not grow on buy of %d", solIn)
		r.RealSolReserves = q.NewRealSolReserves
		r.RealTokenReserves = q.NewRealTokenReserves
	}
}

func TestQuoteBuy_ZeroAmount(t *testing.T) {
	_, err := QuoteBuy(freshReserve(), 1_000_000, 0)
	assert.ErrorIs(t, err, domain.ErrInvalidAmount)
}

func TestQuoteBuy_EmptyTokenReserves(t *testing.T) {
	r := freshReserve()
	r.RealTokenReserves = 0
	_, err := QuoteBuy(r, 1_000_000, 100)
	assert.ErrorIs(t, err, domain.ErrInsufficientTokens)
}

func TestQuoteBuy_ReserveOverflow(t *testing.T) {
	r := freshReserve()
	r.RealSolReserves = math.MaxUint64 - 10
	_, err := QuoteBuy(r, 100, 1)
	assert.ErrorIs(t, err, domain.ErrArithmetic)

	r.RealSolReserves = 0
	_, err = QuoteBuy(r, 100, math.MaxUint64)
	assert.ErrorIs(t, err, domain.ErrArithmetic)
}

func TestQuoteSell_Basic(t *testing.T) {
	r := domain.OutcomeReserve{
		InitialTokenReserves: 1_000_000,
		RealTokenReserves:    500_000,
		RealSolReserves:      1_000_000,
		TokenTotalSupply:     1_000_000,
	}
	const virtual = 1_000_000

	q, err := QuoteSell(r, virtual, 500_000)
	require.NoError(t, err)
	// Exact inverse of the buy in TestQuoteBuy_Basic.
	assert.Equal(t, uint64(1_000_000), q.SolAmount)
	assert.Equal(t, uint64(0), q.NewRealSolReserves)
	assert.Equal(t, uint64(1_000_000), q.NewRealTokenReserves)
}

func TestQuoteSell_ZeroAmount(t *testing.T) {
	_, err := QuoteSell(freshReserve(), 1_000_000, 0)
	assert.ErrorIs(t, err, domain.ErrInvalidAmount)
}

func TestQuoteSell_ExceedsRealSolReserves(t *testing.T) {
	// No real collateral yet: the curve would price the sale against the
	// virtual offset, which is not withdrawable.
	r := freshReserve()
	_, err := QuoteSell(r, 1_000_000, 100_000)
	assert.ErrorIs(t, err, domain.ErrInsufficientSol)
}

func TestBuyThenSell_NeverProfitable(t *testing.T) {
	r := freshReserve()
	const virtual = 30_000_000_000

	for _, solIn := range []uint64{1_000, 777_777, 5_000_000_000} {
		buy, err := QuoteBuy(r, virtual, solIn)
		require.NoError(t, err)

		after := r
		after.RealSolReserves = buy.NewRealSolReserves
		after.RealTokenReserves = buy.NewRealTokenReserves

		sell, err := QuoteSell(after, virtual, buy.TokenAmount)
		require.NoError(t, err)
		assert.LessOrEqual(t, sell.SolAmount, solIn,
			"round trip of %d lamports must not mint collateral", solIn)
	}
}

func TestSpotPrice(t *testing.T) {
	r := domain.OutcomeReserve{RealTokenReserves: 2_000_000_000}
	price, err := SpotPrice(r, 1_000_000_000)
	require.NoError(t, err)
	assert.Equal(t, uint64(500_000_000), price)

	r.RealTokenReserves = 0
	_, err = SpotPrice(r, 1_000_000_000)
	assert.ErrorIs(t, err, domain.ErrInsufficientTokens)
}
