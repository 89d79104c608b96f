package vault

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/outcomefi/marketd/internal/domain"
)

func TestMemory_DepositAndBalance(t *testing.T) {
	ctx := context.Background()
	v := NewMemory()

	require.NoError(t, v.Deposit("alice", 1_000))
	require.NoError(t, v.Deposit("alice", 500))

	b, err := v.Balance(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, uint64(1_500), b)

	b, err = v.Balance(ctx, "nobody")
	require.NoError(t, err)
	assert.Equal(t, uint64(0), b)
}

func TestMemory_ApplyBatch(t *testing.T) {
	ctx := context.Background()
	v := NewMemory()
	require.NoError(t, v.Deposit("alice", 1_000))

	err := v.Apply(ctx, "",
		domain.Movement{From: "alice", To: "pool", Lamports: 700},
		domain.Movement{From: "alice", To: "team", Lamports: 300},
	)
	require.NoError(t, err)

	for acct, want := range map[string]uint64{"alice": 0, "pool": 700, "team": 300} {
		b, err := v.Balance(ctx, acct)
		require.NoError(t, err)
		assert.Equal(t, want, b, acct)
	}
}

func TestMemory_ApplyAllOrNothing(t *testing.T) {
	ctx := context.Background()
	v := NewMemory()
	require.NoError(t, v.Deposit("alice", 1_000))

	// Second movement overdraws alice after the first one already spent 900.
	err := v.Apply(ctx, "",
		domain.Movement{From: "alice", To: "pool", Lamports: 900},
		domain.Movement{From: "alice", To: "team", Lamports: 200},
	)
	assert.ErrorIs(t, err, domain.ErrInsufficientSol)

	b, err := v.Balance(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, uint64(1_000), b, "failed batch must leave balances untouched")
	b, err = v.Balance(ctx, "pool")
	require.NoError(t, err)
	assert.Equal(t, uint64(0), b)
}

func TestMemory_BatchSpendsIncomingFunds(t *testing.T) {
	ctx := context.Background()
	v := NewMemory()
	require.NoError(t, v.Deposit("alice", 100))

	// The second movement relies on the credit from the first.
	err := v.Apply(ctx, "",
		domain.Movement{From: "alice", To: "bob", Lamports: 100},
		domain.Movement{From: "bob", To: "carol", Lamports: 100},
	)
	require.NoError(t, err)

	b, err := v.Balance(ctx, "carol")
	require.NoError(t, err)
	assert.Equal(t, uint64(100), b)
}

func TestMemory_PoolRequiresProof(t *testing.T) {
	ctx := context.Background()
	v := NewMemory()
	require.NoError(t, v.RegisterPool("pool:mkt-1", "secret-proof"))
	require.NoError(t, v.Deposit("alice", 1_000))
	require.NoError(t, v.Apply(ctx, "", domain.Movement{From: "alice", To: "pool:mkt-1", Lamports: 1_000}))

	err := v.Apply(ctx, "wrong", domain.Movement{From: "pool:mkt-1", To: "alice", Lamports: 100})
	assert.ErrorIs(t, err, domain.ErrIncorrectAuthority)

	err = v.Apply(ctx, "secret-proof", domain.Movement{From: "pool:mkt-1", To: "alice", Lamports: 100})
	require.NoError(t, err)
}

func TestMemory_PoolRegistration(t *testing.T) {
	v := NewMemory()
	require.NoError(t, v.RegisterPool("pool:mkt-1", "p"))
	assert.ErrorIs(t, v.RegisterPool("pool:mkt-1", "q"), domain.ErrAlreadyExists)
	assert.ErrorIs(t, v.RegisterPool("", "p"), domain.ErrInvalidParameter)
	assert.ErrorIs(t, v.Deposit("pool:mkt-1", 10), domain.ErrInvalidParameter)
}

func TestMemory_InvalidMovements(t *testing.T) {
	ctx := context.Background()
	v := NewMemory()
	require.NoError(t, v.Deposit("alice", 100))

	err := v.Apply(ctx, "", domain.Movement{From: "alice", To: "alice", Lamports: 10})
	assert.ErrorIs(t, err, domain.ErrInvalidParameter)

	err = v.Apply(ctx, "", domain.Movement{From: "", To: "bob", Lamports: 10})
	assert.ErrorIs(t, err, domain.ErrInvalidParameter)
}

func TestMinter_Lifecycle(t *testing.T) {
	ctx := context.Background()
	m := NewMinter()

	addr, err := m.CreateMint(ctx, 6)
	require.NoError(t, err)
	require.NotEmpty(t, addr)

	require.NoError(t, m.MintTo(ctx, addr, "pool", 1_000_000))
	assert.Equal(t, uint64(1_000_000), m.Supply(addr, "pool"))

	require.NoError(t, m.RevokeMintAuthority(ctx, addr))
	err = m.MintTo(ctx, addr, "pool", 1)
	assert.ErrorIs(t, err, domain.ErrIncorrectAuthority)
}

func TestMinter_Validation(t *testing.T) {
	ctx := context.Background()
	m := NewMinter()

	_, err := m.CreateMint(ctx, 10)
	assert.ErrorIs(t, err, domain.ErrInvalidParameter)

	assert.ErrorIs(t, m.MintTo(ctx, "missing", "pool", 1), domain.ErrNotFound)
	assert.ErrorIs(t, m.RevokeMintAuthority(ctx, "missing"), domain.ErrNotFound)
}
