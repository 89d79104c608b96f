// Package vault holds the collateral ledger backing the market engine. The
// in-memory implementation keeps one lamport balance per account and commits
// movement batches atomically, which is what the swap and resolution flows
// build their quote-then-commit protocol on.
package vault

import (
	"context"
	"crypto/subtle"
	"fmt"
	"sync"

	"github.com/outcomefi/marketd/internal/domain"
)

// Memory is an in-memory CollateralVault. Pool accounts are registered with
// an authorization proof; debits from a pool account succeed only when the
// caller presents that proof. All other accounts are user accounts and may
// be debited freely down to zero.
type Memory struct {
	mu       sync.Mutex
	balances map[string]uint64
	pools    map[string]string
}

// NewMemory returns an empty vault.
func NewMemory() *Memory {
	return &Memory{
		balances: make(map[string]uint64),
		pools:    make(map[string]string),
	}
}

// RegisterPool marks account as a pool account guarded by proof.
func (v *Memory) RegisterPool(account, proof string) error {
	if account == "" || proof == "" {
		return fmt.Errorf("vault: pool account and proof are required: %w", domain.ErrInvalidParameter)
	}
	v.mu.Lock()
	defer v.mu.Unlock()
	if _, ok := v.pools[account]; ok {
		return fmt.Errorf("vault: pool %s: %w", account, domain.ErrAlreadyExists)
	}
	v.pools[account] = proof
	return nil
}

// Deposit credits a user account. It is how external collateral enters the
// vault; pool accounts are only funded through Apply.
func (v *Memory) Deposit(account string, lamports uint64) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	if _, ok := v.pools[account]; ok {
		return fmt.Errorf("vault: cannot deposit directly into pool %s: %w", account, domain.ErrInvalidParameter)
	}
	next, ok := addU64(v.balances[account], lamports)
	if !ok {
		return fmt.Errorf("vault: balance overflow for %s: %w", account, domain.ErrArithmetic)
	}
	v.balances[account] = next
	return nil
}

// Apply commits the movements in order, or none of them. Every movement is
// validated against the pre-batch state plus the effect of earlier movements
// in the same batch before anything is written back.
func (v *Memory) Apply(ctx context.Context, proof string, moves ...domain.Movement) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if len(moves) == 0 {
		return nil
	}
	v.mu.Lock()
	defer v.mu.Unlock()

	staged := make(map[string]uint64, len(moves)*2)
	balance := func(acct string) uint64 {
		if b, ok := staged[acct]; ok {
			return b
		}
		return v.balances[acct]
	}
	for _, m := range moves {
		if m.From == "" || m.To == "" || m.From == m.To {
			return fmt.Errorf("vault: movement %q -> %q: %w", m.From, m.To, domain.ErrInvalidParameter)
		}
		if want, isPool := v.pools[m.From]; isPool {
			if subtle.ConstantTimeCompare([]byte(want), []byte(proof)) != 1 {
				return fmt.Errorf("vault: pool %s: %w", m.From, domain.ErrIncorrectAuthority)
			}
		}
		from := balance(m.From)
		if m.Lamports > from {
			return fmt.Errorf("vault: %s holds %d, needs %d: %w", m.From, from, m.Lamports, domain.ErrInsufficientSol)
		}
		to, ok := addU64(balance(m.To), m.Lamports)
		if !ok {
			return fmt.Errorf("vault: balance overflow for %s: %w", m.To, domain.ErrArithmetic)
		}
		staged[m.From] = from - m.Lamports
		staged[m.To] = to
	}
	for acct, b := range staged {
		v.balances[acct] = b
	}
	return nil
}

// Balance returns the current lamport balance of an account. Unknown
// accounts hold zero.
func (v *Memory) Balance(ctx context.Context, account string) (uint64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.balances[account], nil
}

func addU64(a, b uint64) (uint64, bool) {
	s := a + b
	return s, s >= a
}
