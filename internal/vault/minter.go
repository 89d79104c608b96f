package vault

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/outcomefi/marketd/internal/domain"
)

type mint struct {
	decimals uint8
	supply   map[string]uint64
	revoked  bool
}

// Minter is an in-memory TokenMinter. Each mint gets a random address; once
// the mint authority is revoked the supply is frozen forever.
type Minter struct {
	mu    sync.Mutex
	mints map[string]*mint
}

// NewMinter returns an empty mint registry.
func NewMinter() *Minter {
	return &Minter{mints: make(map[string]*mint)}
}

// CreateMint registers a new mint and returns its address.
func (m *Minter) CreateMint(ctx context.Context, decimals uint8) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if decimals > domain.MaxMintDecimals {
		return "", fmt.Errorf("vault: mint decimals %d exceeds %d: %w", decimals, domain.MaxMintDecimals, domain.ErrInvalidParameter)
	}
	addr := "mint-" + uuid.NewString()
	m.mu.Lock()
	defer m.mu.Unlock()
	m.mints[addr] = &mint{decimals: decimals, supply: make(map[string]uint64)}
	return addr, nil
}

// MintTo issues amount tokens of mint to account.
func (m *Minter) MintTo(ctx context.Context, mintAddr, account string, amount uint64) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	mt, ok := m.mints[mintAddr]
	if !ok {
		return fmt.Errorf("vault: mint %s: %w", mintAddr, domain.ErrNotFound)
	}
	if mt.revoked {
		return fmt.Errorf("vault: mint %s authority revoked: %w", mintAddr, domain.ErrIncorrectAuthority)
	}
	next, ok := addU64(mt.supply[account], amount)
	if !ok {
		return fmt.Errorf("vault: supply overflow for %s: %w", account, domain.ErrArithmetic)
	}
	mt.supply[account] = next
	return nil
}

// RevokeMintAuthority permanently disables MintTo for the mint.
func (m *Minter) RevokeMintAuthority(ctx context.Context, mintAddr string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	mt, ok := m.mints[mintAddr]
	if !ok {
		return fmt.Errorf("vault: mint %s: %w", mintAddr, domain.ErrNotFound)
	}
	mt.revoked = true
	return nil
}

// Supply returns the tokens of mint held by account, for diagnostics.
func (m *Minter) Supply(mintAddr, account string) uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	if mt, ok := m.mints[mintAddr]; ok {
		return mt.supply[account]
	}
	return 0
}
