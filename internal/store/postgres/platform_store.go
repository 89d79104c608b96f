package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/outcomefi/marketd/internal/domain"
)

// PlatformStore implements domain.PlatformStore using PostgreSQL. The table
// holds at most one row.
type PlatformStore struct {
	pool *pgxpool.Pool
}

// NewPlatformStore creates a new PlatformStore backed by the given connection
// pool.
func NewPlatformStore(pool *pgxpool.Pool) *PlatformStore {
	return &PlatformStore{pool: pool}
}

// Get returns the platform parameter record. ErrNotInitialized is returned
// before the first Save.
func (s *PlatformStore) Get(ctx context.Context) (domain.PlatformParams, error) {
	const query = `
		SELECT authority, pending_authority, team_wallet,
		       platform_buy_fee_bps, platform_sell_fee_bps,
		       lp_buy_fee_bps, lp_sell_fee_bps,
		       token_total_supply, token_decimals, initial_real_token_reserves,
		       virtual_sol_reserves, min_sol_liquidity,
		       whitelist_enabled, creator_whitelist, updated_at
		FROM platform_params WHERE singleton`

	var p domain.PlatformParams
	var decimals int16
	err := s.pool.QueryRow(ctx, query).Scan(
		&p.Authority, &p.PendingAuthority, &p.TeamWallet,
		&p.PlatformBuyFeeBps, &p.PlatformSellFeeBps,
		&p.LpBuyFeeBps, &p.LpSellFeeBps,
		&p.TokenTotalSupply, &decimals, &p.InitialRealTokenReserves,
		&p.VirtualSolReserves, &p.MinSolLiquidity,
		&p.WhitelistEnabled, &p.CreatorWhitelist, &p.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.PlatformParams{}, domain.ErrNotInitialized
	}
	if err != nil {
		return domain.PlatformParams{}, fmt.Errorf("postgres: get platform params: %w", err)
	}
	p.TokenDecimals = uint8(decimals)
	p.Initialized = true
	return p, nil
}

// Save writes the platform parameter record, creating it on first use.
func (s *PlatformStore) Save(ctx context.Context, p domain.PlatformParams) error {
	const query = `
		INSERT INTO platform_params (
			singleton, authority, pending_authority, team_wallet,
			platform_buy_fee_bps, platform_sell_fee_bps,
			lp_buy_fee_bps, lp_sell_fee_bps,
			token_total_supply, token_decimals, initial_real_token_reserves,
			virtual_sol_reserves, min_sol_liquidity,
			whitelist_enabled, creator_whitelist, updated_at
		) VALUES (TRUE, $1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, NOW())
		ON CONFLICT (singleton) DO UPDATE SET
			authority                   = EXCLUDED.authority,
			pending_authority           = EXCLUDED.pending_authority,
			team_wallet                 = EXCLUDED.team_wallet,
			platform_buy_fee_bps        = EXCLUDED.platform_buy_fee_bps,
			platform_sell_fee_bps       = EXCLUDED.platform_sell_fee_bps,
			lp_buy_fee_bps              = EXCLUDED.lp_buy_fee_bps,
			lp_sell_fee_bps             = EXCLUDED.lp_sell_fee_bps,
			token_total_supply          = EXCLUDED.token_total_supply,
			token_decimals              = EXCLUDED.token_decimals,
			initial_real_token_reserves = EXCLUDED.initial_real_token_reserves,
			virtual_sol_reserves        = EXCLUDED.virtual_sol_reserves,
			min_sol_liquidity           = EXCLUDED.min_sol_liquidity,
			whitelist_enabled           = EXCLUDED.whitelist_enabled,
			creator_whitelist           = EXCLUDED.creator_whitelist,
			updated_at                  = NOW()`

	whitelist := p.CreatorWhitelist
	if whitelist == nil {
		whitelist = []string{}
	}
	_, err := s.pool.Exec(ctx, query,
		p.Authority, p.PendingAuthority, p.TeamWallet,
		p.PlatformBuyFeeBps, p.PlatformSellFeeBps,
		p.LpBuyFeeBps, p.LpSellFeeBps,
		p.TokenTotalSupply, int16(p.TokenDecimals), p.InitialRealTokenReserves,
		p.VirtualSolReserves, p.MinSolLiquidity,
		p.WhitelistEnabled, whitelist,
	)
	if err != nil {
		return fmt.Errorf("postgres: save platform params: %w", err)
	}
	return nil
}
