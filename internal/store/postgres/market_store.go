package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/outcomefi/marketd/internal/domain"
)

// MarketStore implements domain.MarketStore using PostgreSQL.
type MarketStore struct {
	pool *pgxpool.Pool
}

// NewMarketStore creates a new MarketStore backed by the given connection pool.
func NewMarketStore(pool *pgxpool.Pool) *MarketStore {
	return &MarketStore{pool: pool}
}

const marketSelectCols = `id, creator, yes_mint, no_mint, virtual_sol_reserves,
	yes_initial_token_reserves, yes_real_token_reserves, yes_real_sol_reserves, yes_token_total_supply,
	no_initial_token_reserves, no_real_token_reserves, no_real_sol_reserves, no_token_total_supply,
	is_completed, winning_outcome, start_slot, ending_slot,
	lps, total_lp_amount, created_at, updated_at`

func scanMarketRow(row pgx.Row) (domain.Market, error) {
	var m domain.Market
	var winning *int16
	var startSlot, endingSlot *int64
	var lps []byte

	err := row.Scan(
		&m.ID, &m.Creator, &m.YesMint, &m.NoMint, &m.VirtualSolReserves,
		&m.Yes.InitialTokenReserves, &m.Yes.RealTokenReserves, &m.Yes.RealSolReserves, &m.Yes.TokenTotalSupply,
		&m.No.InitialTokenReserves, &m.No.RealTokenReserves, &m.No.RealSolReserves, &m.No.TokenTotalSupply,
		&m.IsCompleted, &winning, &startSlot, &endingSlot,
		&lps, &m.TotalLpAmount, &m.CreatedAt, &m.UpdatedAt,
	)
	if err != nil {
		return domain.Market{}, err
	}

	if winning != nil {
		o := domain.Outcome(*winning)
		m.WinningOutcome = &o
	}
	if startSlot != nil {
		s := uint64(*startSlot)
		m.StartSlot = &s
	}
	if endingSlot != nil {
		s := uint64(*endingSlot)
		m.EndingSlot = &s
	}
	if len(lps) > 0 {
		if err := json.Unmarshal(lps, &m.Lps); err != nil {
			return domain.Market{}, fmt.Errorf("postgres: decode lps for %s: %w", m.ID, err)
		}
	}
	return m, nil
}

// marketArgs flattens a market into the insert/update argument list following
// id.
func marketArgs(m domain.Market) ([]any, error) {
	lps, err := json.Marshal(m.Lps)
	if err != nil {
		return nil, fmt.Errorf("postgres: encode lps for %s: %w", m.ID, err)
	}
	if m.Lps == nil {
		lps = []byte("[]")
	}

	var winning *int16
	if m.WinningOutcome != nil {
		w := int16(*m.WinningOutcome)
		winning = &w
	}
	var startSlot, endingSlot *int64
	if m.StartSlot != nil {
		s := int64(*m.StartSlot)
		startSlot = &s
	}
	if m.EndingSlot != nil {
		s := int64(*m.EndingSlot)
		endingSlot = &s
	}

	return []any{
		m.Creator, m.YesMint, m.NoMint, m.VirtualSolReserves,
		m.Yes.InitialTokenReserves, m.Yes.RealTokenReserves, m.Yes.RealSolReserves, m.Yes.TokenTotalSupply,
		m.No.InitialTokenReserves, m.No.RealTokenReserves, m.No.RealSolReserves, m.No.TokenTotalSupply,
		m.IsCompleted, winning, startSlot, endingSlot,
		lps, m.TotalLpAmount,
	}, nil
}

// Create inserts a new market.
func (s *MarketStore) Create(ctx context.Context, m domain.Market) error {
	const query = `
		INSERT INTO markets (
			id, creator, yes_mint, no_mint, virtual_sol_reserves,
			yes_initial_token_reserves, yes_real_token_reserves, yes_real_sol_reserves, yes_token_total_supply,
			no_initial_token_reserves, no_real_token_reserves, no_real_sol_reserves, no_token_total_supply,
			is_completed, winning_outcome, start_slot, ending_slot,
			lps, total_lp_amount, created_at, updated_at
		) VALUES (
			$1, $2, $3, $4, $5,
			$6, $7, $8, $9,
			$10, $11, $12, $13,
			$14, $15, $16, $17,
			$18, $19, $20, NOW()
		)`

	args, err := marketArgs(m)
	if err != nil {
		return err
	}
	createdAt := m.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}
	args = append([]any{m.ID}, append(args, createdAt)...)

	if _, err := s.pool.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("postgres: create market %s: %w", m.ID, err)
	}
	return nil
}

// Update replaces all mutable fields of a market.
func (s *MarketStore) Update(ctx context.Context, m domain.Market) error {
	const query = `
		UPDATE markets SET
			creator                    = $2,
			yes_mint                   = $3,
			no_mint                    = $4,
			virtual_sol_reserves       = $5,
			yes_initial_token_reserves = $6,
			yes_real_token_reserves    = $7,
			yes_real_sol_reserves      = $8,
			yes_token_total_supply     = $9,
			no_initial_token_reserves  = $10,
			no_real_token_reserves     = $11,
			no_real_sol_reserves       = $12,
			no_token_total_supply      = $13,
			is_completed               = $14,
			winning_outcome            = $15,
			start_slot                 = $16,
			ending_slot                = $17,
			lps                        = $18,
			total_lp_amount            = $19,
			updated_at                 = NOW()
		WHERE id = $1`

	args, err := marketArgs(m)
	if err != nil {
		return err
	}
	args = append([]any{m.ID}, args...)

	tag, err := s.pool.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("postgres: update market %s: %w", m.ID, err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// GetByID returns the market with the given id.
func (s *MarketStore) GetByID(ctx context.Context, id string) (domain.Market, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+marketSelectCols+` FROM markets WHERE id = $1`, id)

	m, err := scanMarketRow(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Market{}, domain.ErrNotFound
	}
	if err != nil {
		return domain.Market{}, fmt.Errorf("postgres: get market %s: %w", id, err)
	}
	return m, nil
}

// ListOpen returns markets that have not completed, newest first.
func (s *MarketStore) ListOpen(ctx context.Context, opts domain.ListOpts) ([]domain.Market, error) {
	limit := opts.Limit
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.pool.Query(ctx,
		`SELECT `+marketSelectCols+` FROM markets
		 WHERE NOT is_completed
		 ORDER BY created_at DESC
		 LIMIT $1 OFFSET $2`, limit, opts.Offset)
	if err != nil {
		return nil, fmt.Errorf("postgres: list open markets: %w", err)
	}
	defer rows.Close()
	return collectMarkets(rows)
}

// ListCompletedSince returns completed markets updated at or after since.
func (s *MarketStore) ListCompletedSince(ctx context.Context, since time.Time) ([]domain.Market, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+marketSelectCols+` FROM markets
		 WHERE is_completed AND updated_at >= $1
		 ORDER BY updated_at`, since)
	if err != nil {
		return nil, fmt.Errorf("postgres: list completed markets: %w", err)
	}
	defer rows.Close()
	return collectMarkets(rows)
}

// Count returns the total number of markets.
func (s *MarketStore) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM markets`).Scan(&n); err != nil {
		return 0, fmt.Errorf("postgres: count markets: %w", err)
	}
	return n, nil
}

func collectMarkets(rows pgx.Rows) ([]domain.Market, error) {
	var markets []domain.Market
	for rows.Next() {
		m, err := scanMarketRow(rows)
		if err != nil {
			return nil, err
		}
		markets = append(markets, m)
	}
	return markets, rows.Err()
}
