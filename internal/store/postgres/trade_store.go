package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/outcomefi/marketd/internal/domain"
)

// TradeStore implements domain.TradeStore using PostgreSQL.
type TradeStore struct {
	pool *pgxpool.Pool
}

// NewTradeStore creates a new TradeStore backed by the given connection pool.
func NewTradeStore(pool *pgxpool.Pool) *TradeStore {
	return &TradeStore{pool: pool}
}

const tradeSelectCols = `id, market_id, user_addr, outcome, direction,
	sol_amount, token_amount, fee_lamports, slot, created_at`

func scanTradeRows(rows pgx.Rows) ([]domain.Trade, error) {
	var trades []domain.Trade
	for rows.Next() {
		var t domain.Trade
		var outcome, direction int16

		if err := rows.Scan(
			&t.ID, &t.MarketID, &t.User, &outcome, &direction,
			&t.SolAmount, &t.TokenAmount, &t.FeeLamports, &t.Slot, &t.CreatedAt,
		); err != nil {
			return nil, err
		}
		t.Outcome = domain.Outcome(outcome)
		t.Direction = domain.Direction(direction)
		trades = append(trades, t)
	}
	return trades, rows.Err()
}

// Insert records a committed swap fill.
func (s *TradeStore) Insert(ctx context.Context, t domain.Trade) error {
	const query = `
		INSERT INTO trades (
			id, market_id, user_addr, outcome, direction,
			sol_amount, token_amount, fee_lamports, slot, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`

	_, err := s.pool.Exec(ctx, query,
		t.ID, t.MarketID, t.User, int16(t.Outcome), int16(t.Direction),
		t.SolAmount, t.TokenAmount, t.FeeLamports, t.Slot, t.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("postgres: insert trade %s: %w", t.ID, err)
	}
	return nil
}

// ListByMarket returns trades in a market, newest first.
func (s *TradeStore) ListByMarket(ctx context.Context, marketID string, opts domain.ListOpts) ([]domain.Trade, error) {
	limit := opts.Limit
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.pool.Query(ctx,
		`SELECT `+tradeSelectCols+` FROM trades
		 WHERE market_id = $1
		 ORDER BY created_at DESC
		 LIMIT $2 OFFSET $3`, marketID, limit, opts.Offset)
	if err != nil {
		return nil, fmt.Errorf("postgres: list trades for market %s: %w", marketID, err)
	}
	defer rows.Close()
	return scanTradeRows(rows)
}

// ListByUser returns a user's trades across markets, newest first.
func (s *TradeStore) ListByUser(ctx context.Context, user string, opts domain.ListOpts) ([]domain.Trade, error) {
	limit := opts.Limit
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.pool.Query(ctx,
		`SELECT `+tradeSelectCols+` FROM trades
		 WHERE user_addr = $1
		 ORDER BY created_at DESC
		 LIMIT $2 OFFSET $3`, user, limit, opts.Offset)
	if err != nil {
		return nil, fmt.Errorf("postgres: list trades for user %s: %w", user, err)
	}
	defer rows.Close()
	return scanTradeRows(rows)
}
