package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/outcomefi/marketd/internal/domain"
)

// UserInfoStore implements domain.UserInfoStore using PostgreSQL.
type UserInfoStore struct {
	pool *pgxpool.Pool
}

// NewUserInfoStore creates a new UserInfoStore backed by the given connection
// pool.
func NewUserInfoStore(pool *pgxpool.Pool) *UserInfoStore {
	return &UserInfoStore{pool: pool}
}

const userInfoSelectCols = `market_id, user_addr, yes_balance, no_balance,
	is_lp, is_initialized, updated_at`

func scanUserInfoRow(row pgx.Row) (domain.UserInfo, error) {
	var u domain.UserInfo
	err := row.Scan(
		&u.MarketID, &u.User, &u.YesBalance, &u.NoBalance,
		&u.IsLP, &u.IsInitialized, &u.UpdatedAt,
	)
	if err != nil {
		return domain.UserInfo{}, err
	}
	return u, nil
}

// Get returns the position record for (marketID, user).
func (s *UserInfoStore) Get(ctx context.Context, marketID, user string) (domain.UserInfo, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+userInfoSelectCols+` FROM user_info
		 WHERE market_id = $1 AND user_addr = $2`, marketID, user)

	u, err := scanUserInfoRow(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.UserInfo{}, domain.ErrNotFound
	}
	if err != nil {
		return domain.UserInfo{}, fmt.Errorf("postgres: get user info %s/%s: %w", marketID, user, err)
	}
	return u, nil
}

// Upsert inserts or replaces the position record for (marketID, user).
func (s *UserInfoStore) Upsert(ctx context.Context, u domain.UserInfo) error {
	const query = `
		INSERT INTO user_info (
			market_id, user_addr, yes_balance, no_balance,
			is_lp, is_initialized, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, NOW())
		ON CONFLICT (market_id, user_addr) DO UPDATE SET
			yes_balance    = EXCLUDED.yes_balance,
			no_balance     = EXCLUDED.no_balance,
			is_lp          = EXCLUDED.is_lp,
			is_initialized = EXCLUDED.is_initialized,
			updated_at     = NOW()`

	_, err := s.pool.Exec(ctx, query,
		u.MarketID, u.User, u.YesBalance, u.NoBalance,
		u.IsLP, u.IsInitialized,
	)
	if err != nil {
		return fmt.Errorf("postgres: upsert user info %s/%s: %w", u.MarketID, u.User, err)
	}
	return nil
}

// ListHolders returns every record holding a positive balance of the given
// outcome in the market.
func (s *UserInfoStore) ListHolders(ctx context.Context, marketID string, outcome domain.Outcome) ([]domain.UserInfo, error) {
	col := "yes_balance"
	if outcome == domain.OutcomeNo {
		col = "no_balance"
	}
	rows, err := s.pool.Query(ctx,
		`SELECT `+userInfoSelectCols+` FROM user_info
		 WHERE market_id = $1 AND `+col+` > 0
		 ORDER BY user_addr`, marketID)
	if err != nil {
		return nil, fmt.Errorf("postgres: list %s holders for %s: %w", outcome, marketID, err)
	}
	defer rows.Close()

	var holders []domain.UserInfo
	for rows.Next() {
		u, err := scanUserInfoRow(rows)
		if err != nil {
			return nil, err
		}
		holders = append(holders, u)
	}
	return holders, rows.Err()
}
