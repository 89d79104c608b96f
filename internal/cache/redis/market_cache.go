package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/outcomefi/marketd/internal/domain"
)

// MarketCache implements domain.MarketCache using Redis hashes with JSON-
// serialized Market data and a secondary mint-to-market index.
//
// Key schema:
//
//	market:{id}          - hash with field "data" containing JSON
//	market:mint:{mint}   - string value of the market ID
type MarketCache struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewMarketCache creates a MarketCache backed by the given Client. Entries
// expire after ttl.
func NewMarketCache(c *Client, ttl time.Duration) *MarketCache {
	return &MarketCache{rdb: c.Underlying(), ttl: ttl}
}

func marketKey(id string) string      { return "market:" + id }
func marketMintKey(mint string) string { return "market:mint:" + mint }

// Set stores a Market snapshot in the cache. It also creates mint-to-market
// index entries for both outcome mints.
func (mc *MarketCache) Set(ctx context.Context, market domain.Market) error {
	data, err := json.Marshal(market)
	if err != nil {
		return fmt.Errorf("redis: marshal market %s: %w", market.ID, err)
	}

	key := marketKey(market.ID)

	pipe := mc.rdb.TxPipeline()
	pipe.HSet(ctx, key, "data", data)
	pipe.Expire(ctx, key, mc.ttl)

	for _, mint := range []string{market.YesMint, market.NoMint} {
		if mint == "" {
			continue
		}
		pipe.Set(ctx, marketMintKey(mint), market.ID, mc.ttl)
	}

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis: set market %s: %w", market.ID, err)
	}
	return nil
}

// Get retrieves a Market by its ID from the cache.
// It returns domain.ErrNotFound when the key does not exist.
func (mc *MarketCache) Get(ctx context.Context, id string) (domain.Market, error) {
	data, err := mc.rdb.HGet(ctx, marketKey(id), "data").Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return domain.Market{}, domain.ErrNotFound
		}
		return domain.Market{}, fmt.Errorf("redis: get market %s: %w", id, err)
	}

	var market domain.Market
	if err := json.Unmarshal(data, &market); err != nil {
		return domain.Market{}, fmt.Errorf("redis: unmarshal market %s: %w", id, err)
	}
	return market, nil
}

// GetByMint looks up a Market by one of its outcome mint addresses.
// It returns domain.ErrNotFound if the mint mapping or market does not exist.
func (mc *MarketCache) GetByMint(ctx context.Context, mint string) (domain.Market, error) {
	marketID, err := mc.rdb.Get(ctx, marketMintKey(mint)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return domain.Market{}, domain.ErrNotFound
		}
		return domain.Market{}, fmt.Errorf("redis: get market by mint %s: %w", mint, err)
	}

	return mc.Get(ctx, marketID)
}

// Invalidate removes a Market and its mint index entries from the cache.
func (mc *MarketCache) Invalidate(ctx context.Context, id string) error {
	// Read the market first to find its mints so the reverse index entries
	// can be cleaned up.
	market, err := mc.Get(ctx, id)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return fmt.Errorf("redis: invalidate market %s: %w", id, err)
	}

	pipe := mc.rdb.TxPipeline()
	pipe.Del(ctx, marketKey(id))

	if err == nil {
		for _, mint := range []string{market.YesMint, market.NoMint} {
			if mint == "" {
				continue
			}
			pipe.Del(ctx, marketMintKey(mint))
		}
	}

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis: invalidate market %s: %w", id, err)
	}
	return nil
}

// Compile-time interface check.
var _ domain.MarketCache = (*MarketCache)(nil)
