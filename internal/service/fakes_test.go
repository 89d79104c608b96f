package service

import (
	"context"
	"encoding/json"
	"sort"
	"time"

	"github.com/outcomefi/marketd/internal/domain"
)

// In-memory fakes for the store, cache, and bus interfaces. They keep just
// enough behavior for the service protocols under test.

type fakeMarketStore struct {
	markets map[string]domain.Market
}

func newFakeMarketStore() *fakeMarketStore {
	return &fakeMarketStore{markets: make(map[string]domain.Market)}
}

func (f *fakeMarketStore) Create(_ context.Context, m domain.Market) error {
	if _, ok := f.markets[m.ID]; ok {
		return domain.ErrAlreadyExists
	}
	f.markets[m.ID] = m
	return nil
}

func (f *fakeMarketStore) Update(_ context.Context, m domain.Market) error {
	if _, ok := f.markets[m.ID]; !ok {
		return domain.ErrNotFound
	}
	f.markets[m.ID] = m
	return nil
}

func (f *fakeMarketStore) GetByID(_ context.Context, id string) (domain.Market, error) {
	m, ok := f.markets[id]
	if !ok {
		return domain.Market{}, domain.ErrNotFound
	}
	return m, nil
}

func (f *fakeMarketStore) ListOpen(_ context.Context, _ domain.ListOpts) ([]domain.Market, error) {
	var out []domain.Market
	for _, m := range f.markets {
		if !m.IsCompleted {
			out = append(out, m)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (f *fakeMarketStore) ListCompletedSince(_ context.Context, since time.Time) ([]domain.Market, error) {
	var out []domain.Market
	for _, m := range f.markets {
		if m.IsCompleted && !m.UpdatedAt.Before(since) {
			out = append(out, m)
		}
	}
	return out, nil
}

func (f *fakeMarketStore) Count(_ context.Context) (int64, error) {
	return int64(len(f.markets)), nil
}

type userKey struct{ market, user string }

type fakeUserStore struct {
	users map[userKey]domain.UserInfo
}

func newFakeUserStore() *fakeUserStore {
	return &fakeUserStore{users: make(map[userKey]domain.UserInfo)}
}

func (f *fakeUserStore) Get(_ context.Context, marketID, user string) (domain.UserInfo, error) {
	u, ok := f.users[userKey{marketID, user}]
	if !ok {
		return domain.UserInfo{}, domain.ErrNotFound
	}
	return u, nil
}

func (f *fakeUserStore) Upsert(_ context.Context, u domain.UserInfo) error {
	f.users[userKey{u.MarketID, u.User}] = u
	return nil
}

func (f *fakeUserStore) ListHolders(_ context.Context, marketID string, outcome domain.Outcome) ([]domain.UserInfo, error) {
	var out []domain.UserInfo
	for k, u := range f.users {
		if k.market == marketID && u.Balance(outcome) > 0 {
			out = append(out, u)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].User < out[j].User })
	return out, nil
}

type fakeTradeStore struct {
	trades []domain.Trade
}

func (f *fakeTradeStore) Insert(_ context.Context, t domain.Trade) error {
	f.trades = append(f.trades, t)
	return nil
}

func (f *fakeTradeStore) ListByMarket(_ context.Context, marketID string, _ domain.ListOpts) ([]domain.Trade, error) {
	var out []domain.Trade
	for _, t := range f.trades {
		if t.MarketID == marketID {
			out = append(out, t)
		}
	}
	return out, nil
}

func (f *fakeTradeStore) ListByUser(_ context.Context, user string, _ domain.ListOpts) ([]domain.Trade, error) {
	var out []domain.Trade
	for _, t := range f.trades {
		if t.User == user {
			out = append(out, t)
		}
	}
	return out, nil
}

type fakePlatformStore struct {
	params *domain.PlatformParams
}

func (f *fakePlatformStore) Get(_ context.Context) (domain.PlatformParams, error) {
	if f.params == nil {
		return domain.PlatformParams{}, domain.ErrNotInitialized
	}
	return *f.params, nil
}

func (f *fakePlatformStore) Save(_ context.Context, p domain.PlatformParams) error {
	f.params = &p
	return nil
}

type auditRecord struct {
	event  string
	detail map[string]any
}

type fakeAuditStore struct {
	records []auditRecord
}

func (f *fakeAuditStore) Log(_ context.Context, event string, detail map[string]any) error {
	f.records = append(f.records, auditRecord{event: event, detail: detail})
	return nil
}

func (f *fakeAuditStore) List(_ context.Context, _ domain.ListOpts) ([]domain.AuditEntry, error) {
	var out []domain.AuditEntry
	for i, r := range f.records {
		out = append(out, domain.AuditEntry{ID: int64(i + 1), Event: r.event, Detail: r.detail})
	}
	return out, nil
}

func (f *fakeAuditStore) events() []string {
	var out []string
	for _, r := range f.records {
		out = append(out, r.event)
	}
	return out
}

type fakeCache struct {
	markets map[string]domain.Market
}

func newFakeCache() *fakeCache {
	return &fakeCache{markets: make(map[string]domain.Market)}
}

func (f *fakeCache) Set(_ context.Context, m domain.Market) error {
	f.markets[m.ID] = m
	return nil
}

func (f *fakeCache) Get(_ context.Context, id string) (domain.Market, error) {
	m, ok := f.markets[id]
	if !ok {
		return domain.Market{}, domain.ErrNotFound
	}
	return m, nil
}

func (f *fakeCache) Invalidate(_ context.Context, id string) error {
	delete(f.markets, id)
	return nil
}

type fakeLocks struct {
	held     map[string]bool
	acquired []string
}

func newFakeLocks() *fakeLocks {
	return &fakeLocks{held: make(map[string]bool)}
}

func (f *fakeLocks) Acquire(_ context.Context, key string, _ time.Duration) (func(), error) {
	if f.held[key] {
		return nil, domain.ErrLockHeld
	}
	f.held[key] = true
	f.acquired = append(f.acquired, key)
	return func() { f.held[key] = false }, nil
}

type busMessage struct {
	channel string
	payload []byte
}

type fakeBus struct {
	messages []busMessage
}

func (f *fakeBus) Publish(_ context.Context, channel string, payload []byte) error {
	f.messages = append(f.messages, busMessage{channel: channel, payload: payload})
	return nil
}

func (f *fakeBus) Subscribe(_ context.Context, _ string) (<-chan []byte, error) {
	ch := make(chan []byte)
	close(ch)
	return ch, nil
}

// lastEvent decodes the most recent message on a channel into dst. It
// returns false when the channel saw no traffic.
func (f *fakeBus) lastEvent(channel string, dst any) bool {
	for i := len(f.messages) - 1; i >= 0; i-- {
		if f.messages[i].channel == channel {
			return json.Unmarshal(f.messages[i].payload, dst) == nil
		}
	}
	return false
}
