package domain

import (
	"context"
	"time"
)

// ListOpts provides pagination and time filtering for list queries.
type ListOpts struct {
	Limit  int
	Offset int
	Since  *time.Time
	Until  *time.Time
}

// MarketStore persists markets, including reserves, lifecycle state, and the
// LP list.
type MarketStore interface {
	Create(ctx context.Context, market Market) error
	Update(ctx context.Context, market Market) error
	GetByID(ctx context.Context, id string) (Market, error)
	ListOpen(ctx context.Context, opts ListOpts) ([]Market, error)
	ListCompletedSince(ctx context.Context, since time.Time) ([]Market, error)
	Count(ctx context.Context) (int64, error)
}

// UserInfoStore persists per-(market, user) position records.
type UserInfoStore interface {
	Get(ctx context.Context, marketID, user string) (UserInfo, error)
	Upsert(ctx context.Context, info UserInfo) error
	ListHolders(ctx context.Context, marketID string, outcome Outcome) ([]UserInfo, error)
}

// TradeStore persists committed swap fills.
type TradeStore interface {
	Insert(ctx context.Context, trade Trade) error
	ListByMarket(ctx context.Context, marketID string, opts ListOpts) ([]Trade, error)
	ListByUser(ctx context.Context, user string, opts ListOpts) ([]Trade, error)
}

// PlatformStore persists the singleton platform configuration record.
type PlatformStore interface {
	Get(ctx context.Context) (PlatformParams, error)
	Save(ctx context.Context, params PlatformParams) error
}

// AuditEntry is a single audit log row.
type AuditEntry struct {
	ID        int64
	Event     string
	Detail    map[string]any
	CreatedAt time.Time
}

// AuditStore persists an append-only audit log.
type AuditStore interface {
	Log(ctx context.Context, event string, detail map[string]any) error
	List(ctx context.Context, opts ListOpts) ([]AuditEntry, error)
}
