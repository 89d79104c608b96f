package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/outcomefi/marketd/internal/domain"
	"github.com/outcomefi/marketd/internal/service"
)

// MarketService defines the methods that the market handler requires from the
// service layer. It is declared locally so the handler package does not depend
// on the concrete service implementation.
type MarketService interface {
	CreateMarket(ctx context.Context, req service.CreateMarketRequest) (domain.Market, error)
	Swap(ctx context.Context, req service.SwapRequest) (service.SwapResult, error)
	AddLiquidity(ctx context.Context, marketID, provider string, sol uint64) (domain.Market, error)
	WithdrawLiquidity(ctx context.Context, marketID, provider string, sol uint64) (domain.Market, error)
	GetMarket(ctx context.Context, id string) (domain.Market, error)
	ListOpenMarkets(ctx context.Context, opts domain.ListOpts) ([]domain.Market, error)
	ListTrades(ctx context.Context, marketID string, opts domain.ListOpts) ([]domain.Trade, error)
	ListUserTrades(ctx context.Context, user string, opts domain.ListOpts) ([]domain.Trade, error)
	GetPosition(ctx context.Context, marketID, user string) (domain.UserInfo, error)
}

// ClaimService is the slice of the resolution service exposed to holders.
type ClaimService interface {
	Claim(ctx context.Context, marketID, user string) (uint64, error)
}

// MarketHandler serves market-related HTTP endpoints.
type MarketHandler struct {
	markets MarketService
	claims  ClaimService
	logger  *slog.Logger
}

// NewMarketHandler creates a MarketHandler with the given services and logger.
func NewMarketHandler(markets MarketService, claims ClaimService, logger *slog.Logger) *MarketHandler {
	return &MarketHandler{
		markets: markets,
		claims:  claims,
		logger:  logger,
	}
}

// listMarketsResponse wraps the list endpoint output with metadata.
type listMarketsResponse struct {
	Markets []domain.Market `json:"markets"`
	Limit   int             `json:"limit"`
	Offset  int             `json:"offset"`
}

// ListMarkets returns open markets with pagination.
// GET /api/markets?limit=50&offset=0
func (h *MarketHandler) ListMarkets(w http.ResponseWriter, r *http.Request) {
	opts := parseListOpts(r)

	markets, err := h.markets.ListOpenMarkets(r.Context(), opts)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "handler: list markets failed",
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusInternalServerError, "failed to list markets")
		return
	}
	if markets == nil {
		markets = []domain.Market{}
	}

	writeJSON(w, http.StatusOK, listMarketsResponse{
		Markets: markets,
		Limit:   opts.Limit,
		Offset:  opts.Offset,
	})
}

// GetMarket returns a single market by its ID.
// GET /api/markets/{id}
func (h *MarketHandler) GetMarket(w http.ResponseWriter, r *http.Request) {
	id := pathParam(r, "id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "missing market id")
		return
	}

	market, err := h.markets.GetMarket(r.Context(), id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			writeError(w, http.StatusNotFound, "market not found")
			return
		}
		h.logger.ErrorContext(r.Context(), "handler: get market failed",
			slog.String("market_id", id),
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusInternalServerError, "failed to get market")
		return
	}

	writeJSON(w, http.StatusOK, market)
}

// createMarketRequest is the JSON body for market creation.
type createMarketRequest struct {
	Creator    string  `json:"creator"`
	StartSlot  *uint64 `json:"start_slot,omitempty"`
	EndingSlot *uint64 `json:"ending_slot,omitempty"`
}

// CreateMarket opens a new binary market.
// POST /api/markets
func (h *MarketHandler) CreateMarket(w http.ResponseWriter, r *http.Request) {
	var req createMarketRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if req.Creator == "" {
		writeError(w, http.StatusBadRequest, "creator is required")
		return
	}

	market, err := h.markets.CreateMarket(r.Context(), service.CreateMarketRequest{
		Creator:    req.Creator,
		StartSlot:  req.StartSlot,
		EndingSlot: req.EndingSlot,
	})
	if err != nil {
		h.logger.ErrorContext(r.Context(), "handler: create market failed",
			slog.String("creator", req.Creator),
			slog.String("error", err.Error()),
		)
		writeDomainError(w, err, "failed to create market")
		return
	}

	writeJSON(w, http.StatusCreated, market)
}

// swapRequest is the JSON body for buys and sells.
type swapRequest struct {
	User       string `json:"user"`
	Outcome    string `json:"outcome"`
	Direction  string `json:"direction"`
	Amount     uint64 `json:"amount"`
	MinReceive uint64 `json:"min_receive"`
}

// Swap executes a buy or sell on one side of a market.
// POST /api/markets/{id}/swap
func (h *MarketHandler) Swap(w http.ResponseWriter, r *http.Request) {
	id := pathParam(r, "id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "missing market id")
		return
	}

	var req swapRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	outcome, err := domain.ParseOutcome(req.Outcome)
	if err != nil {
		writeError(w, http.StatusBadRequest, "outcome must be yes or no")
		return
	}
	direction, err := domain.ParseDirection(req.Direction)
	if err != nil {
		writeError(w, http.StatusBadRequest, "direction must be buy or sell")
		return
	}

	result, err := h.markets.Swap(r.Context(), service.SwapRequest{
		MarketID:   id,
		User:       req.User,
		Outcome:    outcome,
		Direction:  direction,
		Amount:     req.Amount,
		MinReceive: req.MinReceive,
	})
	if err != nil {
		h.logger.ErrorContext(r.Context(), "handler: swap failed",
			slog.String("market_id", id),
			slog.String("user", req.User),
			slog.String("error", err.Error()),
		)
		writeDomainError(w, err, "failed to execute swap")
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// liquidityRequest is the JSON body for liquidity deposits and withdrawals.
type liquidityRequest struct {
	Provider string `json:"provider"`
	Amount   uint64 `json:"amount"`
}

// AddLiquidity deposits collateral across both sides of a market.
// POST /api/markets/{id}/liquidity
func (h *MarketHandler) AddLiquidity(w http.ResponseWriter, r *http.Request) {
	h.liquidity(w, r, h.markets.AddLiquidity, "failed to add liquidity")
}

// WithdrawLiquidity returns collateral to a provider.
// DELETE /api/markets/{id}/liquidity
func (h *MarketHandler) WithdrawLiquidity(w http.ResponseWriter, r *http.Request) {
	h.liquidity(w, r, h.markets.WithdrawLiquidity, "failed to withdraw liquidity")
}

func (h *MarketHandler) liquidity(
	w http.ResponseWriter,
	r *http.Request,
	op func(ctx context.Context, marketID, provider string, sol uint64) (domain.Market, error),
	fallback string,
) {
	id := pathParam(r, "id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "missing market id")
		return
	}

	var req liquidityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if req.Provider == "" {
		writeError(w, http.StatusBadRequest, "provider is required")
		return
	}

	market, err := op(r.Context(), id, req.Provider, req.Amount)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "handler: liquidity op failed",
			slog.String("market_id", id),
			slog.String("provider", req.Provider),
			slog.String("error", err.Error()),
		)
		writeDomainError(w, err, fallback)
		return
	}

	writeJSON(w, http.StatusOK, market)
}

// claimRequest is the JSON body for resolution claims.
type claimRequest struct {
	User string `json:"user"`
}

// Claim pays out a winning position after resolution.
// POST /api/markets/{id}/claim
func (h *MarketHandler) Claim(w http.ResponseWriter, r *http.Request) {
	id := pathParam(r, "id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "missing market id")
		return
	}

	var req claimRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if req.User == "" {
		writeError(w, http.StatusBadRequest, "user is required")
		return
	}

	payout, err := h.claims.Claim(r.Context(), id, req.User)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "handler: claim failed",
			slog.String("market_id", id),
			slog.String("user", req.User),
			slog.String("error", err.Error()),
		)
		writeDomainError(w, err, "failed to claim payout")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"market_id": id,
		"user":      req.User,
		"payout":    payout,
	})
}

// GetPosition returns the per-market position record for a user.
// GET /api/markets/{id}/positions/{user}
func (h *MarketHandler) GetPosition(w http.ResponseWriter, r *http.Request) {
	id := pathParam(r, "id")
	user := pathParam(r, "user")
	if id == "" || user == "" {
		writeError(w, http.StatusBadRequest, "missing market id or user")
		return
	}

	pos, err := h.markets.GetPosition(r.Context(), id, user)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "handler: get position failed",
			slog.String("market_id", id),
			slog.String("user", user),
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusInternalServerError, "failed to get position")
		return
	}

	writeJSON(w, http.StatusOK, pos)
}

// listTradesResponse wraps the trade list endpoints.
type listTradesResponse struct {
	Trades []domain.Trade `json:"trades"`
}

// ListTrades returns the trade history for a market.
// GET /api/markets/{id}/trades?limit=50&offset=0
func (h *MarketHandler) ListTrades(w http.ResponseWriter, r *http.Request) {
	id := pathParam(r, "id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "missing market id")
		return
	}

	trades, err := h.markets.ListTrades(r.Context(), id, parseListOpts(r))
	if err != nil {
		h.logger.ErrorContext(r.Context(), "handler: list trades failed",
			slog.String("market_id", id),
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusInternalServerError, "failed to list trades")
		return
	}
	if trades == nil {
		trades = []domain.Trade{}
	}

	writeJSON(w, http.StatusOK, listTradesResponse{Trades: trades})
}

// ListUserTrades returns a user's trades across all markets.
// GET /api/trades?user=...&limit=50&offset=0
func (h *MarketHandler) ListUserTrades(w http.ResponseWriter, r *http.Request) {
	user := r.URL.Query().Get("user")
	if user == "" {
		writeError(w, http.StatusBadRequest, "user query parameter required")
		return
	}

	trades, err := h.markets.ListUserTrades(r.Context(), user, parseListOpts(r))
	if err != nil {
		h.logger.ErrorContext(r.Context(), "handler: list user trades failed",
			slog.String("user", user),
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusInternalServerError, "failed to list trades")
		return
	}
	if trades == nil {
		trades = []domain.Trade{}
	}

	writeJSON(w, http.StatusOK, listTradesResponse{Trades: trades})
}
