package handler

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/outcomefi/marketd/internal/domain"
	"github.com/outcomefi/marketd/internal/service"
)

// stubMarketService returns canned values and records the last request it saw.
type stubMarketService struct {
	market    domain.Market
	swap      service.SwapResult
	err       error
	lastSwap  service.SwapRequest
	lastAddLP struct {
		marketID, provider string
		sol                uint64
	}
}

func (s *stubMarketService) CreateMarket(_ context.Context, _ service.CreateMarketRequest) (domain.Market, error) {
	return s.market, s.err
}

func (s *stubMarketService) Swap(_ context.Context, req service.SwapRequest) (service.SwapResult, error) {
	s.lastSwap = req
	return s.swap, s.err
}

func (s *stubMarketService) AddLiquidity(_ context.Context, marketID, provider string, sol uint64) (domain.Market, error) {
	s.lastAddLP.marketID, s.lastAddLP.provider, s.lastAddLP.sol = marketID, provider, sol
	return s.market, s.err
}

func (s *stubMarketService) WithdrawLiquidity(_ context.Context, marketID, provider string, sol uint64) (domain.Market, error) {
	return s.market, s.err
}

func (s *stubMarketService) GetMarket(_ context.Context, id string) (domain.Market, error) {
	if s.err != nil {
		return domain.Market{}, s.err
	}
	return s.market, nil
}

func (s *stubMarketService) ListOpenMarkets(_ context.Context, _ domain.ListOpts) ([]domain.Market, error) {
	return []domain.Market{s.market}, s.err
}

func (s *stubMarketService) ListTrades(_ context.Context, _ string, _ domain.ListOpts) ([]domain.Trade, error) {
	return nil, s.err
}

func (s *stubMarketService) ListUserTrades(_ context.Context, _ string, _ domain.ListOpts) ([]domain.Trade, error) {
	return nil, s.err
}

func (s *stubMarketService) GetPosition(_ context.Context, marketID, user string) (domain.UserInfo, error) {
	return domain.NewUserInfo(marketID, user), s.err
}

type stubClaimService struct {
	payout uint64
	err    error
}

func (s *stubClaimService) Claim(_ context.Context, _, _ string) (uint64, error) {
	return s.payout, s.err
}

func newTestHandler(markets *stubMarketService, claims *stubClaimService) http.Handler {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	h := NewMarketHandler(markets, claims, logger)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/markets", h.ListMarkets)
	mux.HandleFunc("GET /api/markets/{id}", h.GetMarket)
	mux.HandleFunc("POST /api/markets", h.CreateMarket)
	mux.HandleFunc("POST /api/markets/{id}/swap", h.Swap)
	mux.HandleFunc("POST /api/markets/{id}/liquidity", h.AddLiquidity)
	mux.HandleFunc("POST /api/markets/{id}/claim", h.Claim)
	mux.HandleFunc("GET /api/markets/{id}/trades", h.ListTrades)
	return mux
}

func TestGetMarket_Responses(t *testing.T) {
	stub := &stubMarketService{market: domain.Market{ID: "m1", Creator: "alice"}}
	srv := newTestHandler(stub, &stubClaimService{})

	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/markets/m1", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var got domain.Market
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, "m1", got.ID)

	stub.err = domain.ErrNotFound
	rec = httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/markets/nope", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSwapHandler_ParsesAndMapsErrors(t *testing.T) {
	stub := &stubMarketService{}
	srv := newTestHandler(stub, &stubClaimService{})

	body := `{"user":"bob","outcome":"yes","direction":"buy","amount":1000,"min_receive":5}`
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/markets/m1/swap", strings.NewReader(body)))
	require.Equal(t, http.StatusOK, rec.Code)

	assert.Equal(t, "m1", stub.lastSwap.MarketID)
	assert.Equal(t, domain.OutcomeYes, stub.lastSwap.Outcome)
	assert.Equal(t, domain.DirectionBuy, stub.lastSwap.Direction)
	assert.Equal(t, uint64(1000), stub.lastSwap.Amount)
	assert.Equal(t, uint64(5), stub.lastSwap.MinReceive)

	// Garbage outcome never reaches the service.
	rec = httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/markets/m1/swap",
		strings.NewReader(`{"user":"bob","outcome":"maybe","direction":"buy","amount":1}`)))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	// Domain rejections map to 4xx, not 500.
	stub.err = domain.ErrTradingEnded
	rec = httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/markets/m1/swap", strings.NewReader(body)))
	assert.Equal(t, http.StatusConflict, rec.Code)

	stub.err = domain.ErrReturnAmountTooSmall
	rec = httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/markets/m1/swap", strings.NewReader(body)))
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestCreateMarket_RequiresCreator(t *testing.T) {
	srv := newTestHandler(&stubMarketService{}, &stubClaimService{})

	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/markets",
		strings.NewReader(`{"start_slot":10}`)))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/markets",
		strings.NewReader(`{"creator":"alice"}`)))
	assert.Equal(t, http.StatusCreated, rec.Code)
}

func TestAddLiquidity_ForwardsAmount(t *testing.T) {
	stub := &stubMarketService{}
	srv := newTestHandler(stub, &stubClaimService{})

	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/markets/m1/liquidity",
		strings.NewReader(`{"provider":"carol","amount":5000}`)))
	require.Equal(t, http.StatusOK, rec.Code)

	assert.Equal(t, "m1", stub.lastAddLP.marketID)
	assert.Equal(t, "carol", stub.lastAddLP.provider)
	assert.Equal(t, uint64(5000), stub.lastAddLP.sol)
}

func TestClaimHandler(t *testing.T) {
	claims := &stubClaimService{payout: 123}
	srv := newTestHandler(&stubMarketService{}, claims)

	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/markets/m1/claim",
		strings.NewReader(`{"user":"bob"}`)))
	require.Equal(t, http.StatusOK, rec.Code)

	var got map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, float64(123), got["payout"])

	claims.err = domain.ErrMarketNotResolved
	rec = httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/markets/m1/claim",
		strings.NewReader(`{"user":"bob"}`)))
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestListTrades_EmptyIsArray(t *testing.T) {
	srv := newTestHandler(&stubMarketService{}, &stubClaimService{})

	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/markets/m1/trades", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"trades":[]`)
}
