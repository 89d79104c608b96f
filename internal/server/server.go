package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/outcomefi/marketd/internal/crypto"
	"github.com/outcomefi/marketd/internal/server/handler"
	"github.com/outcomefi/marketd/internal/server/middleware"
	"github.com/outcomefi/marketd/internal/server/ws"
)

// Config holds the HTTP server configuration.
type Config struct {
	Port        int
	CORSOrigins []string
	// AdminAuth guards the /api/admin surface. nil disables the check,
	// which is only acceptable for local development.
	AdminAuth       *crypto.AdminAuth
	AdminClockSkew  time.Duration
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration
}

// Handlers aggregates all HTTP handlers that the server needs to register.
type Handlers struct {
	Health  *handler.HealthHandler
	Markets *handler.MarketHandler
	Admin   *handler.AdminHandler
}

// Server is the HTTP + WebSocket API for the market engine.
type Server struct {
	httpServer *http.Server
	mux        *http.ServeMux
	logger     *slog.Logger
}

// NewServer creates a new Server with all routes registered on the ServeMux.
// It wires up middleware (logging, CORS, admin auth) and attaches the
// WebSocket hub.
func NewServer(cfg Config, handlers Handlers, wsHub *ws.Hub, logger *slog.Logger) *Server {
	mux := http.NewServeMux()

	// Health check (no auth required).
	mux.HandleFunc("GET /api/health", handlers.Health.HealthCheck)

	// Public market endpoints.
	mux.HandleFunc("GET /api/markets", handlers.Markets.ListMarkets)
	mux.HandleFunc("POST /api/markets", handlers.Markets.CreateMarket)
	mux.HandleFunc("GET /api/markets/{id}", handlers.Markets.GetMarket)
	mux.HandleFunc("POST /api/markets/{id}/swap", handlers.Markets.Swap)
	mux.HandleFunc("POST /api/markets/{id}/liquidity", handlers.Markets.AddLiquidity)
	mux.HandleFunc("DELETE /api/markets/{id}/liquidity", handlers.Markets.WithdrawLiquidity)
	mux.HandleFunc("POST /api/markets/{id}/claim", handlers.Markets.Claim)
	mux.HandleFunc("GET /api/markets/{id}/positions/{user}", handlers.Markets.GetPosition)
	mux.HandleFunc("GET /api/markets/{id}/trades", handlers.Markets.ListTrades)
	mux.HandleFunc("GET /api/trades", handlers.Markets.ListUserTrades)

	// Admin endpoints, guarded by the HMAC signature middleware.
	mux.HandleFunc("GET /api/admin/platform", handlers.Admin.GetPlatform)
	mux.HandleFunc("PUT /api/admin/platform", handlers.Admin.ConfigurePlatform)
	mux.HandleFunc("POST /api/admin/platform/nominate", handlers.Admin.NominateAuthority)
	mux.HandleFunc("POST /api/admin/platform/accept", handlers.Admin.AcceptAuthority)
	mux.HandleFunc("POST /api/admin/whitelist", handlers.Admin.AddWhitelistedCreator)
	mux.HandleFunc("DELETE /api/admin/whitelist/{wallet}", handlers.Admin.RemoveWhitelistedCreator)
	mux.HandleFunc("POST /api/admin/markets/{id}/resolve", handlers.Admin.ResolveMarket)
	mux.HandleFunc("POST /api/admin/markets/{id}/finalize", handlers.Admin.FinalizeMarket)
	mux.HandleFunc("GET /api/admin/audit", handlers.Admin.ListAudit)

	// WebSocket endpoint.
	if wsHub != nil {
		mux.HandleFunc("GET /ws", wsHub.HandleWS)
	}

	var h http.Handler = mux
	h = middleware.AdminAuth(cfg.AdminAuth, cfg.AdminClockSkew)(h)
	h = middleware.Logging(logger)(h)
	h = middleware.CORS(cfg.CORSOrigins)(h)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      h,
		ReadTimeout:  orDefault(cfg.ReadTimeout, 15*time.Second),
		WriteTimeout: orDefault(cfg.WriteTimeout, 30*time.Second),
		IdleTimeout:  orDefault(cfg.IdleTimeout, 60*time.Second),
	}

	return &Server{
		httpServer: srv,
		mux:        mux,
		logger:     logger,
	}
}

// Start begins listening for HTTP requests. It blocks until the server
// encounters an error or is shut down.
func (s *Server) Start() error {
	s.logger.Info("server: starting",
		slog.String("addr", s.httpServer.Addr),
	)
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server: listen: %w", err)
	}
	return nil
}

// Shutdown gracefully shuts down the server, waiting for in-flight requests
// to complete within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("server: shutting down")
	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("server: shutdown: %w", err)
	}
	return nil
}

func orDefault(d, fallback time.Duration) time.Duration {
	if d <= 0 {
		return fallback
	}
	return d
}
