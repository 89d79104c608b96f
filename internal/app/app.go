// Package app provides the top-level application lifecycle for the market
// engine daemon. It wires together all dependencies (stores, caches, vault,
// blob storage, services, and the HTTP/WebSocket server) and runs them until
// the context is cancelled.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/outcomefi/marketd/internal/config"
	"github.com/outcomefi/marketd/internal/crypto"
	"github.com/outcomefi/marketd/internal/domain"
	"github.com/outcomefi/marketd/internal/pipeline"
	"github.com/outcomefi/marketd/internal/server"
	"github.com/outcomefi/marketd/internal/server/handler"
	"github.com/outcomefi/marketd/internal/server/ws"
	"github.com/outcomefi/marketd/internal/service"
)

// App is the root application object. It owns the configuration, logger, and a
// list of cleanup functions that are called in reverse order on shutdown.
type App struct {
	cfg     *config.Config
	logger  *slog.Logger
	closers []func()
}

// New creates a new App from the given configuration and logger.
func New(cfg *config.Config, logger *slog.Logger) *App {
	return &App{
		cfg:    cfg,
		logger: logger.With(slog.String("component", "app")),
	}
}

// Run is the main entry point. It wires all dependencies, seeds the platform
// parameters on first boot, starts the server and pipeline goroutines, and
// blocks until the context is cancelled.
func (a *App) Run(ctx context.Context) error {
	a.logger.InfoContext(ctx, "starting application",
		slog.String("log_level", a.cfg.LogLevel),
		slog.Bool("server", a.cfg.Server.Enabled),
		slog.Bool("pipeline", a.cfg.Pipeline.Enabled),
	)

	deps, cleanup, err := Wire(ctx, a.cfg, a.logger)
	if err != nil {
		return fmt.Errorf("app: wire dependencies: %w", err)
	}
	a.closers = append(a.closers, cleanup)

	// Services.
	platformSvc := service.NewPlatformService(deps.PlatformStore, deps.AuditStore, a.logger)
	marketSvc := service.NewMarketService(
		deps.MarketStore, deps.UserInfoStore, deps.TradeStore, deps.PlatformStore,
		deps.MarketCache, deps.LockManager, deps.SignalBus, deps.AuditStore,
		deps.Vault, deps.Minter, deps.Clock, a.logger,
		service.MarketServiceConfig{
			LockTTL:           a.cfg.Engine.LockTTL.Duration,
			MaxStartSlotDelay: a.cfg.Engine.MaxStartSlotDelay,
			PoolSecret:        a.cfg.Engine.PoolSecret,
		},
	)
	resolutionSvc := service.NewResolutionService(
		deps.MarketStore, deps.UserInfoStore, deps.PlatformStore,
		deps.MarketCache, deps.LockManager, deps.SignalBus, deps.AuditStore,
		deps.Vault, deps.Clock, a.logger,
		a.cfg.Engine.LockTTL.Duration, a.cfg.Engine.PoolSecret,
	)

	if err := a.seedPlatform(ctx, platformSvc); err != nil {
		return fmt.Errorf("app: seed platform params: %w", err)
	}

	g, ctx := errgroup.WithContext(ctx)

	// HTTP + WebSocket server.
	if a.cfg.Server.Enabled {
		adminAuth, err := a.adminAuth()
		if err != nil {
			return fmt.Errorf("app: admin credential: %w", err)
		}

		hub := ws.NewHub(deps.SignalBus, a.logger)
		g.Go(func() error {
			return hub.Run(ctx)
		})

		srv := server.NewServer(
			server.Config{
				Port:           a.cfg.Server.Port,
				CORSOrigins:    a.cfg.Server.CORSOrigins,
				AdminAuth:      adminAuth,
				AdminClockSkew: a.cfg.Admin.MaxClockSkew.Duration,
			},
			server.Handlers{
				Health:  handler.NewHealthHandler(deps.Clock, a.logger),
				Markets: handler.NewMarketHandler(marketSvc, resolutionSvc, a.logger),
				Admin:   handler.NewAdminHandler(platformSvc, resolutionSvc, deps.AuditStore, a.logger),
			},
			hub,
			a.logger,
		)
		g.Go(srv.Start)
		g.Go(func() error {
			<-ctx.Done()
			shutCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return srv.Shutdown(shutCtx)
		})
	}

	// Settlement archive pipeline.
	if a.cfg.Pipeline.Enabled {
		archiver := pipeline.NewArchiver(
			deps.SettlementArchiver,
			a.cfg.Pipeline.ArchiveInterval.Duration,
			a.logger,
		)
		g.Go(func() error {
			return archiver.Run(ctx)
		})
	}

	return g.Wait()
}

// seedPlatform writes the configured platform parameters on first boot. Once
// the store record exists it is authoritative and the config seed is ignored.
func (a *App) seedPlatform(ctx context.Context, platformSvc *service.PlatformService) error {
	_, err := platformSvc.Get(ctx)
	if err == nil {
		return nil
	}
	if !errors.Is(err, domain.ErrNotInitialized) {
		return err
	}

	seed := a.cfg.Platform
	if seed.Authority == "" {
		a.logger.WarnContext(ctx, "platform uninitialized and no authority configured; configure via the admin API")
		return nil
	}
	_, err = platformSvc.Configure(ctx, seed.Authority, domain.PlatformParams{
		TeamWallet:               seed.TeamWallet,
		PlatformBuyFeeBps:        seed.PlatformBuyFeeBps,
		PlatformSellFeeBps:       seed.PlatformSellFeeBps,
		LpBuyFeeBps:              seed.LpBuyFeeBps,
		LpSellFeeBps:             seed.LpSellFeeBps,
		TokenTotalSupply:         seed.TokenTotalSupply,
		TokenDecimals:            seed.TokenDecimals,
		InitialRealTokenReserves: seed.InitialRealTokenReserves,
		VirtualSolReserves:       seed.VirtualSolReserves,
		MinSolLiquidity:          seed.MinSolLiquidity,
		WhitelistEnabled:         seed.WhitelistEnabled,
	})
	if err != nil {
		return err
	}

	a.logger.InfoContext(ctx, "platform parameters seeded from config",
		slog.String("authority", seed.Authority),
	)
	return nil
}

// adminAuth resolves the admin signing credential from config. The secret
// comes either inline or from an encrypted key file.
func (a *App) adminAuth() (*crypto.AdminAuth, error) {
	secret, err := crypto.LoadSecret(crypto.SecretConfig{
		RawSecret:           a.cfg.Admin.Secret,
		EncryptedSecretPath: a.cfg.Admin.EncryptedSecretPath,
		SecretPassword:      a.cfg.Admin.SecretPassword,
	})
	if err != nil {
		return nil, err
	}
	return &crypto.AdminAuth{KeyID: a.cfg.Admin.KeyID, Secret: secret}, nil
}

// Close tears down all resources in reverse registration order. It is safe to
// call multiple times; subsequent calls are no-ops.
func (a *App) Close() {
	a.logger.Info("shutting down application")
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}
