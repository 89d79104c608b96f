package app

import (
	"context"
	"fmt"
	"log/slog"

	s3blob "github.com/outcomefi/marketd/internal/blob/s3"
	"github.com/outcomefi/marketd/internal/cache/redis"
	"github.com/outcomefi/marketd/internal/clock"
	"github.com/outcomefi/marketd/internal/config"
	"github.com/outcomefi/marketd/internal/domain"
	"github.com/outcomefi/marketd/internal/store/postgres"
	"github.com/outcomefi/marketd/internal/vault"
)

// Dependencies bundles every domain-level dependency the daemon needs to
// operate. It is constructed by Wire and torn down by the returned cleanup
// function.
type Dependencies struct {
	// Stores
	MarketStore   domain.MarketStore
	UserInfoStore domain.UserInfoStore
	TradeStore    domain.TradeStore
	PlatformStore domain.PlatformStore
	AuditStore    domain.AuditStore

	// Caches and coordination
	MarketCache domain.MarketCache
	LockManager domain.LockManager
	SignalBus   domain.SignalBus

	// Collateral accounting
	Vault  domain.CollateralVault
	Minter domain.TokenMinter
	Clock  domain.SlotClock

	// Blob storage (only when the archive pipeline is enabled)
	BlobWriter         domain.BlobWriter
	BlobReader         domain.BlobReader
	SettlementArchiver domain.SettlementArchiver
}

// Wire constructs all concrete dependency implementations from the given
// configuration and returns them together with a cleanup function that should
// be called on shutdown to release resources.
func Wire(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Dependencies, func(), error) {
	var closers []func()
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	deps := &Dependencies{}

	// --- PostgreSQL ---
	pgClient, err := postgres.New(ctx, postgres.ClientConfig{
		DSN:      cfg.Postgres.DSN,
		Host:     cfg.Postgres.Host,
		Port:     cfg.Postgres.Port,
		Database: cfg.Postgres.Database,
		User:     cfg.Postgres.User,
		Password: cfg.Postgres.Password,
		SSLMode:  cfg.Postgres.SSLMode,
		MaxConns: cfg.Postgres.PoolMaxConns,
		MinConns: cfg.Postgres.PoolMinConns,
	})
	if err != nil {
		cleanup()
		return nil, nil, fmt.Errorf("wire: postgres: %w", err)
	}
	closers = append(closers, pgClient.Close)

	if cfg.Postgres.RunMigrations {
		if err := pgClient.RunMigrations(ctx); err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: postgres migrations: %w", err)
		}
	}

	pool := pgClient.Pool()
	deps.MarketStore = postgres.NewMarketStore(pool)
	deps.UserInfoStore = postgres.NewUserInfoStore(pool)
	deps.TradeStore = postgres.NewTradeStore(pool)
	deps.PlatformStore = postgres.NewPlatformStore(pool)
	deps.AuditStore = postgres.NewAuditStore(pool)

	// --- Redis ---
	redisClient, err := redis.New(ctx, redis.ClientConfig{
		Addr:       cfg.Redis.Addr,
		Password:   cfg.Redis.Password,
		DB:         cfg.Redis.DB,
		PoolSize:   cfg.Redis.PoolSize,
		MaxRetries: cfg.Redis.MaxRetries,
		TLSEnabled: cfg.Redis.TLSEnabled,
	})
	if err != nil {
		cleanup()
		return nil, nil, fmt.Errorf("wire: redis: %w", err)
	}
	closers = append(closers, func() { _ = redisClient.Close() })

	deps.MarketCache = redis.NewMarketCache(redisClient, cfg.Engine.CacheTTL.Duration)
	deps.LockManager = redis.NewLockManager(redisClient)
	deps.SignalBus = redis.NewSignalBus(redisClient)

	// --- Collateral vault, token mints, slot clock ---
	deps.Vault = vault.NewMemory()
	deps.Minter = vault.NewMinter()
	deps.Clock = clock.NewSystem(cfg.Genesis())

	// --- S3 blob storage (only when the archive pipeline runs) ---
	if cfg.Pipeline.Enabled {
		s3Client, err := s3blob.New(ctx, s3blob.ClientConfig{
			Endpoint:       cfg.S3.Endpoint,
			Region:         cfg.S3.Region,
			Bucket:         cfg.S3.Bucket,
			AccessKey:      cfg.S3.AccessKey,
			SecretKey:      cfg.S3.SecretKey,
			UseSSL:         cfg.S3.UseSSL,
			ForcePathStyle: cfg.S3.ForcePathStyle,
		})
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: s3: %w", err)
		}

		deps.BlobWriter = s3blob.NewWriter(s3Client)
		deps.BlobReader = s3blob.NewReader(s3Client)
		deps.SettlementArchiver = s3blob.NewArchiver(
			deps.BlobWriter,
			deps.BlobReader,
			deps.MarketStore,
			deps.TradeStore,
			deps.AuditStore,
			cfg.Pipeline.ArchivePrefix,
			logger,
		)
	}

	return deps, cleanup, nil
}
