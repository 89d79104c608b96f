package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

// Load reads a TOML configuration file at path, merges it on top of the
// built-in defaults, applies MARKETD_* environment variable overrides, and
// returns the final Config. The returned Config has NOT been validated; the
// caller should invoke Config.Validate() after Load.
func Load(path string) (*Config, error) {
	cfg := Defaults()

	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return nil, err
	}

	// Load .env file if present (silently ignore if missing).
	_ = godotenv.Load()

	applyEnvOverrides(&cfg)

	return &cfg, nil
}

// applyEnvOverrides reads well-known MARKETD_* environment variables and
// overwrites the corresponding Config fields when a variable is set (i.e. not
// empty). This lets operators inject secrets at deploy time without touching
// the TOML file.
func applyEnvOverrides(cfg *Config) {
	// ── Postgres ──
	setStr(&cfg.Postgres.DSN, "MARKETD_POSTGRES_DSN")
	setStr(&cfg.Postgres.Host, "MARKETD_POSTGRES_HOST")
	setInt(&cfg.Postgres.Port, "MARKETD_POSTGRES_PORT")
	setStr(&cfg.Postgres.Database, "MARKETD_POSTGRES_DATABASE")
	setStr(&cfg.Postgres.User, "MARKETD_POSTGRES_USER")
	setStr(&cfg.Postgres.Password, "MARKETD_POSTGRES_PASSWORD")
	setStr(&cfg.Postgres.SSLMode, "MARKETD_POSTGRES_SSLMODE")
	setInt(&cfg.Postgres.PoolMaxConns, "MARKETD_POSTGRES_POOL_MAX_CONNS")
	setInt(&cfg.Postgres.PoolMinConns, "MARKETD_POSTGRES_POOL_MIN_CONNS")
	setBool(&cfg.Postgres.RunMigrations, "MARKETD_POSTGRES_RUN_MIGRATIONS")

	// ── Redis ──
	setStr(&cfg.Redis.Addr, "MARKETD_REDIS_ADDR")
	setStr(&cfg.Redis.Password, "MARKETD_REDIS_PASSWORD")
	setInt(&cfg.Redis.DB, "MARKETD_REDIS_DB")
	setInt(&cfg.Redis.PoolSize, "MARKETD_REDIS_POOL_SIZE")
	setInt(&cfg.Redis.MaxRetries, "MARKETD_REDIS_MAX_RETRIES")
	setBool(&cfg.Redis.TLSEnabled, "MARKETD_REDIS_TLS_ENABLED")

	// ── S3 ──
	setStr(&cfg.S3.Endpoint, "MARKETD_S3_ENDPOINT")
	setStr(&cfg.S3.Region, "MARKETD_S3_REGION")
	setStr(&cfg.S3.Bucket, "MARKETD_S3_BUCKET")
	setStr(&cfg.S3.AccessKey, "MARKETD_S3_ACCESS_KEY")
	setStr(&cfg.S3.SecretKey, "MARKETD_S3_SECRET_KEY")
	setBool(&cfg.S3.UseSSL, "MARKETD_S3_USE_SSL")
	setBool(&cfg.S3.ForcePathStyle, "MARKETD_S3_FORCE_PATH_STYLE")

	// ── Admin ──
	setStr(&cfg.Admin.KeyID, "MARKETD_ADMIN_KEY_ID")
	setStr(&cfg.Admin.Secret, "MARKETD_ADMIN_SECRET")
	setStr(&cfg.Admin.EncryptedSecretPath, "MARKETD_ADMIN_ENCRYPTED_SECRET_PATH")
	setStr(&cfg.Admin.SecretPassword, "MARKETD_ADMIN_SECRET_PASSWORD")
	setDuration(&cfg.Admin.MaxClockSkew, "MARKETD_ADMIN_MAX_CLOCK_SKEW")

	// ── Engine ──
	setStr(&cfg.Engine.GenesisTime, "MARKETD_ENGINE_GENESIS_TIME")
	setUint64(&cfg.Engine.MaxStartSlotDelay, "MARKETD_ENGINE_MAX_START_SLOT_DELAY")
	setDuration(&cfg.Engine.LockTTL, "MARKETD_ENGINE_LOCK_TTL")
	setDuration(&cfg.Engine.CacheTTL, "MARKETD_ENGINE_CACHE_TTL")
	setStr(&cfg.Engine.PoolSecret, "MARKETD_ENGINE_POOL_SECRET")

	// ── Platform seed ──
	setStr(&cfg.Platform.Authority, "MARKETD_PLATFORM_AUTHORITY")
	setStr(&cfg.Platform.TeamWallet, "MARKETD_PLATFORM_TEAM_WALLET")
	setUint64(&cfg.Platform.PlatformBuyFeeBps, "MARKETD_PLATFORM_BUY_FEE_BPS")
	setUint64(&cfg.Platform.PlatformSellFeeBps, "MARKETD_PLATFORM_SELL_FEE_BPS")
	setUint64(&cfg.Platform.LpBuyFeeBps, "MARKETD_PLATFORM_LP_BUY_FEE_BPS")
	setUint64(&cfg.Platform.LpSellFeeBps, "MARKETD_PLATFORM_LP_SELL_FEE_BPS")
	setUint64(&cfg.Platform.TokenTotalSupply, "MARKETD_PLATFORM_TOKEN_TOTAL_SUPPLY")
	setUint64(&cfg.Platform.InitialRealTokenReserves, "MARKETD_PLATFORM_INITIAL_REAL_TOKEN_RESERVES")
	setUint64(&cfg.Platform.VirtualSolReserves, "MARKETD_PLATFORM_VIRTUAL_SOL_RESERVES")
	setUint64(&cfg.Platform.MinSolLiquidity, "MARKETD_PLATFORM_MIN_SOL_LIQUIDITY")
	setBool(&cfg.Platform.WhitelistEnabled, "MARKETD_PLATFORM_WHITELIST_ENABLED")

	// ── Pipeline ──
	setBool(&cfg.Pipeline.Enabled, "MARKETD_PIPELINE_ENABLED")
	setDuration(&cfg.Pipeline.ArchiveInterval, "MARKETD_PIPELINE_ARCHIVE_INTERVAL")
	setStr(&cfg.Pipeline.ArchivePrefix, "MARKETD_PIPELINE_ARCHIVE_PREFIX")

	// ── Server ──
	setBool(&cfg.Server.Enabled, "MARKETD_SERVER_ENABLED")
	setInt(&cfg.Server.Port, "MARKETD_SERVER_PORT")
	setStringSlice(&cfg.Server.CORSOrigins, "MARKETD_SERVER_CORS_ORIGINS")

	// ── Top-level ──
	setStr(&cfg.LogLevel, "MARKETD_LOG_LEVEL")
}

// ---------------------------------------------------------------------------
// Typed env-var helpers. Each only mutates the target when the environment
// variable is present and non-empty.
// ---------------------------------------------------------------------------

func setStr(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func setUint64(dst *uint64, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseUint(v, 10, 64); err == nil {
			*dst = n
		}
	}
}

func setBool(dst *bool, key string) {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}

func setDuration(dst *duration, key string) {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			dst.Duration = d
		}
	}
}

func setStringSlice(dst *[]string, key string) {
	if v := os.Getenv(key); v != "" {
		parts := strings.Split(v, ",")
		cleaned := make([]string, 0, len(parts))
		for _, p := range parts {
			p = strings.TrimSpace(p)
			if p != "" {
				cleaned = append(cleaned, p)
			}
		}
		if len(cleaned) > 0 {
			*dst = cleaned
		}
	}
}
