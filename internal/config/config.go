// Package config defines the top-level configuration for the market engine
// daemon and provides validation helpers.
package config

import (
	"fmt"
	"strings"
	"time"
)

// Config is the root configuration structure. Fields are populated from a TOML
// file and then optionally overridden by MARKETD_* environment variables.
type Config struct {
	Postgres PostgresConfig `toml:"postgres"`
	Redis    RedisConfig    `toml:"redis"`
	S3       S3Config       `toml:"s3"`
	Admin    AdminConfig    `toml:"admin"`
	Engine   EngineConfig   `toml:"engine"`
	Platform PlatformConfig `toml:"platform"`
	Pipeline PipelineConfig `toml:"pipeline"`
	Server   ServerConfig   `toml:"server"`
	LogLevel string         `toml:"log_level"`
}

// PostgresConfig holds PostgreSQL connection parameters.
type PostgresConfig struct {
	DSN           string `toml:"dsn"`
	Host          string `toml:"host"`
	Port          int    `toml:"port"`
	Database      string `toml:"database"`
	User          string `toml:"user"`
	Password      string `toml:"password"`
	SSLMode       string `toml:"ssl_mode"`
	PoolMaxConns  int    `toml:"pool_max_conns"`
	PoolMinConns  int    `toml:"pool_min_conns"`
	RunMigrations bool   `toml:"run_migrations"`
}

// RedisConfig holds Redis connection parameters.
type RedisConfig struct {
	Addr       string `toml:"addr"`
	Password   string `toml:"password"`
	DB         int    `toml:"db"`
	PoolSize   int    `toml:"pool_size"`
	MaxRetries int    `toml:"max_retries"`
	TLSEnabled bool   `toml:"tls_enabled"`
}

// S3Config holds S3-compatible object storage parameters.
type S3Config struct {
	Endpoint       string `toml:"endpoint"`
	Region         string `toml:"region"`
	Bucket         string `toml:"bucket"`
	AccessKey      string `toml:"access_key"`
	SecretKey      string `toml:"secret_key"`
	UseSSL         bool   `toml:"use_ssl"`
	ForcePathStyle bool   `toml:"force_path_style"`
}

// AdminConfig holds the admin API signing credential. Either secret or
// encrypted_secret_path (plus secret_password) must be set.
type AdminConfig struct {
	KeyID               string   `toml:"key_id"`
	Secret              string   `toml:"secret"`
	EncryptedSecretPath string   `toml:"encrypted_secret_path"`
	SecretPassword      string   `toml:"secret_password"`
	MaxClockSkew        duration `toml:"max_clock_skew"`
}

// EngineConfig holds slot clock and trading-window parameters.
type EngineConfig struct {
	// GenesisTime anchors slot zero, RFC 3339.
	GenesisTime string `toml:"genesis_time"`
	// MaxStartSlotDelay bounds how far in the future a market may schedule
	// its start slot.
	MaxStartSlotDelay uint64 `toml:"max_start_slot_delay"`
	// LockTTL is how long a per-market write lock is held at most.
	LockTTL duration `toml:"lock_ttl"`
	// CacheTTL is the market snapshot cache expiry.
	CacheTTL duration `toml:"cache_ttl"`
	// PoolSecret derives the per-market pool debit proofs. Treat it like a
	// private key: anyone holding it can authorize pool withdrawals.
	PoolSecret string `toml:"pool_secret"`
}

// PlatformConfig seeds the platform parameter record on first boot. After
// initialization the database record is authoritative and these values are
// ignored.
type PlatformConfig struct {
	Authority                string `toml:"authority"`
	TeamWallet               string `toml:"team_wallet"`
	PlatformBuyFeeBps        uint64 `toml:"platform_buy_fee_bps"`
	PlatformSellFeeBps       uint64 `toml:"platform_sell_fee_bps"`
	LpBuyFeeBps              uint64 `toml:"lp_buy_fee_bps"`
	LpSellFeeBps             uint64 `toml:"lp_sell_fee_bps"`
	TokenTotalSupply         uint64 `toml:"token_total_supply"`
	TokenDecimals            uint8  `toml:"token_decimals"`
	InitialRealTokenReserves uint64 `toml:"initial_real_token_reserves"`
	VirtualSolReserves       uint64 `toml:"virtual_sol_reserves"`
	MinSolLiquidity          uint64 `toml:"min_sol_liquidity"`
	WhitelistEnabled         bool   `toml:"whitelist_enabled"`
}

// PipelineConfig holds settlement archive parameters.
type PipelineConfig struct {
	Enabled         bool     `toml:"enabled"`
	ArchiveInterval duration `toml:"archive_interval"`
	ArchivePrefix   string   `toml:"archive_prefix"`
}

// ServerConfig holds HTTP server parameters.
type ServerConfig struct {
	Enabled     bool     `toml:"enabled"`
	Port        int      `toml:"port"`
	CORSOrigins []string `toml:"cors_origins"`
}

// duration is a wrapper around time.Duration that supports TOML string decoding
// (e.g. "5m", "30s").
type duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler so the TOML decoder can
// parse duration strings like "5m" or "30s".
func (d *duration) UnmarshalText(text []byte) error {
	var err error
	d.Duration, err = time.ParseDuration(string(text))
	return err
}

// MarshalText implements encoding.TextMarshaler for round-trip encoding.
func (d duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// Defaults returns a Config populated with reasonable default values.
// These match the values in config.example.toml.
func Defaults() Config {
	return Config{
		Postgres: PostgresConfig{
			Host:          "localhost",
			Port:          5432,
			Database:      "marketd",
			User:          "marketd",
			SSLMode:       "disable",
			PoolMaxConns:  10,
			PoolMinConns:  2,
			RunMigrations: true,
		},
		Redis: RedisConfig{
			Addr:       "localhost:6379",
			DB:         0,
			PoolSize:   20,
			MaxRetries: 3,
			TLSEnabled: false,
		},
		S3: S3Config{
			Endpoint:       "http://localhost:9000",
			Region:         "us-east-1",
			Bucket:         "marketd-data",
			UseSSL:         false,
			ForcePathStyle: true,
		},
		Admin: AdminConfig{
			KeyID:        "admin",
			MaxClockSkew: duration{time.Minute},
		},
		Engine: EngineConfig{
			GenesisTime:       "2025-01-01T00:00:00Z",
			MaxStartSlotDelay: 1_512_000,
			LockTTL:           duration{10 * time.Second},
			CacheTTL:          duration{30 * time.Second},
		},
		Platform: PlatformConfig{
			PlatformBuyFeeBps:        100,
			PlatformSellFeeBps:       100,
			LpBuyFeeBps:              50,
			LpSellFeeBps:             50,
			TokenTotalSupply:         1_000_000_000_000_000,
			TokenDecimals:            6,
			InitialRealTokenReserves: 1_000_000_000_000_000,
			VirtualSolReserves:       30_000_000_000,
			MinSolLiquidity:          1_000_000_000,
		},
		Pipeline: PipelineConfig{
			Enabled:         false,
			ArchiveInterval: duration{time.Hour},
			ArchivePrefix:   "settlements",
		},
		Server: ServerConfig{
			Enabled:     true,
			Port:        8000,
			CORSOrigins: []string{"http://localhost:3000", "http://localhost:5173"},
		},
		LogLevel: "info",
	}
}

// validLogLevels enumerates the accepted values for Config.LogLevel.
var validLogLevels = map[string]bool{
	"debug": true,
	"info":  true,
	"warn":  true,
	"error": true,
}

// Validate checks Config for obviously invalid or missing values and returns a
// combined error describing every problem found.
func (c *Config) Validate() error {
	var errs []string

	if !validLogLevels[strings.ToLower(c.LogLevel)] {
		errs = append(errs, fmt.Sprintf("unknown log_level %q (valid: debug, info, warn, error)", c.LogLevel))
	}

	// Postgres
	if strings.TrimSpace(c.Postgres.DSN) == "" {
		if c.Postgres.Host == "" {
			errs = append(errs, "postgres: host must not be empty (or set postgres.dsn)")
		}
		if c.Postgres.Port <= 0 || c.Postgres.Port > 65535 {
			errs = append(errs, fmt.Sprintf("postgres: port must be 1-65535, got %d", c.Postgres.Port))
		}
		if c.Postgres.Database == "" {
			errs = append(errs, "postgres: database must not be empty")
		}
	}
	if c.Postgres.PoolMaxConns < 1 {
		errs = append(errs, "postgres: pool_max_conns must be >= 1")
	}
	if c.Postgres.PoolMinConns < 0 {
		errs = append(errs, "postgres: pool_min_conns must be >= 0")
	}
	if c.Postgres.PoolMinConns > c.Postgres.PoolMaxConns {
		errs = append(errs, "postgres: pool_min_conns must not exceed pool_max_conns")
	}

	// Redis
	if c.Redis.Addr == "" {
		errs = append(errs, "redis: addr must not be empty")
	}
	if c.Redis.PoolSize < 1 {
		errs = append(errs, "redis: pool_size must be >= 1")
	}

	// S3 — only needed when the archive pipeline runs.
	if c.Pipeline.Enabled {
		if c.S3.Endpoint == "" {
			errs = append(errs, "s3: endpoint must not be empty when pipeline is enabled")
		}
		if c.S3.Bucket == "" {
			errs = append(errs, "s3: bucket must not be empty when pipeline is enabled")
		}
		if c.Pipeline.ArchiveInterval.Duration <= 0 {
			errs = append(errs, "pipeline: archive_interval must be positive")
		}
	}

	// Admin credential — one source must be set.
	if c.Admin.KeyID == "" {
		errs = append(errs, "admin: key_id must not be empty")
	}
	if c.Admin.Secret == "" && c.Admin.EncryptedSecretPath == "" {
		errs = append(errs, "admin: either secret or encrypted_secret_path must be set")
	}
	if c.Admin.EncryptedSecretPath != "" && c.Admin.SecretPassword == "" {
		errs = append(errs, "admin: secret_password is required when encrypted_secret_path is set")
	}
	if c.Admin.MaxClockSkew.Duration <= 0 {
		errs = append(errs, "admin: max_clock_skew must be positive")
	}

	// Engine
	if _, err := time.Parse(time.RFC3339, c.Engine.GenesisTime); err != nil {
		errs = append(errs, fmt.Sprintf("engine: genesis_time is not RFC 3339: %v", err))
	}
	if c.Engine.MaxStartSlotDelay == 0 {
		errs = append(errs, "engine: max_start_slot_delay must be positive")
	}
	if c.Engine.LockTTL.Duration <= 0 {
		errs = append(errs, "engine: lock_ttl must be positive")
	}
	if c.Engine.CacheTTL.Duration <= 0 {
		errs = append(errs, "engine: cache_ttl must be positive")
	}
	if c.Engine.PoolSecret == "" {
		errs = append(errs, "engine: pool_secret must not be empty")
	}

	// Platform seed
	if c.Platform.TokenDecimals > 9 {
		errs = append(errs, fmt.Sprintf("platform: token_decimals must be 0-9, got %d", c.Platform.TokenDecimals))
	}
	if c.Platform.InitialRealTokenReserves == 0 {
		errs = append(errs, "platform: initial_real_token_reserves must be positive")
	}
	if c.Platform.TokenTotalSupply < c.Platform.InitialRealTokenReserves {
		errs = append(errs, "platform: token_total_supply must cover initial_real_token_reserves")
	}
	for name, bps := range map[string]uint64{
		"platform_buy_fee_bps":  c.Platform.PlatformBuyFeeBps,
		"platform_sell_fee_bps": c.Platform.PlatformSellFeeBps,
		"lp_buy_fee_bps":        c.Platform.LpBuyFeeBps,
		"lp_sell_fee_bps":       c.Platform.LpSellFeeBps,
	} {
		if bps > 10_000 {
			errs = append(errs, fmt.Sprintf("platform: %s must be 0-10000, got %d", name, bps))
		}
	}

	// Server
	if c.Server.Enabled {
		if c.Server.Port <= 0 || c.Server.Port > 65535 {
			errs = append(errs, fmt.Sprintf("server: port must be 1-65535, got %d", c.Server.Port))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}

// Genesis returns the parsed slot-zero instant. Call Validate first.
func (c *Config) Genesis() time.Time {
	t, _ := time.Parse(time.RFC3339, c.Engine.GenesisTime)
	return t
}
