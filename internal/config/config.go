// Package config defines the top-level configuration for the flip finder
// and provides validation helpers.
package config

import (
	"fmt"
	"strings"
	"time"
)

// Config is the root configuration structure. Fields are populated from a TOML
// file and then optionally overridden by FLIPFINDER_* environment variables.
// The engine treats a loaded Config as immutable; mid-run reconfiguration is
// not supported.
type Config struct {
	API        APIConfig        `toml:"api"`
	Engine     EngineConfig     `toml:"engine"`
	Thresholds ThresholdsConfig `toml:"thresholds"`
	Pricing    PricingConfig    `toml:"pricing"`
	Fees       FeesConfig       `toml:"fees"`
	Dedup      DedupConfig      `toml:"dedup"`
	RateLimit  RateLimitConfig  `toml:"ratelimit"`
	Fetch      FetchConfig      `toml:"fetch"`
	Redis      RedisConfig      `toml:"redis"`
	Postgres   PostgresConfig   `toml:"postgres"`
	S3         S3Config         `toml:"s3"`
	Notify     NotifyConfig     `toml:"notify"`
	Mode       string           `toml:"mode"`
	LogLevel   string           `toml:"log_level"`
}

// APIConfig holds the Hypixel API endpoint and credential.
type APIConfig struct {
	BaseURL string   `toml:"base_url"`
	Key     string   `toml:"key"`
	Timeout duration `toml:"timeout"`
}

// EngineConfig holds cycle scheduling parameters.
type EngineConfig struct {
	// PollInterval is the fixed tick interval of the cycle scheduler.
	PollInterval duration `toml:"poll_interval"`
	// PageWorkers bounds concurrent page fetches within one cycle.
	PageWorkers int `toml:"page_workers"`
	// CycleBudget caps how long a single cycle may spend fetching before it
	// is aborted as quota-exhausted.
	CycleBudget duration `toml:"cycle_budget"`
}

// ThresholdsConfig holds the profit gates for flip candidates.
type ThresholdsConfig struct {
	MinProfit    int64   `toml:"min_profit"`     // coins
	MinProfitPct float64 `toml:"min_profit_pct"` // fraction
}

// PricingConfig holds reference-price computation parameters. Outlier cutoff
// and minimum sample size are tunables to be validated empirically, not
// fixed constants.
type PricingConfig struct {
	OutlierPct float64 `toml:"outlier_pct"` // trimmed from each end of the ask distribution
	MinSamples int     `toml:"min_samples"` // below this, the previous reference is carried over
}

// FeesConfig holds the auction-house fee schedule. It is configuration
// because the platform changes its fee schedule independently of this engine.
type FeesConfig struct {
	AuctionCutPct float64 `toml:"auction_cut_pct"`
	BINCutPct     float64 `toml:"bin_cut_pct"`
	ClaimFlat     int64   `toml:"claim_flat"`
}

// DedupConfig holds notification dedup parameters.
type DedupConfig struct {
	// Retention must exceed the maximum plausible listing lifetime so an
	// active listing cannot fall out of the window and be re-notified.
	Retention duration `toml:"retention"`
}

// RateLimitConfig holds token-bucket parameters matching the API's published
// quota.
type RateLimitConfig struct {
	Capacity     int     `toml:"capacity"`
	RefillPerSec float64 `toml:"refill_per_sec"`
}

// FetchConfig holds the retry policy applied to every page fetch.
type FetchConfig struct {
	MaxRetries int      `toml:"max_retries"`
	BaseDelay  duration `toml:"base_delay"`
	MaxDelay   duration `toml:"max_delay"`
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

// PostgresConfig holds PostgreSQL connection parameters for the flip history
// store.
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

// S3Config holds S3-compatible object storage parameters for snapshot
// archival. Archival is optional and disabled by default.
type S3Config struct {
	Enabled        bool   `toml:"enabled"`
	Endpoint       string `toml:"endpoint"`
	Region         string `toml:"region"`
	Bucket         string `toml:"bucket"`
	AccessKey      string `toml:"access_key"`
	SecretKey      string `toml:"secret_key"`
	UseSSL         bool   `toml:"use_ssl"`
	ForcePathStyle bool   `toml:"force_path_style"`
}

// NotifyConfig holds notification channel credentials.
type NotifyConfig struct {
	DiscordWebhookURL string   `toml:"discord_webhook_url"`
	TelegramToken     string   `toml:"telegram_token"`
	TelegramChatID    string   `toml:"telegram_chat_id"`
	Events            []string `toml:"events"`
}

// duration is a wrapper around time.Duration that supports TOML string
// decoding (e.g. "30s", "10m").
type duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler so the TOML decoder can
// parse duration strings like "30s" or "10m".
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
		API: APIConfig{
			BaseURL: "https://api.hypixel.net",
			Timeout: duration{15 * time.Second},
		},
		Engine: EngineConfig{
			PollInterval: duration{30 * time.Second},
			PageWorkers:  8,
			CycleBudget:  duration{2 * time.Minute},
		},
		Thresholds: ThresholdsConfig{
			MinProfit:    100_000,
			MinProfitPct: 0.20,
		},
		Pricing: PricingConfig{
			OutlierPct: 0.10,
			MinSamples: 3,
		},
		Fees: FeesConfig{
			AuctionCutPct: 0.01,
			BINCutPct:     0.01,
			ClaimFlat:     0,
		},
		Dedup: DedupConfig{
			Retention: duration{7 * 24 * time.Hour},
		},
		RateLimit: RateLimitConfig{
			Capacity:     120,
			RefillPerSec: 2,
		},
		Fetch: FetchConfig{
			MaxRetries: 4,
			BaseDelay:  duration{500 * time.Millisecond},
			MaxDelay:   duration{15 * time.Second},
		},
		Redis: RedisConfig{
			Addr:       "localhost:6379",
			DB:         0,
			PoolSize:   20,
			MaxRetries: 3,
			TLSEnabled: false,
		},
		Postgres: PostgresConfig{
			Host:          "localhost",
			Port:          5432,
			Database:      "flipfinder",
			User:          "postgres",
			SSLMode:       "disable",
			PoolMaxConns:  10,
			PoolMinConns:  2,
			RunMigrations: true,
		},
		S3: S3Config{
			Enabled:        false,
			Endpoint:       "http://localhost:9000",
			Region:         "us-east-1",
			Bucket:         "flipfinder-snapshots",
			UseSSL:         false,
			ForcePathStyle: true,
		},
		Notify: NotifyConfig{
			Events: []string{"flip_detected", "cycle_failed"},
		},
		Mode:     "run",
		LogLevel: "info",
	}
}

// validModes enumerates the accepted values for Config.Mode.
var validModes = map[string]bool{
	"run":  true,
	"once": true,
}

// validLogLevels enumerates the accepted values for Config.LogLevel.
var validLogLevels = map[string]bool{
	"debug": true,
	"info":  true,
	"warn":  true,
	"error": true,
}

// Validate checks Config for obviously invalid or missing values and returns
// a combined error describing every problem found.
func (c *Config) Validate() error {
	var errs []string

	if !validModes[strings.ToLower(c.Mode)] {
		errs = append(errs, fmt.Sprintf("unknown mode %q (valid: run, once)", c.Mode))
	}
	if !validLogLevels[strings.ToLower(c.LogLevel)] {
		errs = append(errs, fmt.Sprintf("unknown log_level %q (valid: debug, info, warn, error)", c.LogLevel))
	}

	// API
	if c.API.BaseURL == "" {
		errs = append(errs, "api: base_url must not be empty")
	}
	if c.API.Key == "" {
		errs = append(errs, "api: key is required")
	}
	if c.API.Timeout.Duration <= 0 {
		errs = append(errs, "api: timeout must be > 0")
	}

	// Engine
	if c.Engine.PollInterval.Duration <= 0 {
		errs = append(errs, "engine: poll_interval must be > 0")
	}
	if c.Engine.PageWorkers < 1 {
		errs = append(errs, "engine: page_workers must be >= 1")
	}
	if c.Engine.CycleBudget.Duration <= 0 {
		errs = append(errs, "engine: cycle_budget must be > 0")
	}

	// Thresholds
	if c.Thresholds.MinProfit < 0 {
		errs = append(errs, "thresholds: min_profit must be >= 0")
	}
	if c.Thresholds.MinProfitPct < 0 || c.Thresholds.MinProfitPct > 1 {
		errs = append(errs, fmt.Sprintf("thresholds: min_profit_pct must be in [0, 1], got %g", c.Thresholds.MinProfitPct))
	}

	// Pricing
	if c.Pricing.OutlierPct < 0 || c.Pricing.OutlierPct >= 0.5 {
		errs = append(errs, fmt.Sprintf("pricing: outlier_pct must be in [0, 0.5), got %g", c.Pricing.OutlierPct))
	}
	if c.Pricing.MinSamples < 1 {
		errs = append(errs, "pricing: min_samples must be >= 1")
	}

	// Fees
	if c.Fees.AuctionCutPct < 0 || c.Fees.AuctionCutPct >= 1 {
		errs = append(errs, "fees: auction_cut_pct must be in [0, 1)")
	}
	if c.Fees.BINCutPct < 0 || c.Fees.BINCutPct >= 1 {
		errs = append(errs, "fees: bin_cut_pct must be in [0, 1)")
	}
	if c.Fees.ClaimFlat < 0 {
		errs = append(errs, "fees: claim_flat must be >= 0")
	}

	// Dedup — the retention window must outlive the longest listing so an
	// active listing cannot be re-notified by natural expiry.
	if c.Dedup.Retention.Duration <= 0 {
		errs = append(errs, "dedup: retention must be > 0")
	}

	// Rate limit
	if c.RateLimit.Capacity < 1 {
		errs = append(errs, "ratelimit: capacity must be >= 1")
	}
	if c.RateLimit.RefillPerSec <= 0 {
		errs = append(errs, "ratelimit: refill_per_sec must be > 0")
	}

	// Fetch
	if c.Fetch.MaxRetries < 0 {
		errs = append(errs, "fetch: max_retries must be >= 0")
	}
	if c.Fetch.BaseDelay.Duration <= 0 {
		errs = append(errs, "fetch: base_delay must be > 0")
	}
	if c.Fetch.MaxDelay.Duration < c.Fetch.BaseDelay.Duration {
		errs = append(errs, "fetch: max_delay must be >= base_delay")
	}

	// Redis
	if c.Redis.Addr == "" {
		errs = append(errs, "redis: addr must not be empty")
	}
	if c.Redis.PoolSize < 1 {
		errs = append(errs, "redis: pool_size must be >= 1")
	}

	// Postgres (only required in run mode, where flip history is recorded)
	if strings.ToLower(c.Mode) == "run" {
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
	}

	// S3
	if c.S3.Enabled {
		if c.S3.Endpoint == "" {
			errs = append(errs, "s3: endpoint must not be empty when enabled")
		}
		if c.S3.Bucket == "" {
			errs = append(errs, "s3: bucket must not be empty when enabled")
		}
	}

	// Notify — telegram credentials must be set together, or not at all.
	tt := c.Notify.TelegramToken != ""
	tc := c.Notify.TelegramChatID != ""
	if tt != tc {
		errs = append(errs, "notify: telegram_token and telegram_chat_id must be set together")
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}
