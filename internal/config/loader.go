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
// built-in defaults, applies FLIPFINDER_* environment variable overrides, and
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

// applyEnvOverrides reads well-known FLIPFINDER_* environment variables and
// overwrites the corresponding Config fields when a variable is set (i.e. not
// empty). This lets operators inject secrets at deploy time without touching
// the TOML file.
func applyEnvOverrides(cfg *Config) {
	// ── API ──
	setStr(&cfg.API.BaseURL, "FLIPFINDER_API_BASE_URL")
	setStr(&cfg.API.Key, "FLIPFINDER_API_KEY")
	setDuration(&cfg.API.Timeout, "FLIPFINDER_API_TIMEOUT")

	// ── Engine ──
	setDuration(&cfg.Engine.PollInterval, "FLIPFINDER_ENGINE_POLL_INTERVAL")
	setInt(&cfg.Engine.PageWorkers, "FLIPFINDER_ENGINE_PAGE_WORKERS")
	setDuration(&cfg.Engine.CycleBudget, "FLIPFINDER_ENGINE_CYCLE_BUDGET")

	// ── Thresholds ──
	setInt64(&cfg.Thresholds.MinProfit, "FLIPFINDER_THRESHOLDS_MIN_PROFIT")
	setFloat64(&cfg.Thresholds.MinProfitPct, "FLIPFINDER_THRESHOLDS_MIN_PROFIT_PCT")

	// ── Pricing ──
	setFloat64(&cfg.Pricing.OutlierPct, "FLIPFINDER_PRICING_OUTLIER_PCT")
	setInt(&cfg.Pricing.MinSamples, "FLIPFINDER_PRICING_MIN_SAMPLES")

	// ── Fees ──
	setFloat64(&cfg.Fees.AuctionCutPct, "FLIPFINDER_FEES_AUCTION_CUT_PCT")
	setFloat64(&cfg.Fees.BINCutPct, "FLIPFINDER_FEES_BIN_CUT_PCT")
	setInt64(&cfg.Fees.ClaimFlat, "FLIPFINDER_FEES_CLAIM_FLAT")

	// ── Dedup ──
	setDuration(&cfg.Dedup.Retention, "FLIPFINDER_DEDUP_RETENTION")

	// ── Rate limit ──
	setInt(&cfg.RateLimit.Capacity, "FLIPFINDER_RATELIMIT_CAPACITY")
	setFloat64(&cfg.RateLimit.RefillPerSec, "FLIPFINDER_RATELIMIT_REFILL_PER_SEC")

	// ── Fetch ──
	setInt(&cfg.Fetch.MaxRetries, "FLIPFINDER_FETCH_MAX_RETRIES")
	setDuration(&cfg.Fetch.BaseDelay, "FLIPFINDER_FETCH_BASE_DELAY")
	setDuration(&cfg.Fetch.MaxDelay, "FLIPFINDER_FETCH_MAX_DELAY")

	// ── Redis ──
	setStr(&cfg.Redis.Addr, "FLIPFINDER_REDIS_ADDR")
	setStr(&cfg.Redis.Password, "FLIPFINDER_REDIS_PASSWORD")
	setInt(&cfg.Redis.DB, "FLIPFINDER_REDIS_DB")
	setInt(&cfg.Redis.PoolSize, "FLIPFINDER_REDIS_POOL_SIZE")
	setInt(&cfg.Redis.MaxRetries, "FLIPFINDER_REDIS_MAX_RETRIES")
	setBool(&cfg.Redis.TLSEnabled, "FLIPFINDER_REDIS_TLS_ENABLED")

	// ── Postgres ──
	setStr(&cfg.Postgres.DSN, "FLIPFINDER_POSTGRES_DSN")
	setStr(&cfg.Postgres.Host, "FLIPFINDER_POSTGRES_HOST")
	setInt(&cfg.Postgres.Port, "FLIPFINDER_POSTGRES_PORT")
	setStr(&cfg.Postgres.Database, "FLIPFINDER_POSTGRES_DATABASE")
	setStr(&cfg.Postgres.User, "FLIPFINDER_POSTGRES_USER")
	setStr(&cfg.Postgres.Password, "FLIPFINDER_POSTGRES_PASSWORD")
	setStr(&cfg.Postgres.SSLMode, "FLIPFINDER_POSTGRES_SSLMODE")
	setInt(&cfg.Postgres.PoolMaxConns, "FLIPFINDER_POSTGRES_POOL_MAX_CONNS")
	setInt(&cfg.Postgres.PoolMinConns, "FLIPFINDER_POSTGRES_POOL_MIN_CONNS")
	setBool(&cfg.Postgres.RunMigrations, "FLIPFINDER_POSTGRES_RUN_MIGRATIONS")

	// ── S3 ──
	setBool(&cfg.S3.Enabled, "FLIPFINDER_S3_ENABLED")
	setStr(&cfg.S3.Endpoint, "FLIPFINDER_S3_ENDPOINT")
	setStr(&cfg.S3.Region, "FLIPFINDER_S3_REGION")
	setStr(&cfg.S3.Bucket, "FLIPFINDER_S3_BUCKET")
	setStr(&cfg.S3.AccessKey, "FLIPFINDER_S3_ACCESS_KEY")
	setStr(&cfg.S3.SecretKey, "FLIPFINDER_S3_SECRET_KEY")
	setBool(&cfg.S3.UseSSL, "FLIPFINDER_S3_USE_SSL")
	setBool(&cfg.S3.ForcePathStyle, "FLIPFINDER_S3_FORCE_PATH_STYLE")

	// ── Notify ──
	setStr(&cfg.Notify.DiscordWebhookURL, "FLIPFINDER_NOTIFY_DISCORD_WEBHOOK_URL")
	setStr(&cfg.Notify.TelegramToken, "FLIPFINDER_NOTIFY_TELEGRAM_TOKEN")
	setStr(&cfg.Notify.TelegramChatID, "FLIPFINDER_NOTIFY_TELEGRAM_CHAT_ID")
	setStringSlice(&cfg.Notify.Events, "FLIPFINDER_NOTIFY_EVENTS")

	// ── Top-level ──
	setStr(&cfg.Mode, "FLIPFINDER_MODE")
	setStr(&cfg.LogLevel, "FLIPFINDER_LOG_LEVEL")
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

func setInt64(dst *int64, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			*dst = n
		}
	}
}

func setFloat64(dst *float64, key string) {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			*dst = f
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
