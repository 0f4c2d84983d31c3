package app

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	s3blob "github.com/skyblocktools/flipfinder/internal/blob/s3"
	"github.com/skyblocktools/flipfinder/internal/cache/redis"
	"github.com/skyblocktools/flipfinder/internal/config"
	"github.com/skyblocktools/flipfinder/internal/domain"
	"github.com/skyblocktools/flipfinder/internal/fetcher"
	"github.com/skyblocktools/flipfinder/internal/notify"
	"github.com/skyblocktools/flipfinder/internal/platform/skyblock"
	"github.com/skyblocktools/flipfinder/internal/ratelimit"
	"github.com/skyblocktools/flipfinder/internal/snapshot"
	"github.com/skyblocktools/flipfinder/internal/store/postgres"
)

// Dependencies bundles every domain-level dependency the application modes
// need. It is constructed by Wire and torn down by the returned cleanup
// function. Optional collaborators (FlipStore, ReferenceStore, Archiver) are
// nil when the mode or configuration does not use them.
type Dependencies struct {
	Assembler *snapshot.Assembler

	Dedup    domain.DedupStore
	RefStore domain.ReferenceStore
	Flips    domain.FlipStore
	Archiver domain.SnapshotArchiver

	Notifier *notify.Notifier
}

// needsPostgres returns true for modes that record flip history.
func needsPostgres(mode string) bool {
	return strings.ToLower(mode) == "run"
}

// needsRedis returns true for modes that dedup emissions and persist
// references. The dry-run mode works without any infrastructure.
func needsRedis(mode string) bool {
	return strings.ToLower(mode) == "run"
}

// Wire constructs all concrete dependency implementations from the given
// configuration and returns them together with a cleanup function that should
// be called on shutdown to release resources.
func Wire(ctx context.Context, cfg *config.Config) (*Dependencies, func(), error) {
	logger := slog.Default()

	var closers []func()
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	deps := &Dependencies{}

	// --- Market source: API client, token bucket, retrying fetcher ---
	apiClient := skyblock.NewClient(cfg.API.BaseURL, cfg.API.Key, cfg.API.Timeout.Duration)
	limiter := ratelimit.New(cfg.RateLimit.Capacity, cfg.RateLimit.RefillPerSec)
	source := fetcher.New(apiClient, limiter, fetcher.Policy{
		MaxRetries: cfg.Fetch.MaxRetries,
		BaseDelay:  cfg.Fetch.BaseDelay.Duration,
		MaxDelay:   cfg.Fetch.MaxDelay.Duration,
	}, logger)

	deps.Assembler = snapshot.New(source, cfg.Engine.PageWorkers, logger)

	// --- PostgreSQL flip history ---
	if needsPostgres(cfg.Mode) {
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

		deps.Flips = postgres.NewFlipStore(pgClient.Pool())
	}

	// --- Redis dedup and reference cache ---
	if needsRedis(cfg.Mode) {
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

		deps.Dedup = redis.NewDedupStore(redisClient)
		deps.RefStore = redis.NewReferenceCache(redisClient)
	}

	// --- S3 snapshot archival (optional) ---
	if cfg.S3.Enabled {
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
		// Fail startup on a missing or unreachable bucket rather than on
		// the first archive attempt.
		if err := s3Client.Health(ctx); err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: s3 bucket %q: %w", cfg.S3.Bucket, err)
		}

		deps.Archiver = s3blob.NewArchiver(s3Client, "snapshots", logger)
	}

	// --- Notifications ---
	var senders []notify.Sender
	if cfg.Notify.TelegramToken != "" && cfg.Notify.TelegramChatID != "" {
		senders = append(senders, notify.NewTelegramSender(
			cfg.Notify.TelegramToken,
			cfg.Notify.TelegramChatID,
		))
	}
	if cfg.Notify.DiscordWebhookURL != "" {
		senders = append(senders, notify.NewDiscordSender(cfg.Notify.DiscordWebhookURL))
	}
	deps.Notifier = notify.NewNotifier(senders, cfg.Notify.Events, logger)

	return deps, cleanup, nil
}
