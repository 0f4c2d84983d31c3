package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/skyblocktools/flipfinder/internal/domain"
)

// DedupStore implements domain.DedupStore on Redis. Each emitted listing gets
// a key holding its first-seen timestamp with a TTL equal to the retention
// window; SET NX EX gives the atomic check-and-set, and Redis persistence
// carries the table across process restarts.
type DedupStore struct {
	rdb *redis.Client
}

// NewDedupStore creates a DedupStore backed by the given Client.
func NewDedupStore(c *Client) *DedupStore {
	return &DedupStore{rdb: c.Underlying()}
}

func seenKey(listingID string) string {
	return "seen:" + listingID
}

// TryMarkEmitted atomically records the listing if it has no live entry.
// It returns true when the caller won the mark and should emit; false means
// another emission already claimed the listing within the retention window.
func (d *DedupStore) TryMarkEmitted(ctx context.Context, listingID string, now time.Time, ttl time.Duration) (bool, error) {
	ok, err := d.rdb.SetNX(ctx, seenKey(listingID), now.UTC().Format(time.RFC3339Nano), ttl).Result()
	if err != nil {
		return false, fmt.Errorf("redis: mark emitted %s: %w", listingID, err)
	}
	return ok, nil
}

// FirstSeen returns the timestamp recorded for a live entry, or
// domain.ErrNotFound when the listing has no live entry.
func (d *DedupStore) FirstSeen(ctx context.Context, listingID string) (time.Time, error) {
	v, err := d.rdb.Get(ctx, seenKey(listingID)).Result()
	if errors.Is(err, redis.Nil) {
		return time.Time{}, domain.ErrNotFound
	}
	if err != nil {
		return time.Time{}, fmt.Errorf("redis: first seen %s: %w", listingID, err)
	}
	ts, err := time.Parse(time.RFC3339Nano, v)
	if err != nil {
		return time.Time{}, fmt.Errorf("redis: first seen %s: parse %q: %w", listingID, v, err)
	}
	return ts, nil
}

// Compile-time interface check.
var _ domain.DedupStore = (*DedupStore)(nil)
