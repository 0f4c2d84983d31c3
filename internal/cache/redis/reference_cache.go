package redis

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/skyblocktools/flipfinder/internal/domain"
)

// referenceKey is the hash holding the last successful reference map, one
// field per item id with a JSON-encoded PriceReference value.
const referenceKey = "refs:latest"

// ReferenceCache implements domain.ReferenceStore on a Redis hash. Persisting
// the last-good reference map lets a restarted process evaluate immediately
// instead of sitting through a cold-start period with no references.
type ReferenceCache struct {
	rdb *redis.Client
}

// NewReferenceCache creates a ReferenceCache backed by the given Client.
func NewReferenceCache(c *Client) *ReferenceCache {
	return &ReferenceCache{rdb: c.Underlying()}
}

// Save replaces the stored reference map wholesale. Delete-then-write runs in
// a transaction so readers never observe a partially written map.
func (r *ReferenceCache) Save(ctx context.Context, refs map[string]domain.PriceReference) error {
	fields := make(map[string]any, len(refs))
	for id, ref := range refs {
		b, err := json.Marshal(ref)
		if err != nil {
			return fmt.Errorf("redis: encode reference %s: %w", id, err)
		}
		fields[id] = b
	}

	pipe := r.rdb.TxPipeline()
	pipe.Del(ctx, referenceKey)
	if len(fields) > 0 {
		pipe.HSet(ctx, referenceKey, fields)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis: save references: %w", err)
	}
	return nil
}

// Load returns the stored reference map. An empty map (not an error) is
// returned when nothing has been saved yet.
func (r *ReferenceCache) Load(ctx context.Context) (map[string]domain.PriceReference, error) {
	raw, err := r.rdb.HGetAll(ctx, referenceKey).Result()
	if err != nil {
		return nil, fmt.Errorf("redis: load references: %w", err)
	}

	refs := make(map[string]domain.PriceReference, len(raw))
	for id, v := range raw {
		var ref domain.PriceReference
		if err := json.Unmarshal([]byte(v), &ref); err != nil {
			return nil, fmt.Errorf("redis: decode reference %s: %w", id, err)
		}
		refs[id] = ref
	}
	return refs, nil
}

// Compile-time interface check.
var _ domain.ReferenceStore = (*ReferenceCache)(nil)
