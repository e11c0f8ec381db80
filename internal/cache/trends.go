package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/benvon/askdev/internal/tags"
	"github.com/redis/go-redis/v9"
)

const (
	DefaultKeyPrefix = "askdev:tags:"
	DefaultTTL       = 10 * time.Minute

	snapshotKey = "snapshot"
	pendingKey  = "refresh_pending"
)

// TrendCache stores the precomputed tag snapshot in Redis.
type TrendCache struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// NewTrendCache creates a cache. Empty prefix and non-positive ttl fall back to defaults.
func NewTrendCache(client *redis.Client, prefix string, ttl time.Duration) *TrendCache {
	if prefix == "" {
		prefix = DefaultKeyPrefix
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &TrendCache{client: client, prefix: prefix, ttl: ttl}
}

// Get returns the cached snapshot, or nil on a miss.
func (c *TrendCache) Get(ctx context.Context) (*tags.Snapshot, error) {
	data, err := c.client.Get(ctx, c.prefix+snapshotKey).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read trend snapshot: %w", err)
	}
	var snap tags.Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("failed to decode trend snapshot: %w", err)
	}
	return &snap, nil
}

// Set stores snap for the cache TTL.
func (c *TrendCache) Set(ctx context.Context, snap *tags.Snapshot) error {
	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("failed to encode trend snapshot: %w", err)
	}
	if err := c.client.Set(ctx, c.prefix+snapshotKey, data, c.ttl).Err(); err != nil {
		return fmt.Errorf("failed to write trend snapshot: %w", err)
	}
	return nil
}

// Invalidate drops the cached snapshot.
func (c *TrendCache) Invalidate(ctx context.Context) error {
	if err := c.client.Del(ctx, c.prefix+snapshotKey).Err(); err != nil {
		return fmt.Errorf("failed to invalidate trend snapshot: %w", err)
	}
	return nil
}

// MarkRefreshPending claims the refresh slot for window. It reports true when
// the caller should enqueue a refresh and false when one is already pending.
func (c *TrendCache) MarkRefreshPending(ctx context.Context, window time.Duration) (bool, error) {
	ok, err := c.client.SetNX(ctx, c.prefix+pendingKey, time.Now().UTC().Format(time.RFC3339), window).Result()
	if err != nil {
		return false, fmt.Errorf("failed to mark refresh pending: %w", err)
	}
	return ok, nil
}

// ClearRefreshPending releases the refresh slot once a refresh has run.
func (c *TrendCache) ClearRefreshPending(ctx context.Context) error {
	if err := c.client.Del(ctx, c.prefix+pendingKey).Err(); err != nil {
		return fmt.Errorf("failed to clear refresh pending: %w", err)
	}
	return nil
}

// Ping checks Redis is reachable.
func (c *TrendCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}
