package cache

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/viniciushashizume/stock-insight-hub/internal/config"
)

const (
	insightsKeyPrefix     = "insights"
	insightsScanBatchSize = 100
)

// InsightsCache memoizes computed views per scope. Callers build the scope
// from the dataset fingerprint and the engine options, so a new dataset or a
// new configuration never reads stale entries.
type InsightsCache interface {
	Get(ctx context.Context, view, scope string, out interface{}) (bool, error)
	Set(ctx context.Context, view, scope string, value interface{}) error
	InvalidateAll(ctx context.Context) error
}

type redisInsightsCache struct {
	client *redis.Client
	ttl    time.Duration
}

type noopInsightsCache struct{}

// NewInsightsCache returns a redis backed cache, or a no-op one when caching
// is disabled.
func NewInsightsCache(cfg config.CacheConfig) (InsightsCache, error) {
	if !cfg.Enabled {
		return &noopInsightsCache{}, nil
	}

	client, ttl, err := newRedisClient(cfg)
	if err != nil {
		return nil, err
	}

	return &redisInsightsCache{
		client: client,
		ttl:    ttl,
	}, nil
}

func NewNoopInsightsCache() InsightsCache {
	return &noopInsightsCache{}
}

func (c *redisInsightsCache) Get(ctx context.Context, view, scope string, out interface{}) (bool, error) {
	payload, err := c.client.Get(ctx, buildInsightsKey(view, scope)).Bytes()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("redis get failed: %w", err)
	}

	if err := json.Unmarshal(payload, out); err != nil {
		return false, fmt.Errorf("decode %s cache: %w", view, err)
	}
	return true, nil
}

func (c *redisInsightsCache) Set(ctx context.Context, view, scope string, value interface{}) error {
	payload, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode %s cache: %w", view, err)
	}

	if err := c.client.Set(ctx, buildInsightsKey(view, scope), payload, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}
	return nil
}

func (c *redisInsightsCache) InvalidateAll(ctx context.Context) error {
	return deleteKeysWithPrefix(ctx, c.client, insightsKeyPrefix+":", insightsScanBatchSize)
}

func (n *noopInsightsCache) Get(ctx context.Context, view, scope string, out interface{}) (bool, error) {
	return false, nil
}

func (n *noopInsightsCache) Set(ctx context.Context, view, scope string, value interface{}) error {
	return nil
}

func (n *noopInsightsCache) InvalidateAll(ctx context.Context) error {
	return nil
}

func buildInsightsKey(view, scope string) string {
	sum := sha1.Sum([]byte(scope))
	return fmt.Sprintf("%s:%s:%s", insightsKeyPrefix, view, hex.EncodeToString(sum[:8]))
}
