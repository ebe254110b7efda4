package cache

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/viniciushashizume/stock-insight-hub/internal/config"
)

func TestNewInsightsCache_DisabledIsNoop(t *testing.T) {
	c, err := NewInsightsCache(config.CacheConfig{Enabled: false})
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, c.Set(ctx, "risk", "abc", map[string]int{"a": 1}))

	var out map[string]int
	hit, err := c.Get(ctx, "risk", "abc", &out)
	require.NoError(t, err)
	assert.False(t, hit)
	assert.NoError(t, c.InvalidateAll(ctx))
}

func TestBuildInsightsKey(t *testing.T) {
	a := buildInsightsKey("risk", "fp-1")
	b := buildInsightsKey("risk", "fp-2")
	c := buildInsightsKey("clusters", "fp-1")

	assert.True(t, strings.HasPrefix(a, "insights:risk:"))
	assert.NotEqual(t, a, b)
	assert.NotEqual(t, a, c)
	assert.Equal(t, a, buildInsightsKey("risk", "fp-1"))
	assert.Len(t, strings.TrimPrefix(a, "insights:risk:"), 16)
}

func TestBuildRedisOptions(t *testing.T) {
	opts, err := buildRedisOptions(config.CacheConfig{RedisHost: "redis", RedisPort: "6380", RedisDB: 2})
	require.NoError(t, err)
	assert.Equal(t, "redis:6380", opts.Addr)
	assert.Equal(t, 2, opts.DB)

	opts, err = buildRedisOptions(config.CacheConfig{})
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1:6379", opts.Addr)

	opts, err = buildRedisOptions(config.CacheConfig{RedisURL: "redis://:secret@cache:6379/1"})
	require.NoError(t, err)
	assert.Equal(t, "cache:6379", opts.Addr)
	assert.Equal(t, "secret", opts.Password)
	assert.Equal(t, 1, opts.DB)

	_, err = buildRedisOptions(config.CacheConfig{RedisURL: "://bad"})
	assert.Error(t, err)
}

func newRedisCache(t *testing.T) (InsightsCache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	c, err := NewInsightsCache(config.CacheConfig{
		Enabled:    true,
		RedisURL:   "redis://" + mr.Addr(),
		TTLSeconds: 60,
	})
	require.NoError(t, err)
	return c, mr
}

func TestRedisInsightsCache_SetGet(t *testing.T) {
	c, mr := newRedisCache(t)
	ctx := context.Background()

	var out map[string]int
	hit, err := c.Get(ctx, "risk", "fp:opts", &out)
	require.NoError(t, err)
	assert.False(t, hit)

	require.NoError(t, c.Set(ctx, "risk", "fp:opts", map[string]int{"critical": 3}))
	hit, err = c.Get(ctx, "risk", "fp:opts", &out)
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, map[string]int{"critical": 3}, out)

	key := buildInsightsKey("risk", "fp:opts")
	assert.True(t, mr.Exists(key))
	assert.Equal(t, 60*time.Second, mr.TTL(key))

	mr.FastForward(61 * time.Second)
	hit, err = c.Get(ctx, "risk", "fp:opts", &out)
	require.NoError(t, err)
	assert.False(t, hit)
}

func TestRedisInsightsCache_InvalidateAll(t *testing.T) {
	c, mr := newRedisCache(t)
	ctx := context.Background()

	for _, view := range []string{"clusters", "risk", "seasonality"} {
		require.NoError(t, c.Set(ctx, view, "fp", []int{1}))
	}
	require.NoError(t, mr.Set("other:key", "keep"))

	require.NoError(t, c.InvalidateAll(ctx))

	for _, view := range []string{"clusters", "risk", "seasonality"} {
		assert.False(t, mr.Exists(buildInsightsKey(view, "fp")), view)
	}
	assert.True(t, mr.Exists("other:key"))
}

func TestNewInsightsCache_Unreachable(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()

	_, err := NewInsightsCache(config.CacheConfig{Enabled: true, RedisURL: "redis://" + addr})
	assert.Error(t, err)
}
