package api

import (
	"context"
	"encoding/hex"
	"errors"
	"place-search/internal/logger"
	"place-search/internal/search"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/redis/go-redis/v9"
)

// ResultCache stores encoded result sets by key. Implementations must never fail a search.
type ResultCache interface {
	Get(ctx context.Context, key string) ([]byte, bool)
	Set(ctx context.Context, key string, val []byte)
}

// CacheKey: stable key for everything that influences a ResultSet
// Municipalities are a set and strategies always run in canonical order, so both are normalized;
// column order changes result order and is kept.
func CacheKey(req search.Request) string {
	munis := append([]string(nil), req.Municipalities...)
	sort.Strings(munis)
	want := map[search.Strategy]bool{}
	for _, s := range req.Strategies {
		want[s] = true
	}
	var strategies []string
	for _, s := range search.Strategies {
		if want[s] {
			strategies = append(strategies, strconv.Itoa(int(s)))
		}
	}
	h := xxhash.New()
	for _, part := range []string{
		req.Query,
		strings.Join(req.Columns, "\x1f"),
		strings.Join(strategies, ","),
		strings.Join(munis, "\x1f"),
		strconv.FormatFloat(req.Threshold, 'g', -1, 64),
	} {
		_, _ = h.WriteString(part)
		_, _ = h.Write([]byte{0x1e})
	}
	var sum [8]byte
	return "search:" + hex.EncodeToString(h.Sum(sum[:0]))
}

// RedisCache is a ResultCache in Redis with a fixed TTL.
type RedisCache struct {
	rc  *redis.Client
	ttl time.Duration
}

func NewRedisCache(rc *redis.Client, ttl time.Duration) *RedisCache {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &RedisCache{rc: rc, ttl: ttl}
}

func (c *RedisCache) Get(ctx context.Context, key string) ([]byte, bool) {
	b, err := c.rc.Get(ctx, key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			logger.L().Debug("cache_get_error", "key", key, "err", err)
		}
		return nil, false
	}
	return b, true
}

func (c *RedisCache) Set(ctx context.Context, key string, val []byte) {
	if err := c.rc.Set(ctx, key, val, c.ttl).Err(); err != nil {
		logger.L().Debug("cache_set_error", "key", key, "err", err)
	}
}
