package utils

import (
	"context"
	"fmt"
	"place-search/internal/config"
	"place-search/internal/logger"
	"time"

	"github.com/redis/go-redis/v9"
)

// OpenRedis: client for the configured address, nil when Redis is disabled
// Constraint: does not dial; use PingRedis to check reachability.
func OpenRedis(cfg config.Config) *redis.Client {
	if !cfg.RedisEnabled {
		return nil
	}
	logger.L().Debug("redis_config", "addr", cfg.RedisAddr(), "db", cfg.RedisDB)
	return redis.NewClient(&redis.Options{
		Addr:         cfg.RedisAddr(),
		Password:     cfg.RedisPass,
		DB:           cfg.RedisDB,
		DialTimeout:  2 * time.Second,
		ReadTimeout:  500 * time.Millisecond,
		WriteTimeout: 500 * time.Millisecond,
	})
}

// PingRedis reports whether rc answers within two seconds.
func PingRedis(ctx context.Context, rc *redis.Client) error {
	if rc == nil {
		return fmt.Errorf("redis disabled")
	}
	pctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	return rc.Ping(pctx).Err()
}
